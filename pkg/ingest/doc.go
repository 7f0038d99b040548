// Package ingest turns a two-column spreadsheet export into the two cleaned
// numeric sequences the compute engine expects.
//
// Read treats the first row as a header and the first two columns as Day 1
// and Day 2; further columns are ignored. Empty cells, NA/NaN/null markers and
// non-finite numbers count as missing. Options.Missing chooses whether a
// missing cell drops its whole row (MissingRows, the default) or only itself
// (MissingColumns). Any other non-numeric cell fails the whole read with an
// error wrapping types.ErrMalformedInput.
package ingest
