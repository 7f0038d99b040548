// Package export serialises a types.ResultSet for consumers outside the engine.
//
// WriteCSV produces the two-column "Métrica,Valor" table that spreadsheet tools
// open directly. WritePrometheus renders the same values as a Prometheus text
// exposition, one gauge family per metric, so a completed analysis can be
// scraped or pushed next to other monitoring data.
package export
