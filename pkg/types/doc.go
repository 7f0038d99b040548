// Package types defines the shared data model used by the compute engine, the
// CLI and the server: paired measurement samples, the fixed metric set and the
// immutable ResultSet that crosses every front-end boundary.
//
// A PairedSample can only be built through NewPairedSample, which rejects
// empty, mismatched or non-finite input with ErrMalformedInput. A ResultSet
// can only be built with all twelve metrics present, so a partial result is
// never observable.
package types
