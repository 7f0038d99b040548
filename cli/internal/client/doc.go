// Package client talks HTTP on behalf of the CLI.
//
// Submit POSTs a CSV file to a reliastat-server and decodes the stored
// analysis. FetchCSV downloads an input file from an http(s) URL. Both use
// go-resty clients built once from the CLI config, with authentication
// (apikey, bearer, basic or mTLS) applied per client.
//
// Transport errors, 429 and 5xx responses are retried with resty's jittered
// exponential backoff. A 422 from the server means the data was rejected and
// is reported as types.ErrMalformedInput without retrying.
package client
