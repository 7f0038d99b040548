// Package config loads the optional reliastat CLI configuration file.
//
// Top-level types:
//   - Config{Bootstrap, CSV, Server}: the full tree parsed from YAML
//   - compute.Settings under "bootstrap": resamples, confidence, z_mode, workers, seed
//   - ingest.Options under "csv": delimiter, missing, decimal_comma
//   - ServerConfig: endpoint, timeout, retries, auth, tls for the remote server
//     used by "reliastat submit"
//   - FetchConfig: timeout, auth, tls for CSV files read from http(s) URLs
//   - AuthConfig: mode (mtls|apikey|bearer|basic|none); Key(), Token() and
//     Password() resolve secrets from environment variables
//
// Load(path) reads the YAML file, applies defaults (1000 resamples, 0.95
// confidence, comma delimiter, row-wise missing policy, 30s timeouts) and
// validates enums and ranges. Default() returns the same defaults without a file.
package config
