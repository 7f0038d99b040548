// Package config loads the server-side configuration from the `server:` section
// of the config file.
//
// Config fields:
//   - HTTPPort      port for the REST API and WebSocket hub (default 8080)
//   - Auth.Mode     "apikey" or "none"
//   - Auth.KeyEnv   environment variable holding the expected API key
//   - Auth.Header   HTTP header name (default "x-api-key")
//   - Retention.TTL how long a completed analysis stays retrievable (default 30m)
//   - Bootstrap     default resamples, confidence, z_mode, workers and seed
//   - CSV           delimiter, missing-value policy and decimal comma for CSV bodies
//   - Limits        max request body size and max per-request resamples
//   - Alerts        threshold rules and webhook targets
//
// Load(path) applies defaults before unmarshalling, then validates. Watch
// reloads the file on change so alert rules can be edited without a restart.
package config
