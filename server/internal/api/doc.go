// Package api implements the HTTP REST API for reliastat-server.
//
// New(store, engine, publisher, options) returns a Handler that serves:
//
//	GET  /api/v1/health                    status, stored analysis count
//	POST /api/v1/analyses                  run an analysis (text/csv or application/json)
//	GET  /api/v1/analyses?limit=N          stored analyses, newest first
//	GET  /api/v1/analyses/{id}             one analysis with diagnostics; 404 if unknown or expired
//	GET  /api/v1/analyses/{id}/export.csv  the "Métrica,Valor" CSV export
//	GET  /api/v1/analyses/{id}/metrics     Prometheus text exposition of the results
//	GET  /api/v1/alerts?limit=N            recently fired alerts, newest first
//
// A CSV upload takes resamples, confidence, seed and z_mode overrides from the
// query string; a JSON body carries them next to day1 and day2. Malformed data
// is answered with 422 and {"error": "Erro ao processar os dados: ..."}.
//
// All endpoints return 405 for unsupported methods. No external HTTP
// framework is used.
package api
