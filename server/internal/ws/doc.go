// Package ws implements the WebSocket hub for reliastat-server, mounted at
// /ws/stream.
//
// The server mounts the hub behind the same API-key middleware as the REST
// API. On connect a client receives the most recent analyses:
//
//	{"event": "snapshot", "analyses": [ /* newest first, same schema as GET /api/v1/analyses/{id} */ ]}
//
// Every analysis completed afterwards is pushed as it is stored:
//
//	{"event": "analysis", "analysis": { ... }}
//
// An analysis stored while a client connects may appear in both its snapshot
// and an analysis event; clients deduplicate by id. Clients whose send buffer
// fills up are disconnected. The hub pings every 54s and drops connections
// that stop answering.
package ws
