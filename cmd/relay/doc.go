// Package main runs the in-memory relay that carries encrypted wallet
// responses back to a dApp during development and tests.
//
// HTTP API
//
//	POST /api/v1 {"method":"sendResponse","sessionId":S,"data":D,"publicKey":K}
//	    Queue an encrypted response for session S. The wallet calls this.
//
//	POST /api/v1 {"method":"getResponses","sessionId":S}
//	    Return and drop every queued response for S, oldest first. An empty
//	    queue returns [].
//
//	GET /healthz
//	    200 while the process is up.
//
// Behaviour
//
//   - All state is held in memory and lost on process exit.
//   - Each session keeps at most --queue-limit responses; older ones are
//     dropped first.
//   - Every request is logged with method, path, remote, status, bytes and
//     duration. Set DAPPKIT_LOG_LEVEL=debug to see successful ones.
//   - The default listen address is :8080.
//
// The relay never sees plaintext. Responses are sealed with a key only the
// dApp and the wallet can derive.
package main
