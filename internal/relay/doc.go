// Package relay speaks the wallet relay protocol: a single POST endpoint
// taking {method, sessionId, ...} bodies.
//
// Client is the dApp side. It fetches the encrypted responses queued for a
// session (getResponses) and, for wallet simulators and tests, queues one
// (sendResponse).
//
// Server is an in-memory development relay. Responses are kept per session
// and drained when read. Nothing is persisted.
package relay
