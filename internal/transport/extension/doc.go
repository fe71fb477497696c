// Package extension is the wallet transport that reaches the wallet through
// the connector browser extension.
//
// The extension is behind a Bridge: a duplex JSON message channel. In a
// browser that is a pair of page events; here it is either an in-process
// ChannelBridge or a WebSocketBridge to a local connector.
//
// Send races a missing-extension timer against the first lifecycle event for
// the interaction. Losing that race fails with missingExtension; otherwise
// the call waits for the wallet response, forwarding every lifecycle event
// to the caller.
package extension
