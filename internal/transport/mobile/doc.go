// Package mobile is the wallet transport used on mobile hosts: interactions
// leave through a deep link and responses come back through the relay.
//
// Responses on the relay are sealboxes keyed by the X25519 secret between
// the wallet's returned public key and the dApp identity, with the dApp
// definition address as HKDF context. A background loop polls the relay
// for the current session, decrypts what it finds and hands the responses
// to the sink; Send only opens the link and waits on the sink.
package mobile
