// Package pubsub provides in-process publish/subscribe channels.
//
// Two multiplicities are offered:
//
//   - NewSubject: replay the latest value to every new subscriber; a slow
//     subscriber only ever sees the most recent value (connection state,
//     ledger snapshots, wallet data).
//   - NewBroadcaster: deliver to current subscribers only; a slow subscriber
//     loses its oldest undelivered events once its buffer is full (lifecycle
//     events, storage change notifications).
//
// Publish never blocks.
package pubsub
