// Package datarequest turns what an application wants from the wallet
// ("at least one account, with proof") into wire request items, and turns
// wallet responses back into application-facing WalletData.
//
// Builders are values: every method returns a modified copy, so a builder
// can be shared and specialised freely. A Request holds at most one item of
// each kind; applying a later item of the same kind replaces the earlier
// one.
package datarequest
