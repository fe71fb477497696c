// Package domain defines the wire types, ledger records and contracts shared
// across dappkit. It contains plain types (types/) and interfaces
// (interfaces/) only, re-exported here for compact imports.
package domain
