// Package memzero wipes key material held in byte slices.
package memzero

import "runtime"

// Zero overwrites every slice with zeros. The slices stay alive until the
// writes are done so the compiler cannot drop them as dead stores.
func Zero(bufs ...[]byte) {
	for _, b := range bufs {
		clear(b)
	}
	runtime.KeepAlive(bufs)
}
