package interfaces

import "context"

// KeyValueBackend is the raw persistence contract underneath the partitioned
// storage. Values are opaque bytes; a missing key is reported with ok=false,
// never as an error.
type KeyValueBackend interface {
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context, prefix string) ([]string, error)
}
