package aclgate

import (
	"context"

	"github.com/fxamacker/cbor/v2"
	"github.com/gofrs/uuid/v5"
)

// Store persists compiled policies by name so multiple services can share one
// policy set. Every Put creates a new UUIDv7 revision. Implementations live
// in store/pebble, store/sqlite3 and store/postgres.
type Store interface {
	// Put stores the policy under name, replacing any previous revision.
	Put(ctx context.Context, name string, policy *Policy) (uuid.UUID, error)
	// Get returns the policy stored under name together with its revision,
	// or [ErrNotFound].
	Get(ctx context.Context, name string) (*Policy, uuid.UUID, error)
	Delete(ctx context.Context, name string) error
	List(ctx context.Context) ([]string, error)

	Close() error
}

// MarshalPolicy encodes a policy document for storage.
func MarshalPolicy(p *Policy) ([]byte, error) {
	return cbor.Marshal(p)
}

// UnmarshalPolicy decodes a policy document previously encoded with
// [MarshalPolicy].
func UnmarshalPolicy(data []byte) (*Policy, error) {
	p := &Policy{}
	if err := cbor.Unmarshal(data, p); err != nil {
		return nil, err
	}
	return p, nil
}
