package pebble

import (
	"context"
	"strings"

	"github.com/aclgate/aclgate"

	pebbledb "github.com/cockroachdb/pebble"
	"github.com/fxamacker/cbor/v2"
	"github.com/gofrs/uuid/v5"
)

// record is the stored value: the revision alongside the encoded document.
type record struct {
	Revision []byte `cbor:"revision"`
	Policy   []byte `cbor:"policy"`
}

type PebbleStore struct {
	db *pebbledb.DB
}

func NewPebbleStore(dirname string) (*PebbleStore, error) {
	db, err := pebbledb.Open(dirname, &pebbledb.Options{})
	return &PebbleStore{db}, err
}

func (s *PebbleStore) Close() error {
	return s.db.Close()
}

func (s *PebbleStore) Put(ctx context.Context, name string, policy *aclgate.Policy) (uuid.UUID, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.UUID{}, err
	}
	doc, err := aclgate.MarshalPolicy(policy)
	if err != nil {
		return uuid.UUID{}, err
	}
	value, err := cbor.Marshal(record{Revision: id.Bytes(), Policy: doc})
	if err != nil {
		return uuid.UUID{}, err
	}
	return id, s.db.Set(toKey(name), value, pebbledb.Sync)
}

func (s *PebbleStore) Get(ctx context.Context, name string) (*aclgate.Policy, uuid.UUID, error) {
	id := uuid.UUID{}
	value, closer, err := s.db.Get(toKey(name))
	if err == pebbledb.ErrNotFound {
		return nil, id, aclgate.ErrNotFound
	} else if err != nil {
		return nil, id, err
	}
	rec := record{}
	err = cbor.Unmarshal(value, &rec)
	closer.Close()
	if err != nil {
		return nil, id, err
	}
	id, err = uuid.FromBytes(rec.Revision)
	if err != nil {
		return nil, id, err
	}
	policy, err := aclgate.UnmarshalPolicy(rec.Policy)
	return policy, id, err
}

func (s *PebbleStore) Delete(ctx context.Context, name string) error {
	return s.db.Delete(toKey(name), pebbledb.Sync)
}

func (s *PebbleStore) List(ctx context.Context) ([]string, error) {
	iter, err := s.db.NewIter(prefixIterOptions([]byte(keyPrefix)))
	if err != nil {
		return nil, err
	}
	names := []string{}
	for iter.First(); iter.Valid(); iter.Next() {
		names = append(names, strings.TrimPrefix(string(iter.Key()), keyPrefix))
	}
	if err := iter.Close(); err != nil {
		return nil, err
	}
	return names, nil
}

const keyPrefix = "policy/"

func toKey(name string) []byte {
	return []byte(keyPrefix + name)
}

func keyUpperBound(b []byte) []byte {
	end := make([]byte, len(b))
	copy(end, b)
	for i := len(end) - 1; i >= 0; i-- {
		end[i] = end[i] + 1
		if end[i] != 0 {
			return end[:i+1]
		}
	}
	return nil // no upper-bound
}

func prefixIterOptions(prefix []byte) *pebbledb.IterOptions {
	return &pebbledb.IterOptions{
		LowerBound: prefix,
		UpperBound: keyUpperBound(prefix),
	}
}
