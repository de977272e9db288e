package wallet

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/tokenized/milestone-escrow/pkg/cardano"
	"github.com/tokenized/milestone-escrow/pkg/storage"

	"github.com/pkg/errors"
)

const (
	walletKey = "wallet/keys.json"
)

var (
	ErrKeyNotFound = errors.New("Key not found")
)

// KeyStore holds encrypted keys by key hash.
type KeyStore struct {
	Keys map[cardano.Hash28]*Key
}

func NewKeyStore() *KeyStore {
	return &KeyStore{
		Keys: make(map[cardano.Hash28]*Key),
	}
}

func (k KeyStore) Add(key *Key) {
	k.Keys[key.Hash()] = key
}

func (k KeyStore) Remove(key *Key) {
	delete(k.Keys, key.Hash())
}

// Get returns the key corresponding to the specified key hash.
func (k KeyStore) Get(hash cardano.Hash28) (*Key, error) {
	key, ok := k.Keys[hash]
	if !ok {
		return nil, ErrKeyNotFound
	}
	return key, nil
}

// GetByName returns the key with the specified name.
func (k KeyStore) GetByName(name string) (*Key, error) {
	for _, key := range k.Keys {
		if key.Name == name {
			return key, nil
		}
	}
	return nil, errors.Wrap(ErrKeyNotFound, name)
}

// GetAll returns the keys ordered by name.
func (k KeyStore) GetAll() []*Key {
	result := make([]*Key, 0, len(k.Keys))
	for _, key := range k.Keys {
		result = append(result, key)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})
	return result
}

// Load replaces the keys with those saved in st.
func (k *KeyStore) Load(ctx context.Context, st storage.Storage) error {
	k.Keys = make(map[cardano.Hash28]*Key)

	data, err := st.Read(ctx, walletKey)
	if err != nil {
		if storage.IsNotFound(err) {
			return nil // No keys yet
		}
		return errors.Wrap(err, "read keys")
	}

	var keys []*Key
	if err := json.Unmarshal(data, &keys); err != nil {
		return errors.Wrap(err, "unmarshal keys")
	}

	for _, key := range keys {
		k.Keys[key.Hash()] = key
	}

	return nil
}

// Save writes the keys to st.
func (k *KeyStore) Save(ctx context.Context, st storage.Storage) error {
	data, err := json.MarshalIndent(k.GetAll(), "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshal keys")
	}

	opts := storage.NewOptions()
	opts.Mode = 0600
	return st.Write(ctx, walletKey, data, &opts)
}
