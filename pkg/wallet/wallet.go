package wallet

/**
 * Wallet Service
 *
 * What is my purpose?
 * - You store encrypted signing keys
 * - You lend a decrypted key to one signing operation at a time
 */

import (
	"context"
	"sync"

	"github.com/tokenized/milestone-escrow/pkg/cardano"
	"github.com/tokenized/milestone-escrow/pkg/storage"

	"github.com/pkg/errors"
)

var ErrKeyMismatch = errors.New("Decrypted key does not match verification key")

type Wallet struct {
	lock     sync.RWMutex
	net      cardano.Network
	KeyStore *KeyStore
}

func New(net cardano.Network) *Wallet {
	return &Wallet{
		net:      net,
		KeyStore: NewKeyStore(),
	}
}

// Import encrypts a signing key and adds it to the wallet.
func (w *Wallet) Import(name string, key *cardano.Key, passphrase []byte) (*Key, error) {
	if len(passphrase) == 0 {
		return nil, errors.New("Import failed: missing passphrase")
	}

	newKey, err := NewKey(name, key, passphrase)
	if err != nil {
		return nil, err
	}

	w.lock.Lock()
	defer w.lock.Unlock()

	w.KeyStore.Add(newKey)
	return newKey, nil
}

// Register adds an already encrypted key.
func (w *Wallet) Register(key *Key) {
	w.lock.Lock()
	defer w.lock.Unlock()

	w.KeyStore.Add(key)
}

func (w *Wallet) ListAll() []*Key {
	w.lock.RLock()
	defer w.lock.RUnlock()
	return w.KeyStore.GetAll()
}

func (w *Wallet) Get(hash cardano.Hash28) (*Key, error) {
	w.lock.RLock()
	defer w.lock.RUnlock()
	return w.KeyStore.Get(hash)
}

func (w *Wallet) GetByName(name string) (*Key, error) {
	w.lock.RLock()
	defer w.lock.RUnlock()
	return w.KeyStore.GetByName(name)
}

// Signer returns a signer for the named key that decrypts it with passphrase when used.
func (w *Wallet) Signer(name string, passphrase []byte) (*Signer, error) {
	key, err := w.GetByName(name)
	if err != nil {
		return nil, err
	}
	return NewSigner(key, passphrase, w.net), nil
}

func (w *Wallet) Load(ctx context.Context, st storage.Storage) error {
	w.lock.Lock()
	defer w.lock.Unlock()

	return w.KeyStore.Load(ctx, st)
}

func (w *Wallet) Save(ctx context.Context, st storage.Storage) error {
	w.lock.RLock()
	defer w.lock.RUnlock()

	return w.KeyStore.Save(ctx, st)
}
