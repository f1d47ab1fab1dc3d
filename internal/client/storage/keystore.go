package storage

import (
	"bytes"
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/feedbackkit/internal/common"
	"github.com/dmitrijs2005/feedbackkit/internal/cryptox"
)

const (
	keyName      = "keystore.key"
	saltName     = "keystore.salt"
	verifierName = "keystore.verifier"
	saltSize     = 16
)

var (
	ErrWrongPassphrase = errors.New("storage passphrase does not match")
	ErrMalformedKey    = errors.New("stored storage key is malformed")
)

// Transactional media can apply several writes atomically.
type Transactional interface {
	Update(ctx context.Context, fn func(ctx context.Context, tx Medium) error) error
}

// KeyStore hands out the symmetric key for sealed files. Without a
// passphrase the key is random and kept in the backing medium; with one it
// is derived with argon2id from the passphrase and a persisted salt, and
// only a verifier of the key is stored.
type KeyStore struct {
	medium     Medium
	passphrase []byte

	mu  sync.Mutex
	key []byte
}

var _ KeyProvider = (*KeyStore)(nil)

func NewKeyStore(m Medium, passphrase string) *KeyStore {
	ks := &KeyStore{medium: m}
	if passphrase != "" {
		ks.passphrase = []byte(passphrase)
	}
	return ks
}

// Key returns a copy of the key; callers may keep it across Forget.
func (k *KeyStore) Key(ctx context.Context) ([]byte, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.key != nil {
		return bytes.Clone(k.key), nil
	}

	var key []byte
	err := k.update(ctx, func(ctx context.Context, tx Medium) error {
		var err error
		if k.passphrase != nil {
			key, err = derivedKey(ctx, tx, k.passphrase)
		} else {
			key, err = randomKey(ctx, tx)
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	k.key = key
	return bytes.Clone(key), nil
}

// Forget drops the cached key from memory.
func (k *KeyStore) Forget() {
	k.mu.Lock()
	defer k.mu.Unlock()
	common.WipeByteArray(k.key)
	k.key = nil
}

func (k *KeyStore) update(ctx context.Context, fn func(ctx context.Context, tx Medium) error) error {
	if t, ok := k.medium.(Transactional); ok {
		return t.Update(ctx, fn)
	}
	return fn(ctx, k.medium)
}

func randomKey(ctx context.Context, m Medium) ([]byte, error) {
	key, err := m.Read(ctx, keyName)
	switch {
	case err == nil && len(key) == cryptox.KeySize:
		return key, nil
	case err == nil:
		return nil, fmt.Errorf("%w: %d bytes", ErrMalformedKey, len(key))
	case !errors.Is(err, common.ErrorNotFound):
		return nil, err
	}

	key = cryptox.NewKey()
	if err := m.Write(ctx, keyName, key); err != nil {
		return nil, err
	}
	return key, nil
}

func derivedKey(ctx context.Context, m Medium, passphrase []byte) ([]byte, error) {
	salt, err := m.Read(ctx, saltName)
	switch {
	case errors.Is(err, common.ErrorNotFound):
		salt = common.GenerateRandByteArray(saltSize)
		key := cryptox.DeriveKey(passphrase, salt)
		if err := m.Write(ctx, saltName, salt); err != nil {
			return nil, err
		}
		if err := m.Write(ctx, verifierName, cryptox.MakeVerifier(key)); err != nil {
			return nil, err
		}
		return key, nil
	case err != nil:
		return nil, err
	}

	key := cryptox.DeriveKey(passphrase, salt)
	want, err := m.Read(ctx, verifierName)
	if err != nil {
		return nil, err
	}
	if subtle.ConstantTimeCompare(want, cryptox.MakeVerifier(key)) != 1 {
		return nil, ErrWrongPassphrase
	}
	return key, nil
}
