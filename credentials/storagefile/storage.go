// Package storagefile persists the bearer token to a file, sealed with
// NaCl secretbox so a token lifted off disk is useless without the key.
package storagefile

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"golang.org/x/crypto/nacl/secretbox"

	"github.com/crewdock/go-crewdock-client/credentials"
)

const nonceLength = 24

var _ credentials.Storage = (*Storage)(nil)

type Storage struct {
	path string
	key  [32]byte
}

// New creates a file storage at path. hexKey must decode to exactly 32 bytes.
func New(path, hexKey string) (*Storage, error) {
	keyBytes, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, errors.Wrap(err, "[storagefile.New] decoding key")
	}
	if len(keyBytes) != 32 {
		return nil, errors.Errorf("[storagefile.New] key must be 32 bytes, got %d", len(keyBytes))
	}

	s := &Storage{path: path}
	copy(s.key[:], keyBytes)
	return s, nil
}

func (s *Storage) Read(ctx context.Context) (string, bool, error) {
	sealed, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.Wrap(err, "[Storage.Read] reading token file")
	}
	if len(sealed) < nonceLength {
		return "", false, errors.New("[Storage.Read] token file truncated")
	}

	var nonce [nonceLength]byte
	copy(nonce[:], sealed[:nonceLength])

	token, ok := secretbox.Open(nil, sealed[nonceLength:], &nonce, &s.key)
	if !ok {
		return "", false, errors.New("[Storage.Read] token file failed authentication")
	}
	return string(token), true, nil
}

func (s *Storage) Write(ctx context.Context, token string) error {
	var nonce [nonceLength]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return errors.Wrap(err, "[Storage.Write] generating nonce")
	}

	sealed := secretbox.Seal(nonce[:], []byte(token), &nonce, &s.key)

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return errors.Wrap(err, "[Storage.Write] creating token directory")
	}
	if err := os.WriteFile(s.path, sealed, 0o600); err != nil {
		return errors.Wrap(err, "[Storage.Write] writing token file")
	}
	return nil
}

func (s *Storage) Delete(ctx context.Context) error {
	err := os.Remove(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return errors.Wrap(err, "[Storage.Delete] removing token file")
	}
	return nil
}
