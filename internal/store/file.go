package store

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/adrg/xdg"
	"github.com/gofrs/flock"

	"github.com/scmkit/hgcred/internal/credkey"
)

// FileStore implements Store on an AES-256-GCM encrypted file. It is the
// fallback for environments where the OS keychain is unavailable (WSL,
// headless, containers). Two hgcred processes may run at once, so every
// read-modify-write holds a cross-process file lock.
type FileStore struct {
	path string
	key  []byte
}

const lockTimeout = 5 * time.Second

// NewFileStore creates a file-backed credential store under dir, or the XDG
// data dir when dir is empty. The encryption key is derived from
// HGCRED_STORE_PASSWORD when set, else from a machine-specific identity.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		dir = filepath.Join(xdg.DataHome, "hgcred")
	}

	password := os.Getenv("HGCRED_STORE_PASSWORD")
	var key []byte
	if password == "" {
		hostname, _ := os.Hostname()
		username := os.Getenv("USER")
		if username == "" {
			username = os.Getenv("USERNAME") // Windows
		}
		hash := sha256.Sum256([]byte(username + "@" + hostname))
		key = hash[:]
		warnOnce("warning: encrypting the password file with a machine-derived key; set HGCRED_STORE_PASSWORD for a real one")
	} else {
		hash := sha256.Sum256([]byte(password))
		key = hash[:]
	}

	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	return &FileStore{
		path: filepath.Join(dir, "credentials.enc"),
		key:  key,
	}, nil
}

// Lookup finds the entry stored under the key's identity.
func (s *FileStore) Lookup(key credkey.Key) (Entry, error) {
	var e Entry
	found := false

	err := s.withLock(func(entries map[string]Entry) (bool, error) {
		e, found = entries[key.ID()]
		return false, nil
	})
	if err != nil {
		return Entry{}, err
	}
	if !found {
		return Entry{}, ErrNotFound
	}
	return e, nil
}

// Save creates or overwrites the entry for the key.
func (s *FileStore) Save(key credkey.Key, e Entry) error {
	return s.withLock(func(entries map[string]Entry) (bool, error) {
		entries[key.ID()] = e
		return true, nil
	})
}

// Erase removes the entry for the key.
func (s *FileStore) Erase(key credkey.Key) error {
	return s.withLock(func(entries map[string]Entry) (bool, error) {
		if _, ok := entries[key.ID()]; !ok {
			return false, ErrNotFound
		}
		delete(entries, key.ID())
		return true, nil
	})
}

// List enumerates stored entries for the CLI, sorted by key.
func (s *FileStore) List() ([]ListEntry, error) {
	var out []ListEntry

	err := s.withLock(func(entries map[string]Entry) (bool, error) {
		for id, e := range entries {
			out = append(out, ListEntry{ID: id, Username: e.Username})
		}
		return false, nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// withLock runs fn over the decrypted entry map while holding the file lock,
// writing the map back when fn reports a mutation. Lock-acquisition failure
// means the store is unavailable, not corrupt.
func (s *FileStore) withLock(fn func(map[string]Entry) (bool, error)) error {
	lock := flock.New(s.path + ".lock")

	ctx, cancel := context.WithTimeout(context.Background(), lockTimeout)
	defer cancel()

	locked, err := lock.TryLockContext(ctx, 100*time.Millisecond)
	if err != nil || !locked {
		return fmt.Errorf("%w: could not lock password file", ErrUnavailable)
	}
	defer lock.Unlock()

	entries, err := s.read()
	if err != nil {
		return err
	}

	dirty, err := fn(entries)
	if err != nil {
		return err
	}
	if !dirty {
		return nil
	}
	return s.write(entries)
}

// read decrypts and parses the store file; a missing file is an empty store.
func (s *FileStore) read() (map[string]Entry, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]Entry), nil
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if len(data) == 0 {
		return make(map[string]Entry), nil
	}

	plaintext, err := s.decrypt(data)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to decrypt password file: %v", ErrUnavailable, err)
	}

	var entries map[string]Entry
	if err := json.Unmarshal(plaintext, &entries); err != nil {
		return nil, fmt.Errorf("%w: failed to parse password file: %v", ErrUnavailable, err)
	}
	return entries, nil
}

func (s *FileStore) write(entries map[string]Entry) error {
	plaintext, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("failed to serialize password file: %w", err)
	}

	ciphertext, err := s.encrypt(plaintext)
	if err != nil {
		return err
	}

	if err := os.WriteFile(s.path, ciphertext, 0600); err != nil {
		return fmt.Errorf("failed to write password file: %w", err)
	}
	return nil
}

// encrypt seals plaintext with AES-256-GCM, prepending the random nonce.
func (s *FileStore) encrypt(plaintext []byte) ([]byte, error) {
	block, err := aes.NewCipher(s.key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

// decrypt opens a blob produced by encrypt.
func (s *FileStore) decrypt(ciphertext []byte) ([]byte, error) {
	block, err := aes.NewCipher(s.key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	if len(ciphertext) < gcm.NonceSize() {
		return nil, fmt.Errorf("ciphertext too short")
	}

	nonce, sealed := ciphertext[:gcm.NonceSize()], ciphertext[gcm.NonceSize():]
	return gcm.Open(nil, nonce, sealed, nil)
}
