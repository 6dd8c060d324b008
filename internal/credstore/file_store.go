package credstore

import (
	"context"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

// argon2id parameters for deriving the vault key from the machine secret.
const (
	kdfTime    uint32 = 3
	kdfMemory  uint32 = 64 * 1024
	kdfThreads uint8  = 4
	kdfKeyLen  uint32 = chacha20poly1305.KeySize
)

// FileStore keeps the whole credential record as one AEAD-sealed blob on
// disk. Serializing the record into a single file makes every update one
// atomic write, so a crash can never leave the access and refresh tokens
// from different logins paired up.
type FileStore struct {
	mu   sync.Mutex
	path string
	aead cipher.AEAD
}

// NewFileStore opens (or prepares to create) the vault at path. The secret
// is machine-local key material; it never leaves the process.
func NewFileStore(path string, secret []byte) (*FileStore, error) {
	if path == "" {
		return nil, errors.New("credstore: vault path is empty")
	}
	if len(secret) == 0 {
		return nil, errors.New("credstore: vault secret is empty")
	}

	// Salt is fixed per namespace: the vault must decrypt across restarts
	// with nothing but the machine secret and the file itself.
	salt := sha256.Sum256([]byte(ServiceNamespace))
	key := argon2.IDKey(secret, salt[:], kdfTime, kdfMemory, kdfThreads, kdfKeyLen)

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("credstore: init cipher: %w", err)
	}

	return &FileStore{path: path, aead: aead}, nil
}

func (f *FileStore) Get(ctx context.Context, key Key) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	record, err := f.load()
	if err != nil {
		return "", false, err
	}

	value, ok := record[string(key)]
	return value, ok, nil
}

func (f *FileStore) Set(ctx context.Context, key Key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	record, err := f.load()
	if err != nil {
		return err
	}

	record[string(key)] = value
	return f.save(record)
}

func (f *FileStore) Delete(ctx context.Context, key Key) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	record, err := f.load()
	if err != nil {
		return err
	}

	if _, ok := record[string(key)]; !ok {
		return nil
	}

	delete(record, string(key))
	return f.save(record)
}

func (f *FileStore) ClearAll(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.save(map[string]string{})
}

func (f *FileStore) load() (map[string]string, error) {
	sealed, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("credstore: read vault: %w", err)
	}

	nonceSize := f.aead.NonceSize()
	if len(sealed) < nonceSize {
		return nil, errors.New("credstore: vault file truncated")
	}

	plain, err := f.aead.Open(nil, sealed[:nonceSize], sealed[nonceSize:], []byte(ServiceNamespace))
	if err != nil {
		return nil, fmt.Errorf("credstore: open vault: %w", err)
	}

	record := map[string]string{}
	if err := json.Unmarshal(plain, &record); err != nil {
		return nil, fmt.Errorf("credstore: decode vault: %w", err)
	}

	return record, nil
}

func (f *FileStore) save(record map[string]string) error {
	plain, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("credstore: encode vault: %w", err)
	}

	nonce := make([]byte, f.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return fmt.Errorf("credstore: nonce: %w", err)
	}

	sealed := f.aead.Seal(nonce, nonce, plain, []byte(ServiceNamespace))

	// Write-then-rename keeps the previous record intact until the new one
	// is fully on disk.
	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".vault-*")
	if err != nil {
		return fmt.Errorf("credstore: temp vault: %w", err)
	}
	tmpName := tmp.Name()

	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("credstore: vault perms: %w", err)
	}
	if _, err := tmp.Write(sealed); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("credstore: write vault: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("credstore: close vault: %w", err)
	}

	if err := os.Rename(tmpName, f.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("credstore: commit vault: %w", err)
	}

	return nil
}
