package cryptox

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Configuration for Argon2id hashing.
const (
	memory      = 19 * 1024 // Memory usage in KiB (19 MiB)
	iterations  = 2         // Iteration count
	parallelism = 1         // Number of threads
	keyLength   = 32        // Length of the generated hash
	saltLength  = 16        // Length of the salt
)

var (
	pepperMu sync.RWMutex
	pepper   string
)

// SetPepper installs the pepper appended to passwords before hashing.
func SetPepper(p string) {
	pepperMu.Lock()
	pepper = p
	pepperMu.Unlock()
}

func currentPepper() string {
	pepperMu.RLock()
	defer pepperMu.RUnlock()
	return pepper
}

// LoadPepper reads the pepper from path, generating and persisting a new one
// (0600) when the file does not exist yet.
func LoadPepper(path string) error {
	if path == "" {
		return errors.New("cryptox: pepper path is empty")
	}
	path = filepath.Clean(path)

	raw, err := os.ReadFile(path)
	switch {
	case err == nil:
		p := strings.TrimSpace(string(raw))
		if p == "" {
			return errors.New("cryptox: pepper file is empty")
		}
		SetPepper(p)
		return nil
	case !errors.Is(err, os.ErrNotExist):
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return err
	}

	buf := make([]byte, keyLength)
	if _, err := rand.Read(buf); err != nil {
		return err
	}
	p := base64.RawURLEncoding.EncodeToString(buf)

	if err := os.WriteFile(path, []byte(p), 0o600); err != nil {
		return err
	}
	SetPepper(p)
	return nil
}
