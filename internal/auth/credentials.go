package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/yewfence/blogctl/internal/domain"
)

// Storage persists exactly one credential record. Implementations must
// return ok=false (not an error) when no record has been written yet.
type Storage interface {
	Read() (data []byte, ok bool, err error)
	Write(data []byte) error
}

// record is the stored shape: a JSON object holding one hex digest.
type record struct {
	Hash string `json:"hash"`
}

// Credentials holds the single editor credential as a one-way digest.
// Demo-grade gate: a digest match grants access, nothing more.
type Credentials struct {
	storage Storage
}

// NewCredentials creates a credential store backed by the given storage.
func NewCredentials(storage Storage) *Credentials {
	return &Credentials{storage: storage}
}

// digest computes the deterministic one-way hash of a password.
func digest(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}

// EnsureInitialized seeds the store with defaultPassword if no credential
// exists yet. Idempotent: a present record is never overwritten.
func (c *Credentials) EnsureInitialized(defaultPassword string) error {
	_, ok, err := c.storage.Read()
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	return c.save(defaultPassword)
}

// Verify reports whether candidate matches the stored credential.
// Missing or malformed stored data yields false, never an error.
func (c *Credentials) Verify(candidate string) bool {
	data, ok, err := c.storage.Read()
	if err != nil || !ok {
		return false
	}
	var rec record
	if err := json.Unmarshal(data, &rec); err != nil || rec.Hash == "" {
		return false
	}
	return digest(candidate) == rec.Hash
}

// Replace swaps the credential. Succeeds only when old verifies and the
// new password meets the minimum length policy; otherwise nothing changes.
func (c *Credentials) Replace(oldPassword, newPassword string) bool {
	if err := domain.ValidatePassword(newPassword); err != nil {
		return false
	}
	if !c.Verify(oldPassword) {
		return false
	}
	return c.save(newPassword) == nil
}

func (c *Credentials) save(password string) error {
	data, err := json.Marshal(record{Hash: digest(password)})
	if err != nil {
		return err
	}
	return c.storage.Write(data)
}
