// Package stores provides file-backed implementations of the taskvault
// store interfaces. Records are JSON files under a storage directory,
// suitable for development and tests; production deployments use the
// stores/gorm package instead.
package stores

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	tv "github.com/taskvault/taskvault"
)

// FSUserStore stores users as JSON files. Email uniqueness is enforced
// through an index file per normalized email, guarded by a mutex so
// concurrent registrations cannot race past the check.
type FSUserStore struct {
	StoragePath string

	mu sync.Mutex
}

// NewFSUserStore creates a file-backed user store rooted at storagePath.
func NewFSUserStore(storagePath string) *FSUserStore {
	return &FSUserStore{StoragePath: storagePath}
}

func (s *FSUserStore) userPath(id string) string {
	return filepath.Join(s.StoragePath, "users", id+".json")
}

func (s *FSUserStore) emailPath(email string) string {
	return filepath.Join(s.StoragePath, "emails", tv.NormalizeEmail(email)+".json")
}

type emailIndex struct {
	UserID string `json:"user_id"`
}

// CreateUser persists a new user and claims its email. Returns
// tv.ErrDuplicateEmail when the normalized email is already registered.
func (s *FSUserStore) CreateUser(user *tv.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := os.Stat(s.emailPath(user.Email)); err == nil {
		return tv.ErrDuplicateEmail
	}

	now := time.Now().UTC()
	user.Email = tv.NormalizeEmail(user.Email)
	user.CreatedAt = now
	user.UpdatedAt = now

	if err := s.writeUser(user); err != nil {
		return err
	}

	index, err := json.Marshal(emailIndex{UserID: user.ID})
	if err != nil {
		return err
	}
	return writeFileAtomic(s.emailPath(user.Email), index)
}

// GetUserByEmail resolves the email index and loads the user.
func (s *FSUserStore) GetUserByEmail(email string) (*tv.User, error) {
	data, err := os.ReadFile(s.emailPath(email))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, tv.ErrUserNotFound
		}
		return nil, err
	}

	var index emailIndex
	if err := json.Unmarshal(data, &index); err != nil {
		return nil, fmt.Errorf("corrupt email index for %q: %w", email, err)
	}
	return s.GetUserByID(index.UserID)
}

// GetUserByID loads a user record by id.
func (s *FSUserStore) GetUserByID(id string) (*tv.User, error) {
	data, err := os.ReadFile(s.userPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, tv.ErrUserNotFound
		}
		return nil, err
	}

	// Mirror of writeUser's shape: the hash is hidden from API JSON by
	// the struct tag, so the file carries it under its own key.
	var record struct {
		tv.User
		PasswordHash string `json:"password_hash"`
	}
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, err
	}
	user := record.User
	user.PasswordHash = record.PasswordHash
	return &user, nil
}

// DeleteUser removes a user and releases its email. Tokens issued for
// the user keep verifying cryptographically but fail identity
// resolution from then on.
func (s *FSUserStore) DeleteUser(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, err := s.GetUserByID(id)
	if err != nil {
		return err
	}
	if err := os.Remove(s.userPath(id)); err != nil {
		return err
	}
	// Best effort: a dangling index only blocks re-registration.
	os.Remove(s.emailPath(user.Email))
	return nil
}

func (s *FSUserStore) writeUser(user *tv.User) error {
	// The file embeds the hash; the struct's json tag hides it from API
	// responses, so persistence uses a wider shape.
	record := struct {
		*tv.User
		PasswordHash string `json:"password_hash"`
	}{User: user, PasswordHash: user.PasswordHash}

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return err
	}
	return writeFileAtomic(s.userPath(user.ID), data)
}
