// Package auth verifies operator credentials against a JSON user file.
package auth

import (
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
)

type userRecord struct {
	Password string `json:"password"`
}

// Store loads credentials from a users.json file on every verification,
// so operators can be added without restarting the gateway.
type Store struct {
	path string
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

// Load returns the username -> password mapping. A missing file is
// provisioned with a default admin user so a fresh install can be logged
// into; this is a commissioning convenience and the default must be
// rotated before exposure.
func (s *Store) Load() (map[string]string, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		slog.Error("User file not found, provisioning default admin user", "path", s.path)
		if err := s.provisionDefault(); err != nil {
			return nil, err
		}
		data, err = os.ReadFile(s.path)
		if err != nil {
			return nil, fmt.Errorf("reading user file: %w", err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("reading user file: %w", err)
	}

	var records map[string]userRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parsing user file %s: %w", s.path, err)
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("user file %s contains no users", s.path)
	}

	users := make(map[string]string, len(records))
	for name, rec := range records {
		users[name] = rec.Password
	}
	return users, nil
}

// Verify reports whether the username/password pair matches the store.
// The error is non-nil only for provisioning problems, never for a
// credential mismatch.
func (s *Store) Verify(username, password string) (bool, error) {
	users, err := s.Load()
	if err != nil {
		return false, err
	}

	stored, ok := users[username]
	if !ok {
		return false, nil
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(password)) == 1, nil
}

func (s *Store) provisionDefault() error {
	defaults := map[string]userRecord{
		"admin": {Password: "admin123"},
	}

	data, err := json.MarshalIndent(defaults, "", "  ")
	if err != nil {
		return err
	}

	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return fmt.Errorf("provisioning user file %s: %w", s.path, err)
	}
	return nil
}
