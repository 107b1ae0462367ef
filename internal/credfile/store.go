// Package credfile writes rotated key pairs into the AWS shared
// credentials file, leaving every unrelated profile untouched.
package credfile

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/ini.v1"
)

const (
	accessKeyIDKey     = "aws_access_key_id"
	secretAccessKeyKey = "aws_secret_access_key"
)

// Store persists access keys to one INI credentials file.
type Store struct {
	path string
}

// DefaultPath returns the standard shared credentials file location,
// honoring the AWS_SHARED_CREDENTIALS_FILE override.
func DefaultPath() string {
	if p := os.Getenv("AWS_SHARED_CREDENTIALS_FILE"); p != "" {
		return p
	}
	return filepath.Join("~", ".aws", "credentials")
}

// NewStore creates a store for the credentials file at path, expanding a
// leading ~ to the user's home directory.
func NewStore(path string) (*Store, error) {
	expanded, err := expandPath(path)
	if err != nil {
		return nil, err
	}
	return &Store{path: expanded}, nil
}

// Path returns the resolved credentials file location.
func (s *Store) Path() string {
	return s.path
}

// WriteProfile sets the key id and secret under the named profile section,
// creating the file and its parent directories if needed. All other
// sections and keys are preserved, and the file ends up owner-only.
func (s *Store) WriteProfile(profile, accessKeyID, secretAccessKey string) error {
	cfg, err := ini.LooseLoad(s.path)
	if err != nil {
		return fmt.Errorf("failed to parse credentials file %s: %w", s.path, err)
	}

	section := cfg.Section(profile)
	section.Key(accessKeyIDKey).SetValue(accessKeyID)
	section.Key(secretAccessKeyKey).SetValue(secretAccessKey)

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	if err := cfg.SaveTo(s.path); err != nil {
		return fmt.Errorf("failed to write credentials file %s: %w", s.path, err)
	}

	if err := os.Chmod(s.path, 0o600); err != nil {
		return fmt.Errorf("failed to restrict permissions on %s: %w", s.path, err)
	}

	return nil
}

func expandPath(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
