package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/joelkehle/nac-tco/internal/tco"
)

// LoadOrganization reads a YAML organization profile. ok is false when the
// file does not exist.
func LoadOrganization(path string) (org tco.Organization, ok bool, err error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return tco.Organization{}, false, nil
		}
		return tco.Organization{}, false, err
	}
	if err := yaml.Unmarshal(blob, &org); err != nil {
		return tco.Organization{}, false, fmt.Errorf("parse %s: %w", path, err)
	}
	return org, true, nil
}

// SaveOrganization writes a YAML organization profile atomically.
func SaveOrganization(path string, org tco.Organization) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	blob, err := yaml.Marshal(org)
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, blob, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
