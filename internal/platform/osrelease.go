// SPDX-License-Identifier: MPL-2.0

package platform

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
)

// DefaultOSReleasePath is where Linux distributions publish their identity.
const DefaultOSReleasePath = "/etc/os-release"

// ErrOSReleaseField is the sentinel error wrapped by MissingOSReleaseFieldError.
var ErrOSReleaseField = errors.New("missing os-release field")

type (
	// OSRelease holds the distribution identity fields dockhand consumes.
	// Only the fields needed for package repository setup are parsed.
	OSRelease struct {
		// ID is the lowercase distribution identifier (e.g., "ubuntu", "debian", "fedora").
		ID string
		// IDLike lists space-separated parent distributions (e.g., "debian" for Ubuntu).
		IDLike string
		// VersionCodename is the release codename (e.g., "bookworm", "noble").
		VersionCodename string
	}

	// MissingOSReleaseFieldError is returned when a required field is absent.
	MissingOSReleaseFieldError struct {
		Field string
		Path  string
	}
)

// Error implements the error interface.
func (e *MissingOSReleaseFieldError) Error() string {
	return fmt.Sprintf("os-release file %s has no %s field", e.Path, e.Field)
}

// Unwrap returns ErrOSReleaseField so callers can use errors.Is for programmatic detection.
func (e *MissingOSReleaseFieldError) Unwrap() error { return ErrOSReleaseField }

// ReadOSRelease parses the os-release file at path.
// Pass DefaultOSReleasePath outside of tests.
func ReadOSRelease(path string) (*OSRelease, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open os-release: %w", err)
	}
	defer f.Close()

	rel := &OSRelease{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, found := strings.Cut(line, "=")
		if !found {
			continue
		}
		value = unquoteOSReleaseValue(value)
		switch key {
		case "ID":
			rel.ID = value
		case "ID_LIKE":
			rel.IDLike = value
		case "VERSION_CODENAME":
			rel.VersionCodename = value
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read os-release: %w", err)
	}

	if rel.ID == "" {
		return nil, &MissingOSReleaseFieldError{Field: "ID", Path: path}
	}
	return rel, nil
}

// unquoteOSReleaseValue strips the optional single or double quotes the
// os-release format allows around values.
func unquoteOSReleaseValue(v string) string {
	v = strings.TrimSpace(v)
	if len(v) >= 2 {
		if (v[0] == '"' && v[len(v)-1] == '"') || (v[0] == '\'' && v[len(v)-1] == '\'') {
			return v[1 : len(v)-1]
		}
	}
	return v
}
