// SPDX-License-Identifier: MPL-2.0

package pkgmgr

import (
	"errors"
	"fmt"
	"testing"
)

// fakeLookPath returns a LookPathFunc that only finds the given binaries.
func fakeLookPath(available ...string) LookPathFunc {
	return func(file string) (string, error) {
		for _, name := range available {
			if name == file {
				return "/usr/bin/" + file, nil
			}
		}
		return "", fmt.Errorf("exec: %q: executable file not found in $PATH", file)
	}
}

func TestDetector_Detect(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		available []string
		expected  Kind
		expectErr bool
	}{
		{
			name:      "all managers present picks dnf",
			available: []string{"apt-get", "pacman", "dnf"},
			expected:  KindDNF,
		},
		{
			name:      "dnf beats apt",
			available: []string{"apt-get", "dnf"},
			expected:  KindDNF,
		},
		{
			name:      "pacman beats apt",
			available: []string{"apt-get", "pacman"},
			expected:  KindPacman,
		},
		{
			name:      "dnf alone",
			available: []string{"dnf"},
			expected:  KindDNF,
		},
		{
			name:      "pacman alone",
			available: []string{"pacman"},
			expected:  KindPacman,
		},
		{
			name:      "apt-get alone",
			available: []string{"apt-get"},
			expected:  KindAPT,
		},
		{
			name:      "apt binary without apt-get does not count",
			available: []string{"apt"},
			expected:  KindNone,
			expectErr: true,
		},
		{
			name:      "unsupported managers only",
			available: []string{"apk", "zypper"},
			expected:  KindNone,
			expectErr: true,
		},
		{
			name:      "nothing on PATH",
			available: nil,
			expected:  KindNone,
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			d := NewDetector(WithLookPath(fakeLookPath(tt.available...)))
			kind, err := d.Detect()

			if tt.expectErr {
				if !errors.Is(err, ErrNoManager) {
					t.Errorf("expected ErrNoManager, got %v", err)
				}
			} else if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if kind != tt.expected {
				t.Errorf("expected kind %q, got %q", tt.expected, kind)
			}
		})
	}
}

func TestDetector_DetectProbesInPriorityOrder(t *testing.T) {
	t.Parallel()

	var probed []string
	d := NewDetector(WithLookPath(func(file string) (string, error) {
		probed = append(probed, file)
		return "", errors.New("not found")
	}))

	if _, err := d.Detect(); !errors.Is(err, ErrNoManager) {
		t.Fatalf("expected ErrNoManager, got %v", err)
	}

	expected := []string{"dnf", "pacman", "apt-get"}
	if len(probed) != len(expected) {
		t.Fatalf("expected probes %v, got %v", expected, probed)
	}
	for i, binary := range expected {
		if probed[i] != binary {
			t.Errorf("probe %d: expected %q, got %q", i, binary, probed[i])
		}
	}
}

func TestDetector_DetectStopsAtFirstHit(t *testing.T) {
	t.Parallel()

	var probed []string
	d := NewDetector(WithLookPath(func(file string) (string, error) {
		probed = append(probed, file)
		return "/usr/bin/" + file, nil
	}))

	kind, err := d.Detect()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if kind != KindDNF {
		t.Errorf("expected dnf, got %q", kind)
	}
	if len(probed) != 1 {
		t.Errorf("expected a single probe, got %v", probed)
	}
}

func TestKind_String(t *testing.T) {
	t.Parallel()

	tests := []struct {
		kind     Kind
		expected string
	}{
		{KindDNF, "dnf"},
		{KindPacman, "pacman"},
		{KindAPT, "apt"},
		{KindNone, "none"},
	}

	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.expected {
			t.Errorf("Kind(%q).String() = %q, expected %q", string(tt.kind), got, tt.expected)
		}
	}
}
