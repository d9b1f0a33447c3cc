// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// validSettings returns a Settings value that passes Validate, for tests that
// break one field at a time.
func validSettings() Settings {
	return Settings{
		Image:         DefaultImage,
		ContainerName: DefaultContainerName,
		HostPort:      DefaultHostPort,
		ContainerPort: DefaultContainerPort,
		DataDir:       "/var/lib/dockhand",
		DataMountPath: DefaultDataMountPath,
		SocketPath:    DefaultSocketPath,
		ServiceUnit:   DefaultServiceUnit,
		StopTimeout:   DefaultStopTimeout,
		RecheckDelay:  DefaultRecheckDelay,
	}
}

func TestLoad_Defaults(t *testing.T) {
	s, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if s.Image != DefaultImage {
		t.Errorf("Image = %q, want %q", s.Image, DefaultImage)
	}
	if s.ContainerName != DefaultContainerName {
		t.Errorf("ContainerName = %q, want %q", s.ContainerName, DefaultContainerName)
	}
	if s.HostPort != DefaultHostPort {
		t.Errorf("HostPort = %d, want %d", s.HostPort, DefaultHostPort)
	}
	if s.ContainerPort != DefaultContainerPort {
		t.Errorf("ContainerPort = %d, want %d", s.ContainerPort, DefaultContainerPort)
	}
	if s.DataMountPath != DefaultDataMountPath {
		t.Errorf("DataMountPath = %q, want %q", s.DataMountPath, DefaultDataMountPath)
	}
	if s.SocketPath != DefaultSocketPath {
		t.Errorf("SocketPath = %q, want %q", s.SocketPath, DefaultSocketPath)
	}
	if s.ServiceUnit != DefaultServiceUnit {
		t.Errorf("ServiceUnit = %q, want %q", s.ServiceUnit, DefaultServiceUnit)
	}
	if s.StopTimeout != DefaultStopTimeout {
		t.Errorf("StopTimeout = %v, want %v", s.StopTimeout, DefaultStopTimeout)
	}
	if s.RecheckDelay != DefaultRecheckDelay {
		t.Errorf("RecheckDelay = %v, want %v", s.RecheckDelay, DefaultRecheckDelay)
	}
	if s.Engine != "" {
		t.Errorf("Engine = %q, want empty (auto-detect)", s.Engine)
	}

	cwd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd() error = %v", err)
	}
	if want := filepath.Join(cwd, DefaultDataDirName); s.DataDir != want {
		t.Errorf("DataDir = %q, want %q", s.DataDir, want)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("DOCKHAND_IMAGE", "ghcr.io/dockhand/agent:v2")
	t.Setenv("DOCKHAND_CONTAINER_NAME", "dockhand-canary")
	t.Setenv("DOCKHAND_HOST_PORT", "9400")
	t.Setenv("DOCKHAND_DATA_DIR", "/srv/dockhand")
	t.Setenv("DOCKHAND_STOP_TIMEOUT", "45s")
	t.Setenv("DOCKHAND_ENGINE", "podman")

	s, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if s.Image != "ghcr.io/dockhand/agent:v2" {
		t.Errorf("Image = %q, want env override", s.Image)
	}
	if s.ContainerName != "dockhand-canary" {
		t.Errorf("ContainerName = %q, want env override", s.ContainerName)
	}
	if s.HostPort != 9400 {
		t.Errorf("HostPort = %d, want 9400", s.HostPort)
	}
	if s.DataDir != "/srv/dockhand" {
		t.Errorf("DataDir = %q, want /srv/dockhand", s.DataDir)
	}
	if s.StopTimeout != 45*time.Second {
		t.Errorf("StopTimeout = %v, want 45s", s.StopTimeout)
	}
	if s.Engine != "podman" {
		t.Errorf("Engine = %q, want podman", s.Engine)
	}
	// Settings without overrides keep their defaults.
	if s.ContainerPort != DefaultContainerPort {
		t.Errorf("ContainerPort = %d, want default %d", s.ContainerPort, DefaultContainerPort)
	}
}

func TestLoad_InvalidEnvValue(t *testing.T) {
	t.Setenv("DOCKHAND_ENGINE", "lxc")

	if _, err := Load(); !errors.Is(err, ErrInvalidSetting) {
		t.Fatalf("Load() error = %v, want ErrInvalidSetting", err)
	}
}

func TestSettings_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Settings)
		wantKey string
	}{
		{
			name:    "empty image",
			mutate:  func(s *Settings) { s.Image = "" },
			wantKey: "image",
		},
		{
			name:    "whitespace image",
			mutate:  func(s *Settings) { s.Image = "   " },
			wantKey: "image",
		},
		{
			name:    "empty container name",
			mutate:  func(s *Settings) { s.ContainerName = "" },
			wantKey: "container_name",
		},
		{
			name:    "zero host port",
			mutate:  func(s *Settings) { s.HostPort = 0 },
			wantKey: "host_port",
		},
		{
			name:    "zero container port",
			mutate:  func(s *Settings) { s.ContainerPort = 0 },
			wantKey: "container_port",
		},
		{
			name:    "relative data dir",
			mutate:  func(s *Settings) { s.DataDir = "dockhand-data" },
			wantKey: "data_dir",
		},
		{
			name:    "relative mount path",
			mutate:  func(s *Settings) { s.DataMountPath = "data" },
			wantKey: "data_mount_path",
		},
		{
			name:    "relative socket path",
			mutate:  func(s *Settings) { s.SocketPath = "docker.sock" },
			wantKey: "socket_path",
		},
		{
			name:    "unit without suffix",
			mutate:  func(s *Settings) { s.ServiceUnit = "docker" },
			wantKey: "service_unit",
		},
		{
			name:    "zero stop timeout",
			mutate:  func(s *Settings) { s.StopTimeout = 0 },
			wantKey: "stop_timeout",
		},
		{
			name:    "negative recheck delay",
			mutate:  func(s *Settings) { s.RecheckDelay = -time.Second },
			wantKey: "recheck_delay",
		},
		{
			name:    "unknown engine",
			mutate:  func(s *Settings) { s.Engine = "lxc" },
			wantKey: "engine",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s := validSettings()
			tt.mutate(&s)

			err := s.Validate()
			if err == nil {
				t.Fatal("Validate() = nil, want error")
			}
			if !errors.Is(err, ErrInvalidSetting) {
				t.Errorf("errors.Is(err, ErrInvalidSetting) = false for %v", err)
			}

			var ise *InvalidSettingError
			if !errors.As(err, &ise) {
				t.Fatalf("error %v is not *InvalidSettingError", err)
			}
			if ise.Key != tt.wantKey {
				t.Errorf("Key = %q, want %q", ise.Key, tt.wantKey)
			}
		})
	}
}

func TestSettings_ValidateAcceptsDefaults(t *testing.T) {
	t.Parallel()

	s := validSettings()
	if err := s.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	s.Engine = "docker"
	if err := s.Validate(); err != nil {
		t.Fatalf("Validate() with pinned engine error = %v", err)
	}

	s.ServiceUnit = "podman.socket"
	if err := s.Validate(); err != nil {
		t.Fatalf("Validate() with socket unit error = %v", err)
	}
}
