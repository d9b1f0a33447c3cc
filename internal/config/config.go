// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	// AppName is the application name.
	AppName = "dockhand"
	// EnvPrefix is the prefix for environment variable overrides, so
	// DOCKHAND_IMAGE overrides the "image" setting.
	EnvPrefix = "DOCKHAND"
)

// Defaults for every setting. There is no configuration file: settings
// resolve from these values, then DOCKHAND_* environment variables, then
// command-line flags.
const (
	DefaultImage         = "ghcr.io/dockhand/agent:latest"
	DefaultContainerName = "dockhand-agent"
	DefaultHostPort      = 9301
	DefaultContainerPort = 9301
	DefaultDataDirName   = "dockhand-data"
	DefaultDataMountPath = "/data"
	DefaultSocketPath    = "/var/run/docker.sock"
	DefaultServiceUnit   = "docker.service"
	DefaultStopTimeout   = 30 * time.Second
	DefaultRecheckDelay  = 3 * time.Second
)

// ErrInvalidSetting is the sentinel wrapped by every validation failure, so
// callers can match the whole class with errors.Is.
var ErrInvalidSetting = errors.New("invalid setting")

// InvalidSettingError reports a single settings key that failed validation.
type InvalidSettingError struct {
	Key    string
	Value  string
	Reason string
}

// Error implements the error interface.
func (e *InvalidSettingError) Error() string {
	return fmt.Sprintf("invalid setting %s=%q: %s", e.Key, e.Value, e.Reason)
}

// Unwrap supports errors.Is(err, ErrInvalidSetting).
func (e *InvalidSettingError) Unwrap() error { return ErrInvalidSetting }

// Settings holds every tunable the provisioning flow consults.
type Settings struct {
	// Image is the agent container image reference to pull and run.
	Image string `mapstructure:"image"`
	// ContainerName is the fixed name given to the agent container.
	ContainerName string `mapstructure:"container_name"`
	// HostPort is the host port published to the agent container.
	HostPort uint16 `mapstructure:"host_port"`
	// ContainerPort is the port the agent listens on inside the container.
	ContainerPort uint16 `mapstructure:"container_port"`
	// DataDir is the host directory bind-mounted into the container. Empty
	// resolves to DefaultDataDirName under the current working directory.
	DataDir string `mapstructure:"data_dir"`
	// DataMountPath is where DataDir appears inside the container.
	DataMountPath string `mapstructure:"data_mount_path"`
	// SocketPath is the engine control socket bind-mounted into the
	// container so the agent can drive the engine on the host.
	SocketPath string `mapstructure:"socket_path"`
	// ServiceUnit is the systemd unit that runs the container engine daemon.
	ServiceUnit string `mapstructure:"service_unit"`
	// StopTimeout is how long the engine waits for the container to stop
	// gracefully before killing it.
	StopTimeout time.Duration `mapstructure:"stop_timeout"`
	// RecheckDelay is the pause before the single post-start re-check of the
	// engine service.
	RecheckDelay time.Duration `mapstructure:"recheck_delay"`
	// Engine pins the container engine ("docker" or "podman"). Empty means
	// auto-detect.
	Engine string `mapstructure:"engine"`
}

// Load resolves Settings from compiled-in defaults and DOCKHAND_* environment
// variables. There is deliberately no configuration file to search for.
func Load() (*Settings, error) {
	v := viper.New()

	v.SetDefault("image", DefaultImage)
	v.SetDefault("container_name", DefaultContainerName)
	v.SetDefault("host_port", DefaultHostPort)
	v.SetDefault("container_port", DefaultContainerPort)
	v.SetDefault("data_dir", "")
	v.SetDefault("data_mount_path", DefaultDataMountPath)
	v.SetDefault("socket_path", DefaultSocketPath)
	v.SetDefault("service_unit", DefaultServiceUnit)
	v.SetDefault("stop_timeout", DefaultStopTimeout)
	v.SetDefault("recheck_delay", DefaultRecheckDelay)
	v.SetDefault("engine", "")

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("failed to parse settings: %w", err)
	}

	if s.DataDir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve data directory: %w", err)
		}
		s.DataDir = filepath.Join(cwd, DefaultDataDirName)
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}

	return &s, nil
}

// Validate checks that every setting carries a usable value. It returns the
// first violation found as an *InvalidSettingError.
func (s *Settings) Validate() error {
	if strings.TrimSpace(s.Image) == "" {
		return &InvalidSettingError{Key: "image", Value: s.Image, Reason: "image reference cannot be empty"}
	}
	if strings.TrimSpace(s.ContainerName) == "" {
		return &InvalidSettingError{Key: "container_name", Value: s.ContainerName, Reason: "container name cannot be empty"}
	}
	if s.HostPort == 0 {
		return &InvalidSettingError{Key: "host_port", Value: "0", Reason: "port must be between 1 and 65535"}
	}
	if s.ContainerPort == 0 {
		return &InvalidSettingError{Key: "container_port", Value: "0", Reason: "port must be between 1 and 65535"}
	}
	if !filepath.IsAbs(s.DataDir) {
		return &InvalidSettingError{Key: "data_dir", Value: s.DataDir, Reason: "path must be absolute"}
	}
	if !filepath.IsAbs(s.DataMountPath) {
		return &InvalidSettingError{Key: "data_mount_path", Value: s.DataMountPath, Reason: "path must be absolute"}
	}
	if !filepath.IsAbs(s.SocketPath) {
		return &InvalidSettingError{Key: "socket_path", Value: s.SocketPath, Reason: "path must be absolute"}
	}
	if !strings.HasSuffix(s.ServiceUnit, ".service") && !strings.HasSuffix(s.ServiceUnit, ".socket") {
		return &InvalidSettingError{Key: "service_unit", Value: s.ServiceUnit, Reason: "must name a systemd unit such as docker.service"}
	}
	if s.StopTimeout <= 0 {
		return &InvalidSettingError{Key: "stop_timeout", Value: s.StopTimeout.String(), Reason: "duration must be positive"}
	}
	if s.RecheckDelay <= 0 {
		return &InvalidSettingError{Key: "recheck_delay", Value: s.RecheckDelay.String(), Reason: "duration must be positive"}
	}
	switch s.Engine {
	case "", "docker", "podman":
	default:
		return &InvalidSettingError{Key: "engine", Value: s.Engine, Reason: "must be docker, podman, or empty for auto-detection"}
	}
	return nil
}
