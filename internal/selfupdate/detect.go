// SPDX-License-Identifier: MPL-2.0

package selfupdate

import (
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
)

const (
	// homebrewMacARM is the Homebrew prefix on macOS ARM (Apple Silicon).
	homebrewMacARM = "/opt/homebrew/"

	// homebrewMacIntel is the Homebrew Cellar path on macOS Intel.
	homebrewMacIntel = "/usr/local/Cellar/"

	// homebrewLinux is the Linuxbrew prefix.
	homebrewLinux = "/home/linuxbrew/.linuxbrew/"

	// scriptInstallDir is where the shell install script places the binary.
	scriptInstallDir = "/usr/local/bin/"

	// systemBinDir and systemSbinDir are distribution package territory. A
	// binary there belongs to dnf, pacman, or apt, never to self-update.
	systemBinDir  = "/usr/bin/"
	systemSbinDir = "/usr/sbin/"

	// modulePath is the Go module path used to confirm go-install origin.
	modulePath = "dockhand"

	// InstallMethodUnknown indicates the install method could not be
	// determined, typically a manual download or custom installation.
	InstallMethodUnknown InstallMethod = 0

	// InstallMethodScript indicates installation via the shell install
	// script, which places the binary in /usr/local/bin/.
	InstallMethodScript InstallMethod = 1

	// InstallMethodHomebrew indicates installation via Homebrew.
	// Upgrades belong to `brew upgrade dockhand`.
	InstallMethodHomebrew InstallMethod = 2

	// InstallMethodGoInstall indicates installation via `go install`.
	// Upgrades belong to re-running `go install` with the desired version.
	InstallMethodGoInstall InstallMethod = 3

	// InstallMethodSystemPackage indicates the binary came from a
	// distribution package. Upgrades belong to the system package manager.
	InstallMethodSystemPackage InstallMethod = 4
)

var (
	// installMethodHint is set via -ldflags at build time to override
	// detection. When non-empty, it takes priority over all path heuristics.
	installMethodHint string

	// readBuildInfo is a test seam for debug.ReadBuildInfo.
	readBuildInfo = debug.ReadBuildInfo
)

// InstallMethod identifies how dockhand was installed on the current system.
// The result routes upgrade behavior: script and manual installs can be
// self-updated in place, while Homebrew, go-install, and distribution
// packages defer to their own managers.
type InstallMethod int

// String returns a human-readable name for the install method.
func (m InstallMethod) String() string {
	switch m {
	case InstallMethodUnknown:
		return "unknown"
	case InstallMethodScript:
		return "script"
	case InstallMethodHomebrew:
		return "homebrew"
	case InstallMethodGoInstall:
		return "goinstall"
	case InstallMethodSystemPackage:
		return "system package"
	}
	return "unknown"
}

// SelfUpdatable reports whether a binary installed this way may be replaced
// in place.
func (m InstallMethod) SelfUpdatable() bool {
	switch m {
	case InstallMethodHomebrew, InstallMethodGoInstall, InstallMethodSystemPackage:
		return false
	}
	return true
}

// UpgradeHint returns the command that upgrades an install dockhand does not
// manage itself. Empty for self-updatable methods.
func (m InstallMethod) UpgradeHint() string {
	switch m {
	case InstallMethodHomebrew:
		return "brew upgrade dockhand"
	case InstallMethodGoInstall:
		return "go install dockhand@latest"
	case InstallMethodSystemPackage:
		return "upgrade through the system package manager (dnf, pacman, or apt)"
	}
	return ""
}

// DetectInstallMethod determines how dockhand was installed based on the
// executable path and build information. Detection priority:
//  1. Build-time ldflags hint (highest priority)
//  2. Path heuristics: Homebrew prefixes, distribution bin directories
//  3. GOPATH/bin plus debug.ReadBuildInfo() module path confirmation
//  4. The install script location
//  5. Fallback to Unknown
func DetectInstallMethod(execPath string) InstallMethod {
	if installMethodHint != "" {
		return parseMethodHint(installMethodHint)
	}

	if strings.Contains(execPath, homebrewMacARM) ||
		strings.Contains(execPath, homebrewMacIntel) ||
		strings.Contains(execPath, homebrewLinux) {
		return InstallMethodHomebrew
	}

	if strings.Contains(execPath, systemBinDir) || strings.Contains(execPath, systemSbinDir) {
		return InstallMethodSystemPackage
	}

	// Go install requires both the GOPATH/bin location and a matching module
	// path in the build info, so a manually placed binary in GOPATH/bin does
	// not count.
	if isInGOPATHBin(execPath) && hasModulePath() {
		return InstallMethodGoInstall
	}

	if strings.Contains(execPath, scriptInstallDir) {
		return InstallMethodScript
	}

	return InstallMethodUnknown
}

// parseMethodHint converts a build-time ldflags hint to an InstallMethod.
func parseMethodHint(hint string) InstallMethod {
	switch strings.ToLower(hint) {
	case "homebrew":
		return InstallMethodHomebrew
	case "goinstall":
		return InstallMethodGoInstall
	case "script":
		return InstallMethodScript
	case "package":
		return InstallMethodSystemPackage
	default:
		return InstallMethodUnknown
	}
}

// isInGOPATHBin checks whether the given path is inside $GOPATH/bin. It uses
// the GOPATH environment variable, falling back to ~/go if unset, matching
// the Go toolchain's default.
func isInGOPATHBin(execPath string) bool {
	gopath := os.Getenv("GOPATH")
	if gopath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return false
		}
		gopath = filepath.Join(home, "go")
	}

	gopathBin := filepath.Clean(filepath.Join(gopath, "bin"))
	cleanExec := filepath.Clean(execPath)

	// The trailing separator matches the directory boundary, so
	// /home/user/gobin does not pass as /home/user/go/bin.
	return strings.HasPrefix(cleanExec, gopathBin+string(filepath.Separator)) ||
		cleanExec == gopathBin
}

// hasModulePath checks whether the current binary's build info carries the
// dockhand module path, confirming it was built via go install.
func hasModulePath() bool {
	info, ok := readBuildInfo()
	if !ok || info == nil {
		return false
	}
	return strings.Contains(info.Path, modulePath)
}
