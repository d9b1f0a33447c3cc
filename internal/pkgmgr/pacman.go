// SPDX-License-Identifier: MPL-2.0

package pkgmgr

import (
	"context"
	"fmt"
	"log/slog"
)

// PacmanInstaller installs the engine from the distribution repositories.
// Arch ships docker in the extra repository, so no repository registration
// is needed.
type PacmanInstaller struct {
	*base
}

// Kind reports which package manager this installer drives.
func (i *PacmanInstaller) Kind() Kind { return KindPacman }

// Install refreshes the package databases and installs docker in one
// non-interactive transaction.
func (i *PacmanInstaller) Install(ctx context.Context) error {
	slog.Debug("installing engine package", "manager", KindPacman, "packages", []string{"docker"})
	if err := i.run(ctx, "pacman", "-Sy", "--noconfirm", "docker"); err != nil {
		return fmt.Errorf("pacman install failed: %w", err)
	}
	return nil
}
