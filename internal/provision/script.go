// SPDX-License-Identifier: MPL-2.0

package provision

import (
	"fmt"
	"strings"

	"mvdan.cc/sh/v3/syntax"

	"dockhand/internal/config"
	"dockhand/internal/engine"
)

// Script renders a standalone POSIX shell script that performs the same
// provisioning flow as Run, for hosts where dockhand itself cannot be
// executed. Settings are baked into the script at generation time, and every
// value is shell-quoted. The result is parsed before being returned, so a
// returned script is always syntactically valid.
func Script(cfg *config.Settings, mode Mode, runID string) (string, error) {
	p := New(cfg, mode, WithRunID(runID))
	bin := string(engine.EngineTypeDocker)
	if cfg.Engine == string(engine.EngineTypePodman) {
		bin = string(engine.EngineTypePodman)
	}
	unit, err := syntax.Quote(ServiceUnitFor(cfg, bin), syntax.LangPOSIX)
	if err != nil {
		return "", fmt.Errorf("failed to quote service unit: %w", err)
	}
	name, err := syntax.Quote(cfg.ContainerName, syntax.LangPOSIX)
	if err != nil {
		return "", fmt.Errorf("failed to quote container name: %w", err)
	}
	dataDir, err := syntax.Quote(cfg.DataDir, syntax.LangPOSIX)
	if err != nil {
		return "", fmt.Errorf("failed to quote data directory: %w", err)
	}

	base := engine.NewBaseCLIEngine("")
	pullLine, err := commandLine(bin, base.PullArgs(engine.ImageRef(cfg.Image)))
	if err != nil {
		return "", err
	}
	runLine, err := commandLine(bin, base.RunArgs(p.runOptions()))
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("#!/bin/sh\n")
	fmt.Fprintf(&b, "# Provisioning script generated by %s, equivalent to '%s %s'.\n",
		config.AppName, config.AppName, commandForMode(mode))
	b.WriteString("# Requires a systemd host; the install paths additionally need curl.\n")
	b.WriteString("set -eu\n\n")

	b.WriteString("if [ \"$(id -u)\" -ne 0 ]; then\n")
	fmt.Fprintf(&b, "    echo '%s: superuser privileges required' >&2\n", config.AppName)
	b.WriteString("    exit 1\nfi\n\n")

	writeInstallBlock(&b, bin)

	fmt.Fprintf(&b, "if ! systemctl is-active --quiet %s; then\n", unit)
	fmt.Fprintf(&b, "    systemctl start %s\n", unit)
	fmt.Fprintf(&b, "    sleep %d\n", int(cfg.RecheckDelay.Seconds()))
	fmt.Fprintf(&b, "    systemctl is-active --quiet %s || {\n", unit)
	fmt.Fprintf(&b, "        echo \"%s: %s did not become active after start\" >&2\n", config.AppName, unit)
	b.WriteString("        exit 1\n    }\nfi\n")
	fmt.Fprintf(&b, "systemctl is-enabled --quiet %s || systemctl enable %s\n\n", unit, unit)

	b.WriteString(pullLine + "\n\n")

	fmt.Fprintf(&b, "mkdir -p %s\n", dataDir)
	switch mode {
	case ModeAttached:
		// exec hands the shell's process over, so the container's exit code
		// becomes the script's exit code.
		b.WriteString("exec " + runLine + "\n")
	default:
		fmt.Fprintf(&b, "%s rm -f %s >/dev/null 2>&1 || true\n", bin, name)
		b.WriteString(runLine + "\n\n")
		fmt.Fprintf(&b, "state=$(%s inspect --type container --format '{{.State.Running}}' %s)\n", bin, name)
		b.WriteString("if [ \"$state\" != true ]; then\n")
		fmt.Fprintf(&b, "    echo \"%s: container %s is not running\" >&2\n", config.AppName, name)
		b.WriteString("    exit 1\nfi\n")
	}

	script := b.String()
	parser := syntax.NewParser(syntax.Variant(syntax.LangPOSIX))
	if _, err := parser.Parse(strings.NewReader(script), config.AppName+".sh"); err != nil {
		return "", fmt.Errorf("generated script failed to parse: %w", err)
	}
	return script, nil
}

// writeInstallBlock emits the conditional engine install. Docker is the only
// engine the package manager paths provision; a pinned podman engine must
// already be present.
func writeInstallBlock(b *strings.Builder, bin string) {
	if bin == string(engine.EngineTypePodman) {
		fmt.Fprintf(b, "if ! command -v podman >/dev/null 2>&1; then\n")
		fmt.Fprintf(b, "    echo '%s: podman must already be installed when the podman engine is selected' >&2\n", config.AppName)
		b.WriteString("    exit 1\nfi\n\n")
		return
	}

	b.WriteString(`if ! command -v docker >/dev/null 2>&1; then
    if command -v dnf >/dev/null 2>&1; then
        flavor=$(. /etc/os-release && case "$ID ${ID_LIKE:-}" in *rhel*|*centos*) echo centos ;; *) echo fedora ;; esac)
        curl -fsSL "https://download.docker.com/linux/${flavor}/docker-ce.repo" -o /etc/yum.repos.d/docker-ce.repo
        dnf -y install docker-ce docker-ce-cli containerd.io
    elif command -v pacman >/dev/null 2>&1; then
        pacman -Sy --noconfirm docker
    elif command -v apt-get >/dev/null 2>&1; then
        distro=$(. /etc/os-release && case "$ID ${ID_LIKE:-}" in *ubuntu*) echo ubuntu ;; *) echo debian ;; esac)
        codename=$(. /etc/os-release && echo "$VERSION_CODENAME")
        install -d -m 0755 /etc/apt/keyrings
        curl -fsSL "https://download.docker.com/linux/${distro}/gpg" -o /etc/apt/keyrings/docker.asc
        echo "deb [arch=$(dpkg --print-architecture) signed-by=/etc/apt/keyrings/docker.asc] https://download.docker.com/linux/${distro} ${codename} stable" >/etc/apt/sources.list.d/docker.list
        apt-get update
        DEBIAN_FRONTEND=noninteractive apt-get install -y docker-ce docker-ce-cli containerd.io
    else
        echo 'dockhand: no supported package manager found (dnf, pacman, apt)' >&2
        exit 1
    fi
    if ! command -v docker >/dev/null 2>&1; then
        echo 'dockhand: container engine still missing after install' >&2
        exit 1
    fi
fi

`)
}

// commandLine renders a binary and its arguments as one shell-quoted line.
func commandLine(bin string, args []string) (string, error) {
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, bin)
	for _, arg := range args {
		quoted, err := syntax.Quote(arg, syntax.LangPOSIX)
		if err != nil {
			return "", fmt.Errorf("failed to quote argument %q: %w", arg, err)
		}
		parts = append(parts, quoted)
	}
	return strings.Join(parts, " "), nil
}

func commandForMode(mode Mode) string {
	if mode == ModeAttached {
		return "run"
	}
	return "up"
}
