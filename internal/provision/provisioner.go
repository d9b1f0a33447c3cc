// SPDX-License-Identifier: MPL-2.0

package provision

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/google/uuid"

	"dockhand/internal/config"
	"dockhand/internal/engine"
	"dockhand/internal/issue"
	"dockhand/internal/pkgmgr"
	"dockhand/internal/platform"
	"dockhand/internal/service"
)

// RunIDLabel is the container label carrying the per-invocation run ID, so
// later commands can tell which dockhand run started a container.
const RunIDLabel = "dockhand.run-id"

// podmanServiceUnit is the systemd unit ensured when the podman engine is in
// use. Podman has no long-running daemon; its API socket unit is what peers
// of docker.service look like there.
const podmanServiceUnit = "podman.socket"

type (
	// EngineResolver returns the container engine to use. It must fail with
	// an error matching engine.ErrNoEngineAvailable when no engine binary is
	// installed.
	EngineResolver func() (engine.Engine, error)

	// ManagerDetector probes the host for a supported package manager.
	ManagerDetector interface {
		Detect() (pkgmgr.Kind, error)
	}

	// InstallerFactory returns the installer for a detected package manager.
	InstallerFactory func(kind pkgmgr.Kind) (pkgmgr.Installer, error)

	// ServiceEnsurer drives a systemd unit to active and enabled.
	ServiceEnsurer interface {
		Ensure(ctx context.Context, unit string) error
	}

	// EnsurerFactory builds the ServiceEnsurer for a run, together with a
	// release function for whatever connection backs it.
	EnsurerFactory func(ctx context.Context) (ServiceEnsurer, func())

	// Option configures a Provisioner.
	Option func(*Provisioner)

	// Provisioner runs the provisioning flow over injected collaborators.
	Provisioner struct {
		cfg  *config.Settings
		mode Mode

		isRoot        func() bool
		resolveEngine EngineResolver
		detector      ManagerDetector
		newInstaller  InstallerFactory
		newEnsurer    EnsurerFactory
		observer      StepObserver
		skipInstall   bool
		runID         string

		stdin  io.Reader
		stdout io.Writer
		stderr io.Writer
	}
)

// WithRootCheck replaces the privilege probe.
func WithRootCheck(fn func() bool) Option {
	return func(p *Provisioner) { p.isRoot = fn }
}

// WithEngineResolver replaces how the container engine is located.
func WithEngineResolver(fn EngineResolver) Option {
	return func(p *Provisioner) { p.resolveEngine = fn }
}

// WithDetector replaces the package manager detector.
func WithDetector(d ManagerDetector) Option {
	return func(p *Provisioner) { p.detector = d }
}

// WithInstallerFactory replaces how installers are constructed.
func WithInstallerFactory(fn InstallerFactory) Option {
	return func(p *Provisioner) { p.newInstaller = fn }
}

// WithEnsurerFactory replaces how the service ensurer is constructed.
func WithEnsurerFactory(fn EnsurerFactory) Option {
	return func(p *Provisioner) { p.newEnsurer = fn }
}

// WithObserver registers a step observer.
func WithObserver(fn StepObserver) Option {
	return func(p *Provisioner) { p.observer = fn }
}

// WithSkipInstall disables the install step. A missing engine then fails the
// run instead of being installed.
func WithSkipInstall(skip bool) Option {
	return func(p *Provisioner) { p.skipInstall = skip }
}

// WithRunID pins the run ID instead of generating one.
func WithRunID(id string) Option {
	return func(p *Provisioner) { p.runID = id }
}

// WithStdio sets the streams wired to the container in attached mode.
func WithStdio(stdin io.Reader, stdout, stderr io.Writer) Option {
	return func(p *Provisioner) {
		p.stdin = stdin
		p.stdout = stdout
		p.stderr = stderr
	}
}

// New creates a Provisioner for the given settings and mode. Without options
// it talks to the real host: PATH lookups, the system package manager,
// systemd, and the engine CLI.
func New(cfg *config.Settings, mode Mode, opts ...Option) *Provisioner {
	p := &Provisioner{
		cfg:      cfg,
		mode:     mode,
		isRoot:   platform.IsRoot,
		detector: pkgmgr.NewDetector(),
		newInstaller: func(kind pkgmgr.Kind) (pkgmgr.Installer, error) {
			return pkgmgr.NewInstaller(kind)
		},
		runID:  uuid.NewString(),
		stdin:  os.Stdin,
		stdout: os.Stdout,
		stderr: os.Stderr,
	}
	p.resolveEngine = defaultEngineResolver(cfg)
	p.newEnsurer = defaultEnsurerFactory(cfg)
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ResolveEngine returns the engine the settings pin, auto-detecting when no
// engine is set. Inspection commands share this with the provisioning flow.
func ResolveEngine(cfg *config.Settings) (engine.Engine, error) {
	switch cfg.Engine {
	case string(engine.EngineTypeDocker):
		return engine.NewEngine(engine.EngineTypeDocker)
	case string(engine.EngineTypePodman):
		return engine.NewEngine(engine.EngineTypePodman)
	default:
		return engine.AutoDetectEngine()
	}
}

func defaultEngineResolver(cfg *config.Settings) EngineResolver {
	return func() (engine.Engine, error) {
		return ResolveEngine(cfg)
	}
}

func defaultEnsurerFactory(cfg *config.Settings) EnsurerFactory {
	return func(ctx context.Context) (ServiceEnsurer, func()) {
		manager := service.NewManager(ctx)
		ensurer := service.NewEnsurer(manager, service.WithRecheckDelay(cfg.RecheckDelay))
		return ensurer, manager.Close
	}
}

// Steps returns the flow's steps in execution order for the active mode.
func (p *Provisioner) Steps() []Step {
	steps := []Step{StepPrivileges, StepEngine}
	if !p.skipInstall {
		steps = append(steps, StepInstall)
	}
	steps = append(steps, StepService, StepPull)
	if p.mode == ModeDetached {
		steps = append(steps, StepCleanup)
	}
	return append(steps, StepRun, StepVerify)
}

// RunID returns the run ID that will label the container.
func (p *Provisioner) RunID() string {
	return p.runID
}

// Run executes the provisioning flow. On success the Result is fully
// populated. In attached mode a nonzero container exit returns the Result
// alongside a *ContainerExitError so callers can propagate the code.
func (p *Provisioner) Run(ctx context.Context) (*Result, error) {
	// Nothing may touch the host before this check passes.
	p.observe(StepPrivileges, "checking privileges")
	if !p.isRoot() {
		return nil, issue.NewErrorContext().
			WithOperation("verify superuser privileges").
			WithSuggestion("Re-run the command with sudo").
			Wrap(ErrNotRoot).
			BuildError()
	}

	result := &Result{Mode: p.mode, Installer: pkgmgr.KindNone, RunID: p.runID}

	eng, err := p.ensureEngine(ctx, result)
	if err != nil {
		return nil, err
	}
	result.Engine = eng.Name()

	if err := p.ensureService(ctx, eng); err != nil {
		return nil, err
	}

	// The daemon should answer now; record its version for reporting. A
	// failing version probe is not fatal on its own.
	if version, verr := eng.Version(ctx); verr == nil {
		result.EngineVersion = version
	} else {
		slog.Debug("engine version probe failed", "engine", eng.Name(), "error", verr)
	}

	if err := p.pullImage(ctx, eng); err != nil {
		return nil, err
	}

	if err := p.runContainer(ctx, eng, result); err != nil {
		return result, err
	}

	slog.Info("provisioning complete",
		"mode", p.mode,
		"engine", result.Engine,
		"container", p.cfg.ContainerName,
		"run_id", p.runID)
	return result, nil
}

// ensureEngine locates the container engine, installing it when absent. The
// engine is resolved again after an install; still missing is fatal.
func (p *Provisioner) ensureEngine(ctx context.Context, result *Result) (engine.Engine, error) {
	p.observe(StepEngine, "checking for a container engine")
	eng, err := p.resolveEngine()
	if err == nil {
		slog.Debug("container engine already installed", "engine", eng.Name())
		return eng, nil
	}
	if !errors.Is(err, engine.ErrNoEngineAvailable) || p.skipInstall {
		return nil, err
	}

	kind, err := p.installEngine(ctx)
	if err != nil {
		return nil, err
	}
	result.Installed = true
	result.Installer = kind

	eng, err = p.resolveEngine()
	if err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("verify container engine after install").
			WithResource(kind.String()).
			WithSuggestion("Inspect the package manager output; the engine binary is still missing").
			Wrap(err).
			BuildError()
	}
	slog.Info("container engine installed", "engine", eng.Name(), "manager", kind)
	return eng, nil
}

// installEngine picks the system package manager and runs its installer.
// Exactly one installer executes per run, chosen by detector priority.
func (p *Provisioner) installEngine(ctx context.Context) (pkgmgr.Kind, error) {
	p.observe(StepInstall, "detecting the system package manager")
	kind, err := p.detector.Detect()
	if err != nil {
		return pkgmgr.KindNone, issue.NewErrorContext().
			WithOperation("detect a supported package manager").
			WithSuggestion("Install docker or podman manually, then re-run").
			Wrap(err).
			BuildError()
	}
	slog.Info("package manager detected", "manager", kind)

	installer, err := p.newInstaller(kind)
	if err != nil {
		return kind, err
	}
	p.observe(StepInstall, fmt.Sprintf("installing the container engine via %s", kind))
	if err := installer.Install(ctx); err != nil {
		return kind, issue.NewErrorContext().
			WithOperation("install container engine").
			WithResource(kind.String()).
			WithSuggestion("Re-run with --verbose to see the full package manager output").
			Wrap(err).
			BuildError()
	}
	return kind, nil
}

// ensureService starts and enables the engine's systemd unit.
func (p *Provisioner) ensureService(ctx context.Context, eng engine.Engine) error {
	unit := p.serviceUnit(eng)
	p.observe(StepService, fmt.Sprintf("ensuring %s is active and enabled", unit))

	ensurer, release := p.newEnsurer(ctx)
	defer release()

	if err := ensurer.Ensure(ctx, unit); err != nil {
		return issue.NewErrorContext().
			WithOperation("start container engine service").
			WithResource(unit).
			WithSuggestion(fmt.Sprintf("Check the unit logs with: journalctl -u %s", unit)).
			Wrap(err).
			BuildError()
	}
	return nil
}

// serviceUnit returns the systemd unit to ensure.
func (p *Provisioner) serviceUnit(eng engine.Engine) string {
	return ServiceUnitFor(p.cfg, eng.Name())
}

// ServiceUnitFor maps settings and engine to the unit to ensure. An explicit
// setting wins; the default follows the engine.
func ServiceUnitFor(cfg *config.Settings, engineName string) string {
	if cfg.ServiceUnit != config.DefaultServiceUnit {
		return cfg.ServiceUnit
	}
	if engineName == string(engine.EngineTypePodman) {
		return podmanServiceUnit
	}
	return cfg.ServiceUnit
}

// pullImage downloads the agent image. Any pull failure is fatal.
func (p *Provisioner) pullImage(ctx context.Context, eng engine.Engine) error {
	p.observe(StepPull, fmt.Sprintf("pulling %s", p.cfg.Image))
	slog.Info("pulling agent image", "image", p.cfg.Image)

	if err := eng.Pull(ctx, engine.ImageRef(p.cfg.Image)); err != nil {
		return issue.NewErrorContext().
			WithOperation("pull container image").
			WithResource(p.cfg.Image).
			WithSuggestions(
				"Check that the host can reach the image registry",
				"Verify the image reference is spelled correctly",
			).
			Wrap(err).
			BuildError()
	}
	return nil
}

// runContainer starts the agent container and verifies the outcome. In
// detached mode a leftover container with the agent's name is removed first
// and the new container must be running afterwards. In attached mode the
// container's exit code is recorded and a nonzero code is returned as a
// *ContainerExitError.
func (p *Provisioner) runContainer(ctx context.Context, eng engine.Engine, result *Result) error {
	name := engine.ContainerName(p.cfg.ContainerName)

	if p.mode == ModeDetached {
		p.observe(StepCleanup, fmt.Sprintf("removing leftover container %s", name))
		replaced, err := p.removeLeftover(ctx, eng, name)
		if err != nil {
			return err
		}
		result.Replaced = replaced
	}

	if err := os.MkdirAll(p.cfg.DataDir, 0o755); err != nil {
		return fmt.Errorf("failed to create data directory %s: %w", p.cfg.DataDir, err)
	}

	p.observe(StepRun, fmt.Sprintf("starting container %s", name))
	runResult, err := eng.Run(ctx, p.runOptions())
	if err != nil {
		return issue.NewErrorContext().
			WithOperation("run container").
			WithResource(string(name)).
			WithSuggestion(fmt.Sprintf("Check for port conflicts on %d and leftover containers named %s", p.cfg.HostPort, name)).
			Wrap(err).
			BuildError()
	}

	p.observe(StepVerify, fmt.Sprintf("verifying container %s", name))
	switch p.mode {
	case ModeAttached:
		result.ExitCode = runResult.ExitCode
		if runResult.ExitCode != 0 {
			return &ContainerExitError{Code: runResult.ExitCode}
		}
	default:
		result.ContainerID = runResult.ContainerID
		running, err := eng.Running(ctx, name)
		if err != nil {
			return fmt.Errorf("failed to verify container %s: %w", name, err)
		}
		if !running {
			return issue.NewErrorContext().
				WithOperation("verify container is running").
				WithResource(string(name)).
				WithSuggestion(fmt.Sprintf("Inspect the container logs with: %s logs %s", result.Engine, name)).
				Wrap(ErrContainerNotRunning).
				BuildError()
		}
		slog.Info("agent container running", "container", name, "id", runResult.ContainerID)
	}
	return nil
}

// removeLeftover force-removes a previous container with the agent's name.
func (p *Provisioner) removeLeftover(ctx context.Context, eng engine.Engine, name engine.ContainerName) (bool, error) {
	exists, err := eng.Exists(ctx, name)
	if err != nil {
		return false, fmt.Errorf("failed to check for leftover container %s: %w", name, err)
	}
	if !exists {
		return false, nil
	}
	slog.Info("removing leftover container", "container", name)
	if err := eng.Remove(ctx, name, true); err != nil {
		return false, issue.NewErrorContext().
			WithOperation("remove leftover container").
			WithResource(string(name)).
			WithSuggestion(fmt.Sprintf("Remove it manually with: %s rm -f %s", eng.Name(), name)).
			Wrap(err).
			BuildError()
	}
	return true, nil
}

// runOptions builds the fixed flag set the agent container always runs with:
// host PID namespace, the agent port published, the data directory and the
// engine control socket bind-mounted, and the run ID label.
func (p *Provisioner) runOptions() engine.RunOptions {
	opts := engine.RunOptions{
		Image:   engine.ImageRef(p.cfg.Image),
		Name:    engine.ContainerName(p.cfg.ContainerName),
		HostPID: true,
		Ports: []engine.PortMapping{{
			HostPort:      engine.NetworkPort(p.cfg.HostPort),
			ContainerPort: engine.NetworkPort(p.cfg.ContainerPort),
			Protocol:      engine.PortProtocolTCP,
		}},
		Volumes: []engine.VolumeMount{
			{
				HostPath:      engine.HostFilesystemPath(p.cfg.DataDir),
				ContainerPath: engine.MountTargetPath(p.cfg.DataMountPath),
			},
			{
				HostPath:      engine.HostFilesystemPath(p.cfg.SocketPath),
				ContainerPath: engine.MountTargetPath(p.cfg.SocketPath),
			},
		},
		Labels:      map[string]string{RunIDLabel: p.runID},
		StopTimeout: p.cfg.StopTimeout,
	}
	switch p.mode {
	case ModeAttached:
		opts.Remove = true
		opts.Stdin = p.stdin
		opts.Stdout = p.stdout
		opts.Stderr = p.stderr
	default:
		opts.Detach = true
	}
	return opts
}

func (p *Provisioner) observe(step Step, detail string) {
	slog.Debug("provision step", "step", step, "detail", detail)
	if p.observer != nil {
		p.observer(step, detail)
	}
}
