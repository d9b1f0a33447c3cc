// SPDX-License-Identifier: EPL-2.0

package issue

import (
	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

type Id int

const (
	NotRootId Id = iota + 1
	NoPackageManagerId
	EngineInstallFailedId
	EngineNotFoundId
	ServiceStartFailedId
	ImagePullFailedId
	ContainerStartFailedId
	ContainerNotRunningId
	SelfUpdateFailedId
)

type MarkdownMsg string

type HttpLink string

type Renderer interface {
	Render(in string, stylePath string) (string, error)
}

type Issue struct {
	id       Id          // ID used to lookup the issue
	mdMsg    MarkdownMsg // Markdown text that will be rendered
	docLinks []HttpLink  // must never be empty, because we need to have docs about all issue types
	extLinks []HttpLink  // external links that might be useful for the user
}

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

func (i *Issue) Render(stylePath string) (string, error) {
	extraMd := ""
	if len(i.docLinks) > 0 || len(i.extLinks) > 0 {
		extraMd += "\n\n"
		extraMd += "## See also: "
		for _, link := range i.docLinks {
			extraMd += "- [" + string(link) + "]"
		}
		for _, link := range i.extLinks {
			extraMd += "- [" + string(link) + "]"
		}
	}
	return render(string(i.mdMsg)+extraMd, stylePath)
}

var (
	render = glamour.Render

	notRootIssue = &Issue{
		id: NotRootId,
		mdMsg: `
# Superuser privileges required!

dockhand installs packages, manages the engine service, and talks to the
container daemon. All of that needs root.

## Things you can try:
- Re-run the command with sudo:
~~~
$ sudo dockhand up
~~~

- Or switch to a root shell first:
~~~
$ sudo -i
# dockhand up
~~~

Read-only commands work without root:
~~~
$ dockhand status
$ dockhand script
~~~`,
	}

	noPackageManagerIssue = &Issue{
		id: NoPackageManagerId,
		mdMsg: `
# No supported package manager found!

dockhand probes for package managers in this order and uses the first one found:

1. **dnf** (Fedora, RHEL, CentOS Stream)
2. **pacman** (Arch Linux, Manjaro)
3. **apt** (Debian, Ubuntu and derivatives)

None of them is on PATH, so the container engine cannot be installed automatically.

## Things you can try:
- Install the container engine manually for your distribution:
  https://docs.docker.com/engine/install/

- Then re-run dockhand; when the engine is already present, no install step runs:
~~~
$ sudo dockhand up
~~~

- Print the equivalent shell commands to adapt them to your system:
~~~
$ dockhand script
~~~`,
	}

	engineInstallFailedIssue = &Issue{
		id: EngineInstallFailedId,
		mdMsg: `
# Container engine installation failed!

The package manager reported an error while installing the engine packages.

## Common causes:
- No network connectivity to the package repositories
- Stale package metadata
- Conflicting packages already installed

## Things you can try:
- Refresh the package metadata and retry:
~~~
$ sudo dnf makecache        # Fedora/RHEL
$ sudo pacman -Syy          # Arch
$ sudo apt-get update       # Debian/Ubuntu
~~~

- Run with verbose output to see the full package manager output:
~~~
$ sudo dockhand up --verbose
~~~`,
	}

	engineNotFoundIssue = &Issue{
		id: EngineNotFoundId,
		mdMsg: `
# Container engine not found!

No Docker-compatible engine binary is on PATH. Either the installation did not
complete, or installation was skipped.

## Things you can try:
- Let dockhand install the engine (omit --skip-install):
~~~
$ sudo dockhand up
~~~

- Or install it manually:
  https://docs.docker.com/engine/install/

- Verify the binary afterwards:
~~~
$ command -v docker
~~~`,
	}

	serviceStartFailedIssue = &Issue{
		id: ServiceStartFailedId,
		mdMsg: `
# Engine service failed to start!

The systemd unit for the container engine did not reach the active state,
even after the post-start re-check.

## Things you can try:
- Inspect the unit status and recent logs:
~~~
$ systemctl status docker.service
$ journalctl -u docker.service -n 50
~~~

- Check for conflicting daemon configuration in /etc/docker/daemon.json
- Make sure the host actually runs systemd (containers and WSL1 often don't)`,
	}

	imagePullFailedIssue = &Issue{
		id: ImagePullFailedId,
		mdMsg: `
# Image pull failed!

The agent image could not be pulled from its registry.

## Common causes:
- No network connectivity or a proxy blocking the registry
- The engine daemon is not running
- Rate limiting by the registry

## Things you can try:
- Verify the daemon responds:
~~~
$ docker version
~~~

- Pull manually to see the full registry error:
~~~
$ docker pull <image>
~~~

- Configure registry credentials or a mirror if your network requires one`,
	}

	containerStartFailedIssue = &Issue{
		id: ContainerStartFailedId,
		mdMsg: `
# Agent container failed to start!

The engine accepted the run request but the container did not start.

## Common causes:
- The host port is already bound by another process
- A bind mount source path does not exist or is not accessible
- A leftover container with the same name is in a broken state

## Things you can try:
- Check what holds the port:
~~~
$ ss -ltnp | grep 9301
~~~

- Remove any leftover container and retry:
~~~
$ sudo dockhand down
$ sudo dockhand up
~~~

- Run with verbose output to see the full engine output:
~~~
$ sudo dockhand up --verbose
~~~`,
	}

	containerNotRunningIssue = &Issue{
		id: ContainerNotRunningId,
		mdMsg: `
# Agent container is not running!

The container started but was no longer running when dockhand verified it.
It most likely exited immediately.

## Things you can try:
- Inspect the container logs:
~~~
$ docker logs dockhand-agent
~~~

- Inspect the exit code:
~~~
$ docker inspect --format '{{.State.ExitCode}}' dockhand-agent
~~~

- Run the agent in the foreground to watch it fail:
~~~
$ sudo dockhand run
~~~`,
	}

	selfUpdateFailedIssue = &Issue{
		id: SelfUpdateFailedId,
		mdMsg: `
# Self-update failed!

The new release could not be detected or applied.

## Common causes:
- No network connectivity to the release host
- The binary location is not writable
- Running a development build (self-update needs a released version)

## Things you can try:
- Re-run with verbose output:
~~~
$ dockhand selfupdate --verbose
~~~

- Download the release manually and replace the binary
- Check that the install directory is writable by your user`,
	}

	issues = map[Id]*Issue{
		notRootIssue.Id():              notRootIssue,
		noPackageManagerIssue.Id():     noPackageManagerIssue,
		engineInstallFailedIssue.Id():  engineInstallFailedIssue,
		engineNotFoundIssue.Id():       engineNotFoundIssue,
		serviceStartFailedIssue.Id():   serviceStartFailedIssue,
		imagePullFailedIssue.Id():      imagePullFailedIssue,
		containerStartFailedIssue.Id(): containerStartFailedIssue,
		containerNotRunningIssue.Id():  containerNotRunningIssue,
		selfUpdateFailedIssue.Id():     selfUpdateFailedIssue,
	}
)

func Values() []*Issue {
	return maps.Values(issues)
}

func Get(id Id) *Issue {
	return issues[id]
}
