// SPDX-License-Identifier: MPL-2.0

package main

import cmd "dockhand/cmd/dockhand"

// version is the semantic version, set during build with -ldflags.
var version = "dev"

func main() {
	cmd.Execute(version)
}
