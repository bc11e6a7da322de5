// SPDX-License-Identifier: MPL-2.0

// Command buildscan scans and watches generated build system metadata.
package main

import "github.com/malterlib/buildscan/cmd/buildscan"

func main() {
	cmd.Execute()
}
