// Command flowctl is the host process that owns configuration and the
// module registry, loads a pipeline manifest, and drives a flow
// end-to-end from the command line.
package main

import "os"

func main() {
	os.Exit(Execute())
}
