//go:build !unix

package main

import "os"

// no user signals; the button input is the only acknowledge path
var ackSignals []os.Signal
