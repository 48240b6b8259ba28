//go:build unix

package main

import (
	"os"
	"syscall"
)

var ackSignals = []os.Signal{syscall.SIGUSR1}
