// Vmsim simulates virtual-memory paging: a fixed pool of physical frames,
// a page table, and a pluggable replacement policy, with optional SQLite
// recording and a web monitor.
package main

import (
	"os"

	"github.com/tebeka/atexit"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}

	atexit.Exit(0)
}
