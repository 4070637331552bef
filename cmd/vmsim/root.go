package main

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/sarchlab/vmsim/vm/policy"
)

var (
	flagFrames     int
	flagPageSizeKB int
	flagPolicy     string

	flagMonitor     bool
	flagMonitorPort int
	flagBrowser     bool
	flagRecord      bool
	flagOutput      string
	flagVerbose     bool
)

var rootCmd = &cobra.Command{
	Use:   "vmsim",
	Short: "Virtual-memory paging simulator",
	Long: "vmsim simulates page allocation, page faults, and page " +
		"replacement over a small pool of physical frames.\n\n" +
		"Supported policies: " + strings.Join(policy.Names(), ", ") + ".",
	SilenceUsage: true,
}

func init() {
	// A .env file can override the built-in defaults. Flags still win.
	_ = godotenv.Load()

	rootCmd.PersistentFlags().IntVar(&flagFrames,
		"frames", envInt("VMSIM_FRAMES", 10),
		"number of physical frames")
	rootCmd.PersistentFlags().IntVar(&flagPageSizeKB,
		"page-size-kb", envInt("VMSIM_PAGE_SIZE_KB", 4),
		"page size in kilobytes")
	rootCmd.PersistentFlags().StringVar(&flagPolicy,
		"policy", envStr("VMSIM_POLICY", "LRU"),
		"replacement policy")

	rootCmd.PersistentFlags().BoolVar(&flagMonitor,
		"monitor", false, "serve the web monitor")
	rootCmd.PersistentFlags().IntVar(&flagMonitorPort,
		"monitor-port", envInt("VMSIM_MONITOR_PORT", 0),
		"web monitor port (0 picks a random port)")
	rootCmd.PersistentFlags().BoolVar(&flagBrowser,
		"browser", false, "open the web monitor in the default browser")
	rootCmd.PersistentFlags().BoolVar(&flagRecord,
		"record", false, "record the event stream into SQLite")
	rootCmd.PersistentFlags().StringVar(&flagOutput,
		"output", "", "recording file name (without .sqlite3 suffix)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose,
		"verbose", "v", false, "log every memory operation to stderr")
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}

	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}

	return n
}
