package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/sarchlab/vmsim/procfeed"
)

var (
	flagInterval time.Duration
	flagTop      int
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Drive the simulation from live OS processes",
	Long: "Samples the memory usage of running processes and replays " +
		"synthetic page accesses for the largest ones through the engine. " +
		"Runs until interrupted.",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := buildSimulation()
		if err != nil {
			return err
		}
		defer s.Terminate()

		feed := procfeed.NewMonitor(flagPageSizeKB, flagInterval)

		infos, err := feed.Snapshot()
		if err != nil {
			return err
		}

		tracked := 0
		for _, info := range infos {
			if tracked >= flagTop {
				break
			}

			if _, err := feed.Track(info.PID); err != nil {
				continue
			}

			fmt.Printf("tracking %s (pid %d, %d KB, %d pages)\n",
				info.Name, info.PID, info.MemoryKB, info.Pages)
			tracked++
		}

		if tracked == 0 {
			return fmt.Errorf("no trackable processes found")
		}

		ctx, stop := signal.NotifyContext(
			context.Background(), os.Interrupt)
		defer stop()

		go feed.Run(ctx)

		// The monitor's HTTP handlers share the engine, so engine calls
		// go through its lock when it is serving.
		sync := func(f func()) { f() }
		if s.Monitor() != nil {
			sync = s.Monitor().Sync
		}

		engine := s.Engine()
		for req := range feed.Requests() {
			var accessErr error

			sync(func() {
				switch req.Kind {
				case procfeed.Access:
					_, accessErr = engine.HandleAccess(req.Access)
				case procfeed.Terminate:
					fmt.Printf("process %d exited, freeing its frames\n", req.PID)
					engine.TerminateProcess(req.PID)
				}
			})

			if accessErr != nil {
				return accessErr
			}
		}

		fmt.Println()
		printStats(s)

		return nil
	},
}

func init() {
	watchCmd.Flags().DurationVar(&flagInterval,
		"interval", 250*time.Millisecond, "delay between accesses")
	watchCmd.Flags().IntVar(&flagTop,
		"top", 5, "number of processes to track, largest first")

	rootCmd.AddCommand(watchCmd)
}
