package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/sarchlab/vmsim/simulation"
	"github.com/sarchlab/vmsim/vm"
	"github.com/sarchlab/vmsim/workload"
)

var (
	flagNumPages  int64
	flagLength    int
	flagSeed      int64
	flagProcesses int
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a synthetic workload and report statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := buildSimulation()
		if err != nil {
			return err
		}
		defer s.Terminate()

		seed := flagSeed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}

		var refs []workload.Ref
		for p := 1; p <= flagProcesses; p++ {
			gen := workload.NewGenerator(flagNumPages, seed+int64(p))
			refs = append(refs,
				workload.Refs(vm.PID(p), gen.Sequence(flagLength))...)
		}

		if _, err := s.Run(refs); err != nil {
			return err
		}

		printStats(s)

		return nil
	},
}

func init() {
	runCmd.Flags().Int64Var(&flagNumPages,
		"pages", 16, "virtual pages per process")
	runCmd.Flags().IntVar(&flagLength,
		"length", 100, "accesses per process")
	runCmd.Flags().Int64Var(&flagSeed,
		"seed", 0, "workload seed (0 uses the current time)")
	runCmd.Flags().IntVar(&flagProcesses,
		"processes", 1, "number of simulated processes")

	rootCmd.AddCommand(runCmd)
}

func buildSimulation() (*simulation.Simulation, error) {
	b := simulation.MakeBuilder().
		WithFrameCount(flagFrames).
		WithPageSizeKB(flagPageSizeKB).
		WithPolicy(flagPolicy)

	if flagRecord || flagOutput != "" {
		b = b.WithRecording()
	}
	if flagOutput != "" {
		b = b.WithOutputFileName(flagOutput)
	}

	if flagMonitor || flagMonitorPort > 0 {
		b = b.WithMonitor()
	}
	if flagMonitorPort > 0 {
		b = b.WithMonitorPort(flagMonitorPort)
	}
	if flagBrowser {
		b = b.WithBrowser()
	}

	s, err := b.Build()
	if err != nil {
		return nil, err
	}

	if flagVerbose {
		s.Engine().AcceptHook(
			vm.NewEventLogger(log.New(os.Stderr, "", log.Ltime)))
	}

	return s, nil
}

func printStats(s *simulation.Simulation) {
	stats := s.Engine().Stats()

	fmt.Printf("run %s: policy=%s frames=%d\n",
		s.ID(), s.Engine().PolicyName(), s.Engine().Config().FrameCount)
	fmt.Printf("accesses=%d hits=%d faults=%d evictions=%d\n",
		stats.Accesses, stats.Hits, stats.Faults, stats.Evictions)
	fmt.Printf("hit rate %.1f%%, fault rate %.1f%%\n",
		stats.HitRate()*100, stats.FaultRate()*100)
}
