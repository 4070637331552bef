package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sarchlab/vmsim/workload"
)

var flagTraceFile string

var traceCmd = &cobra.Command{
	Use:   "trace [reference string]",
	Short: "Replay a reference string and print each outcome",
	Long: "Replays a whitespace-separated reference string, either from " +
		"the arguments or from a file. Tokens are page numbers, optionally " +
		"qualified with a process id as P<pid>:<page>.",
	Example: "  vmsim trace --frames 3 --policy FIFO 1 2 3 4 1\n" +
		"  vmsim trace --file refs.txt --policy Optimal",
	RunE: func(cmd *cobra.Command, args []string) error {
		refs, err := readRefs(args)
		if err != nil {
			return err
		}

		if len(refs) == 0 {
			return fmt.Errorf("no references given")
		}

		s, err := buildSimulation()
		if err != nil {
			return err
		}
		defer s.Terminate()

		events, err := s.Run(refs)
		if err != nil {
			return err
		}

		for _, e := range events {
			fmt.Println(e)
		}

		printStats(s)

		return nil
	},
}

func init() {
	traceCmd.Flags().StringVar(&flagTraceFile,
		"file", "", "read the reference string from a file")

	rootCmd.AddCommand(traceCmd)
}

func readRefs(args []string) ([]workload.Ref, error) {
	if flagTraceFile != "" {
		f, err := os.Open(flagTraceFile)
		if err != nil {
			return nil, err
		}
		defer f.Close()

		return workload.ParseTrace(f)
	}

	return workload.ParseTrace(strings.NewReader(strings.Join(args, " ")))
}
