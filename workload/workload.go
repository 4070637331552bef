// Package workload produces the page-access sequences that drive the
// engine: synthetic sequences with temporal locality, and reference
// strings parsed from text traces.
package workload

import (
	"bufio"
	"fmt"
	"io"
	"math/rand"
	"strconv"
	"strings"

	"github.com/sarchlab/vmsim/vm"
)

// A Ref is one reference in an access trace.
type Ref struct {
	PID vm.PID
	VPN int64
}

// CalculatePages returns the number of pages needed to back memoryKB
// kilobytes, rounding up.
func CalculatePages(memoryKB, pageSizeKB int) int64 {
	return int64((memoryKB + pageSizeKB - 1) / pageSizeKB)
}

// A Generator produces page-access sequences with temporal locality: most
// steps stay on or next to the current page, with occasional random jumps.
// Each generator owns its random source, so sequences are reproducible
// from the seed.
type Generator struct {
	rnd      *rand.Rand
	numPages int64
}

// NewGenerator creates a generator over page numbers [0, numPages).
func NewGenerator(numPages int64, seed int64) *Generator {
	return &Generator{
		rnd:      rand.New(rand.NewSource(seed)),
		numPages: numPages,
	}
}

// Sequence generates length page numbers. Roughly 70% of steps move at
// most one page from the previous one; the rest jump anywhere.
func (g *Generator) Sequence(length int) []int64 {
	if g.numPages == 0 {
		return nil
	}

	seq := make([]int64, 0, length)
	current := g.rnd.Int63n(g.numPages)

	for i := 0; i < length; i++ {
		seq = append(seq, current)

		if g.rnd.Float64() < 0.7 {
			offsets := []int64{-1, 0, 0, 1}
			current += offsets[g.rnd.Intn(len(offsets))]

			if current < 0 {
				current = 0
			}
			if current >= g.numPages {
				current = g.numPages - 1
			}
		} else {
			current = g.rnd.Int63n(g.numPages)
		}
	}

	return seq
}

// Refs binds a page-number sequence to one process.
func Refs(pid vm.PID, seq []int64) []Ref {
	refs := make([]Ref, len(seq))
	for i, vpn := range seq {
		refs[i] = Ref{PID: pid, VPN: vpn}
	}

	return refs
}

// ParseTrace reads a whitespace-separated reference string. Each token is
// either a bare page number, which is attributed to process 1, or a
// "P<pid>:<page>" pair. Negative page numbers are rejected.
func ParseTrace(r io.Reader) ([]Ref, error) {
	var refs []Ref

	scanner := bufio.NewScanner(r)
	scanner.Split(bufio.ScanWords)

	for scanner.Scan() {
		ref, err := parseToken(scanner.Text())
		if err != nil {
			return nil, err
		}

		refs = append(refs, ref)
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return refs, nil
}

func parseToken(token string) (Ref, error) {
	pid := vm.PID(1)
	pageToken := token

	if strings.Contains(token, ":") {
		parts := strings.SplitN(token, ":", 2)

		pidToken := strings.TrimPrefix(strings.ToUpper(parts[0]), "P")
		pidVal, err := strconv.ParseUint(pidToken, 10, 32)
		if err != nil {
			return Ref{}, fmt.Errorf("bad process id in token %q", token)
		}

		pid = vm.PID(pidVal)
		pageToken = parts[1]
	}

	vpn, err := strconv.ParseInt(pageToken, 10, 64)
	if err != nil {
		return Ref{}, fmt.Errorf("bad page number in token %q", token)
	}

	if vpn < 0 {
		return Ref{}, fmt.Errorf("negative page number in token %q", token)
	}

	return Ref{PID: pid, VPN: vpn}, nil
}
