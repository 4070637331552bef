package vm

import (
	"bytes"
	"log"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("EventLogger", func() {
	var (
		buf    *bytes.Buffer
		logger *EventLogger
	)

	BeforeEach(func() {
		buf = &bytes.Buffer{}
		logger = NewEventLogger(log.New(buf, "", 0))
	})

	It("should write one line per outcome", func() {
		logger.Func(HookCtx{
			Pos: HookPosOutcome,
			Item: OutcomeEvent{
				Kind:       Hit,
				Page:       Page{PID: 1, VPN: 7},
				FrameIndex: 2,
				Time:       5,
			},
		})

		Expect(buf.String()).To(Equal("t=5 P1 page 7 -> HIT, frame 2\n"))
	})

	It("should describe evictions with the victim and reason", func() {
		logger.Func(HookCtx{
			Pos: HookPosOutcome,
			Item: OutcomeEvent{
				Kind:         FaultWithEviction,
				Page:         Page{PID: 1, VPN: 4},
				FrameIndex:   0,
				Evicted:      Page{PID: 1, VPN: 1},
				EvictedValid: true,
				Reason:       "FIFO: oldest load time (t=1)",
				Time:         9,
			},
		})

		Expect(buf.String()).To(ContainSubstring("evicted P1 page 1 from frame 0"))
		Expect(buf.String()).To(ContainSubstring("FIFO: oldest load time (t=1)"))
	})

	It("should ignore positions other than outcomes", func() {
		logger.Func(HookCtx{Pos: HookPosReset})

		Expect(buf.Len()).To(Equal(0))
	})
})
