package main

import (
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
)

// bar adapts progressbar to find/domain.Progress
type bar struct {
	pb *progressbar.ProgressBar
}

func (b *bar) Start(total int64) {
	b.pb = progressbar.NewOptions64(
		total,
		progressbar.OptionSetDescription("domains"),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetWidth(40),
		progressbar.OptionThrottle(200*time.Millisecond),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("domains"),
		progressbar.OptionSpinnerType(14),
	)
}

func (b *bar) Add(n int) {
	if b.pb != nil {
		_ = b.pb.Add(n)
	}
}

func (b *bar) Finish() {
	if b.pb != nil {
		_ = b.pb.Finish()
		_, _ = os.Stderr.WriteString("\n")
	}
}
