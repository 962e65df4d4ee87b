package client

import (
	"chat-relay/domain"
	"io"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
)

// ProgressBar renders transfer observations as a terminal bar.
type ProgressBar struct {
	mu  sync.Mutex
	bar *progressbar.ProgressBar
}

// NewProgressBar sizes the bar on the declared size; an unknown size renders a spinner.
func NewProgressBar(out io.Writer, description string, declared int64) *ProgressBar {
	total := declared
	if total <= 0 {
		total = -1
	}
	bar := progressbar.NewOptions64(total,
		progressbar.OptionSetWriter(out),
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowBytes(true),
		progressbar.OptionSetWidth(30),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionOnCompletion(func() { _, _ = io.WriteString(out, "\n") }),
	)
	return &ProgressBar{bar: bar}
}

// Observe is a ProgressFunc.
func (p *ProgressBar) Observe(progress domain.TransferProgress) {
	p.mu.Lock()
	defer p.mu.Unlock()
	_ = p.bar.Set64(progress.Transferred)
}

func (p *ProgressBar) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	_ = p.bar.Finish()
}
