package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

const spinnerInterval = 80 * time.Millisecond

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// spinner animates a status line on w while the engine or Graphviz works.
// It clears itself when stopped or when ctx is cancelled.
type spinner struct {
	w      io.Writer
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	mu      sync.Mutex
	message string
	width   int
}

// startSpinner starts animating message on w.
func startSpinner(ctx context.Context, w io.Writer, message string) *spinner {
	ctx, cancel := context.WithCancel(ctx)
	s := &spinner{w: w, ctx: ctx, cancel: cancel, done: make(chan struct{}), message: message}
	go s.run()
	return s
}

func (s *spinner) run() {
	defer close(s.done)
	ticker := time.NewTicker(spinnerInterval)
	defer ticker.Stop()
	for i := 0; ; i++ {
		select {
		case <-s.ctx.Done():
			s.clear()
			return
		case <-ticker.C:
			s.mu.Lock()
			line := fmt.Sprintf("\r%s %s", styleIconSpinner.Render(spinnerFrames[i%len(spinnerFrames)]), StyleDim.Render(s.message))
			s.width = max(s.width, len(s.message)+2)
			fmt.Fprint(s.w, line)
			s.mu.Unlock()
		}
	}
}

// update replaces the status message.
func (s *spinner) update(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.message = message
}

// stop ends the animation and clears the line. It may be called more than
// once.
func (s *spinner) stop() {
	s.cancel()
	<-s.done
}

// fail stops the spinner and prints message as an error.
func (s *spinner) fail(message string) {
	s.stop()
	printError("%s", message)
}

func (s *spinner) clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.width == 0 {
		return
	}
	fmt.Fprintf(s.w, "\r%s\r", strings.Repeat(" ", s.width+2))
}
