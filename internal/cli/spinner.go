package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"
)

// spinnerFrames is the braille animation cycle drawn on stderr.
var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Spinner animates a progress indicator on stderr while a slow external
// step runs, typically a Graphviz layout or an rsvg PDF/PNG conversion.
// It stops on its own when the command context is cancelled.
type Spinner struct {
	label    string
	ctx      context.Context
	cancel   context.CancelFunc
	quit     chan struct{}
	finished chan struct{}
	mu       sync.Mutex
}

// newSpinnerWithContext creates a spinner tied to ctx. Cancelling ctx
// stops the animation and clears the line.
func newSpinnerWithContext(ctx context.Context, label string) *Spinner {
	spinnerCtx, cancel := context.WithCancel(ctx)
	return &Spinner{
		label:    label,
		ctx:      spinnerCtx,
		cancel:   cancel,
		quit:     make(chan struct{}),
		finished: make(chan struct{}),
	}
}

// Start begins the animation in a background goroutine.
func (s *Spinner) Start() {
	go func() {
		defer close(s.finished)
		ticker := time.NewTicker(80 * time.Millisecond)
		defer ticker.Stop()

		for i := 0; ; i++ {
			select {
			case <-s.ctx.Done():
				s.clearLine()
				return
			case <-s.quit:
				return
			case <-ticker.C:
				frame := spinnerFrames[i%len(spinnerFrames)]
				s.mu.Lock()
				fmt.Fprintf(os.Stderr, "\r%s %s", styleIconSpinner.Render(frame), StyleDim.Render(s.label))
				s.mu.Unlock()
			}
		}
	}()
}

// Stop halts the animation and clears the line. Safe to call more than
// once.
func (s *Spinner) Stop() {
	s.cancel()
	select {
	case <-s.quit:
	default:
		close(s.quit)
	}
	<-s.finished
	s.clearLine()
}

func (s *Spinner) clearLine() {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(os.Stderr, "\r%s\r", strings.Repeat(" ", len(s.label)+4))
}

// StopWithSuccess stops the spinner and prints a success line in its
// place.
func (s *Spinner) StopWithSuccess(message string) {
	s.Stop()
	printSuccess("%s", message)
}

// StopWithError stops the spinner and prints an error line in its place.
func (s *Spinner) StopWithError(message string) {
	s.Stop()
	printError("%s", message)
}

// Cancelled reports whether the spinner stopped because its context was
// cancelled rather than by an explicit Stop.
func (s *Spinner) Cancelled() bool {
	return s.ctx.Err() != nil
}
