package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"
)

// spinnerFrames is the braille animation cycle.
var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// spinnerInterval is the frame rate of the animation.
const spinnerInterval = 80 * time.Millisecond

// elapsedAfter is how long a spinner runs before the elapsed time is shown
// next to the message. Continental tables take minutes; the timer tells the
// user the process is alive.
const elapsedAfter = 3 * time.Second

// Spinner is a terminal progress indicator tied to a context. Cancelling
// the context stops the animation and clears the line.
type Spinner struct {
	message  string
	ctx      context.Context
	cancel   context.CancelFunc
	started  time.Time
	quit     chan struct{}
	finished chan struct{}
	stopOnce sync.Once
	mu       sync.Mutex
}

// newSpinner creates a new spinner with the given message.
func newSpinner(message string) *Spinner {
	return newSpinnerWithContext(context.Background(), message)
}

// newSpinnerWithContext creates a spinner that stops when ctx is cancelled.
func newSpinnerWithContext(ctx context.Context, message string) *Spinner {
	ctx, cancel := context.WithCancel(ctx)
	return &Spinner{
		message:  message,
		ctx:      ctx,
		cancel:   cancel,
		quit:     make(chan struct{}),
		finished: make(chan struct{}),
	}
}

// Start begins the spinner animation on stderr.
func (s *Spinner) Start() {
	s.started = time.Now()
	go s.run()
}

func (s *Spinner) run() {
	defer close(s.finished)
	ticker := time.NewTicker(spinnerInterval)
	defer ticker.Stop()

	for i := 0; ; i++ {
		select {
		case <-s.ctx.Done():
			s.clearLine()
			return
		case <-s.quit:
			return
		case <-ticker.C:
			s.draw(spinnerFrames[i%len(spinnerFrames)])
		}
	}
}

func (s *Spinner) draw(frame string) {
	line := s.message
	if elapsed := time.Since(s.started); elapsed >= elapsedAfter {
		line = fmt.Sprintf("%s (%s)", s.message, elapsed.Round(time.Second))
	}
	s.mu.Lock()
	fmt.Fprintf(os.Stderr, "\r%s %s", styleIconSpinner.Render(frame), StyleDim.Render(line))
	s.mu.Unlock()
}

// Stop halts the animation and clears the line. Safe to call repeatedly.
func (s *Spinner) Stop() {
	s.stopOnce.Do(func() {
		s.cancel()
		close(s.quit)
	})
	<-s.finished
	s.clearLine()
}

func (s *Spinner) clearLine() {
	s.mu.Lock()
	defer s.mu.Unlock()
	// Wide enough for the message plus the elapsed suffix.
	fmt.Fprintf(os.Stderr, "\r%s\r", strings.Repeat(" ", len(s.message)+16))
}

// StopWithSuccess stops the spinner and shows a success message.
func (s *Spinner) StopWithSuccess(message string) {
	s.Stop()
	printSuccess("%s", message)
}

// StopWithError stops the spinner and shows an error message.
func (s *Spinner) StopWithError(message string) {
	s.Stop()
	printError("%s", message)
}

// Cancelled reports whether the spinner's context was cancelled.
func (s *Spinner) Cancelled() bool {
	return s.ctx.Err() != nil
}
