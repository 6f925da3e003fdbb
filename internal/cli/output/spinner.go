package output

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

var spinnerFrames = []rune{'⠋', '⠙', '⠹', '⠸', '⠼', '⠴', '⠦', '⠧', '⠇', '⠏'}

// Spinner shows progress for a long step on a terminal. Off a terminal it
// prints the message once and stays quiet until the result line.
type Spinner struct {
	r       *Renderer
	msg     string
	stop    chan struct{}
	done    chan struct{}
	started bool
}

// NewSpinner prepares a spinner for msg. Call Start to begin animating.
func (r *Renderer) NewSpinner(msg string) *Spinner {
	return &Spinner{r: r, msg: msg}
}

// Start begins the animation, or prints the message once when the output
// stream is not an interactive terminal.
func (s *Spinner) Start() {
	if s.started {
		return
	}
	s.started = true
	if !s.r.isTTY || s.r.EffectiveMode() != ModeText {
		s.r.Muted(s.msg)
		return
	}
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	go s.spin()
}

func (s *Spinner) spin() {
	defer close(s.done)
	ticker := time.NewTicker(80 * time.Millisecond)
	defer ticker.Stop()
	i := 0
	for {
		select {
		case <-s.stop:
			width := utf8.RuneCountInString(s.msg) + 2
			fmt.Fprintf(s.r.out, "\r%s\r", strings.Repeat(" ", width))
			return
		case <-ticker.C:
			fmt.Fprintf(s.r.out, "\r%c %s", spinnerFrames[i%len(spinnerFrames)], s.msg)
			i++
		}
	}
}

func (s *Spinner) halt() {
	if s.stop == nil {
		return
	}
	close(s.stop)
	<-s.done
	s.stop = nil
}

// Success stops the spinner and prints a confirmation line.
func (s *Spinner) Success(msg string) {
	s.halt()
	s.r.Success(msg)
}

// Fail stops the spinner and prints a failure line to the error stream.
func (s *Spinner) Fail(msg string) {
	s.halt()
	fmt.Fprintln(s.r.errOut, s.r.styles.Error.Render("✗ "+msg))
}
