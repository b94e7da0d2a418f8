package utils

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
	"unicode/utf8"
)

// Spinner is the progress indicator shown while a dataset read is running.
type Spinner struct {
	mu         sync.Mutex
	delay      time.Duration
	writer     io.Writer
	message    string
	lastOutput string
	StopMsg    string
	stopChan   chan struct{}
}

// NewSpinner instantiates a new progress indicator.
func NewSpinner(msg string, d time.Duration) *Spinner {
	return &Spinner{
		delay:    d,
		writer:   os.Stderr,
		message:  msg,
		stopChan: make(chan struct{}, 1),
	}
}

// Start starts the progress indicator.
func (s *Spinner) Start() {
	go func() {
		for {
			for _, r := range `⠋⠙⠹⠸⠼⠴⠦⠧⠇⠏` {
				select {
				case <-s.stopChan:
					return
				default:
					s.mu.Lock()
					output := fmt.Sprintf("\r%s%s %c%s", s.message, SuccessColor, r, DefaultColor)
					fmt.Fprint(s.writer, output)
					s.lastOutput = output
					s.mu.Unlock()

					time.Sleep(s.delay)
				}
			}
		}
	}()
}

// Stop stops the progress indicator and prints the stop message, if any.
func (s *Spinner) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.clear()
	if len(s.StopMsg) > 0 {
		fmt.Fprint(s.writer, s.StopMsg)
	}
	s.stopChan <- struct{}{}
}

// clear deletes the last line. Caller must hold the locker.
func (s *Spinner) clear() {
	n := utf8.RuneCountInString(s.lastOutput)
	fmt.Fprint(s.writer, "\r"+strings.Repeat(" ", n))
	fmt.Fprint(s.writer, "\r\033[K")
	s.lastOutput = ""
}
