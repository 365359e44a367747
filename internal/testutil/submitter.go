package testutil

import (
	"sync"
	"time"

	"github.com/zjrosen/namebridge/internal/orchestration/command"
)

// RecordingSubmitter captures submitted commands.
type RecordingSubmitter struct {
	mu       sync.Mutex
	commands []command.Command
	notify   chan struct{}
	err      error
}

// NewRecordingSubmitter creates an empty submitter.
func NewRecordingSubmitter() *RecordingSubmitter {
	return &RecordingSubmitter{notify: make(chan struct{}, 64)}
}

// FailWith makes every later Submit return err after recording the command.
func (m *RecordingSubmitter) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Submit records cmd.
func (m *RecordingSubmitter) Submit(cmd command.Command) error {
	m.mu.Lock()
	m.commands = append(m.commands, cmd)
	err := m.err
	m.mu.Unlock()
	select {
	case m.notify <- struct{}{}:
	default:
	}
	return err
}

// Commands returns a copy of everything submitted so far.
func (m *RecordingSubmitter) Commands() []command.Command {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]command.Command, len(m.commands))
	copy(result, m.commands)
	return result
}

// WaitForCommands blocks until n commands were submitted or timeout passes.
func (m *RecordingSubmitter) WaitForCommands(n int, timeout time.Duration) bool {
	deadline := time.After(timeout)
	for {
		m.mu.Lock()
		count := len(m.commands)
		m.mu.Unlock()
		if count >= n {
			return true
		}
		select {
		case <-m.notify:
		case <-deadline:
			return false
		}
	}
}
