package stage

import (
	"bytes"
	"errors"
	"sync"
)

// ScriptedPort implements Porter for tests. Each written command byte is
// recorded and answered with the next scripted response for that command;
// unscripted commands time out (zero-byte read), matching real port
// semantics.
type ScriptedPort struct {
	mu sync.Mutex

	// Responses holds queued reply lines per command byte. Each Write of a
	// command consumes the head of its queue.
	Responses map[byte][]string

	// Writes records every command byte written, in order.
	Writes []byte

	// WriteError, if set, is returned by the next Write.
	WriteError error

	// Closed reports whether Close was called.
	Closed bool

	pending bytes.Buffer
}

// NewScriptedPort returns a port that acknowledges arm and disarm with
// AckToken and answers steps with "rc_step". Tests override Responses to
// exercise failure paths.
func NewScriptedPort() *ScriptedPort {
	return &ScriptedPort{
		Responses: map[byte][]string{
			CmdArm:    {AckToken},
			CmdDisarm: {AckToken},
		},
	}
}

func (p *ScriptedPort) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.Closed {
		return 0, errors.New("stage port closed")
	}
	if p.WriteError != nil {
		err := p.WriteError
		p.WriteError = nil
		return 0, err
	}

	for _, cmd := range b {
		p.Writes = append(p.Writes, cmd)
		queue := p.Responses[cmd]
		if len(queue) == 0 {
			// Repeat the last scripted response so arbitrarily many steps
			// can reuse a single entry; no entry at all means silence.
			continue
		}
		resp := queue[0]
		if len(queue) > 1 {
			p.Responses[cmd] = queue[1:]
		}
		p.pending.WriteString(resp + "\n")
	}
	return len(b), nil
}

func (p *ScriptedPort) Read(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.Closed {
		return 0, errors.New("stage port closed")
	}
	if p.pending.Len() == 0 {
		return 0, nil // timeout
	}
	return p.pending.Read(b)
}

func (p *ScriptedPort) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Closed = true
	return nil
}

// CommandLog returns the written command bytes as a string, e.g. "RCCD".
func (p *ScriptedPort) CommandLog() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return string(p.Writes)
}
