package host

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/mverel/guildmaster/internal/guildhall/service/orchestrator/domain/entity"
)

// Loopback is a deterministic local host for demos and tests. Unscripted
// payloads complete with an echo banner after the configured delay; scripts
// make specific payloads fail, stall or exercise the response-parse quirk.
type Loopback struct {
	delay time.Duration

	mu      sync.Mutex
	scripts []script
	calls   int
}

// script matches payloads by substring, first match wins.
type script struct {
	match   string
	output  string
	errText string
	quirk   bool
	stall   bool
}

// LoopbackOption tunes a Loopback.
type LoopbackOption func(*Loopback)

// WithDelay makes every completion take d, so timeouts and gather windows
// have something to race against.
func WithDelay(d time.Duration) LoopbackOption {
	return func(l *Loopback) { l.delay = d }
}

// NewLoopback builds a loopback host.
func NewLoopback(opts ...LoopbackOption) *Loopback {
	l := &Loopback{}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// ScriptOutput completes payloads containing match with the given output.
func (l *Loopback) ScriptOutput(match, output string) {
	l.addScript(script{match: match, output: output})
}

// ScriptFailure fails payloads containing match.
func (l *Loopback) ScriptFailure(match, message string) {
	l.addScript(script{match: match, errText: message})
}

// ScriptStall makes payloads containing match hang until the context ends,
// the way a lost worker looks to the supervisor.
func (l *Loopback) ScriptStall(match string) {
	l.addScript(script{match: match, stall: true})
}

// ScriptQuirk completes payloads containing match through the response-parse
// quirk path: the transport reports a parse error even though the work and
// its output committed upstream.
func (l *Loopback) ScriptQuirk(match, output string) {
	l.addScript(script{match: match, output: output, quirk: true})
}

func (l *Loopback) addScript(s script) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.scripts = append(l.scripts, s)
}

// Calls reports how many executions the host has accepted.
func (l *Loopback) Calls() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls
}

func (l *Loopback) CreateChildExecution(ctx context.Context, agent *entity.AgentDescriptor, payload string) (string, error) {
	l.mu.Lock()
	l.calls++
	var matched *script
	for i := range l.scripts {
		if strings.Contains(payload, l.scripts[i].match) {
			matched = &l.scripts[i]
			break
		}
	}
	l.mu.Unlock()

	if matched != nil && matched.stall {
		<-ctx.Done()
		return "", ctx.Err()
	}

	if l.delay > 0 {
		timer := time.NewTimer(l.delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return "", ctx.Err()
		case <-timer.C:
		}
	}

	if matched == nil {
		return ClassifyResult(fmt.Sprintf("done by %s", agent.Qualified()), nil)
	}
	if matched.errText != "" {
		return ClassifyResult("", errors.New(matched.errText))
	}
	if matched.quirk {
		return ClassifyResult(matched.output, errors.New("failed to unmarshal response: unexpected end of JSON input"))
	}
	return ClassifyResult(matched.output, nil)
}
