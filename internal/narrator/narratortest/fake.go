// Package narratortest provides a scripted Narrator for tests.
package narratortest

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/cory-johannsen/dungeonmaster/internal/narrator"
)

// Reply is one scripted outcome.
type Reply struct {
	Text string
	Err  error
}

// Fake returns scripted replies in order and records every request. When
// the script is exhausted Default is returned, or ErrExhausted when Default
// is empty.
type Fake struct {
	mu       sync.Mutex
	script   []Reply
	Default  string
	requests []narrator.Request
	// Block, when non-nil, is received from before each call returns.
	Block chan struct{}
	// Started, when non-nil, is sent to as each call begins.
	Started chan struct{}
}

// ErrExhausted is returned when no scripted reply or default remains.
var ErrExhausted = errors.New("narratortest: script exhausted")

// New returns a Fake that answers every call with text.
func New(text string) *Fake {
	return &Fake{Default: text}
}

// Script returns a Fake that answers with replies in order.
func Script(replies ...Reply) *Fake {
	return &Fake{script: replies}
}

// Push appends replies to the script.
func (f *Fake) Push(replies ...Reply) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.script = append(f.script, replies...)
}

// Complete implements narrator.Narrator.
func (f *Fake) Complete(ctx context.Context, req narrator.Request) (string, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	var r Reply
	switch {
	case len(f.script) > 0:
		r = f.script[0]
		f.script = f.script[1:]
	case f.Default != "":
		r = Reply{Text: f.Default}
	default:
		r = Reply{Err: ErrExhausted}
	}
	started, block := f.Started, f.Block
	f.mu.Unlock()

	if started != nil {
		started <- struct{}{}
	}
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if r.Err != nil {
		return "", r.Err
	}
	return strings.ReplaceAll(r.Text, "*", ""), nil
}

// Requests returns a copy of every request received.
func (f *Fake) Requests() []narrator.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]narrator.Request(nil), f.requests...)
}

// LastPrompt returns the content of the final message of the most recent
// request, or "" when none was received.
func (f *Fake) LastPrompt() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.requests) == 0 {
		return ""
	}
	msgs := f.requests[len(f.requests)-1].Messages
	if len(msgs) == 0 {
		return ""
	}
	return msgs[len(msgs)-1].Content
}
