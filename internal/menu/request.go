package menu

import (
	"context"
	"fmt"
)

// Session is the per-chat state partition. Access is serialized by the
// engine, so State needs no locking of its own.
type Session struct {
	ID    string
	State any
}

// AckFunc sends the lightweight "received" answer for an interaction.
type AckFunc func(ctx context.Context, text string) error

type acknowledger struct {
	fn   AckFunc
	done bool
}

// Request is threaded into every body, predicate and action call.
type Request struct {
	ctx     context.Context
	Session *Session
	Shared  any
	Payload string

	path Path
	keys map[string]string
	ack  *acknowledger
}

// NewRequest builds a request outside of an Engine, mostly for tests and
// custom transports.
func NewRequest(ctx context.Context, session *Session, shared any, ack AckFunc) *Request {
	if ctx == nil {
		ctx = context.Background()
	}
	if session == nil {
		session = &Session{}
	}

	return &Request{
		ctx:     ctx,
		Session: session,
		Shared:  shared,
		path:    RootPath,
		ack:     &acknowledger{fn: ack},
	}
}

// Context returns the context of the interaction.
func (r *Request) Context() context.Context {
	return r.ctx
}

// Path returns the concrete path of the menu being rendered or dispatched.
func (r *Request) Path() Path {
	return r.path
}

// Key returns the dynamic key captured for the dynamic submenu with the given
// row id, or "" when the path did not pass through it.
func (r *Request) Key(name string) string {
	return r.keys[name]
}

// Answer acknowledges the interaction with text. Only the first answer is
// delivered; later calls are no-ops.
func (r *Request) Answer(text string) error {
	if r.ack == nil || r.ack.done {
		return nil
	}
	r.ack.done = true
	if r.ack.fn == nil {
		return nil
	}
	if err := r.ack.fn(r.ctx, text); err != nil {
		return fmt.Errorf("answer interaction: %w", err)
	}

	return nil
}

// Answered reports whether the interaction was acknowledged.
func (r *Request) Answered() bool {
	return r.ack != nil && r.ack.done
}

func (r *Request) at(path Path, keys map[string]string) *Request {
	scoped := *r
	scoped.path = path
	scoped.keys = make(map[string]string, len(keys))
	for name, key := range keys {
		scoped.keys[name] = key
	}

	return &scoped
}

type reactionKind int

const (
	reactionStay reactionKind = iota
	reactionReload
	reactionNavigate
)

// Reaction tells the router what to do after an action ran. The zero value is
// Stay.
type Reaction struct {
	kind   reactionKind
	target string
}

var (
	// Stay acknowledges the interaction without re-rendering.
	Stay = Reaction{kind: reactionStay}
	// Reload re-renders the menu the interaction came from.
	Reload = Reaction{kind: reactionReload}
)

// NavigateTo renders target instead of the current menu. Targets are "." for
// the current menu, ".." for the parent, a relative child like "food/" or an
// absolute path.
func NavigateTo(target string) Reaction {
	return Reaction{kind: reactionNavigate, target: target}
}

func (r Reaction) String() string {
	switch r.kind {
	case reactionReload:
		return "reload"
	case reactionNavigate:
		return "navigate:" + r.target
	default:
		return "stay"
	}
}
