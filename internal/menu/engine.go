package menu

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"tg_inline_menu_bot/internal/logging"
)

// Outcome labels reported to an Observer.
const (
	ResultRerender    = "rerender"
	ResultStay        = "stay"
	ResultOK          = "ok"
	ResultPathError   = "path_error"
	ResultActionError = "action_error"
	ResultRenderError = "render_error"
	ResultDelivery    = "delivery_error"
	ResultError       = "error"
)

// Observer receives one label per render and dispatch, e.g. for metrics.
type Observer interface {
	ObserveRender(result string)
	ObserveDispatch(result string)
}

// DeliverFunc shows a fresh render to the user.
type DeliverFunc func(ctx context.Context, result RenderResult) error

// Interaction is one inbound event from the transport. Deliver, when set,
// runs while the session is still held, so a later interaction of the same
// session cannot overtake an earlier one on its way to the chat.
type Interaction struct {
	SessionID    string
	CallbackPath string
	Payload      string
	Ack          AckFunc
	Deliver      DeliverFunc
}

// Option customizes an Engine.
type Option func(*Engine)

// WithLogger sets the logger used for dispatch and render failures.
func WithLogger(logger *logrus.Entry) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithSessionState sets the factory seeding each new session's state.
func WithSessionState(newState func() any) Option {
	return func(e *Engine) {
		e.newState = newState
	}
}

// WithSharedState sets the partition shared by all sessions. The value must
// guard its own mutations.
func WithSharedState(shared any) Option {
	return func(e *Engine) {
		e.shared = shared
	}
}

// WithObserver registers an Observer.
func WithObserver(observer Observer) Option {
	return func(e *Engine) {
		e.observer = observer
	}
}

// Engine mounts a menu tree and serves renders and dispatches, serialized per
// session.
type Engine struct {
	root     *Menu
	registry *Registry
	renderer *Renderer
	router   *Router
	sessions *SessionStore
	shared   any
	newState func() any
	observer Observer
	logger   *logrus.Entry
}

// NewEngine registers root at "/" and every submenu reachable from it.
func NewEngine(root *Menu, opts ...Option) (*Engine, error) {
	if root == nil {
		return nil, errors.New("root menu is required")
	}

	e := &Engine{
		root:     root,
		registry: NewRegistry(),
		logger:   logging.Logger(),
	}
	for _, opt := range opts {
		opt(e)
	}

	if err := e.mount(RootPath, root, make(map[*Menu]bool)); err != nil {
		return nil, err
	}

	e.renderer = NewRenderer(e.registry)
	e.router = NewRouter(e.registry, e.renderer)
	e.sessions = NewSessionStore(e.newState)

	return e, nil
}

func (e *Engine) mount(path Path, m *Menu, ancestors map[*Menu]bool) error {
	if err := m.Err(); err != nil {
		return fmt.Errorf("menu %s: %w", path, err)
	}
	if ancestors[m] {
		return fmt.Errorf("%w: %s", ErrCyclicMenu, path)
	}
	if err := e.registry.Register(path, m); err != nil {
		return err
	}

	ancestors[m] = true
	defer delete(ancestors, m)

	for _, item := range m.rows {
		switch row := item.(type) {
		case *submenuRow:
			if err := e.mount(path.Child(row.id), row.child, ancestors); err != nil {
				return err
			}
		case *chooseRow:
			if err := e.mount(path.Child(templateSegment(row.id)), row.child, ancestors); err != nil {
				return err
			}
		}
	}

	return nil
}

// Paths lists every mounted template path.
func (e *Engine) Paths() []Path {
	return e.registry.Paths()
}

// Render renders the menu at in.CallbackPath (the root when empty) for the
// session.
func (e *Engine) Render(ctx context.Context, in Interaction) (RenderResult, error) {
	path := Path(in.CallbackPath)
	if path == "" {
		path = RootPath
	}

	session, release, err := e.sessions.Acquire(ctx, in.SessionID)
	if err != nil {
		return RenderResult{}, fmt.Errorf("acquire session: %w", err)
	}
	defer release()

	req := e.request(ctx, session, in)
	result, err := e.renderer.Render(req, path)
	if err == nil {
		err = deliver(ctx, in, result)
	}
	label := classify(err, ResultOK)
	e.observeRender(label)
	if err != nil {
		e.logFailure(in, label, err)
		return RenderResult{}, err
	}

	return result, nil
}

// Dispatch routes one button press. Interactions of the same session run one
// after another.
func (e *Engine) Dispatch(ctx context.Context, in Interaction) (Outcome, error) {
	session, release, err := e.sessions.Acquire(ctx, in.SessionID)
	if err != nil {
		return Outcome{}, fmt.Errorf("acquire session: %w", err)
	}
	defer release()

	req := e.request(ctx, session, in)
	outcome, err := e.router.Dispatch(req, in.CallbackPath)
	if err == nil && outcome.Rerender {
		err = deliver(ctx, in, outcome.Result)
	}
	outcome.Acknowledged = req.Answered()

	success := ResultStay
	if outcome.Rerender {
		success = ResultRerender
	}
	label := classify(err, success)
	e.observeDispatch(label)
	if err != nil {
		e.logFailure(in, label, err)
		return outcome, err
	}

	fields := logging.Fields{
		"event":      "menu_dispatch",
		"session_id": in.SessionID,
		"callback":   in.CallbackPath,
		"reaction":   outcome.Reaction.String(),
		"target":     string(outcome.Target),
	}
	if in.Payload != "" {
		fields["payload"] = in.Payload
	}
	e.logger.WithFields(fields).Debug("menu interaction dispatched")

	return outcome, nil
}

func deliver(ctx context.Context, in Interaction, result RenderResult) error {
	if in.Deliver == nil {
		return nil
	}
	if err := in.Deliver(ctx, result); err != nil {
		return fmt.Errorf("%w: %w", ErrDelivery, err)
	}

	return nil
}

func (e *Engine) request(ctx context.Context, session *Session, in Interaction) *Request {
	req := NewRequest(ctx, session, e.shared, in.Ack)
	req.Payload = in.Payload
	return req
}

func (e *Engine) observeRender(label string) {
	if e.observer != nil {
		e.observer.ObserveRender(label)
	}
}

func (e *Engine) observeDispatch(label string) {
	if e.observer != nil {
		e.observer.ObserveDispatch(label)
	}
}

func (e *Engine) logFailure(in Interaction, label string, err error) {
	entry := e.logger.WithFields(logging.Fields{
		"event":      "menu_" + label,
		"session_id": in.SessionID,
		"callback":   in.CallbackPath,
	}).WithError(err)

	if label == ResultPathError {
		entry.Warn("menu path could not be resolved")
		return
	}
	entry.Error("menu interaction failed")
}

func classify(err error, success string) string {
	var (
		actionErr *ActionError
		renderErr *RenderError
	)

	switch {
	case err == nil:
		return success
	case errors.Is(err, ErrDelivery):
		return ResultDelivery
	case errors.As(err, &actionErr):
		return ResultActionError
	case errors.As(err, &renderErr):
		return ResultRenderError
	case IsPathResolution(err):
		return ResultPathError
	default:
		return ResultError
	}
}

type treeNode struct {
	Path     string     `yaml:"path"`
	Rows     []treeRow  `yaml:"rows,omitempty"`
	Children []treeNode `yaml:"children,omitempty"`
}

type treeRow struct {
	Kind  string `yaml:"kind"`
	ID    string `yaml:"id,omitempty"`
	Label string `yaml:"label,omitempty"`
	URL   string `yaml:"url,omitempty"`
}

// Tree renders the mounted menu tree as YAML.
func (e *Engine) Tree() (string, error) {
	out, err := yaml.Marshal(describe(RootPath, e.root))
	if err != nil {
		return "", fmt.Errorf("marshal menu tree: %w", err)
	}

	return string(out), nil
}

func describe(path Path, m *Menu) treeNode {
	node := treeNode{Path: string(path)}

	for _, item := range m.rows {
		switch row := item.(type) {
		case *urlRow:
			node.Rows = append(node.Rows, treeRow{Kind: "url", Label: row.label, URL: row.url})
		case *toggleRow:
			node.Rows = append(node.Rows, treeRow{Kind: "toggle", ID: row.id, Label: row.label})
		case *selectRow:
			node.Rows = append(node.Rows, treeRow{Kind: "select", ID: row.id})
		case *interactRow:
			node.Rows = append(node.Rows, treeRow{Kind: "interact", ID: row.id, Label: row.label})
		case *submenuRow:
			node.Rows = append(node.Rows, treeRow{Kind: "submenu", ID: row.id, Label: row.label})
			node.Children = append(node.Children, describe(path.Child(row.id), row.child))
		case *chooseRow:
			node.Rows = append(node.Rows, treeRow{Kind: "choose", ID: row.id})
			node.Children = append(node.Children, describe(path.Child(templateSegment(row.id)), row.child))
		case *manualRow:
			node.Rows = append(node.Rows, treeRow{Kind: "manual"})
		}
	}

	return node
}
