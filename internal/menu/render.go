package menu

import (
	"errors"
	"fmt"
)

// MaxCallbackDataLength is the Telegram limit for callback_data in bytes.
const MaxCallbackDataLength = 64

const (
	markSet   = "✅ "
	markUnset = "🚫 "
)

// MediaType selects how a media body is delivered.
type MediaType string

// Supported media bodies.
const (
	MediaPhoto     MediaType = "photo"
	MediaVideo     MediaType = "video"
	MediaAnimation MediaType = "animation"
	MediaDocument  MediaType = "document"
)

// ParseMode is the text formatting mode of a body.
type ParseMode string

// Formatting modes understood by Telegram.
const (
	ParseModeNone       ParseMode = ""
	ParseModeMarkdown   ParseMode = "Markdown"
	ParseModeMarkdownV2 ParseMode = "MarkdownV2"
	ParseModeHTML       ParseMode = "HTML"
)

// Media references a file by URL or Telegram file id.
type Media struct {
	Type MediaType
	URL  string
}

// Body is the rendered content of a menu. With Media set, Text becomes the
// caption.
type Body struct {
	Text      string
	Media     *Media
	ParseMode ParseMode
}

// TextBody returns a plain text body.
func TextBody(text string) Body {
	return Body{Text: text}
}

// IsMedia reports whether the body carries a media attachment.
func (b Body) IsMedia() bool {
	return b.Media != nil
}

// Button is one cell of the rendered grid. Exactly one of CallbackData and
// URL is set.
type Button struct {
	Label        string
	CallbackData string
	URL          string
}

// RenderResult is produced fresh for every render.
type RenderResult struct {
	Path     Path
	Body     Body
	Keyboard [][]Button
}

// ButtonCount returns the number of buttons across all rows.
func (r RenderResult) ButtonCount() int {
	total := 0
	for _, line := range r.Keyboard {
		total += len(line)
	}
	return total
}

// Renderer turns a registered menu into a RenderResult.
type Renderer struct {
	registry *Registry
}

// NewRenderer constructs a Renderer over registry.
func NewRenderer(registry *Registry) *Renderer {
	return &Renderer{registry: registry}
}

// Render resolves path and renders it for req. Nothing is cached: every call
// reads the state as it is now.
func (r *Renderer) Render(req *Request, path Path) (RenderResult, error) {
	if r == nil || r.registry == nil {
		return RenderResult{}, errors.New("menu renderer is not initialized")
	}

	m, scoped, err := resolveRequest(r.registry, req, path)
	if err != nil {
		return RenderResult{}, err
	}

	return r.render(m, scoped)
}

func (r *Renderer) render(m *Menu, req *Request) (RenderResult, error) {
	path := req.Path()

	body, err := protect(func() (Body, error) { return m.body(req) })
	if err != nil {
		return RenderResult{}, &RenderError{Path: path, Err: err}
	}

	var g grid
	for _, item := range m.rows {
		hidden, err := isHidden(req, item)
		if err != nil {
			return RenderResult{}, &RenderError{Path: path, RowID: item.rowID(), Err: err}
		}
		if hidden {
			continue
		}

		if err := r.renderRow(&g, req, item); err != nil {
			return RenderResult{}, &RenderError{Path: path, RowID: item.rowID(), Err: err}
		}
	}

	for _, line := range g.rows {
		for _, button := range line {
			if len(button.CallbackData) > MaxCallbackDataLength {
				return RenderResult{}, &RenderError{
					Path: path,
					Err:  fmt.Errorf("%w: %q", ErrCallbackDataTooLong, button.CallbackData),
				}
			}
		}
	}

	return RenderResult{Path: path, Body: body, Keyboard: g.rows}, nil
}

func (r *Renderer) renderRow(g *grid, req *Request, item row) error {
	path := string(req.Path())

	switch row := item.(type) {
	case *urlRow:
		g.single(Button{Label: row.label, URL: row.url}, false)

	case *toggleRow:
		set, err := protect(func() (bool, error) { return row.opts.IsSet(req), nil })
		if err != nil {
			return err
		}
		label := markUnset + row.label
		if set {
			label = markSet + row.label
		}
		g.single(Button{Label: label, CallbackData: path + row.id}, row.opts.JoinLastRow)

	case *selectRow:
		keys, err := evalChoices(req, row.choices)
		if err != nil {
			return err
		}
		buttons := make([]Button, 0, len(keys))
		for _, key := range keys {
			encoded, err := EncodeKey(key)
			if err != nil {
				return err
			}
			button, err := protect(func() (Button, error) {
				label := row.label(req, key)
				if row.opts.IsSet(req, key) {
					label = markSet + label
				}
				return Button{Label: label, CallbackData: path + row.id + keySeparator + encoded}, nil
			})
			if err != nil {
				return err
			}
			buttons = append(buttons, button)
		}
		g.chunk(buttons, columns(row.opts.Columns))

	case *interactRow:
		g.single(Button{Label: row.label, CallbackData: path + row.id}, row.opts.JoinLastRow)

	case *submenuRow:
		g.single(Button{Label: row.label, CallbackData: path + row.id + Delimiter}, row.opts.JoinLastRow)

	case *chooseRow:
		keys, err := evalChoices(req, row.choices)
		if err != nil {
			return err
		}
		buttons := make([]Button, 0, len(keys))
		for _, key := range keys {
			segment, err := dynamicSegment(row.id, key)
			if err != nil {
				return err
			}
			label, err := protect(func() (string, error) { return row.label(req, key), nil })
			if err != nil {
				return err
			}
			buttons = append(buttons, Button{Label: label, CallbackData: path + segment + Delimiter})
		}
		g.chunk(buttons, columns(row.opts.Columns))

	case *manualRow:
		buttons, err := protect(func() ([]Button, error) { return row.build(req), nil })
		if err != nil {
			return err
		}
		g.verbatim(buttons)

	default:
		return fmt.Errorf("unsupported row type %T", item)
	}

	return nil
}

// resolveRequest resolves path and checks every hop against the menu it
// leaves: the row followed must currently be visible, and a dynamic key must be
// one its parent still offers. Hops without a matching row were registered
// directly and are not checked.
func resolveRequest(registry *Registry, req *Request, path Path) (*Menu, *Request, error) {
	m, hops, err := registry.resolve(path)
	if err != nil {
		return nil, nil, err
	}

	keys := make(map[string]string)
	for _, h := range hops {
		item := h.menu.row(h.id)
		if item == nil {
			if h.dynamic {
				keys[h.id] = h.key
			}
			continue
		}

		scoped := req.at(h.parent, keys)
		hidden, err := isHidden(scoped, item)
		if err != nil {
			return nil, nil, &RenderError{Path: h.parent, RowID: h.id, Err: err}
		}
		if hidden {
			return nil, nil, fmt.Errorf("%w: %s (row %q is hidden)", ErrUnknownPath, path, h.id)
		}

		if h.dynamic {
			choose, ok := item.(*chooseRow)
			if !ok {
				return nil, nil, fmt.Errorf("%w: %s", ErrUnknownPath, path)
			}
			offered, err := evalChoices(scoped, choose.choices)
			if err != nil {
				return nil, nil, &RenderError{Path: h.parent, RowID: h.id, Err: err}
			}
			if !contains(offered, h.key) {
				return nil, nil, fmt.Errorf("%w: %s (key %q is not offered)", ErrUnknownPath, path, h.key)
			}
			keys[h.id] = h.key
		}
	}

	return m, req.at(path, keys), nil
}

func isHidden(req *Request, item row) (bool, error) {
	hide := item.hideFunc()
	if hide == nil {
		return false, nil
	}

	return protect(func() (bool, error) { return hide(req), nil })
}

func evalChoices(req *Request, choices Choices) ([]string, error) {
	return protect(func() ([]string, error) { return choices(req), nil })
}

func contains(keys []string, key string) bool {
	for _, candidate := range keys {
		if candidate == key {
			return true
		}
	}
	return false
}

func columns(declared int) int {
	if declared <= 0 {
		return DefaultColumns
	}
	return declared
}

type grid struct {
	rows [][]Button
}

func (g *grid) single(button Button, joinLastRow bool) {
	if joinLastRow && len(g.rows) > 0 {
		last := len(g.rows) - 1
		g.rows[last] = append(g.rows[last], button)
		return
	}

	g.rows = append(g.rows, []Button{button})
}

// chunk packs buttons left to right, wrapping after n per row.
func (g *grid) chunk(buttons []Button, n int) {
	for i := 0; i < len(buttons); i += n {
		end := i + n
		if end > len(buttons) {
			end = len(buttons)
		}
		g.rows = append(g.rows, append([]Button(nil), buttons[i:end]...))
	}
}

func (g *grid) verbatim(buttons []Button) {
	if len(buttons) == 0 {
		return
	}
	g.rows = append(g.rows, append([]Button(nil), buttons...))
}
