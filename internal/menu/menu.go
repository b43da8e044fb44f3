// Package menu implements a navigable inline menu tree: menus are declared once
// at startup, rendered into a body plus a button grid from application state,
// and button presses are routed back to the row that produced them.
package menu

import "fmt"

const (
	// DefaultColumns is used when a select or dynamic submenu row declares no
	// column count.
	DefaultColumns = 6

	// DefaultBackLabel and DefaultMainLabel label the buttons added by
	// BackMainRow.
	DefaultBackLabel = "🔙 back"
	DefaultMainLabel = "🔝 main menu"
)

// Menu is one addressable screen. Its structure is fixed after construction;
// only the state read by its callbacks changes.
type Menu struct {
	body BodyFunc
	rows []row
	ids  map[string]struct{}
	err  error
}

// New creates a menu whose body is computed per render.
func New(body BodyFunc) *Menu {
	m := &Menu{
		body: body,
		ids:  make(map[string]struct{}),
	}
	if body == nil {
		m.fail(fmt.Errorf("%w: body", ErrMissingCallback))
	}

	return m
}

// NewText creates a menu with a fixed text body.
func NewText(text string) *Menu {
	return New(func(*Request) (Body, error) {
		return TextBody(text), nil
	})
}

// Err returns the first construction error recorded by a builder call.
func (m *Menu) Err() error {
	return m.err
}

// URL adds a link button. It carries no callback.
func (m *Menu) URL(label, url string) *Menu {
	m.rows = append(m.rows, &urlRow{label: label, url: url})
	return m
}

// Toggle adds an on/off row.
func (m *Menu) Toggle(id, label string, opts ToggleOptions) *Menu {
	if opts.IsSet == nil || opts.Set == nil {
		m.fail(fmt.Errorf("toggle %q: %w", id, ErrMissingCallback))
		return m
	}

	m.add(id, &toggleRow{id: id, label: label, opts: opts})
	return m
}

// Select adds a one-of-N row with one button per key.
func (m *Menu) Select(id string, choices Choices, opts SelectOptions) *Menu {
	if choices == nil || opts.IsSet == nil || opts.Set == nil {
		m.fail(fmt.Errorf("select %q: %w", id, ErrMissingCallback))
		return m
	}
	if opts.Columns < 0 {
		m.fail(fmt.Errorf("select %q: %w: columns %d", id, ErrInvalidLayout, opts.Columns))
		return m
	}

	m.add(id, &selectRow{id: id, choices: choices, opts: opts})
	return m
}

// Interact adds a row running an arbitrary action.
func (m *Menu) Interact(id, label string, opts InteractOptions) *Menu {
	if opts.Do == nil {
		m.fail(fmt.Errorf("interact %q: %w", id, ErrMissingCallback))
		return m
	}

	m.add(id, &interactRow{id: id, label: label, opts: opts})
	return m
}

// Submenu links to child, mounted at <path><id>/.
func (m *Menu) Submenu(id, label string, child *Menu, opts SubmenuOptions) *Menu {
	if child == nil {
		m.fail(fmt.Errorf("submenu %q: %w", id, ErrMissingCallback))
		return m
	}

	m.add(id, &submenuRow{id: id, label: label, child: child, opts: opts})
	return m
}

// ChooseIntoSubmenu adds one button per key leading into child, mounted at
// <path><id>:<key>/. The key is available to child as req.Key(id).
func (m *Menu) ChooseIntoSubmenu(id string, choices Choices, child *Menu, opts ChooseOptions) *Menu {
	if choices == nil || child == nil {
		m.fail(fmt.Errorf("choose %q: %w", id, ErrMissingCallback))
		return m
	}
	if opts.Columns < 0 {
		m.fail(fmt.Errorf("choose %q: %w: columns %d", id, ErrInvalidLayout, opts.Columns))
		return m
	}

	m.add(id, &chooseRow{id: id, choices: choices, child: child, opts: opts})
	return m
}

// ManualRow inserts buttons verbatim.
func (m *Menu) ManualRow(buttons ...Button) *Menu {
	fixed := append([]Button(nil), buttons...)
	return m.ManualRowFunc(func(*Request) []Button {
		return fixed
	})
}

// ManualRowFunc inserts the buttons built per render.
func (m *Menu) ManualRowFunc(build ButtonsFunc) *Menu {
	if build == nil {
		m.fail(fmt.Errorf("manual row: %w", ErrMissingCallback))
		return m
	}

	m.rows = append(m.rows, &manualRow{build: build})
	return m
}

// BackMainRow appends the default back / main menu navigation row.
func (m *Menu) BackMainRow() *Menu {
	return m.ManualRowFunc(BackMainButtons(DefaultBackLabel, DefaultMainLabel))
}

// BackMainButtons builds navigation shortcuts to the parent and to the root.
// The back button is omitted on the root menu and the main button when the
// parent already is the root.
func BackMainButtons(backLabel, mainLabel string) ButtonsFunc {
	return func(req *Request) []Button {
		current := req.Path()
		if current.IsRoot() {
			return nil
		}

		parent := current.Parent()
		buttons := []Button{{Label: backLabel, CallbackData: string(parent)}}
		if !parent.IsRoot() {
			buttons = append(buttons, Button{Label: mainLabel, CallbackData: string(RootPath)})
		}

		return buttons
	}
}

func (m *Menu) add(id string, r row) {
	if err := validateRowID(id); err != nil {
		m.fail(err)
		return
	}
	if _, exists := m.ids[id]; exists {
		m.fail(fmt.Errorf("%w: %q", ErrDuplicateRowID, id))
		return
	}

	m.ids[id] = struct{}{}
	m.rows = append(m.rows, r)
}

func (m *Menu) fail(err error) {
	if m.err == nil {
		m.err = err
	}
}

func (m *Menu) row(id string) row {
	for _, r := range m.rows {
		if r.rowID() == id {
			return r
		}
	}
	return nil
}
