package menu

type (
	// BodyFunc computes the content shown above the buttons.
	BodyFunc func(req *Request) (Body, error)
	// HideFunc decides whether a row is left out of the render.
	HideFunc func(req *Request) bool
	// Choices enumerates option keys at render or dispatch time.
	Choices func(req *Request) []string
	// ButtonTextFunc labels the button for one key.
	ButtonTextFunc func(req *Request, key string) string
	// ButtonsFunc builds a raw row of buttons.
	ButtonsFunc func(req *Request) []Button
)

// Static returns a Choices over a fixed key list.
func Static(keys ...string) Choices {
	fixed := append([]string(nil), keys...)
	return func(*Request) []string {
		return fixed
	}
}

// ToggleOptions configures a boolean flag row.
type ToggleOptions struct {
	IsSet       func(req *Request) bool
	Set         func(req *Request, state bool) (Reaction, error)
	Hide        HideFunc
	JoinLastRow bool
}

// SelectOptions configures a one-of-N row.
type SelectOptions struct {
	IsSet      func(req *Request, key string) bool
	Set        func(req *Request, key string) (Reaction, error)
	ButtonText ButtonTextFunc
	Hide       HideFunc
	Columns    int
}

// InteractOptions configures a stateless action row.
type InteractOptions struct {
	Do          func(req *Request) (Reaction, error)
	Hide        HideFunc
	JoinLastRow bool
}

// SubmenuOptions configures a static link to a child menu.
type SubmenuOptions struct {
	Hide        HideFunc
	JoinLastRow bool
}

// ChooseOptions configures a dynamic submenu entered once per key.
type ChooseOptions struct {
	ButtonText ButtonTextFunc
	Hide       HideFunc
	Columns    int
}

// row is the closed set of row kinds a Menu holds.
type row interface {
	rowID() string
	hideFunc() HideFunc
}

type urlRow struct {
	label string
	url   string
}

type toggleRow struct {
	id    string
	label string
	opts  ToggleOptions
}

type selectRow struct {
	id      string
	choices Choices
	opts    SelectOptions
}

type interactRow struct {
	id    string
	label string
	opts  InteractOptions
}

type submenuRow struct {
	id    string
	label string
	child *Menu
	opts  SubmenuOptions
}

type chooseRow struct {
	id      string
	choices Choices
	child   *Menu
	opts    ChooseOptions
}

type manualRow struct {
	build ButtonsFunc
}

func (*urlRow) rowID() string        { return "" }
func (r *toggleRow) rowID() string   { return r.id }
func (r *selectRow) rowID() string   { return r.id }
func (r *interactRow) rowID() string { return r.id }
func (r *submenuRow) rowID() string  { return r.id }
func (r *chooseRow) rowID() string   { return r.id }
func (*manualRow) rowID() string     { return "" }

func (*urlRow) hideFunc() HideFunc        { return nil }
func (r *toggleRow) hideFunc() HideFunc   { return r.opts.Hide }
func (r *selectRow) hideFunc() HideFunc   { return r.opts.Hide }
func (r *interactRow) hideFunc() HideFunc { return r.opts.Hide }
func (r *submenuRow) hideFunc() HideFunc  { return r.opts.Hide }
func (r *chooseRow) hideFunc() HideFunc   { return r.opts.Hide }
func (*manualRow) hideFunc() HideFunc     { return nil }

func (r *selectRow) label(req *Request, key string) string {
	if r.opts.ButtonText != nil {
		return r.opts.ButtonText(req, key)
	}
	return key
}

func (r *chooseRow) label(req *Request, key string) string {
	if r.opts.ButtonText != nil {
		return r.opts.ButtonText(req, key)
	}
	return key
}
