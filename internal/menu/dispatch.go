package menu

import (
	"errors"
	"fmt"
	"strings"
)

// Outcome describes what a dispatch decided.
type Outcome struct {
	// Origin is the menu the interaction came from.
	Origin   Path
	Reaction Reaction
	// Rerender is true when Result holds a fresh render of Target.
	Rerender bool
	Target   Path
	Result   RenderResult
	// Acknowledged is true when an action already answered the interaction.
	Acknowledged bool
}

// Router resolves callback paths to rows, runs their actions and renders the
// resulting menu.
type Router struct {
	registry *Registry
	renderer *Renderer
}

// NewRouter constructs a Router.
func NewRouter(registry *Registry, renderer *Renderer) *Router {
	return &Router{
		registry: registry,
		renderer: renderer,
	}
}

// Dispatch handles one button press. Path resolution failures leave all state
// untouched; action failures are wrapped in ActionError and never re-render.
func (r *Router) Dispatch(req *Request, callbackPath string) (Outcome, error) {
	if r == nil || r.registry == nil || r.renderer == nil {
		return Outcome{}, errors.New("menu router is not initialized")
	}

	if strings.HasSuffix(callbackPath, Delimiter) {
		if !strings.HasPrefix(callbackPath, Delimiter) {
			return Outcome{}, fmt.Errorf("%w: %q", ErrUnknownPath, callbackPath)
		}
		target := Path(callbackPath)
		return r.react(req, target.Parent(), NavigateTo(callbackPath))
	}

	origin, rowID, option, hasOption, err := splitCallback(callbackPath)
	if err != nil {
		return Outcome{}, err
	}

	m, scoped, err := resolveRequest(r.registry, req, origin)
	if err != nil {
		return Outcome{Origin: origin}, err
	}

	item := m.row(rowID)
	if item == nil {
		return Outcome{Origin: origin}, fmt.Errorf("%w: %s%s", ErrUnknownRowID, origin, rowID)
	}

	hidden, err := isHidden(scoped, item)
	if err != nil {
		return Outcome{Origin: origin}, &ActionError{Path: origin, RowID: rowID, Err: err}
	}
	if hidden {
		return Outcome{Origin: origin}, fmt.Errorf("%w: %s%s is hidden", ErrUnknownRowID, origin, rowID)
	}

	reaction, err := r.invoke(scoped, item, option, hasOption)
	if err != nil {
		return Outcome{Origin: origin}, err
	}

	return r.react(req, origin, reaction)
}

func (r *Router) invoke(req *Request, item row, option string, hasOption bool) (Reaction, error) {
	origin := req.Path()
	unknown := func() (Reaction, error) {
		if hasOption {
			return Stay, fmt.Errorf("%w: %s%s%s%s", ErrUnknownRowID, origin, item.rowID(), keySeparator, option)
		}
		return Stay, fmt.Errorf("%w: %s%s", ErrUnknownRowID, origin, item.rowID())
	}

	var (
		reaction Reaction
		err      error
	)

	switch row := item.(type) {
	case *toggleRow:
		if hasOption {
			return unknown()
		}
		reaction, err = protect(func() (Reaction, error) {
			return row.opts.Set(req, !row.opts.IsSet(req))
		})

	case *selectRow:
		if !hasOption {
			return unknown()
		}
		keys, evalErr := evalChoices(req, row.choices)
		if evalErr != nil {
			return Stay, &ActionError{Path: origin, RowID: row.id, Err: evalErr}
		}
		if !contains(keys, option) {
			return unknown()
		}
		reaction, err = protect(func() (Reaction, error) {
			return row.opts.Set(req, option)
		})

	case *interactRow:
		if hasOption {
			return unknown()
		}
		reaction, err = protect(func() (Reaction, error) {
			return row.opts.Do(req)
		})

	case *submenuRow:
		if hasOption {
			return unknown()
		}
		return NavigateTo(row.id + Delimiter), nil

	case *chooseRow:
		if !hasOption {
			return unknown()
		}
		segment, segErr := dynamicSegment(row.id, option)
		if segErr != nil {
			return Stay, segErr
		}
		return NavigateTo(segment + Delimiter), nil

	default:
		return unknown()
	}

	if err != nil {
		return Stay, &ActionError{Path: origin, RowID: item.rowID(), Err: err}
	}

	return reaction, nil
}

// react applies the reaction. A failing render reports the error without any
// navigation taking place.
func (r *Router) react(req *Request, origin Path, reaction Reaction) (Outcome, error) {
	outcome := Outcome{Origin: origin, Reaction: reaction}

	var target Path
	switch reaction.kind {
	case reactionReload:
		target = origin
	case reactionNavigate:
		target = origin.Join(reaction.target)
	default:
		return outcome, nil
	}

	result, err := r.renderer.Render(req, target)
	if err != nil {
		return outcome, err
	}

	outcome.Rerender = true
	outcome.Target = target
	outcome.Result = result

	return outcome, nil
}

// splitCallback breaks "<path><row id>[:<key>]" apart.
func splitCallback(data string) (Path, string, string, bool, error) {
	if !strings.HasPrefix(data, Delimiter) {
		return "", "", "", false, fmt.Errorf("%w: %q", ErrUnknownPath, data)
	}

	idx := strings.LastIndex(data, Delimiter)
	origin := Path(data[:idx+1])
	rowID, option, hasOption := strings.Cut(data[idx+1:], keySeparator)
	if rowID == "" {
		return "", "", "", false, fmt.Errorf("%w: %q", ErrUnknownRowID, data)
	}
	if hasOption {
		key, err := DecodeKey(option)
		if err != nil {
			return "", "", "", false, err
		}
		option = key
	}

	return origin, rowID, option, hasOption, nil
}
