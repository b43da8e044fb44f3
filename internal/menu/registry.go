package menu

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Binding records one dynamic key captured while resolving a concrete path.
type Binding struct {
	Name   string // row id of the dynamic submenu
	Key    string
	Parent Path // concrete path of the menu offering the key
}

// hop is one step taken while resolving a path: the row id followed out of
// the parent menu and, for dynamic submenus, the captured key.
type hop struct {
	id      string
	key     string
	dynamic bool
	parent  Path
	menu    *Menu
}

type registryNode struct {
	path     Path
	menu     *Menu
	literals map[string]*registryNode
	params   map[string]*registryNode
}

func newRegistryNode(path Path) *registryNode {
	return &registryNode{
		path:     path,
		literals: make(map[string]*registryNode),
		params:   make(map[string]*registryNode),
	}
}

// Registry maps paths to menus. Dynamic submenus are registered under a
// template path whose segment reads "<id>:{key}".
type Registry struct {
	mu   sync.RWMutex
	root *registryNode
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{root: newRegistryNode(RootPath)}
}

// Register binds path to m. The parent of a non-root path must already be
// bound.
func (r *Registry) Register(path Path, m *Menu) error {
	if r == nil || r.root == nil {
		return errors.New("menu registry is not initialized")
	}
	if m == nil {
		return fmt.Errorf("register %s: menu is required", path)
	}
	if err := validateTemplatePath(path); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	node := r.root
	segments := path.segments()
	for i, segment := range segments {
		if node.menu == nil {
			return fmt.Errorf("%w: %s", ErrOrphanPath, path)
		}

		id, dynamic, _ := parseTemplateSegment(segment)
		children := node.literals
		if dynamic {
			children = node.params
		}

		next, ok := children[id]
		if !ok {
			if i < len(segments)-1 {
				return fmt.Errorf("%w: %s", ErrOrphanPath, path)
			}
			next = newRegistryNode(node.path.Child(segment))
			children[id] = next
		}
		node = next
	}

	if node.menu != nil {
		return fmt.Errorf("%w: %s", ErrDuplicatePath, path)
	}

	node.menu = m

	return nil
}

// Resolve finds the menu for a concrete path together with the dynamic keys
// captured along the way. Literal segments take precedence over templates.
func (r *Registry) Resolve(path Path) (*Menu, []Binding, error) {
	m, hops, err := r.resolve(path)
	if err != nil {
		return nil, nil, err
	}

	var bindings []Binding
	for _, h := range hops {
		if h.dynamic {
			bindings = append(bindings, Binding{Name: h.id, Key: h.key, Parent: h.parent})
		}
	}

	return m, bindings, nil
}

func (r *Registry) resolve(path Path) (*Menu, []hop, error) {
	if r == nil || r.root == nil {
		return nil, nil, errors.New("menu registry is not initialized")
	}

	raw := string(path)
	if !strings.HasPrefix(raw, Delimiter) || !strings.HasSuffix(raw, Delimiter) {
		return nil, nil, fmt.Errorf("%w: %q", ErrUnknownPath, raw)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	node := r.root
	current := RootPath
	var hops []hop

	for _, segment := range path.segments() {
		if node.menu == nil {
			return nil, nil, fmt.Errorf("%w: %s", ErrUnknownPath, path)
		}

		if next, ok := node.literals[segment]; ok {
			hops = append(hops, hop{id: segment, parent: current, menu: node.menu})
			node = next
			current = current.Child(segment)
			continue
		}

		id, encoded, found := strings.Cut(segment, keySeparator)
		next, ok := node.params[id]
		if !found || !ok {
			return nil, nil, fmt.Errorf("%w: %s", ErrUnknownPath, path)
		}

		key, err := DecodeKey(encoded)
		if err != nil {
			return nil, nil, err
		}

		hops = append(hops, hop{id: id, key: key, dynamic: true, parent: current, menu: node.menu})
		node = next
		current = current.Child(segment)
	}

	if node.menu == nil {
		return nil, nil, fmt.Errorf("%w: %s", ErrUnknownPath, path)
	}

	return node.menu, hops, nil
}

// Paths lists every bound template path in lexical order.
func (r *Registry) Paths() []Path {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var paths []Path
	var walk func(node *registryNode)
	walk = func(node *registryNode) {
		if node.menu != nil {
			paths = append(paths, node.path)
		}
		for _, child := range node.literals {
			walk(child)
		}
		for _, child := range node.params {
			walk(child)
		}
	}
	walk(r.root)

	sort.Slice(paths, func(i, j int) bool { return paths[i] < paths[j] })
	return paths
}
