package showcase

import (
	"errors"
	"fmt"
	"sync"
)

// ErrUnknownPerson is returned when a preference is stored for someone who is
// not tracked.
var ErrUnknownPerson = errors.New("unknown person")

// Preference is what a person likes.
type Preference struct {
	Food string
	Tea  bool
}

// People holds the food preferences shared by every chat.
type People struct {
	mu      sync.RWMutex
	order   []string
	entries map[string]*Preference
}

// NewPeople tracks the given names in order.
func NewPeople(names ...string) *People {
	p := &People{entries: make(map[string]*Preference, len(names))}
	for _, name := range names {
		if _, exists := p.entries[name]; exists {
			continue
		}
		p.order = append(p.order, name)
		p.entries[name] = &Preference{}
	}

	return p
}

// Names lists the tracked people in insertion order.
func (p *People) Names() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return append([]string(nil), p.order...)
}

// Get returns a copy of the preference for name.
func (p *People) Get(name string) (Preference, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	entry, ok := p.entries[name]
	if !ok {
		return Preference{}, false
	}

	return *entry, true
}

// SetFood stores the food choice for name.
func (p *People) SetFood(name, food string) error {
	return p.update(name, func(pref *Preference) { pref.Food = food })
}

// ToggleTea flips the tea preference for name under a single write lock and
// returns the new value.
func (p *People) ToggleTea(name string) (bool, error) {
	var tea bool
	err := p.update(name, func(pref *Preference) {
		pref.Tea = !pref.Tea
		tea = pref.Tea
	})

	return tea, err
}

func (p *People) update(name string, apply func(*Preference)) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	entry, ok := p.entries[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownPerson, name)
	}
	apply(entry)

	return nil
}
