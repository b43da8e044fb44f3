package menu

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"testing"

	logtest "github.com/sirupsen/logrus/hooks/test"
)

type testState struct {
	flag   bool
	choice string
	people map[string]string
}

func newTestState() *testState {
	return &testState{
		choice: "B",
		people: map[string]string{"Anna": "", "Mark": "bread", "Paul": ""},
	}
}

func stateOf(req *Request) *testState {
	return req.Session.State.(*testState)
}

// newTestTree builds a tree covering every row kind:
//
//	/                    url, toggle, hidden interact, select, stay+reload, boom, food
//	/food/               person chooser (2 columns), up, back
//	/food/person:{key}/  dish select, back+main
func newTestTree() *Menu {
	person := New(func(req *Request) (Body, error) {
		name := req.Key("person")
		dish := stateOf(req).people[name]
		if dish == "" {
			return TextBody(name + " is still unsure what to eat."), nil
		}
		return TextBody(fmt.Sprintf("%s likes %s", name, dish)), nil
	}).
		Select("dish", Static("bread", "cake"), SelectOptions{
			IsSet: func(req *Request, key string) bool {
				return stateOf(req).people[req.Key("person")] == key
			},
			Set: func(req *Request, key string) (Reaction, error) {
				stateOf(req).people[req.Key("person")] = key
				return Reload, nil
			},
		}).
		BackMainRow()

	food := NewText("food").
		ChooseIntoSubmenu("person", func(req *Request) []string {
			names := make([]string, 0, len(stateOf(req).people))
			for name := range stateOf(req).people {
				names = append(names, name)
			}
			sort.Strings(names)
			return names
		}, person, ChooseOptions{Columns: 2}).
		Interact("up", "Up", InteractOptions{
			Do: func(*Request) (Reaction, error) { return NavigateTo(".."), nil },
		}).
		BackMainRow()

	return NewText("root").
		URL("Site", "https://example.com").
		Toggle("flag", "Flag", ToggleOptions{
			IsSet: func(req *Request) bool { return stateOf(req).flag },
			Set: func(req *Request, state bool) (Reaction, error) {
				stateOf(req).flag = state
				return Reload, nil
			},
		}).
		Interact("hidden", "Hidden", InteractOptions{
			Do:   func(*Request) (Reaction, error) { return Stay, nil },
			Hide: func(req *Request) bool { return !stateOf(req).flag },
		}).
		Select("pick", Static("A", "B", "C"), SelectOptions{
			IsSet: func(req *Request, key string) bool { return stateOf(req).choice == key },
			Set: func(req *Request, key string) (Reaction, error) {
				stateOf(req).choice = key
				if err := req.Answer("you selected " + key); err != nil {
					return Stay, err
				}
				return Reload, nil
			},
		}).
		Interact("stay", "Stay", InteractOptions{
			Do: func(*Request) (Reaction, error) { return Stay, nil },
		}).
		Interact("reload", "Reload", InteractOptions{
			Do:          func(*Request) (Reaction, error) { return Reload, nil },
			JoinLastRow: true,
		}).
		Interact("boom", "Boom", InteractOptions{
			Do: func(*Request) (Reaction, error) { return Stay, errors.New("boom") },
		}).
		Submenu("food", "Food", food, SubmenuOptions{})
}

func newTestEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()

	logger, _ := logtest.NewNullLogger()
	base := []Option{
		WithLogger(logger.WithField("test", t.Name())),
		WithSessionState(func() any { return newTestState() }),
	}

	engine, err := NewEngine(newTestTree(), append(base, opts...)...)
	if err != nil {
		t.Fatalf("NewEngine returned error: %v", err)
	}

	return engine
}

func newTestRequest(state *testState) *Request {
	return NewRequest(context.Background(), &Session{ID: "s", State: state}, nil, nil)
}

func labels(line []Button) []string {
	out := make([]string, 0, len(line))
	for _, button := range line {
		out = append(out, button.Label)
	}
	return out
}

func callbacks(line []Button) []string {
	out := make([]string, 0, len(line))
	for _, button := range line {
		out = append(out, button.CallbackData)
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
