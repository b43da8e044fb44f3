package menu

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestRenderRootLayout(t *testing.T) {
	engine := newTestEngine(t)
	state := newTestState()

	result, err := engine.renderer.Render(newTestRequest(state), RootPath)
	if err != nil {
		t.Fatalf("Render returned error: %v", err)
	}

	if result.Path != RootPath || result.Body.Text != "root" {
		t.Fatalf("unexpected render header %+v", result)
	}

	want := [][]string{
		{"Site"},
		{"🚫 Flag"},
		{"A", "✅ B", "C"},
		{"Stay", "Reload"},
		{"Boom"},
		{"Food"},
	}
	if len(result.Keyboard) != len(want) {
		t.Fatalf("expected %d rows, got %d: %+v", len(want), len(result.Keyboard), result.Keyboard)
	}
	for i, line := range result.Keyboard {
		if !equalStrings(labels(line), want[i]) {
			t.Fatalf("row %d: expected %v, got %v", i, want[i], labels(line))
		}
	}

	if result.Keyboard[0][0].URL != "https://example.com" || result.Keyboard[0][0].CallbackData != "" {
		t.Fatalf("expected url button without callback, got %+v", result.Keyboard[0][0])
	}
	if got := callbacks(result.Keyboard[2]); !equalStrings(got, []string{"/pick:A", "/pick:B", "/pick:C"}) {
		t.Fatalf("unexpected select callbacks %v", got)
	}
	if got := result.Keyboard[5][0].CallbackData; got != "/food/" {
		t.Fatalf("expected submenu callback /food/, got %q", got)
	}
	if result.ButtonCount() != 9 {
		t.Fatalf("expected 9 buttons, got %d", result.ButtonCount())
	}
}

func TestRenderShowsRowsOnceUnhidden(t *testing.T) {
	engine := newTestEngine(t)
	state := newTestState()
	state.flag = true

	result, err := engine.renderer.Render(newTestRequest(state), RootPath)
	if err != nil {
		t.Fatalf("Render returned error: %v", err)
	}

	if len(result.Keyboard) != 7 {
		t.Fatalf("expected hidden row to appear, got %d rows", len(result.Keyboard))
	}
	if result.Keyboard[1][0].Label != "✅ Flag" {
		t.Fatalf("expected toggle to be marked, got %q", result.Keyboard[1][0].Label)
	}
	if result.Keyboard[2][0].CallbackData != "/hidden" {
		t.Fatalf("expected hidden interact row, got %+v", result.Keyboard[2])
	}
}

func TestRenderDynamicSubmenu(t *testing.T) {
	engine := newTestEngine(t)
	state := newTestState()

	result, err := engine.renderer.Render(newTestRequest(state), "/food/")
	if err != nil {
		t.Fatalf("Render returned error: %v", err)
	}

	want := [][]string{
		{"/food/person:Anna/", "/food/person:Mark/"},
		{"/food/person:Paul/"},
		{"/food/up"},
		{"/"},
	}
	if len(result.Keyboard) != len(want) {
		t.Fatalf("expected %d rows, got %+v", len(want), result.Keyboard)
	}
	for i, line := range result.Keyboard {
		if !equalStrings(callbacks(line), want[i]) {
			t.Fatalf("row %d: expected %v, got %v", i, want[i], callbacks(line))
		}
	}

	result, err = engine.renderer.Render(newTestRequest(state), "/food/person:Mark/")
	if err != nil {
		t.Fatalf("Render person returned error: %v", err)
	}
	if result.Body.Text != "Mark likes bread" {
		t.Fatalf("unexpected person body %q", result.Body.Text)
	}
	if got := labels(result.Keyboard[0]); !equalStrings(got, []string{"✅ bread", "cake"}) {
		t.Fatalf("unexpected dish row %v", got)
	}
	if got := callbacks(result.Keyboard[0]); !equalStrings(got, []string{"/food/person:Mark/dish:bread", "/food/person:Mark/dish:cake"}) {
		t.Fatalf("unexpected dish callbacks %v", got)
	}
	if got := callbacks(result.Keyboard[1]); !equalStrings(got, []string{"/food/", "/"}) {
		t.Fatalf("expected back and main shortcuts, got %v", got)
	}
}

func TestRenderRejectsStaleDynamicKey(t *testing.T) {
	engine := newTestEngine(t)
	state := newTestState()

	if _, err := engine.renderer.Render(newTestRequest(state), "/food/person:Zed/"); !errors.Is(err, ErrUnknownPath) {
		t.Fatalf("expected ErrUnknownPath for unknown key, got %v", err)
	}

	delete(state.people, "Mark")
	if _, err := engine.renderer.Render(newTestRequest(state), "/food/person:Mark/"); !errors.Is(err, ErrUnknownPath) {
		t.Fatalf("expected ErrUnknownPath after key removal, got %v", err)
	}
}

func TestRenderIsFreshEveryTime(t *testing.T) {
	engine := newTestEngine(t)
	state := newTestState()
	req := newTestRequest(state)

	first, err := engine.renderer.Render(req, RootPath)
	if err != nil {
		t.Fatalf("Render returned error: %v", err)
	}

	state.choice = "C"
	second, err := engine.renderer.Render(req, RootPath)
	if err != nil {
		t.Fatalf("Render returned error: %v", err)
	}

	if first.Keyboard[2][1].Label != "✅ B" || second.Keyboard[2][2].Label != "✅ C" {
		t.Fatalf("expected renders to follow state, got %v then %v", labels(first.Keyboard[2]), labels(second.Keyboard[2]))
	}
	if second.Keyboard[2][1].Label != "B" {
		t.Fatalf("expected B to be unmarked, got %q", second.Keyboard[2][1].Label)
	}
}

func TestRenderColumnsAndEmptyChoices(t *testing.T) {
	registry := NewRegistry()
	keys := []string{"1", "2", "3", "4", "5", "6", "7"}
	m := NewText("grid").
		Select("wide", Static(keys...), SelectOptions{
			IsSet: func(*Request, string) bool { return false },
			Set:   func(*Request, string) (Reaction, error) { return Stay, nil },
		}).
		Select("none", Static(), SelectOptions{
			IsSet: func(*Request, string) bool { return false },
			Set:   func(*Request, string) (Reaction, error) { return Stay, nil },
		}).
		Select("narrow", Static("a", "b", "c"), SelectOptions{
			IsSet:   func(*Request, string) bool { return false },
			Set:     func(*Request, string) (Reaction, error) { return Stay, nil },
			Columns: 1,
		})
	mustRegister(t, registry, RootPath, m)

	result, err := NewRenderer(registry).Render(NewRequest(context.Background(), nil, nil, nil), RootPath)
	if err != nil {
		t.Fatalf("Render returned error: %v", err)
	}

	sizes := make([]int, 0, len(result.Keyboard))
	for _, line := range result.Keyboard {
		sizes = append(sizes, len(line))
	}
	want := []int{DefaultColumns, 1, 1, 1, 1}
	if len(sizes) != len(want) {
		t.Fatalf("expected row sizes %v, got %v", want, sizes)
	}
	for i := range want {
		if sizes[i] != want[i] {
			t.Fatalf("expected row sizes %v, got %v", want, sizes)
		}
	}
}

func TestRenderJoinLastRowOnFirstRowStartsNewRow(t *testing.T) {
	registry := NewRegistry()
	m := NewText("x").Interact("only", "Only", InteractOptions{
		Do:          func(*Request) (Reaction, error) { return Stay, nil },
		JoinLastRow: true,
	})
	mustRegister(t, registry, RootPath, m)

	result, err := NewRenderer(registry).Render(NewRequest(context.Background(), nil, nil, nil), RootPath)
	if err != nil {
		t.Fatalf("Render returned error: %v", err)
	}
	if len(result.Keyboard) != 1 || len(result.Keyboard[0]) != 1 {
		t.Fatalf("expected a single row, got %+v", result.Keyboard)
	}
}

func TestRenderManualRowVerbatim(t *testing.T) {
	registry := NewRegistry()
	m := NewText("x").ManualRow(
		Button{Label: "raw", CallbackData: "/anything"},
		Button{Label: "link", URL: "https://example.com"},
	)
	mustRegister(t, registry, RootPath, m)

	result, err := NewRenderer(registry).Render(NewRequest(context.Background(), nil, nil, nil), RootPath)
	if err != nil {
		t.Fatalf("Render returned error: %v", err)
	}
	if len(result.Keyboard) != 1 || len(result.Keyboard[0]) != 2 {
		t.Fatalf("expected one row with two buttons, got %+v", result.Keyboard)
	}
	if result.Keyboard[0][0].CallbackData != "/anything" || result.Keyboard[0][1].URL != "https://example.com" {
		t.Fatalf("unexpected manual buttons %+v", result.Keyboard[0])
	}
}

func TestRenderMediaBody(t *testing.T) {
	registry := NewRegistry()
	m := New(func(*Request) (Body, error) {
		return Body{
			Text:      "*caption*",
			Media:     &Media{Type: MediaPhoto, URL: "https://example.com/a.jpg"},
			ParseMode: ParseModeMarkdown,
		}, nil
	})
	mustRegister(t, registry, RootPath, m)

	result, err := NewRenderer(registry).Render(NewRequest(context.Background(), nil, nil, nil), RootPath)
	if err != nil {
		t.Fatalf("Render returned error: %v", err)
	}
	if !result.Body.IsMedia() || result.Body.Media.Type != MediaPhoto {
		t.Fatalf("expected photo body, got %+v", result.Body)
	}
	if result.Body.ParseMode != ParseModeMarkdown {
		t.Fatalf("expected markdown parse mode, got %q", result.Body.ParseMode)
	}
}

func TestRenderWrapsBodyFailures(t *testing.T) {
	tests := []struct {
		name string
		body BodyFunc
	}{
		{"error", func(*Request) (Body, error) { return Body{}, errors.New("body failed") }},
		{"panic", func(*Request) (Body, error) { panic("body exploded") }},
	}

	for _, tt := range tests {
		registry := NewRegistry()
		mustRegister(t, registry, RootPath, New(tt.body))

		_, err := NewRenderer(registry).Render(NewRequest(context.Background(), nil, nil, nil), RootPath)
		var renderErr *RenderError
		if !errors.As(err, &renderErr) {
			t.Fatalf("%s: expected RenderError, got %v", tt.name, err)
		}
		if renderErr.Path != RootPath {
			t.Fatalf("%s: expected root path on error, got %s", tt.name, renderErr.Path)
		}
	}
}

func TestRenderWrapsPredicatePanics(t *testing.T) {
	registry := NewRegistry()
	m := NewText("x").Interact("shaky", "Shaky", InteractOptions{
		Do:   func(*Request) (Reaction, error) { return Stay, nil },
		Hide: func(*Request) bool { panic("hide exploded") },
	})
	mustRegister(t, registry, RootPath, m)

	_, err := NewRenderer(registry).Render(NewRequest(context.Background(), nil, nil, nil), RootPath)
	var renderErr *RenderError
	if !errors.As(err, &renderErr) {
		t.Fatalf("expected RenderError, got %v", err)
	}
	if renderErr.RowID != "shaky" {
		t.Fatalf("expected row id on error, got %q", renderErr.RowID)
	}
}

func TestRenderRejectsOversizedCallbackData(t *testing.T) {
	registry := NewRegistry()
	m := NewText("x").Interact(strings.Repeat("x", MaxCallbackDataLength), "Long", InteractOptions{
		Do: func(*Request) (Reaction, error) { return Stay, nil },
	})
	mustRegister(t, registry, RootPath, m)

	_, err := NewRenderer(registry).Render(NewRequest(context.Background(), nil, nil, nil), RootPath)
	if !errors.Is(err, ErrCallbackDataTooLong) {
		t.Fatalf("expected ErrCallbackDataTooLong, got %v", err)
	}
}
