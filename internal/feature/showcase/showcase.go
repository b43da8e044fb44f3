// Package showcase declares the demo menu tree: a main menu with every row
// kind, a food menu with a dynamic person submenu and a media menu.
package showcase

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"tg_inline_menu_bot/internal/logging"
	"tg_inline_menu_bot/internal/menu"
)

const (
	mediaPhoto1    = "photo1"
	mediaPhoto2    = "photo2"
	mediaVideo     = "video"
	mediaAnimation = "animation"
	mediaDocument  = "document"
	mediaText      = "just text"

	demoVideoURL    = "https://telegram.org/img/t_main_Android_demo.mp4"
	demoPhoto1URL   = "https://telegram.org/img/SiteiOs.jpg"
	demoPhoto2URL   = "https://telegram.org/img/SiteAndroid.jpg"
	demoDocumentURL = "https://telegram.org/file/464001088/1/bI7AJLo7oX4.287931.zip/374fe3b0a59dc60005"

	isoMillis = "2006-01-02T15:04:05.000Z07:00"
)

var (
	selectKeys = []string{"A", "B", "C"}
	foods      = []string{"bread", "cake", "bananas"}
	mediaKeys  = []string{mediaAnimation, mediaDocument, mediaPhoto1, mediaPhoto2, mediaVideo, mediaText}
)

// Session is the per-chat state of the demo.
type Session struct {
	Toggle      bool
	Selected    string
	MediaOption string
}

// NewSession returns the state a chat starts with.
func NewSession() *Session {
	return &Session{
		Selected:    "B",
		MediaOption: mediaPhoto1,
	}
}

// Option customizes a Showcase.
type Option func(*Showcase)

// WithClock overrides the clock used in the main menu body.
func WithClock(now func() time.Time) Option {
	return func(s *Showcase) {
		if now != nil {
			s.now = now
		}
	}
}

// WithPeople replaces the default people tracked by the food menu.
func WithPeople(people *People) Option {
	return func(s *Showcase) {
		if people != nil {
			s.people = people
		}
	}
}

// WithLogger sets the logger passed to the engine.
func WithLogger(logger *logrus.Entry) Option {
	return func(s *Showcase) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Showcase owns the demo menu tree and its shared state.
type Showcase struct {
	people *People
	now    func() time.Time
	logger *logrus.Entry
}

// New builds the demo with Mark and Paul in the food menu.
func New(opts ...Option) *Showcase {
	s := &Showcase{
		people: NewPeople("Mark", "Paul"),
		now:    time.Now,
		logger: logging.Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// People returns the shared preference store.
func (s *Showcase) People() *People {
	return s.people
}

// Engine mounts the demo tree. Extra options are applied after the demo's own.
func (s *Showcase) Engine(opts ...menu.Option) (*menu.Engine, error) {
	base := []menu.Option{
		menu.WithLogger(s.logger),
		menu.WithSessionState(func() any { return NewSession() }),
		menu.WithSharedState(s.people),
	}

	engine, err := menu.NewEngine(s.Menu(), append(base, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("mount showcase menu: %w", err)
	}

	return engine, nil
}

// Menu builds the root of the demo tree.
func (s *Showcase) Menu() *menu.Menu {
	hiddenWhenToggled := func(req *menu.Request) bool {
		return sessionOf(req).Toggle
	}

	return menu.New(func(req *menu.Request) (menu.Body, error) {
		text := "Main Menu\n" + s.now().UTC().Format(isoMillis)
		if req.Payload != "" {
			text += "\nopened via " + req.Payload
		}
		return menu.TextBody(text), nil
	}).
		URL("EdJoPaTo.de", "https://edjopato.de").
		Toggle("toggle", "toggle me", menu.ToggleOptions{
			IsSet: func(req *menu.Request) bool { return sessionOf(req).Toggle },
			Set: func(req *menu.Request, state bool) (menu.Reaction, error) {
				sessionOf(req).Toggle = state
				return menu.Reload, nil
			},
		}).
		Interact("interaction", "interact", menu.InteractOptions{
			Hide: hiddenWhenToggled,
			Do: func(req *menu.Request) (menu.Reaction, error) {
				return menu.Stay, req.Answer("you clicked me!")
			},
		}).
		Interact("update", "update afterwards", menu.InteractOptions{
			Hide:        hiddenWhenToggled,
			JoinLastRow: true,
			Do: func(req *menu.Request) (menu.Reaction, error) {
				if err := req.Answer("I will update the menu now…"); err != nil {
					return menu.Stay, err
				}
				return menu.Reload, nil
			},
		}).
		Select("select", menu.Static(selectKeys...), menu.SelectOptions{
			IsSet: func(req *menu.Request, key string) bool { return sessionOf(req).Selected == key },
			Set: func(req *menu.Request, key string) (menu.Reaction, error) {
				sessionOf(req).Selected = key
				if err := req.Answer("you selected " + key); err != nil {
					return menu.Stay, err
				}
				return menu.Reload, nil
			},
		}).
		Submenu("food", "Food menu", foodMenu(), menu.SubmenuOptions{Hide: hiddenWhenToggled}).
		Submenu("media", "Media Menu", mediaMenu(), menu.SubmenuOptions{})
}

func foodMenu() *menu.Menu {
	return menu.NewText("People like food. What do they like?").
		ChooseIntoSubmenu("person", func(req *menu.Request) []string {
			return peopleOf(req).Names()
		}, personMenu(), menu.ChooseOptions{
			ButtonText: personButtonText,
			Columns:    2,
		}).
		BackMainRow()
}

func personButtonText(req *menu.Request, name string) string {
	pref, _ := peopleOf(req).Get(name)
	if pref.Food != "" {
		return fmt.Sprintf("%s (%s)", name, pref.Food)
	}

	return name
}

func personMenu() *menu.Menu {
	return menu.New(func(req *menu.Request) (menu.Body, error) {
		name := req.Key("person")
		pref, _ := peopleOf(req).Get(name)
		if pref.Food == "" {
			return menu.TextBody(name + " is still unsure what to eat."), nil
		}
		return menu.TextBody(fmt.Sprintf("%s likes %s currently.", name, pref.Food)), nil
	}).
		Toggle("tea", "Prefer tea", menu.ToggleOptions{
			IsSet: func(req *menu.Request) bool {
				pref, _ := peopleOf(req).Get(req.Key("person"))
				return pref.Tea
			},
			Set: func(req *menu.Request, _ bool) (menu.Reaction, error) {
				_, err := peopleOf(req).ToggleTea(req.Key("person"))
				return menu.Reload, err
			},
		}).
		Select("food", menu.Static(foods...), menu.SelectOptions{
			IsSet: func(req *menu.Request, key string) bool {
				pref, _ := peopleOf(req).Get(req.Key("person"))
				return pref.Food == key
			},
			Set: func(req *menu.Request, key string) (menu.Reaction, error) {
				return menu.Reload, peopleOf(req).SetFood(req.Key("person"), key)
			},
		}).
		BackMainRow()
}

func mediaMenu() *menu.Menu {
	return menu.New(func(req *menu.Request) (menu.Body, error) {
		return mediaBody(sessionOf(req).MediaOption), nil
	}).
		Interact("random", "Just a button", menu.InteractOptions{
			Do: func(req *menu.Request) (menu.Reaction, error) {
				return menu.Stay, req.Answer("Just a callback query answer")
			},
		}).
		Select("type", menu.Static(mediaKeys...), menu.SelectOptions{
			Columns: 2,
			IsSet:   func(req *menu.Request, key string) bool { return sessionOf(req).MediaOption == key },
			Set: func(req *menu.Request, key string) (menu.Reaction, error) {
				sessionOf(req).MediaOption = key
				return menu.Reload, nil
			},
		}).
		BackMainRow()
}

func mediaBody(option string) menu.Body {
	switch option {
	case mediaVideo:
		return menu.Body{
			Text:  "Just a caption for a video",
			Media: &menu.Media{Type: menu.MediaVideo, URL: demoVideoURL},
		}
	case mediaAnimation:
		return menu.Body{
			Text:  "Just a caption for an animation",
			Media: &menu.Media{Type: menu.MediaAnimation, URL: demoVideoURL},
		}
	case mediaPhoto2:
		return menu.Body{
			Text:      "Just a caption for a *photo*",
			Media:     &menu.Media{Type: menu.MediaPhoto, URL: demoPhoto2URL},
			ParseMode: menu.ParseModeMarkdown,
		}
	case mediaDocument:
		return menu.Body{
			Text:      "Just a caption for a <b>document</b>",
			Media:     &menu.Media{Type: menu.MediaDocument, URL: demoDocumentURL},
			ParseMode: menu.ParseModeHTML,
		}
	case mediaText:
		return menu.TextBody("Just some text")
	default:
		return menu.Body{Media: &menu.Media{Type: menu.MediaPhoto, URL: demoPhoto1URL}}
	}
}

// sessionOf expects the engine to be built by Showcase.Engine.
func sessionOf(req *menu.Request) *Session {
	return req.Session.State.(*Session)
}

func peopleOf(req *menu.Request) *People {
	return req.Shared.(*People)
}
