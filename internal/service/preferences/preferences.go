package preferences

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrInvalidTheme rejects a theme other than light or dark.
var ErrInvalidTheme = errors.New("invalid theme")

// Theme selects the UI color scheme.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// Preferences holds presentation settings kept outside the chat session.
type Preferences struct {
	Theme Theme `json:"theme" yaml:"theme"`
}

// Default returns the settings used before anything is saved.
func Default() Preferences {
	return Preferences{Theme: ThemeLight}
}

// DarkMode reports whether the dark theme is selected.
func (p Preferences) DarkMode() bool {
	return p.Theme == ThemeDark
}

// Toggle flips between light and dark.
func (p Preferences) Toggle() Preferences {
	if p.DarkMode() {
		p.Theme = ThemeLight
	} else {
		p.Theme = ThemeDark
	}
	return p
}

// Validate checks p before it is saved.
func (p Preferences) Validate() error {
	switch p.Theme {
	case ThemeLight, ThemeDark:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrInvalidTheme, p.Theme)
	}
}

// Store loads and saves preferences.
type Store interface {
	Load(ctx context.Context) (Preferences, error)
	Save(ctx context.Context, prefs Preferences) error
}

// Updater is a Store that can apply a read-modify-write under its own lock.
type Updater interface {
	Store
	Update(ctx context.Context, fn func(Preferences) Preferences) (Preferences, error)
}

// toggleMu serializes Toggle for stores that are not Updaters.
var toggleMu sync.Mutex

// Toggle loads, flips and saves the theme in one step. Concurrent toggles
// never lose a flip.
func Toggle(ctx context.Context, store Store) (Preferences, error) {
	if u, ok := store.(Updater); ok {
		return u.Update(ctx, Preferences.Toggle)
	}

	toggleMu.Lock()
	defer toggleMu.Unlock()

	prefs, err := store.Load(ctx)
	if err != nil {
		return Preferences{}, err
	}
	prefs = prefs.Toggle()
	if err := store.Save(ctx, prefs); err != nil {
		return Preferences{}, err
	}
	return prefs, nil
}
