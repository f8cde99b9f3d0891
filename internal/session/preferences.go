package session

// ThemeKey is the storage key for the UI theme flag.
const ThemeKey = "ui.theme"

// Theme values.
const (
	ThemeLight = "light"
	ThemeDark  = "dark"
)

// Preferences reads and writes presentation settings that live next to the
// credential but have no effect on synchronization.
type Preferences struct {
	storage Storage
}

// NewPreferences creates Preferences backed by storage.
func NewPreferences(storage Storage) *Preferences {
	return &Preferences{storage: storage}
}

// Theme returns the stored theme, defaulting to light.
func (p *Preferences) Theme() (string, error) {
	v, ok, err := p.storage.Load(ThemeKey)
	if err != nil {
		return ThemeLight, err
	}
	if !ok || v != ThemeDark {
		return ThemeLight, nil
	}
	return ThemeDark, nil
}

// SetDarkMode stores the theme flag.
func (p *Preferences) SetDarkMode(dark bool) error {
	if dark {
		return p.storage.Save(ThemeKey, ThemeDark)
	}
	return p.storage.Save(ThemeKey, ThemeLight)
}
