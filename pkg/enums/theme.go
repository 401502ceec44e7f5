package enums

import "fmt"

// Theme is the UI color scheme stored in user settings.
type Theme string

const (
	ThemeLight  Theme = "light"
	ThemeDark   Theme = "dark"
	ThemeSystem Theme = "system"
)

// DefaultTheme is applied when settings are provisioned.
const DefaultTheme = ThemeLight

func (t Theme) IsValid() bool {
	switch t {
	case ThemeLight, ThemeDark, ThemeSystem:
		return true
	}
	return false
}

func ParseTheme(value string) (Theme, error) {
	theme := Theme(value)
	if !theme.IsValid() {
		return "", fmt.Errorf("invalid theme %q", value)
	}
	return theme, nil
}
