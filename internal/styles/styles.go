// Package styles owns the theme table and notifies listeners on theme
// changes. Panels never reload on a theme change; they repaint through the
// current palette on their next update.
package styles

import (
	"image/color"

	"cluster-service/internal/logger"
)

const (
	ThemeDay   = "Day"
	ThemeNight = "Night"
)

type Theme struct {
	Name       string
	Background color.RGBA
	Foreground color.RGBA
	Accent     color.RGBA
	Warning    color.RGBA
	Muted      color.RGBA
}

type Service struct {
	logger    *logger.Logger
	themes    map[string]*Theme
	current   *Theme
	listeners []func(theme string)
}

func NewService(log *logger.Logger) *Service {
	return &Service{
		logger: log.WithTag("Style"),
		themes: map[string]*Theme{
			ThemeDay: {
				Name:       ThemeDay,
				Background: color.RGBA{255, 255, 255, 255},
				Foreground: color.RGBA{16, 24, 32, 255},
				Accent:     color.RGBA{255, 229, 0, 255},
				Warning:    color.RGBA{226, 72, 38, 255},
				Muted:      color.RGBA{98, 116, 130, 255},
			},
			ThemeNight: {
				Name:       ThemeNight,
				Background: color.RGBA{0, 0, 0, 255},
				Foreground: color.RGBA{235, 235, 235, 255},
				Accent:     color.RGBA{70, 235, 145, 255},
				Warning:    color.RGBA{226, 72, 38, 255},
				Muted:      color.RGBA{60, 72, 84, 255},
			},
		},
	}
}

// RegisterTheme adds or replaces a theme. Deployments may carry palettes
// beyond Day/Night.
func (s *Service) RegisterTheme(t *Theme) {
	s.themes[t.Name] = t
}

// Current returns the active theme, lazily initializing to Day.
func (s *Service) Current() *Theme {
	if s.current == nil {
		s.current = s.themes[ThemeDay]
	}
	return s.current
}

func (s *Service) ThemeName() string {
	return s.Current().Name
}

// SetTheme switches the active theme. Setting the already-active theme is a
// no-op and produces no notification.
func (s *Service) SetTheme(name string) {
	t, ok := s.themes[name]
	if !ok {
		s.logger.Warnf("Unknown theme: %s", name)
		return
	}
	if s.Current() == t {
		return
	}
	s.current = t
	s.logger.Infof("Theme changed to %s", name)
	for _, fn := range s.listeners {
		fn(name)
	}
}

// OnThemeChange registers a listener invoked once per effective change.
func (s *Service) OnThemeChange(fn func(theme string)) {
	s.listeners = append(s.listeners, fn)
}
