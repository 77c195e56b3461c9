package settings

import (
	"maps"
	"slices"
	"time"
)

const (
	DefaultRefreshInterval = 5 * time.Minute
	MinRefreshInterval     = 10 * time.Second
	DefaultThresholdDays   = 1
	MaxThresholdDays       = 30
)

// Settings are the user display preferences. The monitoring core only reads
// them; the TUI edits them through a Store.
type Settings struct {
	DarkMode        bool
	SoundAlert      bool
	UseCustomSource bool
	CustomSourceURL string
	RefreshInterval time.Duration
	Projects        map[string]Project
}

type Project struct {
	Label             string
	Enabled           bool
	RiskThresholdDays int
}

func Default() Settings {
	return Settings{
		DarkMode:        true,
		SoundAlert:      true,
		RefreshInterval: DefaultRefreshInterval,
		Projects: map[string]Project{
			"Public.Wbc7": {Label: "WBC7 Public", Enabled: true, RiskThresholdDays: DefaultThresholdDays},
			"UFO.ETRM":    {Label: "UFO ETRM", Enabled: true, RiskThresholdDays: DefaultThresholdDays},
			"SRM.wbc7srm": {Label: "WBC7 SRM", Enabled: true, RiskThresholdDays: DefaultThresholdDays},
		},
	}
}

// ProjectVisible reports whether tickets of project key are shown. Projects
// without an entry are always shown.
func (s Settings) ProjectVisible(key string) bool {
	p, ok := s.Projects[key]
	if !ok {
		return true
	}
	return p.Enabled
}

// RiskThreshold returns the at-risk window in days for project key.
func (s Settings) RiskThreshold(key string) int {
	if p, ok := s.Projects[key]; ok && p.RiskThresholdDays > 0 {
		return p.RiskThresholdDays
	}
	return DefaultThresholdDays
}

// PrimaryURL picks the feed URL: the custom one when enabled and set,
// otherwise def.
func (s Settings) PrimaryURL(def string) string {
	if s.UseCustomSource && s.CustomSourceURL != "" {
		return s.CustomSourceURL
	}
	return def
}

// SourceChanged reports whether switching from s to next changes the feed
// that would be polled.
func (s Settings) SourceChanged(next Settings) bool {
	return s.UseCustomSource != next.UseCustomSource || s.CustomSourceURL != next.CustomSourceURL
}

// ProjectKeys returns the configured project keys in sorted order.
func (s Settings) ProjectKeys() []string {
	return slices.Sorted(maps.Keys(s.Projects))
}

func (s Settings) Clone() Settings {
	s.Projects = maps.Clone(s.Projects)
	if s.Projects == nil {
		s.Projects = map[string]Project{}
	}
	return s
}

// ToggleProject flips visibility of key, adding an entry if missing.
func (s Settings) ToggleProject(key string) Settings {
	s = s.Clone()
	p, ok := s.Projects[key]
	if !ok {
		p = Project{Label: key, Enabled: true, RiskThresholdDays: DefaultThresholdDays}
	}
	p.Enabled = !p.Enabled
	s.Projects[key] = p
	return s
}

// AdjustThreshold moves the risk threshold of key by delta days, clamped to
// [1, MaxThresholdDays].
func (s Settings) AdjustThreshold(key string, delta int) Settings {
	s = s.Clone()
	p, ok := s.Projects[key]
	if !ok {
		p = Project{Label: key, Enabled: true}
	}
	p.RiskThresholdDays = min(max(s.RiskThreshold(key)+delta, 1), MaxThresholdDays)
	s.Projects[key] = p
	return s
}
