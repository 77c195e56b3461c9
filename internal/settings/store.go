package settings

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

type fileSettings struct {
	DarkMode        *bool                  `yaml:"dark_mode,omitempty"`
	SoundAlert      *bool                  `yaml:"sound_alert,omitempty"`
	UseCustomSource bool                   `yaml:"use_custom_source"`
	CustomSourceURL string                 `yaml:"custom_source_url,omitempty"`
	RefreshInterval string                 `yaml:"refresh_interval,omitempty"`
	Projects        map[string]fileProject `yaml:"projects,omitempty"`
}

type fileProject struct {
	Label             string `yaml:"label,omitempty"`
	Enabled           *bool  `yaml:"enabled,omitempty"`
	RiskThresholdDays int    `yaml:"risk_threshold_days,omitempty"`
}

// Store persists Settings as YAML at a fixed path.
type Store struct {
	path string
	mu   sync.Mutex
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

func (s *Store) Path() string { return s.path }

// Load reads settings from disk. A missing file yields Default().
func (s *Store) Load() (Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return Settings{}, fmt.Errorf("read settings: %w", err)
	}
	return Parse(data)
}

// Save writes settings atomically through a temp file in the same directory.
func (s *Store) Save(st Settings) error {
	if err := validate(st); err != nil {
		return fmt.Errorf("validate settings: %w", err)
	}
	data, err := yaml.Marshal(toFile(st))
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".settings-*.yaml")
	if err != nil {
		return fmt.Errorf("create temp settings: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write settings: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close settings: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace settings: %w", err)
	}
	return nil
}

// Parse decodes a settings document, filling defaults for absent fields.
func Parse(data []byte) (Settings, error) {
	var f fileSettings
	if err := yaml.Unmarshal(data, &f); err != nil {
		return Settings{}, fmt.Errorf("parse settings: %w", err)
	}
	st, err := fromFile(f)
	if err != nil {
		return Settings{}, err
	}
	if err := validate(st); err != nil {
		return Settings{}, fmt.Errorf("validate settings: %w", err)
	}
	return st, nil
}

func fromFile(f fileSettings) (Settings, error) {
	st := Default()
	if f.DarkMode != nil {
		st.DarkMode = *f.DarkMode
	}
	if f.SoundAlert != nil {
		st.SoundAlert = *f.SoundAlert
	}
	st.UseCustomSource = f.UseCustomSource
	st.CustomSourceURL = f.CustomSourceURL

	if f.RefreshInterval != "" {
		d, err := time.ParseDuration(f.RefreshInterval)
		if err != nil {
			return Settings{}, fmt.Errorf("parse refresh_interval %q: %w", f.RefreshInterval, err)
		}
		st.RefreshInterval = d
	}

	if f.Projects != nil {
		st.Projects = make(map[string]Project, len(f.Projects))
		for key, p := range f.Projects {
			proj := Project{
				Label:             p.Label,
				Enabled:           true,
				RiskThresholdDays: p.RiskThresholdDays,
			}
			if proj.Label == "" {
				proj.Label = key
			}
			if p.Enabled != nil {
				proj.Enabled = *p.Enabled
			}
			if proj.RiskThresholdDays <= 0 {
				proj.RiskThresholdDays = DefaultThresholdDays
			}
			st.Projects[key] = proj
		}
	}
	return st, nil
}

func toFile(st Settings) fileSettings {
	f := fileSettings{
		DarkMode:        &st.DarkMode,
		SoundAlert:      &st.SoundAlert,
		UseCustomSource: st.UseCustomSource,
		CustomSourceURL: st.CustomSourceURL,
		RefreshInterval: st.RefreshInterval.String(),
		Projects:        make(map[string]fileProject, len(st.Projects)),
	}
	for key, p := range st.Projects {
		enabled := p.Enabled
		f.Projects[key] = fileProject{
			Label:             p.Label,
			Enabled:           &enabled,
			RiskThresholdDays: p.RiskThresholdDays,
		}
	}
	return f
}

func validate(st Settings) error {
	if st.RefreshInterval < MinRefreshInterval {
		return fmt.Errorf("refresh_interval must be at least %s, got %s", MinRefreshInterval, st.RefreshInterval)
	}
	if st.UseCustomSource {
		if st.CustomSourceURL == "" {
			return fmt.Errorf("custom_source_url required when use_custom_source is set")
		}
		u, err := url.Parse(st.CustomSourceURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("custom_source_url %q must be an http(s) URL", st.CustomSourceURL)
		}
	}
	for key, p := range st.Projects {
		if p.RiskThresholdDays > MaxThresholdDays {
			return fmt.Errorf("projects[%s]: risk_threshold_days must be at most %d", key, MaxThresholdDays)
		}
	}
	return nil
}
