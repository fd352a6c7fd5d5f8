// Package content serves the static marketing copy for the landing page.
package content

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"gopkg.in/yaml.v3"

	"shojo-terminal/backend-go/internal/models"
)

//go:embed features.yaml hero.yaml
var embedded embed.FS

var ErrMissing = errors.New("content missing")

type Store struct {
	features    []models.FeatureData
	featuresErr error
	hero        models.HeroData
	heroErr     error
}

// Load reads the documents compiled into the binary.
func Load() *Store {
	return LoadFS(embedded)
}

// LoadFS reads features.yaml and hero.yaml from fsys. A broken document only
// disables its own route.
func LoadFS(fsys fs.FS) *Store {
	s := &Store{}
	s.featuresErr = readYAML(fsys, "features.yaml", &s.features)
	if s.featuresErr == nil && len(s.features) == 0 {
		s.featuresErr = fmt.Errorf("features.yaml: %w", ErrMissing)
	}
	s.heroErr = readYAML(fsys, "hero.yaml", &s.hero)
	if s.heroErr == nil {
		s.heroErr = validateHero(s.hero)
	}
	return s
}

func (s *Store) Features() ([]models.FeatureData, error) {
	if s.featuresErr != nil {
		return nil, s.featuresErr
	}
	out := make([]models.FeatureData, len(s.features))
	copy(out, s.features)
	return out, nil
}

func (s *Store) Hero() (models.HeroData, error) {
	if s.heroErr != nil {
		return models.HeroData{}, s.heroErr
	}
	return s.hero, nil
}

func readYAML(fsys fs.FS, name string, out any) error {
	b, err := fs.ReadFile(fsys, name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%s: %w", name, ErrMissing)
		}
		return fmt.Errorf("read %s: %w", name, err)
	}
	if err := yaml.Unmarshal(b, out); err != nil {
		return fmt.Errorf("parse %s: %w", name, err)
	}
	return nil
}

func validateHero(h models.HeroData) error {
	if h.Title == "" {
		return fmt.Errorf("hero.yaml: title: %w", ErrMissing)
	}
	switch h.BackgroundEffects.Type {
	case "pulse", "particles", "grid":
		return nil
	default:
		return fmt.Errorf("hero.yaml: unknown background effect %q", h.BackgroundEffects.Type)
	}
}
