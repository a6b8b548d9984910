package seed

import (
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Fixture is a classification snapshot in YAML form. Categories nest through children;
// everything else refers to categories and scopes by slug.
type Fixture struct {
	Categories    []CategoryNode `yaml:"categories"`
	Scopes        []ScopeRow     `yaml:"scopes"`
	Items         []ItemRow      `yaml:"items"`
	QuizConfigs   []QuizRow      `yaml:"quiz_configs"`
	EnabledScopes []string       `yaml:"enabled_scopes"`
}

type CategoryNode struct {
	Slug           string         `yaml:"slug"`
	Name           string         `yaml:"name"`
	TranslatedName string         `yaml:"translated_name"`
	Children       []CategoryNode `yaml:"children"`
}

type ScopeRow struct {
	Slug           string `yaml:"slug"`
	Name           string `yaml:"name"`
	TranslatedName string `yaml:"translated_name"`
}

type ItemRow struct {
	Title      string   `yaml:"title"`
	ImageURL   string   `yaml:"image_url"`
	AudioURL   string   `yaml:"audio_url"`
	Draft      bool     `yaml:"draft"`
	Categories []string `yaml:"categories"`
	Scopes     []string `yaml:"scopes"`
	// Count repeats the row, numbering titles from 1. Zero means one.
	Count int `yaml:"count"`
}

type QuizRow struct {
	Category string `yaml:"category"`
	Prompt   string `yaml:"prompt"`
	Answer   string `yaml:"answer"`
}

// Load decodes a fixture, rejecting unknown fields.
func Load(r io.Reader) (*Fixture, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var f Fixture
	if err := dec.Decode(&f); err != nil {
		if err == io.EOF {
			return &f, nil
		}
		return nil, fmt.Errorf("decode fixture: %w", err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

func LoadFile(path string) (*Fixture, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fh.Close()
	return Load(fh)
}

// Validate checks slugs are present and unique and that every reference resolves
// within the fixture or may resolve against existing rows.
func (f *Fixture) Validate() error {
	cats := map[string]bool{}
	var walk func(nodes []CategoryNode) error
	walk = func(nodes []CategoryNode) error {
		for _, n := range nodes {
			slug := strings.TrimSpace(n.Slug)
			if slug == "" || strings.TrimSpace(n.Name) == "" {
				return fmt.Errorf("category %q: slug and name are required", n.Slug)
			}
			if cats[slug] {
				return fmt.Errorf("category %q: duplicate slug", slug)
			}
			cats[slug] = true
			if err := walk(n.Children); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(f.Categories); err != nil {
		return err
	}
	scopes := map[string]bool{}
	for _, s := range f.Scopes {
		slug := strings.TrimSpace(s.Slug)
		if slug == "" || strings.TrimSpace(s.Name) == "" {
			return fmt.Errorf("scope %q: slug and name are required", s.Slug)
		}
		if scopes[slug] {
			return fmt.Errorf("scope %q: duplicate slug", slug)
		}
		scopes[slug] = true
	}
	for i, it := range f.Items {
		if strings.TrimSpace(it.Title) == "" {
			return fmt.Errorf("item %d: title is required", i)
		}
		if it.Count < 0 {
			return fmt.Errorf("item %q: negative count", it.Title)
		}
	}
	for _, q := range f.QuizConfigs {
		if strings.TrimSpace(q.Category) == "" || strings.TrimSpace(q.Prompt) == "" || strings.TrimSpace(q.Answer) == "" {
			return fmt.Errorf("quiz config %q: category, prompt and answer are required", q.Category)
		}
	}
	return nil
}
