package station

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/satindergrewal/airwaves/internal/pcm"
)

type narrationDoc struct {
	Source    string `yaml:"source"`
	Narration string `yaml:"narration"`
}

type trackDoc struct {
	Title  string         `yaml:"title"`
	Source string         `yaml:"source"`
	Before []narrationDoc `yaml:"before"`
	After  []narrationDoc `yaml:"after"`
}

type stationDoc struct {
	Title  string     `yaml:"title"`
	Seed   *uint64    `yaml:"seed"`
	Tracks []trackDoc `yaml:"tracks"`
}

// Load reads a station definition from a YAML file and stats every
// referenced source to learn its size. Relative sources are resolved
// against the directory holding the definition.
func Load(path string) (*Station, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read station file: %w", err)
	}
	return Parse(data, filepath.Dir(path))
}

// Parse builds a Station from YAML bytes. baseDir anchors relative sources.
func Parse(data []byte, baseDir string) (*Station, error) {
	var doc stationDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse station file: %w", err)
	}

	if doc.Title == "" {
		return nil, fmt.Errorf("%w: title", ErrMissingField)
	}
	if doc.Seed == nil {
		return nil, fmt.Errorf("%w: seed", ErrMissingField)
	}
	if len(doc.Tracks) == 0 {
		return nil, fmt.Errorf("%w: tracks", ErrMissingField)
	}

	st := &Station{
		Title:  doc.Title,
		Seed:   *doc.Seed,
		Tracks: make([]Track, 0, len(doc.Tracks)),
	}

	for i, td := range doc.Tracks {
		if td.Title == "" {
			return nil, fmt.Errorf("%w: tracks[%d].title", ErrMissingField, i)
		}
		if td.Source == "" {
			return nil, fmt.Errorf("%w: tracks[%d].source", ErrMissingField, i)
		}
		src, size, err := statSource(baseDir, td.Source)
		if err != nil {
			return nil, fmt.Errorf("tracks[%d] %q: %w", i, td.Title, err)
		}
		before, err := loadNarrations(baseDir, td.Before, fmt.Sprintf("tracks[%d].before", i))
		if err != nil {
			return nil, err
		}
		after, err := loadNarrations(baseDir, td.After, fmt.Sprintf("tracks[%d].after", i))
		if err != nil {
			return nil, err
		}
		st.Tracks = append(st.Tracks, Track{
			Title:           td.Title,
			Source:          src,
			SizeBytes:       size,
			NarrationBefore: before,
			NarrationAfter:  after,
		})
	}

	return st, nil
}

func loadNarrations(baseDir string, docs []narrationDoc, field string) ([]Narration, error) {
	if len(docs) == 0 {
		return nil, nil
	}
	out := make([]Narration, 0, len(docs))
	for j, nd := range docs {
		if nd.Source == "" {
			return nil, fmt.Errorf("%w: %s[%d].source", ErrMissingField, field, j)
		}
		if nd.Narration == "" {
			return nil, fmt.Errorf("%w: %s[%d].narration", ErrMissingField, field, j)
		}
		src, size, err := statSource(baseDir, nd.Source)
		if err != nil {
			return nil, fmt.Errorf("%s[%d]: %w", field, j, err)
		}
		out = append(out, Narration{Content: nd.Narration, Source: src, SizeBytes: size})
	}
	return out, nil
}

func statSource(baseDir, source string) (string, uint64, error) {
	path := source
	if !filepath.IsAbs(path) {
		path = filepath.Join(baseDir, path)
	}
	info, err := os.Stat(path)
	if err != nil {
		return "", 0, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return "", 0, fmt.Errorf("%s is a directory", path)
	}
	if info.Size() < pcm.HeaderLen {
		return "", 0, fmt.Errorf("%s is shorter than a %d byte WAV header", path, pcm.HeaderLen)
	}
	return path, uint64(info.Size()), nil
}
