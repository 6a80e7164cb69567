package dialogue

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/danielpatrickdp/symbiote-voice/internal/observation"
	"github.com/danielpatrickdp/symbiote-voice/internal/progress"
)

// ErrInvalidCorpus is returned for corpus files that parse but fail validation.
var ErrInvalidCorpus = errors.New("invalid dialogue corpus")

//go:embed corpus/default.yaml
var defaultCorpus []byte

// #region file-types
type corpusFile struct {
	Lines []corpusLine `yaml:"lines"`
}

type corpusLine struct {
	Key         string                  `yaml:"key"`
	Tier        string                  `yaml:"tier"`
	Category    string                  `yaml:"category"`
	MinSeverity *int                    `yaml:"min_severity"`
	MaxSeverity *int                    `yaml:"max_severity"`
	Requires    *corpusPrerequisite     `yaml:"requires"`
	When        map[string]ContextValue `yaml:"when"`
	Text        string                  `yaml:"text"`
}

type corpusPrerequisite struct {
	Concept string `yaml:"concept"`
	State   string `yaml:"state"`
}

// #endregion file-types

// #region load
// LoadCorpus reads and validates a YAML corpus file.
func LoadCorpus(path string) ([]Line, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read corpus %s: %w", path, err)
	}
	lines, err := ParseCorpus(data)
	if err != nil {
		return nil, fmt.Errorf("parse corpus %s: %w", path, err)
	}
	return lines, nil
}

// DefaultCorpus returns the built-in corpus.
func DefaultCorpus() []Line {
	lines, err := ParseCorpus(defaultCorpus)
	if err != nil {
		panic(fmt.Sprintf("embedded corpus: %v", err))
	}
	return lines
}

// ParseCorpus decodes and validates YAML corpus data.
func ParseCorpus(data []byte) ([]Line, error) {
	var f corpusFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}

	seen := make(map[string]bool, len(f.Lines))
	lines := make([]Line, 0, len(f.Lines))
	for i, cl := range f.Lines {
		l, err := cl.toLine()
		if err != nil {
			return nil, fmt.Errorf("%w: entry %d: %v", ErrInvalidCorpus, i, err)
		}
		if seen[l.Key] {
			return nil, fmt.Errorf("%w: duplicate key %q", ErrInvalidCorpus, l.Key)
		}
		seen[l.Key] = true
		lines = append(lines, l)
	}
	return lines, nil
}

// #endregion load

// #region validate
func (cl corpusLine) toLine() (Line, error) {
	if cl.Key == "" {
		return Line{}, errors.New("missing key")
	}
	tier, ok := observation.ParseTier(cl.Tier)
	if !ok {
		return Line{}, fmt.Errorf("%s: unknown tier %q", cl.Key, cl.Tier)
	}
	if _, ok := observation.ParseCategory(cl.Category); !ok && !observation.IsDreamLineCategory(cl.Category) {
		return Line{}, fmt.Errorf("%s: unknown category %q", cl.Key, cl.Category)
	}

	l := Line{
		Key:         cl.Key,
		Tier:        tier,
		Category:    cl.Category,
		MinSeverity: MinSeverity,
		MaxSeverity: MaxSeverity,
		When:        cl.When,
		Text:        cl.Text,
	}
	if cl.MinSeverity != nil {
		l.MinSeverity = *cl.MinSeverity
	}
	if cl.MaxSeverity != nil {
		l.MaxSeverity = *cl.MaxSeverity
	}
	if l.MinSeverity > l.MaxSeverity {
		return Line{}, fmt.Errorf("%s: severity range [%d, %d] is inverted", cl.Key, l.MinSeverity, l.MaxSeverity)
	}

	if cl.Requires != nil {
		state, ok := progress.ParseSignalState(cl.Requires.State)
		if !ok {
			return Line{}, fmt.Errorf("%s: unknown state %q", cl.Key, cl.Requires.State)
		}
		if cl.Requires.Concept == "" {
			return Line{}, fmt.Errorf("%s: prerequisite without concept", cl.Key)
		}
		l.Requires = &Prerequisite{Concept: cl.Requires.Concept, State: state}
	}
	for k, v := range cl.When {
		if v.Kind() == KindNone {
			return Line{}, fmt.Errorf("%s: when.%s has no value", cl.Key, k)
		}
	}
	return l, nil
}

// #endregion validate
