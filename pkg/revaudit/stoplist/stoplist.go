package stoplist

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed english.yaml
var englishStops []byte

// Manager holds a stop-word set. Reads are safe for concurrent use as long as
// no goroutine calls Add or Remove at the same time; the pipeline builds its
// set once and only reads it afterwards.
type Manager struct {
	stops map[string]struct{}
}

// NewManager creates a new stoplist manager
func NewManager(initialStops []string) *Manager {
	stops := make(map[string]struct{}, len(initialStops))
	for _, s := range initialStops {
		if s = normalize(s); s != "" {
			stops[s] = struct{}{}
		}
	}
	return &Manager{stops: stops}
}

// ForLanguage returns the built-in stop-word set of a language.
// Only English ships with the module.
func ForLanguage(language string) (*Manager, error) {
	switch strings.ToLower(strings.TrimSpace(language)) {
	case "", "english", "en":
		return English(), nil
	default:
		return nil, fmt.Errorf("no built-in stoplist for language %q", language)
	}
}

// English returns the built-in English stop-word set.
func English() *Manager {
	terms, err := parse(englishStops)
	if err != nil {
		panic(fmt.Sprintf("stoplist: embedded english list is invalid: %v", err))
	}
	return NewManager(terms)
}

// LoadFromYAML loads stop words from a YAML file with a top-level `terms` list.
func LoadFromYAML(path string) (*Manager, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	terms, err := parse(data)
	if err != nil {
		return nil, err
	}
	return NewManager(terms), nil
}

func parse(data []byte) ([]string, error) {
	var sl struct {
		Terms []string `yaml:"terms"`
	}
	if err := yaml.Unmarshal(data, &sl); err != nil {
		return nil, err
	}
	return sl.Terms, nil
}

// IsStop checks if a token is a stopword
func (m *Manager) IsStop(token string) bool {
	_, ok := m.stops[normalize(token)]
	return ok
}

// Add adds a token to the stoplist
func (m *Manager) Add(token string) {
	if token = normalize(token); token != "" {
		m.stops[token] = struct{}{}
	}
}

// Remove removes a token from the stoplist
func (m *Manager) Remove(token string) {
	delete(m.stops, normalize(token))
}

// With returns a copy of the stoplist extended with extra words. The
// receiver is left unchanged.
func (m *Manager) With(extra []string) *Manager {
	out := &Manager{stops: make(map[string]struct{}, len(m.stops)+len(extra))}
	for s := range m.stops {
		out.stops[s] = struct{}{}
	}
	for _, s := range extra {
		out.Add(s)
	}
	return out
}

// Len returns the number of stop words.
func (m *Manager) Len() int {
	return len(m.stops)
}

// All returns all stopwords in lexical order
func (m *Manager) All() []string {
	result := make([]string, 0, len(m.stops))
	for s := range m.stops {
		result = append(result, s)
	}
	sort.Strings(result)
	return result
}

func normalize(token string) string {
	return strings.ToLower(strings.TrimSpace(token))
}
