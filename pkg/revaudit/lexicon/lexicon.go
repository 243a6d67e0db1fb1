package lexicon

import (
	_ "embed"
	"fmt"
	"os"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"github.com/cognicore/revaudit/pkg/revaudit/internalerr"
)

//go:embed contractions.yaml
var englishContractions []byte

// Lexicon maps contracted or colloquial spellings to their expanded form:
//   - Contractions: don't → do not, i'm → i am
//   - Colloquialisms: gonna → going to
//
// A Lexicon is read-only once built and safe for concurrent use.
type Lexicon struct {
	// canonical -> all variants (including canonical itself)
	// Example: "do not" -> ["do not", "don't"]
	synonyms map[string][]string

	// variant -> canonical
	// Example: "don't" -> "do not"
	reverseIndex map[string]string
}

// suffixRules expand contractions missing from the table. Possessive 's is
// ambiguous and deliberately left alone.
var suffixRules = []struct {
	suffix    string
	expansion string
}{
	{"n't", " not"},
	{"'re", " are"},
	{"'ve", " have"},
	{"'ll", " will"},
	{"'d", " would"},
	{"'m", " am"},
}

var wordPattern = regexp.MustCompile(`[A-Za-z]+(?:'[A-Za-z]+)*`)

var apostropheFolder = strings.NewReplacer("’", "'", "‘", "'", "ʼ", "'")

// New creates an empty lexicon.
func New() *Lexicon {
	return &Lexicon{
		synonyms:     make(map[string][]string),
		reverseIndex: make(map[string]string),
	}
}

// English returns the built-in English contraction table.
func English() *Lexicon {
	lex, err := Parse(englishContractions)
	if err != nil {
		panic(fmt.Sprintf("lexicon: embedded contractions are invalid: %v", err))
	}
	return lex
}

// LoadFromYAML loads contraction mappings from a YAML file.
//
// Expected format:
//
//	synonyms:
//	  - canonical: do not
//	    variants: ["don't", "dont"]
//	  - canonical: going to
//	    variants: [gonna]
//
// Lookups are case-insensitive; all entries are stored lowercase.
func LoadFromYAML(path string) (*Lexicon, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse builds a lexicon from YAML content in the LoadFromYAML format.
func Parse(data []byte) (*Lexicon, error) {
	var config struct {
		Synonyms []struct {
			Canonical string   `yaml:"canonical"`
			Variants  []string `yaml:"variants"`
		} `yaml:"synonyms"`
	}

	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, err
	}

	lex := New()
	for _, entry := range config.Synonyms {
		if strings.TrimSpace(entry.Canonical) == "" {
			continue
		}
		lex.AddSynonymGroup(entry.Canonical, entry.Variants)
	}

	return lex, nil
}

// AddSynonymGroup adds an expansion with its contracted variants.
// The canonical form is always the first entry in the variants list.
// If the group already exists, old reverse index entries are cleaned up first.
func (l *Lexicon) AddSynonymGroup(canonical string, variants []string) {
	canonical = strings.ToLower(strings.TrimSpace(canonical))

	if oldVariants, exists := l.synonyms[canonical]; exists {
		for _, oldV := range oldVariants {
			delete(l.reverseIndex, oldV)
		}
	}

	normalized := make([]string, 0, len(variants)+1)
	seen := make(map[string]bool)

	normalized = append(normalized, canonical)
	seen[canonical] = true

	for _, v := range variants {
		v = apostropheFolder.Replace(strings.ToLower(strings.TrimSpace(v)))
		if v != "" && !seen[v] {
			normalized = append(normalized, v)
			seen[v] = true
		}
	}

	l.synonyms[canonical] = normalized

	for _, v := range normalized[1:] {
		l.reverseIndex[v] = canonical
	}
}

// Expand rewrites every contraction in text to its expanded form, keeping the
// capitalization of the original word. Text that is not valid UTF-8 is
// rejected so the caller can fall back to the original.
func (l *Lexicon) Expand(text string) (string, error) {
	if !utf8.ValidString(text) {
		return text, fmt.Errorf("%w: text is not valid UTF-8", internalerr.ErrInvalidInput)
	}

	folded := apostropheFolder.Replace(text)
	return wordPattern.ReplaceAllStringFunc(folded, func(word string) string {
		expansion, ok := l.expandWord(strings.ToLower(word))
		if !ok {
			return word
		}
		return matchCase(word, expansion)
	}), nil
}

func (l *Lexicon) expandWord(lower string) (string, bool) {
	if canonical, ok := l.reverseIndex[lower]; ok {
		return canonical, true
	}
	if !strings.Contains(lower, "'") {
		return "", false
	}
	for _, rule := range suffixRules {
		if stem, ok := strings.CutSuffix(lower, rule.suffix); ok && stem != "" {
			return stem + rule.expansion, true
		}
	}
	return "", false
}

func matchCase(original, expansion string) string {
	first, _ := utf8.DecodeRuneInString(original)
	if !unicode.IsUpper(first) {
		return expansion
	}
	if len(original) > 1 && strings.ToUpper(original) == original {
		return strings.ToUpper(expansion)
	}
	r, size := utf8.DecodeRuneInString(expansion)
	return string(unicode.ToUpper(r)) + expansion[size:]
}
