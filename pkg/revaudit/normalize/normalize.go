// Package normalize reduces review text to its normalized token form:
// clean → tokenize → filter → lemmatize → reassemble.
package normalize

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/forPelevin/gomoji"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/cognicore/revaudit/pkg/revaudit/internalerr"
	"github.com/cognicore/revaudit/pkg/revaudit/nlp"
	"github.com/cognicore/revaudit/pkg/revaudit/stoplist"
)

// EmojiPolicy selects what happens to emoji during cleaning.
type EmojiPolicy string

const (
	EmojiRemove  EmojiPolicy = "remove"
	EmojiConvert EmojiPolicy = "convert"
	EmojiKeep    EmojiPolicy = "keep"
)

// ParseEmojiPolicy maps a configured name to a policy. "convert-to-text"
// (and "convert_to_text") are accepted for EmojiConvert; unknown names are
// returned unchanged for Validate to reject.
func ParseEmojiPolicy(s string) EmojiPolicy {
	switch name := strings.ToLower(strings.TrimSpace(s)); name {
	case "convert-to-text", "convert_to_text":
		return EmojiConvert
	default:
		return EmojiPolicy(name)
	}
}

// Options toggles the individual normalization steps.
type Options struct {
	StripURLs         bool
	StripEmails       bool
	StripPhoneNumbers bool
	StripMarkup       bool
	StripMentions     bool
	StripHashtags     bool

	ExpandContractions bool
	Emoji              EmojiPolicy
	NormalizeUnicode   bool

	RemoveStopwords bool
	CustomStopwords []string
	Lemmatize       bool
	Stem            bool // runs after Lemmatize when both are set

	MinTokenLength  int
	MaxTokenLength  int // 0 disables the upper bound
	DropSingleChars bool
	AlphabeticOnly  bool
}

// DefaultOptions returns the options used by the batch pipeline.
func DefaultOptions() Options {
	return Options{
		StripURLs:          true,
		StripEmails:        true,
		StripPhoneNumbers:  true,
		StripMarkup:        true,
		StripMentions:      true,
		StripHashtags:      false,
		ExpandContractions: true,
		Emoji:              EmojiRemove,
		NormalizeUnicode:   true,
		RemoveStopwords:    true,
		Lemmatize:          true,
		Stem:               false,
		MinTokenLength:     2,
		MaxTokenLength:     50,
		DropSingleChars:    true,
		AlphabeticOnly:     true,
	}
}

// Validate checks option consistency.
func (o Options) Validate() error {
	switch o.Emoji {
	case EmojiRemove, EmojiConvert, EmojiKeep:
	default:
		return fmt.Errorf("%w: unknown emoji policy %q", internalerr.ErrInvalidConfig, o.Emoji)
	}
	if o.MinTokenLength < 0 || o.MaxTokenLength < 0 {
		return fmt.Errorf("%w: token length bounds must not be negative", internalerr.ErrInvalidConfig)
	}
	if o.MaxTokenLength > 0 && o.MinTokenLength > o.MaxTokenLength {
		return fmt.Errorf("%w: min token length %d exceeds max %d",
			internalerr.ErrInvalidConfig, o.MinTokenLength, o.MaxTokenLength)
	}
	return nil
}

var (
	markupPattern  = regexp.MustCompile(`<[^>]+>`)
	urlPattern     = regexp.MustCompile(`(?:https?://|www\.)(?:[a-zA-Z0-9]|[$-_@.&+]|[!*(),]|%[0-9a-fA-F]{2})+`)
	emailPattern   = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)
	phonePattern   = regexp.MustCompile(`(?:\+\d{1,3}[-.\s]?)?\(?\d{1,4}\)?[-.\s]?\d{1,4}[-.\s]?\d{1,9}`)
	mentionPattern = regexp.MustCompile(`@\w+`)
	hashtagPattern = regexp.MustCompile(`#\w+`)
)

// Normalizer applies a fixed Options set. It is safe for concurrent use.
type Normalizer struct {
	nlp   nlp.NLP
	stops *stoplist.Manager
	opts  Options
}

// New builds a Normalizer. A nil stop-word set means the built-in English
// list; Options.CustomStopwords extend a copy of it.
func New(n nlp.NLP, stops *stoplist.Manager, opts Options) (*Normalizer, error) {
	if n == nil {
		return nil, fmt.Errorf("%w: normalizer requires an NLP implementation", internalerr.ErrInvalidConfig)
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if stops == nil {
		stops = stoplist.English()
	}
	if len(opts.CustomStopwords) > 0 {
		stops = stops.With(opts.CustomStopwords)
	}
	return &Normalizer{nlp: n, stops: stops, opts: opts}, nil
}

// Options returns the options the normalizer was built with.
func (n *Normalizer) Options() Options {
	return n.opts
}

// Normalize returns the normalized tokens joined by single spaces.
func (n *Normalizer) Normalize(text string) string {
	return strings.Join(n.Tokens(text), " ")
}

// Tokens returns the normalized tokens in order. Empty input, or input made
// only of stripped content, yields an empty slice.
func (n *Normalizer) Tokens(text string) []string {
	cleaned := n.Clean(text)
	if cleaned == "" {
		return []string{}
	}

	// 6. Tokenize
	tokens := n.nlp.Tokenize(cleaned)

	// 7. Stop words
	if n.opts.RemoveStopwords {
		kept := make([]string, 0, len(tokens))
		for _, tok := range tokens {
			if !n.stops.IsStop(tok) {
				kept = append(kept, tok)
			}
		}
		tokens = kept
	}

	// 8. Lemmatize, then stem
	if n.opts.Lemmatize && len(tokens) > 0 {
		tokens = n.nlp.Lemmatize(tokens)
	}
	if n.opts.Stem && len(tokens) > 0 {
		tokens = n.nlp.Stem(tokens)
	}

	// 9. Filter
	out := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if n.keep(tok) {
			out = append(out, tok)
		}
	}
	return out
}

// Clean runs the string-level steps (unicode, emoji, contractions, pattern
// stripping, whitespace) without tokenizing.
func (n *Normalizer) Clean(text string) string {
	if !utf8.ValidString(text) {
		text = strings.ToValidUTF8(text, " ")
	}
	if strings.TrimSpace(text) == "" {
		return ""
	}

	// 1. Unicode
	if n.opts.NormalizeUnicode {
		text = foldUnicode(text)
	}

	// 2. Emoji
	switch n.opts.Emoji {
	case EmojiRemove:
		text = gomoji.RemoveEmojis(text)
	case EmojiConvert:
		text = emojiToText(text)
	}

	// 3. Contractions
	if n.opts.ExpandContractions {
		text = nlp.SafeExpand(n.nlp, text)
	}

	// 4. Patterns, in fixed order
	if n.opts.StripMarkup {
		text = markupPattern.ReplaceAllLiteralString(text, " ")
	}
	if n.opts.StripURLs {
		text = urlPattern.ReplaceAllLiteralString(text, " ")
	}
	if n.opts.StripEmails {
		text = emailPattern.ReplaceAllLiteralString(text, " ")
	}
	if n.opts.StripPhoneNumbers {
		text = phonePattern.ReplaceAllLiteralString(text, " ")
	}
	if n.opts.StripMentions {
		text = mentionPattern.ReplaceAllLiteralString(text, " ")
	}
	if n.opts.StripHashtags {
		text = hashtagPattern.ReplaceAllLiteralString(text, " ")
	}

	// 5. Whitespace
	return strings.Join(strings.Fields(text), " ")
}

func (n *Normalizer) keep(tok string) bool {
	length := utf8.RuneCountInString(tok)
	if length == 0 {
		return false
	}
	if length < n.opts.MinTokenLength {
		return false
	}
	if n.opts.MaxTokenLength > 0 && length > n.opts.MaxTokenLength {
		return false
	}
	if n.opts.DropSingleChars && length == 1 {
		return false
	}
	if n.opts.AlphabeticOnly && !isAlpha(tok) {
		return false
	}
	return true
}

// foldUnicode decomposes compatibility characters and drops combining
// marks, so "Café" and "Cafe" normalize alike.
func foldUnicode(text string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, text)
	if err != nil {
		return text
	}
	return folded
}

// emojiToText replaces each emoji with a :slug: word.
func emojiToText(text string) string {
	found := gomoji.FindAll(text)
	if len(found) == 0 {
		return text
	}
	pairs := make([]string, 0, len(found)*2)
	for _, e := range found {
		slug := strings.ReplaceAll(e.Slug, "-", "_")
		pairs = append(pairs, e.Character, " :"+slug+": ")
	}
	return strings.NewReplacer(pairs...).Replace(text)
}

func isAlpha(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return s != ""
}
