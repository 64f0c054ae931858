// Package textcase converts text between letter-case and identifier styles.
package textcase

import (
	"math/rand/v2"
	"regexp"
	"strings"
	"unicode"
)

// Options tune the conversions. The zero value removes punctuation and
// digits from identifier styles; use DefaultOptions for the usual settings.
type Options struct {
	// PreserveNumbers keeps digits in identifier styles.
	PreserveNumbers bool `json:"preserveNumbers"`
	// KeepPunctuation keeps punctuation in identifier styles.
	KeepPunctuation bool `json:"keepPunctuation"`
	// Separator replaces "_" in snake case and "-" in kebab case.
	Separator string `json:"separator"`
	// Prefix and Suffix wrap every non-empty identifier style and the
	// character-wise styles.
	Prefix string `json:"prefix"`
	Suffix string `json:"suffix"`
	// RemoveExtraSpaces collapses whitespace runs to one space.
	RemoveExtraSpaces  bool `json:"removeExtraSpaces"`
	PreserveLineBreaks bool `json:"preserveLineBreaks"`

	// Rand drives random case. A nil Rand uses an unseeded source.
	Rand *rand.Rand `json:"-"`
}

// DefaultOptions keeps digits and collapses extra whitespace.
func DefaultOptions() Options {
	return Options{PreserveNumbers: true, RemoveExtraSpaces: true}
}

// Result holds every conversion of one input.
type Result struct {
	Original    string `json:"original"`
	Upper       string `json:"uppercase"`
	Lower       string `json:"lowercase"`
	Title       string `json:"titleCase"`
	Sentence    string `json:"sentenceCase"`
	Camel       string `json:"camelCase"`
	Pascal      string `json:"pascalCase"`
	Snake       string `json:"snakeCase"`
	Kebab       string `json:"kebabCase"`
	Constant    string `json:"constantCase"`
	Alternating string `json:"alternatingCase"`
	Inverse     string `json:"inverseCase"`
	Random      string `json:"randomCase"`
}

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	titleWord     = regexp.MustCompile(`\w\S*`)
	sentenceStart = regexp.MustCompile(`(^\w|\.\s+\w)`)
	punctuation   = regexp.MustCompile(`[^\w\s]`)
	digit         = regexp.MustCompile(`\d`)
)

// Convert applies every conversion to text. Blank input yields an empty
// Result.
func Convert(text string, opts Options) Result {
	if strings.TrimSpace(text) == "" {
		return Result{}
	}

	processed := text
	if opts.RemoveExtraSpaces {
		processed = strings.TrimSpace(whitespaceRun.ReplaceAllString(processed, " "))
	}
	if !opts.PreserveLineBreaks {
		processed = strings.ReplaceAll(processed, "\n", " ")
	}

	words := identifierWords(processed, opts)
	snakeSep, kebabSep := "_", "-"
	if opts.Separator != "" {
		snakeSep, kebabSep = opts.Separator, opts.Separator
	}

	res := Result{
		Original:    processed,
		Upper:       strings.ToUpper(processed),
		Lower:       strings.ToLower(processed),
		Title:       titleWord.ReplaceAllStringFunc(processed, capitalize),
		Sentence:    sentenceStart.ReplaceAllStringFunc(strings.ToLower(processed), strings.ToUpper),
		Camel:       camel(words),
		Pascal:      joinMapped(words, "", capitalize),
		Snake:       joinMapped(words, snakeSep, strings.ToLower),
		Kebab:       joinMapped(words, kebabSep, strings.ToLower),
		Constant:    joinMapped(words, "_", strings.ToUpper),
		Alternating: alternating(processed),
		Inverse:     inverse(processed),
		Random:      random(processed, opts.Rand),
	}

	if opts.Prefix != "" || opts.Suffix != "" {
		wrap := func(s *string) {
			*s = opts.Prefix + *s + opts.Suffix
		}
		for _, s := range []*string{&res.Camel, &res.Pascal, &res.Snake, &res.Kebab, &res.Constant} {
			if *s != "" {
				wrap(s)
			}
		}
		wrap(&res.Alternating)
		wrap(&res.Inverse)
		wrap(&res.Random)
	}
	return res
}

// Style names accepted by Apply.
var Styles = []string{
	"upper", "lower", "title", "sentence", "camel", "pascal", "snake",
	"kebab", "constant", "alternating", "inverse", "random",
}

// Apply returns a single conversion by style name.
func (r Result) Apply(style string) (string, bool) {
	switch strings.ToLower(style) {
	case "original":
		return r.Original, true
	case "upper":
		return r.Upper, true
	case "lower":
		return r.Lower, true
	case "title":
		return r.Title, true
	case "sentence":
		return r.Sentence, true
	case "camel":
		return r.Camel, true
	case "pascal":
		return r.Pascal, true
	case "snake":
		return r.Snake, true
	case "kebab":
		return r.Kebab, true
	case "constant":
		return r.Constant, true
	case "alternating":
		return r.Alternating, true
	case "inverse":
		return r.Inverse, true
	case "random":
		return r.Random, true
	}
	return "", false
}

func identifierWords(text string, opts Options) []string {
	clean := text
	if !opts.KeepPunctuation {
		clean = punctuation.ReplaceAllString(clean, "")
	}
	if !opts.PreserveNumbers {
		clean = digit.ReplaceAllString(clean, "")
	}
	return strings.Fields(clean)
}

func capitalize(word string) string {
	r := []rune(word)
	if len(r) == 0 {
		return word
	}
	return strings.ToUpper(string(r[0])) + strings.ToLower(string(r[1:]))
}

func camel(words []string) string {
	if len(words) == 0 {
		return ""
	}
	return strings.ToLower(words[0]) + joinMapped(words[1:], "", capitalize)
}

func joinMapped(words []string, sep string, f func(string) string) string {
	mapped := make([]string, len(words))
	for i, w := range words {
		mapped[i] = f(w)
	}
	return strings.Join(mapped, sep)
}

func alternating(text string) string {
	var b strings.Builder
	for i, r := range []rune(text) {
		if i%2 == 0 {
			b.WriteRune(unicode.ToLower(r))
		} else {
			b.WriteRune(unicode.ToUpper(r))
		}
	}
	return b.String()
}

func inverse(text string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsUpper(r) {
			return unicode.ToLower(r)
		}
		return unicode.ToUpper(r)
	}, text)
}

func random(text string, rng *rand.Rand) string {
	coin := rand.Float64
	if rng != nil {
		coin = rng.Float64
	}
	return strings.Map(func(r rune) rune {
		if coin() > 0.5 {
			return unicode.ToUpper(r)
		}
		return unicode.ToLower(r)
	}, text)
}
