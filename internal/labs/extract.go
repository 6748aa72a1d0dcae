package labs

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/BerylCAtieno/lab-report-summarizer/internal/models"
)

// numberPattern is the value token: digits with an optional fraction.
const numberPattern = `([0-9]+(?:\.[0-9]+)?)`

// wordTrim is what may sit between a label and an excluded qualifier.
const wordTrim = " \t\r\n-(:,/"

type compiledRule struct {
	re        *regexp.Regexp
	notAfter  []string
	notBefore []string
}

type compiledMeasurement struct {
	key   string
	rules []compiledRule
}

// Extractor resolves catalog measurements in free report text. It holds
// only compiled patterns and is safe for concurrent use.
type Extractor struct {
	measurements []compiledMeasurement
}

var defaultExtractor = MustNewExtractor(DefaultCatalog)

// Extract runs DefaultCatalog against text.
func Extract(text string) models.LabSet {
	return defaultExtractor.Extract(text)
}

func NewExtractor(catalog []Measurement) (*Extractor, error) {
	e := &Extractor{measurements: make([]compiledMeasurement, 0, len(catalog))}
	seen := make(map[string]bool, len(catalog))

	for _, m := range catalog {
		if m.Key == "" {
			return nil, fmt.Errorf("measurement %q has no key", m.Name)
		}
		if seen[m.Key] {
			return nil, fmt.Errorf("duplicate measurement key %q", m.Key)
		}
		seen[m.Key] = true

		cm := compiledMeasurement{key: m.Key}
		for i, r := range m.Rules {
			if len(r.Labels) == 0 {
				return nil, fmt.Errorf("%s rule %d has no labels", m.Key, i)
			}
			re, err := regexp.Compile(`(?i)(` + strings.Join(r.Labels, "|") + `)[^0-9]*` + numberPattern)
			if err != nil {
				return nil, fmt.Errorf("%s rule %d: %w", m.Key, i, err)
			}
			cm.rules = append(cm.rules, compiledRule{
				re:        re,
				notAfter:  lowerAll(r.NotAfter),
				notBefore: lowerAll(r.NotBefore),
			})
		}
		e.measurements = append(e.measurements, cm)
	}

	return e, nil
}

func MustNewExtractor(catalog []Measurement) *Extractor {
	e, err := NewExtractor(catalog)
	if err != nil {
		panic(err)
	}
	return e
}

// Extract returns the value of every measurement some rule matched.
// Rules for a key are tried in order and the first match wins; unmatched
// keys are absent. It never fails.
func (e *Extractor) Extract(text string) models.LabSet {
	labs := models.LabSet{}
	if strings.TrimSpace(text) == "" {
		return labs
	}

	lower := strings.ToLower(text)
	for _, m := range e.measurements {
		for _, r := range m.rules {
			if v, ok := r.match(lower); ok {
				labs[m.key] = v
				break
			}
		}
	}

	return labs
}

// match uses the first occurrence of the label that is not excluded. An
// excluded occurrence resumes the search right after its label, so a real
// label inside its gap is still seen. A token that does not parse to a
// finite number makes the rule not match.
func (r compiledRule) match(lower string) (float64, bool) {
	for pos := 0; pos < len(lower); {
		loc := r.re.FindStringSubmatchIndex(lower[pos:])
		if loc == nil {
			return 0, false
		}
		labelStart, labelEnd := pos+loc[2], pos+loc[3]
		if r.excluded(lower[:labelStart], lower[labelEnd:]) {
			if labelEnd > pos {
				pos = labelEnd
			} else {
				pos++
			}
			continue
		}

		v, err := strconv.ParseFloat(lower[pos+loc[4]:pos+loc[5]], 64)
		if err != nil || math.IsInf(v, 0) || math.IsNaN(v) {
			return 0, false
		}
		return v, true
	}
	return 0, false
}

func (r compiledRule) excluded(before, after string) bool {
	for _, w := range r.notAfter {
		if endsWithWord(before, w) {
			return true
		}
	}
	after = strings.TrimLeft(after, wordTrim)
	for _, w := range r.notBefore {
		if strings.HasPrefix(after, w) {
			return true
		}
	}
	return false
}

func endsWithWord(s, word string) bool {
	s = strings.TrimRight(s, wordTrim)
	if !strings.HasSuffix(s, word) {
		return false
	}
	rest := s[:len(s)-len(word)]
	if rest == "" {
		return true
	}
	prev, _ := utf8.DecodeLastRuneInString(rest)
	return !unicode.IsLetter(prev)
}

func lowerAll(words []string) []string {
	out := make([]string, len(words))
	for i, w := range words {
		out[i] = strings.ToLower(w)
	}
	return out
}
