package language

import (
	"strings"

	"golang.org/x/text/cases"
	xlanguage "golang.org/x/text/language"
)

// Default is the language used whenever a request names none or an unsupported one.
const Default = "Hindi"

type entry struct {
	code2   string // ISO 639-1 (2-letter)
	code3   string // ISO 639-2 (3-letter)
	display string // Name accepted by the embed host
}

var languages = []entry{
	{"hi", "hin", "Hindi"},
	{"en", "eng", "English"},
	{"bn", "ben", "Bengali"},
	{"ta", "tam", "Tamil"},
	{"te", "tel", "Telugu"},
}

// Index maps built at init time.
var (
	byCode2   map[string]*entry
	byCode3   map[string]*entry
	byDisplay map[string]*entry
)

func init() {
	byCode2 = make(map[string]*entry, len(languages))
	byCode3 = make(map[string]*entry, len(languages))
	byDisplay = make(map[string]*entry, len(languages))
	for i := range languages {
		e := &languages[i]
		byCode2[e.code2] = e
		byCode3[e.code3] = e
		byDisplay[fold(e.display)] = e
	}
}

// fold builds a fresh Caser per call; Casers keep state and must not be shared.
func fold(value string) string {
	return cases.Fold().String(value)
}

func lookup(value string) *entry {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	folded := fold(value)
	if e, ok := byDisplay[folded]; ok {
		return e
	}
	if e, ok := byCode2[folded]; ok {
		return e
	}
	if e, ok := byCode3[folded]; ok {
		return e
	}
	// BCP-47 tags such as "hi-IN" or "ta-Taml-IN" resolve through their base
	// language. A base guessed from region alone ("und-IN") is not accepted.
	tag, err := xlanguage.Parse(value)
	if err != nil {
		return nil
	}
	base, confidence := tag.Base()
	if confidence < xlanguage.High {
		return nil
	}
	if e, ok := byCode2[base.String()]; ok {
		return e
	}
	return nil
}

// Canonical returns the supported display name for value and whether it was recognized.
// Exact names, case-insensitive names, ISO 639 codes and BCP-47 tags are accepted.
func Canonical(value string) (string, bool) {
	if e := lookup(value); e != nil {
		return e.display, true
	}
	return "", false
}

// Normalize maps value onto a supported language, falling back to Default.
// It never fails: unknown input silently becomes Default.
func Normalize(value string) string {
	return NormalizeWithFallback(value, Default)
}

// NormalizeWithFallback maps value onto a supported language, using fallback
// (itself normalized) when value is not recognized.
func NormalizeWithFallback(value, fallback string) string {
	if name, ok := Canonical(value); ok {
		return name
	}
	if name, ok := Canonical(fallback); ok {
		return name
	}
	return Default
}

// IsSupported reports whether value names a supported language exactly.
func IsSupported(value string) bool {
	for _, e := range languages {
		if e.display == value {
			return true
		}
	}
	return false
}

// Supported returns the supported display names in preference order.
func Supported() []string {
	names := make([]string, 0, len(languages))
	for _, e := range languages {
		names = append(names, e.display)
	}
	return names
}
