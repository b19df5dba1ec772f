// Package lang maps user language preferences onto the report languages the
// backend can produce.
package lang

import (
	"strings"

	"golang.org/x/text/language"
)

// Default is used when nothing better matches.
const Default = "en"

// Language is a supported report language.
type Language struct {
	Code string
	Name string
}

var supported = []Language{
	{"en", "English"},
	{"es", "Español"},
	{"zh", "中文"},
	{"hi", "हिन्दी"},
	{"fr", "Français"},
	{"ar", "العربية"},
	{"bn", "বাংলা"},
	{"ru", "Русский"},
	{"uk", "Українська"},
	{"pt", "Português"},
	{"de", "Deutsch"},
}

var matcher = func() language.Matcher {
	tags := make([]language.Tag, len(supported))
	for i, l := range supported {
		tags[i] = language.Make(l.Code)
	}
	return language.NewMatcher(tags)
}()

// Supported lists the report languages in display order.
func Supported() []Language {
	return append([]Language(nil), supported...)
}

// IsSupported reports whether code is exactly a supported language code.
func IsSupported(code string) bool {
	for _, l := range supported {
		if l.Code == code {
			return true
		}
	}
	return false
}

// Name returns the native name of code, or "" if it is not supported.
func Name(code string) string {
	for _, l := range supported {
		if l.Code == code {
			return l.Name
		}
	}
	return ""
}

// Match returns the supported language closest to pref. pref may be a BCP 47
// tag ("pt-BR"), a POSIX locale ("de_DE.UTF-8") or an Accept-Language list.
func Match(pref string) string {
	pref = strings.TrimSpace(pref)
	if pref == "" {
		return Default
	}

	var tags []language.Tag
	if strings.ContainsAny(pref, ",;") {
		parsed, _, err := language.ParseAcceptLanguage(pref)
		if err != nil {
			return Default
		}
		tags = parsed
	} else {
		tag, err := language.Parse(normalizePOSIX(pref))
		if err != nil {
			return Default
		}
		tags = []language.Tag{tag}
	}
	if len(tags) == 0 {
		return Default
	}

	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return Default
	}
	return supported[idx].Code
}

// normalizePOSIX turns "de_DE.UTF-8@euro" into "de-DE". The C and POSIX
// locales carry no language.
func normalizePOSIX(s string) string {
	if i := strings.IndexAny(s, ".@"); i >= 0 {
		s = s[:i]
	}
	if s == "C" || s == "POSIX" {
		return Default
	}
	return strings.ReplaceAll(s, "_", "-")
}
