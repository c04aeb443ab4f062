package i18n

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/language"
)

// DefaultLocale is used when no supported locale can be negotiated.
const DefaultLocale = "en"

var supported = []language.Tag{language.English, language.French}

var matcher = language.NewMatcher(supported)

// SupportedLocales returns the supported locale codes, default first.
func SupportedLocales() []string {
	out := make([]string, 0, len(supported))
	for _, tag := range supported {
		base, _ := tag.Base()
		out = append(out, base.String())
	}
	return out
}

// IsSupported reports whether locale names one of the supported tables exactly.
func IsSupported(locale string) bool {
	for _, code := range SupportedLocales() {
		if locale == code {
			return true
		}
	}
	return false
}

// Normalize reduces a locale string to its lowercase base language code
// ("FR-ca" -> "fr"). Unparseable input is returned lowercased.
func Normalize(locale string) string {
	locale = strings.TrimSpace(locale)
	if locale == "" {
		return ""
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return strings.ToLower(locale)
	}
	base, _ := tag.Base()
	return base.String()
}

// Negotiate picks the best supported locale for an Accept-Language style
// preference list. Anything unmatched resolves to DefaultLocale.
func Negotiate(preferences ...string) string {
	var tags []language.Tag
	for _, pref := range preferences {
		pref = strings.TrimSpace(pref)
		if pref == "" {
			continue
		}
		parsed, _, err := language.ParseAcceptLanguage(pref)
		if err != nil {
			continue
		}
		tags = append(tags, parsed...)
	}
	if len(tags) == 0 {
		return DefaultLocale
	}
	_, index, confidence := matcher.Match(tags...)
	if confidence == language.No {
		return DefaultLocale
	}
	base, _ := supported[index].Base()
	return base.String()
}

// Catalog resolves keys against the per-locale tables.
type Catalog struct {
	tables map[string]*[keyCount]string
}

// New returns a catalog populated with the built-in tables.
func New() *Catalog {
	return &Catalog{
		tables: map[string]*[keyCount]string{
			"en": &tableEN,
			"fr": &tableFR,
		},
	}
}

// T returns the message for key in locale, formatted with args when given.
// Unsupported locales and empty entries fall back to English.
func (c *Catalog) T(locale string, key Key, args ...any) string {
	msg := c.lookup(locale, key)
	if len(args) == 0 {
		return msg
	}
	return fmt.Sprintf(msg, args...)
}

func (c *Catalog) lookup(locale string, key Key) string {
	if key < 0 || key >= keyCount {
		return ""
	}
	if table, ok := c.tables[locale]; ok && table[key] != "" {
		return table[key]
	}
	return c.tables[DefaultLocale][key]
}

// For binds the catalog to a locale.
func (c *Catalog) For(locale string) Translator {
	if !IsSupported(locale) {
		locale = DefaultLocale
	}
	return Translator{catalog: c, locale: locale}
}

// Missing reports, per locale, the keys whose table entry is empty.
func (c *Catalog) Missing() map[string][]Key {
	out := make(map[string][]Key)
	locales := make([]string, 0, len(c.tables))
	for locale := range c.tables {
		locales = append(locales, locale)
	}
	sort.Strings(locales)
	for _, locale := range locales {
		table := c.tables[locale]
		for k := Key(0); k < keyCount; k++ {
			if strings.TrimSpace(table[k]) == "" {
				out[locale] = append(out[locale], k)
			}
		}
	}
	return out
}

// Translator is a Catalog bound to one locale.
type Translator struct {
	catalog *Catalog
	locale  string
}

// Locale returns the bound locale code.
func (t Translator) Locale() string {
	return t.locale
}

// T returns the message for key in the bound locale.
func (t Translator) T(key Key, args ...any) string {
	if t.catalog == nil {
		return New().T(t.locale, key, args...)
	}
	return t.catalog.T(t.locale, key, args...)
}

// Text resolves a dotted key name, for templates. Unknown names are returned
// unchanged so gaps are visible on the page.
func (t Translator) Text(name string, args ...any) string {
	key, ok := ParseKey(name)
	if !ok {
		return name
	}
	return t.T(key, args...)
}
