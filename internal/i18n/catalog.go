// Package i18n holds the dashboard's presentation strings. The English,
// Chinese and bilingual dashboards share one implementation and differ only
// in the entries of locales.yaml.
package i18n

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
	"gopkg.in/yaml.v2"
)

//go:embed locales.yaml
var embeddedLocales []byte

// OptionSets are the dropdown values offered for a locale.
type OptionSets struct {
	Voices    []string `yaml:"voices" json:"voices"`
	Styles    []string `yaml:"styles" json:"styles"`
	Languages []string `yaml:"languages" json:"languages"`
	SyncModes []string `yaml:"sync_modes" json:"sync_modes"`
}

// Locale is one entry of the presentation table.
type Locale struct {
	Code    string            `yaml:"code"`
	Name    string            `yaml:"name"`
	Tags    []string          `yaml:"tags"`
	Labels  map[string]string `yaml:"labels"`
	Options OptionSets        `yaml:"options"`

	tag   language.Tag
	title cases.Caser
}

type table struct {
	Default string    `yaml:"default"`
	Locales []*Locale `yaml:"locales"`
}

// Catalog resolves locale codes and Accept-Language headers to Locales.
type Catalog struct {
	fallback   string
	locales    map[string]*Locale
	order      []*Locale
	matcher    language.Matcher
	matchCodes []string
}

// Default parses the embedded locales.yaml.
func Default() (*Catalog, error) {
	return Parse(embeddedLocales)
}

// Parse builds a Catalog from a YAML table.
func Parse(data []byte) (*Catalog, error) {
	var t table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("i18n: decode table: %w", err)
	}
	if len(t.Locales) == 0 {
		return nil, errors.New("i18n: table has no locales")
	}
	c := &Catalog{locales: make(map[string]*Locale, len(t.Locales))}
	var tags []language.Tag
	for _, l := range t.Locales {
		l.Code = strings.ToLower(strings.TrimSpace(l.Code))
		if l.Code == "" {
			return nil, errors.New("i18n: locale without code")
		}
		if _, dup := c.locales[l.Code]; dup {
			return nil, fmt.Errorf("i18n: duplicate locale %q", l.Code)
		}
		if l.Labels == nil {
			l.Labels = map[string]string{}
		}
		l.tag = language.English
		for i, raw := range l.Tags {
			tag, err := language.Parse(raw)
			if err != nil {
				return nil, fmt.Errorf("i18n: locale %q: %w", l.Code, err)
			}
			if i == 0 {
				l.tag = tag
			}
			tags = append(tags, tag)
			c.matchCodes = append(c.matchCodes, l.Code)
		}
		l.title = cases.Title(l.tag)
		c.locales[l.Code] = l
		c.order = append(c.order, l)
	}
	c.fallback = strings.ToLower(strings.TrimSpace(t.Default))
	if _, ok := c.locales[c.fallback]; !ok {
		c.fallback = c.order[0].Code
	}
	if len(tags) > 0 {
		c.matcher = language.NewMatcher(tags)
	}
	return c, nil
}

// Fallback returns the table's default locale code.
func (c *Catalog) Fallback() string { return c.fallback }

// SetFallback overrides the table default. Unknown codes are ignored and
// reported as false.
func (c *Catalog) SetFallback(code string) bool {
	code = strings.ToLower(strings.TrimSpace(code))
	if _, ok := c.locales[code]; !ok {
		return false
	}
	c.fallback = code
	return true
}

// Locales returns all locales in table order.
func (c *Catalog) Locales() []*Locale {
	return append([]*Locale(nil), c.order...)
}

// Has reports whether code names a locale in the table.
func (c *Catalog) Has(code string) bool {
	_, ok := c.locales[strings.ToLower(strings.TrimSpace(code))]
	return ok
}

// Get returns the locale for code, or the default locale.
func (c *Catalog) Get(code string) *Locale {
	if l, ok := c.locales[strings.ToLower(strings.TrimSpace(code))]; ok {
		return l
	}
	return c.locales[c.fallback]
}

// Match negotiates an Accept-Language style value against the table. Locales
// without tags (the bilingual one) are only reachable by explicit code.
func (c *Catalog) Match(accept string) (string, bool) {
	if c.matcher == nil || strings.TrimSpace(accept) == "" {
		return "", false
	}
	wanted, _, err := language.ParseAcceptLanguage(accept)
	if err != nil || len(wanted) == 0 {
		return "", false
	}
	_, idx, conf := c.matcher.Match(wanted...)
	if conf == language.No || idx < 0 || idx >= len(c.matchCodes) {
		return "", false
	}
	return c.matchCodes[idx], true
}

// T returns the label for key, or key itself when the table has none.
func (l *Locale) T(key string) string {
	if v, ok := l.Labels[key]; ok && v != "" {
		return v
	}
	return key
}

// OptionLabel renders a dropdown value: an explicit opt.<value> label when
// present, the title-cased value otherwise.
func (l *Locale) OptionLabel(value string) string {
	if v, ok := l.Labels["opt."+value]; ok && v != "" {
		return v
	}
	return l.title.String(value)
}

// LanguageLabel renders a language code in the locale's own language, e.g.
// "de" as "German" or "德语".
func (l *Locale) LanguageLabel(code string) string {
	if v, ok := l.Labels["opt."+code]; ok && v != "" {
		return v
	}
	tag, err := language.Parse(code)
	if err != nil {
		return code
	}
	namer := display.Tags(l.tag)
	if namer == nil {
		return code
	}
	if name := namer.Name(tag); name != "" {
		return name
	}
	return code
}
