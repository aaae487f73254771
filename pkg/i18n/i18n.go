package i18n

import (
	"fmt"
	"io/fs"
	"path"
	"strings"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// DefaultLang is used when no default language is configured.
const DefaultLang = "en"

// Bundle holds every loaded translation. It is read-only after New.
type Bundle struct {
	messages    map[string]string // "lang:namespace:key"
	defaultLang string
	languages   []string
	matcher     language.Matcher
}

type Option func(*Bundle) error

func New(opts ...Option) (*Bundle, error) {
	b := &Bundle{
		messages:    make(map[string]string),
		defaultLang: DefaultLang,
	}
	for _, opt := range opts {
		if err := opt(b); err != nil {
			return nil, err
		}
	}

	// The default language goes first so the matcher falls back to it.
	langs := []string{b.defaultLang}
	seen := map[string]bool{b.defaultLang: true}
	for key := range b.messages {
		lang, _, _ := strings.Cut(key, ":")
		if !seen[lang] {
			seen[lang] = true
			langs = append(langs, lang)
		}
	}
	tags := make([]language.Tag, 0, len(langs))
	for _, l := range langs {
		tags = append(tags, language.Make(l))
	}
	b.languages = langs
	b.matcher = language.NewMatcher(tags)

	return b, nil
}

func WithDefaultLanguage(lang string) Option {
	return func(b *Bundle) error {
		if lang == "" {
			return ErrEmptyLanguage
		}
		b.defaultLang = lang
		return nil
	}
}

// WithTranslations adds a nested translation map for lang and namespace.
func WithTranslations(lang, namespace string, values map[string]any) Option {
	return func(b *Bundle) error {
		if lang == "" {
			return ErrEmptyLanguage
		}
		b.add(lang, namespace, "", values)
		return nil
	}
}

// WithYAMLDir loads {lang}/{namespace}.yaml files from fsys.
func WithYAMLDir(fsys fs.FS) Option {
	return func(b *Bundle) error {
		return fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
			if err != nil || d.IsDir() {
				return err
			}
			ext := strings.ToLower(path.Ext(p))
			if ext != ".yaml" && ext != ".yml" {
				return nil
			}
			dir := path.Dir(p)
			if dir == "." {
				return fmt.Errorf("%w: %s is not inside a language directory", ErrInvalidFile, p)
			}

			raw, err := fs.ReadFile(fsys, p)
			if err != nil {
				return err
			}
			var values map[string]any
			if err := yaml.Unmarshal(raw, &values); err != nil {
				return fmt.Errorf("%w: %s: %w", ErrInvalidFile, p, err)
			}

			b.add(path.Base(dir), strings.TrimSuffix(path.Base(p), path.Ext(p)), "", values)
			return nil
		})
	}
}

func (b *Bundle) add(lang, namespace, prefix string, values map[string]any) {
	for k, v := range values {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if nested, ok := v.(map[string]any); ok {
			b.add(lang, namespace, key, nested)
			continue
		}
		b.messages[lang+":"+namespace+":"+key] = fmt.Sprint(v)
	}
}

// T returns the translation of key, trying lang, its base language and the
// default language in turn.
func (b *Bundle) T(lang, namespace, key string, m ...M) string {
	candidates := []string{lang}
	if base, _, ok := strings.Cut(lang, "-"); ok {
		candidates = append(candidates, base)
	}
	candidates = append(candidates, b.defaultLang)

	for _, l := range candidates {
		if s, ok := b.messages[l+":"+namespace+":"+key]; ok {
			var values M
			if len(m) > 0 {
				values = m[0]
			}
			return ReplacePlaceholders(s, values)
		}
	}
	return key
}

// Has reports whether key exists in the default language.
func (b *Bundle) Has(namespace, key string) bool {
	_, ok := b.messages[b.defaultLang+":"+namespace+":"+key]
	return ok
}

// Match picks the best loaded language for an Accept-Language header.
func (b *Bundle) Match(acceptLanguage string) string {
	if acceptLanguage == "" {
		return b.defaultLang
	}
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return b.defaultLang
	}
	_, idx, conf := b.matcher.Match(tags...)
	if conf == language.No {
		return b.defaultLang
	}
	return b.languages[idx]
}

func (b *Bundle) Languages() []string { return b.languages }

func (b *Bundle) DefaultLanguage() string { return b.defaultLang }
