package middlewares

import (
	"github.com/doumori-team/animalcrossingcommunity-public-sub007/internal"
	"github.com/doumori-team/animalcrossingcommunity-public-sub007/pkg/i18n"
)

// DefaultI18nNamespace is the namespace API error messages live in.
const DefaultI18nNamespace = "errors"

type i18nConfig struct {
	namespace string
	extractor internal.Extractor
}

type I18nOption func(*i18nConfig)

func WithI18nNamespace(ns string) I18nOption {
	return func(cfg *i18nConfig) {
		if ns != "" {
			cfg.namespace = ns
		}
	}
}

// WithI18nExtractor replaces the language lookup chain.
func WithI18nExtractor(ext internal.Extractor) I18nOption {
	return func(cfg *i18nConfig) {
		cfg.extractor = ext
	}
}

// I18n resolves the request language and stores a Translator for
// Context.T. The default chain is the "lang" query parameter, the "lang"
// cookie, then Accept-Language; the result is matched against the bundle's
// languages.
func I18n(bundle *i18n.Bundle, opts ...I18nOption) internal.Middleware {
	cfg := &i18nConfig{
		namespace: DefaultI18nNamespace,
		extractor: internal.NewExtractor(
			internal.FromQuery("lang"),
			internal.FromCookie("lang"),
			internal.FromHeader("Accept-Language"),
		),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(c internal.Context) error {
			lang := bundle.DefaultLanguage()
			if raw, ok := cfg.extractor.Extract(c); ok {
				lang = bundle.Match(raw)
			}

			c.Set(internal.TranslatorKey{}, i18n.NewTranslator(bundle, lang, cfg.namespace))
			return next(c)
		}
	}
}
