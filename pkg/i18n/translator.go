package i18n

// Translator binds a Bundle to one language and namespace.
type Translator struct {
	bundle    *Bundle
	language  string
	namespace string
}

func NewTranslator(b *Bundle, lang, namespace string) *Translator {
	if lang == "" {
		lang = b.DefaultLanguage()
	}
	return &Translator{bundle: b, language: lang, namespace: namespace}
}

func (t *Translator) T(key string, m ...M) string {
	return t.bundle.T(t.language, t.namespace, key, m...)
}

func (t *Translator) Language() string { return t.language }
