// Package i18n looks up translated strings by language, namespace and key.
//
// Translations are YAML files laid out as {lang}/{namespace}.yaml; nested
// keys are addressed with dots. Values may contain {{name}} placeholders.
// Lookups fall back from a regional tag to its base language and then to the
// default language; a missing key returns the key itself.
package i18n
