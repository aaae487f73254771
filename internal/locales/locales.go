// Package locales embeds the translated messages loaded into the i18n
// bundle. Files are laid out as {lang}/{namespace}.yaml.
package locales

import (
	"embed"
	"io/fs"
)

//go:embed en
var files embed.FS

// FS returns the locale tree for i18n.WithYAMLDir.
func FS() fs.FS {
	return files
}
