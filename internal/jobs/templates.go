package jobs

import (
	"embed"
	"io/fs"
)

//go:embed templates
var templates embed.FS

// Templates returns the email templates for mailer.NewRenderer.
func Templates() fs.FS {
	sub, err := fs.Sub(templates, "templates")
	if err != nil {
		panic(err)
	}
	return sub
}
