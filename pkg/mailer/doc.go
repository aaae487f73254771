// Package mailer renders Markdown email templates and hands the result to a
// delivery provider.
//
// Templates are Markdown files with optional YAML front matter and Go
// text/template placeholders:
//
//	---
//	subject: "{{.Subject}}"
//	---
//	Hello {{.Username}},
//
//	{{.Body}}
//
// The Markdown is converted to HTML with goldmark and wrapped in an
// html/template layout that receives .Content and .Metadata. The expanded
// Markdown doubles as the plain-text part.
package mailer
