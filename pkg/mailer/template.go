package mailer

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"
)

var frontmatterDelim = []byte("---")

// splitFrontmatter separates the YAML header from the Markdown body.
// Content without a leading delimiter has no metadata.
func splitFrontmatter(content []byte) (map[string]any, []byte, error) {
	meta := map[string]any{}

	content = bytes.TrimPrefix(content, []byte("\ufeff"))
	if !bytes.HasPrefix(content, frontmatterDelim) {
		return meta, content, nil
	}

	rest := bytes.TrimLeft(content[len(frontmatterDelim):], "\r\n")
	head, body, found := bytes.Cut(rest, frontmatterDelim)
	if !found {
		return nil, nil, fmt.Errorf("%w: missing closing delimiter", ErrInvalidFrontmatter)
	}
	body = bytes.TrimPrefix(bytes.TrimPrefix(body, []byte("\r")), []byte("\n"))

	if len(bytes.TrimSpace(head)) > 0 {
		if err := yaml.Unmarshal(head, &meta); err != nil {
			return nil, nil, fmt.Errorf("%w: %w", ErrInvalidFrontmatter, err)
		}
	}
	return meta, body, nil
}
