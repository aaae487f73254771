package storage

import (
	"net/url"
	"regexp"
	"strings"
)

var imageTypes = map[string]string{
	"png":  "image/png",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"gif":  "image/gif",
	"webp": "image/webp",
}

// ImageContentType returns the MIME type for an image extension.
// The extension is matched case-insensitively, with or without a dot.
func ImageContentType(ext string) (string, error) {
	ct, ok := imageTypes[strings.ToLower(strings.TrimPrefix(ext, "."))]
	if !ok {
		return "", ErrUnsupportedType
	}
	return ct, nil
}

var unsafeSegment = regexp.MustCompile(`[^a-zA-Z0-9\-_.]`)

// BuildKey joins sanitized path segments into an object key.
// Empty segments (after sanitizing) are dropped.
func BuildKey(segments ...string) (string, error) {
	parts := make([]string, 0, len(segments))
	for _, s := range segments {
		if s = sanitizeSegment(s); s != "" {
			parts = append(parts, s)
		}
	}
	if len(parts) == 0 {
		return "", ErrInvalidKeySegments
	}
	return strings.Join(parts, "/"), nil
}

func sanitizeSegment(segment string) string {
	segment = strings.ReplaceAll(segment, "..", "")
	segment = strings.Trim(segment, " /\\")
	segment = unsafeSegment.ReplaceAllString(segment, "_")
	return url.PathEscape(segment)
}
