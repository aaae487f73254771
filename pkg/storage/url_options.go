package storage

import "time"

// URLOption configures URL generation.
type URLOption func(*urlOptions)

type urlOptions struct {
	downloadName string
	expiry       time.Duration
	signed       bool
}

// DefaultURLExpiry is the lifetime of presigned GET URLs.
const DefaultURLExpiry = 15 * time.Minute

// WithSigned requests a presigned GET URL. Zero expiry uses DefaultURLExpiry.
func WithSigned(expiry time.Duration) URLOption {
	return func(o *urlOptions) {
		o.signed = true
		if expiry > 0 {
			o.expiry = expiry
		}
	}
}

// WithDownload signs the URL with an attachment Content-Disposition.
func WithDownload(filename string) URLOption {
	return func(o *urlOptions) {
		o.signed = true
		o.downloadName = filename
	}
}
