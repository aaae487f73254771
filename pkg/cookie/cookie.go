// Package cookie reads and writes HTTP cookies with shared defaults and
// optional HMAC-SHA256 signing.
package cookie

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"net/http"
	"strings"
)

var (
	ErrNotFound  = errors.New("cookie: not found")
	ErrNoSecret  = errors.New("cookie: secret required")
	ErrBadSecret = errors.New("cookie: secret must be 32+ bytes")
	ErrBadSig    = errors.New("cookie: invalid signature")
)

// MinSecretLength is the shortest accepted signing secret.
const MinSecretLength = 32

// Manager applies path, domain and flag defaults to every cookie it sets.
type Manager struct {
	secret   []byte
	domain   string
	path     string
	sameSite http.SameSite
	secure   bool
	httpOnly bool
}

type Option func(*Manager)

// New returns a Manager. A non-empty secret shorter than MinSecretLength is rejected.
func New(secret string, opts ...Option) (*Manager, error) {
	if secret != "" && len(secret) < MinSecretLength {
		return nil, ErrBadSecret
	}
	m := &Manager{
		path:     "/",
		httpOnly: true,
		sameSite: http.SameSiteLaxMode,
	}
	if secret != "" {
		m.secret = []byte(secret)
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

func WithDomain(domain string) Option {
	return func(m *Manager) { m.domain = domain }
}

func WithSecure(secure bool) Option {
	return func(m *Manager) { m.secure = secure }
}

func WithSameSite(ss http.SameSite) Option {
	return func(m *Manager) { m.sameSite = ss }
}

func (m *Manager) Get(r *http.Request, name string) (string, error) {
	c, err := r.Cookie(name)
	if errors.Is(err, http.ErrNoCookie) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return c.Value, nil
}

// Set writes a cookie. maxAge follows http.Cookie semantics.
func (m *Manager) Set(w http.ResponseWriter, name, value string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     m.path,
		Domain:   m.domain,
		MaxAge:   maxAge,
		Secure:   m.secure,
		HttpOnly: m.httpOnly,
		SameSite: m.sameSite,
	})
}

func (m *Manager) Delete(w http.ResponseWriter, name string) {
	m.Set(w, name, "", -1)
}

// SetSigned writes value with an HMAC so tampering is detected by GetSigned.
func (m *Manager) SetSigned(w http.ResponseWriter, name, value string, maxAge int) error {
	if m.secret == nil {
		return ErrNoSecret
	}
	m.Set(w, name, m.sign(name, value), maxAge)
	return nil
}

// GetSigned returns the value written by SetSigned.
func (m *Manager) GetSigned(r *http.Request, name string) (string, error) {
	if m.secret == nil {
		return "", ErrNoSecret
	}
	raw, err := m.Get(r, name)
	if err != nil {
		return "", err
	}

	enc, sig, ok := strings.Cut(raw, ".")
	if !ok {
		return "", ErrBadSig
	}
	value, err := base64.RawURLEncoding.DecodeString(enc)
	if err != nil {
		return "", ErrBadSig
	}
	if !hmac.Equal([]byte(m.sign(name, string(value))), []byte(enc+"."+sig)) {
		return "", ErrBadSig
	}
	return string(value), nil
}

// sign binds the signature to the cookie name so values cannot be moved
// between cookies.
func (m *Manager) sign(name, value string) string {
	mac := hmac.New(sha256.New, m.secret)
	mac.Write([]byte(name))
	mac.Write([]byte{0})
	mac.Write([]byte(value))
	return base64.RawURLEncoding.EncodeToString([]byte(value)) + "." +
		base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
