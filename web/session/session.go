// Package session turns the small key/value bag that identifies a visitor into
// a signed (optionally encrypted) cookie and back. Nothing is stored server-side.
package session

import (
	"net/http"

	"github.com/inkwell-blog/inkwell/config"

	"github.com/gin-contrib/sessions"
	gsessions "github.com/gorilla/sessions"
	"github.com/gorilla/securecookie"
)

const (
	// CookieName is the fixed name of the identity cookie.
	CookieName = "inkwell_session"
	// MaxAge is the session lifetime in seconds (30 days), independent of activity.
	MaxAge = 60 * 60 * 24 * 30
	// KeyUserID is the only field the auth layer reads.
	KeyUserID = "userId"
)

// Codec signs and verifies the session cookie with the server secret.
type Codec struct {
	name    string
	codecs  []securecookie.Codec
	options sessions.Options
}

// NewCodec builds a Codec from the startup configuration. It fails when the
// session secret is missing; callers treat that as fatal.
func NewCodec(cfg *config.Config) (*Codec, error) {
	if cfg == nil || cfg.SessionSecret == "" {
		return nil, config.ErrMissingSecret
	}
	var blockKey []byte
	if cfg.SessionEncryptionKey != "" {
		blockKey = []byte(cfg.SessionEncryptionKey)
	}
	return newCodec([]byte(cfg.SessionSecret), blockKey, cfg.IsProduction(), MaxAge), nil
}

func newCodec(hashKey, blockKey []byte, secure bool, maxAge int) *Codec {
	codecs := securecookie.CodecsFromPairs(hashKey, blockKey)
	for _, c := range codecs {
		if sc, ok := c.(*securecookie.SecureCookie); ok {
			sc.MaxAge(maxAge)
		}
	}
	return &Codec{
		name:   CookieName,
		codecs: codecs,
		options: sessions.Options{
			Path:     "/",
			MaxAge:   maxAge,
			Secure:   secure,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		},
	}
}

func (c *Codec) Name() string {
	return c.name
}

// Options returns the cookie attributes used for every Set-Cookie this codec emits.
func (c *Codec) Options() sessions.Options {
	return c.options
}

// Encode serializes, signs and base64-encodes fields for transport.
func (c *Codec) Encode(fields map[string]string) (string, error) {
	values := make(map[any]any, len(fields))
	for k, v := range fields {
		values[k] = v
	}
	return securecookie.EncodeMulti(c.name, values, c.codecs...)
}

// Decode reverses Encode. Empty, malformed, tampered or expired values all
// decode to an empty map; non-string entries are dropped.
func (c *Codec) Decode(value string) map[string]string {
	fields := make(map[string]string)
	if value == "" {
		return fields
	}

	values := make(map[any]any)
	if err := securecookie.DecodeMulti(c.name, value, &values, c.codecs...); err != nil {
		return fields
	}
	for k, v := range values {
		key, ok := k.(string)
		if !ok {
			continue
		}
		if s, ok := v.(string); ok {
			fields[key] = s
		}
	}
	return fields
}

// Read decodes the session cookie carried by r, if any.
func (c *Codec) Read(r *http.Request) map[string]string {
	cookie, err := r.Cookie(c.name)
	if err != nil {
		return make(map[string]string)
	}
	return c.Decode(cookie.Value)
}

// Cookie encodes fields into a ready-to-send session cookie.
func (c *Codec) Cookie(fields map[string]string) (*http.Cookie, error) {
	value, err := c.Encode(fields)
	if err != nil {
		return nil, err
	}
	return c.newCookie(value, c.options.MaxAge), nil
}

// Expired returns the cookie that makes the client drop its session.
func (c *Codec) Expired() *http.Cookie {
	return c.newCookie("", -1)
}

func (c *Codec) newCookie(value string, maxAge int) *http.Cookie {
	opts := c.options
	opts.MaxAge = maxAge
	return gsessions.NewCookie(c.name, value, opts.ToGorillaOptions())
}
