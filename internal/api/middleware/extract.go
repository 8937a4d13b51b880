package middleware

import (
	"net/http"
	"strings"
)

const (
	DefaultTokenHeader = "X-Authentication"
	DefaultTokenCookie = "token"
)

// TokenSource names where a request may carry its bearer token.
type TokenSource struct {
	Header string
	Cookie string
}

func (s TokenSource) withDefaults() TokenSource {
	if s.Header == "" {
		s.Header = DefaultTokenHeader
	}
	if s.Cookie == "" {
		s.Cookie = DefaultTokenCookie
	}
	return s
}

// Extract returns the request's token, looking at the header first and the
// cookie second. ok is false when neither carries a usable value.
func (s TokenSource) Extract(r *http.Request) (token string, ok bool) {
	token, _, ok = s.lookup(r)
	return token, ok
}

// lookup is Extract that also reports where the token was found.
func (s TokenSource) lookup(r *http.Request) (token, from string, ok bool) {
	s = s.withDefaults()

	if v := r.Header.Get(s.Header); isPrintableASCII(v) && strings.TrimSpace(v) != "" {
		return v, "header", true
	}
	if c, err := r.Cookie(s.Cookie); err == nil && c.Value != "" {
		return c.Value, "cookie", true
	}
	return "", "", false
}

// ExtractToken applies the default token source to r.
func ExtractToken(r *http.Request) (string, bool) {
	return TokenSource{}.Extract(r)
}

// isPrintableASCII rejects header values that are not plain visible ASCII,
// which upstream would not accept as a token anyway.
func isPrintableASCII(v string) bool {
	for i := 0; i < len(v); i++ {
		b := v[i]
		if b != '\t' && (b < 0x20 || b > 0x7e) {
			return false
		}
	}
	return true
}
