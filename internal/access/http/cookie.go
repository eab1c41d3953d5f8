package http

import (
	"net/http"
	"strings"
	"time"
)

// CookieConfig describes how session cookies are named and scoped.
type CookieConfig struct {
	Prefix string
	Path   string
	Secure bool
}

// CookieName returns the session cookie name for slug.
func (c CookieConfig) CookieName(slug string) string {
	return c.Prefix + slug
}

func (c CookieConfig) cookiePath(slug string) string {
	return strings.TrimSuffix(c.Path, "/") + "/" + slug
}

// BuildSessionCookie returns the HttpOnly, SameSite=Lax cookie carrying token for slug.
// It expires together with the token.
func BuildSessionCookie(cfg CookieConfig, slug, token string, expiresAt time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     cfg.CookieName(slug),
		Value:    token,
		Path:     cfg.cookiePath(slug),
		Expires:  expiresAt.UTC(),
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// ClearSessionCookie returns a cookie that removes the session cookie of slug.
func ClearSessionCookie(cfg CookieConfig, slug string) *http.Cookie {
	return &http.Cookie{
		Name:     cfg.CookieName(slug),
		Value:    "",
		Path:     cfg.cookiePath(slug),
		Expires:  time.Unix(0, 0).UTC(),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// sessionToken reads the session cookie of slug from r. Returns "" when absent.
func sessionToken(r *http.Request, cfg CookieConfig, slug string) string {
	cookie, err := r.Cookie(cfg.CookieName(slug))
	if err != nil {
		return ""
	}
	return cookie.Value
}
