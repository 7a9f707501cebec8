package lib

import (
	"net/url"
	"strings"
)

const (
	DefaultCallbackRedirect = "/order?verified=1"
	AdminLoginPath          = "/admin/login"
)

// SafeRedirectPath accepts only same-site absolute paths; anything else yields fallback.
func SafeRedirectPath(next, fallback string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.Contains(next, "\\") {
		return fallback
	}
	u, err := url.Parse(next)
	if err != nil || u.IsAbs() || u.Host != "" {
		return fallback
	}
	return next
}

// AdminLoginURL preserves the requested path and query for post-login redirect.
func AdminLoginURL(requestURI string) string {
	return AdminLoginPath + "?redirectTo=" + url.QueryEscape(requestURI)
}
