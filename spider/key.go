package spider

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

var ErrInvalidURL = errors.New("invalid recipe url")

// KeyFromURL derives the archive key of a recipe page, e.g.
// https://www.ruled.me/easy-keto-cordon-bleu/ -> ruled-me-easy-keto-cordon-bleu.
// Scheme, query and fragment are ignored; a leading "www." is dropped.
func KeyFromURL(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}

	host := strings.ToLower(u.Hostname())
	if host == "" {
		return "", fmt.Errorf("%w: %q has no host", ErrInvalidURL, raw)
	}
	host = strings.TrimPrefix(host, "www.")

	var b strings.Builder
	dash := false
	for _, c := range host + "/" + strings.ToLower(u.Path) {
		if (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') {
			b.WriteRune(c)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}

	key := strings.TrimSuffix(b.String(), "-")
	if key == "" {
		return "", fmt.Errorf("%w: %q yields an empty key", ErrInvalidURL, raw)
	}

	return key, nil
}
