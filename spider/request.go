package spider

import (
	"errors"
	"net/url"
	"strings"
	"time"
)

// 单个请求
type Request struct {
	Site         *Site
	URL          string
	Referer      string
	Depth        int64
	Rule         *Rule // rule that accepted the link, nil for start URLs
	DiscoveredAt time.Time
}

func (r *Request) Check() error {
	if r.Site.MaxDepth > 0 && r.Depth > r.Site.MaxDepth {
		return errors.New("max depth limit reached")
	}

	return nil
}

// 请求的唯一识别码
func (r *Request) Unique() string {
	n, err := Normalize(r.URL)
	if err != nil {
		return r.URL
	}

	return n
}

// Terminal reports whether the fetched page is a recipe page.
func (r *Request) Terminal() bool {
	return r.Rule != nil && r.Rule.Role == RoleTerminal
}

// Follow reports whether outbound links of the fetched page are classified.
// Start urls are always followed.
func (r *Request) Follow() bool {
	if r.Depth == 0 || r.Rule == nil {
		return true
	}

	return r.Rule.Role == RoleTraverse || r.Rule.Follow
}

// Normalize returns the Seen Set form of a URL.
func Normalize(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", err
	}

	scheme := strings.ToLower(u.Scheme)
	if scheme == "" {
		scheme = "http"
	}

	host := strings.ToLower(u.Hostname())
	if port := u.Port(); port != "" && port != defaultPort(scheme) {
		host = host + ":" + port
	}

	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}

	n := scheme + "://" + host + path
	if u.RawQuery != "" {
		n += "?" + u.RawQuery
	}

	return n, nil
}

func defaultPort(scheme string) string {
	switch scheme {
	case "http":
		return "80"
	case "https":
		return "443"
	default:
		return ""
	}
}
