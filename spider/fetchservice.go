package spider

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ketohub/crawler/extensions"
	"github.com/ketohub/crawler/proxy"
	"go.uber.org/zap"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

type FetchType int

const (
	BaseFetchType FetchType = iota
	BrowserFetchType
)

// Response is a successful fetch. Raw holds the bytes as received; Body is
// Raw decoded to UTF-8 for text responses and Raw itself otherwise.
type Response struct {
	URL         string // after redirects
	StatusCode  int
	Header      http.Header
	ContentType string // header value, sniffed when the header is missing
	Raw         []byte
	Body        []byte
	FetchedAt   time.Time
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("error status code:%d url:%s", e.StatusCode, e.URL)
}

type Fetcher interface {
	Get(ctx context.Context, req *Request) (*Response, error)
}

type fetchOptions struct {
	client    *http.Client
	proxy     proxy.Func
	userAgent string
}

type FetchOption func(opts *fetchOptions)

// WithHTTPClient replaces the client used for every request.
func WithHTTPClient(c *http.Client) FetchOption {
	return func(opts *fetchOptions) {
		opts.client = c
	}
}

func WithProxy(p proxy.Func) FetchOption {
	return func(opts *fetchOptions) {
		opts.proxy = p
	}
}

// WithUserAgent fixes the User-Agent of the browser fetcher, which
// otherwise picks a random one per request.
func WithUserAgent(ua string) FetchOption {
	return func(opts *fetchOptions) {
		opts.userAgent = ua
	}
}

func NewFetchService(typ FetchType, opts ...FetchOption) Fetcher {
	var options fetchOptions
	for _, opt := range opts {
		opt(&options)
	}

	if options.client == nil {
		options.client = &http.Client{}
		if options.proxy != nil {
			transport := http.DefaultTransport.(*http.Transport).Clone()
			transport.Proxy = options.proxy
			options.client.Transport = transport
		}
	}

	switch typ {
	case BaseFetchType:
		return &baseFetch{client: options.client}
	default:
		return &browserFetch{fetchOptions: options}
	}
}

type baseFetch struct {
	client *http.Client
}

func (b *baseFetch) Get(ctx context.Context, req *Request) (*Response, error) {
	ctx, cancel := withSiteTimeout(ctx, req)
	defer cancel()

	r, err := http.NewRequestWithContext(ctx, http.MethodGet, req.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("get url failed:%w", err)
	}

	return do(b.client, r)
}

type browserFetch struct {
	fetchOptions
}

// 模拟浏览器访问
func (b *browserFetch) Get(ctx context.Context, req *Request) (*Response, error) {
	ctx, cancel := withSiteTimeout(ctx, req)
	defer cancel()

	r, err := http.NewRequestWithContext(ctx, http.MethodGet, req.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("get url failed:%w", err)
	}

	if req.Site != nil && len(req.Site.Cookie) > 0 {
		r.Header.Set("Cookie", req.Site.Cookie)
	}

	if req.Referer != "" {
		r.Header.Set("Referer", req.Referer)
	}

	ua := b.userAgent
	if ua == "" {
		ua = extensions.GenerateRandomUA()
	}
	r.Header.Set("User-Agent", ua)

	return do(b.client, r)
}

func withSiteTimeout(ctx context.Context, req *Request) (context.Context, context.CancelFunc) {
	if req.Site != nil && req.Site.Timeout > 0 {
		return context.WithTimeout(ctx, req.Site.Timeout)
	}

	return context.WithCancel(ctx)
}

func do(client *http.Client, r *http.Request) (*Response, error) {
	resp, err := client.Do(r)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{URL: r.URL.String(), StatusCode: resp.StatusCode}
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(raw)
	}

	body := raw
	if isText(contentType) {
		bodyReader := bufio.NewReader(bytes.NewReader(raw))
		e := DeterminEncoding(bodyReader, contentType)
		if body, err = io.ReadAll(transform.NewReader(bodyReader, e.NewDecoder())); err != nil {
			return nil, fmt.Errorf("decode body: %w", err)
		}
	}

	return &Response{
		URL:         resp.Request.URL.String(),
		StatusCode:  resp.StatusCode,
		Header:      resp.Header,
		ContentType: contentType,
		Raw:         raw,
		Body:        body,
		FetchedAt:   time.Now().UTC(),
	}, nil
}

func isText(contentType string) bool {
	ct := strings.ToLower(contentType)

	return strings.HasPrefix(ct, "text/") || strings.Contains(ct, "html") || strings.Contains(ct, "xml")
}

func DeterminEncoding(r *bufio.Reader, contentType string) encoding.Encoding {
	peek, err := r.Peek(1024)

	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		zap.L().Error("fetch failed", zap.Error(err))

		return unicode.UTF8
	}

	e, _, _ := charset.DetermineEncoding(peek, contentType)

	return e
}
