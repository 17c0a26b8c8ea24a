package spider

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/ketohub/crawler/limiter"
	"go.uber.org/zap"
)

var ErrDisallowedDomain = errors.New("url outside allowed domains")

// Site is the crawl profile of one recipe website. It is built once at
// start and never mutated while crawling.
type Site struct {
	Options
}

type Options struct {
	Name           string   // 站点名称，应保证唯一性
	AllowedDomains []string // empty allows every domain
	StartURLs      []string
	Rules          RuleSet
	Image          ImageLocator
	Cookie         string
	Workers        int           // concurrent fetches for this site
	Delay          time.Duration // minimum spacing between two requests
	Timeout        time.Duration // http超时时间
	MaxDepth       int64         // 0 means unlimited
	RespectRobots  bool
	Limit          limiter.RateLimiter // extra limits on top of Delay
	logger         *zap.Logger
}

var defaultOptions = Options{
	logger:  zap.NewNop(),
	Image:   NoImage{},
	Workers: 4,
	Delay:   500 * time.Millisecond,
	Timeout: 10 * time.Second,
}

type Option func(opts *Options)

func NewSite(opts ...Option) *Site {
	options := defaultOptions
	for _, opt := range opts {
		opt(&options)
	}

	return &Site{Options: options}
}

// With returns a copy of s with opts applied.
func (s *Site) With(opts ...Option) *Site {
	options := s.Options
	for _, opt := range opts {
		opt(&options)
	}

	return &Site{Options: options}
}

func (s *Site) Logger() *zap.Logger {
	if s.logger == nil {
		return zap.NewNop()
	}

	return s.logger
}

func (s *Site) Validate() error {
	if s.Name == "" {
		return errors.New("site name is empty")
	}

	if len(s.StartURLs) == 0 {
		return fmt.Errorf("site %s: no start urls", s.Name)
	}

	if len(s.Rules) == 0 {
		return fmt.Errorf("site %s: no crawl rules", s.Name)
	}

	if s.Workers <= 0 {
		return fmt.Errorf("site %s: workers must be positive", s.Name)
	}

	for _, u := range s.StartURLs {
		if !s.Allowed(u) {
			return fmt.Errorf("site %s: start url %s: %w", s.Name, u, ErrDisallowedDomain)
		}
	}

	return nil
}

// Allowed reports whether the url's host is one of the allowed domains or a
// subdomain of one.
func (s *Site) Allowed(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		return false
	}

	if len(s.AllowedDomains) == 0 {
		return true
	}

	host := strings.ToLower(u.Hostname())
	for _, d := range s.AllowedDomains {
		d = strings.ToLower(strings.TrimPrefix(d, "."))
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}

	return false
}

// Seeds returns the frontier entries for the start urls.
func (s *Site) Seeds() []*Request {
	now := time.Now()
	reqs := make([]*Request, 0, len(s.StartURLs))

	for _, u := range s.StartURLs {
		reqs = append(reqs, &Request{
			Site:         s,
			URL:          u,
			Rule:         s.Rules.Match(u),
			DiscoveredAt: now,
		})
	}

	return reqs
}

func WithLogger(logger *zap.Logger) Option {
	return func(opts *Options) {
		opts.logger = logger
	}
}

func WithName(name string) Option {
	return func(opts *Options) {
		opts.Name = name
	}
}

func WithAllowedDomains(domains ...string) Option {
	return func(opts *Options) {
		opts.AllowedDomains = domains
	}
}

func WithStartURLs(urls ...string) Option {
	return func(opts *Options) {
		opts.StartURLs = urls
	}
}

func WithRules(rules ...*Rule) Option {
	return func(opts *Options) {
		opts.Rules = rules
	}
}

func WithImageLocator(l ImageLocator) Option {
	return func(opts *Options) {
		opts.Image = l
	}
}

func WithCookie(cookie string) Option {
	return func(opts *Options) {
		opts.Cookie = cookie
	}
}

func WithWorkers(n int) Option {
	return func(opts *Options) {
		opts.Workers = n
	}
}

func WithDelay(d time.Duration) Option {
	return func(opts *Options) {
		opts.Delay = d
	}
}

func WithTimeout(timeout time.Duration) Option {
	return func(opts *Options) {
		opts.Timeout = timeout
	}
}

func WithMaxDepth(maxDepth int64) Option {
	return func(opts *Options) {
		opts.MaxDepth = maxDepth
	}
}

func WithRespectRobots(respect bool) Option {
	return func(opts *Options) {
		opts.RespectRobots = respect
	}
}

func WithLimit(l limiter.RateLimiter) Option {
	return func(opts *Options) {
		opts.Limit = l
	}
}
