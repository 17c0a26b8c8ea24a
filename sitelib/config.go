package sitelib

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ketohub/crawler/limiter"
	"github.com/ketohub/crawler/spider"
	"go.uber.org/zap"
)

// SiteConfig is the [[Sites]] entry of the configuration file. Zero values
// keep the setting of the built-in profile with the same name.
type SiteConfig struct {
	Name           string
	Enabled        *bool
	AllowedDomains []string
	StartURLs      []string
	Workers        int
	Delay          int64 // 毫秒
	Timeout        int64 // 毫秒
	Cookie         string
	MaxDepth       int64
	RespectRobots  bool
	Image          string // first, second, nth:N or none
	Limits         []limiter.Config
	Rules          []RuleConfig
}

type RuleConfig struct {
	Name    string
	Pattern string
	Scope   string
	Role    string // traverse or terminal
	Follow  bool
}

// Build turns configuration entries into site profiles. Sites carrying
// their own rules are defined entirely by configuration, the rest tune the
// built-in profile of the same name. Entries that cannot be built are
// logged and skipped. Without any entry every built-in profile is used.
func Build(logger *zap.Logger, cfgs []SiteConfig, opts ...spider.Option) []*spider.Site {
	if len(cfgs) == 0 {
		sites := make([]*spider.Site, 0, len(Store.List))
		for _, s := range Store.List {
			sites = append(sites, s.With(opts...))
		}
		return sites
	}

	sites := make([]*spider.Site, 0, len(cfgs))
	for _, cfg := range cfgs {
		if cfg.Enabled != nil && !*cfg.Enabled {
			logger.Info("site disabled", zap.String("site", cfg.Name))
			continue
		}

		s, err := cfg.Build(opts...)
		if err != nil {
			logger.Error("build site failed", zap.String("site", cfg.Name), zap.Error(err))
			continue
		}
		sites = append(sites, s)
	}

	return sites
}

func (cfg SiteConfig) Build(opts ...spider.Option) (*spider.Site, error) {
	var base *spider.Site
	if len(cfg.Rules) > 0 {
		rules, err := cfg.rules()
		if err != nil {
			return nil, err
		}
		base = spider.NewSite(spider.WithName(cfg.Name), spider.WithRules(rules...))
	} else {
		s, ok := Store.Get(cfg.Name)
		if !ok {
			return nil, fmt.Errorf("no built-in profile and no rules for site %q", cfg.Name)
		}
		base = s
	}

	opts = append(opts, cfg.options()...)
	if cfg.Image != "" {
		l, err := ParseImage(cfg.Image)
		if err != nil {
			return nil, err
		}
		opts = append(opts, spider.WithImageLocator(l))
	}

	site := base.With(opts...)
	if err := site.Validate(); err != nil {
		return nil, err
	}

	return site, nil
}

func (cfg SiteConfig) options() []spider.Option {
	var opts []spider.Option

	if len(cfg.AllowedDomains) > 0 {
		opts = append(opts, spider.WithAllowedDomains(cfg.AllowedDomains...))
	}
	if len(cfg.StartURLs) > 0 {
		opts = append(opts, spider.WithStartURLs(cfg.StartURLs...))
	}
	if cfg.Workers > 0 {
		opts = append(opts, spider.WithWorkers(cfg.Workers))
	}
	if cfg.Delay > 0 {
		opts = append(opts, spider.WithDelay(time.Duration(cfg.Delay)*time.Millisecond))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, spider.WithTimeout(time.Duration(cfg.Timeout)*time.Millisecond))
	}
	if cfg.Cookie != "" {
		opts = append(opts, spider.WithCookie(cfg.Cookie))
	}
	if cfg.MaxDepth > 0 {
		opts = append(opts, spider.WithMaxDepth(cfg.MaxDepth))
	}
	if cfg.RespectRobots {
		opts = append(opts, spider.WithRespectRobots(true))
	}
	if l := limiter.FromConfig(cfg.Limits...); l != nil {
		opts = append(opts, spider.WithLimit(l))
	}

	return opts
}

func (cfg SiteConfig) rules() ([]*spider.Rule, error) {
	rules := make([]*spider.Rule, 0, len(cfg.Rules))
	for i, rc := range cfg.Rules {
		role, err := spider.ParseRole(rc.Role)
		if err != nil {
			return nil, err
		}

		name := rc.Name
		if name == "" {
			name = strconv.Itoa(i)
		}

		r, err := spider.NewRule(name, rc.Pattern, rc.Scope, role)
		if err != nil {
			return nil, err
		}
		r.Follow = rc.Follow
		rules = append(rules, r)
	}

	return rules, nil
}

// ParseImage parses an image strategy name.
func ParseImage(s string) (spider.ImageLocator, error) {
	s = strings.ToLower(strings.TrimSpace(s))

	switch s {
	case "first":
		return spider.FirstImage, nil
	case "second":
		return spider.SecondImage, nil
	case "none":
		return spider.NoImage{}, nil
	}

	if n, ok := strings.CutPrefix(s, "nth:"); ok {
		i, err := strconv.Atoi(n)
		if err != nil || i < 0 {
			return nil, fmt.Errorf("bad image index %q", n)
		}
		return spider.NthImage(i), nil
	}

	return nil, fmt.Errorf("unknown image strategy %q", s)
}
