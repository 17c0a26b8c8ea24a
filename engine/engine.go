package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/ketohub/crawler/archive"
	"github.com/ketohub/crawler/spider"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var ErrNoSites = errors.New("no sites to crawl")

// Stats summarises the crawl of one site.
type Stats struct {
	Site          string
	Seen          int
	Fetched       int64
	Failed        int64
	Archived      int64
	ImagesMissing int64
	Skipped       int64
}

func (s Stats) String() string {
	return fmt.Sprintf("site=%s seen=%d fetched=%d failed=%d archived=%d images_missing=%d skipped=%d",
		s.Site, s.Seen, s.Fetched, s.Failed, s.Archived, s.ImagesMissing, s.Skipped)
}

// Crawler crawls every configured site in parallel, archiving the recipe
// pages it finds.
type Crawler struct {
	options
}

func New(opts ...Option) (*Crawler, error) {
	options := defaultOptions
	for _, opt := range opts {
		opt(&options)
	}

	if len(options.Sites) == 0 {
		return nil, ErrNoSites
	}

	if options.Archiver == nil {
		return nil, archive.ErrMissingStorageRoot
	}

	if options.Fetcher == nil {
		options.Fetcher = spider.NewFetchService(spider.BrowserFetchType)
	}

	names := make(map[string]bool, len(options.Sites))
	for _, s := range options.Sites {
		if err := s.Validate(); err != nil {
			return nil, err
		}
		if names[s.Name] {
			return nil, fmt.Errorf("duplicate site name %s", s.Name)
		}
		names[s.Name] = true
	}

	return &Crawler{options: options}, nil
}

// Run crawls every site until its frontier is exhausted or ctx is
// cancelled. Page level failures never abort the run; they are counted in
// the returned stats, one entry per site in configuration order. A
// cancelled run still returns the stats gathered so far.
func (c *Crawler) Run(ctx context.Context) ([]Stats, error) {
	stats := make([]Stats, len(c.Sites))

	g, gctx := errgroup.WithContext(ctx)
	for i, site := range c.Sites {
		i, site := i, site
		g.Go(func() error {
			sc := c.newSiteCrawl(site)
			stats[i] = sc.run(gctx)
			c.Logger.Info("site crawl finished", zap.Stringer("stats", stats[i]))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return stats, err
	}

	if err := c.Storage.Flush(); err != nil {
		c.Logger.Error("flush recipe index failed", zap.Error(err))
		return stats, err
	}

	if ctx.Err() != nil {
		c.Logger.Warn("crawl interrupted", zap.Error(ctx.Err()))
	}

	return stats, nil
}
