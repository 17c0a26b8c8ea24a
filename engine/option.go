package engine

import (
	"context"

	"github.com/ketohub/crawler/archive"
	"github.com/ketohub/crawler/metrics"
	"github.com/ketohub/crawler/spider"
	"go.uber.org/zap"
)

// Archiver persists recipe records, see archive.Archiver.
type Archiver interface {
	SaveMetadata(key string, m archive.Metadata) error
	SaveRecipeHTML(key string, body []byte) error
	SaveMainImage(key string, data []byte, contentType, imageURL string) error
	KeyDir(key string) string
	Remove(key string) error
}

// RobotsChecker gates fetches of sites that respect robots.txt.
type RobotsChecker interface {
	Allowed(ctx context.Context, url string) bool
}

// RobotsFactory builds the robots checker of one site. It is called once per
// site that respects robots.txt, so rules and caches are never shared
// between sites.
type RobotsFactory func(site *spider.Site) RobotsChecker

type Option func(opts *options)

type options struct {
	Sites    []*spider.Site
	Fetcher  spider.Fetcher
	Archiver Archiver
	Storage  spider.DataRepository
	Logger   *zap.Logger
	Metrics  *metrics.Metrics
	Robots   RobotsFactory
	RunID    string
}

var defaultOptions = options{
	Logger:  zap.NewNop(),
	Storage: spider.EmptyDataRepository{},
}

func WithSites(sites ...*spider.Site) Option {
	return func(opts *options) {
		opts.Sites = sites
	}
}

func WithFetcher(fetcher spider.Fetcher) Option {
	return func(opts *options) {
		opts.Fetcher = fetcher
	}
}

func WithArchiver(a Archiver) Option {
	return func(opts *options) {
		opts.Archiver = a
	}
}

func WithStorage(s spider.DataRepository) Option {
	return func(opts *options) {
		opts.Storage = s
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(opts *options) {
		opts.Logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(opts *options) {
		opts.Metrics = m
	}
}

func WithRobots(f RobotsFactory) Option {
	return func(opts *options) {
		opts.Robots = f
	}
}

func WithRunID(id string) Option {
	return func(opts *options) {
		opts.RunID = id
	}
}
