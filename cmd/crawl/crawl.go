package crawl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ketohub/crawler/archive"
	"github.com/ketohub/crawler/engine"
	"github.com/ketohub/crawler/generator"
	"github.com/ketohub/crawler/log"
	"github.com/ketohub/crawler/metrics"
	"github.com/ketohub/crawler/proxy"
	"github.com/ketohub/crawler/robots"
	"github.com/ketohub/crawler/sitelib"
	"github.com/ketohub/crawler/spider"
	"github.com/ketohub/crawler/sqldb"
	"github.com/ketohub/crawler/sqlstorage"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var CrawlCmd = &cobra.Command{
	Use:   "crawl",
	Short: "crawl recipe sites into the archive.",
	Long:  "crawl recipe sites, archiving the html, metadata and main image of every recipe page.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return Run(ctx)
	},
}

var (
	configPath  string
	storageRoot string
	siteNames   []string
	podIP       string
)

func init() {
	CrawlCmd.Flags().StringVar(
		&configPath, "config", "config.toml", "set config file path")

	CrawlCmd.Flags().StringVar(
		&storageRoot, "root", "", "set storage root, overrides storage.root")

	CrawlCmd.Flags().StringSliceVar(
		&siteNames, "site", nil, "crawl only the named sites")

	CrawlCmd.Flags().StringVar(
		&podIP, "podip", "", "set ip used to derive the run id node")
}

func Run(ctx context.Context) error {
	cfg, err := LoadSettings(configPath)
	if err != nil {
		return fmt.Errorf("load config %s: %w", configPath, err)
	}
	if storageRoot != "" {
		cfg.StorageRoot = storageRoot
	}

	// log
	logger, closer, err := log.New(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return err
	}
	defer closer.Close()
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	return crawl(ctx, logger, cfg, siteNames)
}

func crawl(ctx context.Context, logger *zap.Logger, cfg *Settings, only []string) error {
	start := time.Now().UTC()

	a, err := archive.New(cfg.StorageRoot, start, archive.WithLogger(logger.Named("archive")))
	if err != nil {
		logger.Error("init archive failed", zap.Error(err))
		return err
	}

	ids, err := generator.NewRunIDs(int64(generator.IDbyIP(podIP)))
	if err != nil {
		return err
	}
	runID := ids.Next()

	// sites
	sites := sitelib.Build(logger, cfg.Sites,
		spider.WithLogger(logger),
		spider.WithTimeout(cfg.Timeout),
	)
	if sites, err = sitelib.Filter(sites, only...); err != nil {
		return err
	}
	if len(sites) == 0 {
		return engine.ErrNoSites
	}

	// fetcher
	fetchOpts := []spider.FetchOption{spider.WithUserAgent(cfg.UserAgent)}
	if len(cfg.Proxy) > 0 {
		p, err := proxy.RoundRobinProxySwitcher(cfg.Proxy...)
		if err != nil {
			return fmt.Errorf("proxy: %w", err)
		}
		fetchOpts = append(fetchOpts, spider.WithProxy(p))
	}
	logger.Sugar().Info("proxy list: ", cfg.Proxy, " timeout: ", cfg.Timeout)
	f := spider.NewFetchService(spider.BrowserFetchType, fetchOpts...)

	// storage
	storage, err := newIndex(logger, cfg)
	if err != nil {
		return err
	}
	if c, ok := storage.(io.Closer); ok {
		defer c.Close()
	}

	m := metrics.New()
	if cfg.MetricsListen != "" {
		go serveMetrics(logger, cfg.MetricsListen, m)
	}

	c, err := engine.New(
		engine.WithSites(sites...),
		engine.WithFetcher(f),
		engine.WithArchiver(a),
		engine.WithStorage(storage),
		engine.WithLogger(logger),
		engine.WithMetrics(m),
		engine.WithRobots(robotsFactory(cfg, logger)),
		engine.WithRunID(runID),
	)
	if err != nil {
		return err
	}

	logger.Info("crawl started", zap.String("run_id", runID), zap.String("dir", a.Dir()), zap.Int("sites", len(sites)))

	stats, err := c.Run(ctx)
	for _, s := range stats {
		logger.Info("crawl summary", zap.Stringer("stats", s))
	}

	return err
}

func newIndex(logger *zap.Logger, cfg *Settings) (spider.DataRepository, error) {
	switch cfg.Index {
	case "", "empty":
		logger.Info("start empty storage")
		return spider.EmptyDataRepository{}, nil
	case sqldb.DriverMySQL, sqldb.DriverSQLite:
		s, err := sqlstorage.New(
			sqlstorage.WithDriver(cfg.Index),
			sqlstorage.WithSQLURL(cfg.SQLURL),
			sqlstorage.WithLogger(logger.Named("sqlDB")),
			sqlstorage.WithBatchCount(cfg.BatchCount),
		)
		if err != nil {
			logger.Error("create sqlstorage failed", zap.Error(err))
			return nil, err
		}
		logger.Info("start sql storage", zap.String("driver", cfg.Index))
		return s, nil
	default:
		return nil, errors.New("unknown storage index " + cfg.Index)
	}
}

func serveMetrics(logger *zap.Logger, addr string, m *metrics.Metrics) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())

	logger.Info("metrics listening", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Error("metrics listener stopped", zap.Error(err))
	}
}

// robotsFactory gives every site its own robots agent. The agent matches
// rules for the user agent the fetcher sends: the configured one, or the
// wildcard group when the fetcher picks random browser agents.
func robotsFactory(cfg *Settings, logger *zap.Logger) engine.RobotsFactory {
	return func(site *spider.Site) engine.RobotsChecker {
		client := &http.Client{Timeout: site.Timeout}
		if client.Timeout <= 0 {
			client.Timeout = cfg.Timeout
		}

		return robots.NewAgent(client, cfg.UserAgent, time.Hour, logger.Named("robots").With(zap.String("site", site.Name)))
	}
}
