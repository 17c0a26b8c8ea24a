package sqlstorage

import (
	"io"
	"sync"
	"time"

	"github.com/ketohub/crawler/spider"
	"github.com/ketohub/crawler/sqldb"
	"go.uber.org/zap"
)

var columns = []sqldb.Field{
	{Title: "run_id", Type: "VARCHAR(32)"},
	{Title: "site", Type: "VARCHAR(64)"},
	{Title: "recipe_key", Type: "VARCHAR(255)"},
	{Title: "url", Type: "VARCHAR(1024)"},
	{Title: "referer", Type: "VARCHAR(1024)"},
	{Title: "image_url", Type: "VARCHAR(1024)"},
	{Title: "dir", Type: "VARCHAR(1024)"},
	{Title: "fetched_at", Type: "VARCHAR(64)"},
}

// SQLStorage indexes archived recipes in a SQL table, inserting in batches.
type SQLStorage struct {
	mu         sync.Mutex
	dataDocker []*spider.DataCell // 分批输出结果缓存
	db         sqldb.DBer
	Table      map[string]struct{}
	options
}

func New(opts ...Option) (*SQLStorage, error) {
	options := defaultOptions
	for _, opt := range opts {
		opt(&options)
	}

	s := &SQLStorage{}
	s.options = options
	s.Table = make(map[string]struct{})

	dbOpts := []sqldb.Option{
		sqldb.WithConnURL(s.sqlURL),
		sqldb.WithLogger(s.logger),
	}
	if s.driver != "" {
		dbOpts = append(dbOpts, sqldb.WithDriver(s.driver))
	}

	var err error
	s.db, err = sqldb.New(dbOpts...)
	if err != nil {
		return nil, err
	}

	return s, nil
}

func (s *SQLStorage) Save(dataCells ...*spider.DataCell) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, cell := range dataCells {
		name := cell.GetTableName()
		if _, ok := s.Table[name]; !ok {
			// 创建表
			err := s.db.CreateTable(sqldb.TableData{
				TableName:   name,
				ColumnNames: columns,
				AutoKey:     true,
			})
			if err != nil {
				s.logger.Error("create table falied", zap.Error(err))
				return err
			}

			s.Table[name] = struct{}{}
		}

		s.dataDocker = append(s.dataDocker, cell)

		if len(s.dataDocker) >= s.BatchCount {
			if err := s.flush(); err != nil {
				s.logger.Error("insert data failed", zap.Error(err))
				return err
			}
		}
	}

	return nil
}

func (s *SQLStorage) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.flush()
}

func (s *SQLStorage) flush() error {
	if len(s.dataDocker) == 0 {
		return nil
	}

	defer func() {
		s.dataDocker = nil
	}()

	args := make([]interface{}, 0, len(s.dataDocker)*len(columns))

	for _, c := range s.dataDocker {
		args = append(args,
			c.RunID,
			c.Site,
			c.Key,
			c.URL,
			c.Referer,
			c.ImageURL,
			c.Dir,
			c.FetchedAt.UTC().Format(time.RFC3339),
		)
	}

	return s.db.Insert(sqldb.TableData{
		TableName:   s.dataDocker[0].GetTableName(),
		ColumnNames: columns,
		Args:        args,
		DataCount:   len(s.dataDocker),
	})
}

// Close flushes pending records and closes the database.
func (s *SQLStorage) Close() error {
	err := s.Flush()

	if c, ok := s.db.(io.Closer); ok {
		if cerr := c.Close(); err == nil {
			err = cerr
		}
	}

	return err
}
