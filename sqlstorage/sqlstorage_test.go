package sqlstorage

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/ketohub/crawler/spider"
	"github.com/ketohub/crawler/sqldb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mysqldb struct {
	created  int
	inserted []sqldb.TableData
	err      error
}

func (m *mysqldb) CreateTable(t sqldb.TableData) error {
	m.created++
	return nil
}

func (m *mysqldb) Insert(t sqldb.TableData) error {
	m.inserted = append(m.inserted, t)
	return m.err
}

func cell(key string) *spider.DataCell {
	return &spider.DataCell{
		Site:      "ruled-me",
		RunID:     "1",
		Key:       key,
		URL:       "https://www.ruled.me/" + key + "/",
		FetchedAt: time.Date(2017, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestSQLStorage_Flush(t *testing.T) {
	tests := []struct {
		name       string
		dataDocker []*spider.DataCell
		dbErr      error
		wantErr    bool
		wantInsert int
	}{
		{name: "empty", wantErr: false},
		{name: "right data", dataDocker: []*spider.DataCell{cell("a"), cell("b")}, wantInsert: 1},
		{name: "db error", dataDocker: []*spider.DataCell{cell("a")}, dbErr: errors.New("boom"), wantErr: true, wantInsert: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := &mysqldb{err: tt.dbErr}
			s := &SQLStorage{
				dataDocker: tt.dataDocker,
				db:         db,
				Table:      map[string]struct{}{},
				options:    defaultOptions,
			}
			if err := s.Flush(); (err != nil) != tt.wantErr {
				t.Errorf("Flush() error = %v, wantErr %v", err, tt.wantErr)
			}
			assert.Nil(t, s.dataDocker)
			require.Len(t, db.inserted, tt.wantInsert)
			if tt.wantInsert > 0 {
				assert.Equal(t, len(tt.dataDocker), db.inserted[0].DataCount)
				assert.Len(t, db.inserted[0].Args, len(tt.dataDocker)*len(columns))
			}
		})
	}
}

func TestSQLStorage_SaveBatches(t *testing.T) {
	db := &mysqldb{}
	s := &SQLStorage{db: db, Table: map[string]struct{}{}, options: defaultOptions}
	s.BatchCount = 2

	require.NoError(t, s.Save(cell("a")))
	assert.Empty(t, db.inserted)
	require.NoError(t, s.Save(cell("b"), cell("c")))
	assert.Len(t, db.inserted, 1)
	assert.Len(t, s.dataDocker, 1)
	assert.Equal(t, 1, db.created)

	require.NoError(t, s.Flush())
	assert.Len(t, db.inserted, 2)
}

func TestSQLStorage_SQLite(t *testing.T) {
	s, err := New(
		WithDriver(sqldb.DriverSQLite),
		WithSQLURL(filepath.Join(t.TempDir(), "recipes.db")),
		WithBatchCount(2),
	)
	require.NoError(t, err)

	require.NoError(t, s.Save(cell("a"), cell("b"), cell("c")))
	require.NoError(t, s.Flush())

	n, err := s.db.(*sqldb.Sqldb).Count("recipes")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}
