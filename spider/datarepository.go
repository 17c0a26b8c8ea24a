package spider

import "time"

// DataRepository receives one record per archived recipe page, e.g. to
// keep a queryable index next to the files on disk.
type DataRepository interface {
	Save(datas ...*DataCell) error
	Flush() error
}

// DataCell is the index record of an archived recipe.
type DataCell struct {
	Site      string
	RunID     string
	Key       string
	URL       string
	Referer   string
	ImageURL  string
	Dir       string
	FetchedAt time.Time
}

func (d *DataCell) GetTableName() string {
	return "recipes"
}

type EmptyDataRepository struct{}

func (EmptyDataRepository) Save(...*DataCell) error { return nil }

func (EmptyDataRepository) Flush() error { return nil }
