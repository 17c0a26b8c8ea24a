package archive

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
)

var ErrMissingStorageRoot = errors.New("storage root is not configured")

const (
	MetadataFile  = "metadata.json"
	RecipeFile    = "recipe.html"
	MainImageBase = "main_image"
)

// RunPath returns the run-scoped sub path for a crawl started at start,
// e.g. 20170102/030405Z.
func RunPath(start time.Time) string {
	start = start.UTC()

	return filepath.Join(start.Format("20060102"), start.Format("150405")+"Z")
}

// Metadata is the structured record written next to each recipe.
type Metadata struct {
	URL       string    `json:"url"`
	Referer   string    `json:"referer,omitempty"`
	Site      string    `json:"site,omitempty"`
	RunID     string    `json:"run_id,omitempty"`
	ImageURL  string    `json:"image_url,omitempty"`
	FetchedAt time.Time `json:"fetched_at"`
}

// Archiver writes recipe records under <root>/<run path>/<key>/. Calls for
// different keys may run concurrently; a key is written by one caller only.
type Archiver struct {
	dir string
	options
}

// New fixes the archive directory of a run. It fails with
// ErrMissingStorageRoot when root is empty.
func New(root string, start time.Time, opts ...Option) (*Archiver, error) {
	if strings.TrimSpace(root) == "" {
		return nil, ErrMissingStorageRoot
	}

	options := defaultOptions
	for _, opt := range opts {
		opt(&options)
	}

	return &Archiver{
		dir:     filepath.Join(root, RunPath(start)),
		options: options,
	}, nil
}

// Dir is the run directory.
func (a *Archiver) Dir() string {
	return a.dir
}

// KeyDir is the directory of one recipe.
func (a *Archiver) KeyDir(key string) string {
	return filepath.Join(a.dir, key)
}

func (a *Archiver) SaveMetadata(key string, m Metadata) error {
	b, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}

	return a.write(key, MetadataFile, b)
}

// SaveRecipeHTML writes the page bytes as they were fetched.
func (a *Archiver) SaveRecipeHTML(key string, body []byte) error {
	return a.write(key, RecipeFile, body)
}

// SaveMainImage writes the image bytes. The extension is taken from the
// content type, then from the image url; the file has none if both fail.
func (a *Archiver) SaveMainImage(key string, data []byte, contentType, imageURL string) error {
	name := MainImageBase
	if ext := ImageExtension(contentType, imageURL); ext != "" {
		name += "." + ext
	}

	return a.write(key, name, data)
}

// Remove deletes the directory of one recipe. Removing a key that was never
// written is not an error.
func (a *Archiver) Remove(key string) error {
	if err := checkKey(key); err != nil {
		return err
	}

	if err := os.RemoveAll(a.KeyDir(key)); err != nil {
		return fmt.Errorf("remove recipe dir: %w", err)
	}

	a.logger.Debug("removed recipe dir", zap.String("key", key))

	return nil
}

func checkKey(key string) error {
	if key == "" || key != filepath.Base(key) || key == "." || key == ".." {
		return fmt.Errorf("invalid archive key %q", key)
	}

	return nil
}

func (a *Archiver) write(key, name string, data []byte) error {
	if err := checkKey(key); err != nil {
		return err
	}

	dir := a.KeyDir(key)
	if err := os.MkdirAll(dir, a.dirPerm); err != nil {
		return fmt.Errorf("create recipe dir: %w", err)
	}

	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, data, a.filePerm); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}

	a.logger.Debug("archived file", zap.String("key", key), zap.String("path", p), zap.Int("bytes", len(data)))

	return nil
}

// ImageExtension picks a file extension for an image.
func ImageExtension(contentType, imageURL string) string {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.Index(ct, ";"); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}

	switch ct {
	case "image/jpeg", "image/jpg", "image/pjpeg":
		return "jpg"
	case "":
	default:
		if exts, err := mime.ExtensionsByType(ct); err == nil && len(exts) > 0 {
			return strings.TrimPrefix(exts[0], ".")
		}
	}

	if i := strings.IndexAny(imageURL, "?#"); i >= 0 {
		imageURL = imageURL[:i]
	}

	ext := strings.ToLower(strings.TrimPrefix(path.Ext(imageURL), "."))
	if ext == "" || len(ext) > 5 || strings.ContainsAny(ext, "/\\") {
		return ""
	}

	return ext
}
