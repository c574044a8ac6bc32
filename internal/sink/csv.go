package sink

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"go.uber.org/multierr"

	"github.com/angelmondragon/archive-export/internal/normalize"
	"github.com/angelmondragon/archive-export/pkg/enums"
	"github.com/angelmondragon/archive-export/pkg/types"
)

// Sink receives normalized records for one category at a time.
type Sink interface {
	Write(category enums.Category, records []types.Record) (int, error)
	Files() []string
	Close() error
}

type categoryFile struct {
	path string
	file *os.File
	buf  *bufio.Writer
	w    *csv.Writer
	rows int
}

// CSVSink writes one CSV file per category under dir. The first write of a
// category in the lifetime of the sink truncates the file and emits the
// header; later writes append rows only.
type CSVSink struct {
	dir   string
	mu    sync.Mutex
	files map[enums.Category]*categoryFile
}

func NewCSVSink(dir string) (*CSVSink, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir %s: %w", dir, err)
	}
	return &CSVSink{dir: dir, files: map[enums.Category]*categoryFile{}}, nil
}

// Write appends records in canonical column order and returns the number of
// rows written. An empty batch opens nothing.
func (s *CSVSink) Write(category enums.Category, records []types.Record) (int, error) {
	if !category.IsValid() {
		return 0, fmt.Errorf("unknown category %q", category)
	}
	if len(records) == 0 {
		return 0, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cf, err := s.open(category)
	if err != nil {
		return 0, err
	}

	written := 0
	for _, rec := range records {
		if err := cf.w.Write(normalize.Row(rec, category)); err != nil {
			return written, fmt.Errorf("write %s: %w", cf.path, err)
		}
		written++
	}
	cf.w.Flush()
	if err := cf.w.Error(); err != nil {
		return written, fmt.Errorf("flush %s: %w", cf.path, err)
	}
	cf.rows += written
	return written, nil
}

func (s *CSVSink) open(category enums.Category) (*categoryFile, error) {
	if cf, ok := s.files[category]; ok {
		return cf, nil
	}

	path := filepath.Join(s.dir, category.FileName())
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	buf := bufio.NewWriterSize(f, 1<<20)
	w := csv.NewWriter(buf)
	if err := w.Write(category.Columns()); err != nil {
		f.Close()
		return nil, fmt.Errorf("write header %s: %w", path, err)
	}

	cf := &categoryFile{path: path, file: f, buf: buf, w: w}
	s.files[category] = cf
	return cf, nil
}

// Files lists the produced file paths in lexical order.
func (s *CSVSink) Files() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	paths := make([]string, 0, len(s.files))
	for _, cf := range s.files {
		paths = append(paths, cf.path)
	}
	sort.Strings(paths)
	return paths
}

// Rows reports how many data rows were written for category.
func (s *CSVSink) Rows(category enums.Category) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cf, ok := s.files[category]; ok {
		return cf.rows
	}
	return 0
}

// Close flushes and closes every open file. The sink keeps its file list so
// Files still reports what was produced.
func (s *CSVSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs error
	for _, cf := range s.files {
		if cf.file == nil {
			continue
		}
		cf.w.Flush()
		errs = multierr.Append(errs, cf.w.Error())
		errs = multierr.Append(errs, cf.buf.Flush())
		errs = multierr.Append(errs, cf.file.Sync())
		errs = multierr.Append(errs, cf.file.Close())
		cf.file = nil
	}
	return errs
}
