// SPDX-License-Identifier: MPL-2.0

package descriptor

import (
	_ "embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/cespare/xxhash/v2"
	"github.com/charmbracelet/log"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/malterlib/buildscan/pkg/cueutil"
)

// DefaultCacheSize is the number of parsed descriptors kept by default.
const DefaultCacheSize = 256

//go:embed schema.cue
var schemaSource string

// ErrNotRegular is wrapped by a Document error when the path is not a regular file.
var ErrNotRegular = errors.New("not a regular file")

type (
	// Config configures a Reader.
	Config struct {
		// CacheSize is the number of parsed descriptors to keep, keyed by path
		// and validated by a content hash. Zero disables caching.
		CacheSize int
		// Logger receives per-file diagnostics. Nil discards them.
		Logger *log.Logger
	}

	// Reader loads descriptors. It is safe for concurrent use.
	Reader struct {
		// mu guards ctx and every cue.Value built from it.
		mu     sync.Mutex
		ctx    *cue.Context
		schema cue.Value
		cache  *lru.Cache[string, cacheEntry]
		logger *log.Logger
	}

	cacheEntry struct {
		sum  uint64
		size int
		doc  *Document
	}
)

// NewReader creates a Reader and compiles the embedded schema.
func NewReader(cfg Config) (*Reader, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if schema.Err() != nil {
		return nil, fmt.Errorf("internal error: compile descriptor schema: %w", schema.Err())
	}

	r := &Reader{ctx: ctx, schema: schema, logger: logger}
	if cfg.CacheSize > 0 {
		cache, err := lru.New[string, cacheEntry](cfg.CacheSize)
		if err != nil {
			return nil, fmt.Errorf("create descriptor cache: %w", err)
		}
		r.cache = cache
	}
	return r, nil
}

// Load reads and parses the descriptor at path. It never returns nil.
func (r *Reader) Load(path string) *Document {
	info, err := os.Stat(path)
	if err != nil {
		if r.cache != nil {
			r.cache.Remove(path)
		}
		if errors.Is(err, fs.ErrNotExist) {
			r.logger.Debug("descriptor missing", "path", path)
			return &Document{path: path, reader: r}
		}
		r.logger.Error("cannot stat descriptor", "path", path, "error", err)
		return &Document{path: path, reader: r, err: err}
	}
	if !info.Mode().IsRegular() {
		err := fmt.Errorf("%s: %w", path, ErrNotRegular)
		r.logger.Error("cannot read descriptor", "path", path, "error", err)
		return &Document{path: path, reader: r, err: err}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if r.cache != nil {
			r.cache.Remove(path)
		}
		if errors.Is(err, fs.ErrNotExist) {
			r.logger.Debug("descriptor missing", "path", path)
			return &Document{path: path, reader: r}
		}
		r.logger.Error("cannot read descriptor", "path", path, "error", err)
		return &Document{path: path, reader: r, err: err}
	}

	sum := xxhash.Sum64(data)
	if r.cache != nil {
		if e, ok := r.cache.Get(path); ok && e.sum == sum && e.size == len(data) {
			return e.doc
		}
	}

	doc := r.parse(path, data)
	if r.cache != nil {
		r.cache.Add(path, cacheEntry{sum: sum, size: len(data), doc: doc})
	}
	return doc
}

func (r *Reader) parse(path string, data []byte) *Document {
	r.mu.Lock()
	v, err := cueutil.ExtractJSON(r.ctx, data, path)
	r.mu.Unlock()
	if err != nil {
		r.logger.Error("malformed descriptor", "path", path, "error", err)
		return &Document{path: path, reader: r, exists: true, err: err}
	}

	return &Document{path: path, reader: r, exists: true, value: v}
}

// Purge drops every cached descriptor.
func (r *Reader) Purge() {
	if r.cache != nil {
		r.cache.Purge()
	}
}

// Cached returns the number of cached descriptors.
func (r *Reader) Cached() int {
	if r.cache == nil {
		return 0
	}
	return r.cache.Len()
}
