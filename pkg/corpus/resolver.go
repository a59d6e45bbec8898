package corpus

import (
	"fmt"
	"os"
	"path/filepath"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheEntries is the revision cache size used when none is given.
const DefaultCacheEntries = 4096

const documentExtension = ".json"

// Resolver locates revision documents across shard directories. Shards are
// probed in order; the shard holding a revision is remembered so later files
// of the same revision go straight to it.
type Resolver struct {
	shards []string
	cache  *lru.Cache[string, int]
}

// NewResolver creates a resolver over shards caching up to entries
// revisions.
func NewResolver(shards []string, entries int) (*Resolver, error) {
	if entries <= 0 {
		entries = DefaultCacheEntries
	}

	cache, err := lru.New[string, int](entries)
	if err != nil {
		return nil, fmt.Errorf("revision cache: %w", err)
	}

	return &Resolver{shards: shards, cache: cache}, nil
}

// Resolve returns the path of the document for row, or false when no shard
// has it. File names escaping the revision directory never resolve.
func (r *Resolver) Resolve(row Row) (string, bool) {
	name := filepath.FromSlash(row.FileName)
	if !filepath.IsLocal(row.RevisionID) || !filepath.IsLocal(name) {
		return "", false
	}

	rel := filepath.Join(row.RevisionID, name+documentExtension)

	if i, ok := r.cache.Get(row.RevisionID); ok {
		if path := filepath.Join(r.shards[i], rel); exists(path) {
			return path, true
		}
	}

	for i, shard := range r.shards {
		path := filepath.Join(shard, rel)
		if exists(path) {
			r.cache.Add(row.RevisionID, i)

			return path, true
		}
	}

	return "", false
}

// Cached returns the number of revisions whose shard is known.
func (r *Resolver) Cached() int {
	return r.cache.Len()
}

func exists(path string) bool {
	info, err := os.Stat(path)

	return err == nil && info.Mode().IsRegular()
}
