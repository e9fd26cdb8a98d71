package scripts

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"

	"studiod/pkg/types"
)

// Catalog caches parsed item lists for the life of the process. Concurrent
// loads of the same list share one fetch.
type Catalog struct {
	src        Source
	nodesPath  string
	modelsPath string
	group      singleflight.Group
	mu         sync.RWMutex
	cache      map[string][]types.Item
}

// NewCatalog returns a Catalog reading the given script paths from src.
func NewCatalog(src Source, nodesPath, modelsPath string) *Catalog {
	return &Catalog{
		src:        src,
		nodesPath:  nodesPath,
		modelsPath: modelsPath,
		cache:      make(map[string][]types.Item),
	}
}

// Nodes returns the plugin items, fetching the script on first use or when refresh is set.
func (c *Catalog) Nodes(ctx context.Context, refresh bool) ([]types.Item, error) {
	return c.load(ctx, c.nodesPath, ParseNodes, refresh)
}

// Models returns the model items, fetching the script on first use or when refresh is set.
func (c *Catalog) Models(ctx context.Context, refresh bool) ([]types.Item, error) {
	return c.load(ctx, c.modelsPath, ParseModels, refresh)
}

// Invalidate drops every cached list.
func (c *Catalog) Invalidate() {
	c.mu.Lock()
	c.cache = make(map[string][]types.Item)
	c.mu.Unlock()
}

func (c *Catalog) load(ctx context.Context, path string, parse func(string) []types.Item, refresh bool) ([]types.Item, error) {
	if !refresh {
		c.mu.RLock()
		items, ok := c.cache[path]
		c.mu.RUnlock()
		if ok {
			return cloneItems(items), nil
		}
	}
	v, err, _ := c.group.Do(path, func() (interface{}, error) {
		text, err := c.src.Fetch(ctx, path)
		if err != nil {
			return nil, err
		}
		items := parse(text)
		c.mu.Lock()
		c.cache[path] = items
		c.mu.Unlock()
		return items, nil
	})
	if err != nil {
		return nil, err
	}
	return cloneItems(v.([]types.Item)), nil
}

func cloneItems(in []types.Item) []types.Item {
	out := make([]types.Item, len(in))
	for i, it := range in {
		out[i] = it
		if it.Extra != nil {
			out[i].Extra = make(map[string]string, len(it.Extra))
			for k, v := range it.Extra {
				out[i].Extra[k] = v
			}
		}
	}
	return out
}

// Filter returns the items whose ids appear in ids, in script order.
// Requested ids that match nothing are returned separately.
func Filter(items []types.Item, ids []string) (selected []types.Item, unknown []string) {
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	found := make(map[string]bool, len(ids))
	for _, it := range items {
		if want[it.ID] && !found[it.ID] {
			found[it.ID] = true
			selected = append(selected, it)
		}
	}
	for _, id := range ids {
		if !found[id] {
			unknown = append(unknown, id)
			found[id] = true
		}
	}
	return selected, unknown
}
