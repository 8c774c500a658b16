// Package dedup walks a built suffix index to extract the single
// longest common substring for every pair of distinct documents in a
// docstore.Store whose length meets a caller-supplied threshold.
package dedup

import (
	"fmt"
	"sort"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/mtreilly/dupfind/internal/docstore"
	"github.com/mtreilly/dupfind/internal/suffixindex"
)

// Match is the longest common substring found between two documents,
// with doc1ID < doc2ID. StartPos1/StartPos2 are code-point offsets
// inside the respective document bodies, not the concatenated text.
type Match struct {
	Doc1ID    int64 `json:"doc1_id"`
	Doc2ID    int64 `json:"doc2_id"`
	StartPos1 int   `json:"start_pos1"`
	StartPos2 int   `json:"start_pos2"`
	Length    int   `json:"length"`
}

// lookupCacheSize bounds the memoization of Store.FindDocument results
// during the adjacent-pair scan below. Adjacent suffix-array slots i
// and i+1 share one position with the next pair (i+1, i+2), so even a
// small cache turns every second document lookup in the hot loop into
// a cache hit instead of a binary search.
const lookupCacheSize = 256

// Option configures Find.
type Option func(*config)

type config struct {
	algorithm suffixindex.Algorithm
}

// WithAlgorithm overrides the suffix-construction algorithm Find uses.
// The default is suffixindex.DoublingCountingSort.
func WithAlgorithm(a suffixindex.Algorithm) Option {
	return func(c *config) { c.algorithm = a }
}

// Find returns, for every unordered pair of distinct documents in
// store whose longest common substring has length at least minLength,
// a single Match describing that substring. Results are ordered
// descending by length, then ascending by Doc1ID, then ascending by
// Doc2ID.
//
// An empty store yields an empty result without attempting suffix
// construction. Any other construction failure is returned as an
// error; the only such case under non-empty input is an internal
// precondition violation in the chosen Builder.
func Find(store *docstore.Store, minLength int, opts ...Option) ([]Match, error) {
	cfg := config{algorithm: suffixindex.DoublingCountingSort}
	for _, opt := range opts {
		opt(&cfg)
	}

	text := store.Concatenated()
	if text.Len() == 0 {
		return nil, nil
	}

	builder, err := suffixindex.New(cfg.algorithm)
	if err != nil {
		return nil, err
	}
	if err := builder.Build(text); err != nil {
		return nil, fmt.Errorf("dedup: build suffix index: %w", err)
	}
	sa, err := builder.Array()
	if err != nil {
		return nil, fmt.Errorf("dedup: %w", err)
	}
	lcp, err := builder.LCP()
	if err != nil {
		return nil, fmt.Errorf("dedup: %w", err)
	}

	cache, err := lru.New[int, docstore.Position](lookupCacheSize)
	if err != nil {
		return nil, fmt.Errorf("dedup: allocate lookup cache: %w", err)
	}
	lookup := func(pos int) (docstore.Position, bool) {
		if p, ok := cache.Get(pos); ok {
			return p, true
		}
		p, err := store.FindDocument(pos)
		if err != nil {
			// The position falls inside a separator region; this is
			// expected and simply means this adjacent pair contributes
			// nothing.
			return docstore.Position{}, false
		}
		cache.Add(pos, p)
		return p, true
	}

	type pairKey struct{ a, b int64 }
	best := make(map[pairKey]Match)

	for i := 0; i < len(lcp); i++ {
		p1, p2 := sa[i], sa[i+1]

		d1, ok1 := lookup(p1)
		if !ok1 {
			continue
		}
		d2, ok2 := lookup(p2)
		if !ok2 {
			continue
		}
		if d1.ID == d2.ID {
			continue
		}

		o1, o2 := p1-d1.Start, p2-d2.Start
		allowed := min(d1.Length-o1, d2.Length-o2)
		length := min(lcp[i], allowed)
		if length < minLength {
			continue
		}

		var m Match
		var key pairKey
		if d1.ID < d2.ID {
			m = Match{Doc1ID: d1.ID, Doc2ID: d2.ID, StartPos1: o1, StartPos2: o2, Length: length}
			key = pairKey{d1.ID, d2.ID}
		} else {
			m = Match{Doc1ID: d2.ID, Doc2ID: d1.ID, StartPos1: o2, StartPos2: o1, Length: length}
			key = pairKey{d2.ID, d1.ID}
		}

		if existing, found := best[key]; !found || m.Length > existing.Length {
			best[key] = m
		}
	}

	result := make([]Match, 0, len(best))
	for _, m := range best {
		result = append(result, m)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Length != result[j].Length {
			return result[i].Length > result[j].Length
		}
		if result[i].Doc1ID != result[j].Doc1ID {
			return result[i].Doc1ID < result[j].Doc1ID
		}
		return result[i].Doc2ID < result[j].Doc2ID
	})
	return result, nil
}
