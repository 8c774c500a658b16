// Package suffixindex builds a suffix array and LCP array over a
// codepoint.String. Construction is a one-way latch: a Builder may be
// built at most once, after which Array, LCP, and Text are read-only.
//
// The package exposes the construction algorithm as an abstract
// capability (Builder) behind a tagged Algorithm selector, rather than
// hard-wiring callers to one concrete implementation, so further
// algorithms can be added without touching the duplicate finder.
package suffixindex

import (
	"fmt"
	"sort"

	"github.com/mtreilly/dupfind/internal/codepoint"
	"github.com/mtreilly/dupfind/internal/dferr"
)

// Algorithm selects a concrete suffix-array construction strategy.
type Algorithm string

const (
	// DoublingCountingSort is the normative construction: iterative
	// doubling of sorted-prefix classes using counting sort at each
	// step, O(n log n) comparisons, O(n) space.
	DoublingCountingSort Algorithm = "doubling-counting-sort"

	// Naive is a reference implementation that sorts true
	// (non-cyclic) suffixes via repeated sort.Slice passes,
	// O(n log^2 n). Its ordering equals DoublingCountingSort's when the
	// text's last code point occurs nowhere else in it; otherwise the
	// two can differ. It exists to cross-check DoublingCountingSort in
	// tests and as a debugging fallback on small inputs; the driver
	// does not select it by default.
	Naive Algorithm = "naive"
)

// Builder is the capability every suffix-index construction strategy
// implements: build once, then expose the array, the LCP array, the
// source text, and whether construction has happened.
type Builder interface {
	// Build computes the suffix array and LCP array for text. It fails
	// with a BuildFailureError if text is empty or the builder has
	// already been built.
	Build(text codepoint.String) error

	// Array returns the built suffix array: a permutation of [0, n)
	// ordering the text's start positions. Naive orders the suffixes
	// lexicographically; DoublingCountingSort orders the cyclic
	// rotations starting there, which is the same order when the
	// text's last code point occurs nowhere else in it.
	Array() ([]int, error)

	// LCP returns lcp[0..n-1), the code-point length of the longest
	// common prefix of the suffixes at adjacent suffix-array slots.
	LCP() ([]int, error)

	// Text returns the text construction was run over.
	Text() (codepoint.String, error)

	// IsBuilt reports whether Build has completed successfully.
	IsBuilt() bool
}

// New constructs a Builder for the given algorithm. The zero value
// Algorithm("") selects DoublingCountingSort.
func New(algo Algorithm) (Builder, error) {
	switch algo {
	case DoublingCountingSort, "":
		return &doublingBuilder{}, nil
	case Naive:
		return &naiveBuilder{}, nil
	default:
		return nil, fmt.Errorf("suffixindex: unknown algorithm %q", algo)
	}
}

// initialRanks assigns each code point in chars a rank in [0, classes)
// based on the ordering of its distinct Character values under
// Character.Less, per the "character bucket sort" step shared by every
// construction strategy.
func initialRanks(chars []codepoint.Character) (ranks []int, classes int) {
	distinctSet := make(map[string]struct{})
	for _, c := range chars {
		distinctSet[string(c.Bytes())] = struct{}{}
	}
	distinct := make([]string, 0, len(distinctSet))
	for k := range distinctSet {
		distinct = append(distinct, k)
	}
	sort.Strings(distinct) // byte-wise order, matching Character.Less

	rankOf := make(map[string]int, len(distinct))
	for i, k := range distinct {
		rankOf[k] = i
	}

	ranks = make([]int, len(chars))
	for i, c := range chars {
		ranks[i] = rankOf[string(c.Bytes())]
	}
	return ranks, len(distinct)
}

// kasai computes the LCP array from a suffix array and the character
// sequence it was built over, in O(n) character comparisons.
func kasai(sa []int, chars []codepoint.Character) []int {
	n := len(sa)
	if n == 0 {
		return nil
	}
	rank := make([]int, n)
	for i, s := range sa {
		rank[s] = i
	}
	lcp := make([]int, n-1)
	k := 0
	for i := 0; i < n; i++ {
		if rank[i] == n-1 {
			k = 0
			continue
		}
		j := sa[rank[i]+1]
		for i+k < n && j+k < n && chars[i+k].Equal(chars[j+k]) {
			k++
		}
		lcp[rank[i]] = k
		if k > 0 {
			k--
		}
	}
	return lcp
}

// doublingBuilder implements DoublingCountingSort per the cyclic
// iterative-doubling algorithm: sort cyclic substrings of length 2k
// using the previous round's equivalence classes as keys, via counting
// sort, doubling k until it covers the whole text.
type doublingBuilder struct {
	text  codepoint.String
	sa    []int
	lcp   []int
	built bool
}

func (b *doublingBuilder) Build(text codepoint.String) error {
	if b.built {
		return &dferr.BuildFailureError{Reason: "builder already built"}
	}
	n := text.Len()
	if n == 0 {
		return &dferr.BuildFailureError{Reason: "empty text"}
	}
	chars := text.Characters()

	rank0, classes := initialRanks(chars)

	// Step 1: counting sort by first code point.
	p := countingSortByRank(rank0, classes)
	c := make([]int, n)
	c[p[0]] = 0
	nClasses := 1
	for i := 1; i < n; i++ {
		if rank0[p[i]] != rank0[p[i-1]] {
			nClasses++
		}
		c[p[i]] = nClasses - 1
	}
	classes = nClasses

	// Step 2: doubling.
	for k := 1; k < n; k *= 2 {
		pn := make([]int, n)
		for i := 0; i < n; i++ {
			pn[i] = (p[i] + n - k) % n
		}

		key := make([]int, n)
		for i := 0; i < n; i++ {
			key[i] = c[pn[i]]
		}
		p = countingSortPositions(pn, key, classes)

		cn := make([]int, n)
		cn[p[0]] = 0
		nClasses = 1
		for i := 1; i < n; i++ {
			curA, curB := c[p[i]], c[(p[i]+k)%n]
			prevA, prevB := c[p[i-1]], c[(p[i-1]+k)%n]
			if curA != prevA || curB != prevB {
				nClasses++
			}
			cn[p[i]] = nClasses - 1
		}
		c = cn
		classes = nClasses
	}

	b.text = text
	b.sa = p
	b.lcp = kasai(p, chars)
	b.built = true
	return nil
}

// countingSortByRank produces the permutation of [0, n) sorted by
// rank[i] ascending, stably with respect to natural index order.
func countingSortByRank(rank []int, classes int) []int {
	n := len(rank)
	cnt := make([]int, classes)
	for i := 0; i < n; i++ {
		cnt[rank[i]]++
	}
	for i := 1; i < classes; i++ {
		cnt[i] += cnt[i-1]
	}
	p := make([]int, n)
	for i := n - 1; i >= 0; i-- {
		cnt[rank[i]]--
		p[cnt[rank[i]]] = i
	}
	return p
}

// countingSortPositions stably sorts positions (already some
// permutation of [0, n)) ascending by key[i], where key[i] is the sort
// key associated with positions[i].
func countingSortPositions(positions []int, key []int, classes int) []int {
	n := len(positions)
	cnt := make([]int, classes)
	for i := 0; i < n; i++ {
		cnt[key[i]]++
	}
	for i := 1; i < classes; i++ {
		cnt[i] += cnt[i-1]
	}
	out := make([]int, n)
	for i := n - 1; i >= 0; i-- {
		cnt[key[i]]--
		out[cnt[key[i]]] = positions[i]
	}
	return out
}

func (b *doublingBuilder) Array() ([]int, error) {
	if !b.built {
		return nil, &dferr.BuildFailureError{Reason: "suffix array not built"}
	}
	return b.sa, nil
}

func (b *doublingBuilder) LCP() ([]int, error) {
	if !b.built {
		return nil, &dferr.BuildFailureError{Reason: "lcp array not built"}
	}
	return b.lcp, nil
}

func (b *doublingBuilder) Text() (codepoint.String, error) {
	if !b.built {
		return codepoint.String{}, &dferr.BuildFailureError{Reason: "not built"}
	}
	return b.text, nil
}

func (b *doublingBuilder) IsBuilt() bool {
	return b.built
}

// naiveBuilder sorts true (non-cyclic) suffixes via repeated
// sort.Slice passes keyed by the previous round's equivalence classes,
// O(n log^2 n); a suffix that runs out of text sorts before one that
// continues. It is used to differentially test doublingBuilder and
// as a debugging fallback, never as the driver's default path.
type naiveBuilder struct {
	text  codepoint.String
	sa    []int
	lcp   []int
	built bool
}

func (b *naiveBuilder) Build(text codepoint.String) error {
	if b.built {
		return &dferr.BuildFailureError{Reason: "builder already built"}
	}
	n := text.Len()
	if n == 0 {
		return &dferr.BuildFailureError{Reason: "empty text"}
	}
	chars := text.Characters()

	rank, _ := initialRanks(chars)
	sa := make([]int, n)
	for i := range sa {
		sa[i] = i
	}

	for k := 1; k < n; k *= 2 {
		sort.Slice(sa, func(i, j int) bool {
			a, b := sa[i], sa[j]
			if rank[a] != rank[b] {
				return rank[a] < rank[b]
			}
			ra, rb := -1, -1
			if a+k < n {
				ra = rank[a+k]
			}
			if b+k < n {
				rb = rank[b+k]
			}
			return ra < rb
		})

		newRank := make([]int, n)
		newRank[sa[0]] = 0
		for i := 1; i < n; i++ {
			prevA, prevB := sa[i-1], sa[i]
			same := rank[prevA] == rank[prevB]
			if same {
				ra, rb := -1, -1
				if prevA+k < n {
					ra = rank[prevA+k]
				}
				if prevB+k < n {
					rb = rank[prevB+k]
				}
				same = ra == rb
			}
			if same {
				newRank[sa[i]] = newRank[sa[i-1]]
			} else {
				newRank[sa[i]] = newRank[sa[i-1]] + 1
			}
		}
		rank = newRank
	}

	b.text = text
	b.sa = sa
	b.lcp = kasai(sa, chars)
	b.built = true
	return nil
}

func (b *naiveBuilder) Array() ([]int, error) {
	if !b.built {
		return nil, &dferr.BuildFailureError{Reason: "suffix array not built"}
	}
	return b.sa, nil
}

func (b *naiveBuilder) LCP() ([]int, error) {
	if !b.built {
		return nil, &dferr.BuildFailureError{Reason: "lcp array not built"}
	}
	return b.lcp, nil
}

func (b *naiveBuilder) Text() (codepoint.String, error) {
	if !b.built {
		return codepoint.String{}, &dferr.BuildFailureError{Reason: "not built"}
	}
	return b.text, nil
}

func (b *naiveBuilder) IsBuilt() bool {
	return b.built
}
