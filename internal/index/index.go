// Package index holds the in-memory positional inverted index: a mapping
// from term to posting list, kept in lexicographic term order so that
// shard writes are deterministic without a separate sort pass.
package index

import (
	"sync"

	"github.com/huandu/skiplist"

	"github.com/elias-vance/lexishard/internal/posting"
)

// Index is a term -> posting.List map, ordered by term. Every method takes
// the mutex, so concurrent calls do not race; posting lists stay sorted by
// DocID with one posting per document only when documents are added one
// after another in ascending DocID order, as BuildIndex does. Readers
// iterate a stable snapshot of terms already present (entries are never
// removed during a build).
type Index struct {
	mu    sync.RWMutex
	terms *skiplist.SkipList
}

// New creates an empty Index.
func New() *Index {
	return &Index{terms: skiplist.New(skiplist.String)}
}

// Add records one occurrence of term in docID at position pos. If the last
// posting for term already targets docID, its term frequency is
// incremented and pos appended; otherwise a new posting is created. The
// caller is responsible for calling Add with strictly increasing pos
// values per document.
func (idx *Index) Add(term string, docID uint32, pos int) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	elem := idx.terms.Get(term)
	if elem == nil {
		idx.terms.Set(term, &posting.List{{DocID: docID, TermFreq: 1, Positions: []int{pos}}})
		return
	}

	list := elem.Value.(*posting.List)
	n := len(*list)
	if n > 0 && (*list)[n-1].DocID == docID {
		(*list)[n-1].TermFreq++
		(*list)[n-1].Positions = append((*list)[n-1].Positions, pos)
		return
	}
	*list = append(*list, posting.Posting{DocID: docID, TermFreq: 1, Positions: []int{pos}})
}

// Put installs postings for term wholesale, overwriting any existing entry.
// Used by the shard reader when reloading an index from disk.
func (idx *Index) Put(term string, postings posting.List) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	cp := make(posting.List, len(postings))
	copy(cp, postings)
	idx.terms.Set(term, &cp)
}

// Get returns the posting list for term, or (nil, false) if term is not
// indexed.
func (idx *Index) Get(term string) (posting.List, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	elem := idx.terms.Get(term)
	if elem == nil {
		return nil, false
	}
	return *elem.Value.(*posting.List), true
}

// Len returns the number of distinct terms in the index.
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.terms.Len()
}

// Terms invokes fn for every term in lexicographic order, with its posting
// list. Iteration observes a consistent snapshot: fn must not call back
// into Add/Put on the same Index.
func (idx *Index) Terms(fn func(term string, postings posting.List)) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	for elem := idx.terms.Front(); elem != nil; elem = elem.Next() {
		fn(elem.Key().(string), *elem.Value.(*posting.List))
	}
}
