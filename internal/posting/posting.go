// Package posting defines the value types shared by the in-memory index,
// the shard writer/reader, and the ranker: a Posting records one term's
// occurrences within one document.
package posting

// Posting is one (term, document) occurrence record. Invariants:
// TermFreq == len(Positions), and Positions is strictly increasing.
type Posting struct {
	DocID     uint32
	TermFreq  uint32
	Positions []int
}

// List is a posting list for one term, kept sorted ascending by DocID with
// each DocID appearing at most once.
type List []Posting

// Len implements sort.Interface.
func (l List) Len() int { return len(l) }

// Less implements sort.Interface, ordering by DocID ascending.
func (l List) Less(i, j int) bool { return l[i].DocID < l[j].DocID }

// Swap implements sort.Interface.
func (l List) Swap(i, j int) { l[i], l[j] = l[j], l[i] }

// DocFreq returns the number of documents this term occurs in.
func (l List) DocFreq() int { return len(l) }

// ByDocID returns the posting for docID, or false if it is not present.
func (l List) ByDocID(docID uint32) (Posting, bool) {
	for _, p := range l {
		if p.DocID == docID {
			return p, true
		}
	}
	return Posting{}, false
}
