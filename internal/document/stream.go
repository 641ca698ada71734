package document

import "iter"

// Stream is a finite, single-use lazy sequence of documents. Each pipeline
// stage consumes one stream and yields another; the full document set is
// materialized only once, right before persistence.
type Stream = iter.Seq[*Document]

// FromSlice yields the documents of a slice in order.
func FromSlice(docs []*Document) Stream {
	return func(yield func(*Document) bool) {
		for _, doc := range docs {
			if !yield(doc) {
				return
			}
		}
	}
}

// Empty yields nothing.
func Empty() Stream {
	return func(yield func(*Document) bool) {}
}

// Collect materializes a stream into a slice.
func Collect(s Stream) []*Document {
	var docs []*Document
	for doc := range s {
		docs = append(docs, doc)
	}
	return docs
}

// Concat yields all documents of each stream in turn.
func Concat(streams ...Stream) Stream {
	return func(yield func(*Document) bool) {
		for _, s := range streams {
			for doc := range s {
				if !yield(doc) {
					return
				}
			}
		}
	}
}

// Count drains a stream and returns the number of documents seen.
func Count(s Stream) int {
	n := 0
	for range s {
		n++
	}
	return n
}
