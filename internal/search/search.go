// Package search holds the corpus query logic: the document filter and the
// tag aggregator. Both are pure functions over an in-memory snapshot; they
// never mutate their input and are safe to call concurrently.
package search

import (
	"strings"

	"docvault/internal/model"
)

// FilterDocuments returns the documents of corpus that satisfy every
// non-empty condition of q, in corpus order. Tags match when at least one
// query tag is present on the document.
func FilterDocuments(corpus []model.Document, q model.Query) []model.Document {
	out := make([]model.Document, 0, len(corpus))
	if q.IsEmpty() {
		return append(out, corpus...)
	}

	term := strings.ToLower(q.SearchTerm)
	for _, doc := range corpus {
		if q.MajorHead != "" && doc.MajorHead != q.MajorHead {
			continue
		}
		if q.MinorHead != "" && doc.MinorHead != q.MinorHead {
			continue
		}
		if term != "" && !containsFold(doc.Name, term) && !containsFold(doc.DocumentRemarks, term) {
			continue
		}
		if len(q.Tags) > 0 && !hasAnyTag(doc.Tags, q.Tags) {
			continue
		}
		out = append(out, doc)
	}
	return out
}

// AggregateTags returns every distinct tag used in corpus, in the order the
// tags are first seen.
func AggregateTags(corpus []model.Document) []string {
	seen := make(map[string]struct{})
	tags := make([]string, 0)
	for _, doc := range corpus {
		for _, t := range doc.Tags {
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			tags = append(tags, t)
		}
	}
	return tags
}

// containsFold expects lowerTerm to be lower-cased already.
func containsFold(s, lowerTerm string) bool {
	if s == "" {
		return false
	}
	return strings.Contains(strings.ToLower(s), lowerTerm)
}

func hasAnyTag(docTags, wanted []string) bool {
	for _, w := range wanted {
		for _, t := range docTags {
			if t == w {
				return true
			}
		}
	}
	return false
}
