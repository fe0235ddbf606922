// Package tags extracts keyword tags from document text for hybrid
// retrieval. Tags are the most frequent non-stop-words, so a keyword filter
// can narrow results before the search backend is consulted.
package tags

import (
	"encoding/json"
	"regexp"
	"sort"
	"strings"
)

// DefaultMax is the number of tags kept per document.
const DefaultMax = 10

var wordRe = regexp.MustCompile(`\b[a-z]{3,}\b`)

var stopWords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "but": {}, "in": {},
	"on": {}, "at": {}, "to": {}, "for": {}, "of": {}, "with": {}, "by": {},
	"from": {}, "as": {}, "is": {}, "was": {}, "are": {}, "were": {},
	"been": {}, "be": {}, "have": {}, "has": {}, "had": {}, "do": {},
	"does": {}, "did": {}, "will": {}, "would": {}, "should": {},
	"could": {}, "may": {}, "might": {}, "must": {}, "can": {}, "this": {},
	"that": {}, "these": {}, "those": {}, "it": {}, "its": {}, "they": {},
	"them": {}, "their": {}, "there": {},
}

// Extract returns up to max tags ordered by descending frequency. Ties keep
// the order in which the words were first seen.
func Extract(content string, max int) []string {
	if max <= 0 {
		return []string{}
	}

	words := wordRe.FindAllString(strings.ToLower(content), -1)

	type entry struct {
		word  string
		count int
	}
	counts := make(map[string]int)
	order := make([]string, 0)

	for _, w := range words {
		if _, stop := stopWords[w]; stop {
			continue
		}
		if len(w) <= 3 {
			continue
		}
		if _, seen := counts[w]; !seen {
			order = append(order, w)
		}
		counts[w]++
	}

	entries := make([]entry, 0, len(order))
	for _, w := range order {
		entries = append(entries, entry{word: w, count: counts[w]})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].count > entries[j].count
	})

	if len(entries) > max {
		entries = entries[:max]
	}
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.word
	}
	return out
}

// ToJSON serializes a tag list for the tags text column.
func ToJSON(tags []string) string {
	if tags == nil {
		tags = []string{}
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return "[]"
	}
	return string(b)
}

// FromJSON decodes a tags column value; malformed or empty input yields an
// empty list rather than an error.
func FromJSON(s string) []string {
	if s == "" {
		return []string{}
	}
	var tags []string
	if err := json.Unmarshal([]byte(s), &tags); err != nil || tags == nil {
		return []string{}
	}
	return tags
}
