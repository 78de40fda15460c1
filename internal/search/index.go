// Package search ranks graph nodes and regions against free-text queries.
package search

import (
	"math"
	"path"
	"regexp"
	"sort"
	"strings"

	"github.com/morozRed/notegraph/internal/graph"
)

const Version = "search-index-v2"

var tokenPattern = regexp.MustCompile(`[a-z0-9_]+`)

type Document struct {
	ID     string         `json:"id"`
	Label  string         `json:"label"`
	Kind   graph.Kind     `json:"kind"`
	Parent string         `json:"parent,omitempty"`
	Length int            `json:"length"`
	Terms  map[string]int `json:"terms"`
}

type Index struct {
	Version       string         `json:"version"`
	DocumentCount int            `json:"document_count"`
	AvgDocLength  float64        `json:"avg_doc_length"`
	DocFreq       map[string]int `json:"doc_freq"`
	Documents     []Document     `json:"documents"`
}

// Result is one ranked hit. Focus is the visible id a renderer should center
// on, which differs from ID when the hit is hidden by a collapsed region.
type Result struct {
	ID    string     `json:"id"`
	Label string     `json:"label"`
	Kind  graph.Kind `json:"kind"`
	Score float64    `json:"score"`
	Focus string     `json:"focus,omitempty"`
}

// Build indexes every node and region of the given subgraphs. Later
// subgraphs do not override an id already indexed.
func Build(graphs ...*graph.Subgraph) *Index {
	seen := make(map[string]bool)
	documents := make([]Document, 0)
	docFreq := make(map[string]int)
	totalLength := 0

	add := func(id, label, parent string, kind graph.Kind) {
		if seen[id] {
			return
		}
		seen[id] = true

		terms := buildTerms(label, id)
		length := 0
		for _, count := range terms {
			length += count
		}
		if length == 0 {
			return
		}

		documents = append(documents, Document{
			ID:     id,
			Label:  label,
			Kind:   kind,
			Parent: parent,
			Length: length,
			Terms:  terms,
		})
		totalLength += length
		for term := range terms {
			docFreq[term]++
		}
	}

	for _, g := range graphs {
		if g == nil {
			continue
		}
		for _, r := range g.SortedRegions() {
			add(r.ID, r.Label, r.Parent, graph.KindRegion)
		}
		for _, n := range g.SortedNodes() {
			add(n.ID, n.Label, n.Parent, graph.KindFile)
		}
	}

	sort.Slice(documents, func(i, j int) bool {
		return documents[i].ID < documents[j].ID
	})

	avgDocLength := 0.0
	if len(documents) > 0 {
		avgDocLength = float64(totalLength) / float64(len(documents))
	}

	return &Index{
		Version:       Version,
		DocumentCount: len(documents),
		AvgDocLength:  avgDocLength,
		DocFreq:       docFreq,
		Documents:     documents,
	}
}

func Search(index *Index, query string, limit int) []Result {
	if index == nil || len(index.Documents) == 0 {
		return nil
	}
	if limit <= 0 {
		limit = 10
	}

	queryTerms := tokenize(query)
	if len(queryTerms) == 0 {
		return nil
	}

	seenTerms := make(map[string]bool, len(queryTerms))
	uniqueTerms := make([]string, 0, len(queryTerms))
	for _, term := range queryTerms {
		if seenTerms[term] {
			continue
		}
		seenTerms[term] = true
		uniqueTerms = append(uniqueTerms, term)
	}

	k1 := 1.2
	b := 0.75
	n := float64(index.DocumentCount)
	avgLen := index.AvgDocLength
	if avgLen <= 0 {
		avgLen = 1
	}

	results := make([]Result, 0)
	for _, doc := range index.Documents {
		score := 0.0
		docLen := float64(doc.Length)
		for _, term := range uniqueTerms {
			tf := float64(doc.Terms[term])
			if tf <= 0 {
				continue
			}
			df := float64(index.DocFreq[term])
			if df <= 0 {
				continue
			}
			idf := math.Log(1.0 + ((n - df + 0.5) / (df + 0.5)))
			numerator := tf * (k1 + 1.0)
			denominator := tf + k1*(1.0-b+b*(docLen/avgLen))
			score += idf * (numerator / denominator)
		}
		if score > 0 {
			results = append(results, resultFor(doc, score))
		}
	}

	sortResults(results)
	if len(results) > limit {
		results = results[:limit]
	}
	if len(results) == 0 {
		fallback := fuzzyLabelFallback(index.Documents, query, limit)
		if len(fallback) > 0 {
			return fallback
		}
	}
	return results
}

// WithFocus fills Focus for each result from the visible id set.
func WithFocus(results []Result, visible map[string]bool) []Result {
	for i := range results {
		if focus, ok := graph.ResolveVisible(visible, results[i].ID); ok {
			results[i].Focus = focus
		}
	}
	return results
}

func resultFor(doc Document, score float64) Result {
	return Result{ID: doc.ID, Label: doc.Label, Kind: doc.Kind, Score: score}
}

func sortResults(results []Result) {
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].ID < results[j].ID
	})
}

func buildTerms(label, id string) map[string]int {
	terms := make(map[string]int)
	addWeighted(terms, label, 4)
	addWeighted(terms, id, 2)
	return terms
}

func addWeighted(terms map[string]int, value string, weight int) {
	if weight <= 0 {
		return
	}
	for _, token := range tokenize(value) {
		terms[token] += weight
	}
}

func tokenize(value string) []string {
	value = strings.ToLower(value)
	if value == "" {
		return nil
	}
	return tokenPattern.FindAllString(value, -1)
}

func fuzzyLabelFallback(documents []Document, query string, limit int) []Result {
	needle := normalizeForFuzzy(query)
	if needle == "" {
		return nil
	}

	results := make([]Result, 0)
	for _, doc := range documents {
		stem := strings.TrimSuffix(doc.Label, path.Ext(doc.Label))
		candidate := normalizeForFuzzy(stem)
		if candidate == "" {
			continue
		}
		distance := levenshteinDistance(needle, candidate)
		threshold := len(candidate) / 3
		if threshold < 2 {
			threshold = 2
		}
		if distance > threshold {
			continue
		}
		results = append(results, resultFor(doc, 1.0/float64(1+distance)))
	}

	sortResults(results)
	if len(results) > limit {
		results = results[:limit]
	}
	return results
}

func normalizeForFuzzy(value string) string {
	tokens := tokenize(value)
	if len(tokens) == 0 {
		return ""
	}
	return strings.Join(tokens, "")
}

func levenshteinDistance(a, b string) int {
	if a == b {
		return 0
	}
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	for j := 0; j <= len(b); j++ {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		current := make([]int, len(b)+1)
		current[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 0
			if a[i-1] != b[j-1] {
				cost = 1
			}
			current[j] = min(current[j-1]+1, prev[j]+1, prev[j-1]+cost)
		}
		prev = current
	}

	return prev[len(b)]
}
