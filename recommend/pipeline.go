// Package recommend ranks catalog items for a viewer by combining raw
// popularity with genre affinity. The pipeline is a fixed sequence of pure
// stages over an in-memory snapshot, so the same inputs always produce the
// same ordered output.
package recommend

import (
	"sort"

	m "github.com/amitalon123/Video-Streaming-Project/models"
)

// DefaultLimit is the number of recommendations returned when the caller
// does not ask for a specific amount.
const DefaultLimit = 10

// Rank runs the scoring pipeline:
//
//  1. drop items in excludeIDs
//  2. annotate every item with its genre overlap against likedGenres
//  3. if likedGenres is non-empty, drop items with no overlap
//  4. score: (views + likes*5) * (1 + genreMatchCount)
//  5. order by score descending, release year descending on ties
//  6. keep the top limit items
//
// Likes weigh five times a view as an engagement signal; the genre overlap is
// a multiplicative boost so a strong match can outrank a merely better-viewed
// but irrelevant item. With no liked genres every item scores on popularity
// alone.
func Rank(items []m.Content, likedGenres, excludeIDs []int, limit int) []m.ScoredContent {
	if limit <= 0 {
		limit = DefaultLimit
	}

	candidates := exclude(items, excludeIDs)
	scored := annotate(candidates, likedGenres)
	if len(likedGenres) > 0 {
		scored = gate(scored)
	}
	score(scored)
	rank(scored)
	return truncate(scored, limit)
}

func exclude(items []m.Content, excludeIDs []int) []m.Content {
	if len(excludeIDs) == 0 {
		return items
	}
	excluded := make(map[int]struct{}, len(excludeIDs))
	for _, id := range excludeIDs {
		excluded[id] = struct{}{}
	}
	kept := make([]m.Content, 0, len(items))
	for _, item := range items {
		if _, ok := excluded[item.ID]; !ok {
			kept = append(kept, item)
		}
	}
	return kept
}

// annotate wraps each item with the size of the intersection between its
// genres and the liked set. genreMatchCount is 0 for everything when no
// genres are liked.
func annotate(items []m.Content, likedGenres []int) []m.ScoredContent {
	liked := make(map[int]struct{}, len(likedGenres))
	for _, id := range likedGenres {
		liked[id] = struct{}{}
	}
	scored := make([]m.ScoredContent, 0, len(items))
	for _, item := range items {
		matches := 0
		for _, g := range item.Genres {
			if _, ok := liked[g.ID]; ok {
				matches++
			}
		}
		scored = append(scored, m.ScoredContent{Content: item, GenreMatchCount: matches})
	}
	return scored
}

// gate drops items that share no genre with the liked set.
func gate(items []m.ScoredContent) []m.ScoredContent {
	kept := items[:0]
	for _, item := range items {
		if item.GenreMatchCount > 0 {
			kept = append(kept, item)
		}
	}
	return kept
}

func score(items []m.ScoredContent) {
	for i := range items {
		popularity := items[i].Views + items[i].Likes*5
		items[i].RecommendationScore = popularity * (1 + items[i].GenreMatchCount)
	}
}

func rank(items []m.ScoredContent) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].RecommendationScore != items[j].RecommendationScore {
			return items[i].RecommendationScore > items[j].RecommendationScore
		}
		return items[i].ReleaseYear > items[j].ReleaseYear
	})
}

func truncate(items []m.ScoredContent, limit int) []m.ScoredContent {
	if len(items) > limit {
		items = items[:limit]
	}
	return items
}
