// Package reconcile merges freshly scraped station readings into the persisted dataset
package reconcile

import (
	"github.com/abelzeko/floodcast/internal/entities"
)

// Stats describes what a merge did
type Stats struct {
	Inserted int // locations seen for the first time
	Updated  int // persisted locations overwritten by the scrape
	Retained int // persisted locations absent from the scrape, kept as-is
	Total    int
}

// Merge returns the persisted readings updated with the fresh scrape.
//
// A location present in both takes the fresh row in full, at its persisted
// position. New locations are appended in scrape order; if a location repeats
// within the scrape the later row wins. Persisted locations missing from the
// scrape are kept unchanged, so the result never loses a key. A location
// repeated in prior collapses to its last row at its first position. Neither
// input is modified.
func Merge(prior, fresh []entities.StationReading) ([]entities.StationReading, Stats) {
	result := make([]entities.StationReading, 0, len(prior)+len(fresh))
	index := make(map[string]int, len(prior)+len(fresh))
	for _, r := range prior {
		if i, ok := index[r.Location]; ok {
			result[i] = r
			continue
		}
		index[r.Location] = len(result)
		result = append(result, r)
	}
	persisted := len(result)

	touched := make(map[string]bool, len(fresh))
	var stats Stats
	for _, candidate := range fresh {
		if i, ok := index[candidate.Location]; ok {
			result[i] = candidate
			if !touched[candidate.Location] && i < persisted {
				stats.Updated++
			}
			touched[candidate.Location] = true
			continue
		}
		index[candidate.Location] = len(result)
		result = append(result, candidate)
		touched[candidate.Location] = true
		stats.Inserted++
	}

	stats.Total = len(result)
	stats.Retained = stats.Total - stats.Inserted - stats.Updated
	return result, stats
}
