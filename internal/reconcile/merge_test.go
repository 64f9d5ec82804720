package reconcile

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abelzeko/floodcast/internal/entities"
)

func level(v float64) sql.NullFloat64 {
	return sql.NullFloat64{Float64: v, Valid: true}
}

func reading(location string, danger, observed float64) entities.StationReading {
	return entities.StationReading{Location: location, DangerLevel: level(danger), ObservedLevel: level(observed)}
}

func TestMerge_NewLocationAdded(t *testing.T) {
	prior := []entities.StationReading{reading("A", 10, 8)}
	fresh := []entities.StationReading{reading("B", 5, 6)}

	merged, stats := Merge(prior, fresh)

	assert.Equal(t, []entities.StationReading{reading("A", 10, 8), reading("B", 5, 6)}, merged)
	assert.Equal(t, Stats{Inserted: 1, Updated: 0, Retained: 1, Total: 2}, stats)
}

func TestMerge_MatchedLocationOverwritten(t *testing.T) {
	prior := []entities.StationReading{reading("A", 10, 8)}
	fresh := []entities.StationReading{reading("A", 10, 9)}

	merged, stats := Merge(prior, fresh)

	assert.Equal(t, []entities.StationReading{reading("A", 10, 9)}, merged)
	assert.Equal(t, Stats{Updated: 1, Total: 1}, stats)
}

func TestMerge_DangerLevelRefreshed(t *testing.T) {
	prior := []entities.StationReading{reading("A", 10, 8)}
	fresh := []entities.StationReading{reading("A", 11, 8)}

	merged, _ := Merge(prior, fresh)

	require.Len(t, merged, 1)
	assert.Equal(t, 11.0, merged[0].DangerLevel.Float64)
}

func TestMerge_NullFreshValueReplacesPrior(t *testing.T) {
	prior := []entities.StationReading{reading("A", 10, 8)}
	fresh := []entities.StationReading{{Location: "A", DangerLevel: level(10)}}

	merged, _ := Merge(prior, fresh)

	require.Len(t, merged, 1)
	assert.False(t, merged[0].ObservedLevel.Valid)
}

func TestMerge_EmptyPrior(t *testing.T) {
	fresh := []entities.StationReading{reading("X", 1, 2), reading("Y", 3, 4)}

	merged, stats := Merge(nil, fresh)

	assert.Equal(t, fresh, merged)
	assert.Equal(t, 2, stats.Inserted)
}

func TestMerge_EmptyScrapeKeepsEverything(t *testing.T) {
	prior := []entities.StationReading{reading("A", 10, 8), reading("B", 5, 6)}

	merged, stats := Merge(prior, nil)

	assert.Equal(t, prior, merged)
	assert.Equal(t, Stats{Retained: 2, Total: 2}, stats)
}

func TestMerge_DuplicateInScrapeLaterWins(t *testing.T) {
	fresh := []entities.StationReading{reading("A", 10, 1), reading("B", 5, 5), reading("A", 10, 2)}

	merged, stats := Merge(nil, fresh)

	assert.Equal(t, []entities.StationReading{reading("A", 10, 2), reading("B", 5, 5)}, merged)
	assert.Equal(t, Stats{Inserted: 2, Total: 2}, stats)
}

func TestMerge_LocationIsCaseSensitive(t *testing.T) {
	prior := []entities.StationReading{reading("Dhaka", 6, 5)}
	fresh := []entities.StationReading{reading("DHAKA", 6, 4)}

	merged, _ := Merge(prior, fresh)

	assert.Len(t, merged, 2)
}

func TestMerge_NoKeyLossAndFreshWins(t *testing.T) {
	prior := []entities.StationReading{reading("A", 10, 8), reading("B", 5, 4), reading("C", 7, 1)}
	fresh := []entities.StationReading{reading("C", 7, 6.5), reading("D", 3, 2), reading("A", 10, 9.5)}

	merged, stats := Merge(prior, fresh)

	byLocation := make(map[string]entities.StationReading)
	for _, r := range merged {
		byLocation[r.Location] = r
	}
	for _, r := range prior {
		assert.Contains(t, byLocation, r.Location)
	}
	for _, r := range fresh {
		assert.Equal(t, r, byLocation[r.Location])
	}
	assert.Len(t, merged, 4)
	assert.Equal(t, Stats{Inserted: 1, Updated: 2, Retained: 1, Total: 4}, stats)
}

func TestMerge_Idempotent(t *testing.T) {
	prior := []entities.StationReading{reading("A", 10, 8), reading("B", 5, 4)}
	fresh := []entities.StationReading{reading("B", 5, 4.4), reading("C", 2, 1)}

	once, _ := Merge(prior, fresh)
	twice, _ := Merge(once, fresh)

	assert.Equal(t, once, twice)
}

func TestMerge_InputsUnchanged(t *testing.T) {
	prior := []entities.StationReading{reading("A", 10, 8)}
	fresh := []entities.StationReading{reading("A", 10, 9)}

	_, _ = Merge(prior, fresh)

	assert.Equal(t, 8.0, prior[0].ObservedLevel.Float64)
}

func TestMerge_RepeatedPriorLocationCollapses(t *testing.T) {
	prior := []entities.StationReading{reading("A", 10, 1), reading("B", 5, 3), reading("A", 10, 2)}

	merged, stats := Merge(prior, nil)
	assert.Equal(t, []entities.StationReading{reading("A", 10, 2), reading("B", 5, 3)}, merged)
	assert.Equal(t, Stats{Retained: 2, Total: 2}, stats)

	merged, stats = Merge(prior, []entities.StationReading{reading("A", 10, 9)})
	assert.Equal(t, []entities.StationReading{reading("A", 10, 9), reading("B", 5, 3)}, merged)
	assert.Equal(t, Stats{Updated: 1, Retained: 1, Total: 2}, stats)
}
