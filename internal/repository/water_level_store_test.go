package repository

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abelzeko/floodcast/internal/entities"
)

func level(v float64) sql.NullFloat64 {
	return sql.NullFloat64{Float64: v, Valid: true}
}

var sampleReadings = []entities.StationReading{
	{Location: "Sylhet", DangerLevel: level(11.25), ObservedLevel: level(10.95)},
	{Location: "Chattak, Sunamganj", DangerLevel: level(9.75), ObservedLevel: sql.NullFloat64{}},
	{Location: "Dhaka", DangerLevel: sql.NullFloat64{}, ObservedLevel: level(5)},
}

// storeFactories lets every contract test run against each backend
func storeFactories(t *testing.T) map[string]func() WaterLevelStore {
	return map[string]func() WaterLevelStore{
		"csv": func() WaterLevelStore {
			return NewCSVWaterLevelStore(filepath.Join(t.TempDir(), "nested", "water_levels.csv"))
		},
		"sqlite": func() WaterLevelStore {
			store, err := NewSQLiteWaterLevelStore(filepath.Join(t.TempDir(), "water_levels.db"))
			require.NoError(t, err)
			return store
		},
	}
}

func TestWaterLevelStore_EmptyBeforeFirstReplace(t *testing.T) {
	for name, newStore := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			store := newStore()
			defer store.Close()

			readings, err := store.Load()
			require.NoError(t, err)
			assert.Empty(t, readings)
		})
	}
}

func TestWaterLevelStore_RoundTrip(t *testing.T) {
	for name, newStore := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			store := newStore()
			defer store.Close()

			require.NoError(t, store.Replace(sampleReadings))

			readings, err := store.Load()
			require.NoError(t, err)
			assert.Equal(t, sampleReadings, readings)
		})
	}
}

func TestWaterLevelStore_ReplaceOverwrites(t *testing.T) {
	for name, newStore := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			store := newStore()
			defer store.Close()

			require.NoError(t, store.Replace(sampleReadings))
			replacement := []entities.StationReading{{Location: "Bahadurabad", DangerLevel: level(19.5), ObservedLevel: level(18)}}
			require.NoError(t, store.Replace(replacement))

			readings, err := store.Load()
			require.NoError(t, err)
			assert.Equal(t, replacement, readings)
		})
	}
}

func TestCSVWaterLevelStore_FileFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "water_levels.csv")
	store := NewCSVWaterLevelStore(path)

	require.NoError(t, store.Replace(sampleReadings))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Location,Danger Level,WL Observed\n"+
		"Sylhet,11.25,10.95\n"+
		"\"Chattak, Sunamganj\",9.75,\n"+
		"Dhaka,,5\n", string(content))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary file left behind")
}

func TestCSVWaterLevelStore_ReadsRawScrapedText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "water_levels.csv")
	data := "Location,Danger Level,WL Observed\n" +
		"Sylhet,11.25, 10.95 \n" +
		"Kanaighat,13.20,--\n" +
		",1,2\n" +
		"Short\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	readings, err := NewCSVWaterLevelStore(path).Load()
	require.NoError(t, err)

	require.Len(t, readings, 3)
	assert.Equal(t, level(10.95), readings[0].ObservedLevel)
	assert.False(t, readings[1].ObservedLevel.Valid)
	assert.Equal(t, "Short", readings[2].Location)
	assert.False(t, readings[2].DangerLevel.Valid)
}

func TestCSVWaterLevelStore_BadHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "water_levels.csv")
	require.NoError(t, os.WriteFile(path, []byte("Station,Danger\nA,1\n"), 0644))

	_, err := NewCSVWaterLevelStore(path).Load()
	require.ErrorIs(t, err, ErrBadHeader)
}

func TestOpenWaterLevelStore(t *testing.T) {
	dir := t.TempDir()

	store, err := OpenWaterLevelStore(BackendCSV, filepath.Join(dir, "wl.csv"), filepath.Join(dir, "wl.db"))
	require.NoError(t, err)
	assert.IsType(t, &CSVWaterLevelStore{}, store)

	store, err = OpenWaterLevelStore(BackendSQLite, filepath.Join(dir, "wl.csv"), filepath.Join(dir, "wl.db"))
	require.NoError(t, err)
	assert.IsType(t, &SQLiteWaterLevelStore{}, store)
	require.NoError(t, store.Close())

	_, err = OpenWaterLevelStore("postgres", "", "")
	require.Error(t, err)
}

func TestCSVWaterLevelStore_RepeatedLocationKeepsLastRow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "water_levels.csv")
	data := "Location,Danger Level,WL Observed\nA,10,1\nB,5,3\nA,10,2\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	readings, err := NewCSVWaterLevelStore(path).Load()
	require.NoError(t, err)
	assert.Equal(t, []entities.StationReading{
		{Location: "A", DangerLevel: level(10), ObservedLevel: level(2)},
		{Location: "B", DangerLevel: level(5), ObservedLevel: level(3)},
	}, readings)
}

func TestCSVWaterLevelStore_ReplaceKeepsFileMode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "water_levels.csv")
	store := NewCSVWaterLevelStore(path)

	require.NoError(t, store.Replace(sampleReadings))
	require.NoError(t, store.Replace(sampleReadings))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0644), info.Mode().Perm())
}
