package threshold

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abelzeko/floodcast/internal/entities"
)

func valid(v float64) sql.NullFloat64 {
	return sql.NullFloat64{Float64: v, Valid: true}
}

func TestIsAlert_Boundary(t *testing.T) {
	assert.True(t, IsAlert(valid(9), valid(10), 90), "exactly at threshold is an alert")
	assert.False(t, IsAlert(valid(8.9), valid(10), 90))
	assert.True(t, IsAlert(valid(12), valid(10), 100))
	assert.True(t, IsAlert(valid(10), valid(10), 100))
	assert.False(t, IsAlert(valid(9.99), valid(10), 100))
}

func TestIsAlert_ZeroPercentAlertsAnyNonNegativeReading(t *testing.T) {
	assert.True(t, IsAlert(valid(0), valid(10), 0))
	assert.True(t, IsAlert(valid(3), valid(10), 0))
}

func TestIsAlert_NullNeverAlerts(t *testing.T) {
	for percent := 0.0; percent <= 100; percent += 5 {
		assert.False(t, IsAlert(sql.NullFloat64{}, valid(10), percent))
		assert.False(t, IsAlert(valid(100), sql.NullFloat64{}, percent))
		assert.False(t, IsAlert(sql.NullFloat64{}, sql.NullFloat64{}, percent))
	}
}

func TestValidatePercent(t *testing.T) {
	require.NoError(t, ValidatePercent(0))
	require.NoError(t, ValidatePercent(100))
	require.NoError(t, ValidatePercent(72.5))
	require.ErrorIs(t, ValidatePercent(-1), ErrPercentOutOfRange)
	require.ErrorIs(t, ValidatePercent(100.1), ErrPercentOutOfRange)
}

func TestClassify(t *testing.T) {
	readings := []entities.StationReading{
		{Location: "A", DangerLevel: valid(10), ObservedLevel: valid(9)},
		{Location: "B", DangerLevel: valid(10), ObservedLevel: valid(8.9)},
		{Location: "C", DangerLevel: sql.NullFloat64{}, ObservedLevel: valid(50)},
		{Location: "D", DangerLevel: valid(4), ObservedLevel: valid(4.5)},
	}

	all, err := Classify(readings, 90, FilterAll)
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.True(t, all[0].IsAlert)
	assert.Equal(t, valid(9), all[0].ThresholdLevel)
	assert.False(t, all[1].IsAlert)
	assert.False(t, all[2].IsAlert)
	assert.False(t, all[2].ThresholdLevel.Valid)
	assert.True(t, all[3].IsAlert)
	assert.Equal(t, 2, CountAlerts(all))

	alerts, err := Classify(readings, 90, FilterAlertOnly)
	require.NoError(t, err)
	require.Len(t, alerts, 2)
	assert.Equal(t, "A", alerts[0].Reading.Location)
	assert.Equal(t, "D", alerts[1].Reading.Location)
}

func TestClassify_RejectsBadInput(t *testing.T) {
	_, err := Classify(nil, 120, FilterAll)
	require.ErrorIs(t, err, ErrPercentOutOfRange)

	_, err = Classify(nil, 50, FilterMode("some"))
	require.Error(t, err)
}

func TestParseFilterMode(t *testing.T) {
	m, err := ParseFilterMode("")
	require.NoError(t, err)
	assert.Equal(t, FilterAll, m)

	m, err = ParseFilterMode("Alert-Only")
	require.NoError(t, err)
	assert.Equal(t, FilterAlertOnly, m)

	_, err = ParseFilterMode("everything")
	require.Error(t, err)
}
