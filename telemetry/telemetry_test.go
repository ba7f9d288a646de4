package telemetry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDatasetInsertGroupsBySeriesID(t *testing.T) {
	var ds Dataset
	ds.Insert(3, Datapoint{Time: 1, Value: 10})
	ds.Insert(1, Datapoint{Time: 1, Value: 20})
	ds.Insert(3, Datapoint{Time: 2, Value: 11})

	require.Len(t, ds.Series, 2)
	assert.Equal(t, 3, ds.Series[0].ID, "series keep first-seen order")
	assert.Equal(t, 1, ds.Series[1].ID)
	assert.Equal(t, []Datapoint{{1, 10}, {2, 11}}, ds.Series[0].Data)
	assert.Equal(t, 1, ds.Index(1))
	assert.Equal(t, -1, ds.Index(7))
}

func TestDatasetResolved(t *testing.T) {
	ds := Dataset{Series: []Dataseries{{ID: 0}}}
	assert.False(t, ds.Resolved())
	ds.Name = "Temperature"
	assert.False(t, ds.Resolved())
	ds.Series[0].Name = "Average"
	assert.True(t, ds.Resolved())
}
