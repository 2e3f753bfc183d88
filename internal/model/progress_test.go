package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseProgressStatus(t *testing.T) {
	cases := map[string]ProgressStatus{
		"planted":            ProgressPlanted,
		" Growing ":          ProgressGrowing,
		"HARVESTED":          ProgressHarvested,
		"Ready for Delivery": ProgressReadyForDelivery,
		"ready-for-delivery": ProgressReadyForDelivery,
		"delivered":          ProgressDelivered,
	}
	for raw, want := range cases {
		got, err := ParseProgressStatus(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got)
	}

	_, err := ParseProgressStatus("sprouting")
	assert.Error(t, err)
}

func TestProgressStatusPercent(t *testing.T) {
	assert.Equal(t, 20, ProgressPlanted.Percent())
	assert.Equal(t, 100, ProgressDelivered.Percent())
	assert.Equal(t, 0, ProgressStatus("unknown").Percent())
}
