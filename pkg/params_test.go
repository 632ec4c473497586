package slicer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdateConfigParameterScaling(t *testing.T) {
	cfg := testElecConfig()

	require.NoError(t, UpdateConfigParameter(&cfg, "daq", "sampling", "250"))
	assert.InDelta(t, 0.25, cfg.Sampling, 1e-12)

	require.NoError(t, UpdateConfigParameter(&cfg, "sipm", "dcr", "1000"))
	assert.InDelta(t, 1e-6, cfg.DCR, 1e-18)

	require.NoError(t, UpdateConfigParameter(&cfg, "daq", "jitter", "7.5"))
	assert.InDelta(t, 7.5, cfg.Jitter, 1e-12)

	require.NoError(t, UpdateConfigParameter(&cfg, "zle", "pre_trigger", "12"))
	assert.Equal(t, 12, cfg.PreTrigger)

	require.NoError(t, UpdateConfigParameter(&cfg, "daq", "noise_spectrum", "flat.json"))
	assert.Equal(t, "flat.json", cfg.NoiseSpectrum)
}

func TestUpdateConfigParameterUnknownIsNoOp(t *testing.T) {
	cfg := testElecConfig()
	before := cfg

	require.NoError(t, UpdateConfigParameter(&cfg, "daq", "bogus", "5"))
	require.NoError(t, UpdateConfigParameter(&cfg, "bogus", "snr", "5"))
	assert.Equal(t, before, cfg)
}

func TestUpdateConfigParameterParseErrors(t *testing.T) {
	cfg := testElecConfig()

	err := UpdateConfigParameter(&cfg, "daq", "snr", "ten")
	assert.ErrorContains(t, err, "invalid float")

	err = UpdateConfigParameter(&cfg, "zle", "post_trigger", "3.5")
	assert.ErrorContains(t, err, "invalid int")
}

func TestParseValues(t *testing.T) {
	assert.Nil(t, ParseValues(""))
	assert.Nil(t, ParseValues("   "))
	assert.Equal(t, []string{"5"}, ParseValues("5"))
	assert.Equal(t, []string{"5", "10", "15"}, ParseValues("5, 10 ,15"))
}

func TestLabelDropsTrailingZeros(t *testing.T) {
	var snr, preTrigger SweepParam
	for _, sp := range SweepParams {
		switch sp.Flag {
		case "snr":
			snr = sp
		case "pre-trigger":
			preTrigger = sp
		}
	}

	assert.Equal(t, "5", snr.Label("5.0"))
	assert.Equal(t, "5", snr.Label("5"))
	assert.Equal(t, "0.25", snr.Label("0.250"))
	assert.Equal(t, "8", preTrigger.Label("8"))
}

func TestResolveSweepFirstMatchWins(t *testing.T) {
	// Both dcr and tau passed; dcr comes first in the table.
	sp, values, ok := ResolveSweep(map[string]string{
		"tau": "200,400",
		"dcr": "100,200",
	})
	require.True(t, ok)
	assert.Equal(t, "dcr", sp.Flag)
	assert.Equal(t, []string{"100", "200"}, values)

	_, _, ok = ResolveSweep(map[string]string{"snr": ""})
	assert.False(t, ok)
}
