package slicer

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateVetoWaveformsPulseShape(t *testing.T) {
	cfg := testElecConfig() // snr 0, tau 400 ns, sampling 0.125 cycles/ns
	gate := Gate{Start: 1000, Duration: 80}
	pes := []PERecord{{Time: 1000, Channel: 3, Amplitude: 2}}

	wfs := CreateVetoWaveforms(pes, gate, cfg, NewRand(1, 2))
	require.Len(t, wfs, 1)
	wf := wfs[3]
	require.Len(t, wf, 10)

	assert.Equal(t, 2.0, wf[0])
	// One sample is 8 ns, one decay step of exp(-8/400).
	assert.InDelta(t, 2*math.Exp(-0.02), wf[1], 1e-12)
	assert.InDelta(t, 2*math.Exp(-0.18), wf[9], 1e-12)
}

func TestCreateVetoWaveformsSuperposition(t *testing.T) {
	cfg := testElecConfig()
	gate := Gate{Start: 0, Duration: 160}
	pes := []PERecord{
		{Time: 0, Channel: 0, Amplitude: 1},
		{Time: 0, Channel: 0, Amplitude: 1},
		{Time: 0, Channel: 1, Amplitude: 1},
	}

	wfs := CreateVetoWaveforms(pes, gate, cfg, NewRand(1, 2))
	require.Len(t, wfs, 2)
	assert.Equal(t, 2.0, wfs[0][0])
	assert.Equal(t, 1.0, wfs[1][0])
}

func TestCreateVetoWaveformsMinimumLength(t *testing.T) {
	cfg := testElecConfig()
	wfs := CreateVetoWaveforms([]PERecord{{Time: 0, Channel: 0, Amplitude: 1}},
		Gate{Start: 0, Duration: 0}, cfg, NewRand(1, 2))
	assert.Len(t, wfs[0], 1)
}

func TestCreateVetoWaveformsNoiseDeterministic(t *testing.T) {
	cfg := testElecConfig()
	cfg.SNR = 10
	gate := Gate{Start: 0, Duration: 800}
	pes := []PERecord{
		{Time: 100, Channel: 4, Amplitude: 1},
		{Time: 200, Channel: 1, Amplitude: 1},
	}

	a := CreateVetoWaveforms(pes, gate, cfg, NewRand(7, 8))
	b := CreateVetoWaveforms(pes, gate, cfg, NewRand(7, 8))
	assert.Equal(t, a, b)
}

func TestSumZLEsBaselineSubtraction(t *testing.T) {
	cfg := testElecConfig() // pre_trigger 4, n_channels 32

	wf := make([]float64, 20)
	for i := range wf {
		wf[i] = 1 // flat baseline
	}
	wf[6] = 5
	wf[7] = 3
	wfs := map[uint16][]float64{0: wf}
	zles := []ZLERecord{{Channel: 0, Start: 0, Length: 10}}

	summed, err := SumZLEs(zles, wfs, nil, Gate{Start: 0, Duration: 160}, cfg)
	require.NoError(t, err)
	require.NotNil(t, summed)
	require.Len(t, summed.Top, 10)
	require.Len(t, summed.Bot, 10)

	assert.Equal(t, 0.0, summed.Top[0])
	assert.Equal(t, 4.0, summed.Top[6])
	assert.Equal(t, 2.0, summed.Top[7])
	assert.Equal(t, 0.0, summed.Bot[6])
}

func TestSumZLEsBottomHalfChannels(t *testing.T) {
	cfg := testElecConfig()

	wf := make([]float64, 10)
	wf[5] = 3
	wfs := map[uint16][]float64{20: wf} // channel 20 >= 16 goes to Bot
	zles := []ZLERecord{{Channel: 20, Start: 0, Length: 10}}

	summed, err := SumZLEs(zles, wfs, nil, Gate{Start: 0, Duration: 80}, cfg)
	require.NoError(t, err)
	assert.Equal(t, 3.0, summed.Bot[5])
	assert.Equal(t, 0.0, summed.Top[5])
}

func TestSumZLEsTooShortLeavesAccumulatorUntouched(t *testing.T) {
	cfg := testElecConfig()

	wf := make([]float64, 20)
	wfs := map[uint16][]float64{0: wf}
	zles := []ZLERecord{
		{Channel: 0, Start: 0, Length: 10},
		{Channel: 0, Start: 12, Length: 4}, // 4 <= pre_trigger 4
	}

	summed := &SummedWaveforms{Origin: 0, Top: []float64{1, 2}, Bot: []float64{0, 0}}
	got, err := SumZLEs(zles, wfs, summed, Gate{Start: 0, Duration: 160}, cfg)
	require.ErrorIs(t, err, ErrIntervalTooShort)
	assert.ErrorContains(t, err, "channel 0")

	// Validation runs before accumulation, nothing changed.
	assert.Same(t, summed, got)
	assert.Equal(t, []float64{1, 2}, summed.Top)
}

func TestSumZLEsMergesAcrossGates(t *testing.T) {
	cfg := testElecConfig()

	wf := make([]float64, 10)
	wf[5] = 2 // past the baseline window, baseline stays zero
	wfs := map[uint16][]float64{0: wf}
	zles := []ZLERecord{{Channel: 0, Start: 0, Length: 10}}

	// Gate origins 40 ns apart: five samples at 0.125 cycles/ns.
	summed, err := SumZLEs(zles, wfs, nil, Gate{Start: 0, Duration: 80}, cfg)
	require.NoError(t, err)
	summed, err = SumZLEs(zles, wfs, summed, Gate{Start: 40, Duration: 80}, cfg)
	require.NoError(t, err)

	assert.Equal(t, 0, summed.Origin)
	require.Len(t, summed.Top, 15)
	assert.Equal(t, 2.0, summed.Top[5])
	assert.Equal(t, 2.0, summed.Top[10])
}

func TestDownsampleSummedWFs(t *testing.T) {
	cfg := testElecConfig()
	cfg.Downsample = 4

	summed := &SummedWaveforms{
		Top: []float64{1, 2, 3, 4, 5, 6},
		Bot: []float64{0, 0, 0, 0, 8, 8},
	}
	top, bot := DownsampleSummedWFs(summed, cfg)
	assert.Equal(t, []float64{2.5, 5.5}, top)
	assert.Equal(t, []float64{0, 8}, bot)
}
