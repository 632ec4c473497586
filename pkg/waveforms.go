package slicer

import (
	"fmt"
	"math"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// pulseTail bounds the exponential pulse support, in units of tau.
const pulseTail = 10.0

// CreateVetoWaveforms synthesizes one sampled waveform per channel present in
// the selection. Every PE contributes an exponential pulse with decay sipm.tau
// and gaussian electronics noise of width 1/snr is added to every sample.
func CreateVetoWaveforms(pes []PERecord, gate Gate, cfg ElecConfig, rng *Rand) map[uint16][]float64 {
	nSamples := int(gate.Duration * cfg.Sampling)
	if nSamples < 1 {
		nSamples = 1
	}

	wfs := make(map[uint16][]float64)
	for _, pe := range pes {
		wf, ok := wfs[pe.Channel]
		if !ok {
			wf = make([]float64, nSamples)
			wfs[pe.Channel] = wf
		}
		addPulse(wf, pe, gate.Start, cfg)
	}

	if cfg.SNR > 0 {
		noise := distuv.Normal{Mu: 0, Sigma: 1 / cfg.SNR, Src: rng.src}
		// Channels in a fixed order, so the noise draw sequence is
		// reproducible for a given seed pair.
		channels := maps.Keys(wfs)
		slices.Sort(channels)
		for _, ch := range channels {
			wf := wfs[ch]
			for s := range wf {
				wf[s] += noise.Rand()
			}
		}
	}
	return wfs
}

func addPulse(wf []float64, pe PERecord, tStart float64, cfg ElecConfig) {
	s0 := int((pe.Time - tStart) * cfg.Sampling)
	if s0 < 0 {
		s0 = 0
	}
	maxSamples := int(pulseTail * cfg.Tau * cfg.Sampling)
	for s := s0; s < len(wf) && s-s0 <= maxSamples; s++ {
		dt := float64(s-s0) / cfg.Sampling
		wf[s] += pe.Amplitude * math.Exp(-dt/cfg.Tau)
	}
}

// SummedWaveforms is the cross-gate accumulator of baseline-subtracted ZLE
// samples, split into the top and bottom halves of the veto channel map.
// Origin is the absolute sample index of element zero.
type SummedWaveforms struct {
	Origin int
	Top    []float64
	Bot    []float64
}

func (s *SummedWaveforms) grow(from int, to int) {
	if from < s.Origin {
		pad := make([]float64, s.Origin-from)
		s.Top = append(pad, s.Top...)
		pad = make([]float64, s.Origin-from)
		s.Bot = append(pad, s.Bot...)
		s.Origin = from
	}
	for to-s.Origin > len(s.Top) {
		s.Top = append(s.Top, 0)
		s.Bot = append(s.Bot, 0)
	}
}

// SumZLEs accumulates the gate's ZLE intervals into summed, creating it on
// first use. The baseline of each interval is the mean of its first
// zle.pre_trigger samples. Intervals are validated before anything is
// accumulated, so an ErrIntervalTooShort leaves summed untouched and the
// caller can drop the whole gate's contribution.
func SumZLEs(zles []ZLERecord, wfs map[uint16][]float64, summed *SummedWaveforms,
	gate Gate, cfg ElecConfig) (*SummedWaveforms, error) {
	gateOrigin := int(gate.Start * cfg.Sampling)

	baselineWindow := cfg.PreTrigger
	if baselineWindow < 1 {
		baselineWindow = 1
	}
	for _, zle := range zles {
		if int(zle.Length) <= baselineWindow {
			return summed, fmt.Errorf("channel %d, start %d, length %d: %w",
				zle.Channel, zle.Start, zle.Length, ErrIntervalTooShort)
		}
		if _, ok := wfs[zle.Channel]; !ok {
			return summed, fmt.Errorf("channel %d has a ZLE interval but no waveform", zle.Channel)
		}
	}

	for _, zle := range zles {
		wf := wfs[zle.Channel]
		interval := wf[zle.Start : zle.Start+zle.Length]
		baseline := stat.Mean(interval[:baselineWindow], nil)

		from := gateOrigin + int(zle.Start)
		if summed == nil {
			summed = &SummedWaveforms{Origin: from}
		}
		summed.grow(from, from+len(interval))

		target := summed.Top
		if int(zle.Channel) >= cfg.NChannels/2 {
			target = summed.Bot
		}
		for i, sample := range interval {
			target[from-summed.Origin+i] += sample - baseline
		}
	}
	return summed, nil
}

// DownsampleSummedWFs reduces the summed waveforms by block averaging with the
// configured daq.downsample factor.
func DownsampleSummedWFs(summed *SummedWaveforms, cfg ElecConfig) ([]float64, []float64) {
	return downsample(summed.Top, cfg.Downsample), downsample(summed.Bot, cfg.Downsample)
}

func downsample(wf []float64, factor int) []float64 {
	if factor < 1 {
		factor = 1
	}
	out := make([]float64, 0, (len(wf)+factor-1)/factor)
	for start := 0; start < len(wf); start += factor {
		end := start + factor
		if end > len(wf) {
			end = len(wf)
		}
		out = append(out, stat.Mean(wf[start:end], nil))
	}
	return out
}
