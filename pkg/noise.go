package slicer

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// Rand is the per-pass random stream. The sweep driver creates a fresh one
// from the configured seed pair at the start of every file pass, so each
// output file is reproducible on its own.
type Rand struct {
	src *rand.Rand
}

func NewRand(seed1 uint64, seed2 uint64) *Rand {
	return &Rand{src: rand.New(rand.NewPCG(seed1, seed2))}
}

// AddNoisePEs returns a copy of the PE list with dark-count photoelectrons
// appended. The dark counts are Poisson distributed with rate sipm.dcr per
// channel over the padded extent of the event, uniform in time and channel,
// with single-pe amplitude.
func AddNoisePEs(pes []PERecord, cfg ElecConfig, rng *Rand) []PERecord {
	out := make([]PERecord, len(pes))
	copy(out, pes)
	if len(pes) == 0 || cfg.DCR <= 0 {
		return out
	}

	t0, t1 := pes[0].Time, pes[0].Time
	for _, pe := range pes[1:] {
		if pe.Time < t0 {
			t0 = pe.Time
		}
		if pe.Time > t1 {
			t1 = pe.Time
		}
	}
	t0 -= cfg.GatePad
	t1 += cfg.GatePad

	window := t1 - t0
	poisson := distuv.Poisson{Lambda: cfg.DCR * window * float64(cfg.NChannels), Src: rng.src}
	nDark := int(poisson.Rand())
	for i := 0; i < nDark; i++ {
		out = append(out, PERecord{
			Time:      t0 + rng.src.Float64()*window,
			Channel:   uint16(rng.src.IntN(cfg.NChannels)),
			Amplitude: 1 * PE,
		})
	}
	return out
}

// AddDAQJitter smears every PE time in place with gaussian jitter of width
// daq.jitter.
func AddDAQJitter(pes []PERecord, cfg ElecConfig, rng *Rand) {
	if cfg.Jitter <= 0 {
		return
	}
	normal := distuv.Normal{Mu: 0, Sigma: cfg.Jitter, Src: rng.src}
	for i := range pes {
		pes[i].Time += normal.Rand()
	}
}

// ApplyTimeOffset shifts every PE time by the configured daq.offset.
func ApplyTimeOffset(pes []PERecord, offset float64) {
	if offset == 0 {
		return
	}
	for i := range pes {
		pes[i].Time += offset
	}
}
