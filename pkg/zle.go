package slicer

import (
	"sort"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
	"gonum.org/v1/gonum/floats"
)

// FindZLEIntervals runs the zero-length-encoding selection over the gate's
// waveforms. An interval opens when a sample exceeds zle.pre_threshold,
// extended back by zle.pre_trigger samples, and closes after zle.post_trigger
// consecutive samples below zle.post_threshold. Channels are scanned in
// ascending order so the record sequence is deterministic.
func FindZLEIntervals(wfs map[uint16][]float64, cfg ElecConfig) []ZLERecord {
	zles := make([]ZLERecord, 0)

	channels := maps.Keys(wfs)
	slices.Sort(channels)
	for _, ch := range channels {
		wf := wfs[ch]
		prevEnd := 0
		open := false
		start := 0
		below := 0
		for s := 0; s < len(wf); s++ {
			if !open {
				if wf[s] > cfg.PreThreshold {
					open = true
					below = 0
					start = s - cfg.PreTrigger
					if start < prevEnd {
						start = prevEnd
					}
				}
				continue
			}
			if wf[s] < cfg.PostThreshold {
				below++
				if below >= cfg.PostTrigger {
					zles = append(zles, makeZLE(ch, wf, start, s+1))
					prevEnd = s + 1
					open = false
				}
			} else {
				below = 0
			}
		}
		if open {
			zles = append(zles, makeZLE(ch, wf, start, len(wf)))
		}
	}
	return zles
}

func makeZLE(ch uint16, wf []float64, start int, end int) ZLERecord {
	return ZLERecord{
		Channel:  ch,
		Start:    int32(start),
		Length:   int32(end - start),
		Integral: floats.Sum(wf[start:end]),
	}
}

// FindHits extracts the pulses inside the gate's ZLE intervals. A pulse opens
// above zle.pre_threshold and closes below zle.post_threshold; each hit keeps
// its sample offset inside the interval, its integral and its peak amplitude.
// ZleID indexes the zles slice, so several hits may share one interval.
func FindHits(wfs map[uint16][]float64, zles []ZLERecord, cfg ElecConfig) []HitRecord {
	hits := make([]HitRecord, 0)
	for zleIdx, zle := range zles {
		wf, ok := wfs[zle.Channel]
		if !ok {
			continue
		}
		interval := wf[zle.Start : zle.Start+zle.Length]

		open := false
		pulseStart := 0
		for s := 0; s < len(interval); s++ {
			switch {
			case !open && interval[s] > cfg.PreThreshold:
				open = true
				pulseStart = s
			case open && interval[s] < cfg.PostThreshold:
				hits = append(hits, makeHit(int32(zleIdx), interval, pulseStart, s))
				open = false
			}
		}
		if open {
			hits = append(hits, makeHit(int32(zleIdx), interval, pulseStart, len(interval)))
		}
	}
	return hits
}

func makeHit(zleID int32, interval []float64, start int, end int) HitRecord {
	pulse := interval[start:end]
	return HitRecord{
		ZleID:    zleID,
		Sample:   int32(start),
		Integral: floats.Sum(pulse),
		Max:      floats.Max(pulse),
	}
}

// FindEffectiveZLEsHits builds ZLE and hit records for the PEs outside every
// gate without synthesizing waveforms. PEs are clustered per channel; each
// cluster becomes one effective interval with single-PE-scaled amplitudes and
// one hit per photoelectron.
func FindEffectiveZLEsHits(pes []PERecord, cfg ElecConfig) ([]ZLERecord, []HitRecord) {
	zles := make([]ZLERecord, 0)
	hits := make([]HitRecord, 0)
	if len(pes) == 0 {
		return zles, hits
	}

	sorted := make([]PERecord, len(pes))
	copy(sorted, pes)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Channel != sorted[j].Channel {
			return sorted[i].Channel < sorted[j].Channel
		}
		return sorted[i].Time < sorted[j].Time
	})

	cluster := []PERecord{sorted[0]}
	for _, pe := range sorted[1:] {
		prev := cluster[len(cluster)-1]
		if pe.Channel != prev.Channel || pe.Time-prev.Time > cfg.GateGap {
			zles, hits = appendEffective(zles, hits, cluster, cfg)
			cluster = cluster[:0]
		}
		cluster = append(cluster, pe)
	}
	zles, hits = appendEffective(zles, hits, cluster, cfg)
	return zles, hits
}

func appendEffective(zles []ZLERecord, hits []HitRecord, cluster []PERecord,
	cfg ElecConfig) ([]ZLERecord, []HitRecord) {
	zleID := int32(len(zles))
	t0 := cluster[0].Time
	span := cluster[len(cluster)-1].Time - t0

	integral := 0.0
	for _, pe := range cluster {
		integral += pe.Amplitude * speIntegral(cfg)
		hits = append(hits, HitRecord{
			ZleID:    zleID,
			Sample:   int32((pe.Time - t0) * cfg.Sampling),
			Integral: pe.Amplitude * speIntegral(cfg),
			Max:      pe.Amplitude,
		})
	}
	zles = append(zles, ZLERecord{
		Channel:  cluster[0].Channel,
		Start:    int32(t0 * cfg.Sampling),
		Length:   int32(span*cfg.Sampling) + int32(cfg.PostTrigger),
		Integral: integral,
	})
	return zles, hits
}
