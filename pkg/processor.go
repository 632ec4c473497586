package slicer

import (
	"errors"
	"fmt"
	"sort"
)

// EventProcessor drives the per-event pipeline: gate discovery, noise and
// jitter injection, waveform synthesis, ZLE extraction, baseline-aware
// summation, hit extraction and calibration normalization. One instance
// serves one file pass; Cfg is never mutated while the pass is running.
type EventProcessor struct {
	Cfg   ElecConfig
	Gains GainProvider
	Rng   *Rand
}

// Process runs the pipeline for one event. It fills out and reports whether
// the event produced valid hits and ZLEs; on false the caller must not write
// the event. Failures are contained per gate: a failing gate is logged and
// skipped, the event continues with the remaining gates.
func (p *EventProcessor) Process(eventIndex int, ev *Event, out *Event) bool {
	hits := make([]HitRecord, 0)
	zles := make([]ZLERecord, 0)
	var summed *SummedWaveforms
	var zleCount int32

	gates := FindWaveformGates(ev.PE, p.Cfg)
	out.PE = AddNoisePEs(ev.PE, p.Cfg, p.Rng)
	AddDAQJitter(out.PE, p.Cfg, p.Rng)

	for _, gate := range gates {
		gateZLEs, gateHits, newSummed, err := p.processGate(eventIndex, gate, out.PE, summed)
		if err != nil {
			message := fmt.Sprintf("Event %d: error processing waveform at t_start=%.3f ms: %v",
				eventIndex, gate.Start/Ms, err)
			logger.Warn(message, "processor")
			continue
		}
		summed = newSummed

		for i := range gateHits {
			gateHits[i].ZleID += zleCount
		}
		zles = append(zles, gateZLEs...)
		hits = append(hits, gateHits...)
		zleCount += int32(len(gateZLEs))

		if summed != nil {
			out.TopWF, out.BotWF = DownsampleSummedWFs(summed, p.Cfg)
		}
	}

	outZLEs, outHits, err := p.processOutsideGates(out.PE, gates)
	if err != nil {
		message := fmt.Sprintf("Event %d: error processing PEs outside gates: %v", eventIndex, err)
		logger.Warn(message, "processor")
	} else {
		for i := range outHits {
			outHits[i].ZleID += zleCount
		}
		zles = append(zles, outZLEs...)
		hits = append(hits, outHits...)
		zleCount += int32(len(outZLEs))
	}

	if len(hits) == 0 || len(zles) == 0 {
		message := fmt.Sprintf("Event %d: No valid hits or ZLEs found. This event will be skipped.", eventIndex)
		logger.Warn(message, "processor")
		return false
	}

	if err := p.normalize(zles, hits); err != nil {
		message := fmt.Sprintf("Event %d: error normalizing records: %v", eventIndex, err)
		logger.Error(message)
		return false
	}

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].ZleID != hits[j].ZleID {
			return hits[i].ZleID < hits[j].ZleID
		}
		return hits[i].Sample < hits[j].Sample
	})

	out.ZLEs = zles
	out.Hits = hits
	return true
}

// processGate runs steps a-e of the pipeline for one gate. A summation that
// fails with ErrIntervalTooShort drops only this gate's summed-waveform
// contribution; the gate's ZLEs and hits are still returned. Any other
// failure, panics from the numeric kernels included, fails the whole gate.
func (p *EventProcessor) processGate(eventIndex int, gate Gate, pes []PERecord,
	summed *SummedWaveforms) (zles []ZLERecord, hits []HitRecord, result *SummedWaveforms, err error) {
	defer func() {
		if r := recover(); r != nil {
			zles, hits, result = nil, nil, summed
			err = fmt.Errorf("recovered from panic: %v", r)
		}
	}()

	selected := SelectPEsInGate(pes, gate)
	if configuration.Verbosity > 1 {
		message := fmt.Sprintf("Simulating waveform for t_start=%.3f ms, gate=%.3f us, NPE=%d",
			gate.Start/Ms, gate.Duration/Us, len(selected))
		logger.Info(message, "processor")
	}
	wfs := CreateVetoWaveforms(selected, gate, p.Cfg, p.Rng)
	zles = FindZLEIntervals(wfs, p.Cfg)

	result, err = SumZLEs(zles, wfs, summed, gate, p.Cfg)
	if err != nil {
		if !errors.Is(err, ErrIntervalTooShort) {
			return nil, nil, summed, err
		}
		message := fmt.Sprintf("Event %d: ZLE interval too short for baseline subtraction. "+
			"This may happen with low SNR values. Skipping waveform summation.", eventIndex)
		logger.Warn(message, "processor")
		result = summed
		err = nil
	}

	hits = FindHits(wfs, zles, p.Cfg)
	return zles, hits, result, nil
}

func (p *EventProcessor) processOutsideGates(pes []PERecord,
	gates []Gate) (zles []ZLERecord, hits []HitRecord, err error) {
	defer func() {
		if r := recover(); r != nil {
			zles, hits = nil, nil
			err = fmt.Errorf("recovered from panic: %v", r)
		}
	}()

	outside := GetPEsOutsideGates(pes, gates)
	zles, hits = FindEffectiveZLEsHits(outside, p.Cfg)
	return zles, hits, nil
}

// normalize divides the raw integrals and peaks by the veto gain constants.
// The constants are looked up here, once per event, so they always reflect
// the configuration of the running pass.
func (p *EventProcessor) normalize(zles []ZLERecord, hits []HitRecord) error {
	zleGain, err := p.Gains.ZLEGainVeto()
	if err != nil {
		return fmt.Errorf("ZLE gain lookup: %w", err)
	}
	hitGain, err := p.Gains.HitGainVeto()
	if err != nil {
		return fmt.Errorf("hit gain lookup: %w", err)
	}

	for i := range zles {
		zles[i].Integral /= zleGain.IntegralMean
	}
	for i := range hits {
		hits[i].Integral /= hitGain.IntegralMean
		hits[i].Max /= hitGain.MaxMean
	}
	return nil
}
