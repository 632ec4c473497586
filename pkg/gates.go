package slicer

import "sort"

// FindWaveformGates discovers the time windows expected to contain physical
// activity. PE times are clustered: a gap larger than daq.gate_gap opens a new
// gate, and every cluster is padded by daq.gate_pad on both sides. Gates are
// returned in time order. An empty PE list yields no gates, which is valid.
func FindWaveformGates(pes []PERecord, cfg ElecConfig) []Gate {
	if len(pes) == 0 {
		return nil
	}

	times := make([]float64, len(pes))
	for i, pe := range pes {
		times[i] = pe.Time
	}
	sort.Float64s(times)

	gates := make([]Gate, 0, 4)
	first, last := times[0], times[0]
	for _, t := range times[1:] {
		if t-last > cfg.GateGap {
			gates = append(gates, padGate(first, last, cfg.GatePad))
			first = t
		}
		last = t
	}
	gates = append(gates, padGate(first, last, cfg.GatePad))
	return gates
}

func padGate(first float64, last float64, pad float64) Gate {
	return Gate{
		Start:    first - pad,
		Duration: last - first + 2*pad,
	}
}

// GetPEsOutsideGates selects the perturbed PEs that fall outside every gate
// window. These represent baseline and dark-rate activity.
func GetPEsOutsideGates(pes []PERecord, gates []Gate) []PERecord {
	outside := make([]PERecord, 0, len(pes))
	for _, pe := range pes {
		inGate := false
		for _, gate := range gates {
			if pe.Time >= gate.Start && pe.Time <= gate.Start+gate.Duration {
				inGate = true
				break
			}
		}
		if !inGate {
			outside = append(outside, pe)
		}
	}
	return outside
}

// SelectPEsInGate keeps the PEs whose time lies in [start, start+duration].
func SelectPEsInGate(pes []PERecord, gate Gate) []PERecord {
	selected := make([]PERecord, 0, len(pes))
	for _, pe := range pes {
		if pe.Time >= gate.Start && pe.Time <= gate.Start+gate.Duration {
			selected = append(selected, pe)
		}
	}
	return selected
}
