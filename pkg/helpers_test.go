package slicer

// Shared fixtures for the package tests. The electronics snapshot disables
// every stochastic ingredient (noise, jitter, dark counts) unless a test
// turns one back on, so pipeline outputs are exactly reproducible.

func testElecFile() ElecFile {
	return ElecFile{
		SNR:           0,
		Sampling:      125,
		Jitter:        0,
		DCR:           0,
		Tau:           400,
		PreThreshold:  0.5,
		PostThreshold: 0.25,
		PreTrigger:    4,
		PostTrigger:   8,
		Offset:        0,
		GateGap:       2,
		GatePad:       1,
		Downsample:    4,
		NChannels:     32,
	}
}

func testElecConfig() ElecConfig {
	return testElecFile().Snapshot()
}

// burstPEs is a tight cluster of large PEs on one channel, comfortably above
// the ZLE thresholds.
func burstPEs(channel uint16, t0 float64, n int) []PERecord {
	pes := make([]PERecord, n)
	for i := range pes {
		pes[i] = PERecord{
			Time:      t0 + float64(i)*10,
			Channel:   channel,
			Amplitude: 5,
		}
	}
	return pes
}

type stubGains struct {
	zle ZLEGain
	hit HitGain
	err error
}

func (s stubGains) ZLEGainVeto() (ZLEGain, error) { return s.zle, s.err }
func (s stubGains) HitGainVeto() (HitGain, error) { return s.hit, s.err }
