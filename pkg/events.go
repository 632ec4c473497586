package slicer

// PERecord is a single detected photoelectron: arrival time in ns, veto
// channel and amplitude in pe units.
type PERecord struct {
	Time      float64
	Channel   uint16
	Amplitude float64
}

// Gate is a time window expected to contain a physical event.
type Gate struct {
	Start    float64
	Duration float64
}

// ZLERecord is one zero-length-encoded waveform segment. Start and Length are
// in the sample domain of the gate the interval was found in; Integral is the
// raw sample sum until the processor normalizes it by the ZLE gain.
type ZLERecord struct {
	Channel  uint16
	Start    int32
	Length   int32
	Integral float64
}

// HitRecord is a pulse found inside a ZLE interval. ZleID indexes the event's
// cumulative ZLE sequence; Sample is the offset inside that interval.
type HitRecord struct {
	ZleID    int32
	Sample   int32
	Integral float64
	Max      float64
}

// Event is one record of the slice stream. The reader fills VetoPE; the
// processor populates everything else on the output side.
type Event struct {
	EventID int32
	VetoPE  []PERecord
	PE      []PERecord
	ZLEs    []ZLERecord
	Hits    []HitRecord
	TopWF   []float64
	BotWF   []float64
}

// RunHeader describes the slice file; the writer copies it from the reader.
type RunHeader struct {
	RunNumber int32
	NChannels int32
	Sampling  float64
	NEvents   int32
}
