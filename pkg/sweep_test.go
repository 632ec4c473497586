package slicer

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	header RunHeader
	events []*Event
	pos    int
	closed bool
}

func (f *fakeSource) Header() RunHeader { return f.header }

func (f *fakeSource) NextEvent() (*Event, error) {
	if f.pos >= len(f.events) {
		return nil, io.EOF
	}
	ev := f.events[f.pos]
	f.pos++
	return ev, nil
}

func (f *fakeSource) Close() error {
	f.closed = true
	return nil
}

type fakeSink struct {
	path   string
	events []*Event
	closed bool
}

func (f *fakeSink) CreateEmptyEvent() *Event { return &Event{EventID: -1} }

func (f *fakeSink) WriteEvent(ev *Event) error {
	f.events = append(f.events, ev)
	return nil
}

func (f *fakeSink) Close() error {
	f.closed = true
	return nil
}

// sourceEvents builds a fresh event list per pass; the driver mutates the
// events it reads.
func sourceEvents() []*Event {
	return []*Event{
		{EventID: 10, VetoPE: burstPEs(3, 5000, 3)},
		{EventID: 11, VetoPE: burstPEs(20, 5000, 3)},
	}
}

type sweepHarness struct {
	driver  *SweepDriver
	sources []*fakeSource
	sinks   []*fakeSink
}

func newSweepHarness(events func() []*Event) *sweepHarness {
	config, _ := LoadConfiguration("")
	config.Elec.SNR = 0
	config.Elec.Jitter = 0
	config.Elec.DCR = 0
	config.Stop = 0

	h := &sweepHarness{}
	h.driver = &SweepDriver{
		Config:   config,
		BaseElec: config.Elec.Snapshot(),
		Gains: func(cfg ElecConfig, _ int32) GainProvider {
			return ConfigGains{Cfg: cfg}
		},
		OpenSource: func(path string, opts ReaderOptions) (EventSource, error) {
			src := &fakeSource{header: RunHeader{RunNumber: 7, NChannels: 32}, events: events()}
			h.sources = append(h.sources, src)
			return src, nil
		},
		CreateSink: func(path string, header RunHeader) (SliceSink, error) {
			if err := os.WriteFile(path, []byte("header"), 0o644); err != nil {
				return nil, err
			}
			sink := &fakeSink{path: path}
			h.sinks = append(h.sinks, sink)
			return sink, nil
		},
	}
	return h
}

func TestSweepRunOutputNaming(t *testing.T) {
	h := newSweepHarness(sourceEvents)
	dir := t.TempDir()

	h.driver.Run("in.fil", filepath.Join(dir, "out.h5"), "daq", "snr", []string{"5.0", "10", "15"})

	require.Len(t, h.sinks, 3)
	assert.Equal(t, filepath.Join(dir, "out_daq_snr_5.h5"), h.sinks[0].path)
	assert.Equal(t, filepath.Join(dir, "out_daq_snr_10.h5"), h.sinks[1].path)
	assert.Equal(t, filepath.Join(dir, "out_daq_snr_15.h5"), h.sinks[2].path)

	for _, sink := range h.sinks {
		assert.Len(t, sink.events, 2)
		assert.True(t, sink.closed)
		assert.FileExists(t, sink.path)
	}
	for _, src := range h.sources {
		assert.True(t, src.closed)
	}
}

func TestSweepRunAppliesParameterPerPass(t *testing.T) {
	h := newSweepHarness(sourceEvents)
	dir := t.TempDir()

	h.driver.Run("in.fil", filepath.Join(dir, "out.h5"), "sipm", "tau", []string{"400", "800"})

	require.Len(t, h.sinks, 2)
	// A slower decay keeps the waveform above threshold longer, so the
	// doubled-tau pass produces longer ZLE intervals.
	a := h.sinks[0].events[0].ZLEs[0].Length
	b := h.sinks[1].events[0].ZLEs[0].Length
	assert.Greater(t, b, a)

	// The base snapshot is untouched between passes.
	assert.InDelta(t, 400, h.driver.BaseElec.Tau, 1e-9)
}

func TestSweepRunDeletesEmptyOutput(t *testing.T) {
	h := newSweepHarness(func() []*Event {
		return []*Event{{EventID: 10}} // no PEs, no valid events
	})
	dir := t.TempDir()

	h.driver.Run("in.fil", filepath.Join(dir, "out.h5"), "daq", "snr", []string{"5"})

	require.Len(t, h.sinks, 1)
	assert.True(t, h.sinks[0].closed)
	assert.Empty(t, h.sinks[0].events)
	assert.NoFileExists(t, h.sinks[0].path)
}

func TestSweepRunContinuesAfterFailedValue(t *testing.T) {
	h := newSweepHarness(sourceEvents)
	dir := t.TempDir()

	openCalls := 0
	open := h.driver.OpenSource
	h.driver.OpenSource = func(path string, opts ReaderOptions) (EventSource, error) {
		openCalls++
		if openCalls == 1 {
			return nil, errors.New("input unreadable")
		}
		return open(path, opts)
	}

	h.driver.Run("in.fil", filepath.Join(dir, "out.h5"), "daq", "snr", []string{"5", "10"})

	// First value fails to open, second still produces its output.
	require.Len(t, h.sinks, 1)
	assert.Equal(t, filepath.Join(dir, "out_daq_snr_10.h5"), h.sinks[0].path)
	assert.Len(t, h.sinks[0].events, 2)
}

func TestSweepRunContainsSinkPanics(t *testing.T) {
	h := newSweepHarness(sourceEvents)
	dir := t.TempDir()

	create := h.driver.CreateSink
	calls := 0
	h.driver.CreateSink = func(path string, header RunHeader) (SliceSink, error) {
		calls++
		if calls == 1 {
			panic("table creation failed")
		}
		return create(path, header)
	}

	h.driver.Run("in.fil", filepath.Join(dir, "out.h5"), "daq", "snr", []string{"5", "10"})

	require.Len(t, h.sinks, 1)
	assert.Equal(t, filepath.Join(dir, "out_daq_snr_10.h5"), h.sinks[0].path)
}

func TestSweepRunEventIDsCarriedThrough(t *testing.T) {
	h := newSweepHarness(sourceEvents)
	dir := t.TempDir()

	h.driver.Run("in.fil", filepath.Join(dir, "out.h5"), "daq", "snr", []string{"5"})

	require.Len(t, h.sinks, 1)
	require.Len(t, h.sinks[0].events, 2)
	assert.Equal(t, int32(10), h.sinks[0].events[0].EventID)
	assert.Equal(t, int32(11), h.sinks[0].events[1].EventID)
}
