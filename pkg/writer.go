package slicer

import (
	"fmt"

	hdf5 "github.com/jmbenlloch/go-hdf5"
)

// SliceWriter writes processed events into a .slc HDF5 file: run metadata
// under Run, the pe/zles/hits record tables under DAQ and the downsampled
// summed waveforms under RD. Failures inside the HDF5 helpers panic and are
// contained at the sweep-value granularity by the driver.
type SliceWriter struct {
	File         *hdf5.File
	Filename     string
	RunGroup     *hdf5.Group
	DAQGroup     *hdf5.Group
	RDGroup      *hdf5.Group
	EventTable   *hdf5.Dataset
	RunInfoTable *hdf5.Dataset
	PETable      *hdf5.Dataset
	ZLETable     *hdf5.Dataset
	HitTable     *hdf5.Dataset
	TopWFTable   *hdf5.Dataset
	BotWFTable   *hdf5.Dataset

	header   RunHeader
	firstEvt bool
	evtRows  int
	peRows   int
	zleRows  int
	hitRows  int
	topRows  int
	botRows  int
}

func NewSliceWriter(filename string, header RunHeader) *SliceWriter {
	writer := &SliceWriter{}
	if configuration.Verbosity > 0 {
		logger.Info(fmt.Sprintf("Creating slice file: %s", filename), "writer")
	}
	writer.File = openFile(filename)
	writer.Filename = filename
	writer.header = header
	writer.RunGroup = createGroup(writer.File, "Run")
	writer.DAQGroup = createGroup(writer.File, "DAQ")
	writer.RDGroup = createGroup(writer.File, "RD")
	writer.EventTable = createTable(writer.RunGroup, "events", EventDataHDF5{})
	writer.RunInfoTable = createTable(writer.RunGroup, "runInfo", RunInfoHDF5{})
	writer.PETable = createTable(writer.DAQGroup, "pe", PEDataHDF5{})
	writer.ZLETable = createTable(writer.DAQGroup, "zles", ZLEDataHDF5{})
	writer.HitTable = createTable(writer.DAQGroup, "hits", HitDataHDF5{})
	writer.TopWFTable = createTable(writer.RDGroup, "top_wf", WFSampleHDF5{})
	writer.BotWFTable = createTable(writer.RDGroup, "bot_wf", WFSampleHDF5{})
	return writer
}

// CreateEmptyEvent builds the output shell the processor fills in.
func (w *SliceWriter) CreateEmptyEvent() *Event {
	return &Event{EventID: -1}
}

func (w *SliceWriter) WriteEvent(event *Event) error {
	if !w.firstEvt {
		writeEntryToTable(w.RunInfoTable, RunInfoHDF5{
			run_number: w.header.RunNumber,
			nchannels:  w.header.NChannels,
			sampling:   w.header.Sampling,
		}, 0)
		w.firstEvt = true
	}

	writeEntryToTable(w.EventTable, EventDataHDF5{
		evt_number: event.EventID,
		npe:        int32(len(event.PE)),
	}, w.evtRows)
	w.evtRows++

	pes := make([]PEDataHDF5, len(event.PE))
	for i, pe := range event.PE {
		pes[i] = PEDataHDF5{
			evt_number: event.EventID,
			channel:    int32(pe.Channel),
			time:       pe.Time,
			amplitude:  pe.Amplitude,
		}
	}
	writeArrayToTable(w.PETable, &pes, w.peRows)
	w.peRows += len(pes)

	zles := make([]ZLEDataHDF5, len(event.ZLEs))
	for i, zle := range event.ZLEs {
		zles[i] = ZLEDataHDF5{
			evt_number: event.EventID,
			channel:    int32(zle.Channel),
			start:      zle.Start,
			length:     zle.Length,
			integral:   zle.Integral,
		}
	}
	writeArrayToTable(w.ZLETable, &zles, w.zleRows)
	w.zleRows += len(zles)

	hits := make([]HitDataHDF5, len(event.Hits))
	for i, hit := range event.Hits {
		hits[i] = HitDataHDF5{
			evt_number: event.EventID,
			zle_id:     hit.ZleID,
			sample:     hit.Sample,
			integral:   hit.Integral,
			max:        hit.Max,
		}
	}
	writeArrayToTable(w.HitTable, &hits, w.hitRows)
	w.hitRows += len(hits)

	w.topRows += writeWaveform(w.TopWFTable, event.EventID, event.TopWF, w.topRows)
	w.botRows += writeWaveform(w.BotWFTable, event.EventID, event.BotWF, w.botRows)
	return nil
}

func writeWaveform(dset *hdf5.Dataset, eventID int32, wf []float64, rows int) int {
	samples := make([]WFSampleHDF5, len(wf))
	for i, value := range wf {
		samples[i] = WFSampleHDF5{
			evt_number: eventID,
			sample:     int32(i),
			value:      value,
		}
	}
	writeArrayToTable(dset, &samples, rows)
	return len(samples)
}

func (w *SliceWriter) Close() error {
	if configuration.Verbosity > 0 {
		logger.Info(fmt.Sprintf("Closing slice file: %s", w.Filename), "writer")
	}
	var errs []error

	for _, dset := range []*hdf5.Dataset{
		w.EventTable, w.RunInfoTable, w.PETable, w.ZLETable,
		w.HitTable, w.TopWFTable, w.BotWFTable,
	} {
		if dset != nil {
			if err := dset.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	for _, group := range []*hdf5.Group{w.RunGroup, w.DAQGroup, w.RDGroup} {
		if group != nil {
			if err := group.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	if w.File != nil {
		if err := w.File.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("error closing slice writer %s: %v", w.Filename, errs)
	}
	return nil
}
