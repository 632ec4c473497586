package slicer

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

// G4DS_MAGIC marks a .fil simulation slice file ("G4DS").
const G4DS_MAGIC uint32 = 0x47344453

// FileHeaderStruct is the on-disk .fil run header, little-endian.
type FileHeaderStruct struct {
	Magic     uint32
	RunNumber int32
	NChannels int32
	NEvents   int32
	Sampling  float64
}

// EventHeaderStruct precedes each event's PE block.
type EventHeaderStruct struct {
	EventID int32
	NPE     int32
}

// PEStruct is one packed photoelectron record.
type PEStruct struct {
	Time      float64
	Channel   uint16
	Amplitude float32
}

// ReaderOptions bound the event range of one pass. Stop <= 0 means no bound.
type ReaderOptions struct {
	Start int
	Stop  int
}

// G4DSReader reads a .fil file as a lazy, finite sequence of events. It is
// not restartable: once NextEvent returns io.EOF the reader is exhausted.
type G4DSReader struct {
	file     *os.File
	header   RunHeader
	opts     ReaderOptions
	evtCount int
}

func OpenG4DSReader(filename string, opts ReaderOptions) (*G4DSReader, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, &ErrOpenFile{Filename: filename, Err: err}
	}

	var fileHeader FileHeaderStruct
	headerBinary := make([]byte, binary.Size(fileHeader))
	if _, err := io.ReadFull(file, headerBinary); err != nil {
		file.Close()
		return nil, fmt.Errorf("error reading file header: %w", err)
	}
	headerReader := bytes.NewReader(headerBinary)
	binary.Read(headerReader, binary.LittleEndian, &fileHeader)

	if fileHeader.Magic != G4DS_MAGIC {
		file.Close()
		return nil, fmt.Errorf("%s is not a G4DS slice file (magic 0x%08x)", filename, fileHeader.Magic)
	}

	return &G4DSReader{
		file: file,
		header: RunHeader{
			RunNumber: fileHeader.RunNumber,
			NChannels: fileHeader.NChannels,
			Sampling:  fileHeader.Sampling,
			NEvents:   fileHeader.NEvents,
		},
		opts:     opts,
		evtCount: -1,
	}, nil
}

func (r *G4DSReader) Header() RunHeader {
	return r.header
}

// NextEvent returns the next event within the configured bounds, or io.EOF.
func (r *G4DSReader) NextEvent() (*Event, error) {
	header, pes, err := r.readEvent()
	if err != nil {
		return nil, err
	}
	r.evtCount++
	if r.opts.Stop > 0 && r.evtCount >= r.opts.Stop {
		if configuration.Verbosity > 0 {
			logger.Info("Stop event reached", "fileReader")
		}
		return nil, io.EOF
	}
	if r.evtCount < r.opts.Start {
		if configuration.Verbosity > 0 {
			message := fmt.Sprintf("Skipping event %d with ID %d", r.evtCount, header.EventID)
			logger.Info(message, "fileReader")
		}
		return r.NextEvent()
	}

	return &Event{EventID: header.EventID, VetoPE: pes}, nil
}

func (r *G4DSReader) readEvent() (EventHeaderStruct, []PERecord, error) {
	var header EventHeaderStruct
	headerBinary := make([]byte, binary.Size(header))
	if _, err := io.ReadFull(r.file, headerBinary); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return header, nil, io.EOF
		}
		return header, nil, fmt.Errorf("error reading event header: %w", err)
	}
	headerReader := bytes.NewReader(headerBinary)
	binary.Read(headerReader, binary.LittleEndian, &header)

	var pe PEStruct
	payloadSize := int(header.NPE) * binary.Size(pe)
	payload := make([]byte, payloadSize)
	if _, err := io.ReadFull(r.file, payload); err != nil {
		return header, nil, fmt.Errorf("error reading PE block of event %d: %w", header.EventID, err)
	}

	pes := make([]PERecord, header.NPE)
	payloadReader := bytes.NewReader(payload)
	for i := range pes {
		binary.Read(payloadReader, binary.LittleEndian, &pe)
		pes[i] = PERecord{
			Time:      pe.Time,
			Channel:   pe.Channel,
			Amplitude: float64(pe.Amplitude),
		}
	}
	return header, pes, nil
}

func (r *G4DSReader) Close() error {
	return r.file.Close()
}
