package slicer

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	sqlx "github.com/jmoiron/sqlx"
)

// EventSource is one pass over an input slice file.
type EventSource interface {
	Header() RunHeader
	NextEvent() (*Event, error)
	Close() error
}

// SliceSink receives the processed events of one sweep value.
type SliceSink interface {
	CreateEmptyEvent() *Event
	WriteEvent(*Event) error
	Close() error
}

// SweepDriver re-runs the full file pass once per parameter value. Every pass
// gets its own electronics snapshot, its own reader/writer pair and a random
// stream re-seeded from the configured seed pair, so each output file is
// reproducible independently of the other sweep values.
type SweepDriver struct {
	Config   Configuration
	BaseElec ElecConfig
	Gains    func(cfg ElecConfig, runNumber int32) GainProvider

	OpenSource func(path string, opts ReaderOptions) (EventSource, error)
	CreateSink func(path string, header RunHeader) (SliceSink, error)
}

func NewSweepDriver(config Configuration, db *sqlx.DB) *SweepDriver {
	driver := &SweepDriver{
		Config:   config,
		BaseElec: config.Elec.Snapshot(),
		OpenSource: func(path string, opts ReaderOptions) (EventSource, error) {
			return OpenG4DSReader(path, opts)
		},
		CreateSink: func(path string, header RunHeader) (SliceSink, error) {
			return NewSliceWriter(path, header), nil
		},
	}
	if config.NoDB || db == nil {
		driver.Gains = func(cfg ElecConfig, _ int32) GainProvider {
			return ConfigGains{Cfg: cfg}
		}
	} else {
		driver.Gains = func(_ ElecConfig, runNumber int32) GainProvider {
			return DBGains{DB: db, RunNumber: int(runNumber)}
		}
	}
	return driver
}

// Run processes inputPath once per value, writing each pass to
// <base>_<section>_<param>_<value><ext>. A failure while processing one value
// is logged and that value is skipped; the sweep continues.
func (d *SweepDriver) Run(inputPath string, outputBase string, section string,
	param string, values []string) {
	outputDir := filepath.Dir(outputBase)
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		logger.Error(fmt.Errorf("error creating output directory %s: %w", outputDir, err).Error())
		return
	}
	ext := filepath.Ext(outputBase)
	base := strings.TrimSuffix(outputBase, ext)

	for _, value := range values {
		outputPath := fmt.Sprintf("%s_%s_%s_%s%s", base, section, param, d.label(section, param, value), ext)
		message := fmt.Sprintf("Processing with %s.%s = %s", section, param, value)
		logger.Info(message, "sweep")

		if err := d.runValue(inputPath, outputPath, section, param, value); err != nil {
			message := fmt.Sprintf("Error processing %s.%s = %s: %v", section, param, value, err)
			logger.Error(message)
			continue
		}
	}
}

func (d *SweepDriver) label(section string, param string, value string) string {
	for _, sp := range SweepParams {
		if sp.Section == section && sp.Name == param {
			return sp.Label(value)
		}
	}
	return value
}

// runValue is one full file pass. Panics escaping the pass (the HDF5 helpers
// panic on I/O failure) are contained here, at sweep-value granularity.
func (d *SweepDriver) runValue(inputPath string, outputPath string, section string,
	param string, value string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("recovered from panic: %v", r)
		}
	}()

	cfg := d.BaseElec
	if err := UpdateConfigParameter(&cfg, section, param, value); err != nil {
		return err
	}

	fin, err := d.OpenSource(inputPath, ReaderOptions{Start: d.Config.Start, Stop: d.Config.Stop})
	if err != nil {
		return fmt.Errorf("error opening input file: %w", err)
	}
	defer fin.Close()

	fout, err := d.CreateSink(outputPath, fin.Header())
	if err != nil {
		return fmt.Errorf("error creating output file: %w", err)
	}
	outClosed := false
	defer func() {
		if !outClosed {
			fout.Close()
		}
	}()

	processor := &EventProcessor{
		Cfg:   cfg,
		Gains: d.Gains(cfg, fin.Header().RunNumber),
		Rng:   NewRand(d.Config.Seed1, d.Config.Seed2),
	}

	validEvents := 0
	for i := 0; ; i++ {
		ev, err := fin.NextEvent()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("error reading event %d: %w", i, err)
		}
		ev.PE = ev.VetoPE
		ApplyTimeOffset(ev.PE, cfg.Offset)
		if configuration.Verbosity > 1 {
			logger.Info(fmt.Sprintf("Processing event %d", i), "sweep")
		}

		out := fout.CreateEmptyEvent()
		out.EventID = ev.EventID
		if processor.Process(i, ev, out) {
			if err := fout.WriteEvent(out); err != nil {
				return fmt.Errorf("error writing event %d: %w", i, err)
			}
			validEvents++
		}
	}

	outClosed = true
	if err := fout.Close(); err != nil {
		return fmt.Errorf("error closing output file: %w", err)
	}

	if validEvents == 0 {
		message := fmt.Sprintf("No valid events processed for %s.%s = %s", section, param, value)
		logger.Warn(message, "sweep")
		// The file holds nothing but a header at this point.
		if err := os.Remove(outputPath); err != nil && !os.IsNotExist(err) {
			logger.Error(fmt.Errorf("error removing empty output %s: %w", outputPath, err).Error())
		}
		return nil
	}

	message := fmt.Sprintf("Saved output to %s (%d valid events)", outputPath, validEvents)
	logger.Info(message, "sweep")
	return nil
}
