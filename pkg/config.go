package slicer

import (
	"encoding/json"
	"os"
)

// Configuration holds the job-level settings: file paths, event bounds,
// random seeds and the calibration database credentials.
type Configuration struct {
	FileIn           string   `json:"file_in"`
	FileOut          string   `json:"file_out"`
	Start            int      `json:"start"`
	Stop             int      `json:"stop"`
	Seed1            uint64   `json:"seed1"`
	Seed2            uint64   `json:"seed2"`
	Verbosity        int      `json:"verbosity"`
	NoDB             bool     `json:"no_db"`
	CompressionLevel int      `json:"compression_level"`
	Host             string   `json:"host"`
	User             string   `json:"user"`
	Passwd           string   `json:"pass"`
	DBName           string   `json:"dbname"`
	Elec             ElecFile `json:"elec"`
}

// ElecFile is the electronics section of the config file, in the same units
// the sweep flags use (MHz, ns, Hz). Snapshot converts it to internal units.
type ElecFile struct {
	SNR           float64 `json:"snr"`
	Sampling      float64 `json:"sampling"`
	Jitter        float64 `json:"jitter"`
	NoiseSpectrum string  `json:"noise_spectrum"`
	DCR           float64 `json:"dcr"`
	Tau           float64 `json:"tau"`
	PreThreshold  float64 `json:"pre_threshold"`
	PostThreshold float64 `json:"post_threshold"`
	PreTrigger    int     `json:"pre_trigger"`
	PostTrigger   int     `json:"post_trigger"`
	Offset        float64 `json:"offset"`
	GateGap       float64 `json:"gate_gap"`
	GatePad       float64 `json:"gate_pad"`
	Downsample    int     `json:"downsample"`
	NChannels     int     `json:"n_channels"`
}

// ElecConfig is the electronics snapshot consumed by the pipeline, with every
// value already scaled to internal units (ns, pe, cycles/ns). The sweep driver
// builds one per file pass; nothing mutates it while a pass is running.
type ElecConfig struct {
	SNR           float64
	Sampling      float64
	Jitter        float64
	NoiseSpectrum string
	DCR           float64
	Tau           float64
	PreThreshold  float64
	PostThreshold float64
	PreTrigger    int
	PostTrigger   int
	Offset        float64
	GateGap       float64
	GatePad       float64
	Downsample    int
	NChannels     int
}

func LoadConfiguration(filename string) (Configuration, error) {
	var config Configuration

	// Set default values
	config.Start = 0
	config.Stop = 1000000000
	config.Seed1 = 1234
	config.Seed2 = 1235
	config.Verbosity = 0
	config.NoDB = false
	config.CompressionLevel = 4
	config.Host = "ds20k.lngs.infn.it"
	config.User = "dsreader"
	config.Passwd = "readonly"
	config.DBName = "DS20KCAL"
	config.Elec = ElecFile{
		SNR:           10,
		Sampling:      125,
		Jitter:        5,
		DCR:           200,
		Tau:           400,
		PreThreshold:  0.5,
		PostThreshold: 0.25,
		PreTrigger:    8,
		PostTrigger:   16,
		Offset:        0,
		GateGap:       2,
		GatePad:       1,
		Downsample:    16,
		NChannels:     32,
	}

	if filename == "" {
		return config, nil
	}
	data, err := os.ReadFile(filename)
	if err != nil {
		return config, err
	}
	err = json.Unmarshal(data, &config)
	if err != nil {
		return config, err
	}
	return config, nil
}

// Snapshot applies the unit scales once. The pipeline only ever sees the
// returned value.
func (f ElecFile) Snapshot() ElecConfig {
	return ElecConfig{
		SNR:           f.SNR,
		Sampling:      f.Sampling * MHz,
		Jitter:        f.Jitter * Ns,
		NoiseSpectrum: f.NoiseSpectrum,
		DCR:           f.DCR * Hz,
		Tau:           f.Tau * Ns,
		PreThreshold:  f.PreThreshold * PE,
		PostThreshold: f.PostThreshold * PE,
		PreTrigger:    f.PreTrigger,
		PostTrigger:   f.PostTrigger,
		Offset:        f.Offset * Ns,
		GateGap:       f.GateGap * Us,
		GatePad:       f.GatePad * Us,
		Downsample:    f.Downsample,
		NChannels:     f.NChannels,
	}
}

var configuration Configuration

func GetConfiguration() Configuration {
	return configuration
}

func SetConfiguration(config Configuration) {
	configuration = config
}
