package slicer

import (
	"fmt"
	"strconv"
	"strings"
)

type ParamKind int

const (
	ParamFloat ParamKind = iota
	ParamInt
	ParamString
)

// SweepParam describes one sweepable electronics parameter: its CLI flag, its
// (section, name) config key, the unit scale applied at write time and the
// typed setter into the snapshot. Adding a sweepable parameter is a new table
// entry, nothing else.
type SweepParam struct {
	Flag    string
	Section string
	Name    string
	Help    string
	Unit    float64
	Kind    ParamKind

	setFloat  func(*ElecConfig, float64)
	setInt    func(*ElecConfig, int)
	setString func(*ElecConfig, string)
}

// SweepParams is the enumerated set of (section, parameter) combinations, in
// the resolution order the original processing script used.
var SweepParams = []SweepParam{
	{Flag: "snr", Section: "daq", Name: "snr", Help: "SNR values to sweep (comma-separated)",
		Unit: 1, Kind: ParamFloat, setFloat: func(c *ElecConfig, v float64) { c.SNR = v }},
	{Flag: "sampling", Section: "daq", Name: "sampling", Help: "Sampling rate values in MHz to sweep (comma-separated)",
		Unit: MHz, Kind: ParamFloat, setFloat: func(c *ElecConfig, v float64) { c.Sampling = v }},
	{Flag: "jitter", Section: "daq", Name: "jitter", Help: "Jitter values in ns to sweep (comma-separated)",
		Unit: Ns, Kind: ParamFloat, setFloat: func(c *ElecConfig, v float64) { c.Jitter = v }},
	{Flag: "noise-spectrum", Section: "daq", Name: "noise_spectrum", Help: "Noise spectrum files to use (comma-separated)",
		Kind: ParamString, setString: func(c *ElecConfig, v string) { c.NoiseSpectrum = v }},
	{Flag: "dcr", Section: "sipm", Name: "dcr", Help: "Dark count rate values in Hz to sweep (comma-separated)",
		Unit: Hz, Kind: ParamFloat, setFloat: func(c *ElecConfig, v float64) { c.DCR = v }},
	{Flag: "tau", Section: "sipm", Name: "tau", Help: "Tau values in ns to sweep (comma-separated)",
		Unit: Ns, Kind: ParamFloat, setFloat: func(c *ElecConfig, v float64) { c.Tau = v }},
	{Flag: "pre-threshold", Section: "zle", Name: "pre_threshold", Help: "ZLE pre-threshold values to sweep (comma-separated)",
		Unit: 1, Kind: ParamFloat, setFloat: func(c *ElecConfig, v float64) { c.PreThreshold = v }},
	{Flag: "post-threshold", Section: "zle", Name: "post_threshold", Help: "ZLE post-threshold values to sweep (comma-separated)",
		Unit: 1, Kind: ParamFloat, setFloat: func(c *ElecConfig, v float64) { c.PostThreshold = v }},
	{Flag: "pre-trigger", Section: "zle", Name: "pre_trigger", Help: "ZLE pre-trigger values to sweep (comma-separated)",
		Kind: ParamInt, setInt: func(c *ElecConfig, v int) { c.PreTrigger = v }},
	{Flag: "post-trigger", Section: "zle", Name: "post_trigger", Help: "ZLE post-trigger values to sweep (comma-separated)",
		Kind: ParamInt, setInt: func(c *ElecConfig, v int) { c.PostTrigger = v }},
}

// Apply parses one raw sweep value, scales it and writes it into the
// snapshot.
func (sp SweepParam) Apply(cfg *ElecConfig, raw string) error {
	switch sp.Kind {
	case ParamFloat:
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return fmt.Errorf("invalid float %q for %s.%s: %w", raw, sp.Section, sp.Name, err)
		}
		sp.setFloat(cfg, v*sp.Unit)
	case ParamInt:
		v, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("invalid int %q for %s.%s: %w", raw, sp.Section, sp.Name, err)
		}
		sp.setInt(cfg, v)
	case ParamString:
		sp.setString(cfg, raw)
	}
	return nil
}

// Label renders one raw value the way it appears in output file names:
// floats lose trailing zeros, so "5.0" and "5" both label as "5".
func (sp SweepParam) Label(raw string) string {
	switch sp.Kind {
	case ParamFloat:
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return raw
		}
		return strconv.FormatFloat(v, 'g', -1, 64)
	case ParamInt:
		v, err := strconv.Atoi(raw)
		if err != nil {
			return raw
		}
		return strconv.Itoa(v)
	default:
		return raw
	}
}

// UpdateConfigParameter applies one (section, parameter, value) triple to the
// snapshot through the table. Unknown combinations are a silent no-op, as in
// the original configuration store.
func UpdateConfigParameter(cfg *ElecConfig, section string, param string, value string) error {
	for _, sp := range SweepParams {
		if sp.Section == section && sp.Name == param {
			return sp.Apply(cfg, value)
		}
	}
	return nil
}

// ParseValues splits a comma-separated sweep flag into trimmed raw values.
func ParseValues(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	values := make([]string, 0, len(parts))
	for _, p := range parts {
		values = append(values, strings.TrimSpace(p))
	}
	return values
}

// ResolveSweep picks the active sweep from the supplied flag values, keyed by
// flag name. Only the first table entry with a non-empty value list is
// honored; any further sweep flags passed at the same time are silently
// ignored. This first-match-wins rule is inherited from the original script
// and kept on purpose.
func ResolveSweep(flagValues map[string]string) (SweepParam, []string, bool) {
	for _, sp := range SweepParams {
		values := ParseValues(flagValues[sp.Flag])
		if len(values) > 0 {
			return sp, values, true
		}
	}
	return SweepParam{}, nil, false
}
