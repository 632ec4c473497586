package slicer

import (
	"fmt"

	sqlx "github.com/jmoiron/sqlx"
)

// ZLEGain holds the calibration divisor for ZLE integrals.
type ZLEGain struct {
	IntegralMean float64 `db:"IntegralMean"`
}

// HitGain holds the calibration divisors for hit integrals and peaks.
type HitGain struct {
	IntegralMean float64 `db:"IntegralMean"`
	MaxMean      float64 `db:"MaxMean"`
}

// GainProvider yields the veto gain constants used to normalize an event.
// The processor consults it once per event, after concatenation, so the
// constants always reflect the configuration of the running pass.
type GainProvider interface {
	ZLEGainVeto() (ZLEGain, error)
	HitGainVeto() (HitGain, error)
}

// speIntegral is the expected raw integral of a single photoelectron pulse:
// unit amplitude decaying with sipm.tau, sampled at daq.sampling.
func speIntegral(cfg ElecConfig) float64 {
	return cfg.Tau * cfg.Sampling
}

// ConfigGains derives the gain constants from the electronics snapshot.
// Used in no-DB mode and rebuilt per sweep value, so swept tau or sampling
// values change the divisors with the pass.
type ConfigGains struct {
	Cfg ElecConfig
}

func (g ConfigGains) ZLEGainVeto() (ZLEGain, error) {
	return ZLEGain{IntegralMean: speIntegral(g.Cfg)}, nil
}

func (g ConfigGains) HitGainVeto() (HitGain, error) {
	return HitGain{IntegralMean: speIntegral(g.Cfg), MaxMean: 1 * PE}, nil
}

// DBGains reads the measured gain constants from the calibration database,
// selected by run number validity window.
type DBGains struct {
	DB        *sqlx.DB
	RunNumber int
}

func (g DBGains) ZLEGainVeto() (ZLEGain, error) {
	query := "SELECT IntegralMean FROM ZleGainVeto WHERE MinRun <= %d and MaxRun >= %d"
	query = fmt.Sprintf(query, g.RunNumber, g.RunNumber)
	if configuration.Verbosity > 2 {
		logger.Info(fmt.Sprintf("Query: %s", query), "database")
	}

	var gain ZLEGain
	rows, err := g.DB.Queryx(query)
	if err != nil {
		return gain, fmt.Errorf("error querying database: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return gain, fmt.Errorf("no ZLE gain calibration for run %d", g.RunNumber)
	}
	if err := rows.StructScan(&gain); err != nil {
		return gain, fmt.Errorf("error scanning DB row: %w", err)
	}
	return gain, nil
}

func (g DBGains) HitGainVeto() (HitGain, error) {
	query := "SELECT IntegralMean, MaxMean FROM HitGainVeto WHERE MinRun <= %d and MaxRun >= %d"
	query = fmt.Sprintf(query, g.RunNumber, g.RunNumber)
	if configuration.Verbosity > 2 {
		logger.Info(fmt.Sprintf("Query: %s", query), "database")
	}

	var gain HitGain
	rows, err := g.DB.Queryx(query)
	if err != nil {
		return gain, fmt.Errorf("error querying database: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return gain, fmt.Errorf("no hit gain calibration for run %d", g.RunNumber)
	}
	if err := rows.StructScan(&gain); err != nil {
		return gain, fmt.Errorf("error scanning DB row: %w", err)
	}
	return gain, nil
}
