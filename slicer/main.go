package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	slicer "github.com/ds-exp/slicer_go/pkg"
	sqlx "github.com/jmoiron/sqlx"
)

var dbConn *sqlx.DB
var configuration slicer.Configuration

var (
	logger         Logger
	VerbosityLevel int
)

func init() {
	opts := &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}
	handlerStdOut := NewHandler(os.Stdout, opts)
	handlerStdErr := slog.NewJSONHandler(os.Stderr, opts)
	logger = Logger{
		InfoLog:  slog.New(handlerStdOut),
		ErrorLog: slog.New(handlerStdErr),
	}
}

func main() {
	configFilename := flag.String("config", "", "Configuration file path")
	inputPath := flag.String("i", "", "Input file name (.fil)")
	outputBase := flag.String("o", "", "Base output file name (.slc)")
	start := flag.Int("start", -1, "Event to start at")
	stop := flag.Int("stop", -1, "Event to stop at")
	seeds := flag.String("seeds", "", "Random seed pair, comma-separated")

	sweepFlags := make(map[string]*string, len(slicer.SweepParams))
	for _, sp := range slicer.SweepParams {
		sweepFlags[sp.Flag] = flag.String(sp.Flag, "", sp.Help)
	}
	flag.Parse()

	var err error
	configuration, err = slicer.LoadConfiguration(*configFilename)
	if err != nil {
		message := fmt.Errorf("Error reading configuration file: %w", err)
		logger.Error(message.Error())
		return
	}
	if *inputPath != "" {
		configuration.FileIn = *inputPath
	}
	if *outputBase != "" {
		configuration.FileOut = *outputBase
	}
	if *start >= 0 {
		configuration.Start = *start
	}
	if *stop >= 0 {
		configuration.Stop = *stop
	}
	if *seeds != "" {
		if err := parseSeeds(*seeds, &configuration); err != nil {
			logger.Error(err.Error())
			return
		}
	}
	if configuration.FileIn == "" || configuration.FileOut == "" {
		logger.Error("input (-i) and output (-o) paths are required")
		return
	}

	slicer.SetConfiguration(configuration)
	slicer.SetLogger(logger)

	VerbosityLevel = configuration.Verbosity
	if VerbosityLevel > 0 {
		message := fmt.Sprintf("Reading configuration file: %s", *configFilename)
		logger.Info(message, "main")
		printConfiguration(configuration, logger)
	}

	if !configuration.NoDB {
		dbConn, err = slicer.ConnectToDatabase(configuration.User, configuration.Passwd,
			configuration.Host, configuration.DBName)
		if err != nil {
			message := fmt.Errorf("Error connecting to database: %w", err)
			logger.Error(message.Error())
			return
		}
		defer dbConn.Close()
	}

	driver := slicer.NewSweepDriver(configuration, dbConn)

	flagValues := make(map[string]string, len(sweepFlags))
	for name, value := range sweepFlags {
		flagValues[name] = *value
	}

	// Only the first recognized sweep flag is honored; see ResolveSweep.
	if sp, values, ok := slicer.ResolveSweep(flagValues); ok {
		message := fmt.Sprintf("Sweeping %s.%s over values: %v", sp.Section, sp.Name, values)
		logger.Info(message, "main")
		driver.Run(configuration.FileIn, configuration.FileOut, sp.Section, sp.Name, values)
		return
	}

	// No sweep flag: a single pass with the currently configured SNR.
	value := strconv.FormatFloat(configuration.Elec.SNR, 'g', -1, 64)
	driver.Run(configuration.FileIn, configuration.FileOut, "daq", "snr", []string{value})
}

func parseSeeds(raw string, config *slicer.Configuration) error {
	parts := strings.Split(raw, ",")
	if len(parts) != 2 {
		return fmt.Errorf("expected two comma-separated seeds, got %q", raw)
	}
	seed1, err := strconv.ParseUint(strings.TrimSpace(parts[0]), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid seed %q: %w", parts[0], err)
	}
	seed2, err := strconv.ParseUint(strings.TrimSpace(parts[1]), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid seed %q: %w", parts[1], err)
	}
	config.Seed1 = seed1
	config.Seed2 = seed2
	return nil
}

func printConfiguration(config slicer.Configuration, logger Logger) {
	logger.Info(fmt.Sprintf("File in: %s", config.FileIn), "config")
	logger.Info(fmt.Sprintf("File out: %s", config.FileOut), "config")
	logger.Info(fmt.Sprintf("Start: %d", config.Start), "config")
	logger.Info(fmt.Sprintf("Stop: %d", config.Stop), "config")
	logger.Info(fmt.Sprintf("Seeds: %d %d", config.Seed1, config.Seed2), "config")
	logger.Info(fmt.Sprintf("No DB: %t", config.NoDB), "config")
	logger.Info(fmt.Sprintf("Host: %s", config.Host), "config")
	logger.Info(fmt.Sprintf("DB name: %s", config.DBName), "config")
	logger.Info(fmt.Sprintf("Verbosity: %d", config.Verbosity), "config")
	logger.Info(fmt.Sprintf("Compression level: %d", config.CompressionLevel), "config")
	logger.Info(fmt.Sprintf("SNR: %g", config.Elec.SNR), "config")
	logger.Info(fmt.Sprintf("Sampling: %g MHz", config.Elec.Sampling), "config")
	logger.Info(fmt.Sprintf("Jitter: %g ns", config.Elec.Jitter), "config")
	logger.Info(fmt.Sprintf("Noise spectrum: %s", config.Elec.NoiseSpectrum), "config")
	logger.Info(fmt.Sprintf("DCR: %g Hz", config.Elec.DCR), "config")
	logger.Info(fmt.Sprintf("Tau: %g ns", config.Elec.Tau), "config")
	logger.Info(fmt.Sprintf("ZLE pre-threshold: %g pe", config.Elec.PreThreshold), "config")
	logger.Info(fmt.Sprintf("ZLE post-threshold: %g pe", config.Elec.PostThreshold), "config")
	logger.Info(fmt.Sprintf("ZLE pre-trigger: %d", config.Elec.PreTrigger), "config")
	logger.Info(fmt.Sprintf("ZLE post-trigger: %d", config.Elec.PostTrigger), "config")
	logger.Info(fmt.Sprintf("Offset: %g ns", config.Elec.Offset), "config")
}
