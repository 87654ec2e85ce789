package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	sqlx "github.com/jmoiron/sqlx"
	qn "github.com/next-exp/qncorrections_go/pkg"
	"github.com/next-exp/qncorrections_go/pkg/qntree"
)

var dbConn *sqlx.DB
var configuration qn.Configuration

var (
	logger         Logger
	VerbosityLevel int
)

// passSetup is what every manager of a pass is built from.
type passSetup struct {
	setup       qn.SetupConfig
	channelMaps map[int]*qn.ChannelMap
	calibration *qn.HistogramList
}

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
	workers := flag.Int("workers", 0, "Number of parallel workers, overrides the configuration")
	flag.Parse()

	if err := run(*configFilename, *workers); err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}
}

func run(configFilename string, workers int) error {
	var err error
	configuration, err = qn.LoadConfiguration(configFilename)
	if err != nil {
		return fmt.Errorf("Error reading configuration file: %w", err)
	}
	if workers > 0 {
		configuration.NumWorkers = workers
	}
	qn.SetLogger(logger)
	qn.SetVerbosity(configuration.Verbosity)

	VerbosityLevel = configuration.Verbosity
	if VerbosityLevel > 0 {
		message := fmt.Sprintf("Reading configuration file: %s", configFilename)
		logger.Info(message, "main")
		printConfiguration(configuration, logger)
	}

	pass, err := preparePass()
	if err != nil {
		return err
	}

	start := time.Now()
	var calibration, qa *qn.HistogramList
	var events int
	if configuration.NumWorkers > 1 && len(configuration.FilesIn) > 1 && configuration.TreeOut == "" {
		calibration, qa, events, err = runParallel(pass)
	} else {
		calibration, qa, events, err = runSerial(pass)
	}
	if err != nil {
		return err
	}

	if err := qn.WriteHistogramFile(configuration.CalibrationOut, calibration); err != nil {
		return fmt.Errorf("Error writing calibration: %w", err)
	}
	if configuration.QAOut != "" && qa != nil {
		if err := qn.WriteHistogramFile(configuration.QAOut, qa); err != nil {
			return fmt.Errorf("Error writing QA histograms: %w", err)
		}
	}

	duration := time.Since(start)
	logger.Info(fmt.Sprintf("Processed %d events in %d ms", events, duration.Milliseconds()), "main")
	return nil
}

func preparePass() (passSetup, error) {
	var pass passSetup
	var err error

	if configuration.SetupFile != "" {
		pass.setup, err = qn.LoadSetup(configuration.SetupFile)
	} else {
		pass.setup, err = qn.PresetSetup(configuration.Preset)
	}
	if err != nil {
		return pass, fmt.Errorf("Error reading setup: %w", err)
	}
	pass.setup.FillTree = configuration.TreeOut != ""

	pass.channelMaps, err = loadChannelMaps(pass.setup)
	if err != nil {
		return pass, err
	}

	pass.calibration, err = qn.LoadCalibration(configuration.CalibrationIn)
	if err != nil {
		return pass, fmt.Errorf("Error reading calibration: %w", err)
	}
	return pass, nil
}

// loadChannelMaps reads the channel map of every detector of the setup valid
// for the run of the first input file. Without database the built-in maps
// are used.
func loadChannelMaps(setup qn.SetupConfig) (map[int]*qn.ChannelMap, error) {
	if configuration.NoDB {
		return qn.DefaultChannelMaps(), nil
	}

	runNumber, err := firstRun(configuration.FilesIn[0])
	if err != nil {
		return nil, err
	}

	dbConn, err = qn.ConnectToDatabase(configuration.User, configuration.Passwd, configuration.Host, configuration.DBName)
	if err != nil {
		return nil, fmt.Errorf("Error connection to database: %w", err)
	}
	defer dbConn.Close()

	channelMaps := make(map[int]*qn.ChannelMap)
	for _, det := range setup.Detectors {
		if !needsChannelMap(det) {
			continue
		}
		cm, err := qn.GetChannelMapFromDB(dbConn, det.Name, runNumber)
		if err != nil {
			return nil, fmt.Errorf("Error reading channel map of %s: %w", det.Name, err)
		}
		channelMaps[det.ID] = cm
	}
	return channelMaps, nil
}

func needsChannelMap(det qn.DetectorSetup) bool {
	for _, c := range det.Configurations {
		if c.Type == qn.ChannelConfiguration {
			return true
		}
	}
	return false
}

func runSerial(pass passSetup) (*qn.HistogramList, *qn.HistogramList, int, error) {
	m, err := newManager(pass.setup, pass.channelMaps, pass.calibration)
	if err != nil {
		return nil, nil, 0, err
	}
	filler := qn.NewEventFiller(pass.channelMaps)
	filler.WeightThreshold = configuration.WeightThreshold

	var tree *qntree.Writer
	if configuration.TreeOut != "" {
		tree, err = qntree.NewWriter(configuration.TreeOut, m.TreeColumns(), configuration.CompressionLevel)
		if err != nil {
			return nil, nil, 0, err
		}
		defer func() {
			if err := tree.Close(); err != nil {
				logger.Error(err.Error())
			}
		}()
	}

	for _, filename := range configuration.FilesIn {
		if err := processFile(m, filler, filename, tree); err != nil {
			return nil, nil, m.Events(), err
		}
	}
	calibration, err := m.Finalize()
	if err != nil {
		return nil, nil, m.Events(), err
	}
	return calibration, m.QAHistograms(), m.Events(), nil
}

func runParallel(pass passSetup) (*qn.HistogramList, *qn.HistogramList, int, error) {
	nFiles := len(configuration.FilesIn)
	jobs := make(chan string, nFiles)
	results := make(chan WorkerResult, nFiles)
	for w := 0; w < configuration.NumWorkers; w++ {
		go worker(w, jobs, results, pass)
	}
	go sendFilesToWorkers(configuration.FilesIn, jobs)
	return processWorkerResults(results, nFiles)
}
