package main

import (
	"fmt"
	"strings"

	qn "github.com/next-exp/qncorrections_go/pkg"
)

func printConfiguration(config qn.Configuration, logger Logger) {
	logger.Info(fmt.Sprintf("Files in: %s", strings.Join(config.FilesIn, ", ")), "config")
	logger.Info(fmt.Sprintf("Setup file: %s", config.SetupFile), "config")
	logger.Info(fmt.Sprintf("Preset: %s", config.Preset), "config")
	logger.Info(fmt.Sprintf("Calibration in: %s", config.CalibrationIn), "config")
	logger.Info(fmt.Sprintf("Calibration out: %s", config.CalibrationOut), "config")
	logger.Info(fmt.Sprintf("QA out: %s", config.QAOut), "config")
	logger.Info(fmt.Sprintf("Tree out: %s", config.TreeOut), "config")
	logger.Info(fmt.Sprintf("No DB: %t", config.NoDB), "config")
	logger.Info(fmt.Sprintf("Host: %s", config.Host), "config")
	logger.Info(fmt.Sprintf("DB name: %s", config.DBName), "config")
	logger.Info(fmt.Sprintf("Skip: %d", config.Skip), "config")
	logger.Info(fmt.Sprintf("Max events: %d", config.MaxEvents), "config")
	logger.Info(fmt.Sprintf("Weight threshold: %g", config.WeightThreshold), "config")
	logger.Info(fmt.Sprintf("Verbosity: %d", config.Verbosity), "config")
	logger.Info(fmt.Sprintf("Workers: %d", config.NumWorkers), "config")
	logger.Info(fmt.Sprintf("Compression level: %d", config.CompressionLevel), "config")
}
