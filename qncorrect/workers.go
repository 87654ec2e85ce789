package main

import (
	"fmt"

	qn "github.com/next-exp/qncorrections_go/pkg"
)

type WorkerResult struct {
	Filename    string
	Calibration *qn.HistogramList
	QA          *qn.HistogramList
	Events      int
	Err         error
}

// worker runs one manager per file so that the outputs can be merged.
func worker(id int, jobs <-chan string, results chan<- WorkerResult, pass passSetup) {
	for filename := range jobs {
		results <- processShard(id, filename, pass)
	}
}

func processShard(id int, filename string, pass passSetup) (result WorkerResult) {
	result.Filename = filename
	defer func() {
		if r := recover(); r != nil {
			result.Err = fmt.Errorf("worker %d recovered from panic on %s: %v", id, filename, r)
		}
	}()

	if VerbosityLevel > 0 {
		logger.Info(fmt.Sprintf("Worker %d processing %s", id, filename), "workers")
	}
	m, err := newManager(pass.setup, pass.channelMaps, pass.calibration)
	if err != nil {
		result.Err = err
		return result
	}
	filler := qn.NewEventFiller(pass.channelMaps)
	filler.WeightThreshold = configuration.WeightThreshold
	if err := processFile(m, filler, filename, nil); err != nil {
		result.Err = err
		return result
	}
	result.Calibration, result.Err = m.Finalize()
	result.QA = m.QAHistograms()
	result.Events = m.Events()
	return result
}

func sendFilesToWorkers(files []string, jobs chan<- string) {
	for _, f := range files {
		jobs <- f
	}
	close(jobs)
}

// processWorkerResults merges the per file outputs. Any failed shard fails
// the pass.
func processWorkerResults(results <-chan WorkerResult, nFiles int) (*qn.HistogramList, *qn.HistogramList, int, error) {
	calibrations := make([]*qn.HistogramList, 0, nFiles)
	qas := make([]*qn.HistogramList, 0, nFiles)
	events := 0
	var firstErr error
	for i := 0; i < nFiles; i++ {
		result := <-results
		if result.Err != nil {
			logger.Error(result.Err.Error())
			if firstErr == nil {
				firstErr = result.Err
			}
			continue
		}
		if VerbosityLevel > 0 {
			logger.Info(fmt.Sprintf("Processed %d events from %s", result.Events, result.Filename), "workers")
		}
		calibrations = append(calibrations, result.Calibration)
		if result.QA != nil {
			qas = append(qas, result.QA)
		}
		events += result.Events
	}
	if firstErr != nil {
		return nil, nil, events, firstErr
	}
	calibration, err := qn.MergeHistogramLists(calibrations...)
	if err != nil {
		return nil, nil, events, fmt.Errorf("error merging calibration: %w", err)
	}
	var qa *qn.HistogramList
	if len(qas) > 0 {
		if qa, err = qn.MergeHistogramLists(qas...); err != nil {
			return nil, nil, events, fmt.Errorf("error merging QA: %w", err)
		}
	}
	return calibration, qa, events, nil
}
