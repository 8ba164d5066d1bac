package main

import (
	"errors"
	"os"

	"github.com/gocarina/gocsv"
)

var (
	errMissingOutput = errors.New("--output is required")
	errNoEvaluation  = errors.New("no evaluation completed")
)

// EvalRecord is one row of optimize_log.csv.
type EvalRecord struct {
	Eval    int     `csv:"eval"`
	Fitness float64 `csv:"fitness"`
	Quality float64 `csv:"quality"`
	Params  string  `csv:"params"`
}

// evalLog appends evaluation rows, writing the header with the first one.
type evalLog struct {
	f             *os.File
	headerWritten bool
}

func newEvalLog(path string) (*evalLog, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	return &evalLog{f: f}, nil
}

func (l *evalLog) Write(rec EvalRecord) error {
	rows := []EvalRecord{rec}
	if !l.headerWritten {
		l.headerWritten = true
		return gocsv.Marshal(rows, l.f)
	}
	return gocsv.MarshalWithoutHeaders(rows, l.f)
}

func (l *evalLog) Close() error {
	return l.f.Close()
}
