// Package diag is the line-numbered diagnostic sink importers report
// through. Recoverable problems go to a Sink as warnings or infos; fatal
// problems become a FatalError that aborts the whole import.
package diag

import (
	"fmt"

	"go.uber.org/zap"
)

// Sink receives recoverable diagnostics. Line is the 0-based source line
// the reporting parser was on.
type Sink interface {
	Warn(line int, msg string)
	Info(line int, msg string)
}

// FatalError aborts an import. No partial scene is returned alongside it.
type FatalError struct {
	Line int
	Msg  string
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
}

// Fatalf builds the error that aborts the import.
func Fatalf(line int, format string, args ...any) error {
	return &FatalError{Line: line, Msg: fmt.Sprintf(format, args...)}
}

// ZapSink forwards diagnostics to a sugared zap logger.
type ZapSink struct {
	Log *zap.SugaredLogger
}

// NewZapSink wraps a zap logger.
func NewZapSink(log *zap.SugaredLogger) *ZapSink {
	return &ZapSink{Log: log}
}

func (s *ZapSink) Warn(line int, msg string) {
	s.Log.Warnf("line %d: %s", line, msg)
}

func (s *ZapSink) Info(line int, msg string) {
	s.Log.Infof("line %d: %s", line, msg)
}

// Entry is one recorded diagnostic.
type Entry struct {
	Line int
	Msg  string
}

// Recorder is a Sink that keeps diagnostics in memory. Used in tests and by
// callers that want to inspect warnings after an import.
type Recorder struct {
	Warnings []Entry
	Infos    []Entry
}

func (r *Recorder) Warn(line int, msg string) {
	r.Warnings = append(r.Warnings, Entry{Line: line, Msg: msg})
}

func (r *Recorder) Info(line int, msg string) {
	r.Infos = append(r.Infos, Entry{Line: line, Msg: msg})
}

// Discard is a Sink that drops everything.
type Discard struct{}

func (Discard) Warn(int, string) {}
func (Discard) Info(int, string) {}
