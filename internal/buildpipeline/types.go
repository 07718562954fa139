// Package buildpipeline defines the progress protocol between the
// compilation driver and its consumers (CLI output, the interactive
// progress view). The driver publishes events; sinks render them.
package buildpipeline

import "time"

// Stage describes a high-level pipeline phase.
type Stage string

const (
	// StageTokenize is lexical analysis.
	StageTokenize Stage = "tokenize"
	// StageParse builds the syntax tree.
	StageParse Stage = "parse"
	// StageCheck runs type and ownership checking.
	StageCheck Stage = "check"
	// StageLower generates the block IR.
	StageLower Stage = "lower"
	// StageEmit renders LLVM IR text.
	StageEmit Stage = "emit"
)

// Stages lists the pipeline phases in execution order.
func Stages() []Stage {
	return []Stage{StageTokenize, StageParse, StageCheck, StageLower, StageEmit}
}

// Status captures progress state within a stage.
type Status string

const (
	// StatusQueued indicates the task is waiting to start.
	StatusQueued Status = "queued"
	// StatusWorking indicates the task is currently working.
	StatusWorking Status = "working"
	// StatusDone indicates the task is done.
	StatusDone Status = "done"
	// StatusError indicates the task encountered an error.
	StatusError Status = "error"
	// StatusCached indicates the result came from the disk cache.
	StatusCached Status = "cached"
)

// Event reports progress for a file, or for the overall pipeline when
// File is empty.
type Event struct {
	File    string
	Stage   Stage
	Status  Status
	Err     error
	Elapsed time.Duration
	// Diagnostics is the number of diagnostics the stage produced.
	Diagnostics int
}

// ProgressSink consumes progress events. Implementations must tolerate
// concurrent publishers.
type ProgressSink interface {
	OnEvent(Event)
}

// Timings holds per-stage durations for one file.
type Timings struct {
	stages map[Stage]time.Duration
}

func (t *Timings) ensure() {
	if t.stages == nil {
		t.stages = make(map[Stage]time.Duration)
	}
}

// Set stores a duration for the given stage.
func (t *Timings) Set(stage Stage, dur time.Duration) {
	if t == nil {
		return
	}
	t.ensure()
	t.stages[stage] = dur
}

// Has reports whether a duration for stage is recorded.
func (t Timings) Has(stage Stage) bool {
	if t.stages == nil {
		return false
	}
	_, ok := t.stages[stage]
	return ok
}

// Duration returns the recorded duration for stage.
func (t Timings) Duration(stage Stage) time.Duration {
	if t.stages == nil {
		return 0
	}
	return t.stages[stage]
}

// Sum returns the total across the provided stages.
func (t Timings) Sum(stages ...Stage) time.Duration {
	if t.stages == nil {
		return 0
	}
	var total time.Duration
	for _, stage := range stages {
		total += t.stages[stage]
	}
	return total
}
