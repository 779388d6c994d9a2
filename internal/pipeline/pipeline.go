// Package pipeline runs a short sequence of named stages over shared state.
// Each stage declares whether its failure aborts the run (MustSucceed) or is
// only recorded (BestEffort).
package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("pipeline")

type Policy int

const (
	MustSucceed Policy = iota
	BestEffort
)

func (p Policy) String() string {
	if p == BestEffort {
		return "best_effort"
	}
	return "must_succeed"
}

type Stage[S any] struct {
	Name   string
	Policy Policy
	// When gates the stage; nil means always run.
	When func(state *S) bool
	Run  func(ctx context.Context, state *S) error
}

type StageResult struct {
	Name     string
	Policy   Policy
	Skipped  bool
	Err      error
	Duration time.Duration
}

type Report struct {
	Stages []StageResult
}

// Failures returns the best-effort stages that failed.
func (r Report) Failures() []StageResult {
	var out []StageResult
	for _, s := range r.Stages {
		if s.Err != nil && s.Policy == BestEffort {
			out = append(out, s)
		}
	}
	return out
}

// Ran reports whether the named stage executed (successfully or not).
func (r Report) Ran(name string) bool {
	for _, s := range r.Stages {
		if s.Name == name && !s.Skipped {
			return true
		}
	}
	return false
}

// StageError is returned when a MustSucceed stage fails.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Run executes stages in order. The first MustSucceed failure stops the run
// and is returned as a *StageError; later stages are not attempted.
func Run[S any](ctx context.Context, state *S, stages ...Stage[S]) (Report, error) {
	var report Report

	for _, stage := range stages {
		if stage.When != nil && !stage.When(state) {
			report.Stages = append(report.Stages, StageResult{Name: stage.Name, Policy: stage.Policy, Skipped: true})
			continue
		}

		if err := ctx.Err(); err != nil && stage.Policy == MustSucceed {
			report.Stages = append(report.Stages, StageResult{Name: stage.Name, Policy: stage.Policy, Err: err})
			return report, &StageError{Stage: stage.Name, Err: err}
		}

		result := runStage(ctx, state, stage)
		report.Stages = append(report.Stages, result)

		if result.Err != nil && stage.Policy == MustSucceed {
			return report, &StageError{Stage: stage.Name, Err: result.Err}
		}
	}

	return report, nil
}

func runStage[S any](ctx context.Context, state *S, stage Stage[S]) StageResult {
	ctx, span := tracer.Start(ctx, stage.Name)
	defer span.End()
	span.SetAttributes(attribute.String("pipeline.policy", stage.Policy.String()))

	start := time.Now()
	err := stage.Run(ctx, state)
	result := StageResult{Name: stage.Name, Policy: stage.Policy, Err: err, Duration: time.Since(start)}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return result
}
