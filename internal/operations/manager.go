package operations

import (
	"context"
	"log/slog"
	"time"

	"capflow/internal/infrastructure"
)

// Manager orchestrates operation execution
type Manager struct {
	registry *Registry
	logger   *slog.Logger
	metrics  *infrastructure.PipelineMetrics
}

// NewManager creates a new operation manager. metrics may be nil.
func NewManager(registry *Registry, logger *slog.Logger, metrics *infrastructure.PipelineMetrics) *Manager {
	if registry == nil {
		registry = NewRegistry()
	}
	return &Manager{
		registry: registry,
		logger:   infrastructure.WithComponent(logger, "operations"),
		metrics:  metrics,
	}
}

// RegisterStep registers a Step with the operation
func (m *Manager) RegisterStep(step Step) error {
	return m.registry.Register(step)
}

// Execute runs every registered step in order. The run stops at the first
// failing step; the steps after it are marked skipped.
func (m *Manager) Execute(ctx context.Context) (*OperationResponse, error) {
	ctx = infrastructure.EnsureRunID(ctx)
	state := NewOperationState(infrastructure.GetRunID(ctx))

	steps := m.registry.List()
	for _, step := range steps {
		state.AddStep(NewStepState(step.ID(), step.Name()))
	}

	ctx, span := traceOperation(ctx, state.ID, len(steps))
	state.Start()
	m.logger.InfoContext(ctx, "operation started", slog.Int("step_count", m.registry.Count()))

	err := m.executeSequential(ctx, state, steps)

	switch {
	case err == nil:
		state.Complete()
	case GetErrorType(err) == ErrorTypeCancellation:
		state.Cancel(err)
	default:
		state.Fail(err)
	}
	infrastructure.RecordRunMetrics(ctx, m.metrics, state.Duration(), err)
	endSpan(span, err)

	if err != nil {
		infrastructure.WithError(m.logger, err).ErrorContext(ctx, "operation failed",
			slog.String("step", FailedStep(err)),
			slog.Int("failed_steps", len(state.GetFailedSteps())),
			slog.Duration("duration", state.Duration()))
	} else {
		m.logger.InfoContext(ctx, "operation completed",
			slog.Int("artifacts", len(state.Artifacts)),
			slog.Duration("duration", state.Duration()))
	}
	return m.createResponse(state), err
}

// executeSequential executes steps one by one
func (m *Manager) executeSequential(ctx context.Context, state *OperationState, steps []Step) error {
	for i, step := range steps {
		stepState := state.GetStep(step.ID())

		if err := ctx.Err(); err != nil {
			m.skipRemaining(state, steps[i:], "operation cancelled")
			return NewCancellationError(step.ID(), err)
		}

		if skipper, ok := step.(Skipper); ok {
			if reason := skipper.SkipReason(state); reason != "" {
				stepState.Skip(reason)
				m.logger.InfoContext(ctx, "step skipped",
					slog.String("step", step.ID()),
					slog.String("reason", reason))
				continue
			}
		}

		if err := m.executeStep(ctx, state, step, stepState); err != nil {
			m.skipRemaining(state, steps[i+1:], "previous step failed")
			if ctx.Err() != nil {
				return NewCancellationError(step.ID(), err)
			}
			return NewExecutionError(step.ID(), err)
		}
	}
	return nil
}

func (m *Manager) executeStep(ctx context.Context, state *OperationState, step Step, stepState *StepState) error {
	stepCtx, span := traceStep(ctx, state.ID, step)
	stepState.Start()
	m.logger.InfoContext(stepCtx, "step started",
		slog.String("step", step.ID()),
		slog.String("name", step.Name()))

	start := time.Now()
	err := step.Execute(stepCtx, state)
	duration := time.Since(start)

	infrastructure.RecordStepMetrics(stepCtx, m.metrics, step.ID(), duration, err)
	endSpan(span, err)

	if err != nil {
		stepState.Fail(err)
		return err
	}
	stepState.Complete()
	m.logger.InfoContext(stepCtx, "step completed",
		slog.String("step", step.ID()),
		slog.Duration("duration", duration))
	return nil
}

func (m *Manager) skipRemaining(state *OperationState, steps []Step, reason string) {
	for _, step := range steps {
		if s := state.GetStep(step.ID()); s != nil && s.GetStatus() == StepStatusPending {
			s.Skip(reason)
		}
	}
}

func (m *Manager) createResponse(state *OperationState) *OperationResponse {
	resp := &OperationResponse{
		ID:        state.ID,
		Status:    state.Status,
		Duration:  state.Duration(),
		Steps:     state.Steps,
		Artifacts: state.Artifacts,
	}
	if state.Error != nil {
		resp.Error = state.Error.Error()
	}
	return resp
}
