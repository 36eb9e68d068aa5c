package operations

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"capflow/internal/config"
	apperrors "capflow/internal/errors"
)

// fakeStep records its execution and returns err.
type fakeStep struct {
	id   string
	err  error
	skip string
	ran  bool
}

func (s *fakeStep) ID() string   { return s.id }
func (s *fakeStep) Name() string { return "fake " + s.id }

func (s *fakeStep) Execute(ctx context.Context, state *OperationState) error {
	s.ran = true
	state.AddArtifacts(s.id + ".out")
	return s.err
}

func (s *fakeStep) SkipReason(state *OperationState) string { return s.skip }

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(&fakeStep{id: "a"}))
	require.NoError(t, r.Register(&fakeStep{id: "b"}))

	assert.Error(t, r.Register(&fakeStep{id: "a"}), "duplicate")
	assert.Error(t, r.Register(&fakeStep{id: ""}), "empty id")
	assert.Error(t, r.Register(nil))

	assert.Equal(t, 2, r.Count())
	steps := r.List()
	require.Len(t, steps, 2)
	assert.Equal(t, "a", steps[0].ID())
	assert.Equal(t, "b", steps[1].ID())

	_, err := r.Get("missing")
	assert.Equal(t, ErrorTypeNotFound, GetErrorType(err))
}

func TestManagerStopsAtFirstFailure(t *testing.T) {
	cause := apperrors.NewLookupError("country not in asset table")
	first := &fakeStep{id: "first"}
	skipped := &fakeStep{id: "optional", skip: "disabled"}
	failing := &fakeStep{id: "failing", err: cause}
	last := &fakeStep{id: "last"}

	m := NewManager(nil, quietLogger(), nil)
	for _, s := range []Step{first, skipped, failing, last} {
		require.NoError(t, m.RegisterStep(s))
	}

	resp, err := m.Execute(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, cause)
	assert.True(t, apperrors.IsLookup(err))
	assert.Equal(t, "failing", FailedStep(err))

	assert.True(t, first.ran)
	assert.False(t, skipped.ran)
	assert.False(t, last.ran)

	assert.Equal(t, OperationStatusFailed, resp.Status)
	assert.Equal(t, []string{"first.out", "failing.out"}, resp.Artifacts)
	assert.Equal(t, map[string]StepStatus{
		"first":    StepStatusCompleted,
		"optional": StepStatusSkipped,
		"failing":  StepStatusFailed,
		"last":     StepStatusSkipped,
	}, stepStatuses(resp))
	assert.Equal(t, "disabled", resp.Steps[1].Message)
	assert.Equal(t, "previous step failed", resp.Steps[3].Message)
	assert.Contains(t, resp.Error, "[execution] failing: step failed (LOOKUP)")
}

func TestStepState(t *testing.T) {
	s := NewStepState("ingest", StepNameIngest)
	assert.Equal(t, StepStatusPending, s.GetStatus())
	assert.Zero(t, s.Duration())

	s.Start()
	assert.Equal(t, StepStatusActive, s.GetStatus())
	time.Sleep(time.Millisecond)
	s.Complete()
	assert.Equal(t, StepStatusCompleted, s.GetStatus())
	assert.Positive(t, s.Duration())

	f := NewStepState("derive", StepNameDerive)
	f.Start()
	f.Fail(errors.New("boom"))
	assert.Equal(t, StepStatusFailed, f.GetStatus())
	assert.Equal(t, "boom", f.Message)

	f.SetMetadata("panels", 3)
	assert.Equal(t, 3, f.Metadata["panels"])
}

func TestOperationState(t *testing.T) {
	state := NewOperationState("run")
	state.AddStep(NewStepState("a", "A"))
	state.AddStep(NewStepState("b", "B"))

	assert.Nil(t, state.GetStep("c"))

	state.GetStep("a").Start()
	state.GetStep("a").Complete()
	state.GetStep("b").Skip("disabled")
	assert.Empty(t, state.GetFailedSteps())
	state.GetStep("a").Fail(errors.New("late"))
	require.Len(t, state.GetFailedSteps(), 1)
	assert.Equal(t, "a", state.GetFailedSteps()[0].ID)

	state.Start()
	state.Fail(errors.New("boom"))
	assert.Equal(t, OperationStatusFailed, state.Status)
	assert.NotNil(t, state.EndTime)
}

func TestConfigFrom(t *testing.T) {
	cfg, err := ConfigFrom(config.Default())
	require.NoError(t, err)

	assert.Len(t, cfg.Periods(), 19)
	assert.Equal(t, "2013H1", cfg.Periods()[0].String())
	assert.Equal(t, "2022H1", cfg.Periods()[18].String())
	assert.Len(t, cfg.AssetYears(), 16)
	assert.Equal(t, time.Date(1999, time.February, 1, 0, 0, 0, 0, time.UTC), cfg.GPRStart)
	assert.Equal(t, 12, cfg.GPRWindow)
	assert.Equal(t, 90.0, cfg.MutualFundUnknownThreshold)
	assert.Equal(t, 100.00132, cfg.SumOverrides["United States"])
	assert.True(t, cfg.ChartsEnabled)

	bad := config.Default()
	bad.Normalize.GPRStart = "February 1999"
	_, err = ConfigFrom(bad)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeConfig))
}

func TestConfigFromPeriodRange(t *testing.T) {
	tests := []struct {
		name    string
		first   string
		last    string
		periods int
		wantErr bool
	}{
		{name: "narrowed", first: "2020H2", last: "2022H1", periods: 4},
		{name: "single period", first: "2019H1", last: "2019H1", periods: 1},
		{name: "malformed", first: "2020", last: "2022H1", wantErr: true},
		{name: "reversed", first: "2022H1", last: "2013H1", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.Normalize.FirstPeriod = tt.first
			cfg.Normalize.LastPeriod = tt.last

			got, err := ConfigFrom(cfg)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, apperrors.IsType(err, apperrors.ErrTypeConfig))
				return
			}
			require.NoError(t, err)
			assert.Len(t, got.Periods(), tt.periods)
			assert.Equal(t, tt.first, got.Periods()[0].String())
		})
	}
}

func TestConfigFromWithoutSumOverrides(t *testing.T) {
	cfg := config.Default()
	cfg.Normalize.SumOverrides = map[string]float64{}

	got, err := ConfigFrom(cfg)
	require.NoError(t, err)
	assert.Empty(t, got.SumOverrides)
}

func TestOperationErrorFormatting(t *testing.T) {
	var nilErr *OperationError
	assert.Equal(t, "unknown operation error", nilErr.Error())
	assert.Nil(t, nilErr.Unwrap())

	err := NewCancellationError("render", context.Canceled)
	assert.Equal(t, "[cancellation] render: operation was cancelled: context canceled", err.Error())
	assert.Equal(t, ErrorType(""), GetErrorType(errors.New("plain")))
}
