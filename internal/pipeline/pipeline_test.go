package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type trail struct {
	steps []string
	skip  bool
}

func step(name string, policy Policy, err error) Stage[trail] {
	return Stage[trail]{
		Name:   name,
		Policy: policy,
		Run: func(_ context.Context, s *trail) error {
			s.steps = append(s.steps, name)
			return err
		},
	}
}

func TestRun(t *testing.T) {
	t.Run("runs every stage in order", func(t *testing.T) {
		var s trail

		report, err := Run(context.Background(), &s,
			step("a", MustSucceed, nil),
			step("b", BestEffort, nil),
			step("c", MustSucceed, nil),
		)

		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b", "c"}, s.steps)
		assert.Len(t, report.Stages, 3)
		assert.Empty(t, report.Failures())
	})

	t.Run("must succeed failure stops the run", func(t *testing.T) {
		var s trail
		boom := errors.New("boom")

		report, err := Run(context.Background(), &s,
			step("create", MustSucceed, boom),
			step("cleanup", BestEffort, nil),
		)

		var stageErr *StageError
		require.ErrorAs(t, err, &stageErr)
		assert.Equal(t, "create", stageErr.Stage)
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, []string{"create"}, s.steps)
		assert.False(t, report.Ran("cleanup"))
	})

	t.Run("best effort failure is recorded and the run continues", func(t *testing.T) {
		var s trail
		boom := errors.New("boom")

		report, err := Run(context.Background(), &s,
			step("create", MustSucceed, nil),
			step("cleanup", BestEffort, boom),
			step("branch", MustSucceed, nil),
		)

		require.NoError(t, err)
		assert.Equal(t, []string{"create", "cleanup", "branch"}, s.steps)
		failures := report.Failures()
		require.Len(t, failures, 1)
		assert.Equal(t, "cleanup", failures[0].Name)
	})

	t.Run("when skips a stage", func(t *testing.T) {
		s := trail{skip: true}
		gated := step("payment", BestEffort, nil)
		gated.When = func(s *trail) bool { return !s.skip }

		report, err := Run(context.Background(), &s, step("a", MustSucceed, nil), gated)

		require.NoError(t, err)
		assert.Equal(t, []string{"a"}, s.steps)
		assert.False(t, report.Ran("payment"))
		assert.True(t, report.Stages[1].Skipped)
	})

	t.Run("cancelled context stops before a must succeed stage", func(t *testing.T) {
		var s trail
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := Run(ctx, &s, step("create", MustSucceed, nil))

		assert.ErrorIs(t, err, context.Canceled)
		assert.Empty(t, s.steps)
	})
}
