package saga

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testContext записывает порядок вызовов прямых действий и компенсаций
type testContext struct {
	*Context
	calls []string
}

func newTestContext() *testContext {
	return &testContext{Context: NewContext()}
}

func okStep(name string) Step[*testContext] {
	return Step[*testContext]{
		Name: name,
		Execute: func(_ context.Context, sc *testContext) StepResult {
			sc.calls = append(sc.calls, "execute:"+name)
			return StepSucceeded("data:"+name, nil)
		},
		Compensate: func(_ context.Context, sc *testContext) error {
			sc.calls = append(sc.calls, "compensate:"+name)
			return nil
		},
	}
}

func mustOrchestrator(t *testing.T, steps []Step[*testContext]) *Orchestrator[*testContext] {
	t.Helper()
	orch, err := NewOrchestrator(steps, nil)
	require.NoError(t, err)
	return orch
}

func TestOrchestratorExecutesStepsInOrder(t *testing.T) {
	orch := mustOrchestrator(t, []Step[*testContext]{okStep("first"), okStep("second"), okStep("third")})
	sc := newTestContext()

	result := orch.Execute(context.Background(), sc)

	require.Equal(t, StatusSuccess, result.Status)
	assert.True(t, result.IsSuccess())
	assert.Equal(t, "data:third", result.Data)
	assert.Equal(t, []string{"execute:first", "execute:second", "execute:third"}, sc.calls)
	assert.Equal(t, []string{"first", "second", "third"}, sc.CompletedSteps())
	assert.Empty(t, sc.StepsToCompensate())
}

func TestOrchestratorCompensatesInReverseOrder(t *testing.T) {
	failing := Step[*testContext]{
		Name: "third",
		Execute: func(_ context.Context, sc *testContext) StepResult {
			sc.calls = append(sc.calls, "execute:third")
			return StepFailed("внешний сервис недоступен")
		},
		Compensate: func(_ context.Context, sc *testContext) error {
			sc.calls = append(sc.calls, "compensate:third")
			return nil
		},
	}
	orch := mustOrchestrator(t, []Step[*testContext]{okStep("first"), okStep("second"), failing, okStep("fourth")})
	sc := newTestContext()

	result := orch.Execute(context.Background(), sc)

	require.Equal(t, StatusFailed, result.Status)
	assert.Equal(t, "third", result.FailedStep)
	assert.Equal(t, "внешний сервис недоступен", result.Reason)
	assert.True(t, result.WasCompensated)

	// Четвертый шаг не запускался, неудавшийся шаг не компенсировался,
	// выполненные шаги откатились в обратном порядке
	assert.Equal(t, []string{
		"execute:first", "execute:second", "execute:third",
		"compensate:second", "compensate:first",
	}, sc.calls)
	assert.Equal(t, []string{"second", "first"}, sc.CompensatedSteps())
}

func TestOrchestratorCompensatesPartiallyAppliedStepFirst(t *testing.T) {
	partial := Step[*testContext]{
		Name: "second",
		Execute: func(_ context.Context, sc *testContext) StepResult {
			sc.calls = append(sc.calls, "execute:second")
			return StepFailedWithCompensation("часть позиций не прошла", []string{"side-effect"})
		},
		Compensate: func(_ context.Context, sc *testContext) error {
			sc.calls = append(sc.calls, "compensate:second")
			data, ok := sc.CompensationData("second")
			assert.True(t, ok)
			assert.Equal(t, []string{"side-effect"}, data)
			return nil
		},
	}
	orch := mustOrchestrator(t, []Step[*testContext]{okStep("first"), partial})
	sc := newTestContext()

	result := orch.Execute(context.Background(), sc)

	require.Equal(t, StatusFailed, result.Status)
	assert.True(t, result.WasCompensated)

	// Частично примененный шаг откатывается раньше выполненных шагов,
	// но выполненным не считается
	assert.Equal(t, []string{
		"execute:first", "execute:second",
		"compensate:second", "compensate:first",
	}, sc.calls)
	assert.Equal(t, []string{"first"}, sc.CompletedSteps())
}

func TestOrchestratorStopsAtFirstCompensationFailure(t *testing.T) {
	badCompensation := Step[*testContext]{
		Name: "second",
		Execute: func(_ context.Context, sc *testContext) StepResult {
			sc.calls = append(sc.calls, "execute:second")
			return StepSucceeded(nil, nil)
		},
		Compensate: func(_ context.Context, sc *testContext) error {
			sc.calls = append(sc.calls, "compensate:second")
			return assert.AnError
		},
	}
	failing := Step[*testContext]{
		Name: "third",
		Execute: func(_ context.Context, sc *testContext) StepResult {
			sc.calls = append(sc.calls, "execute:third")
			return StepFailed("сбой")
		},
	}
	orch := mustOrchestrator(t, []Step[*testContext]{okStep("first"), badCompensation, failing})
	sc := newTestContext()

	result := orch.Execute(context.Background(), sc)

	require.Equal(t, StatusCompensationFailed, result.Status)
	assert.Equal(t, "second", result.FailedStep)
	assert.Equal(t, "сбой", result.Reason)
	assert.False(t, result.WasCompensated)
	assert.NotEmpty(t, result.CompensationError)

	// Откат остановился: первый шаг остался нетронутым
	assert.Equal(t, []string{
		"execute:first", "execute:second", "execute:third",
		"compensate:second",
	}, sc.calls)
	assert.NotContains(t, sc.calls, "compensate:first")
}

func TestOrchestratorRecoversFromStepPanic(t *testing.T) {
	panicking := Step[*testContext]{
		Name: "second",
		Execute: func(_ context.Context, sc *testContext) StepResult {
			sc.calls = append(sc.calls, "execute:second")
			panic("что-то пошло не так")
		},
	}
	orch := mustOrchestrator(t, []Step[*testContext]{okStep("first"), panicking})
	sc := newTestContext()

	var result Result
	require.NotPanics(t, func() {
		result = orch.Execute(context.Background(), sc)
	})

	require.Equal(t, StatusFailed, result.Status)
	assert.Equal(t, "second", result.FailedStep)
	assert.Contains(t, result.Reason, "что-то пошло не так")
	assert.True(t, result.WasCompensated)
	assert.Contains(t, sc.calls, "compensate:first")
}

func TestOrchestratorRecoversFromCompensationPanic(t *testing.T) {
	badCompensation := Step[*testContext]{
		Name: "first",
		Execute: func(_ context.Context, sc *testContext) StepResult {
			return StepSucceeded(nil, nil)
		},
		Compensate: func(_ context.Context, sc *testContext) error {
			panic("паника в компенсации")
		},
	}
	failing := Step[*testContext]{
		Name: "second",
		Execute: func(_ context.Context, sc *testContext) StepResult {
			return StepFailed("сбой")
		},
	}
	orch := mustOrchestrator(t, []Step[*testContext]{badCompensation, failing})
	sc := newTestContext()

	var result Result
	require.NotPanics(t, func() {
		result = orch.Execute(context.Background(), sc)
	})

	require.Equal(t, StatusCompensationFailed, result.Status)
	assert.Equal(t, "first", result.FailedStep)
	assert.Contains(t, result.CompensationError, "паника")
}

func TestOrchestratorSkipsNilCompensation(t *testing.T) {
	noCompensation := Step[*testContext]{
		Name: "first",
		Execute: func(_ context.Context, sc *testContext) StepResult {
			sc.calls = append(sc.calls, "execute:first")
			return StepSucceeded(nil, nil)
		},
	}
	failing := Step[*testContext]{
		Name: "second",
		Execute: func(_ context.Context, sc *testContext) StepResult {
			return StepFailed("сбой")
		},
	}
	orch := mustOrchestrator(t, []Step[*testContext]{noCompensation, failing})
	sc := newTestContext()

	result := orch.Execute(context.Background(), sc)

	require.Equal(t, StatusFailed, result.Status)
	assert.True(t, result.WasCompensated)
	assert.Equal(t, []string{"first"}, sc.CompensatedSteps())
}

func TestNewOrchestratorValidatesSteps(t *testing.T) {
	_, err := NewOrchestrator[*testContext](nil, nil)
	assert.Error(t, err)

	_, err = NewOrchestrator([]Step[*testContext]{{Name: "", Execute: okStep("x").Execute}}, nil)
	assert.Error(t, err)

	_, err = NewOrchestrator([]Step[*testContext]{{Name: "first"}}, nil)
	assert.Error(t, err)

	_, err = NewOrchestrator([]Step[*testContext]{okStep("first"), okStep("first")}, nil)
	assert.Error(t, err)
}
