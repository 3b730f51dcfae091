package coordinator

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcmexdev/nested-tictactoe/internal/coordinator/sagalog"
	sagasqlite "github.com/jcmexdev/nested-tictactoe/internal/coordinator/sagalog/sqlite"
	"github.com/jcmexdev/nested-tictactoe/internal/pkg/metrics"
	"github.com/jcmexdev/nested-tictactoe/internal/pkg/serviceerror"
)

// recorder collects calls made by test operations.
type recorder struct {
	ran         []string
	compensated []string
	inputs      []any
}

func (r *recorder) op(label string, fail error) Operation[string, string] {
	return Operation[string, string]{
		Label: label,
		Runner: func(context.Context) (string, string, error) {
			r.ran = append(r.ran, label)
			if fail != nil {
				return "", "", fail
			}
			return "out-" + label, "undo-" + label, nil
		},
		Compensation: func(_ context.Context, input string) error {
			r.compensated = append(r.compensated, label)
			r.inputs = append(r.inputs, input)
			return nil
		},
	}
}

func TestRun_Success(t *testing.T) {
	c := NewCoordinator()
	rec := &recorder{}

	ok, out := Run(context.Background(), c, rec.op("one", nil))

	assert.True(t, ok)
	assert.Equal(t, "out-one", out)
	assert.False(t, c.DidFail())
	assert.Nil(t, c.Failure())
	assert.NoError(t, c.Err())
	assert.Equal(t, 1, c.Tracked())
	assert.Empty(t, rec.compensated)
}

func TestRun_FailureAtEveryPosition(t *testing.T) {
	for _, order := range []CompensationOrder{ForwardOrder, ReverseOrder} {
		for n := 1; n <= 4; n++ {
			for k := 1; k <= n; k++ {
				t.Run(fmt.Sprintf("%s/n=%d/k=%d", order, n, k), func(t *testing.T) {
					c := NewCoordinator(WithCompensationOrder(order))
					rec := &recorder{}
					ctx := context.Background()

					for i := 1; i <= n; i++ {
						var fail error
						if i == k {
							fail = errors.New("Player already in game")
						}
						ok, _ := Run(ctx, c, rec.op(fmt.Sprint(i), fail))
						assert.Equal(t, i < k, ok, "op %d", i)
					}

					// ops after k never run
					require.Len(t, rec.ran, k)

					// ops 1..k-1 compensated exactly once, k never
					var want []string
					for i := 1; i < k; i++ {
						want = append(want, fmt.Sprint(i))
					}
					if order == ReverseOrder {
						for i, j := 0, len(want)-1; i < j; i, j = i+1, j-1 {
							want[i], want[j] = want[j], want[i]
						}
					}
					assert.Equal(t, want, rec.compensated)
					assert.True(t, c.DidFail())
				})
			}
		}
	}
}

func TestRun_ThirdOperationFailsForward(t *testing.T) {
	c := NewCoordinator(WithCompensationOrder(ForwardOrder))
	rec := &recorder{}
	ctx := context.Background()

	ok1, _ := Run(ctx, c, rec.op("create user", nil))
	ok2, _ := Run(ctx, c, rec.op("save public data", nil))
	ok3, out3 := Run(ctx, c, rec.op("join game", errors.New("Player already in game")))

	assert.True(t, ok1)
	assert.True(t, ok2)
	assert.False(t, ok3)
	assert.Equal(t, "", out3)

	require.NotNil(t, c.Failure())
	assert.Equal(t, 400, c.Failure().Code)
	assert.Equal(t, "Player already in game", c.Failure().Message)

	assert.Equal(t, []string{"create user", "save public data"}, rec.compensated)
	assert.Equal(t, []any{"undo-create user", "undo-save public data"}, rec.inputs)
}

func TestRun_DefaultOrderIsReverse(t *testing.T) {
	c := NewCoordinator()
	rec := &recorder{}
	ctx := context.Background()

	Run(ctx, c, rec.op("a", nil))
	Run(ctx, c, rec.op("b", nil))
	Run(ctx, c, rec.op("c", errors.New("boom")))

	assert.Equal(t, []string{"b", "a"}, rec.compensated)
}

func TestRun_SkipsOperationsWithoutCompensation(t *testing.T) {
	c := NewCoordinator()
	rec := &recorder{}
	ctx := context.Background()

	Run(ctx, c, Read("read", func(context.Context) (int, error) { return 7, nil }))
	Run(ctx, c, rec.op("write", nil))
	Run(ctx, c, rec.op("fail", errors.New("boom")))

	assert.Equal(t, []string{"write"}, rec.compensated)
	assert.Equal(t, 2, c.Tracked())
}

func TestRun_FailingCompensationDoesNotStopSweep(t *testing.T) {
	incidents := sagalog.NewMemoryRepository()
	m := metrics.New()
	c := NewCoordinator(WithCompensationOrder(ForwardOrder), WithIncidentLog(incidents), WithMetrics(m), WithID("saga-x"))
	rec := &recorder{}
	ctx := context.Background()

	Run(ctx, c, rec.op("first", nil))
	Run(ctx, c, Operation[string, string]{
		Label:  "broken",
		Runner: func(context.Context) (string, string, error) { return "", "in", nil },
		Compensation: func(context.Context, string) error {
			return errors.New("store unavailable")
		},
	})
	Run(ctx, c, Operation[string, string]{
		Label:  "panicky",
		Runner: func(context.Context) (string, string, error) { return "", "in", nil },
		Compensation: func(context.Context, string) error {
			panic("nil map")
		},
	})
	Run(ctx, c, rec.op("last", nil))
	Run(ctx, c, rec.op("trigger", errors.New("User with the requested ID could not be found.")))

	assert.Equal(t, []string{"first", "last"}, rec.compensated)

	// terminal error unchanged by compensation failures
	assert.Equal(t, serviceerror.KindNotFound, c.Failure().Kind())

	entries := incidents.Entries()
	require.Len(t, entries, 3)
	assert.Equal(t, sagalog.StatusFailed, entries[0].Status)
	assert.Equal(t, "trigger", entries[0].Operation)
	assert.Equal(t, "Not Found", entries[0].Classified)
	assert.Equal(t, sagalog.StatusCompensationFailed, entries[1].Status)
	assert.Equal(t, "broken", entries[1].Operation)
	assert.Equal(t, sagalog.StatusCompensationFailed, entries[2].Status)
	assert.Contains(t, entries[2].Error, "nil map")
	for _, e := range entries {
		assert.Equal(t, "saga-x", e.SagaID)
	}
}

func TestRun_SkipsAfterFailure(t *testing.T) {
	c := NewCoordinator()
	rec := &recorder{}
	ctx := context.Background()

	Run(ctx, c, rec.op("fail", errors.New("boom")))
	ok, out := Run(ctx, c, rec.op("after", nil))

	assert.False(t, ok)
	assert.Empty(t, out)
	assert.Equal(t, []string{"fail"}, rec.ran)
	assert.Equal(t, serviceerror.KindInternalServerError, c.Failure().Kind())
}

func TestRun_PanickingRunnerIsClassified(t *testing.T) {
	c := NewCoordinator()

	ok, _ := Run(context.Background(), c, Operation[int, int]{
		Label:  "panics",
		Runner: func(context.Context) (int, int, error) { panic("unexpected") },
	})

	assert.False(t, ok)
	assert.Equal(t, 500, c.Failure().Code)
}

func TestClear_BehavesLikeFreshCoordinator(t *testing.T) {
	c := NewCoordinator()
	rec := &recorder{}
	ctx := context.Background()

	Run(ctx, c, rec.op("a", nil))
	Run(ctx, c, rec.op("b", errors.New("boom")))
	require.True(t, c.DidFail())

	c.Clear()
	assert.False(t, c.DidFail())
	assert.Nil(t, c.Failure())
	assert.Equal(t, 0, c.Tracked())

	rec2 := &recorder{}
	ok, out := Run(ctx, c, rec2.op("c", nil))
	assert.True(t, ok)
	assert.Equal(t, "out-c", out)

	Run(ctx, c, rec2.op("d", errors.New("boom")))
	// only "c" is compensated, nothing from before Clear
	assert.Equal(t, []string{"c"}, rec2.compensated)
	assert.Equal(t, []string{"a"}, rec.compensated)
}

func TestAbort(t *testing.T) {
	c := NewCoordinator()
	rec := &recorder{}
	ctx := context.Background()

	Run(ctx, c, rec.op("a", nil))
	se := c.Abort(ctx, "authorise", errors.New("User (role: guests) missing scope (account)"))

	assert.Equal(t, 401, se.Code)
	assert.Equal(t, []string{"a"}, rec.compensated)

	// a second abort keeps the first terminal error and does not compensate again
	again := c.Abort(ctx, "method", errors.New("Player is not part of the game"))
	assert.Same(t, se, again)
	assert.Equal(t, []string{"a"}, rec.compensated)
}

func TestAbort_PassesServiceErrorThrough(t *testing.T) {
	c := NewCoordinator()
	se := c.Abort(context.Background(), "validate", serviceerror.BadRequest("credentials.email is required"))
	assert.Equal(t, "credentials.email is required", se.Message)
}

func TestCompensationUsesUncancelledContext(t *testing.T) {
	c := NewCoordinator()
	ctx, cancel := context.WithCancel(context.Background())

	var compensateErr error
	Run(ctx, c, Operation[int, int]{
		Label:  "write",
		Runner: func(context.Context) (int, int, error) { return 1, 1, nil },
		Compensation: func(ctx context.Context, _ int) error {
			compensateErr = ctx.Err()
			return nil
		},
	})
	cancel()
	Run(ctx, c, Operation[int, int]{
		Label:  "fail",
		Runner: func(context.Context) (int, int, error) { return 0, 0, errors.New("boom") },
	})

	assert.NoError(t, compensateErr)
}

func TestIncidentsRecordedAfterCancellation(t *testing.T) {
	repo, err := sagasqlite.Open(filepath.Join(t.TempDir(), "incidents.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	c := NewCoordinator(WithID("saga-cancelled"), WithIncidentLog(repo))
	ctx, cancel := context.WithCancel(context.Background())

	Run(ctx, c, Operation[int, int]{
		Label:        "creating user",
		Runner:       func(context.Context) (int, int, error) { return 1, 1, nil },
		Compensation: func(context.Context, int) error { return errors.New("connection refused") },
	})
	cancel()
	ok, _ := Run(ctx, c, Operation[int, int]{
		Label:  "saving user data",
		Runner: func(ctx context.Context) (int, int, error) { return 0, 0, ctx.Err() },
	})
	require.False(t, ok)

	entries, err := repo.ListBySaga(context.Background(), "saga-cancelled")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, sagalog.StatusFailed, entries[0].Status)
	assert.Equal(t, "saving user data", entries[0].Operation)
	assert.Equal(t, sagalog.StatusCompensationFailed, entries[1].Status)
	assert.Equal(t, "creating user", entries[1].Operation)
}

func TestParseCompensationOrder(t *testing.T) {
	assert.Equal(t, ForwardOrder, ParseCompensationOrder("forward"))
	assert.Equal(t, ReverseOrder, ParseCompensationOrder("reverse"))
	assert.Equal(t, ReverseOrder, ParseCompensationOrder(""))
}
