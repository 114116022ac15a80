package promise_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	promise "github.com/lazygraph/lazygraph/internal/promise"
)

func TestFulfillSettlesOnce(t *testing.T) {
	a := promise.NewAdapter()
	f := a.Pending()
	require.Equal(t, promise.Pending, f.State())
	require.False(t, f.IsSettled())

	require.True(t, f.Fulfill("first"))
	require.Equal(t, promise.Fulfilled, f.State())

	require.False(t, f.Fulfill("second"))
	require.False(t, f.Reject(errors.New("late")))

	v, err := f.Result()
	require.NoError(t, err)
	require.Equal(t, "first", v)
}

func TestRejectSettlesOnce(t *testing.T) {
	a := promise.NewAdapter()
	f := a.Pending()
	boom := errors.New("boom")

	require.True(t, f.Reject(boom))
	require.Equal(t, promise.Rejected, f.State())
	require.False(t, f.Reject(errors.New("other")))
	require.False(t, f.Fulfill("late"))

	_, err := f.Result()
	require.Same(t, boom, err)
}

func TestStateString(t *testing.T) {
	require.Equal(t, "PENDING", promise.Pending.String())
	require.Equal(t, "FULFILLED", promise.Fulfilled.String())
	require.Equal(t, "REJECTED", promise.Rejected.String())
}

func TestReactionsRunInRegistrationOrder(t *testing.T) {
	a := promise.NewAdapter()
	f := a.Pending()

	var order []int
	for i := 1; i <= 3; i++ {
		i := i
		a.Then(f, func(value any) (any, error) {
			order = append(order, i)
			return nil, nil
		}, nil)
	}

	require.True(t, f.Fulfill("go"))
	require.Empty(t, order, "reactions must not run inline on settlement")

	a.Drain()
	require.Equal(t, []int{1, 2, 3}, order)
}

func TestRegistrationAfterSettlementStillQueued(t *testing.T) {
	a := promise.NewAdapter()
	f := a.Resolved(7)

	ran := false
	next := a.Then(f, func(value any) (any, error) {
		ran = true
		return value.(int) * 2, nil
	}, nil)
	require.False(t, ran, "handler must wait for the drain loop even on settled futures")
	require.Equal(t, promise.Pending, next.State())

	v, err := next.Wait()
	require.NoError(t, err)
	require.Equal(t, 14, v)
	require.True(t, ran)
}

func TestNilHandlersPassThrough(t *testing.T) {
	a := promise.NewAdapter()

	next := a.Then(a.Resolved("v"), nil, nil)
	v, err := next.Wait()
	require.NoError(t, err)
	require.Equal(t, "v", v)

	boom := errors.New("boom")
	next = a.Then(a.Rejected(boom), nil, nil)
	_, err = next.Wait()
	require.Same(t, boom, err)
}

func TestHandlerErrorRejectsDownstream(t *testing.T) {
	a := promise.NewAdapter()
	boom := errors.New("boom")

	next := a.Then(a.Resolved(1), func(value any) (any, error) {
		return nil, boom
	}, nil)
	_, err := next.Wait()
	require.Same(t, boom, err)
}

func TestOnRejectedRecovers(t *testing.T) {
	a := promise.NewAdapter()

	next := a.Then(a.Rejected(errors.New("boom")), nil, func(err error) (any, error) {
		return "recovered", nil
	})
	v, err := next.Wait()
	require.NoError(t, err)
	require.Equal(t, "recovered", v)
}

func TestOnFulfilledNotCalledOnRejection(t *testing.T) {
	a := promise.NewAdapter()

	called := false
	next := a.Then(a.Rejected(errors.New("boom")), func(value any) (any, error) {
		called = true
		return nil, nil
	}, func(err error) (any, error) {
		return nil, err
	})
	_, err := next.Wait()
	require.Error(t, err)
	require.False(t, called)
}

func TestHandlerReturningFutureIsAdopted(t *testing.T) {
	a := promise.NewAdapter()
	inner := a.Pending()

	next := a.Then(a.Resolved(nil), func(value any) (any, error) {
		return inner, nil
	}, nil)

	require.True(t, inner.Fulfill("deep"))
	v, err := next.Wait()
	require.NoError(t, err)
	require.Equal(t, "deep", v, "adoption must surface the inner value, not the Future")
}

func TestAdoptionChainsFlattenLevelByLevel(t *testing.T) {
	a := promise.NewAdapter()
	innermost := a.Resolved("bottom")

	mid := a.Then(a.Resolved(nil), func(value any) (any, error) {
		return innermost, nil
	}, nil)
	top := a.Then(a.Resolved(nil), func(value any) (any, error) {
		return mid, nil
	}, nil)

	v, err := top.Wait()
	require.NoError(t, err)
	require.Equal(t, "bottom", v)
}

func TestAdoptingFutureRejectsDirectSettlement(t *testing.T) {
	a := promise.NewAdapter()
	inner := a.Pending()

	next := a.Then(a.Resolved(nil), func(value any) (any, error) {
		return inner, nil
	}, nil)
	a.Drain() // runs the handler; next now adopts inner

	require.False(t, next.Fulfill("intruder"))
	require.False(t, next.Reject(errors.New("intruder")))

	require.True(t, inner.Fulfill("legit"))
	v, err := next.Wait()
	require.NoError(t, err)
	require.Equal(t, "legit", v)
}

func TestSelfResolutionRejects(t *testing.T) {
	a := promise.NewAdapter()

	var next *promise.Future
	next = a.Then(a.Resolved(nil), func(value any) (any, error) {
		return next, nil
	}, nil)

	_, err := next.Wait()
	require.Error(t, err)
	require.Contains(t, err.Error(), "resolved with itself")
}

func TestThenCallbacksFireOnce(t *testing.T) {
	a := promise.NewAdapter()
	f := a.Pending()

	fulfilled, rejected := 0, 0
	f.Then(func(value any) { fulfilled++ }, func(err error) { rejected++ })

	require.True(t, f.Fulfill("v"))
	a.Drain()
	require.Equal(t, 1, fulfilled)
	require.Equal(t, 0, rejected)
}
