package hotkey

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var (
	saveCombo  = MustParseCombo("ctrl+alt+c")
	replyCombo = MustParseCombo("ctrl+alt+r")
	quitCombo  = MustParseCombo("esc")
)

const pressTimeout = time.Second

func startWaiting(t *testing.T, l *Listener, ctx context.Context) <-chan error {
	t.Helper()
	done := make(chan error, 1)
	go func() {
		done <- l.WaitForQuit(ctx, quitCombo)
	}()
	return done
}

func waitDone(t *testing.T, done <-chan error) error {
	t.Helper()
	select {
	case err := <-done:
		return err
	case <-time.After(2 * time.Second):
		t.Fatal("WaitForQuit did not return")
		return nil
	}
}

func TestListenerDispatchesHandlers(t *testing.T) {
	binder := NewFakeBinder()
	l := NewListener(binder.Bind, zap.NewNop())

	saves := make(chan struct{}, 10)
	replies := make(chan struct{}, 10)
	require.NoError(t, l.Register(saveCombo, func(ctx context.Context) { saves <- struct{}{} }))
	require.NoError(t, l.Register(replyCombo, func(ctx context.Context) { replies <- struct{}{} }))

	done := startWaiting(t, l, context.Background())

	require.NoError(t, binder.Press(saveCombo, pressTimeout))
	require.NoError(t, binder.Press(replyCombo, pressTimeout))
	require.NoError(t, binder.Press(replyCombo, pressTimeout))

	for i := 0; i < 2; i++ {
		select {
		case <-replies:
		case <-time.After(pressTimeout):
			t.Fatalf("reply handler call %d not observed", i+1)
		}
	}
	select {
	case <-saves:
	case <-time.After(pressTimeout):
		t.Fatal("save handler not observed")
	}

	require.NoError(t, binder.Press(quitCombo, pressTimeout))
	assert.NoError(t, waitDone(t, done))

	assert.True(t, binder.Trigger(saveCombo).Unregistered())
	assert.True(t, binder.Trigger(replyCombo).Unregistered())
	assert.True(t, binder.Trigger(quitCombo).Unregistered())
}

func TestListenerSerializesHandlers(t *testing.T) {
	binder := NewFakeBinder()
	l := NewListener(binder.Bind, zap.NewNop())

	var running, maxRunning, calls atomic.Int32
	handler := func(ctx context.Context) {
		n := running.Add(1)
		for {
			m := maxRunning.Load()
			if n <= m || maxRunning.CompareAndSwap(m, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		running.Add(-1)
		calls.Add(1)
	}
	require.NoError(t, l.Register(saveCombo, handler))
	require.NoError(t, l.Register(replyCombo, handler))

	done := startWaiting(t, l, context.Background())

	for i := 0; i < 3; i++ {
		require.NoError(t, binder.Press(saveCombo, pressTimeout))
		require.NoError(t, binder.Press(replyCombo, pressTimeout))
	}

	assert.Eventually(t, func() bool { return calls.Load() == 6 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, int32(1), maxRunning.Load())

	require.NoError(t, binder.Press(quitCombo, pressTimeout))
	assert.NoError(t, waitDone(t, done))
}

func TestListenerContextCancel(t *testing.T) {
	binder := NewFakeBinder()
	l := NewListener(binder.Bind, zap.NewNop())
	require.NoError(t, l.Register(saveCombo, func(ctx context.Context) {}))

	ctx, cancel := context.WithCancel(context.Background())
	done := startWaiting(t, l, ctx)

	require.Eventually(t, func() bool {
		q := binder.Trigger(quitCombo)
		return q != nil && q.Registered()
	}, time.Second, 5*time.Millisecond)

	cancel()
	err := waitDone(t, done)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.True(t, binder.Trigger(saveCombo).Unregistered())
}

func TestListenerRecoversFromPanickingHandler(t *testing.T) {
	binder := NewFakeBinder()
	l := NewListener(binder.Bind, zap.NewNop())

	calls := make(chan struct{}, 2)
	require.NoError(t, l.Register(saveCombo, func(ctx context.Context) {
		calls <- struct{}{}
		panic("boom")
	}))

	done := startWaiting(t, l, context.Background())

	require.NoError(t, binder.Press(saveCombo, pressTimeout))
	require.NoError(t, binder.Press(saveCombo, pressTimeout))
	assert.Eventually(t, func() bool { return len(calls) == 2 }, time.Second, 5*time.Millisecond)

	require.NoError(t, binder.Press(quitCombo, pressTimeout))
	assert.NoError(t, waitDone(t, done))
}

func TestListenerRegisterErrors(t *testing.T) {
	t.Run("duplicate combo", func(t *testing.T) {
		l := NewListener(NewFakeBinder().Bind, nil)
		require.NoError(t, l.Register(saveCombo, func(ctx context.Context) {}))
		err := l.Register(saveCombo, func(ctx context.Context) {})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "already registered")
	})

	t.Run("nil handler", func(t *testing.T) {
		l := NewListener(NewFakeBinder().Bind, nil)
		assert.Error(t, l.Register(saveCombo, nil))
	})

	t.Run("os registration failure", func(t *testing.T) {
		binder := NewFakeBinder()
		binder.RegisterErr[saveCombo] = errors.New("grabbed by another application")
		l := NewListener(binder.Bind, nil)
		err := l.Register(saveCombo, func(ctx context.Context) {})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "grabbed by another application")
	})

	t.Run("quit combo bound to a handler", func(t *testing.T) {
		l := NewListener(NewFakeBinder().Bind, nil)
		require.NoError(t, l.Register(quitCombo, func(ctx context.Context) {}))
		err := l.WaitForQuit(context.Background(), quitCombo)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "also bound")
	})

	t.Run("quit registration failure", func(t *testing.T) {
		binder := NewFakeBinder()
		binder.RegisterErr[quitCombo] = errors.New("denied")
		l := NewListener(binder.Bind, nil)
		require.NoError(t, l.Register(saveCombo, func(ctx context.Context) {}))
		err := l.WaitForQuit(context.Background(), quitCombo)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "denied")
		assert.True(t, binder.Trigger(saveCombo).Unregistered())
	})
}
