package event

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFireRunsListenersInOrder(t *testing.T) {
	Flush()
	t.Cleanup(Flush)

	var got []string
	Listen("lead.converted", func(_ context.Context, p interface{}) { got = append(got, "a:"+p.(string)) })
	Listen("lead.converted", func(_ context.Context, p interface{}) { got = append(got, "b:"+p.(string)) })
	Listen("other", func(context.Context, interface{}) { got = append(got, "other") })

	Fire(context.Background(), "lead.converted", "x")
	assert.Equal(t, []string{"a:x", "b:x"}, got)
}

func TestFireSurvivesPanickingListener(t *testing.T) {
	Flush()
	t.Cleanup(Flush)

	ran := false
	Listen("boom", func(context.Context, interface{}) { panic("listener bug") })
	Listen("boom", func(context.Context, interface{}) { ran = true })

	assert.NotPanics(t, func() { Fire(context.Background(), "boom", nil) })
	assert.True(t, ran)
}

func TestFireAsyncOutlivesCancelledContext(t *testing.T) {
	Flush()
	t.Cleanup(Flush)

	var wg sync.WaitGroup
	wg.Add(1)
	var ctxErr error
	Listen("appointment.booked", func(ctx context.Context, _ interface{}) {
		defer wg.Done()
		time.Sleep(5 * time.Millisecond)
		ctxErr = ctx.Err()
	})

	ctx, cancel := context.WithCancel(context.Background())
	FireAsync(ctx, "appointment.booked", nil)
	cancel()
	wg.Wait()

	assert.NoError(t, ctxErr)
}

func TestDrainWaitsForAsyncListeners(t *testing.T) {
	Flush()
	t.Cleanup(Flush)

	var mu sync.Mutex
	n := 0
	Listen("checkup.created", func(context.Context, interface{}) {
		time.Sleep(time.Millisecond)
		mu.Lock()
		n++
		mu.Unlock()
	})

	for i := 0; i < 50; i++ {
		FireAsync(context.Background(), "checkup.created", i)
	}
	Drain()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 50, n)
}
