package supervisor

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/codebreak-go/internal/testutil"
)

// Short real-time intervals keep these tests fast without mocking time
const testInterval = 2 * time.Millisecond

type recorder struct {
	mu      sync.Mutex
	ticks   []int
	expired bool
	done    chan struct{}
}

func newRecorder() *recorder {
	return &recorder{done: make(chan struct{})}
}

func (r *recorder) onTick(remaining int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ticks = append(r.ticks, remaining)
}

func (r *recorder) onExpire() {
	r.mu.Lock()
	r.expired = true
	r.mu.Unlock()
	close(r.done)
}

func (r *recorder) snapshot() ([]int, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int(nil), r.ticks...), r.expired
}

func TestCountdownTicksDownAndExpires(t *testing.T) {
	s := New(testInterval, testutil.NopLogger())
	defer s.Stop()

	rec := newRecorder()
	s.Start("token-1", 4, rec.onTick, rec.onExpire)

	select {
	case <-rec.done:
	case <-time.After(time.Second):
		t.Fatal("countdown did not expire")
	}

	ticks, expired := rec.snapshot()
	assert.Equal(t, []int{3, 2, 1}, ticks)
	assert.True(t, expired)
	assert.False(t, s.Active("token-1"))
}

func TestCancelStopsCountdown(t *testing.T) {
	s := New(testInterval, testutil.NopLogger())
	defer s.Stop()

	rec := newRecorder()
	s.Start("token-1", 1000, rec.onTick, rec.onExpire)
	require.True(t, s.Active("token-1"))

	s.Cancel("token-1")
	assert.False(t, s.Active("token-1"))

	// Give a cancelled countdown time to misbehave if it were going to
	time.Sleep(20 * testInterval)
	_, expired := rec.snapshot()
	assert.False(t, expired)
}

func TestCancelUnknownTokenIsNoop(t *testing.T) {
	s := New(testInterval, testutil.NopLogger())
	defer s.Stop()
	s.Cancel("never-started")
}

func TestStartSupersedesPriorCountdown(t *testing.T) {
	s := New(testInterval, testutil.NopLogger())
	defer s.Stop()

	first := newRecorder()
	s.Start("token-1", 1000, first.onTick, first.onExpire)

	second := newRecorder()
	s.Start("token-1", 3, second.onTick, second.onExpire)

	select {
	case <-second.done:
	case <-time.After(time.Second):
		t.Fatal("superseding countdown did not expire")
	}

	_, firstExpired := first.snapshot()
	assert.False(t, firstExpired)
	assert.False(t, s.Active("token-1"))
}

func TestStopCancelsEverything(t *testing.T) {
	s := New(testInterval, testutil.NopLogger())

	recs := []*recorder{newRecorder(), newRecorder(), newRecorder()}
	s.Start("a", 1000, recs[0].onTick, recs[0].onExpire)
	s.Start("b", 1000, recs[1].onTick, recs[1].onExpire)
	s.Start("c", 1000, recs[2].onTick, recs[2].onExpire)

	s.Stop()

	for _, rec := range recs {
		_, expired := rec.snapshot()
		assert.False(t, expired)
	}
}
