package tournament

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/racetype/tourney-server/internal/challenge"
)

func TestRegistry_GetOrCreateCallsLoaderExactlyOnce(t *testing.T) {
	var calls int32
	loader := func(id string) (TournamentData, error) {
		atomic.AddInt32(&calls, 1)
		time.Sleep(20 * time.Millisecond)
		return baseData(id, time.Now().Add(time.Hour)), nil
	}
	reg := NewRegistry(loader, &fakeBroadcaster{}, challenge.NewWordListGenerator(1), RealClock, zap.NewNop())

	const n = 20
	results := make([]*Manager, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			m, err := reg.GetOrCreate("concurrent-tournament")
			require.NoError(t, err)
			results[i] = m
		}(i)
	}
	wg.Wait()

	require.EqualValues(t, 1, atomic.LoadInt32(&calls))
	for _, m := range results {
		require.Same(t, results[0], m)
	}
}

func TestRegistry_GetOrCreateReturnsCachedManagerOnSubsequentCalls(t *testing.T) {
	var calls int32
	loader := func(id string) (TournamentData, error) {
		atomic.AddInt32(&calls, 1)
		return baseData(id, time.Now().Add(time.Hour)), nil
	}
	reg := NewRegistry(loader, &fakeBroadcaster{}, challenge.NewWordListGenerator(1), RealClock, zap.NewNop())

	first, err := reg.GetOrCreate("t1")
	require.NoError(t, err)
	second, err := reg.GetOrCreate("t1")
	require.NoError(t, err)

	require.Same(t, first, second)
	require.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestRegistry_EvictDropsManagerSoNextGetOrCreateReloads(t *testing.T) {
	var calls int32
	loader := func(id string) (TournamentData, error) {
		atomic.AddInt32(&calls, 1)
		return baseData(id, time.Now().Add(time.Hour)), nil
	}
	reg := NewRegistry(loader, &fakeBroadcaster{}, challenge.NewWordListGenerator(1), RealClock, zap.NewNop())

	first, err := reg.GetOrCreate("t1")
	require.NoError(t, err)
	require.Equal(t, 1, reg.Len())

	reg.Evict("t1")
	require.Equal(t, 0, reg.Len())

	second, err := reg.GetOrCreate("t1")
	require.NoError(t, err)
	require.NotSame(t, first, second)
	require.EqualValues(t, 2, atomic.LoadInt32(&calls))
}

func TestRegistry_SchedulesEvictionAfterTournamentEnds(t *testing.T) {
	clock := newFakeClock(time.Now())
	loader := func(id string) (TournamentData, error) {
		return baseData(id, clock.Now()), nil
	}
	reg := NewRegistry(loader, &fakeBroadcaster{}, challenge.NewWordListGenerator(1), clock, zap.NewNop())

	_, err := reg.GetOrCreate("t1")
	require.NoError(t, err)
	require.Equal(t, 1, reg.Len())

	// ScheduledFor == now, zero participants: the start timer fires and
	// ends the tournament immediately, which schedules eviction.
	clock.Advance(0)
	require.Equal(t, 1, reg.Len())

	clock.Advance(EvictionGrace)
	require.Equal(t, 0, reg.Len())
}
