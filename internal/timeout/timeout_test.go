package timeout

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMonitor_TouchBeforeDeadlinePreventsTimeout(t *testing.T) {
	var fired int32
	m := New(func() { atomic.AddInt32(&fired, 1) }, nil)
	m.Arm(80 * time.Millisecond)

	for i := 0; i < 5; i++ {
		time.Sleep(30 * time.Millisecond)
		require.True(t, m.Touch())
	}

	require.Zero(t, atomic.LoadInt32(&fired))
	require.Equal(t, Armed, m.CurrentState())
}

func TestMonitor_FiresExactlyOnceAfterGap(t *testing.T) {
	var fired int32
	m := New(func() { atomic.AddInt32(&fired, 1) }, nil)
	m.Arm(30 * time.Millisecond)

	time.Sleep(150 * time.Millisecond)

	require.Equal(t, int32(1), atomic.LoadInt32(&fired))
	require.Equal(t, TimedOut, m.CurrentState())

	require.False(t, m.Touch())
	time.Sleep(80 * time.Millisecond)
	require.Equal(t, int32(1), atomic.LoadInt32(&fired), "onTimeout must run at most once per arm cycle")
}

func TestMonitor_CallAfterTimeoutRunsAfterTimeoutInstead(t *testing.T) {
	var taskRan, afterRan int32
	m := New(func() {}, func() { atomic.AddInt32(&afterRan, 1) })
	m.Arm(10 * time.Millisecond)
	time.Sleep(60 * time.Millisecond)
	require.Equal(t, TimedOut, m.CurrentState())

	m.Call(func() { atomic.AddInt32(&taskRan, 1) })

	require.Zero(t, atomic.LoadInt32(&taskRan))
	require.Equal(t, int32(1), atomic.LoadInt32(&afterRan))
	require.Equal(t, TimedOut, m.CurrentState())
}

func TestMonitor_CallWhileArmedRunsTaskThenTouches(t *testing.T) {
	var fired int32
	m := New(func() { atomic.AddInt32(&fired, 1) }, nil)
	m.Arm(60 * time.Millisecond)

	for i := 0; i < 3; i++ {
		time.Sleep(30 * time.Millisecond)
		m.Call(func() {})
	}

	require.Zero(t, atomic.LoadInt32(&fired))
}

func TestMonitor_DisarmCancelsPendingTimeout(t *testing.T) {
	var fired int32
	m := New(func() { atomic.AddInt32(&fired, 1) }, nil)
	m.Arm(20 * time.Millisecond)
	m.Disarm()

	time.Sleep(80 * time.Millisecond)
	require.Zero(t, atomic.LoadInt32(&fired))
	require.Equal(t, Idle, m.CurrentState())
}

func TestMonitor_RearmAfterTimeoutStartsFreshCycle(t *testing.T) {
	var fired int32
	m := New(func() { atomic.AddInt32(&fired, 1) }, nil)
	m.Arm(20 * time.Millisecond)
	time.Sleep(60 * time.Millisecond)
	require.Equal(t, int32(1), atomic.LoadInt32(&fired))

	m.Arm(20 * time.Millisecond)
	require.Equal(t, Armed, m.CurrentState())
	time.Sleep(60 * time.Millisecond)
	require.Equal(t, int32(2), atomic.LoadInt32(&fired))
}
