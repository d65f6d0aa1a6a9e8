package throttle

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	nativebridge "github.com/wippyai/native-bridge"
	"github.com/wippyai/native-bridge/queue/queuetest"
)

func TestThrottle_BurstDeliversLeadingAndTrailing(t *testing.T) {
	sched := queuetest.NewManual()
	var got []any
	th := New(sched, 16*time.Millisecond, func(p any) { got = append(got, p) })

	for i := 0; i < 100; i++ {
		th.Call(i)
		sched.Advance(100 * time.Microsecond)
	}
	if diff := cmp.Diff([]any{0}, got); diff != "" {
		t.Fatalf("before interval (-want +got):\n%s", diff)
	}
	if !th.Pending() {
		t.Fatal("expected a trailing delivery to be scheduled")
	}

	sched.Advance(16 * time.Millisecond)
	if diff := cmp.Diff([]any{0, 99}, got); diff != "" {
		t.Errorf("deliveries (-want +got):\n%s", diff)
	}
	calls, sent := th.Stats()
	if calls != 100 || sent != 2 {
		t.Errorf("Stats = %d, %d; want 100, 2", calls, sent)
	}
}

func TestThrottle_TrailingFiresOneIntervalAfterLeading(t *testing.T) {
	sched := queuetest.NewManual()
	var at []time.Duration
	start := sched.Now()
	th := New(sched, 16*time.Millisecond, func(any) { at = append(at, sched.Now().Sub(start)) })

	th.Call("a")
	sched.Advance(5 * time.Millisecond)
	th.Call("b")
	sched.Advance(20 * time.Millisecond)

	if diff := cmp.Diff([]time.Duration{0, 16 * time.Millisecond}, at); diff != "" {
		t.Errorf("delivery times (-want +got):\n%s", diff)
	}
}

func TestThrottle_SpacedCallsAllLead(t *testing.T) {
	sched := queuetest.NewManual()
	var got []any
	th := New(sched, 16*time.Millisecond, func(p any) { got = append(got, p) })

	for i := 0; i < 3; i++ {
		th.Call(i)
		sched.Advance(20 * time.Millisecond)
	}
	if diff := cmp.Diff([]any{0, 1, 2}, got); diff != "" {
		t.Errorf("deliveries (-want +got):\n%s", diff)
	}
	if sched.Pending() != 0 {
		t.Errorf("no timers expected, got %d", sched.Pending())
	}
}

func TestThrottle_Cancel(t *testing.T) {
	sched := queuetest.NewManual()
	var got []any
	th := New(sched, 16*time.Millisecond, func(p any) { got = append(got, p) })

	th.Call(1)
	th.Call(2)
	th.Cancel()
	sched.Advance(time.Second)

	if diff := cmp.Diff([]any{1}, got); diff != "" {
		t.Errorf("deliveries (-want +got):\n%s", diff)
	}
	if th.Pending() {
		t.Error("cancelled throttle should have nothing pending")
	}
}

func TestThrottle_DefaultInterval(t *testing.T) {
	th := New(queuetest.NewManual(), 0, func(any) {})
	if th.interval != DefaultInterval {
		t.Errorf("interval = %v, want %v", th.interval, DefaultInterval)
	}
}

func TestGroup(t *testing.T) {
	sched := queuetest.NewManual()
	type delivery struct {
		Key     nativebridge.HandlerKey
		Payload any
	}
	var got []delivery
	g := NewGroup(sched, 16*time.Millisecond, []string{"scroll"}, func(k nativebridge.HandlerKey, p any) {
		got = append(got, delivery{k, p})
	})

	scrollA := nativebridge.HandlerKey{Node: 1, Event: "scroll"}
	scrollB := nativebridge.HandlerKey{Node: 2, Event: "scroll"}
	press := nativebridge.HandlerKey{Node: 1, Event: "press"}

	g.Call(scrollA, 1)
	g.Call(scrollA, 2)
	g.Call(scrollB, 10)
	g.Call(press, "p1")
	g.Call(press, "p2")
	g.Call(scrollA, 3)
	sched.Advance(16 * time.Millisecond)

	want := []delivery{
		{scrollA, 1},
		{scrollB, 10},
		{press, "p1"},
		{press, "p2"},
		{scrollA, 3},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("deliveries (-want +got):\n%s", diff)
	}
	if g.Len() != 2 {
		t.Errorf("Len = %d, want 2", g.Len())
	}

	sched.Advance(time.Second)
	got = nil
	g.Call(scrollA, 4)
	g.Call(scrollA, 5)
	g.Call(scrollB, 11)
	g.Call(scrollB, 12)
	g.RemoveNode(1, []string{"scroll", "press"})
	sched.Advance(16 * time.Millisecond)
	if diff := cmp.Diff([]delivery{{scrollA, 4}, {scrollB, 11}, {scrollB, 12}}, got); diff != "" {
		t.Errorf("after RemoveNode (-want +got):\n%s", diff)
	}

	sched.Advance(time.Second)
	got = nil
	g.Call(scrollB, 13)
	g.Call(scrollB, 14)
	g.CancelAll()
	sched.Advance(time.Second)
	if diff := cmp.Diff([]delivery{{scrollB, 13}}, got); diff != "" {
		t.Errorf("after CancelAll (-want +got):\n%s", diff)
	}
	if g.Len() != 0 {
		t.Errorf("Len = %d after CancelAll", g.Len())
	}
}
