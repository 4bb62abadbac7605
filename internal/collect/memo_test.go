package collect

import (
	"testing"
	"time"
)

func TestMemoRoundTrip(t *testing.T) {
	m := NewMemo()
	if _, ok := m.Get("missing"); ok {
		t.Fatalf("unexpected hit")
	}

	m.Set("k", 42, time.Minute)
	v, ok := m.Get("k")
	if !ok || v.(int) != 42 {
		t.Fatalf("unexpected value %v ok=%v", v, ok)
	}
}

func TestMemoExpiry(t *testing.T) {
	m := NewMemo()
	m.Set("k", "v", 10*time.Millisecond)
	time.Sleep(30 * time.Millisecond)
	if _, ok := m.Get("k"); ok {
		t.Fatalf("entry should have expired")
	}
}

func TestMemoZeroTTLNeverExpires(t *testing.T) {
	m := NewMemo()
	m.Set("k", "v", 0)
	time.Sleep(20 * time.Millisecond)
	if _, ok := m.Get("k"); !ok {
		t.Fatalf("zero ttl entry expired")
	}
}

func TestLimiterConsumesCapacity(t *testing.T) {
	l := NewLimiter()
	for i := 0; i < 3; i++ {
		if !l.Allow("k", 3, 0.001) {
			t.Fatalf("call %d should be allowed", i)
		}
	}
	if l.Allow("k", 3, 0.001) {
		t.Fatalf("bucket should be empty")
	}
}

func TestLimiterRefills(t *testing.T) {
	l := NewLimiter()
	if !l.Allow("k", 1, 50) {
		t.Fatalf("first call should be allowed")
	}
	if l.Allow("k", 1, 50) {
		t.Fatalf("bucket should be empty immediately")
	}
	time.Sleep(50 * time.Millisecond) // 50/s refills ~2.5 tokens, capped at 1
	if !l.Allow("k", 1, 50) {
		t.Fatalf("bucket should have refilled")
	}
}

func TestLimiterKeysAreIndependent(t *testing.T) {
	l := NewLimiter()
	if !l.Allow("a", 1, 0.001) {
		t.Fatalf("first key should be allowed")
	}
	if !l.Allow("b", 1, 0.001) {
		t.Fatalf("second key should have its own bucket")
	}
}

func TestLimiterWaitDeadline(t *testing.T) {
	l := NewLimiter()
	l.Allow("k", 1, 0.001)
	if l.Wait("k", 1, 0.001, time.Now().Add(60*time.Millisecond)) {
		t.Fatalf("wait should time out on a drained slow bucket")
	}
	if !l.Wait("fresh", 1, 0.001, time.Now().Add(time.Second)) {
		t.Fatalf("fresh bucket should be immediate")
	}
}
