package ratelimit

import "testing"

func TestAllowBurstThenBlock(t *testing.T) {
	l := New()
	for i := 0; i < 3; i++ {
		if !l.Allow("t1", 3, 0) {
			t.Fatalf("burst request %d denied", i)
		}
	}
	if l.Allow("t1", 3, 0) {
		t.Fatalf("request beyond burst allowed")
	}
}

func TestAllowKeysAreIndependent(t *testing.T) {
	l := New()
	for i := 0; i < 3; i++ {
		l.Allow("t1", 3, 0)
	}
	if !l.Allow("t2", 3, 0) {
		t.Fatalf("t2 starved by t1's bucket")
	}
}
