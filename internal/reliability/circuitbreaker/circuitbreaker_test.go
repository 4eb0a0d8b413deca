package circuitbreaker

import (
	"testing"
	"time"
)

func TestTripsAfterThreshold(t *testing.T) {
	cb := New(3, 1, time.Minute)

	for i := 0; i < 3; i++ {
		if !cb.AllowRequest() {
			t.Fatalf("request %d should be allowed while closed", i+1)
		}
		cb.RecordFailure()
	}

	if cb.GetState() != StateOpen {
		t.Fatalf("expected open state, got %v", cb.GetState())
	}
	if cb.AllowRequest() {
		t.Fatal("open circuit must fast-fail")
	}
}

func TestHalfOpenProbeAndRecovery(t *testing.T) {
	cb := New(1, 2, 10*time.Millisecond)

	cb.RecordFailure()
	if cb.GetState() != StateOpen {
		t.Fatal("expected open after threshold of one")
	}

	time.Sleep(20 * time.Millisecond)
	if !cb.AllowRequest() {
		t.Fatal("probe should be allowed after timeout")
	}
	if cb.GetState() != StateHalfOpen {
		t.Fatalf("expected half-open, got %v", cb.GetState())
	}

	cb.RecordSuccess()
	cb.RecordSuccess()
	if cb.GetState() != StateClosed {
		t.Fatalf("expected closed after successes, got %v", cb.GetState())
	}
}

func TestHalfOpenFailureReopens(t *testing.T) {
	cb := New(1, 1, 10*time.Millisecond)
	cb.RecordFailure()
	time.Sleep(20 * time.Millisecond)
	cb.AllowRequest()
	cb.RecordFailure()
	if cb.GetState() != StateOpen {
		t.Fatalf("expected reopen on half-open failure, got %v", cb.GetState())
	}
}
