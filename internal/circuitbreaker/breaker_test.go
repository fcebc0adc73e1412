package circuitbreaker

import (
	"testing"
	"time"
)

func TestClosedByDefault(t *testing.T) {
	b := New(3, time.Minute)
	if !b.Allow("directory") {
		t.Error("new breaker must allow requests")
	}
	if b.State("directory") != StateClosed {
		t.Errorf("state = %v, want closed", b.State("directory"))
	}
}

func TestTripsAfterThreshold(t *testing.T) {
	b := New(3, time.Minute)

	b.RecordFailure("directory")
	b.RecordFailure("directory")
	if !b.Allow("directory") {
		t.Error("below threshold, must still allow")
	}

	b.RecordFailure("directory")
	if b.Allow("directory") {
		t.Error("at threshold, must reject")
	}
	if b.State("directory") != StateOpen {
		t.Errorf("state = %v, want open", b.State("directory"))
	}
}

func TestKeysAreIndependent(t *testing.T) {
	b := New(1, time.Minute)

	b.RecordFailure("directory")
	if b.Allow("directory") {
		t.Error("tripped key must reject")
	}
	if !b.Allow("toml") {
		t.Error("other keys are unaffected")
	}
}

func TestSuccessResetsFailureCount(t *testing.T) {
	b := New(3, time.Minute)

	b.RecordFailure("directory")
	b.RecordFailure("directory")
	b.RecordSuccess("directory")
	b.RecordFailure("directory")
	b.RecordFailure("directory")

	if !b.Allow("directory") {
		t.Error("failure count must reset on success")
	}
}

func TestHalfOpenProbe(t *testing.T) {
	b := New(1, 10*time.Millisecond)

	b.RecordFailure("directory")
	if b.Allow("directory") {
		t.Fatal("must be open after trip")
	}

	time.Sleep(15 * time.Millisecond)

	if !b.Allow("directory") {
		t.Fatal("must admit one probe after openDuration")
	}
	if b.State("directory") != StateHalfOpen {
		t.Errorf("state = %v, want half_open", b.State("directory"))
	}
	if b.Allow("directory") {
		t.Error("second request during probe must be rejected")
	}
}

func TestProbeSuccessCloses(t *testing.T) {
	b := New(1, 10*time.Millisecond)

	b.RecordFailure("directory")
	time.Sleep(15 * time.Millisecond)
	if !b.Allow("directory") {
		t.Fatal("probe not admitted")
	}

	b.RecordSuccess("directory")
	if b.State("directory") != StateClosed {
		t.Errorf("state = %v, want closed after probe success", b.State("directory"))
	}
	if !b.Allow("directory") {
		t.Error("closed circuit must allow")
	}
}

func TestProbeFailureReopens(t *testing.T) {
	b := New(1, 10*time.Millisecond)

	b.RecordFailure("directory")
	time.Sleep(15 * time.Millisecond)
	if !b.Allow("directory") {
		t.Fatal("probe not admitted")
	}

	b.RecordFailure("directory")
	if b.State("directory") != StateOpen {
		t.Errorf("state = %v, want open after probe failure", b.State("directory"))
	}
	if b.Allow("directory") {
		t.Error("reopened circuit must reject")
	}
}
