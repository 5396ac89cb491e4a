// SecureCrop - Agricultural Advisory Platform Backend
// Copyright 2026 SecureCrop Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/securecrop/securecrop

package breaker

import (
	"errors"
	"testing"

	gobreaker "github.com/sony/gobreaker/v2"
)

func TestExecuteSuccess(t *testing.T) {
	b := New("test-success")

	got, err := b.Execute(func() ([]byte, error) {
		return []byte("ok"), nil
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if string(got) != "ok" {
		t.Errorf("result = %q", got)
	}
	if b.State() != gobreaker.StateClosed {
		t.Errorf("state = %v, want closed", b.State())
	}
}

func TestExecutePropagatesError(t *testing.T) {
	b := New("test-error")
	wantErr := errors.New("upstream down")

	_, err := b.Execute(func() ([]byte, error) {
		return nil, wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("Execute returned %v, want %v", err, wantErr)
	}
	// A single failure is far below the trip threshold.
	if b.State() != gobreaker.StateClosed {
		t.Errorf("state = %v, want closed", b.State())
	}
}

func TestTripsAfterRepeatedFailures(t *testing.T) {
	b := New("test-trip")
	fail := func() ([]byte, error) { return nil, errors.New("boom") }

	// Ten failed requests hit the minimum sample at 100% failure rate.
	for i := 0; i < 10; i++ {
		if _, err := b.Execute(fail); err == nil {
			t.Fatal("expected failure")
		}
	}
	if b.State() != gobreaker.StateOpen {
		t.Fatalf("state = %v, want open", b.State())
	}

	_, err := b.Execute(func() ([]byte, error) { return []byte("ok"), nil })
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Errorf("open breaker returned %v, want ErrOpenState", err)
	}
}

func TestStaysClosedBelowMinimumRequests(t *testing.T) {
	b := New("test-min-requests")
	fail := func() ([]byte, error) { return nil, errors.New("boom") }

	for i := 0; i < 9; i++ {
		_, _ = b.Execute(fail)
	}
	if b.State() != gobreaker.StateClosed {
		t.Errorf("state = %v, want closed below 10 requests", b.State())
	}
}
