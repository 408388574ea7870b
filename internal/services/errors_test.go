package services_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"callaudit/internal/services"
)

func TestWrapTagsMarker(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrValidation, "analysis", "parse verdict", "bad payload", base)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation marker, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped cause, got %v", err)
	}
	if !strings.Contains(err.Error(), "analysis: parse verdict: bad payload") {
		t.Fatalf("unexpected detail: %v", err)
	}
}

func TestWrapDefaultsToTransient(t *testing.T) {
	err := services.Wrap(nil, "alert", "send", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
}

func TestIsPermanent(t *testing.T) {
	cases := []struct {
		marker error
		want   bool
	}{
		{services.ErrValidation, true},
		{services.ErrConfiguration, true},
		{services.ErrNotFound, true},
		{services.ErrTransient, false},
		{services.ErrTimeout, false},
		{services.ErrExternalTool, false},
	}
	for _, tc := range cases {
		err := services.Wrap(tc.marker, "stage", "op", "", nil)
		if got := services.IsPermanent(err); got != tc.want {
			t.Fatalf("IsPermanent(%v) = %v, want %v", tc.marker, got, tc.want)
		}
	}
}

func TestClassifyTimeout(t *testing.T) {
	err := services.ClassifyTimeout(context.DeadlineExceeded, "transcription", "transcribe")
	if !errors.Is(err, services.ErrTimeout) {
		t.Fatalf("expected timeout marker, got %v", err)
	}

	other := errors.New("unrelated")
	if got := services.ClassifyTimeout(other, "transcription", "transcribe"); got != other {
		t.Fatalf("expected passthrough for non-deadline error, got %v", got)
	}
}
