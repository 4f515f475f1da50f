package adapter_test

import (
	"context"
	"errors"
	"testing"

	"github.com/smelt-io/smelt/adapter"
	"github.com/smelt-io/smelt/types"
)

func TestNewBuildCompletedEvent(t *testing.T) {
	id := "lib"
	event := types.NewBuildEvent("42", "tinycc", types.Build{
		Artifacts: []types.Artifact{
			{BuilderID: "cc", ID: &id, Description: "static lib", Files: []string{"a.o", "b.o"}},
			{BuilderID: "ld", Description: "binary", Files: []string{"tcc"}},
		},
	})

	got := adapter.NewBuildCompletedEvent(event, "build.log")

	if got.EventType != "build_completed" {
		t.Errorf("expected build_completed, got %s", got.EventType)
	}
	if got.BuildName != "tinycc" {
		t.Errorf("expected tinycc, got %s", got.BuildName)
	}
	if got.Source != "build.log" {
		t.Errorf("expected build.log, got %s", got.Source)
	}
	if got.Timestamp != "42" {
		t.Errorf("expected timestamp 42, got %s", got.Timestamp)
	}
	if got.ArtifactCount != 2 {
		t.Errorf("expected 2 artifacts, got %d", got.ArtifactCount)
	}
	if got.FileCount != 3 {
		t.Errorf("expected 3 files, got %d", got.FileCount)
	}
	if got.Version != types.Version {
		t.Errorf("expected version %s, got %s", types.Version, got.Version)
	}
}

func TestRetry_SucceedsFirstAttempt(t *testing.T) {
	calls := 0
	err := adapter.Retry(t.Context(), 3, func(context.Context) error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestRetry_ExhaustsAttempts(t *testing.T) {
	calls := 0
	attemptErr := errors.New("transient")
	err := adapter.Retry(t.Context(), 2, func(context.Context) error {
		calls++
		return attemptErr
	})
	if err == nil {
		t.Fatal("expected error after exhausting attempts")
	}
	if !errors.Is(err, attemptErr) {
		t.Errorf("expected wrapped attempt error, got %v", err)
	}
	// 1 initial + 2 retries
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestRetry_PermanentStopsImmediately(t *testing.T) {
	calls := 0
	permErr := errors.New("bad request")
	err := adapter.Retry(t.Context(), 5, func(context.Context) error {
		calls++
		return &adapter.Permanent{Err: permErr}
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, permErr) {
		t.Errorf("expected wrapped permanent error, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestRetry_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	calls := 0
	err := adapter.Retry(ctx, 3, func(context.Context) error {
		calls++
		return errors.New("transient")
	})
	if err == nil {
		t.Fatal("expected error on canceled context")
	}
	if calls != 0 {
		t.Errorf("expected 0 calls, got %d", calls)
	}
}
