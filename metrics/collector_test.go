package metrics

import (
	"sync"
	"testing"
)

func TestCollector_Snapshot(t *testing.T) {
	c := NewCollector("stdin", "fs")

	c.IncLinesRead()
	c.IncLinesRead()
	c.IncMessages()
	c.IncArtifacts()
	c.IncBuilds()
	c.SetBuildsSeen(3)
	c.IncSinkWriteSuccess()
	c.IncSinkWriteFailure()
	c.IncDecodeErrors()

	snap := c.Snapshot()
	if snap.LinesRead != 2 {
		t.Errorf("LinesRead = %d, want 2", snap.LinesRead)
	}
	if snap.Messages != 1 || snap.Artifacts != 1 || snap.Builds != 1 {
		t.Errorf("event counters = %d/%d/%d, want 1/1/1", snap.Messages, snap.Artifacts, snap.Builds)
	}
	if snap.BuildsCompleted != 1 {
		t.Errorf("BuildsCompleted = %d, want 1", snap.BuildsCompleted)
	}
	if snap.BuildsSeen != 3 {
		t.Errorf("BuildsSeen = %d, want 3", snap.BuildsSeen)
	}
	if snap.SinkWriteSuccess != 1 || snap.SinkWriteFailure != 1 {
		t.Errorf("sink counters = %d/%d, want 1/1", snap.SinkWriteSuccess, snap.SinkWriteFailure)
	}
	if snap.DecodeErrors != 1 {
		t.Errorf("DecodeErrors = %d, want 1", snap.DecodeErrors)
	}
	if snap.Source != "stdin" || snap.Backend != "fs" {
		t.Errorf("dimensions = %s/%s, want stdin/fs", snap.Source, snap.Backend)
	}
}

func TestCollector_NilSafe(t *testing.T) {
	var c *Collector

	// None of these may panic.
	c.IncLinesRead()
	c.IncDecodeErrors()
	c.IncMessages()
	c.IncArtifacts()
	c.IncBuilds()
	c.SetBuildsSeen(1)
	c.IncSinkWriteSuccess()
	c.IncSinkWriteFailure()

	snap := c.Snapshot()
	if snap.LinesRead != 0 {
		t.Errorf("nil collector snapshot should be zero, got %+v", snap)
	}
}

func TestCollector_ConcurrentIncrements(t *testing.T) {
	c := NewCollector("stdin", "none")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.IncLinesRead()
			}
		}()
	}
	wg.Wait()

	if got := c.Snapshot().LinesRead; got != 800 {
		t.Errorf("LinesRead = %d, want 800", got)
	}
}
