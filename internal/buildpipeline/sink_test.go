package buildpipeline

import (
	"sync"
	"testing"
	"time"
)

func TestMultiSinkFansOut(t *testing.T) {
	var a, b CollectSink
	multi := MultiSink{&a, &b}
	multi.OnEvent(Event{File: "main.to", Stage: StageParse, Status: StatusWorking})
	multi.OnEvent(Event{File: "main.to", Stage: StageParse, Status: StatusDone})

	if got := len(a.Events()); got != 2 {
		t.Errorf("first sink got %d events, want 2", got)
	}
	if got := len(b.Events()); got != 2 {
		t.Errorf("second sink got %d events, want 2", got)
	}
}

func TestCollectSinkIsSafeForConcurrentPublishers(t *testing.T) {
	var sink CollectSink
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				sink.OnEvent(Event{File: "a.to", Stage: StageCheck, Status: StatusWorking})
			}
		}()
	}
	wg.Wait()
	if got := len(sink.Events()); got != 800 {
		t.Errorf("collected %d events, want 800", got)
	}
}

func TestChannelSinkForwards(t *testing.T) {
	ch := make(chan Event, 1)
	sink := ChannelSink{Ch: ch}
	sink.OnEvent(Event{File: "x.to", Stage: StageEmit, Status: StatusDone})
	ev := <-ch
	if ev.Stage != StageEmit || ev.Status != StatusDone {
		t.Errorf("forwarded event = %+v", ev)
	}
}

func TestTimingsSum(t *testing.T) {
	var timings Timings
	timings.Set(StageTokenize, 2*time.Millisecond)
	timings.Set(StageParse, 3*time.Millisecond)

	if !timings.Has(StageParse) {
		t.Error("Has(StageParse) = false after Set")
	}
	if timings.Has(StageEmit) {
		t.Error("Has(StageEmit) = true without Set")
	}
	if got := timings.Sum(StageTokenize, StageParse, StageEmit); got != 5*time.Millisecond {
		t.Errorf("Sum = %v, want 5ms", got)
	}
}

func TestStagesAreOrdered(t *testing.T) {
	want := []Stage{StageTokenize, StageParse, StageCheck, StageLower, StageEmit}
	got := Stages()
	if len(got) != len(want) {
		t.Fatalf("Stages() returned %d stages, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Stages()[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}
