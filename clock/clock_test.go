package clock

import (
	"testing"
	"time"
)

func TestSongTimeAdvances(t *testing.T) {
	c := New()
	t0 := c.SongTime()
	time.Sleep(5 * time.Millisecond)
	t1 := c.SongTime()
	if t1 <= t0 {
		t.Fatalf("song time did not advance: t0=%v t1=%v", t0, t1)
	}
}

func TestPauseFreezesSongTime(t *testing.T) {
	c := New()
	time.Sleep(2 * time.Millisecond)
	c.Pause()
	frozen := c.SongTime()
	time.Sleep(10 * time.Millisecond)
	if got := c.SongTime(); got != frozen {
		t.Fatalf("song time moved while paused: frozen=%v got=%v", frozen, got)
	}
}

func TestResumeContinuesWithoutJump(t *testing.T) {
	c := New()
	time.Sleep(2 * time.Millisecond)
	c.Pause()
	frozen := c.SongTime()
	time.Sleep(20 * time.Millisecond)
	c.Resume()
	after := c.SongTime()
	if after < frozen {
		t.Fatalf("song time regressed on resume: frozen=%v after=%v", frozen, after)
	}
	if after-frozen > 5*1e-3 {
		t.Fatalf("song time jumped on resume by %v, want near zero", after-frozen)
	}
}

func TestResumeWithoutPauseIsNoop(t *testing.T) {
	c := New()
	c.Resume()
	if c.Paused() {
		t.Fatal("Resume without Pause should not set paused")
	}
}

func TestReset(t *testing.T) {
	c := New()
	time.Sleep(5 * time.Millisecond)
	c.Pause()
	c.Reset()
	if c.Paused() {
		t.Fatal("Reset should clear paused state")
	}
	if st := c.SongTime(); st < 0 || st > 1e-2 {
		t.Fatalf("song time after Reset = %v, want near 0", st)
	}
}
