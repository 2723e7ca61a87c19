package track

import (
	"testing"

	"github.com/tenloop/tenloop/midi"
)

func TestNewStoreAssignsChannelsByIndex(t *testing.T) {
	s := NewStore()
	for i := 0; i < NumTracks; i++ {
		tr := s.Get(i)
		if tr.Channel != uint8(i) {
			t.Errorf("track %d channel = %d, want %d", i, tr.Channel, i)
		}
		if len(tr.Events) != 0 || tr.DurationS != 0 {
			t.Errorf("track %d not empty at startup", i)
		}
	}
}

func TestAppendPreservesOrder(t *testing.T) {
	s := NewStore()
	s.Append(0, 0.1, midi.NoteOn(0, 60, 100))
	s.Append(0, 0.2, midi.NoteOff(0, 60))

	tr := s.Get(0)
	if len(tr.Events) != 2 {
		t.Fatalf("len(Events) = %d, want 2", len(tr.Events))
	}
	if tr.Events[0].Offset != 0.1 || tr.Events[1].Offset != 0.2 {
		t.Fatalf("events out of order: %+v", tr.Events)
	}
}

func TestClearPreservesChannel(t *testing.T) {
	s := NewStore()
	s.Append(3, 0, midi.NoteOn(3, 60, 100))
	s.SetDuration(3, 2.0)
	s.Clear(3)

	tr := s.Get(3)
	if tr.Channel != 3 {
		t.Fatalf("Clear changed channel: got %d, want 3", tr.Channel)
	}
	if len(tr.Events) != 0 || tr.DurationS != 0 {
		t.Fatalf("Clear did not empty track: %+v", tr)
	}
}

func TestClearAll(t *testing.T) {
	s := NewStore()
	for i := 0; i < NumTracks; i++ {
		s.Append(i, 0, midi.NoteOn(uint8(i), 60, 100))
		s.SetDuration(i, 1.0)
	}
	s.ClearAll()
	for i := 0; i < NumTracks; i++ {
		tr := s.Get(i)
		if len(tr.Events) != 0 || tr.DurationS != 0 {
			t.Errorf("track %d not cleared: %+v", i, tr)
		}
		if tr.Channel != uint8(i) {
			t.Errorf("track %d channel changed after ClearAll", i)
		}
	}
}

func TestSnapshotForPlaybackExcludesIndex(t *testing.T) {
	s := NewStore()
	s.Append(2, 0, midi.NoteOn(2, 60, 100))
	s.SetDuration(2, 1.0)
	s.Append(5, 0, midi.NoteOn(5, 60, 100))
	s.SetDuration(5, 1.0)

	snap := s.SnapshotForPlayback(2)
	for _, pt := range snap {
		if pt.Index == 2 {
			t.Fatalf("excluded index 2 present in snapshot")
		}
	}

	found := false
	for _, pt := range snap {
		if pt.Index == 5 {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected track 5 in snapshot")
	}
}

func TestSnapshotIsIndependentCopy(t *testing.T) {
	s := NewStore()
	s.Append(0, 0, midi.NoteOn(0, 60, 100))
	s.SetDuration(0, 1.0)

	snap := s.SnapshotForPlayback(-1)
	s.Append(0, 0.5, midi.NoteOn(0, 61, 100))

	for _, pt := range snap {
		if pt.Index == 0 && len(pt.Events) != 1 {
			t.Fatalf("snapshot mutated by later Append: %+v", pt.Events)
		}
	}
}

func TestSetTone(t *testing.T) {
	s := NewStore()
	s.SetTone(1, 5, 0, 1)
	tr := s.Get(1)
	if tr.Program != 5 || tr.BankMSB != 0 || tr.BankLSB != 1 {
		t.Fatalf("SetTone did not persist: %+v", tr)
	}
}

func TestHasContent(t *testing.T) {
	s := NewStore()
	if s.HasContent(0) {
		t.Fatal("new track reports content")
	}
	s.Append(0, 0, midi.NoteOn(0, 60, 100))
	if !s.HasContent(0) {
		t.Fatal("track with an event reports no content")
	}
}
