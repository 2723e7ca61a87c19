package control

import (
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestSimSurfaceTranslatesCommands(t *testing.T) {
	input := "mode\naction\nleft\nright\ntouch\n"
	s := NewSimSurface(zap.NewNop(), strings.NewReader(input))

	want := []Edge{Mode, Action, LeftPause, RightClear, Touch}
	for _, w := range want {
		select {
		case got := <-s.Edges():
			if got != w {
				t.Fatalf("got edge %v, want %v", got, w)
			}
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for edge %v", w)
		}
	}
}

func TestSimSurfaceSkipsUnknownCommands(t *testing.T) {
	input := "bogus\naction\n"
	s := NewSimSurface(zap.NewNop(), strings.NewReader(input))

	select {
	case got := <-s.Edges():
		if got != Action {
			t.Fatalf("got edge %v, want Action (bogus command skipped)", got)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for Action edge")
	}
}

func TestSimSurfaceClosesChannelAtEOF(t *testing.T) {
	s := NewSimSurface(zap.NewNop(), strings.NewReader("action\n"))
	<-s.Edges()
	_, ok := <-s.Edges()
	if ok {
		t.Fatal("expected Edges() channel to close at EOF")
	}
}

func TestEdgeString(t *testing.T) {
	cases := map[Edge]string{
		Mode:       "MODE",
		Action:     "ACTION",
		LeftPause:  "LEFT_PAUSE",
		RightClear: "RIGHT_CLEAR",
		Touch:      "TOUCH",
	}
	for edge, want := range cases {
		if got := edge.String(); got != want {
			t.Errorf("Edge(%d).String() = %q, want %q", edge, got, want)
		}
	}
}
