package timeline

import (
	"testing"

	"github.com/satindergrewal/airwaves/internal/station"
)

func TestStateDurationAndSound(t *testing.T) {
	tr := &station.Track{Title: "Maybe", Source: "maybe.wav", SizeBytes: sized(2500)}
	n := &station.Narration{Content: "hello", Source: "hi.wav", SizeBytes: sized(300)}

	tests := []struct {
		name      string
		state     State
		dur       uint64
		sound     string
		hasSound  bool
		wantTitle string
	}{
		{"silence", State{Kind: Silence}, SilenceMs, "", false, ""},
		{"before empty", State{Kind: NarrationBefore, Track: tr}, 0, "", false, "Maybe"},
		{"before", State{Kind: NarrationBefore, Track: tr, Narration: n}, 300, "hi.wav", true, "Maybe"},
		{"track", State{Kind: TrackPlaying, Track: tr}, 2500, "maybe.wav", true, "Maybe"},
		{"after", State{Kind: NarrationAfter, Track: tr, Narration: n}, 300, "hi.wav", true, "Maybe"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.state.DurationMs(); got != tt.dur {
				t.Errorf("DurationMs = %d, want %d", got, tt.dur)
			}
			s := tt.state.Sound()
			if (s != nil) != tt.hasSound {
				t.Fatalf("Sound = %v, want present=%v", s, tt.hasSound)
			}
			if s != nil && s.Path() != tt.sound {
				t.Errorf("Sound.Path = %q, want %q", s.Path(), tt.sound)
			}
			if got := tt.state.Title(); got != tt.wantTitle {
				t.Errorf("Title = %q, want %q", got, tt.wantTitle)
			}
		})
	}
}

func TestKindString(t *testing.T) {
	for k, want := range map[Kind]string{
		Silence: "silence", NarrationBefore: "narration_before",
		TrackPlaying: "track", NarrationAfter: "narration_after",
	} {
		if k.String() != want {
			t.Errorf("%d.String() = %q, want %q", int(k), k.String(), want)
		}
	}
}

func TestResolutionRemaining(t *testing.T) {
	r := Resolution{ElapsedMs: 40, DurationMs: 200}
	if r.RemainingMs() != 160 {
		t.Errorf("RemainingMs = %d, want 160", r.RemainingMs())
	}
}
