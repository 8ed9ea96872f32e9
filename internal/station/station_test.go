package station

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/satindergrewal/airwaves/internal/pcm"
)

// writeWAV creates a file whose size yields exactly durMs of audio.
func writeWAV(t *testing.T, dir, name string, durMs uint64) string {
	t.Helper()
	path := filepath.Join(dir, name)
	data := make([]byte, pcm.ByteOffset(durMs))
	copy(data, pcm.StreamingHeader())
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDurations(t *testing.T) {
	tr := Track{Title: "a", SizeBytes: pcm.ByteOffset(1500)}
	if got := tr.DurationMs(); got != 1500 {
		t.Errorf("Track.DurationMs = %d, want 1500", got)
	}
	n := Narration{Content: "hi", SizeBytes: pcm.ByteOffset(250)}
	if got := n.DurationMs(); got != 250 {
		t.Errorf("Narration.DurationMs = %d, want 250", got)
	}
}

func TestTrackSameByTitle(t *testing.T) {
	a := Track{Title: "Maybe", Source: "a.wav", SizeBytes: 100}
	b := Track{Title: "Maybe", Source: "b.wav", SizeBytes: 900}
	c := Track{Title: "Undecided", Source: "a.wav", SizeBytes: 100}
	if !a.Same(b) {
		t.Error("tracks with equal titles should be the same")
	}
	if a.Same(c) {
		t.Error("tracks with different titles should differ")
	}
}

func TestValidate(t *testing.T) {
	tracks := func(n int) []Track {
		out := make([]Track, n)
		for i := range out {
			out[i] = Track{Title: fmt.Sprintf("t%d", i), SizeBytes: pcm.ByteOffset(1000)}
		}
		return out
	}

	if err := (&Station{}).Validate(8); !errors.Is(err, ErrNoTracks) {
		t.Errorf("empty station: err = %v, want ErrNoTracks", err)
	}
	if err := (&Station{Tracks: tracks(8)}).Validate(8); !errors.Is(err, ErrWindowTooLarge) {
		t.Errorf("8 tracks, window 8: err = %v, want ErrWindowTooLarge", err)
	}
	if err := (&Station{Tracks: tracks(9)}).Validate(8); err != nil {
		t.Errorf("9 tracks, window 8: err = %v, want nil", err)
	}

	dup := tracks(9)
	dup[8].Title = dup[0].Title
	if err := (&Station{Tracks: dup}).Validate(8); !errors.Is(err, ErrWindowTooLarge) {
		t.Errorf("9 tracks, 8 titles, window 8: err = %v, want ErrWindowTooLarge", err)
	}

	// A file with a header and under 176 bytes of audio lasts 0ms.
	short := tracks(9)
	short[3].SizeBytes = pcm.HeaderLen + 100
	err := (&Station{Tracks: short}).Validate(8)
	if !errors.Is(err, ErrSilentTrack) || !strings.Contains(err.Error(), "tracks[3]") {
		t.Errorf("0ms track: err = %v, want ErrSilentTrack naming tracks[3]", err)
	}
}

func TestParse(t *testing.T) {
	dir := t.TempDir()
	writeWAV(t, dir, "a.wav", 1000)
	writeWAV(t, dir, "b.wav", 2000)
	writeWAV(t, dir, "intro.wav", 300)
	abs := writeWAV(t, dir, "outro.wav", 400)

	doc := `
title: Diamond City Radio
seed: 2003
tracks:
  - title: Anything Goes
    source: a.wav
    before:
      - source: intro.wav
        narration: "Here's a classic."
  - title: Maybe
    source: b.wav
    after:
      - source: ` + abs + `
        narration: "That was Maybe."
`
	st, err := Parse([]byte(doc), dir)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if st.Title != "Diamond City Radio" {
		t.Errorf("Title = %q", st.Title)
	}
	if st.Seed != 2003 {
		t.Errorf("Seed = %d, want 2003", st.Seed)
	}
	if len(st.Tracks) != 2 {
		t.Fatalf("len(Tracks) = %d, want 2", len(st.Tracks))
	}
	a := st.Tracks[0]
	if a.Source != filepath.Join(dir, "a.wav") {
		t.Errorf("Source = %q, want resolved against dir", a.Source)
	}
	if a.DurationMs() != 1000 {
		t.Errorf("a duration = %d, want 1000", a.DurationMs())
	}
	if len(a.NarrationBefore) != 1 || a.NarrationBefore[0].Content != "Here's a classic." {
		t.Errorf("NarrationBefore = %+v", a.NarrationBefore)
	}
	if a.NarrationBefore[0].DurationMs() != 300 {
		t.Errorf("intro duration = %d, want 300", a.NarrationBefore[0].DurationMs())
	}
	if len(a.NarrationAfter) != 0 {
		t.Errorf("NarrationAfter = %+v, want none", a.NarrationAfter)
	}
	b := st.Tracks[1]
	if len(b.NarrationAfter) != 1 || b.NarrationAfter[0].Source != abs {
		t.Errorf("absolute source not kept: %+v", b.NarrationAfter)
	}
	if got := st.TotalDurationMs(); got != 3000 {
		t.Errorf("TotalDurationMs = %d, want 3000", got)
	}
}

func TestParseErrors(t *testing.T) {
	dir := t.TempDir()
	writeWAV(t, dir, "a.wav", 10)
	if err := os.WriteFile(filepath.Join(dir, "tiny.wav"), []byte("RIFF"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		doc     string
		missing bool
		want    string
	}{
		{"no title", "seed: 1\ntracks: [{title: a, source: a.wav}]", true, "title"},
		{"no seed", "title: x\ntracks: [{title: a, source: a.wav}]", true, "seed"},
		{"no tracks", "title: x\nseed: 1", true, "tracks"},
		{"track title", "title: x\nseed: 1\ntracks: [{source: a.wav}]", true, "tracks[0].title"},
		{"track source", "title: x\nseed: 1\ntracks: [{title: a}]", true, "tracks[0].source"},
		{"narration text", "title: x\nseed: 1\ntracks: [{title: a, source: a.wav, before: [{source: a.wav}]}]", true, "tracks[0].before[0].narration"},
		{"narration source", "title: x\nseed: 1\ntracks: [{title: a, source: a.wav, after: [{narration: hi}]}]", true, "tracks[0].after[0].source"},
		{"missing file", "title: x\nseed: 1\ntracks: [{title: a, source: nope.wav}]", false, "nope.wav"},
		{"short file", "title: x\nseed: 1\ntracks: [{title: a, source: tiny.wav}]", false, "header"},
		{"malformed", "title: [", false, "parse station file"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc), dir)
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.missing && !errors.Is(err, ErrMissingField) {
				t.Errorf("err = %v, want ErrMissingField", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %q, want it to mention %q", err, tt.want)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	writeWAV(t, dir, "a.wav", 10)
	path := filepath.Join(dir, "radio.yaml")
	if err := os.WriteFile(path, []byte("title: x\nseed: 0\ntracks: [{title: a, source: a.wav}]"), 0o644); err != nil {
		t.Fatal(err)
	}
	st, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if st.Seed != 0 || st.Tracks[0].DurationMs() != 10 {
		t.Errorf("Load = %+v", st)
	}

	if _, err := Load(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("Load of missing file should fail")
	}
}
