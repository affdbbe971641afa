package source

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeDump(t *testing.T, payload string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dump.json")
	if err := os.WriteFile(path, []byte(payload), 0o600); err != nil {
		t.Fatalf("write dump: %v", err)
	}
	return path
}

func TestFileSourceListsItemsAndTranscripts(t *testing.T) {
	t.Parallel()

	path := writeDump(t, `[
		{
			"video_id": "v1",
			"title": "best cosmetics 2026",
			"description": "products below",
			"channel_name": "glow channel",
			"published_at": "2026-08-01T10:00:00Z",
			"transcript": [{"start": 1.5, "text": "hello"}, {"start": 4, "text": "world"}]
		},
		{
			"video_id": "v2",
			"title": "no transcript here",
			"channel_name": "glow channel",
			"transcript": null
		}
	]`)

	src, err := NewFileSource(path)
	if err != nil {
		t.Fatalf("NewFileSource: %v", err)
	}

	items, err := src.ListItems(context.Background())
	if err != nil {
		t.Fatalf("ListItems: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2", len(items))
	}
	if items[0].ID != "v1" || items[0].PublishedAt.IsZero() {
		t.Fatalf("unexpected first item: %+v", items[0])
	}

	transcript, err := src.Transcript(context.Background(), "v1")
	if err != nil {
		t.Fatalf("Transcript(v1): %v", err)
	}
	if len(transcript) != 2 || transcript[0].StartSeconds != 1.5 || transcript[1].Text != "world" {
		t.Fatalf("unexpected transcript: %+v", transcript)
	}
}

func TestFileSourceNullTranscriptMeansMissing(t *testing.T) {
	t.Parallel()

	path := writeDump(t, `[
		{"video_id": "v1", "title": "a", "channel_name": "c", "transcript": null},
		{"video_id": "v2", "title": "b", "channel_name": "c", "transcript": []}
	]`)

	src, err := NewFileSource(path)
	if err != nil {
		t.Fatalf("NewFileSource: %v", err)
	}

	if _, err := src.Transcript(context.Background(), "v1"); !errors.Is(err, ErrNoTranscript) {
		t.Fatalf("null transcript: got %v, want ErrNoTranscript", err)
	}
	transcript, err := src.Transcript(context.Background(), "v2")
	if err != nil {
		t.Fatalf("empty transcript must be valid: %v", err)
	}
	if len(transcript) != 0 {
		t.Fatalf("got %d segments, want 0", len(transcript))
	}
	if _, err := src.Transcript(context.Background(), "missing"); !errors.Is(err, ErrNoTranscript) {
		t.Fatalf("unknown item: got %v, want ErrNoTranscript", err)
	}
}

func TestFileSourceRejectsBadInput(t *testing.T) {
	t.Parallel()

	if _, err := NewFileSource(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Fatal("missing file must fail")
	}

	path := writeDump(t, `[{"title": "no id", "channel_name": "c"}]`)
	if _, err := NewFileSource(path); err == nil {
		t.Fatal("entry without video_id must fail")
	}

	path = writeDump(t, `[{"video_id": "v1", "title": "t", "channel_name": "c", "published_at": "yesterday"}]`)
	if _, err := NewFileSource(path); err == nil {
		t.Fatal("unparseable published_at must fail")
	}
}

func TestJoinText(t *testing.T) {
	t.Parallel()

	if got := JoinText(nil); got != "" {
		t.Fatalf("JoinText(nil) = %q", got)
	}
	segments := []Segment{{Text: "リップ"}, {Text: "is"}, {Text: "great"}}
	if got := JoinText(segments); got != "リップ is great" {
		t.Fatalf("JoinText = %q", got)
	}
}
