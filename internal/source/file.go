package source

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"
)

// fileItem is one entry of an exported channel dump.
type fileItem struct {
	VideoID      string     `json:"video_id"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	ChannelName  string     `json:"channel_name"`
	PublishedAt  *string    `json:"published_at,omitempty"`
	ThumbnailURL string     `json:"thumbnail_url,omitempty"`
	Transcript   *[]Segment `json:"transcript,omitempty"`
}

// FileSource serves items from a JSON channel dump, one array of objects
// with metadata and an optional transcript. A null or missing transcript
// means "no transcript"; an empty array is an empty transcript.
type FileSource struct {
	items       []Item
	transcripts map[string]*[]Segment
}

func NewFileSource(path string) (*FileSource, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read source file %q: %w", path, err)
	}

	var raw []fileItem
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, fmt.Errorf("decode source file %q: %w", path, err)
	}

	src := &FileSource{
		items:       make([]Item, 0, len(raw)),
		transcripts: make(map[string]*[]Segment, len(raw)),
	}
	for i, entry := range raw {
		id := strings.TrimSpace(entry.VideoID)
		if id == "" {
			return nil, fmt.Errorf("source file %q: entry %d has no video_id", path, i)
		}

		publishedAt := time.Time{}
		if entry.PublishedAt != nil && strings.TrimSpace(*entry.PublishedAt) != "" {
			publishedAt, err = time.Parse(time.RFC3339, strings.TrimSpace(*entry.PublishedAt))
			if err != nil {
				return nil, fmt.Errorf("source file %q: entry %d published_at: %w", path, i, err)
			}
		}

		src.items = append(src.items, Item{
			ID:           id,
			Title:        entry.Title,
			Description:  entry.Description,
			ChannelName:  entry.ChannelName,
			PublishedAt:  publishedAt.UTC(),
			ThumbnailURL: entry.ThumbnailURL,
		})
		src.transcripts[id] = entry.Transcript
	}

	return src, nil
}

func (s *FileSource) ListItems(_ context.Context) ([]Item, error) {
	items := make([]Item, len(s.items))
	copy(items, s.items)
	return items, nil
}

func (s *FileSource) Transcript(_ context.Context, itemID string) ([]Segment, error) {
	transcript, ok := s.transcripts[itemID]
	if !ok || transcript == nil {
		return nil, ErrNoTranscript
	}
	return *transcript, nil
}
