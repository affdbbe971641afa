// Package source defines the content collaborator: where video metadata and
// transcripts come from. The processing pipeline only ever reads through
// these interfaces; fetching strategy stays out of the core.
package source

import (
	"context"
	"errors"
	"time"
)

// ErrNoTranscript reports that no transcript exists for an item. It is
// distinct from an empty transcript, which is a valid (if useless) result.
var ErrNoTranscript = errors.New("transcript is not available")

// Item is one video's metadata. Immutable once fetched.
type Item struct {
	ID           string
	Title        string
	Description  string
	ChannelName  string
	PublishedAt  time.Time
	ThumbnailURL string
}

// Segment is one transcript line with its start offset.
type Segment struct {
	StartSeconds float64 `json:"start"`
	Text         string  `json:"text"`
}

// ContentSource lists items and supplies their transcripts.
type ContentSource interface {
	ListItems(ctx context.Context) ([]Item, error)
	// Transcript returns the ordered transcript of one item, or
	// ErrNoTranscript when the item has none.
	Transcript(ctx context.Context, itemID string) ([]Segment, error)
}

// JoinText concatenates segment texts with single spaces, the form every
// transcript-level check operates on.
func JoinText(segments []Segment) string {
	if len(segments) == 0 {
		return ""
	}
	total := 0
	for _, segment := range segments {
		total += len(segment.Text) + 1
	}
	joined := make([]byte, 0, total)
	for i, segment := range segments {
		if i > 0 {
			joined = append(joined, ' ')
		}
		joined = append(joined, segment.Text...)
	}
	return string(joined)
}
