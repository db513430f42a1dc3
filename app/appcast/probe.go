package appcast

import (
	"bytes"
	"fmt"

	"github.com/mmcdole/gofeed"
)

// ProbeResult describes an appcast document as a plain syndication feed.
// It is diagnostic only: the update decision never depends on it.
type ProbeResult struct {
	FeedType    string
	Title       string
	Description string
	ItemCount   int
}

// Probe parses the document with a general-purpose feed parser. Useful for
// checking that a configured URL actually serves a feed, and for surfacing
// channel metadata the appcast parser does not collect.
func Probe(data []byte) (*ProbeResult, error) {
	feed, err := gofeed.NewParser().Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse document as a feed: %w", err)
	}

	return &ProbeResult{
		FeedType:    feed.FeedType,
		Title:       feed.Title,
		Description: feed.Description,
		ItemCount:   len(feed.Items),
	}, nil
}
