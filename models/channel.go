package models

import "time"

type Channel struct {
	ID                string    `json:"id"`
	Title             string    `json:"title"`
	Description       string    `json:"description"`
	SubscriberCount   int64     `json:"subscriber_count"`
	VideoCount        int64     `json:"video_count"`
	ViewCount         int64     `json:"view_count"`
	ThumbnailURL      string    `json:"thumbnail_url"`
	UploadsPlaylistID string    `json:"uploads_playlist_id,omitempty"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// Whitelist is the fixed set of channels the directory curates.
// It is built once at startup and never mutated.
type Whitelist struct {
	ids   []string
	index map[string]struct{}
}

// NewWhitelist deduplicates ids, keeping first-seen order.
func NewWhitelist(ids []string) Whitelist {
	w := Whitelist{index: make(map[string]struct{}, len(ids))}
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, dup := w.index[id]; dup {
			continue
		}
		w.index[id] = struct{}{}
		w.ids = append(w.ids, id)
	}
	return w
}

func (w Whitelist) Contains(channelID string) bool {
	_, ok := w.index[channelID]
	return ok
}

// IDs returns a copy of the channel ids.
func (w Whitelist) IDs() []string {
	out := make([]string, len(w.ids))
	copy(out, w.ids)
	return out
}

func (w Whitelist) Len() int      { return len(w.ids) }
func (w Whitelist) IsEmpty() bool { return len(w.ids) == 0 }
