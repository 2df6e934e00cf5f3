package entity

import (
	"net/url"
	"strings"
	"time"
)

// DashboardStats is the administrator overview. ExpiredBookings is total minus active,
// so cancelled bookings are counted there as well.
type DashboardStats struct {
	TotalBookings          int64            `json:"total_bookings"`
	ActiveBookings         int64            `json:"active_bookings"`
	ExpiredBookings        int64            `json:"expired_bookings"`
	MostRequestedEquipment []EquipmentCount `json:"most_requested_equipment"`
}

type EquipmentCount struct {
	Name  string `json:"name"`
	Count int64  `json:"count"`
}

// HelpContent is the single row of administrator-edited help page settings.
type HelpContent struct {
	ID           int       `json:"id" db:"id"`
	HelpText     *string   `json:"help_text" db:"help_text"`
	HelpVideoURL *string   `json:"help_video_url" db:"help_video_url"`
	EmbedURL     *string   `json:"embed_url,omitempty"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// YouTubeEmbedURL turns youtu.be/<id> and youtube.com/watch?v=<id> links into an
// embeddable URL. Anything else yields "".
func YouTubeEmbedURL(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return ""
	}

	host := strings.ToLower(u.Hostname())
	switch {
	case host == "youtu.be":
		id := strings.Trim(u.Path, "/")
		if id == "" {
			return ""
		}
		return "https://www.youtube.com/embed/" + id
	case strings.Contains(host, "youtube.com"):
		if id := u.Query().Get("v"); id != "" {
			return "https://www.youtube.com/embed/" + id
		}
	}
	return ""
}

// WithEmbedURL fills EmbedURL from HelpVideoURL.
func (h *HelpContent) WithEmbedURL() *HelpContent {
	h.EmbedURL = nil
	if h.HelpVideoURL != nil {
		if embed := YouTubeEmbedURL(*h.HelpVideoURL); embed != "" {
			h.EmbedURL = &embed
		}
	}
	return h
}
