package models

import (
	"time"

	"github.com/lib/pq"
)

const (
	PostStatusPending    = "pending"
	PostStatusProcessing = "processing"
	PostStatusCompleted  = "completed"
	PostStatusPartial    = "partial"
	PostStatusFailed     = "failed"
)

const (
	ResultStatusSuccess = "success"
	ResultStatusFailed  = "failed"
)

type SocialPost struct {
	ID                        string         `db:"id" json:"id"`
	Platforms                 pq.StringArray `db:"platforms" json:"platforms"`
	Title                     string         `db:"title" json:"title,omitempty"`
	Caption                   string         `db:"caption" json:"caption"`
	PhotoIDs                  pq.StringArray `db:"photo_ids" json:"photo_ids"`
	EventID                   *string        `db:"event_id" json:"event_id,omitempty"`
	BandID                    *string        `db:"band_id" json:"band_id,omitempty"`
	TemplateID                *string        `db:"template_id" json:"template_id,omitempty"`
	IncludePhotographerCredit bool           `db:"include_photographer_credit" json:"include_photographer_credit"`
	IncludeEventLink          bool           `db:"include_event_link" json:"include_event_link"`
	Hashtags                  pq.StringArray `db:"hashtags" json:"hashtags"`
	IGCollaboratorHandles     pq.StringArray `db:"ig_collaborator_handles" json:"ig_collaborator_handles,omitempty"`
	CropData                  CropData       `db:"crop_data" json:"crop_data,omitempty"`
	CreatedBy                 string         `db:"created_by" json:"created_by"`
	Status                    string         `db:"status" json:"status"`
	CreatedAt                 time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt                 time.Time      `db:"updated_at" json:"updated_at"`
}

type SocialPostResult struct {
	ID                  string    `db:"id" json:"id"`
	PostID              string    `db:"post_id" json:"post_id"`
	Platform            string    `db:"platform" json:"platform"`
	Status              string    `db:"status" json:"status"`
	ExternalPostID      string    `db:"external_post_id" json:"external_post_id,omitempty"`
	ExternalPostURL     string    `db:"external_post_url" json:"external_post_url,omitempty"`
	ExternalURLReliable bool      `db:"external_url_reliable" json:"external_url_reliable"`
	ErrorMessage        string    `db:"error_message" json:"error_message,omitempty"`
	CreatedAt           time.Time `db:"created_at" json:"created_at"`
}

var statusRank = map[string]int{
	PostStatusPending:    0,
	PostStatusProcessing: 1,
	PostStatusCompleted:  2,
	PostStatusPartial:    2,
	PostStatusFailed:     2,
}

// CanTransition reports whether a post may move from one status to another.
// Statuses only move forward and terminal statuses are final.
func CanTransition(from, to string) bool {
	f, ok := statusRank[from]
	if !ok {
		return false
	}
	t, ok := statusRank[to]
	if !ok {
		return false
	}
	return t > f
}

// PreviousStatuses lists the statuses a post may be in to move to status.
func PreviousStatuses(status string) []string {
	var out []string
	for _, s := range []string{PostStatusPending, PostStatusProcessing, PostStatusCompleted, PostStatusPartial, PostStatusFailed} {
		if CanTransition(s, status) {
			out = append(out, s)
		}
	}
	return out
}

func IsTerminalStatus(status string) bool {
	return status == PostStatusCompleted || status == PostStatusPartial || status == PostStatusFailed
}
