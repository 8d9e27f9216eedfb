package models

import (
	"time"

	"github.com/lib/pq"
)

type CaptionTemplate struct {
	ID                        string         `db:"id" json:"id"`
	Name                      string         `db:"name" json:"name"`
	TitleTemplate             string         `db:"title_template" json:"title_template"`
	CaptionTemplate           string         `db:"caption_template" json:"caption_template"`
	DefaultHashtags           pq.StringArray `db:"default_hashtags" json:"default_hashtags"`
	IncludePhotographerCredit bool           `db:"include_photographer_credit" json:"include_photographer_credit"`
	IncludeEventLink          bool           `db:"include_event_link" json:"include_event_link"`
	CreatedAt                 time.Time      `db:"created_at" json:"created_at"`
}
