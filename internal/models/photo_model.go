package models

type Photo struct {
	ID               string  `db:"id" json:"id"`
	BlobKey          string  `db:"blob_key" json:"blob_key"`
	PhotographerName string  `db:"photographer_name" json:"photographer_name,omitempty"`
	EventID          *string `db:"event_id" json:"event_id,omitempty"`
}
