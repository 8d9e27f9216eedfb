package transfer

import "github.com/maheshrc27/social-publisher/internal/models"

type PublishRequest struct {
	Platforms                 []string                   `json:"platforms"`
	Caption                   string                     `json:"caption"`
	Title                     string                     `json:"title,omitempty"`
	PhotoIDs                  []string                   `json:"photo_ids"`
	EventID                   string                     `json:"event_id,omitempty"`
	BandID                    string                     `json:"band_id,omitempty"`
	TemplateID                string                     `json:"template_id,omitempty"`
	IncludePhotographerCredit *bool                      `json:"include_photographer_credit,omitempty"`
	IncludeEventLink          *bool                      `json:"include_event_link,omitempty"`
	Hashtags                  []string                   `json:"hashtags,omitempty"`
	IGCollaboratorHandles     []string                   `json:"ig_collaborator_handles,omitempty"`
	CropData                  map[string]models.CropRect `json:"crop_data,omitempty"`
}

type PlatformOutcome struct {
	Success      bool   `json:"success"`
	PostID       string `json:"postId,omitempty"`
	PostURL      string `json:"postUrl,omitempty"`
	URLReliable  bool   `json:"urlReliable,omitempty"`
	ErrorMessage string `json:"error,omitempty"`
}

type PublishResponse struct {
	PostID  string                     `json:"post_id"`
	Status  string                     `json:"status"`
	Results map[string]PlatformOutcome `json:"results"`
}

type PostDetails struct {
	Post    *models.SocialPost         `json:"post"`
	Results []*models.SocialPostResult `json:"results"`
}
