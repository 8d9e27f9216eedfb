package transfer

type LinkedInOrganizationAcl struct {
	Organization string `json:"organization"`
	Role         string `json:"role"`
	State        string `json:"state"`
}

type LinkedInOrganizationAclsResponse struct {
	Elements []LinkedInOrganizationAcl `json:"elements"`
}

type LinkedInOrganization struct {
	ID            int64  `json:"id"`
	LocalizedName string `json:"localizedName"`
	VanityName    string `json:"vanityName"`
}

type LinkedInInitializeUploadRequest struct {
	InitializeUploadRequest struct {
		Owner string `json:"owner"`
	} `json:"initializeUploadRequest"`
}

type LinkedInInitializeUploadResponse struct {
	Value struct {
		UploadURL          string `json:"uploadUrl"`
		UploadURLExpiresAt int64  `json:"uploadUrlExpiresAt"`
		Image              string `json:"image"`
	} `json:"value"`
}

type LinkedInMediaContent struct {
	ID      string `json:"id"`
	AltText string `json:"altText,omitempty"`
}

type LinkedInMultiImageContent struct {
	Images []LinkedInMediaContent `json:"images"`
}

type LinkedInPostContent struct {
	Media      *LinkedInMediaContent      `json:"media,omitempty"`
	MultiImage *LinkedInMultiImageContent `json:"multiImage,omitempty"`
}

type LinkedInDistribution struct {
	FeedDistribution               string   `json:"feedDistribution"`
	TargetEntities                 []string `json:"targetEntities"`
	ThirdPartyDistributionChannels []string `json:"thirdPartyDistributionChannels"`
}

type LinkedInPostRequest struct {
	Author                    string               `json:"author"`
	Commentary                string               `json:"commentary"`
	Visibility                string               `json:"visibility"`
	Distribution              LinkedInDistribution `json:"distribution"`
	Content                   LinkedInPostContent  `json:"content"`
	LifecycleState            string               `json:"lifecycleState"`
	IsReshareDisabledByAuthor bool                 `json:"isReshareDisabledByAuthor"`
}

type LinkedInErrorResponse struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Code    string `json:"code"`
}
