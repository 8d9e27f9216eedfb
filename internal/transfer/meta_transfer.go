package transfer

type LongLivedTokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

type FacebookPage struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	AccessToken string   `json:"access_token"`
	Category    string   `json:"category"`
	Tasks       []string `json:"tasks"`
}

type FacebookPagesResponse struct {
	Data []FacebookPage `json:"data"`
}

type InstagramBusinessAccount struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
}

type PageInstagramResponse struct {
	ID                       string                    `json:"id"`
	InstagramBusinessAccount *InstagramBusinessAccount `json:"instagram_business_account"`
}

type GraphIDResponse struct {
	ID     string `json:"id"`
	PostID string `json:"post_id"`
}

type GraphPermalinkResponse struct {
	ID        string `json:"id"`
	Permalink string `json:"permalink"`
}

type ContainerStatusResponse struct {
	ID         string `json:"id"`
	StatusCode   string `json:"status_code"`
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
}

type MetaPermission struct {
	Permission string `json:"permission"`
	Status     string `json:"status"`
}

type MetaPermissionsResponse struct {
	Data []MetaPermission `json:"data"`
}

type GraphErrorResponse struct {
	Error struct {
		Message        string `json:"message"`
		Type           string `json:"type"`
		Code           int    `json:"code"`
		ErrorSubcode   int    `json:"error_subcode"`
		IsTransient    bool   `json:"is_transient"`
		ErrorUserTitle string `json:"error_user_title"`
		ErrorUserMsg   string `json:"error_user_msg"`
		FbtraceID      string `json:"fbtrace_id"`
	} `json:"error"`
}
