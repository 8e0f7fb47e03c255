package model

// UserInfo is the slice of the auth platform's user object this service
// cares about. CreatedAt stays a string — it is passed through to the
// client verbatim, never parsed.
type UserInfo struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	CreatedAt string `json:"created_at,omitempty"`
}

// AuthSession is the result of a successful password-grant login.
type AuthSession struct {
	AccessToken  string   `json:"access_token"`
	TokenType    string   `json:"token_type,omitempty"`
	ExpiresIn    int      `json:"expires_in,omitempty"`
	RefreshToken string   `json:"refresh_token,omitempty"`
	User         UserInfo `json:"user"`
}
