package domain

// Credential is the durable unit of trust: the token pair plus the cached
// profile snapshot. AccessToken and RefreshToken are written and cleared
// together; User may lag behind the tokens between a successful login and
// the first profile fetch.
type Credential struct {
	AccessToken  string
	RefreshToken string
	User         *User
}

func (c Credential) HasAccessToken() bool  { return c.AccessToken != "" }
func (c Credential) HasRefreshToken() bool { return c.RefreshToken != "" }

// TokenPair is what the upstream auth API hands back from login and refresh.
// RefreshToken is empty when the backend does not rotate refresh tokens on
// exchange.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}
