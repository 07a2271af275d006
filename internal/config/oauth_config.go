package config

import "time"

type OAuthConfig interface {
	GetOAuthTimeout() time.Duration
	GetOAuthFlowCookieName() string
}

type OAuth struct {
	Timeout    time.Duration `env:"OAUTH_TIMEOUT" envDefault:"5m"`
	FlowCookie string        `env:"OAUTH_FLOW_COOKIE" envDefault:"oauth_flow_id"`
}

var _ OAuthConfig = OAuth{}

// GetOAuthTimeout bounds how long a started OAuth login waits for its completion message
func (o OAuth) GetOAuthTimeout() time.Duration {
	return o.Timeout
}

func (o OAuth) GetOAuthFlowCookieName() string {
	return o.FlowCookie
}
