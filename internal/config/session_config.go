package config

type SessionConfig interface {
	GetSessionCookieName() string
	GetRefreshCookieName() string
	GetProtectedPrefixes() []string
	GetAuthRoutes() []string
	GetLoginRoute() string
	GetDefaultRedirect() string
}

var _ SessionConfig = Session{}

type Session struct {
	SessionCookie     string   `env:"SESSION_COOKIE" envDefault:"access_token"`
	RefreshCookie     string   `env:"REFRESH_COOKIE" envDefault:"refresh_token"`
	ProtectedPrefixes []string `env:"PROTECTED_PREFIXES" envDefault:"/dashboard" envSeparator:","`
	AuthRoutes        []string `env:"AUTH_ROUTES" envDefault:"/login,/register" envSeparator:","`
	LoginRoute        string   `env:"LOGIN_ROUTE" envDefault:"/login"`
	DefaultRedirect   string   `env:"DEFAULT_REDIRECT" envDefault:"/dashboard"`
}

// GetSessionCookieName is the cookie whose presence the route guard checks
func (s Session) GetSessionCookieName() string {
	return s.SessionCookie
}

func (s Session) GetRefreshCookieName() string {
	return s.RefreshCookie
}

func (s Session) GetProtectedPrefixes() []string {
	return s.ProtectedPrefixes
}

func (s Session) GetAuthRoutes() []string {
	return s.AuthRoutes
}

func (s Session) GetLoginRoute() string {
	return s.LoginRoute
}

func (s Session) GetDefaultRedirect() string {
	return s.DefaultRedirect
}
