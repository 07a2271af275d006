package oauthflow

import (
	"time"

	"github.com/jrsteele09/go-account-dashboard/window"
)

// Flow is an OAuth login started from /oauth/{provider} and waiting for the
// callback page to post its outcome
type Flow struct {
	Provider  string
	ReturnURL string
	Messages  *window.Messages
	CreatedAt time.Time
}

type Repo interface {
	Upsert(id string, flow *Flow) error
	Get(id string) (*Flow, error)
	Delete(id string) error
}
