package handlers

import (
	"time"

	"gorm.io/gorm"

	"github.com/tuitionhub/server/internal/auth"
	"github.com/tuitionhub/server/internal/logging"
	"github.com/tuitionhub/server/internal/notify"
	"github.com/tuitionhub/server/internal/ratelimit"
)

// Env carries what every handler needs. Handler constructors take it and
// return an http.HandlerFunc.
type Env struct {
	DB       *gorm.DB
	Log      logging.Logger
	Mailer   notify.Mailer // nil disables receipts
	Sessions *auth.Sessions
	Limiter  ratelimit.Limiter // nil disables throttling
	BaseURL  string
	Loc      *time.Location
	Now      func() time.Time
}

func (env *Env) now() time.Time {
	if env.Now != nil {
		return env.Now()
	}
	return time.Now()
}

// registrationURL is the public link encoded in a batch's QR code.
func (env *Env) registrationURL(token string) string {
	return env.BaseURL + "/r/" + token
}
