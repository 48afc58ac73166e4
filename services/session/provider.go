package session

import (
	"github.com/tech-arch1tect/authcore/config"
	"github.com/tech-arch1tect/authcore/services/account"
	"github.com/tech-arch1tect/authcore/services/audit"
	"github.com/tech-arch1tect/authcore/services/jwt"
	"github.com/tech-arch1tect/authcore/services/lockout"
	"github.com/tech-arch1tect/authcore/services/logging"
	"github.com/tech-arch1tect/authcore/services/metrics"
	"github.com/tech-arch1tect/authcore/services/password"
	"github.com/tech-arch1tect/authcore/services/refreshtoken"
	"go.uber.org/fx"
)

type Params struct {
	fx.In

	Config        *config.Config
	Accounts      *account.Store
	Passwords     *password.Service
	Tokens        *jwt.Service
	RefreshTokens *refreshtoken.Service
	Lockout       *lockout.Policy
	Logger        *logging.Service
	Audit         *audit.Service
	Metrics       *metrics.Recorder `optional:"true"`
}

func ProvideSessionService(p Params) *Service {
	return NewService(Dependencies{
		Accounts:      p.Accounts,
		Passwords:     p.Passwords,
		Tokens:        p.Tokens,
		RefreshTokens: p.RefreshTokens,
		Lockout:       p.Lockout,
		RefreshTTL:    p.Config.RefreshToken.Expiry,
		Logger:        p.Logger.Named("session"),
		Audit:         p.Audit,
		Metrics:       p.Metrics,
	})
}

var Options = fx.Options(
	fx.Provide(ProvideSessionService),
)
