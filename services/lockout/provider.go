package lockout

import (
	"github.com/tech-arch1tect/authcore/config"
	"github.com/tech-arch1tect/authcore/services/account"
	"github.com/tech-arch1tect/authcore/services/audit"
	"github.com/tech-arch1tect/authcore/services/logging"
	"github.com/tech-arch1tect/authcore/services/metrics"
	"go.uber.org/fx"
)

func ProvidePolicy(store *account.Store, cfg *config.Config, logger *logging.Service, auditService *audit.Service, recorder *metrics.Recorder) *Policy {
	return NewPolicy(store, &cfg.Lockout, logger.Named("lockout"), auditService, recorder)
}

var Options = fx.Options(
	fx.Provide(ProvidePolicy),
)
