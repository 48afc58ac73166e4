package audit

import (
	"github.com/tech-arch1tect/authcore/config"
	"github.com/tech-arch1tect/authcore/services/logging"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

func ProvideAuditService(cfg *config.Config, db *gorm.DB, logger *logging.Service) *Service {
	if !cfg.Audit.Persist {
		return NewService(nil, logger)
	}
	return NewService(db, logger)
}

var Options = fx.Options(
	fx.Provide(ProvideAuditService),
)
