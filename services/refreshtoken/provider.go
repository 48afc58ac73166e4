package refreshtoken

import (
	"github.com/tech-arch1tect/authcore/config"
	"github.com/tech-arch1tect/authcore/services/audit"
	"github.com/tech-arch1tect/authcore/services/logging"
	"github.com/tech-arch1tect/authcore/services/metrics"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

func ProvideRefreshTokenService(db *gorm.DB, cfg *config.Config, logger *logging.Service, auditService *audit.Service, recorder *metrics.Recorder) *Service {
	return NewService(db, &cfg.RefreshToken, logger.Named("refreshtoken"), auditService, recorder)
}

var Options = fx.Options(
	fx.Provide(ProvideRefreshTokenService),
)
