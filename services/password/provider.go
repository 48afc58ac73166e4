package password

import (
	"github.com/tech-arch1tect/authcore/config"
	"github.com/tech-arch1tect/authcore/services/logging"
	"go.uber.org/fx"
)

func ProvidePasswordService(cfg *config.Config, logger *logging.Service) *Service {
	return NewService(&cfg.Auth, logger)
}

var Module = fx.Options(
	fx.Provide(ProvidePasswordService),
)
