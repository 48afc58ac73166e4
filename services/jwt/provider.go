package jwt

import (
	"github.com/tech-arch1tect/authcore/config"
	"github.com/tech-arch1tect/authcore/services/logging"
	"go.uber.org/fx"
)

func NewJWTService(cfg *config.Config, logger *logging.Service) (*Service, error) {
	return NewService(&cfg.JWT, logger)
}

var Options = fx.Options(
	fx.Provide(NewJWTService),
)
