package cleanup

import (
	"github.com/tech-arch1tect/authcore/config"
	"github.com/tech-arch1tect/authcore/services/logging"
	"github.com/tech-arch1tect/authcore/services/metrics"
	"github.com/tech-arch1tect/authcore/services/refreshtoken"
	"go.uber.org/fx"
)

func ProvideScheduler(cfg *config.Config, tokens *refreshtoken.Service, logger *logging.Service, recorder *metrics.Recorder) *Scheduler {
	return NewScheduler(tokens, cfg.RefreshToken.CleanupInterval, cfg.RefreshToken.RevokedRetention, logger.Named("cleanup"), recorder)
}

func RegisterLifecycle(lc fx.Lifecycle, scheduler *Scheduler) {
	lc.Append(fx.Hook{
		OnStart: scheduler.Start,
		OnStop:  scheduler.Stop,
	})
}

var Options = fx.Options(
	fx.Provide(ProvideScheduler),
	fx.Invoke(RegisterLifecycle),
)
