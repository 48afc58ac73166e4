package metrics

import (
	"github.com/tech-arch1tect/authcore/config"
	"go.uber.org/fx"
)

// ProvideRecorder returns nil when metrics are disabled; every consumer
// accepts a nil recorder.
func ProvideRecorder(cfg *config.Config) (*Recorder, error) {
	if !cfg.Metrics.Enabled {
		return nil, nil
	}
	return NewRecorder(cfg.Metrics.Namespace)
}

var Options = fx.Options(
	fx.Provide(ProvideRecorder),
)
