// Package authcore manages credentials and session tokens: password
// hashing, access token issuance, rotating refresh tokens with reuse
// detection, account lockout and expired token cleanup.
package authcore

import (
	"github.com/tech-arch1tect/authcore/app"
	"github.com/tech-arch1tect/authcore/config"
	"github.com/tech-arch1tect/authcore/internal/options"
	"github.com/tech-arch1tect/authcore/services/logging"
	"go.uber.org/fx"
)

type (
	App    = app.App
	Option = options.Option
)

// New assembles an App. Without WithConfig the configuration is read from
// the environment.
func New(opts ...Option) (*App, error) {
	o := options.Apply(opts...)

	builder := app.NewApp()
	if o.Config != nil {
		builder.WithConfig(o.Config)
	}
	if o.Logger != nil {
		builder.WithLogger(o.Logger)
	}
	if o.DisableCleanup {
		builder.WithoutCleanup()
	}

	return builder.
		WithModels(o.Models...).
		WithFxOptions(o.ExtraFxOptions...).
		Build()
}

func WithConfig(cfg *config.Config) Option {
	return options.WithConfig(cfg)
}

func WithLogger(logger *logging.Service) Option {
	return options.WithLogger(logger)
}

// WithModels migrates host models into the same database.
func WithModels(models ...any) Option {
	return options.WithModels(models...)
}

func WithoutCleanup() Option {
	return options.WithoutCleanup()
}

func WithFxOptions(opts ...fx.Option) Option {
	return options.WithFxOptions(opts...)
}
