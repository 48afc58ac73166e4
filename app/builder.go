package app

import (
	"errors"
	"fmt"

	"github.com/tech-arch1tect/authcore/config"
	"github.com/tech-arch1tect/authcore/database"
	"github.com/tech-arch1tect/authcore/services/account"
	"github.com/tech-arch1tect/authcore/services/audit"
	"github.com/tech-arch1tect/authcore/services/cleanup"
	"github.com/tech-arch1tect/authcore/services/jwt"
	"github.com/tech-arch1tect/authcore/services/lockout"
	"github.com/tech-arch1tect/authcore/services/logging"
	"github.com/tech-arch1tect/authcore/services/metrics"
	"github.com/tech-arch1tect/authcore/services/password"
	"github.com/tech-arch1tect/authcore/services/refreshtoken"
	"github.com/tech-arch1tect/authcore/services/session"
	"go.uber.org/fx"
)

type AppBuilder struct {
	config    *config.Config
	logger    *logging.Service
	models    []any
	fxOptions []fx.Option
	cleanup   bool
	errors    []error
}

func NewApp() *AppBuilder {
	return &AppBuilder{
		models:    make([]any, 0),
		fxOptions: make([]fx.Option, 0),
		cleanup:   true,
		errors:    make([]error, 0),
	}
}

func (b *AppBuilder) WithConfig(cfg *config.Config) *AppBuilder {
	if cfg == nil {
		b.addError("config cannot be nil")
		return b
	}
	b.config = cfg
	return b
}

func (b *AppBuilder) WithAutoConfig() *AppBuilder {
	cfg := &config.Config{}
	if err := config.LoadConfig(cfg); err != nil {
		b.addError(fmt.Sprintf("failed to load config: %v", err))
		return b
	}
	b.config = cfg
	return b
}

// WithLogger replaces the logger built from the log config.
func (b *AppBuilder) WithLogger(logger *logging.Service) *AppBuilder {
	if logger == nil {
		b.addError("logger cannot be nil")
		return b
	}
	b.logger = logger
	return b
}

// WithModels migrates additional host models alongside the built-in ones.
func (b *AppBuilder) WithModels(models ...any) *AppBuilder {
	b.models = append(b.models, models...)
	return b
}

// WithoutCleanup leaves expired tokens to an external job.
func (b *AppBuilder) WithoutCleanup() *AppBuilder {
	b.cleanup = false
	return b
}

func (b *AppBuilder) WithFxOptions(opts ...fx.Option) *AppBuilder {
	b.fxOptions = append(b.fxOptions, opts...)
	return b
}

func (b *AppBuilder) Build() (*App, error) {
	if b.config == nil && len(b.errors) == 0 {
		b.WithAutoConfig()
	}

	if err := b.validate(); err != nil {
		return nil, err
	}

	logger := b.logger
	if logger == nil {
		var err error
		logger, err = b.createLogger()
		if err != nil {
			return nil, fmt.Errorf("failed to create logger: %w", err)
		}
	}

	app := &App{
		config: b.config,
		logger: logger,
	}

	options := b.buildFxOptions(logger)
	options = append(options, fx.Populate(&app.db, &app.sessions, &app.metrics, &app.audit))

	fxApp := fx.New(options...)
	if err := fxApp.Err(); err != nil {
		return nil, fmt.Errorf("failed to build application: %w", err)
	}
	app.fx = fxApp

	return app, nil
}

func (b *AppBuilder) addError(msg string) {
	b.errors = append(b.errors, errors.New(msg))
}

func (b *AppBuilder) validate() error {
	if len(b.errors) > 0 {
		return fmt.Errorf("%w: %w", config.ErrInvalidConfig, errors.Join(b.errors...))
	}

	if b.config == nil {
		return fmt.Errorf("%w: config required", config.ErrInvalidConfig)
	}

	return b.config.Validate()
}

func (b *AppBuilder) createLogger() (*logging.Service, error) {
	if b.config == nil {
		return nil, fmt.Errorf("config required for logger creation")
	}

	return logging.NewService(logging.Config{
		Level:      logging.LogLevel(b.config.Log.Level),
		Format:     b.config.Log.Format,
		OutputPath: b.config.Log.Output,
		Name:       b.config.App.Name,
	})
}

func (b *AppBuilder) buildFxOptions(logger *logging.Service) []fx.Option {
	models := append([]any{
		&account.Credential{},
		&refreshtoken.RefreshToken{},
		&audit.SecurityEvent{},
	}, b.models...)

	options := []fx.Option{
		fx.Supply(b.config),
		fx.Supply(logger),
		fx.Supply(database.WithModels(models...)),
		fx.NopLogger,
		database.Module,
		metrics.Options,
		audit.Options,
		password.Module,
		jwt.Options,
		account.Options,
		refreshtoken.Options,
		lockout.Options,
		session.Options,
	}

	if b.cleanup {
		options = append(options, cleanup.Options)
	}

	return append(options, b.fxOptions...)
}
