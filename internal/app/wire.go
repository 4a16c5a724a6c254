//go:build wireinject
// +build wireinject

package app

import (
	"context"

	"github.com/google/wire"
	"github.com/spf13/viper"

	"github.com/philly/arch-blog/reader/internal/platform/eventbus"
	"github.com/philly/arch-blog/reader/internal/platform/logger"
	"github.com/philly/arch-blog/reader/internal/posts/application"
)

// InitializeApp creates a fully configured App with all dependencies.
// v carries defaults and bound CLI flags; see NewViper.
func InitializeApp(ctx context.Context, bootstrapLogger *logger.BootstrapLogger, v *viper.Viper) (*App, func(), error) {
	wire.Build(
		// Configuration
		LoadConfig,

		// Logging
		logger.ProviderSet,

		// Platform services
		eventbus.ProviderSet,

		// Application services
		application.ProviderSet,

		// Remote client, store, navigation, metrics and the App itself
		ProviderSet,
	)

	return nil, nil, nil
}
