// Package container provides dependency injection and lifecycle management
// for the drivehub server.
package container

import (
	"context"
	"fmt"
	"io"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/garyjia/drivehub/internal/application/port"
	"github.com/garyjia/drivehub/internal/application/service"
	"github.com/garyjia/drivehub/internal/config"
	"github.com/garyjia/drivehub/internal/domain/entity"
	"github.com/garyjia/drivehub/internal/infrastructure/external/fetch"
	"github.com/garyjia/drivehub/internal/infrastructure/external/gdrive"
	"github.com/garyjia/drivehub/internal/infrastructure/persistence/sqlite"
	"github.com/garyjia/drivehub/internal/infrastructure/report"
	httpserver "github.com/garyjia/drivehub/internal/interfaces/http"
)

// StorageBundle holds the storage provider components.
type StorageBundle struct {
	// Store is the default store, bound to account 0's credential
	Store   port.ObjectStore
	Factory port.StoreFactory
	// Content is set when the provider serves object bytes itself
	Content port.ContentReader
	closer  io.Closer
}

// ExternalBundle holds adapters to systems outside the provider.
type ExternalBundle struct {
	Fetcher  port.URLFetcher
	Reporter port.ListingReporter
}

// ServiceDeps holds dependencies for creating services.
type ServiceDeps struct {
	Config   *config.Config
	Storage  *StorageBundle
	External *ExternalBundle
	Logger   *zap.Logger
}

// ProvideStorage opens the configured provider and its default store.
func ProvideStorage(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*StorageBundle, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	switch cfg.Storage.Provider {
	case config.ProviderLocal:
		store, err := sqlite.Open(ctx, sqlite.Config{
			Path:          cfg.Storage.LocalPath,
			Limit:         cfg.Storage.LocalLimit,
			PublicBaseURL: cfg.Storage.PublicBaseURL,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to open local store: %w", err)
		}
		return &StorageBundle{
			Store:   store,
			Factory: sqlite.NewFactory(store),
			Content: store,
			closer:  store,
		}, nil

	case config.ProviderGoogleDrive:
		factory := gdrive.NewFactory(gdrive.Config{
			ClientID:     cfg.Google.ClientID,
			ClientSecret: cfg.Google.ClientSecret,
			RedirectURL:  cfg.Google.RedirectURL,
		}, logger)

		token := cfg.Google.PrimaryRefreshToken()
		if token == "" {
			logger.Warn("No refresh token configured for the default account; provider calls will fail")
		}

		// the default store outlives any request, so it gets a background context
		store, err := factory.NewStore(context.Background(), token)
		if err != nil {
			return nil, fmt.Errorf("failed to create default drive store: %w", err)
		}
		return &StorageBundle{Store: store, Factory: factory}, nil

	default:
		return nil, fmt.Errorf("unknown storage provider: %q", cfg.Storage.Provider)
	}
}

// ProvideExternal creates the URL fetcher and the listing reporter.
func ProvideExternal(logger *zap.Logger) *ExternalBundle {
	return &ExternalBundle{
		Fetcher:  fetch.NewFetcher(nil, logger),
		Reporter: report.NewXLSXReporter(logger),
	}
}

// ProvideResolver builds the account resolver from configuration.
func ProvideResolver(cfg *config.Config) *service.AccountResolver {
	return service.NewAccountResolver(
		entity.Account{
			Name:         cfg.Accounts.Name1,
			RefreshToken: cfg.Google.PrimaryRefreshToken(),
			FolderID:     cfg.Google.FolderID1,
		},
		entity.Account{
			Name:         cfg.Accounts.Name2,
			RefreshToken: cfg.Google.RefreshToken2,
			FolderID:     cfg.Google.FolderID2,
		},
	)
}

// ServiceBundle groups all application services.
type ServiceBundle struct {
	Resolver *service.AccountResolver
	Files    service.FileService
	Usage    service.UsageService
}

// ProvideServices creates all application services.
func ProvideServices(deps *ServiceDeps) (*ServiceBundle, error) {
	if deps == nil {
		return nil, fmt.Errorf("service dependencies are required")
	}
	if deps.Storage == nil || deps.External == nil {
		return nil, fmt.Errorf("storage and external bundles are required")
	}

	logger := &zapLoggerAdapter{logger: deps.Logger}
	resolver := ProvideResolver(deps.Config)

	files := service.NewFileService(
		resolver,
		deps.Storage.Store,
		deps.External.Fetcher,
		deps.External.Reporter,
		service.FileServiceConfig{DeleteConcurrency: deps.Config.Storage.DeleteConcurrency},
		logger,
	)

	usage := service.NewUsageService(
		resolver,
		deps.Storage.Store,
		deps.Storage.Factory,
		service.UsageOptions{UseAccountQuota: deps.Config.Storage.QuotaSource == config.QuotaSourceAccount},
		logger,
	)

	return &ServiceBundle{Resolver: resolver, Files: files, Usage: usage}, nil
}

// ProvideHTTPServer creates the HTTP server over the services.
func ProvideHTTPServer(cfg *config.Config, services *ServiceBundle, storage *StorageBundle, logger *zap.Logger) *httpserver.Server {
	return httpserver.NewServer(
		httpserver.ServerConfig{
			Host:          cfg.Server.Host,
			Port:          cfg.Server.Port,
			ReadTimeout:   cfg.Server.ReadTimeout,
			WriteTimeout:  cfg.Server.WriteTimeout,
			IndexPath:     cfg.Server.IndexPath,
			JSONBodyLimit: cfg.Server.JSONBodyLimit,
			UploadLimit:   cfg.Server.UploadLimit,
			AdminPassword: cfg.Admin.Password,
			Mode:          ginMode(cfg.Logger.Level),
		},
		services.Resolver,
		services.Files,
		services.Usage,
		storage.Content,
		&zapLoggerAdapter{logger: logger},
	)
}

func ginMode(level string) string {
	if level == "debug" {
		return gin.DebugMode
	}
	return gin.ReleaseMode
}
