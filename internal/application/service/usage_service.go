package service

import (
	"context"
	"fmt"

	"github.com/garyjia/drivehub/internal/application/port"
	"github.com/garyjia/drivehub/internal/domain/entity"
)

const sizePageSize = 1000

// UsageService reports storage usage per folder and per account
type UsageService interface {
	FolderSize(ctx context.Context, store port.ObjectStore, folderID string) int64
	FolderStats(ctx context.Context, index int) (*entity.FolderStats, error)
	ServerUsage(ctx context.Context) ([]entity.ServerUsage, error)
}

// UsageOptions tunes how limits are derived
type UsageOptions struct {
	// UseAccountQuota makes FolderStats use the account's real limit instead
	// of the fixed 15 GiB ceiling.
	UseAccountQuota bool
}

type usageServiceImpl struct {
	resolver *AccountResolver
	store    port.ObjectStore
	factory  port.StoreFactory
	opts     UsageOptions
	logger   Logger
}

// NewUsageService creates a new UsageService. store is the default store used
// for public stats; factory builds per-account stores for ServerUsage.
func NewUsageService(
	resolver *AccountResolver,
	store port.ObjectStore,
	factory port.StoreFactory,
	opts UsageOptions,
	logger Logger,
) UsageService {
	return &usageServiceImpl{
		resolver: resolver,
		store:    store,
		factory:  factory,
		opts:     opts,
		logger:   logger,
	}
}

// FolderSize walks every page of folderID and sums reported sizes.
// Provider errors end the walk and are logged; the partial sum is returned.
func (s *usageServiceImpl) FolderSize(ctx context.Context, store port.ObjectStore, folderID string) int64 {
	var total int64
	pageToken := ""

	for {
		page, err := store.List(ctx, port.ListQuery{
			ContainerID: folderID,
			PageToken:   pageToken,
			PageSize:    sizePageSize,
		})
		if err != nil {
			s.logger.Warn("Folder size walk aborted, returning partial sum",
				"folder_id", folderID,
				"partial_bytes", total,
				"error", err)
			return total
		}

		for _, obj := range page.Objects {
			total += obj.Size
		}

		if page.NextPageToken == "" {
			return total
		}
		pageToken = page.NextPageToken
	}
}

// FolderStats counts the files of one account's folder and relates its size to a limit
func (s *usageServiceImpl) FolderStats(ctx context.Context, index int) (*entity.FolderStats, error) {
	account := s.resolver.Resolve(index)

	page, err := s.store.List(ctx, port.ListQuery{
		ContainerID: account.FolderID,
		PageSize:    entity.StatsListLimit,
	})
	if err != nil {
		return nil, err
	}

	stats := &entity.FolderStats{
		TotalFiles: len(page.Objects),
		UsedBytes:  s.FolderSize(ctx, s.store, account.FolderID),
		LimitBytes: entity.DefaultQuotaLimit,
	}

	if s.opts.UseAccountQuota {
		quota, err := s.store.Quota(ctx)
		if err != nil {
			return nil, err
		}
		stats.LimitBytes = quota.Limit
	}

	return stats, nil
}

// ServerUsage builds a fresh store per configured account and breaks its
// quota down into folder, other Drive, and mail usage. Accounts run
// sequentially; an account without a token reports an error entry instead.
func (s *usageServiceImpl) ServerUsage(ctx context.Context) ([]entity.ServerUsage, error) {
	accounts := s.resolver.Accounts()
	servers := make([]entity.ServerUsage, 0, len(accounts))

	for _, account := range accounts {
		if !account.HasCredential() {
			servers = append(servers, entity.ServerUsage{
				Name:  account.Name,
				Error: "token not configured",
			})
			continue
		}

		store, err := s.factory.NewStore(ctx, account.RefreshToken)
		if err != nil {
			return nil, fmt.Errorf("account %d: %w", account.Index, err)
		}

		quota, err := store.Quota(ctx)
		if err != nil {
			return nil, err
		}

		limit := quota.Limit
		if limit == 0 {
			limit = entity.DefaultQuotaLimit
		}
		driveOnly := quota.UsageInDrive
		web := s.FolderSize(ctx, store, account.FolderID)

		servers = append(servers, entity.ServerUsage{
			Name:       account.Name,
			Limit:      limit,
			Total:      quota.Usage,
			Web:        web,
			OtherDrive: max(0, driveOnly-web),
			Mail:       max(0, quota.Usage-driveOnly),
		})
	}

	return servers, nil
}
