package services

import (
	"context"

	"drivebox/app/models"
	"drivebox/app/repositories"
	"drivebox/pkg/orm"
)

// AdminService backs the admin endpoints: the accounts overview and the
// manual sweep trigger.
type AdminService struct {
	users   *repositories.UserRepository
	folders *repositories.FolderRepository
	files   *repositories.FileRepository
	sweep   *SweepService
}

func NewAdminService(users *repositories.UserRepository, folders *repositories.FolderRepository, files *repositories.FileRepository, sweep *SweepService) *AdminService {
	return &AdminService{users: users, folders: folders, files: files, sweep: sweep}
}

// UserOverview is one account plus its live usage rollup.
type UserOverview struct {
	User    models.User
	Folders int64
	Files   int64
	Bytes   int64
}

// ListUsers returns one page of accounts with their usage.
func (s *AdminService) ListUsers(ctx context.Context, page, perPage int) ([]UserOverview, orm.Pagination, error) {
	users, pagination, err := s.users.All(ctx, page, perPage)
	if err != nil {
		return nil, pagination, err
	}

	folderCounts, err := s.folders.CountByUser(ctx)
	if err != nil {
		return nil, pagination, err
	}
	usage, err := s.files.UsageByUser(ctx)
	if err != nil {
		return nil, pagination, err
	}

	overviews := make([]UserOverview, 0, len(users))
	for _, u := range users {
		overviews = append(overviews, UserOverview{
			User:    u,
			Folders: folderCounts[u.ID],
			Files:   usage[u.ID].Count,
			Bytes:   usage[u.ID].Bytes,
		})
	}
	return overviews, pagination, nil
}

// RunSweep triggers one reconciliation pass and reports removals.
func (s *AdminService) RunSweep(ctx context.Context) (int, error) {
	return s.sweep.Run(ctx)
}
