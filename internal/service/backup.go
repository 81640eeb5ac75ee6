package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/templui/linkstash/internal/model"
	"github.com/templui/linkstash/internal/repository"
	"github.com/templui/linkstash/internal/sqlclient"
)

type BackupService struct {
	exec sqlclient.Executor
	now  func() time.Time
}

func NewBackupService(exec sqlclient.Executor) *BackupService {
	return &BackupService{exec: exec, now: time.Now}
}

func (s *BackupService) Export(ctx context.Context, scope repository.Scope) (*model.Export, error) {
	return repository.New(s.exec, scope).Export(ctx, s.now().UTC())
}

// Import restores an envelope into the owner's account. Slugs already taken
// and links that fail validation are reported rather than failing the import.
func (s *BackupService) Import(ctx context.Context, scope repository.Scope, env *model.Export) (*model.ImportResult, error) {
	res, err := repository.New(s.exec, scope).Import(ctx, env)
	if err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "import completed",
		"owner", scope.OwnerID(),
		"links", res.Links,
		"skipped", len(res.SkippedSlugs),
		"rejected", len(res.Rejected),
	)
	return res, nil
}
