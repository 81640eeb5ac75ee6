package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/templui/linkstash/internal/apperr"
	"github.com/templui/linkstash/internal/model"
	"github.com/templui/linkstash/internal/repository"
	"github.com/templui/linkstash/internal/retry"
	"github.com/templui/linkstash/internal/slug"
	"github.com/templui/linkstash/internal/sqlclient"
	"github.com/templui/linkstash/internal/validation"
)

// CreateLinkInput is a new link. An empty Slug asks for a generated one.
type CreateLinkInput struct {
	model.LinkInput
	Slug   string  `json:"slug,omitempty"`
	TagIDs []int64 `json:"tagIds,omitempty"`
}

// LinkService manages an owner's links, folders and tags.
type LinkService struct {
	exec      sqlclient.Executor
	allocator *slug.Allocator
	redirects *RedirectService
	policy    retry.Policy
}

func NewLinkService(exec sqlclient.Executor, allocator *slug.Allocator, redirects *RedirectService) *LinkService {
	return &LinkService{
		exec:      exec,
		allocator: allocator,
		redirects: redirects,
		policy:    retry.Policy{MaxAttempts: slug.DefaultMaxAttempts},
	}
}

func (s *LinkService) repo(scope repository.Scope) *repository.Repository {
	return repository.New(s.exec, scope)
}

// Create stores a link under a custom or generated slug. Generated slugs are
// re-allocated when the insert loses a race for the slug.
func (s *LinkService) Create(ctx context.Context, scope repository.Scope, in CreateLinkInput) (*model.Link, error) {
	repo := s.repo(scope)

	input, err := s.checkInput(ctx, repo, in.LinkInput)
	if err != nil {
		return nil, err
	}

	var link *model.Link
	if in.Slug != "" {
		custom, err := s.allocator.Custom(ctx, in.Slug)
		if err != nil {
			return nil, err
		}
		link, err = repo.CreateLink(ctx, custom, true, input)
		if err != nil {
			return nil, s.slugError(err)
		}
	} else {
		err = s.policy.Do(ctx, func(ctx context.Context, attempt int) error {
			candidate, err := s.allocator.Generate(ctx)
			if err != nil {
				return err
			}
			link, err = repo.CreateLink(ctx, candidate, false, input)
			if errors.Is(err, apperr.ErrConflict) {
				slog.DebugContext(ctx, "generated slug lost insert race", "attempt", attempt)
				return retry.Retryable(err)
			}
			return err
		})
		if errors.Is(err, retry.ErrExhausted) {
			return nil, apperr.Exhausted("could not allocate a unique short link, try again", err)
		}
		if err != nil {
			return nil, err
		}
	}

	// A link that cannot be tagged is removed again so a retried create does
	// not leave a duplicate behind.
	if len(in.TagIDs) > 0 {
		if _, err := repo.SetLinkTags(ctx, link.ID, in.TagIDs); err != nil {
			if _, delErr := repo.DeleteLink(ctx, link.ID); delErr != nil {
				slog.ErrorContext(ctx, "failed to remove untagged link", "error", delErr, "link_id", link.ID)
			}
			return nil, fmt.Errorf("failed to tag link: %w", err)
		}
	}

	slog.InfoContext(ctx, "link created", "owner", scope.OwnerID(), "link_id", link.ID, "custom", link.IsCustom)
	return link, nil
}

func (s *LinkService) Get(ctx context.Context, scope repository.Scope, id int64) (*model.Link, error) {
	return s.repo(scope).LinkByID(ctx, id)
}

func (s *LinkService) List(ctx context.Context, scope repository.Scope, f repository.LinkFilter) ([]*model.Link, error) {
	return s.repo(scope).Links(ctx, f)
}

func (s *LinkService) ByIDs(ctx context.Context, scope repository.Scope, ids []int64) ([]*model.Link, error) {
	return s.repo(scope).LinksByIDs(ctx, ids)
}

func (s *LinkService) Update(ctx context.Context, scope repository.Scope, id int64, in model.LinkInput) (*model.Link, error) {
	repo := s.repo(scope)

	input, err := s.checkInput(ctx, repo, in)
	if err != nil {
		return nil, err
	}

	link, err := repo.UpdateLink(ctx, id, input)
	if err != nil {
		return nil, err
	}
	if link == nil {
		return nil, repository.ErrLinkNotFound
	}
	s.invalidate(link.Slug)
	return link, nil
}

// Rename moves a link to a new custom slug.
func (s *LinkService) Rename(ctx context.Context, scope repository.Scope, id int64, raw string) (*model.Link, error) {
	repo := s.repo(scope)

	old, err := repo.LinkByID(ctx, id)
	if err != nil {
		return nil, err
	}

	newSlug, err := s.allocator.Custom(ctx, raw)
	if err != nil {
		return nil, err
	}

	link, err := repo.RenameLink(ctx, id, newSlug)
	if err != nil {
		return nil, s.slugError(err)
	}
	if link == nil {
		return nil, repository.ErrLinkNotFound
	}
	s.invalidate(old.Slug, link.Slug)
	return link, nil
}

func (s *LinkService) Delete(ctx context.Context, scope repository.Scope, id int64) error {
	repo := s.repo(scope)

	link, err := repo.LinkByID(ctx, id)
	if err != nil {
		return err
	}

	deleted, err := repo.DeleteLink(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return repository.ErrLinkNotFound
	}
	s.invalidate(link.Slug)
	return nil
}

func (s *LinkService) SetTags(ctx context.Context, scope repository.Scope, id int64, tagIDs []int64) ([]*model.Tag, error) {
	repo := s.repo(scope)

	ok, err := repo.SetLinkTags(ctx, id, tagIDs)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, repository.ErrLinkNotFound
	}
	return repo.TagsForLink(ctx, id)
}

func (s *LinkService) CreateFolder(ctx context.Context, scope repository.Scope, name string) (*model.Folder, error) {
	name, err := validation.NormalizeName(name)
	if err != nil {
		return nil, err
	}
	folder, err := s.repo(scope).CreateFolder(ctx, name)
	if errors.Is(err, apperr.ErrConflict) {
		return nil, apperr.Conflict("a folder with this name already exists", err)
	}
	return folder, err
}

func (s *LinkService) Folders(ctx context.Context, scope repository.Scope) ([]*model.Folder, error) {
	return s.repo(scope).Folders(ctx)
}

func (s *LinkService) RenameFolder(ctx context.Context, scope repository.Scope, id int64, name string) (*model.Folder, error) {
	name, err := validation.NormalizeName(name)
	if err != nil {
		return nil, err
	}
	folder, err := s.repo(scope).RenameFolder(ctx, id, name)
	if errors.Is(err, apperr.ErrConflict) {
		return nil, apperr.Conflict("a folder with this name already exists", err)
	}
	if err != nil {
		return nil, err
	}
	if folder == nil {
		return nil, repository.ErrFolderNotFound
	}
	return folder, nil
}

func (s *LinkService) DeleteFolder(ctx context.Context, scope repository.Scope, id int64) error {
	deleted, err := s.repo(scope).DeleteFolder(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return repository.ErrFolderNotFound
	}
	return nil
}

func (s *LinkService) CreateTag(ctx context.Context, scope repository.Scope, name string) (*model.Tag, error) {
	name, err := validation.NormalizeName(name)
	if err != nil {
		return nil, err
	}
	tag, err := s.repo(scope).CreateTag(ctx, name)
	if errors.Is(err, apperr.ErrConflict) {
		return nil, apperr.Conflict("a tag with this name already exists", err)
	}
	return tag, err
}

func (s *LinkService) Tags(ctx context.Context, scope repository.Scope) ([]*model.Tag, error) {
	return s.repo(scope).Tags(ctx)
}

func (s *LinkService) DeleteTag(ctx context.Context, scope repository.Scope, id int64) error {
	deleted, err := s.repo(scope).DeleteTag(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return repository.ErrTagNotFound
	}
	return nil
}

// checkInput validates the URL and confirms the folder belongs to the owner,
// so a bad folder id is reported instead of silently dropped.
func (s *LinkService) checkInput(ctx context.Context, repo *repository.Repository, in model.LinkInput) (model.LinkInput, error) {
	u, err := validation.ValidateURL(in.URL)
	if err != nil {
		return in, err
	}
	in.URL = u

	if in.FolderID != nil {
		if _, err := repo.FolderByID(ctx, *in.FolderID); err != nil {
			return in, err
		}
	}
	return in, nil
}

func (s *LinkService) slugError(err error) error {
	if errors.Is(err, apperr.ErrConflict) {
		return apperr.Conflict("this short link is already taken", err)
	}
	return err
}

func (s *LinkService) invalidate(slugs ...string) {
	if s.redirects != nil {
		s.redirects.Invalidate(slugs...)
	}
}
