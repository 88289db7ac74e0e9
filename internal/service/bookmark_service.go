package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bedrik/gospelbot/internal/models"
	"github.com/bedrik/gospelbot/internal/repository"
)

// BookmarkService keeps each user's saved passage references.
type BookmarkService struct {
	log  *slog.Logger
	repo repository.BookmarkRepository
}

func NewBookmarkService(log *slog.Logger, repo repository.BookmarkRepository) *BookmarkService {
	return &BookmarkService{log: log, repo: repo}
}

// Add saves the reference for the user. Returns false without error when it
// is already saved, so a double-tap on the button stays a single row.
func (s *BookmarkService) Add(ctx context.Context, userID int64, reference string) (bool, error) {
	if reference == "" {
		return false, fmt.Errorf("add bookmark: empty reference")
	}
	existing, err := s.repo.Find(ctx, userID, reference)
	if err != nil {
		return false, fmt.Errorf("add bookmark: %w", err)
	}
	if existing != nil {
		return false, nil
	}
	if err := s.repo.Create(ctx, &models.Bookmark{UserID: userID, Reference: reference}); err != nil {
		return false, fmt.Errorf("add bookmark: %w", err)
	}
	s.log.Info("bookmark added", "user_id", userID, "reference", reference)
	return true, nil
}

// List returns the user's bookmarks oldest first.
func (s *BookmarkService) List(ctx context.Context, userID int64) ([]models.Bookmark, error) {
	list, err := s.repo.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list bookmarks: %w", err)
	}
	return list, nil
}

// Remove deletes the bookmark by id, scoped to the user so one user cannot
// remove another's rows. Returns false when nothing matched.
func (s *BookmarkService) Remove(ctx context.Context, userID, id int64) (bool, error) {
	removed, err := s.repo.Delete(ctx, userID, id)
	if err != nil {
		return false, fmt.Errorf("remove bookmark: %w", err)
	}
	if removed {
		s.log.Info("bookmark removed", "user_id", userID, "bookmark_id", id)
	}
	return removed, nil
}

// Get resolves a bookmark id back to its row, again scoped to the user.
func (s *BookmarkService) Get(ctx context.Context, userID, id int64) (*models.Bookmark, error) {
	list, err := s.repo.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get bookmark: %w", err)
	}
	for i := range list {
		if list[i].ID == id {
			return &list[i], nil
		}
	}
	return nil, nil
}
