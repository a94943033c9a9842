package services

import (
	"context"

	"github.com/tastebud/apiserver/types"
)

// BookmarkRepository defines persistence operations for bookmarks.
type BookmarkRepository interface {
	Add(ctx context.Context, userID, recipeID int) error
	Remove(ctx context.Context, userID, recipeID int) error
	Exists(ctx context.Context, userID, recipeID int) (bool, error)
	ListByUser(ctx context.Context, userID int) ([]types.Recipe, error)
}

// BookmarkService encapsulates bookmark use-cases.
type BookmarkService struct {
	repo       BookmarkRepository
	recipeRepo RecipeRepository
}

func NewBookmarkService(repo BookmarkRepository, recipeRepo RecipeRepository) *BookmarkService {
	return &BookmarkService{repo: repo, recipeRepo: recipeRepo}
}

// Add bookmarks a recipe for the user. Re-adding is a no-op.
func (s *BookmarkService) Add(ctx context.Context, userID, recipeID int) error {
	if _, err := s.recipeRepo.Get(ctx, recipeID); err != nil {
		return err
	}
	return s.repo.Add(ctx, userID, recipeID)
}

func (s *BookmarkService) Remove(ctx context.Context, userID, recipeID int) error {
	return s.repo.Remove(ctx, userID, recipeID)
}

func (s *BookmarkService) ListByUser(ctx context.Context, userID int) ([]types.Recipe, error) {
	return s.repo.ListByUser(ctx, userID)
}
