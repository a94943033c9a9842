package services

import (
	"context"
	"strings"

	"github.com/tastebud/apiserver/types"
)

const maxCommentLen = 2000

// CommentRepository defines persistence operations for comments.
type CommentRepository interface {
	ListByRecipe(ctx context.Context, recipeID int) ([]types.Comment, error)
	Get(ctx context.Context, id int) (types.Comment, error)
	Create(ctx context.Context, comment types.Comment) (types.Comment, error)
	Delete(ctx context.Context, id int) error
}

// CommentService encapsulates comment use-cases.
type CommentService struct {
	repo       CommentRepository
	recipeRepo RecipeRepository
}

func NewCommentService(repo CommentRepository, recipeRepo RecipeRepository) *CommentService {
	return &CommentService{repo: repo, recipeRepo: recipeRepo}
}

func (s *CommentService) ListByRecipe(ctx context.Context, recipeID int) ([]types.Comment, error) {
	if _, err := s.recipeRepo.Get(ctx, recipeID); err != nil {
		return nil, err
	}
	return s.repo.ListByRecipe(ctx, recipeID)
}

func (s *CommentService) Create(ctx context.Context, author types.User, recipeID int, body string) (types.Comment, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return types.Comment{}, invalid("body", "comment body is required")
	}
	if len(body) > maxCommentLen {
		return types.Comment{}, invalid("body", "comment is too long")
	}

	if _, err := s.recipeRepo.Get(ctx, recipeID); err != nil {
		return types.Comment{}, err
	}

	created, err := s.repo.Create(ctx, types.Comment{
		RecipeID: recipeID,
		AuthorID: author.ID,
		Body:     body,
	})
	if err != nil {
		return types.Comment{}, err
	}
	created.AuthorUsername = author.Username
	return created, nil
}

// Delete removes a comment. Allowed for the comment author, the owner
// of the recipe it sits on, and admins.
func (s *CommentService) Delete(ctx context.Context, actor types.User, id int) error {
	comment, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}

	if comment.AuthorID != actor.ID && !IsAdmin(actor) {
		recipe, err := s.recipeRepo.Get(ctx, comment.RecipeID)
		if err != nil {
			return err
		}
		if recipe.AuthorID != actor.ID {
			return ErrForbidden
		}
	}
	return s.repo.Delete(ctx, id)
}
