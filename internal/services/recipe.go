package services

import (
	"context"
	"strings"

	"github.com/tastebud/apiserver/internal/store"
	"github.com/tastebud/apiserver/types"
)

// RecipeRepository defines persistence operations for recipes.
type RecipeRepository interface {
	List(ctx context.Context, offset, limit int, filter store.ListFilter) ([]types.Recipe, int, error)
	Get(ctx context.Context, id int) (types.Recipe, error)
	Create(ctx context.Context, recipe types.Recipe) (types.Recipe, error)
	Update(ctx context.Context, recipe types.Recipe) (types.Recipe, error)
	SetImage(ctx context.Context, id int, imageURL string) error
	Delete(ctx context.Context, id int) error
}

// RecipeService encapsulates recipe use-cases with ownership checks.
type RecipeService struct {
	repo RecipeRepository
}

func NewRecipeService(repo RecipeRepository) *RecipeService {
	return &RecipeService{repo: repo}
}

func (s *RecipeService) List(ctx context.Context, offset, limit int, filter store.ListFilter) ([]types.Recipe, int, error) {
	if limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	return s.repo.List(ctx, offset, limit, filter)
}

func (s *RecipeService) Get(ctx context.Context, id int) (types.Recipe, error) {
	return s.repo.Get(ctx, id)
}

func (s *RecipeService) Create(ctx context.Context, author types.User, recipe types.Recipe) (types.Recipe, error) {
	if err := validateRecipe(recipe); err != nil {
		return types.Recipe{}, err
	}
	recipe.AuthorID = author.ID
	recipe.Tags = normalizeTags(recipe.Tags)

	created, err := s.repo.Create(ctx, recipe)
	if err != nil {
		return types.Recipe{}, err
	}
	created.AuthorUsername = author.Username
	return created, nil
}

// Update applies an edit if the actor owns the recipe or is an admin.
func (s *RecipeService) Update(ctx context.Context, actor types.User, recipe types.Recipe) (types.Recipe, error) {
	if err := validateRecipe(recipe); err != nil {
		return types.Recipe{}, err
	}

	existing, err := s.repo.Get(ctx, recipe.ID)
	if err != nil {
		return types.Recipe{}, err
	}
	if existing.AuthorID != actor.ID && !IsAdmin(actor) {
		return types.Recipe{}, ErrForbidden
	}

	recipe.AuthorID = existing.AuthorID
	recipe.Tags = normalizeTags(recipe.Tags)
	updated, err := s.repo.Update(ctx, recipe)
	if err != nil {
		return types.Recipe{}, err
	}
	updated.AuthorUsername = existing.AuthorUsername
	updated.ImageURL = existing.ImageURL
	updated.CreatedAt = existing.CreatedAt
	return updated, nil
}

func (s *RecipeService) Delete(ctx context.Context, actor types.User, id int) error {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if existing.AuthorID != actor.ID && !IsAdmin(actor) {
		return ErrForbidden
	}
	return s.repo.Delete(ctx, id)
}

// SetImage attaches an uploaded image URL, owner or admin only.
func (s *RecipeService) SetImage(ctx context.Context, actor types.User, id int, imageURL string) error {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if existing.AuthorID != actor.ID && !IsAdmin(actor) {
		return ErrForbidden
	}
	return s.repo.SetImage(ctx, id, imageURL)
}

func validateRecipe(recipe types.Recipe) error {
	if strings.TrimSpace(recipe.Title) == "" {
		return invalid("title", "title is required")
	}
	if len(recipe.Ingredients) == 0 {
		return invalid("ingredients", "at least one ingredient is required")
	}
	if len(recipe.Instructions) == 0 {
		return invalid("instructions", "at least one instruction step is required")
	}
	if recipe.Servings < 0 {
		return invalid("servings", "servings cannot be negative")
	}
	if recipe.CookTimeMinutes < 0 {
		return invalid("cook_time_minutes", "cook time cannot be negative")
	}
	return nil
}

func normalizeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	normalized := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		normalized = append(normalized, tag)
	}
	return normalized
}
