package services

import (
	"context"
	"time"

	"github.com/tastebud/apiserver/internal/store"
	"github.com/tastebud/apiserver/types"
)

type fakeRecipeRepo struct {
	nextID  int
	recipes map[int]types.Recipe
}

func newFakeRecipeRepo() *fakeRecipeRepo {
	return &fakeRecipeRepo{nextID: 1, recipes: make(map[int]types.Recipe)}
}

func (r *fakeRecipeRepo) List(_ context.Context, offset, limit int, filter store.ListFilter) ([]types.Recipe, int, error) {
	var all []types.Recipe
	for _, recipe := range r.recipes {
		if filter.AuthorID != 0 && recipe.AuthorID != filter.AuthorID {
			continue
		}
		if filter.Tag != "" && !containsTag(recipe.Tags, filter.Tag) {
			continue
		}
		all = append(all, recipe)
	}
	total := len(all)
	if offset >= len(all) {
		return nil, total, nil
	}
	all = all[offset:]
	if limit < len(all) {
		all = all[:limit]
	}
	return all, total, nil
}

func containsTag(tags []string, tag string) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}

func (r *fakeRecipeRepo) Get(_ context.Context, id int) (types.Recipe, error) {
	recipe, ok := r.recipes[id]
	if !ok {
		return types.Recipe{}, store.ErrNotFound
	}
	return recipe, nil
}

func (r *fakeRecipeRepo) Create(_ context.Context, recipe types.Recipe) (types.Recipe, error) {
	recipe.ID = r.nextID
	r.nextID++
	now := time.Now()
	recipe.CreatedAt = now
	recipe.UpdatedAt = now
	r.recipes[recipe.ID] = recipe
	return recipe, nil
}

func (r *fakeRecipeRepo) Update(_ context.Context, recipe types.Recipe) (types.Recipe, error) {
	existing, ok := r.recipes[recipe.ID]
	if !ok {
		return types.Recipe{}, store.ErrNotFound
	}
	// The SQL repository never touches these columns on update.
	recipe.AuthorID = existing.AuthorID
	recipe.ImageURL = existing.ImageURL
	recipe.CreatedAt = existing.CreatedAt
	recipe.UpdatedAt = time.Now()
	r.recipes[recipe.ID] = recipe
	return recipe, nil
}

func (r *fakeRecipeRepo) SetImage(_ context.Context, id int, imageURL string) error {
	recipe, ok := r.recipes[id]
	if !ok {
		return store.ErrNotFound
	}
	recipe.ImageURL = imageURL
	r.recipes[id] = recipe
	return nil
}

func (r *fakeRecipeRepo) Delete(_ context.Context, id int) error {
	if _, ok := r.recipes[id]; !ok {
		return store.ErrNotFound
	}
	delete(r.recipes, id)
	return nil
}

type fakeCommentRepo struct {
	nextID   int
	comments map[int]types.Comment
}

func newFakeCommentRepo() *fakeCommentRepo {
	return &fakeCommentRepo{nextID: 1, comments: make(map[int]types.Comment)}
}

func (r *fakeCommentRepo) ListByRecipe(_ context.Context, recipeID int) ([]types.Comment, error) {
	var out []types.Comment
	for _, comment := range r.comments {
		if comment.RecipeID == recipeID {
			out = append(out, comment)
		}
	}
	return out, nil
}

func (r *fakeCommentRepo) Get(_ context.Context, id int) (types.Comment, error) {
	comment, ok := r.comments[id]
	if !ok {
		return types.Comment{}, store.ErrNotFound
	}
	return comment, nil
}

func (r *fakeCommentRepo) Create(_ context.Context, comment types.Comment) (types.Comment, error) {
	comment.ID = r.nextID
	r.nextID++
	comment.CreatedAt = time.Now()
	r.comments[comment.ID] = comment
	return comment, nil
}

func (r *fakeCommentRepo) Delete(_ context.Context, id int) error {
	if _, ok := r.comments[id]; !ok {
		return store.ErrNotFound
	}
	delete(r.comments, id)
	return nil
}

type bookmarkKey struct{ userID, recipeID int }

type fakeBookmarkRepo struct {
	bookmarks map[bookmarkKey]time.Time
	recipes   *fakeRecipeRepo
}

func newFakeBookmarkRepo(recipes *fakeRecipeRepo) *fakeBookmarkRepo {
	return &fakeBookmarkRepo{bookmarks: make(map[bookmarkKey]time.Time), recipes: recipes}
}

func (r *fakeBookmarkRepo) Add(_ context.Context, userID, recipeID int) error {
	key := bookmarkKey{userID, recipeID}
	if _, ok := r.bookmarks[key]; !ok {
		r.bookmarks[key] = time.Now()
	}
	return nil
}

func (r *fakeBookmarkRepo) Remove(_ context.Context, userID, recipeID int) error {
	key := bookmarkKey{userID, recipeID}
	if _, ok := r.bookmarks[key]; !ok {
		return store.ErrNotFound
	}
	delete(r.bookmarks, key)
	return nil
}

func (r *fakeBookmarkRepo) Exists(_ context.Context, userID, recipeID int) (bool, error) {
	_, ok := r.bookmarks[bookmarkKey{userID, recipeID}]
	return ok, nil
}

func (r *fakeBookmarkRepo) ListByUser(ctx context.Context, userID int) ([]types.Recipe, error) {
	var out []types.Recipe
	for key := range r.bookmarks {
		if key.userID != userID {
			continue
		}
		recipe, err := r.recipes.Get(ctx, key.recipeID)
		if err != nil {
			continue
		}
		out = append(out, recipe)
	}
	return out, nil
}
