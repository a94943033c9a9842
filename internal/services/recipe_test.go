package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tastebud/apiserver/internal/store"
	"github.com/tastebud/apiserver/types"
)

var (
	author = types.User{ID: 1, Username: "chef_amelia", Role: "user"}
	other  = types.User{ID: 2, Username: "sourdough_sam", Role: "user"}
	admin  = types.User{ID: 3, Username: "root", Role: "admin"}
)

func validRecipe() types.Recipe {
	return types.Recipe{
		Title:        "Cacio e Pepe",
		Description:  "Fast pasta.",
		Ingredients:  []string{"spaghetti", "pecorino", "pepper"},
		Instructions: []string{"boil", "toss"},
		Tags:         []string{"Pasta", "pasta", " Quick "},
		Servings:     4,
	}
}

func TestRecipeCreateNormalizesTags(t *testing.T) {
	svc := NewRecipeService(newFakeRecipeRepo())

	created, err := svc.Create(context.Background(), author, validRecipe())
	require.NoError(t, err)
	assert.Equal(t, author.ID, created.AuthorID)
	assert.Equal(t, author.Username, created.AuthorUsername)
	assert.Equal(t, []string{"pasta", "quick"}, created.Tags)
}

func TestRecipeCreateValidation(t *testing.T) {
	svc := NewRecipeService(newFakeRecipeRepo())

	recipe := validRecipe()
	recipe.Title = "  "
	_, err := svc.Create(context.Background(), author, recipe)
	var validationErr *ValidationError
	assert.ErrorAs(t, err, &validationErr)

	recipe = validRecipe()
	recipe.Ingredients = nil
	_, err = svc.Create(context.Background(), author, recipe)
	assert.ErrorAs(t, err, &validationErr)
}

func TestRecipeUpdateOwnership(t *testing.T) {
	repo := newFakeRecipeRepo()
	svc := NewRecipeService(repo)

	created, err := svc.Create(context.Background(), author, validRecipe())
	require.NoError(t, err)

	edit := validRecipe()
	edit.ID = created.ID
	edit.Title = "Better Cacio e Pepe"

	_, err = svc.Update(context.Background(), other, edit)
	assert.ErrorIs(t, err, ErrForbidden)

	updated, err := svc.Update(context.Background(), author, edit)
	require.NoError(t, err)
	assert.Equal(t, "Better Cacio e Pepe", updated.Title)
	assert.Equal(t, author.ID, updated.AuthorID)

	// Admins can edit anyone's recipe.
	edit.Title = "Admin Edit"
	_, err = svc.Update(context.Background(), admin, edit)
	assert.NoError(t, err)
}

func TestRecipeDeleteOwnership(t *testing.T) {
	repo := newFakeRecipeRepo()
	svc := NewRecipeService(repo)

	created, err := svc.Create(context.Background(), author, validRecipe())
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Delete(context.Background(), other, created.ID), ErrForbidden)
	assert.NoError(t, svc.Delete(context.Background(), author, created.ID))
	assert.ErrorIs(t, svc.Delete(context.Background(), author, created.ID), store.ErrNotFound)
}

func TestCommentDeletePermissions(t *testing.T) {
	recipeRepo := newFakeRecipeRepo()
	recipeSvc := NewRecipeService(recipeRepo)
	commentSvc := NewCommentService(newFakeCommentRepo(), recipeRepo)

	recipe, err := recipeSvc.Create(context.Background(), author, validRecipe())
	require.NoError(t, err)

	comment, err := commentSvc.Create(context.Background(), other, recipe.ID, "lovely")
	require.NoError(t, err)

	bystander := types.User{ID: 9, Username: "lurker", Role: "user"}
	assert.ErrorIs(t, commentSvc.Delete(context.Background(), bystander, comment.ID), ErrForbidden)

	// The recipe owner may moderate comments on their recipe.
	assert.NoError(t, commentSvc.Delete(context.Background(), author, comment.ID))

	comment, err = commentSvc.Create(context.Background(), other, recipe.ID, "again")
	require.NoError(t, err)
	// The comment author may remove their own.
	assert.NoError(t, commentSvc.Delete(context.Background(), other, comment.ID))
}

func TestCommentOnMissingRecipe(t *testing.T) {
	recipeRepo := newFakeRecipeRepo()
	commentSvc := NewCommentService(newFakeCommentRepo(), recipeRepo)

	_, err := commentSvc.Create(context.Background(), author, 404, "hello?")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestBookmarkAddIsIdempotent(t *testing.T) {
	recipeRepo := newFakeRecipeRepo()
	recipeSvc := NewRecipeService(recipeRepo)
	bookmarkSvc := NewBookmarkService(newFakeBookmarkRepo(recipeRepo), recipeRepo)

	recipe, err := recipeSvc.Create(context.Background(), author, validRecipe())
	require.NoError(t, err)

	require.NoError(t, bookmarkSvc.Add(context.Background(), other.ID, recipe.ID))
	require.NoError(t, bookmarkSvc.Add(context.Background(), other.ID, recipe.ID))

	mine, err := bookmarkSvc.ListByUser(context.Background(), other.ID)
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	require.NoError(t, bookmarkSvc.Remove(context.Background(), other.ID, recipe.ID))
	assert.ErrorIs(t, bookmarkSvc.Remove(context.Background(), other.ID, recipe.ID), store.ErrNotFound)
}

func TestBookmarkMissingRecipe(t *testing.T) {
	recipeRepo := newFakeRecipeRepo()
	bookmarkSvc := NewBookmarkService(newFakeBookmarkRepo(recipeRepo), recipeRepo)

	assert.ErrorIs(t, bookmarkSvc.Add(context.Background(), other.ID, 404), store.ErrNotFound)
}
