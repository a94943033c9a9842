package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"
	"github.com/tastebud/apiserver/types"
)

// RecipeRepository handles persistence for recipes.
type RecipeRepository struct {
	db *sql.DB
}

func NewRecipeRepository(db *sql.DB) *RecipeRepository {
	return &RecipeRepository{db: db}
}

// ListFilter narrows a recipe listing. Zero values mean "no filter".
type ListFilter struct {
	Tag      string
	AuthorID int
}

func (r *RecipeRepository) List(ctx context.Context, offset, limit int, filter ListFilter) ([]types.Recipe, int, error) {
	const query = `
		SELECT r.id, r.author_id, u.username, r.title, r.description,
			r.ingredients, r.instructions, r.tags, r.servings,
			r.cook_time_minutes, r.image_url,
			(SELECT count(*) FROM bookmarks b WHERE b.recipe_id = r.id),
			r.created_at, r.updated_at,
			count(*) OVER ()
		FROM recipes r
		JOIN users u ON u.id = r.author_id
		WHERE ($1 = '' OR $1 = ANY (r.tags))
		  AND ($2 = 0 OR r.author_id = $2)
		ORDER BY r.created_at DESC, r.id DESC
		OFFSET $3 LIMIT $4`

	rows, err := r.db.QueryContext(ctx, query, filter.Tag, filter.AuthorID, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var (
		recipes []types.Recipe
		total   int
	)
	for rows.Next() {
		var recipe types.Recipe
		if err := rows.Scan(
			&recipe.ID,
			&recipe.AuthorID,
			&recipe.AuthorUsername,
			&recipe.Title,
			&recipe.Description,
			pq.Array(&recipe.Ingredients),
			pq.Array(&recipe.Instructions),
			pq.Array(&recipe.Tags),
			&recipe.Servings,
			&recipe.CookTimeMinutes,
			&recipe.ImageURL,
			&recipe.BookmarkCount,
			&recipe.CreatedAt,
			&recipe.UpdatedAt,
			&total,
		); err != nil {
			return nil, 0, err
		}
		recipes = append(recipes, recipe)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return recipes, total, nil
}

func (r *RecipeRepository) Get(ctx context.Context, id int) (types.Recipe, error) {
	const query = `
		SELECT r.id, r.author_id, u.username, r.title, r.description,
			r.ingredients, r.instructions, r.tags, r.servings,
			r.cook_time_minutes, r.image_url,
			(SELECT count(*) FROM bookmarks b WHERE b.recipe_id = r.id),
			r.created_at, r.updated_at
		FROM recipes r
		JOIN users u ON u.id = r.author_id
		WHERE r.id = $1`

	var recipe types.Recipe
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&recipe.ID,
		&recipe.AuthorID,
		&recipe.AuthorUsername,
		&recipe.Title,
		&recipe.Description,
		pq.Array(&recipe.Ingredients),
		pq.Array(&recipe.Instructions),
		pq.Array(&recipe.Tags),
		&recipe.Servings,
		&recipe.CookTimeMinutes,
		&recipe.ImageURL,
		&recipe.BookmarkCount,
		&recipe.CreatedAt,
		&recipe.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Recipe{}, ErrNotFound
		}
		return types.Recipe{}, err
	}
	return recipe, nil
}

func (r *RecipeRepository) Create(ctx context.Context, recipe types.Recipe) (types.Recipe, error) {
	now := time.Now()
	recipe.CreatedAt = now
	recipe.UpdatedAt = now

	const query = `
		INSERT INTO recipes (author_id, title, description, ingredients, instructions,
			tags, servings, cook_time_minutes, image_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		recipe.AuthorID,
		recipe.Title,
		recipe.Description,
		pq.Array(recipe.Ingredients),
		pq.Array(recipe.Instructions),
		pq.Array(recipe.Tags),
		recipe.Servings,
		recipe.CookTimeMinutes,
		recipe.ImageURL,
		recipe.CreatedAt,
		recipe.UpdatedAt,
	).Scan(&recipe.ID); err != nil {
		return types.Recipe{}, err
	}
	return recipe, nil
}

func (r *RecipeRepository) Update(ctx context.Context, recipe types.Recipe) (types.Recipe, error) {
	recipe.UpdatedAt = time.Now()

	const query = `
		UPDATE recipes
		SET title = $1,
			description = $2,
			ingredients = $3,
			instructions = $4,
			tags = $5,
			servings = $6,
			cook_time_minutes = $7,
			updated_at = $8
		WHERE id = $9`
	result, err := r.db.ExecContext(
		ctx,
		query,
		recipe.Title,
		recipe.Description,
		pq.Array(recipe.Ingredients),
		pq.Array(recipe.Instructions),
		pq.Array(recipe.Tags),
		recipe.Servings,
		recipe.CookTimeMinutes,
		recipe.UpdatedAt,
		recipe.ID,
	)
	if err != nil {
		return types.Recipe{}, err
	}
	if err := requireAffected(result); err != nil {
		return types.Recipe{}, err
	}
	return recipe, nil
}

func (r *RecipeRepository) SetImage(ctx context.Context, id int, imageURL string) error {
	const query = `
		UPDATE recipes
		SET image_url = $1,
			updated_at = $2
		WHERE id = $3`
	result, err := r.db.ExecContext(ctx, query, imageURL, time.Now(), id)
	if err != nil {
		return err
	}
	return requireAffected(result)
}

func (r *RecipeRepository) Delete(ctx context.Context, id int) error {
	const query = `DELETE FROM recipes WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	return requireAffected(result)
}
