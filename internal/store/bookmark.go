package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/lib/pq"
	"github.com/tastebud/apiserver/types"
)

// BookmarkRepository handles persistence for recipe bookmarks.
type BookmarkRepository struct {
	db *sql.DB
}

func NewBookmarkRepository(db *sql.DB) *BookmarkRepository {
	return &BookmarkRepository{db: db}
}

// Add records a bookmark. Adding an existing bookmark is a no-op.
func (r *BookmarkRepository) Add(ctx context.Context, userID, recipeID int) error {
	const query = `
		INSERT INTO bookmarks (user_id, recipe_id, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, recipe_id) DO NOTHING`
	_, err := r.db.ExecContext(ctx, query, userID, recipeID, time.Now())
	return err
}

func (r *BookmarkRepository) Remove(ctx context.Context, userID, recipeID int) error {
	const query = `DELETE FROM bookmarks WHERE user_id = $1 AND recipe_id = $2`
	result, err := r.db.ExecContext(ctx, query, userID, recipeID)
	if err != nil {
		return err
	}
	return requireAffected(result)
}

func (r *BookmarkRepository) Exists(ctx context.Context, userID, recipeID int) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM bookmarks WHERE user_id = $1 AND recipe_id = $2)`
	var exists bool
	if err := r.db.QueryRowContext(ctx, query, userID, recipeID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// ListByUser returns the user's bookmarked recipes, most recent bookmark first.
func (r *BookmarkRepository) ListByUser(ctx context.Context, userID int) ([]types.Recipe, error) {
	const query = `
		SELECT r.id, r.author_id, u.username, r.title, r.description,
			r.ingredients, r.instructions, r.tags, r.servings,
			r.cook_time_minutes, r.image_url,
			(SELECT count(*) FROM bookmarks bc WHERE bc.recipe_id = r.id),
			r.created_at, r.updated_at
		FROM bookmarks b
		JOIN recipes r ON r.id = b.recipe_id
		JOIN users u ON u.id = r.author_id
		WHERE b.user_id = $1
		ORDER BY b.created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recipes []types.Recipe
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
		); err != nil {
			return nil, err
		}
		recipes = append(recipes, recipe)
	}
	return recipes, rows.Err()
}
