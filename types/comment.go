package types

import "time"

// Comment represents a user comment attached to a recipe.
type Comment struct {
	// ID is the unique identifier of the comment.
	ID int `json:"id" db:"id"`

	// RecipeID references the recipe the comment belongs to.
	RecipeID int `json:"recipe_id" db:"recipe_id"`

	// AuthorID references the user who wrote the comment.
	AuthorID int `json:"author_id" db:"author_id"`

	// AuthorUsername is denormalized onto reads for display.
	AuthorUsername string `json:"author_username,omitempty" db:"author_username"`

	// Body is the comment text.
	Body string `json:"body" db:"body"`

	// CreatedAt is the timestamp when the comment was posted.
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
