package types

import "time"

// Recipe represents a published recipe with its full method.
type Recipe struct {
	// ID is the unique identifier of the recipe.
	ID int `json:"id" db:"id"`

	// AuthorID references the user who published the recipe.
	AuthorID int `json:"author_id" db:"author_id"`

	// AuthorUsername is denormalized onto reads for display.
	AuthorUsername string `json:"author_username,omitempty" db:"author_username"`

	// Title is the recipe's headline.
	Title string `json:"title" db:"title"`

	// Description is a short free-form summary.
	Description string `json:"description" db:"description"`

	// Ingredients lists the required ingredients, one entry per line item.
	Ingredients []string `json:"ingredients" db:"ingredients"`

	// Instructions lists the preparation steps in order.
	Instructions []string `json:"instructions" db:"instructions"`

	// Tags is an optional set of lowercase labels used for filtering.
	Tags []string `json:"tags,omitempty" db:"tags"`

	// Servings is the number of portions the recipe yields.
	Servings int `json:"servings" db:"servings"`

	// CookTimeMinutes is the total preparation and cooking time.
	CookTimeMinutes int `json:"cook_time_minutes" db:"cook_time_minutes"`

	// ImageURL points at the recipe's uploaded photo, if any.
	ImageURL string `json:"image_url,omitempty" db:"image_url"`

	// BookmarkCount is the number of users who bookmarked the recipe.
	// Populated on reads only.
	BookmarkCount int `json:"bookmark_count" db:"bookmark_count"`

	// CreatedAt is the timestamp when the recipe was published.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent edit.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
