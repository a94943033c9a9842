// Package seed inserts sample content for local development. It goes
// through the regular service layer so seeded accounts get properly
// hashed passwords.
package seed

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/tastebud/apiserver/internal/services"
	"github.com/tastebud/apiserver/internal/store"
	"github.com/tastebud/apiserver/types"
)

type sampleUser struct {
	input   services.RegisterInput
	recipes []types.Recipe
}

var samples = []sampleUser{
	{
		input: services.RegisterInput{
			Username: "chef_amelia",
			Email:    "amelia@tastebud.app",
			Name:     "Amelia Ferrante",
			Password: "sample-password",
		},
		recipes: []types.Recipe{
			{
				Title:       "Weeknight Cacio e Pepe",
				Description: "Three ingredients, fifteen minutes, no excuses.",
				Ingredients: []string{
					"400g spaghetti",
					"120g pecorino romano, finely grated",
					"2 tsp coarsely ground black pepper",
				},
				Instructions: []string{
					"Cook the spaghetti in well-salted water until just short of al dente.",
					"Toast the pepper in a dry pan, then add a ladle of pasta water.",
					"Transfer the pasta, toss with the pecorino off the heat until creamy.",
				},
				Tags:            []string{"pasta", "italian", "quick"},
				Servings:        4,
				CookTimeMinutes: 15,
			},
			{
				Title:       "Charred Corn Salsa",
				Description: "Smoky, bright, and good on absolutely everything.",
				Ingredients: []string{
					"4 ears of corn, husked",
					"1 red onion, finely diced",
					"2 limes, juiced",
					"1 bunch cilantro, chopped",
					"1 jalapeño, minced",
				},
				Instructions: []string{
					"Char the corn over a flame or under the broiler, turning often.",
					"Cut the kernels off and mix with the remaining ingredients.",
					"Season with salt and rest for at least twenty minutes.",
				},
				Tags:            []string{"mexican", "side", "vegan"},
				Servings:        6,
				CookTimeMinutes: 25,
			},
		},
	},
	{
		input: services.RegisterInput{
			Username: "sourdough_sam",
			Email:    "sam@tastebud.app",
			Name:     "Sam Okafor",
			Password: "sample-password",
		},
		recipes: []types.Recipe{
			{
				Title:       "Overnight Country Loaf",
				Description: "A forgiving high-hydration loaf for lazy bakers.",
				Ingredients: []string{
					"500g bread flour",
					"375g water",
					"100g active starter",
					"10g salt",
				},
				Instructions: []string{
					"Mix flour and water, rest 30 minutes, then add starter and salt.",
					"Four sets of stretch-and-folds over two hours, then bulk overnight.",
					"Shape, proof 2 hours, bake in a covered pot at 240C for 45 minutes.",
				},
				Tags:            []string{"bread", "baking"},
				Servings:        8,
				CookTimeMinutes: 60,
			},
		},
	},
}

// Run inserts the sample users and their recipes. Users that already
// exist are skipped along with their recipes.
func Run(ctx context.Context, dbConn *sql.DB) error {
	userRepo := store.NewUserRepository(dbConn)
	recipeRepo := store.NewRecipeRepository(dbConn)
	userService := services.NewUserService(userRepo)
	recipeService := services.NewRecipeService(recipeRepo)

	for _, sample := range samples {
		if _, err := userRepo.GetByEmail(ctx, sample.input.Email); err == nil {
			continue
		} else if !errors.Is(err, store.ErrNotFound) {
			return err
		}

		user, err := userService.Register(ctx, sample.input)
		if err != nil {
			return fmt.Errorf("seeding user %s: %w", sample.input.Username, err)
		}

		for _, recipe := range sample.recipes {
			if _, err := recipeService.Create(ctx, user, recipe); err != nil {
				return fmt.Errorf("seeding recipe %q: %w", recipe.Title, err)
			}
		}
	}
	return nil
}
