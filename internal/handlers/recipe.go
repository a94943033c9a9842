package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/tastebud/apiserver/internal/services"
	"github.com/tastebud/apiserver/internal/storage"
	"github.com/tastebud/apiserver/internal/store"
	"github.com/tastebud/apiserver/types"
)

// RecipeHandler provides HTTP handlers for recipes and the resources
// nested under them.
type RecipeHandler struct {
	recipeService   *services.RecipeService
	commentService  *services.CommentService
	bookmarkService *services.BookmarkService
	storage         storage.ObjectStorage
}

// NewRecipeHandler constructs a handler with the provided services.
func NewRecipeHandler(
	recipeService *services.RecipeService,
	commentService *services.CommentService,
	bookmarkService *services.BookmarkService,
	objectStorage storage.ObjectStorage,
) *RecipeHandler {
	return &RecipeHandler{
		recipeService:   recipeService,
		commentService:  commentService,
		bookmarkService: bookmarkService,
		storage:         objectStorage,
	}
}

// RecipeRouter registers recipe routes on the given router.
func (h *RecipeHandler) RecipeRouter(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Get("/", h.ListRecipes)
	r.With(authMiddleware).Post("/", h.CreateRecipe)
	r.Route("/{recipeID}", func(r chi.Router) {
		r.Get("/", h.GetRecipe)
		r.Get("/comments", h.ListComments)
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware)
			r.Put("/", h.UpdateRecipe)
			r.Delete("/", h.DeleteRecipe)
			r.Post("/image", h.UploadRecipeImage)
			r.Post("/comments", h.CreateComment)
			r.Put("/bookmark", h.AddBookmark)
			r.Delete("/bookmark", h.RemoveBookmark)
		})
	})
}

func (h *RecipeHandler) ListRecipes(w http.ResponseWriter, r *http.Request) {
	page, limit, offset, err := parsePagination(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	filter := store.ListFilter{Tag: r.URL.Query().Get("tag")}
	if raw := r.URL.Query().Get("author"); raw != "" {
		filter.AuthorID, err = parseIDParam(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid author")
			return
		}
	}

	items, total, err := h.recipeService.List(r.Context(), offset, limit, filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list recipes")
		return
	}

	writeJSON(w, http.StatusOK, RecipeListResponse{
		Items: items,
		Page:  page,
		Limit: limit,
		Total: total,
	})
}

func (h *RecipeHandler) GetRecipe(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(chi.URLParam(r, "recipeID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid recipe id")
		return
	}

	recipe, err := h.recipeService.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, "failed to fetch recipe")
		return
	}
	writeJSON(w, http.StatusOK, recipe)
}

func (h *RecipeHandler) CreateRecipe(w http.ResponseWriter, r *http.Request) {
	user, err := userFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req RecipeUpsertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	created, err := h.recipeService.Create(r.Context(), user, req.toRecipe())
	if err != nil {
		writeServiceError(w, err, "failed to create recipe")
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *RecipeHandler) UpdateRecipe(w http.ResponseWriter, r *http.Request) {
	user, err := userFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := parseIDParam(chi.URLParam(r, "recipeID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid recipe id")
		return
	}

	var req RecipeUpsertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	recipe := req.toRecipe()
	recipe.ID = id
	updated, err := h.recipeService.Update(r.Context(), user, recipe)
	if err != nil {
		writeServiceError(w, err, "failed to update recipe")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *RecipeHandler) DeleteRecipe(w http.ResponseWriter, r *http.Request) {
	user, err := userFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := parseIDParam(chi.URLParam(r, "recipeID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid recipe id")
		return
	}

	if err := h.recipeService.Delete(r.Context(), user, id); err != nil {
		writeServiceError(w, err, "failed to delete recipe")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UploadRecipeImage stores a photo for the recipe and records its URL.
func (h *RecipeHandler) UploadRecipeImage(w http.ResponseWriter, r *http.Request) {
	user, err := userFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if h.storage == nil {
		writeError(w, http.StatusServiceUnavailable, "uploads are not configured")
		return
	}

	id, err := parseIDParam(chi.URLParam(r, "recipeID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid recipe id")
		return
	}

	upload, err := parseImageUpload(r, "image")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	key, err := storage.NewImageKey("recipes", upload.ContentType)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.storage.Put(r.Context(), key, upload.Reader(), upload.Size(), upload.ContentType); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to store image")
		return
	}

	imageURL := "/images/" + key
	if err := h.recipeService.SetImage(r.Context(), user, id, imageURL); err != nil {
		writeServiceError(w, err, "failed to update recipe")
		return
	}

	writeJSON(w, http.StatusOK, RecipeImageResponse{ImageURL: imageURL})
}

func (h *RecipeHandler) ListComments(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(chi.URLParam(r, "recipeID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid recipe id")
		return
	}

	comments, err := h.commentService.ListByRecipe(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, "failed to list comments")
		return
	}
	if comments == nil {
		comments = []types.Comment{}
	}
	writeJSON(w, http.StatusOK, comments)
}

func (h *RecipeHandler) CreateComment(w http.ResponseWriter, r *http.Request) {
	user, err := userFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := parseIDParam(chi.URLParam(r, "recipeID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid recipe id")
		return
	}

	var req CommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	created, err := h.commentService.Create(r.Context(), user, id, req.Body)
	if err != nil {
		writeServiceError(w, err, "failed to create comment")
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// DeleteComment removes a comment by id. Registered outside the recipe
// subtree since comment ids are global.
func (h *RecipeHandler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	user, err := userFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := parseIDParam(chi.URLParam(r, "commentID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid comment id")
		return
	}

	if err := h.commentService.Delete(r.Context(), user, id); err != nil {
		writeServiceError(w, err, "failed to delete comment")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *RecipeHandler) AddBookmark(w http.ResponseWriter, r *http.Request) {
	user, err := userFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := parseIDParam(chi.URLParam(r, "recipeID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid recipe id")
		return
	}

	if err := h.bookmarkService.Add(r.Context(), user.ID, id); err != nil {
		writeServiceError(w, err, "failed to add bookmark")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *RecipeHandler) RemoveBookmark(w http.ResponseWriter, r *http.Request) {
	user, err := userFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := parseIDParam(chi.URLParam(r, "recipeID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid recipe id")
		return
	}

	if err := h.bookmarkService.Remove(r.Context(), user.ID, id); err != nil {
		writeServiceError(w, err, "failed to remove bookmark")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListMyBookmarks returns the authenticated user's bookmarked recipes.
func (h *RecipeHandler) ListMyBookmarks(w http.ResponseWriter, r *http.Request) {
	user, err := userFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	recipes, err := h.bookmarkService.ListByUser(r.Context(), user.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list bookmarks")
		return
	}
	if recipes == nil {
		recipes = []types.Recipe{}
	}
	writeJSON(w, http.StatusOK, recipes)
}

// RecipeUpsertRequest is the JSON payload for creating or editing a recipe.
type RecipeUpsertRequest struct {
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	Ingredients     []string `json:"ingredients"`
	Instructions    []string `json:"instructions"`
	Tags            []string `json:"tags"`
	Servings        int      `json:"servings"`
	CookTimeMinutes int      `json:"cook_time_minutes"`
}

func (req RecipeUpsertRequest) toRecipe() types.Recipe {
	return types.Recipe{
		Title:           req.Title,
		Description:     req.Description,
		Ingredients:     req.Ingredients,
		Instructions:    req.Instructions,
		Tags:            req.Tags,
		Servings:        req.Servings,
		CookTimeMinutes: req.CookTimeMinutes,
	}
}

// RecipeListResponse is the paginated list response payload.
type RecipeListResponse struct {
	Items []types.Recipe `json:"items"`
	Page  int            `json:"page"`
	Limit int            `json:"limit"`
	Total int            `json:"total"`
}

// RecipeImageResponse reports a stored recipe image.
type RecipeImageResponse struct {
	ImageURL string `json:"image_url"`
}

// CommentRequest is the JSON payload for posting a comment.
type CommentRequest struct {
	Body string `json:"body"`
}
