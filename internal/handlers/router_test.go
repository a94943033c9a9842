package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"github.com/tastebud/apiserver/internal/mailer"
	"github.com/tastebud/apiserver/internal/services"
	"github.com/tastebud/apiserver/internal/store"
	"github.com/tastebud/apiserver/types"
)

const testJWTSecret = "test-secret"

// In-memory repositories with the same contracts as the postgres ones.

type fakeUserRepo struct {
	nextID int
	users  map[int]types.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{nextID: 1, users: make(map[int]types.User)}
}

func (r *fakeUserRepo) GetByID(_ context.Context, id int) (types.User, error) {
	user, ok := r.users[id]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return user, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (types.User, error) {
	for _, user := range r.users {
		if strings.EqualFold(user.Email, email) {
			return user, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (r *fakeUserRepo) GetByUsername(_ context.Context, username string) (types.User, error) {
	for _, user := range r.users {
		if user.Username == username {
			return user, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (r *fakeUserRepo) Create(ctx context.Context, user types.User) (types.User, error) {
	if _, err := r.GetByEmail(ctx, user.Email); err == nil {
		return types.User{}, store.ErrDuplicateEmail
	}
	if _, err := r.GetByUsername(ctx, user.Username); err == nil {
		return types.User{}, store.ErrDuplicateUsername
	}
	user.ID = r.nextID
	r.nextID++
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	r.users[user.ID] = user
	return user, nil
}

func (r *fakeUserRepo) UpdatePassword(_ context.Context, id int, passwordHash string) error {
	user, ok := r.users[id]
	if !ok {
		return store.ErrNotFound
	}
	user.PasswordHash = passwordHash
	r.users[id] = user
	return nil
}

func (r *fakeUserRepo) SetResetToken(_ context.Context, id int, tokenHash string, expiresAt time.Time) error {
	user, ok := r.users[id]
	if !ok {
		return store.ErrNotFound
	}
	user.ResetTokenHash = &tokenHash
	user.ResetTokenExpiresAt = &expiresAt
	r.users[id] = user
	return nil
}

func (r *fakeUserRepo) GetByResetToken(_ context.Context, tokenHash string) (types.User, error) {
	for _, user := range r.users {
		if user.ResetTokenHash != nil && *user.ResetTokenHash == tokenHash &&
			user.ResetTokenExpiresAt != nil && user.ResetTokenExpiresAt.After(time.Now()) {
			return user, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (r *fakeUserRepo) ClearResetToken(_ context.Context, id int) error {
	user, ok := r.users[id]
	if !ok {
		return store.ErrNotFound
	}
	user.ResetTokenHash = nil
	user.ResetTokenExpiresAt = nil
	r.users[id] = user
	return nil
}

func (r *fakeUserRepo) UpdateAvatar(_ context.Context, id int, avatarURL string) error {
	user, ok := r.users[id]
	if !ok {
		return store.ErrNotFound
	}
	user.AvatarURL = avatarURL
	r.users[id] = user
	return nil
}

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
		if filter.Tag != "" {
			found := false
			for _, tag := range recipe.Tags {
				if tag == filter.Tag {
					found = true
				}
			}
			if !found {
				continue
			}
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
	bookmarks map[bookmarkKey]struct{}
	recipes   *fakeRecipeRepo
}

func newFakeBookmarkRepo(recipes *fakeRecipeRepo) *fakeBookmarkRepo {
	return &fakeBookmarkRepo{bookmarks: make(map[bookmarkKey]struct{}), recipes: recipes}
}

func (r *fakeBookmarkRepo) Add(_ context.Context, userID, recipeID int) error {
	r.bookmarks[bookmarkKey{userID, recipeID}] = struct{}{}
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

// memStorage is an in-memory ObjectStorage.
type memStorage struct {
	objects map[string][]byte
}

func newMemStorage() *memStorage {
	return &memStorage{objects: make(map[string][]byte)}
}

func (s *memStorage) EnsureBucket(context.Context) error { return nil }

func (s *memStorage) Put(_ context.Context, key string, r io.Reader, _ int64, _ string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.objects[key] = data
	return nil
}

func (s *memStorage) Get(_ context.Context, key string) (io.ReadCloser, error) {
	data, ok := s.objects[key]
	if !ok {
		return nil, errors.New("no such object")
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *memStorage) Delete(_ context.Context, key string) error {
	delete(s.objects, key)
	return nil
}

func (s *memStorage) Bucket() string { return "test" }

// captureMailer records sent mails and can be told to fail.
type captureMailer struct {
	sent []mailer.ResetMailJob
	err  error
}

func (m *captureMailer) SendPasswordReset(_ context.Context, to, name, link string) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, mailer.ResetMailJob{To: to, Name: name, Link: link})
	return nil
}

type testEnv struct {
	router  *chi.Mux
	users   *fakeUserRepo
	recipes *fakeRecipeRepo
	storage *memStorage
	mailer  mailer.Mailer
}

// newTestEnv wires the full route tree the way internal/server does,
// over in-memory repositories.
func newTestEnv(t *testing.T, resetMailer mailer.Mailer) *testEnv {
	t.Helper()

	userRepo := newFakeUserRepo()
	recipeRepo := newFakeRecipeRepo()
	commentRepo := newFakeCommentRepo()
	bookmarkRepo := newFakeBookmarkRepo(recipeRepo)
	objectStorage := newMemStorage()

	userService := services.NewUserService(userRepo)
	recipeService := services.NewRecipeService(recipeRepo)
	commentService := services.NewCommentService(commentRepo, recipeRepo)
	bookmarkService := services.NewBookmarkService(bookmarkRepo, recipeRepo)

	router := chi.NewRouter()
	var authHandler *AuthHandler
	router.Route("/auth", func(r chi.Router) {
		authHandler = AuthRouter(r, AuthConfig{
			UserService: userService,
			Mailer:      resetMailer,
			Storage:     objectStorage,
			JWTSecret:   testJWTSecret,
			PublicURL:   "http://localhost:8080",
		})
	})
	recipeHandler := NewRecipeHandler(recipeService, commentService, bookmarkService, objectStorage)
	router.Route("/recipes", func(r chi.Router) {
		recipeHandler.RecipeRouter(r, authHandler.RequireAuth)
	})
	router.With(authHandler.RequireAuth).Delete("/comments/{commentID}", recipeHandler.DeleteComment)
	router.With(authHandler.RequireAuth).Get("/me/bookmarks", recipeHandler.ListMyBookmarks)
	router.Get("/images/*", ServeImage(objectStorage))
	router.Get("/healthz", Healthz)

	return &testEnv{
		router:  router,
		users:   userRepo,
		recipes: recipeRepo,
		storage: objectStorage,
		mailer:  resetMailer,
	}
}

func (env *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	return out
}

func (env *testEnv) register(t *testing.T, username, email, password string) (types.User, string) {
	t.Helper()
	rec := env.do(t, http.MethodPost, "/auth/register", "", RegisterRequest{
		Username: username,
		Email:    email,
		FullName: "Test " + username,
		Password: password,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	resp := decodeBody[AuthResponse](t, rec)
	require.NotEmpty(t, resp.Token)
	return resp.User, resp.Token
}
