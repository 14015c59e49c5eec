package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"gamestore/backend/internal/codec"
	"gamestore/backend/internal/database"
	"gamestore/backend/internal/models"
	"gamestore/backend/internal/repository"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm/logger"
)

//
// ===== setup =====
//

func newTestRepo(t *testing.T) *repository.GormGameRepository {
	t.Helper()
	db, err := database.Connect("sqlite://:memory:", logger.Silent)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return repository.NewGameRepository(db)
}

func newRouter(repo repository.GameRepository) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewGameHandler(repo).RegisterRoutes(r.Group("/api/games"))
	return r
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeGame(t *testing.T, w *httptest.ResponseRecorder) codec.GameResponse {
	t.Helper()
	var g codec.GameResponse
	if err := json.Unmarshal(w.Body.Bytes(), &g); err != nil {
		t.Fatalf("invalid json %q: %v", w.Body.String(), err)
	}
	return g
}

func create(t *testing.T, r http.Handler, body string) codec.GameResponse {
	t.Helper()
	w := do(r, http.MethodPost, "/api/games", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("create status=%d body=%s", w.Code, w.Body.String())
	}
	return decodeGame(t, w)
}

// failingRepo fails every call, standing in for a lost database connection.
type failingRepo struct{ err error }

func (f failingRepo) List(context.Context) ([]models.Game, error)     { return nil, f.err }
func (f failingRepo) Get(context.Context, uint) (*models.Game, error) { return nil, f.err }
func (f failingRepo) Create(context.Context, *models.Game) error      { return f.err }
func (f failingRepo) Delete(context.Context, uint) error              { return f.err }
func (f failingRepo) Update(context.Context, uint, func(*models.Game) error) (*models.Game, error) {
	return nil, f.err
}

//
// ===== tests =====
//

func TestCreateGame_AssignsDistinctIDs(t *testing.T) {
	r := newRouter(newTestRepo(t))

	a := create(t, r, `{"name":"Hades","description":"roguelike","price":24.99,"inventory_quantity":3}`)
	b := create(t, r, `{"name":"Celeste","description":"platformer","price":19.99}`)

	if a.ID == 0 || b.ID == 0 || a.ID == b.ID {
		t.Fatalf("ids not distinct: %d, %d", a.ID, b.ID)
	}
	if a.Name != "Hades" || a.Price != 24.99 || a.InventoryQuantity == nil || *a.InventoryQuantity != 3 {
		t.Fatalf("unexpected body: %+v", a)
	}
	if b.InventoryQuantity != nil {
		t.Fatalf("inventory_quantity should be null, got %d", *b.InventoryQuantity)
	}
}

func TestCreateGame_ValidationLeavesStoreUntouched(t *testing.T) {
	repo := newTestRepo(t)
	r := newRouter(repo)

	w := do(r, http.MethodPost, "/api/games", `{"description":"no name","price":5}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var errs map[string][]string
	if err := json.Unmarshal(w.Body.Bytes(), &errs); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if got := errs["name"]; len(got) != 1 || got[0] != codec.MsgMissing {
		t.Fatalf("errors=%v", errs)
	}

	games, _ := repo.List(context.Background())
	if len(games) != 0 {
		t.Fatalf("store mutated on validation failure: %+v", games)
	}
}

func TestCreateGame_IntegralFloatInventoryRejected(t *testing.T) {
	repo := newTestRepo(t)
	r := newRouter(repo)

	w := do(r, http.MethodPost, "/api/games", `{"name":"Hades","description":"d","price":5,"inventory_quantity":3.0}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	want := `{"inventory_quantity":["` + codec.MsgInteger + `"]}`
	if w.Body.String() != want {
		t.Fatalf("body=%s want=%s", w.Body.String(), want)
	}

	games, _ := repo.List(context.Background())
	if len(games) != 0 {
		t.Fatalf("store mutated: %+v", games)
	}
}

func TestCreateGame_BadBodies(t *testing.T) {
	r := newRouter(newTestRepo(t))

	for _, body := range []string{"", "not json", `[{"name":"x"}]`} {
		w := do(r, http.MethodPost, "/api/games", body)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("body %q: status=%d", body, w.Code)
		}
		var errs map[string][]string
		_ = json.Unmarshal(w.Body.Bytes(), &errs)
		if len(errs[codec.SchemaKey]) != 1 {
			t.Fatalf("body %q: errors=%s", body, w.Body.String())
		}
	}
}

func TestGetGameByID_ReturnsLastWritten(t *testing.T) {
	r := newRouter(newTestRepo(t))
	created := create(t, r, `{"name":"Hades","description":"roguelike","price":24.99,"inventory_quantity":3}`)

	w := do(r, http.MethodGet, fmt.Sprintf("/api/games/%d", created.ID), "")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	got := decodeGame(t, w)
	if got.ID != created.ID || got.Name != "Hades" || got.Description != "roguelike" || got.Price != 24.99 || *got.InventoryQuantity != 3 {
		t.Fatalf("unexpected game: %+v", got)
	}
}

func TestGetGameByID_NotFound(t *testing.T) {
	r := newRouter(newTestRepo(t))

	for _, path := range []string{"/api/games/999", "/api/games/abc", "/api/games/0", "/api/games/-1"} {
		w := do(r, http.MethodGet, path, "")
		if w.Code != http.StatusNotFound {
			t.Fatalf("%s: status=%d", path, w.Code)
		}
		if w.Body.Len() != 0 {
			t.Fatalf("%s: expected empty body, got %q", path, w.Body.String())
		}
	}
}

func TestUpdateGame_PriceOnly(t *testing.T) {
	r := newRouter(newTestRepo(t))
	created := create(t, r, `{"name":"Hades","description":"roguelike","price":24.99,"inventory_quantity":3}`)
	path := fmt.Sprintf("/api/games/%d", created.ID)

	w := do(r, http.MethodPut, path, `{"price":19.99}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	got := decodeGame(t, w)
	if got.Price != 19.99 || got.Name != "Hades" || got.Description != "roguelike" || *got.InventoryQuantity != 3 {
		t.Fatalf("partial update changed other fields: %+v", got)
	}

	stored := decodeGame(t, do(r, http.MethodGet, path, ""))
	if stored.Price != got.Price || stored.Name != got.Name || *stored.InventoryQuantity != *got.InventoryQuantity {
		t.Fatalf("stored=%+v response=%+v", stored, got)
	}
}

func TestUpdateGame_InventoryQuantity(t *testing.T) {
	r := newRouter(newTestRepo(t))
	created := create(t, r, `{"name":"Hades","description":"roguelike","price":24.99,"inventory_quantity":3}`)
	path := fmt.Sprintf("/api/games/%d", created.ID)

	got := decodeGame(t, do(r, http.MethodPut, path, `{"inventory_quantity":7}`))
	if got.InventoryQuantity == nil || *got.InventoryQuantity != 7 {
		t.Fatalf("inventory_quantity not updated: %+v", got)
	}

	got = decodeGame(t, do(r, http.MethodPut, path, `{"inventory_quantity":null}`))
	if got.InventoryQuantity != nil {
		t.Fatalf("inventory_quantity not cleared: %d", *got.InventoryQuantity)
	}

	stored := decodeGame(t, do(r, http.MethodGet, path, ""))
	if stored.InventoryQuantity != nil {
		t.Fatalf("cleared inventory not persisted: %d", *stored.InventoryQuantity)
	}
}

func TestUpdateGame_InvalidBody(t *testing.T) {
	r := newRouter(newTestRepo(t))
	created := create(t, r, `{"name":"Hades","description":"roguelike","price":24.99}`)
	path := fmt.Sprintf("/api/games/%d", created.ID)

	w := do(r, http.MethodPut, path, `{"name":"Hades II","price":"free"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}

	stored := decodeGame(t, do(r, http.MethodGet, path, ""))
	if stored.Name != "Hades" || stored.Price != 24.99 {
		t.Fatalf("rejected update was applied: %+v", stored)
	}
}

func TestUpdateGame_MalformedJSON(t *testing.T) {
	r := newRouter(newTestRepo(t))
	created := create(t, r, `{"name":"Hades","description":"roguelike","price":24.99}`)
	path := fmt.Sprintf("/api/games/%d", created.ID)

	for body, want := range map[string]string{
		`{"price":`: codec.MsgInvalidJSON,
		`[1,2]`:     codec.MsgInvalidType,
	} {
		w := do(r, http.MethodPut, path, body)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("body %q: status=%d body=%s", body, w.Code, w.Body.String())
		}
		var errs map[string][]string
		if err := json.Unmarshal(w.Body.Bytes(), &errs); err != nil {
			t.Fatalf("body %q: invalid json: %v", body, err)
		}
		if got := errs[codec.SchemaKey]; len(got) != 1 || got[0] != want {
			t.Fatalf("body %q: errors=%v", body, errs)
		}
	}
}

func TestUpdateGame_NotFound(t *testing.T) {
	r := newRouter(newTestRepo(t))

	for _, body := range []string{`{"price":1}`, `{"price":"bad"}`} {
		w := do(r, http.MethodPut, "/api/games/404", body)
		if w.Code != http.StatusNotFound {
			t.Fatalf("body %s: status=%d", body, w.Code)
		}
	}
}

func TestDeleteGame_ThenGetAndDeleteAgain(t *testing.T) {
	r := newRouter(newTestRepo(t))
	created := create(t, r, `{"name":"Hades","description":"roguelike","price":24.99}`)
	path := fmt.Sprintf("/api/games/%d", created.ID)

	w := do(r, http.MethodDelete, path, "")
	if w.Code != http.StatusNoContent || w.Body.Len() != 0 {
		t.Fatalf("status=%d body=%q", w.Code, w.Body.String())
	}
	if w := do(r, http.MethodGet, path, ""); w.Code != http.StatusNotFound {
		t.Fatalf("get after delete: status=%d", w.Code)
	}
	if w := do(r, http.MethodDelete, path, ""); w.Code != http.StatusNotFound {
		t.Fatalf("second delete: status=%d", w.Code)
	}
}

func TestGetGames_ListsEveryCreatedGame(t *testing.T) {
	r := newRouter(newTestRepo(t))

	w := do(r, http.MethodGet, "/api/games", "")
	if w.Code != http.StatusOK || w.Body.String() != "[]" {
		t.Fatalf("empty list: status=%d body=%s", w.Code, w.Body.String())
	}

	const n = 4
	created := make(map[uint]codec.GameResponse, n)
	for i := 1; i <= n; i++ {
		g := create(t, r, fmt.Sprintf(`{"name":"Game %d","description":"d%d","price":%d.5,"inventory_quantity":%d}`, i, i, i, i))
		created[g.ID] = g
	}

	w = do(r, http.MethodGet, "/api/games", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var list []codec.GameResponse
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(list) != n {
		t.Fatalf("len=%d, want %d", len(list), n)
	}
	for _, g := range list {
		want, ok := created[g.ID]
		if !ok {
			t.Fatalf("unexpected id %d", g.ID)
		}
		if g.Name != want.Name || g.Description != want.Description || g.Price != want.Price || *g.InventoryQuantity != *want.InventoryQuantity {
			t.Fatalf("got %+v, want %+v", g, want)
		}
	}
}

func TestStoreFailures(t *testing.T) {
	r := newRouter(failingRepo{err: errors.New("connection refused")})

	cases := []struct {
		method, path, body string
	}{
		{http.MethodGet, "/api/games", ""},
		{http.MethodPost, "/api/games", `{"name":"x","description":"y","price":1}`},
		{http.MethodGet, "/api/games/1", ""},
		{http.MethodPut, "/api/games/1", `{"price":1}`},
		{http.MethodDelete, "/api/games/1", ""},
	}
	for _, tc := range cases {
		w := do(r, tc.method, tc.path, tc.body)
		if w.Code != http.StatusInternalServerError {
			t.Fatalf("%s %s: status=%d body=%s", tc.method, tc.path, w.Code, w.Body.String())
		}
		var resp ErrorResponse
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil || resp.Error == "" {
			t.Fatalf("%s %s: body=%s", tc.method, tc.path, w.Body.String())
		}
	}
}
