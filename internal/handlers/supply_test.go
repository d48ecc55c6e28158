package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/community-eats/apiserver/internal/services"
	"github.com/community-eats/apiserver/internal/store"
	"github.com/community-eats/apiserver/types"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSupplyRepo struct {
	supplies map[int]types.Supply
	nextID   int
}

func newFakeSupplyRepo() *fakeSupplyRepo {
	return &fakeSupplyRepo{supplies: make(map[int]types.Supply)}
}

func (f *fakeSupplyRepo) List(ctx context.Context) ([]types.Supply, error) {
	out := make([]types.Supply, 0, len(f.supplies))
	for id := 1; id <= f.nextID; id++ {
		if supply, ok := f.supplies[id]; ok {
			out = append(out, supply)
		}
	}
	return out, nil
}

func (f *fakeSupplyRepo) Get(ctx context.Context, id int) (types.Supply, error) {
	supply, ok := f.supplies[id]
	if !ok {
		return types.Supply{}, store.ErrNotFound
	}
	return supply, nil
}

func (f *fakeSupplyRepo) Create(ctx context.Context, supply types.Supply) (types.Supply, error) {
	f.nextID++
	supply.ID = f.nextID
	f.supplies[supply.ID] = supply
	return supply, nil
}

func (f *fakeSupplyRepo) Update(ctx context.Context, supply types.Supply) (types.Supply, error) {
	existing, ok := f.supplies[supply.ID]
	if !ok {
		return types.Supply{}, store.ErrNotFound
	}
	supply.CreatedAt = existing.CreatedAt
	f.supplies[supply.ID] = supply
	return supply, nil
}

func (f *fakeSupplyRepo) Delete(ctx context.Context, id int) error {
	if _, ok := f.supplies[id]; !ok {
		return store.ErrNotFound
	}
	delete(f.supplies, id)
	return nil
}

func newSupplyServer(t *testing.T) (*httptest.Server, *fakeSupplyRepo) {
	t.Helper()

	repo := newFakeSupplyRepo()
	router := chi.NewRouter()
	router.Route("/supplies", func(r chi.Router) {
		SupplyRouter(r, services.NewSupplyService(repo, nil, nil))
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv, repo
}

func validSupplyPayload() map[string]any {
	return map[string]any{
		"imageLink":   "a.png",
		"title":       "Rice",
		"category":    "Grain",
		"quantity":    10,
		"description": "bag of rice",
	}
}

func TestSupplyLifecycle(t *testing.T) {
	srv, _ := newSupplyServer(t)

	// create
	resp := postJSON(t, srv.URL+"/supplies", validSupplyPayload())
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decodeBody[StatusResponse](t, resp)
	assert.True(t, created.Success)
	assert.Equal(t, "Supplies added successfully", created.Message)

	// listAll includes it, as a bare array
	listResp, err := http.Get(srv.URL + "/supplies")
	require.NoError(t, err)
	supplies := decodeBody[[]types.Supply](t, listResp)
	require.Len(t, supplies, 1)
	assert.Equal(t, "Rice", supplies[0].Title)
	id := supplies[0].ID
	require.NotZero(t, id)

	// getById matches the input plus the generated id
	getResp, err := http.Get(srv.URL + "/supplies/" + itoa(id))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, getResp.StatusCode)
	fetched := decodeBody[types.Supply](t, getResp)
	assert.Equal(t, id, fetched.ID)
	assert.Equal(t, "a.png", fetched.ImageLink)
	assert.Equal(t, "Grain", fetched.Category)
	assert.Equal(t, types.Quantity("10"), fetched.Quantity)
	assert.Equal(t, "bag of rice", fetched.Description)

	// updateById overwrites all five fields
	patch := map[string]any{
		"imageLink":   "b.png",
		"title":       "Beans",
		"category":    "Legume",
		"quantity":    "3 sacks",
		"description": "sack of beans",
	}
	patchResp := doJSON(t, http.MethodPatch, srv.URL+"/supplies/"+itoa(id), patch)
	assert.Equal(t, http.StatusOK, patchResp.StatusCode)
	updated := decodeBody[StatusResponse](t, patchResp)
	assert.True(t, updated.Success)
	assert.Equal(t, "supplies updated successfully", updated.Message)

	getResp, err = http.Get(srv.URL + "/supplies/" + itoa(id))
	require.NoError(t, err)
	afterPatch := decodeBody[types.Supply](t, getResp)
	assert.Equal(t, "Beans", afterPatch.Title)
	assert.Equal(t, types.Quantity("3 sacks"), afterPatch.Quantity)

	// deleteById removes it
	deleteResp := doJSON(t, http.MethodDelete, srv.URL+"/supplies/"+itoa(id), nil)
	assert.Equal(t, http.StatusOK, deleteResp.StatusCode)
	deleted := decodeBody[StatusResponse](t, deleteResp)
	assert.True(t, deleted.Success)
	assert.Equal(t, "Supplies deleted successfully", deleted.Message)

	// getById afterwards yields not found
	getResp, err = http.Get(srv.URL + "/supplies/" + itoa(id))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, getResp.StatusCode)
	notFound := decodeBody[MessageResponse](t, getResp)
	assert.Equal(t, "supplies not found", notFound.Message)
}

func TestCreateSupplyMissingField(t *testing.T) {
	srv, repo := newSupplyServer(t)

	for _, field := range []string{"imageLink", "title", "category", "quantity", "description"} {
		t.Run(field, func(t *testing.T) {
			payload := validSupplyPayload()
			delete(payload, field)

			resp := postJSON(t, srv.URL+"/supplies", payload)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

			body := decodeBody[MessageResponse](t, resp)
			assert.Equal(t, "Not enough data to create Supplies", body.Message)
		})
	}
	assert.Empty(t, repo.supplies)
}

func TestListSuppliesEmpty(t *testing.T) {
	srv, _ := newSupplyServer(t)

	resp, err := http.Get(srv.URL + "/supplies")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	raw, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, "[]", strings.TrimSpace(string(raw)))
}

func TestSupplyNotFoundResponses(t *testing.T) {
	srv, _ := newSupplyServer(t)

	getResp, err := http.Get(srv.URL + "/supplies/99")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, getResp.StatusCode)
	assert.Equal(t, "supplies not found", decodeBody[MessageResponse](t, getResp).Message)

	patchResp := doJSON(t, http.MethodPatch, srv.URL+"/supplies/99", validSupplyPayload())
	assert.Equal(t, http.StatusNotFound, patchResp.StatusCode)
	assert.Equal(t, "supplies not found", decodeBody[MessageResponse](t, patchResp).Message)

	deleteResp := doJSON(t, http.MethodDelete, srv.URL+"/supplies/99", nil)
	assert.Equal(t, http.StatusNotFound, deleteResp.StatusCode)
	assert.Equal(t, "Supplies not found", decodeBody[MessageResponse](t, deleteResp).Message)
}

// A non-numeric id cannot match any stored record; it collapses into the
// same not-found response as an unknown id.
func TestSupplyMalformedID(t *testing.T) {
	srv, _ := newSupplyServer(t)

	resp, err := http.Get(srv.URL + "/supplies/not-an-id")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "supplies not found", decodeBody[MessageResponse](t, resp).Message)
}

// Numeric quantities must round-trip back out as JSON numbers, not strings.
func TestQuantityNumberRoundTrip(t *testing.T) {
	srv, _ := newSupplyServer(t)

	resp := postJSON(t, srv.URL+"/supplies", validSupplyPayload())
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	listResp, err := http.Get(srv.URL + "/supplies")
	require.NoError(t, err)
	raw, err := io.ReadAll(listResp.Body)
	listResp.Body.Close()
	require.NoError(t, err)

	assert.Contains(t, string(raw), `"quantity":10`)
}

func doJSON(t *testing.T, method, url string, payload any) *http.Response {
	t.Helper()

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, url, body)
	require.NoError(t, err)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func itoa(id int) string {
	return strconv.Itoa(id)
}
