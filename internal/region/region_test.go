package region

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rsilvagit/go-vacancies/internal/httpclient"
	"github.com/rsilvagit/go-vacancies/internal/model"
)

const yakutiaTree = `{
  "id": "1174", "parent_id": "113", "name": "Республика Саха (Якутия)",
  "areas": [
    {"id": "1175", "parent_id": "1174", "name": "Якутск", "areas": []},
    {"id": "1179", "parent_id": "1174", "name": "Мирный", "areas": [
      {"id": "6012", "parent_id": "1179", "name": "Чернышевский", "areas": []}
    ]},
    {"id": "1183", "parent_id": "1174", "name": "Покровск", "areas": []}
  ]
}`

func TestCatalogLookups(t *testing.T) {
	all := All()
	require.Len(t, all, 6)
	assert.Equal(t, RootID, all[0].ID)

	mirny, ok := ByID("1179")
	require.True(t, ok)
	assert.Equal(t, "Мирный", mirny.DisplayName)
	require.NotNil(t, mirny.Coordinates)
	assert.Equal(t, 62.5353, mirny.Coordinates.Latitude)

	byName, ok := ByName("  мирный ")
	require.True(t, ok)
	assert.Equal(t, "1179", byName.ID)

	_, ok = Resolve("Москва")
	assert.False(t, ok)
}

func TestCatalogIsImmutable(t *testing.T) {
	r, _ := ByID("1179")
	r.DisplayName = "changed"
	r.Coordinates.Latitude = 0

	again, _ := ByID("1179")
	assert.Equal(t, "Мирный", again.DisplayName)
	assert.Equal(t, 62.5353, again.Coordinates.Latitude)
}

func TestFlatten(t *testing.T) {
	root := AreaNode{ID: "1", Areas: []AreaNode{
		{ID: "2", Name: "a", Areas: []AreaNode{{ID: "3", Name: "b"}}},
		{ID: "4", Name: "c"},
		{ID: "2", Name: "a-dup"},
	}}

	got := Flatten(root)
	assert.Equal(t, []model.Area{
		{ID: "2", Name: "a", ParentID: "1"},
		{ID: "3", Name: "b", ParentID: "2"},
		{ID: "4", Name: "c", ParentID: "1"},
	}, got)
	assert.Equal(t, []string{"2", "3", "4"}, SubRegionIDs(got))
}

func newTestServer(t *testing.T, status int, body string) (*httptest.Server, *AreaClient) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/areas/1174", r.URL.Path)
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, NewAreaClient(httpclient.NewWithHTTPClient(srv.Client(), httpclient.Options{}), srv.URL+"/")
}

func TestAreaClientTree(t *testing.T) {
	_, client := newTestServer(t, http.StatusOK, yakutiaTree)

	tree, err := client.Tree(context.Background(), "1174")
	require.NoError(t, err)
	assert.Equal(t, []string{"1175", "1179", "6012", "1183"}, SubRegionIDs(Flatten(tree)))
}

func TestAreaClientTreeStatusError(t *testing.T) {
	_, client := newTestServer(t, http.StatusForbidden, `{}`)

	_, err := client.Tree(context.Background(), "1174")
	assert.ErrorContains(t, err, "unexpected status 403")
}

func TestDirectoryKeepsLastGoodList(t *testing.T) {
	var status atomic.Int32
	status.Store(http.StatusOK)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(int(status.Load()))
		_, _ = w.Write([]byte(yakutiaTree))
	}))
	defer srv.Close()

	dir := NewDirectory(NewAreaClient(httpclient.NewWithHTTPClient(srv.Client(), httpclient.Options{}), srv.URL), "1174")
	areas, updated := dir.Areas()
	assert.Empty(t, areas)
	assert.True(t, updated.IsZero())

	require.NoError(t, dir.Refresh(context.Background()))
	areas, updated = dir.Areas()
	assert.Len(t, areas, 4)
	assert.False(t, updated.IsZero())

	status.Store(http.StatusInternalServerError)
	assert.Error(t, dir.Refresh(context.Background()))
	areas, _ = dir.Areas()
	assert.Len(t, areas, 4)
}
