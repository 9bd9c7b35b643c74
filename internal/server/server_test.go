package server

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rsilvagit/go-vacancies/internal/fetcher"
	"github.com/rsilvagit/go-vacancies/internal/jobstore"
	"github.com/rsilvagit/go-vacancies/internal/model"
)

const secret = "0123456789abcdef0123456789abcdef"

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type fakeFetcher struct {
	page  fetcher.Page
	err   error
	query fetcher.Query
}

func (f *fakeFetcher) Name() string { return "fake" }

func (f *fakeFetcher) FetchPage(_ context.Context, q fetcher.Query) (fetcher.Page, error) {
	f.query = q
	if f.err != nil {
		return fetcher.Page{}, f.err
	}
	p := f.page
	p.Page = q.Page
	return p, nil
}

type failingPostings struct {
	*jobstore.Adapter
}

func (failingPostings) List(context.Context) ([]model.Vacancy, error) {
	return nil, errors.New("connection refused")
}

type fakeAreas struct{}

func (fakeAreas) Areas() ([]model.Area, time.Time) {
	return []model.Area{{ID: "5555", Name: "Нерюнгри", ParentID: "1174"}}, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
}

func (fakeAreas) Lookup(id string) (model.Area, bool) {
	if id == "5555" {
		return model.Area{ID: "5555", Name: "Нерюнгри"}, true
	}
	return model.Area{}, false
}

type fixture struct {
	srv      *Server
	fetcher  *fakeFetcher
	postings *jobstore.Adapter
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fakeFetcher{page: fetcher.Page{
		Vacancies: []model.Vacancy{
			{ID: "1", Source: model.SourceHH, Title: "Project Manager"},
			{ID: "2", Source: model.SourceHH, Title: "Геолог"},
			{ID: "3", Source: model.SourceHH, Title: "Водитель"},
		},
		TotalPages: 2,
		Found:      25,
	}}
	postings := jobstore.NewAdapter(jobstore.NewMemoryStore())
	srv := New(Deps{
		Fetcher:   f,
		Postings:  postings,
		Areas:     fakeAreas{},
		RootID:    "1174",
		PerPage:   20,
		JWTSecret: secret,
	})
	return &fixture{srv: srv, fetcher: f, postings: postings}
}

func (fx *fixture) do(t *testing.T, method, target, body, token string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	fx.srv.Handler().ServeHTTP(w, req)
	return w
}

func (fx *fixture) addPosting(t *testing.T, userID, title string) model.LocalJobPosting {
	t.Helper()
	p, err := fx.postings.Create(context.Background(), model.Author{UserID: userID}, model.PostingInput{
		Title: title, Description: "Описание", Salary: "50000",
	})
	require.NoError(t, err)
	return p
}

func token(t *testing.T, userID string) string {
	t.Helper()
	tok, err := IssueToken(secret, userID, userID+"@example.ru", time.Hour)
	require.NoError(t, err)
	return tok
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestSearchMergesLocalFirst(t *testing.T) {
	fx := newFixture(t)
	fx.addPosting(t, "u1", "Sales manager")
	fx.addPosting(t, "u1", "Повар")

	w := fx.do(t, http.MethodGet, "/api/search?area=1179&text=manager", "", "")
	require.Equal(t, http.StatusOK, w.Code)

	resp := decode[searchResponse](t, w)
	require.Len(t, resp.Items, 2)
	assert.True(t, resp.Items[0].IsLocal)
	assert.Equal(t, "Sales manager", resp.Items[0].Title)
	assert.Equal(t, "Project Manager", resp.Items[1].Title)
	assert.True(t, resp.HasMore)
	assert.Equal(t, 25, resp.Found)

	assert.Equal(t, "1179", fx.fetcher.query.Region.ID)
	assert.Equal(t, "Мирный", fx.fetcher.query.Region.DisplayName)
	assert.Equal(t, 20, fx.fetcher.query.PerPage)
}

func TestSearchLaterPagesSkipLocal(t *testing.T) {
	fx := newFixture(t)
	fx.addPosting(t, "u1", "Geologist")

	resp := decode[searchResponse](t, fx.do(t, http.MethodGet, "/api/search?page=1", "", ""))
	assert.Len(t, resp.Items, 3)
	assert.Equal(t, 1, resp.Page)
	assert.False(t, resp.HasMore)
	assert.Equal(t, "1174", fx.fetcher.query.Region.ID)
}

func TestSearchResolvesHierarchyArea(t *testing.T) {
	fx := newFixture(t)
	fx.do(t, http.MethodGet, "/api/search?area=5555", "", "")
	assert.Equal(t, "Нерюнгри", fx.fetcher.query.Region.DisplayName)
}

func TestSearchLocalFailureDegrades(t *testing.T) {
	fx := newFixture(t)
	fx.srv = New(Deps{Fetcher: fx.fetcher, Postings: failingPostings{fx.postings}, PerPage: 20})

	w := fx.do(t, http.MethodGet, "/api/search?area=1179", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[searchResponse](t, w)
	assert.Len(t, resp.Items, 3)
	assert.Contains(t, resp.LocalError, "connection refused")
}

func TestSearchFetchFailure(t *testing.T) {
	fx := newFixture(t)
	fx.fetcher.err = &fetcher.FetchError{Source: "fake", StatusCode: http.StatusForbidden, Err: errors.New("captcha")}

	t.Run("nothing to show", func(t *testing.T) {
		w := fx.do(t, http.MethodGet, "/api/search?area=1179", "", "")
		assert.Equal(t, http.StatusBadGateway, w.Code)
		body := decode[map[string]any](t, w)
		assert.EqualValues(t, http.StatusForbidden, body["upstreamStatus"])
	})

	t.Run("local results kept", func(t *testing.T) {
		fx.addPosting(t, "u1", "Охранник")
		w := fx.do(t, http.MethodGet, "/api/search?area=1179", "", "")
		require.Equal(t, http.StatusOK, w.Code)
		resp := decode[searchResponse](t, w)
		require.Len(t, resp.Items, 1)
		assert.True(t, resp.Items[0].IsLocal)
		assert.Contains(t, resp.FetchError, "captcha")
	})
}

func TestSearchRejectsNegativePage(t *testing.T) {
	fx := newFixture(t)
	w := fx.do(t, http.MethodGet, "/api/search?page=-1", "", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRegionsAndAreas(t *testing.T) {
	fx := newFixture(t)

	regions := decode[[]model.Region](t, fx.do(t, http.MethodGet, "/api/regions", "", ""))
	assert.Len(t, regions, 6)
	assert.Equal(t, "1174", regions[0].ID)

	areas := decode[map[string]any](t, fx.do(t, http.MethodGet, "/api/areas", "", ""))
	assert.Equal(t, "1174", areas["root"])
	assert.Equal(t, "2024-01-01T00:00:00Z", areas["updatedAt"])
	assert.Len(t, areas["areas"], 1)

	ids := decode[map[string]any](t, fx.do(t, http.MethodGet, "/api/areas?ids=1", "", ""))
	assert.Equal(t, []any{"5555"}, ids["areas"])
}

func TestBoardEndpoints(t *testing.T) {
	fx := newFixture(t)

	all := decode[[]model.Vacancy](t, fx.do(t, http.MethodGet, "/api/vacancies", "", ""))
	assert.Len(t, all, 5)

	found := decode[[]model.Vacancy](t, fx.do(t, http.MethodGet, "/api/vacancies?query=%D1%80%D0%B0%D0%B7%D1%80%D0%B0%D0%B1%D0%BE%D1%82&perPage=1", "", ""))
	require.Len(t, found, 1)
	assert.Equal(t, "Разработчик React Native", found[0].Title)

	cities := decode[[]string](t, fx.do(t, http.MethodGet, "/api/cities", "", ""))
	assert.Equal(t, []string{"Якутск", "Мирный", "Нерюнгри", "Ленск"}, cities)

	byCity := decode[[]model.Vacancy](t, fx.do(t, http.MethodGet, "/api/vacancies/%D1%8F%D0%BA%D1%83%D1%82%D1%81%D0%BA", "", ""))
	assert.Len(t, byCity, 2)
}

func TestCreateJob(t *testing.T) {
	fx := newFixture(t)

	t.Run("requires token", func(t *testing.T) {
		w := fx.do(t, http.MethodPost, "/api/jobs", `{"title":"a","description":"b","salary":"1"}`, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("rejects bad token", func(t *testing.T) {
		w := fx.do(t, http.MethodPost, "/api/jobs", `{"title":"a","description":"b","salary":"1"}`, "not.a.jwt")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("validation violations", func(t *testing.T) {
		w := fx.do(t, http.MethodPost, "/api/jobs", `{"title":" ","description":"b","salary":"abc"}`, token(t, "u1"))
		require.Equal(t, http.StatusUnprocessableEntity, w.Code)

		var body struct {
			Violations []model.FieldViolation `json:"violations"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		fields := []string{}
		for _, v := range body.Violations {
			fields = append(fields, v.Field)
		}
		assert.Equal(t, []string{"title", "salary"}, fields)
	})

	t.Run("created", func(t *testing.T) {
		w := fx.do(t, http.MethodPost, "/api/jobs", `{"title":"Электрик","description":"Вахта","salary":"90000"}`, token(t, "u1"))
		require.Equal(t, http.StatusCreated, w.Code)

		p := decode[model.LocalJobPosting](t, w)
		assert.Equal(t, "u1", p.CreatedBy)
		assert.Equal(t, "u1@example.ru", p.CreatorMail)
		assert.Equal(t, model.StatusActive, p.Status)

		list := decode[[]model.Vacancy](t, fx.do(t, http.MethodGet, "/api/jobs", "", ""))
		require.Len(t, list, 1)
		assert.Equal(t, "Электрик", list[0].Title)
		assert.True(t, list[0].IsLocal)
	})
}

func TestDeleteJob(t *testing.T) {
	fx := newFixture(t)
	p := fx.addPosting(t, "owner", "Сторож")

	assert.Equal(t, http.StatusForbidden, fx.do(t, http.MethodDelete, "/api/jobs/"+p.ID, "", token(t, "intruder")).Code)
	assert.Equal(t, http.StatusNoContent, fx.do(t, http.MethodDelete, "/api/jobs/"+p.ID, "", token(t, "owner")).Code)
	assert.Equal(t, http.StatusNotFound, fx.do(t, http.MethodDelete, "/api/jobs/"+p.ID, "", token(t, "owner")).Code)
}

func TestWritesDisabledWithoutSecret(t *testing.T) {
	fx := newFixture(t)
	fx.srv = New(Deps{Fetcher: fx.fetcher, Postings: fx.postings})

	w := fx.do(t, http.MethodPost, "/api/jobs", `{}`, token(t, "u1"))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestExpiredTokenRejected(t *testing.T) {
	tok, err := IssueToken(secret, "u1", "", -time.Minute)
	require.NoError(t, err)
	_, err = ParseToken(secret, tok)
	assert.Error(t, err)

	_, err = ParseToken("another-secret-another-secret-xx", token(t, "u1"))
	assert.Error(t, err)
}

func TestBearerToken(t *testing.T) {
	tok, err := bearerToken("bearer abc")
	require.NoError(t, err)
	assert.Equal(t, "abc", tok)

	for _, h := range []string{"", "Bearer", "Bearer  ", "Basic abc"} {
		_, err := bearerToken(h)
		assert.Error(t, err, h)
	}
}

func TestStreamJobs(t *testing.T) {
	fx := newFixture(t)
	fx.addPosting(t, "u1", "Первая")

	ts := httptest.NewServer(fx.srv.Handler())
	defer ts.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/api/jobs/stream", nil)
	require.NoError(t, err)
	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/event-stream")

	events := make(chan []model.Vacancy, 4)
	go func() {
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			line := scanner.Text()
			if data, ok := strings.CutPrefix(line, "data:"); ok {
				var vs []model.Vacancy
				if json.Unmarshal([]byte(strings.TrimSpace(data)), &vs) == nil {
					events <- vs
				}
			}
		}
		close(events)
	}()

	next := func() []model.Vacancy {
		select {
		case vs := <-events:
			return vs
		case <-time.After(2 * time.Second):
			t.Fatal("no snapshot event")
			return nil
		}
	}

	assert.Len(t, next(), 1)
	fx.addPosting(t, "u1", "Вторая")
	second := next()
	require.Len(t, second, 2)
	assert.Equal(t, "Вторая", second[1].Title)
}

func TestShutdownEndsOpenStreams(t *testing.T) {
	fx := newFixture(t)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	served := make(chan error, 1)
	go func() { served <- fx.srv.Serve(ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/api/jobs/stream")
	require.NoError(t, err)
	defer resp.Body.Close()

	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		if strings.HasPrefix(scanner.Text(), "event:snapshot") {
			break
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	start := time.Now()
	require.NoError(t, fx.srv.Shutdown(ctx))
	assert.Less(t, time.Since(start), time.Second)

	select {
	case err := <-served:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after Shutdown")
	}
}
