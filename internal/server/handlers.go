package server

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rsilvagit/go-vacancies/internal/fetcher"
	"github.com/rsilvagit/go-vacancies/internal/filter"
	"github.com/rsilvagit/go-vacancies/internal/jobstore"
	"github.com/rsilvagit/go-vacancies/internal/model"
	"github.com/rsilvagit/go-vacancies/internal/region"
)

type searchRequest struct {
	Area           string `form:"area"`
	Text           string `form:"text"`
	Page           int    `form:"page"`
	PerPage        int    `form:"perPage"`
	OnlyWithSalary *bool  `form:"onlyWithSalary"`
}

type searchResponse struct {
	Items      []model.Vacancy `json:"items"`
	Page       int             `json:"page"`
	Pages      int             `json:"pages"`
	Found      int             `json:"found"`
	HasMore    bool            `json:"hasMore"`
	LocalError string          `json:"localError,omitempty"`
	FetchError string          `json:"fetchError,omitempty"`
}

// search fetches one page and merges it with local postings. Local postings
// are merged into the first page only. A failing source degrades the
// response instead of failing it, unless nothing is left to show.
func (s *Server) search(c *gin.Context) {
	var req searchRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	q := fetcher.Query{
		Region:         s.resolveRegion(req.Area),
		Text:           req.Text,
		Page:           req.Page,
		PerPage:        req.PerPage,
		OnlyWithSalary: s.deps.OnlyWithSalary,
	}
	if req.OnlyWithSalary != nil {
		q.OnlyWithSalary = *req.OnlyWithSalary
	}
	if q.PerPage <= 0 {
		q.PerPage = s.deps.PerPage
	}
	if err := q.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var resp searchResponse

	var local []model.Vacancy
	if q.Page == 0 {
		if s.deps.Postings == nil {
			resp.LocalError = "local postings are not configured"
		} else if vs, err := s.deps.Postings.List(c.Request.Context()); err != nil {
			slog.Warn("listing local postings failed", "component", "server", "err", err)
			resp.LocalError = err.Error()
		} else {
			local = vs
		}
	}

	page, fetchErr := s.deps.Fetcher.FetchPage(c.Request.Context(), q)
	resp.Items = filter.Merge(local, page.Vacancies, q.Text)

	if fetchErr != nil {
		slog.Warn("vacancy fetch failed", "component", "server", "area", q.Region.ID, "page", q.Page, "err", fetchErr)
		if len(resp.Items) == 0 {
			writeError(c, fetchErr)
			return
		}
		resp.FetchError = fetchErr.Error()
		resp.Page = q.Page
		c.JSON(http.StatusOK, resp)
		return
	}

	resp.Page = page.Page
	resp.Pages = page.TotalPages
	resp.Found = page.Found
	resp.HasMore = page.HasMore()
	c.JSON(http.StatusOK, resp)
}

// resolveRegion maps the area parameter to a region: catalog id or name,
// then the cached hierarchy, then the raw id. Empty selects the root.
func (s *Server) resolveRegion(area string) model.Region {
	area = strings.TrimSpace(area)
	if area == "" {
		area = s.deps.RootID
	}
	if area == "" {
		area = region.RootID
	}
	if r, ok := region.Resolve(area); ok {
		return r
	}
	if s.deps.Areas != nil {
		if a, ok := s.deps.Areas.Lookup(area); ok {
			return model.Region{ID: a.ID, DisplayName: a.Name}
		}
	}
	return model.Region{ID: area, DisplayName: area}
}

func (s *Server) regions(c *gin.Context) {
	c.JSON(http.StatusOK, region.All())
}

func (s *Server) areas(c *gin.Context) {
	if s.deps.Areas == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "region hierarchy is not configured"})
		return
	}
	areas, updated := s.deps.Areas.Areas()
	body := gin.H{"root": s.deps.RootID, "areas": areas}
	if c.Query("ids") == "1" {
		body["areas"] = region.SubRegionIDs(areas)
	}
	if !updated.IsZero() {
		body["updatedAt"] = updated.UTC().Format(time.RFC3339)
	}
	c.JSON(http.StatusOK, body)
}

type boardRequest struct {
	Query   string `form:"query"`
	PerPage int    `form:"perPage"`
}

func (s *Server) boardSearch(c *gin.Context) {
	var req boardRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, s.deps.Board.Search(req.Query, req.PerPage))
}

func (s *Server) boardCities(c *gin.Context) {
	c.JSON(http.StatusOK, s.deps.Board.Cities())
}

func (s *Server) boardByCity(c *gin.Context) {
	var req boardRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, s.deps.Board.ByCity(c.Param("city"), req.PerPage))
}

func (s *Server) listJobs(c *gin.Context) {
	if !s.postingsConfigured(c) {
		return
	}
	vs, err := s.deps.Postings.List(c.Request.Context())
	if err != nil {
		slog.Error("listing local postings failed", "component", "server", "err", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "job store unavailable"})
		return
	}
	c.JSON(http.StatusOK, vs)
}

func (s *Server) createJob(c *gin.Context) {
	if !s.postingsConfigured(c) {
		return
	}
	var in model.PostingInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "body must be a JSON object with title, description and salary"})
		return
	}

	p, err := s.deps.Postings.Create(c.Request.Context(), authorFrom(c), in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (s *Server) deleteJob(c *gin.Context) {
	if !s.postingsConfigured(c) {
		return
	}
	if err := s.deps.Postings.DeleteAs(c.Request.Context(), c.Param("id"), authorFrom(c).UserID); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// streamJobs sends one "snapshot" event per live snapshot until the client
// disconnects, which cancels the request context and ends the subscription.
func (s *Server) streamJobs(c *gin.Context) {
	if !s.postingsConfigured(c) {
		return
	}
	sub, err := s.deps.Postings.Watch(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	defer sub.Close()

	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")
	c.Stream(func(io.Writer) bool {
		snap, ok := <-sub.C()
		if !ok {
			if err := sub.Err(); err != nil {
				c.SSEvent("error", err.Error())
			}
			return false
		}
		c.SSEvent("snapshot", snap.Vacancies)
		return true
	})
}

func (s *Server) postingsConfigured(c *gin.Context) bool {
	if s.deps.Postings == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "local postings are not configured"})
		return false
	}
	return true
}

// writeError maps the error taxonomy to HTTP statuses.
func writeError(c *gin.Context, err error) {
	var (
		verr *model.ValidationError
		ferr *fetcher.FetchError
	)
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "validation failed", "violations": verr.Violations})
	case errors.Is(err, jobstore.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "posting not found"})
	case errors.Is(err, jobstore.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "only the creator can delete a posting"})
	case errors.Is(err, jobstore.ErrSubscriptionFailed):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	case errors.Is(err, fetcher.ErrInvalidQuery):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.As(err, &ferr):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error(), "upstreamStatus": ferr.StatusCode})
	default:
		slog.Error("request failed", "component", "server", "path", c.FullPath(), "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
