package http

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httplog/v2"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"github.com/vadimbarashkov/shortly/internal/config"
	"github.com/vadimbarashkov/shortly/internal/database"
	"github.com/vadimbarashkov/shortly/internal/models"
	"github.com/vadimbarashkov/shortly/pkg/response"
)

// createURLRequest represents the request payload for creating a shortened URL.
type createURLRequest struct {
	URL           string `json:"url" validate:"required,url"`
	ExpiresInDays *int64 `json:"expires_in_days,omitempty" validate:"omitempty,gte=0"`
}

// createURLResponse represents the response payload for a successful creation.
type createURLResponse struct {
	ID          string     `json:"id"`
	OriginalURL string     `json:"original_url"`
	ShortURL    string     `json:"short_url"`
	ExpiresAt   *time.Time `json:"expires_at"`
}

type urlStatsResponse struct {
	ID          string     `json:"id"`
	OriginalURL string     `json:"original_url"`
	ShortCode   string     `json:"short_code"`
	Visits      int64      `json:"visits"`
	CreatedAt   time.Time  `json:"created_at"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
}

type statsResponse struct {
	TotalURLs   int64              `json:"total_urls"`
	TotalVisits int64              `json:"total_visits"`
	URLs        []urlStatsResponse `json:"urls"`
}

func toStatsResponse(stats *models.Stats) statsResponse {
	resp := statsResponse{
		TotalURLs:   stats.TotalURLs,
		TotalVisits: stats.TotalVisits,
		URLs:        make([]urlStatsResponse, 0, len(stats.URLs)),
	}

	for _, url := range stats.URLs {
		resp.URLs = append(resp.URLs, urlStatsResponse{
			ID:          url.ID.String(),
			OriginalURL: url.OriginalURL,
			ShortCode:   url.ShortCode,
			Visits:      url.Visits,
			CreatedAt:   url.CreatedAt,
			ExpiresAt:   url.ExpiresAt,
		})
	}

	return resp
}

// serverError renders a 500 envelope, attaching error detail outside
// production.
func serverError(w http.ResponseWriter, r *http.Request, env string, err error) {
	resp := response.ServerErrorResponse
	if env != config.EnvProd {
		resp = resp.WithDetails(err.Error())
	}

	render.Status(r, http.StatusInternalServerError)
	render.JSON(w, r, resp)
}

// handleCreateShortURL handles POST requests to create a shortened URL.
//
// The request must contain a valid URL and may carry an optional expiration
// in days. The handler validates the input, calls the service and returns the
// composed short link with relevant metadata.
func handleCreateShortURL(svc URLService, validate *validator.Validate, env string) http.HandlerFunc {
	const op = "api.http.handleCreateShortURL"
	const successMsg = "The URL has been shortened successfully."

	return func(w http.ResponseWriter, r *http.Request) {
		var req createURLRequest

		if err := render.DecodeJSON(r.Body, &req); err != nil {
			if errors.Is(err, io.EOF) {
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, response.EmptyRequestBodyResponse)
				return
			}

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.BadRequestResponse)
			return
		}

		if err := validate.Struct(req); err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.ValidationErrorResponse(err))
			return
		}

		url, err := svc.CreateShortURL(r.Context(), req.URL, req.ExpiresInDays)
		if err != nil {
			httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})

			serverError(w, r, env, err)
			return
		}

		render.Status(r, http.StatusOK)
		render.JSON(w, r, response.SuccessResponse(successMsg, createURLResponse{
			ID:          url.ID.String(),
			OriginalURL: url.OriginalURL,
			ShortURL:    svc.ShortURL(url.ShortCode),
			ExpiresAt:   url.ExpiresAt,
		}))
	}
}

// handleRedirect handles GET requests for a short code and redirects to the
// destination URL.
func handleRedirect(svc URLService, env string) http.HandlerFunc {
	const op = "api.http.handleRedirect"

	return func(w http.ResponseWriter, r *http.Request) {
		shortCode := chi.URLParam(r, "shortCode")

		originalURL, err := svc.ResolveShortCode(r.Context(), shortCode)
		if err != nil {
			if errors.Is(err, database.ErrURLNotFound) {
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, response.ResourceNotFoundResponse)
				return
			}

			httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})

			serverError(w, r, env, err)
			return
		}

		http.Redirect(w, r, originalURL, http.StatusTemporaryRedirect)
	}
}

// handleStats handles GET requests for aggregate usage statistics.
func handleStats(svc URLService, env string) http.HandlerFunc {
	const op = "api.http.handleStats"
	const successMsg = "The statistics were retrieved successfully."

	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := svc.Stats(r.Context())
		if err != nil {
			httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})

			serverError(w, r, env, err)
			return
		}

		render.Status(r, http.StatusOK)
		render.JSON(w, r, response.SuccessResponse(successMsg, toStatsResponse(stats)))
	}
}

type healthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Cache    string `json:"cache"`
}

// handleHealth probes both backing stores and reports healthy only if both
// probes succeed.
func handleHealth(svc URLService) http.HandlerFunc {
	const op = "api.http.handleHealth"

	return func(w http.ResponseWriter, r *http.Request) {
		resp := healthResponse{
			Status:   "ok",
			Database: "up",
			Cache:    "up",
		}
		status := http.StatusOK

		if err := svc.PingDatabase(r.Context()); err != nil {
			httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})
			resp.Status = "degraded"
			resp.Database = "down"
			status = http.StatusServiceUnavailable
		}

		if err := svc.PingCache(r.Context()); err != nil {
			httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})
			resp.Status = "degraded"
			resp.Cache = "down"
			status = http.StatusServiceUnavailable
		}

		render.Status(r, status)
		render.JSON(w, r, resp)
	}
}
