package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/oapi-codegen/runtime/strictmiddleware/nethttp"

	slogctx "github.com/veqryn/slog-context"

	"github.com/openkcm/catalog-client/internal/store"
	"github.com/openkcm/catalog-client/pkg/catalog"
	"github.com/openkcm/catalog-client/pkg/session"
)

const maxRequestBody = 1 << 20

// Deps are the parts of the application the server works on.
type Deps struct {
	Session  *session.Manager
	Catalog  *catalog.Service
	Local    *catalog.LocalProducts
	Store    store.Store
	PageSize int
}

type handlers struct {
	deps Deps
	now  func() time.Time
}

type jsonResponse struct {
	status int
	body   any
}

// handle adapts a strict handler to net/http. The middlewares wrap it
// first, the response or error is written last.
func handle(fn nethttp.StrictHTTPHandlerFunc, operationID string, middlewares ...nethttp.StrictHTTPMiddlewareFunc) http.HandlerFunc {
	for _, m := range middlewares {
		fn = m(fn, operationID)
	}

	return func(w http.ResponseWriter, r *http.Request) {
		response, err := fn(r.Context(), w, r, nil)
		if err != nil {
			writeError(w, r, err)
			return
		}

		resp, ok := response.(jsonResponse)
		if !ok {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		writeJSON(w, resp.status, resp.body)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	body, status := toErrorModel(err)
	if status == http.StatusInternalServerError {
		slogctx.Error(r.Context(), "Request failed", "path", r.URL.Path, "error", err)
	}
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func decodeBody(w http.ResponseWriter, r *http.Request, into any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	if err := dec.Decode(into); err != nil {
		return fmt.Errorf("decoding request body: %w", err)
	}

	return nil
}

type sessionResponse struct {
	Status     string                `json:"status"`
	User       *session.UserIdentity `json:"user,omitempty"`
	RememberMe bool                  `json:"rememberMe"`
}

func toSessionResponse(s session.State) sessionResponse {
	return sessionResponse{
		Status:     s.Status().String(),
		User:       s.User,
		RememberMe: s.RememberMe,
	}
}

func (h *handlers) getSession(ctx context.Context, _ http.ResponseWriter, _ *http.Request, _ any) (any, error) {
	if err := h.deps.Session.Wait(ctx); err != nil {
		return nil, err
	}

	return jsonResponse{status: http.StatusOK, body: toSessionResponse(h.deps.Session.State())}, nil
}

type loginRequest struct {
	Username   string `json:"username"`
	Password   string `json:"password"`
	RememberMe bool   `json:"rememberMe"`
}

func (h *handlers) login(ctx context.Context, w http.ResponseWriter, r *http.Request, _ any) (any, error) {
	var req loginRequest
	if err := decodeBody(w, r, &req); err != nil {
		return jsonResponse{status: http.StatusBadRequest, body: errorModel{Error: "invalid_request", ErrorDescription: err.Error()}}, nil
	}

	creds := session.Credentials{
		Username:   strings.TrimSpace(req.Username),
		Password:   req.Password,
		RememberMe: req.RememberMe,
	}
	if err := creds.Validate(); err != nil {
		return nil, err
	}

	if _, err := h.deps.Session.Login(ctx, creds); err != nil {
		return nil, err
	}

	return jsonResponse{status: http.StatusOK, body: toSessionResponse(h.deps.Session.State())}, nil
}

func (h *handlers) logout(ctx context.Context, _ http.ResponseWriter, _ *http.Request, _ any) (any, error) {
	h.deps.Session.Logout(ctx)

	return jsonResponse{status: http.StatusOK, body: toSessionResponse(h.deps.Session.State())}, nil
}

// listProducts serves one page: GET /products?q=&page=&sort=&dir=&refresh=
// The router only lets signed in requests through.
func (h *handlers) listProducts(ctx context.Context, _ http.ResponseWriter, r *http.Request, _ any) (any, error) {
	query := r.URL.Query()

	page := 1
	if raw := query.Get("page"); raw != "" {
		p, err := strconv.Atoi(raw)
		if err != nil || p < 1 {
			return jsonResponse{status: http.StatusBadRequest, body: errorModel{Error: "invalid_request", ErrorDescription: "page must be a positive number"}}, nil
		}
		page = p
	}

	sort := catalog.LoadSort(ctx, h.deps.Store)
	if query.Has("sort") || query.Has("dir") {
		sort = catalog.ParseSort(query.Get("sort"), query.Get("dir"))
		if err := catalog.SaveSort(ctx, h.deps.Store, sort); err != nil {
			slogctx.Warn(ctx, "Could not save the sort preference", "error", err)
		}
	}

	if refresh, _ := strconv.ParseBool(query.Get("refresh")); refresh {
		h.deps.Catalog.Invalidate()
	}

	local, err := h.deps.Local.List(ctx)
	if err != nil {
		return nil, err
	}

	listing := catalog.NewListing(h.deps.Catalog,
		catalog.WithPageSize(h.deps.PageSize),
		catalog.WithSort(sort),
		catalog.WithLocalProducts(local),
	)
	listing.SetSearch(query.Get("q"))
	listing.SetPage(page)

	if err := listing.Load(ctx); err != nil {
		return nil, err
	}

	return jsonResponse{status: http.StatusOK, body: listing.View()}, nil
}

func (h *handlers) addProduct(ctx context.Context, w http.ResponseWriter, r *http.Request, _ any) (any, error) {
	var form catalog.NewProduct
	if err := decodeBody(w, r, &form); err != nil {
		return jsonResponse{status: http.StatusBadRequest, body: errorModel{Error: "invalid_request", ErrorDescription: err.Error()}}, nil
	}

	product, err := catalog.ParseNewProduct(form, h.now())
	if err != nil {
		return nil, err
	}

	if err := h.deps.Local.Add(ctx, product); err != nil {
		return nil, err
	}

	slogctx.Info(ctx, "Added a local product", "id", product.ID)

	return jsonResponse{status: http.StatusCreated, body: product}, nil
}
