package adapter

import (
	"book-catalog/internal/core/model"
	"book-catalog/internal/validation"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/oapi-codegen/runtime"
)

// CatalogRepository is the storage the reference service needs.
type CatalogRepository interface {
	Create(ctx context.Context, in model.RecordInput) (model.Record, error)
	GetByID(ctx context.Context, id int) (model.Record, error)
	Update(ctx context.Context, id int, in model.RecordInput) (model.Record, error)
	List(ctx context.Context, q model.QueryParams) (Page[model.Record], error)
}

// Handler serves the catalog REST contract the CatalogClient consumes.
type Handler struct {
	Repo     CatalogRepository
	validate *validation.Validator
	log      *slog.Logger
}

func NewHandler(repo CatalogRepository, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{Repo: repo, validate: validation.New(), log: logger}
}

// HandlerFromMux mounts the catalog routes on r and returns it.
func HandlerFromMux(h *Handler, r chi.Router) http.Handler {
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Get("/books", h.ListBooks)
	r.Post("/books", h.CreateBook)
	r.Get("/books/{id}", h.GetBook)
	r.Put("/books/{id}", h.UpdateBook)
	return r
}

// CORS lets a browser front end served from one of origins call the API.
func CORS(origins []string) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"Location"},
		MaxAge:         300,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string, details map[string]string) {
	e := apiError{}
	e.Error.Code = code
	e.Error.Message = msg
	e.Error.Details = details
	writeJSON(w, status, e)
}

func (h *Handler) ListBooks(w http.ResponseWriter, r *http.Request) {
	q := model.DefaultQueryParams()
	var dir string
	query := r.URL.Query()
	for _, p := range []struct {
		name string
		dest any
	}{
		{"page", &q.Page},
		{"pageSize", &q.PageSize},
		{"title", &q.TitleFilter},
		{"sortBy", &q.SortField},
		{"DIR", &dir},
	} {
		// every parameter is optional; bind only the ones present
		if _, ok := query[p.name]; !ok {
			continue
		}
		if err := runtime.BindQueryParameter("form", true, true, p.name, query, p.dest); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid "+p.name, nil)
			return
		}
	}
	if dir != "" {
		q.SortDirection = model.ParseSortDirection(dir)
	}
	if _, ok := model.ParseField(q.SortField); !ok && q.SortField != "" {
		writeError(w, http.StatusBadRequest, "INVALID_PARAM", "unknown sort field "+q.SortField, nil)
		return
	}
	q = q.Normalize()

	page, err := h.Repo.List(r.Context(), q)
	if err != nil {
		h.log.Error("list books", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL", "list failed", nil)
		return
	}

	resp := listResponse{
		Pagination: &paginationDTO{
			SortDirection: string(q.SortDirection),
			TotalPages:    page.TotalPages(),
			PageSize:      page.PageSize,
			CurrentPage:   page.Page,
			TotalElements: page.Total,
		},
		Data: make([]recordDTO, 0, len(page.Data)),
	}
	for _, b := range page.Data {
		resp.Data = append(resp.Data, recordToDTO(b))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) CreateBook(w http.ResponseWriter, r *http.Request) {
	in, ok := h.decodeInput(w, r)
	if !ok {
		return
	}
	b, err := h.Repo.Create(r.Context(), in)
	if err != nil {
		h.log.Error("create book", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL", "create failed", nil)
		return
	}
	h.log.Info("book created", "id", b.ID)
	w.Header().Set("Location", "/books/"+strconv.Itoa(b.ID))
	writeJSON(w, http.StatusCreated, recordToDTO(b))
}

func (h *Handler) GetBook(w http.ResponseWriter, r *http.Request) {
	id, ok := bindID(w, r)
	if !ok {
		return
	}
	b, err := h.Repo.GetByID(r.Context(), id)
	if errors.Is(err, errNotFound) {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "book not found", nil)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "INTERNAL", "get failed", nil)
		return
	}
	writeJSON(w, http.StatusOK, recordToDTO(b))
}

func (h *Handler) UpdateBook(w http.ResponseWriter, r *http.Request) {
	id, ok := bindID(w, r)
	if !ok {
		return
	}
	in, ok := h.decodeInput(w, r)
	if !ok {
		return
	}
	b, err := h.Repo.Update(r.Context(), id, in)
	if errors.Is(err, errNotFound) {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "book not found", nil)
		return
	}
	if err != nil {
		h.log.Error("update book", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL", "update failed", nil)
		return
	}
	h.log.Info("book updated", "id", b.ID)
	writeJSON(w, http.StatusOK, recordToDTO(b))
}

func (h *Handler) decodeInput(w http.ResponseWriter, r *http.Request) (model.RecordInput, bool) {
	var dto recordInputDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "invalid JSON body", nil)
		return model.RecordInput{}, false
	}
	in := dto.toModel()
	if err := h.validate.Validate(in); err != nil {
		var gwErr *model.GatewayError
		if errors.As(err, &gwErr) {
			writeError(w, http.StatusBadRequest, "VALIDATION", gwErr.Message, gwErr.Details)
		} else {
			writeError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
		}
		return model.RecordInput{}, false
	}
	return in, true
}

func bindID(w http.ResponseWriter, r *http.Request) (int, bool) {
	var id int
	err := runtime.BindStyledParameterWithLocation("simple", false, "id", runtime.ParamLocationPath, chi.URLParam(r, "id"), &id)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid id", nil)
		return 0, false
	}
	return id, true
}
