package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"mrxstudio/internal/domain"
	"mrxstudio/internal/services"
	apperrors "mrxstudio/pkg/errors"
)

// Login issues staff access tokens.
type Login interface {
	Login(ctx context.Context, username, password string) (*services.LoginResult, error)
}

// Reviewer lists submissions and changes their status.
type Reviewer interface {
	List(ctx context.Context, opts services.ListOptions) ([]domain.Submission, error)
	SetStatus(ctx context.Context, id, status string) (*domain.Submission, error)
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type statusRequest struct {
	Status string `json:"status"`
}

// AdminHandler serves the staff review API
type AdminHandler struct {
	auth   Login
	review Reviewer
	vars   func(*http.Request) map[string]string
}

// NewAdminHandler creates a new admin handler. vars extracts path
// parameters for the mux the routes are mounted on.
func NewAdminHandler(auth Login, review Reviewer, vars func(*http.Request) map[string]string) *AdminHandler {
	return &AdminHandler{auth: auth, review: review, vars: vars}
}

// Login handles POST /api/v1/auth/login
func (h *AdminHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeAppError(w, apperrors.New(apperrors.ErrCodeBadRequest, "invalid request body"))
		return
	}
	if req.Username == "" || req.Password == "" {
		writeAppError(w, apperrors.New(apperrors.ErrCodeBadRequest, "username and password are required"))
		return
	}

	res, err := h.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// ListSubmissions handles GET /api/v1/submissions
func (h *AdminHandler) ListSubmissions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := services.ListOptions{Status: q.Get("status")}

	var err error
	if opts.Skip, err = intParam(q.Get("skip"), 0); err != nil {
		writeAppError(w, apperrors.New(apperrors.ErrCodeBadRequest, "skip must be an integer"))
		return
	}
	if opts.Limit, err = intParam(q.Get("limit"), services.DefaultListLimit); err != nil {
		writeAppError(w, apperrors.New(apperrors.ErrCodeBadRequest, "limit must be an integer"))
		return
	}

	subs, err := h.review.List(r.Context(), opts)
	if err != nil {
		writeAppError(w, err)
		return
	}
	if subs == nil {
		subs = []domain.Submission{}
	}
	writeJSON(w, http.StatusOK, subs)
}

// UpdateSubmission handles PATCH /api/v1/submissions/{id}
func (h *AdminHandler) UpdateSubmission(w http.ResponseWriter, r *http.Request) {
	id := h.vars(r)["id"]

	var req statusRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeAppError(w, apperrors.New(apperrors.ErrCodeBadRequest, "invalid request body"))
		return
	}

	sub, err := h.review.SetStatus(r.Context(), id, req.Status)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

func intParam(s string, def int) (int, error) {
	if s == "" {
		return def, nil
	}
	return strconv.Atoi(s)
}
