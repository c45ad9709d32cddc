package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"meridian/internal/auth/models"
	"meridian/internal/platform/middleware"
	jsonResponse "meridian/internal/transport/http/json"
	"meridian/internal/transport/http/shared"
	dErrors "meridian/pkg/domain-errors"
	s "meridian/pkg/string"
	"meridian/pkg/validation"
)

// Service defines the interface for authentication operations.
type Service interface {
	Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResult, error)
	VerifyMfa(ctx context.Context, req *models.MfaVerifyRequest) (*models.LoginResult, error)
	Refresh(ctx context.Context, req *models.RefreshRequest) (*models.LoginResult, error)
	Logout(ctx context.Context, accessToken, refreshToken string) (*models.LogoutResult, error)
}

// Handler handles authentication endpoints including login, MFA verification,
// token refresh, and logout.
type Handler struct {
	auth   Service
	logger *slog.Logger
}

// New creates a new auth Handler with the given service and logger.
func New(auth Service, logger *slog.Logger) *Handler {
	return &Handler{
		auth:   auth,
		logger: logger,
	}
}

// Register registers the auth routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/auth/login", h.HandleLogin)
	r.Post("/auth/mfa/verify", h.HandleMfaVerify)
	r.Post("/auth/refresh", h.HandleRefresh)
	r.Post("/auth/logout", h.HandleLogout)
}

// HandleLogin implements POST /auth/login.
//
// Input: { "usernameOrEmail": "jmorgan", "password": "..." }
// Output: a token pair, or { "requiresMfa": true, "mfaToken": "mfa_..." }
// when the account has MFA enabled.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	var req *models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "failed to decode login request",
			"error", err,
			"request_id", requestID,
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "Invalid JSON in request body"))
		return
	}
	// A body of "null" decodes without error but leaves req nil.
	if req == nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "Request body is required"))
		return
	}

	s.TrimStrings(&req.UsernameOrEmail)
	if err := validation.Validate(req); err != nil {
		h.logger.WarnContext(ctx, "invalid login request",
			"error", err,
			"request_id", requestID,
		)
		shared.WriteError(w, err)
		return
	}

	result, err := h.auth.Login(ctx, req)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	jsonResponse.WriteJSON(w, http.StatusOK, result)
}

// HandleMfaVerify implements POST /auth/mfa/verify.
//
// Input: { "mfaToken": "mfa_...", "code": "123456" }
func (h *Handler) HandleMfaVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	var req *models.MfaVerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "failed to decode MFA verify request",
			"error", err,
			"request_id", requestID,
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "Invalid JSON in request body"))
		return
	}
	if req == nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "Request body is required"))
		return
	}

	s.TrimStrings(&req.MfaToken, &req.Code)
	if err := validation.Validate(req); err != nil {
		h.logger.WarnContext(ctx, "invalid MFA verify request",
			"error", err,
			"request_id", requestID,
		)
		shared.WriteError(w, err)
		return
	}

	result, err := h.auth.VerifyMfa(ctx, req)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	jsonResponse.WriteJSON(w, http.StatusOK, result)
}

// HandleRefresh implements POST /auth/refresh.
//
// Input: { "refreshToken": "..." }
func (h *Handler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	var req *models.RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "failed to decode refresh request",
			"error", err,
			"request_id", requestID,
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "Invalid JSON in request body"))
		return
	}
	if req == nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "Request body is required"))
		return
	}

	s.TrimStrings(&req.RefreshToken)
	if err := validation.Validate(req); err != nil {
		h.logger.WarnContext(ctx, "invalid refresh request",
			"error", err,
			"request_id", requestID,
		)
		shared.WriteError(w, err)
		return
	}

	result, err := h.auth.Refresh(ctx, req)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	jsonResponse.WriteJSON(w, http.StatusOK, result)
}

// HandleSession implements GET /auth/session. It echoes the authenticated
// principal so clients can introspect the token they hold. The route sits
// behind RequirePrincipal, so the principal is always present here.
func (h *Handler) HandleSession(w http.ResponseWriter, r *http.Request) {
	p := middleware.GetPrincipal(r.Context())
	if p == nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}
	jsonResponse.WriteJSON(w, http.StatusOK, map[string]any{
		"accountId":             p.AccountID,
		"username":              p.Username,
		"email":                 p.Email,
		"roles":                 p.Roles,
		"sessionTimeoutSeconds": int(p.SessionTimeout.Seconds()),
		"mfaEnabled":            p.MfaEnabled,
	})
}

// HandleLogout implements POST /auth/logout.
//
// The access token comes from the Authorization header; an optional body may
// carry the refresh token to revoke alongside it. Logout succeeds whether or
// not the tokens were still usable.
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	accessToken := middleware.BearerToken(r)

	var body struct {
		RefreshToken string `json:"refreshToken"`
	}
	if r.Body != nil {
		// The body is optional; ignore decode failures.
		_ = json.NewDecoder(r.Body).Decode(&body)
	}

	result, err := h.auth.Logout(ctx, accessToken, body.RefreshToken)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	jsonResponse.WriteJSON(w, http.StatusOK, result)
}
