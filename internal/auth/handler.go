package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/pec-ai/auth/internal/account"
	"github.com/pec-ai/auth/internal/otp"
	"github.com/pec-ai/auth/internal/platform/web"
)

type Handler struct {
	service     *Service
	exposeCodes bool
}

func NewHandler(service *Service, exposeCodes bool) *Handler {
	return &Handler{service: service, exposeCodes: exposeCodes}
}

func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.Handle("POST /api/auth/register", web.Handler(h.handleRegister))
	mux.Handle("POST /api/auth/login", web.Handler(h.handleLogin))
	mux.Handle("POST /api/auth/refresh", web.Handler(h.handleRefresh))
	mux.Handle("POST /api/auth/sms/send", web.Handler(h.handleSendCode))
	mux.Handle("GET /api/auth/me", web.Handler(h.handleMe))
}

type credentialsRequest struct {
	Phone    string `json:"phone"`
	Password string `json:"password"`
	SMSCode  string `json:"sms_code"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type sendCodeRequest struct {
	Phone   string `json:"phone"`
	Purpose string `json:"purpose"`
}

type sendCodeResponse struct {
	Message          string `json:"message"`
	ExpiresInSeconds int    `json:"expires_in_seconds"`
}

type userResponse struct {
	ID       string `json:"id"`
	Phone    string `json:"phone"`
	IsActive bool   `json:"isActive"`
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) *web.Error {
	req, werr := decodeCredentials(r)
	if werr != nil {
		return werr
	}

	tokenPair, _, err := h.service.Register(r.Context(), req.Phone, req.Password, req.SMSCode)
	if err != nil {
		return mapServiceError(err)
	}
	return writeJSON(w, tokenPair)
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) *web.Error {
	req, werr := decodeCredentials(r)
	if werr != nil {
		return werr
	}

	tokenPair, _, err := h.service.Login(r.Context(), req.Phone, req.Password, req.SMSCode)
	if err != nil {
		return mapServiceError(err)
	}
	return writeJSON(w, tokenPair)
}

func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) *web.Error {
	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return &web.Error{Code: http.StatusBadRequest, Message: "Invalid request body", Err: err}
	}
	if req.RefreshToken == "" {
		return &web.Error{Code: http.StatusUnauthorized, Message: "Refresh token required"}
	}

	tokenPair, _, err := h.service.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		return &web.Error{Code: http.StatusUnauthorized, Message: "Invalid refresh token", Err: err}
	}
	return writeJSON(w, tokenPair)
}

func (h *Handler) handleSendCode(w http.ResponseWriter, r *http.Request) *web.Error {
	var req sendCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return &web.Error{Code: http.StatusBadRequest, Message: "Invalid request body", Err: err}
	}
	if strings.TrimSpace(req.Phone) == "" {
		return &web.Error{Code: http.StatusBadRequest, Message: "Phone is required"}
	}

	purpose := otp.Purpose(req.Purpose)
	if req.Purpose == "" {
		purpose = otp.PurposeLogin
	}
	if !purpose.Valid() {
		return &web.Error{Code: http.StatusBadRequest, Message: "Purpose must be login, register, or reset"}
	}

	code, ttl, err := h.service.SendCode(r.Context(), req.Phone, purpose)
	if err != nil {
		return mapServiceError(err)
	}

	message := "code sent"
	if h.exposeCodes {
		message = fmt.Sprintf("dev mode: code=%s, expires in %d min, max attempts %d",
			code, int(ttl.Minutes()), otp.MaxAttempts)
	}
	return writeJSON(w, sendCodeResponse{
		Message:          message,
		ExpiresInSeconds: int(ttl / time.Second),
	})
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) *web.Error {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		return &web.Error{Code: http.StatusUnauthorized, Message: "Unauthorized"}
	}

	user, err := h.service.accountService.GetUserByID(r.Context(), claims.UserID)
	if err != nil {
		return &web.Error{Code: http.StatusUnauthorized, Message: "Unauthorized", Err: err}
	}
	return writeJSON(w, userResponse{
		ID:       user.ID,
		Phone:    user.Phone,
		IsActive: user.IsActive,
	})
}

func decodeCredentials(r *http.Request) (*credentialsRequest, *web.Error) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, &web.Error{Code: http.StatusBadRequest, Message: "Invalid request body", Err: err}
	}
	req.Phone = strings.TrimSpace(req.Phone)
	req.Password = strings.TrimSpace(req.Password)
	req.SMSCode = strings.TrimSpace(req.SMSCode)
	if req.Phone == "" {
		return nil, &web.Error{Code: http.StatusBadRequest, Message: "Phone is required"}
	}
	return &req, nil
}

func writeJSON(w http.ResponseWriter, body any) *web.Error {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(body); err != nil {
		return &web.Error{Code: http.StatusInternalServerError, Message: "Failed to encode response", Err: err}
	}
	return nil
}

func mapServiceError(err error) *web.Error {
	switch {
	case errors.Is(err, account.ErrPhoneExists):
		return &web.Error{Code: http.StatusConflict, Message: "Phone already registered", Err: err}
	case errors.Is(err, account.ErrUserNotFound):
		return &web.Error{Code: http.StatusBadRequest, Message: "User not found", Err: err}
	case errors.Is(err, ErrMissingCredential):
		return &web.Error{Code: http.StatusBadRequest, Message: "Password or sms code required", Err: err}
	case errors.Is(err, ErrWeakPassword):
		return &web.Error{Code: http.StatusBadRequest, Message: "Password too short (min 6 chars)", Err: err}
	case errors.Is(err, account.ErrPasswordTooLong):
		return &web.Error{Code: http.StatusBadRequest, Message: "Password too long (max 72 bytes)", Err: err}
	case errors.Is(err, ErrPasswordNotSet):
		return &web.Error{Code: http.StatusUnauthorized, Message: "Password login not set", Err: err}
	case errors.Is(err, ErrInvalidCredentials):
		return &web.Error{Code: http.StatusUnauthorized, Message: "Invalid phone or password", Err: err}
	case errors.Is(err, ErrInvalidToken):
		return &web.Error{Code: http.StatusUnauthorized, Message: "Invalid token", Err: err}
	case errors.Is(err, otp.ErrLocked):
		return &web.Error{Code: http.StatusTooManyRequests, Message: "Sms code locked, too many attempts", Err: err}
	case errors.Is(err, otp.ErrNotFound),
		errors.Is(err, otp.ErrInvalidFormat),
		errors.Is(err, otp.ErrExpired),
		errors.Is(err, otp.ErrMismatch):
		return &web.Error{Code: http.StatusBadRequest, Message: "Invalid sms code", Err: err}
	default:
		return &web.Error{Code: http.StatusInternalServerError, Message: "Internal server error", Err: err}
	}
}
