package handlers

import (
	"context"
	"encoding/base64"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/pquerna/otp/totp"
	qrcode "github.com/skip2/go-qrcode"

	"shopadmin/internal/middleware"
	"shopadmin/internal/models"
	"shopadmin/internal/session"
)

// totpIssuer names the account in authenticator apps.
const totpIssuer = "ShopAdmin"

// UserRepo is the user persistence the auth handlers need.
type UserRepo interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	CheckPassword(user *models.User, password string) bool
	SetTOTPSecret(ctx context.Context, userID uuid.UUID, secret string) error
	EnableTOTP(ctx context.Context, userID uuid.UUID) error
}

// SessionStore creates, updates and destroys login sessions.
type SessionStore interface {
	Create(ctx context.Context, w http.ResponseWriter, data *session.Data) (string, error)
	Update(ctx context.Context, r *http.Request, data *session.Data) error
	Destroy(ctx context.Context, w http.ResponseWriter, r *http.Request) error
}

// Auth groups all authentication-related HTTP handlers.
type Auth struct {
	sessions  SessionStore
	userStore UserRepo
}

// NewAuth creates a new Auth handler group.
func NewAuth(sessions SessionStore, userStore UserRepo) *Auth {
	return &Auth{
		sessions:  sessions,
		userStore: userStore,
	}
}

// CSRFToken returns the double-submit token for the current client so the
// UI can send it on its first state-changing request.
func (a *Auth) CSRFToken(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"csrf_token": middleware.CSRFTokenFromCtx(r.Context())})
}

// Me describes the current session.
func (a *Auth) Me(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	if sess == nil {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"user_id":     sess.UserID,
		"email":       sess.Email,
		"name":        sess.Name,
		"role":        sess.Role,
		"two_fa_done": sess.TwoFADone,
		"csrf_token":  middleware.CSRFTokenFromCtx(r.Context()),
	})
}

// Login checks email and password and opens a session with 2FA pending.
// The response tells the UI whether to show TOTP setup or verification.
func (a *Auth) Login(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	email := strings.TrimSpace(body.Email)
	if email == "" || body.Password == "" {
		writeError(w, http.StatusBadRequest, "Email and password are required.")
		return
	}

	user, err := a.userStore.FindByEmail(r.Context(), email)
	if err != nil {
		serverError(w, r, "login lookup failed", err)
		return
	}
	if user == nil || !user.IsActive || !a.userStore.CheckPassword(user, body.Password) {
		slog.Info("login rejected", "email", email)
		writeError(w, http.StatusUnauthorized, "Invalid email or password.")
		return
	}

	// TwoFADone starts false; the user must complete the TOTP step.
	_, err = a.sessions.Create(r.Context(), w, &session.Data{
		UserID:    user.ID,
		Email:     user.Email,
		Name:      user.Name,
		Role:      string(user.Role),
		TwoFADone: false,
	})
	if err != nil {
		serverError(w, r, "session create failed", err)
		return
	}

	next := "2fa_verify"
	if user.Needs2FASetup() {
		next = "2fa_setup"
	}
	writeJSON(w, http.StatusOK, map[string]string{"next": next})
}

// TwoFASetup generates a new TOTP secret for a user who has not enabled
// 2FA yet and returns it with a base64 PNG QR code.
func (a *Auth) TwoFASetup(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	if sess == nil {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	user, err := a.userStore.FindByID(r.Context(), sess.UserID)
	if err != nil || user == nil {
		serverError(w, r, "user lookup for 2fa setup failed", err)
		return
	}
	if user.TOTPEnabled {
		writeError(w, http.StatusConflict, "Two-factor authentication is already set up.")
		return
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      totpIssuer,
		AccountName: sess.Email,
	})
	if err != nil {
		serverError(w, r, "totp generate failed", err)
		return
	}

	if err := a.userStore.SetTOTPSecret(r.Context(), sess.UserID, key.Secret()); err != nil {
		serverError(w, r, "save totp secret failed", err)
		return
	}

	qrPNG, err := qrcode.Encode(key.URL(), qrcode.Medium, 256)
	if err != nil {
		serverError(w, r, "qr code generation failed", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"secret":  key.Secret(),
		"qr_code": "data:image/png;base64," + base64.StdEncoding.EncodeToString(qrPNG),
	})
}

// TwoFAVerify validates a TOTP code and completes authentication. The
// first successful code after setup enables TOTP for the user.
func (a *Auth) TwoFAVerify(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	if sess == nil {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var body struct {
		Code string `json:"code"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}

	user, err := a.userStore.FindByID(r.Context(), sess.UserID)
	if err != nil || user == nil {
		serverError(w, r, "user lookup for 2fa failed", err)
		return
	}
	if user.TOTPSecret == nil {
		writeError(w, http.StatusConflict, "Two-factor authentication is not set up.")
		return
	}

	if !totp.Validate(strings.TrimSpace(body.Code), *user.TOTPSecret) {
		writeError(w, http.StatusUnauthorized, "Invalid code. Please try again.")
		return
	}

	if !user.TOTPEnabled {
		if err := a.userStore.EnableTOTP(r.Context(), user.ID); err != nil {
			serverError(w, r, "enable totp failed", err)
			return
		}
	}

	sess.TwoFADone = true
	if err := a.sessions.Update(r.Context(), r, sess); err != nil {
		serverError(w, r, "session update failed", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"two_fa_done": true})
}

// Logout destroys the session.
func (a *Auth) Logout(w http.ResponseWriter, r *http.Request) {
	if err := a.sessions.Destroy(r.Context(), w, r); err != nil {
		slog.Warn("session destroy failed", "error", err)
	}
	w.WriteHeader(http.StatusNoContent)
}
