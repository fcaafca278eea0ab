package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"net/mail"
	"strings"
	"unicode/utf8"

	"shopadmin/internal/middleware"
	"shopadmin/internal/models"
	"shopadmin/internal/session"
	"shopadmin/internal/store"
)

const (
	minPasswordLen  = 8
	maxUserNameLen  = 100
	maxUserEmailLen = 255
)

// userInput is the body of a user create request.
type userInput struct {
	Email    string      `json:"email"`
	Name     string      `json:"name"`
	Password string      `json:"password"`
	Role     models.Role `json:"role"`
}

// normalize trims the input and returns the first validation error found.
func (in *userInput) normalize() string {
	in.Email = strings.TrimSpace(in.Email)
	in.Name = strings.TrimSpace(in.Name)
	switch {
	case in.Email == "":
		return "Email is required."
	case len(in.Email) > maxUserEmailLen:
		return "Email is too long."
	case !validEmail(in.Email):
		return "Email is not valid."
	case in.Name == "":
		return "Name is required."
	case utf8.RuneCountInString(in.Name) > maxUserNameLen:
		return "Name is too long."
	case len(in.Password) < minPasswordLen:
		return "Password must be at least 8 characters."
	case in.Role != models.RoleAdmin && in.Role != models.RoleStaff:
		return "Invalid role."
	}
	return ""
}

// validEmail accepts a bare address, without a display name.
func validEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s
}

// UsersList returns every staff account.
func (a *Admin) UsersList(w http.ResponseWriter, r *http.Request) {
	users, err := a.users.List(r.Context())
	if err != nil {
		serverError(w, r, "list users failed", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": users, "total": len(users)})
}

// UserCreate adds a staff account. The new user sets up 2FA on first login.
func (a *Admin) UserCreate(w http.ResponseWriter, r *http.Request) {
	var in userInput
	if !decodeJSON(w, r, &in) {
		return
	}
	if msg := in.normalize(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	existing, err := a.users.FindByEmail(r.Context(), in.Email)
	if err != nil {
		serverError(w, r, "find user by email failed", err)
		return
	}
	if existing != nil {
		writeError(w, http.StatusConflict, "A user with this email already exists.")
		return
	}

	u, err := a.users.Create(r.Context(), in.Email, in.Password, in.Name, in.Role)
	if errors.Is(err, store.ErrEmailTaken) {
		writeError(w, http.StatusConflict, "A user with this email already exists.")
		return
	}
	if err != nil {
		serverError(w, r, "create user failed", err)
		return
	}

	sess := middleware.SessionFromCtx(r.Context())
	slog.Info("user created", "admin", sessionEmail(sess), "new_user", u.Email, "role", u.Role)
	writeJSON(w, http.StatusCreated, u)
}

// UserResetTwoFA resets another user's 2FA, forcing re-setup on next login.
func (a *Admin) UserResetTwoFA(w http.ResponseWriter, r *http.Request) {
	targetID, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	// Cannot reset your own 2FA.
	sess := middleware.SessionFromCtx(r.Context())
	if sess != nil && targetID == sess.UserID {
		writeError(w, http.StatusForbidden, "You cannot reset your own 2FA.")
		return
	}

	err := a.users.ResetTOTP(r.Context(), targetID)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "User not found.")
		return
	}
	if err != nil {
		serverError(w, r, "reset 2fa failed", err)
		return
	}

	slog.Info("2fa reset by admin", "admin", sessionEmail(sess), "target_user", targetID)
	w.WriteHeader(http.StatusNoContent)
}

func sessionEmail(sess *session.Data) string {
	if sess == nil {
		return ""
	}
	return sess.Email
}
