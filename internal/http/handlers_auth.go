package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	domainauth "github.com/target/mmk-ui-client/internal/domain/auth"
	"github.com/target/mmk-ui-client/internal/domain/route"
	"github.com/target/mmk-ui-client/internal/service"
)

// AuthServiceInterface defines the auth operations the console server needs.
type AuthServiceInterface interface {
	Login(ctx context.Context, req domainauth.LoginRequest) (domainauth.UserProfile, error)
	Logout(ctx context.Context) error
	Status() service.Status
}

// AuthHandlers provides HTTP handlers for authentication operations.
type AuthHandlers struct {
	Svc    AuthServiceInterface
	Routes *route.Table
	// Pages re-renders the login form on failure (optional; JSON is used when nil).
	Pages  *PageHandlers
	Logger *slog.Logger
}

func (h *AuthHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// loginInput is accepted as JSON or as a form post.
type loginInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Remember bool   `json:"remember,omitempty"`
	Captcha  string `json:"captcha,omitempty"`
	Redirect string `json:"redirect,omitempty"`
}

// Login authenticates against the backend and resumes the guarded page.
// POST <login path>.
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	in, ok := h.readLogin(w, r)
	if !ok {
		return
	}

	profile, err := h.Svc.Login(r.Context(), domainauth.LoginRequest{
		Username: in.Username,
		Password: in.Password,
		Remember: in.Remember,
		Captcha:  in.Captcha,
	})
	if err != nil {
		h.logger().InfoContext(r.Context(), "login failed", "username", in.Username, "error", err)
		h.loginFailed(w, r, in, err)
		return
	}

	dest := h.Routes.ResumePath(url.Values{route.ResumeParam: {in.Redirect}}.Encode())
	h.logger().InfoContext(r.Context(), "login succeeded", "user_id", profile.ID, "redirect", dest)

	if WantsJSON(r) {
		WriteJSON(w, http.StatusOK, map[string]any{"redirect": dest, "status": h.Svc.Status()})
		return
	}
	redirect(w, r, dest)
}

func (h *AuthHandlers) readLogin(w http.ResponseWriter, r *http.Request) (loginInput, bool) {
	var in loginInput
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		return in, DecodeJSON(w, r, &in)
	}
	if err := r.ParseForm(); err != nil {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_form", Err: err})
		return in, false
	}
	in.Username = r.PostFormValue("username")
	in.Password = r.PostFormValue("password")
	in.Captcha = r.PostFormValue("captcha")
	in.Redirect = r.PostFormValue("redirect")
	if in.Redirect == "" {
		in.Redirect = r.URL.Query().Get(route.ResumeParam)
	}
	in.Remember, _ = strconv.ParseBool(r.PostFormValue("remember"))
	return in, true
}

func (h *AuthHandlers) loginFailed(w http.ResponseWriter, r *http.Request, in loginInput, err error) {
	if WantsJSON(r) || h.Pages == nil {
		WriteAPIError(w, err)
		return
	}

	data := h.Pages.pageData(r, h.Routes.Login())
	data.Redirect = in.Redirect
	data.Error = userMessage(err)
	status := http.StatusUnauthorized
	if errors.Is(err, service.ErrInvalidLoginInput) {
		data.Error = err.Error()
		status = http.StatusBadRequest
	}
	h.Pages.render(w, r, status, data)
}

// Logout ends the session and returns to the login page.
// POST /logout.
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.Svc.Logout(r.Context()); err != nil {
		// The in-memory session is already gone; only persistence failed.
		h.logger().WarnContext(r.Context(), "logout incomplete", "error", err)
	}

	loginPath := h.Routes.Login().Path
	if WantsJSON(r) {
		WriteJSON(w, http.StatusOK, map[string]string{"redirect": loginPath})
		return
	}
	redirect(w, r, loginPath)
}

// Status reports the client session as JSON.
// GET /auth/status.
func (h *AuthHandlers) Status(w http.ResponseWriter, _ *http.Request) {
	WriteJSON(w, http.StatusOK, h.Svc.Status())
}
