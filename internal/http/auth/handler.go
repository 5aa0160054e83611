package auth

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/ledgerly/internal/auth"
	"github.com/MrJamesThe3rd/ledgerly/internal/http/middleware"
	"github.com/MrJamesThe3rd/ledgerly/internal/http/respond"
	"github.com/MrJamesThe3rd/ledgerly/internal/user"
)

type Handler struct {
	users        *user.Service
	tokens       *auth.Tokens
	secureCookie bool
}

func NewHandler(users *user.Service, tokens *auth.Tokens, secureCookie bool) *Handler {
	return &Handler{users: users, tokens: tokens, secureCookie: secureCookie}
}

// Routes mounts the public endpoints and, behind authenticate, the account ones.
func (h *Handler) Routes(r chi.Router, authenticate func(http.Handler) http.Handler) {
	r.Post("/register", h.register)
	r.Post("/login", h.login)
	r.Post("/logout", h.logout)

	r.Group(func(r chi.Router) {
		r.Use(authenticate)
		r.Get("/me", h.me)
		r.Delete("/me", h.deleteMe)
	})
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Token     string    `json:"token,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

func toResponse(u *user.User, token string) userResponse {
	return userResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Token:     token,
		CreatedAt: u.CreatedAt,
	}
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.BadRequest(w, r, "invalid request body", err)
		return
	}

	u, err := h.users.Register(r.Context(), user.RegisterParams{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	h.startSession(w, r, u, http.StatusCreated)
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.BadRequest(w, r, "invalid request body", err)
		return
	}

	u, err := h.users.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	h.startSession(w, r, u, http.StatusOK)
}

func (h *Handler) startSession(w http.ResponseWriter, r *http.Request, u *user.User, status int) {
	token, err := h.tokens.Issue(u.ID)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.tokens.TTL().Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})

	respond.JSON(w, status, toResponse(u, token))
}

func (h *Handler) logout(w http.ResponseWriter, _ *http.Request) {
	h.clearCookie(w)
	respond.Message(w, http.StatusOK, "logged out successfully")
}

func (h *Handler) clearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	id, _ := middleware.UserID(r.Context())

	u, err := h.users.Get(r.Context(), id)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toResponse(u, ""))
}

func (h *Handler) deleteMe(w http.ResponseWriter, r *http.Request) {
	id, _ := middleware.UserID(r.Context())

	if err := h.users.Delete(r.Context(), id); err != nil {
		respond.Error(w, r, err)
		return
	}

	h.clearCookie(w)
	respond.Message(w, http.StatusOK, "account deleted")
}
