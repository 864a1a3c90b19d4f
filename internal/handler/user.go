package handler

import (
	"log/slog"
	"net/http"

	"github.com/DukeRupert/multitenancy/internal/domain"
	"github.com/DukeRupert/multitenancy/internal/service"
	"github.com/DukeRupert/multitenancy/internal/session"
	"github.com/google/uuid"
)

// UserHandler serves the current-user payload and the home page.
type UserHandler struct {
	users    service.UserService
	billing  service.BillingService
	renderer *Renderer
	logger   *slog.Logger
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(users service.UserService, billing service.BillingService, renderer *Renderer, logger *slog.Logger) *UserHandler {
	return &UserHandler{
		users:    users,
		billing:  billing,
		renderer: renderer,
		logger:   logger,
	}
}

// RegisterRoutes registers user routes. All of them require authentication.
func (h *UserHandler) RegisterRoutes(mux *http.ServeMux, requireUser func(http.Handler) http.Handler) {
	current := requireUser(http.HandlerFunc(h.Current))
	mux.Handle("GET /api/user/{$}", current)
	mux.Handle("POST /api/user/{$}", current)
	mux.Handle("GET /{$}", requireUser(http.HandlerFunc(h.Home)))
}

type teamResponse struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	APIToken string    `json:"api_token"`
}

// userResponse is the current-user payload. Billing is omitted when the
// team does not need to set up billing.
type userResponse struct {
	ID         uuid.UUID             `json:"id"`
	DistinctID string                `json:"distinct_id"`
	FirstName  string                `json:"first_name"`
	Email      string                `json:"email"`
	Team       teamResponse          `json:"team"`
	Billing    *domain.BillingStatus `json:"billing,omitempty"`
}

// =============================================================================
// GET|POST /api/user/ - Current User With Billing
// =============================================================================

// Current returns the authenticated user, their team and the reconciled
// billing state. Reconciling may open a new checkout session.
func (h *UserHandler) Current(w http.ResponseWriter, r *http.Request) {
	user := session.GetUser(r.Context())
	if user == nil {
		UnauthorizedResponse(w, r, h.logger)
		return
	}

	team, status, err := h.load(r, user)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, userResponse{
		ID:         user.ID,
		DistinctID: user.DistinctID,
		FirstName:  user.FirstName,
		Email:      user.Email,
		Team: teamResponse{
			ID:       team.ID,
			Name:     team.Name,
			APIToken: team.APIToken,
		},
		Billing: status,
	})
}

// =============================================================================
// GET / - Home
// =============================================================================

// Home renders the landing page for an authenticated user.
func (h *UserHandler) Home(w http.ResponseWriter, r *http.Request) {
	user := session.GetUser(r.Context())
	if user == nil {
		http.Redirect(w, r, "/signup", http.StatusSeeOther)
		return
	}

	team, status, err := h.load(r, user)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	h.renderer.RenderHTTP(w, http.StatusOK, "home", map[string]any{
		"User":    user,
		"Team":    team,
		"Billing": status,
	})
}

func (h *UserHandler) load(r *http.Request, user *domain.User) (*domain.Team, *domain.BillingStatus, error) {
	team, err := h.users.GetTeam(r.Context(), user.TeamID)
	if err != nil {
		return nil, nil, err
	}

	status, err := h.billing.Reconcile(r.Context(), user)
	if err != nil {
		return nil, nil, err
	}

	return team, status, nil
}
