package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/DukeRupert/multitenancy/internal/csrf"
	"github.com/DukeRupert/multitenancy/internal/domain"
	"github.com/DukeRupert/multitenancy/internal/service"
	"github.com/DukeRupert/multitenancy/internal/session"
	"github.com/google/uuid"
)

// maxSignupBodyBytes bounds the signup request body.
const maxSignupBodyBytes = 1 << 20

// SignupHandler serves the team signup API and the signup page.
type SignupHandler struct {
	signup   service.SignupService
	renderer *Renderer
	logger   *slog.Logger
	isSecure bool
}

// NewSignupHandler creates a new SignupHandler.
func NewSignupHandler(signup service.SignupService, renderer *Renderer, logger *slog.Logger, isSecure bool) *SignupHandler {
	return &SignupHandler{
		signup:   signup,
		renderer: renderer,
		logger:   logger,
		isSecure: isSecure,
	}
}

// RegisterRoutes registers signup routes. limit wraps the routes that create accounts.
func (h *SignupHandler) RegisterRoutes(mux *http.ServeMux, limit func(http.Handler) http.Handler) {
	mux.Handle("POST /api/team/signup/{$}", limit(http.HandlerFunc(h.Signup)))
	mux.HandleFunc("GET /signup", h.ShowSignup)
	mux.Handle("POST /signup", limit(http.HandlerFunc(h.SignupForm)))
}

// signupRequest is the signup body. JSON keys and form field names match.
type signupRequest struct {
	FirstName   string `json:"first_name"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	CompanyName string `json:"company_name"`
	EmailOptIn  bool   `json:"email_opt_in"`
	Plan        string `json:"plan"`
}

// signupResponse is returned by the signup API on success.
type signupResponse struct {
	ID         uuid.UUID `json:"id"`
	DistinctID string    `json:"distinct_id"`
	FirstName  string    `json:"first_name"`
	Email      string    `json:"email"`
}

// signupPageData is passed to the signup page.
type signupPageData struct {
	Form      signupRequest
	Errors    map[string]string
	Flash     string
	CSRFToken string
}

// =============================================================================
// GET /signup - Signup Page
// =============================================================================

// ShowSignup renders the signup form. A plan query parameter is carried
// through the form.
func (h *SignupHandler) ShowSignup(w http.ResponseWriter, r *http.Request) {
	token, err := csrf.EnsureToken(w, r, h.isSecure)
	if err != nil {
		InternalErrorResponse(w, r, h.logger, err)
		return
	}

	data := signupPageData{
		Form:      signupRequest{Plan: r.URL.Query().Get("plan")},
		CSRFToken: token,
	}
	h.renderer.RenderHTTP(w, http.StatusOK, "signup", data)
}

// =============================================================================
// POST /api/team/signup/ and POST /signup - Create Team
// =============================================================================

// Signup creates a team and its first user and logs the user in. It serves
// the API route, which accepts JSON, form-encoded and multipart bodies.
//
// JSON requests get 201 with the new user; browser form posts are redirected
// home. Validation failures return 400 with field-level messages.
func (h *SignupHandler) Signup(w http.ResponseWriter, r *http.Request) {
	req, err := decodeSignupRequest(w, r)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	h.createTeam(w, r, req)
}

// SignupForm handles the signup page's form post. Posts without a matching
// CSRF token are rejected with 403.
func (h *SignupHandler) SignupForm(w http.ResponseWriter, r *http.Request) {
	req, err := decodeSignupRequest(w, r)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	if !csrf.Valid(r) {
		ErrorResponse(w, r, h.logger, domain.Errorf(domain.EFORBIDDEN, "SignupHandler.SignupForm",
			"This form has expired. Please reload the page and try again."))
		return
	}
	h.createTeam(w, r, req)
}

func (h *SignupHandler) createTeam(w http.ResponseWriter, r *http.Request, req signupRequest) {
	result, err := h.signup.Signup(r.Context(), domain.SignupParams{
		FirstName:   req.FirstName,
		Email:       req.Email,
		Password:    req.Password,
		CompanyName: req.CompanyName,
		EmailOptIn:  req.EmailOptIn,
		Plan:        req.Plan,
	})
	if err != nil {
		h.signupFailed(w, r, req, err)
		return
	}

	session.SetCookie(w, result.SessionToken, result.SessionDuration, h.isSecure)

	if acceptsJSON(r) {
		writeJSON(w, http.StatusCreated, signupResponse{
			ID:         result.User.ID,
			DistinctID: result.User.DistinctID,
			FirstName:  result.User.FirstName,
			Email:      result.User.Email,
		})
		return
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *SignupHandler) signupFailed(w http.ResponseWriter, r *http.Request, req signupRequest, err error) {
	var ve *domain.ValidationError
	if acceptsJSON(r) || !errors.As(err, &ve) {
		ValidationErrorResponse(w, r, h.logger, err)
		return
	}

	h.logger.Info("signup form rejected", "field_count", len(ve.Fields))

	req.Password = ""
	h.renderer.RenderHTTP(w, http.StatusBadRequest, "signup", signupPageData{
		Form:      req,
		Errors:    ve.Fields,
		Flash:     "Please fix the errors below.",
		CSRFToken: r.PostFormValue(csrf.FieldName),
	})
}

// decodeSignupRequest reads a JSON, form-encoded or multipart signup body.
func decodeSignupRequest(w http.ResponseWriter, r *http.Request) (signupRequest, error) {
	const op = "SignupHandler.decode"

	var req signupRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxSignupBodyBytes)

	if isJSONBody(r) {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				return req, domain.Errorf(domain.ETOOLARGE, op, "Request body too large")
			}
			if errors.Is(err, io.EOF) {
				return req, domain.Invalid(op, "Request body is empty")
			}
			return req, domain.Invalid(op, "Request body is not valid JSON")
		}
		return req, nil
	}

	var err error
	if isMultipartBody(r) {
		err = r.ParseMultipartForm(maxSignupBodyBytes)
	} else {
		err = r.ParseForm()
	}
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return req, domain.Errorf(domain.ETOOLARGE, op, "Request body too large")
		}
		return req, domain.Invalid(op, "Invalid form data")
	}

	req.FirstName = r.PostFormValue("first_name")
	req.Email = r.PostFormValue("email")
	req.Password = r.PostFormValue("password")
	req.CompanyName = r.PostFormValue("company_name")
	req.Plan = r.PostFormValue("plan")
	req.EmailOptIn, _ = strconv.ParseBool(r.PostFormValue("email_opt_in"))
	return req, nil
}

func isJSONBody(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Content-Type"), "application/json")
}

func isMultipartBody(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data")
}
