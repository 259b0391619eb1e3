package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"sorriai/internal/app"
	"sorriai/internal/ratelimit"
	"sorriai/internal/stripeclient"
	"sorriai/internal/util"
	"sorriai/pkg/domain"
)

// Config wires required dependencies for the HTTP server.
type Config struct {
	App                 *app.App
	RedisAddr           string
	RedisPassword       string
	StripeWebhookSecret string
	MaxUploadBytes      int64

	AuthRateLimitPerMinute     int
	GenerateRateLimitPerMinute int
}

// Server exposes the HTTP API.
type Server struct {
	app            *app.App
	mux            *http.ServeMux
	maxUploadBytes int64
	webhookSecret  string

	limiter *ratelimit.Limiter
}

// New constructs the server with routes configured. Rate limiting is only
// active when a Redis address is supplied.
func New(cfg Config) (*Server, error) {
	maxUploadBytes := cfg.MaxUploadBytes
	if maxUploadBytes <= 0 {
		maxUploadBytes = 512 << 20
	}
	s := &Server{
		app:            cfg.App,
		mux:            http.NewServeMux(),
		maxUploadBytes: maxUploadBytes,
		webhookSecret:  cfg.StripeWebhookSecret,
	}
	if cfg.RedisAddr != "" {
		authLimit := cfg.AuthRateLimitPerMinute
		if authLimit <= 0 {
			authLimit = 20
		}
		generateLimit := cfg.GenerateRateLimitPerMinute
		if generateLimit <= 0 {
			generateLimit = 6
		}
		var err error
		s.limiter, err = ratelimit.New(cfg.RedisAddr, cfg.RedisPassword, "sorriai:ratelimit", map[string]ratelimit.Rule{
			routeAuth:     ratelimit.PerMinute(authLimit),
			routeGenerate: ratelimit.PerMinute(generateLimit),
		})
		if err != nil {
			return nil, fmt.Errorf("init rate limiter: %w", err)
		}
	}
	s.routes()
	return s, nil
}

// Router returns the configured handler.
func (s *Server) Router() http.Handler {
	return util.WithSecurityHeaders(util.WithCORS(s.mux))
}

func (s *Server) routes() {
	s.mux.HandleFunc("/healthz", s.handleHealth)

	// auth
	s.mux.HandleFunc("/api/auth/signup", s.handleSignup)
	s.mux.HandleFunc("/api/auth/login", s.handleLogin)
	s.mux.Handle("/api/auth/logout", s.authenticated(s.handleLogout))
	s.mux.Handle("/api/users/me", s.authenticated(s.handleMe))
	s.mux.Handle("/api/users/me/photo", s.authenticated(s.handleProfilePhoto))

	// onboarding
	s.mux.Handle("/api/onboarding", s.authenticated(s.handleOnboarding))
	s.mux.Handle("/api/onboarding/complete", s.authenticated(s.handleCompleteOnboarding))

	// scripts
	s.mux.Handle("/api/scripts", s.authenticated(s.handleScripts))
	s.mux.Handle("/api/scripts/generate", s.authenticated(s.handleGenerateIdeas))
	s.mux.Handle("/api/scripts/", s.authenticated(s.handleScriptByID))

	// admin fulfillment
	s.mux.Handle("/api/admin/queue", s.adminOnly(s.handleAdminQueue))
	s.mux.Handle("/api/admin/delivered", s.adminOnly(s.handleAdminDelivered))
	s.mux.Handle("/api/admin/scripts/", s.adminOnly(s.handleAdminScriptByID))

	// billing
	s.mux.Handle("/api/billing/checkout", s.authenticated(s.handleCheckout))
	s.mux.Handle("/api/billing/portal", s.authenticated(s.handlePortal))
	s.mux.HandleFunc("/api/webhooks/stripe", s.handleStripeWebhook)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// auth wrappers
type authHandler func(http.ResponseWriter, *http.Request, domain.User)

func (s *Server) authenticated(next authHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := s.authorize(r)
		if !ok {
			s.audit(r, "auth.authorize", "fail")
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next(w, r, user)
	})
}

func (s *Server) adminOnly(next authHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := s.authorize(r)
		if !ok {
			s.audit(r, "admin.authorize", "fail", "reason", "missing_token")
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		if user.Role != domain.RoleAdmin {
			s.audit(r, "admin.authorize", "fail", "user_id", user.ID, "reason", "forbidden")
			writeError(w, http.StatusForbidden, "forbidden")
			return
		}
		next(w, r, user)
	})
}

func (s *Server) authorize(r *http.Request) (domain.User, bool) {
	token, ok := bearerToken(r)
	if !ok {
		return domain.User{}, false
	}
	return s.app.UserFromToken(token)
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if !s.allowRate(w, r, routeAuth, "too many signup attempts, try again later") {
		s.audit(r, "auth.signup", "rate_limited")
		return
	}
	var req signupRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	user, token, err := s.app.SignUp(req.Email, req.Password, req.FullName)
	if err != nil {
		s.audit(r, "auth.signup", "fail", "reason", err.Error())
		s.writeAppError(w, err)
		return
	}
	s.audit(r, "auth.signup", "success", "user_id", user.ID)
	writeJSON(w, http.StatusCreated, authResponse{Token: token, User: user})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if !s.allowRate(w, r, routeAuth, "too many login attempts, try again later") {
		s.audit(r, "auth.login", "rate_limited")
		return
	}
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	user, token, err := s.app.Login(req.Email, req.Password)
	if err != nil {
		s.audit(r, "auth.login", "fail")
		s.writeAppError(w, err)
		return
	}
	s.audit(r, "auth.login", "success", "user_id", user.ID)
	writeJSON(w, http.StatusOK, authResponse{Token: token, User: user})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request, user domain.User) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	token, _ := bearerToken(r)
	if err := s.app.Logout(token); err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	s.audit(r, "auth.logout", "success", "user_id", user.ID)
	writeJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request, user domain.User) {
	switch r.Method {
	case http.MethodGet:
	case http.MethodPatch:
		var req struct {
			FullName string `json:"fullName"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		updated, err := s.app.UpdateProfile(user, req.FullName)
		if err != nil {
			s.writeAppError(w, err)
			return
		}
		user = updated
	default:
		methodNotAllowed(w)
		return
	}
	profile, policy := s.app.Profile(user)
	writeJSON(w, http.StatusOK, profileResponse{
		User:               profile,
		EditsRemaining:     profile.EditsRemaining(),
		VideoEditsPerMonth: policy.VideoEditsPerMonth,
		DeliveryHours:      policy.DeliveryHours,
		IdeasPerGeneration: policy.IdeasPerGeneration,
	})
}

func (s *Server) handleOnboarding(w http.ResponseWriter, r *http.Request, user domain.User) {
	switch r.Method {
	case http.MethodGet:
		answers, ok, err := s.app.Onboarding(user)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if !ok {
			writeError(w, http.StatusNotFound, "onboarding not started")
			return
		}
		writeJSON(w, http.StatusOK, answers)
	case http.MethodPut:
		var answers domain.Onboarding
		if err := decodeJSON(r, &answers); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		saved, err := s.app.SaveOnboarding(user, answers)
		if err != nil {
			s.writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, saved)
	default:
		methodNotAllowed(w)
	}
}

// handleCompleteOnboarding finalizes the questionnaire and kicks off the
// first idea batch so the board is populated right after onboarding.
func (s *Server) handleCompleteOnboarding(w http.ResponseWriter, r *http.Request, user domain.User) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if !s.allowRate(w, r, routeGenerate, "generation limit reached, try again later") {
		return
	}
	var answers domain.Onboarding
	if err := decodeJSON(r, &answers); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	updated, err := s.app.CompleteOnboarding(user, answers)
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	scripts, err := s.app.GenerateIdeaBatch(r.Context(), updated)
	if err != nil {
		// The profile is onboarded either way; report the batch failure so
		// the client can retry generation explicitly.
		s.writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"user":  updated,
		"ideas": scripts,
		"count": len(scripts),
	})
}

func (s *Server) handleScripts(w http.ResponseWriter, r *http.Request, user domain.User) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	scripts, err := s.app.ListScripts(user)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"items": scripts,
		"count": len(scripts),
	})
}

func (s *Server) handleGenerateIdeas(w http.ResponseWriter, r *http.Request, user domain.User) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if !s.allowRate(w, r, routeGenerate, "generation limit reached, try again later") {
		return
	}
	scripts, err := s.app.GenerateIdeaBatch(r.Context(), user)
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"items": scripts,
		"count": len(scripts),
	})
}

// /api/scripts/{id} plus /revert, /status, /order and /videos subroutes.
func (s *Server) handleScriptByID(w http.ResponseWriter, r *http.Request, user domain.User) {
	path := strings.TrimPrefix(r.URL.Path, "/api/scripts/")
	parts := strings.SplitN(path, "/", 2)
	id := parts[0]
	if id == "" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	if len(parts) == 1 {
		switch r.Method {
		case http.MethodGet:
			s.handleOpenScript(w, r, user, id)
		case http.MethodPatch:
			s.handleEditScript(w, r, user, id)
		default:
			methodNotAllowed(w)
		}
		return
	}
	switch parts[1] {
	case "revert":
		s.handleRevertScript(w, r, user, id)
	case "status":
		s.handleScriptStatus(w, r, user, id)
	case "order":
		s.handleScriptOrder(w, r, user, id)
	case "videos":
		s.handleScriptVideos(w, r, user, id)
	default:
		writeError(w, http.StatusNotFound, "not found")
	}
}

func (s *Server) handleOpenScript(w http.ResponseWriter, r *http.Request, user domain.User, id string) {
	script, err := s.app.OpenScript(r.Context(), user, id)
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, scriptResponse{
		Script:        script,
		DeliveryLabel: s.app.DeliveryLabelFor(script),
	})
}

func (s *Server) handleEditScript(w http.ResponseWriter, r *http.Request, user domain.User, id string) {
	var req editScriptRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	script, err := s.app.UpdateScriptContent(user, id, app.ContentUpdate{
		Content:     req.Content,
		Hook:        req.Hook,
		Description: req.Description,
	})
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, script)
}

func (s *Server) handleRevertScript(w http.ResponseWriter, r *http.Request, user domain.User, id string) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	script, err := s.app.RevertScriptContent(user, id)
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, script)
}

// handleScriptStatus covers the owner-side transition: script → recorded.
// Editing is entered through the video upload and publishing through the
// fulfillment flow.
func (s *Server) handleScriptStatus(w http.ResponseWriter, r *http.Request, user domain.User, id string) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req statusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if domain.ScriptStatus(req.Status) != domain.StatusRecorded {
		writeError(w, http.StatusBadRequest, "only the recorded transition is available here")
		return
	}
	script, err := s.app.MarkRecorded(user, id)
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, script)
}

func (s *Server) handleScriptOrder(w http.ResponseWriter, r *http.Request, user domain.User, id string) {
	if r.Method != http.MethodPatch {
		methodNotAllowed(w)
		return
	}
	var req orderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	script, err := s.app.ReorderScript(user, id, req.Order)
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, script)
}

func (s *Server) handleScriptVideos(w http.ResponseWriter, r *http.Request, user domain.User, id string) {
	switch r.Method {
	case http.MethodGet:
		links, err := s.app.ScriptVideoLinks(r.Context(), user, id)
		if err != nil {
			s.writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, links)
	case http.MethodPost:
		s.handleSubmitForEditing(w, r, user, id)
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleProfilePhoto(w http.ResponseWriter, r *http.Request, user domain.User) {
	switch r.Method {
	case http.MethodGet:
		url, err := s.app.ProfilePhotoLink(r.Context(), user)
		if err != nil {
			s.writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"url": url})
	case http.MethodPost:
		if !s.allowRate(w, r, routeGenerate, "generation limit reached, try again later") {
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, 12<<20)
		if err := r.ParseMultipartForm(12 << 20); err != nil {
			writeError(w, http.StatusBadRequest, "invalid form data")
			return
		}
		file, header, err := r.FormFile("image")
		if err != nil {
			writeError(w, http.StatusBadRequest, "image is required (field: image)")
			return
		}
		defer file.Close()
		updated, url, err := s.app.GenerateProfilePhoto(r.Context(), user, header.Filename, file, header.Size, header.Header.Get("Content-Type"))
		if err != nil {
			s.audit(r, "profile.photo", "fail", "user_id", user.ID, "reason", err.Error())
			s.writeAppError(w, err)
			return
		}
		s.audit(r, "profile.photo", "success", "user_id", user.ID)
		writeJSON(w, http.StatusOK, map[string]any{"user": updated, "url": url})
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleSubmitForEditing(w http.ResponseWriter, r *http.Request, user domain.User, id string) {
	if s.maxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	}
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "invalid form data")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file is required (field: file)")
		return
	}
	defer file.Close()
	notes := r.FormValue("notes")
	script, err := s.app.SubmitForEditing(r.Context(), user, id, notes, header.Filename, file, header.Size, header.Header.Get("Content-Type"))
	if err != nil {
		s.audit(r, "script.submit", "fail", "user_id", user.ID, "script_id", id, "reason", err.Error())
		s.writeAppError(w, err)
		return
	}
	s.audit(r, "script.submit", "success", "user_id", user.ID, "script_id", id)
	writeJSON(w, http.StatusOK, scriptResponse{
		Script:        script,
		DeliveryLabel: s.app.DeliveryLabelFor(script),
	})
}

func (s *Server) handleAdminQueue(w http.ResponseWriter, r *http.Request, user domain.User) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	items, err := s.app.FulfillmentQueue(user)
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items, "count": len(items)})
}

func (s *Server) handleAdminDelivered(w http.ResponseWriter, r *http.Request, user domain.User) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	items, err := s.app.Delivered(user)
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items, "count": len(items)})
}

// /api/admin/scripts/{id}/raw | /edited | /deliver
func (s *Server) handleAdminScriptByID(w http.ResponseWriter, r *http.Request, user domain.User) {
	path := strings.TrimPrefix(r.URL.Path, "/api/admin/scripts/")
	parts := strings.Split(path, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	id, action := parts[0], parts[1]
	switch action {
	case "raw":
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		url, err := s.app.DownloadRaw(r.Context(), user, id)
		if err != nil {
			s.writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"url": url})
	case "edited":
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		url, err := s.app.DownloadEdited(r.Context(), user, id)
		if err != nil {
			s.writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"url": url})
	case "deliver":
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		s.handleDeliverEdited(w, r, user, id)
	default:
		writeError(w, http.StatusNotFound, "not found")
	}
}

func (s *Server) handleDeliverEdited(w http.ResponseWriter, r *http.Request, user domain.User, id string) {
	if s.maxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	}
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "invalid form data")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file is required (field: file)")
		return
	}
	defer file.Close()
	script, err := s.app.DeliverEdited(r.Context(), user, id, header.Filename, file, header.Size, header.Header.Get("Content-Type"))
	if err != nil {
		s.audit(r, "script.deliver", "fail", "user_id", user.ID, "script_id", id, "reason", err.Error())
		s.writeAppError(w, err)
		return
	}
	s.audit(r, "script.deliver", "success", "user_id", user.ID, "script_id", id)
	writeJSON(w, http.StatusOK, script)
}

func (s *Server) handleCheckout(w http.ResponseWriter, r *http.Request, user domain.User) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	url, err := s.app.CreateCheckout(r.Context(), user)
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}

func (s *Server) handlePortal(w http.ResponseWriter, r *http.Request, user domain.User) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	url, err := s.app.CreatePortal(r.Context(), user)
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}

func (s *Server) handleStripeWebhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	payload, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	if !stripeclient.VerifySignature(payload, r.Header.Get("Stripe-Signature"), s.webhookSecret) {
		s.audit(r, "billing.webhook", "fail", "reason", "invalid_signature")
		writeError(w, http.StatusBadRequest, "invalid signature")
		return
	}
	if err := s.app.HandleStripeEvent(r.Context(), payload); err != nil {
		slog.Error("stripe webhook processing failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	s.audit(r, "billing.webhook", "success")
	writeJSON(w, http.StatusOK, map[string]string{"received": "true"})
}

func (s *Server) writeAppError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, app.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, app.ErrEmailAndPasswordRequired),
		errors.Is(err, app.ErrRawVideoRequired),
		errors.Is(err, app.ErrVideoFileRequired),
		errors.Is(err, app.ErrUnsupportedImageType),
		errors.Is(err, app.ErrOnboardingRequired),
		errors.Is(err, app.ErrNoBillingAccount):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, app.ErrEmailAlreadyExists),
		errors.Is(err, app.ErrInvalidTransition),
		errors.Is(err, app.ErrNoOriginalContent):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, app.ErrQuotaExceeded),
		errors.Is(err, app.ErrPhotoLimitReached),
		errors.Is(err, app.ErrForbidden):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, app.ErrScriptNotFound), errors.Is(err, app.ErrAssetUnavailable):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, app.ErrGenerationFailed):
		writeError(w, http.StatusBadGateway, err.Error())
	case errors.Is(err, app.ErrBillingNotConfigured),
		errors.Is(err, app.ErrPhotoNotConfigured):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func (s *Server) audit(r *http.Request, event, outcome string, attrs ...any) {
	logAttrs := []any{
		"event", event,
		"outcome", outcome,
		"path", r.URL.Path,
		"method", r.Method,
		"ip", clientIP(r),
	}
	logAttrs = append(logAttrs, attrs...)
	if outcome == "success" {
		slog.Info("security_event", logAttrs...)
		return
	}
	slog.Warn("security_event", logAttrs...)
}

// Rate limited route groups.
const (
	routeAuth     = "auth"
	routeGenerate = "generate"
)

func (s *Server) allowRate(w http.ResponseWriter, r *http.Request, route, msg string) bool {
	if s.limiter == nil {
		return true
	}
	key := r.URL.Path + "|" + clientIP(r)
	if s.limiter.Allow(route, key) {
		return true
	}
	w.Header().Set("Retry-After", "60")
	writeError(w, http.StatusTooManyRequests, msg)
	return false
}

func clientIP(r *http.Request) string {
	if xfwd := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); xfwd != "" {
		parts := strings.Split(xfwd, ",")
		if ip := strings.TrimSpace(parts[0]); ip != "" {
			return ip
		}
	}
	if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); realIP != "" {
		return realIP
	}
	host := r.RemoteAddr
	if idx := strings.LastIndex(host, ":"); idx > 0 {
		host = host[:idx]
	}
	return host
}

type signupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"fullName"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string      `json:"token"`
	User  domain.User `json:"user"`
}

type profileResponse struct {
	User               domain.User `json:"user"`
	EditsRemaining     int         `json:"editsRemaining"`
	VideoEditsPerMonth int         `json:"videoEditsPerMonth"`
	DeliveryHours      int         `json:"deliveryHours"`
	IdeasPerGeneration int         `json:"ideasPerGeneration"`
}

type scriptResponse struct {
	domain.Script
	DeliveryLabel string `json:"deliveryLabel,omitempty"`
}

type editScriptRequest struct {
	Content     *string `json:"content"`
	Hook        *string `json:"hook"`
	Description *string `json:"description"`
}

type statusRequest struct {
	Status string `json:"status"`
}

type orderRequest struct {
	Order int `json:"order"`
}

func decodeJSON(r *http.Request, dst any) error {
	return json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(dst)
}

func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	if token == "" {
		return "", false
	}
	return token, true
}

func methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
