package app

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"sorriai/internal/events"
	"sorriai/internal/stripeclient"
	"sorriai/internal/util"
	"sorriai/pkg/ai"
	"sorriai/pkg/auth"
	"sorriai/pkg/domain"
	"sorriai/pkg/storage"
	"sorriai/pkg/store"
)

// Config holds runtime configuration for the core application.
type Config struct {
	DatabaseURL string
	Store       store.Store

	JWTSecret  string
	SessionTTL time.Duration
	Sessions   store.SessionStore

	// Redis backs session revocation; without it logout only holds on
	// the instance that served it.
	RedisAddr     string
	RedisPassword string

	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioUseSSL    bool
	RawBucket      string
	EditedBucket   string
	PhotoBucket    string
	Objects        storage.ObjectStore

	LLMBaseURL    string
	LLMAPIKey     string
	LLMModel      string
	LLMImageModel string
	Generator     ai.TextGenerator
	Images        ai.ImageEditor

	StripeSecretKey    string
	StripeProPriceID   string
	CheckoutSuccessURL string
	CheckoutCancelURL  string
	BillingReturnURL   string
	Billing            billingClient

	Events events.Publisher

	// Now overrides the clock; tests set it to a fixed instant.
	Now func() time.Time
}

// App is the core application service wiring together storage, object
// storage, content generation and billing.
type App struct {
	store     store.Store
	sessions  store.SessionStore
	objects   storage.ObjectStore
	generator ai.TextGenerator
	images    ai.ImageEditor
	events    events.Publisher
	billing   billingClient

	rawBucket    string
	editedBucket string
	photoBucket  string

	stripeProPriceID   string
	checkoutSuccessURL string
	checkoutCancelURL  string
	billingReturnURL   string

	presignExpiry time.Duration
	now           func() time.Time

	genGroup singleflight.Group
}

// New constructs the application. Store, Sessions, Objects, Generator and
// Events may be injected directly; otherwise they are built from the
// connection settings.
func New(cfg Config) (*App, error) {
	dataStore := cfg.Store
	if dataStore == nil {
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("database URL required")
		}
		var err error
		dataStore, err = store.NewGormStore(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("init postgres store: %w", err)
		}
	}

	sessionStore := cfg.Sessions
	if sessionStore == nil {
		if strings.TrimSpace(cfg.JWTSecret) == "" {
			return nil, fmt.Errorf("jwt secret required")
		}
		var revoker store.TokenRevoker
		if cfg.RedisAddr != "" {
			revoker = store.NewRedisTokenRevoker(cfg.RedisAddr, cfg.RedisPassword)
		}
		sessionStore = store.NewJWTSessionStore(cfg.JWTSecret, cfg.SessionTTL, revoker)
	}

	objects := cfg.Objects
	if objects == nil {
		var err error
		objects, err = storage.NewMinioStore(cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioUseSSL, cfg.RawBucket, cfg.EditedBucket, cfg.PhotoBucket)
		if err != nil {
			return nil, fmt.Errorf("init object store: %w", err)
		}
	}

	generator := cfg.Generator
	if generator == nil {
		if cfg.LLMBaseURL == "" {
			return nil, fmt.Errorf("llm base URL required")
		}
		generator = ai.NewOpenAICompatGenerator(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModel, ai.WithJSONResponse())
	}

	images := cfg.Images
	if images == nil && cfg.LLMBaseURL != "" && cfg.LLMImageModel != "" {
		images = ai.NewOpenAICompatGenerator(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModel, ai.WithImageModel(cfg.LLMImageModel))
	}

	billing := cfg.Billing
	if billing == nil && cfg.StripeSecretKey != "" {
		billing = stripeclient.New(cfg.StripeSecretKey)
	}

	publisher := cfg.Events
	if publisher == nil {
		publisher = events.NopPublisher{}
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &App{
		store:              dataStore,
		sessions:           sessionStore,
		objects:            objects,
		generator:          generator,
		images:             images,
		events:             publisher,
		billing:            billing,
		rawBucket:          cfg.RawBucket,
		editedBucket:       cfg.EditedBucket,
		photoBucket:        cfg.PhotoBucket,
		stripeProPriceID:   cfg.StripeProPriceID,
		checkoutSuccessURL: cfg.CheckoutSuccessURL,
		checkoutCancelURL:  cfg.CheckoutCancelURL,
		billingReturnURL:   cfg.BillingReturnURL,
		presignExpiry:      15 * time.Minute,
		now:                now,
	}, nil
}

// SignUp registers a new profile. The first account ever created gets the
// admin role so a fresh deployment has an operator.
func (a *App) SignUp(email, password, fullName string) (domain.User, string, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return domain.User{}, "", ErrEmailAndPasswordRequired
	}
	exists, err := a.store.HasUserEmail(email)
	if err != nil {
		return domain.User{}, "", fmt.Errorf("check email: %w", err)
	}
	if exists {
		return domain.User{}, "", ErrEmailAlreadyExists
	}
	role := domain.RoleUser
	count, err := a.store.UserCount()
	if err != nil {
		return domain.User{}, "", fmt.Errorf("count users: %w", err)
	}
	if count == 0 {
		role = domain.RoleAdmin
	}
	now := a.now().UTC()
	user := domain.User{
		ID:           util.NewID(),
		Email:        email,
		PasswordHash: auth.HashPassword(password),
		FullName:     strings.TrimSpace(fullName),
		Role:         role,
		Plan:         domain.PlanFree,
		// Anchor the quota window at account creation so a spent counter
		// always carries a timestamp and cannot be mistaken for one that
		// predates the current month.
		VideoEditsResetAt: &now,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := a.store.SaveUser(user); err != nil {
		return domain.User{}, "", fmt.Errorf("save user: %w", err)
	}
	token, err := a.sessions.NewSession(user.ID)
	if err != nil {
		return domain.User{}, "", fmt.Errorf("create session: %w", err)
	}
	return user, token, nil
}

// Login validates credentials and issues a session token.
func (a *App) Login(email, password string) (domain.User, string, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	user, ok, err := a.store.GetUserByEmail(email)
	if err != nil {
		return domain.User{}, "", fmt.Errorf("fetch user: %w", err)
	}
	if !ok || !auth.CheckPassword(password, user.PasswordHash) {
		return domain.User{}, "", ErrInvalidCredentials
	}
	token, err := a.sessions.NewSession(user.ID)
	if err != nil {
		return domain.User{}, "", fmt.Errorf("create session: %w", err)
	}
	return user, token, nil
}

// Logout invalidates a session token.
func (a *App) Logout(token string) error {
	return a.sessions.DeleteSession(token)
}

// UserFromToken resolves a profile from a session token. The quota counter
// is reset here when it belongs to an earlier calendar month, so every
// authenticated request sees current entitlements without any scheduler.
func (a *App) UserFromToken(token string) (domain.User, bool) {
	uid, ok, err := a.sessions.GetUserIDByToken(token)
	if err != nil || !ok {
		return domain.User{}, false
	}
	user, found, err := a.store.GetUserByID(uid)
	if err != nil || !found {
		return domain.User{}, false
	}
	user, _ = a.applyMonthlyReset(user)
	return user, true
}

// Profile returns the profile together with its plan entitlements. The
// monthly reset already happened during token resolution, so the counter
// read here is current.
func (a *App) Profile(actor domain.User) (domain.User, domain.PlanPolicy) {
	return actor, domain.PolicyFor(actor.Plan)
}

// UpdateProfile changes the display name. Email and plan are managed
// elsewhere (signup and billing respectively).
func (a *App) UpdateProfile(actor domain.User, fullName string) (domain.User, error) {
	fullName = strings.TrimSpace(fullName)
	err := a.store.UpdateUserFields(actor.ID, map[string]any{
		"full_name":  fullName,
		"updated_at": a.now().UTC(),
	})
	if err != nil {
		return domain.User{}, fmt.Errorf("update profile: %w", err)
	}
	actor.FullName = fullName
	actor.UpdatedAt = a.now().UTC()
	return actor, nil
}

func (a *App) applyMonthlyReset(user domain.User) (domain.User, error) {
	now := a.now().UTC()
	if !user.NeedsMonthlyReset(now) {
		return user, nil
	}
	err := a.store.UpdateUserFields(user.ID, map[string]any{
		"video_edits_this_month": 0,
		"video_edits_reset_at":   now,
		"updated_at":             now,
	})
	if err != nil {
		return user, fmt.Errorf("reset monthly quota: %w", err)
	}
	user.VideoEditsThisMonth = 0
	user.VideoEditsResetAt = &now
	user.UpdatedAt = now
	return user, nil
}
