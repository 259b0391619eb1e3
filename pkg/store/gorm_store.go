package store

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
	"sorriai/pkg/domain"
)

// GormStore implements Store using GORM + Postgres.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore opens the DB and runs auto-migrations.
func NewGormStore(dsn string) (*GormStore, error) {
	gormLog := gormlogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormlogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: gormLog})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.AutoMigrate(&UserModel{}, &OnboardingModel{}, &ScriptModel{}); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	return &GormStore{db: db}, nil
}

// SaveUser registers or updates a profile.
func (s *GormStore) SaveUser(u domain.User) error {
	model := userToModel(u)
	return s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"email", "password_hash", "full_name", "role", "plan",
			"onboarding_completed", "onboarding_completed_at",
			"video_edits_this_month", "video_edits_reset_at",
			"stripe_customer_id", "stripe_subscription_id", "subscription_status",
			"updated_at",
		}),
	}).Create(&model).Error
}

// HasUserEmail checks if email exists.
func (s *GormStore) HasUserEmail(email string) (bool, error) {
	var count int64
	if err := s.db.Model(&UserModel{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// GetUserByEmail looks up a profile by email.
func (s *GormStore) GetUserByEmail(email string) (domain.User, bool, error) {
	var model UserModel
	if err := s.db.Where("email = ?", email).First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.User{}, false, nil
		}
		return domain.User{}, false, err
	}
	return userFromModel(model), true, nil
}

// GetUserByID returns a profile by ID.
func (s *GormStore) GetUserByID(id string) (domain.User, bool, error) {
	var model UserModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.User{}, false, nil
		}
		return domain.User{}, false, err
	}
	return userFromModel(model), true, nil
}

// UpdateUserFields applies a partial update by id.
func (s *GormStore) UpdateUserFields(id string, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	return s.db.Model(&UserModel{}).Where("id = ?", id).Updates(fields).Error
}

// UserCount returns number of profiles.
func (s *GormStore) UserCount() (int, error) {
	var count int64
	if err := s.db.Model(&UserModel{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return int(count), nil
}

// SaveOnboarding stores or replaces the questionnaire answers for a user.
func (s *GormStore) SaveOnboarding(o domain.Onboarding) error {
	model := onboardingToModel(o)
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		UpdateAll: true,
	}).Create(&model).Error
}

// GetOnboarding returns the questionnaire answers for a user.
func (s *GormStore) GetOnboarding(userID string) (domain.Onboarding, bool, error) {
	var model OnboardingModel
	if err := s.db.First(&model, "user_id = ?", userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.Onboarding{}, false, nil
		}
		return domain.Onboarding{}, false, err
	}
	return onboardingFromModel(model), true, nil
}

// CreateScripts bulk-inserts an idea batch.
func (s *GormStore) CreateScripts(scripts []domain.Script) error {
	if len(scripts) == 0 {
		return nil
	}
	models := make([]ScriptModel, 0, len(scripts))
	for _, script := range scripts {
		models = append(models, scriptToModel(script))
	}
	return s.db.CreateInBatches(&models, 50).Error
}

// GetScript retrieves a script by ID.
func (s *GormStore) GetScript(id string) (domain.Script, bool, error) {
	var model ScriptModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.Script{}, false, nil
		}
		return domain.Script{}, false, err
	}
	return scriptFromModel(model), true, nil
}

// ListScriptsByOwner returns an owner's scripts ordered by lane position.
// Ties fall back to insertion order.
func (s *GormStore) ListScriptsByOwner(ownerID string) ([]domain.Script, error) {
	return s.listScripts("status_order ASC, created_at ASC", "owner_id = ?", ownerID)
}

// ListScriptsByStatus returns scripts in a status across all owners.
// Editing items come back soonest-deadline first; published items newest
// first.
func (s *GormStore) ListScriptsByStatus(status domain.ScriptStatus) ([]domain.Script, error) {
	order := "created_at ASC"
	switch status {
	case domain.StatusEditing:
		order = "expected_delivery_at ASC"
	case domain.StatusPublished:
		order = "editing_completed_at DESC"
	}
	return s.listScripts(order, "status = ?", string(status))
}

func (s *GormStore) listScripts(order string, conds ...any) ([]domain.Script, error) {
	var models []ScriptModel
	tx := s.db.Order(order)
	if len(conds) > 0 {
		tx = tx.Where(conds[0], conds[1:]...)
	}
	if err := tx.Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.Script, 0, len(models))
	for _, m := range models {
		res = append(res, scriptFromModel(m))
	}
	return res, nil
}

// ListScriptTitlesByOwner returns existing titles, used as anti-repetition
// context for idea generation.
func (s *GormStore) ListScriptTitlesByOwner(ownerID string) ([]string, error) {
	var titles []string
	if err := s.db.Model(&ScriptModel{}).
		Where("owner_id = ?", ownerID).
		Order("created_at ASC").
		Pluck("title", &titles).Error; err != nil {
		return nil, err
	}
	return titles, nil
}

// UpdateScriptFields applies a partial update by id.
func (s *GormStore) UpdateScriptFields(id string, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	return s.db.Model(&ScriptModel{}).Where("id = ?", id).Updates(fields).Error
}

// NextStatusOrder returns the next monotonic lane position for an owner.
func (s *GormStore) NextStatusOrder(ownerID string) (int, error) {
	var max *int
	if err := s.db.Model(&ScriptModel{}).
		Where("owner_id = ?", ownerID).
		Select("MAX(status_order)").
		Scan(&max).Error; err != nil {
		return 0, err
	}
	if max == nil {
		return 0, nil
	}
	return *max + 1, nil
}

// SubmitForEditing commits the recorded→editing script update and the quota
// increment in one transaction. The counter UPDATE carries the plan limit as
// a guard so two near-simultaneous submissions cannot both spend the last
// edit.
func (s *GormStore) SubmitForEditing(scriptID, ownerID string, fields map[string]any, editLimit int) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&UserModel{}).
			Where("id = ? AND video_edits_this_month < ?", ownerID, editLimit).
			Updates(map[string]any{
				"video_edits_this_month": gorm.Expr("video_edits_this_month + 1"),
				"updated_at":             time.Now().UTC(),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrQuotaExhausted
		}
		res = tx.Model(&ScriptModel{}).
			Where("id = ? AND owner_id = ? AND status = ?", scriptID, ownerID, string(domain.StatusRecorded)).
			Updates(fields)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrStatusConflict
		}
		return nil
	})
}

func userToModel(u domain.User) UserModel {
	return UserModel{
		ID:                    u.ID,
		Email:                 u.Email,
		PasswordHash:          u.PasswordHash,
		FullName:              u.FullName,
		Role:                  string(u.Role),
		Plan:                  string(u.Plan),
		OnboardingCompleted:   u.OnboardingCompleted,
		OnboardingCompletedAt: u.OnboardingCompletedAt,
		VideoEditsThisMonth:   u.VideoEditsThisMonth,
		VideoEditsResetAt:     u.VideoEditsResetAt,
		ProfilePhotoKey:       u.ProfilePhotoKey,
		ProfilePhotoCount:     u.ProfilePhotoCount,
		ProfilePhotoAt:        u.ProfilePhotoAt,
		StripeCustomerID:      u.StripeCustomerID,
		StripeSubscriptionID:  u.StripeSubscriptionID,
		SubscriptionStatus:    u.SubscriptionStatus,
		CreatedAt:             u.CreatedAt,
		UpdatedAt:             u.UpdatedAt,
	}
}

func userFromModel(m UserModel) domain.User {
	plan := domain.Plan(m.Plan)
	if plan == "" {
		plan = domain.PlanFree
	}
	return domain.User{
		ID:                    m.ID,
		Email:                 m.Email,
		PasswordHash:          m.PasswordHash,
		FullName:              m.FullName,
		Role:                  domain.UserRole(m.Role),
		Plan:                  plan,
		OnboardingCompleted:   m.OnboardingCompleted,
		OnboardingCompletedAt: m.OnboardingCompletedAt,
		VideoEditsThisMonth:   m.VideoEditsThisMonth,
		VideoEditsResetAt:     m.VideoEditsResetAt,
		ProfilePhotoKey:       m.ProfilePhotoKey,
		ProfilePhotoCount:     m.ProfilePhotoCount,
		ProfilePhotoAt:        m.ProfilePhotoAt,
		StripeCustomerID:      m.StripeCustomerID,
		StripeSubscriptionID:  m.StripeSubscriptionID,
		SubscriptionStatus:    m.SubscriptionStatus,
		CreatedAt:             m.CreatedAt,
		UpdatedAt:             m.UpdatedAt,
	}
}

func onboardingToModel(o domain.Onboarding) OnboardingModel {
	return OnboardingModel{
		UserID:                   o.UserID,
		MainSpecialty:            marshalJSON(o.MainSpecialty),
		FocusProcedures:          o.FocusProcedures,
		RealDifferentiator:       o.RealDifferentiator,
		HowToBeRemembered:        o.HowToBeRemembered,
		ToneOfVoice:              marshalJSON(o.ToneOfVoice),
		LanguageToAvoid:          o.LanguageToAvoid,
		Persona:                  o.Persona,
		IdealPatient:             o.IdealPatient,
		PatientPains:             o.PatientPains,
		MainObjection:            o.MainObjection,
		DecisionDelayReason:      o.DecisionDelayReason,
		CommonQuestions:          o.CommonQuestions,
		PriorityProcedures:       o.PriorityProcedures,
		ProceduresToHide:         o.ProceduresToHide,
		CurrentTicket:            o.CurrentTicket,
		TargetTicket:             o.TargetTicket,
		MainBottleneck:           o.MainBottleneck,
		HasAuthorizedCases:       o.HasAuthorizedCases,
		ProofTypes:               marshalJSON(o.ProofTypes),
		TechnicalDifferentiators: o.TechnicalDifferentiators,
		Achievements:             o.Achievements,
		ConnectionStory:          o.ConnectionStory,
		FlagshipProcedure:        o.FlagshipProcedure,
		FlagshipFear:             o.FlagshipFear,
		MythToBreak:              o.MythToBreak,
		InstagramHandle:          o.InstagramHandle,
		TiktokHandle:             o.TiktokHandle,
		YoutubeHandle:            o.YoutubeHandle,
		FacebookHandle:           o.FacebookHandle,
		LinkedinHandle:           o.LinkedinHandle,
		WhatsappNumber:           o.WhatsappNumber,
		CreatedAt:                o.CreatedAt,
		UpdatedAt:                o.UpdatedAt,
	}
}

func onboardingFromModel(m OnboardingModel) domain.Onboarding {
	return domain.Onboarding{
		UserID:                   m.UserID,
		MainSpecialty:            unmarshalStrings(m.MainSpecialty),
		FocusProcedures:          m.FocusProcedures,
		RealDifferentiator:       m.RealDifferentiator,
		HowToBeRemembered:        m.HowToBeRemembered,
		ToneOfVoice:              unmarshalStrings(m.ToneOfVoice),
		LanguageToAvoid:          m.LanguageToAvoid,
		Persona:                  m.Persona,
		IdealPatient:             m.IdealPatient,
		PatientPains:             m.PatientPains,
		MainObjection:            m.MainObjection,
		DecisionDelayReason:      m.DecisionDelayReason,
		CommonQuestions:          m.CommonQuestions,
		PriorityProcedures:       m.PriorityProcedures,
		ProceduresToHide:         m.ProceduresToHide,
		CurrentTicket:            m.CurrentTicket,
		TargetTicket:             m.TargetTicket,
		MainBottleneck:           m.MainBottleneck,
		HasAuthorizedCases:       m.HasAuthorizedCases,
		ProofTypes:               unmarshalStrings(m.ProofTypes),
		TechnicalDifferentiators: m.TechnicalDifferentiators,
		Achievements:             m.Achievements,
		ConnectionStory:          m.ConnectionStory,
		FlagshipProcedure:        m.FlagshipProcedure,
		FlagshipFear:             m.FlagshipFear,
		MythToBreak:              m.MythToBreak,
		InstagramHandle:          m.InstagramHandle,
		TiktokHandle:             m.TiktokHandle,
		YoutubeHandle:            m.YoutubeHandle,
		FacebookHandle:           m.FacebookHandle,
		LinkedinHandle:           m.LinkedinHandle,
		WhatsappNumber:           m.WhatsappNumber,
		CreatedAt:                m.CreatedAt,
		UpdatedAt:                m.UpdatedAt,
	}
}

func scriptToModel(s domain.Script) ScriptModel {
	return ScriptModel{
		ID:                  s.ID,
		OwnerID:             s.OwnerID,
		Title:               s.Title,
		Topic:               s.Topic,
		Status:              string(s.Status),
		StatusOrder:         s.StatusOrder,
		ContentGenerated:    s.ContentGenerated,
		Content:             s.Content,
		Hook:                s.Hook,
		Description:         s.Description,
		OriginalContent:     s.OriginalContent,
		OriginalHook:        s.OriginalHook,
		OriginalDescription: s.OriginalDescription,
		RawVideoURL:         s.RawVideoURL,
		EditedVideoURL:      s.EditedVideoURL,
		EditingNotes:        s.EditingNotes,
		ExpectedDeliveryAt:  s.ExpectedDeliveryAt,
		RecordedAt:          s.RecordedAt,
		EditingStartedAt:    s.EditingStartedAt,
		EditingCompletedAt:  s.EditingCompletedAt,
		Hashtags:            marshalJSON(s.Hashtags),
		Objective:           s.Objective,
		Format:              s.Format,
		Pillar:              s.Pillar,
		FunnelStage:         s.FunnelStage,
		HookStyle:           s.HookStyle,
		ContentAngle:        s.ContentAngle,
		GenerationParams:    marshalJSON(s.Generation),
		CreatedAt:           s.CreatedAt,
		UpdatedAt:           s.UpdatedAt,
	}
}

func scriptFromModel(m ScriptModel) domain.Script {
	var params map[string]any
	if len(m.GenerationParams) > 0 {
		_ = json.Unmarshal(m.GenerationParams, &params)
	}
	return domain.Script{
		ID:                  m.ID,
		OwnerID:             m.OwnerID,
		Title:               m.Title,
		Topic:               m.Topic,
		Status:              domain.ScriptStatus(m.Status),
		StatusOrder:         m.StatusOrder,
		ContentGenerated:    m.ContentGenerated,
		Content:             m.Content,
		Hook:                m.Hook,
		Description:         m.Description,
		OriginalContent:     m.OriginalContent,
		OriginalHook:        m.OriginalHook,
		OriginalDescription: m.OriginalDescription,
		RawVideoURL:         m.RawVideoURL,
		EditedVideoURL:      m.EditedVideoURL,
		EditingNotes:        m.EditingNotes,
		ExpectedDeliveryAt:  m.ExpectedDeliveryAt,
		RecordedAt:          m.RecordedAt,
		EditingStartedAt:    m.EditingStartedAt,
		EditingCompletedAt:  m.EditingCompletedAt,
		Hashtags:            unmarshalStrings(m.Hashtags),
		Objective:           m.Objective,
		Format:              m.Format,
		Pillar:              m.Pillar,
		FunnelStage:         m.FunnelStage,
		HookStyle:           m.HookStyle,
		ContentAngle:        m.ContentAngle,
		Generation:          params,
		CreatedAt:           m.CreatedAt,
		UpdatedAt:           m.UpdatedAt,
	}
}

func marshalJSON(v any) []byte {
	if v == nil {
		return nil
	}
	raw, _ := json.Marshal(v)
	return raw
}

func unmarshalStrings(raw []byte) []string {
	if len(raw) == 0 {
		return nil
	}
	var out []string
	_ = json.Unmarshal(raw, &out)
	return out
}
