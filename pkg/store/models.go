package store

import (
	"time"

	"gorm.io/datatypes"
)

// GORM models used for persistence.
type UserModel struct {
	ID                    string `gorm:"primaryKey"`
	Email                 string `gorm:"uniqueIndex;not null"`
	PasswordHash          string `gorm:"not null"`
	FullName              string
	Role                  string `gorm:"not null"`
	Plan                  string `gorm:"not null"`
	OnboardingCompleted   bool
	OnboardingCompletedAt *time.Time
	VideoEditsThisMonth   int `gorm:"not null;default:0"`
	VideoEditsResetAt     *time.Time
	ProfilePhotoKey       string
	ProfilePhotoCount     int `gorm:"not null;default:0"`
	ProfilePhotoAt        *time.Time
	StripeCustomerID      string
	StripeSubscriptionID  string
	SubscriptionStatus    string
	CreatedAt             time.Time `gorm:"not null"`
	UpdatedAt             time.Time
}

type OnboardingModel struct {
	UserID string `gorm:"primaryKey"`

	MainSpecialty      datatypes.JSON `gorm:"type:jsonb"`
	FocusProcedures    string
	RealDifferentiator string
	HowToBeRemembered  string

	ToneOfVoice     datatypes.JSON `gorm:"type:jsonb"`
	LanguageToAvoid string
	Persona         string

	IdealPatient        string
	PatientPains        string
	MainObjection       string
	DecisionDelayReason string
	CommonQuestions     string

	PriorityProcedures string
	ProceduresToHide   string
	CurrentTicket      string
	TargetTicket       string
	MainBottleneck     string

	HasAuthorizedCases       bool
	ProofTypes               datatypes.JSON `gorm:"type:jsonb"`
	TechnicalDifferentiators string
	Achievements             string
	ConnectionStory          string

	FlagshipProcedure string
	FlagshipFear      string
	MythToBreak       string

	InstagramHandle string
	TiktokHandle    string
	YoutubeHandle   string
	FacebookHandle  string
	LinkedinHandle  string
	WhatsappNumber  string

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time
}

type ScriptModel struct {
	ID               string `gorm:"primaryKey"`
	OwnerID          string `gorm:"not null;index"`
	Title            string `gorm:"not null"`
	Topic            string
	Status           string `gorm:"not null;index"`
	StatusOrder      int    `gorm:"not null"`
	ContentGenerated bool   `gorm:"not null;default:false"`

	Content             string `gorm:"type:text"`
	Hook                string `gorm:"type:text"`
	Description         string `gorm:"type:text"`
	OriginalContent     *string `gorm:"type:text"`
	OriginalHook        *string `gorm:"type:text"`
	OriginalDescription *string `gorm:"type:text"`

	RawVideoURL    string
	EditedVideoURL string
	EditingNotes   string `gorm:"type:text"`

	ExpectedDeliveryAt *time.Time `gorm:"index"`
	RecordedAt         *time.Time
	EditingStartedAt   *time.Time
	EditingCompletedAt *time.Time

	Hashtags         datatypes.JSON `gorm:"type:jsonb"`
	Objective        string
	Format           string
	Pillar           string
	FunnelStage      string
	HookStyle        string
	ContentAngle     string
	GenerationParams datatypes.JSON `gorm:"type:jsonb"`

	CreatedAt time.Time `gorm:"not null;index"`
	UpdatedAt time.Time `gorm:"not null"`
}
