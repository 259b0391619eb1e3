package domain

import "time"

type ScriptStatus string

const (
	StatusScript    ScriptStatus = "script"
	StatusRecorded  ScriptStatus = "recorded"
	StatusEditing   ScriptStatus = "editing"
	StatusPublished ScriptStatus = "published"
)

// CanTransition reports whether moving a script from one status to another
// follows the linear production pipeline. Skips and backward moves are never
// allowed; content edits and reverts do not change status.
func CanTransition(from, to ScriptStatus) bool {
	switch from {
	case StatusScript:
		return to == StatusRecorded
	case StatusRecorded:
		return to == StatusEditing
	case StatusEditing:
		return to == StatusPublished
	default:
		return false
	}
}

type UserRole string

const (
	RoleUser  UserRole = "user"
	RoleAdmin UserRole = "admin"
)

type Plan string

const (
	PlanFree Plan = "free"
	PlanPro  Plan = "pro"
)

// User is a dentist profile (or an operator account when Role is admin).
// The quota counter and reset timestamp live here; the counter is only
// incremented together with a recorded→editing transition and only reset
// lazily when the profile is read in a new calendar month.
type User struct {
	ID                    string     `json:"id"`
	Email                 string     `json:"email"`
	PasswordHash          string     `json:"-"`
	FullName              string     `json:"fullName,omitempty"`
	Role                  UserRole   `json:"role"`
	Plan                  Plan       `json:"plan"`
	OnboardingCompleted   bool       `json:"onboardingCompleted"`
	OnboardingCompletedAt *time.Time `json:"onboardingCompletedAt,omitempty"`
	VideoEditsThisMonth   int        `json:"videoEditsThisMonth"`
	VideoEditsResetAt     *time.Time `json:"videoEditsResetAt,omitempty"`
	ProfilePhotoKey       string     `json:"-"`
	ProfilePhotoCount     int        `json:"profilePhotoCount"`
	ProfilePhotoAt        *time.Time `json:"profilePhotoAt,omitempty"`
	StripeCustomerID      string     `json:"-"`
	StripeSubscriptionID  string     `json:"-"`
	SubscriptionStatus    string     `json:"subscriptionStatus,omitempty"`
	CreatedAt             time.Time  `json:"createdAt"`
	UpdatedAt             time.Time  `json:"updatedAt"`
}

// Script is one unit of content. An "idea" is a Script row with
// Status=StatusScript and ContentGenerated=false; generation realizes it in
// place. The Original* fields shadow the AI baseline of their live field,
// populated on first human edit and consumed by a one-shot revert.
type Script struct {
	ID               string       `json:"id"`
	OwnerID          string       `json:"ownerId"`
	Title            string       `json:"title"`
	Topic            string       `json:"topic,omitempty"`
	Status           ScriptStatus `json:"status"`
	StatusOrder      int          `json:"statusOrder"`
	ContentGenerated bool         `json:"contentGenerated"`

	Content             string  `json:"content,omitempty"`
	Hook                string  `json:"hook,omitempty"`
	Description         string  `json:"description,omitempty"`
	OriginalContent     *string `json:"originalContent,omitempty"`
	OriginalHook        *string `json:"originalHook,omitempty"`
	OriginalDescription *string `json:"originalDescription,omitempty"`

	RawVideoURL    string `json:"rawVideoUrl,omitempty"`
	EditedVideoURL string `json:"editedVideoUrl,omitempty"`
	EditingNotes   string `json:"editingNotes,omitempty"`

	ExpectedDeliveryAt *time.Time `json:"expectedDeliveryAt,omitempty"`
	RecordedAt         *time.Time `json:"recordedAt,omitempty"`
	EditingStartedAt   *time.Time `json:"editingStartedAt,omitempty"`
	EditingCompletedAt *time.Time `json:"editingCompletedAt,omitempty"`

	// Strategy metadata attached when the idea batch is generated.
	Hashtags     []string       `json:"hashtags,omitempty"`
	Objective    string         `json:"objective,omitempty"`
	Format       string         `json:"format,omitempty"`
	Pillar       string         `json:"pillar,omitempty"`
	FunnelStage  string         `json:"funnelStage,omitempty"`
	HookStyle    string         `json:"hookStyle,omitempty"`
	ContentAngle string         `json:"contentAngle,omitempty"`
	Generation   map[string]any `json:"generationParams,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// HasOriginal reports whether any shadow field is present, i.e. whether a
// revert is available.
func (s Script) HasOriginal() bool {
	return s.OriginalContent != nil || s.OriginalHook != nil || s.OriginalDescription != nil
}

// Onboarding holds the questionnaire answers used to steer every prompt
// built for the owner.
type Onboarding struct {
	UserID string `json:"userId"`

	// Profile and positioning.
	MainSpecialty     []string `json:"mainSpecialty"`
	FocusProcedures   string   `json:"focusProcedures"`
	RealDifferentiator string  `json:"realDifferentiator"`
	HowToBeRemembered string   `json:"howToBeRemembered"`

	// Voice and identity.
	ToneOfVoice     []string `json:"toneOfVoice"`
	LanguageToAvoid string   `json:"languageToAvoid"`
	Persona         string   `json:"persona"`

	// Audience.
	IdealPatient        string `json:"idealPatient"`
	PatientPains        string `json:"patientPains"`
	MainObjection       string `json:"mainObjection"`
	DecisionDelayReason string `json:"decisionDelayReason"`
	CommonQuestions     string `json:"commonQuestions"`

	// Services and agenda.
	PriorityProcedures string `json:"priorityProcedures"`
	ProceduresToHide   string `json:"proceduresToHide"`
	CurrentTicket      string `json:"currentTicket"`
	TargetTicket       string `json:"targetTicket"`
	MainBottleneck     string `json:"mainBottleneck"`

	// Proof and authority.
	HasAuthorizedCases       bool     `json:"hasAuthorizedCases"`
	ProofTypes               []string `json:"proofTypes"`
	TechnicalDifferentiators string   `json:"technicalDifferentiators"`
	Achievements             string   `json:"achievements"`
	ConnectionStory          string   `json:"connectionStory"`

	// Flagship procedure.
	FlagshipProcedure string `json:"flagshipProcedure"`
	FlagshipFear      string `json:"flagshipFear"`
	MythToBreak       string `json:"mythToBreak"`

	// Social handles, all optional.
	InstagramHandle string `json:"instagramHandle,omitempty"`
	TiktokHandle    string `json:"tiktokHandle,omitempty"`
	YoutubeHandle   string `json:"youtubeHandle,omitempty"`
	FacebookHandle  string `json:"facebookHandle,omitempty"`
	LinkedinHandle  string `json:"linkedinHandle,omitempty"`
	WhatsappNumber  string `json:"whatsappNumber,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
