package store

import (
	"errors"

	"sorriai/pkg/domain"
)

var (
	// ErrQuotaExhausted is returned by SubmitForEditing when the guarded
	// counter increment finds no edits left for the month.
	ErrQuotaExhausted = errors.New("monthly edit quota exhausted")

	// ErrStatusConflict is returned when a guarded status write matches no
	// row, meaning another session moved the script first.
	ErrStatusConflict = errors.New("script status changed concurrently")
)

// Store defines persistence operations for profiles, onboarding answers,
// and scripts.
type Store interface {
	// profiles
	SaveUser(domain.User) error
	HasUserEmail(email string) (bool, error)
	GetUserByEmail(email string) (domain.User, bool, error)
	GetUserByID(id string) (domain.User, bool, error)
	UpdateUserFields(id string, fields map[string]any) error
	UserCount() (int, error)

	// onboarding
	SaveOnboarding(domain.Onboarding) error
	GetOnboarding(userID string) (domain.Onboarding, bool, error)

	// scripts
	CreateScripts([]domain.Script) error
	GetScript(id string) (domain.Script, bool, error)
	ListScriptsByOwner(ownerID string) ([]domain.Script, error)
	ListScriptsByStatus(status domain.ScriptStatus) ([]domain.Script, error)
	ListScriptTitlesByOwner(ownerID string) ([]string, error)
	UpdateScriptFields(id string, fields map[string]any) error
	NextStatusOrder(ownerID string) (int, error)

	// SubmitForEditing applies the recorded→editing script update and the
	// owner's quota increment as one commit. The increment is guarded by
	// editLimit and the script update by the recorded status; it fails with
	// ErrQuotaExhausted or ErrStatusConflict and writes nothing in either
	// case.
	SubmitForEditing(scriptID, ownerID string, fields map[string]any, editLimit int) error
}

// SessionStore issues and resolves session tokens.
type SessionStore interface {
	NewSession(userID string) (string, error)
	GetUserIDByToken(token string) (string, bool, error)
	DeleteSession(token string) error
}
