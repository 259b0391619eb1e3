package app

import "errors"

var (
	// ErrInvalidCredentials is returned when the supplied credentials do not match.
	// This message is intended to be shown to end users and should not enable account enumeration.
	ErrInvalidCredentials = errors.New("Incorrect email address or password")

	ErrEmailAndPasswordRequired = errors.New("email and password required")
	ErrEmailAlreadyExists       = errors.New("email already exists")

	// ErrScriptNotFound covers both missing scripts and scripts owned by
	// someone else, so handlers cannot leak existence across accounts.
	ErrScriptNotFound = errors.New("script not found")

	// ErrForbidden is returned when the actor's role does not allow the
	// operation.
	ErrForbidden = errors.New("forbidden")

	// ErrInvalidTransition is returned when a status change would skip a
	// stage or move backwards in the production pipeline.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrQuotaExceeded is returned when the monthly edit quota blocks a
	// recorded→editing submission.
	ErrQuotaExceeded = errors.New("monthly edit quota exceeded")

	// ErrNoOriginalContent is returned by revert when no shadow copy exists,
	// either because the script was never edited or the revert was already
	// consumed.
	ErrNoOriginalContent = errors.New("no original content to restore")

	// ErrRawVideoRequired is returned when an editing submission carries no
	// recorded video.
	ErrRawVideoRequired = errors.New("raw video required")

	// ErrAssetUnavailable is returned when a stored video reference cannot be
	// resolved into a download link.
	ErrAssetUnavailable = errors.New("video asset unavailable")

	// ErrGenerationFailed is returned when the language model output could
	// not be obtained or parsed. No partial content is ever persisted.
	ErrGenerationFailed = errors.New("content generation failed")

	// ErrOnboardingRequired is returned when generation is requested before
	// the questionnaire is completed.
	ErrOnboardingRequired = errors.New("onboarding not completed")

	// ErrUnsupportedImageType is returned when a profile photo upload is not
	// JPEG, PNG or WebP.
	ErrUnsupportedImageType = errors.New("unsupported image type")

	// ErrPhotoLimitReached is returned when the plan's profile photo
	// allowance is spent: one ever on free, one per calendar month on pro.
	ErrPhotoLimitReached = errors.New("profile photo limit reached")

	// ErrPhotoNotConfigured is returned when photo enhancement is requested
	// without an image model in place.
	ErrPhotoNotConfigured = errors.New("photo generation not configured")

	// ErrVideoFileRequired is returned when an admin delivery carries no
	// edited video file.
	ErrVideoFileRequired = errors.New("edited video file required")

	// ErrBillingNotConfigured is returned when checkout or portal access is
	// requested without Stripe credentials in place.
	ErrBillingNotConfigured = errors.New("billing not configured")

	// ErrNoBillingAccount is returned when a portal session is requested for
	// a profile that never went through checkout.
	ErrNoBillingAccount = errors.New("no billing account for user")
)
