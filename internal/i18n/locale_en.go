package i18n

var tableEN = [keyCount]string{
	StatusQueued:    "Queued",
	StatusRunning:   "Running",
	StatusCompleted: "Completed",
	StatusFailed:    "Failed",
	StatusUnknown:   "Unknown",

	SummaryError:          "Error: %s",
	SummaryNoResult:       "No result",
	SummaryNoMatches:      "No matches",
	SummaryUnknownArtist:  "Unknown artist",
	SummaryUnknownTitle:   "Unknown title",
	SummaryScore:          "Score: %d%%",
	SummarySource:         "Source: %s",
	SummaryNote:           "Note: %s",
	SummarySecondaryError: "Secondary provider error: %s",

	FormRequired:        "%s is required",
	FormTooShort:        "%s must be at least %s characters",
	FormTooLong:         "%s must be at most %s characters",
	FormInvalidEmail:    "%s must be a valid email address",
	FormMissingFile:     "Choose a non-empty audio file to upload",
	FormUnsupportedType: "Unsupported audio file type %s",
	FormInvalid:         "%s is invalid",

	LabelID:          "ID",
	LabelStatus:      "Status",
	LabelUpdated:     "Updated",
	LabelCreated:     "Created",
	LabelFile:        "File",
	LabelSummary:     "Summary",
	LabelProgress:    "Progress",
	LabelFingerprint: "Fingerprint",
	LabelDuration:    "Duration",
	LabelName:        "Name",
	LabelUsername:    "Username",
	LabelPassword:    "Password",
	LabelEmail:       "Email",
	LabelDisplayName: "Display name",
	LabelRoles:       "Roles",
	LabelFeatures:    "Features",
	LabelExpires:     "Expires",
	LabelOwner:       "Owner",
	LabelState:       "State",
	LabelOptions:     "Options",

	ValueYes:      "yes",
	ValueNo:       "no",
	ValueNever:    "never",
	ValueActive:   "active",
	ValueRevoked:  "revoked",
	ValueDisabled: "disabled",

	TitleJobs:     "Jobs",
	TitleJob:      "Job %s",
	TitleUpload:   "Identify audio",
	TitleLogin:    "Sign in",
	TitleRegister: "Create account",
	TitleTokens:   "API tokens",
	TitleUsers:    "Users",

	ActionSignIn:   "Sign in",
	ActionSignOut:  "Sign out",
	ActionRegister: "Register",
	ActionUpload:   "Upload",
	ActionCreate:   "Create",
	ActionSave:     "Save",
	ActionDelete:   "Delete",
	ActionRevoke:   "Revoke",
	ActionBack:     "Back",

	OptionSecondaryProvider: "Ask the secondary provider",
	OptionStoreFingerprint:  "Store the fingerprint",
	OptionMetadataOnly:      "Read tags only",

	MessageSignedInAs:     "Signed in as %s",
	MessageSignedOut:      "Signed out",
	MessageNotSignedIn:    "Not signed in",
	MessageRegistered:     "Account %s created; you can sign in now",
	MessageNoJobs:         "No jobs yet",
	MessageUploadAccepted: "Upload accepted: job %s",
	MessageTokenCreated:   "Token %s created",
	MessageTokenShownOnce: "Copy this token now, it will not be shown again: %s",
	MessageTokenRevoked:   "Token %s revoked",
	MessageUserCreated:    "User %s created",
	MessageUserUpdated:    "User %s updated",
	MessageUserDeleted:    "User %s deleted",
	MessageAdminOnly:      "This section is only available to administrators",
	MessageNoTokens:       "No API tokens",
	MessageNoUsers:        "No users",
	MessageWatching:       "Watching %d job(s), press Ctrl+C to stop",
	MessageRequestFailed:  "Request failed: %s",
}
