package i18n

// Key identifies a translatable message.
type Key int

const (
	StatusQueued Key = iota
	StatusRunning
	StatusCompleted
	StatusFailed
	StatusUnknown

	SummaryError
	SummaryNoResult
	SummaryNoMatches
	SummaryUnknownArtist
	SummaryUnknownTitle
	SummaryScore
	SummarySource
	SummaryNote
	SummarySecondaryError

	FormRequired
	FormTooShort
	FormTooLong
	FormInvalidEmail
	FormMissingFile
	FormUnsupportedType
	FormInvalid

	LabelID
	LabelStatus
	LabelUpdated
	LabelCreated
	LabelFile
	LabelSummary
	LabelProgress
	LabelFingerprint
	LabelDuration
	LabelName
	LabelUsername
	LabelPassword
	LabelEmail
	LabelDisplayName
	LabelRoles
	LabelFeatures
	LabelExpires
	LabelOwner
	LabelState
	LabelOptions

	ValueYes
	ValueNo
	ValueNever
	ValueActive
	ValueRevoked
	ValueDisabled

	TitleJobs
	TitleJob
	TitleUpload
	TitleLogin
	TitleRegister
	TitleTokens
	TitleUsers

	ActionSignIn
	ActionSignOut
	ActionRegister
	ActionUpload
	ActionCreate
	ActionSave
	ActionDelete
	ActionRevoke
	ActionBack

	OptionSecondaryProvider
	OptionStoreFingerprint
	OptionMetadataOnly

	MessageSignedInAs
	MessageSignedOut
	MessageNotSignedIn
	MessageRegistered
	MessageNoJobs
	MessageUploadAccepted
	MessageTokenCreated
	MessageTokenShownOnce
	MessageTokenRevoked
	MessageUserCreated
	MessageUserUpdated
	MessageUserDeleted
	MessageAdminOnly
	MessageNoTokens
	MessageNoUsers
	MessageWatching
	MessageRequestFailed

	keyCount
)

var keyNames = [keyCount]string{
	StatusQueued:            "status.queued",
	StatusRunning:           "status.running",
	StatusCompleted:         "status.completed",
	StatusFailed:            "status.failed",
	StatusUnknown:           "status.unknown",
	SummaryError:            "summary.error",
	SummaryNoResult:         "summary.no_result",
	SummaryNoMatches:        "summary.no_matches",
	SummaryUnknownArtist:    "summary.unknown_artist",
	SummaryUnknownTitle:     "summary.unknown_title",
	SummaryScore:            "summary.score",
	SummarySource:           "summary.source",
	SummaryNote:             "summary.note",
	SummarySecondaryError:   "summary.secondary_error",
	FormRequired:            "form.required",
	FormTooShort:            "form.too_short",
	FormTooLong:             "form.too_long",
	FormInvalidEmail:        "form.invalid_email",
	FormMissingFile:         "form.missing_file",
	FormUnsupportedType:     "form.unsupported_type",
	FormInvalid:             "form.invalid",
	LabelID:                 "label.id",
	LabelStatus:             "label.status",
	LabelUpdated:            "label.updated",
	LabelCreated:            "label.created",
	LabelFile:               "label.file",
	LabelSummary:            "label.summary",
	LabelProgress:           "label.progress",
	LabelFingerprint:        "label.fingerprint",
	LabelDuration:           "label.duration",
	LabelName:               "label.name",
	LabelUsername:           "label.username",
	LabelPassword:           "label.password",
	LabelEmail:              "label.email",
	LabelDisplayName:        "label.display_name",
	LabelRoles:              "label.roles",
	LabelFeatures:           "label.features",
	LabelExpires:            "label.expires",
	LabelOwner:              "label.owner",
	LabelState:              "label.state",
	LabelOptions:            "label.options",
	ValueYes:                "value.yes",
	ValueNo:                 "value.no",
	ValueNever:              "value.never",
	ValueActive:             "value.active",
	ValueRevoked:            "value.revoked",
	ValueDisabled:           "value.disabled",
	TitleJobs:               "title.jobs",
	TitleJob:                "title.job",
	TitleUpload:             "title.upload",
	TitleLogin:              "title.login",
	TitleRegister:           "title.register",
	TitleTokens:             "title.tokens",
	TitleUsers:              "title.users",
	ActionSignIn:            "action.sign_in",
	ActionSignOut:           "action.sign_out",
	ActionRegister:          "action.register",
	ActionUpload:            "action.upload",
	ActionCreate:            "action.create",
	ActionSave:              "action.save",
	ActionDelete:            "action.delete",
	ActionRevoke:            "action.revoke",
	ActionBack:              "action.back",
	OptionSecondaryProvider: "option.secondary_provider",
	OptionStoreFingerprint:  "option.store_fingerprint",
	OptionMetadataOnly:      "option.metadata_only",
	MessageSignedInAs:       "message.signed_in_as",
	MessageSignedOut:        "message.signed_out",
	MessageNotSignedIn:      "message.not_signed_in",
	MessageRegistered:       "message.registered",
	MessageNoJobs:           "message.no_jobs",
	MessageUploadAccepted:   "message.upload_accepted",
	MessageTokenCreated:     "message.token_created",
	MessageTokenShownOnce:   "message.token_shown_once",
	MessageTokenRevoked:     "message.token_revoked",
	MessageUserCreated:      "message.user_created",
	MessageUserUpdated:      "message.user_updated",
	MessageUserDeleted:      "message.user_deleted",
	MessageAdminOnly:        "message.admin_only",
	MessageNoTokens:         "message.no_tokens",
	MessageNoUsers:          "message.no_users",
	MessageWatching:         "message.watching",
	MessageRequestFailed:    "message.request_failed",
}

// String returns the dotted key name.
func (k Key) String() string {
	if k < 0 || k >= keyCount {
		return "unknown"
	}
	return keyNames[k]
}

// Keys returns every defined key in declaration order.
func Keys() []Key {
	out := make([]Key, 0, keyCount)
	for k := Key(0); k < keyCount; k++ {
		out = append(out, k)
	}
	return out
}

var keysByName = func() map[string]Key {
	out := make(map[string]Key, keyCount)
	for k := Key(0); k < keyCount; k++ {
		out[keyNames[k]] = k
	}
	return out
}()

// ParseKey resolves a dotted key name such as "title.jobs".
func ParseKey(name string) (Key, bool) {
	k, ok := keysByName[name]
	return k, ok
}
