package forms

import (
	"errors"
	"path/filepath"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"idconsole/internal/api"
	"idconsole/internal/i18n"
	"idconsole/internal/services"
)

// Code is a stable validation failure identifier.
type Code string

const (
	CodeRequired        Code = "required"
	CodeTooShort        Code = "too_short"
	CodeTooLong         Code = "too_long"
	CodeInvalidEmail    Code = "invalid_email"
	CodeMissingFile     Code = "missing_file"
	CodeUnsupportedType Code = "unsupported_type"
	CodeInvalid         Code = "invalid"
)

// FieldError is one failed field.
type FieldError struct {
	Field string
	Code  Code
	Param string
}

// Errors is the set of failures for one form. It matches
// services.ErrValidation.
type Errors []FieldError

func (e Errors) Error() string {
	parts := make([]string, 0, len(e))
	for _, fe := range e {
		parts = append(parts, fe.Field+": "+string(fe.Code))
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

// Is lets errors.Is match services.ErrValidation.
func (e Errors) Is(target error) bool {
	return target == services.ErrValidation
}

// Has reports whether field failed with code.
func (e Errors) Has(field string, code Code) bool {
	for _, fe := range e {
		if fe.Field == field && fe.Code == code {
			return true
		}
	}
	return false
}

// Field returns the first failure for field.
func (e Errors) Field(field string) (FieldError, bool) {
	for _, fe := range e {
		if fe.Field == field {
			return fe, true
		}
	}
	return FieldError{}, false
}

// Localize renders one message per failed field.
func (e Errors) Localize(tr i18n.Translator) map[string]string {
	out := make(map[string]string, len(e))
	for _, fe := range e {
		if _, seen := out[fe.Field]; seen {
			continue
		}
		out[fe.Field] = fe.Message(tr)
	}
	return out
}

// Message renders the failure in the translator's locale.
func (fe FieldError) Message(tr i18n.Translator) string {
	label := fieldLabel(fe.Field, tr)
	switch fe.Code {
	case CodeRequired:
		return tr.T(i18n.FormRequired, label)
	case CodeTooShort:
		return tr.T(i18n.FormTooShort, label, fe.Param)
	case CodeTooLong:
		return tr.T(i18n.FormTooLong, label, fe.Param)
	case CodeInvalidEmail:
		return tr.T(i18n.FormInvalidEmail, label)
	case CodeMissingFile:
		return tr.T(i18n.FormMissingFile)
	case CodeUnsupportedType:
		return tr.T(i18n.FormUnsupportedType, fe.Param)
	default:
		return tr.T(i18n.FormInvalid, label)
	}
}

func fieldLabel(field string, tr i18n.Translator) string {
	switch field {
	case "username":
		return tr.T(i18n.LabelUsername)
	case "password":
		return tr.T(i18n.LabelPassword)
	case "email":
		return tr.T(i18n.LabelEmail)
	case "display_name":
		return tr.T(i18n.LabelDisplayName)
	case "name":
		return tr.T(i18n.LabelName)
	case "file":
		return tr.T(i18n.LabelFile)
	case "roles":
		return tr.T(i18n.LabelRoles)
	case "features":
		return tr.T(i18n.LabelFeatures)
	default:
		return field
	}
}

// AudioExtensions lists the upload extensions accepted client-side.
var AudioExtensions = []string{".aac", ".aif", ".aiff", ".flac", ".m4a", ".mp3", ".ogg", ".opus", ".wav", ".webm", ".wma"}

// Upload describes a file chosen for upload.
type Upload struct {
	Filename string `json:"file" validate:"required,audioext"`
	Size     int64  `json:"-"`
}

// Validator wraps a configured validator.Validate.
type Validator struct {
	v *validator.Validate
}

// New builds a validator that reports fields by their json names.
func New() *Validator {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return strings.ToLower(field.Name)
		}
		return name
	})
	_ = v.RegisterValidation("audioext", func(fl validator.FieldLevel) bool {
		return IsAudioFile(fl.Field().String())
	})
	return &Validator{v: v}
}

// IsAudioFile reports whether name carries an accepted extension.
func IsAudioFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(strings.TrimSpace(name)))
	idx := sort.SearchStrings(AudioExtensions, ext)
	return ext != "" && idx < len(AudioExtensions) && AudioExtensions[idx] == ext
}

// Struct validates any tagged struct and returns Errors or nil.
func (v *Validator) Struct(value any) error {
	err := v.v.Struct(value)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := make(Errors, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, FieldError{Field: fieldName(fe), Code: codeFor(fe), Param: fe.Param()})
	}
	return out
}

// Login validates a sign-in form.
func (v *Validator) Login(req api.LoginRequest) error {
	req.Username = strings.TrimSpace(req.Username)
	return v.Struct(req)
}

// Register validates a registration form.
func (v *Validator) Register(req api.RegisterRequest) error {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	return v.Struct(req)
}

// Upload validates a chosen file. A missing or zero-byte file is reported
// as missing_file before anything else is checked.
func (v *Validator) Upload(upload Upload) error {
	if strings.TrimSpace(upload.Filename) == "" || upload.Size <= 0 {
		return Errors{{Field: "file", Code: CodeMissingFile}}
	}
	err := v.Struct(upload)
	var out Errors
	if errors.As(err, &out) {
		for i := range out {
			if out[i].Code == CodeUnsupportedType || out[i].Code == CodeInvalid {
				out[i].Code = CodeUnsupportedType
				out[i].Param = filepath.Ext(upload.Filename)
			}
		}
		return out
	}
	return err
}

// Token validates an admin token form.
func (v *Validator) Token(req api.TokenCreateRequest) error {
	req.Name = strings.TrimSpace(req.Name)
	return v.Struct(req)
}

// UserCreate validates an admin user-create form.
func (v *Validator) UserCreate(req api.UserCreateRequest) error {
	req.Username = strings.TrimSpace(req.Username)
	return v.Struct(req)
}

// UserUpdate validates an admin user-update form.
func (v *Validator) UserUpdate(req api.UserUpdateRequest) error {
	return v.Struct(req)
}

func fieldName(fe validator.FieldError) string {
	name := fe.Field()
	if idx := strings.IndexByte(name, '['); idx >= 0 {
		name = name[:idx]
	}
	return name
}

func codeFor(fe validator.FieldError) Code {
	switch fe.Tag() {
	case "required":
		return CodeRequired
	case "min":
		return CodeTooShort
	case "max":
		return CodeTooLong
	case "email":
		return CodeInvalidEmail
	case "audioext":
		return CodeUnsupportedType
	default:
		return CodeInvalid
	}
}

// AsErrors extracts validation errors from err.
func AsErrors(err error) (Errors, bool) {
	var out Errors
	if errors.As(err, &out) {
		return out, true
	}
	return nil, false
}
