package validation

import (
	"errors"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"

	"collections-dashboard/internal/models"
)

var (
	Validate   *validator.Validate
	Translator ut.Translator

	// custom validation tags
	notBlankTag       = "notblank"
	fieldStatusTag    = "field_status"
	contactTypeTag    = "contact_type"
	approvalActionTag = "approval_action"
	isoDateTag        = "iso_date"
)

// Approval actions accepted by the payment-approval endpoint.
const (
	ApprovalAccept = "accept"
	ApprovalReject = "reject"
)

func init() {
	Validate = validator.New()

	_en := en.New()
	uni := ut.New(_en, _en)
	Translator, _ = uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(Validate, Translator)

	// Report JSON names instead of Go field names.
	Validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = Validate.RegisterValidation(notBlankTag, notBlankValidation)
	_ = Validate.RegisterValidation(fieldStatusTag, fieldStatusValidation)
	_ = Validate.RegisterValidation(contactTypeTag, contactTypeValidation)
	_ = Validate.RegisterValidation(approvalActionTag, approvalActionValidation)
	_ = Validate.RegisterValidation(isoDateTag, isoDateValidation)

	registerCustomValidationsTranslations(notBlankTag, fieldStatusTag, contactTypeTag, approvalActionTag, isoDateTag)
}

// a validator.RegisterTranslationsFunc is required, but the default
// translations are already registered, so a noop is passed.
func registerCustomValidationsTranslations(tags ...string) {
	registerFn := func(ut.Translator) error { return nil }
	for _, tag := range tags {
		_ = Validate.RegisterTranslation(tag, Translator, registerFn, translateCustomValidationErrs)
	}
}

func translateCustomValidationErrs(_ ut.Translator, fe validator.FieldError) string {
	switch fe.Tag() {
	case notBlankTag:
		return fe.Field() + " cannot be blank"
	case fieldStatusTag:
		return fe.Field() + " must be a known field status"
	case contactTypeTag:
		return fe.Field() + " must be one of applicant, co_applicant, guarantor, reference"
	case approvalActionTag:
		return fe.Field() + " must be accept or reject"
	case isoDateTag:
		return fe.Field() + " must be a YYYY-MM-DD date"
	default:
		return ""
	}
}

// Struct validates v and flattens failures into ValidationErrors.
func Struct(v interface{}) *ValidationResult {
	err := Validate.Struct(v)
	if err == nil {
		return &ValidationResult{Valid: true}
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return &ValidationResult{Errors: []ValidationError{{Message: err.Error(), Code: "INVALID"}}}
	}

	out := &ValidationResult{}
	for _, fe := range fieldErrs {
		out.Errors = append(out.Errors, ValidationError{
			Field:   fe.Field(),
			Message: fe.Translate(Translator),
			Code:    strings.ToUpper(fe.Tag()),
		})
	}
	return out
}

// Custom Validators

func notBlankValidation(fl validator.FieldLevel) bool {
	if str, ok := fl.Field().Interface().(string); ok {
		return strings.TrimSpace(str) != ""
	}
	return false
}

func fieldStatusValidation(fl validator.FieldLevel) bool {
	return models.FieldStatus(fl.Field().String()).Valid()
}

func contactTypeValidation(fl validator.FieldLevel) bool {
	return models.ContactType(fl.Field().String()).Valid()
}

func approvalActionValidation(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case ApprovalAccept, ApprovalReject:
		return true
	}
	return false
}

func isoDateValidation(fl validator.FieldLevel) bool {
	_, err := time.Parse("2006-01-02", fl.Field().String())
	return err == nil
}
