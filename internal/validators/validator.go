// Package validators provides the shared request validator with custom rules
// and input sanitizing.
package validators

import (
	"reflect"
	"sync"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/truemail-rb/truemail-go"
)

type Validator struct {
	Validate    *validator.Validate
	VerifyEmail func(email string) bool

	sanitizer *bluemonday.Policy
}

var (
	instance      *Validator
	once          sync.Once
	configuration *truemail.Configuration
)

// GetValidator returns the process-wide validator instance.
func GetValidator() *Validator {
	once.Do(func() {
		configuration, _ = truemail.NewConfiguration(truemail.ConfigurationAttr{
			VerifierEmail:         "no-reply@mail.contacts-server.dev",
			ValidationTypeDefault: "mx",
			SmtpFailFast:          true,
		})

		instance = &Validator{
			Validate:    validator.New(validator.WithRequiredStructEnabled()),
			VerifyEmail: verifyEmail,
			sanitizer:   bluemonday.StrictPolicy(),
		}

		registerCustomValidators(instance.Validate)
	})

	return instance
}

// verifyEmail checks that the email's domain accepts mail. It performs a DNS
// MX lookup and may take a network round trip.
func verifyEmail(email string) bool {
	return truemail.IsValid(email, configuration)
}

// SanitizeData strips markup from every string field of the given struct
// pointer, in place.
func (v *Validator) SanitizeData(obj interface{}) {
	value := reflect.ValueOf(obj)
	if value.Kind() != reflect.Ptr || value.IsNil() {
		return
	}

	element := value.Elem()
	if element.Kind() != reflect.Struct {
		return
	}

	for i := 0; i < element.NumField(); i++ {
		field := element.Field(i)
		if !field.CanSet() {
			continue
		}

		switch field.Kind() {
		case reflect.String:
			field.SetString(v.sanitizer.Sanitize(field.String()))
		case reflect.Ptr:
			if field.Elem().Kind() == reflect.String && !field.IsNil() {
				field.Elem().SetString(v.sanitizer.Sanitize(field.Elem().String()))
			}
		}
	}
}

func registerCustomValidators(v *validator.Validate) {
	// Passwords need at least one upper case letter, one lower case letter,
	// one number and one special character, all ASCII.
	if err := v.RegisterValidation("password_validation", passwordValidation); err != nil {
		return
	}
}

func passwordValidation(fl validator.FieldLevel) bool {
	var upperLetter, lowerLetter, number, specialChar bool

	value := fl.Field().String()
	for _, r := range value {
		if r > unicode.MaxASCII {
			return false
		}

		switch {
		case unicode.IsUpper(r):
			upperLetter = true
		case unicode.IsLower(r):
			lowerLetter = true
		case unicode.IsNumber(r):
			number = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			specialChar = true
		}
	}

	return upperLetter && lowerLetter && number && specialChar
}
