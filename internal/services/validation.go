package services

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Contact form limits
const (
	EmailMaxLength   = 254
	MessageMinLength = 10
	MessageMaxLength = 500
)

var phoneRegex = regexp.MustCompile(`^[\d\s+\-()]+$`)

// FieldErrors maps a payload field name to one message.
type FieldErrors map[string]string

// ContactInput is a normalised contact form payload.
type ContactInput struct {
	Email   string `json:"email" validate:"required,max=254,email"`
	Phone   string `json:"phone" validate:"omitempty,phone"`
	Message string `json:"message" validate:"required,min=10,max=500"`
	Website string `json:"website"`
}

// fieldMessages holds the user-facing text for each field and failed rule.
var fieldMessages = map[string]map[string]string{
	"email": {
		"required": "Email is required",
		"email":    "Invalid email address",
		"max":      "Email is too long",
		"type":     "Email must be a string",
	},
	"phone": {
		"phone": "Invalid phone number format",
		"type":  "Phone must be a string",
	},
	"message": {
		"required": "Message is required",
		"min":      "Message must be at least 10 characters",
		"max":      "Message must be 500 characters or less",
		"type":     "Message must be a string",
	},
}

// Validator checks raw contact payloads.
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a Validator with the phone rule registered.
func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	if err := v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phoneRegex.MatchString(fl.Field().String())
	}); err != nil {
		panic(fmt.Sprintf("register phone validation: %v", err))
	}
	return &Validator{validate: v}
}

// ValidateSubmission turns an untyped payload into a ContactInput or a set
// of field errors, never both. Every invalid field is reported.
func (v *Validator) ValidateSubmission(raw map[string]any) (*ContactInput, FieldErrors) {
	errs := FieldErrors{}
	in := &ContactInput{}

	for field, dst := range map[string]*string{
		"email":   &in.Email,
		"phone":   &in.Phone,
		"message": &in.Message,
		"website": &in.Website,
	} {
		val, present := raw[field]
		if !present || val == nil {
			continue
		}
		s, ok := val.(string)
		if !ok {
			if field != "website" {
				errs[field] = fieldMessages[field]["type"]
			}
			continue
		}
		*dst = s
	}

	in.Email = strings.TrimSpace(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Message = strings.TrimSpace(in.Message)

	if err := v.validate.Struct(in); err != nil {
		verrs, ok := err.(validator.ValidationErrors)
		if !ok {
			return nil, FieldErrors{"general": "Validation failed"}
		}
		for _, fe := range verrs {
			if _, seen := errs[fe.Field()]; seen {
				continue
			}
			msg, ok := fieldMessages[fe.Field()][fe.Tag()]
			if !ok {
				msg = "Invalid value"
			}
			errs[fe.Field()] = msg
		}
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return in, nil
}
