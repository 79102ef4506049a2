package handler

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"nicgate/internal/nic/domain"
	dErrors "nicgate/pkg/domain-errors"

	"github.com/go-playground/validator/v10"
)

// validate checks request size limits only. Whether a number or claim is
// acceptable is the engine's decision, reported in the response body.
var validate = newValidate()

func newValidate() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ValidateRequest is the HTTP request body for POST /nic/validate.
type ValidateRequest struct {
	NIC         string `json:"nic" validate:"max=32"`
	Gender      string `json:"gender" validate:"max=16"`
	DateOfBirth string `json:"date_of_birth" validate:"max=32"`
}

// Validate implements the Validatable interface for httputil.DecodeAndPrepare.
// Values are passed through untrimmed.
func (r *ValidateRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	return toDomainError(validate.Struct(r))
}

// Claim converts the request into the engine's input.
func (r *ValidateRequest) Claim() domain.Claim {
	return domain.Claim{
		IdentityNumber:     r.NIC,
		ClaimedGender:      r.Gender,
		ClaimedDateOfBirth: r.DateOfBirth,
	}
}

// DecodeRequest is the HTTP request body for POST /nic/decode.
type DecodeRequest struct {
	NIC string `json:"nic" validate:"required,max=32"`
}

func (r *DecodeRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	return toDomainError(validate.Struct(r))
}

func toDomainError(err error) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid request")
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return dErrors.New(dErrors.CodeValidation, fe.Field()+" is required")
	case "max":
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param()))
	default:
		return dErrors.New(dErrors.CodeValidation, fe.Field()+" is invalid")
	}
}
