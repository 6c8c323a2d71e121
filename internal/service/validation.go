package service

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"social-graph/pkg/apperr"
	"social-graph/pkg/password"

	"github.com/go-playground/validator/v10"
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernamePattern.MatchString(fl.Field().String())
	})
	// bcrypt 按字节截断，这里按字节数限制
	_ = v.RegisterValidation("passwordbytes", func(fl validator.FieldLevel) bool {
		return len(fl.Field().String()) <= password.MaxLength
	})
	return v
}

const (
	emailRules    = "required,max=128,email"
	passwordRules = "required,passwordbytes"
)

type registration struct {
	Username string `validate:"required,max=64,username"`
	Email    string `validate:"required,max=128,email"`
	Password string `validate:"required,passwordbytes"`
}

func validateField(field, value, rules string) error {
	if err := validate.Var(value, rules); err != nil {
		return translateValidation(err, field)
	}
	return nil
}

func validateStruct(v interface{}) error {
	if err := validate.Struct(v); err != nil {
		return translateValidation(err, "")
	}
	return nil
}

// translateValidation 转换为 ValidationError，信息不包含字段取值
func translateValidation(err error, field string) error {
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) || len(ves) == 0 {
		return apperr.Wrap(apperr.KindValidation, "invalid request", err)
	}
	fe := ves[0]
	name := field
	if name == "" {
		name = strings.ToLower(fe.Field())
	}
	switch fe.Tag() {
	case "required":
		return apperr.Validation(fmt.Sprintf("%s is required", name))
	case "max", "passwordbytes":
		return apperr.Validation(fmt.Sprintf("%s is too long", name))
	default:
		return apperr.Validation(fmt.Sprintf("%s is invalid", name))
	}
}
