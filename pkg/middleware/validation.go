package middleware

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	apperrors "github.com/wms-platform/checkout-service/pkg/errors"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

var (
	orderIDRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]{0,63}$`)
	methodRegex  = regexp.MustCompile(`^(?i)(credit_card|domestic_debit_card)$`)
	modeRegex    = regexp.MustCompile(`^(?i)(standard|volumetric|rush)$`)
)

// InitValidator registers the checkout validators on a shared instance
// and on gin's binding engine
func InitValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		register(validate)

		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			register(v)
		}
	})
	return validate
}

func register(v *validator.Validate) {
	_ = v.RegisterValidation("order_id", func(fl validator.FieldLevel) bool {
		return orderIDRegex.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("payment_method", func(fl validator.FieldLevel) bool {
		return methodRegex.MatchString(strings.TrimSpace(fl.Field().String()))
	})
	_ = v.RegisterValidation("shipping_mode", func(fl validator.FieldLevel) bool {
		return modeRegex.MatchString(strings.TrimSpace(fl.Field().String()))
	})
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
}

// GetValidator returns the shared validator
func GetValidator() *validator.Validate {
	return InitValidator()
}

// BindAndValidate binds the JSON body into obj. Binding or validation
// failures come back as a ValidationFailure with one detail per field.
func BindAndValidate(c *gin.Context, obj any) *apperrors.AppError {
	InitValidator()

	if err := c.ShouldBindJSON(obj); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return apperrors.ErrValidationWithFields("request validation failed", FieldErrors(verrs))
		}
		return apperrors.ErrValidation(fmt.Sprintf("malformed request body: %v", err)).Wrap(err)
	}
	return nil
}

// FieldErrors maps validator errors to field -> message
func FieldErrors(verrs validator.ValidationErrors) map[string]string {
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fieldPath(fe)] = fieldMessage(fe)
	}
	return fields
}

func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", fe.Param())
	case "email":
		return "must be a valid email address"
	case "order_id":
		return "must be an alphanumeric order identifier"
	case "shipping_mode":
		return "must be STANDARD, VOLUMETRIC or RUSH"
	case "payment_method":
		return "must be CREDIT_CARD or DOMESTIC_DEBIT_CARD"
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}
