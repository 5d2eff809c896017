package middleware

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/erp/rental/internal/domain/tenant"
	"github.com/erp/rental/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var mobileRE = regexp.MustCompile(tenant.MobilePattern)

// SetupValidator applies RegisterValidations to gin's validator
func SetupValidator() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		RegisterValidations(v)
	}
}

// RegisterValidations makes v report JSON field names, validate decimal
// amounts as numbers so `required` rejects zero, and know the `mobile` tag
func RegisterValidations(v *validator.Validate) {
	v.RegisterTagNameFunc(fieldName)
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return d.InexactFloat64()
		}
		return nil
	}, decimal.Decimal{})
	_ = v.RegisterValidation("mobile", func(fl validator.FieldLevel) bool {
		return mobileRE.MatchString(fl.Field().String())
	})
}

// fieldName is the json name of a field, or its form name for query structs
func fieldName(fld reflect.StructField) string {
	name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
	if name == "-" {
		return ""
	}
	if name == "" {
		name, _, _ = strings.Cut(fld.Tag.Get("form"), ",")
	}
	return name
}

// ValidationDetails converts validator errors into response details. It
// returns nil when err holds no field errors.
func ValidationDetails(err error) []dto.ValidationDetail {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return nil
	}
	details := make([]dto.ValidationDetail, len(fieldErrs))
	for i, e := range fieldErrs {
		details[i] = dto.ValidationDetail{Field: e.Field(), Message: message(e), Tag: e.Tag()}
	}
	return details
}

// bounded words the min/max/len messages by the kind of field
func bounded(prefix string) func(validator.FieldError) string {
	return func(e validator.FieldError) string {
		switch e.Kind() {
		case reflect.String:
			return prefix + e.Param() + " characters"
		case reflect.Slice, reflect.Map:
			return prefix + e.Param() + " items"
		}
		return prefix + e.Param()
	}
}

func withParam(prefix string) func(validator.FieldError) string {
	return func(e validator.FieldError) string { return prefix + e.Param() }
}

func fixed(msg string) func(validator.FieldError) string {
	return func(validator.FieldError) string { return msg }
}

var messages = map[string]func(validator.FieldError) string{
	"required": fixed("This field is required"),
	"email":    fixed("Invalid email format"),
	"mobile":   fixed("Invalid mobile number"),
	"uuid":     fixed("Invalid UUID format"),
	"numeric":  fixed("Must be numeric"),
	"min":      bounded("Must be at least "),
	"max":      bounded("Must be at most "),
	"len":      bounded("Must be exactly "),
	"oneof":    withParam("Must be one of: "),
	"gte":      withParam("Must be greater than or equal to "),
	"lte":      withParam("Must be less than or equal to "),
	"gt":       withParam("Must be greater than "),
	"lt":       withParam("Must be less than "),
	"gtfield":  withParam("Must be after "),
}

func message(e validator.FieldError) string {
	if m, ok := messages[e.Tag()]; ok {
		return m(e)
	}
	return "Invalid value"
}
