package httpx

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

var isbnPattern = regexp.MustCompile(`^([0-9]{10}|[0-9]{13})$`)

func init() {
	validate = validator.New()

	// Report fields by their json name so messages match the wire format.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})

	_ = validate.RegisterValidation("isbn", validateISBN)
}

// validateISBN accepts exactly 10 or 13 digits, matching the catalog's
// business-key format.
func validateISBN(fl validator.FieldLevel) bool {
	return isbnPattern.MatchString(fl.Field().String())
}

// ValidateStruct runs the struct's validation tags and returns the field
// messages in declaration order, or nil when the input is valid.
func ValidateStruct(s any) []FieldError {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var errs []FieldError
	for _, fe := range err.(validator.ValidationErrors) {
		errs = append(errs, FieldError{
			Field:   fe.Field(),
			Message: messageFor(fe),
		})
	}
	return errs
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("'%s' é obrigatório", fe.Field())
	case "email":
		return fmt.Sprintf("'%s' deve ser um email válido", fe.Field())
	case "isbn":
		return fmt.Sprintf("'%s' deve ter 10 ou 13 digitos", fe.Field())
	case "min", "gte":
		return fmt.Sprintf("'%s' deve ser maior ou igual a %s", fe.Field(), fe.Param())
	case "max", "lte":
		return fmt.Sprintf("'%s' deve ser menor ou igual a %s", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("'%s' é inválido", fe.Field())
	}
}
