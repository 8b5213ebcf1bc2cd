package validation

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Error is a client-facing input validation failure
type Error struct {
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// ValidateStruct validates a struct against its `validate` tags and
// returns a single client-friendly error message.
func ValidateStruct(s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	errs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}

	messages := make([]string, 0, len(errs))
	for _, fe := range errs {
		messages = append(messages, fmt.Sprintf("field '%s' failed on '%s'", fe.Field(), fe.Tag()))
	}
	return &Error{Message: "validation failed: " + strings.Join(messages, "; ")}
}
