package pipeline

import (
	"github.com/chynybekuuludastan/sitecloner/internal/service/schema"
)

// Error categories reported to callers
const (
	CategoryInput      = "input_error"
	CategoryFetch      = "fetch_error"
	CategoryGeneration = "generation_error"
	CategoryValidation = "validation_error"
	CategoryRender     = "render_error"
	CategoryInternal   = "internal_error"
)

// InputError is a request that cannot be processed as given
type InputError struct {
	Message string
	Err     error
}

func (e *InputError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *InputError) Unwrap() error {
	return e.Err
}

// ValidationFailure is content that parsed but failed the template schema, together
// with how the content was produced
type ValidationFailure struct {
	*schema.ValidationError
	UsedStructured bool
	OutputText     string
}

func (e *ValidationFailure) Unwrap() error {
	return e.ValidationError
}
