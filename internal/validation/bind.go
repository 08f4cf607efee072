package validation

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	validatorv10 "github.com/go-playground/validator/v10"
)

// FieldError is one entry of a validation failure body.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ErrorResponse is the body of every 422 response.
type ErrorResponse struct {
	Detail string       `json:"detail"`
	Errors []FieldError `json:"errors"`
}

// ErrInvalid is returned by the Bind helpers after they have written a 422.
var ErrInvalid = errors.New("invalid request")

// BindAndValidate binds JSON body into `out` and runs validation.
// If either step fails, it writes a 422 response and returns ErrInvalid for the handler to short-circuit.
func BindAndValidate(c *gin.Context, out interface{}, v *validatorv10.Validate) error {
	if err := c.ShouldBindJSON(out); err != nil {
		Reject(c, decodeErrors(err)...)
		return ErrInvalid
	}
	return validate(c, out, v)
}

// BindQuery binds the URL query into `out` and runs validation.
func BindQuery(c *gin.Context, out interface{}, v *validatorv10.Validate) error {
	if err := c.ShouldBindQuery(out); err != nil {
		Reject(c, FieldError{Field: "query", Message: err.Error()})
		return ErrInvalid
	}
	return validate(c, out, v)
}

// BindForm binds urlencoded or multipart form fields into `out` and validates them.
// A file part named fileField must also be present; its absence is reported with the other field errors.
func BindForm(c *gin.Context, out interface{}, fileField string, v *validatorv10.Validate) error {
	// parse with the engine's MaxMultipartMemory before the binder falls back to its own default
	if _, err := c.MultipartForm(); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		Reject(c, FieldError{Field: "body", Message: err.Error()})
		return ErrInvalid
	}
	if err := c.ShouldBindWith(out, binding.Form); err != nil {
		Reject(c, FieldError{Field: "body", Message: err.Error()})
		return ErrInvalid
	}

	var errs []FieldError
	if err := v.Struct(out); err != nil {
		errs = append(errs, validationErrors(err)...)
	}
	if fileField != "" {
		if _, err := c.FormFile(fileField); err != nil {
			errs = append(errs, FieldError{Field: fileField, Message: "field required"})
		}
	}
	if len(errs) > 0 {
		Reject(c, errs...)
		return ErrInvalid
	}
	return nil
}

// Reject writes the uniform 422 validation body.
func Reject(c *gin.Context, errs ...FieldError) {
	c.AbortWithStatusJSON(http.StatusUnprocessableEntity, ErrorResponse{
		Detail: "Validation error",
		Errors: errs,
	})
}

func validate(c *gin.Context, out interface{}, v *validatorv10.Validate) error {
	if err := v.Struct(out); err != nil {
		Reject(c, validationErrors(err)...)
		return ErrInvalid
	}
	return nil
}

func validationErrors(err error) []FieldError {
	var ve validatorv10.ValidationErrors
	if !errors.As(err, &ve) {
		return []FieldError{{Field: "body", Message: err.Error()}}
	}
	out := make([]FieldError, 0, len(ve))
	for _, fe := range ve {
		out = append(out, FieldError{Field: fe.Field(), Message: messageFor(fe)})
	}
	return out
}

func decodeErrors(err error) []FieldError {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.Is(err, io.EOF):
		return []FieldError{{Field: "body", Message: "field required"}}
	case errors.As(err, &syntaxErr):
		return []FieldError{{Field: "body", Message: "invalid JSON: " + syntaxErr.Error()}}
	case errors.As(err, &typeErr):
		field := typeErr.Field
		if field == "" {
			field = "body"
		}
		return []FieldError{{Field: field, Message: "expected " + typeErr.Type.String()}}
	default:
		return []FieldError{{Field: "body", Message: err.Error()}}
	}
}
