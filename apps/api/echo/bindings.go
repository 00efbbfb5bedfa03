package echoapi

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/kiongozi/core"
)

const orderingParam = "ordering"

var errEmptyBody = errors.New("request body is required")

// Ordering binds the comma separated `ordering` query param, e.g. "name,-created_at".
// Unknown fields are dropped.
type Ordering struct {
	Orderings []core.DBOrdering
}

func (ord *Ordering) Bind(ctx echo.Context, allowed ...string) {
	val := ctx.QueryParam(orderingParam)
	if val == "" {
		return
	}

	for _, field := range strings.Split(val, ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		if !contains(allowed, field) {
			continue
		}
		ord.Orderings = append(ord.Orderings, core.DBOrdering{Field: field, Ascending: !descending})
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// bindJSON decodes the request body into v. Values of the wrong JSON type and malformed documents
// are reported as a core.ValidationError instead of a bare 400.
func bindJSON(ctx echo.Context, v interface{}) error {
	err := json.NewDecoder(ctx.Request().Body).Decode(v)
	if err == nil {
		return nil
	}

	switch e := err.(type) {
	case *json.UnmarshalTypeError:
		return core.NewValidationError(err, core.FieldError{
			Field: e.Field,
			Error: fmt.Sprintf("expected %s, got %s", jsonTypeName(e.Type.Kind().String()), e.Value),
		})
	case *json.SyntaxError:
		return core.NewValidationError(err, core.FieldError{
			Error: fmt.Sprintf("malformed JSON at offset %d", e.Offset),
		})
	}
	switch err {
	case io.EOF:
		return core.NewValidationError(errEmptyBody, core.FieldError{Error: errEmptyBody.Error()})
	case io.ErrUnexpectedEOF:
		return core.NewValidationError(err, core.FieldError{Error: "malformed JSON"})
	}
	return errors.Wrap(err, "decoding request body")
}

// payloadError joins the type mismatch found while decoding a payload with the validation errors of the rest of it.
type payloadError struct {
	decode     *core.ValidationError
	validation error // validator.ValidationErrors or *core.ValidationError
}

func (err *payloadError) Error() string {
	return err.decode.Error() + "; " + err.validation.Error()
}

// fieldErrors returns every field error, those of the decoder first.
// A validation error at or under a path the decoder already reported is dropped.
func (err *payloadError) fieldErrors(translator ut.Translator) []core.FieldError {
	fldErrs := append([]core.FieldError{}, err.decode.Fields...)
	validated, _ := validationFieldErrors(err.validation, translator)
	for _, fe := range validated {
		if !shadowed(fe.Field, err.decode.Fields) {
			fldErrs = append(fldErrs, fe)
		}
	}
	return fldErrs
}

func shadowed(path string, by []core.FieldError) bool {
	for _, fe := range by {
		if fe.Field == "" || path == fe.Field ||
			strings.HasPrefix(path, fe.Field+".") || strings.HasPrefix(path, fe.Field+"[") {
			return true
		}
	}
	return false
}

// validationFieldErrors reports the field errors of a validation failure, ok is false for any other error.
func validationFieldErrors(err error, translator ut.Translator) (fldErrs []core.FieldError, ok bool) {
	switch e := err.(type) {
	case validator.ValidationErrors:
		return core.TranslateValidationErrors(e, translator), true
	case *core.ValidationError:
		if len(e.Fields) == 0 {
			return []core.FieldError{{Error: e.Error()}}, true
		}
		return e.Fields, true
	}
	return nil, false
}

// bindAndValidate decodes the request body into v then calls validate.
// A value of the wrong JSON type does not stop validation, both are reported together.
func bindAndValidate(ctx echo.Context, v interface{}, validate func() error) error {
	err := bindJSON(ctx, v)
	if err == nil {
		return validate()
	}

	decErr, ok := err.(*core.ValidationError)
	if !ok {
		return err
	}
	if _, ok = decErr.Err.(*json.UnmarshalTypeError); !ok {
		return err
	}
	vErr := validate()
	switch vErr.(type) {
	case validator.ValidationErrors, *core.ValidationError:
		return &payloadError{decode: decErr, validation: vErr}
	}
	return err
}

func jsonTypeName(kind string) string {
	switch kind {
	case "map", "struct":
		return "object"
	case "slice", "array":
		return "array"
	case "float32", "float64", "int", "int8", "int16", "int32", "int64",
		"uint", "uint8", "uint16", "uint32", "uint64":
		return "number"
	case "bool":
		return "boolean"
	case "ptr":
		return "value"
	}
	return kind
}
