package handler

import (
    "errors"
    "reflect"
    "strings"

    "github.com/go-playground/validator/v10"
)

// RequestValidator adapts go-playground/validator to echo.Validator.
// Field names in errors are the JSON names.
type RequestValidator struct {
    v *validator.Validate
}

func NewRequestValidator() *RequestValidator {
    v := validator.New(validator.WithRequiredStructEnabled())
    v.RegisterTagNameFunc(func(f reflect.StructField) string {
        name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
        if name == "-" {
            return ""
        }
        return name
    })
    return &RequestValidator{v: v}
}

func (rv *RequestValidator) Validate(i interface{}) error { return rv.v.Struct(i) }

// fieldErrors flattens validation errors into field -> failed tag.
func fieldErrors(err error) map[string]string {
    out := map[string]string{}
    var verrs validator.ValidationErrors
    if !errors.As(err, &verrs) {
        return out
    }
    for _, fe := range verrs {
        out[fe.Field()] = fe.Tag()
    }
    return out
}
