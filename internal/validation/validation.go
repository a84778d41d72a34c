// Package validation decodes request bodies and checks them against
// struct-tag schemas, reporting problems per field.
package validation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

// Error is a failed validation. FieldErrors is keyed by JSON field name;
// FormErrors holds problems that are not tied to a field.
type Error struct {
	FormErrors  []string            `json:"formErrors"`
	FieldErrors map[string][]string `json:"fieldErrors"`
}

func (e *Error) Error() string {
	parts := append([]string(nil), e.FormErrors...)
	fields := make([]string, 0, len(e.FieldErrors))
	for f := range e.FieldErrors {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	for _, f := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f, strings.Join(e.FieldErrors[f], ", ")))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func newError() *Error {
	return &Error{FormErrors: []string{}, FieldErrors: map[string][]string{}}
}

func (e *Error) add(field, msg string) {
	e.FieldErrors[field] = append(e.FieldErrors[field], msg)
}

func (e *Error) empty() bool {
	return len(e.FormErrors) == 0 && len(e.FieldErrors) == 0
}

// Number is a JSON value that must be coercible to a decimal: either a JSON
// number or a string holding one. Input that cannot be coerced is kept as
// invalid so the failure is reported against the field.
type Number struct {
	Value decimal.Decimal
	Valid bool
}

// maxExponent bounds the decimal exponent accepted from clients.
const maxExponent = 1000

// UnmarshalJSON implements json.Unmarshaler.
func (n *Number) UnmarshalJSON(b []byte) error {
	raw := strings.TrimSpace(string(b))
	if unquoted, err := unquote(raw); err == nil {
		raw = strings.TrimSpace(unquoted)
	}
	d, err := decimal.NewFromString(raw)
	valid := err == nil && d.Exponent() >= -maxExponent && d.Exponent() <= maxExponent
	*n = Number{Value: d, Valid: valid}
	return nil
}

func unquote(s string) (string, error) {
	var out string
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return "", err
	}
	return out, nil
}

// Validator checks decoded request bodies.
type Validator struct {
	validate *validator.Validate
}

// New creates a Validator that reports fields by their JSON names and
// understands Number fields.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	// Numbers are validated in their exact decimal string form.
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		n := field.Interface().(Number)
		if !n.Valid {
			return notANumber
		}
		return n.Value.String()
	}, Number{})
	_ = v.RegisterValidation("coercible", func(fl validator.FieldLevel) bool {
		_, ok := fieldDecimal(fl)
		return ok
	})
	_ = v.RegisterValidation("dgt", compareDecimal(func(d, p decimal.Decimal) bool { return d.GreaterThan(p) }))
	_ = v.RegisterValidation("dlt", compareDecimal(func(d, p decimal.Decimal) bool { return d.LessThan(p) }))
	_ = v.RegisterValidation("dscale", func(fl validator.FieldLevel) bool {
		d, ok := fieldDecimal(fl)
		if !ok {
			return false
		}
		places, err := strconv.ParseInt(fl.Param(), 10, 32)
		if err != nil {
			return false
		}
		return d.Equal(d.Truncate(int32(places)))
	})
	return &Validator{validate: v}
}

const notANumber = "NaN"

// fieldDecimal reads the decimal behind a Number (or numeric string) field.
func fieldDecimal(fl validator.FieldLevel) (decimal.Decimal, bool) {
	f := fl.Field()
	if f.Kind() != reflect.String || f.String() == notANumber {
		return decimal.Decimal{}, false
	}
	d, err := decimal.NewFromString(f.String())
	return d, err == nil
}

func compareDecimal(cmp func(d, param decimal.Decimal) bool) validator.Func {
	return func(fl validator.FieldLevel) bool {
		d, ok := fieldDecimal(fl)
		if !ok {
			return false
		}
		p, err := decimal.NewFromString(fl.Param())
		if err != nil {
			return false
		}
		return cmp(d, p)
	}
}

// Struct validates dst and returns *Error when any rule fails.
func (v *Validator) Struct(dst interface{}) error {
	verr := newError()
	v.collect(dst, verr, nil)
	if verr.empty() {
		return nil
	}
	return verr
}

// Bind decodes the JSON request body into dst and validates it. An empty
// body decodes as an empty object.
func (v *Validator) Bind(c *fiber.Ctx, dst interface{}) error {
	return v.BindBytes(c.Body(), dst)
}

// BindBytes is Bind for a raw body.
func (v *Validator) BindBytes(body []byte, dst interface{}) error {
	verr := newError()
	decoded := map[string]bool{}

	if len(bytes.TrimSpace(body)) > 0 {
		err := json.Unmarshal(body, dst)
		var typeErr *json.UnmarshalTypeError
		switch {
		case err == nil:
		case errors.As(err, &typeErr) && typeErr.Field != "":
			verr.add(typeErr.Field, fmt.Sprintf("Expected %s, received %s", expected(typeErr.Type), typeErr.Value))
			decoded[typeErr.Field] = true
		case errors.As(err, &typeErr):
			verr.FormErrors = append(verr.FormErrors, fmt.Sprintf("Expected object, received %s", typeErr.Value))
			return verr
		default:
			verr.FormErrors = append(verr.FormErrors, "Malformed JSON body")
			return verr
		}
	}

	v.collect(dst, verr, decoded)
	if verr.empty() {
		return nil
	}
	return verr
}

// collect runs the struct rules, skipping fields that already carry a
// decoding error.
func (v *Validator) collect(dst interface{}, verr *Error, skip map[string]bool) {
	err := v.validate.Struct(dst)
	if err == nil {
		return
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		verr.FormErrors = append(verr.FormErrors, err.Error())
		return
	}
	for _, fe := range verrs {
		field := fieldPath(fe)
		if skip[field] {
			continue
		}
		verr.add(field, message(fe))
	}
}

// fieldPath strips the root struct name from the namespace.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func expected(t reflect.Type) string {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.String:
		return "string"
	case reflect.Bool:
		return "boolean"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return "number"
	case reflect.Slice, reflect.Array:
		return "array"
	default:
		return "object"
	}
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "Required"
	case "email":
		return "Invalid email"
	case "coercible":
		return "Expected number, received nan"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("String must contain at least %s character(s)", fe.Param())
		}
		return fmt.Sprintf("Number must be greater than or equal to %s", fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("String must contain at most %s character(s)", fe.Param())
		}
		return fmt.Sprintf("Number must be less than or equal to %s", fe.Param())
	case "gt", "dgt":
		return fmt.Sprintf("Number must be greater than %s", fe.Param())
	case "dlt":
		return fmt.Sprintf("Number must be less than %s", fe.Param())
	case "dscale":
		return fmt.Sprintf("Number must have at most %s decimal place(s)", fe.Param())
	default:
		return fmt.Sprintf("Failed on the '%s' rule", fe.Tag())
	}
}
