package validation

import (
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New()

	validate.RegisterValidation("absurl", validateAbsoluteURL)
}

// validateAbsoluteURL accepts a URL with a scheme and either a host or an
// opaque part. The stock url rule lets "https://" through.
func validateAbsoluteURL(fl validator.FieldLevel) bool {
	u, err := url.Parse(fl.Field().String())
	if err != nil {
		return false
	}
	return u.Scheme != "" && (u.Host != "" || u.Opaque != "")
}

// FormValues is the raw, untyped submission of a form: field name to the
// submitted string(s).
type FormValues map[string][]string

// Get returns the last value submitted for field, mirroring how a form
// collapses repeated keys.
func (v FormValues) Get(field string) string {
	vs := v[field]
	if len(vs) == 0 {
		return ""
	}
	return vs[len(vs)-1]
}

// Set replaces the values of field with a single value.
func (v FormValues) Set(field, value string) {
	v[field] = []string{value}
}

// Clone returns a deep copy.
func (v FormValues) Clone() FormValues {
	out := make(FormValues, len(v))
	for k, vs := range v {
		out[k] = append([]string(nil), vs...)
	}
	return out
}

// Errors maps a field name to its ordered messages. A field that passed is
// absent. Decode never returns a non-nil empty map.
type Errors map[string][]string

// Valid reports whether there are no errors. nil and empty are equivalent.
func (e Errors) Valid() bool {
	return len(e) == 0
}

// First returns the message shown for field, or "".
func (e Errors) First(field string) string {
	if msgs := e[field]; len(msgs) > 0 {
		return msgs[0]
	}
	return ""
}

// Fields returns the failing field names in no particular order.
func (e Errors) Fields() []string {
	out := make([]string, 0, len(e))
	for k := range e {
		out = append(out, k)
	}
	return out
}

// Clone returns a deep copy; nil stays nil.
func (e Errors) Clone() Errors {
	if e == nil {
		return nil
	}
	out := make(Errors, len(e))
	for k, msgs := range e {
		out[k] = append([]string(nil), msgs...)
	}
	return out
}

func (e Errors) add(field, msg string) Errors {
	if e == nil {
		e = Errors{}
	}
	for _, m := range e[field] {
		if m == msg {
			return e
		}
	}
	e[field] = append(e[field], msg)
	return e
}

// Decode coerces raw into the schema T and validates it.
//
// T must be a struct. Each field taking part carries a `form` tag naming the
// raw key, an optional `validate` tag with validator rules and an optional
// `msg` tag overriding the generated message. Strings are trimmed; int
// fields are parsed and a parse failure is reported as a validation error on
// that field. On success the returned Errors is nil.
func Decode[T any](raw FormValues) (T, Errors) {
	var out T
	errs := decodeInto(raw, reflect.ValueOf(&out).Elem())
	return out, errs
}

func decodeInto(raw FormValues, v reflect.Value) Errors {
	if v.Kind() != reflect.Struct {
		panic(fmt.Sprintf("validation: schema must be a struct, got %s", v.Kind()))
	}

	var errs Errors
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		name := sf.Tag.Get("form")
		if name == "" || name == "-" || !sf.IsExported() {
			continue
		}
		msg := sf.Tag.Get("msg")
		s := strings.TrimSpace(raw.Get(name))

		fv := v.Field(i)
		switch fv.Kind() {
		case reflect.String:
			fv.SetString(s)
		case reflect.Int:
			n, err := strconv.Atoi(s)
			if err != nil {
				errs = errs.add(name, messageFor(name, msg, "number", ""))
				continue
			}
			fv.SetInt(int64(n))
		default:
			panic(fmt.Sprintf("validation: unsupported kind %s for field %q", fv.Kind(), name))
		}

		rules := sf.Tag.Get("validate")
		if rules == "" {
			continue
		}
		if err := validate.Var(fv.Interface(), rules); err != nil {
			var fieldErrs validator.ValidationErrors
			if !errors.As(err, &fieldErrs) {
				panic(fmt.Sprintf("validation: bad rules %q for field %q: %v", rules, name, err))
			}
			for _, fe := range fieldErrs {
				errs = errs.add(name, messageFor(name, msg, fe.Tag(), fe.Param()))
			}
		}
	}
	return errs
}

func messageFor(field, override, tag, param string) string {
	if override != "" {
		return override
	}

	switch tag {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email address", field)
	case "url", "absurl":
		return fmt.Sprintf("%s must be a valid URL", field)
	case "number":
		return fmt.Sprintf("%s must be a number", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, param)
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, param)
	case "gte", "lte":
		return fmt.Sprintf("%s is out of range", field)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
