package validation

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// FieldError is a user-facing error bound to one form field
type FieldError struct {
	Field   string
	Message string
}

// Errors is the ordered set of field errors of one failed submission
type Errors []FieldError

func (e Errors) Error() string {
	msgs := make([]string, 0, len(e))
	for _, fe := range e {
		msgs = append(msgs, fe.Message)
	}
	return strings.Join(msgs, "; ")
}

// Fields returns the distinct failing field keys in order
func (e Errors) Fields() []string {
	seen := make(map[string]bool, len(e))
	var fields []string
	for _, fe := range e {
		if !seen[fe.Field] {
			seen[fe.Field] = true
			fields = append(fields, fe.Field)
		}
	}
	return fields
}

// Has reports whether the given field failed
func (e Errors) Has(field string) bool {
	for _, fe := range e {
		if fe.Field == field {
			return true
		}
	}
	return false
}

func (e *Errors) add(field, msg string) {
	*e = append(*e, FieldError{Field: field, Message: msg})
}

// AsErrors extracts validation errors from err
func AsErrors(err error) (Errors, bool) {
	var errs Errors
	if errors.As(err, &errs) {
		return errs, true
	}
	return nil, false
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, tag := range []string{"form", "json"} {
			name, _, _ := strings.Cut(fld.Tag.Get(tag), ",")
			if name != "" && name != "-" {
				return name
			}
		}
		return fld.Name
	})
	return v
}

// Payload field names that differ from the form field the user fills in
var fieldAliases = map[string]string{
	"preferencias": "preferencia",
}

var fieldLabels = map[string]string{
	"correo":          "El correo electrónico",
	"contrasena":      "La contraseña",
	"nombre":          "El nombre",
	"fechaNacimiento": "La fecha de nacimiento",
	"aceptoTerminos":  "Aceptar los términos",
	"peso":            "El peso",
	"altura":          "La altura",
	"objetivo":        "El objetivo",
	"genero":          "El género",
	"presupuesto":     "El presupuesto",
	"edad":            "La edad",
	"preferencia":     "La preferencia",
	"dias":            "Los días",
	"userId":          "El usuario",
}

// Messages for non-required rule failures, per field
var fieldMessages = map[string]string{
	"correo":         "Email no válido.",
	"contrasena":     "La contraseña debe tener mínimo 8 caracteres.",
	"aceptoTerminos": "Debes aceptar los términos y condiciones.",
	"genero":         "El género debe ser masculino o femenino.",
	"altura":         "La altura debe ser mayor a 0.",
	"peso":           "El peso debe ser mayor a 0.",
	"presupuesto":    "El presupuesto debe ser mayor a 0.",
	"alergias":       "Máximo 5 alergias permitidas.",
	"edad":           "Edad debe ser un número válido mayor a 0.",
	"preferencia":    "La preferencia debe ser gimnasio, casa o calistenia.",
	"dias":           "Días debe estar entre 1 y 7.",
}

func label(field string) string {
	if l, ok := fieldLabels[field]; ok {
		return l
	}
	return field
}

// checkStruct runs the tag rules of s and converts failures into Errors
func checkStruct(s any) Errors {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return Errors{{Field: "form", Message: err.Error()}}
	}

	var errs Errors
	for _, fe := range verrs {
		field, _, _ := strings.Cut(fe.Field(), "[")
		if alias, ok := fieldAliases[field]; ok {
			field = alias
		}
		if errs.Has(field) {
			continue
		}
		errs.add(field, messageFor(field, fe.Tag()))
	}
	return errs
}

func messageFor(field, tag string) string {
	if tag != "required" {
		if msg, ok := fieldMessages[field]; ok {
			return msg
		}
	}
	if field == "aceptoTerminos" {
		return fieldMessages[field]
	}
	return fmt.Sprintf("%s es obligatorio.", label(field))
}

// parseDecimal parses a finite decimal; empty input is left to the required rule
func parseDecimal(errs *Errors, field, raw string) float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" || errs.Has(field) {
		return 0
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		errs.add(field, fmt.Sprintf("%s debe ser un número válido.", label(field)))
		return 0
	}
	return v
}

// parseInteger parses a base-10 integer; empty input is left to the required rule
func parseInteger(errs *Errors, field, raw string) int {
	raw = strings.TrimSpace(raw)
	if raw == "" || errs.Has(field) {
		return 0
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		if msg, ok := fieldMessages[field]; ok {
			errs.add(field, msg)
		} else {
			errs.add(field, fmt.Sprintf("%s debe ser un número entero.", label(field)))
		}
		return 0
	}
	return v
}
