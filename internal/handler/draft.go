package handler

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"myfitguide/internal/domain"
	"myfitguide/internal/validation"
	"myfitguide/internal/wizard"
)

type fieldKind int

// errLocationExpected rejects typed text where a shared location is asked
var errLocationExpected = errors.New("location expected")

const (
	kindText fieldKind = iota
	kindSecret
	kindOptional
	kindChoice
	kindList
	kindLocation
	kindConsent
)

type choice struct {
	label string
	value string
}

// field is one prompt of a step form; key matches the validation field name
type field struct {
	key     string
	label   string
	prompt  string
	kind    fieldKind
	choices []choice
}

var stepFields = map[wizard.Step][]field{
	wizard.StepLogin: {
		{key: "correo", label: "Correo", prompt: "📧 Escribe tu correo electrónico:", kind: kindText},
		{key: "contrasena", label: "Contraseña", prompt: "🔒 Escribe tu contraseña (mínimo 8 caracteres):", kind: kindSecret},
	},
	wizard.StepRegistro: {
		{key: "nombre", label: "Nombre", prompt: "👤 ¿Cómo te llamas?", kind: kindText},
		{key: "correo", label: "Correo", prompt: "📧 Escribe tu correo electrónico:", kind: kindText},
		{key: "contrasena", label: "Contraseña", prompt: "🔒 Crea una contraseña (mínimo 8 caracteres):", kind: kindSecret},
		{key: "fechaNacimiento", label: "Fecha de nacimiento", prompt: "📅 Fecha de nacimiento (DD/MM/AAAA):", kind: kindText},
		{key: "ubicacion", label: "Ubicación", prompt: "📍 Comparte tu ubicación o pulsa Omitir:", kind: kindLocation},
		{key: "aceptoTerminos", label: "Términos", prompt: "📄 ¿Aceptas los términos y condiciones de MyFitGuide?", kind: kindConsent},
	},
	wizard.StepDieta: {
		{key: "peso", label: "Peso (kg)", prompt: "⚖️ ¿Cuál es tu peso en kg?", kind: kindText},
		{key: "altura", label: "Altura (cm)", prompt: "📏 ¿Cuál es tu altura en cm?", kind: kindText},
		{key: "objetivo", label: "Objetivo", prompt: "🎯 ¿Cuál es tu objetivo?", kind: kindText},
		{key: "genero", label: "Género", prompt: "⚧ Selecciona tu género:", kind: kindChoice, choices: []choice{
			{label: "Masculino", value: string(domain.GeneroMasculino)},
			{label: "Femenino", value: string(domain.GeneroFemenino)},
		}},
		{key: "presupuesto", label: "Presupuesto", prompt: "💰 ¿Cuál es tu presupuesto para la dieta?", kind: kindText},
		{key: "alergias", label: "Alergias", prompt: "🥜 Escribe una alergia por mensaje (máximo 5) o pulsa Listo:", kind: kindList},
	},
	wizard.StepRutina: {
		{key: "edad", label: "Edad", prompt: "🎂 ¿Cuántos años tienes?", kind: kindText},
		{key: "preferencia", label: "Preferencia", prompt: "🏋️ ¿Dónde prefieres entrenar?", kind: kindChoice, choices: []choice{
			{label: "Gimnasio", value: string(domain.PreferenciaGimnasio)},
			{label: "Casa", value: string(domain.PreferenciaCasa)},
			{label: "Calistenia", value: string(domain.PreferenciaCalistenia)},
		}},
		{key: "dias", label: "Días por semana", prompt: "📆 ¿Cuántos días a la semana quieres entrenar? (1-7)", kind: kindText},
		{key: "lesiones", label: "Lesiones", prompt: "🩹 ¿Tienes alguna lesión? Escríbela o pulsa Omitir:", kind: kindOptional},
	},
}

func fieldFor(step wizard.Step, key string) (field, bool) {
	for _, f := range stepFields[step] {
		if f.key == key {
			return f, true
		}
	}
	return field{}, false
}

// draft is the form being filled for the current step of one chat
type draft struct {
	step     wizard.Step
	values   map[string]string
	alergias domain.Alergias
	accepted bool
	// queue holds the keys still to ask, in order
	queue []string
}

// newDraft starts the form of step; carried params may prefill fields
func newDraft(step wizard.Step, params wizard.Params) *draft {
	d := &draft{step: step, values: make(map[string]string)}
	for _, f := range stepFields[step] {
		if step == wizard.StepRutina && f.key == "edad" && params.Edad > 0 {
			d.values["edad"] = strconv.Itoa(params.Edad)
			continue
		}
		d.queue = append(d.queue, f.key)
	}
	return d
}

// current returns the field being asked
func (d *draft) current() (field, bool) {
	if len(d.queue) == 0 {
		return field{}, false
	}
	return fieldFor(d.step, d.queue[0])
}

func (d *draft) complete() bool {
	return len(d.queue) == 0
}

func (d *draft) advance() {
	if len(d.queue) > 0 {
		d.queue = d.queue[1:]
	}
}

// fill stores value for the current field and moves on.
// List fields collect entries and stay current until finished.
func (d *draft) fill(value string) error {
	f, ok := d.current()
	if !ok {
		return nil
	}

	value = strings.TrimSpace(value)
	switch f.kind {
	case kindLocation:
		return errLocationExpected
	case kindList:
		return d.alergias.Add(value)
	case kindConsent:
		d.accepted = isYes(value)
	default:
		d.values[f.key] = value
	}
	d.advance()
	return nil
}

// fillLocation stores a shared location for the current location field
func (d *draft) fillLocation(lat, lon float64) bool {
	f, ok := d.current()
	if !ok || f.kind != kindLocation {
		return false
	}
	d.values[f.key] = formatLocation(lat, lon)
	d.advance()
	return true
}

// skip leaves the current optional field empty
func (d *draft) skip() {
	if f, ok := d.current(); ok {
		delete(d.values, f.key)
		d.advance()
	}
}

func (d *draft) accept() {
	d.accepted = true
	if f, ok := d.current(); ok && f.kind == kindConsent {
		d.advance()
	}
}

// requeue asks again for the failing fields, in form order
func (d *draft) requeue(failing []string) {
	bad := make(map[string]bool, len(failing))
	for _, key := range failing {
		bad[key] = true
	}

	d.queue = d.queue[:0]
	for _, f := range stepFields[d.step] {
		if !bad[f.key] {
			continue
		}
		if f.kind == kindConsent {
			d.accepted = false
		}
		d.queue = append(d.queue, f.key)
	}
}

func (d *draft) loginForm() validation.LoginForm {
	return validation.LoginForm{
		Correo:     d.values["correo"],
		Contrasena: d.values["contrasena"],
	}
}

func (d *draft) registroForm() validation.RegistroForm {
	return validation.RegistroForm{
		Nombre:          d.values["nombre"],
		Correo:          d.values["correo"],
		Contrasena:      d.values["contrasena"],
		FechaNacimiento: d.values["fechaNacimiento"],
		Ubicacion:       d.values["ubicacion"],
		AceptoTerminos:  d.accepted,
	}
}

func (d *draft) dietaForm() validation.DietaForm {
	return validation.DietaForm{
		Peso:        d.values["peso"],
		Altura:      d.values["altura"],
		Objetivo:    d.values["objetivo"],
		Genero:      d.values["genero"],
		Presupuesto: d.values["presupuesto"],
		Alergias:    d.alergias.Values(),
	}
}

func (d *draft) rutinaForm() validation.RutinaForm {
	return validation.RutinaForm{
		Edad:        d.values["edad"],
		Preferencia: d.values["preferencia"],
		Dias:        d.values["dias"],
		Lesiones:    d.values["lesiones"],
	}
}

// summary lists the collected values before submission
func (d *draft) summary() string {
	var b strings.Builder
	b.WriteString("📋 Revisa tus datos:\n\n")
	for _, f := range stepFields[d.step] {
		var v string
		switch f.kind {
		case kindSecret:
			v = strings.Repeat("•", len([]rune(d.values[f.key])))
		case kindList:
			v = strings.Join(d.alergias.Values(), ", ")
		case kindConsent:
			v = "no"
			if d.accepted {
				v = "sí"
			}
		default:
			v = d.values[f.key]
		}
		if v == "" {
			v = "—"
		}
		fmt.Fprintf(&b, "%s: %s\n", f.label, v)
	}
	return b.String()
}

// formatLocation renders a shared location the way the backend stores it
func formatLocation(lat, lon float64) string {
	return fmt.Sprintf("%.5f, %.5f", lat, lon)
}

func isYes(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "si", "sí", "s", "acepto", "yes":
		return true
	}
	return false
}
