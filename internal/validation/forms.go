package validation

import (
	"strings"
	"time"

	"myfitguide/internal/domain"
)

// LoginForm holds the raw login fields
type LoginForm struct {
	Correo     string `form:"correo" validate:"required,email"`
	Contrasena string `form:"contrasena" validate:"required,min=8"`
}

// RegistroForm holds the raw registration fields
type RegistroForm struct {
	Nombre          string `form:"nombre" validate:"required"`
	Correo          string `form:"correo" validate:"required,email"`
	Contrasena      string `form:"contrasena" validate:"required,min=8"`
	FechaNacimiento string `form:"fechaNacimiento" validate:"required"`
	Ubicacion       string `form:"ubicacion"`
	AceptoTerminos  bool   `form:"aceptoTerminos" validate:"required"`
}

// DietaForm holds the raw diet fields
type DietaForm struct {
	Peso        string   `form:"peso" validate:"required"`
	Altura      string   `form:"altura" validate:"required"`
	Objetivo    string   `form:"objetivo" validate:"required"`
	Genero      string   `form:"genero" validate:"required"`
	Presupuesto string   `form:"presupuesto" validate:"required"`
	Alergias    []string `form:"alergias"`
}

// RutinaForm holds the raw routine fields
type RutinaForm struct {
	Edad        string `form:"edad" validate:"required"`
	Preferencia string `form:"preferencia" validate:"required"`
	Dias        string `form:"dias" validate:"required"`
	Lesiones    string `form:"lesiones"`
}

// RutinaCarry is what the Rutina step receives from earlier steps
type RutinaCarry struct {
	UserID   domain.UserID
	Nombre   string
	Objetivo string
}

func trimmed(s string) string {
	return strings.TrimSpace(s)
}

// Login validates the login form
func Login(f LoginForm) (domain.Credentials, error) {
	f.Correo = trimmed(f.Correo)
	if errs := checkStruct(f); len(errs) > 0 {
		return domain.Credentials{}, errs
	}
	return domain.Credentials{
		CorreoElectronico: f.Correo,
		Contrasena:        f.Contrasena,
	}, nil
}

// Registro validates the registration form against the current date
func Registro(f RegistroForm, now time.Time) (domain.Registration, error) {
	f.Nombre = trimmed(f.Nombre)
	f.Correo = trimmed(f.Correo)
	f.FechaNacimiento = trimmed(f.FechaNacimiento)

	errs := checkStruct(f)

	var iso string
	if f.FechaNacimiento != "" {
		birth, ok := parseFormDate(f.FechaNacimiento)
		switch {
		case !ok:
			errs.add("fechaNacimiento", "La fecha de nacimiento es inválida. Usa DD/MM/AAAA.")
		case birth.After(now):
			errs.add("fechaNacimiento", "La fecha de nacimiento no puede ser futura.")
		default:
			iso = birth.Format("2006-01-02")
		}
	}

	if len(errs) > 0 {
		return domain.Registration{}, errs
	}

	reg := domain.Registration{
		Nombre:            f.Nombre,
		CorreoElectronico: f.Correo,
		Contrasena:        f.Contrasena,
		FechaNacimiento:   iso,
	}
	if u := trimmed(f.Ubicacion); u != "" {
		reg.Ubicacion = &u
	}
	return reg, nil
}

func parseFormDate(raw string) (time.Time, bool) {
	for _, layout := range []string{"02/01/2006", "2/1/2006", "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Dieta validates the diet form for the given user
func Dieta(userID domain.UserID, f DietaForm) (domain.DietProfile, error) {
	f.Objetivo = trimmed(f.Objetivo)
	f.Genero = trimmed(f.Genero)

	errs := checkStruct(f)
	if userID.IsZero() {
		errs.add("userId", "Usuario no identificado.")
	}

	peso := parseDecimal(&errs, "peso", f.Peso)
	altura := parseDecimal(&errs, "altura", f.Altura)
	presupuesto := parseDecimal(&errs, "presupuesto", f.Presupuesto)

	var genero domain.Genero
	if f.Genero != "" && !errs.Has("genero") {
		g, ok := domain.ParseGenero(f.Genero)
		if !ok {
			errs.add("genero", fieldMessages["genero"])
		}
		genero = g
	}

	if len(errs) > 0 {
		return domain.DietProfile{}, errs
	}

	alergias := make([]string, 0, len(f.Alergias))
	for _, a := range f.Alergias {
		if a = trimmed(a); a != "" {
			alergias = append(alergias, a)
		}
	}

	profile := domain.DietProfile{
		UserID:      userID,
		Genero:      genero,
		Altura:      altura,
		Peso:        peso,
		Objetivo:    f.Objetivo,
		Alergias:    alergias,
		Presupuesto: presupuesto,
	}
	if errs := checkStruct(profile); len(errs) > 0 {
		return domain.DietProfile{}, errs
	}
	return profile, nil
}

// Rutina validates the routine form with the data carried from earlier steps
func Rutina(carry RutinaCarry, f RutinaForm) (domain.RoutinePreferences, error) {
	f.Preferencia = trimmed(f.Preferencia)

	errs := checkStruct(f)
	if carry.UserID.IsZero() {
		errs.add("userId", "Usuario no identificado.")
	}
	if trimmed(carry.Nombre) == "" {
		errs.add("nombre", "El nombre es obligatorio.")
	}
	if trimmed(carry.Objetivo) == "" {
		errs.add("objetivo", "El objetivo es obligatorio.")
	}

	edad := parseInteger(&errs, "edad", f.Edad)
	dias := parseInteger(&errs, "dias", f.Dias)

	var pref domain.Preferencia
	if f.Preferencia != "" && !errs.Has("preferencia") {
		p, ok := domain.ParsePreferencia(f.Preferencia)
		if !ok {
			errs.add("preferencia", fieldMessages["preferencia"])
		}
		pref = p
	}

	if len(errs) > 0 {
		return domain.RoutinePreferences{}, errs
	}

	prefs := domain.RoutinePreferences{
		UserID:       carry.UserID,
		Nombre:       trimmed(carry.Nombre),
		Edad:         edad,
		Objetivo:     trimmed(carry.Objetivo),
		Preferencias: []domain.Preferencia{pref},
		Dias:         dias,
		Lesiones:     trimmed(f.Lesiones),
	}
	if errs := checkStruct(prefs); len(errs) > 0 {
		return domain.RoutinePreferences{}, errs
	}
	return prefs, nil
}
