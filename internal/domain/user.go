package domain

import (
	"strings"
	"time"
)

// UserID is the backend-assigned user identifier, treated as an opaque string
type UserID string

// IsZero reports whether the identifier is unset
func (id UserID) IsZero() bool {
	return strings.TrimSpace(string(id)) == ""
}

func (id UserID) String() string {
	return string(id)
}

// UserIdentity is produced by login or registration
type UserIdentity struct {
	ID              UserID
	Nombre          string
	FechaNacimiento *time.Time

	// Optional profile fields echoed back by login
	Objetivo string
	Genero   string
	Altura   float64
	Peso     float64
}

// Edad returns the age in whole years as of now, if the birth date is known
func (u UserIdentity) Edad(now time.Time) (int, bool) {
	if u.FechaNacimiento == nil {
		return 0, false
	}
	return AgeAt(*u.FechaNacimiento, now), true
}

// AgeAt computes whole years elapsed between birth and now.
// One year is subtracted when now's month/day precedes the birth month/day.
func AgeAt(birth, now time.Time) int {
	age := now.Year() - birth.Year()
	if now.Month() < birth.Month() || (now.Month() == birth.Month() && now.Day() < birth.Day()) {
		age--
	}
	return age
}

// Credentials are the login form fields sent to the backend
type Credentials struct {
	CorreoElectronico string `json:"correoElectronico"`
	Contrasena        string `json:"contraseña"`
}

// Registration is the create-user payload
type Registration struct {
	Nombre            string  `json:"nombre"`
	CorreoElectronico string  `json:"correoElectronico"`
	Contrasena        string  `json:"contraseña"`
	FechaNacimiento   string  `json:"fechaNacimiento"` // ISO date, YYYY-MM-DD
	Ubicacion         *string `json:"ubicacion"`
}
