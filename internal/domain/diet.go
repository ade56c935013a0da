package domain

import (
	"errors"
	"strings"
)

// Genero is the unified gender enum
type Genero string

const (
	GeneroMasculino Genero = "masculino"
	GeneroFemenino  Genero = "femenino"
)

// ParseGenero maps user input, including the legacy Hombre/Mujer values, onto Genero
func ParseGenero(s string) (Genero, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "masculino", "hombre":
		return GeneroMasculino, true
	case "femenino", "mujer":
		return GeneroFemenino, true
	}
	return "", false
}

// MaxAlergias caps the allergy list
const MaxAlergias = 5

var ErrAlergiasLimit = errors.New("máximo 5 alergias permitidas")

// DietProfile is produced by the Dieta step
type DietProfile struct {
	UserID      UserID   `json:"userId" validate:"required"`
	Genero      Genero   `json:"genero" validate:"required,oneof=masculino femenino"`
	Altura      float64  `json:"altura" validate:"gt=0"`
	Peso        float64  `json:"peso" validate:"gt=0"`
	Objetivo    string   `json:"objetivo" validate:"required"`
	Alergias    []string `json:"alergias" validate:"max=5"`
	Presupuesto float64  `json:"presupuesto" validate:"gt=0"`
}

// Alergias is the editable allergy list of a Dieta form
type Alergias struct {
	items []string
}

// Add appends an entry; the sixth add is rejected with ErrAlergiasLimit
func (a *Alergias) Add(s string) error {
	if len(a.items) >= MaxAlergias {
		return ErrAlergiasLimit
	}
	a.items = append(a.items, strings.TrimSpace(s))
	return nil
}

// Remove drops the entry at index i; out of range indexes are ignored
func (a *Alergias) Remove(i int) {
	if i < 0 || i >= len(a.items) {
		return
	}
	a.items = append(a.items[:i], a.items[i+1:]...)
}

func (a *Alergias) Len() int {
	return len(a.items)
}

func (a *Alergias) Full() bool {
	return len(a.items) >= MaxAlergias
}

// Entries returns all entries, including empty ones, in insertion order
func (a *Alergias) Entries() []string {
	out := make([]string, len(a.items))
	copy(out, a.items)
	return out
}

// Values returns the non-empty entries, ready for submission
func (a *Alergias) Values() []string {
	out := make([]string, 0, len(a.items))
	for _, s := range a.items {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
