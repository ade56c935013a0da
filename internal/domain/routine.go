package domain

import "strings"

// Preferencia is the training place preference
type Preferencia string

const (
	PreferenciaGimnasio   Preferencia = "gimnasio"
	PreferenciaCasa       Preferencia = "casa"
	PreferenciaCalistenia Preferencia = "calistenia"
)

// Preferencias lists the accepted values in display order
var Preferencias = []Preferencia{PreferenciaGimnasio, PreferenciaCasa, PreferenciaCalistenia}

func ParsePreferencia(s string) (Preferencia, bool) {
	p := Preferencia(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Preferencias {
		if p == known {
			return p, true
		}
	}
	return "", false
}

// RoutinePreferences is produced by the Rutina step.
// Preferencias always holds exactly one value.
type RoutinePreferences struct {
	UserID       UserID        `json:"userId" validate:"required"`
	Nombre       string        `json:"nombre" validate:"required"`
	Edad         int           `json:"edad" validate:"gt=0"`
	Objetivo     string        `json:"objetivo" validate:"required"`
	Preferencias []Preferencia `json:"preferencias" validate:"len=1,dive,oneof=gimnasio casa calistenia"`
	Dias         int           `json:"dias" validate:"min=1,max=7"`
	Lesiones     string        `json:"lesiones"`
}
