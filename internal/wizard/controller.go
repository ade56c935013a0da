// Package wizard holds the onboarding step sequence and the parameters threaded between steps.
package wizard

import (
	"errors"
	"fmt"

	"myfitguide/internal/domain"
)

// Step is one wizard state
type Step string

const (
	StepLogin    Step = "login"
	StepRegistro Step = "registro"
	StepDieta    Step = "dieta"
	StepRutina   Step = "rutina"
	StepShell    Step = "shell"
)

// TipoRegistro tags whether the identity came from registration or authentication
type TipoRegistro string

const (
	TipoNuevo TipoRegistro = "nuevo"
	TipoLogin TipoRegistro = "login"
)

var (
	ErrTerminalStep    = errors.New("shell has no forward transitions")
	ErrMissingIdentity = errors.New("step completed without a confirmed user id")
	ErrUnexpectedStep  = errors.New("completion does not match the current step")
	ErrSubmitInFlight  = errors.New("a submission is already in flight for this step")
)

// Params is the accreting parameter bag carried from step to step
type Params struct {
	UserID       domain.UserID
	Nombre       string
	Objetivo     string
	Edad         int
	Genero       domain.Genero
	Altura       float64
	Peso         float64
	TipoRegistro TipoRegistro
}

// Completion is the success payload a step hands to the controller
type Completion struct {
	Step Step

	// Login only: the user chose to create an account instead of authenticating
	NewUser bool

	Identity *domain.UserIdentity
	Edad     int // age derived from the registration birth date, 0 when unknown
	Diet     *domain.DietProfile
	Routine  *domain.RoutinePreferences
}

// Next computes the step that follows current and the parameters it receives.
// It never synthesizes an identifier: advancing into or past Dieta requires
// a non-empty user id.
func Next(current Step, params Params, c Completion) (Step, Params, error) {
	if c.Step != current {
		return current, params, fmt.Errorf("%w: at %s, got %s", ErrUnexpectedStep, current, c.Step)
	}

	switch current {
	case StepLogin:
		if c.NewUser {
			return StepRegistro, Params{TipoRegistro: TipoNuevo}, nil
		}
		if c.Identity == nil || c.Identity.ID.IsZero() {
			return current, params, ErrMissingIdentity
		}
		return StepShell, Params{UserID: c.Identity.ID, TipoRegistro: TipoLogin}, nil

	case StepRegistro:
		if c.Identity == nil || c.Identity.ID.IsZero() {
			return current, params, ErrMissingIdentity
		}
		next := params
		next.UserID = c.Identity.ID
		next.Nombre = c.Identity.Nombre
		next.Edad = c.Edad
		next.TipoRegistro = TipoNuevo
		return StepDieta, next, nil

	case StepDieta:
		if params.UserID.IsZero() {
			return current, params, ErrMissingIdentity
		}
		if c.Diet == nil {
			return current, params, fmt.Errorf("%w: dieta completion without payload", ErrUnexpectedStep)
		}
		next := params
		next.Objetivo = c.Diet.Objetivo
		next.Genero = c.Diet.Genero
		next.Altura = c.Diet.Altura
		next.Peso = c.Diet.Peso
		return StepRutina, next, nil

	case StepRutina:
		if params.UserID.IsZero() {
			return current, params, ErrMissingIdentity
		}
		return StepShell, Params{UserID: params.UserID, TipoRegistro: params.TipoRegistro}, nil

	case StepShell:
		return current, params, ErrTerminalStep
	}

	return current, params, fmt.Errorf("%w: unknown step %q", ErrUnexpectedStep, current)
}
