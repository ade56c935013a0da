package wizard

import (
	"testing"
	"time"

	"myfitguide/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNext_TransitionTable(t *testing.T) {
	birth := time.Date(2000, 6, 15, 0, 0, 0, 0, time.UTC)
	diet := &domain.DietProfile{UserID: "abc", Objetivo: "ganar masa", Genero: domain.GeneroFemenino, Altura: 165, Peso: 60}

	tests := []struct {
		name           string
		current        Step
		params         Params
		completion     Completion
		expectedStep   Step
		expectedParams Params
	}{
		{
			name:           "login existing user goes to shell",
			current:        StepLogin,
			completion:     Completion{Step: StepLogin, Identity: &domain.UserIdentity{ID: "abc", Nombre: "Ana"}},
			expectedStep:   StepShell,
			expectedParams: Params{UserID: "abc", TipoRegistro: TipoLogin},
		},
		{
			name:           "login new user goes to registro with empty params",
			current:        StepLogin,
			completion:     Completion{Step: StepLogin, NewUser: true},
			expectedStep:   StepRegistro,
			expectedParams: Params{TipoRegistro: TipoNuevo},
		},
		{
			name:         "registro carries id and nombre",
			current:      StepRegistro,
			params:       Params{TipoRegistro: TipoNuevo},
			completion:   Completion{Step: StepRegistro, Identity: &domain.UserIdentity{ID: "abc", Nombre: "Ana", FechaNacimiento: &birth}, Edad: 24},
			expectedStep: StepDieta,
			expectedParams: Params{
				UserID: "abc", Nombre: "Ana", Edad: 24, TipoRegistro: TipoNuevo,
			},
		},
		{
			name:         "dieta accretes collected fields",
			current:      StepDieta,
			params:       Params{UserID: "abc", Nombre: "Ana", Edad: 24, TipoRegistro: TipoNuevo},
			completion:   Completion{Step: StepDieta, Diet: diet},
			expectedStep: StepRutina,
			expectedParams: Params{
				UserID: "abc", Nombre: "Ana", Edad: 24, Objetivo: "ganar masa",
				Genero: domain.GeneroFemenino, Altura: 165, Peso: 60, TipoRegistro: TipoNuevo,
			},
		},
		{
			name:           "rutina goes to shell with only the id",
			current:        StepRutina,
			params:         Params{UserID: "abc", Nombre: "Ana", Objetivo: "ganar masa", TipoRegistro: TipoNuevo},
			completion:     Completion{Step: StepRutina, Routine: &domain.RoutinePreferences{UserID: "abc"}},
			expectedStep:   StepShell,
			expectedParams: Params{UserID: "abc", TipoRegistro: TipoNuevo},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, params, err := Next(tt.current, tt.params, tt.completion)
			require.NoError(t, err)
			assert.Equal(t, tt.expectedStep, next)
			assert.Equal(t, tt.expectedParams, params)
		})
	}
}

func TestNext_NeverAdvancesWithoutIdentity(t *testing.T) {
	tests := []struct {
		name       string
		current    Step
		params     Params
		completion Completion
	}{
		{
			name:       "login without identity",
			current:    StepLogin,
			completion: Completion{Step: StepLogin},
		},
		{
			name:       "login with empty id",
			current:    StepLogin,
			completion: Completion{Step: StepLogin, Identity: &domain.UserIdentity{ID: ""}},
		},
		{
			name:       "registro with blank id",
			current:    StepRegistro,
			completion: Completion{Step: StepRegistro, Identity: &domain.UserIdentity{ID: "  ", Nombre: "Ana"}},
		},
		{
			name:       "dieta without carried id",
			current:    StepDieta,
			params:     Params{Nombre: "Ana"},
			completion: Completion{Step: StepDieta, Diet: &domain.DietProfile{}},
		},
		{
			name:       "rutina without carried id",
			current:    StepRutina,
			params:     Params{Nombre: "Ana"},
			completion: Completion{Step: StepRutina},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, params, err := Next(tt.current, tt.params, tt.completion)
			assert.ErrorIs(t, err, ErrMissingIdentity)
			assert.Equal(t, tt.current, next)
			assert.Equal(t, tt.params, params)
		})
	}
}

func TestNext_ShellIsTerminal(t *testing.T) {
	_, _, err := Next(StepShell, Params{UserID: "abc"}, Completion{Step: StepShell})
	assert.ErrorIs(t, err, ErrTerminalStep)
}

func TestNext_StepMismatch(t *testing.T) {
	_, _, err := Next(StepDieta, Params{UserID: "abc"}, Completion{Step: StepRutina})
	assert.ErrorIs(t, err, ErrUnexpectedStep)
}
