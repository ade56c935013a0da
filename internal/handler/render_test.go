package handler

import (
	"strings"
	"testing"
	"time"

	"myfitguide/internal/domain"
	"myfitguide/internal/testutil"
	"myfitguide/internal/wizard"

	"github.com/stretchr/testify/assert"
)

var renderNow = time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)

func TestRenderTab_PopulatedProfileHasNoSentinel(t *testing.T) {
	profile := testutil.NewTestProfile("Ana")
	params := wizard.Params{UserID: "abc", TipoRegistro: wizard.TipoLogin}

	for _, tab := range []string{tabInicio, tabDieta, tabRutina, tabPerfil} {
		t.Run(tab, func(t *testing.T) {
			text := renderTab(tab, profile, params, renderNow)
			assert.NotContains(t, text, domain.NotAvailable)
		})
	}

	assert.Contains(t, renderTab(tabInicio, profile, params, renderNow), "¡Hola, Ana!")
	assert.Contains(t, renderTab(tabInicio, profile, params, renderNow), "Altura: 165 cm")
	assert.Contains(t, renderTab(tabPerfil, profile, params, renderNow), "Edad: 24")
	assert.Contains(t, renderTab(tabPerfil, profile, params, renderNow), "Tipo de registro: Inicio de sesión")
}

func TestRenderTab_MissingSections(t *testing.T) {
	tests := []struct {
		name    string
		profile *domain.AggregatedProfile
	}{
		{name: "nil profile", profile: nil},
		{name: "new user without dieta or rutina", profile: &domain.AggregatedProfile{
			Usuario: domain.Section{"nombre": "Luis"},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text := renderTab(tabInicio, tt.profile, wizard.Params{TipoRegistro: wizard.TipoNuevo}, renderNow)
			assert.Contains(t, text, "Altura: N/D")
			assert.NotContains(t, text, "N/D cm")

			perfil := renderTab(tabPerfil, tt.profile, wizard.Params{TipoRegistro: wizard.TipoNuevo}, renderNow)
			assert.Contains(t, perfil, "Tipo de registro: Registro nuevo")
			assert.Contains(t, perfil, "Edad: N/D")
		})
	}
}

func TestRenderGyms(t *testing.T) {
	origin := domain.Location{Lat: -33.45, Lon: -70.67}

	assert.Equal(t, "🏋️ No encontramos gimnasios en un radio de 2000 m.", renderGyms(nil, origin, 2000))

	gyms := []domain.Gym{
		{ID: 1, Lat: -33.45, Lon: -70.67, Name: "Cerca Gym"},
		{ID: 2, Lat: -33.46, Lon: -70.67, Name: "Lejano Fit"},
	}
	text := renderGyms(gyms, origin, 2000)
	assert.Contains(t, text, "1. Cerca Gym (0 m)")
	assert.Contains(t, text, "2. Lejano Fit (1.1 km)")

	many := make([]domain.Gym, maxGymsListed+3)
	for i := range many {
		many[i] = domain.Gym{Name: "Gimnasio", Lat: -33.45, Lon: -70.67}
	}
	text = renderGyms(many, origin, 2000)
	assert.Equal(t, maxGymsListed, strings.Count(text, "Gimnasio ("))
	assert.Contains(t, text, "y 3 más")
}

func TestFormatDistance(t *testing.T) {
	assert.Equal(t, "350 m", formatDistance(349.6))
	assert.Equal(t, "2.5 km", formatDistance(2499))
}
