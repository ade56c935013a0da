package testutil

import (
	"encoding/json"

	"myfitguide/internal/domain"
	"myfitguide/internal/gateway"

	"go.uber.org/zap"
)

// NewTestLogger creates a no-op logger for tests
func NewTestLogger() *zap.Logger {
	return zap.NewNop()
}

// NewTestAuthResult creates a login/registration result for id with the raw body echoing it
func NewTestAuthResult(id domain.UserID, nombre string) *gateway.AuthResult {
	raw, _ := json.Marshal(map[string]string{"_id": id.String(), "nombre": nombre})
	return &gateway.AuthResult{
		Identity: domain.UserIdentity{ID: id, Nombre: nombre},
		Raw:      raw,
	}
}

// NewTestProfile creates a fully populated aggregated profile
func NewTestProfile(nombre string) *domain.AggregatedProfile {
	return &domain.AggregatedProfile{
		Usuario: domain.Section{
			"nombre":            nombre,
			"correoElectronico": "ana@mail.com",
			"fechaNacimiento":   "2000-06-15",
		},
		Dieta: domain.Section{
			"genero":      "femenino",
			"altura":      165.0,
			"peso":        60.0,
			"objetivo":    "tonificar",
			"alergias":    []any{"nuez"},
			"presupuesto": 200.0,
		},
		Rutina: domain.Section{
			"edad":         24.0,
			"preferencias": []any{"casa"},
			"dias":         3.0,
			"lesiones":     "rodilla",
			"objetivo":     "tonificar",
		},
	}
}
