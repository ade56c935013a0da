package handler

import (
	"fmt"
	"math"
	"strings"
	"time"

	"myfitguide/internal/domain"
	"myfitguide/internal/wizard"
)

const (
	tabInicio    = "inicio"
	tabDieta     = "dieta"
	tabRutina    = "rutina"
	tabPerfil    = "perfil"
	tabGimnasios = "gimnasios"

	maxGymsListed = 10
)

// withUnit appends unit unless the value is the N/D sentinel
func withUnit(v, unit string) string {
	if v == domain.NotAvailable {
		return v
	}
	return v + " " + unit
}

func renderTab(tab string, p *domain.AggregatedProfile, params wizard.Params, now time.Time) string {
	if p == nil {
		p = &domain.AggregatedProfile{}
	}
	switch tab {
	case tabDieta:
		return renderDieta(p)
	case tabRutina:
		return renderRutina(p)
	case tabPerfil:
		return renderPerfil(p, params, now)
	}
	return renderInicio(p)
}

func renderInicio(p *domain.AggregatedProfile) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🏠 ¡Hola, %s!\n\n", p.Usuario.Value("nombre"))
	fmt.Fprintf(&b, "🎂 Edad: %s\n", p.Rutina.Value("edad"))
	fmt.Fprintf(&b, "⚧ Género: %s\n", p.Dieta.Value("genero"))
	fmt.Fprintf(&b, "📏 Altura: %s\n", withUnit(p.Dieta.Value("altura"), "cm"))
	fmt.Fprintf(&b, "⚖️ Peso: %s\n", withUnit(p.Dieta.Value("peso"), "kg"))
	fmt.Fprintf(&b, "🎯 Objetivo: %s\n", p.Dieta.Value("objetivo"))
	return b.String()
}

func renderDieta(p *domain.AggregatedProfile) string {
	var b strings.Builder
	b.WriteString("🥗 Tu dieta\n\n")
	fmt.Fprintf(&b, "Género: %s\n", p.Dieta.Value("genero"))
	fmt.Fprintf(&b, "Altura: %s\n", withUnit(p.Dieta.Value("altura"), "cm"))
	fmt.Fprintf(&b, "Peso: %s\n", withUnit(p.Dieta.Value("peso"), "kg"))
	fmt.Fprintf(&b, "Objetivo: %s\n", p.Dieta.Value("objetivo"))
	fmt.Fprintf(&b, "Alergias: %s\n", p.Dieta.Value("alergias"))
	fmt.Fprintf(&b, "Presupuesto: %s\n", p.Dieta.Value("presupuesto"))
	return b.String()
}

func renderRutina(p *domain.AggregatedProfile) string {
	var b strings.Builder
	b.WriteString("💪 Tu rutina\n\n")
	fmt.Fprintf(&b, "Edad: %s\n", p.Rutina.Value("edad"))
	fmt.Fprintf(&b, "Preferencia: %s\n", p.Rutina.Value("preferencias"))
	fmt.Fprintf(&b, "Días por semana: %s\n", p.Rutina.Value("dias"))
	fmt.Fprintf(&b, "Lesiones: %s\n", p.Rutina.Value("lesiones"))
	fmt.Fprintf(&b, "Objetivo: %s\n", p.Rutina.Value("objetivo"))
	return b.String()
}

func renderPerfil(p *domain.AggregatedProfile, params wizard.Params, now time.Time) string {
	tipo := "Inicio de sesión"
	if params.TipoRegistro == wizard.TipoNuevo {
		tipo = "Registro nuevo"
	}

	var b strings.Builder
	b.WriteString("👤 Perfil\n\n")
	fmt.Fprintf(&b, "Nombre: %s\n", p.Usuario.Value("nombre"))
	fmt.Fprintf(&b, "Correo: %s\n", p.Usuario.Value("correoElectronico"))
	fmt.Fprintf(&b, "Edad: %s\n", p.Edad(now))
	fmt.Fprintf(&b, "Tipo de registro: %s\n", tipo)
	return b.String()
}

func renderGyms(gyms []domain.Gym, origin domain.Location, radiusM int) string {
	if len(gyms) == 0 {
		return fmt.Sprintf("🏋️ No encontramos gimnasios en un radio de %d m.", radiusM)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🏋️ Gimnasios cerca de ti (%d):\n\n", len(gyms))
	for i, g := range gyms {
		if i == maxGymsListed {
			fmt.Fprintf(&b, "… y %d más", len(gyms)-maxGymsListed)
			break
		}
		fmt.Fprintf(&b, "%d. %s (%s)\n", i+1, g.Name, formatDistance(origin.DistanceTo(g.Lat, g.Lon)))
	}
	return b.String()
}

func formatDistance(m float64) string {
	if m < 1000 {
		return fmt.Sprintf("%d m", int(math.Round(m)))
	}
	return fmt.Sprintf("%.1f km", m/1000)
}
