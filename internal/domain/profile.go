package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// NotAvailable is rendered for any absent profile value
const NotAvailable = "N/D"

// Section is one backend object of the aggregated profile, kept as decoded JSON
type Section map[string]any

// AggregatedProfile is the combined usuario/dieta/rutina view fetched by user id.
// Any section may be nil.
type AggregatedProfile struct {
	Usuario Section `json:"usuario"`
	Dieta   Section `json:"dieta"`
	Rutina  Section `json:"rutina"`
}

// Value renders a field, falling back to NotAvailable for nil sections, missing keys or empty values
func (s Section) Value(key string) string {
	if s == nil {
		return NotAvailable
	}
	v, ok := s[key]
	if !ok {
		return NotAvailable
	}
	return formatValue(v)
}

// Has reports whether the field holds a renderable value
func (s Section) Has(key string) bool {
	return s.Value(key) != NotAvailable
}

func formatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return NotAvailable
	case string:
		if strings.TrimSpace(val) == "" {
			return NotAvailable
		}
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		if val {
			return "sí"
		}
		return "no"
	case []any:
		parts := make([]string, 0, len(val))
		for _, item := range val {
			if s := formatValue(item); s != NotAvailable {
				parts = append(parts, s)
			}
		}
		if len(parts) == 0 {
			return NotAvailable
		}
		return strings.Join(parts, ", ")
	default:
		return fmt.Sprintf("%v", val)
	}
}

// Edad derives the user's age from usuario.fechaNacimiento, falling back to rutina.edad
func (p *AggregatedProfile) Edad(now time.Time) string {
	if p == nil {
		return NotAvailable
	}
	if raw := p.Usuario.Value("fechaNacimiento"); raw != NotAvailable {
		if birth, ok := ParseBirthDate(raw); ok {
			return strconv.Itoa(AgeAt(birth, now))
		}
	}
	return p.Rutina.Value("edad")
}

// ParseBirthDate accepts the date layouts the backend and the forms use
func ParseBirthDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	for _, layout := range []string{"2006-01-02", "02/01/2006", time.RFC3339, time.RFC3339Nano} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
