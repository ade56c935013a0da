package handler

import (
	"testing"

	"myfitguide/internal/domain"
	"myfitguide/internal/wizard"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDraft_Queue(t *testing.T) {
	tests := []struct {
		name     string
		step     wizard.Step
		params   wizard.Params
		expected []string
	}{
		{
			name:     "login",
			step:     wizard.StepLogin,
			expected: []string{"correo", "contrasena"},
		},
		{
			name:     "registro",
			step:     wizard.StepRegistro,
			expected: []string{"nombre", "correo", "contrasena", "fechaNacimiento", "ubicacion", "aceptoTerminos"},
		},
		{
			name:     "rutina asks edad when unknown",
			step:     wizard.StepRutina,
			expected: []string{"edad", "preferencia", "dias", "lesiones"},
		},
		{
			name:     "rutina prefilled edad",
			step:     wizard.StepRutina,
			params:   wizard.Params{Edad: 24},
			expected: []string{"preferencia", "dias", "lesiones"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newDraft(tt.step, tt.params)
			assert.Equal(t, tt.expected, d.queue)
		})
	}

	d := newDraft(wizard.StepRutina, wizard.Params{Edad: 24})
	assert.Equal(t, "24", d.rutinaForm().Edad)
}

func TestDraft_FillDieta(t *testing.T) {
	d := newDraft(wizard.StepDieta, wizard.Params{UserID: "abc"})

	for _, v := range []string{"70", "175", "ganar masa", "masculino", "300"} {
		require.NoError(t, d.fill(v))
	}

	f, ok := d.current()
	require.True(t, ok)
	assert.Equal(t, kindList, f.kind)

	for _, a := range []string{"nuez", "gluten", "lactosa", "soya", "huevo"} {
		require.NoError(t, d.fill(a))
	}
	assert.ErrorIs(t, d.fill("mariscos"), domain.ErrAlergiasLimit)
	assert.Equal(t, domain.MaxAlergias, d.alergias.Len())

	d.alergias.Remove(1)
	d.advance()
	assert.True(t, d.complete())

	form := d.dietaForm()
	assert.Equal(t, "70", form.Peso)
	assert.Equal(t, "masculino", form.Genero)
	assert.Equal(t, []string{"nuez", "lactosa", "soya", "huevo"}, form.Alergias)
}

func TestDraft_RegistroConsentAndSkip(t *testing.T) {
	d := newDraft(wizard.StepRegistro, wizard.Params{})
	for _, v := range []string{"Ana", "ana@mail.com", "secreta123", "15/06/2000"} {
		require.NoError(t, d.fill(v))
	}

	f, _ := d.current()
	assert.Equal(t, kindLocation, f.kind)
	d.skip()

	f, _ = d.current()
	assert.Equal(t, kindConsent, f.kind)
	d.accept()
	assert.True(t, d.complete())

	form := d.registroForm()
	assert.True(t, form.AceptoTerminos)
	assert.Empty(t, form.Ubicacion)
	assert.Contains(t, d.summary(), "Contraseña: ••••••••••")
	assert.NotContains(t, d.summary(), "secreta123")
}

func TestDraft_Requeue(t *testing.T) {
	d := newDraft(wizard.StepRegistro, wizard.Params{})
	for _, v := range []string{"Ana", "ana", "corta", "15/06/2000"} {
		require.NoError(t, d.fill(v))
	}
	require.True(t, d.fillLocation(-33.45, -70.66))
	require.NoError(t, d.fill("sí"))
	require.True(t, d.complete())
	assert.True(t, d.accepted)

	d.requeue([]string{"contrasena", "correo", "aceptoTerminos", "userId"})

	assert.Equal(t, []string{"correo", "contrasena", "aceptoTerminos"}, d.queue)
	assert.False(t, d.accepted)
	assert.Equal(t, "Ana", d.values["nombre"])
}

func TestDraft_LocationField(t *testing.T) {
	d := newDraft(wizard.StepRegistro, wizard.Params{})
	assert.False(t, d.fillLocation(1, 1), "location only fills the location field")

	for _, v := range []string{"Ana", "ana@mail.com", "secreta123", "15/06/2000"} {
		require.NoError(t, d.fill(v))
	}

	assert.ErrorIs(t, d.fill("Santiago centro"), errLocationExpected)
	f, _ := d.current()
	assert.Equal(t, kindLocation, f.kind)
	assert.NotContains(t, d.values, "ubicacion")

	require.True(t, d.fillLocation(-33.45, -70.666666))
	assert.Equal(t, "-33.45000, -70.66667", d.registroForm().Ubicacion)
	f, _ = d.current()
	assert.Equal(t, kindConsent, f.kind)
}

func TestFormatLocation(t *testing.T) {
	assert.Equal(t, "-33.45000, -70.66667", formatLocation(-33.45, -70.666666))
}

func TestPromptFor(t *testing.T) {
	d := newDraft(wizard.StepDieta, wizard.Params{})
	for _, v := range []string{"70", "175", "ganar masa"} {
		require.NoError(t, d.fill(v))
	}

	msgs := promptFor(d)
	require.Len(t, msgs, 1)
	require.NotNil(t, msgs[0].markup)
	require.Len(t, msgs[0].markup.InlineKeyboard, 1)
	assert.Len(t, msgs[0].markup.InlineKeyboard[0], 2)

	require.NoError(t, d.fill("femenino"))
	require.NoError(t, d.fill("200"))
	require.NoError(t, d.fill("nuez"))

	msgs = promptFor(d)
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0].text, "Alergias (1/5): nuez")
	// one remove button plus Listo
	assert.Len(t, msgs[0].markup.InlineKeyboard, 2)

	d.advance()
	msgs = promptFor(d)
	assert.Contains(t, msgs[0].text, "Revisa tus datos")
}
