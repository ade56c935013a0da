package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"myfitguide/internal/domain"
	"myfitguide/internal/gateway"
	"myfitguide/internal/metrics"
	"myfitguide/internal/testutil"
	"myfitguide/internal/validation"
	"myfitguide/internal/wizard"

	prom "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const chatID int64 = 42

func fixedNow() time.Time {
	return time.Date(2024, 6, 14, 12, 0, 0, 0, time.UTC)
}

func newOnboarding(gw Gateway, repo *testutil.MockProfileCacheRepository) (*OnboardingService, *metrics.Manager) {
	m := metrics.NewTestManager()
	identity := NewIdentityService(repo, testutil.NewTestLogger())
	s := NewOnboardingService(gw, identity, time.Second, m, testutil.NewTestLogger())
	s.now = fixedNow
	return s, m
}

func validDietaForm() validation.DietaForm {
	return validation.DietaForm{
		Peso:        "60",
		Altura:      "165",
		Objetivo:    "tonificar",
		Genero:      "femenino",
		Presupuesto: "200",
		Alergias:    []string{"nuez"},
	}
}

func validRutinaForm() validation.RutinaForm {
	return validation.RutinaForm{Edad: "23", Preferencia: "casa", Dias: "3"}
}

func TestOnboardingService_ValidationFailureMakesNoCall(t *testing.T) {
	tests := []struct {
		name   string
		step   wizard.Step
		submit func(s *OnboardingService, sess *wizard.Session) error
	}{
		{
			name: "login without password",
			step: wizard.StepLogin,
			submit: func(s *OnboardingService, sess *wizard.Session) error {
				_, err := s.SubmitLogin(context.Background(), chatID, sess, validation.LoginForm{Correo: "ana@mail.com"})
				return err
			},
		},
		{
			name: "registro without terms",
			step: wizard.StepRegistro,
			submit: func(s *OnboardingService, sess *wizard.Session) error {
				_, err := s.SubmitRegistro(context.Background(), chatID, sess, validation.RegistroForm{
					Nombre: "Ana", Correo: "ana@mail.com", Contrasena: "secreta123", FechaNacimiento: "15/06/2000",
				})
				return err
			},
		},
		{
			name: "dieta with non numeric peso",
			step: wizard.StepDieta,
			submit: func(s *OnboardingService, sess *wizard.Session) error {
				form := validDietaForm()
				form.Peso = "abc"
				_, err := s.SubmitDieta(context.Background(), chatID, sess, form)
				return err
			},
		},
		{
			name: "dieta with empty presupuesto",
			step: wizard.StepDieta,
			submit: func(s *OnboardingService, sess *wizard.Session) error {
				form := validDietaForm()
				form.Presupuesto = ""
				_, err := s.SubmitDieta(context.Background(), chatID, sess, form)
				return err
			},
		},
		{
			name: "rutina with dias out of range",
			step: wizard.StepRutina,
			submit: func(s *OnboardingService, sess *wizard.Session) error {
				form := validRutinaForm()
				form.Dias = "8"
				_, err := s.SubmitRutina(context.Background(), chatID, sess, form)
				return err
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockGw := new(testutil.MockGateway)
			mockRepo := new(testutil.MockProfileCacheRepository)
			service, m := newOnboarding(mockGw, mockRepo)

			sess := wizard.NewSession()
			sess.Restore(tt.step, wizard.Params{UserID: "abc", Nombre: "Ana", Objetivo: "tonificar"})

			err := tt.submit(service, sess)

			_, ok := validation.AsErrors(err)
			assert.True(t, ok, "expected validation errors, got %v", err)
			assert.Equal(t, tt.step, sess.Step())
			assert.False(t, sess.Submitting())
			assert.Empty(t, mockGw.Calls)
			assert.Empty(t, mockRepo.Calls)
			assert.Equal(t, 1.0, prom.ToFloat64(m.CounterValidationFailures.WithLabelValues(string(tt.step))))
		})
	}
}

func TestOnboardingService_LoginExistingUser(t *testing.T) {
	mockGw := new(testutil.MockGateway)
	mockRepo := new(testutil.MockProfileCacheRepository)
	service, m := newOnboarding(mockGw, mockRepo)

	auth := testutil.NewTestAuthResult("abc", "Ana")
	creds := domain.Credentials{CorreoElectronico: "ana@mail.com", Contrasena: "secreta123"}
	mockGw.On("Login", mock.Anything, creds).Return(auth, nil)
	mockRepo.On("Store", chatID, []byte(auth.Raw)).Return(nil)

	sess := wizard.NewSession()
	result, err := service.SubmitLogin(context.Background(), chatID, sess, validation.LoginForm{
		Correo: "ana@mail.com", Contrasena: "secreta123",
	})

	require.NoError(t, err)
	assert.True(t, result.Applied)
	assert.Equal(t, wizard.StepShell, result.To)
	assert.Equal(t, wizard.Params{UserID: "abc", TipoRegistro: wizard.TipoLogin}, result.Params)
	assert.Equal(t, wizard.StepShell, sess.Step())
	assert.Equal(t, 1.0, prom.ToFloat64(m.CounterWizardTransitions.WithLabelValues("login", "shell")))
	mockGw.AssertExpectations(t)
	mockRepo.AssertExpectations(t)
}

func TestOnboardingService_CacheWriteFailureStillAdvances(t *testing.T) {
	mockGw := new(testutil.MockGateway)
	mockRepo := new(testutil.MockProfileCacheRepository)
	service, _ := newOnboarding(mockGw, mockRepo)

	mockGw.On("Login", mock.Anything, mock.Anything).Return(testutil.NewTestAuthResult("abc", "Ana"), nil)
	mockRepo.On("Store", chatID, mock.Anything).Return(errors.New("disk full"))

	sess := wizard.NewSession()
	result, err := service.SubmitLogin(context.Background(), chatID, sess, validation.LoginForm{
		Correo: "ana@mail.com", Contrasena: "secreta123",
	})

	require.NoError(t, err)
	assert.Equal(t, wizard.StepShell, result.To)
}

func TestOnboardingService_GatewayFailureKeepsStep(t *testing.T) {
	mockGw := new(testutil.MockGateway)
	mockRepo := new(testutil.MockProfileCacheRepository)
	service, _ := newOnboarding(mockGw, mockRepo)

	apiErr := &gateway.APIError{Op: "submit_diet", StatusCode: 500}
	mockGw.On("SubmitDiet", mock.Anything, mock.Anything).Return(apiErr).Once()
	mockGw.On("SubmitDiet", mock.Anything, mock.Anything).Return(nil).Once()

	sess := wizard.NewSession()
	sess.Restore(wizard.StepDieta, wizard.Params{UserID: "abc", Nombre: "Ana", TipoRegistro: wizard.TipoNuevo})

	_, err := service.SubmitDieta(context.Background(), chatID, sess, validDietaForm())
	assert.ErrorIs(t, err, apiErr)
	assert.Equal(t, wizard.StepDieta, sess.Step())
	assert.False(t, sess.Submitting())

	// manual retry
	result, err := service.SubmitDieta(context.Background(), chatID, sess, validDietaForm())
	require.NoError(t, err)
	assert.Equal(t, wizard.StepRutina, result.To)
	mockGw.AssertNumberOfCalls(t, "SubmitDiet", 2)
}

func TestOnboardingService_DoubleSubmitMakesOneCall(t *testing.T) {
	mockGw := new(testutil.MockGateway)
	mockRepo := new(testutil.MockProfileCacheRepository)
	service, _ := newOnboarding(mockGw, mockRepo)

	started := make(chan struct{})
	release := make(chan struct{})
	mockGw.On("SubmitDiet", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			close(started)
			<-release
		}).
		Return(nil).Once()

	sess := wizard.NewSession()
	sess.Restore(wizard.StepDieta, wizard.Params{UserID: "abc", Nombre: "Ana"})

	var wg sync.WaitGroup
	var first *Result
	var firstErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		first, firstErr = service.SubmitDieta(context.Background(), chatID, sess, validDietaForm())
	}()

	<-started
	_, err := service.SubmitDieta(context.Background(), chatID, sess, validDietaForm())
	assert.ErrorIs(t, err, wizard.ErrSubmitInFlight)

	close(release)
	wg.Wait()

	require.NoError(t, firstErr)
	assert.Equal(t, wizard.StepRutina, first.To)
	mockGw.AssertNumberOfCalls(t, "SubmitDiet", 1)
}

func TestOnboardingService_StaleResponseIgnored(t *testing.T) {
	mockGw := new(testutil.MockGateway)
	mockRepo := new(testutil.MockProfileCacheRepository)
	service, _ := newOnboarding(mockGw, mockRepo)

	sess := wizard.NewSession()
	mockGw.On("Login", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			// the user restarts the bot while the request is pending
			sess.Reset()
		}).
		Return(testutil.NewTestAuthResult("abc", "Ana"), nil)

	result, err := service.SubmitLogin(context.Background(), chatID, sess, validation.LoginForm{
		Correo: "ana@mail.com", Contrasena: "secreta123",
	})

	require.NoError(t, err)
	assert.False(t, result.Applied)
	assert.Equal(t, wizard.StepLogin, sess.Step())
	assert.False(t, sess.Submitting())
	mockRepo.AssertNotCalled(t, "Store", mock.Anything, mock.Anything)
}

func TestOnboardingService_WrongStep(t *testing.T) {
	mockGw := new(testutil.MockGateway)
	mockRepo := new(testutil.MockProfileCacheRepository)
	service, _ := newOnboarding(mockGw, mockRepo)

	sess := wizard.NewSession()
	_, err := service.SubmitRutina(context.Background(), chatID, sess, validRutinaForm())

	assert.ErrorIs(t, err, wizard.ErrUnexpectedStep)
	assert.Empty(t, mockGw.Calls)
}

func TestOnboardingService_NewUserFlow(t *testing.T) {
	mockGw := new(testutil.MockGateway)
	mockRepo := new(testutil.MockProfileCacheRepository)
	service, _ := newOnboarding(mockGw, mockRepo)

	auth := testutil.NewTestAuthResult("xyz", "Ana")
	birth := time.Date(2000, 6, 15, 0, 0, 0, 0, time.UTC)
	auth.Identity.FechaNacimiento = &birth

	mockGw.On("Register", mock.Anything, mock.MatchedBy(func(reg domain.Registration) bool {
		return reg.FechaNacimiento == "2000-06-15" && reg.Ubicacion == nil
	})).Return(auth, nil)
	mockRepo.On("Store", chatID, []byte(auth.Raw)).Return(nil)
	mockGw.On("SubmitDiet", mock.Anything, mock.MatchedBy(func(p domain.DietProfile) bool {
		return p.UserID == "xyz" && p.Genero == domain.GeneroFemenino
	})).Return(nil)
	mockGw.On("SubmitRoutine", mock.Anything, mock.MatchedBy(func(p domain.RoutinePreferences) bool {
		return p.UserID == "xyz" && p.Nombre == "Ana" && p.Objetivo == "tonificar" && p.Dias == 3
	})).Return(nil)

	sess := wizard.NewSession()

	result, err := service.ChooseRegister(chatID, sess)
	require.NoError(t, err)
	assert.Equal(t, wizard.StepRegistro, result.To)
	assert.Equal(t, wizard.Params{TipoRegistro: wizard.TipoNuevo}, result.Params)

	result, err = service.SubmitRegistro(context.Background(), chatID, sess, validation.RegistroForm{
		Nombre: "Ana", Correo: "ana@mail.com", Contrasena: "secreta123",
		FechaNacimiento: "15/06/2000", AceptoTerminos: true,
	})
	require.NoError(t, err)
	assert.Equal(t, wizard.StepDieta, result.To)
	assert.Equal(t, domain.UserID("xyz"), result.Params.UserID)
	assert.Equal(t, "Ana", result.Params.Nombre)
	assert.Equal(t, 23, result.Params.Edad)

	result, err = service.SubmitDieta(context.Background(), chatID, sess, validDietaForm())
	require.NoError(t, err)
	assert.Equal(t, wizard.StepRutina, result.To)
	assert.Equal(t, "tonificar", result.Params.Objetivo)
	assert.Equal(t, domain.GeneroFemenino, result.Params.Genero)
	assert.Equal(t, domain.UserID("xyz"), result.Params.UserID)

	result, err = service.SubmitRutina(context.Background(), chatID, sess, validRutinaForm())
	require.NoError(t, err)
	assert.Equal(t, wizard.StepShell, result.To)
	assert.Equal(t, wizard.Params{UserID: "xyz", TipoRegistro: wizard.TipoNuevo}, result.Params)

	mockGw.AssertExpectations(t)
	mockRepo.AssertExpectations(t)
}

func TestOnboardingService_ResumeAndLogout(t *testing.T) {
	t.Run("cached identity resumes into the shell", func(t *testing.T) {
		mockRepo := new(testutil.MockProfileCacheRepository)
		mockRepo.On("Load", chatID).Return([]byte(`{"_id": "abc"}`), nil)
		service, _ := newOnboarding(new(testutil.MockGateway), mockRepo)

		sess := wizard.NewSession()
		result := service.Resume(chatID, sess)

		assert.Equal(t, wizard.StepShell, result.To)
		step, params := sess.Snapshot()
		assert.Equal(t, wizard.StepShell, step)
		assert.Equal(t, domain.UserID("abc"), params.UserID)
	})

	t.Run("malformed cache starts at login", func(t *testing.T) {
		mockRepo := new(testutil.MockProfileCacheRepository)
		mockRepo.On("Load", chatID).Return([]byte(`not json`), nil)
		service, _ := newOnboarding(new(testutil.MockGateway), mockRepo)

		sess := wizard.NewSession()
		sess.Restore(wizard.StepDieta, wizard.Params{UserID: "old"})
		result := service.Resume(chatID, sess)

		assert.Equal(t, wizard.StepLogin, result.To)
		assert.Equal(t, wizard.StepLogin, sess.Step())
	})

	t.Run("logout clears the cache", func(t *testing.T) {
		mockRepo := new(testutil.MockProfileCacheRepository)
		mockRepo.On("Clear", chatID).Return(nil)
		service, _ := newOnboarding(new(testutil.MockGateway), mockRepo)

		sess := wizard.NewSession()
		sess.Restore(wizard.StepShell, wizard.Params{UserID: "abc"})

		require.NoError(t, service.Logout(chatID, sess))
		assert.Equal(t, wizard.StepLogin, sess.Step())
		mockRepo.AssertExpectations(t)
	})
}

func TestOnboardingService_ResumeKeepsPendingLogin(t *testing.T) {
	mockGw := new(testutil.MockGateway)
	mockRepo := new(testutil.MockProfileCacheRepository)
	service, _ := newOnboarding(mockGw, mockRepo)

	sess := wizard.NewSession()
	mockRepo.On("Load", chatID).Return(nil, nil)
	mockRepo.On("Store", chatID, mock.Anything).Return(nil)
	mockGw.On("Login", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			// a shell button from an earlier session arrives while the login is pending
			result := service.Resume(chatID, sess)
			assert.Equal(t, wizard.StepLogin, result.To)
			assert.True(t, sess.Submitting())

			_, err := sess.BeginSubmit(wizard.StepLogin)
			assert.ErrorIs(t, err, wizard.ErrSubmitInFlight)
		}).
		Return(testutil.NewTestAuthResult("abc", "Ana"), nil).Once()

	result, err := service.SubmitLogin(context.Background(), chatID, sess, validation.LoginForm{
		Correo: "ana@mail.com", Contrasena: "secreta123",
	})

	require.NoError(t, err)
	assert.True(t, result.Applied)
	assert.Equal(t, wizard.StepShell, sess.Step())
	mockGw.AssertNumberOfCalls(t, "Login", 1)
}
