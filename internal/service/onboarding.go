package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"myfitguide/internal/metrics"
	"myfitguide/internal/validation"
	"myfitguide/internal/wizard"

	"go.uber.org/zap"
)

// Result describes what a step submission did to the session
type Result struct {
	From   wizard.Step
	To     wizard.Step
	Params wizard.Params
	// Applied is false when the response arrived after the session left the step
	Applied bool
}

// OnboardingService runs the wizard steps: validate, submit once, transition
type OnboardingService struct {
	gw       Gateway
	identity *IdentityService
	timeout  time.Duration
	metrics  *metrics.Manager
	logger   *zap.Logger
	now      func() time.Time
}

// NewOnboardingService creates a new onboarding service.
// timeout bounds every backend request; zero disables it.
func NewOnboardingService(
	gw Gateway,
	identity *IdentityService,
	timeout time.Duration,
	metricsManager *metrics.Manager,
	logger *zap.Logger,
) *OnboardingService {
	return &OnboardingService{
		gw:       gw,
		identity: identity,
		timeout:  timeout,
		metrics:  metricsManager,
		logger:   logger,
		now:      time.Now,
	}
}

// Resume restores the session from the local cache: Shell when an identity is
// cached, Login otherwise. A session already at Login is left untouched when
// nothing is cached.
func (s *OnboardingService) Resume(chatID int64, sess *wizard.Session) *Result {
	from := sess.Step()

	id, err := s.identity.Resolve(chatID, "")
	if err != nil {
		// a session already at Login keeps its pending submission
		if from != wizard.StepLogin {
			sess.Reset()
		}
		return &Result{From: from, To: wizard.StepLogin, Applied: true}
	}

	params := wizard.Params{UserID: id, TipoRegistro: wizard.TipoLogin}
	sess.Restore(wizard.StepShell, params)
	s.logger.Info("Session restored from cache",
		zap.Int64("chat_id", chatID),
		zap.String("user_id", id.String()),
	)
	return &Result{From: from, To: wizard.StepShell, Params: params, Applied: true}
}

// Logout clears the local cache and returns the session to Login
func (s *OnboardingService) Logout(chatID int64, sess *wizard.Session) error {
	sess.Reset()
	if err := s.identity.Forget(chatID); err != nil {
		s.logger.Error("Failed to log out", zap.Int64("chat_id", chatID), zap.Error(err))
		return err
	}
	s.logger.Info("Session closed", zap.Int64("chat_id", chatID))
	return nil
}

// ChooseRegister takes the new-user branch out of Login
func (s *OnboardingService) ChooseRegister(chatID int64, sess *wizard.Session) (*Result, error) {
	token, err := sess.BeginSubmit(wizard.StepLogin)
	if err != nil {
		return nil, err
	}
	defer sess.EndSubmit(token)

	return s.complete(chatID, sess, token, wizard.Completion{Step: wizard.StepLogin, NewUser: true})
}

// SubmitLogin authenticates an existing user and enters the Shell
func (s *OnboardingService) SubmitLogin(ctx context.Context, chatID int64, sess *wizard.Session, form validation.LoginForm) (*Result, error) {
	if err := s.expectStep(sess, wizard.StepLogin); err != nil {
		return nil, err
	}

	creds, err := validation.Login(form)
	if err != nil {
		return nil, s.rejected(wizard.StepLogin, err)
	}

	token, err := sess.BeginSubmit(wizard.StepLogin)
	if err != nil {
		return nil, err
	}
	defer sess.EndSubmit(token)

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	auth, err := s.gw.Login(ctx, creds)
	if err != nil {
		return nil, err
	}
	if !sess.Active(token) {
		return s.stale(chatID, sess, wizard.StepLogin), nil
	}

	s.remember(chatID, auth.Raw)
	return s.complete(chatID, sess, token, wizard.Completion{
		Step:     wizard.StepLogin,
		Identity: &auth.Identity,
	})
}

// SubmitRegistro creates the account and moves on to Dieta
func (s *OnboardingService) SubmitRegistro(ctx context.Context, chatID int64, sess *wizard.Session, form validation.RegistroForm) (*Result, error) {
	if err := s.expectStep(sess, wizard.StepRegistro); err != nil {
		return nil, err
	}

	now := s.now()
	reg, err := validation.Registro(form, now)
	if err != nil {
		return nil, s.rejected(wizard.StepRegistro, err)
	}

	token, err := sess.BeginSubmit(wizard.StepRegistro)
	if err != nil {
		return nil, err
	}
	defer sess.EndSubmit(token)

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	auth, err := s.gw.Register(ctx, reg)
	if err != nil {
		return nil, err
	}
	if !sess.Active(token) {
		return s.stale(chatID, sess, wizard.StepRegistro), nil
	}

	s.remember(chatID, auth.Raw)

	edad, _ := auth.Identity.Edad(now)
	return s.complete(chatID, sess, token, wizard.Completion{
		Step:     wizard.StepRegistro,
		Identity: &auth.Identity,
		Edad:     edad,
	})
}

// SubmitDieta sends the diet profile and moves on to Rutina
func (s *OnboardingService) SubmitDieta(ctx context.Context, chatID int64, sess *wizard.Session, form validation.DietaForm) (*Result, error) {
	step, params := sess.Snapshot()
	if step != wizard.StepDieta {
		return nil, fmt.Errorf("%w: at %s, submit for %s", wizard.ErrUnexpectedStep, step, wizard.StepDieta)
	}
	if params.UserID.IsZero() {
		return nil, wizard.ErrMissingIdentity
	}

	profile, err := validation.Dieta(params.UserID, form)
	if err != nil {
		return nil, s.rejected(wizard.StepDieta, err)
	}

	token, err := sess.BeginSubmit(wizard.StepDieta)
	if err != nil {
		return nil, err
	}
	defer sess.EndSubmit(token)

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if err := s.gw.SubmitDiet(ctx, profile); err != nil {
		return nil, err
	}
	if !sess.Active(token) {
		return s.stale(chatID, sess, wizard.StepDieta), nil
	}

	return s.complete(chatID, sess, token, wizard.Completion{Step: wizard.StepDieta, Diet: &profile})
}

// SubmitRutina sends the routine preferences and enters the Shell
func (s *OnboardingService) SubmitRutina(ctx context.Context, chatID int64, sess *wizard.Session, form validation.RutinaForm) (*Result, error) {
	step, params := sess.Snapshot()
	if step != wizard.StepRutina {
		return nil, fmt.Errorf("%w: at %s, submit for %s", wizard.ErrUnexpectedStep, step, wizard.StepRutina)
	}
	if params.UserID.IsZero() {
		return nil, wizard.ErrMissingIdentity
	}

	prefs, err := validation.Rutina(validation.RutinaCarry{
		UserID:   params.UserID,
		Nombre:   params.Nombre,
		Objetivo: params.Objetivo,
	}, form)
	if err != nil {
		return nil, s.rejected(wizard.StepRutina, err)
	}

	token, err := sess.BeginSubmit(wizard.StepRutina)
	if err != nil {
		return nil, err
	}
	defer sess.EndSubmit(token)

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if err := s.gw.SubmitRoutine(ctx, prefs); err != nil {
		return nil, err
	}
	if !sess.Active(token) {
		return s.stale(chatID, sess, wizard.StepRutina), nil
	}

	return s.complete(chatID, sess, token, wizard.Completion{Step: wizard.StepRutina, Routine: &prefs})
}

func (s *OnboardingService) expectStep(sess *wizard.Session, step wizard.Step) error {
	if current := sess.Step(); current != step {
		return fmt.Errorf("%w: at %s, submit for %s", wizard.ErrUnexpectedStep, current, step)
	}
	return nil
}

func (s *OnboardingService) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

func (s *OnboardingService) rejected(step wizard.Step, err error) error {
	var errs validation.Errors
	if errors.As(err, &errs) && s.metrics != nil {
		s.metrics.CounterValidationFailures.WithLabelValues(string(step)).Inc()
	}
	s.logger.Debug("Form rejected", zap.String("step", string(step)), zap.Error(err))
	return err
}

// remember writes the cache; a failure is logged and the wizard still advances
// because the id travels in the params
func (s *OnboardingService) remember(chatID int64, raw []byte) {
	if len(raw) == 0 {
		return
	}
	if err := s.identity.Remember(chatID, raw); err != nil {
		s.logger.Warn("Failed to store profile cache", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func (s *OnboardingService) stale(chatID int64, sess *wizard.Session, step wizard.Step) *Result {
	current, params := sess.Snapshot()
	s.logger.Info("Discarding response for inactive step",
		zap.Int64("chat_id", chatID),
		zap.String("step", string(step)),
		zap.String("current", string(current)),
	)
	return &Result{From: step, To: current, Params: params, Applied: false}
}

func (s *OnboardingService) complete(chatID int64, sess *wizard.Session, token wizard.Token, c wizard.Completion) (*Result, error) {
	next, params, applied, err := sess.Complete(token, c)
	if err != nil {
		s.logger.Error("Transition rejected",
			zap.Int64("chat_id", chatID),
			zap.String("step", string(token.Step())),
			zap.Error(err),
		)
		return nil, err
	}
	if !applied {
		return s.stale(chatID, sess, token.Step()), nil
	}

	if s.metrics != nil {
		s.metrics.CounterWizardTransitions.WithLabelValues(string(token.Step()), string(next)).Inc()
	}
	s.logger.Info("Wizard transition",
		zap.Int64("chat_id", chatID),
		zap.String("from", string(token.Step())),
		zap.String("to", string(next)),
		zap.String("user_id", params.UserID.String()),
	)
	return &Result{From: token.Step(), To: next, Params: params, Applied: true}, nil
}
