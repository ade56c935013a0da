package middleware

import (
	"myfitguide/internal/service"
	"myfitguide/internal/wizard"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

const notIdentifiedText = "🔒 Usuario no identificado. Usa /start para iniciar sesión."

// ShellGuard lets Shell actions through only for sessions in the Shell.
// A fresh session (Login) is first resumed from the local profile cache;
// a session in the middle of the wizard, or with a login pending, is refused as is.
func ShellGuard(sessions *wizard.Store, onboarding *service.OnboardingService, logger *zap.Logger) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			chatID := c.Chat().ID
			sess := sessions.Get(chatID)

			step := sess.Step()
			if step == wizard.StepLogin && !sess.Submitting() {
				step = onboarding.Resume(chatID, sess).To
			}

			if step != wizard.StepShell {
				logger.Info("Shell action refused",
					zap.Int64("chat_id", chatID),
					zap.String("step", string(step)),
				)
				if c.Callback() != nil {
					return c.Respond(&tele.CallbackResponse{Text: notIdentifiedText})
				}
				return c.Send(notIdentifiedText)
			}

			return next(c)
		}
	}
}
