package handler

import (
	"myfitguide/internal/wizard"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

const loginMenuText = "💪 ¡Bienvenido a MyFitGuide!\n\n¿Ya tienes cuenta?"

// handleStart handles /start command: resume from the local cache or show Login
func (h *Handler) handleStart(c tele.Context) error {
	chatID := c.Chat().ID

	h.logger.Info("User started bot",
		zap.Int64("chat_id", chatID),
		zap.String("username", c.Sender().Username),
	)

	sess := h.sessions.Get(chatID)
	h.ResetState(chatID)

	result := h.onboarding.Resume(chatID, sess)
	if result.To == wizard.StepShell {
		return h.showTab(c, tabInicio, false, false)
	}

	return c.Send(loginMenuText, loginMenuMarkup())
}

// handleLoginChoice starts the login form
func (h *Handler) handleLoginChoice(c tele.Context) error {
	chatID := c.Chat().ID
	sess := h.sessions.Get(chatID)

	if sess.Step() != wizard.StepLogin {
		return c.Respond(&tele.CallbackResponse{Text: "Este formulario ya no está activo."})
	}

	_ = c.Respond()
	return h.startDraft(c, wizard.StepLogin, wizard.Params{}, "🔑 Inicia sesión")
}

// handleRegisterChoice takes the new user branch to Registro
func (h *Handler) handleRegisterChoice(c tele.Context) error {
	chatID := c.Chat().ID
	sess := h.sessions.Get(chatID)

	_ = c.Respond()

	result, err := h.onboarding.ChooseRegister(chatID, sess)
	if err != nil {
		return h.reportError(c, wizard.StepLogin, err)
	}
	return h.enterStep(c, result.To, result.Params)
}
