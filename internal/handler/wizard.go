package handler

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"myfitguide/internal/domain"
	"myfitguide/internal/gateway"
	"myfitguide/internal/service"
	"myfitguide/internal/validation"
	"myfitguide/internal/wizard"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

// outgoing is one message to send
type outgoing struct {
	text   string
	markup *tele.ReplyMarkup
}

func (h *Handler) sendAll(c tele.Context, msgs []outgoing) error {
	for _, m := range msgs {
		var err error
		if m.markup != nil {
			err = c.Send(m.text, m.markup)
		} else {
			err = c.Send(m.text)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// promptFor renders the question for the current field, or the summary when the form is complete
func promptFor(d *draft) []outgoing {
	f, ok := d.current()
	if !ok {
		return []outgoing{{text: d.summary(), markup: submitMarkup()}}
	}

	menu := &tele.ReplyMarkup{}
	switch f.kind {
	case kindChoice:
		row := tele.Row{}
		for _, ch := range f.choices {
			row = append(row, menu.Data(ch.label, btnChoice.Unique, ch.value))
		}
		menu.Inline(row)
		return []outgoing{{text: f.prompt, markup: menu}}

	case kindList:
		rows := []tele.Row{}
		for i, entry := range d.alergias.Entries() {
			rows = append(rows, menu.Row(menu.Data("❌ "+entry, btnAlergiaDel.Unique, strconv.Itoa(i))))
		}
		rows = append(rows, menu.Row(btnListDone))
		menu.Inline(rows...)

		text := f.prompt
		if d.alergias.Len() > 0 {
			text = fmt.Sprintf("%s\n\nAlergias (%d/%d): %s", f.prompt, d.alergias.Len(), domain.MaxAlergias,
				strings.Join(d.alergias.Entries(), ", "))
		}
		return []outgoing{{text: text, markup: menu}}

	case kindLocation:
		menu.Inline(menu.Row(btnSkip))
		return []outgoing{
			{text: f.prompt, markup: locationRequestMarkup()},
			{text: "Si prefieres no compartirla:", markup: menu},
		}

	case kindConsent:
		menu.Inline(menu.Row(btnAccept))
		return []outgoing{{text: f.prompt, markup: menu}}

	case kindOptional:
		menu.Inline(menu.Row(btnSkip))
		return []outgoing{{text: f.prompt, markup: menu}}
	}

	return []outgoing{{text: f.prompt}}
}

// stepHeader introduces a step form
func stepHeader(step wizard.Step, params wizard.Params) string {
	switch step {
	case wizard.StepLogin:
		return "🔑 Inicia sesión"
	case wizard.StepRegistro:
		return "✨ Crea tu cuenta"
	case wizard.StepDieta:
		return fmt.Sprintf("🥗 ¡Hola, %s! Cuéntanos sobre tu alimentación.", params.Nombre)
	case wizard.StepRutina:
		return "💪 Ahora armemos tu rutina."
	}
	return ""
}

// startDraft begins a fresh form for step
func (h *Handler) startDraft(c tele.Context, step wizard.Step, params wizard.Params, header string) error {
	st := h.state(c.Chat().ID)

	st.mu.Lock()
	st.draft = newDraft(step, params)
	msgs := promptFor(st.draft)
	st.mu.Unlock()

	if header != "" {
		msgs = append([]outgoing{{text: header, markup: removeKeyboard()}}, msgs...)
	}
	return h.sendAll(c, msgs)
}

// enterStep shows the screen of the step the session just moved to
func (h *Handler) enterStep(c tele.Context, step wizard.Step, params wizard.Params) error {
	switch step {
	case wizard.StepShell:
		h.ResetState(c.Chat().ID)
		return h.showTab(c, tabInicio, true, false)
	case wizard.StepLogin:
		h.ResetState(c.Chat().ID)
		return c.Send(loginMenuText, loginMenuMarkup())
	}
	return h.startDraft(c, step, params, stepHeader(step, params))
}

// activeDraft returns the chat's draft if it belongs to the session's current step.
// The caller must hold st.mu.
func (h *Handler) activeDraft(st *chatState, sess *wizard.Session) *draft {
	if st.draft == nil || st.draft.step != sess.Step() {
		return nil
	}
	return st.draft
}

// handleText fills the field being asked
func (h *Handler) handleText(c tele.Context) error {
	chatID := c.Chat().ID
	text := c.Text()

	if strings.HasPrefix(text, "/") {
		return c.Send("No conozco ese comando. Usa /start para comenzar.")
	}

	sess := h.sessions.Get(chatID)
	st := h.state(chatID)

	st.mu.Lock()
	d := h.activeDraft(st, sess)
	if d == nil {
		st.mu.Unlock()
		return h.handleIdleText(c, sess)
	}

	f, ok := d.current()
	if !ok {
		st.mu.Unlock()
		return c.Send("Tu formulario está completo. Pulsa Enviar o Corregir.", submitMarkup())
	}

	if f.kind == kindSecret {
		if err := c.Delete(); err != nil {
			h.logger.Debug("Failed to delete secret message", zap.Int64("chat_id", chatID), zap.Error(err))
		}
	}

	var notice string
	switch err := d.fill(text); {
	case errors.Is(err, domain.ErrAlergiasLimit):
		notice = "⚠️ Máximo 5 alergias permitidas."
	case errors.Is(err, errLocationExpected):
		notice = "📍 Usa el botón para compartir tu ubicación o pulsa Omitir."
	}
	msgs := promptFor(d)
	st.mu.Unlock()

	if notice != "" {
		msgs = append([]outgoing{{text: notice}}, msgs...)
	}
	return h.sendAll(c, msgs)
}

func (h *Handler) handleIdleText(c tele.Context, sess *wizard.Session) error {
	switch sess.Step() {
	case wizard.StepShell:
		return c.Send("Usa el menú para navegar.", shellMenuMarkup(tabInicio))
	case wizard.StepLogin:
		return c.Send(loginMenuText, loginMenuMarkup())
	}
	menu := &tele.ReplyMarkup{}
	menu.Inline(menu.Row(btnEdit))
	return c.Send("Pulsa ✏️ Corregir para continuar con el formulario.", menu)
}

// handleLocation fills the Registro location or searches nearby gyms from the Shell
func (h *Handler) handleLocation(c tele.Context) error {
	chatID := c.Chat().ID
	loc := c.Message().Location
	if loc == nil {
		return nil
	}
	lat, lon := float64(loc.Lat), float64(loc.Lng)

	sess := h.sessions.Get(chatID)
	if sess.Step() == wizard.StepShell {
		return h.showGyms(c, lat, lon)
	}

	st := h.state(chatID)
	st.mu.Lock()
	d := h.activeDraft(st, sess)
	if d == nil {
		st.mu.Unlock()
		return c.Send("No esperaba una ubicación ahora.", removeKeyboard())
	}
	if !d.fillLocation(lat, lon) {
		st.mu.Unlock()
		return c.Send("No esperaba una ubicación ahora.", removeKeyboard())
	}
	msgs := promptFor(d)
	st.mu.Unlock()

	msgs = append([]outgoing{{text: "📍 Ubicación guardada.", markup: removeKeyboard()}}, msgs...)
	return h.sendAll(c, msgs)
}

// withDraft runs fn on the active draft of a callback and re-prompts
func (h *Handler) withDraft(c tele.Context, fn func(d *draft, f field) bool) error {
	chatID := c.Chat().ID
	sess := h.sessions.Get(chatID)
	st := h.state(chatID)

	st.mu.Lock()
	d := h.activeDraft(st, sess)
	if d == nil {
		st.mu.Unlock()
		return c.Respond(&tele.CallbackResponse{Text: "Este formulario ya no está activo."})
	}
	f, ok := d.current()
	if !ok || !fn(d, f) {
		st.mu.Unlock()
		return c.Respond()
	}
	msgs := promptFor(d)
	st.mu.Unlock()

	_ = c.Respond()
	return h.sendAll(c, msgs)
}

// handleChoice stores an inline enum selection
func (h *Handler) handleChoice(c tele.Context) error {
	value := cleanCallbackData(c.Data())
	return h.withDraft(c, func(d *draft, f field) bool {
		if f.kind != kindChoice {
			return false
		}
		for _, ch := range f.choices {
			if ch.value == value {
				_ = d.fill(value)
				return true
			}
		}
		return false
	})
}

// handleRemoveAlergia removes the selected allergy entry
func (h *Handler) handleRemoveAlergia(c tele.Context) error {
	i, err := strconv.Atoi(cleanCallbackData(c.Data()))
	if err != nil {
		return c.Respond()
	}
	return h.withDraft(c, func(d *draft, f field) bool {
		if f.kind != kindList {
			return false
		}
		d.alergias.Remove(i)
		return true
	})
}

// handleListDone closes the allergy list
func (h *Handler) handleListDone(c tele.Context) error {
	return h.withDraft(c, func(d *draft, f field) bool {
		if f.kind != kindList {
			return false
		}
		d.advance()
		return true
	})
}

// handleSkip leaves an optional field empty
func (h *Handler) handleSkip(c tele.Context) error {
	return h.withDraft(c, func(d *draft, f field) bool {
		if f.kind != kindOptional && f.kind != kindLocation {
			return false
		}
		d.skip()
		return true
	})
}

// handleAccept records terms acceptance
func (h *Handler) handleAccept(c tele.Context) error {
	return h.withDraft(c, func(d *draft, f field) bool {
		if f.kind != kindConsent {
			return false
		}
		d.accept()
		return true
	})
}

// handleEdit restarts the form of the current step
func (h *Handler) handleEdit(c tele.Context) error {
	sess := h.sessions.Get(c.Chat().ID)
	step, params := sess.Snapshot()

	if step == wizard.StepShell {
		return c.Respond(&tele.CallbackResponse{Text: "Este formulario ya no está activo."})
	}
	if sess.Submitting() {
		return c.Respond(&tele.CallbackResponse{Text: "⏳ Estamos enviando tus datos…"})
	}

	_ = c.Respond()
	return h.startDraft(c, step, params, stepHeader(step, params))
}

// handleSubmit sends the completed form of the current step
func (h *Handler) handleSubmit(c tele.Context) error {
	chatID := c.Chat().ID
	sess := h.sessions.Get(chatID)
	st := h.state(chatID)

	if sess.Submitting() {
		return c.Respond(&tele.CallbackResponse{Text: "⏳ Ya estamos enviando tus datos…"})
	}

	st.mu.Lock()
	d := h.activeDraft(st, sess)
	if d == nil || !d.complete() {
		st.mu.Unlock()
		return c.Respond(&tele.CallbackResponse{Text: "No hay nada que enviar."})
	}

	step := d.step
	var submit func(ctx context.Context) (*service.Result, error)
	switch step {
	case wizard.StepLogin:
		form := d.loginForm()
		submit = func(ctx context.Context) (*service.Result, error) {
			return h.onboarding.SubmitLogin(ctx, chatID, sess, form)
		}
	case wizard.StepRegistro:
		form := d.registroForm()
		submit = func(ctx context.Context) (*service.Result, error) {
			return h.onboarding.SubmitRegistro(ctx, chatID, sess, form)
		}
	case wizard.StepDieta:
		form := d.dietaForm()
		submit = func(ctx context.Context) (*service.Result, error) {
			return h.onboarding.SubmitDieta(ctx, chatID, sess, form)
		}
	case wizard.StepRutina:
		form := d.rutinaForm()
		submit = func(ctx context.Context) (*service.Result, error) {
			return h.onboarding.SubmitRutina(ctx, chatID, sess, form)
		}
	default:
		st.mu.Unlock()
		return c.Respond()
	}
	st.mu.Unlock()

	_ = c.Respond(&tele.CallbackResponse{Text: "Enviando…"})

	result, err := submit(context.Background())
	if err != nil {
		return h.reportError(c, step, err)
	}
	if !result.Applied {
		h.logger.Debug("Ignoring stale submission result",
			zap.Int64("chat_id", chatID),
			zap.String("step", string(step)),
		)
		return nil
	}

	if step == wizard.StepLogin || step == wizard.StepRutina {
		_ = c.Send("✅ ¡Listo!", removeKeyboard())
	}
	return h.enterStep(c, result.To, result.Params)
}

// reportError shows a failed submission; the session stays on step
func (h *Handler) reportError(c tele.Context, step wizard.Step, err error) error {
	chatID := c.Chat().ID

	if errors.Is(err, wizard.ErrSubmitInFlight) {
		h.logger.Debug("Duplicate submission ignored", zap.Int64("chat_id", chatID), zap.String("step", string(step)))
		return nil
	}

	if errs, ok := validation.AsErrors(err); ok {
		st := h.state(chatID)
		st.mu.Lock()
		var msgs []outgoing
		if st.draft != nil && st.draft.step == step {
			st.draft.requeue(errs.Fields())
			msgs = promptFor(st.draft)
		}
		st.mu.Unlock()

		lines := make([]string, 0, len(errs))
		for _, fe := range errs {
			lines = append(lines, "• "+fe.Message)
		}
		msgs = append([]outgoing{{text: "⚠️ Revisa estos datos:\n" + strings.Join(lines, "\n")}}, msgs...)
		return h.sendAll(c, msgs)
	}

	switch {
	case errors.Is(err, wizard.ErrUnexpectedStep):
		return c.Send("Este formulario ya no está activo.")
	case errors.Is(err, wizard.ErrMissingIdentity):
		h.logger.Error("Wizard step without identity", zap.Int64("chat_id", chatID), zap.String("step", string(step)))
		h.sessions.Get(chatID).Reset()
		h.ResetState(chatID)
		return c.Send("🔒 Usuario no identificado. Inicia sesión de nuevo.", loginMenuMarkup())
	}

	h.logger.Warn("Submission failed",
		zap.Int64("chat_id", chatID),
		zap.String("step", string(step)),
		zap.Error(err),
	)
	return c.Send("❌ "+gateway.UserMessage(err), retryMarkup())
}
