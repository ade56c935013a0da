package handler

import (
	"context"
	"errors"

	"myfitguide/internal/domain"
	"myfitguide/internal/gateway"
	"myfitguide/internal/service"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

// showTab renders a Shell tab. The aggregated profile is fetched on the first
// view and on refresh only. edit replaces the message the callback came from.
func (h *Handler) showTab(c tele.Context, tab string, refresh, edit bool) error {
	chatID := c.Chat().ID

	if tab == tabGimnasios {
		if edit {
			_ = c.Respond()
		}
		return c.Send("📍 Comparte tu ubicación para buscar gimnasios cercanos.", locationRequestMarkup())
	}

	_, params := h.sessions.Get(chatID).Snapshot()
	st := h.state(chatID)

	st.mu.Lock()
	profile := st.profile
	st.mu.Unlock()

	if profile == nil || refresh {
		fetched, err := h.profiles.Fetch(context.Background(), chatID, params.UserID)
		if err != nil {
			return h.reportProfileError(c, tab, err, edit)
		}
		profile = fetched

		st.mu.Lock()
		st.profile = profile
		st.mu.Unlock()
	}

	text := renderTab(tab, profile, params, h.now())
	markup := shellMenuMarkup(tab)

	// Edit message if callback, send new otherwise
	if edit && c.Callback() != nil {
		if err := c.Edit(text, markup); err != nil {
			if handleErr := h.handleEditError(err, c, chatID); handleErr == nil {
				return nil // Message was already modified, just acknowledged
			}
			return c.Send(text, markup)
		}
		return c.Respond()
	}
	return c.Send(text, markup)
}

func (h *Handler) reportProfileError(c tele.Context, tab string, err error, edit bool) error {
	chatID := c.Chat().ID
	if edit {
		_ = c.Respond()
	}

	if errors.Is(err, service.ErrNotIdentified) {
		h.sessions.Get(chatID).Reset()
		h.ResetState(chatID)
		return c.Send("🔒 Usuario no identificado. Inicia sesión para continuar.", loginMenuMarkup())
	}

	h.logger.Warn("Failed to load profile", zap.Int64("chat_id", chatID), zap.Error(err))
	return c.Send("❌ No pudimos cargar tu perfil. "+gateway.UserMessage(err), shellMenuMarkup(tab))
}

// handleTab switches the Shell tab
func (h *Handler) handleTab(c tele.Context) error {
	tab := cleanCallbackData(c.Data())
	switch tab {
	case tabInicio, tabDieta, tabRutina, tabPerfil, tabGimnasios:
	default:
		tab = tabInicio
	}
	return h.showTab(c, tab, false, true)
}

// handleRefresh re-fetches the aggregated profile on demand
func (h *Handler) handleRefresh(c tele.Context) error {
	tab := cleanCallbackData(c.Data())
	if tab == "" || tab == tabGimnasios {
		tab = tabInicio
	}
	return h.showTab(c, tab, true, true)
}

// handleLogout clears the local cache, forgets the chat and returns to Login
func (h *Handler) handleLogout(c tele.Context) error {
	chatID := c.Chat().ID
	sess := h.sessions.Get(chatID)

	if c.Callback() != nil {
		_ = c.Respond()
	}

	if err := h.onboarding.Logout(chatID, sess); err != nil {
		h.logger.Error("Failed to clear profile cache on logout", zap.Int64("chat_id", chatID), zap.Error(err))
	}
	h.forgetChat(chatID)

	return c.Send("👋 Sesión cerrada.\n\n"+loginMenuText, loginMenuMarkup())
}

// showGyms lists fitness centres around the shared location
func (h *Handler) showGyms(c tele.Context, lat, lon float64) error {
	chatID := c.Chat().ID

	_ = c.Send("🔎 Buscando gimnasios cercanos…", removeKeyboard())

	gyms, err := h.gyms.Nearby(context.Background(), lat, lon, h.gymRadiusM)
	if err != nil {
		h.logger.Warn("Failed to search gyms", zap.Int64("chat_id", chatID), zap.Error(err))
		return c.Send("❌ No pudimos buscar gimnasios. Comparte tu ubicación de nuevo para reintentar.", locationRequestMarkup())
	}

	h.logger.Info("Gyms listed", zap.Int64("chat_id", chatID), zap.Int("count", len(gyms)))
	text := renderGyms(gyms, domain.Location{Lat: lat, Lon: lon}, h.gymRadiusM)
	return c.Send(text, shellMenuMarkup(tabInicio))
}
