package handler

import (
	"context"
	"sync"
	"time"

	"myfitguide/internal/domain"
	"myfitguide/internal/middleware"
	"myfitguide/internal/service"
	"myfitguide/internal/wizard"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

// GymFinder looks up fitness centres around a location
type GymFinder interface {
	Nearby(ctx context.Context, lat, lon float64, radiusM int) ([]domain.Gym, error)
}

// chatState is the presentation state of one chat
type chatState struct {
	mu      sync.Mutex
	draft   *draft
	profile *domain.AggregatedProfile
}

// Handler manages all bot interactions
type Handler struct {
	bot        *tele.Bot
	sessions   *wizard.Store
	onboarding *service.OnboardingService
	profiles   *service.ProfileService
	gyms       GymFinder
	gymRadiusM int
	logger     *zap.Logger
	now        func() time.Time

	states   map[int64]*chatState
	stateMux sync.RWMutex
}

// NewHandler creates a new handler instance
func NewHandler(
	bot *tele.Bot,
	sessions *wizard.Store,
	onboarding *service.OnboardingService,
	profiles *service.ProfileService,
	gyms GymFinder,
	gymRadiusM int,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		bot:        bot,
		sessions:   sessions,
		onboarding: onboarding,
		profiles:   profiles,
		gyms:       gyms,
		gymRadiusM: gymRadiusM,
		logger:     logger,
		now:        time.Now,
		states:     make(map[int64]*chatState),
	}
}

// RegisterHandlers registers all bot handlers
func (h *Handler) RegisterHandlers() {
	shellOnly := middleware.ShellGuard(h.sessions, h.onboarding, h.logger)

	// Commands
	h.bot.Handle("/start", h.handleStart)
	h.bot.Handle("/salir", h.handleLogout, shellOnly)

	// Messages
	h.bot.Handle(tele.OnText, h.handleText)
	h.bot.Handle(tele.OnLocation, h.handleLocation)

	// Wizard buttons
	h.bot.Handle(&btnLogin, h.handleLoginChoice)
	h.bot.Handle(&btnRegister, h.handleRegisterChoice)
	h.bot.Handle(&btnChoice, h.handleChoice)
	h.bot.Handle(&btnAlergiaDel, h.handleRemoveAlergia)
	h.bot.Handle(&btnListDone, h.handleListDone)
	h.bot.Handle(&btnSkip, h.handleSkip)
	h.bot.Handle(&btnAccept, h.handleAccept)
	h.bot.Handle(&btnSubmit, h.handleSubmit)
	h.bot.Handle(&btnRetry, h.handleSubmit)
	h.bot.Handle(&btnEdit, h.handleEdit)

	// Shell buttons
	h.bot.Handle(&btnTab, h.handleTab, shellOnly)
	h.bot.Handle(&btnRefresh, h.handleRefresh, shellOnly)
	h.bot.Handle(&btnLogout, h.handleLogout, shellOnly)

	// Generic callback handler for stale or unknown buttons
	h.bot.Handle(tele.OnCallback, h.handleCallback)
}

// state returns the chat's presentation state, creating it if needed
func (h *Handler) state(chatID int64) *chatState {
	h.stateMux.RLock()
	st, exists := h.states[chatID]
	h.stateMux.RUnlock()
	if exists {
		return st
	}

	h.stateMux.Lock()
	defer h.stateMux.Unlock()
	if st, exists = h.states[chatID]; exists {
		return st
	}
	st = &chatState{}
	h.states[chatID] = st
	return st
}

// ResetState drops the chat's draft and cached profile view
func (h *Handler) ResetState(chatID int64) {
	st := h.state(chatID)
	st.mu.Lock()
	defer st.mu.Unlock()
	st.draft = nil
	st.profile = nil
}

// forgetChat drops the chat's session and presentation state
func (h *Handler) forgetChat(chatID int64) {
	h.sessions.Drop(chatID)

	h.stateMux.Lock()
	defer h.stateMux.Unlock()
	delete(h.states, chatID)
}

// Inline keyboard buttons
var (
	btnLogin = tele.Btn{
		Unique: "login",
		Text:   "🔑 Iniciar sesión",
	}
	btnRegister = tele.Btn{
		Unique: "register",
		Text:   "✨ Crear cuenta",
	}
	btnChoice = tele.Btn{
		Unique: "choice",
	}
	btnAlergiaDel = tele.Btn{
		Unique: "alergia_del",
	}
	btnListDone = tele.Btn{
		Unique: "list_done",
		Text:   "✅ Listo",
	}
	btnSkip = tele.Btn{
		Unique: "skip",
		Text:   "⏭ Omitir",
	}
	btnAccept = tele.Btn{
		Unique: "accept",
		Text:   "✅ Acepto los términos",
	}
	btnSubmit = tele.Btn{
		Unique: "submit",
		Text:   "📨 Enviar",
	}
	btnRetry = tele.Btn{
		Unique: "retry",
		Text:   "🔄 Reintentar",
	}
	btnEdit = tele.Btn{
		Unique: "edit",
		Text:   "✏️ Corregir",
	}
	btnTab = tele.Btn{
		Unique: "tab",
	}
	btnRefresh = tele.Btn{
		Unique: "refresh",
		Text:   "🔄 Actualizar",
	}
	btnLogout = tele.Btn{
		Unique: "logout",
		Text:   "🚪 Cerrar sesión",
	}
)

// loginMenuMarkup returns the Login step keyboard
func loginMenuMarkup() *tele.ReplyMarkup {
	menu := &tele.ReplyMarkup{}
	menu.Inline(
		menu.Row(btnLogin),
		menu.Row(btnRegister),
	)
	return menu
}

// shellMenuMarkup returns the tab keyboard; refresh reloads tab
func shellMenuMarkup(tab string) *tele.ReplyMarkup {
	menu := &tele.ReplyMarkup{}
	menu.Inline(
		menu.Row(
			menu.Data("🏠 Inicio", btnTab.Unique, tabInicio),
			menu.Data("🥗 Dieta", btnTab.Unique, tabDieta),
			menu.Data("💪 Rutina", btnTab.Unique, tabRutina),
		),
		menu.Row(
			menu.Data("👤 Perfil", btnTab.Unique, tabPerfil),
			menu.Data("🗺 Gimnasios", btnTab.Unique, tabGimnasios),
		),
		menu.Row(
			menu.Data(btnRefresh.Text, btnRefresh.Unique, tab),
			btnLogout,
		),
	)
	return menu
}

// submitMarkup is shown once a form is complete
func submitMarkup() *tele.ReplyMarkup {
	menu := &tele.ReplyMarkup{}
	menu.Inline(menu.Row(btnSubmit, btnEdit))
	return menu
}

// retryMarkup is shown after a transport failure
func retryMarkup() *tele.ReplyMarkup {
	menu := &tele.ReplyMarkup{}
	menu.Inline(menu.Row(btnRetry, btnEdit))
	return menu
}

// locationRequestMarkup asks the client to share its location
func locationRequestMarkup() *tele.ReplyMarkup {
	menu := &tele.ReplyMarkup{ResizeKeyboard: true, OneTimeKeyboard: true}
	menu.Reply(menu.Row(menu.Location("📍 Compartir ubicación")))
	return menu
}

func removeKeyboard() *tele.ReplyMarkup {
	return &tele.ReplyMarkup{RemoveKeyboard: true}
}
