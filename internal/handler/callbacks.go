package handler

import (
	"strings"
	"unicode"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

// cleanCallbackData removes all non-printable characters from callback data
func cleanCallbackData(data string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsPrint(r) {
			return r
		}
		return -1
	}, strings.TrimSpace(data))
}

// handleEditError handles errors from c.Edit() - if message is not modified, just acknowledge callback
// Otherwise, acknowledge callback and return error so caller can send new message
func (h *Handler) handleEditError(err error, c tele.Context, chatID int64) error {
	if err == nil {
		return nil
	}

	// Refresh with unchanged data leaves the message as is
	if strings.Contains(err.Error(), "message is not modified") {
		h.logger.Debug("Message not modified, acknowledging",
			zap.Int64("chat_id", chatID),
			zap.String("callback_id", c.Callback().ID),
		)
		c.Respond()
		return nil
	}

	h.logger.Warn("Failed to edit message, sending new",
		zap.Error(err),
		zap.Int64("chat_id", chatID),
		zap.String("callback_id", c.Callback().ID),
	)
	if ackErr := c.Respond(); ackErr != nil {
		h.logger.Warn("Failed to acknowledge callback", zap.Error(ackErr))
	}
	return err
}

// handleCallback acknowledges callbacks no button handler claimed,
// typically buttons of messages from an earlier session
func (h *Handler) handleCallback(c tele.Context) error {
	callback := c.Callback()
	if callback == nil {
		h.logger.Warn("handleCallback: callback is nil")
		return nil
	}

	h.logger.Warn("Unhandled callback",
		zap.String("data", cleanCallbackData(callback.Data)),
		zap.String("unique", callback.Unique),
		zap.Int64("chat_id", c.Chat().ID),
	)
	return c.Respond(&tele.CallbackResponse{Text: "Este botón ya no está activo. Usa /start."})
}
