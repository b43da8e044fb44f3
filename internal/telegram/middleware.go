package telegram

import (
	"context"
	"fmt"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/sirupsen/logrus"

	"tg_inline_menu_bot/internal/logging"
)

// recoverMiddleware keeps one failing update from taking the poller down.
func recoverMiddleware(logger *logrus.Entry) bot.Middleware {
	return func(next bot.HandlerFunc) bot.HandlerFunc {
		return func(ctx context.Context, b *bot.Bot, update *models.Update) {
			defer func() {
				if r := recover(); r != nil {
					fields := logging.Fields{
						"event": "telegram_panic",
						"panic": fmt.Sprint(r),
					}
					if update != nil {
						fields["update_id"] = update.ID
					}
					logger.WithFields(fields).Error("recovered from handler panic")
				}
			}()

			next(ctx, b, update)
		}
	}
}

func countUpdates(metrics Metrics) bot.Middleware {
	return func(next bot.HandlerFunc) bot.HandlerFunc {
		return func(ctx context.Context, b *bot.Bot, update *models.Update) {
			if metrics != nil && update != nil {
				metrics.ObserveUpdate(extractUpdateMeta(update).updateType)
			}

			next(ctx, b, update)
		}
	}
}

// logCallbackData logs every button press with the size of its payload, which
// Telegram caps at 64 bytes.
func logCallbackData(logger *logrus.Entry) bot.Middleware {
	return func(next bot.HandlerFunc) bot.HandlerFunc {
		return func(ctx context.Context, b *bot.Bot, update *models.Update) {
			if update != nil && update.CallbackQuery != nil && update.CallbackQuery.Data != "" {
				data := update.CallbackQuery.Data
				logger.WithFields(logging.Fields{
					"event":           "telegram_callback",
					"user_id":         update.CallbackQuery.From.ID,
					"callback":        data,
					"callback_length": len(data),
				}).Debug("callback query received")
			}

			next(ctx, b, update)
		}
	}
}
