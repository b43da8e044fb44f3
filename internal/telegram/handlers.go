package telegram

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"tg_inline_menu_bot/internal/logging"
	"tg_inline_menu_bot/internal/menu"
)

const (
	ackOutdated = "This menu is outdated"
	ackFailed   = "Something went wrong"
)

// sessionKey scopes menu state to one user in one chat.
func sessionKey(chatID, userID int64) string {
	return strconv.FormatInt(chatID, 10) + ":" + strconv.FormatInt(userID, 10)
}

// startPayload returns the deep-link parameter of a /start command. ok is false
// for texts that only share the prefix, like "/starting".
func startPayload(text string) (string, bool) {
	rest, found := strings.CutPrefix(strings.TrimSpace(text), startCommand)
	if !found {
		return "", false
	}
	if rest != "" && rest[0] != ' ' && rest[0] != '@' {
		return "", false
	}
	if rest != "" && rest[0] == '@' {
		// "/start@botname payload"
		_, rest, _ = strings.Cut(rest, " ")
	}

	return strings.TrimSpace(rest), true
}

func (c *Client) handleStart(ctx context.Context, _ *bot.Bot, update *models.Update) {
	if update == nil || update.Message == nil {
		return
	}

	msg := update.Message
	payload, ok := startPayload(msg.Text)
	if !ok {
		return
	}

	from := userID(msg.From)
	log := logging.WithContext(c.logger, logging.Context{
		UserID:   from,
		ChatID:   msg.Chat.ID,
		Event:    "telegram_start",
		MenuPath: string(menu.RootPath),
	})

	if c.users != nil && msg.From != nil {
		if _, err := c.users.EnsureUser(ctx, msg.From.ID, msg.From.FirstName, msg.From.LastName); err != nil {
			log.WithError(err).Warn("failed to record user")
		}
	}

	session := sessionKey(msg.Chat.ID, from)
	_, err := c.menu.Render(ctx, menu.Interaction{
		SessionID: session,
		Payload:   payload,
		Deliver: func(ctx context.Context, result menu.RenderResult) error {
			return c.send(ctx, session, msg.Chat.ID, result)
		},
	})
	if err != nil {
		log.WithError(err).Error("failed to show main menu")
		return
	}

	log.Info("main menu sent")
}

func (c *Client) handleCallback(ctx context.Context, _ *bot.Bot, update *models.Update) {
	if update == nil || update.CallbackQuery == nil {
		return
	}

	query := update.CallbackQuery
	chat := messageChatID(query.Message)
	session := sessionKey(chat, query.From.ID)
	log := logging.WithContext(c.logger, logging.Context{
		UserID:   query.From.ID,
		ChatID:   chat,
		Event:    "telegram_callback",
		MenuPath: query.Data,
	})

	// Dispatch and delivery share the session lock: a second press of the same
	// user waits until this render has reached the chat.
	outcome, err := c.menu.Dispatch(ctx, menu.Interaction{
		SessionID:    session,
		CallbackPath: query.Data,
		Ack: func(ctx context.Context, text string) error {
			return c.answer(ctx, query.ID, text)
		},
		Deliver: func(ctx context.Context, result menu.RenderResult) error {
			ref, ok := c.targetFor(session, query.Message)
			if !ok {
				return c.send(ctx, session, chat, result)
			}
			return c.present(ctx, session, ref, result)
		},
	})
	if !outcome.Acknowledged {
		if ackErr := c.answer(ctx, query.ID, ackText(err)); ackErr != nil {
			log.WithError(ackErr).Warn("failed to answer callback query")
		}
	}
}

// ackText picks the callback answer for a failed dispatch. Render errors keep
// the previous message and answer silently.
func ackText(err error) string {
	var (
		actionErr *menu.ActionError
		renderErr *menu.RenderError
	)

	switch {
	case err == nil:
		return ""
	case errors.As(err, &actionErr):
		return ackFailed
	case errors.As(err, &renderErr):
		return ""
	case menu.IsPathResolution(err):
		return ackOutdated
	default:
		return ""
	}
}
