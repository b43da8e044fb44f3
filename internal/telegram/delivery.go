package telegram

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"tg_inline_menu_bot/internal/logging"
	"tg_inline_menu_bot/internal/menu"
)

const (
	methodSendMessage      = "sendMessage"
	methodSendPhoto        = "sendPhoto"
	methodSendVideo        = "sendVideo"
	methodSendAnimation    = "sendAnimation"
	methodSendDocument     = "sendDocument"
	methodEditMessageText  = "editMessageText"
	methodEditMessageMedia = "editMessageMedia"
	methodDeleteMessage    = "deleteMessage"
	methodAnswerCallback   = "answerCallbackQuery"
)

// messageRef points at the chat message currently showing a session's menu.
type messageRef struct {
	chatID    int64
	messageID int
	media     bool
}

type messageStore struct {
	mu   sync.Mutex
	refs map[string]messageRef
}

func newMessageStore() *messageStore {
	return &messageStore{refs: make(map[string]messageRef)}
}

func (s *messageStore) get(session string) (messageRef, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ref, ok := s.refs[session]
	return ref, ok
}

func (s *messageStore) put(session string, ref messageRef) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.refs[session] = ref
}

// targetFor picks the message a re-render should replace: the remembered one
// when the press came from it, otherwise the pressed message itself.
func (c *Client) targetFor(session string, msg models.MaybeInaccessibleMessage) (messageRef, bool) {
	pressed := messageID(msg)
	if ref, ok := c.messages.get(session); ok && (pressed == 0 || ref.messageID == pressed) {
		return ref, true
	}

	if msg.Type == models.MaybeInaccessibleMessageTypeMessage && msg.Message != nil {
		return messageRef{
			chatID:    msg.Message.Chat.ID,
			messageID: msg.Message.ID,
			media:     hasMedia(msg.Message),
		}, true
	}

	return messageRef{}, false
}

// present replaces the message behind ref with result. Telegram cannot turn a
// text message into a media message or back, so such switches are sent anew.
func (c *Client) present(ctx context.Context, session string, ref messageRef, result menu.RenderResult) error {
	if ref.media != result.Body.IsMedia() {
		c.delete(ctx, ref)
		return c.send(ctx, session, ref.chatID, result)
	}

	var err error
	if result.Body.IsMedia() {
		err = c.editMedia(ctx, ref, result)
	} else {
		err = c.editText(ctx, ref, result)
	}
	if err != nil {
		return err
	}

	c.messages.put(session, ref)
	return nil
}

func (c *Client) send(ctx context.Context, session string, chat int64, result menu.RenderResult) error {
	body := result.Body
	markup := inlineKeyboard(result.Keyboard)
	parseMode := models.ParseMode(body.ParseMode)

	var (
		msg    *models.Message
		err    error
		method string
	)

	if !body.IsMedia() {
		method = methodSendMessage
		msg, err = c.bot.SendMessage(ctx, &bot.SendMessageParams{
			ChatID:      chat,
			Text:        body.Text,
			ParseMode:   parseMode,
			ReplyMarkup: markup,
		})
	} else {
		file := &models.InputFileString{Data: body.Media.URL}

		switch body.Media.Type {
		case menu.MediaPhoto:
			method = methodSendPhoto
			msg, err = c.bot.SendPhoto(ctx, &bot.SendPhotoParams{
				ChatID:      chat,
				Photo:       file,
				Caption:     body.Text,
				ParseMode:   parseMode,
				ReplyMarkup: markup,
			})
		case menu.MediaVideo:
			method = methodSendVideo
			msg, err = c.bot.SendVideo(ctx, &bot.SendVideoParams{
				ChatID:      chat,
				Video:       file,
				Caption:     body.Text,
				ParseMode:   parseMode,
				ReplyMarkup: markup,
			})
		case menu.MediaAnimation:
			method = methodSendAnimation
			msg, err = c.bot.SendAnimation(ctx, &bot.SendAnimationParams{
				ChatID:      chat,
				Animation:   file,
				Caption:     body.Text,
				ParseMode:   parseMode,
				ReplyMarkup: markup,
			})
		case menu.MediaDocument:
			method = methodSendDocument
			msg, err = c.bot.SendDocument(ctx, &bot.SendDocumentParams{
				ChatID:      chat,
				Document:    file,
				Caption:     body.Text,
				ParseMode:   parseMode,
				ReplyMarkup: markup,
			})
		default:
			return fmt.Errorf("unsupported media type %q", body.Media.Type)
		}
	}

	c.observeDelivery(method, err)
	if err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	if msg == nil {
		return fmt.Errorf("%s: empty response", method)
	}

	c.messages.put(session, messageRef{
		chatID:    chat,
		messageID: msg.ID,
		media:     body.IsMedia(),
	})

	return nil
}

func (c *Client) editText(ctx context.Context, ref messageRef, result menu.RenderResult) error {
	_, err := c.bot.EditMessageText(ctx, &bot.EditMessageTextParams{
		ChatID:      ref.chatID,
		MessageID:   ref.messageID,
		Text:        result.Body.Text,
		ParseMode:   models.ParseMode(result.Body.ParseMode),
		ReplyMarkup: inlineKeyboard(result.Keyboard),
	})
	if isNotModified(err) {
		err = nil
	}

	c.observeDelivery(methodEditMessageText, err)
	if err != nil {
		return fmt.Errorf("%s: %w", methodEditMessageText, err)
	}

	return nil
}

func (c *Client) editMedia(ctx context.Context, ref messageRef, result menu.RenderResult) error {
	media, err := inputMedia(result.Body)
	if err != nil {
		return err
	}

	_, err = c.bot.EditMessageMedia(ctx, &bot.EditMessageMediaParams{
		ChatID:      ref.chatID,
		MessageID:   ref.messageID,
		Media:       media,
		ReplyMarkup: inlineKeyboard(result.Keyboard),
	})
	if isNotModified(err) {
		err = nil
	}

	c.observeDelivery(methodEditMessageMedia, err)
	if err != nil {
		return fmt.Errorf("%s: %w", methodEditMessageMedia, err)
	}

	return nil
}

func (c *Client) delete(ctx context.Context, ref messageRef) {
	_, err := c.bot.DeleteMessage(ctx, &bot.DeleteMessageParams{
		ChatID:    ref.chatID,
		MessageID: ref.messageID,
	})
	c.observeDelivery(methodDeleteMessage, err)
	if err != nil {
		c.logger.WithFields(logging.Fields{
			"event":      "telegram_delete_error",
			"chat_id":    ref.chatID,
			"message_id": ref.messageID,
		}).WithError(err).Warn("failed to delete outdated menu message")
	}
}

func (c *Client) answer(ctx context.Context, queryID, text string) error {
	_, err := c.bot.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: queryID,
		Text:            text,
	})
	c.observeDelivery(methodAnswerCallback, err)
	if err != nil {
		return fmt.Errorf("%s: %w", methodAnswerCallback, err)
	}

	return nil
}

func (c *Client) observeDelivery(method string, err error) {
	if c.metrics != nil {
		c.metrics.ObserveDelivery(method, err)
	}
}

func inputMedia(body menu.Body) (models.InputMedia, error) {
	parseMode := models.ParseMode(body.ParseMode)

	switch body.Media.Type {
	case menu.MediaPhoto:
		return &models.InputMediaPhoto{Media: body.Media.URL, Caption: body.Text, ParseMode: parseMode}, nil
	case menu.MediaVideo:
		return &models.InputMediaVideo{Media: body.Media.URL, Caption: body.Text, ParseMode: parseMode}, nil
	case menu.MediaAnimation:
		return &models.InputMediaAnimation{Media: body.Media.URL, Caption: body.Text, ParseMode: parseMode}, nil
	case menu.MediaDocument:
		return &models.InputMediaDocument{Media: body.Media.URL, Caption: body.Text, ParseMode: parseMode}, nil
	default:
		return nil, fmt.Errorf("unsupported media type %q", body.Media.Type)
	}
}

func inlineKeyboard(rows [][]menu.Button) *models.InlineKeyboardMarkup {
	keyboard := make([][]models.InlineKeyboardButton, 0, len(rows))
	for _, row := range rows {
		line := make([]models.InlineKeyboardButton, 0, len(row))
		for _, button := range row {
			line = append(line, models.InlineKeyboardButton{
				Text:         button.Label,
				URL:          button.URL,
				CallbackData: button.CallbackData,
			})
		}
		keyboard = append(keyboard, line)
	}

	return &models.InlineKeyboardMarkup{InlineKeyboard: keyboard}
}

func hasMedia(msg *models.Message) bool {
	return len(msg.Photo) > 0 || msg.Video != nil || msg.Animation != nil || msg.Document != nil
}

// isNotModified reports Telegram's rejection of an edit that changes nothing.
func isNotModified(err error) bool {
	return err != nil && strings.Contains(err.Error(), "message is not modified")
}
