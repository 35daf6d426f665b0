package bot

import (
	"context"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/CHITIJRAJPUTX/Sdv-Unacademy-admin-bot/internal/errors"
	"github.com/CHITIJRAJPUTX/Sdv-Unacademy-admin-bot/internal/notify"
)

const DefaultUpdateTimeout = 60

// TelegramAdapter is the bot's only transport. It long-polls for
// updates, hands them to the router, and implements the outbound
// Transport surface over the Bot API.
type TelegramAdapter struct {
	token         string
	updateTimeout int
	router        *Router
	bot           *tgbotapi.BotAPI
}

func NewTelegramAdapter(token string, updateTimeout int) *TelegramAdapter {
	if updateTimeout <= 0 {
		updateTimeout = DefaultUpdateTimeout
	}
	return &TelegramAdapter{
		token:         token,
		updateTimeout: updateTimeout,
	}
}

// SetRouter wires the dispatcher in after construction; the router needs
// the adapter as its Transport, so the two are connected in two steps.
func (t *TelegramAdapter) SetRouter(router *Router) {
	t.router = router
}

func (t *TelegramAdapter) Start(ctx context.Context) error {
	var err error
	t.bot, err = tgbotapi.NewBotAPI(t.token)
	if err != nil {
		return errors.Wrap(err, "failed to init telegram bot")
	}

	slog.Info("Telegram adapter started", "user", t.bot.Self.UserName)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = t.updateTimeout

	updates := t.bot.GetUpdatesChan(u)

	go func() {
		for {
			select {
			case <-ctx.Done():
				t.bot.StopReceivingUpdates()
				return
			case update := <-updates:
				t.handleUpdate(ctx, update)
			}
		}
	}()

	return nil
}

func (t *TelegramAdapter) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	if t.router == nil {
		return
	}

	switch {
	case update.Message != nil && update.Message.IsCommand():
		msg := update.Message
		if msg.From == nil {
			return
		}
		t.router.HandleCommand(ctx, identityFrom(msg.From), msg.Chat.ID, msg.Command(), msg.CommandArguments())

	case update.CallbackQuery != nil:
		cb := update.CallbackQuery
		if cb.From == nil || cb.Message == nil {
			return
		}
		t.router.HandleCallback(ctx, identityFrom(cb.From), cb.Message.Chat.ID, cb.Message.MessageID, cb.ID, cb.Data)
	}
}

func identityFrom(user *tgbotapi.User) Identity {
	return Identity{
		ID:        user.ID,
		FirstName: user.FirstName,
		Username:  user.UserName,
	}
}

// Send delivers a message; photo messages fall back to plain text when
// Telegram rejects the photo URL.
func (t *TelegramAdapter) Send(ctx context.Context, chatID int64, msg notify.Message) error {
	markup := inlineMarkup(msg.Keyboard)

	if msg.PhotoURL != "" {
		photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileURL(msg.PhotoURL))
		photo.Caption = msg.Text
		if markup != nil {
			photo.ReplyMarkup = markup
		}
		_, err := t.bot.Send(photo)
		if err == nil {
			return nil
		}
		slog.Warn("Photo send failed, falling back to text", "chat_id", chatID, "error", err)
	}

	text := tgbotapi.NewMessage(chatID, msg.Text)
	if markup != nil {
		text.ReplyMarkup = markup
	}
	if _, err := t.bot.Send(text); err != nil {
		return errors.Wrap(err, "failed to send telegram message")
	}
	return nil
}

func (t *TelegramAdapter) Edit(ctx context.Context, chatID int64, messageID int, text string, kb notify.Keyboard) error {
	var err error
	if markup := inlineMarkup(kb); markup != nil {
		edit := tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, text, *markup)
		_, err = t.bot.Send(edit)
	} else {
		edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
		_, err = t.bot.Send(edit)
	}
	if err != nil {
		return errors.Wrap(err, "failed to edit telegram message")
	}
	return nil
}

func (t *TelegramAdapter) EditKeyboard(ctx context.Context, chatID int64, messageID int, kb notify.Keyboard) error {
	markup := inlineMarkup(kb)
	if markup == nil {
		markup = &tgbotapi.InlineKeyboardMarkup{InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{}}
	}
	edit := tgbotapi.NewEditMessageReplyMarkup(chatID, messageID, *markup)
	if _, err := t.bot.Send(edit); err != nil {
		return errors.Wrap(err, "failed to edit telegram keyboard")
	}
	return nil
}

func (t *TelegramAdapter) AnswerCallback(ctx context.Context, callbackID string, text string, alert bool) error {
	cb := tgbotapi.NewCallback(callbackID, text)
	cb.ShowAlert = alert
	if _, err := t.bot.Request(cb); err != nil {
		return errors.Wrap(err, "failed to answer callback")
	}
	return nil
}

func (t *TelegramAdapter) Health(ctx context.Context) error {
	if t.bot == nil {
		return errors.Transport("telegram bot not initialized")
	}
	if _, err := t.bot.GetMe(); err != nil {
		return errors.Transport("telegram connection failed: " + err.Error())
	}
	return nil
}

func inlineMarkup(kb notify.Keyboard) *tgbotapi.InlineKeyboardMarkup {
	if len(kb) == 0 {
		return nil
	}

	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(kb))
	for _, row := range kb {
		buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, b := range row {
			buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(b.Label, b.Data))
		}
		rows = append(rows, buttons)
	}

	markup := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return &markup
}
