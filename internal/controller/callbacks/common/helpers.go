package common

import (
	"context"
	"strconv"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// AnswerCallback отвечает на callback query (без alert)
func AnswerCallback(ctx context.Context, b *bot.Bot, callbackID string, text string) {
	b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: callbackID,
		Text:            text,
		ShowAlert:       false,
	})
}

// AnswerCallbackAlert отвечает на callback query с alert (всплывающее окно)
func AnswerCallbackAlert(ctx context.Context, b *bot.Bot, callbackID string, text string) {
	b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: callbackID,
		Text:            text,
		ShowAlert:       true,
	})
}

// GetMessageFromCallback извлекает сообщение из callback query
func GetMessageFromCallback(callback *models.CallbackQuery) *models.Message {
	if callback.Message.Message != nil {
		return callback.Message.Message
	}
	return nil
}

// CallbackArgs аргументы после префикса: "apt:st:1:abc" с префиксом "apt:st:" -> ["1", "abc"]
func CallbackArgs(data, prefix string, n int) ([]string, error) {
	rest, ok := strings.CutPrefix(data, prefix)
	if !ok {
		return nil, ErrInvalidFormat
	}
	parts := strings.SplitN(rest, ":", n)
	if len(parts) != n {
		return nil, ErrInvalidFormat
	}
	for _, p := range parts {
		if p == "" {
			return nil, ErrInvalidFormat
		}
	}
	return parts, nil
}

// CallbackInt целый аргумент после префикса: "apl:p:3" -> 3
func CallbackInt(data, prefix string) (int, error) {
	args, err := CallbackArgs(data, prefix, 1)
	if err != nil {
		return 0, err
	}
	v, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, ErrInvalidFormat
	}
	return v, nil
}
