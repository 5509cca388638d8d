package notifier

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// CommandHandler is called when a user command is received. command has no
// leading slash; args is the rest of the message.
type CommandHandler func(ctx context.Context, command, args string) string

// StartPolling long-polls for bot commands and replies in the chat they came
// from. Blocks until ctx is cancelled.
func (t *TelegramNotifier) StartPolling(ctx context.Context, handler CommandHandler) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := t.bot.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			t.bot.StopReceivingUpdates()
			t.logger.Info("telegram polling stopped")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			t.handleUpdate(ctx, update, handler)
		}
	}
}

func (t *TelegramNotifier) handleUpdate(ctx context.Context, update tgbotapi.Update, handler CommandHandler) {
	if update.Message == nil || !update.Message.IsCommand() {
		return
	}
	command := update.Message.Command()
	args := strings.TrimSpace(update.Message.CommandArguments())
	t.logger.Info("received command", "command", command, "args", args, "chat_id", update.Message.Chat.ID)

	reply := handler(ctx, command, args)
	if reply == "" {
		return
	}
	if err := t.sendTo(update.Message.Chat.ID, reply); err != nil {
		t.logger.Error("send reply failed", "command", command, "error", err)
	}
}
