package notificator

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	tgModels "github.com/go-telegram/bot/models"

	"github.com/poynt/relay/internal/models"
	"github.com/poynt/relay/pkg/logger"
)

// FeePayerStatusFunc reports the fee payer address and balance in lamports
type FeePayerStatusFunc func(ctx context.Context) (string, uint64, error)

type TelegramNotificator struct {
	logger *logger.Logger
	bot    *bot.Bot

	feePayerStatus FeePayerStatusFunc
}

func NewTelegramNotificator(logger *logger.Logger, token string, feePayerStatus FeePayerStatusFunc) (*TelegramNotificator, error) {
	provider := &TelegramNotificator{
		logger:         logger,
		feePayerStatus: feePayerStatus,
	}
	opts := []bot.Option{
		bot.WithDefaultHandler(provider.handler),
	}

	b, err := bot.New(token, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	provider.bot = b

	return provider, nil
}

// Start polls telegram for commands until ctx is done
func (t *TelegramNotificator) Start(ctx context.Context) {
	t.bot.Start(ctx)
}

func (t *TelegramNotificator) SendNotification(ctx context.Context, chatID, message string) error {
	params := &bot.SendMessageParams{
		ChatID: chatID,
		Text:   message,
	}
	if _, err := t.bot.SendMessage(ctx, params); err != nil {
		return fmt.Errorf("failed to send telegram message: %w", err)
	}
	return nil
}

func (t *TelegramNotificator) handler(ctx context.Context, b *bot.Bot, update *tgModels.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}
	t.logger.Debug("Telegram update: ", update.Message.From.Username, " ", update.Message.Text)

	reply, ok := t.reply(ctx, update.Message.Text, update.Message.Chat.ID)
	if !ok {
		return
	}
	if err := t.SendNotification(ctx, fmt.Sprint(update.Message.Chat.ID), reply); err != nil {
		t.logger.Error("Failed to reply to telegram command: ", err)
	}
}

// reply answers operator commands; ok is false for anything else
func (t *TelegramNotificator) reply(ctx context.Context, text string, chatID int64) (string, bool) {
	command := strings.Fields(text)
	if len(command) == 0 {
		return "", false
	}
	// commands addressed to the bot in groups look like /feepayer@poynt_relay_bot
	name, _, _ := strings.Cut(command[0], "@")

	switch name {
	case "/start":
		return fmt.Sprintf("Poynt relay alerts. Set TELEGRAM_ALERT_CHAT_ID=%d to receive them in this chat.", chatID), true
	case "/feepayer":
		address, lamports, err := t.feePayerStatus(ctx)
		if err != nil {
			return "Fee payer status unavailable: " + err.Error(), true
		}
		return fmt.Sprintf("Fee payer %s\nBalance: %s SOL (%d lamports)", address, models.FormatSOL(lamports), lamports), true
	default:
		return "", false
	}
}
