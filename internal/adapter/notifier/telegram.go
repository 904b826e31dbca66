package notifier

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/semmidev/dumpship/internal/config"
	"github.com/semmidev/dumpship/internal/domain"
)

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type TelegramNotifier struct {
	bot           sender
	chatID        int64
	onFailureOnly bool
}

func NewTelegram(cfg *config.TelegramConfig) (*TelegramNotifier, error) {
	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	return &TelegramNotifier{
		bot:           bot,
		chatID:        cfg.ChatID,
		onFailureOnly: cfg.OnFailure,
	}, nil
}

func (t *TelegramNotifier) Notify(ctx context.Context, report domain.BackupReport) error {
	if report.Err == nil && t.onFailureOnly {
		return nil
	}

	msg := tgbotapi.NewMessage(t.chatID, FormatReport(report))
	if _, err := t.bot.Send(msg); err != nil {
		return fmt.Errorf("failed to send telegram notification: %w", err)
	}
	return nil
}

func FormatReport(report domain.BackupReport) string {
	if report.Err != nil {
		return fmt.Sprintf(
			"❌ Backup Failed\n\n"+
				"🗄 Source: %s\n"+
				"📁 Archive: %s\n"+
				"⚠️ Error: %v",
			report.Source,
			report.ArchiveName,
			report.Err,
		)
	}

	return fmt.Sprintf(
		"✅ Backup Uploaded\n\n"+
			"🗄 Source: %s\n"+
			"📁 Key: %s\n"+
			"📊 Size: %.2f MB\n"+
			"🕐 Duration: %s",
		report.Source,
		report.Key,
		float64(report.Size)/(1024*1024),
		report.Duration,
	)
}
