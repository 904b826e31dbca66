package notifier

import (
	"context"
	"errors"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/semmidev/dumpship/internal/domain"
	. "github.com/smartystreets/goconvey/convey"
)

type fakeSender struct {
	sent []tgbotapi.MessageConfig
	err  error
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		f.sent = append(f.sent, msg)
	}
	return tgbotapi.Message{}, f.err
}

func TestTelegramNotifier(t *testing.T) {
	Convey("Given a TelegramNotifier", t, func() {
		bot := &fakeSender{}
		n := &TelegramNotifier{bot: bot, chatID: 42}
		ok := domain.BackupReport{
			Source:   "orders",
			Key:      "mongo/orders_2026_10_18_1760745600000.tar.gz",
			Size:     3 * 1024 * 1024,
			Duration: 90 * time.Second,
		}

		Convey("When a backup succeeds", func() {
			err := n.Notify(context.Background(), ok)

			Convey("It should send a summary to the chat", func() {
				So(err, ShouldBeNil)
				So(bot.sent, ShouldHaveLength, 1)
				So(bot.sent[0].ChatID, ShouldEqual, int64(42))
				So(bot.sent[0].Text, ShouldContainSubstring, "3.00 MB")
				So(bot.sent[0].Text, ShouldContainSubstring, ok.Key)
			})
		})

		Convey("When only failures are wanted", func() {
			n.onFailureOnly = true

			Convey("Successes should be skipped", func() {
				So(n.Notify(context.Background(), ok), ShouldBeNil)
				So(bot.sent, ShouldBeEmpty)
			})

			Convey("Failures should be sent with the error", func() {
				failed := domain.BackupReport{Source: "orders", Err: errors.New("mongodump exited with code 1")}
				So(n.Notify(context.Background(), failed), ShouldBeNil)
				So(bot.sent, ShouldHaveLength, 1)
				So(bot.sent[0].Text, ShouldContainSubstring, "code 1")
			})
		})

		Convey("When telegram rejects the message", func() {
			bot.err = errors.New("chat not found")
			err := n.Notify(context.Background(), ok)

			Convey("It should wrap the error", func() {
				So(err.Error(), ShouldContainSubstring, "failed to send telegram notification")
			})
		})
	})
}
