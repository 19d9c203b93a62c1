package telegram

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/mklimuk/job-pilot/pkg/integration/chat"
	"github.com/mklimuk/job-pilot/pkg/logging"
)

// maxMessage is Telegram's limit on message length.
const maxMessage = 4096

// Bot wraps the Telegram bot API and dependencies
type Bot struct {
	API      *tgbotapi.BotAPI
	commands *chat.Commands
	chatID   int64
	log      *logging.Logger
	stopCh   chan struct{}
}

// NewBot creates a new Telegram bot. A non-zero chatID restricts the bot
// to that chat.
func NewBot(token string, commands *chat.Commands, chatID int64, log *logging.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("error creating Telegram bot: %w", err)
	}
	return newBot(api, commands, chatID, log), nil
}

func newBot(api *tgbotapi.BotAPI, commands *chat.Commands, chatID int64, log *logging.Logger) *Bot {
	if log == nil {
		log = logging.NewNop()
	}
	return &Bot{
		API:      api,
		commands: commands,
		chatID:   chatID,
		log:      log,
		stopCh:   make(chan struct{}),
	}
}

// Start begins polling for updates in a goroutine
func (b *Bot) Start() error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30

	updates := b.API.GetUpdatesChan(u)

	go func() {
		for {
			select {
			case <-b.stopCh:
				return
			case update, ok := <-updates:
				if !ok {
					return
				}
				if update.Message != nil {
					b.handleMessage(update.Message)
				}
			}
		}
	}()

	b.log.Info("telegram bot started", "user", b.API.Self.UserName)
	return nil
}

// Stop stops polling for updates
func (b *Bot) Stop() {
	close(b.stopCh)
	b.API.StopReceivingUpdates()
}

func (b *Bot) handleMessage(msg *tgbotapi.Message) {
	if msg.Chat == nil || (b.chatID != 0 && msg.Chat.ID != b.chatID) {
		return
	}
	reply := b.commands.Reply("/", msg.Text)
	if reply == "" {
		return
	}
	for _, part := range chat.Split(reply, maxMessage) {
		if _, err := b.API.Send(tgbotapi.NewMessage(msg.Chat.ID, part)); err != nil {
			b.log.Warn("failed to send Telegram reply", "chat", msg.Chat.ID, "error", err)
			return
		}
	}
}
