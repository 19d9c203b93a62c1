package discord

import (
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/mklimuk/job-pilot/pkg/integration/chat"
	"github.com/mklimuk/job-pilot/pkg/logging"
)

// maxMessage is Discord's limit on message length.
const maxMessage = 2000

// Sender posts a message to a channel. *discordgo.Session implements it.
type Sender interface {
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Bot wraps the Discord session and dependencies
type Bot struct {
	Session  *discordgo.Session
	commands *chat.Commands
	channel  string
	log      *logging.Logger
}

// NewBot creates a new Discord bot. A non-empty channel restricts the bot
// to that channel.
func NewBot(token string, commands *chat.Commands, channel string, log *logging.Logger) (*Bot, error) {
	dg, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("error creating Discord session: %w", err)
	}
	if log == nil {
		log = logging.NewNop()
	}
	dg.Identify.Intents = discordgo.IntentsGuildMessages | discordgo.IntentsDirectMessages | discordgo.IntentsMessageContent

	bot := &Bot{
		Session:  dg,
		commands: commands,
		channel:  channel,
		log:      log,
	}
	dg.AddHandler(bot.messageCreate)
	return bot, nil
}

// Start opens the websocket connection
func (b *Bot) Start() error {
	return b.Session.Open()
}

// Stop closes the websocket connection
func (b *Bot) Stop() error {
	return b.Session.Close()
}

func (b *Bot) messageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	// Ignore messages from self
	if s.State != nil && s.State.User != nil && m.Author != nil && m.Author.ID == s.State.User.ID {
		return
	}
	b.handle(s, m.ChannelID, m.Content)
}

func (b *Bot) handle(s Sender, channelID, content string) {
	if b.channel != "" && channelID != b.channel {
		return
	}
	reply := b.commands.Reply("!", content)
	if reply == "" {
		return
	}
	for _, part := range chat.Split(reply, maxMessage) {
		if _, err := s.ChannelMessageSend(channelID, part); err != nil {
			b.log.Warn("failed to send Discord reply", "channel", channelID, "error", err)
			return
		}
	}
}
