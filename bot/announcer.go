package bot

import (
	"context"

	"fanpool/events"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// EmbedSender posts embeds to a channel; satisfied by *discordgo.Session
type EmbedSender interface {
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Announcer posts pool and settlement announcements to a Discord channel
type Announcer struct {
	sender    EmbedSender
	channelID string
	currency  string
}

// NewAnnouncer creates a new announcer
func NewAnnouncer(sender EmbedSender, channelID, currency string) *Announcer {
	return &Announcer{
		sender:    sender,
		channelID: channelID,
		currency:  currency,
	}
}

// Register subscribes the announcer to the events it posts
func (a *Announcer) Register(bus *events.Bus) {
	bus.Subscribe(events.EventTypePoolInjected, a.handle)
	bus.Subscribe(events.EventTypeEventSettled, a.handle)
}

func (a *Announcer) handle(_ context.Context, event events.Event) {
	var embed *discordgo.MessageEmbed
	switch e := event.(type) {
	case events.PoolInjectedEvent:
		embed = buildPoolInjectedEmbed(e)
	case events.EventSettledEvent:
		embed = buildEventSettledEmbed(e, a.currency)
	default:
		return
	}

	if _, err := a.sender.ChannelMessageSendEmbed(a.channelID, embed); err != nil {
		log.WithFields(log.Fields{
			"eventType": event.Type(),
			"channelID": a.channelID,
			"error":     err,
		}).Error("Failed to post announcement")
		return
	}

	log.WithFields(log.Fields{
		"eventType": event.Type(),
		"channelID": a.channelID,
	}).Debug("Posted announcement")
}
