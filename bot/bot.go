package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"fanpool/bot/common"
	"fanpool/events"
	"fanpool/service"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// Config holds bot configuration
type Config struct {
	Token     string
	GuildID   string
	ChannelID string
	Currency  string
}

// Bot serves the /pool command and announces pool activity
type Bot struct {
	config       Config
	session      *discordgo.Session
	eventService service.EventService
	poolService  service.PoolService
	stakeService service.StakeService
	announcer    *Announcer
}

// New opens a Discord session, registers the slash commands and subscribes
// the announcer to the event bus
func New(config Config, eventService service.EventService, poolService service.PoolService, stakeService service.StakeService, eventBus *events.Bus) (*Bot, error) {
	dg, err := discordgo.New("Bot " + config.Token)
	if err != nil {
		return nil, fmt.Errorf("error creating discord session: %w", err)
	}
	dg.Identify.Intents = discordgo.IntentsGuilds

	bot := &Bot{
		config:       config,
		session:      dg,
		eventService: eventService,
		poolService:  poolService,
		stakeService: stakeService,
		announcer:    NewAnnouncer(dg, config.ChannelID, config.Currency),
	}

	dg.AddHandler(bot.handleCommands)

	if err := dg.Open(); err != nil {
		return nil, fmt.Errorf("error opening connection: %w", err)
	}

	if err := bot.registerCommands(); err != nil {
		dg.Close()
		return nil, fmt.Errorf("error registering commands: %w", err)
	}

	bot.announcer.Register(eventBus)

	return bot, nil
}

func (b *Bot) Close() error {
	return b.session.Close()
}

var commands = []*discordgo.ApplicationCommand{
	{
		Name:        "pool",
		Description: "Show the reward pool and your stake for a match",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionInteger,
				Name:        "event_id",
				Description: "Match ID",
				Required:    true,
			},
		},
	},
}

func (b *Bot) registerCommands() error {
	for _, cmd := range commands {
		_, err := b.session.ApplicationCommandCreate(b.session.State.User.ID, b.config.GuildID, cmd)
		if err != nil {
			return fmt.Errorf("cannot create '%s' command: %w", cmd.Name, err)
		}
	}
	return nil
}

func (b *Bot) handleCommands(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}

	switch i.ApplicationCommandData().Name {
	case "pool":
		b.handlePool(s, i)
	}
}

func (b *Bot) handlePool(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	options := i.ApplicationCommandData().Options
	if len(options) == 0 {
		common.RespondWithError(s, i, "Please provide a match ID.")
		return
	}
	eventID := options[0].IntValue()

	userID, err := interactionUserID(i)
	if err != nil {
		log.WithError(err).Warn("Failed to parse Discord user ID")
		common.RespondWithError(s, i, "Unable to process request. Please try again.")
		return
	}

	embed, err := b.poolStatus(ctx, eventID, userID)
	if err != nil {
		if bizErr := service.AsError(err); bizErr.Kind != service.KindDependency {
			common.RespondWithError(s, i, bizErr.Message)
			return
		}
		log.WithFields(log.Fields{
			"eventID": eventID,
			"error":   err,
		}).Error("Failed to load pool status")
		common.RespondWithError(s, i, "Unable to load the pool. Please try again.")
		return
	}

	if err := common.RespondWithEmbed(s, i, embed, true); err != nil {
		log.WithError(err).Error("Failed to respond to /pool")
	}
}

// poolStatus gathers the event, its completed pool and the caller's stake
func (b *Bot) poolStatus(ctx context.Context, eventID, userID int64) (*discordgo.MessageEmbed, error) {
	event, err := b.eventService.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	pool, err := b.poolService.GetActivePool(ctx, eventID)
	if err != nil && !errors.Is(err, service.ErrNoPoolFound) {
		return nil, err
	}

	status, err := b.stakeService.GetStakeStatus(ctx, userID, eventID)
	if err != nil {
		return nil, err
	}

	return buildPoolStatusEmbed(event, pool, status), nil
}

// interactionUserID returns the invoking user's Discord ID, which doubles as the ledger account ID
func interactionUserID(i *discordgo.InteractionCreate) (int64, error) {
	var id string
	switch {
	case i.Member != nil && i.Member.User != nil:
		id = i.Member.User.ID
	case i.User != nil:
		id = i.User.ID
	default:
		return 0, fmt.Errorf("interaction has no user")
	}
	return strconv.ParseInt(id, 10, 64)
}
