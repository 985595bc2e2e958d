package bot

import (
	"fmt"

	"fanpool/bot/common"
	"fanpool/events"
	"fanpool/models"
	"fanpool/service"

	"github.com/bwmarrin/discordgo"
)

const (
	colorPool    = 0x2ECC71
	colorSettled = 0x3498DB
	colorWarning = 0xE67E22
)

// buildPoolInjectedEmbed announces a newly funded pool
func buildPoolInjectedEmbed(e events.PoolInjectedEvent) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "💰 Reward pool funded",
		Description: fmt.Sprintf("**%s** now has a reward pool. Stakes are open until kickoff.", e.EventTitle),
		Color:       colorPool,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Pool", Value: common.FormatAmount(e.Amount, e.Currency), Inline: true},
			{Name: "Event", Value: fmt.Sprintf("#%d", e.EventID), Inline: true},
		},
		Footer: &discordgo.MessageEmbedFooter{Text: "Use /pool to see live stake totals"},
	}
}

// buildEventSettledEmbed announces a settlement pass
func buildEventSettledEmbed(e events.EventSettledEvent, currency string) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       "🏁 Rewards distributed",
		Description: fmt.Sprintf("Settlement for **%s** paid out.", e.EventTitle),
		Color:       colorSettled,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Stakers paid", Value: fmt.Sprintf("%d", e.ParticipantsSettled), Inline: true},
			{Name: "Rewards", Value: common.FormatAmount(e.TotalRewardsPaid, currency), Inline: true},
			{Name: "Fees", Value: common.FormatAmount(e.TotalFeesCollected, currency), Inline: true},
		},
	}

	if e.Failures > 0 || !e.EventCompleted {
		embed.Color = colorWarning
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "Pending",
			Value: fmt.Sprintf("%d stake(s) could not be settled and will be retried", e.Failures),
		})
	}
	return embed
}

// buildPoolStatusEmbed renders the /pool command response
func buildPoolStatusEmbed(event *models.Event, pool *models.PoolInjection, status *service.StakeStatus) *discordgo.MessageEmbed {
	stats := status.EventStatistics
	currency := stats.Currency

	embed := &discordgo.MessageEmbed{
		Title: fmt.Sprintf("%s vs %s", event.HomeTeam.Name, event.AwayTeam.Name),
		Color: colorPool,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Status", Value: string(event.Status), Inline: true},
			{Name: "Kickoff", Value: common.FormatDiscordTimestamp(event.StartTime, "R"), Inline: true},
			{Name: "Stakers", Value: fmt.Sprintf("%d", stats.Participants()), Inline: true},
			{Name: "Total staked", Value: common.FormatAmount(stats.TotalStaked, currency), Inline: true},
		},
	}

	if pool != nil {
		embed.Fields = append(embed.Fields,
			&discordgo.MessageEmbedField{Name: "Pool", Value: common.FormatAmount(pool.Amount, pool.Currency), Inline: true},
			&discordgo.MessageEmbedField{Name: "Distribution fee", Value: common.FormatPercent(pool.FeePercentages.Distribution), Inline: true},
		)
	} else {
		embed.Description = "No reward pool has been funded yet."
	}

	if status.HasStaked && status.Stake != nil {
		value := fmt.Sprintf("%s on %s (tier %d)",
			common.FormatAmount(status.Stake.Amount, currency), status.Stake.TeamChoice, status.Stake.Tier)
		if status.PotentialReward != nil {
			value += fmt.Sprintf("\nReward: %s", common.FormatAmount(*status.PotentialReward, currency))
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "Your stake", Value: value})
	}
	return embed
}
