package bot

import (
	"testing"
	"time"

	"fanpool/events"
	"fanpool/models"
	"fanpool/service"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildEventSettledEmbed(t *testing.T) {
	t.Run("completed", func(t *testing.T) {
		embed := buildEventSettledEmbed(events.EventSettledEvent{
			EventTitle:          "Tigers vs Hawks",
			ParticipantsSettled: 4,
			TotalRewardsPaid:    decimal.RequireFromString("950"),
			TotalFeesCollected:  decimal.RequireFromString("50"),
			EventCompleted:      true,
		}, "PTS")

		assert.Equal(t, colorSettled, embed.Color)
		require.Len(t, embed.Fields, 3)
		assert.Equal(t, "4", embed.Fields[0].Value)
		assert.Equal(t, "950.00 PTS", embed.Fields[1].Value)
		assert.Equal(t, "50.00 PTS", embed.Fields[2].Value)
	})

	t.Run("partial failure", func(t *testing.T) {
		embed := buildEventSettledEmbed(events.EventSettledEvent{
			ParticipantsSettled: 2,
			TotalRewardsPaid:    decimal.Zero,
			TotalFeesCollected:  decimal.Zero,
			Failures:            1,
		}, "PTS")

		assert.Equal(t, colorWarning, embed.Color)
		require.Len(t, embed.Fields, 4)
		assert.Contains(t, embed.Fields[3].Value, "1 stake(s)")
	})
}

func TestBuildPoolStatusEmbed(t *testing.T) {
	event := &models.Event{
		ID:        7,
		HomeTeam:  models.Team{Name: "Tigers"},
		AwayTeam:  models.Team{Name: "Hawks"},
		Status:    models.EventStatusApproved,
		StartTime: time.Date(2026, 3, 14, 18, 0, 0, 0, time.UTC),
	}
	stats := service.EventStatistics{
		EventID:  7,
		Currency: "PTS",
		EventStakeStats: models.EventStakeStats{
			ActiveStakes: 2,
			TotalStaked:  decimal.NewFromInt(300),
		},
	}

	t.Run("without pool or stake", func(t *testing.T) {
		embed := buildPoolStatusEmbed(event, nil, &service.StakeStatus{EventStatistics: stats})

		assert.Equal(t, "Tigers vs Hawks", embed.Title)
		assert.Equal(t, "No reward pool has been funded yet.", embed.Description)
		require.Len(t, embed.Fields, 4)
		assert.Equal(t, "2", embed.Fields[2].Value)
		assert.Equal(t, "300.00 PTS", embed.Fields[3].Value)
	})

	t.Run("with pool and stake", func(t *testing.T) {
		pool := &models.PoolInjection{
			Amount:         decimal.NewFromInt(1000),
			Currency:       "PTS",
			FeePercentages: models.FeePercentages{Distribution: decimal.RequireFromString("5")},
		}
		reward := decimal.RequireFromString("316.67")
		status := &service.StakeStatus{
			HasStaked: true,
			Stake: &models.Stake{
				Amount:     decimal.NewFromInt(200),
				TeamChoice: models.TeamHome,
				Tier:       1,
			},
			EventStatistics: stats,
			PotentialReward: &reward,
		}

		embed := buildPoolStatusEmbed(event, pool, status)

		require.Len(t, embed.Fields, 7)
		assert.Equal(t, "1,000.00 PTS", embed.Fields[4].Value)
		assert.Equal(t, "5%", embed.Fields[5].Value)
		assert.Equal(t, "200.00 PTS on home (tier 1)\nReward: 316.67 PTS", embed.Fields[6].Value)
	})
}
