package cmd

import (
	"context"
	"fmt"
	"time"

	"fanpool/api"
	"fanpool/bot"
	"fanpool/config"
	"fanpool/database"
	"fanpool/events"
	"fanpool/infrastructure"
	"fanpool/infrastructure/observability"
	"fanpool/models"
	"fanpool/repository"
	"fanpool/service"

	log "github.com/sirupsen/logrus"
)

// Run initializes and starts the application
func Run(ctx context.Context) error {
	log.Info("Starting fanpool...")

	cfg := config.Get()

	log.Info("Connecting to database...")
	db, err := database.NewConnection(ctx, cfg.GetDatabaseURL())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()
	log.Info("Database connection established successfully")

	eventBus := events.NewBus()
	uowFactory := repository.NewUnitOfWorkFactory(db, eventBus)
	observability.RegisterEventMetrics(eventBus)

	// Redis is optional: without it the scan limit falls back to the audit log
	// and the settlement lock is only held within this process
	var limiter service.ScanLimiter
	var locker service.Locker = infrastructure.NewLocalLocker()
	if cfg.RedisEnabled() {
		rdb, err := infrastructure.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		defer rdb.Close()
		limiter = infrastructure.NewRedisScanLimiter(rdb)
		locker = infrastructure.NewRedisLocker(rdb, cfg.SettlementLockTTL)
		log.WithField("addr", cfg.RedisAddr).Info("Redis scan limiter and settlement lock enabled")
	}

	var natsClient *infrastructure.NATSClient
	if cfg.NATSServers != "" {
		natsClient = infrastructure.NewNATSClient(cfg.NATSServers)
		if err := natsClient.Connect(); err != nil {
			return fmt.Errorf("failed to connect to NATS: %w", err)
		}
		if err := natsClient.EnsureEventStream(); err != nil {
			natsClient.Close()
			return fmt.Errorf("failed to ensure NATS stream: %w", err)
		}
		forwarder := infrastructure.NewNATSEventForwarder(natsClient, infrastructure.NewEventSubjectMapper())
		forwarder.Register(eventBus)
		log.WithField("servers", cfg.NATSServers).Info("Forwarding domain events to NATS")
	}

	defaultMultipliers := models.TierMultipliersFromMap(cfg.StakeTierCoefficients)

	tiers := make(map[models.ParticipationType]service.ParticipationTierRule, len(cfg.ParticipationTiers))
	for name, tier := range cfg.ParticipationTiers {
		tiers[models.ParticipationType(name)] = service.ParticipationTierRule{
			Tier:       tier.Tier,
			Multiplier: tier.Multiplier,
		}
	}

	accountService := service.NewAccountService(uowFactory, cfg.StartingBalance)
	eventService := service.NewEventService(uowFactory)
	poolService := service.NewPoolService(uowFactory, service.PoolConfig{
		FeeCeilingPercent:      cfg.FeeCeilingPercent,
		DefaultCurrency:        cfg.PoolCurrency,
		DefaultTierMultipliers: defaultMultipliers,
	})
	stakeService := service.NewStakeService(uowFactory, service.StakeConfig{
		MinStakeAmount:         cfg.MinStakeAmount,
		DefaultTierMultipliers: defaultMultipliers,
	})
	participationService := service.NewParticipationService(uowFactory, limiter, service.ParticipationConfig{
		Tiers:                  tiers,
		DefaultMaxScansPerHour: cfg.ScanRateLimitPerHour,
	})
	settlementService := service.NewSettlementService(uowFactory, locker, service.SettlementConfig{
		DefaultTierMultipliers: defaultMultipliers,
	})
	log.Info("Services initialized successfully")

	var discordBot *bot.Bot
	if cfg.DiscordToken != "" {
		discordBot, err = bot.New(bot.Config{
			Token:     cfg.DiscordToken,
			GuildID:   cfg.DiscordGuildID,
			ChannelID: cfg.DiscordChannelID,
			Currency:  cfg.PoolCurrency,
		}, eventService, poolService, stakeService, eventBus)
		if err != nil {
			return fmt.Errorf("failed to initialize Discord bot: %w", err)
		}
		log.Info("Discord bot initialized successfully")
	}

	handler := api.NewHandler(api.Services{
		Accounts:      accountService,
		Events:        eventService,
		Pools:         poolService,
		Stakes:        stakeService,
		Participation: participationService,
		Settlement:    settlementService,
	})
	server := api.NewServer(cfg.HTTPAddr, api.NewRouter(handler, func(ctx context.Context) error {
		return db.Ping(ctx)
	}))

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Start()
	}()

	log.WithField("environment", cfg.Environment).Info("fanpool is running")
	select {
	case <-ctx.Done():
	case err := <-serverErr:
		if err != nil {
			log.WithError(err).Error("HTTP server failed")
		}
	}

	log.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Error shutting down HTTP server")
	}

	if discordBot != nil {
		if err := discordBot.Close(); err != nil {
			log.WithError(err).Error("Error closing Discord bot")
		}
	}

	// Let in-flight event handlers finish before closing their sinks
	if err := eventBus.Wait(shutdownCtx); err != nil {
		log.WithError(err).Warn("Timed out waiting for event handlers")
	}

	if natsClient != nil {
		if err := natsClient.Close(); err != nil {
			log.WithError(err).Error("Error closing NATS connection")
		}
	}

	log.Info("Shutdown completed")
	return nil
}
