package app

import (
	"database/sql"

	"github.com/jeongsan/jeongsan/internal/config"
	"github.com/jeongsan/jeongsan/internal/event_bus"
	"github.com/jeongsan/jeongsan/internal/utils"
	"github.com/jeongsan/jeongsan/pkg/assignment"
	"github.com/jeongsan/jeongsan/pkg/distance"
	"github.com/jeongsan/jeongsan/pkg/operator"
	"github.com/jeongsan/jeongsan/pkg/override"
	"github.com/jeongsan/jeongsan/pkg/ratetable"
	"github.com/jeongsan/jeongsan/pkg/settlement"
	"github.com/jeongsan/jeongsan/pkg/travel"
	log "github.com/sirupsen/logrus"
)

// Dependencies holds all services and handlers for the application.
type Dependencies struct {
	EventBus *event_bus.EventBus

	OperatorService operator.Service
	OperatorHandler *operator.Handler

	AssignmentRepo    assignment.Repository
	AssignmentService assignment.Service
	AssignmentHandler *assignment.Handler

	DistanceProvider  distance.Provider
	RateLoader        *ratetable.Loader
	TravelAggregator  *travel.Aggregator
	TravelRepo        travel.Repository
	TravelService     travel.Service
	TravelHandler     *travel.Handler

	OverrideRepo    override.Repository
	OverrideService override.Service
	OverrideHandler *override.Handler

	SettlementRepo     settlement.Repository
	SettlementSettings settlement.SettingsRepository
	SettlementService  settlement.Service
	SettlementHandler  *settlement.Handler

	Clock utils.Clock
}

// BuildDependencies initializes and wires all application services and handlers.
func BuildDependencies(db *sql.DB, cfg config.Application) *Dependencies {
	deps := &Dependencies{}

	deps.EventBus = event_bus.NewEventBus()
	deps.Clock = &utils.SystemClock{}

	deps.OperatorService = operator.NewService(operator.NewRepo(db))
	deps.OperatorHandler = operator.NewHandler(deps.OperatorService)

	deps.AssignmentRepo = assignment.NewRepository(db)
	deps.AssignmentService = assignment.NewService(deps.AssignmentRepo, deps.EventBus)
	deps.AssignmentHandler = assignment.NewHandler(deps.AssignmentService)

	deps.DistanceProvider = distance.NewCachingProvider(
		distance.NewClient(cfg.Distance),
		distance.NewCacheRepository(db),
	)
	deps.RateLoader = ratetable.NewLoader(cfg.Settlement.RatesDir)
	deps.TravelAggregator = travel.NewAggregator(deps.DistanceProvider)
	deps.TravelRepo = travel.NewRepository(db)
	deps.TravelService = travel.NewService(deps.TravelRepo)
	deps.TravelHandler = travel.NewHandler(deps.TravelService)

	deps.OverrideRepo = override.NewRepository(db)

	deps.SettlementRepo = settlement.NewRepository(db)
	deps.SettlementSettings = settlement.NewSettingsRepository(db)
	settlementService := settlement.NewService(
		deps.AssignmentRepo,
		deps.RateLoader,
		deps.TravelAggregator,
		deps.OverrideRepo,
		deps.SettlementSettings,
		deps.TravelRepo,
		deps.SettlementRepo,
		deps.EventBus,
		defaultEligibilityMode(cfg),
	)
	deps.SettlementService = settlementService
	deps.SettlementHandler = settlement.NewHandler(settlementService)

	deps.OverrideService = override.NewService(deps.OverrideRepo, settlementService.RowInfo, deps.Clock, deps.EventBus)
	deps.OverrideHandler = override.NewHandler(deps.OverrideService)

	// Every mutation that can change settlement output triggers a full
	// recomputation before the mutating call returns.
	recompute := func(e event_bus.Event) error {
		return settlementService.Recompute(e.Context())
	}
	deps.EventBus.Subscribe(event_bus.AssignmentsImportedEvent, recompute)
	deps.EventBus.Subscribe(event_bus.OverridesChangedEvent, recompute)
	deps.EventBus.Subscribe(event_bus.EligibilityModeChangedEvent, recompute)

	return deps
}

func defaultEligibilityMode(cfg config.Application) settlement.EligibilityMode {
	mode, err := settlement.ParseEligibilityMode(cfg.Settlement.DefaultEligibilityMode)
	if err != nil {
		log.Warnf("invalid default eligibility mode %q, falling back to %s",
			cfg.Settlement.DefaultEligibilityMode, settlement.ModeOnlyConfirmedEnded)
		return settlement.ModeOnlyConfirmedEnded
	}
	return mode
}
