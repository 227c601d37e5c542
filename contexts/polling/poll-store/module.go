package pollstore

import (
	"log/slog"
	"time"

	httpadapter "pollkeeper/contexts/polling/poll-store/adapters/http"
	"pollkeeper/contexts/polling/poll-store/adapters/memory"
	"pollkeeper/contexts/polling/poll-store/adapters/system"
	"pollkeeper/contexts/polling/poll-store/application/commands"
	"pollkeeper/contexts/polling/poll-store/application/queries"
	"pollkeeper/contexts/polling/poll-store/application/workers"
	"pollkeeper/contexts/polling/poll-store/ports"
)

type Module struct {
	Handler httpadapter.Handler
	Runner  *workers.ScheduleRunner
	Tables  ports.Tables
	Store   *memory.Store
}

type Dependencies struct {
	Store        ports.RecordStore
	Tables       ports.Tables
	Clock        ports.Clock
	IDGen        ports.IDGenerator
	Publisher    ports.EventPublisher
	Metrics      ports.LedgerMetrics
	Scheduler    ports.Scheduler
	FireTimeout  time.Duration
	DisableCrons bool
	Logger       *slog.Logger
}

func NewModule(deps Dependencies) Module {
	pollQueries := queries.PollQueries{
		Store:  deps.Store,
		Tables: deps.Tables,
		Logger: deps.Logger,
	}
	scheduleQueries := queries.ScheduleQueries{
		Store:  deps.Store,
		Tables: deps.Tables,
	}
	pollUseCase := commands.PollUseCase{
		Store:  deps.Store,
		Tables: deps.Tables,
		Clock:  deps.Clock,
		IDGen:  deps.IDGen,
		Logger: deps.Logger,
	}
	ledger := commands.VoteLedger{
		Store:     deps.Store,
		Tables:    deps.Tables,
		Polls:     pollQueries,
		PollRepo:  pollUseCase,
		Clock:     deps.Clock,
		IDGen:     deps.IDGen,
		Publisher: deps.Publisher,
		Metrics:   deps.Metrics,
		Logger:    deps.Logger,
	}
	module := Module{
		Handler: httpadapter.Handler{
			Polls: pollUseCase,
			Votes: ledger,
			Schedules: commands.ScheduleUseCase{
				Store:  deps.Store,
				Tables: deps.Tables,
				Logger: deps.Logger,
			},
			PollQueries:    pollQueries,
			ScheduleReader: scheduleQueries,
			Logger:         deps.Logger,
		},
		Tables: deps.Tables,
	}
	if deps.Scheduler != nil {
		module.Runner = &workers.ScheduleRunner{
			Schedules:   scheduleQueries,
			Polls:       pollQueries,
			PollRepo:    pollUseCase,
			Scheduler:   deps.Scheduler,
			Publisher:   deps.Publisher,
			Clock:       deps.Clock,
			IDGen:       deps.IDGen,
			FireTimeout: deps.FireTimeout,
			Disabled:    deps.DisableCrons,
			Logger:      deps.Logger,
		}
	}
	return module
}

// NewInMemoryModule wires the module against an empty in-process store.
func NewInMemoryModule(tableName string, logger *slog.Logger) Module {
	tables := ports.NewTables(tableName)
	store := memory.NewStore(tables)
	module := NewModule(Dependencies{
		Store:  store,
		Tables: tables,
		Clock:  system.SystemClock{},
		IDGen:  system.UUIDGenerator{},
		Logger: logger,
	})
	module.Store = store
	return module
}
