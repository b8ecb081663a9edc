package svc

import (
	"context"
	"log"
	"path/filepath"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx driver
	"github.com/zeromicro/go-zero/core/stores/sqlx"

	"gridserver/internal/cache"
	"gridserver/internal/config"
	engineStore "gridserver/internal/persistence/engine"
	"gridserver/internal/repo"
	"gridserver/pkg/gridengine"
)

// ServiceContext wires the loaded config into the long-lived collaborators
// the HTTP handlers share: the grid engine, its durable state store, the
// trade ledger (or its journal fallback), and the UI snapshot cache.
type ServiceContext struct {
	Config config.Config

	Engine  *gridengine.Engine
	UICache *cache.UISnapshotCache

	dbConn sqlx.SqlConn
}

// NewServiceContext builds the ServiceContext from a loaded config,
// hydrating the engine's state file and wiring the trade ledger only when
// a Postgres data source is configured — exactly the pattern the teacher
// uses to only inject DB models when a DSN is present.
func NewServiceContext(c config.Config) *ServiceContext {
	svcCtx := &ServiceContext{Config: c}

	engineCfg := gridengine.EngineConfig{PriceHistorySize: 100, StateFile: "gridstate.json"}
	if c.Engine.Value != nil {
		engineCfg = *c.Engine.Value
	}
	statePath := engineCfg.StateFile
	if !filepath.IsAbs(statePath) {
		statePath = filepath.Join(c.DataPath, statePath)
	}

	store, err := engineStore.NewJSONStore(statePath)
	if err != nil {
		log.Fatalf("failed to init state store: %v", err)
	}

	var ledgerSink gridengine.LedgerSink
	if c.LedgerEnabled() {
		conn := sqlx.NewSqlConn("pgx", c.Postgres.DataSource)
		svcCtx.dbConn = conn
		ledgerSink = repo.NewLedgerWriter(conn, c.Ledger.ChannelBuffer, c.Ledger.BatchSize, c.Ledger.FlushInterval)
	} else {
		ledgerSink = repo.NewJournalSink(filepath.Join(c.DataPath, "ledger"))
	}

	engine, err := gridengine.NewEngine(store, engineCfg.PriceHistorySize, gridengine.WithLedger(ledgerSink))
	if err != nil {
		log.Fatalf("failed to load engine state: %v", err)
	}
	svcCtx.Engine = engine
	svcCtx.UICache = cache.NewUISnapshotCache(cache.UISnapshotTTL(cache.NewTTLSet(c.TTL)))

	return svcCtx
}

// LedgerStatus reports the trade ledger's health for GET /api/health:
// "disabled" when no DSN is configured, "degraded" when configured but
// unreachable, "ok" otherwise.
func (s *ServiceContext) LedgerStatus() string {
	if !s.Config.LedgerEnabled() {
		return "disabled"
	}
	if s.dbConn == nil {
		return "degraded"
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	var ok int
	if err := s.dbConn.QueryRowCtx(ctx, &ok, "SELECT 1"); err != nil {
		return "degraded"
	}
	return "ok"
}
