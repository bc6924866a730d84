package store

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/Ftotnem/LEAGUE-SERVICES/shared/config"
	"github.com/Ftotnem/LEAGUE-SERVICES/shared/docstore"
	"github.com/Ftotnem/LEAGUE-SERVICES/shared/mongodb"
	"github.com/Ftotnem/LEAGUE-SERVICES/shared/sqlitedb"
)

// Open connects the document store selected by cfg.Backend.
func Open(ctx context.Context, cfg config.StoreConfig) (docstore.Store, error) {
	switch cfg.Backend {
	case config.BackendMongo:
		client, err := mongodb.NewClient(ctx, cfg.MongoDBConnStr, cfg.MongoDBDatabase)
		if err != nil {
			return nil, err
		}
		return mongodb.NewDocStore(client, map[string]string{
			TeamsCollection:   cfg.MongoDBTeamsCollection,
			GroupsCollection:  cfg.MongoDBGroupsCollection,
			MatchesCollection: cfg.MongoDBMatchesCollection,
		}, cfg.TxMaxAttempts), nil
	case config.BackendSQLite:
		return sqlitedb.Open(ctx, sqlitedb.Options{
			Path:        cfg.SQLitePath,
			PrimaryURL:  cfg.LibSQLURL,
			AuthToken:   cfg.LibSQLAuthToken,
			MaxAttempts: cfg.TxMaxAttempts,
		})
	case config.BackendMemory:
		log.Warn("Using the in-memory document store, data is lost on exit")
		return docstore.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}
