package container

import (
	"context"
	"database/sql"
	"fmt"

	sqldblogger "github.com/simukti/sqldb-logger"
	"github.com/yusufsyaifudin/ylog"

	"github.com/jmoiron/sqlx"
)

// queryLogger routes every SQL statement through ylog.Debug, the same
// wiring pkg/multidb/logger.go's QueryLogger gives to the corpus's own
// database connections.
type queryLogger struct{}

func (q *queryLogger) Log(ctx context.Context, level sqldblogger.Level, msg string, data map[string]interface{}) {
	ylog.Debug(ctx, msg, ylog.KV("level", level.String()), ylog.KV("sql", data))
}

var _ sqldblogger.Logger = (*queryLogger)(nil)

// connectDB opens a Postgres connection wrapped in sqldb-logger the way
// multidb_connect.go wraps every database driver it opens.
func connectDB(ctx context.Context, dsn string) (*sqlx.DB, error) {
	rawDB, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres driver: %w", err)
	}

	loggedDB := sqldblogger.OpenDriver(dsn, rawDB.Driver(), &queryLogger{},
		sqldblogger.WithConnectionIDFieldname("conn_id"),
		sqldblogger.WithSQLQueryFieldname("query"),
	)

	db := sqlx.NewDb(loggedDB, "postgres")
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return db, nil
}
