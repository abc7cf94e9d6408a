package database

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/cryptonak/loms/shared"
	"github.com/davecgh/go-spew/spew"
	rqlitehttp "github.com/rqlite/rqlite-go-http"
	"github.com/rs/zerolog"
)

const (
	// SQL statements.
	createPositionTableSQL = "CREATE TABLE IF NOT EXISTS position (id TEXT PRIMARY KEY, symbol TEXT, exchange TEXT, markettype TEXT, side TEXT, qty REAL, entryprice REAL, tpprice REAL, slprice REAL, exitstrategy TEXT, status TEXT, closeprice REAL, pnl REAL, closereason TEXT, createdon INTEGER, closedon INTEGER)"
	createStatsTableSQL    = "CREATE TABLE IF NOT EXISTS stats (id TEXT PRIMARY KEY, total INTEGER, wins INTEGER, losses INTEGER, totalpnl REAL, createdon INTEGER)"
	insertPositionSQL      = "INSERT INTO position(id, symbol, exchange, markettype, side, qty, entryprice, tpprice, slprice, exitstrategy, status, createdon) VALUES(?,?,?,?,?,?,?,?,?,?,?,?)"
	closePositionSQL       = "UPDATE position SET status = ?, closeprice = ?, pnl = ?, closereason = ?, closedon = ? WHERE id = ?"
	findStatsSQL           = "SELECT * FROM stats WHERE id = ?"
	updateStatsSQL         = "UPDATE stats SET total = total + 1, wins = wins + ?, losses = losses + ?, totalpnl = totalpnl + ? WHERE id = ?"
	insertStatsSQL         = "INSERT INTO stats(id, total, wins, losses, totalpnl, createdon) VALUES(?,?,?,?,?,?)"
)

// PositionStorer defines the requirements for journaling position
// lifecycle events.
type PositionStorer interface {
	// RecordOpenedPosition stores the provided opened position.
	RecordOpenedPosition(ctx context.Context, pos *shared.Position) error
	// RecordClosedPosition stores the provided closed position and folds
	// it into the aggregate stats.
	RecordClosedPosition(ctx context.Context, pos *shared.Position) error
}

// DatabaseConfig is the configuration for the database.
type DatabaseConfig struct {
	// Endpoint represents the database connection endpoint.
	Endpoint string
	// User is the database user.
	User string
	// Pass is the database user pass.
	Pass string
	// Logger is the database logger.
	Logger *zerolog.Logger
}

// Database represents the database connection.
type Database struct {
	cfg    *DatabaseConfig
	client *rqlitehttp.Client
}

// Ensure the database implements the PositionStorer interface.
var _ PositionStorer = (*Database)(nil)

// NewDatabase initializes a new database connection.
func NewDatabase(ctx context.Context, cfg *DatabaseConfig) (*Database, error) {
	httpc := &http.Client{Timeout: time.Second * 5}
	client, err := rqlitehttp.NewClient(cfg.Endpoint, httpc)
	if err != nil {
		return nil, fmt.Errorf("creating database client: %w", err)
	}

	client.SetBasicAuth(cfg.User, cfg.Pass)

	db := &Database{
		cfg:    cfg,
		client: client,
	}

	err = db.bootstrap(ctx)
	if err != nil {
		return nil, fmt.Errorf("bootstrapping database: %w", err)
	}

	return db, nil
}

// bootstrap initializes the database.
func (db *Database) bootstrap(ctx context.Context) error {
	_, err := db.client.Execute(ctx, rqlitehttp.SQLStatements{
		{SQL: createPositionTableSQL},
		{SQL: createStatsTableSQL},
	}, &rqlitehttp.ExecuteOptions{
		Transaction: true,
		Timings:     true,
	})
	if err != nil {
		return err
	}

	return nil
}

// generateStatsID generates deterministic ids for stats rows using the
// current month, week and symbol.
func generateStatsID(currentTime time.Time, symbol string) string {
	month := currentTime.Month().String()
	week := currentTime.Day() / 7

	id := fmt.Sprintf("%s-Week-%d-%s", month, week, symbol)
	return id
}

// nullableFloat unwraps an optional float for a positional parameter.
func nullableFloat(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

// RecordOpenedPosition stores the provided opened position.
func (db *Database) RecordOpenedPosition(ctx context.Context, pos *shared.Position) error {
	resp, err := db.client.Execute(ctx, rqlitehttp.SQLStatements{
		{
			SQL: insertPositionSQL,
			PositionalParams: []any{pos.ID, pos.Symbol, pos.Exchange, pos.MarketType,
				pos.Side.String(), pos.Qty, pos.EntryPrice, nullableFloat(pos.TPPrice),
				nullableFloat(pos.SLPrice), pos.ExitStrategy, pos.Status.String(),
				pos.CreatedOn.Unix()},
		},
	}, &rqlitehttp.ExecuteOptions{Transaction: true, Timings: true})
	if err != nil {
		return err
	}

	has, idx, errStr := resp.HasError()
	if has {
		return fmt.Errorf("recording opened position %s: %d -> %s", pos.ID, idx, errStr)
	}

	return nil
}

// RecordClosedPosition stores the provided closed position and folds it
// into the aggregate stats for its symbol.
func (db *Database) RecordClosedPosition(ctx context.Context, pos *shared.Position) error {
	if pos.ClosePrice == nil || pos.PNL == nil || pos.ClosedOn == nil {
		return fmt.Errorf("recording closed position %s: missing closing data", pos.ID)
	}

	resp, err := db.client.Execute(ctx, rqlitehttp.SQLStatements{
		{
			SQL: closePositionSQL,
			PositionalParams: []any{pos.Status.String(), *pos.ClosePrice, *pos.PNL,
				pos.CloseReason, pos.ClosedOn.Unix(), pos.ID},
		},
	}, &rqlitehttp.ExecuteOptions{Transaction: true, Timings: true})
	if err != nil {
		return err
	}

	has, idx, errStr := resp.HasError()
	if has {
		return fmt.Errorf("recording closed position %s: %d -> %s", pos.ID, idx, errStr)
	}

	var win, loss int
	switch {
	case *pos.PNL > 0:
		win++
	case *pos.PNL < 0:
		loss++
	default:
		db.cfg.Logger.Info().Msgf("flat close excluded from win/loss stats: %s", spew.Sdump(pos))
	}

	id := generateStatsID(*pos.ClosedOn, pos.Symbol)
	found, err := db.client.QuerySingle(ctx, findStatsSQL, id)
	if err != nil {
		return err
	}

	exists := len(found.GetQueryResultsAssoc()) > 0
	switch {
	case exists:
		resp, err := db.client.Execute(ctx, rqlitehttp.SQLStatements{
			{
				SQL:              updateStatsSQL,
				PositionalParams: []any{win, loss, *pos.PNL, id},
			},
		}, &rqlitehttp.ExecuteOptions{Transaction: true, Timings: true})
		if err != nil {
			return err
		}
		has, idx, errStr := resp.HasError()
		if has {
			return fmt.Errorf("updating stats %s: %d -> %s", id, idx, errStr)
		}
	default:
		resp, err := db.client.Execute(ctx, rqlitehttp.SQLStatements{
			{
				SQL:              insertStatsSQL,
				PositionalParams: []any{id, 1, win, loss, *pos.PNL, pos.ClosedOn.Unix()},
			},
		}, &rqlitehttp.ExecuteOptions{Transaction: true, Timings: true})
		if err != nil {
			return err
		}
		has, idx, errStr := resp.HasError()
		if has {
			return fmt.Errorf("inserting stats %s: %d -> %s", id, idx, errStr)
		}
	}

	return nil
}
