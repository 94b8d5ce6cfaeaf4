package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/JasChiang/ai-video-writer-sub000/internal/domain"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

// Entry is one recorded top-level fetch: which period was queried, from
// which source, and what the channel totals were. The table accumulates a
// long-run trend line that outlives any single Redis snapshot.
type Entry struct {
	ID                int64             `json:"id"`
	ChannelID         string            `json:"channel_id"`
	PeriodStart       time.Time         `json:"period_start"`
	PeriodEnd         time.Time         `json:"period_end"`
	Source            domain.SourceMode `json:"source"`
	Views             int64             `json:"views"`
	WatchMinutes      int64             `json:"watch_minutes"`
	SubscribersGained int64             `json:"subscribers_gained"`
	SubscribersLost   int64             `json:"subscribers_lost"`
	RecordedAt        time.Time         `json:"recorded_at"`
}

type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
}

// Repository stores fetch history in Postgres.
type Repository struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewRepository(cfg Config, logger *zap.Logger) (*Repository, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	repo := &Repository{db: db, logger: logger}
	if err := repo.ensureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("History repository ready",
		zap.String("host", cfg.Host),
		zap.String("database", cfg.Database),
	)

	return repo, nil
}

func (r *Repository) ensureSchema(ctx context.Context) error {
	const ddl = `
		CREATE TABLE IF NOT EXISTS fetch_history (
			id                 BIGSERIAL PRIMARY KEY,
			channel_id         TEXT        NOT NULL,
			period_start       DATE        NOT NULL,
			period_end         DATE        NOT NULL,
			source             TEXT        NOT NULL,
			views              BIGINT      NOT NULL DEFAULT 0,
			watch_minutes      BIGINT      NOT NULL DEFAULT 0,
			subscribers_gained BIGINT      NOT NULL DEFAULT 0,
			subscribers_lost   BIGINT      NOT NULL DEFAULT 0,
			recorded_at        TIMESTAMPTZ NOT NULL DEFAULT now()
		);
		CREATE INDEX IF NOT EXISTS idx_fetch_history_channel
			ON fetch_history (channel_id, recorded_at DESC);`

	if _, err := r.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("failed to ensure history schema: %w", err)
	}
	return nil
}

// Record stores one successful top-level fetch. Failures here are logged by
// the caller and never abort the fetch itself.
func (r *Repository) Record(ctx context.Context, channelID string, rng domain.DateRange, source domain.SourceMode, agg *domain.ChannelAggregate) error {
	if agg == nil {
		return fmt.Errorf("aggregate must not be nil")
	}

	const query = `
		INSERT INTO fetch_history
			(channel_id, period_start, period_end, source, views, watch_minutes, subscribers_gained, subscribers_lost)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.db.ExecContext(ctx, query,
		channelID,
		rng.Start,
		rng.End,
		string(source),
		agg.Views,
		agg.EstimatedWatchMinutes,
		agg.SubscribersGained,
		agg.SubscribersLost,
	)
	if err != nil {
		return fmt.Errorf("failed to record fetch history: %w", err)
	}

	return nil
}

// RecentHistory returns the latest n entries for a channel, newest first.
func (r *Repository) RecentHistory(ctx context.Context, channelID string, n int) ([]*Entry, error) {
	const query = `
		SELECT id, channel_id, period_start, period_end, source,
		       views, watch_minutes, subscribers_gained, subscribers_lost, recorded_at
		FROM fetch_history
		WHERE channel_id = $1
		ORDER BY recorded_at DESC
		LIMIT $2`

	rows, err := r.db.QueryContext(ctx, query, channelID, n)
	if err != nil {
		return nil, fmt.Errorf("failed to query fetch history: %w", err)
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		entry := &Entry{}
		var source string
		if err := rows.Scan(
			&entry.ID,
			&entry.ChannelID,
			&entry.PeriodStart,
			&entry.PeriodEnd,
			&source,
			&entry.Views,
			&entry.WatchMinutes,
			&entry.SubscribersGained,
			&entry.SubscribersLost,
			&entry.RecordedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		entry.Source = domain.SourceMode(source)
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
