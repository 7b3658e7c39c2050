package history

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/savorly/dish-search/internal/config"
	"github.com/savorly/dish-search/internal/models"
	"github.com/savorly/dish-search/internal/observability"
)

// Client stores interaction history and query analytics in ClickHouse.
// Interactions are append-only; profile rebuilds read them back one row
// per recorded event.
type Client struct {
	conn   driver.Conn
	logger *zap.Logger
}

func NewClient(cfg config.ClickHouseConfig, logger *zap.Logger) (*Client, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: cfg.Addresses,
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
		Settings: clickhouse.Settings{
			"max_execution_time": int(cfg.QueryTimeout.Seconds()),
		},
		DialTimeout:  cfg.DialTimeout,
		MaxOpenConns: cfg.MaxOpenConns,
		MaxIdleConns: cfg.MaxIdleConns,
	})
	if err != nil {
		return nil, fmt.Errorf("opening clickhouse connection: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.DialTimeout)
	defer cancel()

	if err := conn.Ping(ctx); err != nil {
		return nil, fmt.Errorf("pinging clickhouse: %w", err)
	}

	logger.Info("clickhouse client connected", zap.Strings("addresses", cfg.Addresses))

	return &Client{conn: conn, logger: logger}, nil
}

// EnsureTables creates the interaction and analytics tables when absent.
func (c *Client) EnsureTables(ctx context.Context) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS interactions (
			user_id String,
			item_id String,
			relevance Float64,
			event_type LowCardinality(String),
			timestamp DateTime64(3)
		) ENGINE = MergeTree()
		ORDER BY (user_id, timestamp)`,
		`CREATE TABLE IF NOT EXISTS query_performance (
			event_type LowCardinality(String),
			query_hash String,
			intent LowCardinality(String),
			duration_ms Float64,
			total_hits Int64,
			timestamp DateTime64(3),
			trace_id String,
			source LowCardinality(String)
		) ENGINE = MergeTree()
		ORDER BY timestamp`,
	}
	for _, stmt := range ddl {
		if err := c.conn.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("creating clickhouse table: %w", err)
		}
	}
	return nil
}

// AppendInteraction records one interaction event.
func (c *Client) AppendInteraction(ctx context.Context, event *models.InteractionEvent) error {
	ctx, span := observability.StartSpan(ctx, "ch.append_interaction",
		attribute.String("event_type", event.EventType),
	)
	defer span.End()

	start := time.Now()
	err := c.conn.Exec(ctx,
		`INSERT INTO interactions (user_id, item_id, relevance, event_type, timestamp)
		 VALUES (?, ?, ?, ?, ?)`,
		event.UserID,
		event.ItemID,
		event.Relevance,
		event.EventType,
		event.Timestamp,
	)
	status := "success"
	if err != nil {
		status = "error"
	}
	observability.CHQueryDuration.WithLabelValues("append_interaction", status).Observe(time.Since(start).Seconds())
	if err != nil {
		return fmt.Errorf("ch insert interaction: %w", err)
	}
	return nil
}

// Interactions returns the full history, one row per recorded event.
// Rows are deliberately not pre-aggregated: the profile builder averages
// price buckets across individual events, and collapsing repeats per
// (user, item) would skew that mean.
func (c *Client) Interactions(ctx context.Context) ([]models.Interaction, error) {
	ctx, span := observability.StartSpan(ctx, "ch.load_interactions")
	defer span.End()

	start := time.Now()
	rows, err := c.conn.Query(ctx, `
		SELECT user_id, item_id, relevance
		FROM interactions
		ORDER BY user_id, timestamp
	`)
	if err != nil {
		observability.CHQueryDuration.WithLabelValues("load_interactions", "error").Observe(time.Since(start).Seconds())
		return nil, fmt.Errorf("ch interactions query: %w", err)
	}
	defer rows.Close()

	var out []models.Interaction
	for rows.Next() {
		var in models.Interaction
		if err := rows.Scan(&in.UserID, &in.ItemID, &in.Relevance); err != nil {
			return nil, fmt.Errorf("scanning interaction row: %w", err)
		}
		out = append(out, in)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating interaction rows: %w", err)
	}
	observability.CHQueryDuration.WithLabelValues("load_interactions", "success").Observe(time.Since(start).Seconds())
	return out, nil
}

// UserInteractions returns one user's aggregated history.
func (c *Client) UserInteractions(ctx context.Context, userID string) ([]models.Interaction, error) {
	rows, err := c.conn.Query(ctx, `
		SELECT user_id, item_id, sum(relevance) AS relevance
		FROM interactions
		WHERE user_id = ?
		GROUP BY user_id, item_id
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("ch user interactions query: %w", err)
	}
	defer rows.Close()

	var out []models.Interaction
	for rows.Next() {
		var in models.Interaction
		if err := rows.Scan(&in.UserID, &in.ItemID, &in.Relevance); err != nil {
			return nil, fmt.Errorf("scanning interaction row: %w", err)
		}
		out = append(out, in)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating interaction rows: %w", err)
	}
	return out, nil
}

// WriteQueryPerformance records a slow or sampled query for offline analysis.
func (c *Client) WriteQueryPerformance(ctx context.Context, event *models.AnalyticsEvent) error {
	return c.conn.Exec(ctx, `
		INSERT INTO query_performance (
			event_type, query_hash, intent, duration_ms,
			total_hits, timestamp, trace_id, source
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		event.EventType,
		event.QueryHash,
		event.Intent,
		event.DurationMs,
		event.TotalHits,
		event.Timestamp,
		event.TraceID,
		event.Source,
	)
}

func (c *Client) HealthCheck(ctx context.Context) error {
	return c.conn.Ping(ctx)
}

func (c *Client) Close() error {
	return c.conn.Close()
}
