// Package analytics reads deployment build/runtime logs out of the
// append-only, time-ordered ClickHouse log table. Nothing in this
// repository writes to that table; this package only serves the read
// path behind GET /deployments/{id}/logs.
package analytics

import (
	"context"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
)

type LogLine struct {
	DeploymentID string    `json:"deploymentId"`
	Timestamp    time.Time `json:"timestamp"`
	Stream       string    `json:"stream"`
	Message      string    `json:"message"`
}

// LogReader returns deployment log lines ordered by timestamp within a
// range. One real implementation over ClickHouse, one fake for tests
// that don't want a live database.
type LogReader interface {
	ReadLogs(ctx context.Context, deploymentID string, from, to time.Time) ([]LogLine, error)
}

type ClickHouseLogReader struct {
	conn clickhouse.Conn
}

func NewClickHouseLogReader(conn clickhouse.Conn) *ClickHouseLogReader {
	return &ClickHouseLogReader{conn: conn}
}

func (r *ClickHouseLogReader) ReadLogs(ctx context.Context, deploymentID string, from, to time.Time) ([]LogLine, error) {
	const q = `
		SELECT deployment_id, timestamp, stream, message
		FROM deployment_logs
		WHERE deployment_id = ? AND timestamp >= ? AND timestamp <= ?
		ORDER BY timestamp ASC`

	rows, err := r.conn.Query(ctx, q, deploymentID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []LogLine
	for rows.Next() {
		var l LogLine
		if err := rows.Scan(&l.DeploymentID, &l.Timestamp, &l.Stream, &l.Message); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

// FakeLogReader is an in-memory LogReader for tests.
type FakeLogReader struct {
	Lines map[string][]LogLine
}

func NewFakeLogReader() *FakeLogReader {
	return &FakeLogReader{Lines: make(map[string][]LogLine)}
}

func (f *FakeLogReader) ReadLogs(ctx context.Context, deploymentID string, from, to time.Time) ([]LogLine, error) {
	var result []LogLine
	for _, l := range f.Lines[deploymentID] {
		if !l.Timestamp.Before(from) && !l.Timestamp.After(to) {
			result = append(result, l)
		}
	}
	return result, nil
}
