package db

import (
	"context"
	"log"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
)

// ClickHouse holds the connection backing the deployment log analytics reader.
var ClickHouse clickhouse.Conn

// ConnectClickHouse opens a native-protocol connection and pings it.
func ConnectClickHouse(addr string) error {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{addr},
		Auth: clickhouse.Auth{
			Database: "flarenet",
		},
		DialTimeout: 10 * time.Second,
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := conn.Ping(ctx); err != nil {
		return err
	}

	ClickHouse = conn
	log.Printf("ClickHouse connected: %s", addr)
	return nil
}

func DisconnectClickHouse() error {
	if ClickHouse == nil {
		return nil
	}
	return ClickHouse.Close()
}
