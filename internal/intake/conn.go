package intake

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// DialChannel returns a DialFunc that opens a dedicated Postgres connection
// and subscribes it to channel via LISTEN.
func DialChannel(dsn, channel string) DialFunc {
	return func(ctx context.Context) (Conn, error) {
		conn, err := pgx.Connect(ctx, dsn)
		if err != nil {
			return nil, err
		}
		if _, err := conn.Exec(ctx, "listen "+pgx.Identifier{channel}.Sanitize()); err != nil {
			_ = conn.Close(ctx)
			return nil, err
		}
		return &pgxConn{conn: conn}, nil
	}
}

type pgxConn struct {
	conn *pgx.Conn
}

func (c *pgxConn) WaitForNotification(ctx context.Context) (string, error) {
	notification, err := c.conn.WaitForNotification(ctx)
	if err != nil {
		return "", err
	}
	return notification.Payload, nil
}

func (c *pgxConn) Close(ctx context.Context) error {
	return c.conn.Close(ctx)
}
