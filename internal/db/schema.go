package db

import "fmt"

const schema = `
CREATE TABLE IF NOT EXISTS orders (
	id           UUID PRIMARY KEY,
	customer_id  TEXT NOT NULL,
	total_amount NUMERIC(12, 2) NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS order_items (
	id         SERIAL PRIMARY KEY,
	order_id   UUID NOT NULL REFERENCES orders(id),
	product_id TEXT NOT NULL,
	quantity   INTEGER NOT NULL,
	price      NUMERIC(12, 2) NOT NULL
);
`

// EnsureSchema creates the order tables if they are missing.
func EnsureSchema(database *PostgresDB) error {
	if _, err := database.Conn.Exec(schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}
