package warehouse

import (
	"fmt"

	"github.com/user/datalake/internal/schema"
)

// Migrate creates or updates the tables and views described by the schema
// descriptors. Production warehouses are usually provisioned externally; this
// is for local and test databases.
func (c *Client) Migrate() error {
	if err := c.db.AutoMigrate(AllModels()...); err != nil {
		return fmt.Errorf("warehouse: auto-migrate: %w", err)
	}
	for _, stmt := range viewStatements(c.dialect) {
		if err := c.db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("warehouse: create view: %w", err)
		}
	}
	return nil
}

func viewStatements(dialect string) []string {
	switch dialect {
	case schema.DialectMySQL:
		return []string{
			`CREATE OR REPLACE VIEW v_emails AS
			SELECT event_id, timestamp, event_type,
				JSON_UNQUOTE(JSON_EXTRACT(payload, '$.from')) AS sender,
				JSON_UNQUOTE(JSON_EXTRACT(payload, '$.to')) AS recipient,
				JSON_UNQUOTE(JSON_EXTRACT(payload, '$.subject')) AS subject,
				JSON_UNQUOTE(JSON_EXTRACT(payload, '$.snippet')) AS snippet
			FROM events WHERE source = 'gmail'`,
			`CREATE OR REPLACE VIEW v_daily_event_counts AS
			SELECT DATE(timestamp) AS day, source, event_type, COUNT(*) AS event_count
			FROM events GROUP BY DATE(timestamp), source, event_type`,
		}
	case schema.DialectSQLite:
		return []string{
			`CREATE VIEW IF NOT EXISTS v_emails AS
			SELECT event_id, timestamp, event_type,
				json_extract(payload, '$.from') AS sender,
				json_extract(payload, '$.to') AS recipient,
				json_extract(payload, '$.subject') AS subject,
				json_extract(payload, '$.snippet') AS snippet
			FROM events WHERE source = 'gmail'`,
			`CREATE VIEW IF NOT EXISTS v_daily_event_counts AS
			SELECT date(timestamp) AS day, source, event_type, COUNT(*) AS event_count
			FROM events GROUP BY date(timestamp), source, event_type`,
		}
	}
	return nil
}
