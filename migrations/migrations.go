package migrations

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

var retryDelay = 1 * time.Second

// The users table deliberately has no unique index on username.
var statements = []struct {
	name  string
	query string
}{
	{
		name: "users",
		query: `
		CREATE TABLE IF NOT EXISTS users (
			id INT AUTO_INCREMENT PRIMARY KEY,
			username VARCHAR(255) NOT NULL,
			password VARCHAR(255) NOT NULL,
			INDEX username_idx (username)
		);
	`,
	},
	{
		name: "tasks",
		query: `
		CREATE TABLE IF NOT EXISTS tasks (
			id INT AUTO_INCREMENT PRIMARY KEY,
			task TEXT NOT NULL,
			task_id VARCHAR(255) NOT NULL,
			stage VARCHAR(255) NOT NULL,
			user_id VARCHAR(64) NULL
		);
	`,
	},
}

// AutoMigrate creates the users and tasks tables if they do not exist,
// retrying each statement up to retries extra times.
func AutoMigrate(ctx context.Context, retries int, db *sql.DB) error {
	for _, stmt := range statements {
		_, err := db.ExecContext(ctx, stmt.query)
		for i := 0; err != nil && i < retries; i++ {
			log.Warn().Err(err).Msgf("Retry %d: creating %s table", i+1, stmt.name)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(retryDelay):
			}
			_, err = db.ExecContext(ctx, stmt.query)
		}
		if err != nil {
			return fmt.Errorf("create %s table: %w", stmt.name, err)
		}
	}
	return nil
}
