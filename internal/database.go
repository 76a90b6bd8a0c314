package internal

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

var (
	ErrDatabaseDisabled = errors.New("database not enabled")
	ErrLinkNotFound     = errors.New("linked account not found")
)

type DatabaseManager struct {
	DB      *sql.DB
	Enabled bool
	logger  *Logger
}

// NewDatabaseManager connects to Postgres. Any connection failure leaves the
// manager disabled rather than failing startup.
func NewDatabaseManager(ctx context.Context, cfg *Config, logger *Logger) *DatabaseManager {
	if logger == nil {
		logger = NopLogger()
	}
	if !cfg.DatabaseEnabled {
		logger.Info("database_disabled").
			Component("database").
			Operation("connect").
			Log()
		return &DatabaseManager{Enabled: false, logger: logger}
	}

	db, err := sql.Open("postgres", cfg.PostgresDSN())
	if err != nil {
		logger.Error("database_open_failed").
			Component("database").
			Operation("connect").
			Err(err).
			Log()
		return &DatabaseManager{Enabled: false, logger: logger}
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		logger.Error("database_ping_failed").
			Component("database").
			Operation("connect").
			Err(err).
			Log()
		db.Close()
		return &DatabaseManager{Enabled: false, logger: logger}
	}

	logger.Info("database_connected").
		Component("database").
		Operation("connect").
		Meta("host", cfg.PostgresHost).
		Meta("database", cfg.PostgresDb).
		Log()
	return &DatabaseManager{
		DB:      db,
		Enabled: true,
		logger:  logger,
	}
}

// Migrate applies the embedded goose migrations.
func (dm *DatabaseManager) Migrate(ctx context.Context) error {
	if !dm.Enabled {
		return ErrDatabaseDisabled
	}

	goose.SetBaseFS(embedMigrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, dm.DB, "migrations"); err != nil {
		return fmt.Errorf("failed to run goose migrations: %w", err)
	}

	dm.logger.Info("migrations_applied").
		Component("database").
		Operation("migrate").
		Log()
	return nil
}

func (dm *DatabaseManager) Ping(ctx context.Context) error {
	if !dm.Enabled {
		return nil
	}
	return dm.DB.PingContext(ctx)
}

// LinkAccount upserts the link for link.UserID and returns the stored row.
// With the database disabled it is a no-op.
func (dm *DatabaseManager) LinkAccount(ctx context.Context, link LinkedAccount) (*LinkedAccount, error) {
	if !dm.Enabled {
		return &link, nil
	}

	query := `
		INSERT INTO linked_accounts (user_id, puuid, game_name, tag_line, summoner_id, region, summoner_level, discord_username)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (user_id) DO UPDATE SET
			puuid = EXCLUDED.puuid,
			game_name = EXCLUDED.game_name,
			tag_line = EXCLUDED.tag_line,
			summoner_id = EXCLUDED.summoner_id,
			region = EXCLUDED.region,
			summoner_level = EXCLUDED.summoner_level,
			discord_username = EXCLUDED.discord_username,
			updated_at = NOW()
		RETURNING linked_at, updated_at
	`

	var discord sql.NullString
	if link.DiscordUsername != "" {
		discord = sql.NullString{String: link.DiscordUsername, Valid: true}
	}

	err := dm.DB.QueryRowContext(ctx, query,
		link.UserID,
		link.PUUID,
		link.GameName,
		link.TagLine,
		link.SummonerID,
		link.Region,
		link.SummonerLevel,
		discord,
	).Scan(&link.LinkedAt, &link.UpdatedAt)
	if err != nil {
		dm.logger.Error("link_account_failed").
			Component("database").
			Operation("link_account").
			Player(link.GameName+"#"+link.TagLine, link.PUUID).
			Meta("user_id", link.UserID).
			Err(err).
			Log()
		return nil, err
	}

	dm.logger.Info("account_linked").
		Component("database").
		Operation("link_account").
		Player(link.GameName+"#"+link.TagLine, link.PUUID).
		Meta("user_id", link.UserID).
		Log()
	return &link, nil
}

func (dm *DatabaseManager) GetLinkedAccount(ctx context.Context, userID string) (*LinkedAccount, error) {
	if !dm.Enabled {
		return nil, ErrDatabaseDisabled
	}

	query := `
		SELECT user_id, puuid, game_name, tag_line, summoner_id, region, summoner_level, discord_username, linked_at, updated_at
		FROM linked_accounts
		WHERE user_id = $1
	`

	var (
		link    LinkedAccount
		discord sql.NullString
	)
	err := dm.DB.QueryRowContext(ctx, query, userID).Scan(
		&link.UserID,
		&link.PUUID,
		&link.GameName,
		&link.TagLine,
		&link.SummonerID,
		&link.Region,
		&link.SummonerLevel,
		&discord,
		&link.LinkedAt,
		&link.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrLinkNotFound
	}
	if err != nil {
		return nil, err
	}
	link.DiscordUsername = discord.String
	return &link, nil
}

func (dm *DatabaseManager) Close() {
	if dm.Enabled && dm.DB != nil {
		dm.DB.Close()
	}
}
