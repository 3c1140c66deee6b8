// Package repository loads the trust-network state (safes, balances,
// trust percentages) from PostgreSQL.
package repository

import (
	"context"
	"embed"
	"fmt"

	"pathfinder/internal/types"
	"pathfinder/pkg/apperror"
	"pathfinder/pkg/database"
	"pathfinder/pkg/telemetry"
)

// Migrations содержит SQL миграции схемы trust-графа
//
//go:embed migrations/*.sql
var Migrations embed.FS

// MigrationsDir is the directory inside Migrations passed to goose.
const MigrationsDir = "migrations"

// SafeRepository provides read access to the trust-network state.
type SafeRepository interface {
	// LoadAll reads the complete safe state: every safe with its
	// balances and outgoing trust percentages.
	LoadAll(ctx context.Context) (map[types.Address]*types.Safe, error)

	// CountSafes returns the number of stored safes.
	CountSafes(ctx context.Context) (int, error)
}

// PostgresSafeRepository PostgreSQL реализация
type PostgresSafeRepository struct {
	db database.DB
}

// NewPostgresSafeRepository создаёт новый репозиторий
func NewPostgresSafeRepository(db database.DB) *PostgresSafeRepository {
	return &PostgresSafeRepository{db: db}
}

// LoadAll reads safes, balances and trusts in three scans and stitches
// them into the in-memory safe map the graph builder consumes.
func (r *PostgresSafeRepository) LoadAll(ctx context.Context) (map[types.Address]*types.Safe, error) {
	ctx, span := telemetry.StartSpan(ctx, "PostgresSafeRepository.LoadAll")
	defer span.End()

	safes, err := r.loadSafes(ctx)
	if err != nil {
		return nil, err
	}
	if err := r.loadBalances(ctx, safes); err != nil {
		return nil, err
	}
	if err := r.loadTrusts(ctx, safes); err != nil {
		return nil, err
	}

	return safes, nil
}

func (r *PostgresSafeRepository) loadSafes(ctx context.Context) (map[types.Address]*types.Safe, error) {
	rows, err := r.db.Query(ctx, `
		SELECT address, token_address, organization
		FROM safes
	`)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.CodeStorage, "failed to load safes")
	}
	defer rows.Close()

	safes := make(map[types.Address]*types.Safe)
	for rows.Next() {
		var addressHex, tokenHex string
		var organization bool
		if err := rows.Scan(&addressHex, &tokenHex, &organization); err != nil {
			return nil, apperror.Wrap(err, apperror.CodeStorage, "failed to scan safe row")
		}

		address, err := types.ParseAddress(addressHex)
		if err != nil {
			return nil, apperror.Wrap(err, apperror.CodeInvalidAddress, "malformed safe address in store")
		}
		token, err := types.ParseAddress(tokenHex)
		if err != nil {
			return nil, apperror.Wrap(err, apperror.CodeInvalidAddress, "malformed token address in store")
		}

		safe := types.NewSafe(token)
		safe.Organization = organization
		safes[address] = safe
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.Wrap(err, apperror.CodeStorage, "failed to iterate safe rows")
	}

	return safes, nil
}

func (r *PostgresSafeRepository) loadBalances(ctx context.Context, safes map[types.Address]*types.Safe) error {
	rows, err := r.db.Query(ctx, `
		SELECT safe_address, token_address, balance::text
		FROM balances
	`)
	if err != nil {
		return apperror.Wrap(err, apperror.CodeStorage, "failed to load balances")
	}
	defer rows.Close()

	for rows.Next() {
		var safeHex, tokenHex, balanceDec string
		if err := rows.Scan(&safeHex, &tokenHex, &balanceDec); err != nil {
			return apperror.Wrap(err, apperror.CodeStorage, "failed to scan balance row")
		}

		address, err := types.ParseAddress(safeHex)
		if err != nil {
			return apperror.Wrap(err, apperror.CodeInvalidAddress, "malformed balance owner in store")
		}
		safe, ok := safes[address]
		if !ok {
			// Баланс без safe - пропускаем
			continue
		}

		token, err := types.ParseAddress(tokenHex)
		if err != nil {
			return apperror.Wrap(err, apperror.CodeInvalidAddress, "malformed balance token in store")
		}
		balance, err := types.ParseDecimalU256(balanceDec)
		if err != nil {
			return apperror.Wrap(err, apperror.CodeInvalidAmount,
				fmt.Sprintf("malformed balance for %s in token %s", address, token))
		}

		safe.Balances[token] = balance
	}
	return rows.Err()
}

func (r *PostgresSafeRepository) loadTrusts(ctx context.Context, safes map[types.Address]*types.Safe) error {
	rows, err := r.db.Query(ctx, `
		SELECT user_address, can_send_to_address, trust_limit
		FROM trusts
	`)
	if err != nil {
		return apperror.Wrap(err, apperror.CodeStorage, "failed to load trusts")
	}
	defer rows.Close()

	for rows.Next() {
		var userHex, receiverHex string
		var limit int16
		if err := rows.Scan(&userHex, &receiverHex, &limit); err != nil {
			return apperror.Wrap(err, apperror.CodeStorage, "failed to scan trust row")
		}

		user, err := types.ParseAddress(userHex)
		if err != nil {
			return apperror.Wrap(err, apperror.CodeInvalidAddress, "malformed trust sender in store")
		}
		safe, ok := safes[user]
		if !ok {
			continue
		}

		receiver, err := types.ParseAddress(receiverHex)
		if err != nil {
			return apperror.Wrap(err, apperror.CodeInvalidAddress, "malformed trust receiver in store")
		}
		if limit < 0 || limit > 100 {
			return apperror.NewWithField(apperror.CodeInvalidTrust,
				fmt.Sprintf("trust limit %d out of range for %s -> %s", limit, user, receiver),
				"trust_limit")
		}

		safe.LimitPercentage[receiver] = uint8(limit)
	}
	return rows.Err()
}

// CountSafes возвращает число safes в хранилище
func (r *PostgresSafeRepository) CountSafes(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM safes`).Scan(&count); err != nil {
		return 0, apperror.Wrap(err, apperror.CodeStorage, "failed to count safes")
	}
	return count, nil
}
