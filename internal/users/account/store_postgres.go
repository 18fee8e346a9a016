// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/yomira-identity/internal/platform/database/schema"
	"github.com/taibuivan/yomira-identity/internal/platform/dberr"
)

// # Repository Implementations

// PostgresAuditRepository implements [AuditRepository] using pgx.
//
// Table: audit.identityevent (append only).
type PostgresAuditRepository struct {
	pool *pgxpool.Pool
}

// NewAuditRepository creates a new Postgres implementation of the audit trail.
func NewAuditRepository(pool *pgxpool.Pool) *PostgresAuditRepository {
	return &PostgresAuditRepository{pool: pool}
}

/*
Record inserts one event. A UUIDv7 ID and the current time are assigned when
the event does not carry them.

Returns:
  - error: Database execution failure
*/
func (repository *PostgresAuditRepository) Record(context context.Context, event *Event) error {
	if event.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("postgres_audit_repo_id_failed: %w", err)
		}
		event.ID = id.String()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}

	detail := event.Detail
	if detail == nil {
		detail = map[string]any{}
	}
	encodedDetail, err := json.Marshal(detail)
	if err != nil {
		return fmt.Errorf("postgres_audit_repo_encode_failed: %w", err)
	}

	table := schema.AuditIdentityEvent
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s, %s, %s)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		table.Table,
		table.ID, table.ActorID, table.Action, table.SubjectID,
		table.Detail, table.IPAddress, table.CreatedAt,
	)

	_, err = repository.pool.Exec(context, query,
		event.ID,
		event.ActorID,
		string(event.Action),
		event.SubjectID,
		encodedDetail,
		event.IPAddress,
		event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres_audit_repo_record_failed: %w", dberr.Wrap(err, "record_audit_event"))
	}

	return nil
}

/*
ListBySubject returns up to limit events about subjectID, newest first.

Returns:
  - []Event: Possibly empty, never nil
  - error: Database execution failure
*/
func (repository *PostgresAuditRepository) ListBySubject(context context.Context, subjectID string, limit int) ([]Event, error) {
	table := schema.AuditIdentityEvent
	query := fmt.Sprintf(`
		SELECT %s::text, %s, %s, %s, %s, %s, %s
		FROM %s
		WHERE %s = $1
		ORDER BY %s DESC
		LIMIT $2`,
		table.ID, table.ActorID, table.Action, table.SubjectID,
		table.Detail, table.IPAddress, table.CreatedAt,
		table.Table, table.SubjectID, table.CreatedAt,
	)

	rows, err := repository.pool.Query(context, query, subjectID, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres_audit_repo_list_failed: %w", dberr.Wrap(err, "list_audit_events"))
	}
	defer rows.Close()

	events := []Event{}
	for rows.Next() {
		var (
			event         Event
			action        string
			encodedDetail []byte
		)
		if err := rows.Scan(
			&event.ID,
			&event.ActorID,
			&action,
			&event.SubjectID,
			&encodedDetail,
			&event.IPAddress,
			&event.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("postgres_audit_repo_scan_failed: %w", err)
		}

		event.Action = Action(action)
		if len(encodedDetail) > 0 {
			if err := json.Unmarshal(encodedDetail, &event.Detail); err != nil {
				return nil, fmt.Errorf("postgres_audit_repo_decode_failed: %w", err)
			}
		}
		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres_audit_repo_rows_failed: %w", err)
	}

	return events, nil
}
