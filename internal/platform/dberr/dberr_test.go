// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package dberr_test

import (
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/yomira-identity/internal/platform/apperr"
	"github.com/taibuivan/yomira-identity/internal/platform/dberr"
)

/*
TestWrap classifies driver errors into application errors.
*/
func TestWrap(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
	}{
		{"no_rows", pgx.ErrNoRows, apperr.CodeNotFound},
		{"unique_violation", &pgconn.PgError{Code: "23505"}, apperr.CodeConflict},
		{"undefined_table", &pgconn.PgError{Code: "42P01"}, apperr.CodeUnavailable},
		{"other_pg_error", &pgconn.PgError{Code: "22001"}, apperr.CodeInternal},
		{"plain_error", errors.New("connection reset"), apperr.CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := dberr.Wrap(tt.err, "test_action")
			assert.True(t, apperr.HasCode(wrapped, tt.wantCode))
		})
	}

	assert.NoError(t, dberr.Wrap(nil, "test_action"))
}

/*
TestWrap_KeepsCause keeps the original error reachable for logging.
*/
func TestWrap_KeepsCause(t *testing.T) {
	cause := errors.New("connection reset")

	wrapped := dberr.Wrap(cause, "record_audit_event")

	assert.ErrorIs(t, wrapped, cause)
	assert.Contains(t, apperr.As(wrapped).Cause.Error(), "record_audit_event")
}
