package sqlutil

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/sqlc-dev/pqtype"
)

// Helper functions for converting between Go types and sql.Null* types

// ToSqlInt32 converts a Go int pointer to sql.NullInt32
func ToSqlInt32(val *int) sql.NullInt32 {
	if val == nil {
		return sql.NullInt32{Valid: false}
	}
	return sql.NullInt32{Int32: int32(*val), Valid: true}
}

// FromSqlInt32 converts sql.NullInt32 to Go int pointer
func FromSqlInt32(val sql.NullInt32) *int {
	if !val.Valid {
		return nil
	}
	i := int(val.Int32)
	return &i
}

// ToNullUUID converts a Go UUID pointer to uuid.NullUUID
func ToNullUUID(id *uuid.UUID) uuid.NullUUID {
	if id == nil {
		return uuid.NullUUID{Valid: false}
	}
	return uuid.NullUUID{UUID: *id, Valid: true}
}

// FromNullUUID converts uuid.NullUUID to Go UUID pointer
func FromNullUUID(val uuid.NullUUID) *uuid.UUID {
	if !val.Valid {
		return nil
	}
	id := val.UUID
	return &id
}

// ToSqlTime converts a Go time pointer to sql.NullTime
func ToSqlTime(val *time.Time) sql.NullTime {
	if val == nil {
		return sql.NullTime{Valid: false}
	}
	return sql.NullTime{Time: *val, Valid: true}
}

// FromSqlTime converts sql.NullTime to Go time pointer
func FromSqlTime(val sql.NullTime) *time.Time {
	if !val.Valid {
		return nil
	}
	t := val.Time
	return &t
}

// ToNullRawMessage wraps encoded JSON for a nullable jsonb column. Empty
// input maps to NULL.
func ToNullRawMessage(data []byte) pqtype.NullRawMessage {
	if len(data) == 0 {
		return pqtype.NullRawMessage{Valid: false}
	}
	return pqtype.NullRawMessage{RawMessage: json.RawMessage(data), Valid: true}
}
