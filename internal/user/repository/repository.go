// Package repository provides data persistence implementations for user entities.
package repository

import (
	"encoding/json"
	"errors"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"

	"github.com/allisson/treatment-register/internal/user/domain"
)

const (
	pgUniqueViolation    = "23505"
	mysqlDuplicateEntry  = 1062
	userColumns          = "id, email, email_hash, password, roles, created_at, updated_at"
	defaultUserListOrder = "ORDER BY created_at DESC, id DESC"
)

type rowScanner interface {
	Scan(dest ...any) error
}

func marshalRoles(roles []domain.Role) ([]byte, error) {
	if roles == nil {
		roles = []domain.Role{}
	}
	return json.Marshal(roles)
}

func unmarshalRoles(data []byte) ([]domain.Role, error) {
	roles := []domain.Role{}
	if len(data) == 0 {
		return roles, nil
	}
	if err := json.Unmarshal(data, &roles); err != nil {
		return nil, err
	}
	return roles, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == pgUniqueViolation
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == mysqlDuplicateEntry
	}
	return false
}
