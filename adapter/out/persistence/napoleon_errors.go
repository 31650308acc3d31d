package persistence

import (
	"database/sql"
	"errors"

	"napoleon_server/core/domain"
)

// translateErr maps driver-level errors onto domain sentinels so callers
// never import database/sql.
func translateErr(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}
	return err
}
