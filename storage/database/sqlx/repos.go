package sqlxrepos

import (
	"database/sql"

	"github.com/pkg/errors"

	"github.com/koda-tec/sistema-escolar/core"
)

// notFound maps sql.ErrNoRows to core.ErrNotFound.
func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return core.ErrNotFound
	}
	return err
}
