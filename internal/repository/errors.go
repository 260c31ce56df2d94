package repository

import (
	"errors"

	"github.com/jackc/pgx/v5"
)

var (
	ErrNotFound = errors.New("record not found")
	// ErrConflict means the row changed since it was read (version mismatch).
	ErrConflict = errors.New("record was modified concurrently")
)

func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
