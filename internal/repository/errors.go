// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios. For
// example, ErrConflict signals that an operation cannot proceed due to
// existing dependent records (e.g. deleting a facility that still has
// parking records), while ErrSpaceTaken and ErrNoFreeSpace report the
// two ways a space claim can lose a race.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrConflict is returned when a write cannot be performed because of
// conflicting state, such as deleting a space that is occupied or
// inserting a duplicate space number. Handlers should translate this
// into an HTTP 409 response.
var ErrConflict = errors.New("conflict")

// ErrSpaceTaken is returned when a specific space cannot be claimed
// because it is occupied, reserved, or locked by a concurrent claim.
var ErrSpaceTaken = errors.New("space taken")

// ErrNoFreeSpace is returned when a facility has no claimable space
// left at the moment of the attempt.
var ErrNoFreeSpace = errors.New("no free space")

// isDuplicateKey reports whether err is a MySQL duplicate-entry error
// (error number 1062), the signal that a unique index rejected a write.
func isDuplicateKey(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == 1062
}
