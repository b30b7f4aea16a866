package repository

import (
	"errors"

	"gorm.io/gorm"
)

// MaxPageSize caps list queries that accept a caller-supplied limit
const MaxPageSize = 200

// ImportBlock is the block and parcel value used for spreadsheet-imported units
const ImportBlock = "0"

// IsNotFound reports whether err is gorm's record-not-found error
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
