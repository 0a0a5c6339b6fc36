package flatbase

import (
	"github.com/tuannm99/flatbase/internal/cond"
	"github.com/tuannm99/flatbase/internal/exec"
	"github.com/tuannm99/flatbase/internal/index"
	"github.com/tuannm99/flatbase/internal/record"
	"github.com/tuannm99/flatbase/internal/storage"
)

// The full error taxonomy, re-exported so callers can errors.Is against
// it without importing internal packages.
var (
	ErrTableNotFound       = storage.ErrTableNotFound
	ErrTableExists         = storage.ErrTableExists
	ErrColumnNotFound      = storage.ErrColumnNotFound
	ErrDuplicatePrimaryKey = index.ErrDuplicateKey
	ErrPrimaryKeyNotFound  = index.ErrKeyNotFound
	ErrTypeConversion      = record.ErrTypeConversion
	ErrUnknownType         = record.ErrUnknownType
	ErrUnsupportedOperator = cond.ErrUnsupportedOperator
	ErrInvalidDeleteTarget = exec.ErrInvalidDeleteTarget
)
