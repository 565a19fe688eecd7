package db

import (
	"fmt"
	"sync/atomic"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

var testDBSeq atomic.Int64

// NewTest opens an isolated in-memory database. Each call gets its own
// schema; the shared cache keeps every pooled connection on the same one.
func NewTest() (*gorm.DB, error) {
	dsn := fmt.Sprintf("file:billrun_test_%d?mode=memory&cache=shared", testDBSeq.Add(1))
	return gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
	})
}
