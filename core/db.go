package core

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

// ErrKeyNotFound is returned by a KVRepository when the key has never been set.
var ErrKeyNotFound = errors.New("key not found")

// KV keys used across the app.
const (
	KeySheetConfig   = "sheet_config"
	KeySnapshot      = "snapshot"
	KeyClassReport   = "class_ai_report"
	keyStudentReport = "ai_report_"
)

// StudentReportKey is the cache key of a student's AI report.
func StudentReportKey(studentID string) string { return keyStudentReport + studentID }

type (
	KVEntry struct {
		Key       string    `db:"key"`
		Value     []byte    `db:"value"`
		UpdatedAt time.Time `db:"updated_at"`
	}

	// KVRepository stores opaque values by key. Values are usually JSON documents.
	KVRepository interface {
		Get(ctx context.Context, key string) (*KVEntry, error)
		Set(ctx context.Context, key string, value []byte) error
		Delete(ctx context.Context, key string) error
	}
)
