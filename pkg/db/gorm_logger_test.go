package db

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

func bufferLogger(buf *bytes.Buffer) *logger.Logger {
	return logger.New(logger.Options{Output: buf, Level: "debug"})
}

func TestQueryLoggerSkipsFastAndMissingRows(t *testing.T) {
	var buf bytes.Buffer
	q := newQueryLogger(bufferLogger(&buf), time.Hour)
	fc := func() (string, int64) { return "SELECT 1", 1 }

	q.Trace(context.Background(), time.Now(), fc, nil)
	q.Trace(context.Background(), time.Now(), fc, gorm.ErrRecordNotFound)
	assert.Empty(t, buf.String())
}

func TestQueryLoggerReportsFailuresAndSlowQueries(t *testing.T) {
	var buf bytes.Buffer
	q := newQueryLogger(bufferLogger(&buf), time.Millisecond)
	fc := func() (string, int64) { return "UPDATE orders SET status = 'Shipped'", 0 }

	q.Trace(context.Background(), time.Now(), fc, errors.New("database is locked"))
	assert.Contains(t, buf.String(), "db.query_failed")
	assert.Contains(t, buf.String(), "database is locked")

	buf.Reset()
	q.Trace(context.Background(), time.Now().Add(-time.Second), fc, nil)
	assert.Contains(t, buf.String(), "db.slow_query")
	assert.Contains(t, buf.String(), `"elapsed_ms"`)
}

func TestQueryLoggerSilentMode(t *testing.T) {
	var buf bytes.Buffer
	q := newQueryLogger(bufferLogger(&buf), time.Millisecond).LogMode(gormlogger.Silent)

	q.Trace(context.Background(), time.Now().Add(-time.Second), func() (string, int64) { return "SELECT 1", 1 }, errors.New("x"))
	q.Error(context.Background(), "boom %d", 1)
	assert.Empty(t, buf.String())
}
