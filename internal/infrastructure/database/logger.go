package database

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm/logger"
)

// slowQuery is the threshold above which gorm reports a statement.
const slowQuery = 200 * time.Millisecond

// gormWriter forwards gorm's log lines to zerolog.
type gormWriter struct{}

func (gormWriter) Printf(format string, args ...interface{}) {
	log.Warn().Str("component", "gorm").Msg(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

// newLogger reports slow statements and query errors. Missing rows are an
// expected outcome of lookups and are not logged.
func newLogger() logger.Interface {
	return logger.New(gormWriter{}, logger.Config{
		SlowThreshold:             slowQuery,
		LogLevel:                  logger.Warn,
		IgnoreRecordNotFoundError: true,
		Colorful:                  false,
	})
}
