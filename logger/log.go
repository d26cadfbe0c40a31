package logger

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
)

const (
	CategoryField = "category"
)

const (
	CategoryQuote  = "quote"
	CategoryExec   = "exec"
	CategoryChain  = "chain"
	CategoryVolume = "volume"
	CategoryAudit  = "audit"
	CategoryRetry  = "retry"
)

// StdLogger builds the process console logger.
func StdLogger() *zerolog.Logger {
	outPut := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		NoColor:    false,
		TimeFormat: time.DateTime,
		FormatFieldName: func(i interface{}) string {
			return fmt.Sprintf("%s: ", i)
		},
	}
	log := zerolog.New(outPut).With().Timestamp().Logger()

	return &log
}
