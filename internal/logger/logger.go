package logger

import (
	"fmt"

	"go.uber.org/zap"
)

// New builds a production logger at the given verbosity. encoding is "json"
// (the default when empty) or "console".
func New(verbosity, encoding string) (*zap.Logger, error) {
	config := zap.NewProductionConfig()
	level, err := zap.ParseAtomicLevel(verbosity)
	if err != nil {
		return nil, err
	}
	config.Level = level
	switch encoding {
	case "", "json":
	case "console":
		config.Encoding = encoding
		config.EncoderConfig = zap.NewDevelopmentEncoderConfig()
	default:
		return nil, fmt.Errorf("unknown log encoding %q", encoding)
	}
	return config.Build()
}
