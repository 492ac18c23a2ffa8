package hooks

import (
	"os"

	"github.com/Suhaibinator/SHooks/pkg/hook"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Debug returns a hook that logs the phase and method, then the data, query
// and result when present. A nil logger writes human-readable lines to stderr.
//
// The output is for people reading a terminal and its format is not stable.
func Debug(msg string, logger *zap.Logger) hook.Hook {
	if logger == nil {
		logger = stderrLogger()
	}

	return func(c *hook.Context) error {
		logger.Info("* "+msg,
			zap.String("type", string(c.Type)),
			zap.String("method", string(c.Method)),
		)
		if c.Data != nil {
			logger.Info("data:", zap.Any("data", c.Data))
		}
		if c.Params != nil && c.Params.Query != nil {
			logger.Info("query:", zap.Any("query", c.Params.Query))
		}
		if c.Result != nil {
			logger.Info("result:", zap.Any("result", c.Result))
		}
		return nil
	}
}

func stderrLogger() *zap.Logger {
	encoderConfig := zap.NewDevelopmentEncoderConfig()
	encoderConfig.TimeKey = ""
	encoderConfig.CallerKey = ""
	encoderConfig.LevelKey = ""

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig),
		zapcore.Lock(os.Stderr),
		zapcore.DebugLevel,
	)
	return zap.New(core)
}
