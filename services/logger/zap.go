package logsvc

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/trezcool/classboard/core"
)

// ZapLogger writes structured logs to stderr.
type ZapLogger struct {
	zl *zap.Logger
}

var _ core.Logger = (*ZapLogger)(nil)

// NewZapLogger returns a human readable logger in debug mode, JSON lines otherwise.
func NewZapLogger(conf *core.Config) (*ZapLogger, error) {
	var (
		zl  *zap.Logger
		err error
	)
	if conf.Debug {
		zl, err = zap.NewDevelopment(zap.AddCallerSkip(2))
	} else {
		zl, err = zap.NewProduction(zap.AddCallerSkip(2))
	}
	if err != nil {
		return nil, err
	}
	return &ZapLogger{zl: zl.With(zap.String("app", conf.AppName), zap.String("env", conf.Env))}, nil
}

// NewZapLoggerFrom wraps an existing zap logger.
func NewZapLoggerFrom(zl *zap.Logger) *ZapLogger { return &ZapLogger{zl: zl} }

func (l *ZapLogger) Sync() error { return l.zl.Sync() }

func (l *ZapLogger) log(level zapcore.Level, msg string, args []interface{}) {
	if ce := l.zl.Check(level, msg); ce != nil {
		ce.Write(fields(args)...)
	}
}

func (l *ZapLogger) Debug(msg string, args ...interface{}) { l.log(zapcore.DebugLevel, msg, args) }
func (l *ZapLogger) Info(msg string, args ...interface{})  { l.log(zapcore.InfoLevel, msg, args) }
func (l *ZapLogger) Warn(msg string, args ...interface{})  { l.log(zapcore.WarnLevel, msg, args) }
func (l *ZapLogger) Error(msg string, args ...interface{}) { l.log(zapcore.ErrorLevel, msg, args) }
func (l *ZapLogger) Fatal(msg string, args ...interface{}) { l.log(zapcore.FatalLevel, msg, args) }

// fields converts logger args: errors, maps and key-value pairs.
// A dangling value is logged under "arg".
func fields(args []interface{}) []zap.Field {
	fs := make([]zap.Field, 0, len(args))
	for i := 0; i < len(args); i++ {
		switch v := args[i].(type) {
		case error:
			fs = append(fs, zap.Error(v))
		case map[string]interface{}:
			for k, val := range v {
				fs = append(fs, zap.Any(k, val))
			}
		case string:
			if i+1 < len(args) {
				fs = append(fs, zap.Any(v, args[i+1]))
				i++
			} else {
				fs = append(fs, zap.String("arg", v))
			}
		default:
			fs = append(fs, zap.Any(fmt.Sprintf("arg%d", i), v))
		}
	}
	return fs
}
