// Package log provides the ambient zap logger used throughout ctxprop, along
// with a trace-stamping core that annotates every line with the active
// tracing-manager span, and the context.timing sub-logger the diagnostics
// hook emits to.
package log

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu     sync.RWMutex
	logger *zap.Logger
	sugar  *zap.SugaredLogger
)

// TimingLoggerName is the logger name spec §6 requires for diagnostic timing
// records.
const TimingLoggerName = "context.timing"

// Conf holds logger configuration.
type Conf struct {
	Output string // "stdout" or "stderr"
	Level  string // debug, info, warn, error, fatal
}

// SetDefaults returns the default logging configuration.
func SetDefaults() *Conf {
	return &Conf{Output: "stdout", Level: "INFO"}
}

func init() {
	// a usable logger exists even if the caller never calls Init.
	_, _ = NewLog(SetDefaults())
}

// NewLog initializes the global logger from conf and returns the underlying
// zap.Logger.
func NewLog(conf *Conf) (*zap.Logger, error) {
	if conf == nil {
		conf = SetDefaults()
	}

	var writeSyncer zapcore.WriteSyncer
	switch conf.Output {
	case "stderr":
		writeSyncer = zapcore.AddSync(os.Stderr)
	default:
		writeSyncer = zapcore.AddSync(os.Stdout)
	}

	encoderConfig := zap.NewDevelopmentEncoderConfig()
	encoderConfig.TimeKey = "time"
	encoderConfig.LevelKey = "level"
	encoderConfig.NameKey = "logger"
	encoderConfig.CallerKey = "caller"
	encoderConfig.MessageKey = "msg"
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeCaller = zapcore.ShortCallerEncoder

	encoder := zapcore.NewConsoleEncoder(encoderConfig)
	core := zapcore.NewCore(encoder, writeSyncer, parseLogLevel(conf.Level))
	core = wrapCoreWithTrace(core)

	newLogger := zap.New(core, zap.AddCallerSkip(1), zap.AddCaller())

	mu.Lock()
	logger = newLogger
	sugar = newLogger.Sugar()
	mu.Unlock()

	return newLogger, nil
}

// Init initializes the global logger, returning an error rather than
// panicking on failure.
func Init(conf *Conf) error {
	_, err := NewLog(conf)
	return err
}

// MustInit initializes the global logger, panicking on failure.
func MustInit(conf *Conf) {
	if err := Init(conf); err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
}

// L returns the global zap.SugaredLogger.
func L() *zap.SugaredLogger {
	mu.RLock()
	defer mu.RUnlock()
	return sugar
}

// Timing returns the context.timing-named logger the diagnostics hook emits
// capture/reactivate measurements to, per spec §6.
func Timing() *zap.SugaredLogger {
	return L().Named(TimingLoggerName)
}

func parseLogLevel(level string) zapcore.Level {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG":
		return zapcore.DebugLevel
	case "WARN", "WARNING":
		return zapcore.WarnLevel
	case "ERROR":
		return zapcore.ErrorLevel
	case "FATAL":
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}

func Debugw(msg string, kv ...any) { L().Debugw(msg, kv...) }
func Infow(msg string, kv ...any)  { L().Infow(msg, kv...) }
func Warnw(msg string, kv ...any)  { L().Warnw(msg, kv...) }
func Errorw(msg string, kv ...any) { L().Errorw(msg, kv...) }

func Info(args ...any)  { L().Info(args...) }
func Warn(args ...any)  { L().Warn(args...) }
func Error(args ...any) { L().Error(args...) }
