package zap

import (
	"fmt"
	"runtime"
	"slices"
	"strings"
	"sync/atomic"

	"github.com/go-kratos/kratos/v2/log"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/yola1107/herostory/library/log/zap/conf"
)

var _ log.Logger = (*Logger)(nil)

const (
	sensitiveMask = "***"
	kratosLogPkg  = "github.com/go-kratos/kratos/v2/log."
)

// Logger 把 kratos 的 keyvals 日志转给 zap
type Logger struct {
	core   *zapCore
	masked atomic.Pointer[map[string]struct{}]
}

// NewLogger c 为 nil 时使用默认配置
func NewLogger(c *conf.Logger, opts ...Option) (*Logger, error) {
	if c == nil {
		c = conf.DefaultConfig()
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	core, err := newZapCore(c, o)
	if err != nil {
		return nil, err
	}
	l := &Logger{core: core}
	l.SetSensitive(c.Sensitive)
	core.log.Debug("logger ready",
		zap.Int32("mode", int32(c.Mode)),
		zap.String("app", c.AppName),
		zap.String("level", c.Level),
		zap.String("dir", c.Directory))
	return l, nil
}

func (l *Logger) Log(level log.Level, keyvals ...any) error {
	lvl := toZapLevel(level)
	if !l.core.log.Core().Enabled(lvl) {
		return nil
	}
	if len(keyvals) == 0 || len(keyvals)%2 != 0 {
		l.core.log.Warn("keyvals must appear in pairs", zap.Any("keyvals", keyvals))
		return nil
	}

	msg, fields := l.split(keyvals)
	zl := l.core.log.WithOptions(zap.AddCallerSkip(callerSkip()))
	if ce := zl.Check(lvl, msg); ce != nil {
		ce.Write(fields...)
	}
	return nil
}

// split 取出消息体, 其余转成字段, 敏感字段打码
func (l *Logger) split(keyvals []any) (string, []zap.Field) {
	var (
		msg    string
		masked = l.masked.Load()
		fields = make([]zap.Field, 0, len(keyvals)/2)
	)
	for i := 0; i < len(keyvals); i += 2 {
		key := fmt.Sprint(keyvals[i])
		val := keyvals[i+1]
		if key == log.DefaultMessageKey {
			msg = fmt.Sprint(val)
			continue
		}
		if masked != nil {
			if _, ok := (*masked)[strings.ToLower(key)]; ok {
				val = sensitiveMask
			}
		}
		fields = append(fields, zap.Any(key, val))
	}
	return msg, fields
}

func toZapLevel(level log.Level) zapcore.Level {
	switch level {
	case log.LevelDebug:
		return zapcore.DebugLevel
	case log.LevelWarn:
		return zapcore.WarnLevel
	case log.LevelError:
		return zapcore.ErrorLevel
	case log.LevelFatal:
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}

func (l *Logger) Close() error {
	l.core.log.Info("logger closed")
	return l.core.close()
}

func (l *Logger) GetZap() *zap.Logger {
	return l.core.log
}

func (l *Logger) GetLevel() string {
	return l.core.level.String()
}

// SetLevel 非法级别忽略
func (l *Logger) SetLevel(level string) {
	if err := l.core.level.UnmarshalText([]byte(level)); err != nil {
		l.core.log.Warn("ignore log level", zap.String("level", level), zap.Error(err))
		return
	}
	l.core.log.Info("log level changed", zap.String("level", level))
}

func (l *Logger) GetSensitive() []string {
	masked := l.masked.Load()
	if masked == nil {
		return []string{}
	}
	keys := make([]string, 0, len(*masked))
	for k := range *masked {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// SetSensitive 整体替换, 大小写不敏感
func (l *Logger) SetSensitive(keys []string) {
	set := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		set[strings.ToLower(k)] = struct{}{}
	}
	l.masked.Store(&set)
}

// callerSkip 跳过 kratos log 包内的转发帧, 让 caller 指向业务代码
func callerSkip() int {
	var pcs [16]uintptr
	n := runtime.Callers(3, pcs[:]) // runtime.Callers, callerSkip, Log
	frames := runtime.CallersFrames(pcs[:n])
	skip := 1
	for {
		f, more := frames.Next()
		if !strings.HasPrefix(f.Function, kratosLogPkg) {
			return skip
		}
		skip++
		if !more {
			return skip
		}
	}
}
