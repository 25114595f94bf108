package file

import (
	"io"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

const stampLayout = "2006/01/02 15:04:05"

// Option 滚动参数
type Option func(*lumberjack.Logger)

func WithMaxSizeMB(n int) Option {
	return func(lj *lumberjack.Logger) {
		if n > 0 {
			lj.MaxSize = n
		}
	}
}

func WithMaxBackups(n int) Option {
	return func(lj *lumberjack.Logger) {
		if n > 0 {
			lj.MaxBackups = n
		}
	}
}

func WithMaxAgeDays(n int) Option {
	return func(lj *lumberjack.Logger) {
		if n > 0 {
			lj.MaxAge = n
		}
	}
}

// Log 单个文件的事件日志, 不经过全局 logger. nil *Log 可安全调用
type Log struct {
	sugar  *zap.SugaredLogger
	closer io.Closer
}

// New 写入按大小滚动的文件
func New(filename string, opts ...Option) *Log {
	lj := &lumberjack.Logger{Filename: filename, MaxSize: 10, MaxAge: 7, MaxBackups: 3, LocalTime: true, Compress: true}
	for _, o := range opts {
		o(lj)
	}
	return newLog(zapcore.AddSync(lj), lj)
}

// NewWithWriter 写入任意 writer
func NewWithWriter(w io.Writer) *Log {
	return newLog(zapcore.AddSync(w), nil)
}

// newLog 每行: [时间] 消息 字段, 不带级别和调用位置
func newLog(ws zapcore.WriteSyncer, closer io.Closer) *Log {
	ec := zapcore.EncoderConfig{
		TimeKey:          "ts",
		MessageKey:       "msg",
		LineEnding:       zapcore.DefaultLineEnding,
		ConsoleSeparator: " ",
		EncodeDuration:   zapcore.StringDurationEncoder,
		EncodeTime: func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
			enc.AppendString("[" + t.Format(stampLayout) + "]")
		},
	}
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(ec), ws, zapcore.InfoLevel)
	return &Log{sugar: zap.New(core).Sugar(), closer: closer}
}

func (l *Log) Sync() error {
	if l == nil {
		return nil
	}
	return l.sugar.Sync()
}

func (l *Log) Close() error {
	if l == nil {
		return nil
	}
	_ = l.sugar.Sync()
	if l.closer != nil {
		return l.closer.Close()
	}
	return nil
}

// Infow msg 后跟 key/value 字段
func (l *Log) Infow(msg string, kvs ...any) {
	if l != nil {
		l.sugar.Infow(msg, kvs...)
	}
}

func (l *Log) Printf(format string, args ...any) {
	if l != nil {
		l.sugar.Infof(format, args...)
	}
}
