package zap

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/yola1107/herostory/library/log/zap/conf"
)

const timeLayout = "2006/01/02 15:04:05.000"

// levelTag 日志级别的显示名与终端颜色, 名字等宽方便对齐
var levelTag = map[zapcore.Level]struct{ name, color string }{
	zapcore.DebugLevel:  {"DEBUG", "\x1b[36m"},
	zapcore.InfoLevel:   {"INFO·", "\x1b[32m"},
	zapcore.WarnLevel:   {"WARN·", "\x1b[33m"},
	zapcore.ErrorLevel:  {"ERROR", "\x1b[31m"},
	zapcore.DPanicLevel: {"PANIC", "\x1b[35m"},
	zapcore.PanicLevel:  {"PANIC", "\x1b[35m"},
	zapcore.FatalLevel:  {"FATAL", "\x1b[35m"},
}

type options struct {
	console io.Writer
	color   bool
}

type Option func(*options)

// WithConsole 替换控制台输出 (默认 stderr, 带颜色)
func WithConsole(w io.Writer) Option {
	return func(o *options) {
		o.console, o.color = w, false
	}
}

func defaultOptions() *options {
	return &options{console: os.Stderr, color: true}
}

// zapCore 持有 zap.Logger 以及需要在退出时关闭的滚动文件
type zapCore struct {
	log   *zap.Logger
	level zap.AtomicLevel
	files []*lumberjack.Logger
}

func (z *zapCore) close() error {
	_ = z.log.Sync()
	for _, f := range z.files {
		_ = f.Close()
	}
	return nil
}

func newZapCore(c *conf.Logger, o *options) (*zapCore, error) {
	z := &zapCore{level: zap.NewAtomicLevel()}
	if err := z.level.UnmarshalText([]byte(c.Level)); err != nil {
		return nil, fmt.Errorf("invalid log level: %q", c.Level)
	}

	console := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig(false, o.color)),
		zapcore.Lock(zapcore.AddSync(o.console)),
		z.level,
	)
	tee := []zapcore.Core{console}
	if c.Mode == conf.ModeProd && c.Directory != "" {
		tee = append(tee, z.fileCores(c)...)
	}

	// 每秒同一条日志超过 2000 次后每 10 次记一次
	sampled := zap.WrapCore(func(core zapcore.Core) zapcore.Core {
		return zapcore.NewSamplerWithOptions(core, time.Second, 2000, 10)
	})
	z.log = zap.New(zapcore.NewTee(tee...), zap.AddCaller(), zap.AddStacktrace(zap.PanicLevel), sampled)
	return z, nil
}

// fileCores app.log 记录全部级别, 开启 ErrorFile 时 app_error.log 只记 error 以上
func (z *zapCore) fileCores(c *conf.Logger) []zapcore.Core {
	rotate := c.Rotate
	if rotate == nil {
		rotate = conf.DefaultConfig().Rotate
	}
	app := c.AppName
	if app == "" {
		app = "app"
	}

	open := func(name string, enabler zapcore.LevelEnabler) zapcore.Core {
		f := &lumberjack.Logger{
			Filename:   filepath.Join(c.Directory, name),
			MaxSize:    int(rotate.MaxSizeMB),
			MaxBackups: int(rotate.MaxBackups),
			MaxAge:     int(rotate.MaxAgeDays),
			Compress:   rotate.Compress,
			LocalTime:  rotate.LocalTime,
		}
		z.files = append(z.files, f)

		var enc zapcore.Encoder
		if c.FormatJSON {
			enc = zapcore.NewJSONEncoder(encoderConfig(true, false))
		} else {
			enc = zapcore.NewConsoleEncoder(encoderConfig(true, false))
		}
		return zapcore.NewCore(enc, zapcore.AddSync(f), enabler)
	}

	cores := []zapcore.Core{open(app+".log", z.level)}
	if c.ErrorFile {
		cores = append(cores, open(app+"_error.log", zap.ErrorLevel))
	}
	return cores
}

func encoderConfig(file, color bool) zapcore.EncoderConfig {
	cfg := zap.NewProductionEncoderConfig()
	cfg.ConsoleSeparator = " "
	cfg.EncodeTime = func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString("[" + t.Format(timeLayout) + "]")
	}
	cfg.EncodeLevel = func(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
		tag := levelTag[l]
		if color {
			enc.AppendString("[" + tag.color + tag.name + "\x1b[0m]")
			return
		}
		enc.AppendString("[" + tag.name + "]")
	}
	cfg.EncodeCaller = zapcore.FullCallerEncoder
	if file {
		cfg.EncodeCaller = func(c zapcore.EntryCaller, enc zapcore.PrimitiveArrayEncoder) {
			enc.AppendString("[" + c.FullPath() + "]")
		}
	}
	return cfg
}
