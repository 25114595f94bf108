package conf

// Mode 运行模式
type Mode int32

const (
	ModeDev  Mode = 0 // 只输出控制台
	ModeProd Mode = 1 // 控制台 + 滚动文件
)

// Logger 日志配置
type Logger struct {
	Mode       Mode     `json:"mode" yaml:"mode"`
	AppName    string   `json:"app_name" yaml:"app_name"`
	Level      string   `json:"level" yaml:"level"`
	Directory  string   `json:"directory" yaml:"directory"`
	FormatJSON bool     `json:"format_json" yaml:"format_json"`
	ErrorFile  bool     `json:"error_file" yaml:"error_file"`
	Sensitive  []string `json:"sensitive" yaml:"sensitive"`
	Rotate     *Rotate  `json:"rotate" yaml:"rotate"`
}

// Rotate lumberjack 滚动参数
type Rotate struct {
	MaxSizeMB  int32 `json:"max_size_mb" yaml:"max_size_mb"`
	MaxBackups int32 `json:"max_backups" yaml:"max_backups"`
	MaxAgeDays int32 `json:"max_age_days" yaml:"max_age_days"`
	Compress   bool  `json:"compress" yaml:"compress"`
	LocalTime  bool  `json:"local_time" yaml:"local_time"`
}

func DefaultConfig(opts ...Option) *Logger {
	c := &Logger{
		Mode:       ModeDev,
		AppName:    "app",
		Level:      "debug",
		Directory:  "./logs",
		FormatJSON: false,
		ErrorFile:  false,
		Sensitive:  []string{},
		Rotate: &Rotate{
			MaxSizeMB:  100,
			MaxBackups: 7,
			MaxAgeDays: 7,
			Compress:   true,
			LocalTime:  true,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type Option func(*Logger)

func WithAppName(appName string) Option {
	return func(c *Logger) { c.AppName = appName }
}

func WithProduction() Option {
	return func(c *Logger) {
		c.Mode = ModeProd
		c.Level = "info"
	}
}

func WithLevel(level string) Option {
	return func(c *Logger) { c.Level = level }
}

func WithDirectory(dir string) Option {
	return func(c *Logger) { c.Directory = dir }
}

func WithFormatJSON(enabled bool) Option {
	return func(c *Logger) { c.FormatJSON = enabled }
}

func WithErrorFile(enabled bool) Option {
	return func(c *Logger) { c.ErrorFile = enabled }
}

func WithSensitive(keys []string) Option {
	return func(c *Logger) { c.Sensitive = keys }
}

func WithMaxSizeMB(size int32) Option {
	return func(c *Logger) { c.Rotate.MaxSizeMB = size }
}

func WithMaxBackups(count int32) Option {
	return func(c *Logger) { c.Rotate.MaxBackups = count }
}
