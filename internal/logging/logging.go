package logging

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

const ModeProduction = "production"

// New builds the service logger. Development mode logs human readable lines
// at debug level; production mode logs JSON at info level. When file is set,
// JSON lines are also written to a rotated log file.
func New(mode, file string) *zap.Logger {
	level := zap.NewAtomicLevelAt(zap.DebugLevel)
	if mode == ModeProduction {
		level.SetLevel(zap.InfoLevel)
	}

	encoderConfig := zapcore.EncoderConfig{
		MessageKey:     "msg",
		LevelKey:       "level",
		TimeKey:        "time",
		NameKey:        "logger",
		CallerKey:      "file",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.TimeEncoderOfLayout("2006-01-02T15:04:05.000Z07:00"),
		EncodeDuration: zapcore.MillisDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
		EncodeName:     zapcore.FullNameEncoder,
	}

	var stdoutEncoder zapcore.Encoder
	if mode == ModeProduction {
		stdoutEncoder = zapcore.NewJSONEncoder(encoderConfig)
	} else {
		consoleConfig := encoderConfig
		consoleConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		stdoutEncoder = zapcore.NewConsoleEncoder(consoleConfig)
	}

	cores := []zapcore.Core{
		zapcore.NewCore(stdoutEncoder, zapcore.Lock(os.Stdout), level),
	}
	if file != "" {
		hook := &lumberjack.Logger{
			Filename:   file,
			MaxSize:    128, // MB
			MaxAge:     30,  // days
			MaxBackups: 30,
		}
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), zapcore.AddSync(hook), level))
	}

	return zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.Fields(zap.String("app", "contacts")))
}
