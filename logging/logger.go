package logging

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Log 全局 SugaredLogger；InitLogger 之前丢弃一切，包与测试可以直接打日志
var Log = zap.NewNop().Sugar()

// Options 日志配置
type Options struct {
	File    string // 日志文件路径，如 "snake.log"
	Level   string // debug / info / warn / error，空值为 debug
	Console bool   // 同时输出到 stderr
}

// InitLogger 按配置初始化 zap：文件带滚动，可选镜像到控制台
func InitLogger(opts Options) error {
	level := zapcore.DebugLevel
	if opts.Level != "" {
		l, err := zapcore.ParseLevel(opts.Level)
		if err != nil {
			return err
		}
		level = l
	}

	encoder := zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
		TimeKey:       "ts",
		LevelKey:      "level",
		NameKey:       "logger",
		CallerKey:     "caller",
		MessageKey:    "msg",
		StacktraceKey: "stack",
		LineEnding:    zapcore.DefaultLineEnding,
		EncodeLevel:   zapcore.CapitalLevelEncoder,
		EncodeTime:    zapcore.ISO8601TimeEncoder,
		EncodeCaller:  zapcore.ShortCallerEncoder,
	})

	var cores []zapcore.Core
	if opts.File != "" {
		// 10MB 一个文件，保留 3 个备份、7 天
		lj := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    10,
			MaxBackups: 3,
			MaxAge:     7,
		}
		cores = append(cores, zapcore.NewCore(encoder, zapcore.AddSync(lj), level))
	}
	if opts.Console {
		cores = append(cores, zapcore.NewCore(encoder, zapcore.Lock(os.Stderr), level))
	}

	Log = zap.New(zapcore.NewTee(cores...), zap.AddCaller()).Sugar()
	return nil
}

// SyncLogger 刷新缓冲
func SyncLogger() {
	if Log != nil {
		_ = Log.Sync()
	}
}
