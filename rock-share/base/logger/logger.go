package logger

import (
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// InitLogger 初始化全局日志，level不认识时按info处理
func InitLogger(level, projectName, logPath string, maxAge, rotationTime time.Duration, rotationSize uint32, sentryDsn string) {
	lv := zapcore.InfoLevel
	if err := lv.Set(level); err != nil {
		lv = zapcore.InfoLevel
	}
	initZap(lv, projectName, logPath, maxAge, rotationTime, rotationSize, sentryDsn)
}

func Debug(args ...interface{}) {
	zap.S().Debug(args...)
}

func Debugf(template string, args ...interface{}) {
	zap.S().Debugf(template, args...)
}

func Info(args ...interface{}) {
	zap.S().Info(args...)
}

func Infof(template string, args ...interface{}) {
	zap.S().Infof(template, args...)
}

func Warn(args ...interface{}) {
	zap.S().Warn(args...)
}

func Warnf(template string, args ...interface{}) {
	zap.S().Warnf(template, args...)
}

func Error(args ...interface{}) {
	zap.S().Error(args...)
}

func Errorf(template string, args ...interface{}) {
	zap.S().Errorf(template, args...)
}

// Sync 刷新缓冲，进程退出前调用
func Sync() {
	_ = zap.L().Sync()
}
