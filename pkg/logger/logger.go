/*
	Copyright (C) TaoStore. All rights reserved.

	SPDX-License-Identifier: Apache-2.0
*/

package logger

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/natefinch/lumberjack"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger writes one rotating log file per concern. Store, Chal and
// Retr record the three round categories, Reward records scoring and
// tier movement, Epoch records window rollovers.
type Logger interface {
	Log(level string, msg string)
	Pnc(msg string)
	Store(level string, msg string)
	Chal(level string, msg string)
	Retr(level string, msg string)
	Reward(level string, msg string)
	Epoch(level string, msg string)
}

var LogFiles = []string{"log", "panic", "store", "challenge", "retrieve", "reward", "epoch"}

type logs struct {
	logpath map[string]string
	log     map[string]*zap.Logger
}

func NewLogs(logfiles map[string]string) (Logger, error) {
	var (
		logpath = make(map[string]string, 0)
		logCli  = make(map[string]*zap.Logger)
	)
	for name, fpath := range logfiles {
		dir := getFilePath(fpath)
		_, err := os.Stat(dir)
		if err != nil {
			err = os.MkdirAll(dir, 0755)
			if err != nil {
				return nil, errors.Errorf("%v,%v", dir, err)
			}
		}
		Encoder := getEncoder()
		newCore := zapcore.NewTee(
			zapcore.NewCore(Encoder, getWriteSyncer(fpath), zap.NewAtomicLevel()),
		)
		logpath[name] = fpath
		logCli[name] = zap.New(newCore, zap.AddCaller())
	}
	return &logs{
		logpath: logpath,
		log:     logCli,
	}, nil
}

func (l *logs) Log(level string, msg string) {
	l.write("log", level, msg)
}

func (l *logs) Pnc(msg string) {
	_, file, line, _ := runtime.Caller(1)
	v, ok := l.log["panic"]
	if ok {
		v.Sugar().Errorf("[%v:%d] %s", filepath.Base(file), line, msg)
	}
}

func (l *logs) Store(level string, msg string) {
	l.write("store", level, msg)
}

func (l *logs) Chal(level string, msg string) {
	l.write("challenge", level, msg)
}

func (l *logs) Retr(level string, msg string) {
	l.write("retrieve", level, msg)
}

func (l *logs) Reward(level string, msg string) {
	l.write("reward", level, msg)
}

func (l *logs) Epoch(level string, msg string) {
	l.write("epoch", level, msg)
}

func (l *logs) write(name string, level string, msg string) {
	_, file, line, _ := runtime.Caller(2)
	v, ok := l.log[name]
	if !ok {
		return
	}
	switch level {
	case "info":
		v.Sugar().Infof("[%v:%d] %s", filepath.Base(file), line, msg)
	case "err":
		v.Sugar().Errorf("[%v:%d] %s", filepath.Base(file), line, msg)
	}
}

func getFilePath(fpath string) string {
	path, _ := filepath.Abs(fpath)
	index := strings.LastIndex(path, string(os.PathSeparator))
	ret := path[:index]
	return ret
}

func getEncoder() zapcore.Encoder {
	return zapcore.NewConsoleEncoder(
		zapcore.EncoderConfig{
			TimeKey:        "ts",
			LevelKey:       "level",
			NameKey:        "logger",
			CallerKey:      "caller_line",
			FunctionKey:    zapcore.OmitKey,
			MessageKey:     "msg",
			StacktraceKey:  "stacktrace",
			LineEnding:     zapcore.DefaultLineEnding,
			EncodeLevel:    cEncodeLevel,
			EncodeTime:     cEncodeTime,
			EncodeDuration: zapcore.SecondsDurationEncoder,
			EncodeCaller:   nil,
		})
}

func getWriteSyncer(fpath string) zapcore.WriteSyncer {
	lumberJackLogger := &lumberjack.Logger{
		Filename:   fpath,
		MaxSize:    10,
		MaxBackups: 99,
		MaxAge:     180,
		LocalTime:  true,
		Compress:   true,
	}
	return zapcore.AddSync(lumberJackLogger)
}

func cEncodeLevel(level zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString("[" + level.CapitalString() + "]")
}

func cEncodeTime(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString("[" + t.Format("2006-01-02 15:04:05") + "]")
}
