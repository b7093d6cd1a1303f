// Copyright 2019 PingCAP, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// See the License for the specific language governing permissions and
// limitations under the License.

package log

import (
	"path/filepath"
	"sync/atomic"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var _globalL, _globalP, _globalS atomic.Value

func init() {
	l, p := newStdLogger()

	_globalL.Store(l)
	_globalP.Store(p)
	_globalS.Store(l.Sugar())
}

// newStdLogger 创建进程启动初期使用的默认 Logger，输出到 stdout，级别为 info。
// 在 InitLogger/ReplaceGlobals 被调用之前，所有日志均经过该 Logger。
func newStdLogger() (*zap.Logger, *ZapProperties) {
	cfg := &Config{Level: "info", Format: "text", Stdout: true}
	lg, p, err := InitLogger(cfg)
	if err != nil {
		panic(err)
	}
	return lg, p
}

// InitLogger 根据配置初始化一个 zap Logger。
//
// 说明：
//   - 当 File.Filename 非空时，同时输出到按大小滚动的日志文件（lumberjack）；
//   - 当 Stdout 为 true 时，同时输出到标准输出；
//   - 两者都未开启时，日志被丢弃。
func InitLogger(cfg *Config, opts ...zap.Option) (*zap.Logger, *ZapProperties, error) {
	var outputs []zapcore.WriteSyncer
	if len(cfg.File.Filename) > 0 {
		lg, err := initFileLog(&cfg.File)
		if err != nil {
			return nil, nil, err
		}
		outputs = append(outputs, zapcore.AddSync(lg))
	}
	if cfg.Stdout {
		stdOut, _, err := zap.Open("stdout")
		if err != nil {
			return nil, nil, err
		}
		outputs = append(outputs, stdOut)
	}

	var syncer zapcore.WriteSyncer
	if len(outputs) == 0 {
		syncer = zapcore.AddSync(nopWriter{})
	} else {
		syncer = zap.CombineWriteSyncers(outputs...)
	}
	return InitLoggerWithWriteSyncer(cfg, syncer, opts...)
}

// InitLoggerWithWriteSyncer 使用给定的 WriteSyncer 初始化 zap Logger。
// 便于在测试中将日志重定向到自定义 writer。
func InitLoggerWithWriteSyncer(cfg *Config, syncer zapcore.WriteSyncer, opts ...zap.Option) (*zap.Logger, *ZapProperties, error) {
	level := zap.NewAtomicLevel()
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		return nil, nil, errors.Wrapf(err, "parse log level %q", cfg.Level)
	}

	core := zapcore.NewCore(cfg.buildEncoder(), syncer, level)
	opts = append(cfg.buildOptions(syncer), opts...)
	lg := zap.New(core, opts...)

	r := &ZapProperties{
		Core:   core,
		Syncer: syncer,
		Level:  level,
	}
	return lg, r, nil
}

// initFileLog 初始化基于 lumberjack 的文件日志输出。
func initFileLog(cfg *FileLogConfig) (*lumberjack.Logger, error) {
	maxSize := cfg.MaxSize
	if maxSize <= 0 {
		maxSize = defaultLogMaxSize
	}
	return &lumberjack.Logger{
		Filename:   filepath.Join(cfg.RootPath, cfg.Filename),
		MaxSize:    maxSize,
		MaxAge:     cfg.MaxDays,
		MaxBackups: cfg.MaxBackups,
		LocalTime:  true,
	}, nil
}

// ReplaceGlobals 替换全局 Logger 及其属性。
// 通常只应在进程初始化阶段调用一次。
func ReplaceGlobals(logger *zap.Logger, props *ZapProperties) {
	_globalL.Store(logger)
	_globalS.Store(logger.Sugar())
	_globalP.Store(props)
}

// L 返回全局 Logger，可在 ReplaceGlobals 之后安全地并发使用。
func L() *zap.Logger {
	return _globalL.Load().(*zap.Logger)
}

// S 返回全局 SugaredLogger，可在 ReplaceGlobals 之后安全地并发使用。
func S() *zap.SugaredLogger {
	return _globalS.Load().(*zap.SugaredLogger)
}

func props() *ZapProperties {
	return _globalP.Load().(*ZapProperties)
}

// Sync 刷新全局 Logger 中缓存的日志条目。
func Sync() error {
	return L().Sync()
}

type nopWriter struct{}

func (nopWriter) Write(p []byte) (int, error) { return len(p), nil }
