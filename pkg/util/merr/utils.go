// Licensed to the LF AI & Data foundation under one
// or more contributor license agreements. See the NOTICE file
// distributed with this work for additional information
// regarding copyright ownership. The ASF licenses this file
// to you under the Apache License, Version 2.0 (the
// "License"); you may not use this file except in compliance
// with the License. You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package merr

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"
)

// Code returns the error code of the given error,
// WARN: DO NOT use this to check whether two errors equal, use errors.Is instead.
func Code(err error) int32 {
	if err == nil {
		return 0
	}

	cause := errors.Cause(err)
	switch cause := cause.(type) {
	case chatError:
		return cause.code()

	default:
		if errors.Is(cause, context.Canceled) {
			return CanceledCode
		} else if errors.Is(cause, context.DeadlineExceeded) {
			return TimeoutCode
		} else {
			return errUnexpected.code()
		}
	}
}

// IsRetriable 判断错误是否可重试。
func IsRetriable(err error) bool {
	if err == nil {
		return false
	}
	cause := errors.Cause(err)
	if cause, ok := cause.(chatError); ok {
		return cause.retriable
	}
	return false
}

// IsCanceledOrTimeout 判断错误是否为上下文取消或超时。
func IsCanceledOrTimeout(err error) bool {
	return errors.IsAny(err, context.Canceled, context.DeadlineExceeded)
}

// GetErrorType 返回错误的类别（系统错误 / 输入错误）。
func GetErrorType(err error) ErrorType {
	cause := errors.Cause(err)
	if cause, ok := cause.(chatError); ok {
		return cause.errType
	}
	return SystemError
}

func appendMsg(err error, msg []string) error {
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

// Service related

func WrapErrServiceUnavailable(reason string, msg ...string) error {
	err := errors.Wrap(ErrServiceUnavailable, reason)
	return appendMsg(err, msg)
}

func WrapErrTooManyRequests(limit int, msg ...string) error {
	err := errors.Wrapf(ErrServiceTooManyRequests, "limit=%d", limit)
	return appendMsg(err, msg)
}

func WrapErrServiceInternal(reason string, msg ...string) error {
	err := errors.Wrap(ErrServiceInternal, reason)
	return appendMsg(err, msg)
}

// Nick related

func WrapErrNickTaken(nick string, msg ...string) error {
	err := errors.Wrapf(ErrNickTaken, "nick=%s", nick)
	return appendMsg(err, msg)
}

func WrapErrNickNotFound(nick string, msg ...string) error {
	err := errors.Wrapf(ErrNickNotFound, "nick=%s", nick)
	return appendMsg(err, msg)
}

func WrapErrNickEmpty(msg ...string) error {
	return appendMsg(error(ErrNickEmpty), msg)
}

// Session related

func WrapErrSessionClosed(id uint64, msg ...string) error {
	err := errors.Wrapf(ErrSessionClosed, "session=%d", id)
	return appendMsg(err, msg)
}

func WrapErrSessionDuplicate(id uint64, msg ...string) error {
	err := errors.Wrapf(ErrSessionDuplicate, "session=%d", id)
	return appendMsg(err, msg)
}

// Command related

func WrapErrCommandMalformed(command string, msg ...string) error {
	err := errors.Wrapf(ErrCommandMalformed, "command=%s", command)
	return appendMsg(err, msg)
}

// IO related

func WrapErrIoFailed(target string, err error) error {
	if err == nil {
		return nil
	}
	return errors.Wrapf(ErrIoFailed, "target=%s: %v", target, err)
}
