// Copyright (C) 2019-2020 Zilliz. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance
// with the License. You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software distributed under the License
// is distributed on an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express
// or implied. See the License for the specific language governing permissions and limitations under the License.

package retry

import "time"

type config struct {
	attempts     uint
	sleep        time.Duration
	maxSleepTime time.Duration
}

func newDefaultConfig() *config {
	return &config{
		attempts:     10,
		sleep:        200 * time.Millisecond,
		maxSleepTime: 3 * time.Second,
	}
}

// Option 用于配置重试行为的选项函数。
type Option func(*config)

// Attempts 设置最大尝试次数（含首次执行）。
func Attempts(attempts uint) Option {
	return func(c *config) {
		if attempts > 0 {
			c.attempts = attempts
		}
	}
}

// Sleep 设置首次重试前的休眠时间，之后按指数增长。
func Sleep(sleep time.Duration) Option {
	return func(c *config) {
		c.sleep = sleep
		// 保证上限不低于初始值。
		if c.sleep > c.maxSleepTime {
			c.maxSleepTime = c.sleep
		}
	}
}

// MaxSleepTime 设置单次重试休眠时间的上限。
func MaxSleepTime(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.maxSleepTime = d
		}
	}
}
