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

package conc

import (
	"time"

	ants "github.com/panjf2000/ants/v2"
	"github.com/cockroachdb/errors"
)

// ErrPoolOverload 表示协程池已满且配置为非阻塞模式，任务被拒绝。
var ErrPoolOverload = ants.ErrPoolOverload

// Pool 封装 ants.Pool，提供容量受限的协程池能力。
//
// 说明：
//   - 容量用于限制同时运行的任务数（例如每连接一个处理任务）；
//   - 非阻塞模式下，池满时 Submit 立即返回 ErrPoolOverload，
//     由调用方决定拒绝策略（例如向客户端回写提示后关闭连接）。
type Pool struct {
	inner *ants.Pool
}

// NewPool 创建一个容量为 cap 的协程池。
func NewPool(cap int, opts ...PoolOption) (*Pool, error) {
	opt := defaultPoolOption()
	for _, o := range opts {
		o(opt)
	}

	inner, err := ants.NewPool(cap, opt.antsOptions()...)
	if err != nil {
		return nil, errors.Wrap(err, "conc: create ants pool")
	}
	return &Pool{inner: inner}, nil
}

// Submit 将任务提交到池中执行。
// 非阻塞模式下池满时返回 ErrPoolOverload；阻塞模式下会等待空闲 worker。
func (p *Pool) Submit(task func()) error {
	return p.inner.Submit(task)
}

// Running 返回当前正在执行任务的 worker 数。
func (p *Pool) Running() int {
	return p.inner.Running()
}

// Free 返回当前空闲的 worker 数。
func (p *Pool) Free() int {
	return p.inner.Free()
}

// Cap 返回池的容量。
func (p *Pool) Cap() int {
	return p.inner.Cap()
}

// Release 关闭池，不再接受新任务。
func (p *Pool) Release() {
	p.inner.Release()
}

// ReleaseTimeout 关闭池并等待所有运行中的任务结束，最长等待 timeout。
func (p *Pool) ReleaseTimeout(timeout time.Duration) error {
	return p.inner.ReleaseTimeout(timeout)
}

// Go 将任务提交到 ants 的默认池执行，代替裸用 go 关键字，
// 以便统一 panic 处理与协程数观测。
func Go(task func()) error {
	return ants.Submit(task)
}
