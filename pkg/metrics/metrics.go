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

package metrics

import (
	// #nosec
	_ "net/http/pprof"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	// chatNamespace 是当前项目所有 Prometheus 指标使用的命名空间。
	chatNamespace = "chat"

	// 以下为当前使用的通用标签名。
	messageKindLabelName = "kind"
	acceptorLabelName    = "acceptor"
)

// 消息类型标签的取值。
const (
	MessageKindBroadcast = "broadcast"
	MessageKindPrivate   = "private"
	MessageKindNotice    = "notice"
)

var (
	// ConnectedSessions 为当前保持的连接数（含尚未设置昵称的连接）。
	ConnectedSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: chatNamespace,
			Name:      "connected_sessions",
			Help:      "number of currently connected sessions",
		})

	// RegisteredNicks 为当前已注册昵称的数量。
	RegisteredNicks = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: chatNamespace,
			Name:      "registered_nicks",
			Help:      "number of nicknames currently registered",
		})

	// RoutedMessages 为按类型统计的已投递消息数。
	RoutedMessages = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: chatNamespace,
			Name:      "routed_messages_total",
			Help:      "number of messages enqueued for delivery, by kind",
		}, []string{messageKindLabelName})

	// RejectedConnections 为因连接池已满而被拒绝的连接数。
	RejectedConnections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: chatNamespace,
			Name:      "rejected_connections_total",
			Help:      "number of connections rejected because the pool was full",
		}, []string{acceptorLabelName})

	metricRegisterer prometheus.Registerer
)

// GetRegisterer 返回全局 Prometheus Registerer。
// 如果尚未通过 Register 显式设置，则返回 prometheus.DefaultRegisterer。
func GetRegisterer() prometheus.Registerer {
	if metricRegisterer == nil {
		return prometheus.DefaultRegisterer
	}
	return metricRegisterer
}

// Register 注册当前定义的所有指标。
// 通常应在 init 函数中调用。
func Register(r prometheus.Registerer) {
	r.MustRegister(ConnectedSessions)
	r.MustRegister(RegisteredNicks)
	r.MustRegister(RoutedMessages)
	r.MustRegister(RejectedConnections)
	metricRegisterer = r
}
