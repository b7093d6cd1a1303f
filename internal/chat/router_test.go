package chat

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lk2023060901/chat-garden-go/pkg/util/merr"
)

func TestRouterBroadcastAll(t *testing.T) {
	registry := NewRegistry()
	router := NewRouter(registry)

	s1 := newStubSession(1)
	s2 := newStubSession(2)
	require.NoError(t, registry.Register("alice", s1))
	require.NoError(t, registry.Register("bob", s2))

	// 未注册昵称的会话对广播不可见。
	ghost := newStubSession(3)

	router.BroadcastAll("alice: hello")

	assert.Equal(t, []string{"alice: hello"}, s1.Lines())
	assert.Equal(t, []string{"alice: hello"}, s2.Lines())
	assert.Empty(t, ghost.Lines())
}

func TestRouterBroadcastSkipsClosedSession(t *testing.T) {
	registry := NewRegistry()
	router := NewRouter(registry)

	s1 := newStubSession(1)
	s2 := newStubSession(2)
	require.NoError(t, registry.Register("alice", s1))
	require.NoError(t, registry.Register("bob", s2))

	_ = s2.Close()
	router.BroadcastAll("still here")

	assert.Equal(t, []string{"still here"}, s1.Lines())
	assert.Empty(t, s2.Lines())
}

func TestRouterSendTo(t *testing.T) {
	registry := NewRegistry()
	router := NewRouter(registry)

	s1 := newStubSession(1)
	s2 := newStubSession(2)
	require.NoError(t, registry.Register("alice", s1))
	require.NoError(t, registry.Register("bob", s2))

	require.NoError(t, router.SendTo("alice", "(PM) bob: hi"))

	// 单播只到达目标会话。
	assert.Equal(t, []string{"(PM) bob: hi"}, s1.Lines())
	assert.Empty(t, s2.Lines())
}

func TestRouterSendToNotFound(t *testing.T) {
	registry := NewRegistry()
	router := NewRouter(registry)

	err := router.SendTo("ghost", "hello?")
	assert.ErrorIs(t, err, merr.ErrNickNotFound)
}

func TestRouterSendToClosedTarget(t *testing.T) {
	registry := NewRegistry()
	router := NewRouter(registry)

	s1 := newStubSession(1)
	require.NoError(t, registry.Register("alice", s1))
	_ = s1.Close()

	// 目标在查找与入队之间关闭，对发送方呈现为“目标不在线”。
	assert.ErrorIs(t, router.SendTo("alice", "hi"), merr.ErrNickNotFound)
}

func TestRouterPerRecipientFIFO(t *testing.T) {
	registry := NewRegistry()
	router := NewRouter(registry)

	s1 := newStubSession(1)
	require.NoError(t, registry.Register("alice", s1))

	const n = 50
	want := make([]string, 0, n)
	for i := 0; i < n; i++ {
		line := fmt.Sprintf("msg-%02d", i)
		want = append(want, line)
		if i%2 == 0 {
			router.BroadcastAll(line)
		} else {
			require.NoError(t, router.SendTo("alice", line))
		}
	}

	assert.Equal(t, want, s1.Lines())
}

func TestRouterNotify(t *testing.T) {
	registry := NewRegistry()
	router := NewRouter(registry)

	s1 := newStubSession(1)
	router.Notify(s1, "one", "two", "three")
	assert.Equal(t, []string{"one", "two", "three"}, s1.Drain())

	// 会话关闭后 Notify 静默丢弃。
	_ = s1.Close()
	router.Notify(s1, "four")
	assert.Empty(t, s1.Lines())
}
