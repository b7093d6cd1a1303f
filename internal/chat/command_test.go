package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCommand(t *testing.T) {
	cases := []struct {
		name string
		line string
		want Command
	}{
		{"empty", "", Command{Kind: CommandEmpty}},
		{"whitespace only", "   ", Command{Kind: CommandEmpty}},
		{"plain chat", "hello there", Command{Kind: CommandChat, Body: "hello there"}},
		{"nick", "/nick alice", Command{Kind: CommandSetNick, Nick: "alice"}},
		{"nick uppercase keyword", "/NICK alice", Command{Kind: CommandSetNick, Nick: "alice"}},
		{"nick without name", "/nick", Command{Kind: CommandSetNick}},
		{"nick whitespace name", "/nick   ", Command{Kind: CommandSetNick}},
		{"list", "/list", Command{Kind: CommandList}},
		{"help", "/help", Command{Kind: CommandHelp}},
		{"quit", "/quit", Command{Kind: CommandQuit}},
		{"pm", "/pm bob hi there", Command{Kind: CommandPM, Nick: "bob", Body: "hi there"}},
		{"pm mixed case", "/Pm bob hi", Command{Kind: CommandPM, Nick: "bob", Body: "hi"}},
		{"pm missing body", "/pm bob", Command{Kind: CommandPM, Nick: "bob"}},
		{"pm missing all", "/pm", Command{Kind: CommandPM}},
		{"unknown slash falls through to chat", "/dance", Command{Kind: CommandChat, Body: "/dance"}},
		{"unknown slash with args", "/kick bob", Command{Kind: CommandChat, Body: "/kick bob"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ParseCommand(tc.line))
		})
	}
}
