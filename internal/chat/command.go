package chat

import "strings"

// CommandKind 标识一条入站行解析后的命令类型。
type CommandKind int

const (
	// CommandEmpty 表示空行（或仅含空白字符的行），不做任何处理。
	CommandEmpty CommandKind = iota
	// CommandChat 表示一条公共聊天消息。
	CommandChat
	// CommandSetNick 对应 /nick。
	CommandSetNick
	// CommandList 对应 /list。
	CommandList
	// CommandPM 对应 /pm。
	CommandPM
	// CommandHelp 对应 /help。
	CommandHelp
	// CommandQuit 对应 /quit。
	CommandQuit
)

// Command 是从一条入站行解析出的带标签命令。
//
// 字段按 Kind 取值：
//   - CommandSetNick：Nick 为新昵称（可能为空，由调度器回复用法提示）；
//   - CommandPM     ：Nick 为目标昵称，Body 为正文（二者任一为空视为参数不足）；
//   - CommandChat   ：Body 为原始行内容；
//   - 其余类型不携带参数。
//
// 生命周期：每行构造一次，立即消费，不持久化。
type Command struct {
	Kind CommandKind
	Nick string
	Body string
}

// ParseCommand 将一条入站行解析为 Command。
//
// 规则：
//   - 命令关键字大小写不敏感，以空格分隔；
//   - /pm 的正文为第二个空格之后的全部内容（可以包含空格）；
//   - 未知的斜杠前缀命令按普通聊天消息处理（沿用参考实现的行为）；
//   - 空行或仅空白字符的行解析为 CommandEmpty。
func ParseCommand(line string) Command {
	if strings.TrimSpace(line) == "" {
		return Command{Kind: CommandEmpty}
	}

	if !strings.HasPrefix(line, "/") {
		return Command{Kind: CommandChat, Body: line}
	}

	keyword, rest, _ := strings.Cut(line, " ")
	switch strings.ToLower(keyword) {
	case "/nick":
		return Command{Kind: CommandSetNick, Nick: strings.TrimSpace(rest)}
	case "/list":
		return Command{Kind: CommandList}
	case "/pm":
		target, body, _ := strings.Cut(rest, " ")
		return Command{Kind: CommandPM, Nick: strings.TrimSpace(target), Body: body}
	case "/help":
		return Command{Kind: CommandHelp}
	case "/quit":
		return Command{Kind: CommandQuit}
	default:
		// 未知斜杠命令：按原样广播。
		return Command{Kind: CommandChat, Body: line}
	}
}
