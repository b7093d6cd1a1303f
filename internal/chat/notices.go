package chat

import "fmt"

// 本文件集中维护所有服务器下行的提示语与消息格式。
//
// 说明：
//   - 提示语为面向最终用户的英文文案，协议语义见各调用点；
//   - 消息格式（广播、私聊）是客户端可见契约，修改前需要同步调整测试。

const (
	// 连接建立后下发的欢迎语，共两行。
	noticeWelcome      = "Welcome to the chat server!"
	noticeWelcomeUsage = "Commands: /nick <name>, /list, /pm <nick> <message>, /help, /quit"

	noticeNickUsage = "Usage: /nick <name>"
	noticeNickTaken = "Nick already in use."

	noticePMUsage      = "Usage: /pm <nick> <message>"
	noticeUserNotFound = "User not found."

	noticeSetNickFirst = "Set a nick first."

	// /list 回复的形状：头部行、每人一行 "- <name>"、END 结束标记。
	noticeListHeader = "Connected users:"
	noticeListEnd    = "END"

	noticeFarewell = "Bye."

	// 连接数达到上限时回写给被拒绝客户端的提示。
	noticeServerFull = "Server is full. Try again later."
)

// helpNotice 为 /help 的回复内容，按行下发。
var helpNotice = []string{
	"Available commands:",
	"  /nick <name>          set or change your nickname",
	"  /list                 list connected users",
	"  /pm <nick> <message>  send a private message",
	"  /help                 show this help",
	"  /quit                 leave the chat",
}

func noticeNickSet(name string) string {
	return fmt.Sprintf("Nick set: %s", name)
}

func noticeJoined(name string) string {
	return fmt.Sprintf("%s joined the chat.", name)
}

func noticeRenamed(oldName, newName string) string {
	return fmt.Sprintf("%s is now known as %s.", oldName, newName)
}

func noticeLeft(name string) string {
	return fmt.Sprintf("%s left the chat.", name)
}

func noticeListEntry(name string) string {
	return fmt.Sprintf("- %s", name)
}

// formatChat 为公共聊天消息的广播格式。
func formatChat(nick, body string) string {
	return fmt.Sprintf("%s: %s", nick, body)
}

// formatPrivate 为私聊消息的投递格式，仅目标会话可见。
func formatPrivate(sender, body string) string {
	return fmt.Sprintf("(PM) %s: %s", sender, body)
}
