package log

import (
	"go.uber.org/zap"
)

const (
	FieldNameModule    = "module"
	FieldNameComponent = "component"
	FieldNameSession   = "session"
	FieldNameNick      = "nick"
)

// FieldModule 返回一个包含模块名的 zap 字段。
func FieldModule(module string) zap.Field {
	return zap.String(FieldNameModule, module)
}

// FieldComponent 返回一个包含组件名的 zap 字段。
func FieldComponent(component string) zap.Field {
	return zap.String(FieldNameComponent, component)
}

// FieldSession 返回一个包含会话 ID 的 zap 字段。
func FieldSession(id uint64) zap.Field {
	return zap.Uint64(FieldNameSession, id)
}

// FieldNick 返回一个包含昵称的 zap 字段。
func FieldNick(nick string) zap.Field {
	return zap.String(FieldNameNick, nick)
}
