package httptransport

import (
	"zohovault/backend/internal/service"
	"zohovault/backend/internal/zoho"
)

// 错误消息映射表（业务错误 -> 中文消息）
var errorMessages = map[error]string{
	// 认证错误
	service.ErrExchangeFailed: "授权码交换失败，请重新发起登录",

	// 邮件错误
	service.ErrNoAccountFound: "当前账号下没有可用的邮件账户",
	zoho.ErrUnauthorized:      "邮件服务授权已失效，请重新登录",
}

// GetErrorMessage 获取错误的中文消息
func GetErrorMessage(err error) string {
	if msg, ok := errorMessages[err]; ok {
		return msg
	}
	return err.Error()
}

// 通用错误消息
const (
	// 认证相关
	MsgAuthRequired  = "未登录或会话已失效"
	MsgMissingCode   = "缺少授权码参数"
	MsgStateMismatch = "state校验失败，请重新发起登录"
	MsgLoginFailed   = "登录失败"

	// 提供方相关
	MsgProviderError = "邮件服务暂时不可用，请稍后再试"
)
