package services

import (
	"errors"
	"fmt"
)

// Error kinds. Every domain error returned by this package wraps exactly one
// of these, so callers classify with errors.Is. Anything else is an internal
// failure.
var (
	ErrNotFound         = errors.New("not found")
	ErrInvalidOperation = errors.New("invalid operation")
	ErrForbidden        = errors.New("forbidden")
	ErrPaymentRequired  = errors.New("payment required")
	ErrInvalidInput     = errors.New("invalid input")
	ErrUnauthenticated  = errors.New("unauthenticated")
	ErrConflict         = errors.New("conflict")
)

var (
	ErrUserNotFound       = kindError(ErrNotFound, "用户不存在")
	ErrReceiverNotFound   = kindError(ErrNotFound, "接收者不存在")
	ErrRelationNotFound   = kindError(ErrNotFound, "好友关系不存在")
	ErrShareNotFound      = kindError(ErrNotFound, "位置分享不存在")
	ErrSelfFriend         = kindError(ErrInvalidOperation, "不能添加自己为好友")
	ErrSelfShare          = kindError(ErrInvalidOperation, "不能向自己发送位置")
	ErrNotActiveFriend    = kindError(ErrForbidden, "接收者不在你的有效好友列表中")
	ErrNotShareParty      = kindError(ErrForbidden, "无权访问此位置分享")
	ErrInsufficientTokens = kindError(ErrPaymentRequired, "令牌余额不足，无法发送位置")
	ErrInvalidAmount      = kindError(ErrInvalidInput, "充值数量必须是 1 到 100000 之间的整数")
	ErrMissingCiphertext  = kindError(ErrInvalidInput, "ciphertext 不能为空")
	ErrMissingReceiver    = kindError(ErrInvalidInput, "receiverUid 不能为空")
	ErrInvalidMeta        = kindError(ErrInvalidInput, "meta 必须是 JSON 对象或数组")
	ErrInvalidStatus      = kindError(ErrInvalidInput, "无效的好友状态")
	ErrInvalidCredentials = kindError(ErrUnauthenticated, "邮箱或密码错误")
	ErrUserAlreadyExists  = kindError(ErrConflict, "邮箱或手机号已被注册")
	ErrAccountDisabled    = kindError(ErrForbidden, "账号已被停用")
	ErrInvalidUserStatus  = kindError(ErrInvalidInput, "无效的账号状态")
)

func kindError(kind error, msg string) error {
	return fmt.Errorf("%w: %s", kind, msg)
}
