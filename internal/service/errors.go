package service

import "errors"

// 服务层哨兵错误, handler 层用 errors.Is 映射为 HTTP 状态码
var (
	ErrEmailExists        = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserDisabled       = errors.New("user disabled")
	ErrUserNotFound       = errors.New("user not found")

	ErrProductNotFound  = errors.New("product not found")
	ErrCartItemNotFound = errors.New("cart item not found")
	ErrInvalidQuantity  = errors.New("invalid quantity")

	ErrCartEmpty         = errors.New("cart is empty")
	ErrOrderNotFound     = errors.New("order not found")
	ErrOrderCreateFailed = errors.New("order create failed")

	ErrWebhookVerifyFailed   = errors.New("webhook verify failed")
	ErrWebhookPayloadInvalid = errors.New("webhook payload invalid")
)
