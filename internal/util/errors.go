package util

import "errors"

var (
	ErrUserNotFound     = errors.New("用户不存在")
	ErrEmailRegistered  = errors.New("该邮箱已被注册")
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrUnknownModule    = errors.New("unknown module")
	ErrAlreadyCheckedIn = errors.New("already checked in today")
)
