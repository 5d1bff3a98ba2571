package entity

import "errors"

var (
	ErrInvalidConfig   = errors.New("invalid configuration")
	ErrNavigation      = errors.New("navigation failed")
	ErrElementNotFound = errors.New("element not found")
	ErrBrowserClosed   = errors.New("browser is closed")
)
