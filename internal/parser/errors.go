package parser

import (
	"errors"
	"fmt"

	"talent-bridge-go/internal/types"
)

// 基础错误，配合 errors.Is 使用
var (
	ErrUnsupportedFormat = errors.New("不支持的文档格式")
	ErrDecode            = errors.New("文档解码失败")
	ErrMissingVariable   = errors.New("缺少必填模板变量")
)

// UnsupportedFormatError 声明的格式既不是pdf也不是docx
type UnsupportedFormatError struct {
	Format string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("%s: %q", ErrUnsupportedFormat, e.Format)
}

func (e *UnsupportedFormatError) Is(target error) bool {
	return target == ErrUnsupportedFormat
}

// DecodeError 载荷与声明的格式不符（容器损坏、流不可读）
type DecodeError struct {
	Format types.DocumentFormat
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s (格式:%s)", ErrDecode, e.Format)
	}
	return fmt.Sprintf("%s (格式:%s): %v", ErrDecode, e.Format, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

func (e *DecodeError) Is(target error) bool {
	return target == ErrDecode
}

// MissingVariableError 必填变量既没有传值也没有默认值
type MissingVariableError struct {
	Name string
}

func (e *MissingVariableError) Error() string {
	return fmt.Sprintf("%s: %s", ErrMissingVariable, e.Name)
}

func (e *MissingVariableError) Is(target error) bool {
	return target == ErrMissingVariable
}
