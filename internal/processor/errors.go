package processor

import (
	"errors"
	"fmt"

	"talent-bridge-go/internal/parser"
)

// 解码与渲染阶段的错误定义在 parser 包中，这里统一导出，边界层只需要依赖 processor
type (
	UnsupportedFormatError = parser.UnsupportedFormatError
	DecodeError            = parser.DecodeError
	MissingVariableError   = parser.MissingVariableError
)

// 基础错误，配合 errors.Is 使用
var (
	ErrUnsupportedFormat = parser.ErrUnsupportedFormat
	ErrDecode            = parser.ErrDecode
	ErrMissingVariable   = parser.ErrMissingVariable

	ErrEmployeeNotFound = errors.New("员工不存在")
	ErrTemplateNotFound = errors.New("模板不存在")
	ErrCVNotFound       = errors.New("员工尚未上传简历")
	ErrValidation       = errors.New("请求参数不合法")
)

// EmployeeNotFoundError 目标员工不存在
type EmployeeNotFoundError struct {
	EmployeeID uint64
}

func (e *EmployeeNotFoundError) Error() string {
	return fmt.Sprintf("%s (ID:%d)", ErrEmployeeNotFound, e.EmployeeID)
}

func (e *EmployeeNotFoundError) Is(target error) bool {
	return target == ErrEmployeeNotFound
}

// TemplateNotFoundError 模板不存在或已停用
type TemplateNotFoundError struct {
	TemplateID uint64
}

func (e *TemplateNotFoundError) Error() string {
	return fmt.Sprintf("%s (ID:%d)", ErrTemplateNotFound, e.TemplateID)
}

func (e *TemplateNotFoundError) Is(target error) bool {
	return target == ErrTemplateNotFound
}

// CVNotFoundError 员工没有简历，或简历对象已被删除
type CVNotFoundError struct {
	EmployeeID uint64
}

func (e *CVNotFoundError) Error() string {
	return fmt.Sprintf("%s (员工ID:%d)", ErrCVNotFound, e.EmployeeID)
}

func (e *CVNotFoundError) Is(target error) bool {
	return target == ErrCVNotFound
}

// ValidationError 请求字段校验失败
type ValidationError struct {
	Field  string
	Detail string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", ErrValidation, e.Detail)
	}
	return fmt.Sprintf("%s: %s %s", ErrValidation, e.Field, e.Detail)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// NewValidationError 构造校验错误
func NewValidationError(field, detail string) error {
	return &ValidationError{Field: field, Detail: detail}
}
