package contract

import (
	"fmt"
	"strings"
)

// FormatError 调用文件或记录格式错误，不重试
type FormatError struct {
	Field  string
	Reason string
}

func (e *FormatError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("format error: %s", e.Reason)
	}
	return fmt.Sprintf("format error: field %q %s", e.Field, e.Reason)
}

// NotFoundError 名称不存在
type NotFoundError struct {
	Kind RecordKind
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("unknown %s name %q", e.Kind, e.Name)
}

// FatalLookupError 除"未找到"之外的查询失败，终止本次调用
type FatalLookupError struct {
	Kind RecordKind
	Name string
	Err  error
}

func (e *FatalLookupError) Error() string {
	return fmt.Sprintf("lookup %s %q: %v", e.Kind, e.Name, e.Err)
}

func (e *FatalLookupError) Unwrap() error {
	return e.Err
}

// SignatureIntegrityError 签名自校验失败
type SignatureIntegrityError struct {
	Err error
}

func (e *SignatureIntegrityError) Error() string {
	if e.Err == nil {
		return "signature integrity: self-verification failed"
	}
	return fmt.Sprintf("signature integrity: %v", e.Err)
}

func (e *SignatureIntegrityError) Unwrap() error {
	return e.Err
}

// AmbiguousNameError 只有未确认候选，没有已解析记录
type AmbiguousNameError struct {
	Kind       RecordKind
	Name       string
	Candidates []string
}

func (e *AmbiguousNameError) Error() string {
	return fmt.Sprintf("%s name %q is not confirmed (candidates: %s)", e.Kind, e.Name, strings.Join(e.Candidates, ", "))
}

// DuplicateNameError 注册的合约名已被占用（含未确认候选）
type DuplicateNameError struct {
	Name string
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("contract name %q already exists", e.Name)
}

// MissingProtocolError 注册时指定的协议不存在
type MissingProtocolError struct {
	Name string
}

func (e *MissingProtocolError) Error() string {
	return fmt.Sprintf("protocol name %q does not exist", e.Name)
}
