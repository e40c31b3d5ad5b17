package utils

import (
	"fmt"
)

type ServiceError struct {
	Code uint32
	Msg  string
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("ServiceError: code=%d, msg=%s", e.Code, e.Msg)
}

var (
	// business error code: [500000, 600000)
	ErrOpenCsv = &ServiceError{500001, "open csv error"}
	ErrReadCsv = &ServiceError{500002, "read csv error"}

	// ErrInvalidArgument 入参非法，构造和查询入口处直接失败
	ErrInvalidArgument = &ServiceError{510000, "invalid argument"}
	// ErrCorruptState 持久化状态损坏，加载校验失败
	ErrCorruptState = &ServiceError{520000, "corrupt persisted state"}
	// ErrDeserialization objective的序列化串无法还原
	ErrDeserialization = &ServiceError{530000, "deserialization failure"}
)
