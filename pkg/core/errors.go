package core

import "errors"

// 这一层只有两类错误：
//   - ErrInvalidArgument: 构造时同步抛出，字段为空或超出允许域。
//     对象一旦构造成功就不可变，之后不会再出现这个错误。
//   - ErrMalformedObject: 仅在反序列化时抛出，字节输入无法解码为
//     结构合法的对象 (截断、未知类型 Token、非规范编码等)。
//
// 构造和解析都是纯函数，错误直接上抛给调用方，不重试、不打日志、不兜底。
var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrMalformedObject = errors.New("malformed object")
)
