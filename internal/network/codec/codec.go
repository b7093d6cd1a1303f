package codec

import (
	"bufio"
	"io"
	"strings"

	"github.com/cockroachdb/errors"
)

// Codec 抽象了“行协议”的编解码。
//
// 约定：
//   - 协议以换行符（"\n" 或 "\r\n"）作为唯一的帧边界；
//   - Decode 返回的行以及 Encode 接收的行均不包含行结束符；
//   - 协议本身不限制行的最大长度，实现可以通过配置设置保护性上限。
type Codec interface {
	// Decode 从 r 中读取下一行。
	//
	// 返回：
	//   - 对端正常关闭连接时返回 io.EOF；
	//   - 连接在最后一行之后没有换行符时，最后的残余字节仍作为一行返回。
	Decode(r *bufio.Reader) (string, error)

	// Encode 将一行写入 w，并补上行结束符。
	// 整行通过一次 Write 写出，避免并发写时出现半行交叉。
	Encode(w io.Writer, line string) error
}

// LineCodec 是 Codec 的默认实现。
type LineCodec struct {
	// MaxLineBytes 为单行（含行结束符）的保护性上限，0 表示不限制。
	// 上限在读取过程中持续生效：超限的行不会被整体缓冲，
	// Decode 立即返回错误，由上层按读错误处理（断开该连接）。
	MaxLineBytes int
}

// 确保 LineCodec 实现了 Codec 接口。
var _ Codec = (*LineCodec)(nil)

// Decode 实现 Codec.Decode。
func (c *LineCodec) Decode(r *bufio.Reader) (string, error) {
	var line []byte
	for {
		frag, err := r.ReadSlice('\n')
		line = append(line, frag...)

		if c.MaxLineBytes > 0 && len(line) > c.MaxLineBytes {
			return "", errors.Newf("codec: line exceeds %d bytes", c.MaxLineBytes)
		}

		switch {
		case err == nil:
			return trimEOL(string(line)), nil
		case errors.Is(err, bufio.ErrBufferFull):
			// 行尚未结束，继续读取下一段。
		case errors.Is(err, io.EOF) && len(line) > 0:
			// 对端在最后一行之后直接关闭了连接。
			return trimEOL(string(line)), nil
		default:
			return "", err
		}
	}
}

// Encode 实现 Codec.Encode。
func (c *LineCodec) Encode(w io.Writer, line string) error {
	_, err := io.WriteString(w, line+"\n")
	return err
}

func trimEOL(line string) string {
	return strings.TrimRight(line, "\r\n")
}
