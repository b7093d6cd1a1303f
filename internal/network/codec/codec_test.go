package codec

import (
	"bufio"
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLineCodecDecode(t *testing.T) {
	c := &LineCodec{}
	r := bufio.NewReader(strings.NewReader("hello\nworld\r\n"))

	line, err := c.Decode(r)
	require.NoError(t, err)
	assert.Equal(t, "hello", line)

	line, err = c.Decode(r)
	require.NoError(t, err)
	assert.Equal(t, "world", line)

	_, err = c.Decode(r)
	assert.ErrorIs(t, err, io.EOF)
}

func TestLineCodecDecodePartialLastLine(t *testing.T) {
	// 对端在最后一行之后直接断开，残余字节仍应作为一行返回。
	c := &LineCodec{}
	r := bufio.NewReader(strings.NewReader("first\ntail"))

	line, err := c.Decode(r)
	require.NoError(t, err)
	assert.Equal(t, "first", line)

	line, err = c.Decode(r)
	require.NoError(t, err)
	assert.Equal(t, "tail", line)

	_, err = c.Decode(r)
	assert.ErrorIs(t, err, io.EOF)
}

func TestLineCodecDecodeMaxLineBytes(t *testing.T) {
	c := &LineCodec{MaxLineBytes: 8}
	r := bufio.NewReader(strings.NewReader("0123456789\n"))

	_, err := c.Decode(r)
	assert.Error(t, err)
}

func TestLineCodecDecodeCapsUnterminatedLine(t *testing.T) {
	// 没有换行符的超长输入在读取过程中即被拦截，不会被整体缓冲。
	c := &LineCodec{MaxLineBytes: 16}
	r := bufio.NewReader(strings.NewReader(strings.Repeat("a", 1<<20)))

	_, err := c.Decode(r)
	assert.Error(t, err)
}

func TestLineCodecDecodeCapsPartialLastLine(t *testing.T) {
	// EOF 前的残余行同样受上限约束。
	c := &LineCodec{MaxLineBytes: 4}
	r := bufio.NewReader(strings.NewReader("abcdefgh"))

	_, err := c.Decode(r)
	assert.Error(t, err)
}

func TestLineCodecEncode(t *testing.T) {
	c := &LineCodec{}
	var buf bytes.Buffer

	require.NoError(t, c.Encode(&buf, "hello"))
	require.NoError(t, c.Encode(&buf, ""))
	assert.Equal(t, "hello\n\n", buf.String())
}
