package file

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// charsetReader 字符集转换器, 统一转为UTF-8
// 支持UTF-8(去BOM)、GBK/GB2312、Latin-1、Windows-1252
func charsetReader(charset string, input io.Reader) (io.Reader, error) {
	charset = strings.ToLower(strings.TrimSpace(charset))
	switch charset {
	case "", "utf-8", "utf8":
		return transform.NewReader(input, unicode.BOMOverride(unicode.UTF8.NewDecoder())), nil
	case "gbk", "gb2312":
		return transform.NewReader(input, simplifiedchinese.GBK.NewDecoder()), nil
	case "latin1", "iso-8859-1":
		return transform.NewReader(input, charmap.ISO8859_1.NewDecoder()), nil
	case "windows-1252", "cp1252":
		return transform.NewReader(input, charmap.Windows1252.NewDecoder()), nil
	default:
		return nil, fmt.Errorf("unsupported encoding %q", charset)
	}
}
