package htmldown

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/traditionalchinese"
	"golang.org/x/text/encoding/unicode"
)

// decodeText converts data to UTF-8. A declared charset wins; HTML is
// then sniffed for a BOM or <meta charset>; anything else goes through
// statistical detection.
func decodeText(data []byte, info StreamInfo, sniffHTML bool) string {
	if info.Charset != "" {
		if enc := lookupEncoding(info.Charset); enc != nil {
			if decoded, err := enc.NewDecoder().Bytes(data); err == nil {
				return string(decoded)
			}
		}
	}

	// A BOM or Content-Type charset is certain. A <meta> declaration only
	// counts for input that is not valid UTF-8; without one the guess is
	// left to statistical detection.
	if sniffHTML {
		enc, _, certain := charset.DetermineEncoding(data, info.MIMEType)
		if enc != nil && (certain || (!utf8.Valid(data) && declaresCharset(data))) {
			if decoded, err := enc.NewDecoder().Bytes(data); err == nil {
				return strings.TrimPrefix(string(decoded), "\ufeff")
			}
		}
	}

	return decodeWithDetection(data)
}

var reMetaCharset = regexp.MustCompile(`(?i)<meta[^>]+charset\s*=`)

// declaresCharset reports whether the document head carries a <meta>
// charset declaration.
func declaresCharset(data []byte) bool {
	if len(data) > 1024 {
		data = data[:1024]
	}
	return reMetaCharset.Match(data)
}

// decodeWithDetection detects the encoding of data and decodes it to UTF-8.
func decodeWithDetection(data []byte) string {
	if utf8.Valid(data) {
		return strings.TrimPrefix(string(data), "\ufeff")
	}

	results, err := chardet.NewTextDetector().DetectAll(data)
	if err != nil || len(results) == 0 {
		return strings.ToValidUTF8(string(data), "�")
	}

	// chardet often reports CJK input as a Latin charset, so every
	// candidate is decoded and the most coherent text wins.
	bestScore, bestText := -1, ""
	for _, r := range results {
		enc := lookupEncoding(r.Charset)
		if enc == nil {
			continue
		}
		decoded, err := enc.NewDecoder().Bytes(data)
		if err != nil {
			continue
		}
		if score := scoreDecodedText(string(decoded), r.Confidence); score > bestScore {
			bestScore, bestText = score, string(decoded)
		}
	}
	if bestText != "" {
		return bestText
	}
	return strings.ToValidUTF8(string(data), "�")
}

// commonCJK holds frequent CJK characters. Their presence marks a correct
// CJK decoding; rare ideographs point at a misdetected Latin charset.
const commonCJK = "的一是不了人我在有他这中大来上个国到说们为你对生能地下过子" +
	"那要就出会也好开后还事多么然于心可她自之年时发作里如果所" +
	"名前年齢住所東京大阪日本語文字本物時間会社学生先生" +
	"人民共产党政府国家社主义经济发展改革建设工业农科技术教育文化"

// scoreDecodedText scores how coherent a decoded text looks.
func scoreDecodedText(text string, confidence int) int {
	score := confidence
	for _, r := range text {
		switch {
		case r == '�':
			score -= 10
		case r < 0x20 && r != '\n' && r != '\r' && r != '\t':
			score -= 5
		case r >= 0x3040 && r <= 0x30FF, r >= 0xFF00 && r <= 0xFFEF:
			score += 5
		case r >= 0x4E00 && r <= 0x9FFF:
			if strings.ContainsRune(commonCJK, r) {
				score += 5
			} else {
				score++
			}
		case r >= 'A' && r <= 'z':
			score++
		}
	}
	return score
}

// lookupEncoding maps charset names to Go encoding implementations.
func lookupEncoding(name string) encoding.Encoding {
	switch strings.ToLower(strings.NewReplacer("-", "", "_", "").Replace(name)) {
	case "utf8", "utf8bom", "ascii", "usascii":
		return unicode.UTF8
	case "utf16le":
		return unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)
	case "utf16be":
		return unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM)
	case "iso88591", "latin1":
		return charmap.ISO8859_1
	case "iso88592":
		return charmap.ISO8859_2
	case "iso88595":
		return charmap.ISO8859_5
	case "iso88597":
		return charmap.ISO8859_7
	case "iso885915":
		return charmap.ISO8859_15
	case "windows1250", "cp1250":
		return charmap.Windows1250
	case "windows1251", "cp1251":
		return charmap.Windows1251
	case "windows1252", "cp1252":
		return charmap.Windows1252
	case "koi8r":
		return charmap.KOI8R
	case "shiftjis", "sjis", "cp932", "windows31j":
		return japanese.ShiftJIS
	case "eucjp":
		return japanese.EUCJP
	case "iso2022jp":
		return japanese.ISO2022JP
	case "euckr", "cp949":
		return korean.EUCKR
	case "gb2312", "gbk", "cp936", "gb18030":
		return simplifiedchinese.GBK
	case "big5", "cp950":
		return traditionalchinese.Big5
	}
	// Fall back to the WHATWG names known to the HTML charset package.
	if enc, _ := charset.Lookup(name); enc != nil {
		return enc
	}
	return nil
}
