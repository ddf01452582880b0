package parser

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// TokenKind 词法单元类型
type TokenKind int

const (
	TokenWord       TokenKind = iota // 字母/数字混合的词，含 _ + #（C++、C#）
	TokenNumber                      // 纯ASCII数字
	TokenDash                        // - – —
	TokenTerminator                  // 句子结束符 . ! ?
	TokenNewline
	TokenPunct // 其他单个符号
)

func (k TokenKind) String() string {
	switch k {
	case TokenWord:
		return "word"
	case TokenNumber:
		return "number"
	case TokenDash:
		return "dash"
	case TokenTerminator:
		return "terminator"
	case TokenNewline:
		return "newline"
	default:
		return "punct"
	}
}

// Token 词法单元，Start/End 为原文中的字节偏移，半开区间
type Token struct {
	Kind  TokenKind
	Text  string
	Start int
	End   int
}

// IsYear 四位数字
func (t Token) IsYear() bool {
	return t.Kind == TokenNumber && len(t.Text) == 4
}

// Tokenize 把文本切分为词法单元，空白（换行除外）不产生单元
func Tokenize(text string) []Token {
	var tokens []Token

	i := 0
	for i < len(text) {
		r, size := utf8.DecodeRuneInString(text[i:])

		switch {
		case r == '\n':
			tokens = append(tokens, Token{Kind: TokenNewline, Text: "\n", Start: i, End: i + size})
			i += size
		case unicode.IsSpace(r):
			i += size
		case isDash(r):
			tokens = append(tokens, Token{Kind: TokenDash, Text: text[i : i+size], Start: i, End: i + size})
			i += size
		case r == '.' || r == '!' || r == '?':
			tokens = append(tokens, Token{Kind: TokenTerminator, Text: text[i : i+size], Start: i, End: i + size})
			i += size
		case isWordRune(r):
			start := i
			digitsOnly := true
			for i < len(text) {
				r, size = utf8.DecodeRuneInString(text[i:])
				if !isWordRune(r) {
					break
				}
				if r < '0' || r > '9' {
					digitsOnly = false
				}
				i += size
			}
			kind := TokenWord
			if digitsOnly {
				kind = TokenNumber
			}
			tokens = append(tokens, Token{Kind: kind, Text: text[start:i], Start: start, End: i})
		default:
			tokens = append(tokens, Token{Kind: TokenPunct, Text: text[i : i+size], Start: i, End: i + size})
			i += size
		}
	}
	return tokens
}

func isDash(r rune) bool {
	return r == '-' || r == '–' || r == '—'
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '+' || r == '#'
}

// phrase 词表中的一项，预先切分成词法单元序列
type phrase struct {
	canonical string
	tokens    []Token
}

func compilePhrases(entries []string) []phrase {
	phrases := make([]phrase, 0, len(entries))
	seen := make(map[string]bool, len(entries))
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		key := strings.ToLower(entry)
		if entry == "" || seen[key] {
			continue
		}
		toks := Tokenize(entry)
		if len(toks) == 0 {
			continue
		}
		seen[key] = true
		phrases = append(phrases, phrase{canonical: entry, tokens: toks})
	}
	return phrases
}

// matchAt 判断从 tokens[i] 开始是否与短语逐个单元相同（忽略大小写），返回匹配的单元数
func (p phrase) matchAt(tokens []Token, i int) int {
	if i+len(p.tokens) > len(tokens) {
		return 0
	}
	for j, pt := range p.tokens {
		t := tokens[i+j]
		if t.Kind != pt.Kind || !strings.EqualFold(t.Text, pt.Text) {
			return 0
		}
	}
	return len(p.tokens)
}

// longestMatch 在位置 i 上返回最长的匹配短语
func longestMatch(phrases []phrase, tokens []Token, i int) (int, int) {
	best, bestLen := -1, 0
	for idx, p := range phrases {
		if n := p.matchAt(tokens, i); n > bestLen {
			best, bestLen = idx, n
		}
	}
	return best, bestLen
}
