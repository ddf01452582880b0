package parser

import (
	"strings"

	"talent-bridge-go/internal/types"
)

// ValidateTemplate 按声明顺序检查必填变量，返回第一个既没有传值也没有默认值的变量
func ValidateTemplate(def types.TemplateDefinition, values map[string]string) error {
	for _, v := range def.Variables {
		if !v.Required {
			continue
		}
		if _, ok := values[v.Name]; ok {
			continue
		}
		if v.DefaultValue != nil {
			continue
		}
		return &MissingVariableError{Name: v.Name}
	}
	return nil
}

// Render 先校验，再单遍替换 {name} 占位符。
// 取值顺序：传入的值 > 变量默认值 > 保留占位符原文。替换结果不会被再次扫描。
func Render(def types.TemplateDefinition, values map[string]string) (string, error) {
	if err := ValidateTemplate(def, values); err != nil {
		return "", err
	}

	defaults := make(map[string]string, len(def.Variables))
	for _, v := range def.Variables {
		if v.DefaultValue != nil {
			defaults[v.Name] = *v.DefaultValue
		}
	}

	body := def.Body
	var sb strings.Builder
	sb.Grow(len(body))

	for i := 0; i < len(body); {
		if body[i] != '{' {
			sb.WriteByte(body[i])
			i++
			continue
		}

		end := i + 1
		for end < len(body) && isPlaceholderByte(body[end]) {
			end++
		}
		if end == i+1 || end >= len(body) || body[end] != '}' {
			// 不是合法占位符，原样输出 '{' 后继续扫描
			sb.WriteByte('{')
			i++
			continue
		}

		name := body[i+1 : end]
		if v, ok := values[name]; ok {
			sb.WriteString(v)
		} else if v, ok := defaults[name]; ok {
			sb.WriteString(v)
		} else {
			sb.WriteString(body[i : end+1])
		}
		i = end + 1
	}
	return sb.String(), nil
}

// Placeholders 返回正文中出现的占位符名称，按首次出现顺序去重
func Placeholders(body string) []string {
	var names []string
	seen := make(map[string]bool)
	for i := 0; i < len(body); i++ {
		if body[i] != '{' {
			continue
		}
		end := i + 1
		for end < len(body) && isPlaceholderByte(body[end]) {
			end++
		}
		if end == i+1 || end >= len(body) || body[end] != '}' {
			continue
		}
		name := body[i+1 : end]
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
		i = end
	}
	return names
}

func isPlaceholderByte(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}
