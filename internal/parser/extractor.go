package parser

import (
	"sort"
	"strconv"
	"strings"

	"talent-bridge-go/internal/config"
	"talent-bridge-go/internal/types"
)

// SpanKind 识别出的片段类别
type SpanKind string

const (
	SpanSkill      SpanKind = "skill"
	SpanExperience SpanKind = "experience"
	SpanEducation  SpanKind = "education"
)

// Span 一次识别的结果在原文中的位置。同一类别内的片段互不重叠。
type Span struct {
	Kind  SpanKind `json:"kind"`
	Start int      `json:"start"`
	End   int      `json:"end"`
	Text  string   `json:"text"`
}

// ExtractorConfig 词表配置，均为大小写不敏感匹配，输出使用词表中的写法
type ExtractorConfig struct {
	SkillVocabulary []string
	DegreeKeywords  []string
	OpenEndTokens   []string
}

// DefaultExtractorConfig 默认词表
func DefaultExtractorConfig() ExtractorConfig {
	return ExtractorConfig{
		SkillVocabulary: append([]string(nil), config.DefaultSkillVocabulary...),
		DegreeKeywords:  append([]string(nil), config.DefaultDegreeKeywords...),
		OpenEndTokens:   append([]string(nil), config.DefaultOpenEndTokens...),
	}
}

// ExtractorConfigFrom 由应用配置构造，空词表回退到默认值
func ExtractorConfigFrom(cfg config.ExtractionConfig) ExtractorConfig {
	out := DefaultExtractorConfig()
	if len(cfg.SkillVocabulary) > 0 {
		out.SkillVocabulary = cfg.SkillVocabulary
	}
	if len(cfg.DegreeKeywords) > 0 {
		out.DegreeKeywords = cfg.DegreeKeywords
	}
	if len(cfg.OpenEndTokens) > 0 {
		out.OpenEndTokens = cfg.OpenEndTokens
	}
	return out
}

// Extractor 基于词法单元的简历模式识别器。无状态，可并发使用。
type Extractor struct {
	skills   []phrase
	degrees  []phrase
	openEnds []phrase
}

// NewExtractor 编译词表
func NewExtractor(cfg ExtractorConfig) *Extractor {
	return &Extractor{
		skills:   compilePhrases(cfg.SkillVocabulary),
		degrees:  compilePhrases(cfg.DegreeKeywords),
		openEnds: compilePhrases(cfg.OpenEndTokens),
	}
}

type skillMatch struct {
	span  Span
	index int // 词表下标
}

type experienceMatch struct {
	span Span
	item types.ExperienceItem
}

type educationMatch struct {
	span Span
	item types.EducationItem
}

// Extract 识别技能、工作经历和教育经历。三个类别各自独立扫描全文，互不去重；
// 没有匹配的类别返回空切片。
func (e *Extractor) Extract(text string) types.ProfileFragment {
	tokens := Tokenize(text)

	fragment := types.ProfileFragment{
		Skills:     []string{},
		Experience: []types.ExperienceItem{},
		Education:  []types.EducationItem{},
	}

	found := make([]bool, len(e.skills))
	for _, m := range e.scanSkills(text, tokens) {
		found[m.index] = true
	}
	for idx, ok := range found {
		if ok {
			fragment.Skills = append(fragment.Skills, e.skills[idx].canonical)
		}
	}

	for _, m := range e.scanExperience(text, tokens) {
		fragment.Experience = append(fragment.Experience, m.item)
	}
	for _, m := range e.scanEducation(text, tokens) {
		fragment.Education = append(fragment.Education, m.item)
	}
	return fragment
}

// Scan 返回所有类别的识别片段，按起始位置排序
func (e *Extractor) Scan(text string) []Span {
	tokens := Tokenize(text)

	var spans []Span
	for _, m := range e.scanSkills(text, tokens) {
		spans = append(spans, m.span)
	}
	for _, m := range e.scanExperience(text, tokens) {
		spans = append(spans, m.span)
	}
	for _, m := range e.scanEducation(text, tokens) {
		spans = append(spans, m.span)
	}

	sort.SliceStable(spans, func(i, j int) bool {
		return spans[i].Start < spans[j].Start
	})
	return spans
}

// scanSkills 从左到右扫描，同一位置取最长的词表项，匹配后跳过已匹配的单元
func (e *Extractor) scanSkills(text string, tokens []Token) []skillMatch {
	var matches []skillMatch
	for i := 0; i < len(tokens); {
		idx, n := longestMatch(e.skills, tokens, i)
		if idx < 0 {
			i++
			continue
		}
		start, end := tokens[i].Start, tokens[i+n-1].End
		matches = append(matches, skillMatch{
			span:  Span{Kind: SpanSkill, Start: start, End: end, Text: text[start:end]},
			index: idx,
		})
		i += n
	}
	return matches
}

// scanExperience 识别 "YEAR - YEAR|至今 描述." 。描述到下一个句子结束符或文本末尾为止，
// 扫描从结束符之后继续，被描述覆盖的年份区间不再参与匹配。
func (e *Extractor) scanExperience(text string, tokens []Token) []experienceMatch {
	var matches []experienceMatch
	for i := 0; i < len(tokens); {
		startYear, endYear, next, ok := e.yearRange(tokens, i, true)
		if !ok {
			i++
			continue
		}

		descStart := tokens[next-1].End
		descEnd, spanEnd := len(text), len(text)
		resume := len(tokens)
		for j := next; j < len(tokens); j++ {
			if tokens[j].Kind == TokenTerminator {
				descEnd, spanEnd = tokens[j].Start, tokens[j].End
				resume = j + 1
				break
			}
		}

		start := tokens[i].Start
		matches = append(matches, experienceMatch{
			span: Span{Kind: SpanExperience, Start: start, End: spanEnd, Text: text[start:spanEnd]},
			item: types.ExperienceItem{
				StartYear:   startYear,
				EndYear:     endYear,
				Description: strings.TrimSpace(text[descStart:descEnd]),
			},
		})
		i = resume
	}
	return matches
}

// scanEducation 识别 "YEAR - YEAR ... 学位关键词"，关键词必须与年份区间在同一行
func (e *Extractor) scanEducation(text string, tokens []Token) []educationMatch {
	var matches []educationMatch
	for i := 0; i < len(tokens); {
		startYear, endYear, next, ok := e.yearRange(tokens, i, false)
		if !ok {
			i++
			continue
		}

		matched := false
		for j := next; j < len(tokens) && tokens[j].Kind != TokenNewline; j++ {
			idx, n := longestMatch(e.degrees, tokens, j)
			if idx < 0 {
				continue
			}
			start, end := tokens[i].Start, tokens[j+n-1].End
			matches = append(matches, educationMatch{
				span: Span{Kind: SpanEducation, Start: start, End: end, Text: text[start:end]},
				item: types.EducationItem{
					StartYear: startYear,
					EndYear:   *endYear,
					Degree:    e.degrees[idx].canonical,
				},
			})
			i = j + n
			matched = true
			break
		}
		if !matched {
			i++
		}
	}
	return matches
}

// yearRange 尝试在 tokens[i] 处匹配 YEAR DASH (YEAR | 至今)，返回区间后第一个单元的下标。
// allowOpen 为 false 时不接受"至今"。
func (e *Extractor) yearRange(tokens []Token, i int, allowOpen bool) (int, *int, int, bool) {
	if i+2 >= len(tokens) || !tokens[i].IsYear() || tokens[i+1].Kind != TokenDash {
		return 0, nil, 0, false
	}
	startYear, _ := strconv.Atoi(tokens[i].Text)

	if tokens[i+2].IsYear() {
		endYear, _ := strconv.Atoi(tokens[i+2].Text)
		return startYear, &endYear, i + 3, true
	}
	if !allowOpen {
		return 0, nil, 0, false
	}
	if idx, n := longestMatch(e.openEnds, tokens, i+2); idx >= 0 {
		return startYear, nil, i + 2 + n, true
	}
	return 0, nil, 0, false
}
