// Package search 把高级搜索条件组合为结构化的过滤描述，由存储层转换为参数化查询。
package search

import (
	"strings"
	"time"

	"talent-bridge-go/internal/types"
)

// ConditionKind 过滤条件类型
type ConditionKind string

const (
	// ConditionSkillsAny 员工任一技能命中（忽略大小写）
	ConditionSkillsAny ConditionKind = "skills_any"
	// ConditionDepartment 所属部门
	ConditionDepartment ConditionKind = "department"
	// ConditionMinExperience 至少有一段经历开始于 StartedBefore 之前
	ConditionMinExperience ConditionKind = "min_experience"
	// ConditionProjectNameContains 项目名称包含子串（忽略大小写）
	ConditionProjectNameContains ConditionKind = "project_name_contains"
)

// Condition 单个过滤条件，只有与 Kind 对应的字段有意义
type Condition struct {
	Kind          ConditionKind
	Skills        []string  // 小写、去重
	DepartmentID  uint64
	StartedBefore time.Time // 经历开始日期上限（含）
	LikePattern   string    // 已转义的 LIKE 模式，例如 %web\_shop%
}

// Filter 条件之间为 AND 关系，没有条件表示不过滤
type Filter struct {
	Conditions []Condition
}

// IsEmpty 是否没有任何条件
func (f Filter) IsEmpty() bool {
	return len(f.Conditions) == 0
}

// Compose 每个存在的条件生成一个独立的 Condition，缺省的条件不生成任何内容
func Compose(criteria types.SearchCriteria, now time.Time) Filter {
	var f Filter

	if skills := normalizeSkills(criteria.Skills); len(skills) > 0 {
		f.Conditions = append(f.Conditions, Condition{Kind: ConditionSkillsAny, Skills: skills})
	}

	if criteria.DepartmentID != nil {
		f.Conditions = append(f.Conditions, Condition{Kind: ConditionDepartment, DepartmentID: *criteria.DepartmentID})
	}

	if criteria.MinExperienceYears != nil {
		years := *criteria.MinExperienceYears
		if years < 0 {
			years = 0
		}
		f.Conditions = append(f.Conditions, Condition{
			Kind:          ConditionMinExperience,
			StartedBefore: now.AddDate(-years, 0, 0),
		})
	}

	if criteria.ProjectType != nil {
		if term := strings.TrimSpace(*criteria.ProjectType); term != "" {
			f.Conditions = append(f.Conditions, Condition{
				Kind:        ConditionProjectNameContains,
				LikePattern: "%" + EscapeLike(strings.ToLower(term)) + "%",
			})
		}
	}

	return f
}

// EscapeLike 转义 LIKE 通配符，配合默认的反斜杠转义字符使用
func EscapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// NormalizeSkill 技能比较统一使用小写
func NormalizeSkill(skill string) string {
	return strings.ToLower(strings.TrimSpace(skill))
}

func normalizeSkills(skills []string) []string {
	var out []string
	seen := make(map[string]bool, len(skills))
	for _, s := range skills {
		n := NormalizeSkill(s)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}
