package types

import "time"

// DocumentFormat 上传文档的声明格式
type DocumentFormat string

const (
	// FormatPDF PDF文档
	FormatPDF DocumentFormat = "pdf"
	// FormatDOCX Word文档，doc 与 docx 走同一条解码路径
	FormatDOCX DocumentFormat = "docx"
)

// ExperienceItem 从简历文本中识别出的一段工作/项目经历
type ExperienceItem struct {
	StartYear   int    `json:"start_year"`
	EndYear     *int   `json:"end_year"` // nil 表示至今
	Description string `json:"description"`
}

// IsOpenEnded 经历是否仍在进行
func (e ExperienceItem) IsOpenEnded() bool {
	return e.EndYear == nil
}

// EducationItem 从简历文本中识别出的一段教育经历
type EducationItem struct {
	StartYear int    `json:"start_year"`
	EndYear   int    `json:"end_year"`
	Degree    string `json:"degree"`
}

// ProfileFragment 一次提取的结构化结果，尚未合并到员工档案
type ProfileFragment struct {
	Skills     []string         `json:"skills"`
	Experience []ExperienceItem `json:"experience"`
	Education  []EducationItem  `json:"education"`
}

// ReconcileResult 合并简历结果到员工档案后的统计
type ReconcileResult struct {
	SkillsCount           int     `json:"skills_count"`
	ExperienceRowsCreated int     `json:"experience_rows_created"`
	DegreeSet             *string `json:"degree_set"` // nil 表示学历未变更
}

// VariableSpec 模板变量定义
type VariableSpec struct {
	Name         string  `json:"name"`
	Required     bool    `json:"required"`
	DefaultValue *string `json:"default_value,omitempty"`
	Description  string  `json:"description,omitempty"`
}

// TemplateDefinition 文档模板，Variables 按声明顺序排列
type TemplateDefinition struct {
	ID          uint64         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Category    string         `json:"category,omitempty"`
	Body        string         `json:"body"`
	Variables   []VariableSpec `json:"variables"`
}

// SearchCriteria 高级搜索条件，nil 或空值表示不过滤
type SearchCriteria struct {
	Skills             []string
	DepartmentID       *uint64
	MinExperienceYears *int
	ProjectType        *string
}

// ProfileEvent 简历分析完成后写入outbox的事件载荷
type ProfileEvent struct {
	EmployeeID            uint64    `json:"employee_id"`
	Skills                []string  `json:"skills"`
	ExperienceRowsCreated int       `json:"experience_rows_created"`
	DegreeSet             *string   `json:"degree_set,omitempty"`
	AnalyzedAt            time.Time `json:"analyzed_at"`
}

// DocumentGeneratedEvent 文档生成后写入outbox的事件载荷
type DocumentGeneratedEvent struct {
	DocumentID  uint64    `json:"document_id"`
	TemplateID  uint64    `json:"template_id"`
	CreatedBy   string    `json:"created_by,omitempty"`
	GeneratedAt time.Time `json:"generated_at"`
}
