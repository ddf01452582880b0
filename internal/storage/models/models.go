package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// Department 部门表
type Department struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string    `gorm:"type:varchar(255);not null;uniqueIndex:idx_departments_name" json:"name"`
	CreatedAt time.Time `gorm:"type:datetime(6)" json:"created_at"`
}

func (Department) TableName() string {
	return "departments"
}

// Employee 员工档案主表
type Employee struct {
	ID             uint64          `gorm:"primaryKey;autoIncrement" json:"id"`
	FirstName      string          `gorm:"type:varchar(100);not null" json:"first_name"`
	LastName       string          `gorm:"type:varchar(100);not null" json:"last_name"`
	Position       string          `gorm:"type:varchar(255)" json:"position"`
	DepartmentID   *uint64         `gorm:"index:idx_employees_department_id" json:"department_id"`
	Email          string          `gorm:"type:varchar(255);not null;uniqueIndex:idx_employees_email" json:"email"`
	BirthDate      *datatypes.Date `gorm:"type:date" json:"birth_date,omitempty"`
	EntryDate      *datatypes.Date `gorm:"type:date" json:"entry_date,omitempty"`
	EducationLevel *string         `gorm:"type:varchar(100)" json:"education_level"`
	Languages      datatypes.JSON  `gorm:"type:json" json:"languages,omitempty"`
	Certificates   datatypes.JSON  `gorm:"type:json" json:"certificates,omitempty"`
	CVObjectKey    *string         `gorm:"type:varchar(1024)" json:"-"`
	CVFilename     string          `gorm:"type:varchar(255)" json:"cv_filename,omitempty"`
	CreatedAt      time.Time       `gorm:"type:datetime(6)" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"type:datetime(6)" json:"updated_at"`

	Department  *Department       `gorm:"foreignKey:DepartmentID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL" json:"department,omitempty"`
	Skills      []EmployeeSkill   `gorm:"foreignKey:EmployeeID" json:"skills"`
	Experience  []ExperienceEntry `gorm:"foreignKey:EmployeeID" json:"experience"`
	Trainings   []TrainingEntry   `gorm:"foreignKey:EmployeeID" json:"trainings"`
	Evaluations []EvaluationEntry `gorm:"foreignKey:EmployeeID" json:"evaluations"`
}

func (Employee) TableName() string {
	return "employees"
}

// SkillNames 返回技能名称列表
func (e *Employee) SkillNames() []string {
	names := make([]string, 0, len(e.Skills))
	for _, s := range e.Skills {
		names = append(names, s.Name)
	}
	return names
}

// EmployeeSkill 员工技能，(employee_id, name_lower) 唯一，保证技能大小写不敏感地不重复
type EmployeeSkill struct {
	ID         uint64 `gorm:"primaryKey;autoIncrement" json:"-"`
	EmployeeID uint64 `gorm:"not null;uniqueIndex:idx_es_employee_skill,priority:1" json:"-"`
	Name       string `gorm:"type:varchar(100);not null" json:"name"`
	NameLower  string `gorm:"type:varchar(100);not null;uniqueIndex:idx_es_employee_skill,priority:2;index:idx_es_name_lower" json:"-"`
}

func (EmployeeSkill) TableName() string {
	return "employee_skills"
}

// ExperienceEntry 项目/工作经历，EndDate 为空表示至今
type ExperienceEntry struct {
	ID           uint64          `gorm:"primaryKey;autoIncrement" json:"id"`
	EmployeeID   uint64          `gorm:"not null;index:idx_ee_employee_id" json:"employee_id"`
	ProjectName  string          `gorm:"type:varchar(255)" json:"project_name"`
	Role         string          `gorm:"type:varchar(255)" json:"role"`
	StartDate    datatypes.Date  `gorm:"type:date;not null;index:idx_ee_start_date" json:"start_date"`
	EndDate      *datatypes.Date `gorm:"type:date" json:"end_date"`
	Description  string          `gorm:"type:text" json:"description"`
	Technologies datatypes.JSON  `gorm:"type:json" json:"technologies,omitempty"`
	CreatedAt    time.Time       `gorm:"type:datetime(6)" json:"created_at"`
}

func (ExperienceEntry) TableName() string {
	return "experience_entries"
}

// TrainingEntry 培训记录
type TrainingEntry struct {
	ID          uint64          `gorm:"primaryKey;autoIncrement" json:"id"`
	EmployeeID  uint64          `gorm:"not null;index:idx_te_employee_id" json:"employee_id"`
	Title       string          `gorm:"type:varchar(255);not null" json:"title"`
	Provider    string          `gorm:"type:varchar(255)" json:"provider"`
	StartDate   *datatypes.Date `gorm:"type:date" json:"start_date"`
	EndDate     *datatypes.Date `gorm:"type:date" json:"end_date"`
	Certificate string          `gorm:"type:varchar(255)" json:"certificate"`
	CreatedAt   time.Time       `gorm:"type:datetime(6)" json:"created_at"`
}

func (TrainingEntry) TableName() string {
	return "training_entries"
}

// EvaluationEntry 绩效评估
type EvaluationEntry struct {
	ID          uint64         `gorm:"primaryKey;autoIncrement" json:"id"`
	EmployeeID  uint64         `gorm:"not null;index:idx_eve_employee_id" json:"employee_id"`
	Evaluator   string         `gorm:"type:varchar(255)" json:"evaluator"`
	EvaluatedOn datatypes.Date `gorm:"type:date;not null" json:"evaluated_on"`
	Rating      int            `gorm:"not null" json:"rating"`
	Comment     string         `gorm:"type:text" json:"comment"`
	CreatedAt   time.Time      `gorm:"type:datetime(6)" json:"created_at"`
}

func (EvaluationEntry) TableName() string {
	return "evaluation_entries"
}

// Template 文档模板
type Template struct {
	ID          uint64             `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string             `gorm:"type:varchar(255);not null" json:"name"`
	Description string             `gorm:"type:text" json:"description"`
	Category    string             `gorm:"type:varchar(100);index:idx_templates_category" json:"category"`
	Body        string             `gorm:"type:mediumtext;not null" json:"body"`
	IsActive    bool               `gorm:"not null;index:idx_templates_is_active" json:"is_active"`
	CreatedBy   string             `gorm:"type:varchar(255)" json:"created_by"`
	CreatedAt   time.Time          `gorm:"type:datetime(6)" json:"created_at"`
	Variables   []TemplateVariable `gorm:"foreignKey:TemplateID" json:"variables"`
}

func (Template) TableName() string {
	return "templates"
}

// TemplateVariable 模板变量定义，Position 决定声明顺序
type TemplateVariable struct {
	ID           uint64  `gorm:"primaryKey;autoIncrement" json:"-"`
	TemplateID   uint64  `gorm:"not null;uniqueIndex:idx_tv_template_name,priority:1" json:"-"`
	Name         string  `gorm:"type:varchar(100);not null;uniqueIndex:idx_tv_template_name,priority:2" json:"name"`
	Position     int     `gorm:"not null" json:"position"`
	Required     bool    `gorm:"not null" json:"required"`
	DefaultValue *string `gorm:"type:text" json:"default_value,omitempty"`
	Description  string  `gorm:"type:varchar(255)" json:"description,omitempty"`
}

func (TemplateVariable) TableName() string {
	return "template_variables"
}

// GeneratedDocument 渲染结果快照，创建后不再修改
type GeneratedDocument struct {
	ID          uint64         `gorm:"primaryKey;autoIncrement" json:"id"`
	TemplateID  uint64         `gorm:"not null;index:idx_gd_template_id" json:"template_id"`
	Content     string         `gorm:"type:mediumtext;not null" json:"content"`
	InputValues datatypes.JSON `gorm:"type:json" json:"values"`
	CreatedBy   string         `gorm:"type:varchar(255)" json:"created_by"`
	CreatedAt   time.Time      `gorm:"type:datetime(6)" json:"created_at"`
}

func (GeneratedDocument) TableName() string {
	return "generated_documents"
}

// StringsToJSON 字符串切片转为JSON列
func StringsToJSON(items []string) (datatypes.JSON, error) {
	if items == nil {
		items = []string{}
	}
	bytes, err := json.Marshal(items)
	if err != nil {
		return nil, err
	}
	return bytes, nil
}

// JSONToStrings 解析JSON数组列，空值返回nil
func JSONToStrings(data datatypes.JSON) ([]string, error) {
	if len(data) == 0 || string(data) == "null" {
		return nil, nil
	}
	var items []string
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// StringMapToJSON map[string]string 转为JSON列
func StringMapToJSON(m map[string]string) (datatypes.JSON, error) {
	bytes, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return bytes, nil
}
