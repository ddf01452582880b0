package storage

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"talent-bridge-go/internal/logger"
	"talent-bridge-go/internal/search"
	"talent-bridge-go/internal/storage/models"

	"gorm.io/gorm"
)

// CreateEmployee 新建员工
func (m *MySQL) CreateEmployee(ctx context.Context, employee *models.Employee) error {
	if err := m.db.WithContext(ctx).Omit("Department", "Skills", "Experience", "Trainings", "Evaluations").Create(employee).Error; err != nil {
		return translateError(err)
	}
	return nil
}

// GetEmployee 只查询员工主表
func (m *MySQL) GetEmployee(ctx context.Context, employeeID uint64) (*models.Employee, error) {
	var employee models.Employee
	if err := m.db.WithContext(ctx).Where("id = ?", employeeID).Take(&employee).Error; err != nil {
		return nil, translateError(err)
	}
	return &employee, nil
}

// GetEmployeeDetails 查询员工及其部门、技能、经历、培训和评估
func (m *MySQL) GetEmployeeDetails(ctx context.Context, employeeID uint64) (*models.Employee, error) {
	var employee models.Employee
	err := m.db.WithContext(ctx).
		Preload("Department").
		Preload("Skills", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("Experience", func(db *gorm.DB) *gorm.DB { return db.Order("start_date DESC, id ASC") }).
		Preload("Trainings", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("Evaluations", func(db *gorm.DB) *gorm.DB { return db.Order("evaluated_on DESC, id ASC") }).
		Where("id = ?", employeeID).
		Take(&employee).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &employee, nil
}

// EmployeeExists 判断员工是否存在
func (m *MySQL) EmployeeExists(ctx context.Context, employeeID uint64) (bool, error) {
	var count int64
	if err := m.db.WithContext(ctx).Model(&models.Employee{}).Where("id = ?", employeeID).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// SetCVObjectKey 记录员工简历在对象存储中的位置
func (m *MySQL) SetCVObjectKey(ctx context.Context, employeeID uint64, objectKey, filename string) error {
	result := m.db.WithContext(ctx).
		Model(&models.Employee{}).
		Where("id = ?", employeeID).
		Updates(map[string]interface{}{"cv_object_key": objectKey, "cv_filename": filename})
	if result.Error != nil {
		return fmt.Errorf("更新员工 %d 简历位置失败: %w", employeeID, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// SearchEmployees 按组合条件查询员工，条件之间为 AND
func (m *MySQL) SearchEmployees(ctx context.Context, filter search.Filter) ([]models.Employee, error) {
	var employees []models.Employee
	query := ApplyFilter(m.db.WithContext(ctx).Model(&models.Employee{}), filter)
	err := query.
		Preload("Department").
		Preload("Skills", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Order("employees.last_name ASC, employees.first_name ASC, employees.id ASC").
		Find(&employees).Error
	if err != nil {
		return nil, fmt.Errorf("查询员工失败: %w", err)
	}
	return employees, nil
}

// ApplyFilter 把组合好的搜索条件转换为参数化的 Where 子句
func ApplyFilter(db *gorm.DB, filter search.Filter) *gorm.DB {
	for _, c := range filter.Conditions {
		switch c.Kind {
		case search.ConditionSkillsAny:
			db = db.Where("EXISTS (SELECT 1 FROM employee_skills s WHERE s.employee_id = employees.id AND s.name_lower IN ?)", c.Skills)
		case search.ConditionDepartment:
			db = db.Where("employees.department_id = ?", c.DepartmentID)
		case search.ConditionMinExperience:
			db = db.Where("EXISTS (SELECT 1 FROM experience_entries x WHERE x.employee_id = employees.id AND x.start_date <= ?)", c.StartedBefore.Format("2006-01-02"))
		case search.ConditionProjectNameContains:
			db = db.Where("EXISTS (SELECT 1 FROM experience_entries p WHERE p.employee_id = employees.id AND LOWER(p.project_name) LIKE ?)", c.LikePattern)
		}
	}
	return db
}

// ListSkills 返回员工技能与项目技术栈的并集，按名称排序，大小写不敏感去重
func (m *MySQL) ListSkills(ctx context.Context) ([]string, error) {
	var names []string
	if err := m.db.WithContext(ctx).Model(&models.EmployeeSkill{}).Distinct().Pluck("name", &names).Error; err != nil {
		return nil, fmt.Errorf("查询技能失败: %w", err)
	}

	var techColumns []models.ExperienceEntry
	if err := m.db.WithContext(ctx).Select("id", "technologies").Where("technologies IS NOT NULL").Find(&techColumns).Error; err != nil {
		return nil, fmt.Errorf("查询项目技术栈失败: %w", err)
	}
	for _, e := range techColumns {
		techs, err := models.JSONToStrings(e.Technologies)
		if err != nil {
			logger.Ctx(ctx).Warn().Err(err).Uint64("experience_id", e.ID).Msg("项目技术栈格式错误，已跳过")
			continue
		}
		names = append(names, techs...)
	}

	return uniqueSorted(names), nil
}

func uniqueSorted(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		key := strings.ToLower(n)
		if n == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i]) < strings.ToLower(out[j])
	})
	return out
}

// CreateExperience 手工录入的项目经历
func (m *MySQL) CreateExperience(ctx context.Context, entry *models.ExperienceEntry) error {
	if err := m.db.WithContext(ctx).Create(entry).Error; err != nil {
		return translateError(err)
	}
	return nil
}

// CreateTraining 新增培训记录
func (m *MySQL) CreateTraining(ctx context.Context, entry *models.TrainingEntry) error {
	if err := m.db.WithContext(ctx).Create(entry).Error; err != nil {
		return translateError(err)
	}
	return nil
}

// CreateEvaluation 新增评估记录
func (m *MySQL) CreateEvaluation(ctx context.Context, entry *models.EvaluationEntry) error {
	if err := m.db.WithContext(ctx).Create(entry).Error; err != nil {
		return translateError(err)
	}
	return nil
}
