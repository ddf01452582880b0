package processor

import (
	"context"
	"errors"
	"fmt"

	"talent-bridge-go/internal/search"
	"talent-bridge-go/internal/storage"
	"talent-bridge-go/internal/storage/models"
	"talent-bridge-go/internal/types"
)

// EmployeeDirectory 员工档案的增删查，由 storage.MySQL 实现
type EmployeeDirectory interface {
	CreateEmployee(ctx context.Context, employee *models.Employee) error
	GetEmployeeDetails(ctx context.Context, employeeID uint64) (*models.Employee, error)
	EmployeeExists(ctx context.Context, employeeID uint64) (bool, error)
	SearchEmployees(ctx context.Context, filter search.Filter) ([]models.Employee, error)
	ListSkills(ctx context.Context) ([]string, error)
	CreateExperience(ctx context.Context, entry *models.ExperienceEntry) error
	CreateTraining(ctx context.Context, entry *models.TrainingEntry) error
	CreateEvaluation(ctx context.Context, entry *models.EvaluationEntry) error
}

var _ EmployeeDirectory = (*storage.MySQL)(nil)

// EmployeeService 员工档案目录
type EmployeeService struct {
	store    EmployeeDirectory
	settings Settings
}

// NewEmployeeService 创建员工档案服务
func NewEmployeeService(store EmployeeDirectory, opts ...SettingOpt) *EmployeeService {
	return &EmployeeService{store: store, settings: applySettings(opts)}
}

// CreateEmployee 新建员工，邮箱重复时返回校验错误
func (s *EmployeeService) CreateEmployee(ctx context.Context, employee *models.Employee) error {
	err := s.store.CreateEmployee(ctx, employee)
	if errors.Is(err, storage.ErrDuplicate) {
		return NewValidationError("email", "已存在")
	}
	return err
}

// GetEmployee 查询员工详情
func (s *EmployeeService) GetEmployee(ctx context.Context, employeeID uint64) (*models.Employee, error) {
	employee, err := s.store.GetEmployeeDetails(ctx, employeeID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, &EmployeeNotFoundError{EmployeeID: employeeID}
	}
	return employee, err
}

// SearchBySkills 任一技能命中即返回，至少需要一个技能
func (s *EmployeeService) SearchBySkills(ctx context.Context, skills []string) ([]models.Employee, error) {
	filter := search.Compose(types.SearchCriteria{Skills: skills}, s.settings.Now())
	if filter.IsEmpty() {
		return nil, NewValidationError("skills", "至少需要一个技能")
	}
	return s.store.SearchEmployees(ctx, filter)
}

// AdvancedSearch 组合条件搜索，没有任何条件时返回全部员工
func (s *EmployeeService) AdvancedSearch(ctx context.Context, criteria types.SearchCriteria) ([]models.Employee, error) {
	if criteria.MinExperienceYears != nil && *criteria.MinExperienceYears < 0 {
		return nil, NewValidationError("min_experience", "不能为负数")
	}
	return s.store.SearchEmployees(ctx, search.Compose(criteria, s.settings.Now()))
}

// ListSkills 所有已知技能
func (s *EmployeeService) ListSkills(ctx context.Context) ([]string, error) {
	return s.store.ListSkills(ctx)
}

func (s *EmployeeService) requireEmployee(ctx context.Context, employeeID uint64) error {
	exists, err := s.store.EmployeeExists(ctx, employeeID)
	if err != nil {
		return fmt.Errorf("查询员工失败: %w", err)
	}
	if !exists {
		return &EmployeeNotFoundError{EmployeeID: employeeID}
	}
	return nil
}

// AddExperience 手工录入项目经历
func (s *EmployeeService) AddExperience(ctx context.Context, entry *models.ExperienceEntry) error {
	if err := s.requireEmployee(ctx, entry.EmployeeID); err != nil {
		return err
	}
	return s.store.CreateExperience(ctx, entry)
}

// AddTraining 新增培训记录
func (s *EmployeeService) AddTraining(ctx context.Context, entry *models.TrainingEntry) error {
	if err := s.requireEmployee(ctx, entry.EmployeeID); err != nil {
		return err
	}
	return s.store.CreateTraining(ctx, entry)
}

// AddEvaluation 新增评估记录
func (s *EmployeeService) AddEvaluation(ctx context.Context, entry *models.EvaluationEntry) error {
	if err := s.requireEmployee(ctx, entry.EmployeeID); err != nil {
		return err
	}
	return s.store.CreateEvaluation(ctx, entry)
}
