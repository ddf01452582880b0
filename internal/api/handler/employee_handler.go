package handler

import (
	"context"
	"strconv"
	"strings"

	"talent-bridge-go/internal/processor"
	"talent-bridge-go/internal/types"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
)

// EmployeeHandler 员工档案、搜索与手工录入
type EmployeeHandler struct {
	employees EmployeeService
}

// NewEmployeeHandler 创建员工处理器
func NewEmployeeHandler(employees EmployeeService) *EmployeeHandler {
	return &EmployeeHandler{employees: employees}
}

func splitSkills(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	return strings.Split(raw, ",")
}

// searchCriteriaFrom 解析高级搜索的查询参数，空值视为不过滤
func searchCriteriaFrom(c *app.RequestContext) (types.SearchCriteria, error) {
	criteria := types.SearchCriteria{Skills: splitSkills(c.Query("skills"))}

	if raw := strings.TrimSpace(c.Query("department_id")); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return criteria, processor.NewValidationError("department_id", "必须是整数")
		}
		criteria.DepartmentID = &id
	}

	if raw := strings.TrimSpace(c.Query("min_experience")); raw != "" {
		years, err := strconv.Atoi(raw)
		if err != nil {
			return criteria, processor.NewValidationError("min_experience", "必须是整数")
		}
		criteria.MinExperienceYears = &years
	}

	if raw := strings.TrimSpace(c.Query("project_type")); raw != "" {
		criteria.ProjectType = &raw
	}
	return criteria, nil
}

// HandleCreateEmployee 新建员工
// POST /api/v1/employees
func (h *EmployeeHandler) HandleCreateEmployee(ctx context.Context, c *app.RequestContext) {
	var req CreateEmployeeRequest
	if err := decodeJSON(c, &req); err != nil {
		respondError(ctx, c, err)
		return
	}
	employee, err := req.toModel()
	if err != nil {
		respondError(ctx, c, err)
		return
	}
	if err := h.employees.CreateEmployee(ctx, employee); err != nil {
		respondError(ctx, c, err)
		return
	}
	c.JSON(consts.StatusCreated, utils.H{"message": "员工创建成功", "id": employee.ID})
}

// HandleGetEmployee 员工详情
// GET /api/v1/employees/:id
func (h *EmployeeHandler) HandleGetEmployee(ctx context.Context, c *app.RequestContext) {
	employeeID, err := pathID(c, "id")
	if err != nil {
		respondError(ctx, c, err)
		return
	}
	employee, err := h.employees.GetEmployee(ctx, employeeID)
	if err != nil {
		respondError(ctx, c, err)
		return
	}
	c.JSON(consts.StatusOK, employee)
}

// HandleSearchBySkills 按技能搜索
// GET /api/v1/employees/search?skills=go,sql
func (h *EmployeeHandler) HandleSearchBySkills(ctx context.Context, c *app.RequestContext) {
	employees, err := h.employees.SearchBySkills(ctx, splitSkills(c.Query("skills")))
	if err != nil {
		respondError(ctx, c, err)
		return
	}
	c.JSON(consts.StatusOK, utils.H{"data": employees, "count": len(employees)})
}

// HandleAdvancedSearch 组合条件搜索
// GET /api/v1/employees/search/advanced
func (h *EmployeeHandler) HandleAdvancedSearch(ctx context.Context, c *app.RequestContext) {
	criteria, err := searchCriteriaFrom(c)
	if err != nil {
		respondError(ctx, c, err)
		return
	}
	employees, err := h.employees.AdvancedSearch(ctx, criteria)
	if err != nil {
		respondError(ctx, c, err)
		return
	}
	c.JSON(consts.StatusOK, utils.H{"data": employees, "count": len(employees)})
}

// HandleListSkills 所有已知技能
// GET /api/v1/skills
func (h *EmployeeHandler) HandleListSkills(ctx context.Context, c *app.RequestContext) {
	skills, err := h.employees.ListSkills(ctx)
	if err != nil {
		respondError(ctx, c, err)
		return
	}
	c.JSON(consts.StatusOK, utils.H{"skills": skills})
}

// HandleCreateProject 手工录入项目经历
// POST /api/v1/projects
func (h *EmployeeHandler) HandleCreateProject(ctx context.Context, c *app.RequestContext) {
	var req CreateProjectRequest
	if err := decodeJSON(c, &req); err != nil {
		respondError(ctx, c, err)
		return
	}
	entry, err := req.toModel()
	if err != nil {
		respondError(ctx, c, err)
		return
	}
	if err := h.employees.AddExperience(ctx, entry); err != nil {
		respondError(ctx, c, err)
		return
	}
	c.JSON(consts.StatusCreated, utils.H{"message": "项目经历已添加", "id": entry.ID})
}

// HandleCreateTraining 新增培训记录
// POST /api/v1/trainings
func (h *EmployeeHandler) HandleCreateTraining(ctx context.Context, c *app.RequestContext) {
	var req CreateTrainingRequest
	if err := decodeJSON(c, &req); err != nil {
		respondError(ctx, c, err)
		return
	}
	entry := req.toModel()
	if err := h.employees.AddTraining(ctx, entry); err != nil {
		respondError(ctx, c, err)
		return
	}
	c.JSON(consts.StatusCreated, utils.H{"message": "培训记录已添加", "id": entry.ID})
}

// HandleCreateEvaluation 新增绩效评估
// POST /api/v1/evaluations
func (h *EmployeeHandler) HandleCreateEvaluation(ctx context.Context, c *app.RequestContext) {
	var req CreateEvaluationRequest
	if err := decodeJSON(c, &req); err != nil {
		respondError(ctx, c, err)
		return
	}
	entry := req.toModel()
	if err := h.employees.AddEvaluation(ctx, entry); err != nil {
		respondError(ctx, c, err)
		return
	}
	c.JSON(consts.StatusCreated, utils.H{"message": "评估记录已添加", "id": entry.ID})
}
