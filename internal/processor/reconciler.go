package processor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"talent-bridge-go/internal/logger"
	"talent-bridge-go/internal/storage"
	"talent-bridge-go/internal/storage/models"
	"talent-bridge-go/internal/types"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/datatypes"
)

var processorTracer = otel.Tracer("talent-bridge-go/processor")

const eventTypeCVAnalyzed = "employee.cv.analyzed"

// Reconciler 把提取结果合并到员工档案
type Reconciler struct {
	store    ProfileStore
	settings Settings
}

// NewReconciler 创建合并器
func NewReconciler(store ProfileStore, opts ...SettingOpt) *Reconciler {
	return &Reconciler{store: store, settings: applySettings(opts)}
}

// Reconcile 在一个事务内把 fragment 合并到员工档案：
//   - 技能集合被整体替换，原有技能全部删除（破坏性覆盖，不做并集）
//   - 第一条教育经历决定学历，没有教育经历时学历保持不变
//   - 每条经历都插入一行新记录，不与已有记录去重，重复分析同一份简历会产生重复行
//   - 至今的经历结束日期为空，开始日期取当年1月1日，结束日期取当年12月31日
//
// 任何一步失败都会回滚全部修改。员工不存在时返回 EmployeeNotFoundError。
func (r *Reconciler) Reconcile(ctx context.Context, employeeID uint64, fragment types.ProfileFragment) (*types.ReconcileResult, error) {
	ctx, span := processorTracer.Start(ctx, "Reconciler.Reconcile")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("employee.id", int64(employeeID)),
		attribute.Int("fragment.skills", len(fragment.Skills)),
		attribute.Int("fragment.experience", len(fragment.Experience)),
		attribute.Int("fragment.education", len(fragment.Education)),
	)

	result := &types.ReconcileResult{}

	err := r.store.WithinProfileTx(ctx, func(tx storage.ProfileTx) error {
		if err := tx.LockEmployee(ctx, employeeID); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return &EmployeeNotFoundError{EmployeeID: employeeID}
			}
			return err
		}

		skills, err := tx.ReplaceSkills(ctx, employeeID, fragment.Skills)
		if err != nil {
			return err
		}
		result.SkillsCount = len(skills)

		if len(fragment.Education) > 0 {
			degree := fragment.Education[0].Degree
			if err := tx.SetEducationLevel(ctx, employeeID, degree); err != nil {
				return err
			}
			result.DegreeSet = &degree
		}

		for _, item := range fragment.Experience {
			entry := experienceEntryFrom(employeeID, item)
			if err := tx.InsertExperience(ctx, entry); err != nil {
				return err
			}
			result.ExperienceRowsCreated++
		}

		msg, err := r.analyzedEvent(employeeID, skills, result)
		if err != nil {
			return err
		}
		return tx.EnqueueEvent(ctx, msg)
	})
	if err != nil {
		logger.Ctx(ctx).Warn().Err(err).Uint64("employee_id", employeeID).Msg("简历合并失败，事务已回滚")
		return nil, err
	}

	logger.Ctx(ctx).Info().
		Uint64("employee_id", employeeID).
		Int("skills", result.SkillsCount).
		Int("experience_rows", result.ExperienceRowsCreated).
		Bool("degree_set", result.DegreeSet != nil).
		Msg("简历合并完成")
	return result, nil
}

func experienceEntryFrom(employeeID uint64, item types.ExperienceItem) *models.ExperienceEntry {
	entry := &models.ExperienceEntry{
		EmployeeID:  employeeID,
		StartDate:   datatypes.Date(time.Date(item.StartYear, time.January, 1, 0, 0, 0, 0, time.UTC)),
		Description: item.Description,
	}
	if item.EndYear != nil {
		end := datatypes.Date(time.Date(*item.EndYear, time.December, 31, 0, 0, 0, 0, time.UTC))
		entry.EndDate = &end
	}
	return entry
}

func (r *Reconciler) analyzedEvent(employeeID uint64, skills []string, result *types.ReconcileResult) (*models.OutboxMessage, error) {
	payload, err := json.Marshal(types.ProfileEvent{
		EmployeeID:            employeeID,
		Skills:                skills,
		ExperienceRowsCreated: result.ExperienceRowsCreated,
		DegreeSet:             result.DegreeSet,
		AnalyzedAt:            r.settings.Now().UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("序列化档案事件失败: %w", err)
	}
	return &models.OutboxMessage{
		AggregateID:      strconv.FormatUint(employeeID, 10),
		EventType:        eventTypeCVAnalyzed,
		Payload:          string(payload),
		TargetExchange:   r.settings.Routing.Exchange,
		TargetRoutingKey: r.settings.Routing.CVAnalyzedRoutingKey,
		Status:           models.OutboxStatusPending,
		CreatedAt:        r.settings.Now(),
	}, nil
}
