package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"talent-bridge-go/internal/storage/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProfileTx 简历合并事务内可用的操作，全部在同一个数据库事务中执行
type ProfileTx interface {
	// LockEmployee 对员工行加排他锁，员工不存在时返回 ErrNotFound
	LockEmployee(ctx context.Context, employeeID uint64) error
	// ReplaceSkills 删除员工现有的全部技能后写入新的技能集合，返回实际写入的技能名
	ReplaceSkills(ctx context.Context, employeeID uint64, skills []string) ([]string, error)
	// SetEducationLevel 设置学历
	SetEducationLevel(ctx context.Context, employeeID uint64, level string) error
	// InsertExperience 插入一条经历，不做去重
	InsertExperience(ctx context.Context, entry *models.ExperienceEntry) error
	// EnqueueEvent 写入一条待发布的outbox事件
	EnqueueEvent(ctx context.Context, msg *models.OutboxMessage) error
}

type gormProfileTx struct {
	tx *gorm.DB
}

// WithinProfileTx 开启事务并执行fn，fn返回错误或发生panic时整体回滚
func (m *MySQL) WithinProfileTx(ctx context.Context, fn func(tx ProfileTx) error) (err error) {
	tx := m.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return fmt.Errorf("开始事务失败: %w", tx.Error)
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	if err = fn(&gormProfileTx{tx: tx}); err != nil {
		if rbErr := tx.Rollback().Error; rbErr != nil {
			return fmt.Errorf("%w (回滚失败: %v)", err, rbErr)
		}
		return err
	}

	if err = tx.Commit().Error; err != nil {
		return fmt.Errorf("提交事务失败: %w", err)
	}
	return nil
}

func (p *gormProfileTx) LockEmployee(ctx context.Context, employeeID uint64) error {
	var employee models.Employee
	err := p.tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id").
		Where("id = ?", employeeID).
		Take(&employee).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("锁定员工 %d 失败: %w", employeeID, err)
	}
	return nil
}

func (p *gormProfileTx) ReplaceSkills(ctx context.Context, employeeID uint64, skills []string) ([]string, error) {
	db := p.tx.WithContext(ctx)
	if err := db.Where("employee_id = ?", employeeID).Delete(&models.EmployeeSkill{}).Error; err != nil {
		return nil, fmt.Errorf("删除员工 %d 原有技能失败: %w", employeeID, err)
	}

	names := NormalizeSkills(skills)
	if len(names) == 0 {
		return names, nil
	}
	rows := make([]models.EmployeeSkill, 0, len(names))
	for _, name := range names {
		rows = append(rows, models.EmployeeSkill{EmployeeID: employeeID, Name: name, NameLower: strings.ToLower(name)})
	}
	if err := db.Create(&rows).Error; err != nil {
		return nil, fmt.Errorf("写入员工 %d 技能失败: %w", employeeID, err)
	}
	return names, nil
}

// NormalizeSkills 去掉首尾空白和空值，按大小写不敏感去重，保留首次出现的写法和顺序
func NormalizeSkills(skills []string) []string {
	names := make([]string, 0, len(skills))
	seen := make(map[string]bool, len(skills))
	for _, s := range skills {
		name := strings.TrimSpace(s)
		lower := strings.ToLower(name)
		if name == "" || seen[lower] {
			continue
		}
		seen[lower] = true
		names = append(names, name)
	}
	return names
}

func (p *gormProfileTx) SetEducationLevel(ctx context.Context, employeeID uint64, level string) error {
	err := p.tx.WithContext(ctx).
		Model(&models.Employee{}).
		Where("id = ?", employeeID).
		Update("education_level", level).Error
	if err != nil {
		return fmt.Errorf("更新员工 %d 学历失败: %w", employeeID, err)
	}
	return nil
}

func (p *gormProfileTx) InsertExperience(ctx context.Context, entry *models.ExperienceEntry) error {
	if err := p.tx.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("插入员工 %d 经历失败: %w", entry.EmployeeID, err)
	}
	return nil
}

func (p *gormProfileTx) EnqueueEvent(ctx context.Context, msg *models.OutboxMessage) error {
	if msg.Status == "" {
		msg.Status = models.OutboxStatusPending
	}
	if err := p.tx.WithContext(ctx).Create(msg).Error; err != nil {
		return fmt.Errorf("写入outbox事件失败: %w", err)
	}
	return nil
}
