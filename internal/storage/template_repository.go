package storage

import (
	"context"
	"fmt"

	"talent-bridge-go/internal/storage/models"

	"gorm.io/gorm"
)

func orderVariables(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC, id ASC")
}

// CreateTemplate 在一个事务中写入模板及其变量定义
func (m *MySQL) CreateTemplate(ctx context.Context, tpl *models.Template) error {
	tx := m.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return fmt.Errorf("开始事务失败: %w", tx.Error)
	}
	defer tx.Rollback()

	variables := tpl.Variables
	if err := tx.Omit("Variables").Create(tpl).Error; err != nil {
		return fmt.Errorf("创建模板失败: %w", translateError(err))
	}

	for i := range variables {
		variables[i].TemplateID = tpl.ID
		variables[i].Position = i
	}
	if len(variables) > 0 {
		if err := tx.Create(&variables).Error; err != nil {
			return fmt.Errorf("创建模板变量失败: %w", translateError(err))
		}
	}
	tpl.Variables = variables

	if err := tx.Commit().Error; err != nil {
		return fmt.Errorf("提交事务失败: %w", err)
	}
	return nil
}

// ListActiveTemplates 列出启用中的模板，变量按声明顺序
func (m *MySQL) ListActiveTemplates(ctx context.Context) ([]models.Template, error) {
	var templates []models.Template
	err := m.db.WithContext(ctx).
		Preload("Variables", orderVariables).
		Where("is_active = ?", true).
		Order("id ASC").
		Find(&templates).Error
	if err != nil {
		return nil, fmt.Errorf("查询模板失败: %w", err)
	}
	return templates, nil
}

// GetTemplate 按ID查询启用中的模板
func (m *MySQL) GetTemplate(ctx context.Context, templateID uint64) (*models.Template, error) {
	var tpl models.Template
	err := m.db.WithContext(ctx).
		Preload("Variables", orderVariables).
		Where("id = ? AND is_active = ?", templateID, true).
		Take(&tpl).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &tpl, nil
}

// SaveGeneratedDocument 保存渲染结果，并在同一事务中写入文档生成事件。
// buildEvent 在文档获得ID之后调用。
func (m *MySQL) SaveGeneratedDocument(ctx context.Context, doc *models.GeneratedDocument, buildEvent func(doc *models.GeneratedDocument) (*models.OutboxMessage, error)) error {
	tx := m.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return fmt.Errorf("开始事务失败: %w", tx.Error)
	}
	defer tx.Rollback()

	if err := tx.Create(doc).Error; err != nil {
		return fmt.Errorf("保存生成文档失败: %w", err)
	}

	if buildEvent != nil {
		msg, err := buildEvent(doc)
		if err != nil {
			return fmt.Errorf("构造文档事件失败: %w", err)
		}
		if msg != nil {
			if msg.Status == "" {
				msg.Status = models.OutboxStatusPending
			}
			if err := tx.Create(msg).Error; err != nil {
				return fmt.Errorf("写入outbox事件失败: %w", err)
			}
		}
	}

	if err := tx.Commit().Error; err != nil {
		return fmt.Errorf("提交事务失败: %w", err)
	}
	return nil
}
