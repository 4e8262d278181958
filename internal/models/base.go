package models

import (
	"time"

	"gorm.io/gorm"
)

// BaseModel 所有表共用的主键与时间戳字段。
// DeletedAt 启用 gorm 软删除；好友关系例外，删除时走 Unscoped 硬删除。
type BaseModel struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
