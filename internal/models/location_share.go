package models

import (
	"encoding/json"
	"time"
)

// LocationShare 代表一次加密位置分享。创建后不可修改。
// EncryptedPayload, IV and Meta are stored and returned byte for byte;
// the server never decrypts or inspects them.
type LocationShare struct {
	BaseModel
	SenderID         uint            `gorm:"index;not null" json:"senderId"`
	ReceiverID       uint            `gorm:"index;not null" json:"receiverId"`
	EncryptedPayload string          `gorm:"type:text;not null" json:"ciphertext"`
	IV               *string         `gorm:"type:text" json:"iv"`
	Meta             *string         `gorm:"type:text" json:"-"`    // text, not jsonb, so the bytes survive unchanged
	ExpiresAt        *time.Time      `json:"expiresAt,omitempty"` // recorded only, not enforced
}

// MetaJSON returns the stored meta as raw JSON, or nil when none was sent.
func (s *LocationShare) MetaJSON() json.RawMessage {
	if s.Meta == nil || *s.Meta == "" {
		return nil
	}
	return json.RawMessage(*s.Meta)
}

// TableName 指定 LocationShare 模型的表名。
func (LocationShare) TableName() string {
	return "location_shares"
}

// LocationShareView is what a party to the share gets back.
type LocationShareView struct {
	ID         uint            `json:"id"`
	Ciphertext string          `json:"ciphertext"`
	IV         *string         `json:"iv"`
	Meta       json.RawMessage `json:"meta"` // 编码时空白会被压缩，内容不变
	Sender     *UserBasicInfo  `json:"sender"`
	Receiver   *UserBasicInfo  `json:"receiver"`
	CreatedAt  time.Time       `json:"createdAt"`
	ExpiresAt  *time.Time      `json:"expiresAt,omitempty"`
}
