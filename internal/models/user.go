package models

// UserStatus 用户账号状态。
type UserStatus string

const (
	UserStatusActive   UserStatus = "active"
	UserStatusDisabled UserStatus = "disabled"
)

// User 代表系统中的用户。
// UID 是对外暴露的公开标识，所有跨用户引用都使用它而不是自增 ID。
type User struct {
	BaseModel
	UID           string     `gorm:"type:varchar(36);uniqueIndex;not null" json:"uid"`
	Username      string     `gorm:"type:varchar(255);not null" json:"username"`
	Email         string     `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Phone         *string    `gorm:"type:varchar(32);uniqueIndex" json:"phone,omitempty"`
	PasswordHash  string     `gorm:"type:varchar(255);not null" json:"-"` // 不暴露密码哈希
	AvatarURL     string     `gorm:"type:varchar(255)" json:"avatarUrl,omitempty"`
	Status        UserStatus `gorm:"type:varchar(20);default:'active'" json:"status"`
	TokensBalance int64      `gorm:"not null;default:0" json:"tokensBalance"` // only mutated through the token ledger
}

// UserBasicInfo holds minimal public information about a user.
// Used as the sender/receiver projection of a location share.
type UserBasicInfo struct {
	ID        uint   `json:"id"`
	UID       string `json:"uid"`
	Username  string `json:"username"`
	AvatarURL string `json:"avatarUrl,omitempty"`
}

// UserSearchResult is the projection returned by user search.
type UserSearchResult struct {
	ID        uint   `json:"id"`
	UID       string `json:"uid"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatarUrl,omitempty"`
}

// TableName 指定 User 模型的表名。
func (User) TableName() string {
	return "users"
}
