package models

// FriendStatus 定义好友关系的状态
type FriendStatus string

const (
	FriendStatusActive  FriendStatus = "active"
	FriendStatusBlocked FriendStatus = "blocked"
)

// Valid reports whether s is a known status.
func (s FriendStatus) Valid() bool {
	return s == FriendStatusActive || s == FriendStatusBlocked
}

// FriendRelation is a directed edge from UserID (the owner) to FriendID.
// The reverse direction is a separate row; nothing keeps the two in sync.
type FriendRelation struct {
	BaseModel
	UserID   uint         `gorm:"not null;uniqueIndex:idx_friend_owner_target" json:"userId"`
	FriendID uint         `gorm:"not null;uniqueIndex:idx_friend_owner_target;index" json:"friendId"`
	Status   FriendStatus `gorm:"type:varchar(20);not null;default:'active'" json:"status"`
}

// TableName 指定 FriendRelation 模型的表名。
func (FriendRelation) TableName() string {
	return "friends"
}

// FriendWithUser is a relation joined with the target user's display fields.
type FriendWithUser struct {
	ID        uint         `json:"id"`
	FriendID  uint         `json:"friendId"`
	UID       string       `json:"uid"`
	Username  string       `json:"username"`
	Email     string       `json:"email"`
	Status    FriendStatus `json:"status"`
	AvatarURL string       `json:"avatarUrl,omitempty"`
}
