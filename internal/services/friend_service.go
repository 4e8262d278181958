package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"gorm.io/gorm"

	"locshare/internal/models"
	"locshare/internal/storage"
)

// SearchLimit caps the number of users returned by Search.
const SearchLimit = 20

// FriendService manages the directed friend graph. Every operation acts on
// relations owned by ownerID only.
type FriendService interface {
	AddFriend(ctx context.Context, ownerID uint, targetUID string) (*models.FriendRelation, error)
	ListFriends(ctx context.Context, ownerID uint) ([]models.FriendWithUser, error)
	SetStatus(ctx context.Context, ownerID, relationID uint, status models.FriendStatus) error
	Block(ctx context.Context, ownerID, relationID uint) error
	Unblock(ctx context.Context, ownerID, relationID uint) error
	Remove(ctx context.Context, ownerID, relationID uint) error
	Search(ctx context.Context, ownerID uint, query string) ([]models.UserSearchResult, error)
}

type friendService struct {
	userRepo   storage.UserRepository
	friendRepo storage.FriendRepository
}

// NewFriendService creates a new FriendService instance.
func NewFriendService(userRepo storage.UserRepository, friendRepo storage.FriendRepository) FriendService {
	return &friendService{
		userRepo:   userRepo,
		friendRepo: friendRepo,
	}
}

// AddFriend creates an active relation from ownerID to the user with targetUID.
// If the relation already exists it is returned unchanged, including a
// blocked status.
func (s *friendService) AddFriend(ctx context.Context, ownerID uint, targetUID string) (*models.FriendRelation, error) {
	target, err := findUserByUID(ctx, s.userRepo, targetUID, ErrUserNotFound)
	if err != nil {
		return nil, err
	}
	if target.ID == ownerID {
		return nil, ErrSelfFriend
	}

	existing, err := s.friendRepo.FindByPair(ctx, ownerID, target.ID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("检查好友关系时出错: %w", err)
	}

	relation := &models.FriendRelation{
		UserID:   ownerID,
		FriendID: target.ID,
		Status:   models.FriendStatusActive,
	}
	if err := s.friendRepo.Create(ctx, relation); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// A concurrent add won the race; theirs is the relation.
			return s.friendRepo.FindByPair(ctx, ownerID, target.ID)
		}
		return nil, fmt.Errorf("创建好友关系失败: %w", err)
	}

	log.Printf("Friend relation %d created: %d -> %d", relation.ID, ownerID, target.ID)
	return relation, nil
}

// ListFriends returns ownerID's relations joined with the target users.
func (s *friendService) ListFriends(ctx context.Context, ownerID uint) ([]models.FriendWithUser, error) {
	friends, err := s.friendRepo.ListWithUsers(ctx, ownerID)
	if err != nil {
		log.Printf("Error listing friends for user %d: %v", ownerID, err)
		return nil, fmt.Errorf("获取好友列表失败: %w", err)
	}
	return friends, nil
}

// SetStatus changes the status of a relation owned by ownerID.
func (s *friendService) SetStatus(ctx context.Context, ownerID, relationID uint, status models.FriendStatus) error {
	if !status.Valid() {
		return ErrInvalidStatus
	}
	relation, err := s.ownedRelation(ctx, ownerID, relationID)
	if err != nil {
		return err
	}
	if err := s.friendRepo.UpdateStatus(ctx, relation.ID, status); err != nil {
		return fmt.Errorf("更新好友状态失败: %w", err)
	}
	log.Printf("Friend relation %d of user %d set to %s", relationID, ownerID, status)
	return nil
}

// Block stops ownerID from sending locations to the relation's target.
func (s *friendService) Block(ctx context.Context, ownerID, relationID uint) error {
	return s.SetStatus(ctx, ownerID, relationID, models.FriendStatusBlocked)
}

// Unblock re-activates a blocked relation.
func (s *friendService) Unblock(ctx context.Context, ownerID, relationID uint) error {
	return s.SetStatus(ctx, ownerID, relationID, models.FriendStatusActive)
}

// Remove deletes a relation owned by ownerID permanently.
func (s *friendService) Remove(ctx context.Context, ownerID, relationID uint) error {
	relation, err := s.ownedRelation(ctx, ownerID, relationID)
	if err != nil {
		return err
	}
	if err := s.friendRepo.Delete(ctx, relation.ID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrRelationNotFound
		}
		return fmt.Errorf("删除好友关系失败: %w", err)
	}
	log.Printf("Friend relation %d of user %d deleted", relationID, ownerID)
	return nil
}

// Search finds up to SearchLimit users other than ownerID whose uid, email or
// username contains query. A blank query yields an empty result.
func (s *friendService) Search(ctx context.Context, ownerID uint, query string) ([]models.UserSearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []models.UserSearchResult{}, nil
	}
	users, err := s.userRepo.SearchUsers(ctx, query, ownerID, SearchLimit)
	if err != nil {
		return nil, fmt.Errorf("搜索用户时出错: %w", err)
	}
	return users, nil
}

func (s *friendService) ownedRelation(ctx context.Context, ownerID, relationID uint) (*models.FriendRelation, error) {
	relation, err := s.friendRepo.GetOwnedByID(ctx, ownerID, relationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRelationNotFound
		}
		return nil, fmt.Errorf("检索好友关系失败: %w", err)
	}
	return relation, nil
}
