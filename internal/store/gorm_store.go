package store

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"knowme/internal/util"
	"knowme/pkg/domain"
)

// GormStore implements Store using GORM + Postgres.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore opens the DB and runs auto-migrations.
func NewGormStore(dsn string) (*GormStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.AutoMigrate(
		&UserModel{},
		&ProfileCardModel{},
		&GroupModel{},
		&MembershipModel{},
		&CardStatusModel{},
		&InvitationModel{},
	); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	return &GormStore{db: db}, nil
}

// SaveUser registers or updates a user.
func (s *GormStore) SaveUser(u domain.User) error {
	model := userToModel(u)
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "email", "tier", "avatar_url", "password_hash", "updated_at"}),
	}).Create(&model).Error
}

// HasUserEmail checks if an email is already registered.
func (s *GormStore) HasUserEmail(email string) (bool, error) {
	var count int64
	if err := s.db.Model(&UserModel{}).Where("email = ?", strings.ToLower(email)).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// GetUserByEmail looks up a user by email.
func (s *GormStore) GetUserByEmail(email string) (domain.User, bool, error) {
	var model UserModel
	if err := s.db.Where("email = ?", strings.ToLower(email)).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.User{}, false, nil
		}
		return domain.User{}, false, err
	}
	return userFromModel(model), true, nil
}

// GetUserByID returns a user by ID.
func (s *GormStore) GetUserByID(id string) (domain.User, bool, error) {
	var model UserModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.User{}, false, nil
		}
		return domain.User{}, false, err
	}
	return userFromModel(model), true, nil
}

// ListUsers returns all users ordered by creation time.
func (s *GormStore) ListUsers() ([]domain.User, error) {
	var models []UserModel
	if err := s.db.Order("created_at ASC, id ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.User, 0, len(models))
	for _, m := range models {
		res = append(res, userFromModel(m))
	}
	return res, nil
}

// UserCount returns the number of users.
func (s *GormStore) UserCount() (int, error) {
	var count int64
	if err := s.db.Model(&UserModel{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return int(count), nil
}

// SaveProfileCard inserts or updates a card. A second card for the same user
// surfaces as ErrDuplicateKey.
func (s *GormStore) SaveProfileCard(c domain.ProfileCard) error {
	model := cardToModel(c)
	err := s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"full_name", "photo_url", "phonetic_text", "pronunciation_audio_url",
			"short_bio", "nationality", "fun_fact", "links", "updated_at",
		}),
	}).Create(&model).Error
	return translateDuplicate(err)
}

// GetProfileCard returns a card by ID.
func (s *GormStore) GetProfileCard(id string) (domain.ProfileCard, bool, error) {
	var model ProfileCardModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ProfileCard{}, false, nil
		}
		return domain.ProfileCard{}, false, err
	}
	return cardFromModel(model), true, nil
}

// GetProfileCardByUserID returns the card owned by a user.
func (s *GormStore) GetProfileCardByUserID(userID string) (domain.ProfileCard, bool, error) {
	var model ProfileCardModel
	if err := s.db.First(&model, "user_id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ProfileCard{}, false, nil
		}
		return domain.ProfileCard{}, false, err
	}
	return cardFromModel(model), true, nil
}

// ListProfileCardsByUserIDs returns cards owned by the given users, in the
// order the owner IDs are given.
func (s *GormStore) ListProfileCardsByUserIDs(userIDs []string) ([]domain.ProfileCard, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	var models []ProfileCardModel
	if err := s.db.Where("user_id IN ?", userIDs).Find(&models).Error; err != nil {
		return nil, err
	}
	byUser := make(map[string]ProfileCardModel, len(models))
	for _, m := range models {
		byUser[m.UserID] = m
	}
	res := make([]domain.ProfileCard, 0, len(models))
	for _, uid := range userIDs {
		if m, ok := byUser[uid]; ok {
			res = append(res, cardFromModel(m))
		}
	}
	return res, nil
}

// SaveGroup inserts or updates a group. A join code held by another group
// surfaces as ErrDuplicateKey.
func (s *GormStore) SaveGroup(g domain.Group) error {
	model := groupToModel(g)
	var existing GroupModel
	err := s.db.Where("join_code_key = ? AND id <> ?", model.JoinCodeKey, model.ID).First(&existing).Error
	if err == nil {
		return ErrDuplicateKey
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	err = s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "description", "is_public", "join_code", "join_code_key", "updated_at"}),
	}).Create(&model).Error
	return translateDuplicate(err)
}

// GetGroup returns a group by ID.
func (s *GormStore) GetGroup(id string) (domain.Group, bool, error) {
	var model GroupModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Group{}, false, nil
		}
		return domain.Group{}, false, err
	}
	return groupFromModel(model), true, nil
}

// GetGroupByJoinCode resolves a join code case-insensitively.
func (s *GormStore) GetGroupByJoinCode(code string) (domain.Group, bool, error) {
	var model GroupModel
	key := strings.ToUpper(strings.TrimSpace(code))
	if err := s.db.First(&model, "join_code_key = ?", key).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Group{}, false, nil
		}
		return domain.Group{}, false, err
	}
	return groupFromModel(model), true, nil
}

// ListGroupsForUser returns groups the user belongs to.
func (s *GormStore) ListGroupsForUser(userID string) ([]domain.Group, error) {
	var models []GroupModel
	err := s.db.
		Joins("JOIN membership_models ON membership_models.group_id = group_models.id").
		Where("membership_models.user_id = ?", userID).
		Order("group_models.created_at ASC, group_models.id ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	res := make([]domain.Group, 0, len(models))
	for _, m := range models {
		res = append(res, groupFromModel(m))
	}
	return res, nil
}

// SearchPublicGroups returns public groups whose name contains the query.
func (s *GormStore) SearchPublicGroups(query string) ([]domain.Group, error) {
	var models []GroupModel
	pattern := "%" + strings.ToLower(query) + "%"
	err := s.db.
		Where("is_public = ? AND lower(name) LIKE ?", true, pattern).
		Order("created_at ASC, id ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	res := make([]domain.Group, 0, len(models))
	for _, m := range models {
		res = append(res, groupFromModel(m))
	}
	return res, nil
}

// AddMembership records a user joining a group. A duplicate pair reports
// false via DoNothing on the unique index.
func (s *GormStore) AddMembership(mem domain.Membership) (bool, error) {
	model := membershipToModel(mem)
	tx := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "group_id"}, {Name: "user_id"}},
		DoNothing: true,
	}).Create(&model)
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

// IsMember reports whether the user belongs to the group.
func (s *GormStore) IsMember(groupID, userID string) (bool, error) {
	var count int64
	err := s.db.Model(&MembershipModel{}).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// ListMemberships returns a group's memberships ordered by join time.
func (s *GormStore) ListMemberships(groupID string) ([]domain.Membership, error) {
	var models []MembershipModel
	err := s.db.Where("group_id = ?", groupID).
		Order("created_at ASC, id ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	res := make([]domain.Membership, 0, len(models))
	for _, m := range models {
		res = append(res, membershipFromModel(m))
	}
	return res, nil
}

// UpsertCardStatus writes a status for the (viewer, card, group) triple.
// The unique index serializes concurrent writers; last write wins.
func (s *GormStore) UpsertCardStatus(status domain.CardStatus) (domain.CardStatus, error) {
	model := statusToModel(status)
	if model.ID == "" {
		model.ID = util.NewID()
	}
	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "viewer_user_id"}, {Name: "profile_card_id"}, {Name: "group_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"is_known", "last_reviewed_at"}),
	}).Create(&model).Error
	if err != nil {
		return domain.CardStatus{}, err
	}
	var stored CardStatusModel
	err = s.db.First(&stored, "viewer_user_id = ? AND profile_card_id = ? AND group_id = ?",
		status.ViewerUserID, status.ProfileCardID, status.GroupID).Error
	if err != nil {
		return domain.CardStatus{}, err
	}
	return statusFromModel(stored), nil
}

// GetCardStatus returns the status for a triple, if any.
func (s *GormStore) GetCardStatus(viewerID, cardID, groupID string) (domain.CardStatus, bool, error) {
	var model CardStatusModel
	err := s.db.First(&model, "viewer_user_id = ? AND profile_card_id = ? AND group_id = ?",
		viewerID, cardID, groupID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.CardStatus{}, false, nil
		}
		return domain.CardStatus{}, false, err
	}
	return statusFromModel(model), true, nil
}

// ListCardStatuses returns all statuses for a viewer within a group.
func (s *GormStore) ListCardStatuses(viewerID, groupID string) ([]domain.CardStatus, error) {
	var models []CardStatusModel
	err := s.db.Where("viewer_user_id = ? AND group_id = ?", viewerID, groupID).
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	res := make([]domain.CardStatus, 0, len(models))
	for _, m := range models {
		res = append(res, statusFromModel(m))
	}
	return res, nil
}

// CountKnownForViewer counts known statuses for a viewer across all groups.
func (s *GormStore) CountKnownForViewer(viewerID string) (int, error) {
	var count int64
	err := s.db.Model(&CardStatusModel{}).
		Where("viewer_user_id = ? AND is_known = ?", viewerID, true).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return int(count), nil
}

// DeleteCardStatuses removes every status for a (viewer, group) pair.
func (s *GormStore) DeleteCardStatuses(viewerID, groupID string) error {
	return s.db.Delete(&CardStatusModel{}, "viewer_user_id = ? AND group_id = ?", viewerID, groupID).Error
}

// AddInvitations appends invitation records.
func (s *GormStore) AddInvitations(invs []domain.Invitation) error {
	if len(invs) == 0 {
		return nil
	}
	models := make([]InvitationModel, 0, len(invs))
	for _, inv := range invs {
		models = append(models, invitationToModel(inv))
	}
	return s.db.Create(&models).Error
}

// ListInvitations returns invitations for a group in append order.
func (s *GormStore) ListInvitations(groupID string) ([]domain.Invitation, error) {
	var models []InvitationModel
	err := s.db.Where("group_id = ?", groupID).
		Order("invited_at ASC, id ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	res := make([]domain.Invitation, 0, len(models))
	for _, m := range models {
		res = append(res, invitationFromModel(m))
	}
	return res, nil
}

func translateDuplicate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateKey
	}
	if strings.Contains(err.Error(), "duplicate key value") {
		return ErrDuplicateKey
	}
	return err
}
