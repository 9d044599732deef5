package conversations

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"openshelf/pkg/errs"
	"openshelf/pkg/models"
)

// Store is the keyed CRUD store behind the chat screens. Its only
// invariant is uid uniqueness; the assistant itself lives elsewhere.
type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Create(userUid, title string) (*models.Conversation, error) {
	if userUid == "" {
		return nil, errs.Validation("userUid", "must not be empty")
	}
	conversation := models.Conversation{
		ConversationUid: uuid.New().String(),
		UserUid:         userUid,
		Title:           title,
	}
	if err := s.db.Create(&conversation).Error; err != nil {
		return nil, err
	}
	return &conversation, nil
}

func (s *Store) List(userUid string) ([]models.Conversation, error) {
	if userUid == "" {
		return nil, errs.Validation("userUid", "must not be empty")
	}
	var conversations []models.Conversation
	err := s.db.Where("user_uid = ?", userUid).Order("updated_at DESC").Find(&conversations).Error
	if err != nil {
		return nil, err
	}
	return conversations, nil
}

func (s *Store) Get(conversationUid string) (*models.Conversation, error) {
	var conversation models.Conversation
	err := s.db.Preload("Messages", func(db *gorm.DB) *gorm.DB {
		return db.Order("messages.id")
	}).Where("conversation_uid = ?", conversationUid).First(&conversation).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.NotFound("conversation", conversationUid)
	}
	if err != nil {
		return nil, err
	}
	return &conversation, nil
}

func (s *Store) Rename(conversationUid, title string) (*models.Conversation, error) {
	conversation, err := s.Get(conversationUid)
	if err != nil {
		return nil, err
	}
	conversation.Title = title
	if err := s.db.Model(conversation).Update("title", title).Error; err != nil {
		return nil, err
	}
	return conversation, nil
}

// AppendMessage adds one chat message; role is "user" or "assistant".
func (s *Store) AppendMessage(conversationUid, role, content string) (*models.Message, error) {
	if role != "user" && role != "assistant" {
		return nil, errs.Validation("role", "must be user or assistant")
	}
	conversation, err := s.Get(conversationUid)
	if err != nil {
		return nil, err
	}
	message := models.Message{
		ConversationID: conversation.ID,
		Role:           role,
		Content:        content,
	}
	if err := s.db.Create(&message).Error; err != nil {
		return nil, err
	}
	// Touch the parent so List keeps most-recent-first order.
	if err := s.db.Model(conversation).Update("updated_at", message.CreatedAt).Error; err != nil {
		return nil, err
	}
	return &message, nil
}

func (s *Store) Delete(conversationUid string) error {
	conversation, err := s.Get(conversationUid)
	if err != nil {
		return err
	}
	if err := s.db.Where("conversation_id = ?", conversation.ID).Delete(&models.Message{}).Error; err != nil {
		return err
	}
	return s.db.Delete(conversation).Error
}
