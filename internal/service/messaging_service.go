package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/straye-as/renewal-api/internal/domain"
	"github.com/straye-as/renewal-api/internal/mapper"
	"github.com/straye-as/renewal-api/internal/repository"
	"github.com/straye-as/renewal-api/internal/storage"
	"go.uber.org/zap"
)

// RecipientAll addresses a staff message to everyone
const RecipientAll = "all"

// DefaultChatSender is recorded when an incoming chat message has no sender name
const DefaultChatSender = "resident"

var staffRoles = []domain.Role{domain.RoleAgent, domain.RoleManager, domain.RoleLawyer}

// MessagingService covers the staff message board and the resident chat log
type MessagingService struct {
	staff     *repository.StaffMessageRepository
	chat      *repository.ChatRepository
	users     *repository.UserRepository
	residents *repository.ResidentRepository
	documents *DocumentService
	logger    *zap.Logger
}

func NewMessagingService(
	staff *repository.StaffMessageRepository,
	chat *repository.ChatRepository,
	users *repository.UserRepository,
	residents *repository.ResidentRepository,
	documents *DocumentService,
	logger *zap.Logger,
) *MessagingService {
	return &MessagingService{
		staff:     staff,
		chat:      chat,
		users:     users,
		residents: residents,
		documents: documents,
		logger:    logger,
	}
}

// StaffUsers lists the approved users a message can be addressed to
func (s *MessagingService) StaffUsers(ctx context.Context) ([]domain.StaffUserDTO, error) {
	users, err := s.users.ListApprovedByRoles(ctx, staffRoles)
	if err != nil {
		return nil, fmt.Errorf("failed to list staff: %w", err)
	}
	out := make([]domain.StaffUserDTO, len(users))
	for i := range users {
		out[i] = mapper.ToStaffUserDTO(&users[i])
	}
	return out, nil
}

// ParseRecipient maps "all" or an empty value to the broadcast recipient
func ParseRecipient(value string) (domain.UserID, error) {
	value = strings.TrimSpace(value)
	if value == "" || strings.EqualFold(value, RecipientAll) {
		return domain.BroadcastRecipient, nil
	}
	id, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid recipient %q", ErrInvalidInput, value)
	}
	return domain.UserID(id), nil
}

// SendStaff posts a message with an optional attachment. The attachment is
// hidden from history until its file is confirmed in storage.
func (s *MessagingService) SendStaff(ctx context.Context, senderID domain.UserID, recipient, message string, file *Upload) (*domain.StaffMessage, error) {
	recipientID, err := ParseRecipient(recipient)
	if err != nil {
		return nil, err
	}
	message = strings.TrimSpace(message)
	if message == "" && file == nil {
		return nil, fmt.Errorf("%w: message or file is required", ErrInvalidInput)
	}

	msg := &domain.StaffMessage{
		SenderID:    senderID,
		RecipientID: recipientID,
		Message:     message,
	}
	if file != nil {
		msg.FileName = storage.SanitizeFileName(file.FileName)
		msg.FilePath = storage.GenerateName(PrefixStaff, file.FileName)
		msg.FileStatus = domain.DocumentStatusPending
	}
	if err := s.staff.Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("failed to send message: %w", err)
	}
	if file == nil {
		return msg, nil
	}

	if err := s.documents.saveNamed(ctx, storage.KindStaffFiles, msg.FilePath, file); err != nil {
		if delErr := s.staff.Delete(ctx, msg.ID); delErr != nil {
			s.logger.Warn("failed to drop staff message after upload failure", zap.Uint("message_id", msg.ID), zap.Error(delErr))
		}
		return nil, err
	}
	if err := s.staff.MarkFileConfirmed(ctx, msg.ID); err != nil {
		return nil, fmt.Errorf("failed to confirm attachment: %w", err)
	}
	msg.FileStatus = domain.DocumentStatusConfirmed
	return msg, nil
}

// StaffHistory returns broadcasts and the user's own conversation, oldest first
func (s *MessagingService) StaffHistory(ctx context.Context, userID domain.UserID) ([]domain.StaffMessageDTO, error) {
	msgs, err := s.staff.History(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load staff history: %w", err)
	}
	ids := make([]uint, 0, len(msgs))
	for _, m := range msgs {
		ids = append(ids, uint(m.SenderID))
	}
	senders, err := s.users.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve senders: %w", err)
	}
	out := make([]domain.StaffMessageDTO, len(msgs))
	for i := range msgs {
		out[i] = mapper.ToStaffMessageDTO(&msgs[i], senders)
	}
	return out, nil
}

func (s *MessagingService) ChatHistory(ctx context.Context, residentID uint) ([]domain.ChatMessage, error) {
	msgs, err := s.chat.ListByResident(ctx, residentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load chat history: %w", err)
	}
	if msgs == nil {
		msgs = []domain.ChatMessage{}
	}
	return msgs, nil
}

// SendChat records an incoming message on a resident's chat log
func (s *MessagingService) SendChat(ctx context.Context, req *domain.ChatSendRequest) (*domain.ChatMessage, error) {
	if strings.TrimSpace(req.Message) == "" {
		return nil, fmt.Errorf("%w: message is required", ErrInvalidInput)
	}
	if _, err := s.residents.GetByID(ctx, req.ResidentID); err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get resident: %w", err)
	}
	sender := strings.TrimSpace(req.SenderName)
	if sender == "" {
		sender = DefaultChatSender
	}
	msg := &domain.ChatMessage{
		ResidentID: req.ResidentID,
		Message:    req.Message,
		Direction:  "incoming",
		SenderName: sender,
	}
	if err := s.chat.Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("failed to send chat message: %w", err)
	}
	return msg, nil
}
