package repository

import (
	"context"

	"github.com/straye-as/renewal-api/internal/domain"
	"gorm.io/gorm"
)

type LeadRepository struct {
	db *gorm.DB
}

func NewLeadRepository(db *gorm.DB) *LeadRepository {
	return &LeadRepository{db: db}
}

func (r *LeadRepository) Create(ctx context.Context, lead *domain.Lead) error {
	return r.db.WithContext(ctx).Create(lead).Error
}

func (r *LeadRepository) ListByStatus(ctx context.Context, status string) ([]domain.Lead, error) {
	var leads []domain.Lead
	err := r.db.WithContext(ctx).Where("status = ?", status).Order("created_at DESC").Find(&leads).Error
	return leads, err
}

type SupportTicketRepository struct {
	db *gorm.DB
}

func NewSupportTicketRepository(db *gorm.DB) *SupportTicketRepository {
	return &SupportTicketRepository{db: db}
}

func (r *SupportTicketRepository) Create(ctx context.Context, ticket *domain.SupportTicket) error {
	return r.db.WithContext(ctx).Create(ticket).Error
}

func (r *SupportTicketRepository) ListOpen(ctx context.Context) ([]domain.SupportTicket, error) {
	var tickets []domain.SupportTicket
	err := r.db.WithContext(ctx).Where("status = ?", "open").Order("created_at ASC").Find(&tickets).Error
	return tickets, err
}
