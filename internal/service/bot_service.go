package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/straye-as/renewal-api/internal/domain"
	"github.com/straye-as/renewal-api/internal/importer"
	"github.com/straye-as/renewal-api/internal/repository"
	"go.uber.org/zap"
)

// DefaultLeadSource is recorded when the bot does not say where a lead came from
const DefaultLeadSource = "whatsapp"

// phoneMatchDigits is how many trailing digits identify a phone number
const phoneMatchDigits = 9

// BotService backs the API-key protected chat bot endpoints
type BotService struct {
	leads     *repository.LeadRepository
	tickets   *repository.SupportTicketRepository
	residents *repository.ResidentRepository
	logger    *zap.Logger
}

func NewBotService(
	leads *repository.LeadRepository,
	tickets *repository.SupportTicketRepository,
	residents *repository.ResidentRepository,
	logger *zap.Logger,
) *BotService {
	return &BotService{leads: leads, tickets: tickets, residents: residents, logger: logger}
}

func (s *BotService) NewLead(ctx context.Context, req *domain.NewLeadRequest) (*domain.Lead, error) {
	source := strings.TrimSpace(req.Source)
	if source == "" {
		source = DefaultLeadSource
	}
	lead := &domain.Lead{
		FullName: strings.TrimSpace(req.FullName),
		Phone:    importer.NormalizePhone(req.Phone),
		City:     strings.TrimSpace(req.City),
		Source:   source,
		Status:   "new",
	}
	if err := s.leads.Create(ctx, lead); err != nil {
		return nil, fmt.Errorf("failed to create lead: %w", err)
	}
	s.logger.Info("lead captured", zap.Uint("lead_id", lead.ID), zap.String("source", source))
	return lead, nil
}

func (s *BotService) ReportIssue(ctx context.Context, req *domain.ReportIssueRequest) (*domain.SupportTicket, error) {
	ticket := &domain.SupportTicket{
		ResidentPhone: importer.NormalizePhone(req.Phone),
		Category:      strings.TrimSpace(req.Category),
		Description:   strings.TrimSpace(req.Description),
		Status:        "open",
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, fmt.Errorf("failed to open ticket: %w", err)
	}
	s.logger.Info("support ticket opened", zap.Uint("ticket_id", ticket.ID), zap.String("category", ticket.Category))
	return ticket, nil
}

// CheckStatus finds a resident by the last digits of their phone and builds
// the reply the bot sends back
func (s *BotService) CheckStatus(ctx context.Context, phone string) (*domain.CheckStatusResponse, error) {
	digits := importer.NormalizePhone(phone)
	if len(digits) < phoneMatchDigits {
		return nil, fmt.Errorf("%w: phone must have at least %d digits", ErrInvalidInput, phoneMatchDigits)
	}
	suffix := digits[len(digits)-phoneMatchDigits:]

	resident, err := s.residents.FindByPhoneSuffix(ctx, suffix)
	if err != nil {
		if repository.IsNotFound(err) {
			return &domain.CheckStatusResponse{Found: false}, nil
		}
		return nil, fmt.Errorf("failed to look up resident: %w", err)
	}

	return &domain.CheckStatusResponse{
		Found: true,
		Reply: statusReply(resident),
		Data: &domain.BotResidentStatus{
			Name:         resident.Name,
			ProjectName:  resident.ProjectName,
			Address:      resident.CurrentAddress,
			LawyerStatus: resident.LawyerStatus,
			MissingDocs:  resident.MissingDocs.Data(),
		},
	}, nil
}

func statusReply(r *domain.Resident) string {
	reply := fmt.Sprintf("שלום %s, ", r.Name)
	switch r.LawyerStatus {
	case domain.LawyerStatusFullySigned:
		return reply + "התיק שלך חתום ומאושר! ✅"
	case domain.LawyerStatusPartiallySigned:
		return reply + "התיק חתום חלקית. יש להשלים מסמכים."
	}
	status := "בטיפול"
	if r.Status != "" && r.Status != domain.WorkflowStatusNone {
		status = r.Status.Label()
	}
	return reply + fmt.Sprintf("הסטטוס הנוכחי: %s.", status)
}
