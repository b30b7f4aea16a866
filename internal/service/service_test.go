package service_test

import (
	"bytes"
	"io"
	"testing"
	"time"

	"github.com/straye-as/renewal-api/internal/auth"
	"github.com/straye-as/renewal-api/internal/config"
	"github.com/straye-as/renewal-api/internal/database"
	"github.com/straye-as/renewal-api/internal/repository"
	"github.com/straye-as/renewal-api/internal/service"
	"github.com/straye-as/renewal-api/internal/storage"
	"github.com/straye-as/renewal-api/internal/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// harness wires every service against fresh in-memory stores and a
// temporary uploads root
type harness struct {
	stores *database.Stores
	store  *storage.LocalStorage
	cfg    *config.AuthConfig

	users     *repository.UserRepository
	residents *repository.ResidentRepository
	docs      *repository.DocumentRepository

	auth      *service.AuthService
	documents *service.DocumentService
	residentS *service.ResidentService
	schedule  *service.ScheduleService
	reports   *service.ReportService
	complexes *service.ComplexService
	messaging *service.MessagingService
	export    *service.ExportService
	bot       *service.BotService
	activity  *service.ActivityService
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	logger := zap.NewNop()
	stores := testutil.SetupStores(t)

	local, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	cfg := &config.AuthConfig{
		JWTSecret:              "test-secret",
		TokenTTLHours:          1,
		BootstrapAdminUsername: "admin",
		ExposeTempPassword:     true,
		MinPasswordLength:      4,
	}

	users := repository.NewUserRepository(stores.Users)
	projects := repository.NewProjectRepository(stores.Projects)
	complexes := repository.NewComplexRepository(stores.Projects)
	residents := repository.NewResidentRepository(stores.Projects)
	owners := repository.NewSecondaryOwnerRepository(stores.Projects)
	docs := repository.NewDocumentRepository(stores.Projects)
	chat := repository.NewChatRepository(stores.Projects)
	staff := repository.NewStaffMessageRepository(stores.Projects)
	meetings := repository.NewMeetingRepository(stores.Meetings)
	leads := repository.NewLeadRepository(stores.Projects)
	tickets := repository.NewSupportTicketRepository(stores.Projects)
	activity := repository.NewActivityLogRepository(stores.Users)

	resolver := service.NewUserResolver(users)
	documents := service.NewDocumentService(docs, staff, complexes, local, logger)
	tokens := auth.NewTokenManager(cfg.JWTSecret, time.Hour)

	return &harness{
		stores:    stores,
		store:     local,
		cfg:       cfg,
		users:     users,
		residents: residents,
		docs:      docs,
		auth:      service.NewAuthService(users, tokens, cfg, logger),
		documents: documents,
		residentS: service.NewResidentService(residents, owners, docs, documents, logger),
		schedule:  service.NewScheduleService(meetings, complexes, residents, logger),
		reports:   service.NewReportService(projects, complexes, residents, resolver, logger),
		complexes: service.NewComplexService(projects, complexes, documents, resolver, logger),
		messaging: service.NewMessagingService(staff, chat, users, residents, documents, logger),
		export:    service.NewExportService(residents, logger),
		bot:       service.NewBotService(leads, tickets, residents, logger),
		activity:  service.NewActivityService(activity, logger),
	}
}

func upload(name, content string) *service.Upload {
	return &service.Upload{
		FileName:    name,
		ContentType: "application/pdf",
		Size:        int64(len(content)),
		Reader:      bytes.NewReader([]byte(content)),
	}
}

func readAll(t *testing.T, rc io.ReadCloser) string {
	t.Helper()
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	return string(data)
}
