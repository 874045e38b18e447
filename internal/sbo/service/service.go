// Package service implements the workflow core: process lifecycle and stage
// transitions, notifications, reference data, attachments, and reporting.
// Collaborators are narrow interfaces so each service can be exercised
// against fakes.
package service

import (
	"context"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/OZI-SP-Dev/sbo-workflow/internal/sbo/entity"
	"github.com/OZI-SP-Dev/sbo-workflow/internal/sbo/paging"
	"github.com/OZI-SP-Dev/sbo-workflow/internal/sbo/repository"
)

// Deps carries everything the service layer is wired from.
type Deps struct {
	Repos *repository.Repositories
	Redis *redis.Client
	Minio *minio.Client
	Mail  MailSender
	Log   *zap.Logger

	BaseURL        string
	MailFrom       string
	DocumentBucket string
	PageSize       int
	PCRInterval    time.Duration
}

// Services bundles the wired service layer.
type Services struct {
	Process   *ProcessService
	Org       *OrgService
	User      *UserService
	Document  *DocumentService
	Report    *ReportService
	PCRWorker *PCRWorker
	Sessions  *paging.Sessions
}

// New wires the service layer onto its stores and clients.
func New(d Deps) *Services {
	pageSize := d.PageSize
	if pageSize <= 0 {
		pageSize = 10
	}

	fetch := func(ctx context.Context, q paging.Query, cursor string) ([]entity.Process, string, error) {
		return d.Repos.Process.FetchPage(ctx, q, cursor, pageSize)
	}
	sessions := paging.NewSessions(func() *paging.Pager {
		return paging.NewPager(fetch)
	})

	org := NewOrgService(d.Repos.Org, d.Redis, d.Log)
	notifier := NewNotifier(d.Mail, d.BaseURL, d.MailFrom, nil)

	var document *DocumentService
	if d.Minio != nil {
		document = NewDocumentService(d.Minio, d.DocumentBucket)
	}

	return &Services{
		Process: NewProcessService(
			d.Repos.Process,
			d.Repos.Note,
			d.Repos.PCREmail,
			org,
			notifier,
			sessions,
			d.Log,
		),
		Org:       org,
		User:      NewUserService(d.Repos.User),
		Document:  document,
		Report:    NewReportService(d.Repos.Process),
		PCRWorker: NewPCRWorker(d.Repos.PCREmail, d.Repos.Process, d.Mail, d.BaseURL, d.PCRInterval, d.Log),
		Sessions:  sessions,
	}
}
