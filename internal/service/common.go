package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"go.uber.org/zap"

	"github.com/MrPhilosopher04/P3m-polimdo-sub000/internal/models"
	"github.com/MrPhilosopher04/P3m-polimdo-sub000/internal/repository"
	appErrors "github.com/MrPhilosopher04/P3m-polimdo-sub000/pkg/errors"
	appLogger "github.com/MrPhilosopher04/P3m-polimdo-sub000/pkg/logger"
)

// RequestMeta carries client details recorded in audit rows.
type RequestMeta struct {
	IP        string
	UserAgent string
}

type auditWriter interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

type auditEntry struct {
	ActorID    string
	Action     string
	Resource   string
	ResourceID string
	Old        interface{}
	New        interface{}
}

// writeAudit records an audit row. Failures are logged and never surface to the caller.
func writeAudit(ctx context.Context, w auditWriter, logger *zap.Logger, e auditEntry, meta RequestMeta) {
	if w == nil {
		return
	}
	entry := &models.AuditLog{
		Action:    e.Action,
		Resource:  e.Resource,
		IPAddress: meta.IP,
		UserAgent: meta.UserAgent,
	}
	if e.ActorID != "" {
		entry.UserID = &e.ActorID
	}
	if e.ResourceID != "" {
		entry.ResourceID = &e.ResourceID
	}
	if e.Old != nil {
		entry.OldValues, _ = json.Marshal(e.Old)
	}
	if e.New != nil {
		entry.NewValues, _ = json.Marshal(e.New)
	}
	if err := w.CreateAuditLog(ctx, entry); err != nil {
		appLogger.For(ctx, logger).Warn("failed to record audit log",
			zap.String("action", e.Action),
			zap.String("resource_id", e.ResourceID),
			zap.Error(err))
	}
}

func paginate(page, pageSize, total int) *models.Pagination {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	return &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}
}

// lookupError maps sql.ErrNoRows and unparsable ids to a not-found error and
// anything else to an internal one.
func lookupError(err error, notFound, internal string) error {
	if missingRow(err) {
		return appErrors.Clone(appErrors.ErrNotFound, notFound)
	}
	return appErrors.Internal(err, internal)
}

func missingRow(err error) bool {
	return errors.Is(err, sql.ErrNoRows) || repository.IsMalformedID(err)
}
