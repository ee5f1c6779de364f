package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/nurpe/tender-award/internal/model"
)

type AuditSink interface {
	Record(ctx context.Context, entry model.AuditEntry) error
}

// auditor writes best-effort entries: failures are logged and never returned.
type auditor struct {
	sink AuditSink
	log  zerolog.Logger
}

func (a auditor) record(ctx context.Context, entry model.AuditEntry) {
	if a.sink == nil {
		return
	}
	if err := a.sink.Record(context.WithoutCancel(ctx), entry); err != nil {
		a.log.Warn().
			Err(err).
			Str("tenant_id", entry.TenantID.String()).
			Str("entity_type", entry.EntityType).
			Str("entity_id", entry.EntityID.String()).
			Str("action", entry.Action).
			Msg("audit write failed")
	}
}
