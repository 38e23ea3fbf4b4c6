package application

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/sirupsen/logrus"

	"github.com/opsboard/operator-auth/internal/domain/entity"
	"github.com/opsboard/operator-auth/internal/domain/repository"
)

// AuditRecorder persists a trace of auth-relevant actions and mirrors
// it to Elasticsearch. Everything here is best-effort: an audit failure
// is logged and never changes the outcome of the use-case.
type AuditRecorder struct {
	Repo   repository.AuditRepository
	ES     *elasticsearch.Client
	Index  string
	Logger *logrus.Logger
}

func NewAuditRecorder(repo repository.AuditRepository, es *elasticsearch.Client, index string, logger *logrus.Logger) *AuditRecorder {
	return &AuditRecorder{Repo: repo, ES: es, Index: index, Logger: logger}
}

func (a *AuditRecorder) Record(ctx context.Context, rec entity.AuditRecord) {
	if a == nil || a.Repo == nil {
		return
	}
	if err := a.Repo.Insert(ctx, &rec); err != nil {
		if a.Logger != nil {
			a.Logger.WithError(err).WithField("action", rec.Action).Warn("audit insert failed")
		}
		return
	}
	a.index(ctx, &rec)
}

func (a *AuditRecorder) index(ctx context.Context, rec *entity.AuditRecord) {
	if a.ES == nil || a.Index == "" {
		return
	}
	doc := map[string]any{
		"action":     rec.Action,
		"email":      rec.Email,
		"ip":         rec.IP,
		"user_agent": rec.UserAgent,
		"metadata":   rec.Metadata,
		"created_at": rec.CreatedAt.Format(time.RFC3339Nano),
	}
	if rec.OperatorID != nil {
		doc["operator_id"] = *rec.OperatorID
	}
	b, _ := json.Marshal(doc)
	req := esapi.IndexRequest{
		Index:      a.Index,
		DocumentID: strconv.FormatInt(rec.ID, 10),
		Body:       strings.NewReader(string(b)),
		Refresh:    "false",
	}
	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := req.Do(c, a.ES)
	if err != nil {
		if a.Logger != nil {
			a.Logger.WithError(err).WithField("action", rec.Action).Warn("audit index failed")
		}
		return
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() && a.Logger != nil {
		a.Logger.WithField("status", res.Status()).WithField("action", rec.Action).Warn("audit index response error")
	}
}
