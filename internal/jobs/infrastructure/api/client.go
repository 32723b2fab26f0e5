// Package api calls the backend's job application and CV matching endpoints.
package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/hirelane/hirelane/internal/gateway"
	"github.com/hirelane/hirelane/internal/jobs/domain"
)

const (
	applyPath        = "/api/Application/apply"
	tryMatchPath     = "/api/application/try-match"
	matchHistoryPath = "/api/application/my-try-match-history"
)

// Doer executes gateway requests.
type Doer interface {
	Do(ctx context.Context, req gateway.Request, out any) error
}

// Client is the typed client for application and matching endpoints.
// Every call requires a stored bearer token.
type Client struct {
	gw     Doer
	logger *zap.Logger
}

// NewClient creates a client on top of gw.
func NewClient(gw Doer, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{gw: gw, logger: logger}
}

// Apply submits an application with the given CV.
func (c *Client) Apply(ctx context.Context, app domain.Application) (domain.ApplicationReceipt, error) {
	if err := app.Validate(); err != nil {
		return domain.ApplicationReceipt{}, err
	}

	form := gateway.NewForm()
	addCV(form, app.CV)
	form.AddField("CoverLetter", app.CoverLetter)
	form.AddField("JobId", strings.TrimSpace(app.JobID))

	var receipt domain.ApplicationReceipt
	if err := c.gw.Do(ctx, gateway.Request{
		Method: http.MethodPost,
		Path:   applyPath,
		Form:   form,
		Auth:   true,
	}, &receipt); err != nil {
		return domain.ApplicationReceipt{}, fmt.Errorf("apply to job %s: %w", app.JobID, err)
	}

	c.logger.Info("application submitted", zap.String("job_id", app.JobID), zap.Bool("uploaded_cv", app.CV.IsFile()))
	return receipt, nil
}

// TryMatch asks the backend to score a CV against a job. The returned record
// is usually still Processing.
func (c *Client) TryMatch(ctx context.Context, req domain.MatchRequest) (domain.MatchRecord, error) {
	if err := req.Validate(); err != nil {
		return domain.MatchRecord{}, err
	}

	form := gateway.NewForm()
	addCV(form, req.CV)
	form.AddField("JobId", strings.TrimSpace(req.JobID))

	var record domain.MatchRecord
	if err := c.gw.Do(ctx, gateway.Request{
		Method: http.MethodPost,
		Path:   tryMatchPath,
		Form:   form,
		Auth:   true,
	}, &record); err != nil {
		return domain.MatchRecord{}, fmt.Errorf("try match for job %s: %w", req.JobID, err)
	}
	return record, nil
}

// History lists the user's matches. Records that break the status rules are
// dropped and logged.
func (c *Client) History(ctx context.Context) ([]domain.MatchRecord, error) {
	var records []domain.MatchRecord
	if err := c.gw.Do(ctx, gateway.Request{Path: matchHistoryPath, Auth: true}, &records); err != nil {
		return nil, fmt.Errorf("match history: %w", err)
	}

	valid := records[:0]
	for _, r := range records {
		if err := r.Validate(); err != nil {
			c.logger.Warn("skipping invalid match record", zap.Int64("try_match_id", r.TryMatchID), zap.Error(err))
			continue
		}
		valid = append(valid, r)
	}
	return valid, nil
}

// Detail fetches one match.
func (c *Client) Detail(ctx context.Context, tryMatchID string) (domain.MatchRecord, error) {
	id := strings.TrimSpace(tryMatchID)
	if id == "" {
		return domain.MatchRecord{}, fmt.Errorf("%w: match id is required", domain.ErrInvalidApplication)
	}

	var record domain.MatchRecord
	if err := c.gw.Do(ctx, gateway.Request{
		Path: tryMatchPath + "/" + url.PathEscape(id),
		Auth: true,
	}, &record); err != nil {
		return domain.MatchRecord{}, fmt.Errorf("match %s: %w", id, err)
	}
	if err := record.Validate(); err != nil {
		return domain.MatchRecord{}, err
	}
	return record, nil
}

func addCV(form *gateway.Form, cv domain.CVSource) {
	if cv.IsFile() {
		form.AddFile("CvFile", cv.FileName, cv.File)
		return
	}
	form.AddField("CvId", strings.TrimSpace(cv.CVID))
}
