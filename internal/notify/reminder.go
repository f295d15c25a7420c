package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"project-tracker/internal/apperr"
	"project-tracker/internal/database"
	"project-tracker/internal/models"
	"project-tracker/internal/observability/metrics"
	"project-tracker/internal/service"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
)

// RunResult summarises one scheduled run.
type RunResult struct {
	Due    int
	Sent   int
	Failed int
}

type Reminder struct {
	db      *gorm.DB
	sender  EmailSender
	baseURL string
	log     *slog.Logger
	now     func() time.Time
	tracer  trace.Tracer
}

func NewReminder(db *gorm.DB, sender EmailSender, baseURL string, log *slog.Logger) *Reminder {
	return &Reminder{
		db:      db,
		sender:  sender,
		baseURL: baseURL,
		log:     log,
		now:     time.Now,
		tracer:  otel.Tracer("project-tracker/notify"),
	}
}

// Subject and Body build the reminder text for a project.
func Subject(p models.Project) string {
	return p.Name + " Start Reminder"
}

func (r *Reminder) Body(p models.Project) string {
	return fmt.Sprintf("Click the link to view the project details: %s/api/v1/clients/%s", r.baseURL, p.SharedLinkToken)
}

// RunDue reminds the client of every Open project whose start date has
// arrived. Each project is independent: a failed send is logged and
// counted and the run moves on.
func (r *Reminder) RunDue(ctx context.Context) (RunResult, error) {
	ctx, span := r.tracer.Start(ctx, "reminder.run_due")
	defer span.End()
	start := time.Now()
	defer func() { metrics.ObserveReminderRun(time.Since(start)) }()

	today := models.DateOf(r.now().UTC())
	var due []models.Project
	err := r.db.WithContext(ctx).
		Preload("Client").
		Where("start_date <= ? AND status = ? AND client_id IS NOT NULL", today, models.StatusOpen).
		Order("id").
		Find(&due).Error
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "query due projects")
		return RunResult{}, fmt.Errorf("query due projects: %w", err)
	}

	res := RunResult{Due: len(due)}
	for _, p := range due {
		if p.Client == nil || p.Client.Email == "" {
			continue
		}
		if _, err := r.deliver(ctx, p, models.TriggerScheduled); err != nil {
			res.Failed++
			r.log.Error("reminder failed",
				slog.Uint64("project_id", uint64(p.ID)),
				slog.String("error", err.Error()))
			continue
		}
		res.Sent++
	}

	span.SetAttributes(
		attribute.Int("reminder.due", res.Due),
		attribute.Int("reminder.sent", res.Sent),
		attribute.Int("reminder.failed", res.Failed))
	r.log.Info("reminder run finished",
		slog.Int("due", res.Due),
		slog.Int("sent", res.Sent),
		slog.Int("failed", res.Failed))
	return res, nil
}

// SendForProject sends the reminder for one project now, whatever its
// dates or status.
func (r *Reminder) SendForProject(ctx context.Context, projectID uint) (*models.SentEmail, error) {
	ctx, span := r.tracer.Start(ctx, "reminder.send_for_project",
		trace.WithAttributes(attribute.Int64("project.id", int64(projectID))))
	defer span.End()

	var p models.Project
	if err := r.db.WithContext(ctx).Preload("Client").First(&p, projectID).Error; err != nil {
		if database.IsNotFound(err) {
			return nil, apperr.ErrProjectNotFound
		}
		return nil, apperr.Internal(err)
	}
	if p.Client == nil || p.Client.Email == "" {
		return nil, apperr.ErrProjectNoClient
	}

	sent, err := r.deliver(ctx, p, models.TriggerManual)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "deliver")
		return nil, apperr.Internal(err)
	}
	return sent, nil
}

// deliver sends the reminder and appends the audit row.
func (r *Reminder) deliver(ctx context.Context, p models.Project, trigger models.EmailTrigger) (*models.SentEmail, error) {
	to := p.Client.Email
	if err := r.sender.Send(ctx, to, Subject(p), r.Body(p)); err != nil {
		metrics.ObserveReminder(string(trigger), "failed")
		return nil, fmt.Errorf("send to %s: %w", to, err)
	}

	row := models.SentEmail{
		ProjectID:       p.ID,
		ClientEmail:     to,
		SharedLinkToken: p.SharedLinkToken,
		Trigger:         trigger,
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		metrics.ObserveReminder(string(trigger), "failed")
		return nil, fmt.Errorf("record sent email: %w", err)
	}
	metrics.ObserveReminder(string(trigger), "sent")
	r.log.Info("reminder sent",
		slog.Uint64("project_id", uint64(p.ID)),
		slog.String("to", to),
		slog.String("trigger", string(trigger)))
	return &row, nil
}

// ListSent returns the audit rows of one project, newest first.
func (r *Reminder) ListSent(ctx context.Context, projectID uint, page service.Page) ([]models.SentEmail, error) {
	db := r.db.WithContext(ctx)
	var n int64
	if err := db.Model(&models.Project{}).Where("id = ?", projectID).Count(&n).Error; err != nil {
		return nil, apperr.Internal(err)
	}
	if n == 0 {
		return nil, apperr.ErrProjectNotFound
	}

	var out []models.SentEmail
	err := db.Where("project_id = ?", projectID).
		Order("created_at DESC, id DESC").
		Limit(page.Limit()).Offset(page.Offset()).
		Find(&out).Error
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return out, nil
}

// ListAll returns every audit row, newest first.
func (r *Reminder) ListAll(ctx context.Context, page service.Page) ([]models.SentEmail, error) {
	var out []models.SentEmail
	err := r.db.WithContext(ctx).
		Order("created_at DESC, id DESC").
		Limit(page.Limit()).Offset(page.Offset()).
		Find(&out).Error
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return out, nil
}
