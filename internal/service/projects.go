package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"project-tracker/internal/apperr"
	"project-tracker/internal/database"
	"project-tracker/internal/models"
	"project-tracker/internal/observability/metrics"
	"project-tracker/internal/policy"

	"gorm.io/gorm"
)

type ProjectService struct {
	base
}

func NewProjectService(db *gorm.DB, opts ...Option) *ProjectService {
	return &ProjectService{base: newBase(db, opts)}
}

type CreateProjectInput struct {
	Name         string
	Description  string
	StartDate    string
	DueDate      string
	NoteToClient *string
	ClientEmail  string
	ClientName   string
}

// UpdateProjectInput carries a partial update; nil fields are left as they are.
type UpdateProjectInput struct {
	Name         *string
	Description  *string
	StartDate    *string
	DueDate      *string
	NoteToClient *string
	Status       *models.ProjectStatus
	UserIDs      *[]uint
}

// SearchFilter holds the optional search criteria. Date fields are raw
// YYYY-MM-DD strings; empty means unset.
type SearchFilter struct {
	Name           string
	CreationDate   string
	DueDate        string
	RangeStart     string
	RangeEnd       string
	Status         string
	FindAllOverdue bool
	Page           Page
}

func withDetails(q *gorm.DB) *gorm.DB {
	return q.
		Preload("Client").
		Preload("AssignedTechnicians", func(db *gorm.DB) *gorm.DB { return db.Order("users.id") }).
		Preload("Comments", func(db *gorm.DB) *gorm.DB { return db.Order("comments.created_at, comments.id") }).
		Preload("Comments.User")
}

// visibleProjects restricts q to the projects actor may read.
func visibleProjects(q *gorm.DB, actor models.Actor) *gorm.DB {
	if actor.IsAdmin() {
		return q
	}
	assigned := q.Session(&gorm.Session{NewDB: true}).
		Model(&models.ProjectAssignment{}).
		Select("project_id").
		Where("user_id = ?", actor.UserID)
	return q.Where("projects.id IN (?)", assigned)
}

func isAssigned(tx *gorm.DB, projectID, userID uint) (bool, error) {
	var n int64
	err := tx.Model(&models.ProjectAssignment{}).
		Where("project_id = ? AND user_id = ?", projectID, userID).
		Count(&n).Error
	return n > 0, err
}

// lockProject loads a project row, locked for the rest of tx on postgres.
func lockProject(tx *gorm.DB, id uint) (*models.Project, error) {
	var p models.Project
	if err := database.ForUpdate(tx).First(&p, id).Error; err != nil {
		if database.IsNotFound(err) {
			return nil, apperr.ErrProjectNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (s *ProjectService) reload(ctx context.Context, id uint) (*models.Project, error) {
	var p models.Project
	if err := withDetails(s.db.WithContext(ctx)).First(&p, id).Error; err != nil {
		if database.IsNotFound(err) {
			return nil, apperr.ErrProjectNotFound
		}
		return nil, internal(err)
	}
	return &p, nil
}

// Create validates the input, finds or creates the client and inserts an
// Open project with a fresh shared link token, all in one transaction.
func (s *ProjectService) Create(ctx context.Context, actor models.Actor, in CreateProjectInput) (*models.Project, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	start, err := models.ParseDate(in.StartDate)
	if err != nil {
		return nil, apperr.ErrInvalidDateFormat
	}
	due, err := models.ParseDate(in.DueDate)
	if err != nil {
		return nil, apperr.ErrInvalidDateFormat
	}
	email := strings.TrimSpace(in.ClientEmail)
	if !s.validEmail(email) || !s.validName(in.Name) || !s.validText(in.Description) {
		return nil, apperr.ErrValidation
	}
	if !s.fitsText(in.NoteToClient) || s.validate.Var(in.ClientName, textRule) != nil {
		return nil, apperr.ErrValidation
	}

	p := models.Project{
		Name:            in.Name,
		Description:     in.Description,
		StartDate:       start,
		DueDate:         due,
		NoteToClient:    in.NoteToClient,
		Status:          models.StatusOpen,
		SharedLinkToken: s.newToken(),
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		client, err := findOrCreateClient(tx, email, in.ClientName)
		if err != nil {
			return err
		}
		p.ClientID = &client.ID
		if err := tx.Omit("AssignedTechnicians", "Comments", "Client").Create(&p).Error; err != nil {
			if database.IsUniqueViolation(err) {
				return apperr.ErrValidation.Wrap(err)
			}
			return err
		}
		p.Client = client
		return nil
	})
	if err != nil {
		return nil, internal(err)
	}

	s.log.Info("project created",
		slog.Uint64("project_id", uint64(p.ID)),
		slog.String("client_email", email),
		slog.Uint64("actor_id", uint64(actor.UserID)))
	return &p, nil
}

// findOrCreateClient returns the client with email, creating it if absent.
// A concurrent insert of the same email is resolved by reading the winner's
// row; the insert runs under a savepoint so tx stays usable on postgres.
func findOrCreateClient(tx *gorm.DB, email, name string) (*models.Client, error) {
	var c models.Client
	err := tx.Where("email = ?", email).First(&c).Error
	if err == nil {
		return &c, nil
	}
	if !database.IsNotFound(err) {
		return nil, err
	}

	if strings.TrimSpace(name) == "" {
		name = localPart(email)
	}
	c = models.Client{Email: email, Name: name}
	err = tx.Transaction(func(sp *gorm.DB) error {
		return sp.Omit("Projects").Create(&c).Error
	})
	if err == nil {
		return &c, nil
	}
	if !database.IsUniqueViolation(err) {
		return nil, err
	}

	c = models.Client{}
	if err := tx.Where("email = ?", email).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// Assign replaces the technician roster of a project.
func (s *ProjectService) Assign(ctx context.Context, actor models.Actor, projectID uint, userIDs []uint) (*models.Project, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := lockProject(tx, projectID); err != nil {
			return err
		}
		return replaceRoster(tx, projectID, userIDs)
	})
	if err != nil {
		if errors.Is(err, apperr.ErrTechnicianHasOpenProject) {
			metrics.IncAssignmentConflict()
		}
		return nil, internal(err)
	}

	s.log.Info("project roster replaced",
		slog.Uint64("project_id", uint64(projectID)),
		slog.Any("user_ids", userIDs))
	return s.reload(ctx, projectID)
}

// List returns the projects actor may see, one page at a time.
func (s *ProjectService) List(ctx context.Context, actor models.Actor, page Page) ([]models.Project, error) {
	q := visibleProjects(withDetails(s.db.WithContext(ctx)).Model(&models.Project{}), actor)
	var out []models.Project
	if err := page.apply(q.Order("projects.id")).Find(&out).Error; err != nil {
		return nil, internal(err)
	}
	return out, nil
}

// Get returns one project. A technician asking for a project they are not
// assigned to gets ErrNotAssigned rather than a not-found.
func (s *ProjectService) Get(ctx context.Context, actor models.Actor, id uint) (*models.Project, error) {
	p, err := s.reload(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.IsAdmin() {
		return p, nil
	}
	for _, t := range p.AssignedTechnicians {
		if t.ID == actor.UserID {
			return p, nil
		}
	}
	return nil, apperr.ErrNotAssigned
}

// Search applies every set filter with AND. An empty result is
// ErrNoProjectsFound.
func (s *ProjectService) Search(ctx context.Context, actor models.Actor, f SearchFilter) ([]models.Project, error) {
	q := visibleProjects(withDetails(s.db.WithContext(ctx)).Model(&models.Project{}), actor)

	parse := func(raw string) (models.Date, error) {
		d, err := models.ParseDate(raw)
		if err != nil {
			return models.Date{}, apperr.ErrInvalidDateFormat
		}
		return d, nil
	}

	if f.Name != "" {
		q = q.Where("LOWER(projects.name) LIKE ?", "%"+strings.ToLower(f.Name)+"%")
	}
	if f.CreationDate != "" {
		d, err := parse(f.CreationDate)
		if err != nil {
			return nil, err
		}
		q = q.Where("projects.created_at >= ? AND projects.created_at < ?", d.Time, d.AddDays(1).Time)
	}
	if f.DueDate != "" {
		d, err := parse(f.DueDate)
		if err != nil {
			return nil, err
		}
		q = q.Where("projects.due_date = ?", d)
	}
	if f.RangeStart != "" || f.RangeEnd != "" {
		if f.RangeStart == "" || f.RangeEnd == "" {
			return nil, apperr.ErrValidation.WithMessage("dateRangeStart and dateRangeEnd must be given together")
		}
		from, err := parse(f.RangeStart)
		if err != nil {
			return nil, err
		}
		to, err := parse(f.RangeEnd)
		if err != nil {
			return nil, err
		}
		q = q.Where("projects.due_date BETWEEN ? AND ?", from, to)
	}
	if f.Status != "" {
		st := models.ProjectStatus(f.Status)
		if !st.Valid() {
			return nil, apperr.ErrInvalidStatus
		}
		q = q.Where("projects.status = ?", st)
	}
	if f.FindAllOverdue {
		q = q.Where("projects.due_date < ?", s.today())
	}

	var out []models.Project
	if err := f.Page.apply(q.Order("projects.id")).Find(&out).Error; err != nil {
		return nil, internal(err)
	}
	if len(out) == 0 {
		return nil, apperr.ErrNoProjectsFound
	}
	return out, nil
}

// Update applies a partial update and, when UserIDs is set, replaces the
// roster under the same transaction.
func (s *ProjectService) Update(ctx context.Context, actor models.Actor, id uint, in UpdateProjectInput) (*models.Project, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	changes := map[string]any{}
	if in.Name != nil {
		if !s.validName(*in.Name) {
			return nil, apperr.ErrValidation
		}
		changes["name"] = *in.Name
	}
	if in.Description != nil {
		if !s.validText(*in.Description) {
			return nil, apperr.ErrValidation
		}
		changes["description"] = *in.Description
	}
	if in.StartDate != nil {
		d, err := models.ParseDate(*in.StartDate)
		if err != nil {
			return nil, apperr.ErrInvalidDateFormat
		}
		changes["start_date"] = d
	}
	if in.DueDate != nil {
		d, err := models.ParseDate(*in.DueDate)
		if err != nil {
			return nil, apperr.ErrInvalidDateFormat
		}
		changes["due_date"] = d
	}
	if in.NoteToClient != nil {
		if !s.fitsText(in.NoteToClient) {
			return nil, apperr.ErrValidation
		}
		changes["note_to_client"] = *in.NoteToClient
	}
	if in.Status != nil {
		if err := policy.ValidStatus(*in.Status); err != nil {
			return nil, err
		}
		changes["status"] = *in.Status
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := lockProject(tx, id)
		if err != nil {
			return err
		}
		if len(changes) > 0 {
			if err := tx.Model(p).Updates(changes).Error; err != nil {
				return err
			}
		}
		if in.UserIDs != nil {
			return replaceRoster(tx, id, *in.UserIDs)
		}
		return nil
	})
	if err != nil {
		return nil, internal(err)
	}
	return s.reload(ctx, id)
}

// SetStatus changes only the status column, subject to the caller's role
// and assignment.
func (s *ProjectService) SetStatus(ctx context.Context, actor models.Actor, id uint, next models.ProjectStatus) (*models.Project, error) {
	var p *models.Project
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if p, err = lockProject(tx, id); err != nil {
			return err
		}
		assigned := actor.IsAdmin()
		if !assigned {
			if assigned, err = isAssigned(tx, id, actor.UserID); err != nil {
				return err
			}
		}
		if err := policy.CanSetStatus(actor, assigned, next); err != nil {
			return err
		}
		if err := tx.Model(p).Update("status", next).Error; err != nil {
			return err
		}
		p.Status = next
		return nil
	})
	if err != nil {
		return nil, internal(err)
	}

	s.log.Info("project status changed",
		slog.Uint64("project_id", uint64(id)),
		slog.String("status", string(next)),
		slog.String("role", actor.Role.String()))
	return p, nil
}

// Delete removes a project with its assignments and comments. Sent email
// rows stay as an audit trail.
func (s *ProjectService) Delete(ctx context.Context, actor models.Actor, id uint) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := lockProject(tx, id); err != nil {
			return err
		}
		if err := tx.Where("project_id = ?", id).Delete(&models.ProjectAssignment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("project_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Project{}, id).Error
	})
	if err != nil {
		return internal(err)
	}
	s.log.Info("project deleted", slog.Uint64("project_id", uint64(id)))
	return nil
}

// ExportOverdueLastMonth lists projects past due that were created within
// the last month.
func (s *ProjectService) ExportOverdueLastMonth(ctx context.Context, actor models.Actor) ([]models.Project, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	now := s.now().UTC()
	var out []models.Project
	err := withDetails(s.db.WithContext(ctx)).
		Where("due_date < ? AND created_at >= ?", models.DateOf(now), now.AddDate(0, -1, 0)).
		Order("due_date, id").
		Find(&out).Error
	if err != nil {
		return nil, internal(err)
	}
	return out, nil
}

// PostComment appends a comment. Technicians may only comment on projects
// they are assigned to.
func (s *ProjectService) PostComment(ctx context.Context, actor models.Actor, projectID uint, text string) (*models.Comment, error) {
	if strings.TrimSpace(text) == "" {
		return nil, apperr.ErrValidation
	}
	db := s.db.WithContext(ctx)

	var n int64
	if err := db.Model(&models.Project{}).Where("id = ?", projectID).Count(&n).Error; err != nil {
		return nil, internal(err)
	}
	if n == 0 {
		return nil, apperr.ErrProjectNotFound
	}
	if !actor.IsAdmin() {
		ok, err := isAssigned(db, projectID, actor.UserID)
		if err != nil {
			return nil, internal(err)
		}
		if !ok {
			return nil, apperr.ErrNotAssigned.WithMessage("Forbidden: User not assigned to project")
		}
	}

	c := models.Comment{ProjectID: projectID, UserID: actor.UserID, Text: text}
	if err := db.Omit("User").Create(&c).Error; err != nil {
		return nil, internal(err)
	}
	return &c, nil
}

// SharedView resolves a shared link token to the client-facing projection.
func (s *ProjectService) SharedView(ctx context.Context, token string) (*models.SharedView, error) {
	var p models.Project
	err := s.db.WithContext(ctx).Where("shared_link_token = ?", token).First(&p).Error
	if err != nil {
		if database.IsNotFound(err) {
			return nil, apperr.ErrProjectNotFound
		}
		return nil, internal(err)
	}
	v := p.SharedView()
	return &v, nil
}
