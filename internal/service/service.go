// Package service implements the project, technician and client workflows
// on top of gorm. Every mutation that checks a policy runs the check and
// the write in one transaction.
package service

import (
	"errors"
	"log/slog"
	"strings"
	"time"

	"project-tracker/internal/apperr"
	"project-tracker/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	DefaultPerPage = 10
	MaxPerPage     = 100
)

// Page is a 0-based page request.
type Page struct {
	Number  int
	PerPage int
}

func (p Page) normalized() Page {
	if p.Number < 0 {
		p.Number = 0
	}
	if p.PerPage <= 0 {
		p.PerPage = DefaultPerPage
	}
	if p.PerPage > MaxPerPage {
		p.PerPage = MaxPerPage
	}
	return p
}

func (p Page) Offset() int {
	n := p.normalized()
	return n.Number * n.PerPage
}

func (p Page) Limit() int { return p.normalized().PerPage }

func (p Page) apply(q *gorm.DB) *gorm.DB {
	return q.Limit(p.Limit()).Offset(p.Offset())
}

type base struct {
	db       *gorm.DB
	log      *slog.Logger
	now      func() time.Time
	newToken func() string
	validate *validator.Validate
	hashCost int
}

// Option configures a service.
type Option func(*base)

func WithLogger(log *slog.Logger) Option {
	return func(b *base) { b.log = log }
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(b *base) { b.now = now }
}

// WithTokenSource replaces the shared link token generator.
func WithTokenSource(fn func() string) Option {
	return func(b *base) { b.newToken = fn }
}

// WithHashCost sets the bcrypt cost for stored passwords.
func WithHashCost(cost int) Option {
	return func(b *base) { b.hashCost = cost }
}

func newBase(db *gorm.DB, opts []Option) base {
	b := base{
		db:       db,
		log:      slog.Default(),
		now:      time.Now,
		newToken: uuid.NewString,
		validate: validator.New(),
		hashCost: bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(&b)
	}
	return b
}

func (b base) today() models.Date { return models.DateOf(b.now().UTC()) }

func (b base) validEmail(email string) bool {
	return b.validate.Var(email, "required,email") == nil
}

// textRule matches the size of the varchar text columns.
const textRule = "max=191"

// validText reports whether v is non-blank and fits a text column.
func (b base) validText(v string) bool {
	return strings.TrimSpace(v) != "" && b.validate.Var(v, textRule) == nil
}

// validName is validText for values that end up in mail headers.
func (b base) validName(v string) bool {
	return b.validText(v) && !strings.ContainsAny(v, "\r\n")
}

// fitsText reports whether an optional value fits a text column.
func (b base) fitsText(v *string) bool {
	return v == nil || b.validate.Var(*v, textRule) == nil
}

func requireAdmin(actor models.Actor) error {
	if !actor.IsAdmin() {
		return apperr.ErrAdminRequired
	}
	return nil
}

// localPart returns the part of an address before '@'.
func localPart(email string) string {
	if i := strings.IndexByte(email, '@'); i > 0 {
		return email[:i]
	}
	return ""
}

// internal classifies an unexpected store error, passing through errors
// that are already classified.
func internal(err error) error {
	if err == nil {
		return nil
	}
	var e *apperr.Error
	if errors.As(err, &e) {
		return err
	}
	return apperr.Internal(err)
}
