package article

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/frahmantamala/intranet-portal/internal"
	"github.com/frahmantamala/intranet-portal/internal/auth"
	"github.com/frahmantamala/intranet-portal/internal/core/common/pagination"
	articleDatamodel "github.com/frahmantamala/intranet-portal/internal/core/datamodel/article"
	"github.com/frahmantamala/intranet-portal/internal/core/dberr"
	"github.com/frahmantamala/intranet-portal/internal/core/events"
)

type RepositoryAPI interface {
	Create(ctx context.Context, row *articleDatamodel.ContentArticle) error
	GetByID(ctx context.Context, id int64) (*articleDatamodel.ContentArticle, error)
	UpdateContent(ctx context.Context, row *articleDatamodel.ContentArticle) error
	// Transition persists the workflow columns of row only while the stored
	// status still equals from. It reports whether a row was changed.
	Transition(ctx context.Context, row *articleDatamodel.ContentArticle, from string) (bool, error)
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, filter ListFilter, params pagination.Params) ([]*articleDatamodel.ContentArticle, int64, error)
	ListPublished(ctx context.Context, now time.Time, params pagination.Params) ([]*articleDatamodel.ContentArticle, int64, error)
	IncrementViewCount(ctx context.Context, id int64) error
}

var (
	ErrArticleNotFound     = internal.NewNotFoundError("Article not found", internal.ErrCodeNotFound)
	ErrArticleLocked       = internal.NewValidationError("Only draft or rejected articles can be edited", internal.ErrCodeInvalidStateTransition)
	ErrInvalidTransition   = internal.NewValidationError("Invalid article state transition", internal.ErrCodeInvalidStateTransition)
	ErrInvalidAvailability = internal.NewValidationError("availableUntil must be after availableFrom", internal.ErrCodeInvalidDateRange)
	ErrArticleInUse        = internal.NewConflictError("Article is linked from a menu item", internal.ErrCodeArticleInUse)
)

func transitionError(from, to Status) error {
	return ErrInvalidTransition.
		WithMessage(fmt.Sprintf("Cannot move article from %s to %s", from, to)).
		WithDetails(map[string]Status{"from": from, "to": to})
}

type Service struct {
	repo      RepositoryAPI
	policy    *auth.Policy
	publisher events.Publisher
	logger    *slog.Logger
	now       func() time.Time
}

func NewService(repo RepositoryAPI, policy *auth.Policy, publisher events.Publisher, logger *slog.Logger) *Service {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &Service{
		repo:      repo,
		policy:    policy,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// List returns articles newest first. Non-admins are limited to published
// articles unless they list their own.
func (s *Service) List(ctx context.Context, actor *auth.User, filter ListFilter, params pagination.Params) (pagination.Page[*Article], error) {
	if actor == nil {
		return pagination.Page[*Article]{}, internal.ErrUnauthorized
	}
	if !s.policy.IsAdmin(actor) {
		ownList := filter.AuthorID != nil && *filter.AuthorID == actor.ID
		if !ownList {
			published := StatusPublished
			filter.Status = &published
		}
	}

	rows, total, err := s.repo.List(ctx, filter, params)
	if err != nil {
		s.logger.Error("failed to list articles", "error", err)
		return pagination.Page[*Article]{}, internal.NewInternalError("failed to list articles", err)
	}
	return pagination.NewPage(fromDataModels(rows), params, total), nil
}

// ListPublished returns the articles that are published and inside their
// availability window, most recently published first.
func (s *Service) ListPublished(ctx context.Context, params pagination.Params) (pagination.Page[*Article], error) {
	rows, total, err := s.repo.ListPublished(ctx, s.now().UTC(), params)
	if err != nil {
		s.logger.Error("failed to list published articles", "error", err)
		return pagination.Page[*Article]{}, internal.NewInternalError("failed to list published articles", err)
	}
	return pagination.NewPage(fromDataModels(rows), params, total), nil
}

// Get returns one article and counts the read when it is published and
// inside its availability window. Anything else is visible to admins and the
// author only.
func (s *Service) Get(ctx context.Context, actor *auth.User, id int64) (*Article, error) {
	a, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !a.IsAvailable(s.now().UTC()) {
		if actor == nil || (!s.policy.IsAdmin(actor) && actor.ID != a.AuthorID) {
			return nil, ErrArticleNotFound
		}
		return a, nil
	}

	if err := s.repo.IncrementViewCount(ctx, id); err != nil {
		s.logger.Warn("failed to increment view count", "error", err, "article_id", id)
		return a, nil
	}
	a.ViewCount++
	return a, nil
}

func (s *Service) Create(ctx context.Context, actor *auth.User, dto CreateArticleDTO) (*Article, error) {
	if actor == nil {
		return nil, internal.ErrUnauthorized
	}
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	row := ToDataModel(NewArticle(strings.TrimSpace(dto.Title), dto.Content, actor.ID))
	if err := s.repo.Create(ctx, row); err != nil {
		s.logger.Error("failed to create article", "error", err)
		return nil, internal.NewInternalError("failed to create article", err)
	}

	s.logger.Info("article created", "article_id", row.ID, "author_id", actor.ID)
	return s.load(ctx, row.ID)
}

func (s *Service) Update(ctx context.Context, actor *auth.User, id int64, dto UpdateArticleDTO) (*Article, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	a, err := s.loadForMutation(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if !a.CanEdit() {
		return nil, ErrArticleLocked
	}

	if dto.Title != nil {
		a.Title = strings.TrimSpace(*dto.Title)
	}
	if dto.Content != nil {
		a.Content = *dto.Content
	}

	if err := s.repo.UpdateContent(ctx, ToDataModel(a)); err != nil {
		s.logger.Error("failed to update article", "error", err, "article_id", id)
		return nil, internal.NewInternalError("failed to update article", err)
	}
	return s.load(ctx, id)
}

// Delete is open to admins, and to the author while the article is a draft.
func (s *Service) Delete(ctx context.Context, actor *auth.User, id int64) error {
	a, err := s.loadForMutation(ctx, actor, id)
	if err != nil {
		return err
	}
	if !s.policy.IsAdmin(actor) && a.PublicationStatus != StatusDraft {
		return internal.ErrForbidden
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if dberr.IsForeignKeyViolation(err) {
			return ErrArticleInUse
		}
		s.logger.Error("failed to delete article", "error", err, "article_id", id)
		return internal.NewInternalError("failed to delete article", err)
	}
	s.logger.Info("article deleted", "article_id", id, "user_id", actor.ID)
	return nil
}

func (s *Service) Submit(ctx context.Context, actor *auth.User, id int64) (*Article, error) {
	a, err := s.loadForMutation(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	from := a.PublicationStatus
	if err := a.Submit(); err != nil {
		return nil, err
	}
	return s.transition(ctx, a, from, actor, events.EventTypeArticleSubmitted)
}

func (s *Service) Approve(ctx context.Context, actor *auth.User, id int64, dto ApproveArticleDTO) (*Article, error) {
	if err := s.policy.RequireAdmin(actor); err != nil {
		return nil, err
	}

	a, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	from := dto.AvailableFrom.UTC()
	if dto.AvailableFrom.IsZero() {
		from = now
	}
	var until *time.Time
	if dto.AvailableUntil != nil {
		u := dto.AvailableUntil.UTC()
		until = &u
	}

	prev := a.PublicationStatus
	if err := a.Approve(actor.ID, from, until, now); err != nil {
		return nil, err
	}
	return s.transition(ctx, a, prev, actor, events.EventTypeArticlePublished)
}

func (s *Service) Reject(ctx context.Context, actor *auth.User, id int64, dto RejectArticleDTO) (*Article, error) {
	if err := s.policy.RequireAdmin(actor); err != nil {
		return nil, err
	}
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	a, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	var reason *string
	if dto.Reason != nil {
		if trimmed := strings.TrimSpace(*dto.Reason); trimmed != "" {
			reason = &trimmed
		}
	}

	prev := a.PublicationStatus
	if err := a.Reject(reason); err != nil {
		return nil, err
	}
	return s.transition(ctx, a, prev, actor, events.EventTypeArticleRejected)
}

func (s *Service) transition(ctx context.Context, a *Article, from Status, actor *auth.User, eventType string) (*Article, error) {
	ok, err := s.repo.Transition(ctx, ToDataModel(a), string(from))
	if err != nil {
		s.logger.Error("failed to change article status", "error", err, "article_id", a.ID)
		return nil, internal.NewInternalError("failed to change article status", err)
	}
	if !ok {
		// Someone else moved the article first.
		current, err := s.load(ctx, a.ID)
		if err != nil {
			return nil, err
		}
		return nil, transitionError(current.PublicationStatus, a.PublicationStatus)
	}

	s.logger.Info("article status changed", "article_id", a.ID, "from", from, "to", a.PublicationStatus, "user_id", actor.ID)
	event := events.NewDomainEvent(eventType, a.ID, actor.ID, map[string]interface{}{
		"author_id": a.AuthorID,
		"from":      string(from),
		"to":        string(a.PublicationStatus),
	})
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("failed to publish article event", "error", err, "event_type", eventType)
	}
	return s.load(ctx, a.ID)
}

func (s *Service) load(ctx context.Context, id int64) (*Article, error) {
	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("failed to get article", "error", err, "article_id", id)
		return nil, internal.NewInternalError("failed to get article", err)
	}
	if row == nil {
		return nil, ErrArticleNotFound
	}
	return FromDataModel(row), nil
}

// loadForMutation hides unpublished articles of other authors behind
// NOT_FOUND, the same way Get does, before checking ownership.
func (s *Service) loadForMutation(ctx context.Context, actor *auth.User, id int64) (*Article, error) {
	if actor == nil {
		return nil, internal.ErrUnauthorized
	}
	a, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.policy.CanMutate(actor, a.AuthorID); err != nil {
		if !a.IsPublished() {
			return nil, ErrArticleNotFound
		}
		return nil, err
	}
	return a, nil
}

func fromDataModels(rows []*articleDatamodel.ContentArticle) []*Article {
	out := make([]*Article, 0, len(rows))
	for _, row := range rows {
		out = append(out, FromDataModel(row))
	}
	return out
}
