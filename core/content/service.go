package content

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/cmabris/erasmus25/core"
	"github.com/cmabris/erasmus25/core/user"
)

var (
	// errors
	ErrDocumentNotFound     = errors.New("document not found")
	ErrNewsNotFound         = errors.New("news post not found")
	ErrEventNotFound        = errors.New("event not found")
	ErrSubscriptionNotFound = errors.New("subscription not found")
	ErrConsentNotFound      = errors.New("media consent not found")
	ErrSlugExists           = errors.New("this slug is already in use")
	ErrAlreadySubscribed    = errors.New("this email is already subscribed")
	ErrInvalidState         = errors.New("record is not in a valid state for this operation")
)

type (
	Repository interface {
		CheckDocumentSlugUniqueness(ctx context.Context, slug string) error
		CreateDocument(ctx context.Context, doc Document) (Document, error)
		GetDocument(ctx context.Context, id string) (Document, error)
		FilterDocuments(ctx context.Context, filter QueryFilter) ([]Document, error)
		UpdateDocument(ctx context.Context, doc Document) (Document, error)
		DeleteDocument(ctx context.Context, id string) error
		CountDocumentConsents(ctx context.Context, id string) (int, error)

		CheckNewsSlugUniqueness(ctx context.Context, slug string) error
		CreateNewsPost(ctx context.Context, post NewsPost) (NewsPost, error)
		GetNewsPost(ctx context.Context, id string) (NewsPost, error)
		FilterNewsPosts(ctx context.Context, filter QueryFilter) ([]NewsPost, error)
		UpdateNewsPost(ctx context.Context, post NewsPost) (NewsPost, error)
		DeleteNewsPost(ctx context.Context, id string) error
		CountNewsConsents(ctx context.Context, id string) (int, error)

		CreateEvent(ctx context.Context, event ErasmusEvent) (ErasmusEvent, error)
		GetEvent(ctx context.Context, id string) (ErasmusEvent, error)
		FilterEvents(ctx context.Context, filter QueryFilter) ([]ErasmusEvent, error)
		UpdateEvent(ctx context.Context, event ErasmusEvent) (ErasmusEvent, error)
		DeleteEvent(ctx context.Context, id string) error

		CreateSubscription(ctx context.Context, sub NewsletterSubscription) (NewsletterSubscription, error)
		GetSubscriptionByEmail(ctx context.Context, email string) (NewsletterSubscription, error)
		QueryAllSubscriptions(ctx context.Context) ([]NewsletterSubscription, error)
		UpdateSubscription(ctx context.Context, sub NewsletterSubscription) (NewsletterSubscription, error)

		CreateConsent(ctx context.Context, consent MediaConsent) (MediaConsent, error)
		QueryConsents(ctx context.Context, documentID, newsPostID string) ([]MediaConsent, error)
	}

	Service struct {
		repo  Repository
		media MediaService
		mail  core.EmailService
		log   core.Logger
	}
)

func NewService(repo Repository, media MediaService, mailSvc core.EmailService, logger core.Logger) *Service {
	return &Service{repo: repo, media: media, mail: mailSvc, log: logger}
}

func (svc *Service) checkDocumentSlug(slug string) error {
	if err := svc.repo.CheckDocumentSlugUniqueness(context.Background(), slug); err != nil {
		if err == ErrSlugExists {
			return core.NewValidationError(err, core.FieldError{Field: "slug", Error: err.Error()})
		}
		return err
	}
	return nil
}

func (svc *Service) checkNewsSlug(slug string) error {
	if err := svc.repo.CheckNewsSlugUniqueness(context.Background(), slug); err != nil {
		if err == ErrSlugExists {
			return core.NewValidationError(err, core.FieldError{Field: "slug", Error: err.Error()})
		}
		return err
	}
	return nil
}

// Documents

// CreateDocument stores a new active document. When an upload is provided it
// is validated against the configured policy and attached through the media
// collaborator; an attach failure does not fail the create.
func (svc *Service) CreateDocument(ctx context.Context, actor user.User, nd NewDocument, file *Upload) (Document, error) {
	if file != nil {
		if err := ValidateUpload(*file, core.Conf.Media); err != nil {
			return Document{}, err
		}
	}

	now := time.Now().UTC()
	doc, err := svc.repo.CreateDocument(ctx, Document{
		CategoryID:     nd.CategoryID,
		ProgramID:      null.NewString(nd.ProgramID, nd.ProgramID != ""),
		AcademicYearID: null.NewString(nd.AcademicYearID, nd.AcademicYearID != ""),
		Title:          nd.Title,
		Slug:           nd.Slug,
		Description:    nd.Description,
		State:          StateActive,
		CreatedBy:      actor.ID,
		UpdatedBy:      actor.ID,
		CreatedAt:      now,
		UpdatedAt:      now,
	})
	if err != nil {
		return Document{}, err
	}

	if file != nil {
		if handle := attachUpload(ctx, svc.media, svc.log, user.ResDocument, doc.ID, *file); handle != nil {
			doc.Media = handle
			doc, err = svc.repo.UpdateDocument(ctx, doc)
			if err != nil {
				return Document{}, err
			}
		}
	}
	return doc, nil
}

func (svc *Service) GetDocument(ctx context.Context, id string) (Document, error) {
	doc, err := svc.repo.GetDocument(ctx, id)
	if err != nil {
		return Document{}, err
	}
	doc.Consents, err = svc.repo.CountDocumentConsents(ctx, id)
	return doc, err
}

func (svc *Service) FilterDocuments(ctx context.Context, filter QueryFilter) ([]Document, error) {
	filter.Clean()
	return svc.repo.FilterDocuments(ctx, filter)
}

func (svc *Service) UpdateDocument(ctx context.Context, actor user.User, doc Document) (Document, error) {
	doc.UpdatedBy = actor.ID
	doc.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateDocument(ctx, doc)
}

// TrashDocument soft-deletes an active document. Refused with a
// ConflictError while dependent media consents exist.
func (svc *Service) TrashDocument(ctx context.Context, actor user.User, id string) (Document, error) {
	doc, err := svc.GetDocument(ctx, id)
	if err != nil {
		return Document{}, err
	}
	if doc.State != StateActive {
		return Document{}, ErrInvalidState
	}
	if doc.Consents > 0 {
		return Document{}, core.NewConflictError(user.ResDocument, consentReason(doc.Consents))
	}
	doc.State = StateTrashed
	doc.TrashedAt = null.TimeFrom(time.Now().UTC())
	doc.UpdatedBy = actor.ID
	doc.UpdatedAt = doc.TrashedAt.Time
	return svc.repo.UpdateDocument(ctx, doc)
}

// RestoreDocument returns a trashed document to active. Unconditional.
func (svc *Service) RestoreDocument(ctx context.Context, actor user.User, id string) (Document, error) {
	doc, err := svc.repo.GetDocument(ctx, id)
	if err != nil {
		return Document{}, err
	}
	if doc.State != StateTrashed {
		return Document{}, ErrInvalidState
	}
	doc.State = StateActive
	doc.TrashedAt = null.Time{}
	doc.UpdatedBy = actor.ID
	doc.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateDocument(ctx, doc)
}

// PurgeDocument permanently deletes a trashed document. The dependents guard
// is re-checked: consents may have been added after the soft delete.
func (svc *Service) PurgeDocument(ctx context.Context, actor user.User, id string) error {
	doc, err := svc.GetDocument(ctx, id)
	if err != nil {
		return err
	}
	if doc.State != StateTrashed {
		return ErrInvalidState
	}
	if doc.Consents > 0 {
		return core.NewConflictError(user.ResDocument, consentReason(doc.Consents))
	}
	if doc.Media != nil {
		if err := svc.media.Detach(ctx, *doc.Media); err != nil {
			svc.log.Error(fmt.Sprintf("detaching file from document %s: %v", id, err), err)
		}
	}
	return svc.repo.DeleteDocument(ctx, id)
}

// News posts

func (svc *Service) CreateNewsPost(ctx context.Context, actor user.User, nn NewNewsPost, cover *Upload) (NewsPost, error) {
	if cover != nil {
		if err := ValidateUpload(*cover, core.Conf.Media); err != nil {
			return NewsPost{}, err
		}
	}

	now := time.Now().UTC()
	post := NewsPost{
		ProgramID:      null.NewString(nn.ProgramID, nn.ProgramID != ""),
		AcademicYearID: null.NewString(nn.AcademicYearID, nn.AcademicYearID != ""),
		Title:          nn.Title,
		Slug:           nn.Slug,
		Summary:        nn.Summary,
		Body:           nn.Body,
		PublishedAt:    null.NewTime(nn.PublishedAt, !nn.PublishedAt.IsZero()),
		State:          StateActive,
		CreatedBy:      actor.ID,
		UpdatedBy:      actor.ID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	post, err := svc.repo.CreateNewsPost(ctx, post)
	if err != nil {
		return NewsPost{}, err
	}

	if cover != nil {
		if handle := attachUpload(ctx, svc.media, svc.log, user.ResNews, post.ID, *cover); handle != nil {
			post.Cover = handle
			post, err = svc.repo.UpdateNewsPost(ctx, post)
			if err != nil {
				return NewsPost{}, err
			}
		}
	}
	return post, nil
}

func (svc *Service) GetNewsPost(ctx context.Context, id string) (NewsPost, error) {
	post, err := svc.repo.GetNewsPost(ctx, id)
	if err != nil {
		return NewsPost{}, err
	}
	post.Consents, err = svc.repo.CountNewsConsents(ctx, id)
	return post, err
}

func (svc *Service) FilterNewsPosts(ctx context.Context, filter QueryFilter) ([]NewsPost, error) {
	filter.Clean()
	return svc.repo.FilterNewsPosts(ctx, filter)
}

func (svc *Service) UpdateNewsPost(ctx context.Context, actor user.User, post NewsPost) (NewsPost, error) {
	post.UpdatedBy = actor.ID
	post.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateNewsPost(ctx, post)
}

func (svc *Service) TrashNewsPost(ctx context.Context, actor user.User, id string) (NewsPost, error) {
	post, err := svc.GetNewsPost(ctx, id)
	if err != nil {
		return NewsPost{}, err
	}
	if post.State != StateActive {
		return NewsPost{}, ErrInvalidState
	}
	if post.Consents > 0 {
		return NewsPost{}, core.NewConflictError(user.ResNews, consentReason(post.Consents))
	}
	post.State = StateTrashed
	post.TrashedAt = null.TimeFrom(time.Now().UTC())
	post.UpdatedBy = actor.ID
	post.UpdatedAt = post.TrashedAt.Time
	return svc.repo.UpdateNewsPost(ctx, post)
}

func (svc *Service) RestoreNewsPost(ctx context.Context, actor user.User, id string) (NewsPost, error) {
	post, err := svc.repo.GetNewsPost(ctx, id)
	if err != nil {
		return NewsPost{}, err
	}
	if post.State != StateTrashed {
		return NewsPost{}, ErrInvalidState
	}
	post.State = StateActive
	post.TrashedAt = null.Time{}
	post.UpdatedBy = actor.ID
	post.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateNewsPost(ctx, post)
}

func (svc *Service) PurgeNewsPost(ctx context.Context, actor user.User, id string) error {
	post, err := svc.GetNewsPost(ctx, id)
	if err != nil {
		return err
	}
	if post.State != StateTrashed {
		return ErrInvalidState
	}
	if post.Consents > 0 {
		return core.NewConflictError(user.ResNews, consentReason(post.Consents))
	}
	if post.Cover != nil {
		if err := svc.media.Detach(ctx, *post.Cover); err != nil {
			svc.log.Error(fmt.Sprintf("detaching cover from news post %s: %v", id, err), err)
		}
	}
	return svc.repo.DeleteNewsPost(ctx, id)
}

// Events

func (svc *Service) CreateEvent(ctx context.Context, actor user.User, ne NewEvent) (ErasmusEvent, error) {
	now := time.Now().UTC()
	return svc.repo.CreateEvent(ctx, ErasmusEvent{
		ProgramID:      null.NewString(ne.ProgramID, ne.ProgramID != ""),
		AcademicYearID: null.NewString(ne.AcademicYearID, ne.AcademicYearID != ""),
		Title:          ne.Title,
		Slug:           ne.Slug,
		Location:       ne.Location,
		StartsAt:       ne.StartsAt,
		EndsAt:         null.NewTime(ne.EndsAt, !ne.EndsAt.IsZero()),
		Description:    ne.Description,
		State:          StateActive,
		CreatedBy:      actor.ID,
		UpdatedBy:      actor.ID,
		CreatedAt:      now,
		UpdatedAt:      now,
	})
}

func (svc *Service) GetEvent(ctx context.Context, id string) (ErasmusEvent, error) {
	return svc.repo.GetEvent(ctx, id)
}

func (svc *Service) FilterEvents(ctx context.Context, filter QueryFilter) ([]ErasmusEvent, error) {
	filter.Clean()
	return svc.repo.FilterEvents(ctx, filter)
}

func (svc *Service) TrashEvent(ctx context.Context, actor user.User, id string) (ErasmusEvent, error) {
	event, err := svc.repo.GetEvent(ctx, id)
	if err != nil {
		return ErasmusEvent{}, err
	}
	if event.State != StateActive {
		return ErasmusEvent{}, ErrInvalidState
	}
	event.State = StateTrashed
	event.TrashedAt = null.TimeFrom(time.Now().UTC())
	event.UpdatedBy = actor.ID
	event.UpdatedAt = event.TrashedAt.Time
	return svc.repo.UpdateEvent(ctx, event)
}

func (svc *Service) RestoreEvent(ctx context.Context, actor user.User, id string) (ErasmusEvent, error) {
	event, err := svc.repo.GetEvent(ctx, id)
	if err != nil {
		return ErasmusEvent{}, err
	}
	if event.State != StateTrashed {
		return ErasmusEvent{}, ErrInvalidState
	}
	event.State = StateActive
	event.TrashedAt = null.Time{}
	event.UpdatedBy = actor.ID
	event.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateEvent(ctx, event)
}

func (svc *Service) PurgeEvent(ctx context.Context, actor user.User, id string) error {
	event, err := svc.repo.GetEvent(ctx, id)
	if err != nil {
		return err
	}
	if event.State != StateTrashed {
		return ErrInvalidState
	}
	return svc.repo.DeleteEvent(ctx, id)
}

// Newsletter

// Subscribe registers an email for the newsletter and sends a confirmation
// message.
func (svc *Service) Subscribe(ctx context.Context, email string) (NewsletterSubscription, error) {
	email = core.CleanString(email, true /* lower */)
	if _, err := mail.ParseAddress(email); err != nil {
		return NewsletterSubscription{}, core.NewValidationError(err, core.FieldError{Field: "email", Error: "invalid email address"})
	}
	if _, err := svc.repo.GetSubscriptionByEmail(ctx, email); err == nil {
		return NewsletterSubscription{}, core.NewValidationError(ErrAlreadySubscribed, core.FieldError{Field: "email", Error: ErrAlreadySubscribed.Error()})
	} else if err != ErrSubscriptionNotFound {
		return NewsletterSubscription{}, err
	}

	sub, err := svc.repo.CreateSubscription(ctx, NewsletterSubscription{
		Email:     email,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return NewsletterSubscription{}, err
	}

	svc.mail.SendMessages(&core.EmailMessage{
		To:      []mail.Address{{Address: sub.Email}},
		Subject: "Confirma tu suscripción",
		BodyStr: fmt.Sprintf(
			"Hemos recibido una solicitud de suscripción al boletín Erasmus+ para %s. "+
				"Confirma tu suscripción desde %s/newsletter/confirm.", sub.Email, core.Conf.FrontendBaseURL),
	})
	return sub, nil
}

func (svc *Service) ConfirmSubscription(ctx context.Context, email string) (NewsletterSubscription, error) {
	sub, err := svc.repo.GetSubscriptionByEmail(ctx, core.CleanString(email, true /* lower */))
	if err != nil {
		return NewsletterSubscription{}, err
	}
	sub.ConfirmedAt = null.TimeFrom(time.Now().UTC())
	return svc.repo.UpdateSubscription(ctx, sub)
}

func (svc *Service) Unsubscribe(ctx context.Context, email string) (NewsletterSubscription, error) {
	sub, err := svc.repo.GetSubscriptionByEmail(ctx, core.CleanString(email, true /* lower */))
	if err != nil {
		return NewsletterSubscription{}, err
	}
	sub.UnsubscribedAt = null.TimeFrom(time.Now().UTC())
	return svc.repo.UpdateSubscription(ctx, sub)
}

func (svc *Service) QuerySubscriptions(ctx context.Context) ([]NewsletterSubscription, error) {
	return svc.repo.QueryAllSubscriptions(ctx)
}

// Consents

func (svc *Service) AddConsent(ctx context.Context, nc NewConsent) (MediaConsent, error) {
	now := time.Now().UTC()
	return svc.repo.CreateConsent(ctx, MediaConsent{
		DocumentID: null.NewString(nc.DocumentID, nc.DocumentID != ""),
		NewsPostID: null.NewString(nc.NewsPostID, nc.NewsPostID != ""),
		PersonName: nc.PersonName,
		GrantedAt:  now,
		CreatedAt:  now,
	})
}

func (svc *Service) QueryConsents(ctx context.Context, documentID, newsPostID string) ([]MediaConsent, error) {
	return svc.repo.QueryConsents(ctx, documentID, newsPostID)
}

func consentReason(count int) string {
	return fmt.Sprintf("%d media consents attached", count)
}
