package sqlxrepos

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/cmabris/erasmus25/core/content"
)

type documentRow struct {
	ID             string      `db:"id"`
	CategoryID     string      `db:"category_id"`
	ProgramID      null.String `db:"program_id"`
	AcademicYearID null.String `db:"academic_year_id"`
	Title          string      `db:"title"`
	Slug           string      `db:"slug"`
	Description    string      `db:"description"`
	State          string      `db:"state"`
	TrashedAt      null.Time   `db:"trashed_at"`
	Media          null.JSON   `db:"media"`
	CreatedBy      string      `db:"created_by"`
	UpdatedBy      string      `db:"updated_by"`
	CreatedAt      time.Time   `db:"created_at"`
	UpdatedAt      time.Time   `db:"updated_at"`
}

func (r documentRow) unpack() (content.Document, error) {
	media, err := unpackMedia(r.Media)
	if err != nil {
		return content.Document{}, err
	}
	return content.Document{
		ID:             r.ID,
		CategoryID:     r.CategoryID,
		ProgramID:      r.ProgramID,
		AcademicYearID: r.AcademicYearID,
		Title:          r.Title,
		Slug:           r.Slug,
		Description:    r.Description,
		State:          content.State(r.State),
		TrashedAt:      r.TrashedAt,
		Media:          media,
		CreatedBy:      r.CreatedBy,
		UpdatedBy:      r.UpdatedBy,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}, nil
}

type newsPostRow struct {
	ID             string      `db:"id"`
	ProgramID      null.String `db:"program_id"`
	AcademicYearID null.String `db:"academic_year_id"`
	Title          string      `db:"title"`
	Slug           string      `db:"slug"`
	Summary        string      `db:"summary"`
	Body           string      `db:"body"`
	PublishedAt    null.Time   `db:"published_at"`
	State          string      `db:"state"`
	TrashedAt      null.Time   `db:"trashed_at"`
	Cover          null.JSON   `db:"cover"`
	CreatedBy      string      `db:"created_by"`
	UpdatedBy      string      `db:"updated_by"`
	CreatedAt      time.Time   `db:"created_at"`
	UpdatedAt      time.Time   `db:"updated_at"`
}

func (r newsPostRow) unpack() (content.NewsPost, error) {
	cover, err := unpackMedia(r.Cover)
	if err != nil {
		return content.NewsPost{}, err
	}
	return content.NewsPost{
		ID:             r.ID,
		ProgramID:      r.ProgramID,
		AcademicYearID: r.AcademicYearID,
		Title:          r.Title,
		Slug:           r.Slug,
		Summary:        r.Summary,
		Body:           r.Body,
		PublishedAt:    r.PublishedAt,
		State:          content.State(r.State),
		TrashedAt:      r.TrashedAt,
		Cover:          cover,
		CreatedBy:      r.CreatedBy,
		UpdatedBy:      r.UpdatedBy,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}, nil
}

type eventRow struct {
	ID             string      `db:"id"`
	ProgramID      null.String `db:"program_id"`
	AcademicYearID null.String `db:"academic_year_id"`
	Title          string      `db:"title"`
	Slug           string      `db:"slug"`
	Location       string      `db:"location"`
	StartsAt       time.Time   `db:"starts_at"`
	EndsAt         null.Time   `db:"ends_at"`
	Description    string      `db:"description"`
	State          string      `db:"state"`
	TrashedAt      null.Time   `db:"trashed_at"`
	CreatedBy      string      `db:"created_by"`
	UpdatedBy      string      `db:"updated_by"`
	CreatedAt      time.Time   `db:"created_at"`
	UpdatedAt      time.Time   `db:"updated_at"`
}

func (r eventRow) unpack() content.ErasmusEvent {
	return content.ErasmusEvent{
		ID:             r.ID,
		ProgramID:      r.ProgramID,
		AcademicYearID: r.AcademicYearID,
		Title:          r.Title,
		Slug:           r.Slug,
		Location:       r.Location,
		StartsAt:       r.StartsAt,
		EndsAt:         r.EndsAt,
		Description:    r.Description,
		State:          content.State(r.State),
		TrashedAt:      r.TrashedAt,
		CreatedBy:      r.CreatedBy,
		UpdatedBy:      r.UpdatedBy,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

type subscriptionRow struct {
	ID             string    `db:"id"`
	Email          string    `db:"email"`
	ConfirmedAt    null.Time `db:"confirmed_at"`
	UnsubscribedAt null.Time `db:"unsubscribed_at"`
	CreatedAt      time.Time `db:"created_at"`
}

func (r subscriptionRow) unpack() content.NewsletterSubscription {
	return content.NewsletterSubscription(r)
}

type consentRow struct {
	ID         string      `db:"id"`
	DocumentID null.String `db:"document_id"`
	NewsPostID null.String `db:"news_post_id"`
	PersonName string      `db:"person_name"`
	GrantedAt  time.Time   `db:"granted_at"`
	CreatedAt  time.Time   `db:"created_at"`
}

func (r consentRow) unpack() content.MediaConsent {
	return content.MediaConsent(r)
}

func packMedia(handle *content.MediaHandle) (null.JSON, error) {
	if handle == nil {
		return null.JSON{}, nil
	}
	raw, err := json.Marshal(handle)
	if err != nil {
		return null.JSON{}, errors.Wrap(err, "encoding media handle")
	}
	return null.JSONFrom(raw), nil
}

func unpackMedia(raw null.JSON) (*content.MediaHandle, error) {
	if !raw.Valid {
		return nil, nil
	}
	var handle content.MediaHandle
	if err := json.Unmarshal(raw.JSON, &handle); err != nil {
		return nil, errors.Wrap(err, "decoding media handle")
	}
	return &handle, nil
}

type contentRepository struct {
	db *sqlx.DB
}

var _ content.Repository = (*contentRepository)(nil) // interface compliance check

func NewContentRepository(db *sqlx.DB) *contentRepository {
	return &contentRepository{db: db}
}

func (repo contentRepository) checkSlugUniqueness(ctx context.Context, table, slug string) error {
	var exists bool
	err := repo.db.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM `+table+` WHERE slug = $1)`, slug)
	if err != nil {
		return errors.Wrap(err, "checking slug uniqueness")
	}
	if exists {
		return content.ErrSlugExists
	}
	return nil
}

// filterClause appends the shared content filters. Trashed rows are hidden
// unless ShowDeleted is set.
func filterClause(query string, filter content.QueryFilter, args []interface{}) (string, []interface{}) {
	if filter.Search != "" {
		query += ` AND title ILIKE ?`
		args = append(args, "%"+filter.Search+"%")
	}
	if filter.ProgramID != "" {
		query += ` AND program_id = ?`
		args = append(args, filter.ProgramID)
	}
	if filter.AcademicYearID != "" {
		query += ` AND academic_year_id = ?`
		args = append(args, filter.AcademicYearID)
	}
	if !filter.ShowDeleted {
		query += ` AND state = ?`
		args = append(args, string(content.StateActive))
	}
	return query, args
}

// Documents

func (repo contentRepository) CheckDocumentSlugUniqueness(ctx context.Context, slug string) error {
	return repo.checkSlugUniqueness(ctx, "document", slug)
}

func (repo contentRepository) CreateDocument(ctx context.Context, doc content.Document) (content.Document, error) {
	doc.ID = uuid.New().String()
	media, err := packMedia(doc.Media)
	if err != nil {
		return content.Document{}, err
	}
	query := `
		INSERT INTO document (id, category_id, program_id, academic_year_id, title, slug, description,
		                      state, trashed_at, media, created_by, updated_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	_, err = repo.db.ExecContext(ctx, query,
		doc.ID, doc.CategoryID, doc.ProgramID, doc.AcademicYearID, doc.Title, doc.Slug, doc.Description,
		string(doc.State), doc.TrashedAt, media, doc.CreatedBy, doc.UpdatedBy, doc.CreatedAt, doc.UpdatedAt)
	if err != nil {
		return content.Document{}, errors.Wrap(err, "inserting document")
	}
	return doc, nil
}

func (repo contentRepository) GetDocument(ctx context.Context, id string) (content.Document, error) {
	var row documentRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM document WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return content.Document{}, content.ErrDocumentNotFound
		}
		return content.Document{}, errors.Wrap(err, "getting document")
	}
	return row.unpack()
}

func (repo contentRepository) FilterDocuments(ctx context.Context, filter content.QueryFilter) ([]content.Document, error) {
	query := `SELECT * FROM document WHERE 1=1`
	var args []interface{}
	if filter.CategoryID != "" {
		query += ` AND category_id = ?`
		args = append(args, filter.CategoryID)
	}
	query, args = filterClause(query, filter, args)
	query += ` ORDER BY created_at DESC`

	var rows []documentRow
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "filtering documents")
	}
	docs := make([]content.Document, 0, len(rows))
	for _, row := range rows {
		doc, err := row.unpack()
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func (repo contentRepository) UpdateDocument(ctx context.Context, doc content.Document) (content.Document, error) {
	media, err := packMedia(doc.Media)
	if err != nil {
		return content.Document{}, err
	}
	query := `
		UPDATE document
		SET category_id = $2, program_id = $3, academic_year_id = $4, title = $5, description = $6,
		    state = $7, trashed_at = $8, media = $9, updated_by = $10, updated_at = $11
		WHERE id = $1`
	_, err = repo.db.ExecContext(ctx, query,
		doc.ID, doc.CategoryID, doc.ProgramID, doc.AcademicYearID, doc.Title, doc.Description,
		string(doc.State), doc.TrashedAt, media, doc.UpdatedBy, doc.UpdatedAt)
	if err != nil {
		return content.Document{}, errors.Wrap(err, "updating document")
	}
	return doc, nil
}

func (repo contentRepository) DeleteDocument(ctx context.Context, id string) error {
	if _, err := repo.db.ExecContext(ctx, `DELETE FROM document WHERE id = $1`, id); err != nil {
		return errors.Wrap(err, "deleting document")
	}
	return nil
}

func (repo contentRepository) CountDocumentConsents(ctx context.Context, id string) (int, error) {
	var count int
	err := repo.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM media_consent WHERE document_id = $1`, id)
	if err != nil {
		return 0, errors.Wrap(err, "counting document consents")
	}
	return count, nil
}

// News posts

func (repo contentRepository) CheckNewsSlugUniqueness(ctx context.Context, slug string) error {
	return repo.checkSlugUniqueness(ctx, "news_post", slug)
}

func (repo contentRepository) CreateNewsPost(ctx context.Context, post content.NewsPost) (content.NewsPost, error) {
	post.ID = uuid.New().String()
	cover, err := packMedia(post.Cover)
	if err != nil {
		return content.NewsPost{}, err
	}
	query := `
		INSERT INTO news_post (id, program_id, academic_year_id, title, slug, summary, body, published_at,
		                       state, trashed_at, cover, created_by, updated_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`
	_, err = repo.db.ExecContext(ctx, query,
		post.ID, post.ProgramID, post.AcademicYearID, post.Title, post.Slug, post.Summary, post.Body,
		post.PublishedAt, string(post.State), post.TrashedAt, cover,
		post.CreatedBy, post.UpdatedBy, post.CreatedAt, post.UpdatedAt)
	if err != nil {
		return content.NewsPost{}, errors.Wrap(err, "inserting news post")
	}
	return post, nil
}

func (repo contentRepository) GetNewsPost(ctx context.Context, id string) (content.NewsPost, error) {
	var row newsPostRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM news_post WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return content.NewsPost{}, content.ErrNewsNotFound
		}
		return content.NewsPost{}, errors.Wrap(err, "getting news post")
	}
	return row.unpack()
}

func (repo contentRepository) FilterNewsPosts(ctx context.Context, filter content.QueryFilter) ([]content.NewsPost, error) {
	query := `SELECT * FROM news_post WHERE 1=1`
	var args []interface{}
	query, args = filterClause(query, filter, args)
	query += ` ORDER BY published_at DESC NULLS LAST, created_at DESC`

	var rows []newsPostRow
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "filtering news posts")
	}
	posts := make([]content.NewsPost, 0, len(rows))
	for _, row := range rows {
		post, err := row.unpack()
		if err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, nil
}

func (repo contentRepository) UpdateNewsPost(ctx context.Context, post content.NewsPost) (content.NewsPost, error) {
	cover, err := packMedia(post.Cover)
	if err != nil {
		return content.NewsPost{}, err
	}
	query := `
		UPDATE news_post
		SET program_id = $2, academic_year_id = $3, title = $4, summary = $5, body = $6, published_at = $7,
		    state = $8, trashed_at = $9, cover = $10, updated_by = $11, updated_at = $12
		WHERE id = $1`
	_, err = repo.db.ExecContext(ctx, query,
		post.ID, post.ProgramID, post.AcademicYearID, post.Title, post.Summary, post.Body, post.PublishedAt,
		string(post.State), post.TrashedAt, cover, post.UpdatedBy, post.UpdatedAt)
	if err != nil {
		return content.NewsPost{}, errors.Wrap(err, "updating news post")
	}
	return post, nil
}

func (repo contentRepository) DeleteNewsPost(ctx context.Context, id string) error {
	if _, err := repo.db.ExecContext(ctx, `DELETE FROM news_post WHERE id = $1`, id); err != nil {
		return errors.Wrap(err, "deleting news post")
	}
	return nil
}

func (repo contentRepository) CountNewsConsents(ctx context.Context, id string) (int, error) {
	var count int
	err := repo.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM media_consent WHERE news_post_id = $1`, id)
	if err != nil {
		return 0, errors.Wrap(err, "counting news post consents")
	}
	return count, nil
}

// Events

func (repo contentRepository) CreateEvent(ctx context.Context, event content.ErasmusEvent) (content.ErasmusEvent, error) {
	event.ID = uuid.New().String()
	query := `
		INSERT INTO erasmus_event (id, program_id, academic_year_id, title, slug, location, starts_at, ends_at,
		                           description, state, trashed_at, created_by, updated_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`
	_, err := repo.db.ExecContext(ctx, query,
		event.ID, event.ProgramID, event.AcademicYearID, event.Title, event.Slug, event.Location,
		event.StartsAt, event.EndsAt, event.Description, string(event.State), event.TrashedAt,
		event.CreatedBy, event.UpdatedBy, event.CreatedAt, event.UpdatedAt)
	if err != nil {
		return content.ErasmusEvent{}, errors.Wrap(err, "inserting event")
	}
	return event, nil
}

func (repo contentRepository) GetEvent(ctx context.Context, id string) (content.ErasmusEvent, error) {
	var row eventRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM erasmus_event WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return content.ErasmusEvent{}, content.ErrEventNotFound
		}
		return content.ErasmusEvent{}, errors.Wrap(err, "getting event")
	}
	return row.unpack(), nil
}

func (repo contentRepository) FilterEvents(ctx context.Context, filter content.QueryFilter) ([]content.ErasmusEvent, error) {
	query := `SELECT * FROM erasmus_event WHERE 1=1`
	var args []interface{}
	query, args = filterClause(query, filter, args)
	query += ` ORDER BY starts_at`

	var rows []eventRow
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "filtering events")
	}
	events := make([]content.ErasmusEvent, 0, len(rows))
	for _, row := range rows {
		events = append(events, row.unpack())
	}
	return events, nil
}

func (repo contentRepository) UpdateEvent(ctx context.Context, event content.ErasmusEvent) (content.ErasmusEvent, error) {
	query := `
		UPDATE erasmus_event
		SET program_id = $2, academic_year_id = $3, title = $4, location = $5, starts_at = $6, ends_at = $7,
		    description = $8, state = $9, trashed_at = $10, updated_by = $11, updated_at = $12
		WHERE id = $1`
	_, err := repo.db.ExecContext(ctx, query,
		event.ID, event.ProgramID, event.AcademicYearID, event.Title, event.Location, event.StartsAt,
		event.EndsAt, event.Description, string(event.State), event.TrashedAt, event.UpdatedBy, event.UpdatedAt)
	if err != nil {
		return content.ErasmusEvent{}, errors.Wrap(err, "updating event")
	}
	return event, nil
}

func (repo contentRepository) DeleteEvent(ctx context.Context, id string) error {
	if _, err := repo.db.ExecContext(ctx, `DELETE FROM erasmus_event WHERE id = $1`, id); err != nil {
		return errors.Wrap(err, "deleting event")
	}
	return nil
}

// Newsletter

func (repo contentRepository) CreateSubscription(ctx context.Context, sub content.NewsletterSubscription) (content.NewsletterSubscription, error) {
	sub.ID = uuid.New().String()
	query := `
		INSERT INTO newsletter_subscription (id, email, confirmed_at, unsubscribed_at, created_at)
		VALUES ($1, $2, $3, $4, $5)`
	_, err := repo.db.ExecContext(ctx, query, sub.ID, sub.Email, sub.ConfirmedAt, sub.UnsubscribedAt, sub.CreatedAt)
	if err != nil {
		return content.NewsletterSubscription{}, errors.Wrap(err, "inserting subscription")
	}
	return sub, nil
}

func (repo contentRepository) GetSubscriptionByEmail(ctx context.Context, email string) (content.NewsletterSubscription, error) {
	var row subscriptionRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM newsletter_subscription WHERE email = $1`, email); err != nil {
		if err == sql.ErrNoRows {
			return content.NewsletterSubscription{}, content.ErrSubscriptionNotFound
		}
		return content.NewsletterSubscription{}, errors.Wrap(err, "getting subscription")
	}
	return row.unpack(), nil
}

func (repo contentRepository) QueryAllSubscriptions(ctx context.Context) ([]content.NewsletterSubscription, error) {
	var rows []subscriptionRow
	if err := repo.db.SelectContext(ctx, &rows, `SELECT * FROM newsletter_subscription ORDER BY created_at`); err != nil {
		return nil, errors.Wrap(err, "querying subscriptions")
	}
	subs := make([]content.NewsletterSubscription, 0, len(rows))
	for _, row := range rows {
		subs = append(subs, row.unpack())
	}
	return subs, nil
}

func (repo contentRepository) UpdateSubscription(ctx context.Context, sub content.NewsletterSubscription) (content.NewsletterSubscription, error) {
	query := `
		UPDATE newsletter_subscription
		SET confirmed_at = $2, unsubscribed_at = $3
		WHERE id = $1`
	if _, err := repo.db.ExecContext(ctx, query, sub.ID, sub.ConfirmedAt, sub.UnsubscribedAt); err != nil {
		return content.NewsletterSubscription{}, errors.Wrap(err, "updating subscription")
	}
	return sub, nil
}

// Consents

func (repo contentRepository) CreateConsent(ctx context.Context, consent content.MediaConsent) (content.MediaConsent, error) {
	consent.ID = uuid.New().String()
	query := `
		INSERT INTO media_consent (id, document_id, news_post_id, person_name, granted_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := repo.db.ExecContext(ctx, query,
		consent.ID, consent.DocumentID, consent.NewsPostID, consent.PersonName, consent.GrantedAt, consent.CreatedAt)
	if err != nil {
		return content.MediaConsent{}, errors.Wrap(err, "inserting media consent")
	}
	return consent, nil
}

func (repo contentRepository) QueryConsents(ctx context.Context, documentID, newsPostID string) ([]content.MediaConsent, error) {
	query := `SELECT * FROM media_consent WHERE 1=1`
	var args []interface{}
	if documentID != "" {
		query += ` AND document_id = ?`
		args = append(args, documentID)
	}
	if newsPostID != "" {
		query += ` AND news_post_id = ?`
		args = append(args, newsPostID)
	}
	query += ` ORDER BY created_at`

	var rows []consentRow
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "querying media consents")
	}
	consents := make([]content.MediaConsent, 0, len(rows))
	for _, row := range rows {
		consents = append(consents, row.unpack())
	}
	return consents, nil
}
