package dummydb

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/cmabris/erasmus25/core/content"
)

type contentRepository struct {
	db *contentTables
}

var _ content.Repository = (*contentRepository)(nil) // interface compliance check

func NewContentRepository(db *DB) content.Repository {
	return &contentRepository{db: db.content}
}

func matchesFilter(title string, programID, yearID string, state content.State, filter content.QueryFilter) bool {
	if filter.Search != "" && !strings.Contains(strings.ToLower(title), strings.ToLower(filter.Search)) {
		return false
	}
	if filter.ProgramID != "" && programID != filter.ProgramID {
		return false
	}
	if filter.AcademicYearID != "" && yearID != filter.AcademicYearID {
		return false
	}
	if !filter.ShowDeleted && state != content.StateActive {
		return false
	}
	return true
}

// Documents

func (repo *contentRepository) CheckDocumentSlugUniqueness(ctx context.Context, slug string) error {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, doc := range repo.db.documents {
		if doc.Slug == slug {
			return content.ErrSlugExists
		}
	}
	return nil
}

func (repo *contentRepository) CreateDocument(ctx context.Context, doc content.Document) (content.Document, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	doc.ID = uuid.New().String()
	repo.db.documents[doc.ID] = &doc
	return doc, nil
}

func (repo *contentRepository) GetDocument(ctx context.Context, id string) (content.Document, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if doc, ok := repo.db.documents[id]; ok {
		return *doc, nil
	}
	return content.Document{}, content.ErrDocumentNotFound
}

func (repo *contentRepository) FilterDocuments(ctx context.Context, filter content.QueryFilter) ([]content.Document, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	docs := make([]content.Document, 0, len(repo.db.documents))
	for _, doc := range repo.db.documents {
		if filter.CategoryID != "" && doc.CategoryID != filter.CategoryID {
			continue
		}
		if matchesFilter(doc.Title, doc.ProgramID.String, doc.AcademicYearID.String, doc.State, filter) {
			docs = append(docs, *doc)
		}
	}
	return docs, nil
}

func (repo *contentRepository) UpdateDocument(ctx context.Context, doc content.Document) (content.Document, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.documents[doc.ID]; !ok {
		return content.Document{}, content.ErrDocumentNotFound
	}
	repo.db.documents[doc.ID] = &doc
	return doc, nil
}

func (repo *contentRepository) DeleteDocument(ctx context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	delete(repo.db.documents, id)
	return nil
}

func (repo *contentRepository) CountDocumentConsents(ctx context.Context, id string) (int, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var count int
	for _, consent := range repo.db.consents {
		if consent.DocumentID.String == id {
			count++
		}
	}
	return count, nil
}

// News posts

func (repo *contentRepository) CheckNewsSlugUniqueness(ctx context.Context, slug string) error {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, post := range repo.db.newsPosts {
		if post.Slug == slug {
			return content.ErrSlugExists
		}
	}
	return nil
}

func (repo *contentRepository) CreateNewsPost(ctx context.Context, post content.NewsPost) (content.NewsPost, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	post.ID = uuid.New().String()
	repo.db.newsPosts[post.ID] = &post
	return post, nil
}

func (repo *contentRepository) GetNewsPost(ctx context.Context, id string) (content.NewsPost, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if post, ok := repo.db.newsPosts[id]; ok {
		return *post, nil
	}
	return content.NewsPost{}, content.ErrNewsNotFound
}

func (repo *contentRepository) FilterNewsPosts(ctx context.Context, filter content.QueryFilter) ([]content.NewsPost, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	posts := make([]content.NewsPost, 0, len(repo.db.newsPosts))
	for _, post := range repo.db.newsPosts {
		if matchesFilter(post.Title, post.ProgramID.String, post.AcademicYearID.String, post.State, filter) {
			posts = append(posts, *post)
		}
	}
	return posts, nil
}

func (repo *contentRepository) UpdateNewsPost(ctx context.Context, post content.NewsPost) (content.NewsPost, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.newsPosts[post.ID]; !ok {
		return content.NewsPost{}, content.ErrNewsNotFound
	}
	repo.db.newsPosts[post.ID] = &post
	return post, nil
}

func (repo *contentRepository) DeleteNewsPost(ctx context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	delete(repo.db.newsPosts, id)
	return nil
}

func (repo *contentRepository) CountNewsConsents(ctx context.Context, id string) (int, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var count int
	for _, consent := range repo.db.consents {
		if consent.NewsPostID.String == id {
			count++
		}
	}
	return count, nil
}

// Events

func (repo *contentRepository) CreateEvent(ctx context.Context, event content.ErasmusEvent) (content.ErasmusEvent, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	event.ID = uuid.New().String()
	repo.db.events[event.ID] = &event
	return event, nil
}

func (repo *contentRepository) GetEvent(ctx context.Context, id string) (content.ErasmusEvent, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if event, ok := repo.db.events[id]; ok {
		return *event, nil
	}
	return content.ErasmusEvent{}, content.ErrEventNotFound
}

func (repo *contentRepository) FilterEvents(ctx context.Context, filter content.QueryFilter) ([]content.ErasmusEvent, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	events := make([]content.ErasmusEvent, 0, len(repo.db.events))
	for _, event := range repo.db.events {
		if matchesFilter(event.Title, event.ProgramID.String, event.AcademicYearID.String, event.State, filter) {
			events = append(events, *event)
		}
	}
	return events, nil
}

func (repo *contentRepository) UpdateEvent(ctx context.Context, event content.ErasmusEvent) (content.ErasmusEvent, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.events[event.ID]; !ok {
		return content.ErasmusEvent{}, content.ErrEventNotFound
	}
	repo.db.events[event.ID] = &event
	return event, nil
}

func (repo *contentRepository) DeleteEvent(ctx context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	delete(repo.db.events, id)
	return nil
}

// Newsletter

func (repo *contentRepository) CreateSubscription(ctx context.Context, sub content.NewsletterSubscription) (content.NewsletterSubscription, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	sub.ID = uuid.New().String()
	repo.db.subscriptions[sub.ID] = &sub
	return sub, nil
}

func (repo *contentRepository) GetSubscriptionByEmail(ctx context.Context, email string) (content.NewsletterSubscription, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, sub := range repo.db.subscriptions {
		if sub.Email == email {
			return *sub, nil
		}
	}
	return content.NewsletterSubscription{}, content.ErrSubscriptionNotFound
}

func (repo *contentRepository) QueryAllSubscriptions(ctx context.Context) ([]content.NewsletterSubscription, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	subs := make([]content.NewsletterSubscription, 0, len(repo.db.subscriptions))
	for _, sub := range repo.db.subscriptions {
		subs = append(subs, *sub)
	}
	return subs, nil
}

func (repo *contentRepository) UpdateSubscription(ctx context.Context, sub content.NewsletterSubscription) (content.NewsletterSubscription, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.subscriptions[sub.ID]; !ok {
		return content.NewsletterSubscription{}, content.ErrSubscriptionNotFound
	}
	repo.db.subscriptions[sub.ID] = &sub
	return sub, nil
}

// Consents

func (repo *contentRepository) CreateConsent(ctx context.Context, consent content.MediaConsent) (content.MediaConsent, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	consent.ID = uuid.New().String()
	repo.db.consents[consent.ID] = &consent
	return consent, nil
}

func (repo *contentRepository) QueryConsents(ctx context.Context, documentID, newsPostID string) ([]content.MediaConsent, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	consents := make([]content.MediaConsent, 0)
	for _, consent := range repo.db.consents {
		if documentID != "" && consent.DocumentID.String != documentID {
			continue
		}
		if newsPostID != "" && consent.NewsPostID.String != newsPostID {
			continue
		}
		consents = append(consents, *consent)
	}
	return consents, nil
}
