package content_test

import (
	"context"
	"errors"
	"io/ioutil"
	"log"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/cmabris/erasmus25/core"
	"github.com/cmabris/erasmus25/core/content"
	"github.com/cmabris/erasmus25/core/user"
	emailsvc "github.com/cmabris/erasmus25/services/email"
	logsvc "github.com/cmabris/erasmus25/services/logger"
	mediasvc "github.com/cmabris/erasmus25/services/media"
	dummydb "github.com/cmabris/erasmus25/storage/database/dummy"
)

func setup(t *testing.T) *content.Service {
	t.Helper()

	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("dummydb.Open() failed: %v", err)
	}
	repo := dummydb.NewContentRepository(db)
	logger := logsvc.NewStdLogger(log.New(ioutil.Discard, "", 0))
	mailSvc := emailsvc.NewConsoleServiceMock()
	mediaSvc := mediasvc.NewLocalService(core.Conf)
	emailsvc.ClearSentMessages()
	return content.NewService(repo, mediaSvc, mailSvc, logger)
}

func createDocument(t *testing.T, svc *content.Service, actor user.User, title, slug string) content.Document {
	t.Helper()

	doc, err := svc.CreateDocument(context.Background(), actor, content.NewDocument{
		CategoryID: "cat1",
		Title:      title,
		Slug:       slug,
	}, nil)
	if err != nil {
		t.Fatalf("CreateDocument() failed: %v", err)
	}
	return doc
}

func TestService_documentLifecycle(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()
	actor := user.User{ID: "u1"}

	doc := createDocument(t, svc, actor, "Bases de la convocatoria", "bases-convocatoria")
	if doc.State != content.StateActive {
		t.Fatalf("new document state = %s, want %s", doc.State, content.StateActive)
	}

	// restore on an active document is rejected
	if _, err := svc.RestoreDocument(ctx, actor, doc.ID); err != content.ErrInvalidState {
		t.Errorf("RestoreDocument() on active error = %v, want %v", err, content.ErrInvalidState)
	}
	// purge on an active document is rejected
	if err := svc.PurgeDocument(ctx, actor, doc.ID); err != content.ErrInvalidState {
		t.Errorf("PurgeDocument() on active error = %v, want %v", err, content.ErrInvalidState)
	}

	// trash
	doc, err := svc.TrashDocument(ctx, actor, doc.ID)
	if err != nil {
		t.Fatalf("TrashDocument() failed: %v", err)
	}
	if doc.State != content.StateTrashed {
		t.Errorf("state = %s, want %s", doc.State, content.StateTrashed)
	}
	if !doc.TrashedAt.Valid {
		t.Error("trashed_at not stamped")
	}
	// trashing twice is rejected
	if _, err = svc.TrashDocument(ctx, actor, doc.ID); err != content.ErrInvalidState {
		t.Errorf("second TrashDocument() error = %v, want %v", err, content.ErrInvalidState)
	}

	// trashed documents are hidden from default listings
	docs, err := svc.FilterDocuments(ctx, content.QueryFilter{})
	if err != nil {
		t.Fatalf("FilterDocuments() failed: %v", err)
	}
	if len(docs) != 0 {
		t.Errorf("default listing returned %d trashed documents", len(docs))
	}
	docs, err = svc.FilterDocuments(ctx, content.QueryFilter{ShowDeleted: true})
	if err != nil {
		t.Fatalf("FilterDocuments() failed: %v", err)
	}
	if len(docs) != 1 {
		t.Errorf("show_deleted listing returned %d documents, want 1", len(docs))
	}

	// restore
	doc, err = svc.RestoreDocument(ctx, actor, doc.ID)
	if err != nil {
		t.Fatalf("RestoreDocument() failed: %v", err)
	}
	if doc.State != content.StateActive {
		t.Errorf("state = %s, want %s", doc.State, content.StateActive)
	}
	if doc.TrashedAt.Valid {
		t.Error("trashed_at not cleared on restore")
	}

	// trash again, then purge for good
	if _, err = svc.TrashDocument(ctx, actor, doc.ID); err != nil {
		t.Fatalf("TrashDocument() failed: %v", err)
	}
	if err = svc.PurgeDocument(ctx, actor, doc.ID); err != nil {
		t.Fatalf("PurgeDocument() failed: %v", err)
	}
	if _, err = svc.GetDocument(ctx, doc.ID); err != content.ErrDocumentNotFound {
		t.Errorf("GetDocument() after purge error = %v, want %v", err, content.ErrDocumentNotFound)
	}
}

// failingMediaService rejects every attach, recording the staged file it was
// handed so the cleanup can be asserted.
type failingMediaService struct {
	stagedPath string
}

func (svc *failingMediaService) Attach(_ context.Context, _, _ string, file content.Upload) (content.MediaHandle, error) {
	if f, ok := file.Content.(*os.File); ok {
		svc.stagedPath = f.Name()
	}
	return content.MediaHandle{}, errors.New("storage backend unavailable")
}

func (svc *failingMediaService) Detach(context.Context, content.MediaHandle) error { return nil }

func TestService_CreateDocument_attachFailure(t *testing.T) {
	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("dummydb.Open() failed: %v", err)
	}
	media := &failingMediaService{}
	svc := content.NewService(
		dummydb.NewContentRepository(db),
		media,
		emailsvc.NewConsoleServiceMock(),
		logsvc.NewStdLogger(log.New(ioutil.Discard, "", 0)),
	)
	ctx := context.Background()

	body := "contenido del anexo"
	doc, err := svc.CreateDocument(ctx, user.User{ID: "u1"}, content.NewDocument{
		CategoryID: "cat1",
		Title:      "Anexo II - Baremo",
		Slug:       "anexo-ii-baremo",
	}, &content.Upload{
		Name:        "anexo-ii-baremo.pdf",
		ContentType: "application/pdf",
		Size:        int64(len(body)),
		Content:     strings.NewReader(body),
	})
	// the attach failure is swallowed: the record persists without its file
	if err != nil {
		t.Fatalf("CreateDocument() failed: %v", err)
	}
	if doc.Media != nil {
		t.Errorf("document carries a media handle after a failed attach: %+v", doc.Media)
	}
	doc, err = svc.GetDocument(ctx, doc.ID)
	if err != nil {
		t.Fatalf("GetDocument() failed: %v", err)
	}
	if doc.Media != nil {
		t.Errorf("stored document carries a media handle after a failed attach: %+v", doc.Media)
	}

	// the staged temp file is gone
	if media.stagedPath == "" {
		t.Fatal("attach never received the staged file")
	}
	if _, err = os.Stat(media.stagedPath); !os.IsNotExist(err) {
		t.Errorf("staged file %s not removed (stat err: %v)", media.stagedPath, err)
	}
}

func TestService_consentGuard(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()
	actor := user.User{ID: "u1"}

	doc := createDocument(t, svc, actor, "Anexo fotos", "anexo-fotos")
	if _, err := svc.AddConsent(ctx, content.NewConsent{DocumentID: doc.ID, PersonName: "María Pérez"}); err != nil {
		t.Fatalf("AddConsent() failed: %v", err)
	}

	// deletion is refused while consents exist
	_, err := svc.TrashDocument(ctx, actor, doc.ID)
	if !core.IsConflict(err) {
		t.Fatalf("TrashDocument() error = %v, want a conflict", err)
	}

	doc, err = svc.GetDocument(ctx, doc.ID)
	if err != nil {
		t.Fatalf("GetDocument() failed: %v", err)
	}
	if doc.State != content.StateActive {
		t.Errorf("state = %s, want %s (guard must not mutate)", doc.State, content.StateActive)
	}
	if doc.Consents != 1 {
		t.Errorf("consents = %d, want 1", doc.Consents)
	}

	consents, err := svc.QueryConsents(ctx, doc.ID, "")
	if err != nil {
		t.Fatalf("QueryConsents() failed: %v", err)
	}
	if len(consents) != 1 || consents[0].PersonName != "María Pérez" {
		t.Errorf("unexpected consents: %+v", consents)
	}
}

func TestService_newsPostLifecycle(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()
	actor := user.User{ID: "u1"}

	post, err := svc.CreateNewsPost(ctx, actor, content.NewNewsPost{
		Title:   "Abierta la convocatoria",
		Slug:    "abierta-convocatoria",
		Summary: "Resumen",
		Body:    "Cuerpo de la noticia",
	}, nil)
	if err != nil {
		t.Fatalf("CreateNewsPost() failed: %v", err)
	}

	// slug collision on a second post
	_, err = svc.CreateNewsPost(ctx, actor, content.NewNewsPost{
		Title:   "Otra noticia",
		Slug:    "abierta-convocatoria",
		Summary: "Resumen",
		Body:    "Cuerpo",
	}, nil)
	if _, ok := err.(*core.ValidationError); !ok {
		t.Errorf("duplicate slug error = %T(%v), want *core.ValidationError", err, err)
	}

	if _, err = svc.TrashNewsPost(ctx, actor, post.ID); err != nil {
		t.Fatalf("TrashNewsPost() failed: %v", err)
	}
	if err = svc.PurgeNewsPost(ctx, actor, post.ID); err != nil {
		t.Fatalf("PurgeNewsPost() failed: %v", err)
	}
	if _, err = svc.GetNewsPost(ctx, post.ID); err != content.ErrNewsNotFound {
		t.Errorf("GetNewsPost() after purge error = %v, want %v", err, content.ErrNewsNotFound)
	}
}

func TestService_Subscribe(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	sub, err := svc.Subscribe(ctx, "  Familia@Example.COM ")
	if err != nil {
		t.Fatalf("Subscribe() failed: %v", err)
	}
	if sub.Email != "familia@example.com" {
		t.Errorf("email = %s, want cleaned lowercase", sub.Email)
	}

	// exactly one confirmation message
	if len(emailsvc.SentMessages) != 1 {
		t.Fatalf("sent %d messages, want 1", len(emailsvc.SentMessages))
	}
	msg := emailsvc.SentMessages[0]
	if msg.To[0].Address != sub.Email {
		t.Errorf("message to = %s, want %s", msg.To[0].Address, sub.Email)
	}
	if !strings.Contains(msg.TextContent, sub.Email) {
		t.Error("message body does not mention the subscribed address")
	}

	// duplicates rejected
	if _, err = svc.Subscribe(ctx, sub.Email); err == nil {
		t.Error("duplicate Subscribe() succeeded")
	}

	// invalid address rejected
	if _, err = svc.Subscribe(ctx, "not-an-email"); err == nil {
		t.Error("Subscribe() with invalid email succeeded")
	}

	// confirm and unsubscribe stamp their timestamps
	sub, err = svc.ConfirmSubscription(ctx, sub.Email)
	if err != nil {
		t.Fatalf("ConfirmSubscription() failed: %v", err)
	}
	if !sub.ConfirmedAt.Valid {
		t.Error("confirmed_at not stamped")
	}
	sub, err = svc.Unsubscribe(ctx, sub.Email)
	if err != nil {
		t.Fatalf("Unsubscribe() failed: %v", err)
	}
	if !sub.UnsubscribedAt.Valid {
		t.Error("unsubscribed_at not stamped")
	}
}

func TestService_eventLifecycle(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()
	actor := user.User{ID: "u1"}

	event, err := svc.CreateEvent(ctx, actor, content.NewEvent{
		Title:    "Sesión informativa",
		Slug:     "sesion-informativa",
		Location: "Salón de actos",
		StartsAt: time.Date(2026, 2, 1, 17, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("CreateEvent() failed: %v", err)
	}

	// events have no consent guard: trash straight away
	event, err = svc.TrashEvent(ctx, actor, event.ID)
	if err != nil {
		t.Fatalf("TrashEvent() failed: %v", err)
	}
	if event.State != content.StateTrashed {
		t.Errorf("state = %s, want %s", event.State, content.StateTrashed)
	}
	if err = svc.PurgeEvent(ctx, actor, event.ID); err != nil {
		t.Fatalf("PurgeEvent() failed: %v", err)
	}
	if _, err = svc.GetEvent(ctx, event.ID); err != content.ErrEventNotFound {
		t.Errorf("GetEvent() after purge error = %v, want %v", err, content.ErrEventNotFound)
	}
}
