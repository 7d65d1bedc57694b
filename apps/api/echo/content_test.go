package echoapi_test

import (
	"encoding/json"
	"net/http"
	"testing"

	. "github.com/cmabris/erasmus25/apps/api/echo"
	"github.com/cmabris/erasmus25/core/content"
	"github.com/cmabris/erasmus25/core/user"
	testutil "github.com/cmabris/erasmus25/tests"
)

func TestDocumentApi(t *testing.T) {
	srv := setup(t)

	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin@test.es", "s3cret!pass", []string{user.RoleAdmin}, true)
	viewer := testutil.CreateUser(t, usrRepo, "Viewer", "viewer@test.es", "s3cret!pass", []string{user.RoleViewer}, true)
	adminToken := getToken(t, admin)
	viewerToken := getToken(t, viewer)

	createDoc := func(title, slug string) content.Document {
		t.Helper()
		body := marchallObj(t, content.NewDocument{CategoryID: "cat1", Title: title, Slug: slug})
		req, rec := newAuthRequest(http.MethodPost, "/v1/documents", adminToken, body)
		srv.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("create failed! code = %v; body = %s", rec.Code, rec.Body.String())
		}
		var doc content.Document
		if err := json.Unmarshal(rec.Body.Bytes(), &doc); err != nil {
			t.Fatalf("failed to unmarshal Document: %v", err)
		}
		return doc
	}

	// a viewer may not create documents
	req, rec := newAuthRequest(http.MethodPost, "/v1/documents", viewerToken,
		marchallObj(t, content.NewDocument{CategoryID: "cat1", Title: "Bases"}))
	srv.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusForbidden,
		wantData: marchallObj(t, httpErr{Error: "permission denied"}),
	}, rec)

	guarded := createDoc("Anexo fotos", "anexo-fotos")

	// a consent blocks deletion
	req, rec = newAuthRequest(http.MethodPost, "/v1/documents/"+guarded.ID+"/consents", adminToken,
		marchallObj(t, ConsentRequest{PersonName: "María Pérez"}))
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("add consent failed! code = %v; body = %s", rec.Code, rec.Body.String())
	}
	req, rec = newAuthRequest(http.MethodDelete, "/v1/documents/"+guarded.ID, adminToken)
	srv.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusConflict,
		wantData: marchallObj(t, httpErr{Error: "cannot modify document: 1 media consents attached"}),
	}, rec)

	req, rec = newAuthRequest(http.MethodGet, "/v1/documents/"+guarded.ID+"/consents", adminToken)
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("consents failed! code = %v; body = %s", rec.Code, rec.Body.String())
	}
	var consents []content.MediaConsent
	if err := json.Unmarshal(rec.Body.Bytes(), &consents); err != nil {
		t.Fatalf("failed to unmarshal MediaConsent list: %v", err)
	}
	if len(consents) != 1 || consents[0].PersonName != "María Pérez" {
		t.Errorf("unexpected consents: %+v", consents)
	}

	// trash / restore / purge on an unguarded document
	doc := createDoc("Impreso de solicitud", "impreso-solicitud")

	req, rec = newAuthRequest(http.MethodDelete, "/v1/documents/"+doc.ID, adminToken)
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("trash failed! code = %v; body = %s", rec.Code, rec.Body.String())
	}

	// trashed documents drop out of the public listing
	req, rec = newRequest(http.MethodGet, "/v1/documents")
	srv.ServeHTTP(rec, req)
	var docs []content.Document
	if err := json.Unmarshal(rec.Body.Bytes(), &docs); err != nil {
		t.Fatalf("failed to unmarshal Document list: %v", err)
	}
	if len(docs) != 1 {
		t.Errorf("got %d documents, want 1 (trashed one hidden)", len(docs))
	}

	req, rec = newAuthRequest(http.MethodPost, "/v1/documents/"+doc.ID+"/restore", adminToken)
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("restore failed! code = %v; body = %s", rec.Code, rec.Body.String())
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &doc); err != nil {
		t.Fatalf("failed to unmarshal Document: %v", err)
	}
	if doc.State != content.StateActive {
		t.Errorf("state = %s, want %s", doc.State, content.StateActive)
	}

	// purging an active document is a conflict
	req, rec = newAuthRequest(http.MethodDelete, "/v1/documents/"+doc.ID+"?force=true", adminToken)
	srv.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusConflict,
		wantData: marchallObj(t, httpErr{Error: "record is not in a valid state for this operation"}),
	}, rec)

	// trash then purge for good
	req, rec = newAuthRequest(http.MethodDelete, "/v1/documents/"+doc.ID, adminToken)
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("trash failed! code = %v; body = %s", rec.Code, rec.Body.String())
	}
	req, rec = newAuthRequest(http.MethodDelete, "/v1/documents/"+doc.ID+"?force=true", adminToken)
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("purge failed! code = %v; body = %s", rec.Code, rec.Body.String())
	}
	req, rec = newRequest(http.MethodGet, "/v1/documents/"+doc.ID)
	srv.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusNotFound,
		wantData: marchallObj(t, httpErr{Error: "document not found"}),
	}, rec)
}

func TestNewsletterApi(t *testing.T) {
	srv := setup(t)

	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin@test.es", "s3cret!pass", []string{user.RoleAdmin}, true)
	adminToken := getToken(t, admin)

	// subscribing needs no account
	req, rec := newRequest(http.MethodPost, "/v1/newsletter/subscribe",
		marchallObj(t, SubscriptionRequest{Email: "Familia@Example.COM"}))
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("subscribe failed! code = %v; body = %s", rec.Code, rec.Body.String())
	}
	var sub content.NewsletterSubscription
	if err := json.Unmarshal(rec.Body.Bytes(), &sub); err != nil {
		t.Fatalf("failed to unmarshal NewsletterSubscription: %v", err)
	}
	if sub.Email != "familia@example.com" {
		t.Errorf("email = %s, want cleaned lowercase", sub.Email)
	}

	// duplicates are rejected with a field error
	req, rec = newRequest(http.MethodPost, "/v1/newsletter/subscribe",
		marchallObj(t, SubscriptionRequest{Email: sub.Email}))
	srv.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusBadRequest,
		wantData: marchallObj(t, map[string]string{"email": "this email is already subscribed"}),
	}, rec)

	// confirm and unsubscribe are public too
	req, rec = newRequest(http.MethodPost, "/v1/newsletter/confirm",
		marchallObj(t, SubscriptionRequest{Email: sub.Email}))
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("confirm failed! code = %v; body = %s", rec.Code, rec.Body.String())
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &sub); err != nil {
		t.Fatalf("failed to unmarshal NewsletterSubscription: %v", err)
	}
	if !sub.ConfirmedAt.Valid {
		t.Error("confirmed_at not stamped")
	}

	req, rec = newRequest(http.MethodPost, "/v1/newsletter/unsubscribe",
		marchallObj(t, SubscriptionRequest{Email: sub.Email}))
	srv.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusOK,
		wantData: marchallObj(t, SuccessResponse{Success: "You have been unsubscribed from the newsletter."}),
	}, rec)

	// the subscriber list is not
	req, rec = newRequest(http.MethodGet, "/v1/newsletter")
	srv.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusUnauthorized,
		wantData: marchallObj(t, errMissingToken),
	}, rec)

	req, rec = newAuthRequest(http.MethodGet, "/v1/newsletter", adminToken)
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("list failed! code = %v; body = %s", rec.Code, rec.Body.String())
	}
	var subs []content.NewsletterSubscription
	if err := json.Unmarshal(rec.Body.Bytes(), &subs); err != nil {
		t.Fatalf("failed to unmarshal NewsletterSubscription list: %v", err)
	}
	if len(subs) != 1 {
		t.Errorf("got %d subscriptions, want 1", len(subs))
	}
}
