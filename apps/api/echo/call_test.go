package echoapi_test

import (
	"encoding/json"
	"net/http"
	"testing"

	. "github.com/cmabris/erasmus25/apps/api/echo"
	"github.com/cmabris/erasmus25/core/call"
	"github.com/cmabris/erasmus25/core/user"
	testutil "github.com/cmabris/erasmus25/tests"
)

func TestCallApi(t *testing.T) {
	srv := setup(t)

	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin@test.es", "s3cret!pass", []string{user.RoleAdmin}, true)
	viewer := testutil.CreateUser(t, usrRepo, "Viewer", "viewer@test.es", "s3cret!pass", []string{user.RoleViewer}, true)
	adminToken := getToken(t, admin)
	viewerToken := getToken(t, viewer)

	newCall := marchallObj(t, call.NewCall{
		ProgramID:      "prog1",
		AcademicYearID: "year1",
		Title:          "Movilidad de alumnado FP",
		Slug:           "movilidad-alumnado-fp",
		Type:           call.TypeStudents,
		Modality:       call.ModalityShort,
		Places:         10,
		Destinations:   []string{"Italia", "Portugal"},
	})

	// a viewer may not create calls
	req, rec := newAuthRequest(http.MethodPost, "/v1/calls", viewerToken, newCall)
	srv.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusForbidden,
		wantData: marchallObj(t, httpErr{Error: "permission denied"}),
	}, rec)

	// an admin may
	req, rec = newAuthRequest(http.MethodPost, "/v1/calls", adminToken, newCall)
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create failed! code = %v; body = %s", rec.Code, rec.Body.String())
	}
	var c call.Call
	if err := json.Unmarshal(rec.Body.Bytes(), &c); err != nil {
		t.Fatalf("failed to unmarshal Call: %v", err)
	}
	if c.Status != call.StatusDraft {
		t.Errorf("status = %s, want %s", c.Status, call.StatusDraft)
	}
	if c.CreatedBy != admin.ID {
		t.Errorf("created_by = %s, want %s", c.CreatedBy, admin.ID)
	}

	// the listing is public
	req, rec = newRequest(http.MethodGet, "/v1/calls")
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("list failed! code = %v; body = %s", rec.Code, rec.Body.String())
	}
	var calls []call.Call
	if err := json.Unmarshal(rec.Body.Bytes(), &calls); err != nil {
		t.Fatalf("failed to unmarshal Call list: %v", err)
	}
	if len(calls) != 1 {
		t.Errorf("got %d calls, want 1", len(calls))
	}

	// publish: the call opens and its timeline appears
	req, rec = newAuthRequest(http.MethodPost, "/v1/calls/"+c.ID+"/publish", adminToken)
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("publish failed! code = %v; body = %s", rec.Code, rec.Body.String())
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &c); err != nil {
		t.Fatalf("failed to unmarshal Call: %v", err)
	}
	if c.Status != call.StatusOpen {
		t.Errorf("status = %s, want %s", c.Status, call.StatusOpen)
	}
	if !c.PublishedAt.Valid {
		t.Error("published_at not stamped")
	}

	req, rec = newRequest(http.MethodGet, "/v1/calls/"+c.ID+"/phases")
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("phases failed! code = %v; body = %s", rec.Code, rec.Body.String())
	}
	var phases []call.CallPhase
	if err := json.Unmarshal(rec.Body.Bytes(), &phases); err != nil {
		t.Fatalf("failed to unmarshal CallPhase list: %v", err)
	}
	if len(phases) != 2 {
		t.Errorf("got %d phases, want 2", len(phases))
	}

	// publishing twice is a conflict
	req, rec = newAuthRequest(http.MethodPost, "/v1/calls/"+c.ID+"/publish", adminToken)
	srv.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusConflict,
		wantData: marchallObj(t, httpErr{Error: "only draft calls can be published"}),
	}, rec)

	// close with appeals: resolutions are generated
	req, rec = newAuthRequest(http.MethodPost, "/v1/calls/"+c.ID+"/close", adminToken,
		marchallObj(t, CloseCallRequest{AppealsFiled: true}))
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("close failed! code = %v; body = %s", rec.Code, rec.Body.String())
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &c); err != nil {
		t.Fatalf("failed to unmarshal Call: %v", err)
	}
	if c.Status != call.StatusClosed {
		t.Errorf("status = %s, want %s", c.Status, call.StatusClosed)
	}

	req, rec = newRequest(http.MethodGet, "/v1/calls/"+c.ID+"/resolutions")
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("resolutions failed! code = %v; body = %s", rec.Code, rec.Body.String())
	}
	var resolutions []call.Resolution
	if err := json.Unmarshal(rec.Body.Bytes(), &resolutions); err != nil {
		t.Fatalf("failed to unmarshal Resolution list: %v", err)
	}
	if len(resolutions) != 3 {
		t.Errorf("got %d resolutions, want 3", len(resolutions))
	}

	// unknown call is a 404 on the public endpoints too
	req, rec = newRequest(http.MethodGet, "/v1/calls/nope")
	srv.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusNotFound,
		wantData: marchallObj(t, httpErr{Error: "call not found"}),
	}, rec)

	// a viewer may not delete either
	req, rec = newAuthRequest(http.MethodDelete, "/v1/calls/"+c.ID, viewerToken)
	srv.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusForbidden,
		wantData: marchallObj(t, httpErr{Error: "permission denied"}),
	}, rec)
}
