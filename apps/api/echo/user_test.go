package echoapi_test

import (
	"encoding/json"
	"net/http"
	"testing"

	. "github.com/cmabris/erasmus25/apps/api/echo"
	"github.com/cmabris/erasmus25/core/user"
	testutil "github.com/cmabris/erasmus25/tests"
)

func TestUserApi(t *testing.T) {
	srv := setup(t)

	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin@test.es", "s3cret!pass", []string{user.RoleAdmin}, true)
	viewer := testutil.CreateUser(t, usrRepo, "Viewer", "viewer@test.es", "s3cret!pass", []string{user.RoleViewer}, true)
	inactive := testutil.CreateUser(t, usrRepo, "Gone", "gone@test.es", "s3cret!pass", nil, false)
	adminToken := getToken(t, admin)
	viewerToken := getToken(t, viewer)

	tests := []httpTest{
		{
			name: "users: auth required", method: http.MethodGet, path: "/v1/users",
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken),
		},
		{
			name: "users: admin can list", method: http.MethodGet, path: "/v1/users", token: adminToken,
			wantCode: http.StatusOK, wantData: marchallObj(t, []user.User{admin, viewer, inactive}),
		},
		{
			name: "users: viewer can list too", method: http.MethodGet, path: "/v1/users", token: viewerToken,
			wantCode: http.StatusOK, wantData: marchallObj(t, []user.User{admin, viewer, inactive}),
		},
		{
			name: "users: retrieve", method: http.MethodGet, path: "/v1/users/" + viewer.ID, token: adminToken,
			wantCode: http.StatusOK, wantData: marchallObj(t, viewer),
		},
		{
			name: "users: retrieve unknown", method: http.MethodGet, path: "/v1/users/nope", token: adminToken,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "user not found"}),
		},
		{
			name: "users: viewer cannot create", method: http.MethodPost, path: "/v1/users", token: viewerToken,
			body: marchallObj(t, user.NewUser{
				Name: "Nadie", Email: "nadie@test.es",
				Password: "s3cret!pass", PasswordConfirm: "s3cret!pass",
			}),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "users: admin creates an editor", method: http.MethodPost, path: "/v1/users", token: adminToken,
			body: marchallObj(t, user.NewUser{
				Name: "Nueva Editora", Email: "editora@test.es",
				Password: "s3cret!pass", PasswordConfirm: "s3cret!pass",
				Roles: []string{user.RoleEditor},
			}),
			wantCode: http.StatusCreated, extra: "checkUser",
		},
		{
			name: "users: self-delete refused", method: http.MethodDelete, path: "/v1/users/" + admin.ID, token: adminToken,
			wantCode: http.StatusConflict,
			wantData: marchallObj(t, httpErr{Error: "cannot modify user: cannot delete own account"}),
		},
		{
			name: "login: bad credentials", method: http.MethodPost, path: "/v1/users/login",
			body:     marchallObj(t, LoginRequest{Email: admin.Email, Password: "wrong"}),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name: "login: deactivated account", method: http.MethodPost, path: "/v1/users/login",
			body:     marchallObj(t, LoginRequest{Email: inactive.Email, Password: "s3cret!pass"}),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "account deactivated"}),
		},
		{
			name: "login: ok", method: http.MethodPost, path: "/v1/users/login",
			body:     marchallObj(t, LoginRequest{Email: admin.Email, Password: "s3cret!pass"}),
			wantCode: http.StatusOK, extra: "checkToken",
		},
		{
			name: "roles: save custom role", method: http.MethodPut, path: "/v1/roles/coordinador", token: adminToken,
			body:     marchallObj(t, SaveRoleRequest{Permissions: []string{"call.*", "document.viewAny"}}),
			wantCode: http.StatusOK, extra: "checkRole",
		},
		{
			name: "roles: delete custom role", method: http.MethodDelete, path: "/v1/roles/coordinador", token: adminToken,
			wantCode: http.StatusNoContent,
		},
		{
			name: "roles: delete unknown role", method: http.MethodDelete, path: "/v1/roles/nope", token: adminToken,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "role not found"}),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			srv.ServeHTTP(rec, req)

			switch tt.extra {
			case "checkToken":
				if rec.Code != tt.wantCode {
					t.Fatalf("failed! code = %v; wantCode %v; body = %s", rec.Code, tt.wantCode, rec.Body.String())
				}
				var resp LoginResponse
				if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
					t.Fatalf("failed to unmarshal LoginResponse: %v", err)
				}
				if resp.Token == "" {
					t.Error("no token returned")
				}
			case "checkUser":
				if rec.Code != tt.wantCode {
					t.Fatalf("failed! code = %v; wantCode %v; body = %s", rec.Code, tt.wantCode, rec.Body.String())
				}
				var usr user.User
				if err := json.Unmarshal(rec.Body.Bytes(), &usr); err != nil {
					t.Fatalf("failed to unmarshal User: %v", err)
				}
				if usr.ID == "" {
					t.Error("no ID assigned")
				}
				if usr.Email != "editora@test.es" {
					t.Errorf("email = %s, want editora@test.es", usr.Email)
				}
				if !usr.HasRole(user.RoleEditor) {
					t.Errorf("roles = %v, want %s", usr.Roles, user.RoleEditor)
				}
			case "checkRole":
				if rec.Code != tt.wantCode {
					t.Fatalf("failed! code = %v; wantCode %v; body = %s", rec.Code, tt.wantCode, rec.Body.String())
				}
				var role user.Role
				if err := json.Unmarshal(rec.Body.Bytes(), &role); err != nil {
					t.Fatalf("failed to unmarshal Role: %v", err)
				}
				if role.Name != "coordinador" {
					t.Errorf("name = %s, want coordinador", role.Name)
				}
				if len(role.Permissions) != 2 {
					t.Errorf("permissions = %v, want 2 entries", role.Permissions)
				}
			default:
				if tt.wantData == nil {
					if rec.Code != tt.wantCode {
						t.Errorf("failed! code = %v; wantCode %v; body = %s", rec.Code, tt.wantCode, rec.Body.String())
					}
					return
				}
				checkCodeAndData(t, tt, rec)
			}
		})
	}
}
