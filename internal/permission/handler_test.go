package permission_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/frahmantamala/account-hub/internal/app"
	appPostgres "github.com/frahmantamala/account-hub/internal/app/postgres"
	appDatamodel "github.com/frahmantamala/account-hub/internal/core/datamodel/app"
	userDatamodel "github.com/frahmantamala/account-hub/internal/core/datamodel/user"
	"github.com/frahmantamala/account-hub/internal/permission"
	"github.com/frahmantamala/account-hub/internal/transport"
	userPostgres "github.com/frahmantamala/account-hub/internal/user/postgres"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Code    int             `json:"code"`
	Data    json.RawMessage `json:"data"`
}

var _ = Describe("Permission Handler Integration", func() {
	var (
		db       *gorm.DB
		users    *userPostgres.UserRepository
		handler  *permission.Handler
		code     string
		slogger  *slog.Logger
		codeTTL  = time.Hour
		signKey  = "0123456789abcdef0123456789abcdef"
		appSvc   *app.Service
		clientID string
	)

	BeforeEach(func() {
		var err error
		slogger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		Expect(err).NotTo(HaveOccurred())

		err = db.AutoMigrate(
			&userDatamodel.User{},
			&userDatamodel.Email{},
			&userDatamodel.PhoneNumber{},
			&appDatamodel.Application{},
		)
		Expect(err).NotTo(HaveOccurred())

		users = userPostgres.NewUserRepository(db)
		appSvc = app.NewService(appPostgres.NewAppRepository(db), app.NewCodeSigner(signKey, codeTTL), bcrypt.MinCost, slogger)

		registered, secret, err := appSvc.Register(context.Background(), "billing")
		Expect(err).NotTo(HaveOccurred())
		clientID = registered.ID
		code, _, err = appSvc.IssueCode(context.Background(), clientID, secret)
		Expect(err).NotTo(HaveOccurred())

		err = users.Create(context.Background(), &userDatamodel.User{
			ID:       "u1",
			Username: "jane",
			Permissions: userDatamodel.PermissionSet{
				{AppID: clientID, Roles: []string{"viewer"}},
				{AppID: "other", Roles: []string{"admin"}},
			},
		})
		Expect(err).NotTo(HaveOccurred())

		service := permission.NewService(appSvc, users, nil, slogger)
		handler = permission.NewHandler(&transport.BaseHandler{Logger: slogger}, service)
	})

	stored := func() permission.List {
		subject, err := users.GetPermissions(context.Background(), "u1")
		Expect(err).NotTo(HaveOccurred())
		Expect(subject).NotTo(BeNil())
		return subject.Permissions
	}

	version := func() int64 {
		subject, err := users.GetPermissions(context.Background(), "u1")
		Expect(err).NotTo(HaveOccurred())
		return subject.Version
	}

	decode := func(w *httptest.ResponseRecorder) envelope {
		var env envelope
		Expect(json.NewDecoder(w.Body).Decode(&env)).To(Succeed())
		return env
	}

	Describe("GET /permission-manager", func() {
		It("returns the full permission list", func() {
			req := httptest.NewRequest(http.MethodGet, "/permission-manager?user_id=u1", nil)
			req.Header.Set("Authorization", code)
			w := httptest.NewRecorder()

			handler.List(w, req)

			Expect(w.Code).To(Equal(http.StatusOK))
			env := decode(w)
			Expect(env.Status).To(Equal("success"))

			var perms permission.List
			Expect(json.Unmarshal(env.Data, &perms)).To(Succeed())
			Expect(perms).To(HaveLen(2))
			Expect(perms.Roles(clientID)).To(Equal([]string{"viewer"}))
		})

		It("accepts a bearer prefixed code", func() {
			req := httptest.NewRequest(http.MethodGet, "/permission-manager?user_id=u1", nil)
			req.Header.Set("Authorization", "Bearer "+code)
			w := httptest.NewRecorder()

			handler.List(w, req)

			Expect(w.Code).To(Equal(http.StatusOK))
		})

		It("answers M019 when user_id is missing", func() {
			req := httptest.NewRequest(http.MethodGet, "/permission-manager", nil)
			req.Header.Set("Authorization", code)
			w := httptest.NewRecorder()

			handler.List(w, req)

			Expect(w.Code).To(Equal(http.StatusBadRequest))
			env := decode(w)
			Expect(env.Status).To(Equal("error"))
			Expect(env.Code).To(Equal(http.StatusBadRequest))
		})

		It("answers M002 for a code signed with another key", func() {
			forged, _, err := app.NewCodeSigner(strings.Repeat("x", 32), codeTTL).Issue(clientID)
			Expect(err).NotTo(HaveOccurred())

			req := httptest.NewRequest(http.MethodGet, "/permission-manager?user_id=u1", nil)
			req.Header.Set("Authorization", forged)
			w := httptest.NewRecorder()

			handler.List(w, req)

			Expect(w.Code).To(Equal(http.StatusUnauthorized))
		})

		It("answers M020 for an unknown user", func() {
			req := httptest.NewRequest(http.MethodGet, "/permission-manager?user_id=ghost", nil)
			req.Header.Set("Authorization", code)
			w := httptest.NewRecorder()

			handler.List(w, req)

			Expect(w.Code).To(Equal(http.StatusNotFound))
			Expect(decode(w).Status).To(Equal("error"))
		})
	})

	Describe("POST /permission-manager", func() {
		It("grants the role and persists the list", func() {
			req := httptest.NewRequest(http.MethodPost, "/permission-manager", strings.NewReader(`{"user_id":"u1","role":"editor"}`))
			req.Header.Set("Authorization", code)
			w := httptest.NewRecorder()

			handler.Grant(w, req)

			Expect(w.Code).To(Equal(http.StatusOK))
			env := decode(w)
			Expect(env.Status).To(Equal("success"))
			Expect(env.Data).To(BeEmpty())
			Expect(stored().Roles(clientID)).To(Equal([]string{"viewer", "editor"}))
			Expect(stored().Roles("other")).To(Equal([]string{"admin"}))
		})

		It("does not write when the role is held", func() {
			before := version()
			req := httptest.NewRequest(http.MethodPost, "/permission-manager", strings.NewReader(`{"user_id":"u1","role":"viewer"}`))
			req.Header.Set("Authorization", code)
			w := httptest.NewRecorder()

			handler.Grant(w, req)

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(version()).To(Equal(before))
		})

		It("answers M019 when the authorization header is missing", func() {
			before := version()
			req := httptest.NewRequest(http.MethodPost, "/permission-manager", strings.NewReader(`{"user_id":"u1","role":"editor"}`))
			w := httptest.NewRecorder()

			handler.Grant(w, req)

			Expect(w.Code).To(Equal(http.StatusBadRequest))
			Expect(version()).To(Equal(before))
		})

		It("answers M019 for an unreadable body", func() {
			req := httptest.NewRequest(http.MethodPost, "/permission-manager", strings.NewReader(`{"user_id":`))
			req.Header.Set("Authorization", code)
			w := httptest.NewRecorder()

			handler.Grant(w, req)

			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("PATCH /permission-manager", func() {
		It("replaces the role", func() {
			req := httptest.NewRequest(http.MethodPatch, "/permission-manager",
				strings.NewReader(`{"user_id":"u1","old_role":"viewer","new_role":"admin"}`))
			req.Header.Set("Authorization", code)
			w := httptest.NewRecorder()

			handler.Replace(w, req)

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(stored().Roles(clientID)).To(Equal([]string{"admin"}))
		})

		It("answers M019 when new_role is missing", func() {
			req := httptest.NewRequest(http.MethodPatch, "/permission-manager",
				strings.NewReader(`{"user_id":"u1","old_role":"viewer"}`))
			req.Header.Set("Authorization", code)
			w := httptest.NewRecorder()

			handler.Replace(w, req)

			Expect(w.Code).To(Equal(http.StatusBadRequest))
			Expect(stored().Roles(clientID)).To(Equal([]string{"viewer"}))
		})
	})

	Describe("DELETE /permission-manager", func() {
		It("revokes the last role and drops the entry", func() {
			q := url.Values{"user_id": {"u1"}, "role": {"viewer"}}
			req := httptest.NewRequest(http.MethodDelete, "/permission-manager?"+q.Encode(), nil)
			req.Header.Set("Authorization", code)
			w := httptest.NewRecorder()

			handler.Revoke(w, req)

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(stored().Index(clientID)).To(Equal(-1))
			Expect(stored().Roles("other")).To(Equal([]string{"admin"}))
		})

		It("answers M020 for an unknown user without writing", func() {
			q := url.Values{"user_id": {"ghost"}, "role": {"viewer"}}
			req := httptest.NewRequest(http.MethodDelete, "/permission-manager?"+q.Encode(), nil)
			req.Header.Set("Authorization", code)
			w := httptest.NewRecorder()

			handler.Revoke(w, req)

			Expect(w.Code).To(Equal(http.StatusNotFound))
		})

		It("answers M002 once the application is deactivated", func() {
			Expect(appSvc.Deactivate(context.Background(), clientID)).To(Succeed())

			q := url.Values{"user_id": {"u1"}, "role": {"viewer"}}
			req := httptest.NewRequest(http.MethodDelete, "/permission-manager?"+q.Encode(), nil)
			req.Header.Set("Authorization", code)
			w := httptest.NewRecorder()

			handler.Revoke(w, req)

			Expect(w.Code).To(Equal(http.StatusUnauthorized))
			Expect(stored().Roles(clientID)).To(Equal([]string{"viewer"}))
		})
	})
})

var _ = Describe("Permission Handler request validation", func() {
	var (
		verifier *MockVerifier
		store    *MockStore
		handler  *permission.Handler
	)

	BeforeEach(func() {
		slogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		verifier = NewMockVerifier()
		store = NewMockStore()
		store.Put("u1", permission.List{{AppID: "A", Roles: []string{"viewer"}}})
		handler = permission.NewHandler(&transport.BaseHandler{Logger: slogger}, permission.NewService(verifier, store, nil, slogger))
	})

	DescribeTable("rejects incomplete requests before touching collaborators",
		func(method, target, body string, withCode bool) {
			req := httptest.NewRequest(method, target, strings.NewReader(body))
			if withCode {
				req.Header.Set("Authorization", "valid-code")
			}
			w := httptest.NewRecorder()

			switch method {
			case http.MethodGet:
				handler.List(w, req)
			case http.MethodPost:
				handler.Grant(w, req)
			case http.MethodPatch:
				handler.Replace(w, req)
			case http.MethodDelete:
				handler.Revoke(w, req)
			}

			Expect(w.Code).To(Equal(http.StatusBadRequest))
			var env envelope
			Expect(json.NewDecoder(w.Body).Decode(&env)).To(Succeed())
			Expect(env.Status).To(Equal("error"))
			Expect(verifier.calls).To(Equal(0))
			Expect(store.reads).To(Equal(0))
			Expect(store.writes).To(Equal(0))
		},
		Entry("list without user_id", http.MethodGet, "/permission-manager", "", true),
		Entry("list without authorization", http.MethodGet, "/permission-manager?user_id=u1", "", false),
		Entry("grant without role", http.MethodPost, "/permission-manager", `{"user_id":"u1"}`, true),
		Entry("grant with an unreadable body", http.MethodPost, "/permission-manager", `{"user_id":`, true),
		Entry("replace without new_role", http.MethodPatch, "/permission-manager", `{"user_id":"u1","old_role":"viewer"}`, true),
		Entry("revoke without role", http.MethodDelete, "/permission-manager?user_id=u1", "", true),
	)
})
