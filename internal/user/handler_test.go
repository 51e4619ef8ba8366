package user_test

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"

	"github.com/frahmantamala/account-hub/internal"
	userDatamodel "github.com/frahmantamala/account-hub/internal/core/datamodel/user"
	"github.com/frahmantamala/account-hub/internal/transport"
	"github.com/frahmantamala/account-hub/internal/user"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("User Handler", func() {
	var (
		repo    *MockRepository
		handler *user.Handler
	)

	BeforeEach(func() {
		slogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		repo = NewMockRepository(&userDatamodel.User{
			ID:           "u1",
			Username:     "jane",
			PasswordHash: "$2a$04$secret",
			Permissions:  userDatamodel.PermissionSet{{AppID: "A", Roles: []string{"viewer"}}},
		})
		handler = user.NewHandler(&transport.BaseHandler{Logger: slogger}, user.NewService(repo, slogger))
	})

	get := func(userID string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
		if userID != "" {
			req = req.WithContext(internal.ContextWithUserID(req.Context(), userID))
		}
		w := httptest.NewRecorder()
		handler.GetCurrentUser(w, req)
		return w
	}

	It("returns the session user's profile without secrets", func() {
		w := get("u1")

		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Body.String()).NotTo(ContainSubstring("secret"))

		var body struct {
			Status string               `json:"status"`
			Data   user.ProfileResponse `json:"data"`
		}
		Expect(json.NewDecoder(w.Body).Decode(&body)).To(Succeed())
		Expect(body.Status).To(Equal("success"))
		Expect(body.Data.Username).To(Equal("jane"))
		Expect(body.Data.Permissions.Roles("A")).To(Equal([]string{"viewer"}))
	})

	It("answers 401 without a session user", func() {
		Expect(get("").Code).To(Equal(http.StatusUnauthorized))
	})

	It("answers 404 when the user was deleted", func() {
		Expect(get("gone").Code).To(Equal(http.StatusNotFound))
	})

	It("answers 500 when the store fails", func() {
		repo.shouldFail = true
		repo.failError = errors.New("db down")
		Expect(get("u1").Code).To(Equal(http.StatusInternalServerError))
	})
})
