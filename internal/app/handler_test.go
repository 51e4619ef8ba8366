package app_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"

	"github.com/frahmantamala/account-hub/internal/app"
	"github.com/frahmantamala/account-hub/internal/transport"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("App Handler Integration", func() {
	var (
		service *app.Service
		handler *app.Handler
		client  *app.Application
		secret  string
	)

	BeforeEach(func() {
		var err error
		service, _ = newTestService()
		slogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		handler = app.NewHandler(&transport.BaseHandler{Logger: slogger}, service)

		client, secret, err = service.Register(context.Background(), "billing")
		Expect(err).NotTo(HaveOccurred())
	})

	post := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/oauth/token", strings.NewReader(body))
		w := httptest.NewRecorder()
		handler.Token(w, req)
		return w
	}

	It("issues a verifiable authorization code", func() {
		w := post(`{"client_id":"` + client.ID + `","client_secret":"` + secret + `"}`)

		Expect(w.Code).To(Equal(http.StatusOK))
		var body struct {
			Status string            `json:"status"`
			Data   app.TokenResponse `json:"data"`
		}
		Expect(json.NewDecoder(w.Body).Decode(&body)).To(Succeed())
		Expect(body.Status).To(Equal("success"))
		Expect(body.Data.AuthorizationCode).NotTo(BeEmpty())

		verified, err := service.Verify(context.Background(), body.Data.AuthorizationCode)
		Expect(err).NotTo(HaveOccurred())
		Expect(verified.ID).To(Equal(client.ID))
	})

	It("answers 401 for bad credentials", func() {
		w := post(`{"client_id":"` + client.ID + `","client_secret":"nope"}`)
		Expect(w.Code).To(Equal(http.StatusUnauthorized))
	})

	It("answers 400 when a field is missing", func() {
		w := post(`{"client_id":"` + client.ID + `"}`)
		Expect(w.Code).To(Equal(http.StatusBadRequest))

		var body map[string]any
		Expect(json.NewDecoder(w.Body).Decode(&body)).To(Succeed())
		Expect(body["status"]).To(Equal("error"))
		Expect(body["details"]).To(HaveLen(1))
	})
})
