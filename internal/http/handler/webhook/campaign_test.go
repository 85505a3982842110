package webhook_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"legalbridge.app/bridge/internal/dedupe"
	"legalbridge.app/bridge/internal/http/handler/webhook"
	"legalbridge.app/bridge/internal/jira"
	"legalbridge.app/bridge/internal/mapper"
	"legalbridge.app/bridge/internal/model"
	"legalbridge.app/bridge/internal/service"
	"legalbridge.app/bridge/internal/store"
	"legalbridge.app/bridge/internal/trigger"
)

const readyPayload = `{
	"data": {
		"id": "p1",
		"properties": {
			"Name": {"title": "Q3 Launch"},
			"Status": {"label": "Ready for Legal Review"},
			"CopyUrl": {"url": "https://docs.example.com/copy"}
		}
	}
}`

const draftPayload = `{
	"data": {
		"id": "p1",
		"properties": {
			"Name": {"title": "Q3 Launch"},
			"Status": {"label": "Draft"}
		}
	}
}`

// fakeDispatch stubs the pipeline for response-mapping tests.
type fakeDispatch struct {
	DispatchFn func(ctx context.Context, body []byte) (*service.DispatchResult, error)
}

func (f *fakeDispatch) Dispatch(ctx context.Context, body []byte) (*service.DispatchResult, error) {
	return f.DispatchFn(ctx, body)
}

func perform(handler *webhook.CampaignWebhookHandler, body string, header map[string]string) *httptest.ResponseRecorder {
	engine := gin.New()
	engine.POST("/webhooks/campaign", handler.HandleEvent)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/campaign", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func decode(rec *httptest.ResponseRecorder) map[string]any {
	var out map[string]any
	Expect(json.Unmarshal(rec.Body.Bytes(), &out)).To(Succeed())
	return out
}

var _ = Describe("CampaignWebhookHandler", func() {
	Describe("response mapping", func() {
		It("maps a completed dispatch to 200 with the ticket reference", func() {
			handler := webhook.NewCampaignWebhookHandler(&fakeDispatch{
				DispatchFn: func(ctx context.Context, body []byte) (*service.DispatchResult, error) {
					return &service.DispatchResult{
						Status:   service.StatusCompleted,
						RecordID: "p1",
						Ticket:   &model.TicketResult{Key: "MKTG-1", URL: "https://example.atlassian.net/browse/MKTG-1"},
					}, nil
				},
			}, "")

			rec := perform(handler, readyPayload, nil)

			Expect(rec.Code).To(Equal(http.StatusOK))
			body := decode(rec)
			Expect(body["reason"]).To(Equal(webhook.ReasonCompleted))
			Expect(body["ticket_key"]).To(Equal("MKTG-1"))
			Expect(body["ticket_url"]).To(Equal("https://example.atlassian.net/browse/MKTG-1"))
		})

		It("maps a transient dispatch failure to 503", func() {
			handler := webhook.NewCampaignWebhookHandler(&fakeDispatch{
				DispatchFn: func(ctx context.Context, body []byte) (*service.DispatchResult, error) {
					return nil, &jira.DispatchError{Transient: true, StatusCode: 503, Message: "unavailable"}
				},
			}, "")

			rec := perform(handler, readyPayload, nil)

			Expect(rec.Code).To(Equal(http.StatusServiceUnavailable))
			Expect(decode(rec)["reason"]).To(Equal(webhook.ReasonTransientDispatch))
		})

		It("maps a permanent dispatch failure to 502", func() {
			handler := webhook.NewCampaignWebhookHandler(&fakeDispatch{
				DispatchFn: func(ctx context.Context, body []byte) (*service.DispatchResult, error) {
					return nil, &jira.DispatchError{StatusCode: 400, Message: "project is required"}
				},
			}, "")

			rec := perform(handler, readyPayload, nil)

			Expect(rec.Code).To(Equal(http.StatusBadGateway))
			Expect(decode(rec)["reason"]).To(Equal(webhook.ReasonPermanentDispatch))
		})
	})

	Describe("shared-secret check", func() {
		var handler *webhook.CampaignWebhookHandler

		BeforeEach(func() {
			handler = webhook.NewCampaignWebhookHandler(&fakeDispatch{
				DispatchFn: func(ctx context.Context, body []byte) (*service.DispatchResult, error) {
					return &service.DispatchResult{Status: service.StatusNoTrigger, RecordID: "p1"}, nil
				},
			}, "hunter2")
		})

		It("rejects a request without the token", func() {
			rec := perform(handler, draftPayload, nil)
			Expect(rec.Code).To(Equal(http.StatusUnauthorized))
		})

		It("rejects a request with the wrong token", func() {
			rec := perform(handler, draftPayload, map[string]string{"X-Bridge-Token": "wrong"})
			Expect(rec.Code).To(Equal(http.StatusUnauthorized))
		})

		It("accepts a request with the right token", func() {
			rec := perform(handler, draftPayload, map[string]string{"X-Bridge-Token": "hunter2"})
			Expect(rec.Code).To(Equal(http.StatusOK))
		})
	})

	Describe("end to end against a stub tracker", func() {
		var (
			tracker *httptest.Server
			handler *webhook.CampaignWebhookHandler
		)

		BeforeEach(func() {
			tracker = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusCreated)
				w.Write([]byte(`{"key":"MKTG-99"}`))
			}))

			dispatch := service.NewDispatchService(
				trigger.NewEvaluator("Ready for Legal Review"),
				mapper.NewTicketMapper("MKTG", "Task"),
				dedupe.NewMemoryGuard(2*time.Minute, 72*time.Hour),
				jira.New(jira.Config{BaseURL: tracker.URL, Email: "bot@example.com", APIToken: "token"}, nil, nil),
				nil,
				store.NewNoopDeliveryStore(),
				nil,
			)
			handler = webhook.NewCampaignWebhookHandler(dispatch, "")
		})

		AfterEach(func() {
			tracker.Close()
		})

		It("creates a ticket for a matching notification", func() {
			rec := perform(handler, readyPayload, nil)

			Expect(rec.Code).To(Equal(http.StatusOK))
			body := decode(rec)
			Expect(body["reason"]).To(Equal(webhook.ReasonCompleted))
			Expect(body["record_id"]).To(Equal("p1"))
			Expect(body["ticket_key"]).To(Equal("MKTG-99"))
		})

		It("acknowledges without a ticket when the status does not match", func() {
			rec := perform(handler, draftPayload, nil)

			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(decode(rec)["reason"]).To(Equal(webhook.ReasonNoTriggerMatch))
		})

		It("suppresses the second delivery of the same notification", func() {
			first := perform(handler, readyPayload, nil)
			Expect(decode(first)["reason"]).To(Equal(webhook.ReasonCompleted))

			second := perform(handler, readyPayload, nil)
			Expect(second.Code).To(Equal(http.StatusOK))
			Expect(decode(second)["reason"]).To(Equal(webhook.ReasonDuplicateSuppressed))
		})

		It("rejects an empty object with 400", func() {
			rec := perform(handler, `{}`, nil)

			Expect(rec.Code).To(Equal(http.StatusBadRequest))
			Expect(decode(rec)["reason"]).To(Equal(webhook.ReasonValidationError))
		})
	})
})
