package jira

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"legalbridge.app/bridge/internal/adf"
	"legalbridge.app/bridge/internal/model"
)

func sampleContent() *model.TicketContent {
	return &model.TicketContent{
		Summary: "Q3 Launch",
		Description: adf.NewDoc(
			adf.Paragraph(adf.Text("Campaign is ready for review.")),
		),
		ProjectKey: "MKTG",
		IssueType:  "Task",
	}
}

// spySleep records requested delays without waiting.
type spySleep struct {
	delays []time.Duration
}

func (s *spySleep) sleep(ctx context.Context, d time.Duration) error {
	s.delays = append(s.delays, d)
	return nil
}

var _ = Describe("client", func() {
	var (
		sleep *spySleep
		ctx   context.Context
	)

	BeforeEach(func() {
		sleep = &spySleep{}
		ctx = context.Background()
	})

	newClient := func(baseURL string) Creator {
		return New(Config{
			BaseURL:     baseURL,
			Email:       "bot@example.com",
			APIToken:    "token",
			MaxAttempts: 3,
		}, sleep.sleep, nil)
	}

	It("creates an issue and returns its key and browse URL", func() {
		var captured struct {
			Fields struct {
				Project struct {
					Key string `json:"key"`
				} `json:"project"`
				Summary     string          `json:"summary"`
				Description json.RawMessage `json:"description"`
				IssueType   struct {
					Name string `json:"name"`
				} `json:"issuetype"`
			} `json:"fields"`
		}

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			Expect(r.Method).To(Equal(http.MethodPost))
			Expect(r.URL.Path).To(Equal("/rest/api/3/issue"))
			user, pass, ok := r.BasicAuth()
			Expect(ok).To(BeTrue())
			Expect(user).To(Equal("bot@example.com"))
			Expect(pass).To(Equal("token"))

			body, err := io.ReadAll(r.Body)
			Expect(err).NotTo(HaveOccurred())
			Expect(json.Unmarshal(body, &captured)).To(Succeed())

			w.WriteHeader(http.StatusCreated)
			w.Write([]byte(`{"id":"10001","key":"MKTG-42"}`))
		}))
		defer srv.Close()

		result, err := newClient(srv.URL).CreateTicket(ctx, sampleContent())

		Expect(err).NotTo(HaveOccurred())
		Expect(result.Key).To(Equal("MKTG-42"))
		Expect(result.URL).To(Equal(srv.URL + "/browse/MKTG-42"))
		Expect(captured.Fields.Project.Key).To(Equal("MKTG"))
		Expect(captured.Fields.Summary).To(Equal("Q3 Launch"))
		Expect(captured.Fields.IssueType.Name).To(Equal("Task"))
		Expect(string(captured.Fields.Description)).To(ContainSubstring(`"type":"doc"`))
		Expect(sleep.delays).To(BeEmpty())
	})

	It("retries a server error and succeeds on a later attempt", func() {
		var calls int
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
			if calls < 3 {
				w.WriteHeader(http.StatusBadGateway)
				return
			}
			w.WriteHeader(http.StatusCreated)
			w.Write([]byte(`{"key":"MKTG-7"}`))
		}))
		defer srv.Close()

		result, err := newClient(srv.URL).CreateTicket(ctx, sampleContent())

		Expect(err).NotTo(HaveOccurred())
		Expect(result.Key).To(Equal("MKTG-7"))
		Expect(calls).To(Equal(3))
		Expect(sleep.delays).To(HaveLen(2))
		Expect(sleep.delays[1] >= sleep.delays[0]).To(BeTrue())
	})

	It("retries rate limiting", func() {
		var calls int
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
			if calls == 1 {
				w.WriteHeader(http.StatusTooManyRequests)
				return
			}
			w.WriteHeader(http.StatusCreated)
			w.Write([]byte(`{"key":"MKTG-8"}`))
		}))
		defer srv.Close()

		_, err := newClient(srv.URL).CreateTicket(ctx, sampleContent())

		Expect(err).NotTo(HaveOccurred())
		Expect(calls).To(Equal(2))
	})

	It("does not retry a client rejection", func() {
		var calls int
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"errorMessages":["project is required"]}`))
		}))
		defer srv.Close()

		_, err := newClient(srv.URL).CreateTicket(ctx, sampleContent())

		Expect(err).To(HaveOccurred())
		Expect(IsTransient(err)).To(BeFalse())
		Expect(calls).To(Equal(1))
		Expect(sleep.delays).To(BeEmpty())

		var derr *DispatchError
		Expect(errors.As(err, &derr)).To(BeTrue())
		Expect(derr.StatusCode).To(Equal(http.StatusBadRequest))
	})

	It("gives up after the attempt budget and reports a transient failure", func() {
		var calls int
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		_, err := newClient(srv.URL).CreateTicket(ctx, sampleContent())

		Expect(err).To(HaveOccurred())
		Expect(IsTransient(err)).To(BeTrue())
		Expect(calls).To(Equal(3))
		Expect(sleep.delays).To(HaveLen(2))
	})

	It("treats a success without an issue key as permanent", func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusCreated)
			w.Write([]byte(`{}`))
		}))
		defer srv.Close()

		_, err := newClient(srv.URL).CreateTicket(ctx, sampleContent())

		Expect(err).To(HaveOccurred())
		Expect(IsTransient(err)).To(BeFalse())
	})

	It("treats connection failures as transient", func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		srv.Close()

		_, err := newClient(srv.URL).CreateTicket(ctx, sampleContent())

		Expect(err).To(HaveOccurred())
		Expect(IsTransient(err)).To(BeTrue())
		Expect(sleep.delays).To(HaveLen(2))
	})
})
