package mpc_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/atlaswatch/api/pkg/mpc"
	"github.com/atlaswatch/api/pkg/upstream"
)

var _ = Describe("Client", func() {
	var (
		server  *httptest.Server
		handler http.HandlerFunc
		client  *mpc.Client
	)

	BeforeEach(func() {
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			handler(w, r)
		}))
		client = mpc.NewClient(server.URL, 5*time.Second)
	})

	AfterEach(func() {
		server.Close()
	})

	It("should send the designators and return the JSON document", func() {
		var got map[string][]string
		handler = func(w http.ResponseWriter, r *http.Request) {
			defer GinkgoRecover()
			Expect(r.URL.Path).To(Equal("/api/get-obs"))
			body, err := io.ReadAll(r.Body)
			Expect(err).ToNot(HaveOccurred())
			Expect(json.Unmarshal(body, &got)).To(Succeed())
			_, _ = w.Write([]byte(`[{"ADES_DF": [{"obsTime": "2025-07-01T00:00:00Z"}]}]`))
		}

		doc, err := client.Observations(context.Background(), "3I", "C/2025 N1")

		Expect(err).ToNot(HaveOccurred())
		Expect(string(doc)).To(ContainSubstring("obsTime"))
		Expect(got["desigs"]).To(Equal([]string{"3I", "C/2025 N1"}))
		Expect(got["output_format"]).To(Equal([]string{"ADES_DF"}))
	})

	It("should treat a non-2xx status as a miss", func() {
		handler = func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
		}

		_, err := client.Observations(context.Background(), "3I")

		Expect(err).To(MatchError(upstream.ErrMiss))
	})

	It("should treat an empty body as a miss", func() {
		handler = func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}

		_, err := client.Observations(context.Background(), "3I")

		Expect(err).To(MatchError(upstream.ErrMiss))
	})

	It("should report unreachable when the server is gone", func() {
		server.Close()

		_, err := client.Observations(context.Background(), "3I")

		Expect(err).To(MatchError(upstream.ErrUnreachable))
	})

	It("should refuse an empty designator list", func() {
		_, err := client.Observations(context.Background())

		Expect(err).To(MatchError(upstream.ErrMiss))
	})
})
