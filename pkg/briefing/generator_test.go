package briefing_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/mock"

	"github.com/atlaswatch/api/pkg/briefing"
)

const briefingSchema = `{
	"type": "object",
	"properties": {
		"summary": {"type": "string"},
		"distanceAU": {"type": "number"}
	},
	"required": ["summary", "distanceAU"],
	"additionalProperties": false
}`

type mockChatClient struct {
	mock.Mock
}

func (m *mockChatClient) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(openai.ChatCompletionResponse), args.Error(1)
}

func completion(content string) openai.ChatCompletionResponse {
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: content}},
		},
	}
}

var _ = Describe("Generator", func() {
	var (
		client *mockChatClient
		gen    *briefing.Generator
		ctx    context.Context
	)

	BeforeEach(func() {
		client = &mockChatClient{}
		client.Test(GinkgoT())
		gen = briefing.NewGeneratorWithClient(client, "", 0)
		ctx = context.Background()
	})

	AfterEach(func() {
		client.AssertExpectations(GinkgoT())
	})

	It("should return output that conforms to the schema", func() {
		client.On("CreateChatCompletion", mock.Anything, mock.MatchedBy(func(req openai.ChatCompletionRequest) bool {
			return req.Model == briefing.DefaultModel &&
				req.Temperature == float32(briefing.DefaultTemperature) &&
				len(req.Messages) == 2 &&
				req.Messages[0].Role == openai.ChatMessageRoleSystem &&
				req.Messages[1].Content == "Summarize 3I/ATLAS" &&
				req.ResponseFormat.Type == openai.ChatCompletionResponseFormatTypeJSONSchema &&
				req.ResponseFormat.JSONSchema.Name == "mission_briefing" &&
				req.ResponseFormat.JSONSchema.Strict
		})).Return(completion(`{"summary":"inbound","distanceAU":1.38}`), nil).Once()

		out, err := gen.Generate(ctx, briefing.Request{
			Prompt:         "Summarize 3I/ATLAS",
			ResponseSchema: json.RawMessage(briefingSchema),
		})

		Expect(err).ToNot(HaveOccurred())
		Expect(out).To(MatchJSON(`{"summary":"inbound","distanceAU":1.38}`))
	})

	It("should reject output missing a required field", func() {
		client.On("CreateChatCompletion", mock.Anything, mock.Anything).
			Return(completion(`{"summary":"inbound"}`), nil).Once()

		_, err := gen.Generate(ctx, briefing.Request{Prompt: "p", ResponseSchema: json.RawMessage(briefingSchema)})

		Expect(err).To(MatchError(briefing.ErrMalformedOutput))
	})

	It("should reject output that is not JSON", func() {
		client.On("CreateChatCompletion", mock.Anything, mock.Anything).
			Return(completion(`The comet is inbound.`), nil).Once()

		_, err := gen.Generate(ctx, briefing.Request{Prompt: "p", ResponseSchema: json.RawMessage(briefingSchema)})

		Expect(err).To(MatchError(briefing.ErrMalformedOutput))
	})

	It("should report an empty completion", func() {
		client.On("CreateChatCompletion", mock.Anything, mock.Anything).
			Return(openai.ChatCompletionResponse{}, nil).Once()

		_, err := gen.Generate(ctx, briefing.Request{Prompt: "p", ResponseSchema: json.RawMessage(briefingSchema)})

		Expect(err).To(MatchError(briefing.ErrEmptyResponse))
	})

	It("should not call the model with an unusable schema", func() {
		_, err := gen.Generate(ctx, briefing.Request{Prompt: "p", ResponseSchema: json.RawMessage(`{"type":`)})

		Expect(err).To(MatchError(briefing.ErrInvalidSchema))
		client.AssertNotCalled(GinkgoT(), "CreateChatCompletion", mock.Anything, mock.Anything)
	})

	It("should map an unknown client failure to 500", func() {
		client.On("CreateChatCompletion", mock.Anything, mock.Anything).
			Return(openai.ChatCompletionResponse{}, errors.New("boom")).Once()

		_, err := gen.Generate(ctx, briefing.Request{Prompt: "p", ResponseSchema: json.RawMessage(briefingSchema)})

		var upErr *briefing.UpstreamError
		Expect(errors.As(err, &upErr)).To(BeTrue())
		Expect(upErr.Status).To(Equal(http.StatusInternalServerError))
	})
})

var _ = Describe("Generator against the API", func() {
	var (
		server *httptest.Server
		status int
		body   string
		sent   map[string]any
	)

	BeforeEach(func() {
		sent = nil
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, _ := io.ReadAll(r.Body)
			_ = json.Unmarshal(raw, &sent)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(status)
			_, _ = w.Write([]byte(body))
		}))
	})

	AfterEach(func() {
		server.Close()
	})

	newGenerator := func() *briefing.Generator {
		return briefing.NewGenerator(briefing.Config{APIKey: "test-key", BaseURL: server.URL + "/v1"})
	}

	It("should send the schema as a strict response format", func() {
		status = http.StatusOK
		body = `{"id":"c1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"{\"summary\":\"ok\",\"distanceAU\":2}"},"finish_reason":"stop"}],"usage":{"prompt_tokens":10,"completion_tokens":5,"total_tokens":15}}`

		out, err := newGenerator().Generate(context.Background(), briefing.Request{
			Prompt:         "p",
			ResponseSchema: json.RawMessage(briefingSchema),
		})

		Expect(err).ToNot(HaveOccurred())
		Expect(out).To(MatchJSON(`{"summary":"ok","distanceAU":2}`))
		Expect(sent).To(HaveKeyWithValue("model", "gpt-4o-mini"))
		format, ok := sent["response_format"].(map[string]any)
		Expect(ok).To(BeTrue())
		Expect(format).To(HaveKeyWithValue("type", "json_schema"))
	})

	DescribeTable("should map API failures to caller statuses",
		func(apiStatus, want int) {
			status = apiStatus
			body = `{"error":{"message":"failure","type":"api_error"}}`

			_, err := newGenerator().Generate(context.Background(), briefing.Request{
				Prompt:         "p",
				ResponseSchema: json.RawMessage(briefingSchema),
			})

			var upErr *briefing.UpstreamError
			Expect(errors.As(err, &upErr)).To(BeTrue())
			Expect(upErr.Status).To(Equal(want))
		},
		Entry("invalid key", http.StatusUnauthorized, http.StatusUnauthorized),
		Entry("rate limited", http.StatusTooManyRequests, http.StatusTooManyRequests),
		Entry("server error", http.StatusInternalServerError, http.StatusServiceUnavailable),
		Entry("unavailable", http.StatusServiceUnavailable, http.StatusServiceUnavailable),
		Entry("bad request", http.StatusBadRequest, http.StatusBadRequest),
		Entry("other", http.StatusForbidden, http.StatusInternalServerError),
	)
})
