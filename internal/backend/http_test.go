package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"hiringbuddy/internal/config"
	apperrors "hiringbuddy/internal/errors"
	"hiringbuddy/internal/types"
)

func testBackendConfig(baseURL string) config.BackendConfig {
	return config.BackendConfig{
		BaseURL:    baseURL,
		Token:      "test-token",
		Timeout:    5 * time.Second,
		MaxRetries: 2,
	}
}

func newTestClient(t *testing.T, handler http.Handler) (*HTTPClient, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	logger, err := apperrors.New("error")
	if err != nil {
		t.Fatal(err)
	}
	client := NewHTTPClient(testBackendConfig(server.URL), logger)
	t.Cleanup(func() { client.Close() })
	return client, server
}

func TestMatchResume(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != endpointMatch {
			t.Errorf("path = %s, want %s", r.URL.Path, endpointMatch)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-token" {
			t.Errorf("Authorization = %q", auth)
		}

		var payload struct {
			JD   string `json:"jd"`
			TopK int    `json:"top_k"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if payload.JD != "Backend role" || payload.TopK != 1 {
			t.Errorf("payload = %+v", payload)
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"results":[{"candidate":"resume.txt","llm_json":"{\"score\":65}"}]}`))
	}))

	results, err := client.MatchResume(context.Background(), "Backend role", 1)
	if err != nil {
		t.Fatalf("MatchResume() error = %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("len(results) = %d, want 1", len(results))
	}
	if results[0].Candidate != "resume.txt" {
		t.Errorf("Candidate = %q", results[0].Candidate)
	}
	// llm_json stays raw, whatever shape the model produced
	if string(results[0].LLMJSON) != `"{\"score\":65}"` {
		t.Errorf("LLMJSON = %s", results[0].LLMJSON)
	}
}

func TestPreviewDocumentMultipart(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		if got := r.FormValue("head_chars"); got != "1200" {
			t.Errorf("head_chars = %q", got)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("form file: %v", err)
		}
		defer file.Close()
		if header.Filename != "resume.pdf" {
			t.Errorf("filename = %q", header.Filename)
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"chars":42,"head":"Amina","full":"Amina El Fassi"}`))
	}))

	preview, err := client.PreviewDocument(context.Background(), "resume.pdf", []byte("%PDF"), 1200)
	if err != nil {
		t.Fatalf("PreviewDocument() error = %v", err)
	}
	want := types.DocumentPreview{Chars: 42, Head: "Amina", Full: "Amina El Fassi"}
	if preview != want {
		t.Errorf("preview = %+v, want %+v", preview, want)
	}
}

func TestRetryOnServerError(t *testing.T) {
	var calls atomic.Int32
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "temporarily unavailable", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"keywords":["Go","SQL"]}`))
	}))

	keywords, err := client.ExtractKeywords(context.Background(), "Backend role", "en")
	if err != nil {
		t.Fatalf("ExtractKeywords() error = %v", err)
	}
	if len(keywords) != 2 || keywords[0] != "Go" {
		t.Errorf("keywords = %v", keywords)
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("calls = %d, want 2", got)
	}
}

func TestNoRetryOnClientError(t *testing.T) {
	var calls atomic.Int32
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "bad request", http.StatusBadRequest)
	}))

	_, err := client.MatchResume(context.Background(), "jd", 1)
	if err == nil {
		t.Fatal("expected error")
	}
	if !apperrors.IsTransport(err) {
		t.Errorf("expected transport error, got %v", err)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("calls = %d, want 1 (client errors must not retry)", got)
	}
}

func TestMalformedResponseBody(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json at all`))
	}))

	_, err := client.MatchResume(context.Background(), "jd", 1)
	if err == nil {
		t.Fatal("expected error")
	}
	appErr, ok := err.(*apperrors.AppError)
	if !ok {
		t.Fatalf("expected *AppError, got %T", err)
	}
	if appErr.Code != apperrors.ErrCodePayloadMalformed {
		t.Errorf("code = %s, want %s", appErr.Code, apperrors.ErrCodePayloadMalformed)
	}
}

func TestExportDocumentReturnsRawBytes(t *testing.T) {
	blob := []byte{0x50, 0x4b, 0x03, 0x04, 0x00}
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != endpointExportDocx {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.wordprocessingml.document")
		w.Write(blob)
	}))

	req := types.ExportRequest{FullName: "Amina El Fassi"}
	got, err := client.ExportDocument(context.Background(), req)
	if err != nil {
		t.Fatalf("ExportDocument() error = %v", err)
	}
	if string(got) != string(blob) {
		t.Errorf("blob mismatch: %v", got)
	}
}

func TestEvaluateInterview(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req EvaluationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if len(req.Answers) != 1 || req.Answers[0].Answer != "" {
			t.Errorf("answers = %+v", req.Answers)
		}

		w.Write([]byte(`{"evaluation":{"per_question":[{"id":"q1","score":40,"feedback":"thin"}],"final":{"final_score":40,"strengths":[],"improvements":["depth"],"resources":[]}}}`))
	}))

	evaluation, err := client.EvaluateInterview(context.Background(), EvaluationRequest{
		Answers:  []types.InterviewAnswer{{ID: "q1", Question: "Tell me about Go", Answer: ""}},
		Language: "en",
	})
	if err != nil {
		t.Fatalf("EvaluateInterview() error = %v", err)
	}
	if evaluation.Final.FinalScore != 40 {
		t.Errorf("final score = %d", evaluation.Final.FinalScore)
	}
	if len(evaluation.PerQuestion) != 1 || evaluation.PerQuestion[0].ID != "q1" {
		t.Errorf("per question = %+v", evaluation.PerQuestion)
	}
}
