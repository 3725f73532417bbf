package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chynybekuuludastan/sitecloner/internal/models"
	"github.com/chynybekuuludastan/sitecloner/internal/service/embed"
	"github.com/chynybekuuludastan/sitecloner/internal/service/fetcher"
	"github.com/chynybekuuludastan/sitecloner/internal/service/llm"
	"github.com/chynybekuuludastan/sitecloner/internal/service/pipeline"
	"github.com/chynybekuuludastan/sitecloner/internal/service/schema"
	"github.com/chynybekuuludastan/sitecloner/internal/service/screenshot"
)

type fakePipeline struct {
	out   *pipeline.Output
	err   error
	req   models.GenerationRequest
	debug bool
	calls int
}

func (f *fakePipeline) Generate(_ context.Context, req models.GenerationRequest, debug bool) (*pipeline.Output, error) {
	f.calls++
	f.req = req
	f.debug = debug
	return f.out, f.err
}

type fakeCapturer struct {
	png    []byte
	cached bool
	err    error
	target string
	opts   screenshot.Options
}

func (f *fakeCapturer) Capture(_ context.Context, target string, opts screenshot.Options) ([]byte, bool, error) {
	f.target = target
	f.opts = opts
	return f.png, f.cached, f.err
}

type fakeChecker struct {
	result embed.Result
	target string
}

func (f *fakeChecker) CanEmbed(_ context.Context, target string) embed.Result {
	f.target = target
	return f.result
}

func newGenerateApp(p Generator) *fiber.App {
	app := fiber.New()
	h := NewGenerateHandler(p, 0, nil)
	app.Post("/api/analyze", h.Generate)
	return app
}

func newPreviewApp(c Capturer, e EmbedChecker) *fiber.App {
	app := fiber.New()
	h := NewPreviewHandler(c, e, 0, nil)
	app.Get("/api/screenshot", h.Screenshot)
	app.Get("/api/can-embed", h.CanEmbed)
	return app
}

func postJSON(t *testing.T, app *fiber.App, path, body string) (*http.Response, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp, decode(t, resp)
}

func get(t *testing.T, app *fiber.App, path string) *http.Response {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil), -1)
	require.NoError(t, err)
	return resp
}

func decode(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	defer resp.Body.Close()
	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func TestGenerateSuccess(t *testing.T) {
	p := &fakePipeline{out: &pipeline.Output{
		TemplateID:    "digital-marketing/maxreach",
		Meta:          models.PageMeta{Title: "Acme", Description: "We do things"},
		SiteContent:   json.RawMessage(`{"header":{"logoText":"Acme"}}`),
		SiteContentJS: "// Generated via digital-marketing/maxreach",
	}}
	app := newGenerateApp(p)

	resp, body := postJSON(t, app, "/api/analyze", `{"industry":"digital-marketing","companyName":"Acme"}`)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "digital-marketing/maxreach", body["templateId"])
	assert.Equal(t, "Acme", body["meta"].(map[string]interface{})["title"])
	assert.Contains(t, body, "siteContent")
	assert.Contains(t, body, "siteContentJs")
	assert.NotContains(t, body, "_debug")

	assert.Equal(t, "Acme", p.req.CompanyName)
	assert.False(t, p.debug)
}

func TestGenerateDebugFlag(t *testing.T) {
	for query, want := range map[string]bool{"?debug=true": true, "?debug=1": true, "?debug=false": false, "": false} {
		p := &fakePipeline{out: &pipeline.Output{}}
		resp, _ := postJSON(t, newGenerateApp(p), "/api/analyze"+query, `{"industry":"x","companyName":"y"}`)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, want, p.debug, query)
	}
}

func TestGenerateInvalidBody(t *testing.T) {
	p := &fakePipeline{}
	resp, body := postJSON(t, newGenerateApp(p), "/api/analyze", `{"industry":`)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, pipeline.CategoryInput, body["category"])
	assert.Zero(t, p.calls)
}

func TestGenerateErrorMapping(t *testing.T) {
	genErr := &llm.GenerationError{
		ParseErr: llm.ErrEmptyOutput,
		RawText:  "not json",
		SavedTo:  "last-model-output.txt",
		Response: &llm.Response{ID: "resp_1", Model: "gpt-4.1-mini", Status: "completed"},
	}
	validationErr := &pipeline.ValidationFailure{
		ValidationError: &schema.ValidationError{
			Result: schema.Result{Errors: []schema.ErrorDetail{{InstancePath: "/faq", Message: "too few items"}}},
			Keys:   []string{"header", "faq"},
		},
		UsedStructured: true,
		OutputText:     `{"header":{}}`,
	}

	tests := []struct {
		name       string
		err        error
		debug      bool
		wantStatus int
		wantBody   map[string]interface{}
		absent     []string
	}{
		{
			name:       "missing industry",
			err:        &pipeline.InputError{Message: pipeline.MsgIndustryRequired},
			wantStatus: http.StatusBadRequest,
			wantBody:   map[string]interface{}{"error": "industry required", "category": "input_error"},
		},
		{
			name:       "missing source",
			err:        &pipeline.InputError{Message: pipeline.MsgMissingSource},
			wantStatus: http.StatusBadRequest,
			wantBody:   map[string]interface{}{"error": "Provide either url or companyName"},
		},
		{
			name:       "invalid json",
			err:        genErr,
			wantStatus: http.StatusInternalServerError,
			wantBody:   map[string]interface{}{"error": "Model returned invalid JSON", "category": "generation_error"},
			absent:     []string{"jsonError", "savedTo", "output_text", "raw"},
		},
		{
			name:       "invalid json with debug",
			err:        genErr,
			debug:      true,
			wantStatus: http.StatusInternalServerError,
			wantBody: map[string]interface{}{
				"error":       "Model returned invalid JSON",
				"savedTo":     "last-model-output.txt",
				"output_text": "not json",
				"jsonError":   llm.ErrEmptyOutput.Error(),
			},
		},
		{
			name:       "validation failed",
			err:        validationErr,
			wantStatus: http.StatusUnprocessableEntity,
			wantBody:   map[string]interface{}{"error": "Validation failed", "category": "validation_error"},
			absent:     []string{"issues", "receivedKeys", "usedStructured"},
		},
		{
			name:       "validation failed with debug",
			err:        validationErr,
			debug:      true,
			wantStatus: http.StatusUnprocessableEntity,
			wantBody:   map[string]interface{}{"usedStructured": true, "output_text": `{"header":{}}`},
		},
		{
			name:       "fetch failure",
			err:        &fetcher.FetchError{URL: "https://example.com", Code: "ETIMEDOUT", Err: errors.New("timeout")},
			wantStatus: http.StatusInternalServerError,
			wantBody:   map[string]interface{}{"error": "Analyze failed", "category": "fetch_error"},
		},
		{
			name:       "budget exceeded",
			err:        llm.ErrBudgetExceeded,
			wantStatus: http.StatusInternalServerError,
			wantBody:   map[string]interface{}{"error": "Analyze failed", "category": "generation_error", "details": llm.ErrBudgetExceeded.Error()},
		},
		{
			name:       "internal",
			err:        errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
			wantBody:   map[string]interface{}{"error": "Analyze failed", "category": "internal_error", "details": "boom"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := "/api/analyze"
			if tt.debug {
				path += "?debug=true"
			}
			resp, body := postJSON(t, newGenerateApp(&fakePipeline{err: tt.err}), path, `{"industry":"x","url":"https://example.com"}`)

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			for k, v := range tt.wantBody {
				assert.Equal(t, v, body[k], k)
			}
			for _, k := range tt.absent {
				assert.NotContains(t, body, k)
			}
		})
	}
}

func TestGenerateDebugDetails(t *testing.T) {
	t.Run("raw response", func(t *testing.T) {
		err := &llm.GenerationError{
			ParseErr: errors.New("unexpected end of JSON input"),
			Response: &llm.Response{ID: "resp_1", Model: "gpt-4.1-mini", Status: "completed", Output: json.RawMessage(`[]`)},
		}
		_, body := postJSON(t, newGenerateApp(&fakePipeline{err: err}), "/api/analyze?debug=true", `{}`)

		raw := body["raw"].(map[string]interface{})
		assert.Equal(t, "resp_1", raw["id"])
		assert.Equal(t, "gpt-4.1-mini", raw["model"])
		assert.Equal(t, []interface{}{}, raw["output"])
	})

	t.Run("validation issues", func(t *testing.T) {
		err := &pipeline.ValidationFailure{
			ValidationError: &schema.ValidationError{
				Result: schema.Result{Errors: []schema.ErrorDetail{{InstancePath: "/faq/items", KeywordLocation: "/properties/faq", Message: "minItems"}}},
				Keys:   []string{"header"},
			},
		}
		_, body := postJSON(t, newGenerateApp(&fakePipeline{err: err}), "/api/analyze?debug=true", `{}`)

		issues := body["issues"].([]interface{})
		require.Len(t, issues, 1)
		assert.Equal(t, "/faq/items", issues[0].(map[string]interface{})["instancePath"])
		assert.Equal(t, []interface{}{"header"}, body["receivedKeys"])
	})
}

func TestScreenshot(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\n")

	t.Run("missing url", func(t *testing.T) {
		resp := get(t, newPreviewApp(&fakeCapturer{}, &fakeChecker{}), "/api/screenshot")
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "URL parameter required", decode(t, resp)["error"])
	})

	t.Run("renders png", func(t *testing.T) {
		c := &fakeCapturer{png: png}
		resp := get(t, newPreviewApp(c, &fakeChecker{}), "/api/screenshot?url=example.com&fullPage=false&width=1440&delay=500")

		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
		assert.Equal(t, "public, max-age=3600", resp.Header.Get("Cache-Control"))
		assert.Equal(t, "MISS", resp.Header.Get("X-Cache"))
		data, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.True(t, bytes.Equal(png, data))

		assert.Equal(t, "https://example.com", c.target)
		assert.False(t, c.opts.FullPage)
		assert.Equal(t, 1440, c.opts.Width)
	})

	t.Run("cache hit header", func(t *testing.T) {
		resp := get(t, newPreviewApp(&fakeCapturer{png: png, cached: true}, &fakeChecker{}), "/api/screenshot?url=https://example.com")
		assert.Equal(t, "HIT", resp.Header.Get("X-Cache"))
	})

	t.Run("render failure", func(t *testing.T) {
		c := &fakeCapturer{err: &screenshot.RenderError{URL: "https://example.com", Err: errors.New("net::ERR_NAME_NOT_RESOLVED")}}
		resp := get(t, newPreviewApp(c, &fakeChecker{}), "/api/screenshot?url=https://example.com")

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		body := decode(t, resp)
		assert.Equal(t, "Failed to take screenshot", body["error"])
		assert.Equal(t, "https://example.com", body["url"])
		assert.Equal(t, "render_error", body["category"])
		assert.Contains(t, body["details"], "ERR_NAME_NOT_RESOLVED")
	})
}

func TestCanEmbed(t *testing.T) {
	t.Run("missing url", func(t *testing.T) {
		resp := get(t, newPreviewApp(&fakeCapturer{}, &fakeChecker{}), "/api/can-embed")
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("returns checker verdict", func(t *testing.T) {
		xfo := "DENY"
		checker := &fakeChecker{result: embed.Result{Reasons: embed.Reasons{XFrameOptions: &xfo}}}
		resp := get(t, newPreviewApp(&fakeCapturer{}, checker), "/api/can-embed?url=example.com")

		require.Equal(t, http.StatusOK, resp.StatusCode)
		body := decode(t, resp)
		assert.Equal(t, false, body["embeddable"])
		assert.Equal(t, map[string]interface{}{"xFrameOptions": "DENY"}, body["reasons"])
		assert.Equal(t, "https://example.com", checker.target)
	})
}

func TestHealth(t *testing.T) {
	app := fiber.New()
	app.Get("/health", Health)

	resp := get(t, app, "/health")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode(t, resp)
	assert.Equal(t, "ok", body["status"])
	assert.NotEmpty(t, body["timestamp"])
}
