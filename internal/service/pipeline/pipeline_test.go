package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chynybekuuludastan/sitecloner/internal/models"
	"github.com/chynybekuuludastan/sitecloner/internal/service/fetcher"
	"github.com/chynybekuuludastan/sitecloner/internal/service/llm"
	"github.com/chynybekuuludastan/sitecloner/internal/service/llm/prompts"
	"github.com/chynybekuuludastan/sitecloner/internal/service/schema"
	"github.com/chynybekuuludastan/sitecloner/internal/testutil"
)

type fakeFetcher struct {
	calls int
	page  *fetcher.PageExtract
	err   error
}

func (f *fakeFetcher) FetchReadable(context.Context, string) (*fetcher.PageExtract, error) {
	f.calls++
	return f.page, f.err
}

type fakeGenerator struct {
	prompts []string
	content []byte
	err     error
}

func (g *fakeGenerator) Generate(_ context.Context, req llm.Request) (*llm.Result, error) {
	g.prompts = append(g.prompts, req.Prompt)
	if g.err != nil {
		return nil, g.err
	}
	return &llm.Result{
		Content:        g.content,
		UsedStructured: true,
		RawOutputText:  string(g.content),
		Response:       &llm.Response{OutputItems: 1},
	}, nil
}

type recordingReporter struct {
	mu     sync.Mutex
	events []Event
}

func (r *recordingReporter) Publish(_ string, e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recordingReporter) stages() []string {
	var out []string
	for _, e := range r.events {
		out = append(out, e.Stage)
	}
	return out
}

func newTestService(t *testing.T, f *fakeFetcher, g *fakeGenerator, reporter Reporter) *Service {
	t.Helper()
	validator, err := schema.NewValidator(prompts.DefaultTemplateID)
	require.NoError(t, err)
	svc, err := New(f, prompts.DefaultRegistry(), g, validator, Options{Reporter: reporter})
	require.NoError(t, err)
	return svc
}

func TestSeedModeNeverFetches(t *testing.T) {
	f := &fakeFetcher{}
	g := &fakeGenerator{content: testutil.SiteContentJSON()}
	reporter := &recordingReporter{}
	svc := newTestService(t, f, g, reporter)

	out, err := svc.Generate(context.Background(), models.GenerationRequest{
		Industry:    "digital-marketing",
		CompanyName: "Acme",
		JobID:       "job-1",
	}, false)
	require.NoError(t, err)

	assert.Equal(t, 0, f.calls)
	require.Len(t, g.prompts, 1)
	assert.Contains(t, g.prompts[0], "Acme")
	assert.Contains(t, g.prompts[0], "digital-marketing")

	require.NotNil(t, out.Content)
	assert.Len(t, out.Content.FAQ.FAQItems, 8)
	assert.Len(t, out.Content.Testimonials.Testimonials, 3)
	assert.Nil(t, out.Debug)
	assert.Equal(t, models.PageMeta{}, out.Meta)
	assert.Equal(t, prompts.DefaultTemplateID, out.TemplateID)

	assert.True(t, strings.HasPrefix(out.SiteContentJS,
		"// Generated via digital-marketing/maxreach for: Acme (industry: digital-marketing)\nexport const siteContent = {\n  \"header\""))
	assert.True(t, strings.HasSuffix(out.SiteContentJS, "};\nexport default siteContent;"))

	assert.Equal(t, []string{StagePrompting, StageGenerating, StageValidating, StageCompleted}, reporter.stages())
}

func TestURLModeFetchesAndEchoesMeta(t *testing.T) {
	f := &fakeFetcher{page: &fetcher.PageExtract{Title: "Example Co", MetaDescription: "We do things", Text: "Body text"}}
	g := &fakeGenerator{content: testutil.SiteContentJSON()}
	svc := newTestService(t, f, g, nil)

	out, err := svc.Generate(context.Background(), models.GenerationRequest{
		Industry:    " saas ",
		URL:         "example.com",
		CompanyName: "Ignored Inc",
	}, true)
	require.NoError(t, err)

	assert.Equal(t, 1, f.calls)
	assert.Equal(t, models.PageMeta{Title: "Example Co", Description: "We do things"}, out.Meta)
	assert.Contains(t, g.prompts[0], "Body text")
	assert.Contains(t, out.SiteContentJS, "from: example.com (industry: saas)")

	require.NotNil(t, out.Debug)
	assert.True(t, out.Debug.UsedStructured)
	assert.Equal(t, 1, out.Debug.RawOutputItems)
}

func TestInputErrors(t *testing.T) {
	tests := []struct {
		name string
		req  models.GenerationRequest
		msg  string
	}{
		{name: "missing industry", req: models.GenerationRequest{CompanyName: "Acme"}, msg: MsgIndustryRequired},
		{name: "blank industry", req: models.GenerationRequest{Industry: "  ", URL: "example.com"}, msg: MsgIndustryRequired},
		{name: "no source", req: models.GenerationRequest{Industry: "saas"}, msg: MsgMissingSource},
		{name: "bad url", req: models.GenerationRequest{Industry: "saas", URL: "http://exa mple.com"}, msg: MsgInvalidURL},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &fakeFetcher{}
			g := &fakeGenerator{}
			reporter := &recordingReporter{}
			svc := newTestService(t, f, g, reporter)

			req := tt.req
			req.JobID = "job"
			_, err := svc.Generate(context.Background(), req, false)

			var inputErr *InputError
			require.ErrorAs(t, err, &inputErr)
			assert.Equal(t, tt.msg, inputErr.Message)
			assert.Equal(t, CategoryInput, Categorize(err))
			assert.Zero(t, f.calls)
			assert.Empty(t, g.prompts)
			assert.Equal(t, []string{StageFailed}, reporter.stages())
		})
	}
}

func TestValidationFailure(t *testing.T) {
	content := testutil.SiteContentMap()
	delete(content, "faq")
	g := &fakeGenerator{content: testutil.MustJSON(content)}
	svc := newTestService(t, &fakeFetcher{}, g, nil)

	_, err := svc.Generate(context.Background(), models.GenerationRequest{Industry: "saas", CompanyName: "Acme"}, true)

	var failure *ValidationFailure
	require.ErrorAs(t, err, &failure)
	assert.True(t, failure.UsedStructured)
	assert.NotEmpty(t, failure.Result.Errors)
	assert.NotContains(t, failure.Keys, "faq")
	assert.Contains(t, failure.Keys, "hero")

	var schemaErr *schema.ValidationError
	assert.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, CategoryValidation, Categorize(err))
}

func TestIntegralFloatsDecode(t *testing.T) {
	content := strings.Replace(string(testutil.SiteContentJSON()), `"rating": 5,`, `"rating": 5.0,`, 1)
	content = strings.Replace(content, `"id": 1,`, `"id": 1.0,`, 1)
	require.Contains(t, content, `"rating": 5.0,`)
	g := &fakeGenerator{content: []byte(content)}
	svc := newTestService(t, &fakeFetcher{}, g, nil)

	out, err := svc.Generate(context.Background(), models.GenerationRequest{Industry: "saas", CompanyName: "Acme"}, false)
	require.NoError(t, err)

	assert.Equal(t, models.WholeNumber(5), out.Content.Testimonials.Testimonials[0].Rating)
	assert.Equal(t, models.WholeNumber(1), out.Content.FAQ.FAQItems[0].ID)
}

func TestFetchAndGenerationErrorsPropagate(t *testing.T) {
	fetchErr := &fetcher.FetchError{URL: "example.com", Code: "ENOTFOUND", Err: errors.New("no such host")}
	svc := newTestService(t, &fakeFetcher{err: fetchErr}, &fakeGenerator{}, nil)
	_, err := svc.Generate(context.Background(), models.GenerationRequest{Industry: "saas", URL: "example.com"}, false)
	assert.ErrorIs(t, err, fetchErr)
	assert.Equal(t, CategoryFetch, Categorize(err))

	genErr := &llm.GenerationError{ParseErr: errors.New("unexpected end of JSON input")}
	svc = newTestService(t, &fakeFetcher{}, &fakeGenerator{err: genErr}, nil)
	_, err = svc.Generate(context.Background(), models.GenerationRequest{Industry: "saas", CompanyName: "Acme"}, false)
	assert.Equal(t, CategoryGeneration, Categorize(err))

	assert.Equal(t, CategoryGeneration, Categorize(llm.ErrBudgetExceeded))
	assert.Equal(t, CategoryInternal, Categorize(errors.New("boom")))
}

func TestUnknownTemplate(t *testing.T) {
	validator, err := schema.NewValidator(prompts.DefaultTemplateID)
	require.NoError(t, err)
	_, err = New(&fakeFetcher{}, prompts.DefaultRegistry(), &fakeGenerator{}, validator, Options{TemplateID: "retail/nope"})
	assert.ErrorIs(t, err, prompts.ErrUnknownTemplate)
}

func TestRenderModuleKeepsKeyOrder(t *testing.T) {
	js, err := RenderModule("t/x", models.GenerationRequest{Industry: "i"}, json.RawMessage(`{"z":1,"a":{"b":[1,2]}}`))
	require.NoError(t, err)
	assert.Equal(t, "// Generated via t/x (industry: i)\nexport const siteContent = {\n  \"z\": 1,\n  \"a\": {\n    \"b\": [\n      1,\n      2\n    ]\n  }\n};\nexport default siteContent;", js)
}
