package handler

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"testing/fstest"
	"time"

	"github.com/DukeRupert/multitenancy/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderer_LoadsEmbeddedPages(t *testing.T) {
	r, err := NewRendererFromFS(Templates(), newTestLogger())
	require.NoError(t, err)

	assert.ElementsMatch(t,
		[]string{"signup", "home", "billing_welcome", "billing_failed", "billing_hosted"},
		r.ListTemplates())
}

func TestRenderer_PagesDoNotShareBlocks(t *testing.T) {
	fsys := fstest.MapFS{
		"layouts/base.html": {Data: []byte(`{{define "base"}}[{{template "content" .}}]{{end}}`)},
		"pages/a.html":      {Data: []byte(`{{define "content"}}A {{.}}{{end}}`)},
		"pages/b.html":      {Data: []byte(`{{define "content"}}B {{.}}{{end}}`)},
	}
	r, err := NewRendererFromFS(fsys, newTestLogger())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, r.Render(&buf, "a", "one"))
	assert.Equal(t, "[A one]", buf.String())

	buf.Reset()
	require.NoError(t, r.Render(&buf, "b", "<two>"))
	assert.Equal(t, "[B &lt;two&gt;]", buf.String())
}

func TestRenderer_UnknownPage(t *testing.T) {
	r, err := NewRendererFromFS(Templates(), newTestLogger())
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	r.RenderHTTP(rec, http.StatusOK, "missing", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestRenderer_BrokenLayout(t *testing.T) {
	fsys := fstest.MapFS{
		"layouts/base.html": {Data: []byte(`{{define "base"}}{{end`)},
	}
	_, err := NewRendererFromFS(fsys, newTestLogger())
	assert.Error(t, err)
}

func TestTemplateFuncs(t *testing.T) {
	funcs := TemplateFuncs()

	title := funcs["title"].(func(any) string)
	assert.Equal(t, "Startup", title("startup"))
	assert.Equal(t, "Enterprise Plus", title("enterprise plus"))

	formatDate := funcs["formatDate"].(func(any) string)
	d := time.Date(2026, 10, 14, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "Oct 14, 2026", formatDate(d))
	assert.Equal(t, "Oct 14, 2026", formatDate(&d))
	assert.Equal(t, "", formatDate((*time.Time)(nil)))
	assert.Equal(t, "", formatDate(time.Time{}))

	billing := &domain.BillingStatus{BillingPeriodEnds: &d}
	assert.Equal(t, "Oct 14, 2026", formatDate(billing.BillingPeriodEnds))
}
