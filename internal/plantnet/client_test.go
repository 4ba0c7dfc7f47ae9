package plantnet

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBase = "https://pn.test"

func setupHTTPMock(t *testing.T) {
	t.Helper()
	httpmock.Activate()
	t.Cleanup(httpmock.DeactivateAndReset)
}

func newTestClient(t *testing.T, timeout time.Duration) *Client {
	t.Helper()
	return NewClient(Config{APIKey: "test-key", BaseURL: testBase + "/", Timeout: timeout})
}

func registerIdentify(t *testing.T, responder httpmock.Responder) {
	t.Helper()
	httpmock.RegisterResponder(http.MethodPost, `=~^https://pn\.test/v2/identify/all`, responder)
}

const monsteraPothos = `{
  "results": [
    {"score": 0.03, "species": {
      "scientificNameWithoutAuthor": "Epipremnum aureum",
      "scientificNameAuthorship": "(Linden & André) G.S.Bunting",
      "scientificName": "Epipremnum aureum (Linden & André) G.S.Bunting",
      "genus": {"scientificNameWithoutAuthor": "Epipremnum"},
      "family": {"scientificNameWithoutAuthor": "Araceae"},
      "commonNames": ["Pothos", "Golden pothos"]}},
    {"score": 0.95, "species": {
      "scientificNameWithoutAuthor": "Monstera deliciosa",
      "scientificNameAuthorship": "Liebm.",
      "scientificName": "Monstera deliciosa Liebm.",
      "genus": {"scientificNameWithoutAuthor": "Monstera"},
      "family": {"scientificNameWithoutAuthor": "Araceae"},
      "commonNames": ["Swiss cheese plant", "Monstera"]}}
  ]
}`

func TestIdentify_SortsAndNormalizes(t *testing.T) {
	setupHTTPMock(t)

	var seen atomic.Bool
	registerIdentify(t, func(req *http.Request) (*http.Response, error) {
		assert.Equal(t, "test-key", req.URL.Query().Get("api-key"))
		if !assert.NoError(t, req.ParseMultipartForm(1<<20)) {
			return httpmock.NewStringResponse(http.StatusBadRequest, ""), nil
		}
		assert.Equal(t, "auto", req.FormValue("organs"))
		f, hdr, err := req.FormFile("images")
		if !assert.NoError(t, err) {
			return httpmock.NewStringResponse(http.StatusBadRequest, ""), nil
		}
		defer f.Close()
		data, _ := io.ReadAll(f)
		assert.Equal(t, "leaf.jpg", hdr.Filename)
		assert.Equal(t, []byte("jpegbytes"), data)
		seen.Store(true)
		return httpmock.NewStringResponse(http.StatusOK, monsteraPothos), nil
	})

	got, err := newTestClient(t, time.Second).Identify(context.Background(), []byte("jpegbytes"), "uploads/leaf.jpg")
	require.NoError(t, err)
	require.True(t, seen.Load())
	require.Len(t, got, 2)

	top := got[0]
	assert.Equal(t, "Swiss cheese plant", top.Name)
	assert.Equal(t, "Monstera deliciosa", top.ScientificName)
	assert.Equal(t, "Monstera deliciosa Liebm.", top.ScientificNameAuthor)
	assert.Equal(t, "Monstera", top.Genus)
	assert.Equal(t, "Araceae", top.Family)
	assert.Equal(t, []string{"Swiss cheese plant", "Monstera"}, top.CommonNames)
	assert.InDelta(t, 0.95, top.Confidence, 1e-9)
	assert.Equal(t, "Pothos", got[1].Name)
}

func TestIdentify_StableForTiesAndClamped(t *testing.T) {
	setupHTTPMock(t)
	registerIdentify(t, httpmock.NewStringResponder(http.StatusOK, `{"results":[
		{"score": 0.4, "species": {"scientificNameWithoutAuthor": "Alpha one", "commonNames": []}},
		{"score": 1.7, "species": {"scientificNameWithoutAuthor": "Beta two"}},
		{"score": 0.4, "species": {"scientificNameWithoutAuthor": "Gamma three", "commonNames": ["  "]}},
		{"score": -0.2, "species": {"scientificNameWithoutAuthor": "Delta four"}}
	]}`))

	got, err := newTestClient(t, time.Second).Identify(context.Background(), []byte("x"), "")
	require.NoError(t, err)

	names := make([]string, 0, len(got))
	for _, c := range got {
		names = append(names, c.Name)
		assert.GreaterOrEqual(t, c.Confidence, 0.0)
		assert.LessOrEqual(t, c.Confidence, 1.0)
	}
	// scientific name stands in when there is no usable common name
	assert.Equal(t, []string{"Beta two", "Alpha one", "Gamma three", "Delta four"}, names)
	assert.InDelta(t, 1.0, got[0].Confidence, 0)
	assert.InDelta(t, 0.0, got[3].Confidence, 0)
	assert.Empty(t, got[2].CommonNames)
}

func TestIdentify_Failures(t *testing.T) {
	tests := []struct {
		name      string
		responder httpmock.Responder
		check     func(t *testing.T, err error)
	}{
		{
			name:      "non-success status",
			responder: httpmock.NewStringResponder(http.StatusUnauthorized, `{"message":"Invalid api key"}`),
			check: func(t *testing.T, err error) {
				var se *StatusError
				require.ErrorAs(t, err, &se)
				assert.Equal(t, http.StatusUnauthorized, se.StatusCode)
				assert.Contains(t, se.Error(), "Invalid api key")
			},
		},
		{
			name:      "no results",
			responder: httpmock.NewStringResponder(http.StatusOK, `{"results":[]}`),
			check:     func(t *testing.T, err error) { assert.ErrorIs(t, err, ErrNoResults) },
		},
		{
			name:      "species not found",
			responder: httpmock.NewStringResponder(http.StatusNotFound, `{"message":"Species not found"}`),
			check: func(t *testing.T, err error) {
				var se *StatusError
				require.ErrorAs(t, err, &se)
				assert.Equal(t, http.StatusNotFound, se.StatusCode)
			},
		},
		{
			name:      "garbage body",
			responder: httpmock.NewStringResponder(http.StatusOK, `<html>`),
			check:     func(t *testing.T, err error) { assert.ErrorContains(t, err, "decode") },
		},
		{
			name:      "transport error",
			responder: httpmock.NewErrorResponder(errors.New("connection refused")),
			check: func(t *testing.T, err error) {
				assert.ErrorContains(t, err, "connection refused")
				assert.NotContains(t, err.Error(), "api-key")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setupHTTPMock(t)
			registerIdentify(t, tt.responder)
			got, err := newTestClient(t, time.Second).Identify(context.Background(), []byte("x"), "a.png")
			require.Error(t, err)
			assert.Nil(t, got)
			tt.check(t, err)
		})
	}
}

func TestIdentify_Timeout(t *testing.T) {
	setupHTTPMock(t)
	registerIdentify(t, func(req *http.Request) (*http.Response, error) {
		<-req.Context().Done()
		return nil, req.Context().Err()
	})

	start := time.Now()
	_, err := newTestClient(t, 50*time.Millisecond).Identify(context.Background(), []byte("x"), "a.jpg")
	require.Error(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestIdentify_Preconditions(t *testing.T) {
	c := NewClient(Config{})
	_, err := c.Identify(context.Background(), []byte("x"), "a.jpg")
	assert.ErrorIs(t, err, ErrNotConfigured)

	c = NewClient(Config{APIKey: "k"})
	_, err = c.Identify(context.Background(), nil, "a.jpg")
	assert.ErrorIs(t, err, ErrEmptyImage)
}

type countingObserver struct{ statuses []string }

func (o *countingObserver) ObserveExternalCall(api, op, status string, _ time.Duration) {
	o.statuses = append(o.statuses, api+"/"+op+"/"+status)
}

func TestIdentify_ReportsCalls(t *testing.T) {
	setupHTTPMock(t)
	registerIdentify(t, httpmock.NewStringResponder(http.StatusTooManyRequests, ``))

	obs := &countingObserver{}
	c := NewClient(Config{APIKey: "k", BaseURL: testBase}, WithObserver(obs))
	_, err := c.Identify(context.Background(), []byte("x"), "a.jpg")
	require.Error(t, err)
	assert.Equal(t, []string{"plantnet/identify/429"}, obs.statuses)
}
