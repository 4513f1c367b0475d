package httpapi

import (
	"bytes"
	"encoding/json"
	"math"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shazoom/config"
	"shazoom/internal/applog"
	"shazoom/store/memtest"
)

func sineWAVBytes(t *testing.T, freqHz float64, sampleRate, seconds int) []byte {
	t.Helper()
	var buf bytes.Buffer
	enc := wav.NewEncoder(&buf, sampleRate, 16, 1, 1)
	numSamples := sampleRate * seconds
	data := make([]int, numSamples)
	for i := range data {
		data[i] = int(math.Sin(2*math.Pi*freqHz*float64(i)/float64(sampleRate)) * 30000)
	}
	require.NoError(t, enc.Write(&goaudio.IntBuffer{
		Format: &goaudio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:   data,
	}))
	require.NoError(t, enc.Close())
	return buf.Bytes()
}

func multipartUpload(t *testing.T, fields map[string]string, fileField, fileName string, fileBytes []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	part, err := w.CreateFormFile(fileField, fileName)
	require.NoError(t, err)
	_, err = part.Write(fileBytes)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return body, w.FormDataContentType()
}

func newTestServer() *Server {
	s := memtest.New()
	return New(s, config.DefaultExtractorConfig(), config.DefaultMatcherConfig(), applog.New(0))
}

func TestIngestThenListAndGet(t *testing.T) {
	srv := newTestServer()
	mux := srv.Routes()

	body, ct := multipartUpload(t, map[string]string{"title": "Tone", "artist": "Tester"}, "file", "tone.wav", sineWAVBytes(t, 1000, 22050, 8))
	req := httptest.NewRequest(http.MethodPost, "/recordings", body)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	var ingestResp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ingestResp))
	assert.NotZero(t, ingestResp["recording_id"])

	listReq := httptest.NewRequest(http.MethodGet, "/recordings", nil)
	listRec := httptest.NewRecorder()
	mux.ServeHTTP(listRec, listReq)
	require.Equal(t, http.StatusOK, listRec.Code)

	var recs []map[string]any
	require.NoError(t, json.Unmarshal(listRec.Body.Bytes(), &recs))
	require.Len(t, recs, 1)
}

func TestIngestMissingFieldsRejected(t *testing.T) {
	srv := newTestServer()
	mux := srv.Routes()

	body, ct := multipartUpload(t, map[string]string{}, "file", "tone.wav", sineWAVBytes(t, 1000, 22050, 2))
	req := httptest.NewRequest(http.MethodPost, "/recordings", body)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestIdentifyNoMatchReturnsMatchedFalse(t *testing.T) {
	srv := newTestServer()
	mux := srv.Routes()

	body, ct := multipartUpload(t, nil, "file", "tone.wav", sineWAVBytes(t, 2000, 22050, 5))
	req := httptest.NewRequest(http.MethodPost, "/identify", body)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, false, resp["matched"])
}

func TestStatsEndpoint(t *testing.T) {
	srv := newTestServer()
	mux := srv.Routes()

	req := httptest.NewRequest(http.MethodGet, "/stats", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var stats map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.EqualValues(t, 0, stats["RecordingCount"])
}

func TestGetMissingRecordingReturnsNotFound(t *testing.T) {
	srv := newTestServer()
	mux := srv.Routes()

	req := httptest.NewRequest(http.MethodGet, "/recordings/999", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
