package session

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/prepstage/prepstage/internal/interviewsrv/aigateway"
	"github.com/prepstage/prepstage/internal/interviewsrv/sessionstore"
	"github.com/prepstage/prepstage/internal/interviewsrv/voice"
)

func newTestServer(t *testing.T, gw aigateway.Gateway) *httptest.Server {
	t.Helper()
	m := newTestManager(t, gw, sessionstore.NewMemory(), ManagerOptions{MaxQuestions: 2})
	registry, err := voice.LoadRegistry("", "")
	require.NoError(t, err)
	agent := voice.NewAgent(gw, registry, 0)

	srv := httptest.NewServer(Router(m, agent))
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url string, body string) (*http.Response, gjson.Result) {
	t.Helper()
	rsp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { rsp.Body.Close() })

	var buf bytes.Buffer
	_, err = buf.ReadFrom(rsp.Body)
	require.NoError(t, err)
	return rsp, gjson.ParseBytes(buf.Bytes())
}

func getJSON(t *testing.T, url string) (*http.Response, gjson.Result) {
	t.Helper()
	rsp, err := http.Get(url)
	require.NoError(t, err)
	t.Cleanup(func() { rsp.Body.Close() })

	var buf bytes.Buffer
	_, err = buf.ReadFrom(rsp.Body)
	require.NoError(t, err)
	return rsp, gjson.ParseBytes(buf.Bytes())
}

func TestAPISessionLifecycle(t *testing.T) {
	gw := &aigateway.FakeGateway{GenerateErr: aigateway.ErrGeneration}
	srv := newTestServer(t, gw)

	rsp, body := postJSON(t, srv.URL+"/",
		`{"userId": "user-1", "mode": "technical", "jobType": "backend", "difficulty": "easy"}`)
	require.Equal(t, http.StatusCreated, rsp.StatusCode)
	require.True(t, body.Get("success").Bool(), body.Raw)
	id := body.Get("data.session.id").String()
	require.NotEmpty(t, id)
	assert.Equal(t, "in_progress", body.Get("data.session.status").String())
	assert.Equal(t, "/sessions/"+id, rsp.Header.Get("Location"))

	rsp, body = getJSON(t, srv.URL+"/"+id+"/question/current")
	require.Equal(t, http.StatusOK, rsp.StatusCode)
	assert.True(t, body.Get("data.question").Exists())

	rsp, body = postJSON(t, srv.URL+"/"+id+"/answer",
		`{"answerText": "I would use a hash map.", "responseTime": 12000}`)
	require.Equal(t, http.StatusOK, rsp.StatusCode)
	assert.Equal(t, "I would use a hash map.", body.Get("data.answer.text").String())

	rsp, body = postJSON(t, srv.URL+"/"+id+"/question/next", `{}`)
	require.Equal(t, http.StatusOK, rsp.StatusCode)

	rsp, body = postJSON(t, srv.URL+"/"+id+"/complete", `{}`)
	require.Equal(t, http.StatusOK, rsp.StatusCode)
	assert.Equal(t, "completed", body.Get("data.session.status").String())
	assert.True(t, body.Get("data.session.feedback.overallScore").Exists())

	rsp, body = getJSON(t, srv.URL+"/"+id+"/transcript")
	require.Equal(t, http.StatusOK, rsp.StatusCode)
	assert.Greater(t, len(body.Get("data.transcript").Array()), 0)
}

func TestAPIUnknownSessionEnvelope(t *testing.T) {
	gw := &aigateway.FakeGateway{GenerateErr: aigateway.ErrGeneration}
	srv := newTestServer(t, gw)

	rsp, body := getJSON(t, srv.URL+"/3b1f8a0e-9a7e-4a3c-9f5e-2a6d8c4b1e0f")
	require.Equal(t, http.StatusNotFound, rsp.StatusCode)
	assert.False(t, body.Get("success").Bool())
	assert.Equal(t, "SESSION_NOT_FOUND", body.Get("error.code").String())
	assert.NotEmpty(t, body.Get("error.message").String())
	assert.NotEmpty(t, body.Get("error.timestamp").String())
}

func TestAPIInvalidTransitionEnvelope(t *testing.T) {
	gw := &aigateway.FakeGateway{GenerateErr: aigateway.ErrGeneration}
	srv := newTestServer(t, gw)

	_, body := postJSON(t, srv.URL+"/",
		`{"userId": "user-1", "mode": "technical", "jobType": "backend"}`)
	id := body.Get("data.session.id").String()
	require.NotEmpty(t, id)

	rsp, _ := postJSON(t, srv.URL+"/"+id+"/complete", `{}`)
	require.Equal(t, http.StatusOK, rsp.StatusCode)

	rsp, body = postJSON(t, srv.URL+"/"+id+"/answer",
		`{"answerText": "too late"}`)
	require.Equal(t, http.StatusConflict, rsp.StatusCode)
	assert.False(t, body.Get("success").Bool())
	assert.Equal(t, "INVALID_STATE_TRANSITION", body.Get("error.code").String())
}

func TestAPIVoiceTurnReturnsAudio(t *testing.T) {
	gw := &aigateway.FakeGateway{
		TranscribeText:  "my answer",
		GenerateReplies: []string{"tell me more"},
		SynthesizeAudio: []byte{0xff, 0xf3, 0x01},
	}
	srv := newTestServer(t, gw)

	_, body := postJSON(t, srv.URL+"/",
		`{"userId": "user-1", "mode": "technical", "jobType": "backend"}`)
	id := body.Get("data.session.id").String()
	require.NotEmpty(t, id)

	wav := append([]byte("RIFF\x00\x00\x00\x00WAVE"), []byte("fmt ")...)
	rsp, err := http.Post(srv.URL+"/"+id+"/voice/turn", "audio/wav", bytes.NewReader(wav))
	require.NoError(t, err)
	defer rsp.Body.Close()

	require.Equal(t, http.StatusOK, rsp.StatusCode)
	assert.Equal(t, "audio/mpeg", rsp.Header.Get("Content-Type"))
	var buf bytes.Buffer
	_, err = buf.ReadFrom(rsp.Body)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xff, 0xf3, 0x01}, buf.Bytes())
}

func TestAPIUpdateState(t *testing.T) {
	gw := &aigateway.FakeGateway{GenerateErr: aigateway.ErrGeneration}
	srv := newTestServer(t, gw)

	_, body := postJSON(t, srv.URL+"/",
		`{"userId": "user-1", "mode": "technical", "jobType": "backend"}`)
	id := body.Get("data.session.id").String()
	require.NotEmpty(t, id)

	req, err := http.NewRequest(http.MethodPatch, srv.URL+"/"+id+"/state",
		strings.NewReader(`{"currentCode": "print(42)", "status": "cancelled"}`))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	rsp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer rsp.Body.Close()

	var buf bytes.Buffer
	_, err = buf.ReadFrom(rsp.Body)
	require.NoError(t, err)
	parsed := gjson.ParseBytes(buf.Bytes())

	require.Equal(t, http.StatusOK, rsp.StatusCode)
	assert.Equal(t, "print(42)", parsed.Get("data.session.currentCode").String())
	assert.Equal(t, "in_progress", parsed.Get("data.session.status").String())
}
