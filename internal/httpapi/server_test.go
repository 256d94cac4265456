package httpapi

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/antoniostano/fitcoach/internal/config"
	"github.com/antoniostano/fitcoach/internal/observability"
	"github.com/antoniostano/fitcoach/internal/plan"
	"github.com/antoniostano/fitcoach/internal/planstore"
	"github.com/antoniostano/fitcoach/internal/protocol"
	"github.com/antoniostano/fitcoach/internal/reliability"
	"github.com/antoniostano/fitcoach/internal/speech"
)

type testEnv struct {
	ts    *httptest.Server
	store *planstore.InMemoryStore
}

type serverOption func(*serverParts)

type serverParts struct {
	provider speech.Provider
	plans    PlanGenerator
}

func withSpeechProvider(p speech.Provider) serverOption {
	return func(sp *serverParts) { sp.provider = p }
}

func withPlans(g PlanGenerator) serverOption {
	return func(sp *serverParts) { sp.plans = g }
}

func newTestEnv(t *testing.T, opts ...serverOption) *testEnv {
	t.Helper()
	cfg := config.Config{RequestTimeout: 5 * time.Second}
	metrics := observability.NewMetricsWith(prometheus.NewRegistry(), "test_httpapi")
	store := planstore.NewInMemoryStore()

	parts := serverParts{provider: speech.NewMockProvider()}
	for _, o := range opts {
		o(&parts)
	}
	if parts.plans == nil {
		parts.plans = plan.NewService(plan.MockGenerator{}, store, plan.ServiceConfig{}, metrics, nil)
	}
	synth, err := speech.NewService(parts.provider, speech.Config{MaxTextChars: 8000}, metrics, nil)
	if err != nil {
		t.Fatalf("speech.NewService() error = %v", err)
	}
	t.Cleanup(synth.Close)

	srv := New(cfg, parts.plans, store, synth, metrics)
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return &testEnv{ts: ts, store: store}
}

func validProfile() map[string]any {
	return map[string]any{
		"name":              "Alex",
		"age":               29,
		"gender":            "Male",
		"height":            180,
		"weight":            78,
		"goal":              "Muscle Gain",
		"level":             "Intermediate",
		"location":          "Gym",
		"dietaryPreference": "Non-Veg",
	}
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	raw, _ := json.Marshal(body)
	res, err := http.Post(url, "application/json", bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("POST %s error = %v", url, err)
	}
	return res
}

func decodeBody(t *testing.T, res *http.Response, out any) {
	t.Helper()
	defer res.Body.Close()
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func (e *testEnv) createPlan(t *testing.T, userID string) plan.Record {
	t.Helper()
	res := postJSON(t, e.ts.URL+"/v1/plans", map[string]any{"user_id": userID, "profile": validProfile()})
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("create plan status = %d, want %d", res.StatusCode, http.StatusCreated)
	}
	var rec plan.Record
	decodeBody(t, res, &rec)
	return rec
}

func TestUIRoutes(t *testing.T) {
	env := newTestEnv(t)
	client := &http.Client{
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	rootRes, err := client.Get(env.ts.URL + "/")
	if err != nil {
		t.Fatalf("GET / error = %v", err)
	}
	defer rootRes.Body.Close()
	if rootRes.StatusCode != http.StatusTemporaryRedirect {
		t.Fatalf("GET / status = %d, want %d", rootRes.StatusCode, http.StatusTemporaryRedirect)
	}
	if got := rootRes.Header.Get("Location"); got != "/ui/" {
		t.Fatalf("GET / location = %q, want %q", got, "/ui/")
	}

	uiRes, err := http.Get(env.ts.URL + "/ui/")
	if err != nil {
		t.Fatalf("GET /ui/ error = %v", err)
	}
	defer uiRes.Body.Close()
	if uiRes.StatusCode != http.StatusOK {
		t.Fatalf("GET /ui/ status = %d, want %d", uiRes.StatusCode, http.StatusOK)
	}
	var body bytes.Buffer
	if _, err := body.ReadFrom(uiRes.Body); err != nil {
		t.Fatalf("reading /ui/ body failed: %v", err)
	}
	if !strings.Contains(body.String(), `id="fitcoach-app"`) {
		t.Fatalf("GET /ui/ body missing expected content")
	}
}

func TestPlanLifecycle(t *testing.T) {
	env := newTestEnv(t)
	first := env.createPlan(t, "user-1")
	second := env.createPlan(t, "user-1")
	if first.ID == second.ID {
		t.Fatalf("plans share id %s", first.ID)
	}
	if second.Plan.Name != "Alex" || len(second.Plan.Workout.Schedule) == 0 {
		t.Fatalf("unexpected plan: %+v", second.Plan)
	}

	res, err := http.Get(env.ts.URL + "/v1/plans/" + first.ID)
	if err != nil {
		t.Fatalf("GET plan error = %v", err)
	}
	var got plan.Record
	decodeBody(t, res, &got)
	if res.StatusCode != http.StatusOK || got.ID != first.ID {
		t.Fatalf("GET plan = %d %s, want 200 %s", res.StatusCode, got.ID, first.ID)
	}

	res, err = http.Get(env.ts.URL + "/v1/users/user-1/plan")
	if err != nil {
		t.Fatalf("GET latest error = %v", err)
	}
	decodeBody(t, res, &got)
	if got.ID != second.ID {
		t.Fatalf("latest = %s, want %s", got.ID, second.ID)
	}

	for _, path := range []string{"/v1/plans/nope", "/v1/users/nobody/plan"} {
		res, err := http.Get(env.ts.URL + path)
		if err != nil {
			t.Fatalf("GET %s error = %v", path, err)
		}
		var errBody errorResponse
		decodeBody(t, res, &errBody)
		if res.StatusCode != http.StatusNotFound || errBody.Code != "plan_not_found" {
			t.Fatalf("GET %s = %d %q, want 404 plan_not_found", path, res.StatusCode, errBody.Code)
		}
	}
}

func TestCreatePlanValidationError(t *testing.T) {
	env := newTestEnv(t)
	profile := validProfile()
	profile["age"] = 8
	profile["goal"] = "Bulk"

	res := postJSON(t, env.ts.URL+"/v1/plans", map[string]any{"profile": profile})
	var body errorResponse
	decodeBody(t, res, &body)
	if res.StatusCode != http.StatusBadRequest || body.Code != "invalid_profile" {
		t.Fatalf("status = %d code = %q, want 400 invalid_profile", res.StatusCode, body.Code)
	}
	if body.Fields["age"] == "" || body.Fields["goal"] == "" {
		t.Fatalf("fields = %v, want age and goal", body.Fields)
	}
}

func TestCreatePlanRequiresProfile(t *testing.T) {
	env := newTestEnv(t)
	res := postJSON(t, env.ts.URL+"/v1/plans", map[string]any{"user_id": "u"})
	res.Body.Close()
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", res.StatusCode)
	}
}

func TestCreatePlanBodyErrors(t *testing.T) {
	env := newTestEnv(t)
	cases := []struct {
		name    string
		body    string
		message string
	}{
		{"empty", "", "request body is required"},
		{"truncated", `{"profile": {"name": "Al`, ""},
		{"wrong type", `{"profile": 7}`, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := http.Post(env.ts.URL+"/v1/plans", "application/json", strings.NewReader(tc.body))
			if err != nil {
				t.Fatalf("POST error = %v", err)
			}
			var body errorResponse
			decodeBody(t, res, &body)
			if res.StatusCode != http.StatusBadRequest || body.Code != "invalid_request" {
				t.Fatalf("status = %d code = %q, want 400 invalid_request", res.StatusCode, body.Code)
			}
			if tc.message != "" && body.Error != tc.message {
				t.Fatalf("error = %q, want %q", body.Error, tc.message)
			}
			if tc.message == "" && body.Error == "request body is required" {
				t.Fatalf("malformed body reported as missing")
			}
		})
	}
}

type failingPlans struct{}

func (failingPlans) GeneratorName() string { return "failing" }
func (failingPlans) Generate(context.Context, string, plan.Profile) (plan.Record, error) {
	return plan.Record{}, &reliability.Failure{Kind: reliability.KindUpstream, Message: plan.MsgGenerateFailed, Retryable: true}
}

func TestCreatePlanGenerationFailure(t *testing.T) {
	env := newTestEnv(t, withPlans(failingPlans{}))
	res := postJSON(t, env.ts.URL+"/v1/plans", map[string]any{"profile": validProfile()})
	var body errorResponse
	decodeBody(t, res, &body)
	if res.StatusCode != http.StatusBadGateway || body.Code != "generation_failed" {
		t.Fatalf("status = %d code = %q, want 502 generation_failed", res.StatusCode, body.Code)
	}
	if body.Error != "Failed to generate plan. Please try again." || !body.Retryable {
		t.Fatalf("body = %+v", body)
	}
}

func TestSpeechReturnsDataURI(t *testing.T) {
	env := newTestEnv(t)
	res := postJSON(t, env.ts.URL+"/v1/speech", map[string]string{"text": "Stay hydrated and stick to the plan."})
	var body speechResponse
	decodeBody(t, res, &body)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", res.StatusCode)
	}
	const prefix = "data:audio/wav;base64,"
	if !strings.HasPrefix(body.Audio, prefix) {
		t.Fatalf("audio prefix = %q", body.Audio[:20])
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(body.Audio, prefix))
	if err != nil {
		t.Fatalf("decode audio: %v", err)
	}
	if string(raw[:4]) != "RIFF" || len(raw) != 44+body.DataLength {
		t.Fatalf("container = %q/%d bytes, data length %d", raw[:4], len(raw), body.DataLength)
	}
	if body.SampleRate != 24000 || body.Chunks != 3 || body.MediaType != "audio/wav" {
		t.Fatalf("body = %+v", body)
	}
}

func TestSpeechRawAudio(t *testing.T) {
	env := newTestEnv(t)
	req, _ := http.NewRequest(http.MethodPost, env.ts.URL+"/v1/speech", strings.NewReader(`{"text":"Go."}`))
	req.Header.Set("Accept", "audio/wav")
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("POST error = %v", err)
	}
	defer res.Body.Close()
	if res.Header.Get("Content-Type") != "audio/wav" {
		t.Fatalf("Content-Type = %q, want audio/wav", res.Header.Get("Content-Type"))
	}
	var buf bytes.Buffer
	_, _ = buf.ReadFrom(res.Body)
	if !bytes.HasPrefix(buf.Bytes(), []byte("RIFF")) {
		t.Fatalf("body is not a WAV container")
	}
}

func TestSpeechFailureMapping(t *testing.T) {
	silent := speech.NewMockProvider()
	silent.Silent = true

	cases := []struct {
		name     string
		provider speech.Provider
		text     string
		status   int
		code     string
	}{
		{"not configured", speech.NewGeminiProvider(speech.GeminiConfig{}), "hi", http.StatusServiceUnavailable, "provider_not_configured"},
		{"no audio", silent, "hi", http.StatusBadGateway, "no_audio"},
		{"upstream", &speech.MockProvider{Err: &reliability.StatusError{Provider: "mock", Code: 500}}, "hi", http.StatusBadGateway, "synthesis_failed"},
		{"empty text", speech.NewMockProvider(), "", http.StatusBadRequest, "invalid_request"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			env := newTestEnv(t, withSpeechProvider(tc.provider))
			res := postJSON(t, env.ts.URL+"/v1/speech", map[string]string{"text": tc.text})
			var body errorResponse
			decodeBody(t, res, &body)
			if res.StatusCode != tc.status || body.Code != tc.code {
				t.Fatalf("status = %d code = %q, want %d %q", res.StatusCode, body.Code, tc.status, tc.code)
			}
			if tc.code == "synthesis_failed" && body.Error != "Failed to generate speech" {
				t.Fatalf("error = %q", body.Error)
			}
		})
	}
}

func TestPlanSpeech(t *testing.T) {
	env := newTestEnv(t)
	rec := env.createPlan(t, "user-2")

	cases := []struct {
		path   string
		status int
		code   string
	}{
		{"/v1/plans/" + rec.ID + "/speech/workout?day=1", http.StatusOK, ""},
		{"/v1/plans/" + rec.ID + "/speech/diet", http.StatusOK, ""},
		{"/v1/plans/" + rec.ID + "/speech/welcome", http.StatusOK, ""},
		{"/v1/plans/" + rec.ID + "/speech/workout?day=99", http.StatusBadRequest, "invalid_day"},
		{"/v1/plans/" + rec.ID + "/speech/workout?day=x", http.StatusBadRequest, "invalid_day"},
		{"/v1/plans/" + rec.ID + "/speech/stretch", http.StatusNotFound, "unknown_script"},
		{"/v1/plans/missing/speech/diet", http.StatusNotFound, "plan_not_found"},
	}
	for _, tc := range cases {
		res, err := http.Post(env.ts.URL+tc.path, "application/json", nil)
		if err != nil {
			t.Fatalf("POST %s error = %v", tc.path, err)
		}
		var body map[string]any
		decodeBody(t, res, &body)
		if res.StatusCode != tc.status {
			t.Fatalf("POST %s status = %d, want %d (%v)", tc.path, res.StatusCode, tc.status, body)
		}
		if tc.code != "" && body["code"] != tc.code {
			t.Fatalf("POST %s code = %v, want %s", tc.path, body["code"], tc.code)
		}
	}
}

func TestServerWithoutMetrics(t *testing.T) {
	store := planstore.NewInMemoryStore()
	synth, err := speech.NewService(speech.NewMockProvider(), speech.Config{}, nil, nil)
	if err != nil {
		t.Fatalf("speech.NewService() error = %v", err)
	}
	t.Cleanup(synth.Close)
	plans := plan.NewService(plan.MockGenerator{}, store, plan.ServiceConfig{}, nil, nil)
	ts := httptest.NewServer(New(config.Config{RequestTimeout: 5 * time.Second}, plans, store, synth, nil).Router())
	t.Cleanup(ts.Close)

	res, err := http.Get(ts.URL + "/v1/perf/latency")
	if err != nil {
		t.Fatalf("GET error = %v", err)
	}
	res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("perf status = %d, want 200", res.StatusCode)
	}

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/v1/speech/ws", nil)
	if err != nil {
		t.Fatalf("dial error = %v", err)
	}
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(10 * time.Second))
	if err := conn.WriteJSON(map[string]any{"type": "bogus"}); err != nil {
		t.Fatalf("write error = %v", err)
	}
	var errEvent protocol.ErrorEvent
	if err := conn.ReadJSON(&errEvent); err != nil {
		t.Fatalf("read error = %v", err)
	}
	if errEvent.Code != "invalid_client_message" {
		t.Fatalf("event = %+v", errEvent)
	}
}

func TestSpeechWebsocket(t *testing.T) {
	env := newTestEnv(t)
	wsURL := "ws" + strings.TrimPrefix(env.ts.URL, "http") + "/v1/speech/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial error = %v", err)
	}
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(10 * time.Second))

	if err := conn.WriteJSON(map[string]any{"type": "bogus"}); err != nil {
		t.Fatalf("write error = %v", err)
	}
	var errEvent protocol.ErrorEvent
	if err := conn.ReadJSON(&errEvent); err != nil {
		t.Fatalf("read error = %v", err)
	}
	if errEvent.Type != protocol.TypeErrorEvent || errEvent.Code != "invalid_client_message" {
		t.Fatalf("event = %+v", errEvent)
	}

	if err := conn.WriteJSON(protocol.SpeechRequest{Type: protocol.TypeSpeechRequest, RequestID: "r1", Text: "Great work. Go crush it."}); err != nil {
		t.Fatalf("write error = %v", err)
	}

	chunks := 0
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read error = %v", err)
		}
		var envelope protocol.Envelope
		_ = json.Unmarshal(data, &envelope)
		if envelope.Type == protocol.TypeSpeechChunk {
			chunks++
			continue
		}
		if envelope.Type != protocol.TypeSpeechReady {
			t.Fatalf("unexpected message %s", data)
		}
		var ready protocol.SpeechReady
		_ = json.Unmarshal(data, &ready)
		if ready.RequestID != "r1" || !strings.HasPrefix(ready.Audio, "data:audio/wav;base64,") {
			t.Fatalf("ready = %+v", ready)
		}
		if ready.Chunks != chunks || chunks != 3 {
			t.Fatalf("chunks seen = %d, ready.Chunks = %d, want 3", chunks, ready.Chunks)
		}
		break
	}
}

func TestSpeechWebsocketPlanScriptError(t *testing.T) {
	env := newTestEnv(t)
	wsURL := "ws" + strings.TrimPrefix(env.ts.URL, "http") + "/v1/speech/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial error = %v", err)
	}
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(10 * time.Second))

	req := protocol.SpeechRequest{Type: protocol.TypeSpeechRequest, RequestID: "r2", PlanID: "missing", Script: protocol.ScriptDiet}
	if err := conn.WriteJSON(req); err != nil {
		t.Fatalf("write error = %v", err)
	}
	var ev protocol.ErrorEvent
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatalf("read error = %v", err)
	}
	if ev.RequestID != "r2" || ev.Code != "plan_not_found" {
		t.Fatalf("event = %+v", ev)
	}
}

func TestStatusEndpoints(t *testing.T) {
	env := newTestEnv(t)
	for _, path := range []string{"/healthz", "/readyz", "/v1/perf/latency", "/v1/onboarding/status", "/v1/plans/sample"} {
		res, err := http.Get(env.ts.URL + path)
		if err != nil {
			t.Fatalf("GET %s error = %v", path, err)
		}
		var body map[string]any
		decodeBody(t, res, &body)
		if res.StatusCode != http.StatusOK {
			t.Fatalf("GET %s status = %d, want 200", path, res.StatusCode)
		}
		if path == "/v1/onboarding/status" && body["speech_provider"] != "mock" {
			t.Fatalf("speech_provider = %v, want mock", body["speech_provider"])
		}
	}
}

func TestRequestIDEchoed(t *testing.T) {
	env := newTestEnv(t)
	req, _ := http.NewRequest(http.MethodGet, env.ts.URL+"/healthz", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET error = %v", err)
	}
	res.Body.Close()
	if got := res.Header.Get("X-Request-ID"); got != "abc-123" {
		t.Fatalf("X-Request-ID = %q, want abc-123", got)
	}
}

func TestPerfLatencyStageFilter(t *testing.T) {
	env := newTestEnv(t)
	env.createPlan(t, "user-perf")
	res := postJSON(t, env.ts.URL+"/v1/speech", map[string]string{"text": "Go."})
	res.Body.Close()

	res, err := http.Get(env.ts.URL + "/v1/perf/latency?stage=plan_generate")
	if err != nil {
		t.Fatalf("GET error = %v", err)
	}
	var snap observability.StageSnapshot
	decodeBody(t, res, &snap)
	if len(snap.Stages) != 1 || snap.Stages[0].Stage != observability.StagePlanGenerate {
		t.Fatalf("stages = %+v, want only plan_generate", snap.Stages)
	}

	res, err = http.Get(env.ts.URL + "/v1/perf/latency?stage=speech_total,speech_first_chunk")
	if err != nil {
		t.Fatalf("GET error = %v", err)
	}
	decodeBody(t, res, &snap)
	if len(snap.Stages) != 2 {
		t.Fatalf("stages = %+v, want two speech stages", snap.Stages)
	}
}

func TestUIClientRouteFallsBackToIndex(t *testing.T) {
	env := newTestEnv(t)
	res, err := http.Get(env.ts.URL + "/ui/plan")
	if err != nil {
		t.Fatalf("GET error = %v", err)
	}
	defer res.Body.Close()
	var body bytes.Buffer
	_, _ = body.ReadFrom(res.Body)
	if res.StatusCode != http.StatusOK || !strings.Contains(body.String(), `id="fitcoach-app"`) {
		t.Fatalf("status = %d, want index.html", res.StatusCode)
	}
	if res.Header.Get("Cache-Control") != "no-cache" {
		t.Fatalf("Cache-Control = %q", res.Header.Get("Cache-Control"))
	}
}
