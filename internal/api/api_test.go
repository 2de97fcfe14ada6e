package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pawanm992002/nimantran-backend/pkg/batch"
	"github.com/pawanm992002/nimantran-backend/pkg/billing"
	"github.com/pawanm992002/nimantran-backend/pkg/card"
	"github.com/pawanm992002/nimantran-backend/pkg/compose"
	"github.com/pawanm992002/nimantran-backend/pkg/layer"
	"github.com/pawanm992002/nimantran-backend/pkg/roster"
	"github.com/pawanm992002/nimantran-backend/pkg/storage"
)

type fakeRenderer struct{}

func (fakeRenderer) Rasterize(ctx context.Context, guest card.Guest, region card.Region, scaling card.Scaling, opts layer.Options) (image.Image, error) {
	return image.NewRGBA(image.Rect(0, 0, 4, 4)), nil
}

type fakeCompositor struct{}

func (fakeCompositor) Medium() card.Medium { return card.MediumImage }

func (fakeCompositor) LayerOptions() layer.Options { return layer.Options{Quality: 1} }

func (fakeCompositor) ValidateTemplate(tpl []byte) error { return nil }

func (fakeCompositor) Close() error { return nil }

func (fakeCompositor) Compose(ctx context.Context, template []byte, layers []compose.Layer, scaling card.Scaling) ([]byte, error) {
	return []byte("artifact"), nil
}

// newTestServer wires a server over in-memory stores with one staged
// template and one funded user.
func newTestServer(t *testing.T) *Server {
	t.Helper()

	store, err := storage.NewFSStore(t.TempDir(), "http://files.test")
	if err != nil {
		t.Fatalf("NewFSStore error: %v", err)
	}
	if _, err := store.Put(context.Background(), []byte("tpl"), storage.UploadPath("ev1", "card.png")); err != nil {
		t.Fatalf("stage template: %v", err)
	}

	rosterStore := roster.NewMemoryStore()
	rosterStore.Seed(roster.Event{ID: "ev1", CustomerID: "cust1"})

	runner := batch.NewRunner(
		fakeRenderer{},
		func(m card.Medium) (compose.Compositor, error) { return fakeCompositor{}, nil },
		store,
		rosterStore,
		billing.NewMemoryLedger(map[string]float64{"user1": 100}),
	)
	return New(runner, nil)
}

func postBody(t *testing.T, guests int) *bytes.Buffer {
	t.Helper()
	req := renderRequest{
		TextProperty: []card.Region{{ID: 1, Text: "Dear {name}", Size: card.Size{Width: 100, Height: 40}}},
		ScalingFont:  1,
		ScalingW:     1,
		ScalingH:     1,
		FileName:     "card.png",
	}
	for i := 0; i < guests; i++ {
		req.GuestNames = append(req.GuestNames, card.Guest{
			Name:         fmt.Sprintf("G%d", i),
			MobileNumber: fmt.Sprintf("300000000%d", i),
		})
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(req); err != nil {
		t.Fatal(err)
	}
	return &buf
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestEditRejectsMissingEventID(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/api/imageEdit", postBody(t, 1))
	req.Header.Set("X-User-ID", "user1")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["message"] != "Required Event Id" {
		t.Errorf("message = %q", body["message"])
	}
}

func TestEditRejectsBadBody(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/api/imageEdit?eventId=ev1", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestBatchOptionsChunkPolicy(t *testing.T) {
	// The configured chunk size bounds ffmpeg concurrency, so it applies
	// to video batches only; image and pdf fan out the whole roster.
	s := New(nil, nil, WithChunkSize(10))
	req := renderRequest{FileName: "card.png"}

	if got := s.batchOptions(card.MediumImage, req, "ev1", "user1").ChunkSize; got != 0 {
		t.Errorf("image chunk size = %d, want 0 (full fan-out)", got)
	}
	if got := s.batchOptions(card.MediumPDF, req, "ev1", "user1").ChunkSize; got != 0 {
		t.Errorf("pdf chunk size = %d, want 0 (full fan-out)", got)
	}
	if got := s.batchOptions(card.MediumVideo, req, "ev1", "user1").ChunkSize; got != 10 {
		t.Errorf("video chunk size = %d, want 10", got)
	}
}

func TestEditInsufficientBalance(t *testing.T) {
	s := newTestServer(t)

	// 100 credits, 500 image guests at 0.25 = 125 required.
	req := httptest.NewRequest(http.MethodPost, "/api/imageEdit?eventId=ev1", postBody(t, 500))
	req.Header.Set("X-User-ID", "user1")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Insufficient Balance") {
		t.Errorf("body = %q", rec.Body.String())
	}
}

// parseFrames splits an SSE body into its decoded data frames.
func parseFrames(t *testing.T, body string) []map[string]any {
	t.Helper()
	var frames []map[string]any
	for _, line := range strings.Split(body, "\n") {
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var frame map[string]any
		if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &frame); err != nil {
			t.Fatalf("bad frame %q: %v", line, err)
		}
		frames = append(frames, frame)
	}
	return frames
}

func TestEditStreamsProgress(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/api/imageEdit?eventId=ev1", postBody(t, 2))
	req.Header.Set("X-User-ID", "user1")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %q", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("content type = %q", ct)
	}

	frames := parseFrames(t, rec.Body.String())
	if len(frames) != 3 {
		t.Fatalf("got %d frames, want 2 guests + terminal: %q", len(frames), rec.Body.String())
	}

	for _, f := range frames[:2] {
		if f["status"] != "done" {
			t.Errorf("guest frame = %v", f)
		}
		guest, ok := f["guest"].(map[string]any)
		if !ok || guest["link"] == "" {
			t.Errorf("guest frame lacks link: %v", f)
		}
	}

	terminal := frames[2]
	if terminal["status"] != "completed" {
		t.Errorf("terminal frame = %v", terminal)
	}
	if url, _ := terminal["archiveUrl"].(string); !strings.HasSuffix(url, "processed_images.zip") {
		t.Errorf("archive url = %v", terminal["archiveUrl"])
	}
	if terminal["completed"].(float64) != 2 {
		t.Errorf("terminal completed = %v", terminal["completed"])
	}
}

func TestEditSampleMode(t *testing.T) {
	s := newTestServer(t)

	body := postBody(t, 0)
	var req renderRequest
	if err := json.Unmarshal(body.Bytes(), &req); err != nil {
		t.Fatal(err)
	}
	req.IsSample = true
	raw, _ := json.Marshal(req)

	httpReq := httptest.NewRequest(http.MethodPost, "/api/imageEdit?eventId=ev1", bytes.NewReader(raw))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httpReq)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %q", rec.Code, rec.Body.String())
	}
	frames := parseFrames(t, rec.Body.String())
	// Five sample guests plus the terminal frame.
	if len(frames) != 6 {
		t.Errorf("got %d frames, want 6", len(frames))
	}
}

func TestUnknownRoute(t *testing.T) {
	s := newTestServer(t)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/nope", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}
