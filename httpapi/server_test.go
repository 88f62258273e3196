package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/mhpenta/tryon"
	"github.com/mhpenta/tryon/imageprep"
)

// stubGateway answers every request without touching the network.
type stubGateway struct{}

func (g *stubGateway) SynthesizeImage(ctx context.Context, req *tryon.GatewayRequest) (*tryon.SynthesisResult, error) {
	return &tryon.SynthesisResult{
		Image: tryon.ImageRef{Data: []byte("synth"), MIMEType: "image/png"},
	}, nil
}

func (g *stubGateway) Consult(ctx context.Context, req *tryon.GatewayRequest) (*tryon.ConsultResult, error) {
	return &tryon.ConsultResult{
		Text:      "try round frames",
		Citations: []tryon.Citation{{Title: "Shop", URI: "https://shop.example"}},
	}, nil
}

func newTestRouter() http.Handler {
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	stylist := tryon.NewStylist(&stubGateway{}, tryon.WithLogger(logger))
	srv := New(stylist, imageprep.New(), logger)

	r := chi.NewRouter()
	srv.RegisterHTTP(r)
	return r
}

func pngUpload(t *testing.T, field string) (*bytes.Buffer, string) {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 100, B: 50, A: 255})
		}
	}
	var encoded bytes.Buffer
	if err := png.Encode(&encoded, img); err != nil {
		t.Fatalf("failed to encode test image: %v", err)
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile(field, "photo.png")
	if err != nil {
		t.Fatalf("failed to build multipart body: %v", err)
	}
	if _, err := part.Write(encoded.Bytes()); err != nil {
		t.Fatalf("failed to write multipart body: %v", err)
	}
	writer.Close()

	return body, writer.FormDataContentType()
}

func createSession(t *testing.T, router http.Handler) string {
	t.Helper()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/sessions", nil))
	if rec.Code != http.StatusCreated {
		t.Fatalf("session create returned %d", rec.Code)
	}

	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad session response: %v", err)
	}
	return resp["session_id"]
}

func uploadPhoto(t *testing.T, router http.Handler, id string) {
	t.Helper()

	body, contentType := pngUpload(t, "photo")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions/"+id+"/photo", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("photo upload returned %d: %s", rec.Code, rec.Body.String())
	}
}

func TestSessionFlow(t *testing.T) {
	router := newTestRouter()
	id := createSession(t, router)
	uploadPhoto(t, router, id)

	// Edit turn.
	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions/"+id+"/messages",
		strings.NewReader(`{"text":"make the frames red"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("message returned %d: %s", rec.Code, rec.Body.String())
	}

	var transcript struct {
		Turns []turnResponse `json:"turns"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &transcript); err != nil {
		t.Fatalf("bad transcript: %v", err)
	}
	if len(transcript.Turns) != 2 {
		t.Fatalf("expected 2 turns, got %d", len(transcript.Turns))
	}
	if transcript.Turns[1].Role != "model" || transcript.Turns[1].IsError {
		t.Errorf("unexpected model turn: %+v", transcript.Turns[1])
	}

	// The synthesized look is served back.
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/sessions/"+id+"/look/current", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("look/current returned %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); got != "image/png" {
		t.Errorf("look content type = %q", got)
	}
	if rec.Body.String() != "synth" {
		t.Error("look bytes do not match synthesized image")
	}

	// Consult turn carries citations.
	req = httptest.NewRequest(http.MethodPost, "/api/v1/sessions/"+id+"/messages",
		strings.NewReader(`{"text":"where can I buy these"}`))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("consult message returned %d", rec.Code)
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &transcript); err != nil {
		t.Fatalf("bad transcript: %v", err)
	}
	last := transcript.Turns[len(transcript.Turns)-1]
	if len(last.Citations) != 1 || last.Citations[0].URI != "https://shop.example" {
		t.Errorf("citations not surfaced: %+v", last)
	}

	// Idle status after the pipeline completes.
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/sessions/"+id+"/status", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"generating":false`) {
		t.Errorf("unexpected status response %d: %s", rec.Code, rec.Body.String())
	}
}

func TestReferenceUpload(t *testing.T) {
	router := newTestRouter()
	id := createSession(t, router)
	uploadPhoto(t, router, id)

	body, contentType := pngUpload(t, "reference")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions/"+id+"/reference", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("reference upload returned %d: %s", rec.Code, rec.Body.String())
	}

	var transcript struct {
		Turns []turnResponse `json:"turns"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &transcript); err != nil {
		t.Fatalf("bad transcript: %v", err)
	}
	if len(transcript.Turns) != 2 {
		t.Fatalf("expected implicit try-on turn, got %d turns", len(transcript.Turns))
	}
	if transcript.Turns[0].Text != "try these on" {
		t.Errorf("implicit turn text = %q", transcript.Turns[0].Text)
	}
}

func TestErrorStatusCodes(t *testing.T) {
	router := newTestRouter()

	// Unknown session.
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/sessions/nope/transcript", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown session returned %d", rec.Code)
	}

	id := createSession(t, router)

	// Message before any photo.
	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions/"+id+"/messages",
		strings.NewReader(`{"text":"make them red"}`))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusPreconditionFailed {
		t.Errorf("message without photo returned %d", rec.Code)
	}

	// Second photo.
	uploadPhoto(t, router, id)
	body, contentType := pngUpload(t, "photo")
	req = httptest.NewRequest(http.MethodPost, "/api/v1/sessions/"+id+"/photo", body)
	req.Header.Set("Content-Type", contentType)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusPreconditionFailed {
		t.Errorf("second photo returned %d", rec.Code)
	}

	// Garbage upload.
	garbage := &bytes.Buffer{}
	writer := multipart.NewWriter(garbage)
	part, _ := writer.CreateFormFile("photo", "junk.bin")
	part.Write([]byte("not an image"))
	writer.Close()
	req = httptest.NewRequest(http.MethodPost, "/api/v1/sessions/"+id+"/photo", garbage)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("garbage upload returned %d", rec.Code)
	}

	// No current look yet on a fresh session.
	id2 := createSession(t, router)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/sessions/"+id2+"/look/current", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing current look returned %d", rec.Code)
	}
}
