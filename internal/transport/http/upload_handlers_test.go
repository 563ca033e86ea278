package http

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/abbb1399/coding-together-server/internal/store"
)

// pngBytes is a minimal valid PNG signature plus padding; enough for
// content sniffing.
var pngBytes = append([]byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}, make([]byte, 16)...)

func uploadAvatar(t *testing.T, server http.Handler, token string, coachID string, data []byte) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("avatar", "avatar.png")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write(data); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	writer.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/coaches/"+coachID+"/avatar", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp := httptest.NewRecorder()
	server.ServeHTTP(resp, req)
	return resp
}

func TestAvatarLifecycle(t *testing.T) {
	server, authService, testStore := createTestServer(t)
	ctx := context.Background()

	token, err := authService.Register(ctx, "testuser", "password123")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	coach, err := testStore.CreateCoach(ctx, &store.Coach{
		Name:        "Kim",
		Areas:       []string{"go"},
		Description: "d",
		OwnerID:     1,
	})
	if err != nil {
		t.Fatalf("seed coach: %v", err)
	}

	resp := uploadAvatar(t, server.Handler, token, "1", pngBytes)
	if resp.Code != http.StatusOK {
		t.Fatalf("upload: expected 200, got %d: %s", resp.Code, resp.Body.String())
	}

	// The avatar is publicly readable.
	req := httptest.NewRequest(http.MethodGet, "/api/coaches/1/avatar", nil)
	getResp := httptest.NewRecorder()
	server.Handler.ServeHTTP(getResp, req)
	if getResp.Code != http.StatusOK {
		t.Fatalf("get avatar: expected 200, got %d", getResp.Code)
	}
	served, _ := io.ReadAll(getResp.Body)
	if !bytes.Equal(served, pngBytes) {
		t.Errorf("served avatar bytes differ from upload")
	}

	updated, err := testStore.GetCoach(ctx, coach.ID)
	if err != nil {
		t.Fatalf("get coach: %v", err)
	}
	if updated.AvatarPath == "" {
		t.Error("avatar path not recorded")
	}

	// Delete and confirm it is gone.
	delReq := httptest.NewRequest(http.MethodDelete, "/api/coaches/1/avatar", nil)
	delReq.Header.Set("Authorization", "Bearer "+token)
	delResp := httptest.NewRecorder()
	server.Handler.ServeHTTP(delResp, delReq)
	if delResp.Code != http.StatusOK {
		t.Fatalf("delete avatar: expected 200, got %d", delResp.Code)
	}

	getResp = httptest.NewRecorder()
	server.Handler.ServeHTTP(getResp, httptest.NewRequest(http.MethodGet, "/api/coaches/1/avatar", nil))
	if getResp.Code != http.StatusNotFound {
		t.Errorf("expected 404 after delete, got %d", getResp.Code)
	}
}

func TestUploadAvatarRejections(t *testing.T) {
	server, authService, testStore := createTestServer(t)
	ctx := context.Background()

	token, err := authService.Register(ctx, "testuser", "password123")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := testStore.CreateCoach(ctx, &store.Coach{
		Name:        "Kim",
		Areas:       []string{"go"},
		Description: "d",
		OwnerID:     1,
	}); err != nil {
		t.Fatalf("seed coach: %v", err)
	}

	// Not an image.
	resp := uploadAvatar(t, server.Handler, token, "1", []byte("plain text, not an image"))
	if resp.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for non-image, got %d", resp.Code)
	}

	// Unknown coach.
	resp = uploadAvatar(t, server.Handler, token, "99", pngBytes)
	if resp.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown coach, got %d", resp.Code)
	}

	// No token.
	resp = uploadAvatar(t, server.Handler, "", "1", pngBytes)
	if resp.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without token, got %d", resp.Code)
	}
}
