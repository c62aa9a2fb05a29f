package service

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/prazwal-bns/imageprompt-api/internal/domain"
	"github.com/prazwal-bns/imageprompt-api/internal/query"
)

type fakeGenStore struct {
	created []*domain.PromptGeneration
	list    []domain.PromptGeneration
	total   int64
	gotPlan query.Plan
	gotUser uint
	err     error
}

func (f *fakeGenStore) Create(_ context.Context, gen *domain.PromptGeneration) error {
	if f.err != nil {
		return f.err
	}
	f.created = append(f.created, gen)
	return nil
}

func (f *fakeGenStore) ListByOwner(_ context.Context, ownerID uint, plan query.Plan) ([]domain.PromptGeneration, int64, error) {
	f.gotUser = ownerID
	f.gotPlan = plan
	return f.list, f.total, f.err
}

type fakeBlobs struct {
	uploads map[string][]byte
	err     error
}

func newFakeBlobs() *fakeBlobs {
	return &fakeBlobs{uploads: make(map[string][]byte)}
}

func (f *fakeBlobs) Upload(_ context.Context, key string, reader io.Reader, _ int64, _ string) error {
	if f.err != nil {
		return f.err
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	f.uploads[key] = data
	return nil
}

func (f *fakeBlobs) Download(_ context.Context, key string) (io.ReadCloser, error) {
	data, ok := f.uploads[key]
	if !ok {
		return nil, errors.New("not found")
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (f *fakeBlobs) GetURL(key string) string { return "/storage/" + key }

func (f *fakeBlobs) Delete(_ context.Context, key string) error {
	delete(f.uploads, key)
	return nil
}

func (f *fakeBlobs) Exists(_ context.Context, key string) (bool, error) {
	_, ok := f.uploads[key]
	return ok, nil
}

type fakeCaptioner struct {
	prompt string
	err    error
	calls  int
}

func (f *fakeCaptioner) Describe(_ context.Context, _ []byte, _ string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.prompt, nil
}

// pngBytes encodes a tiny valid PNG for upload fixtures.
func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 1, 1))); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func newTestGeneration(store *fakeGenStore, blobs *fakeBlobs, captioner *fakeCaptioner) *GenerationService {
	return NewGenerationService(store, blobs, captioner, GenerationConfig{
		MaxUploadBytes: 5 * 1024 * 1024,
		CaptionTimeout: time.Second,
	})
}

func TestGeneratePipeline(t *testing.T) {
	store := &fakeGenStore{}
	blobs := newFakeBlobs()
	captioner := &fakeCaptioner{prompt: "a mountain at dusk, oil painting style"}
	svc := newTestGeneration(store, blobs, captioner)

	user := &domain.User{ID: 7, Name: "Alice"}
	data := pngBytes(t)

	resource, err := svc.Generate(context.Background(), user, Upload{
		OriginalName: "my photo (1).png",
		MimeType:     "image/png",
		Data:         data,
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if len(store.created) != 1 {
		t.Fatalf("records created: got %d, want 1", len(store.created))
	}
	rec := store.created[0]
	if rec.UserID != 7 {
		t.Errorf("UserID: got %d, want 7", rec.UserID)
	}
	if rec.GeneratedPrompt != captioner.prompt {
		t.Errorf("GeneratedPrompt: got %q, want %q", rec.GeneratedPrompt, captioner.prompt)
	}
	if rec.OriginalFileName != "my photo (1).png" {
		t.Errorf("OriginalFileName: got %q", rec.OriginalFileName)
	}
	if rec.FileSize != int64(len(data)) {
		t.Errorf("FileSize: got %d, want %d", rec.FileSize, len(data))
	}
	if rec.ID == "" {
		t.Error("record ID empty")
	}

	if _, ok := blobs.uploads[rec.ImagePath]; !ok {
		t.Errorf("blob missing at %q", rec.ImagePath)
	}
	if resource.ImageURL != "/storage/"+rec.ImagePath {
		t.Errorf("ImageURL: got %q", resource.ImageURL)
	}
	if resource.GeneratedPrompt != captioner.prompt {
		t.Errorf("resource prompt: got %q", resource.GeneratedPrompt)
	}
}

func TestGenerateBlobKeySanitized(t *testing.T) {
	store := &fakeGenStore{}
	blobs := newFakeBlobs()
	svc := newTestGeneration(store, blobs, &fakeCaptioner{prompt: "p"})

	_, err := svc.Generate(context.Background(), &domain.User{ID: 1}, Upload{
		OriginalName: "../../etc/pass wd!.png",
		MimeType:     "image/png",
		Data:         pngBytes(t),
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	key := store.created[0].ImagePath
	if !strings.HasPrefix(key, "uploads/images/") {
		t.Errorf("key outside upload prefix: %q", key)
	}
	name := strings.TrimPrefix(key, "uploads/images/")
	for _, r := range strings.TrimSuffix(name, ".png") {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '_') {
			t.Errorf("unsafe character %q in key %q", r, key)
		}
	}
}

func TestGenerateValidation(t *testing.T) {
	testCases := []struct {
		name    string
		upload  Upload
		wantMsg string
	}{
		{
			name:    "empty upload",
			upload:  Upload{OriginalName: "a.png", MimeType: "image/png"},
			wantMsg: "The image field is required.",
		},
		{
			name: "not an image",
			upload: Upload{
				OriginalName: "a.png",
				MimeType:     "image/png",
				Data:         []byte("definitely not pixels"),
			},
			wantMsg: "The image field must be a valid image.",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			store := &fakeGenStore{}
			blobs := newFakeBlobs()
			captioner := &fakeCaptioner{prompt: "p"}
			svc := newTestGeneration(store, blobs, captioner)

			_, err := svc.Generate(context.Background(), &domain.User{ID: 1}, tc.upload)

			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if verr.Field != "image" {
				t.Errorf("Field: got %q, want %q", verr.Field, "image")
			}
			if len(verr.Messages) != 1 || verr.Messages[0] != tc.wantMsg {
				t.Errorf("Messages: got %v, want [%q]", verr.Messages, tc.wantMsg)
			}
			if len(blobs.uploads) != 0 {
				t.Error("rejected upload reached the blob store")
			}
			if captioner.calls != 0 {
				t.Error("rejected upload reached the captioner")
			}
		})
	}
}

func TestGenerateOversizeRejected(t *testing.T) {
	store := &fakeGenStore{}
	blobs := newFakeBlobs()
	svc := NewGenerationService(store, blobs, &fakeCaptioner{prompt: "p"}, GenerationConfig{
		MaxUploadBytes: 10,
		CaptionTimeout: time.Second,
	})

	_, err := svc.Generate(context.Background(), &domain.User{ID: 1}, Upload{
		OriginalName: "a.png",
		MimeType:     "image/png",
		Data:         pngBytes(t),
	})

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if !strings.Contains(verr.Messages[0], "may not be greater than") {
		t.Errorf("Messages: got %v", verr.Messages)
	}
}

func TestGenerateCaptionFailureLeavesNoRecord(t *testing.T) {
	testCases := []struct {
		name string
		err  error
	}{
		{name: "rate limited", err: ErrCaptionerRateLimited},
		{name: "unavailable", err: ErrCaptionerUnavailable},
		{name: "upstream error", err: &CaptionerError{StatusCode: 500, Message: "boom"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			store := &fakeGenStore{}
			blobs := newFakeBlobs()
			svc := newTestGeneration(store, blobs, &fakeCaptioner{err: tc.err})

			_, err := svc.Generate(context.Background(), &domain.User{ID: 1}, Upload{
				OriginalName: "a.png",
				MimeType:     "image/png",
				Data:         pngBytes(t),
			})
			if !errors.Is(err, tc.err) {
				var cerr *CaptionerError
				if !errors.As(err, &cerr) {
					t.Fatalf("captioner error not surfaced: %v", err)
				}
			}

			if len(store.created) != 0 {
				t.Error("record persisted despite caption failure")
			}
			// The stored blob is an accepted orphan.
			if len(blobs.uploads) != 1 {
				t.Errorf("blobs stored: got %d, want 1", len(blobs.uploads))
			}
		})
	}
}

func TestGenerateStoreFailureAfterCaption(t *testing.T) {
	store := &fakeGenStore{err: errors.New("db down")}
	blobs := newFakeBlobs()
	svc := newTestGeneration(store, blobs, &fakeCaptioner{prompt: "p"})

	_, err := svc.Generate(context.Background(), &domain.User{ID: 1}, Upload{
		OriginalName: "a.png",
		MimeType:     "image/png",
		Data:         pngBytes(t),
	})
	if err == nil {
		t.Fatal("expected error")
	}
	var verr *ValidationError
	if errors.As(err, &verr) {
		t.Error("store failure must not look like a validation error")
	}
}

func TestListScopedToOwner(t *testing.T) {
	now := time.Now()
	store := &fakeGenStore{
		list: []domain.PromptGeneration{
			{ID: "g1", UserID: 7, ImagePath: "uploads/images/a_xxxxxxxxxx.png", GeneratedPrompt: "one", CreatedAt: now},
			{ID: "g2", UserID: 7, ImagePath: "uploads/images/b_yyyyyyyyyy.png", GeneratedPrompt: "two", CreatedAt: now},
		},
		total: 25,
	}
	svc := newTestGeneration(store, newFakeBlobs(), &fakeCaptioner{})

	page, err := svc.List(context.Background(), &domain.User{ID: 7}, query.ListParams{
		Search:  "sun",
		Sort:    "-updated_at",
		Page:    2,
		PerPage: 10,
	})
	if err != nil {
		t.Fatalf("List: %v", err)
	}

	if store.gotUser != 7 {
		t.Errorf("owner passed to store: got %d, want 7", store.gotUser)
	}
	if store.gotPlan.OrderColumn != query.ColumnUpdatedAt || !store.gotPlan.Desc {
		t.Errorf("plan: got %+v", store.gotPlan)
	}
	if store.gotPlan.Search != "sun" {
		t.Errorf("plan search: got %q", store.gotPlan.Search)
	}

	if len(page.Data) != 2 {
		t.Fatalf("page data: got %d items", len(page.Data))
	}
	if page.Data[0].ImageURL != "/storage/uploads/images/a_xxxxxxxxxx.png" {
		t.Errorf("ImageURL: got %q", page.Data[0].ImageURL)
	}
	if page.Meta.CurrentPage != 2 || page.Meta.PerPage != 10 {
		t.Errorf("meta paging: got %+v", page.Meta)
	}
	if page.Meta.Total != 25 || page.Meta.LastPage != 3 {
		t.Errorf("meta totals: got %+v", page.Meta)
	}
}

func TestListEmptyPage(t *testing.T) {
	store := &fakeGenStore{}
	svc := newTestGeneration(store, newFakeBlobs(), &fakeCaptioner{})

	page, err := svc.List(context.Background(), &domain.User{ID: 1}, query.ListParams{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if page.Data == nil {
		t.Error("Data must be an empty slice, not nil")
	}
	if len(page.Data) != 0 {
		t.Errorf("Data: got %d items, want 0", len(page.Data))
	}
	if page.Meta.LastPage != 1 {
		t.Errorf("LastPage: got %d, want 1", page.Meta.LastPage)
	}
}

func TestSafeBlobKey(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		wantStem string
		wantExt  string
	}{
		{name: "spaces and punctuation", input: "my photo (1).png", wantStem: "my_photo__1_", wantExt: ".png"},
		{name: "path traversal", input: "../../etc/passwd.jpg", wantStem: "passwd", wantExt: ".jpg"},
		{name: "no extension", input: "README", wantStem: "README", wantExt: ""},
		{name: "unicode", input: "café.png", wantStem: "caf_", wantExt: ".png"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			key, err := safeBlobKey(tc.input)
			if err != nil {
				t.Fatalf("safeBlobKey: %v", err)
			}
			if !strings.HasPrefix(key, blobPrefix) {
				t.Fatalf("missing prefix: %q", key)
			}
			name := strings.TrimPrefix(key, blobPrefix)
			if !strings.HasSuffix(name, tc.wantExt) {
				t.Errorf("extension: got %q, want suffix %q", name, tc.wantExt)
			}
			stem := strings.TrimSuffix(name, tc.wantExt)
			wantPrefix := tc.wantStem + "_"
			if !strings.HasPrefix(stem, wantPrefix) {
				t.Errorf("stem: got %q, want prefix %q", stem, wantPrefix)
			}
			if len(stem) != len(wantPrefix)+10 {
				t.Errorf("suffix length: key %q", key)
			}
		})
	}
}

func TestSafeBlobKeyCollisionResistance(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		key, err := safeBlobKey("photo.png")
		if err != nil {
			t.Fatalf("safeBlobKey: %v", err)
		}
		if seen[key] {
			t.Fatalf("duplicate key: %s", key)
		}
		seen[key] = true
	}
}
