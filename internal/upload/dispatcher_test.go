package upload

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/syncnest/syncnest/internal/models"
)

// memStore is an in-memory audit.Store for dispatcher tests.
type memStore struct {
	mu     sync.Mutex
	events []models.AuditEvent
}

func (m *memStore) Record(ctx context.Context, class models.MediaClass, name string, action models.Action) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := int64(len(m.events) + 1)
	m.events = append(m.events, models.AuditEvent{ID: id, Class: class, Name: name, Action: action})
	return id, nil
}

func (m *memStore) List(ctx context.Context) ([]models.AuditEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.AuditEvent, len(m.events))
	for i, ev := range m.events {
		out[len(m.events)-1-i] = ev
	}
	return out, nil
}

func (m *memStore) Close() error { return nil }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setupDispatcher(t *testing.T, overwrite bool) (*Dispatcher, Dirs, *memStore) {
	t.Helper()
	root := t.TempDir()
	dirs := Dirs{
		Video:    filepath.Join(root, "Videos"),
		Music:    filepath.Join(root, "Music"),
		Document: filepath.Join(root, "Documents"),
		Picture:  filepath.Join(root, "Pictures"),
		Overflow: filepath.Join(root, "others"),
	}
	store := &memStore{}
	d := NewDispatcher(dirs, 0, overwrite, store, testLogger())
	return d, dirs, store
}

func TestResolveDestination(t *testing.T) {
	d, dirs, _ := setupDispatcher(t, false)

	tests := []struct {
		mime      string
		wantClass models.MediaClass
		wantDir   string
	}{
		{"image/png", models.ClassPicture, dirs.Picture},
		{"image/jpeg", models.ClassPicture, dirs.Picture},
		{"video/mp4", models.ClassVideo, dirs.Video},
		{"audio/mpeg", models.ClassMusic, dirs.Music},
		{"application/pdf", models.ClassDocument, dirs.Document},
		{"application/msword", models.ClassDocument, dirs.Document},
		{"application/vnd.openxmlformats-officedocument.wordprocessingml.document", models.ClassDocument, dirs.Document},
		{"application/x-custom", models.ClassDocument, dirs.Overflow},
		{"font/woff2", models.ClassDocument, dirs.Overflow},
		{"IMAGE/PNG", models.ClassPicture, dirs.Picture},
		{"audio/mpeg; charset=binary", models.ClassMusic, dirs.Music},
	}
	for _, tt := range tests {
		got := d.ResolveDestination(tt.mime)
		if got.Class != tt.wantClass {
			t.Errorf("%s: class = %q, want %q", tt.mime, got.Class, tt.wantClass)
		}
		if got.Dir != tt.wantDir {
			t.Errorf("%s: dir = %q, want %q", tt.mime, got.Dir, tt.wantDir)
		}
	}
}

func TestAcceptStoresFileAndRecordsUpload(t *testing.T) {
	d, dirs, store := setupDispatcher(t, false)

	stored, err := d.Accept(context.Background(), strings.NewReader("pdf bytes"), "report.pdf", "application/pdf")
	if err != nil {
		t.Fatalf("Accept: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dirs.Document, "report.pdf"))
	if err != nil {
		t.Fatalf("stored file missing: %v", err)
	}
	if string(data) != "pdf bytes" {
		t.Errorf("content = %q", data)
	}
	if stored.Size != int64(len("pdf bytes")) {
		t.Errorf("size = %d", stored.Size)
	}

	events, _ := store.List(context.Background())
	if len(events) != 1 {
		t.Fatalf("events = %d, want 1", len(events))
	}
	if events[0].Action != models.ActionUpload || events[0].Name != "report.pdf" {
		t.Errorf("event = %+v", events[0])
	}
}

func TestAcceptRejectsWhenDiskFull(t *testing.T) {
	d, dirs, store := setupDispatcher(t, false)
	d.minFreeBytes = 1 << 40

	orig := freeBytes
	freeBytes = func(path string) (uint64, error) { return 1024, nil }
	t.Cleanup(func() { freeBytes = orig })

	_, err := d.Accept(context.Background(), strings.NewReader("data"), "big.bin", "application/x-custom")
	if !errors.Is(err, ErrInsufficientSpace) {
		t.Fatalf("err = %v, want ErrInsufficientSpace", err)
	}

	// Fail-fast: nothing written anywhere, no partial content, no event.
	entries, _ := os.ReadDir(dirs.Overflow)
	if len(entries) != 0 {
		t.Errorf("overflow dir has %d entries after rejected upload", len(entries))
	}
	events, _ := store.List(context.Background())
	if len(events) != 0 {
		t.Errorf("events = %d after rejected upload, want 0", len(events))
	}
}

func TestAcceptRejectsNameCollision(t *testing.T) {
	d, _, _ := setupDispatcher(t, false)
	ctx := context.Background()

	if _, err := d.Accept(ctx, strings.NewReader("one"), "dup.png", "image/png"); err != nil {
		t.Fatalf("first Accept: %v", err)
	}
	_, err := d.Accept(ctx, strings.NewReader("two"), "dup.png", "image/png")
	if !errors.Is(err, ErrExists) {
		t.Fatalf("err = %v, want ErrExists", err)
	}
}

func TestAcceptOverwriteModeIsLastWriteWins(t *testing.T) {
	d, dirs, _ := setupDispatcher(t, true)
	ctx := context.Background()

	if _, err := d.Accept(ctx, strings.NewReader("one"), "dup.png", "image/png"); err != nil {
		t.Fatalf("first Accept: %v", err)
	}
	if _, err := d.Accept(ctx, strings.NewReader("two"), "dup.png", "image/png"); err != nil {
		t.Fatalf("second Accept: %v", err)
	}
	data, _ := os.ReadFile(filepath.Join(dirs.Picture, "dup.png"))
	if string(data) != "two" {
		t.Errorf("content = %q, want last write", data)
	}
}

// failingReader errors after its prefix is consumed.
type failingReader struct {
	prefix io.Reader
	done   bool
}

func (f *failingReader) Read(p []byte) (int, error) {
	if !f.done {
		n, err := f.prefix.Read(p)
		if err == io.EOF {
			f.done = true
			return n, nil
		}
		return n, err
	}
	return 0, errors.New("connection reset")
}

// The Upload event is recorded when the destination is resolved: a transfer
// that dies halfway still leaves its event, and the staged write leaves no
// partial file.
func TestUploadEventRecordedBeforeTransferCompletes(t *testing.T) {
	d, dirs, store := setupDispatcher(t, false)

	_, err := d.Accept(context.Background(),
		&failingReader{prefix: strings.NewReader("partial")}, "torn.mp3", "audio/mpeg")
	if err == nil {
		t.Fatal("Accept succeeded with failing reader")
	}

	events, _ := store.List(context.Background())
	if len(events) != 1 || events[0].Action != models.ActionUpload {
		t.Fatalf("events = %+v, want one Upload event despite the failed transfer", events)
	}

	if _, err := os.Stat(filepath.Join(dirs.Music, "torn.mp3")); err == nil {
		t.Error("partial destination file left behind")
	}
	entries, _ := os.ReadDir(dirs.Music)
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".upload-") {
			t.Errorf("temp file %s left behind", e.Name())
		}
	}
}

func TestAcceptStripsPathFromFilename(t *testing.T) {
	d, dirs, _ := setupDispatcher(t, false)

	stored, err := d.Accept(context.Background(), strings.NewReader("x"), "../../etc/passwd.png", "image/png")
	if err != nil {
		t.Fatalf("Accept: %v", err)
	}
	if stored.Path != filepath.Join(dirs.Picture, "passwd.png") {
		t.Errorf("path = %q escaped the destination", stored.Path)
	}
}
