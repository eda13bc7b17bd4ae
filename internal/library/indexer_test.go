package library

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/syncnest/syncnest/internal/models"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeFile(t *testing.T, path string) {
	t.Helper()
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func setupIndexer(t *testing.T) (*Indexer, string) {
	t.Helper()
	home := t.TempDir()
	dirs := map[models.MediaClass]string{
		models.ClassVideo:    filepath.Join(home, "Videos"),
		models.ClassMusic:    filepath.Join(home, "Music"),
		models.ClassDocument: filepath.Join(home, "Documents"),
		models.ClassPicture:  filepath.Join(home, "Pictures"),
	}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", d, err)
		}
	}
	return New(home, dirs, testLogger()), home
}

func TestListFiltersByExtension(t *testing.T) {
	ix, home := setupIndexer(t)
	musicDir := filepath.Join(home, "Music")
	writeFile(t, filepath.Join(musicDir, "song.mp3"))
	writeFile(t, filepath.Join(musicDir, "cover.jpg"))
	writeFile(t, filepath.Join(musicDir, "notes.txt"))

	entries := ix.List(models.ClassMusic)
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
	if entries[0].Title != "song" {
		t.Errorf("title = %q, want %q", entries[0].Title, "song")
	}
	if entries[0].File != "/Music/song.mp3" {
		t.Errorf("file = %q, want %q", entries[0].File, "/Music/song.mp3")
	}
}

func TestListSkipsSubdirectories(t *testing.T) {
	ix, home := setupIndexer(t)
	musicDir := filepath.Join(home, "Music")
	nested := filepath.Join(musicDir, "album")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	writeFile(t, filepath.Join(nested, "hidden.mp3"))
	writeFile(t, filepath.Join(musicDir, "top.mp3"))

	entries := ix.List(models.ClassMusic)
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1 (subdirectories must not be descended)", len(entries))
	}
	if entries[0].Title != "top" {
		t.Errorf("title = %q, want %q", entries[0].Title, "top")
	}
}

func TestListUnreadableDirectoryYieldsEmpty(t *testing.T) {
	home := t.TempDir()
	ix := New(home, map[models.MediaClass]string{
		models.ClassDocument: filepath.Join(home, "does-not-exist"),
	}, testLogger())

	entries := ix.List(models.ClassDocument)
	if len(entries) != 0 {
		t.Fatalf("entries = %d, want 0", len(entries))
	}
}

func TestListCaseInsensitiveExtensions(t *testing.T) {
	ix, home := setupIndexer(t)
	writeFile(t, filepath.Join(home, "Pictures", "photo.JPG"))

	entries := ix.List(models.ClassPicture)
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
}

// fakeThumbnailer records Ensure calls; hit controls whether it reports a
// cached thumbnail.
type fakeThumbnailer struct {
	hit   bool
	path  string
	calls []string
}

func (f *fakeThumbnailer) Ensure(title, videoPath string) (string, bool) {
	f.calls = append(f.calls, title)
	if f.hit {
		return f.path, true
	}
	return "", false
}

func TestListVideosOmitsUncachedThumbnails(t *testing.T) {
	ix, home := setupIndexer(t)
	writeFile(t, filepath.Join(home, "Videos", "clip.mp4"))

	th := &fakeThumbnailer{hit: false}
	entries := ix.ListVideos(th)
	if len(entries) != 0 {
		t.Fatalf("entries = %d, want 0 while thumbnail is missing", len(entries))
	}
	if len(th.calls) != 1 || th.calls[0] != "clip" {
		t.Fatalf("thumbnailer calls = %v, want [clip]", th.calls)
	}
}

func TestListVideosIncludesCachedThumbnails(t *testing.T) {
	ix, home := setupIndexer(t)
	writeFile(t, filepath.Join(home, "Videos", "clip.mp4"))

	th := &fakeThumbnailer{hit: true, path: filepath.Join(home, "SyncNestData", "clip.jpg")}
	entries := ix.ListVideos(th)
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
	if entries[0].Thumbnail != "/SyncNestData/clip.jpg" {
		t.Errorf("thumbnail = %q, want %q", entries[0].Thumbnail, "/SyncNestData/clip.jpg")
	}
	if entries[0].Video != "/Videos/clip.mp4" {
		t.Errorf("video = %q, want %q", entries[0].Video, "/Videos/clip.mp4")
	}
}
