package config

import (
	"path/filepath"
	"testing"
)

func TestLoadConfigDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("SYNCNEST_HOME", home)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.ServicePort != "8080" {
		t.Errorf("ServicePort = %s", cfg.ServicePort)
	}
	if cfg.VideoDir != filepath.Join(home, "Videos") {
		t.Errorf("VideoDir = %s", cfg.VideoDir)
	}
	if cfg.ThumbnailDir != filepath.Join(home, "SyncNestData") {
		t.Errorf("ThumbnailDir = %s", cfg.ThumbnailDir)
	}
	if cfg.AuditDriver != "sqlite" {
		t.Errorf("AuditDriver = %s", cfg.AuditDriver)
	}
	if cfg.AuditDBPath != filepath.Join(home, "SyncNestDb", "data.db") {
		t.Errorf("AuditDBPath = %s", cfg.AuditDBPath)
	}
	if cfg.MinFreeBytes != 100*1024*1024 {
		t.Errorf("MinFreeBytes = %d", cfg.MinFreeBytes)
	}
	if cfg.UploadOverwrite {
		t.Error("UploadOverwrite defaulted to true")
	}
	if cfg.ThumbWorkers != 2 {
		t.Errorf("ThumbWorkers = %d", cfg.ThumbWorkers)
	}
	if cfg.MirrorEndpoint != "" {
		t.Errorf("MirrorEndpoint = %s, want disabled by default", cfg.MirrorEndpoint)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	home := t.TempDir()
	t.Setenv("SYNCNEST_HOME", home)
	t.Setenv("SYNCNEST_PORT", "9090")
	t.Setenv("SYNCNEST_VIDEO_DIR", "/srv/media/video")
	t.Setenv("SYNCNEST_MIN_FREE_MB", "250")
	t.Setenv("SYNCNEST_UPLOAD_OVERWRITE", "true")
	t.Setenv("SYNCNEST_THUMB_WORKERS", "4")
	t.Setenv("SYNCNEST_AUDIT_DRIVER", "mysql")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.ServicePort != "9090" {
		t.Errorf("ServicePort = %s", cfg.ServicePort)
	}
	if cfg.VideoDir != "/srv/media/video" {
		t.Errorf("VideoDir = %s", cfg.VideoDir)
	}
	if cfg.MinFreeBytes != 250*1024*1024 {
		t.Errorf("MinFreeBytes = %d", cfg.MinFreeBytes)
	}
	if !cfg.UploadOverwrite {
		t.Error("UploadOverwrite not overridden")
	}
	if cfg.ThumbWorkers != 4 {
		t.Errorf("ThumbWorkers = %d", cfg.ThumbWorkers)
	}
	if cfg.AuditDriver != "mysql" {
		t.Errorf("AuditDriver = %s", cfg.AuditDriver)
	}
}

func TestLoadConfigInvalidIntFallsBack(t *testing.T) {
	t.Setenv("SYNCNEST_HOME", t.TempDir())
	t.Setenv("SYNCNEST_THUMB_WORKERS", "many")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.ThumbWorkers != 2 {
		t.Errorf("ThumbWorkers = %d, want default on bad value", cfg.ThumbWorkers)
	}
}

func TestGetDSN(t *testing.T) {
	cfg := &Config{
		MySQLHost:     "db.local",
		MySQLPort:     "3307",
		MySQLUser:     "media",
		MySQLPassword: "secret",
		MySQLDatabase: "syncnest",
	}
	want := "media:secret@tcp(db.local:3307)/syncnest?charset=utf8mb4&parseTime=True&loc=Local"
	if got := cfg.GetDSN(); got != want {
		t.Errorf("GetDSN() = %s, want %s", got, want)
	}
}
