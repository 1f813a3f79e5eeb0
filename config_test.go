package chipsupplier_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jamesmcclain/chipsupplier"
	"github.com/jamesmcclain/chipsupplier/raster"
)

// TestLoadConfig validates YAML loading with named dtypes and modes.
func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "supplier.yaml")
	doc := `workers: 4
slots: 8
imagery_path: mem://scene
label_path: mem://labels
imagery_dtype: uint16
label_dtype: uint8
mode: training
window_size: 256
bands: [3, 1, 2]
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := chipsupplier.LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Workers != 4 || cfg.Slots != 8 {
		t.Errorf("workers/slots = %d/%d, want 4/8", cfg.Workers, cfg.Slots)
	}
	if cfg.ImageryDType != raster.DTypeUInt16 || cfg.LabelDType != raster.DTypeUInt8 {
		t.Errorf("dtypes = %v/%v, want uint16/uint8", cfg.ImageryDType, cfg.LabelDType)
	}
	if cfg.Mode != chipsupplier.ModeTraining {
		t.Errorf("mode = %v, want training", cfg.Mode)
	}
	if got := cfg.ImagerySize(); got != 2*3*256*256 {
		t.Errorf("ImagerySize() = %d, want %d", got, 2*3*256*256)
	}
	if want := []int{3, 1, 2}; len(cfg.Bands) != 3 || cfg.Bands[0] != want[0] || cfg.Bands[1] != want[1] || cfg.Bands[2] != want[2] {
		t.Errorf("bands = %v, want %v", cfg.Bands, want)
	}
}

// TestLoadConfigRejects validates parse and validation failures surface.
func TestLoadConfigRejects(t *testing.T) {
	dir := t.TempDir()

	bad := filepath.Join(dir, "bad.yaml")
	os.WriteFile(bad, []byte("workers: [not an int\n"), 0o644)
	if _, err := chipsupplier.LoadConfig(bad); err == nil {
		t.Error("LoadConfig accepted malformed YAML")
	}

	invalid := filepath.Join(dir, "invalid.yaml")
	os.WriteFile(invalid, []byte("workers: 0\nslots: 1\nimagery_path: mem://x\nimagery_dtype: uint8\nmode: training\nwindow_size: 10\nbands: [1]\n"), 0o644)
	if _, err := chipsupplier.LoadConfig(invalid); err == nil {
		t.Error("LoadConfig accepted an invalid configuration")
	}

	if _, err := chipsupplier.LoadConfig(filepath.Join(dir, "absent.yaml")); err == nil {
		t.Error("LoadConfig accepted a missing file")
	}
}
