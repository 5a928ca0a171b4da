package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/docparse-mcp/internal/entity"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("", "")
	require.NoError(t, err)

	assert.Equal(t, ":8000", cfg.Server.Addr)
	assert.Equal(t, int64(20), cfg.Server.MaxUploadMB)
	assert.Equal(t, int64(20<<20), cfg.Server.MaxUploadBytes())
	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "eng", cfg.OCR.Language)
	assert.Equal(t, 60.0, cfg.OCR.MinConfidence)
	assert.True(t, cfg.Preprocess.Grayscale)
	assert.Equal(t, 60*time.Second, cfg.Labeler.Timeout)
	assert.Equal(t, "auto", cfg.Grouping.Convention)
	assert.Equal(t, []string{"O", "other"}, cfg.Grouping.OutsideLabels)
	assert.Equal(t, "none", cfg.Cache.Backend)
	assert.Equal(t, 24*time.Hour, cfg.Cache.TTL)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("DOCPARSE_SERVER_ADDR", ":9090")
	t.Setenv("DOCPARSE_OCR_MIN_CONFIDENCE", "75")
	t.Setenv("DOCPARSE_LABELER_ENDPOINT", "http://model:9000")
	t.Setenv("DOCPARSE_LABELER_TIMEOUT", "5s")
	t.Setenv("DOCPARSE_GROUPING_CONVENTION", "iob")
	t.Setenv("DOCPARSE_GROUPING_OUTSIDE_LABELS", "O,OTHER")
	t.Setenv("DOCPARSE_CACHE_BACKEND", "memory")

	cfg, err := Load("", "")
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, 75.0, cfg.OCR.MinConfidence)
	assert.Equal(t, "http://model:9000", cfg.Labeler.Endpoint)
	assert.Equal(t, 5*time.Second, cfg.Labeler.Timeout)
	assert.Equal(t, "iob", cfg.Grouping.Convention)
	assert.Equal(t, []string{"O", "OTHER"}, cfg.Grouping.OutsideLabels)
	assert.Equal(t, "memory", cfg.Cache.Backend)
}

func TestLoad_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "docparse.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  addr: ":7000"
preprocess:
  threshold: 140
  min_height: 1000
grouping:
  convention: flat
  flat_split_on_begin: true
  malformed_policy: reject
log:
  level: debug
  format: json
`), 0o644))

	cfg, err := Load(path, "")
	require.NoError(t, err)

	assert.Equal(t, ":7000", cfg.Server.Addr)
	assert.Equal(t, uint8(140), cfg.Preprocess.Threshold)
	assert.Equal(t, 1000, cfg.Preprocess.MinHeight)
	assert.True(t, cfg.Grouping.FlatSplitOnBegin)
	assert.Equal(t, "json", cfg.Log.Format)

	opts, conv, err := cfg.Grouping.Options()
	require.NoError(t, err)
	assert.Equal(t, entity.Flat, conv)
	assert.Len(t, opts, 3)
}

func TestLoad_EnvFile(t *testing.T) {
	const key = "DOCPARSE_LABELER_MODEL"
	t.Cleanup(func() { _ = os.Unsetenv(key) })

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte(key+"=layoutlmv3-funsd\n"), 0o644))

	cfg, err := Load("", path)
	require.NoError(t, err)
	assert.Equal(t, "layoutlmv3-funsd", cfg.Labeler.Model)
}

func TestLoad_MissingEnvFileIgnored(t *testing.T) {
	_, err := Load("", filepath.Join(t.TempDir(), "absent.env"))
	assert.NoError(t, err)
}

func TestLoad_MissingConfigFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), "")
	assert.Error(t, err)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name, key, value, msg string
	}{
		{"convention", "DOCPARSE_GROUPING_CONVENTION", "bilou", "grouping"},
		{"malformed policy", "DOCPARSE_GROUPING_MALFORMED_POLICY", "explode", "grouping"},
		{"cache backend", "DOCPARSE_CACHE_BACKEND", "memcached", "cache"},
		{"upload size", "DOCPARSE_SERVER_MAX_UPLOAD_MB", "0", "max_upload_mb"},
		{"confidence", "DOCPARSE_OCR_MIN_CONFIDENCE", "101", "min_confidence"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load("", "")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestGroupingConfig_Options(t *testing.T) {
	opts, conv, err := GroupingConfig{Convention: "IOB", OutsideLabels: []string{"O", "other"}}.Options()
	require.NoError(t, err)
	assert.Equal(t, entity.IOB, conv)

	words := []entity.WordRecord{
		{Text: "a", BBox: entity.BBox{Left: 0, Top: 0, Right: 10, Bottom: 10}, Label: "B-HEADER"},
		{Text: "b", BBox: entity.BBox{Left: 12, Top: 0, Right: 20, Bottom: 10}, Label: "other"},
		{Text: "c", BBox: entity.BBox{Left: 22, Top: 0, Right: 30, Bottom: 10}, Label: "I-HEADER"},
	}
	c, _ := entity.New(append(opts, entity.WithConvention(conv))...).Group(words)
	assert.Len(t, c["HEADER"], 2, "custom outside label closes the entity")
}
