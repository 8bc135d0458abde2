package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/walkabout/internal/topo"
	"github.com/zjrosen/walkabout/internal/tracing"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()
	require.Equal(t, []string{"LAST"}, cfg.Sorter.Before)
	require.Empty(t, cfg.Sorter.After)
	require.Equal(t, FormatText, cfg.Output.Format)
	require.True(t, cfg.Output.Color)
	require.False(t, cfg.Log.Debug)
	require.False(t, cfg.Tracing.Enabled)
	require.Equal(t, tracing.ExporterFile, cfg.Tracing.Exporter)
	require.NoError(t, cfg.Validate())
}

func TestSorterConfig_Options(t *testing.T) {
	require.Nil(t, SorterConfig{}.Options())

	opts := SorterConfig{After: []string{"FIRST"}}.Options()
	require.Len(t, opts, 1)

	// with after=FIRST and no before, b (registered later) ends up first
	s := topo.NewSorter[string, int](opts...)
	s.Add("a", 1, nil, nil)
	s.Add("b", 2, nil, nil)
	items, err := s.Sorted()
	require.NoError(t, err)
	require.Equal(t, "b", items[0].Name)
}

func TestValidateSorter(t *testing.T) {
	require.NoError(t, ValidateSorter(SorterConfig{Before: []string{"LAST", "a"}}))

	err := ValidateSorter(SorterConfig{After: []string{"a", ""}})
	require.ErrorContains(t, err, "sorter.after[1]")

	err = ValidateSorter(SorterConfig{Before: []string{""}})
	require.ErrorContains(t, err, "sorter.before[0]")
}

func TestValidateLog(t *testing.T) {
	require.NoError(t, ValidateLog(LogConfig{}))
	require.NoError(t, ValidateLog(LogConfig{Level: "warn"}))
	require.ErrorContains(t, ValidateLog(LogConfig{Level: "loud"}), "log.level")
}

func TestValidateOutput(t *testing.T) {
	require.NoError(t, ValidateOutput(OutputConfig{}))
	require.NoError(t, ValidateOutput(OutputConfig{Format: FormatJSON}))
	require.ErrorContains(t, ValidateOutput(OutputConfig{Format: "xml"}), "output.format")
}

func TestValidateTracing(t *testing.T) {
	require.NoError(t, ValidateTracing(tracing.Config{}))

	err := ValidateTracing(tracing.Config{SampleRate: -0.5})
	require.ErrorContains(t, err, "sample_rate")

	err = ValidateTracing(tracing.Config{Enabled: true, Exporter: tracing.ExporterFile, SampleRate: 1})
	require.ErrorContains(t, err, "file_path")
}

func TestConfig_Validate_FirstFailure(t *testing.T) {
	cfg := Defaults()
	cfg.Output.Format = "xml"
	require.ErrorContains(t, cfg.Validate(), "output.format")

	cfg = Defaults()
	cfg.Log.Level = "loud"
	require.ErrorContains(t, cfg.Validate(), "log.level")
}

func TestDefaultTracesFilePath(t *testing.T) {
	path := DefaultTracesFilePath()
	if path == "" {
		t.Skip("no home directory")
	}
	require.True(t, strings.HasSuffix(path, filepath.Join("walkabout", "traces", "traces.jsonl")))
}

func TestWriteDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".walkabout", "config.yaml")
	require.NoError(t, WriteDefaultConfig(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, DefaultConfigTemplate(), string(data))

	v := viper.New()
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	var cfg Config
	require.NoError(t, v.Unmarshal(&cfg))
	require.Equal(t, []string{"LAST"}, cfg.Sorter.Before)
	require.Equal(t, "walkabout.log", cfg.Log.Path)
	require.Equal(t, "debug", cfg.Log.Level)
	require.Equal(t, FormatText, cfg.Output.Format)
	require.True(t, cfg.Output.Color)
	require.NoError(t, cfg.Validate())
}
