package sqlsplit

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T {
	return &v
}

func TestParseConfig(t *testing.T) {
	config, err := ParseConfig(filepath.Join("testdata", "config.yml"))
	require.NoError(t, err)
	assert.Equal(t, Config{ChunkSize: ptr(16), Format: ptr("json"), Parallel: ptr(2)}, config)

	config, err = ParseConfig("")
	require.NoError(t, err)
	assert.Equal(t, Config{}, config)

	_, err = ParseConfig(filepath.Join("testdata", "missing.yml"))
	assert.ErrorContains(t, err, "failed to read config")
}

func TestParseConfigString(t *testing.T) {
	tests := []struct {
		name     string
		yaml     string
		expected Config
		err      string
	}{
		{
			name:     "delimiter",
			yaml:     "delimiter: $$",
			expected: Config{Delimiter: ptr("$$")},
		},
		{
			name:     "batch separator",
			yaml:     "batch_separator: true\nformat: yaml",
			expected: Config{BatchSeparator: ptr(true), Format: ptr("yaml")},
		},
		{
			name:     "empty",
			yaml:     "",
			expected: Config{},
		},
		{
			name:     "comment only",
			yaml:     "# nothing here\n",
			expected: Config{},
		},
		{
			name: "unknown field",
			yaml: "chunksize: 3",
			err:  "invalid inline config",
		},
		{
			name: "unknown format",
			yaml: "format: xml",
			err:  `unknown format "xml"`,
		},
		{
			name: "zero chunk size",
			yaml: "chunk_size: 0",
			err:  "chunk_size must be positive, got 0",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			config, err := ParseConfigString(test.yaml)
			if test.err != "" {
				assert.ErrorContains(t, err, test.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, test.expected, config)
		})
	}
}

func TestMergeConfigs(t *testing.T) {
	merged := MergeConfigs([]Config{
		{ChunkSize: ptr(16), Format: ptr("json")},
		{Format: ptr("pp"), Parallel: ptr(4)},
		{Delimiter: ptr("//")},
	})
	assert.Equal(t, Config{ChunkSize: ptr(16), Delimiter: ptr("//"), Format: ptr("pp"), Parallel: ptr(4)}, merged)

	assert.Equal(t, Options{ChunkSize: 16, Delimiter: "//"}, merged.Options())
	assert.Equal(t, "pp", merged.OutputFormat())
	assert.Equal(t, 4, merged.Concurrency())
}

func TestConfigDefaults(t *testing.T) {
	var config Config
	assert.Equal(t, Options{}, config.Options())
	assert.Equal(t, "text", config.OutputFormat())
	assert.Equal(t, 1, config.Concurrency())
	assert.Equal(t, 1, Config{Parallel: ptr(-3)}.Concurrency())
}
