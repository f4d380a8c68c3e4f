package gen

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriterWrite(t *testing.T) {
	dir := t.TempDir()
	files := &GeneratedFiles{
		Layers: map[Layer]map[string]string{
			LayerContracts: {"user.dto.ts": "export interface UserDTO {}\n"},
			LayerSDK:       {"user_client.go": "package sdk\n\nimport \"fmt\"\n\nfunc init() { fmt.Println() }\n"},
		},
		Hooks: map[string]map[string]string{
			"react": {"use_user.react.ts": "export function useUser() {}\n"},
		},
		Summary: &RunSummary{RunID: "r1"},
	}

	w := NewWriter(dir).WithWorkers(2)
	require.NoError(t, w.Write(context.Background(), files))

	dto, err := os.ReadFile(filepath.Join(dir, "contracts", "user.dto.ts"))
	require.NoError(t, err)
	assert.Contains(t, string(dto), "UserDTO")

	client, err := os.ReadFile(filepath.Join(dir, "sdk", "user_client.go"))
	require.NoError(t, err)
	assert.Contains(t, string(client), "package sdk")

	hook, err := os.ReadFile(filepath.Join(dir, "hooks", "react", "use_user.react.ts"))
	require.NoError(t, err)
	assert.Contains(t, string(hook), "useUser")

	metrics := w.Metrics()
	assert.Equal(t, 3, metrics.FilesWritten)
	assert.Positive(t, metrics.TotalBytes)
}

func TestWriterEndToEnd(t *testing.T) {
	cfg := testConfig(&RawConfig{ErrorHandling: RawErrorHandling{ContinueOnError: true}})
	artifact, err := NewPipeline(cfg, basicSchema()).Run(context.Background())
	require.NoError(t, err)

	dir := t.TempDir()
	require.NoError(t, NewWriter(dir).Write(context.Background(), artifact))

	// Every generated SDK client lands formatted and parseable.
	entries, err := os.ReadDir(filepath.Join(dir, "sdk"))
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}
