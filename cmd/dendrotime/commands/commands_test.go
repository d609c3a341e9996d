package commands_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/dendrotime/cmd/dendrotime/commands"
	"github.com/Sumatoshi-tech/dendrotime/pkg/progress"
	"github.com/Sumatoshi-tech/dendrotime/pkg/recording"
)

const finishedSnapshot = `{
  "hierarchy": {
    "hierarchy": [
      {"cId1": 0, "cId2": 1, "cardinality": 2, "distance": 0.2, "idx": 0},
      {"cId1": 4, "cId2": 2, "cardinality": 3, "distance": null, "idx": 1}
    ],
    "n": 4
  },
  "state": "Finished",
  "progress": 100,
  "steps": [1, 2],
  "timestamps": [1000, 1400],
  "hierarchyQualities": [0.4, 0.6]
}`

func execute(ctx context.Context, args ...string) (string, error) {
	root := commands.NewRootCommand()

	var out bytes.Buffer

	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)

	err := root.ExecuteContext(ctx)

	return out.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

// fastConfig polls quickly and releases finished jobs immediately.
func fastConfig(t *testing.T, extra string) string {
	t.Helper()

	return writeFile(t, "config.yaml", "backend:\n  poll_interval: 10ms\n  finish_grace: 0s\n"+extra)
}

type fakeBackend struct {
	requests []string
	mu       sync.Mutex
}

func (f *fakeBackend) record(req string) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()
}

func (f *fakeBackend) seen() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]string(nil), f.requests...)
}

func newBackend(t *testing.T) (*fakeBackend, string) {
	t.Helper()

	f := &fakeBackend{}
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/datasets", func(w http.ResponseWriter, _ *http.Request) {
		f.record("datasets")
		fmt.Fprint(w, `{"datasets":[{"id":1,"name":"Coffee"},{"id":2,"name":"BeetleFly"}]}`)
	})

	mux.HandleFunc("POST /api/jobs", func(w http.ResponseWriter, _ *http.Request) {
		f.record("start")
		fmt.Fprint(w, `{"id":17}`)
	})

	mux.HandleFunc("GET /api/jobs/{id}/progress", func(w http.ResponseWriter, r *http.Request) {
		f.record("progress " + r.PathValue("id"))
		fmt.Fprint(w, finishedSnapshot)
	})

	mux.HandleFunc("DELETE /api/jobs/{id}", func(w http.ResponseWriter, r *http.Request) {
		f.record("cancel " + r.PathValue("id"))
		fmt.Fprint(w, "job canceled")
	})

	mux.HandleFunc("POST /api/jobs/{id}", func(w http.ResponseWriter, r *http.Request) {
		f.record("stop " + r.PathValue("id"))
		w.WriteHeader(http.StatusOK)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return f, srv.URL
}

func TestRootCommand_Subcommands(t *testing.T) {
	t.Parallel()

	root := commands.NewRootCommand()

	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}

	assert.ElementsMatch(t, []string{
		"serve", "watch", "start", "cancel", "datasets", "render", "validate", "replay", "mcp",
	}, names)
	assert.NotNil(t, root.PersistentFlags().Lookup("config"))
}

func TestRender_JSON(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "snap.json", finishedSnapshot)

	out, err := execute(context.Background(), "render", path, "--format", "json", "--job", "9")
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))

	assert.InDelta(t, 9, decoded["job_id"], 0)
	assert.InDelta(t, 4, decoded["leaf_count"], 0)
	assert.Equal(t, "Finished", decoded["state"])

	tree, ok := decoded["tree"].(map[string]any)
	require.True(t, ok)
	assert.InDelta(t, 5, tree["id"], 0)
	assert.NotNil(t, decoded["layout"])
}

func TestRender_YAMLToFile(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "snap.json", finishedSnapshot)
	target := filepath.Join(t.TempDir(), "view.yaml")

	out, err := execute(context.Background(), "render", path, "-f", "yaml", "-o", target)
	require.NoError(t, err)
	assert.Empty(t, out)

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Contains(t, string(data), "leaf_count: 4")
	assert.Contains(t, string(data), "axis_label: Steps")
}

func TestRender_HTML(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "snap.json", finishedSnapshot)

	out, err := execute(context.Background(), "render", path, "--theme", "light", "--timestamps")
	require.NoError(t, err)
	assert.Contains(t, out, "DendroTime")
	assert.Contains(t, out, "echarts")
}

func TestRender_Text(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "snap.json", finishedSnapshot)

	out, err := execute(context.Background(), "render", path, "-f", "text")
	require.NoError(t, err)
	assert.Contains(t, out, "Finished")
	assert.Contains(t, out, "Hierarchy Quality")
	assert.Contains(t, out, "└── 3")
}

func TestRender_UnknownFormat(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "snap.json", finishedSnapshot)

	_, err := execute(context.Background(), "render", path, "-f", "svg")
	require.ErrorIs(t, err, commands.ErrUnknownFormat)
}

func TestRender_BadSnapshot(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "snap.json", "{")

	_, err := execute(context.Background(), "render", path)
	require.ErrorIs(t, err, progress.ErrDecode)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	good := writeFile(t, "good.json", finishedSnapshot)
	bad := writeFile(t, "bad.json", `{"state":"Finished"}`)

	out, err := execute(context.Background(), "validate", good)
	require.NoError(t, err)
	assert.Contains(t, out, good+": ok")

	out, err = execute(context.Background(), "validate", good, bad)
	require.ErrorIs(t, err, commands.ErrValidationFailed)
	assert.Contains(t, out, bad+": invalid progress snapshot")
}

func TestValidate_Schema(t *testing.T) {
	t.Parallel()

	out, err := execute(context.Background(), "validate", "--schema")
	require.NoError(t, err)
	assert.JSONEq(t, string(progress.Schema()), out)
}

func TestReplay_Diff(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	rec, path, err := recording.Create(dir, 7)
	require.NoError(t, err)

	first, err := progress.Parse([]byte(`{"hierarchy":{"hierarchy":[{"cId1":0,"cId2":1,"cardinality":2,"distance":0.2}],"n":4},` +
		`"state":"Approximating","progress":50,"steps":[1],"hierarchyQualities":[0.4]}`))
	require.NoError(t, err)

	last, err := progress.Parse([]byte(finishedSnapshot))
	require.NoError(t, err)

	require.NoError(t, rec.Record(first))
	require.NoError(t, rec.Record(last))
	require.NoError(t, rec.Close())

	out, err := execute(context.Background(), "replay", path, "--diff", "--tree")
	require.NoError(t, err)

	assert.Contains(t, out, "2 frames")
	assert.Contains(t, out, "Approximating")
	assert.Contains(t, out, "+ 5 (d=")
	assert.Contains(t, out, "- 4 (d=")
}

func TestDatasets(t *testing.T) {
	t.Parallel()

	backend, url := newBackend(t)

	out, err := execute(context.Background(), "datasets", "--backend", url)
	require.NoError(t, err)
	assert.Contains(t, out, "Coffee")
	assert.Contains(t, out, "BeetleFly")
	assert.Equal(t, []string{"datasets"}, backend.seen())
}

func TestStart(t *testing.T) {
	t.Parallel()

	backend, url := newBackend(t)

	out, err := execute(context.Background(), "start", "BeetleFly", "--backend", url, "--linkage", "ward")
	require.NoError(t, err)
	assert.Equal(t, "17\n", out)
	assert.Equal(t, []string{"datasets", "start"}, backend.seen())

	_, err = execute(context.Background(), "start", "Wine", "--backend", url)
	require.ErrorIs(t, err, commands.ErrUnknownDataset)
}

func TestCancel(t *testing.T) {
	t.Parallel()

	backend, url := newBackend(t)

	out, err := execute(context.Background(), "cancel", "3", "--backend", url)
	require.NoError(t, err)
	assert.Equal(t, "job canceled\n", out)
	assert.Equal(t, []string{"cancel 3"}, backend.seen())

	_, err = execute(context.Background(), "cancel", "x", "--backend", url)
	require.ErrorIs(t, err, commands.ErrInvalidJobID)
}

func TestWatch_RecordsAndReleases(t *testing.T) {
	t.Parallel()

	backend, url := newBackend(t)
	recDir := t.TempDir()
	cfg := fastConfig(t, "recording:\n  enabled: true\n  directory: "+recDir+"\n")

	out, err := execute(context.Background(), "watch", "5", "--backend", url, "--config", cfg, "--tree")
	require.NoError(t, err)

	assert.Contains(t, out, "Finished")
	assert.Contains(t, out, "└── 3")
	assert.Equal(t, []string{"progress 5", "stop 5"}, backend.seen())

	matches, err := filepath.Glob(filepath.Join(recDir, "*"+recording.Extension))
	require.NoError(t, err)
	require.Len(t, matches, 1)

	rd, err := recording.Open(matches[0])
	require.NoError(t, err)

	defer rd.Close()

	frames, err := rd.All()
	require.NoError(t, err)
	require.Len(t, frames, 1)
	assert.Equal(t, int64(5), frames[0].JobID)
}

func TestServe_FollowsJob(t *testing.T) {
	t.Parallel()

	backend, url := newBackend(t)
	cfg := fastConfig(t, "server:\n  shutdown_timeout: 1s\n")

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)

	go func() {
		_, err := execute(ctx, "serve", "--addr", "127.0.0.1:0", "--job", "8", "--backend", url, "--config", cfg)
		done <- err
	}()

	require.Eventually(t, func() bool {
		seen := backend.seen()

		return len(seen) > 0 && seen[len(seen)-1] == "stop 8"
	}, 5*time.Second, 10*time.Millisecond)

	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not stop")
	}
}
