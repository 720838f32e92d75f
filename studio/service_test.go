package studio

import (
	"bytes"
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toonana/toonana/errors"
	"github.com/toonana/toonana/internal/testutil"
	"github.com/toonana/toonana/journal"
	"github.com/toonana/toonana/vault"
)

type fakeText struct {
	storyboard string
	err        error
	block      bool
}

func (f *fakeText) GenerateStream(ctx context.Context, _, _ string, onDelta func(string)) (string, error) {
	if f.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if f.err != nil {
		return "", f.err
	}
	if onDelta != nil {
		for _, line := range strings.SplitAfter(f.storyboard, "\n") {
			onDelta(line)
		}
	}
	return f.storyboard, nil
}

func (f *fakeText) Health(context.Context) error { return nil }
func (f *fakeText) ModelName() string            { return "fake-model" }

var tinyPNG = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0x00, 0x01}

type fakeRenderer struct {
	err error
}

func (f *fakeRenderer) Render(context.Context, string, string) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	return tinyPNG, nil
}

func newTestService(t *testing.T, text *fakeText, renderer *fakeRenderer) (*Service, *journal.Store) {
	t.Helper()

	codec, err := vault.New(bytes.Repeat([]byte{0x07}, 32))
	require.NoError(t, err)

	imagesDir := t.TempDir()
	store := journal.NewStore(testutil.CreateTestDB(t), codec, imagesDir)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	return NewService(ctx, store, text, renderer, imagesDir, "ligne-claire"), store
}

func waitTerminal(t *testing.T, svc *Service, jobID string) JobStatus {
	t.Helper()
	require.Eventually(t, func() bool {
		status, err := svc.Status(jobID)
		return err == nil && status.Stage.Terminal()
	}, 5*time.Second, 10*time.Millisecond, "job never reached a terminal stage")

	status, err := svc.Status(jobID)
	require.NoError(t, err)
	return status
}

func TestCreateJobRejectsBadEntries(t *testing.T) {
	svc, store := newTestService(t, &fakeText{}, &fakeRenderer{})
	ctx := context.Background()

	_, err := svc.CreateJob(ctx, "no-such-entry", "")
	assert.True(t, errors.Is(err, errors.ErrJobCreation))

	empty, err := store.Upsert(ctx, journal.Draft{Body: ""})
	require.NoError(t, err)
	_, err = svc.CreateJob(ctx, empty.ID, "")
	assert.True(t, errors.Is(err, errors.ErrJobCreation))
}

func TestPipelineHappyPath(t *testing.T) {
	storyboard := strings.Join([]string{
		"PANEL 1",
		"PROMPT: a desk buried in sticky notes",
		"DIALOGUE: where do I even start",
		"PANEL 2",
		"PROMPT: the same desk, spotless, at sunset",
		"DIALOGUE: done.",
	}, "\n")

	svc, store := newTestService(t, &fakeText{storyboard: storyboard}, &fakeRenderer{})
	ctx := context.Background()

	entry, err := store.Upsert(ctx, journal.Draft{Body: "Cleaned my desk today.\n\nIt took all afternoon."})
	require.NoError(t, err)

	created, err := svc.CreateJob(ctx, entry.ID, "")
	require.NoError(t, err)
	assert.Equal(t, StageQueued(), created.Stage)
	assert.Equal(t, "ligne-claire", created.Style)

	status := waitTerminal(t, svc, created.JobID)
	assert.Equal(t, StageDone(), status.Stage)
	assert.Equal(t, storyboard, status.StoryboardText)
	require.Len(t, status.PanelImagePaths, 2)
	for _, path := range status.PanelImagePaths {
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, tinyPNG, data)
		assert.True(t, strings.HasSuffix(path, ".png"))
	}

	panels, err := store.Panels(ctx, entry.ID)
	require.NoError(t, err)
	require.Len(t, panels, 2)
	assert.Equal(t, "a desk buried in sticky notes", panels[0].Prompt)
	assert.Equal(t, "done.", panels[1].Dialogue)
	assert.Equal(t, "ligne-claire", panels[0].Style)

	sb, err := store.LatestStoryboard(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, storyboard, sb.Body)
	assert.Equal(t, "fake-model", sb.Model)
}

func TestPipelineCancelMidDrafting(t *testing.T) {
	svc, store := newTestService(t, &fakeText{block: true}, &fakeRenderer{})
	ctx := context.Background()

	entry, err := store.Upsert(ctx, journal.Draft{Body: "an entry that will be cancelled"})
	require.NoError(t, err)

	created, err := svc.CreateJob(ctx, entry.ID, "")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		status, err := svc.Status(created.JobID)
		return err == nil && status.Stage.Phase == PhaseDrafting
	}, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, svc.Cancel(created.JobID))

	status := waitTerminal(t, svc, created.JobID)
	assert.Equal(t, StageFailed("cancelled"), status.Stage)
}

func TestPipelineRendererFailure(t *testing.T) {
	svc, store := newTestService(t,
		&fakeText{storyboard: "PANEL 1\nPROMPT: a scene\n"},
		&fakeRenderer{err: errors.New("renderer unreachable")})
	ctx := context.Background()

	entry, err := store.Upsert(ctx, journal.Draft{Body: "doomed render"})
	require.NoError(t, err)

	created, err := svc.CreateJob(ctx, entry.ID, "manga")
	require.NoError(t, err)

	status := waitTerminal(t, svc, created.JobID)
	require.Equal(t, PhaseFailed, status.Stage.Phase)
	assert.Contains(t, status.Stage.Err, "renderer unreachable")

	// Nothing was persisted for the failed job.
	panels, err := store.Panels(ctx, entry.ID)
	require.NoError(t, err)
	assert.Empty(t, panels)

	require.NoError(t, svc.Shutdown(context.Background()))
	assert.Equal(t, 0, svc.Registry().ActiveCount())
}
