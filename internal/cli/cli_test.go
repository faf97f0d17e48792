package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"strconv"
	"testing"
	"time"

	domain "github.com/CodeineSolm/taskmaster/domain/task"
	"github.com/CodeineSolm/taskmaster/internal/client"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

var base = time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)

// fakeClient is an in-memory TaskClient.
type fakeClient struct {
	tasks   []domain.View
	updates []domain.UpdateInput
	url     string
}

func (f *fakeClient) List(context.Context) ([]domain.View, error) {
	return append([]domain.View(nil), f.tasks...), nil
}

func (f *fakeClient) find(id int64) (int, error) {
	for i, v := range f.tasks {
		if v.ID == id {
			return i, nil
		}
	}
	return -1, &client.APIError{StatusCode: 404, Message: "Task with id " + itoa(id) + " not found"}
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}

func (f *fakeClient) Get(_ context.Context, id int64) (domain.View, error) {
	i, err := f.find(id)
	if err != nil {
		return domain.View{}, err
	}
	return f.tasks[i], nil
}

func (f *fakeClient) Create(_ context.Context, title, description string) (domain.View, error) {
	v := domain.View{ID: int64(len(f.tasks) + 1), Title: title, CreatedAt: base.Add(time.Hour)}
	if description != "" {
		v.Description = &description
	}
	f.tasks = append(f.tasks, v)
	return v, nil
}

func (f *fakeClient) Update(_ context.Context, id int64, in domain.UpdateInput) error {
	if _, err := f.find(id); err != nil {
		return err
	}
	f.updates = append(f.updates, in)
	return nil
}

func (f *fakeClient) Toggle(_ context.Context, id int64) (domain.View, error) {
	i, err := f.find(id)
	if err != nil {
		return domain.View{}, err
	}
	f.tasks[i].IsCompleted = !f.tasks[i].IsCompleted
	updated := base.Add(2 * time.Hour)
	f.tasks[i].UpdatedAt = &updated
	return f.tasks[i], nil
}

func (f *fakeClient) Delete(_ context.Context, id int64) error {
	i, err := f.find(id)
	if err != nil {
		return err
	}
	f.tasks = append(f.tasks[:i], f.tasks[i+1:]...)
	return nil
}

func sampleTasks() []domain.View {
	updated := base.Add(30 * time.Minute)
	return []domain.View{
		{ID: 1, Title: "Buy milk", IsCompleted: true, CreatedAt: base, UpdatedAt: &updated},
		{ID: 2, Title: "Write report", Description: strPtr("Quarterly numbers"), CreatedAt: base.Add(time.Minute)},
		{ID: 3, Title: "Call plumber", CreatedAt: base.Add(2 * time.Minute)},
	}
}

func run(t *testing.T, fc *fakeClient, args ...string) (string, error) {
	t.Helper()

	cmd := newRootCommand(func(url string) TaskClient {
		fc.url = url
		return fc
	})
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "taskctl", cmd.Use)

	for _, name := range []string{"list", "add", "get", "toggle", "update", "rm"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, sub.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	t.Setenv("TASKCTL_URL", "")
	cmd := NewRootCommand()

	urlFlag := cmd.PersistentFlags().Lookup("url")
	require.NotNil(t, urlFlag)
	assert.Equal(t, defaultURL, urlFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)
}

func TestURLFromEnv(t *testing.T) {
	t.Setenv("TASKCTL_URL", "http://tasks.internal:9000")
	fc := &fakeClient{}

	_, err := run(t, fc, "list")
	require.NoError(t, err)
	assert.Equal(t, "http://tasks.internal:9000", fc.url)
}

func TestInvalidFormat(t *testing.T) {
	_, err := run(t, &fakeClient{}, "list", "--format", "yaml")
	assert.ErrorContains(t, err, `invalid format "yaml"`)
}

func TestListGolden(t *testing.T) {
	out, err := run(t, &fakeClient{tasks: sampleTasks()}, "list")
	require.NoError(t, err)

	g := goldie.New(t, goldie.WithFixtureDir("testdata"))
	g.Assert(t, "list", []byte(out))
}

func TestListEmptyGolden(t *testing.T) {
	out, err := run(t, &fakeClient{}, "list")
	require.NoError(t, err)

	g := goldie.New(t, goldie.WithFixtureDir("testdata"))
	g.Assert(t, "list_empty", []byte(out))
}

func TestGetGolden(t *testing.T) {
	out, err := run(t, &fakeClient{tasks: sampleTasks()}, "get", "1")
	require.NoError(t, err)

	g := goldie.New(t, goldie.WithFixtureDir("testdata"))
	g.Assert(t, "get", []byte(out))
}

func TestListJSON(t *testing.T) {
	out, err := run(t, &fakeClient{tasks: sampleTasks()}, "list", "--format", "json")
	require.NoError(t, err)

	var views []domain.View
	require.NoError(t, json.Unmarshal([]byte(out), &views))
	require.Len(t, views, 3)
	assert.Equal(t, []int64{3, 2, 1}, []int64{views[0].ID, views[1].ID, views[2].ID})
}

func TestAdd(t *testing.T) {
	fc := &fakeClient{}

	out, err := run(t, fc, "add", "Buy milk", "-d", "2%")
	require.NoError(t, err)
	assert.Equal(t, "Created task 1: Buy milk\n", out)
	require.Len(t, fc.tasks, 1)
	assert.Equal(t, "2%", *fc.tasks[0].Description)
}

func TestToggle(t *testing.T) {
	fc := &fakeClient{tasks: sampleTasks()}

	out, err := run(t, fc, "toggle", "3")
	require.NoError(t, err)
	assert.Equal(t, "[x] #3 Call plumber\n", out)
}

func TestUpdate(t *testing.T) {
	fc := &fakeClient{tasks: sampleTasks()}

	out, err := run(t, fc, "update", "2", "--title", "Write summary", "--completed")
	require.NoError(t, err)
	assert.Equal(t, "Updated task 2\n", out)
	require.Len(t, fc.updates, 1)
	assert.Equal(t, domain.UpdateInput{Title: "Write summary", IsCompleted: true}, fc.updates[0])

	_, err = run(t, fc, "update", "2", "--title", "Write summary", "--description", "")
	require.NoError(t, err)
	require.NotNil(t, fc.updates[1].Description)
	assert.Empty(t, *fc.updates[1].Description)
}

func TestUpdateRequiresTitle(t *testing.T) {
	_, err := run(t, &fakeClient{tasks: sampleTasks()}, "update", "2")
	assert.ErrorContains(t, err, `required flag(s) "title" not set`)
}

func TestRemove(t *testing.T) {
	fc := &fakeClient{tasks: sampleTasks()}

	out, err := run(t, fc, "rm", "1")
	require.NoError(t, err)
	assert.Equal(t, "Deleted task 1\n", out)
	assert.Len(t, fc.tasks, 2)

	_, err = run(t, fc, "rm", "1")
	assert.True(t, client.IsNotFound(err))
}

func TestInvalidID(t *testing.T) {
	for _, args := range [][]string{{"get", "abc"}, {"toggle", "0"}, {"rm", "x1"}} {
		_, err := run(t, &fakeClient{}, args...)
		assert.ErrorContains(t, err, "invalid task id")
	}
}
