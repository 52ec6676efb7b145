package session

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := NewStore(dir)
	require.NoError(t, err)
	return store, dir
}

func TestCreate(t *testing.T) {
	store, dir := newTestStore(t)

	sess, err := store.Create("llama3")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(sess.ID, "session_"))
	assert.True(t, strings.HasPrefix(sess.Title, "Session "))
	assert.Equal(t, "llama3", sess.Model)
	assert.Empty(t, sess.Messages)
	assert.FileExists(t, filepath.Join(dir, sess.ID+".json"))
}

// Sessions created within the same second still get distinct ids.
func TestCreate_SameSecondCollision(t *testing.T) {
	store, _ := newTestStore(t)

	a, err := store.Create("m")
	require.NoError(t, err)
	b, err := store.Create("m")
	require.NoError(t, err)
	c, err := store.Create("m")
	require.NoError(t, err)

	assert.NotEqual(t, a.ID, b.ID)
	assert.NotEqual(t, b.ID, c.ID)
	assert.NotEqual(t, a.ID, c.ID)

	list, err := store.List()
	require.NoError(t, err)
	assert.Len(t, list, 3)
}

func TestAppendAndLoad_RoundTrip(t *testing.T) {
	store, _ := newTestStore(t)
	sess, err := store.Create("llama3")
	require.NoError(t, err)

	require.NoError(t, store.Append(sess, RoleUser, "hello"))
	require.NoError(t, store.Append(sess, RoleAssistant, "hi there"))

	loaded, err := store.Load(sess.ID)
	require.NoError(t, err)

	assert.Equal(t, sess.ID, loaded.ID)
	assert.Equal(t, "llama3", loaded.Model)
	require.Len(t, loaded.Messages, 2)
	assert.Equal(t, Message{Role: RoleUser, Content: "hello"}, loaded.Messages[0])
	assert.Equal(t, Message{Role: RoleAssistant, Content: "hi there"}, loaded.Messages[1])
}

func TestAppend_InvalidRoleRollsBack(t *testing.T) {
	store, _ := newTestStore(t)
	sess, err := store.Create("m")
	require.NoError(t, err)

	err = store.Append(sess, "narrator", "not a valid role")
	require.Error(t, err)
	assert.Empty(t, sess.Messages, "failed append must not leave the message in memory")

	loaded, err := store.Load(sess.ID)
	require.NoError(t, err)
	assert.Empty(t, loaded.Messages)
}

func TestLoad_NotFound(t *testing.T) {
	store, _ := newTestStore(t)

	_, err := store.Load("session_19990101000000")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLoad_CorruptRecord(t *testing.T) {
	store, dir := newTestStore(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "session_x.json"), []byte("{oops"), 0644))

	_, err := store.Load("session_x")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestList_OrderAndCorruptSkipped(t *testing.T) {
	store, dir := newTestStore(t)

	// Records written by hand pin UpdatedAt, which Save would refresh.
	old := `{"id":"session_20240101000000","title":"old","model":"m","messages":[],
		"created_at":"2024-01-01 00:00:00","updated_at":"2024-01-01 00:00:00"}`
	newer := `{"id":"session_20250101000000","title":"newer","model":"m","messages":[],
		"created_at":"2025-01-01 00:00:00","updated_at":"2025-01-01 00:00:00"}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "session_20240101000000.json"), []byte(old), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "session_20250101000000.json"), []byte(newer), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "session_bad.json"), []byte("not json"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignore me"), 0644))

	list, err := store.List()
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "newer", list[0].Title)
	assert.Equal(t, "old", list[1].Title)
}

func TestDelete(t *testing.T) {
	store, dir := newTestStore(t)
	sess, err := store.Create("m")
	require.NoError(t, err)

	require.NoError(t, store.Delete(sess.ID))
	assert.NoFileExists(t, filepath.Join(dir, sess.ID+".json"))

	assert.ErrorIs(t, store.Delete(sess.ID), ErrNotFound)
}

func TestExport(t *testing.T) {
	store, _ := newTestStore(t)
	sess, err := store.Create("llama3")
	require.NoError(t, err)
	require.NoError(t, store.Append(sess, RoleUser, "ping"))
	require.NoError(t, store.Append(sess, RoleAssistant, "pong"))

	dest := filepath.Join(t.TempDir(), "transcript.txt")
	require.NoError(t, store.Export(sess.ID, dest))

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	text := string(data)

	assert.Contains(t, text, "Session: "+sess.Title)
	assert.Contains(t, text, "Model: llama3")
	assert.Contains(t, text, strings.Repeat("-", 50))
	assert.Contains(t, text, "You:\nping")
	assert.Contains(t, text, "AI:\npong")
}

func TestExport_NotFound(t *testing.T) {
	store, _ := newTestStore(t)

	err := store.Export("session_missing", filepath.Join(t.TempDir(), "x.txt"))
	assert.ErrorIs(t, err, ErrNotFound)
}
