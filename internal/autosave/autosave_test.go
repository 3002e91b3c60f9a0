package autosave

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prosewrites/draftline/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockSaver struct {
	mock.Mock
	mu sync.Mutex
}

func (m *MockSaver) Save(doc *store.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Called(*doc).Error(0)
}

func (m *MockSaver) saveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, call := range m.Calls {
		if call.Method == "Save" {
			count++
		}
	}
	return count
}

func TestScheduler_DebouncesSaves(t *testing.T) {
	saver := new(MockSaver)
	saver.On("Save", mock.MatchedBy(func(doc store.Document) bool {
		return doc.ID == "doc-1" && doc.Title == "T" && doc.Body == "abc"
	})).Return(nil).Once()

	s := NewScheduler(Config{
		Document: store.Document{ID: "doc-1"},
		Saver:    saver,
		Delay:    30 * time.Millisecond,
	})

	s.Schedule("T", "a")
	s.Schedule("T", "ab")
	s.Schedule("T", "abc")
	assert.True(t, s.Dirty())

	require.Eventually(t, func() bool { return !s.Dirty() }, time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)

	assert.Equal(t, 1, saver.saveCount())
	saver.AssertExpectations(t)
}

func TestScheduler_UnchangedContentIsNotSaved(t *testing.T) {
	saver := new(MockSaver)
	s := NewScheduler(Config{
		Document: store.Document{ID: "doc-1", Title: "T", Body: "same"},
		Saver:    saver,
		Delay:    10 * time.Millisecond,
	})

	s.Schedule("T", "same")
	time.Sleep(40 * time.Millisecond)

	assert.False(t, s.Dirty())
	assert.Equal(t, 0, saver.saveCount())
}

func TestScheduler_FlushSavesImmediately(t *testing.T) {
	saver := new(MockSaver)
	saver.On("Save", mock.Anything).Return(nil).Once()

	var results []error
	s := NewScheduler(Config{
		Document: store.Document{ID: "doc-1"},
		Saver:    saver,
		Delay:    time.Hour,
		OnSaved:  func(err error) { results = append(results, err) },
	})

	s.Schedule("Title", "Body")
	require.NoError(t, s.Flush())

	assert.False(t, s.Dirty())
	assert.Equal(t, []error{nil}, results)
	assert.Equal(t, "Body", s.Document().Body)

	// Nothing pending: flush is a no-op.
	require.NoError(t, s.Flush())
	saver.AssertExpectations(t)
}

func TestScheduler_FailedSaveStaysDirty(t *testing.T) {
	saver := new(MockSaver)
	saver.On("Save", mock.Anything).Return(errors.New("disk full")).Once()

	s := NewScheduler(Config{
		Document: store.Document{ID: "doc-1"},
		Saver:    saver,
		Delay:    time.Hour,
	})

	s.Schedule("T", "B")
	assert.EqualError(t, s.Flush(), "disk full")
	assert.True(t, s.Dirty())
}

func TestScheduler_SavesToStore(t *testing.T) {
	manager, err := store.NewDocumentManager(t.TempDir() + "/documents.db")
	require.NoError(t, err)
	defer manager.Close()

	doc, err := manager.Create("Start", "")
	require.NoError(t, err)

	s := NewScheduler(Config{Document: *doc, Saver: manager, Delay: time.Hour})
	s.Schedule("Start", "Now with words")
	require.NoError(t, s.Flush())

	got, err := manager.Get(doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "Now with words", got.Body)
}

func TestScheduler_KeepsCreatedAtAcrossSaves(t *testing.T) {
	manager, err := store.NewDocumentManager(t.TempDir() + "/documents.db")
	require.NoError(t, err)
	defer manager.Close()

	// A new document is only inserted by its first save.
	s := NewScheduler(Config{Document: store.Document{ID: "new-doc"}, Saver: manager, Delay: time.Hour})

	s.Schedule("Draft", "First words")
	require.NoError(t, s.Flush())

	first, err := manager.Get("new-doc")
	require.NoError(t, err)
	require.False(t, first.CreatedAt.IsZero())
	assert.False(t, s.Document().CreatedAt.IsZero())

	s.Schedule("Draft", "First words and more")
	require.NoError(t, s.Flush())

	second, err := manager.Get("new-doc")
	require.NoError(t, err)
	assert.Equal(t, "First words and more", second.Body)
	assert.False(t, second.CreatedAt.IsZero())
	assert.True(t, first.CreatedAt.Equal(second.CreatedAt))
}
