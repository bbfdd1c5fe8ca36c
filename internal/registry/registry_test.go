package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/scmmishra/geolink/internal/models"
	"github.com/scmmishra/geolink/internal/store"
)

// memStore keeps the last saved state as encoded JSON so tests can check
// what actually reached the store.
type memStore struct {
	mu      sync.Mutex
	saved   []byte
	saves   int
	failErr error
}

func (m *memStore) Load() (*models.State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := &models.State{Links: []models.Link{}}
	if m.saved != nil {
		if err := json.Unmarshal(m.saved, s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (m *memStore) Save(s *models.State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return m.failErr
	}
	b, err := json.Marshal(s)
	if err != nil {
		return err
	}
	m.saved = b
	m.saves++
	return nil
}

func (m *memStore) Close() error { return nil }

func (m *memStore) persisted(t *testing.T) *models.State {
	t.Helper()
	s, err := m.Load()
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func testRegistry(t *testing.T) (*Registry, *memStore) {
	t.Helper()
	ms := &memStore{}
	r := New(ms)
	if err := r.Load(); err != nil {
		t.Fatal(err)
	}
	return r, ms
}

var idFormat = regexp.MustCompile(`^[A-Za-z0-9_-]{10}$`)

// --- Create ---

func TestCreate_Success(t *testing.T) {
	r, ms := testRegistry(t)

	link, err := r.Create("https://example.com")
	if err != nil {
		t.Fatal(err)
	}
	if !idFormat.MatchString(link.TrackingID) {
		t.Errorf("trackingId = %q, want 10 URL-safe chars", link.TrackingID)
	}
	if link.OriginalURL != "https://example.com" {
		t.Errorf("originalUrl = %q", link.OriginalURL)
	}
	if link.CreatedAt.IsZero() {
		t.Error("CreatedAt is zero")
	}
	if link.Clicks == nil || link.LocationEntries == nil {
		t.Error("expected empty, non-nil event sequences")
	}

	persisted := ms.persisted(t)
	if len(persisted.Links) != 1 || persisted.Links[0].TrackingID != link.TrackingID {
		t.Errorf("persisted = %+v, want the created link", persisted.Links)
	}
}

func TestCreate_EmptyURL(t *testing.T) {
	r, ms := testRegistry(t)

	for _, u := range []string{"", "   "} {
		_, err := r.Create(u)
		if !errors.Is(err, ErrValidation) {
			t.Errorf("Create(%q) err = %v, want ErrValidation", u, err)
		}
	}
	if r.Len() != 0 {
		t.Errorf("len = %d, want 0", r.Len())
	}
	if ms.saves != 0 {
		t.Errorf("saves = %d, want 0", ms.saves)
	}
}

func TestCreate_RetriesOnCollision(t *testing.T) {
	r, _ := testRegistry(t)
	ids := []string{"aaaaaaaaaa", "aaaaaaaaaa", "aaaaaaaaaa", "bbbbbbbbbb"}
	r.GenerateID = func() (string, error) {
		id := ids[0]
		ids = ids[1:]
		return id, nil
	}

	first, err := r.Create("https://a.com")
	if err != nil {
		t.Fatal(err)
	}
	second, err := r.Create("https://b.com")
	if err != nil {
		t.Fatal(err)
	}
	if first.TrackingID != "aaaaaaaaaa" || second.TrackingID != "bbbbbbbbbb" {
		t.Errorf("ids = %q, %q", first.TrackingID, second.TrackingID)
	}
}

func TestCreate_GivesUpAfterRepeatedCollisions(t *testing.T) {
	r, _ := testRegistry(t)
	r.GenerateID = func() (string, error) { return "aaaaaaaaaa", nil }

	if _, err := r.Create("https://a.com"); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Create("https://b.com"); err == nil {
		t.Fatal("expected error after exhausting id attempts")
	}
	if r.Len() != 1 {
		t.Errorf("len = %d, want 1", r.Len())
	}
}

func TestCreate_GeneratorError(t *testing.T) {
	r, _ := testRegistry(t)
	r.GenerateID = func() (string, error) { return "", fmt.Errorf("entropy exhausted") }

	if _, err := r.Create("https://a.com"); err == nil {
		t.Fatal("expected generator error")
	}
}

func TestCreate_PersistenceFailureNotCommitted(t *testing.T) {
	r, ms := testRegistry(t)
	ms.failErr = errors.New("disk full")

	_, err := r.Create("https://example.com")
	if !errors.Is(err, ErrPersistence) {
		t.Fatalf("err = %v, want ErrPersistence", err)
	}
	if r.Len() != 0 {
		t.Errorf("len = %d, want 0 (mutation must not commit)", r.Len())
	}
}

func TestCreate_BeforeLoad(t *testing.T) {
	r := New(&memStore{})
	if _, err := r.Create("https://a.com"); !errors.Is(err, ErrUninitialized) {
		t.Errorf("err = %v, want ErrUninitialized", err)
	}
	if r.Loaded() {
		t.Error("Loaded() = true before Load")
	}
}

// --- Find / List ---

func TestFind_Absent(t *testing.T) {
	r, _ := testRegistry(t)
	if _, ok := r.Find("nope"); ok {
		t.Error("expected miss")
	}
}

func TestFind_BeforeLoad(t *testing.T) {
	r := New(&memStore{})
	if _, ok := r.Find("nope"); ok {
		t.Error("expected miss")
	}
}

func TestList_SortedByCreatedAtDesc(t *testing.T) {
	r, _ := testRegistry(t)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	offsets := []int{2, 0, 5, 1}
	for i, off := range offsets {
		at := base.Add(time.Duration(off) * time.Hour)
		r.Now = func() time.Time { return at }
		if _, err := r.Create(fmt.Sprintf("https://example.com/%d", i)); err != nil {
			t.Fatal(err)
		}
	}

	links := r.List()
	if len(links) != 4 {
		t.Fatalf("len = %d, want 4", len(links))
	}
	for i := 1; i < len(links); i++ {
		if links[i-1].CreatedAt.Before(links[i].CreatedAt) {
			t.Errorf("links not sorted desc at %d: %v before %v", i, links[i-1].CreatedAt, links[i].CreatedAt)
		}
	}
	if links[0].OriginalURL != "https://example.com/2" {
		t.Errorf("first = %q, want newest link", links[0].OriginalURL)
	}
}

func TestList_DoesNotReorderState(t *testing.T) {
	r, ms := testRegistry(t)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range 3 {
		at := base.Add(time.Duration(i) * time.Hour)
		r.Now = func() time.Time { return at }
		if _, err := r.Create(fmt.Sprintf("https://example.com/%d", i)); err != nil {
			t.Fatal(err)
		}
	}
	r.List()

	persisted := ms.persisted(t)
	if persisted.Links[0].OriginalURL != "https://example.com/0" {
		t.Errorf("insertion order changed: first = %q", persisted.Links[0].OriginalURL)
	}
}

func TestList_Empty(t *testing.T) {
	r, _ := testRegistry(t)
	if links := r.List(); links == nil || len(links) != 0 {
		t.Errorf("List() = %v, want empty non-nil", links)
	}
}

// --- Append ---

func TestAppendClick_AppendOnly(t *testing.T) {
	r, ms := testRegistry(t)
	link, err := r.Create("https://example.com")
	if err != nil {
		t.Fatal(err)
	}

	for i := range 5 {
		_, err := r.AppendClick(link.TrackingID, models.ClickEvent{IPAddress: fmt.Sprintf("10.0.0.%d", i)})
		if err != nil {
			t.Fatal(err)
		}
	}

	got, ok := r.Find(link.TrackingID)
	if !ok {
		t.Fatal("link vanished")
	}
	if len(got.Clicks) != 5 {
		t.Fatalf("clicks = %d, want 5", len(got.Clicks))
	}
	for i, c := range got.Clicks {
		if want := fmt.Sprintf("10.0.0.%d", i); c.IPAddress != want {
			t.Errorf("click %d ip = %q, want %q", i, c.IPAddress, want)
		}
	}
	if n := len(ms.persisted(t).Links[0].Clicks); n != 5 {
		t.Errorf("persisted clicks = %d, want 5", n)
	}
}

func TestAppendClick_SnapshotUnaffected(t *testing.T) {
	r, _ := testRegistry(t)
	link, _ := r.Create("https://example.com")
	r.AppendClick(link.TrackingID, models.ClickEvent{IPAddress: "1.1.1.1"})

	before, _ := r.Find(link.TrackingID)
	r.AppendClick(link.TrackingID, models.ClickEvent{IPAddress: "2.2.2.2"})

	if len(before.Clicks) != 1 || before.Clicks[0].IPAddress != "1.1.1.1" {
		t.Errorf("earlier snapshot changed: %+v", before.Clicks)
	}
}

func TestAppendClick_UnknownLink(t *testing.T) {
	r, ms := testRegistry(t)
	other, _ := r.Create("https://example.com")
	saves := ms.saves

	_, err := r.AppendClick("missing", models.ClickEvent{})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
	if ms.saves != saves {
		t.Error("store written for unknown link")
	}
	got, _ := r.Find(other.TrackingID)
	if len(got.Clicks) != 0 {
		t.Error("other link mutated")
	}
}

func TestAppendClick_PersistenceFailureNotCommitted(t *testing.T) {
	r, ms := testRegistry(t)
	link, _ := r.Create("https://example.com")
	ms.failErr = errors.New("io error")

	if _, err := r.AppendClick(link.TrackingID, models.ClickEvent{}); !errors.Is(err, ErrPersistence) {
		t.Fatalf("err = %v, want ErrPersistence", err)
	}
	got, _ := r.Find(link.TrackingID)
	if len(got.Clicks) != 0 {
		t.Errorf("clicks = %d, want 0", len(got.Clicks))
	}

	ms.failErr = nil
	if _, err := r.AppendClick(link.TrackingID, models.ClickEvent{IPAddress: "3.3.3.3"}); err != nil {
		t.Fatal(err)
	}
	got, _ = r.Find(link.TrackingID)
	if len(got.Clicks) != 1 || got.Clicks[0].IPAddress != "3.3.3.3" {
		t.Errorf("clicks = %+v, want the single retried click", got.Clicks)
	}
}

func TestAppendLocation_IndependentOfClicks(t *testing.T) {
	r, _ := testRegistry(t)
	link, _ := r.Create("https://example.com")
	r.AppendClick(link.TrackingID, models.ClickEvent{})

	for range 2 {
		_, err := r.AppendLocation(link.TrackingID, models.LocationEntry{Location: models.Location{Lat: 1, Lng: 2}})
		if err != nil {
			t.Fatal(err)
		}
	}

	got, _ := r.Find(link.TrackingID)
	if len(got.LocationEntries) != 2 {
		t.Errorf("locationEntries = %d, want 2", len(got.LocationEntries))
	}
	if len(got.Clicks) != 1 {
		t.Errorf("clicks = %d, want 1", len(got.Clicks))
	}
}

func TestAppendLocation_UnknownLink(t *testing.T) {
	r, _ := testRegistry(t)
	if _, err := r.AppendLocation("missing", models.LocationEntry{}); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

// --- Concurrency ---

func TestConcurrentClicks_NoLostUpdates(t *testing.T) {
	r, ms := testRegistry(t)
	a, _ := r.Create("https://a.com")
	b, _ := r.Create("https://b.com")

	const perLink = 50
	var wg sync.WaitGroup
	for i := range perLink * 2 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := a.TrackingID
			if i%2 == 1 {
				id = b.TrackingID
			}
			if _, err := r.AppendClick(id, models.ClickEvent{}); err != nil {
				t.Error(err)
			}
			r.List()
		}()
	}
	wg.Wait()

	for _, id := range []string{a.TrackingID, b.TrackingID} {
		got, _ := r.Find(id)
		if len(got.Clicks) != perLink {
			t.Errorf("%s clicks = %d, want %d", id, len(got.Clicks), perLink)
		}
	}
	persisted := ms.persisted(t)
	if total := len(persisted.Links[0].Clicks) + len(persisted.Links[1].Clicks); total != perLink*2 {
		t.Errorf("persisted clicks = %d, want %d", total, perLink*2)
	}
}

// --- Reload ---

func TestLoad_RestoresFromStore(t *testing.T) {
	s, err := store.NewJSONFile(filepath.Join(t.TempDir(), "db.json"))
	if err != nil {
		t.Fatal(err)
	}
	r := New(s)
	if err := r.Load(); err != nil {
		t.Fatal(err)
	}
	link, _ := r.Create("https://example.com")
	r.AppendClick(link.TrackingID, models.ClickEvent{Country: models.Unknown})
	r.AppendLocation(link.TrackingID, models.LocationEntry{Location: models.Location{Lat: 1, Lng: 2}})

	reloaded := New(s)
	if err := reloaded.Load(); err != nil {
		t.Fatal(err)
	}
	got, ok := reloaded.Find(link.TrackingID)
	if !ok {
		t.Fatal("link missing after reload")
	}
	if len(got.Clicks) != 1 || len(got.LocationEntries) != 1 {
		t.Errorf("clicks=%d locations=%d, want 1 and 1", len(got.Clicks), len(got.LocationEntries))
	}
}

type brokenStore struct{ memStore }

func (b *brokenStore) Load() (*models.State, error) { return nil, errors.New("corrupt") }

func TestLoad_Failure(t *testing.T) {
	r := New(&brokenStore{})
	if err := r.Load(); !errors.Is(err, ErrPersistence) {
		t.Errorf("err = %v, want ErrPersistence", err)
	}
	if r.Loaded() {
		t.Error("Loaded() = true after failed load")
	}
}
