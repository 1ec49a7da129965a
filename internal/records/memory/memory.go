package memory

import (
	"bufio"
	"cmp"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"

	"tempo/internal/core"
	"tempo/internal/records"
)

var _ records.Store = (*Store)(nil)

// Store keeps records in process memory. It backs tests and the "memory" data backend.
type Store struct {
	mu     sync.Mutex
	nextID int64
	items  []core.ActivityRecord
	secret string
}

func New(seed ...core.ActivityRecord) *Store {
	s := &Store{}
	for _, r := range seed {
		s.nextID++
		r.ID = s.nextID
		s.items = append(s.items, r)
	}
	return s
}

// NewFromFiles seeds the store from base/seed_activities.txt. Each non-comment line is
// "YYYY-MM-DD,activity,minutes[,notes]"; malformed lines are skipped.
func NewFromFiles(base string) *Store {
	var seed []core.ActivityRecord
	for _, line := range readLines(filepath.Join(base, "seed_activities.txt")) {
		parts := strings.SplitN(line, ",", 4)
		if len(parts) < 3 {
			continue
		}
		date, err := core.ParseDate(parts[0])
		if err != nil {
			continue
		}
		minutes, err := strconv.Atoi(strings.TrimSpace(parts[2]))
		if err != nil {
			continue
		}
		r := core.ActivityRecord{Date: date, Activity: strings.TrimSpace(parts[1]), DurationMinutes: minutes}
		if len(parts) == 4 {
			r.Notes = strings.TrimSpace(parts[3])
		}
		if r.Validate() != nil {
			continue
		}
		seed = append(seed, r)
	}
	return New(seed...)
}

// Insert stores the record and returns its new id.
func (s *Store) Insert(_ context.Context, date core.Date, activity string, durationMinutes int, notes string) (int64, error) {
	r := core.ActivityRecord{Date: date, Activity: activity, DurationMinutes: durationMinutes, Notes: notes}
	if err := r.Validate(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	r.ID = s.nextID
	s.items = append(s.items, r)
	return r.ID, nil
}

func (s *Store) Update(_ context.Context, id int64, date core.Date, activity string, durationMinutes int, notes string) error {
	r := core.ActivityRecord{ID: id, Date: date, Activity: activity, DurationMinutes: durationMinutes, Notes: notes}
	if err := r.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return fmt.Errorf("activity %d: %w", id, core.ErrNotFound)
	}
	s.items[i] = r
	return nil
}

func (s *Store) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return fmt.Errorf("activity %d: %w", id, core.ErrNotFound)
	}
	s.items = slices.Delete(s.items, i, i+1)
	return nil
}

func (s *Store) Get(_ context.Context, id int64) (core.ActivityRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return core.ActivityRecord{}, fmt.Errorf("activity %d: %w", id, core.ErrNotFound)
	}
	return s.items[i], nil
}

func (s *Store) QueryRange(_ context.Context, start, end core.Date) ([]core.ActivityRecord, error) {
	return s.snapshot(func(r core.ActivityRecord) bool { return r.Date.Within(start, end) }), nil
}

func (s *Store) QueryAll(_ context.Context) ([]core.ActivityRecord, error) {
	return s.snapshot(func(core.ActivityRecord) bool { return true }), nil
}

func (s *Store) Search(_ context.Context, query string) ([]core.ActivityRecord, error) {
	return s.snapshot(func(r core.ActivityRecord) bool {
		return core.MatchesActivity(r.Activity, query)
	}), nil
}

func (s *Store) DistinctActivityNames(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := map[string]struct{}{}
	out := make([]string, 0)
	for _, r := range s.items {
		if _, ok := seen[r.Activity]; ok {
			continue
		}
		seen[r.Activity] = struct{}{}
		out = append(out, r.Activity)
	}
	slices.Sort(out)
	return out, nil
}

func (s *Store) LoadSecretHash(_ context.Context) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.secret, s.secret != "", nil
}

func (s *Store) SaveSecretHash(_ context.Context, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.secret = hash
	return nil
}

func (s *Store) Close() error { return nil }

func (s *Store) indexOf(id int64) int {
	return slices.IndexFunc(s.items, func(r core.ActivityRecord) bool { return r.ID == id })
}

// snapshot copies matching records ordered by date, then id.
func (s *Store) snapshot(keep func(core.ActivityRecord) bool) []core.ActivityRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.ActivityRecord, 0, len(s.items))
	for _, r := range s.items {
		if keep(r) {
			out = append(out, r)
		}
	}
	slices.SortStableFunc(out, func(a, b core.ActivityRecord) int {
		if c := a.Date.Compare(b.Date.Time); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out
}

func readLines(path string) []string {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()
	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	return out
}
