package memory

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"NewsAgent/internal/domain"
	"NewsAgent/internal/ports"
)

const (
	maxSessions   = 50
	maxEmails     = 100
	maxSelections = 20

	cacheRetention  = 7 * 24 * time.Hour
	defaultCacheAge = 24 * time.Hour
	summaryDepth    = 3
)

// document is the on-disk layout of the memory file.
type document struct {
	UserPreferences   map[string]any                   `json:"user_preferences"`
	SessionHistory    []domain.SessionRecord           `json:"session_history"`
	ArticleCache      map[string]domain.CachedArticles `json:"article_cache"`
	EmailHistory      []domain.EmailRecord             `json:"email_history"`
	ArticleSelections []domain.Selection               `json:"article_selections"`
	SystemState       domain.SystemState               `json:"system_state"`
	CreatedAt         time.Time                        `json:"created_at"`
}

// Store keeps the agent memory in a single JSON file and mirrors it in memory.
type Store struct {
	mu     sync.Mutex
	path   string
	doc    document
	now    func() time.Time
	logger *slog.Logger
}

var _ ports.MemoryStore = (*Store)(nil)

// Option customises a Store.
type Option func(*Store)

// WithClock replaces the wall clock, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// Open loads the memory file at path. A missing file is created with a
// default document; an unreadable one is replaced in memory by a default.
func Open(path string, opts ...Option) *Store {
	s := &Store{path: path, now: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	raw, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		s.doc = s.defaultDocument()
		if err := s.persist(); err != nil {
			s.warn("create memory file", "path", path, "error", err)
		}
	case err != nil:
		s.warn("read memory file, using defaults", "path", path, "error", err)
		s.doc = s.defaultDocument()
	default:
		var doc document
		if err := json.Unmarshal(raw, &doc); err != nil {
			s.warn("parse memory file, using defaults", "path", path, "error", err)
			s.doc = s.defaultDocument()
		} else {
			s.doc = s.normalize(doc)
		}
	}

	return s
}

// Path returns the backing file.
func (s *Store) Path() string {
	return s.path
}

// StorePreferences merges prefs into the stored preferences.
func (s *Store) StorePreferences(prefs map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for k, v := range s.jsonValues(prefs) {
		s.doc.UserPreferences[k] = v
	}
	return s.persist()
}

// Preferences returns a copy of the stored preferences.
func (s *Store) Preferences() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneMap(s.doc.UserPreferences)
}

// StoreSession appends a session record, evicting the oldest beyond the cap.
func (s *Store) StoreSession(record domain.SessionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if record.Timestamp.IsZero() {
		record.Timestamp = s.timestamp()
	}
	record.Parameters = s.jsonValues(record.Parameters)
	record.Details = s.jsonValues(record.Details)
	s.doc.SessionHistory = capTail(append(s.doc.SessionHistory, record), maxSessions)
	return s.persist()
}

// RecentSessions returns up to n most recent session records, oldest first.
func (s *Store) RecentSessions(n int) []domain.SessionRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return tail(s.doc.SessionHistory, n)
}

// CacheArticles stores today's listing for source and purges stale entries.
func (s *Store) CacheArticles(articles []domain.Article, source string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.timestamp()
	s.doc.ArticleCache[cacheKey(source, now)] = domain.CachedArticles{
		Articles:  append([]domain.Article(nil), articles...),
		Timestamp: now,
		Count:     len(articles),
	}

	for key, entry := range s.doc.ArticleCache {
		if now.Sub(entry.Timestamp) > cacheRetention {
			delete(s.doc.ArticleCache, key)
		}
	}
	return s.persist()
}

// CachedArticles returns the newest cached listing for source if it is
// younger than maxAge. A non-positive maxAge means 24 hours.
func (s *Store) CachedArticles(source string, maxAge time.Duration) ([]domain.Article, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if maxAge <= 0 {
		maxAge = defaultCacheAge
	}

	var (
		newest domain.CachedArticles
		found  bool
	)
	prefix := source + "_"
	for key, entry := range s.doc.ArticleCache {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		if !found || entry.Timestamp.After(newest.Timestamp) {
			newest, found = entry, true
		}
	}
	if !found || s.now().Sub(newest.Timestamp) >= maxAge {
		return nil, false
	}
	return append([]domain.Article(nil), newest.Articles...), true
}

// StoreEmailSent appends an email record.
func (s *Store) StoreEmailSent(record domain.EmailRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if record.Timestamp.IsZero() {
		record.Timestamp = s.timestamp()
	}
	s.doc.EmailHistory = capTail(append(s.doc.EmailHistory, record), maxEmails)
	return s.persist()
}

// EmailHistory returns up to n most recent email records.
func (s *Store) EmailHistory(n int) []domain.EmailRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return tail(s.doc.EmailHistory, n)
}

// UpdateSystemState applies patch and refreshes last_run.
func (s *Store) UpdateSystemState(patch domain.StatePatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := &s.doc.SystemState
	if patch.TotalArticlesProcessed != nil {
		st.TotalArticlesProcessed = *patch.TotalArticlesProcessed
	}
	if patch.SuccessfulRuns != nil {
		st.SuccessfulRuns = *patch.SuccessfulRuns
	}
	if patch.FailedRuns != nil {
		st.FailedRuns = *patch.FailedRuns
	}
	now := s.timestamp()
	st.LastRun = &now
	return s.persist()
}

// SystemState returns the run counters.
func (s *Store) SystemState() domain.SystemState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneState(s.doc.SystemState)
}

// RememberSelection records which articles were picked and why.
func (s *Store) RememberSelection(articles []domain.Article, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.doc.ArticleSelections = capTail(append(s.doc.ArticleSelections, domain.Selection{
		Articles:  append([]domain.Article(nil), articles...),
		Reason:    reason,
		Timestamp: s.timestamp(),
		Count:     len(articles),
	}), maxSelections)
	return s.persist()
}

// SelectionHistory returns all remembered selections, oldest first.
func (s *Store) SelectionHistory() []domain.Selection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return tail(s.doc.ArticleSelections, 0)
}

// Search does a case-insensitive substring match over sessions, emails and
// preferences.
func (s *Store) Search(query string) []domain.SearchHit {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var hits []domain.SearchHit
	for _, rec := range s.doc.SessionHistory {
		if matches(rec, q) {
			hits = append(hits, domain.SearchHit{Type: "session", Data: rec})
		}
	}
	for _, rec := range s.doc.EmailHistory {
		if matches(rec, q) {
			hits = append(hits, domain.SearchHit{Type: "email", Data: rec})
		}
	}

	keys := make([]string, 0, len(s.doc.UserPreferences))
	for k := range s.doc.UserPreferences {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		v := s.doc.UserPreferences[k]
		if strings.Contains(strings.ToLower(k), q) || strings.Contains(strings.ToLower(fmt.Sprint(v)), q) {
			hits = append(hits, domain.SearchHit{Type: "preference", Key: k, Data: v})
		}
	}
	return hits
}

// Summary aggregates the memory for the planner.
func (s *Store) Summary() domain.MemorySummary {
	s.mu.Lock()
	defer s.mu.Unlock()

	summary := domain.MemorySummary{
		TotalSessions:        len(s.doc.SessionHistory),
		TotalEmails:          len(s.doc.EmailHistory),
		CachedArticlesCount:  len(s.doc.ArticleCache),
		UserPreferencesCount: len(s.doc.UserPreferences),
		SystemState:          cloneState(s.doc.SystemState),
		MemoryCreated:        s.doc.CreatedAt,
		Preferences:          cloneMap(s.doc.UserPreferences),
	}
	for _, sel := range tail(s.doc.ArticleSelections, summaryDepth) {
		summary.RecentReasons = append(summary.RecentReasons, sel.Reason)
	}
	for _, rec := range tail(s.doc.EmailHistory, summaryDepth) {
		summary.RecentSubjects = append(summary.RecentSubjects, rec.Subject)
	}
	return summary
}

func (s *Store) persist() error {
	raw, err := json.MarshalIndent(s.doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal memory: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create memory dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp memory file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(raw); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write memory: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close memory: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace memory file: %w", err)
	}
	return nil
}

func (s *Store) defaultDocument() document {
	return s.normalize(document{CreatedAt: s.timestamp()})
}

func (s *Store) normalize(doc document) document {
	if doc.UserPreferences == nil {
		doc.UserPreferences = map[string]any{}
	}
	if doc.ArticleCache == nil {
		doc.ArticleCache = map[string]domain.CachedArticles{}
	}
	if doc.SessionHistory == nil {
		doc.SessionHistory = []domain.SessionRecord{}
	}
	if doc.EmailHistory == nil {
		doc.EmailHistory = []domain.EmailRecord{}
	}
	if doc.ArticleSelections == nil {
		doc.ArticleSelections = []domain.Selection{}
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = s.timestamp()
	}
	return doc
}

func (s *Store) timestamp() time.Time {
	return s.now().UTC()
}

func (s *Store) warn(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}

func cacheKey(source string, at time.Time) string {
	return source + "_" + at.Format("20060102")
}

func matches(v any, q string) bool {
	raw, err := json.Marshal(v)
	if err != nil {
		return false
	}
	return strings.Contains(strings.ToLower(string(raw)), q)
}

func capTail[T any](items []T, limit int) []T {
	if len(items) <= limit {
		return items
	}
	return append([]T(nil), items[len(items)-limit:]...)
}

func tail[T any](items []T, n int) []T {
	if n <= 0 || n > len(items) {
		n = len(items)
	}
	return append([]T(nil), items[len(items)-n:]...)
}

// jsonValues converts in to the values a reload of the file yields, so
// numbers are float64 and slices are []any both before and after a restart.
func (s *Store) jsonValues(in map[string]any) map[string]any {
	if in == nil {
		return nil
	}
	raw, err := json.Marshal(in)
	if err == nil {
		var out map[string]any
		if err = json.Unmarshal(raw, &out); err == nil {
			return out
		}
	}
	s.warn("normalize memory values", "error", err)
	return cloneMap(in)
}

func cloneMap(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func cloneState(st domain.SystemState) domain.SystemState {
	if st.LastRun != nil {
		last := *st.LastRun
		st.LastRun = &last
	}
	return st
}
