package engine

import (
	"context"
	"errors"
	"sort"
	"sync"

	"sitetemplates/internal/cache"
	"sitetemplates/internal/models"
	"sitetemplates/internal/storage"
	"sitetemplates/internal/store"
)

var errStoreDown = errors.New("store down")

// fakeTemplates mimics store.TemplateStore in memory.
type fakeTemplates struct {
	mu     sync.Mutex
	rows   map[int64]models.Template
	nextID int64

	failInsert bool
	failUpdate bool
	failFind   bool
}

func newFakeTemplates() *fakeTemplates {
	return &fakeTemplates{rows: make(map[int64]models.Template), nextID: 1}
}

func (f *fakeTemplates) clearDefault(siteID int64, tt models.TemplateType, except int64) {
	for id, r := range f.rows {
		if r.SiteID == siteID && r.Type == tt && id != except && r.IsDefault {
			r.IsDefault = false
			f.rows[id] = r
		}
	}
}

func (f *fakeTemplates) nameTaken(t *models.Template) bool {
	for id, r := range f.rows {
		if id != t.ID && r.SiteID == t.SiteID && r.Type == t.Type && r.TemplateName == t.TemplateName {
			return true
		}
	}
	return false
}

func (f *fakeTemplates) Insert(_ context.Context, t *models.Template) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failInsert {
		return 0, errStoreDown
	}
	if f.nameTaken(&models.Template{SiteID: t.SiteID, Type: t.Type, TemplateName: t.TemplateName}) {
		return 0, store.ErrConflict
	}
	if t.IsDefault {
		f.clearDefault(t.SiteID, t.Type, 0)
	}
	id := f.nextID
	f.nextID++
	row := *t
	row.ID = id
	f.rows[id] = row
	return id, nil
}

func (f *fakeTemplates) Update(_ context.Context, t *models.Template) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failUpdate {
		return errStoreDown
	}
	if _, ok := f.rows[t.ID]; !ok {
		return store.ErrNotFound
	}
	if f.nameTaken(t) {
		return store.ErrConflict
	}
	if t.IsDefault {
		f.clearDefault(t.SiteID, t.Type, t.ID)
	}
	f.rows[t.ID] = *t
	return nil
}

func (f *fakeTemplates) SetDefault(_ context.Context, siteID, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.rows[id]
	if !ok || r.SiteID != siteID {
		return store.ErrNotFound
	}
	f.clearDefault(siteID, r.Type, id)
	r.IsDefault = true
	f.rows[id] = r
	return nil
}

func (f *fakeTemplates) Delete(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rows[id]; !ok {
		return store.ErrNotFound
	}
	delete(f.rows, id)
	return nil
}

func (f *fakeTemplates) FindByID(_ context.Context, id int64) (*models.Template, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failFind {
		return nil, errStoreDown
	}
	r, ok := f.rows[id]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (f *fakeTemplates) first(match func(models.Template) bool) *models.Template {
	for _, r := range f.sorted() {
		if match(r) {
			return &r
		}
	}
	return nil
}

func (f *fakeTemplates) sorted() []models.Template {
	out := make([]models.Template, 0, len(f.rows))
	for _, r := range f.rows {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (f *fakeTemplates) FindDefault(_ context.Context, siteID int64, tt models.TemplateType) (*models.Template, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failFind {
		return nil, errStoreDown
	}
	return f.first(func(r models.Template) bool {
		return r.SiteID == siteID && r.Type == tt && r.IsDefault
	}), nil
}

func (f *fakeTemplates) FindByName(_ context.Context, siteID int64, tt models.TemplateType, name string) (*models.Template, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.first(func(r models.Template) bool {
		return r.SiteID == siteID && r.Type == tt && r.TemplateName == name
	}), nil
}

func (f *fakeTemplates) NameExists(_ context.Context, siteID int64, name string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.first(func(r models.Template) bool {
		return r.SiteID == siteID && r.TemplateName == name
	}) != nil, nil
}

func (f *fakeTemplates) IDs(_ context.Context, siteID int64, tt models.TemplateType) ([]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ids []int64
	for _, r := range f.sorted() {
		if r.SiteID == siteID && r.Type == tt {
			ids = append(ids, r.ID)
		}
	}
	return ids, nil
}

func (f *fakeTemplates) List(_ context.Context, flt models.TemplateFilter) ([]models.Template, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Template
	for _, r := range f.sorted() {
		if flt.SiteID != 0 && r.SiteID != flt.SiteID {
			continue
		}
		if flt.Type != "" && r.Type != flt.Type {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (f *fakeTemplates) CountByTypes(ctx context.Context, siteID int64) (map[models.TemplateType]int, error) {
	list, _ := f.List(ctx, models.TemplateFilter{SiteID: siteID})
	counts := make(map[models.TemplateType]int)
	for _, r := range list {
		counts[r.Type]++
	}
	return counts, nil
}

func (f *fakeTemplates) Names(ctx context.Context, siteID int64, tt models.TemplateType) ([]string, error) {
	list, _ := f.List(ctx, models.TemplateFilter{SiteID: siteID, Type: tt})
	var out []string
	for _, r := range list {
		out = append(out, r.TemplateName)
	}
	return out, nil
}

func (f *fakeTemplates) RelatedFileNames(ctx context.Context, siteID int64, tt models.TemplateType) ([]string, error) {
	list, _ := f.List(ctx, models.TemplateFilter{SiteID: siteID, Type: tt})
	var out []string
	for _, r := range list {
		out = append(out, r.RelatedFileName)
	}
	return out, nil
}

func (f *fakeTemplates) defaults(siteID int64, tt models.TemplateType) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, r := range f.rows {
		if r.SiteID == siteID && r.Type == tt && r.IsDefault {
			n++
		}
	}
	return n
}

// fakeLogs is an in-memory LogStore.
type fakeLogs struct {
	mu      sync.Mutex
	entries []*models.TemplateLog
	fail    bool
}

func (f *fakeLogs) Append(_ context.Context, l *models.TemplateLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errStoreDown
	}
	cp := *l
	f.entries = append(f.entries, &cp)
	return nil
}

func (f *fakeLogs) ListByTemplateID(_ context.Context, id int64) ([]*models.TemplateLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.TemplateLog
	for i := len(f.entries) - 1; i >= 0; i-- {
		if f.entries[i].TemplateID == id {
			out = append(out, f.entries[i])
		}
	}
	return out, nil
}

func (f *fakeLogs) Latest(ctx context.Context, id int64) (*models.TemplateLog, error) {
	list, _ := f.ListByTemplateID(ctx, id)
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

// fakeContent is an in-memory ContentStore.
type fakeContent struct {
	mu      sync.Mutex
	files   map[string]string
	staged  int
	aborted int

	failStage  bool
	failCommit bool
}

func newFakeContent() *fakeContent {
	return &fakeContent{files: make(map[string]string)}
}

func (f *fakeContent) Read(_ context.Context, path string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.files[path]
	return c, ok, nil
}

func (f *fakeContent) Stage(_ context.Context, path, content string) (storage.Staged, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failStage {
		return nil, errStoreDown
	}
	f.staged++
	return &fakeStage{store: f, path: path, content: content}, nil
}

func (f *fakeContent) Delete(_ context.Context, path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.files, path)
	return nil
}

func (f *fakeContent) file(path string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.files[path]
	return c, ok
}

type fakeStage struct {
	store   *fakeContent
	path    string
	content string
}

func (s *fakeStage) Commit(context.Context) error {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	if s.store.failCommit {
		return errStoreDown
	}
	s.store.files[s.path] = s.content
	return nil
}

func (s *fakeStage) Abort() error {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	s.store.aborted++
	return nil
}

// fakeDirectory serves fixed sites and channels.
type fakeDirectory struct {
	sites    map[int64]*models.Site
	channels map[int64]*models.Channel
}

func (d *fakeDirectory) Site(_ context.Context, id int64) (*models.Site, error) {
	return d.sites[id], nil
}

func (d *fakeDirectory) Channel(_ context.Context, id int64) (*models.Channel, error) {
	return d.channels[id], nil
}

// recordingCache wraps the L1 cache and remembers invalidated ids.
type recordingCache struct {
	*cache.Local
	mu          sync.Mutex
	invalidated []int64
}

func (c *recordingCache) Invalidate(ctx context.Context, ids ...int64) {
	c.mu.Lock()
	c.invalidated = append(c.invalidated, ids...)
	c.mu.Unlock()
	c.Local.Invalidate(ctx, ids...)
}

func (c *recordingCache) reset() {
	c.mu.Lock()
	c.invalidated = nil
	c.mu.Unlock()
}

func (c *recordingCache) ids() []int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := append([]int64(nil), c.invalidated...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// fakeMetrics counts engine events.
type fakeMetrics struct {
	mu            sync.Mutex
	resolutions   map[string]int
	mutations     map[string]int
	failures      int
	invalidations int
}

func newFakeMetrics() *fakeMetrics {
	return &fakeMetrics{resolutions: map[string]int{}, mutations: map[string]int{}}
}

func (m *fakeMetrics) ObserveResolution(tt, src string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resolutions[tt+"/"+src]++
}

func (m *fakeMetrics) ObserveMutation(op string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mutations[op]++
	if err != nil {
		m.failures++
	}
}

func (m *fakeMetrics) ObserveInvalidation(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.invalidations += n
}

// fakeCacheLog records invalidation log calls.
type fakeCacheLog struct {
	mu      sync.Mutex
	actions []string
}

func (l *fakeCacheLog) Log(_ context.Context, _ string, _ int64, action string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.actions = append(l.actions, action)
}

// harness bundles an engine with its fakes. Site 1 lives at /www/main,
// site 2 at /www/blog. Channel 1 is site 1's root, channel 10 a plain
// channel of site 1.
type harness struct {
	eng       *Engine
	templates *fakeTemplates
	logs      *fakeLogs
	content   *fakeContent
	dir       *fakeDirectory
	cache     *recordingCache
}

func newHarness() *harness {
	h := &harness{
		templates: newFakeTemplates(),
		logs:      &fakeLogs{},
		content:   newFakeContent(),
		dir: &fakeDirectory{
			sites: map[int64]*models.Site{
				1: {ID: 1, SiteDir: "main", RootDir: "/www/main"},
				2: {ID: 2, SiteDir: "blog", RootDir: "/www/blog"},
			},
			channels: map[int64]*models.Channel{
				1:  {ID: 1, SiteID: 1},
				10: {ID: 10, SiteID: 1},
			},
		},
		cache: &recordingCache{Local: cache.NewLocal(0)},
	}
	h.eng = New(h.templates, h.logs, h.content, h.dir, h.cache)
	return h
}
