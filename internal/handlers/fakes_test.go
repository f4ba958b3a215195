package handlers

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/wefixit/wefixit-backend/internal/middleware"
	"github.com/wefixit/wefixit-backend/internal/models"
	"github.com/wefixit/wefixit-backend/internal/services"
)

// serve routes a single request through a chi router so URL params resolve.
func serve(t *testing.T, method, pattern, target string, h http.HandlerFunc, body io.Reader, contentType string, admin bool) *httptest.ResponseRecorder {
	t.Helper()
	r := chi.NewRouter()
	r.Method(method, pattern, h)

	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if admin {
		req = req.WithContext(middleware.WithAdmin(req.Context(), &models.Admin{Username: "admin"}))
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func jsonBody(s string) io.Reader { return bytes.NewBufferString(s) }

func paginate[T any](all []T, opts models.ListOptions) *models.Page[T] {
	start := int(opts.Offset)
	if start > len(all) {
		start = len(all)
	}
	end := len(all)
	if opts.Limit > 0 && start+int(opts.Limit) < end {
		end = start + int(opts.Limit)
	}
	items := append([]T{}, all[start:end]...)
	return &models.Page[T]{Items: items, Total: int64(len(all)), Limit: opts.Limit, Offset: opts.Offset}
}

type fakeNotifier struct {
	mu       sync.Mutex
	contacts []*models.Contact
	quotes   []*models.Quote
	replies  []string
	err      error
	replyErr error
}

func (n *fakeNotifier) NotifyContact(_ context.Context, c *models.Contact) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.contacts = append(n.contacts, c)
	return n.err
}

func (n *fakeNotifier) NotifyQuote(_ context.Context, q *models.Quote) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.quotes = append(n.quotes, q)
	return n.err
}

func (n *fakeNotifier) SendQuoteReply(_ context.Context, q *models.Quote, content string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.replies = append(n.replies, q.Email+": "+content)
	return n.replyErr
}

type fakeEvents struct {
	mu     sync.Mutex
	events []services.Event
}

func (e *fakeEvents) Publish(_ context.Context, evt services.Event) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, evt)
}

type memContacts struct {
	items []*models.Contact
	err   error
}

func (m *memContacts) Create(_ context.Context, c *models.Contact) error {
	if m.err != nil {
		return m.err
	}
	c.ID = primitive.NewObjectID()
	c.CreatedAt = time.Now().UTC()
	c.Read = false
	m.items = append([]*models.Contact{c}, m.items...)
	return nil
}

func (m *memContacts) List(_ context.Context, filter services.ContactFilter, opts models.ListOptions) (*models.Page[models.Contact], error) {
	if m.err != nil {
		return nil, m.err
	}
	var all []models.Contact
	for _, c := range m.items {
		if filter.Read != nil && c.Read != *filter.Read {
			continue
		}
		all = append(all, *c)
	}
	return paginate(all, opts), nil
}

func (m *memContacts) find(id primitive.ObjectID) (int, bool) {
	for i, c := range m.items {
		if c.ID == id {
			return i, true
		}
	}
	return 0, false
}

func (m *memContacts) MarkRead(_ context.Context, id primitive.ObjectID) error {
	i, ok := m.find(id)
	if !ok {
		return services.ErrNotFound
	}
	m.items[i].Read = true
	return nil
}

func (m *memContacts) Delete(_ context.Context, id primitive.ObjectID) error {
	i, ok := m.find(id)
	if !ok {
		return services.ErrNotFound
	}
	m.items = append(m.items[:i], m.items[i+1:]...)
	return nil
}

type memQuotes struct {
	items map[primitive.ObjectID]*models.Quote
	order []primitive.ObjectID
}

func newMemQuotes() *memQuotes {
	return &memQuotes{items: map[primitive.ObjectID]*models.Quote{}}
}

func (m *memQuotes) Create(_ context.Context, q *models.Quote) error {
	q.ID = primitive.NewObjectID()
	q.CreatedAt = time.Now().UTC()
	if q.Replies == nil {
		q.Replies = []models.QuoteReply{}
	}
	m.items[q.ID] = q
	m.order = append([]primitive.ObjectID{q.ID}, m.order...)
	return nil
}

func (m *memQuotes) Get(_ context.Context, id primitive.ObjectID) (*models.Quote, error) {
	q, ok := m.items[id]
	if !ok {
		return nil, services.ErrNotFound
	}
	return q, nil
}

func (m *memQuotes) List(_ context.Context, opts models.ListOptions) (*models.Page[models.Quote], error) {
	var all []models.Quote
	for _, id := range m.order {
		if q, ok := m.items[id]; ok {
			all = append(all, *q)
		}
	}
	return paginate(all, opts), nil
}

func (m *memQuotes) Delete(_ context.Context, id primitive.ObjectID) error {
	if _, ok := m.items[id]; !ok {
		return services.ErrNotFound
	}
	delete(m.items, id)
	return nil
}

func (m *memQuotes) AppendReply(_ context.Context, id primitive.ObjectID, content, admin string) (*models.QuoteReply, error) {
	q, ok := m.items[id]
	if !ok {
		return nil, services.ErrNotFound
	}
	reply := models.QuoteReply{
		ID:      primitive.NewObjectID().Hex(),
		Content: content,
		SentAt:  models.FlexTime{Time: time.Now().UTC()},
		Admin:   admin,
	}
	q.Replies = append(q.Replies, reply)
	return &reply, nil
}

func (m *memQuotes) RemoveReply(_ context.Context, id primitive.ObjectID, ref string) (*models.QuoteReply, error) {
	q, ok := m.items[id]
	if !ok {
		return nil, services.ErrNotFound
	}
	i, ok := services.ResolveReply(q.Replies, ref)
	if !ok {
		return nil, services.ErrNotFound
	}
	removed := q.Replies[i]
	q.Replies = append(q.Replies[:i:i], q.Replies[i+1:]...)
	return &removed, nil
}

type memPortfolio struct {
	items []*models.PortfolioItem
}

func (m *memPortfolio) find(id primitive.ObjectID) (int, bool) {
	for i, it := range m.items {
		if it.ID == id {
			return i, true
		}
	}
	return 0, false
}

func (m *memPortfolio) Create(_ context.Context, item *models.PortfolioItem) error {
	item.ID = primitive.NewObjectID()
	item.CreatedAt = time.Now().UTC()
	if item.Tags == nil {
		item.Tags = []string{}
	}
	m.items = append(m.items, item)
	return nil
}

func (m *memPortfolio) Get(_ context.Context, id primitive.ObjectID) (*models.PortfolioItem, error) {
	i, ok := m.find(id)
	if !ok {
		return nil, services.ErrNotFound
	}
	cp := *m.items[i]
	return &cp, nil
}

func (m *memPortfolio) List(_ context.Context, f models.PortfolioFilter, opts models.ListOptions) (*models.Page[models.PortfolioItem], error) {
	var all []models.PortfolioItem
	for _, it := range m.items {
		if f.IsActive != nil && it.IsActive != *f.IsActive {
			continue
		}
		if f.IsFeatured != nil && it.IsFeatured != *f.IsFeatured {
			continue
		}
		if f.Category != "" && it.Category != f.Category {
			continue
		}
		all = append(all, *it)
	}
	return paginate(all, opts), nil
}

func (m *memPortfolio) Update(_ context.Context, id primitive.ObjectID, u *models.PortfolioUpdate) (*models.PortfolioItem, error) {
	i, ok := m.find(id)
	if !ok {
		return nil, services.ErrNotFound
	}
	it := m.items[i]
	if u.Title != nil {
		it.Title = *u.Title
	}
	if u.Description != nil {
		it.Description = *u.Description
	}
	if u.Category != nil {
		it.Category = *u.Category
	}
	if u.Link != nil {
		it.Link = *u.Link
	}
	if u.Image != nil {
		it.Image = *u.Image
	}
	if u.Tags != nil {
		it.Tags = *u.Tags
	}
	if u.IsFeatured != nil {
		it.IsFeatured = *u.IsFeatured
	}
	if u.IsActive != nil {
		it.IsActive = *u.IsActive
	}
	cp := *it
	return &cp, nil
}

func (m *memPortfolio) Delete(_ context.Context, id primitive.ObjectID) (*models.PortfolioItem, error) {
	i, ok := m.find(id)
	if !ok {
		return nil, services.ErrNotFound
	}
	it := m.items[i]
	m.items = append(m.items[:i], m.items[i+1:]...)
	return it, nil
}

type memStorage struct {
	mu      sync.Mutex
	files   map[string][]byte
	deleted []string
}

func newMemStorage() *memStorage {
	return &memStorage{files: map[string][]byte{}}
}

func (s *memStorage) Save(_ context.Context, name string, r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	url := "/uploads/" + name
	s.files[url] = data
	return url, nil
}

func (s *memStorage) Delete(_ context.Context, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.files, url)
	s.deleted = append(s.deleted, url)
	return nil
}

func (s *memStorage) urls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.files))
	for u := range s.files {
		out = append(out, u)
	}
	sort.Strings(out)
	return out
}

type memReviews struct {
	items []*models.Review
}

func (m *memReviews) Create(_ context.Context, r *models.Review) error {
	r.ID = primitive.NewObjectID()
	r.IsApproved = false
	r.CreatedAt = time.Now().UTC()
	m.items = append(m.items, r)
	return nil
}

func (m *memReviews) List(_ context.Context, approvedOnly bool, opts models.ListOptions) (*models.Page[models.Review], error) {
	var all []models.Review
	for _, r := range m.items {
		if approvedOnly && !r.IsApproved {
			continue
		}
		all = append(all, *r)
	}
	return paginate(all, opts), nil
}

func (m *memReviews) Approve(_ context.Context, id primitive.ObjectID) error {
	for _, r := range m.items {
		if r.ID == id {
			r.IsApproved = true
			return nil
		}
	}
	return services.ErrNotFound
}

func (m *memReviews) Delete(_ context.Context, id primitive.ObjectID) error {
	for i, r := range m.items {
		if r.ID == id {
			m.items = append(m.items[:i], m.items[i+1:]...)
			return nil
		}
	}
	return services.ErrNotFound
}

type memProjects struct {
	items []*models.Project
}

func (m *memProjects) Create(_ context.Context, p *models.Project) error {
	p.ID = primitive.NewObjectID()
	p.CreatedAt = time.Now().UTC()
	if p.Status == "" {
		p.Status = models.ProjectStatusPlanned
	}
	if p.Technologies == nil {
		p.Technologies = []string{}
	}
	m.items = append(m.items, p)
	return nil
}

func (m *memProjects) Get(_ context.Context, id primitive.ObjectID) (*models.Project, error) {
	for _, p := range m.items {
		if p.ID == id {
			cp := *p
			return &cp, nil
		}
	}
	return nil, services.ErrNotFound
}

func (m *memProjects) List(_ context.Context, activeOnly bool, opts models.ListOptions) (*models.Page[models.Project], error) {
	var all []models.Project
	for _, p := range m.items {
		if activeOnly && !p.IsActive {
			continue
		}
		all = append(all, *p)
	}
	return paginate(all, opts), nil
}

func (m *memProjects) Update(_ context.Context, id primitive.ObjectID, u *models.ProjectUpdate) (*models.Project, error) {
	for _, p := range m.items {
		if p.ID != id {
			continue
		}
		if u.Title != nil {
			p.Title = *u.Title
		}
		if u.Client != nil {
			p.Client = *u.Client
		}
		if u.Description != nil {
			p.Description = *u.Description
		}
		if u.Status != nil {
			p.Status = *u.Status
		}
		if u.Technologies != nil {
			p.Technologies = *u.Technologies
		}
		if u.URL != nil {
			p.URL = *u.URL
		}
		if u.IsActive != nil {
			p.IsActive = *u.IsActive
		}
		cp := *p
		return &cp, nil
	}
	return nil, services.ErrNotFound
}

func (m *memProjects) Delete(_ context.Context, id primitive.ObjectID) error {
	for i, p := range m.items {
		if p.ID == id {
			m.items = append(m.items[:i], m.items[i+1:]...)
			return nil
		}
	}
	return services.ErrNotFound
}
