package usecase

import (
	"bytes"
	"fmt"
	"io"

	"github.com/aadhil-anwer/resume-analyzer/internal/domain"
)

type fakeUploads struct {
	items map[string]domain.Upload
	next  int
}

func newFakeUploads() *fakeUploads { return &fakeUploads{items: map[string]domain.Upload{}} }

func (f *fakeUploads) Create(_ domain.Context, u domain.Upload) (string, error) {
	f.next++
	id := fmt.Sprintf("upload-%d", f.next)
	u.ID = id
	f.items[id] = u
	return id, nil
}

func (f *fakeUploads) Get(_ domain.Context, id string) (domain.Upload, error) {
	u, ok := f.items[id]
	if !ok {
		return domain.Upload{}, domain.ErrNotFound
	}
	return u, nil
}

type fakeAnalyses struct {
	byUpload map[string]domain.Analysis
}

func newFakeAnalyses() *fakeAnalyses { return &fakeAnalyses{byUpload: map[string]domain.Analysis{}} }

func (f *fakeAnalyses) Upsert(_ domain.Context, a domain.Analysis) error {
	f.byUpload[a.UploadID] = a
	return nil
}

func (f *fakeAnalyses) GetByUploadID(_ domain.Context, uploadID string) (domain.Analysis, error) {
	a, ok := f.byUpload[uploadID]
	if !ok {
		return domain.Analysis{}, domain.ErrNotFound
	}
	return a, nil
}

type fakeMatches struct {
	items map[string]domain.JDMatch
	next  int
}

func newFakeMatches() *fakeMatches { return &fakeMatches{items: map[string]domain.JDMatch{}} }

func (f *fakeMatches) Create(_ domain.Context, m domain.JDMatch) (string, error) {
	f.next++
	id := fmt.Sprintf("match-%d", f.next)
	m.ID = id
	f.items[id] = m
	return id, nil
}

func (f *fakeMatches) Get(_ domain.Context, id string) (domain.JDMatch, error) {
	m, ok := f.items[id]
	if !ok {
		return domain.JDMatch{}, domain.ErrNotFound
	}
	return m, nil
}

func (f *fakeMatches) UpdateResult(_ domain.Context, id string, payload map[string]any, status domain.Status) error {
	m, ok := f.items[id]
	if !ok {
		return domain.ErrNotFound
	}
	m.Payload = payload
	m.Status = status
	f.items[id] = m
	return nil
}

type fakeRuns struct {
	items map[string]domain.LatexGeneration
	next  int
}

func newFakeRuns() *fakeRuns { return &fakeRuns{items: map[string]domain.LatexGeneration{}} }

func (f *fakeRuns) Create(_ domain.Context, g domain.LatexGeneration) (string, error) {
	f.next++
	id := fmt.Sprintf("run-%d", f.next)
	g.ID = id
	f.items[id] = g
	return id, nil
}

func (f *fakeRuns) Get(_ domain.Context, id string) (domain.LatexGeneration, error) {
	g, ok := f.items[id]
	if !ok {
		return domain.LatexGeneration{}, domain.ErrNotFound
	}
	return g, nil
}

func (f *fakeRuns) UpdateResult(_ domain.Context, id string, latexSource, pdfObjectKey string, payload map[string]any) error {
	g, ok := f.items[id]
	if !ok {
		return domain.ErrNotFound
	}
	g.LatexSource = latexSource
	g.PDFObjectKey = pdfObjectKey
	g.Payload = payload
	f.items[id] = g
	return nil
}

type fakeQueue struct {
	tasks []domain.Task
	err   error
}

func (f *fakeQueue) Enqueue(_ domain.Context, t domain.Task) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.tasks = append(f.tasks, t)
	return fmt.Sprintf("msg-%d", len(f.tasks)), nil
}

type fakeStore struct {
	objects map[string][]byte
}

func newFakeStore() *fakeStore { return &fakeStore{objects: map[string][]byte{}} }

func (f *fakeStore) Put(_ domain.Context, key, _ string, r io.Reader, _ int64) error {
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(r); err != nil {
		return err
	}
	f.objects[key] = buf.Bytes()
	return nil
}

func (f *fakeStore) Get(_ domain.Context, key string) ([]byte, error) {
	b, ok := f.objects[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return b, nil
}
