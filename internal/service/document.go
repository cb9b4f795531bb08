package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"docvault/internal/model"
	"docvault/internal/repository"
	"docvault/internal/search"
	"docvault/internal/storage"
)

var (
	ErrIDRequired       = errors.New("id is required")
	ErrNotFound         = errors.New("document not found")
	ErrReaderNil        = errors.New("reader is nil")
	ErrInvalidInput     = errors.New("invalid input")
	ErrUnsupportedType  = errors.New("file type is not allowed")
	ErrTooLarge         = errors.New("file exceeds the size limit")
	ErrUnknownMajorHead = errors.New("unknown major head")
	ErrContentMissing   = errors.New("document content is missing")
)

// AllowedContentTypes lists the file types accepted on upload.
var AllowedContentTypes = []string{"image/jpeg", "image/png", "image/gif", "application/pdf"}

const (
	defaultMaxUploadBytes = 10 << 20
	defaultTagCacheTTL    = 5 * time.Minute
	defaultPresignTTL     = 15 * time.Minute
	sniffLen              = 3072
	tagsCacheKey          = "tags"
)

var tracer = otel.Tracer("docvault/internal/service")

// DocumentListResult is the service-level DTO for paginated documents.
type DocumentListResult struct {
	Items []model.Document `json:"data"`
	Total int              `json:"total"`
}

// UploadInput carries one uploaded file and the metadata entered with it.
type UploadInput struct {
	Reader          io.Reader `json:"-"`
	Filename        string    `json:"name" validate:"required,max=255"`
	Size            int64     `json:"size" validate:"gte=0"`
	MajorHead       string    `json:"major_head" validate:"required,oneof=Personal Professional Company"`
	MinorHead       string    `json:"minor_head" validate:"required,max=128"`
	DocumentDate    string    `json:"document_date" validate:"omitempty,datetime=2006-01-02"`
	DocumentRemarks string    `json:"document_remarks" validate:"max=2000"`
	Tags            []string  `json:"tags" validate:"max=64,dive,max=64"`
}

// DocumentService defines the use cases for handling documents.
type DocumentService interface {
	// Upload stores the content, then appends its record to the corpus.
	// The stored content is removed again when the record cannot be saved.
	Upload(ctx context.Context, in UploadInput) (*model.Document, error)

	// Get returns a single document by its ID.
	Get(ctx context.Context, id string) (*model.Document, error)

	// List returns documents using limit/offset and a total count.
	List(ctx context.Context, limit, offset int) (*DocumentListResult, error)

	// Search returns the documents matching q, in corpus order.
	Search(ctx context.Context, q model.Query) ([]model.Document, error)

	// Tags returns the distinct tags used across the corpus.
	Tags(ctx context.Context) ([]string, error)

	// Heads returns the classification vocabulary.
	Heads() []model.Head

	// MinorHeads returns the suggested minor heads of a major head.
	MinorHeads(majorHead string) ([]string, error)

	// Open returns a document together with a reader over its content.
	// The caller must close the reader.
	Open(ctx context.Context, id string) (*model.Document, io.ReadCloser, error)

	// DownloadURL returns a time-limited URL for the document content, or
	// storage.ErrPresignUnsupported.
	DownloadURL(ctx context.Context, id string) (string, error)

	// Ping reports whether the corpus backend is reachable.
	Ping(ctx context.Context) error
}

// Options tunes a DocumentService. Zero values select defaults.
type Options struct {
	MaxUploadBytes int64
	TagCacheTTL    time.Duration
	PresignTTL     time.Duration
	Logger         *zap.Logger
}

// documentService is a concrete implementation of DocumentService.
type documentService struct {
	store      storage.Storage
	repo       repository.DocumentRepository
	tags       *cache.Cache
	maxUpload  int64
	presignTTL time.Duration
	log        *zap.Logger
	now        func() time.Time
}

// NewDocumentService constructs a new DocumentService.
func NewDocumentService(store storage.Storage, repo repository.DocumentRepository, opts Options) DocumentService {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = defaultMaxUploadBytes
	}
	if opts.TagCacheTTL <= 0 {
		opts.TagCacheTTL = defaultTagCacheTTL
	}
	if opts.PresignTTL <= 0 {
		opts.PresignTTL = defaultPresignTTL
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &documentService{
		store:      store,
		repo:       repo,
		tags:       cache.New(opts.TagCacheTTL, 2*opts.TagCacheTTL),
		maxUpload:  opts.MaxUploadBytes,
		presignTTL: opts.PresignTTL,
		log:        opts.Logger.With(zap.String("component", "document_service")),
		now:        time.Now,
	}
}

func (s *documentService) Upload(ctx context.Context, in UploadInput) (*model.Document, error) {
	ctx, span := tracer.Start(ctx, "DocumentService.Upload")
	defer span.End()

	if in.Reader == nil {
		return nil, ErrReaderNil
	}
	in.Filename = baseName(in.Filename)
	in.Tags = normalizeTags(in.Tags)
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	if in.Size > s.maxUpload {
		return nil, fmt.Errorf("%w: %d bytes, limit %d", ErrTooLarge, in.Size, s.maxUpload)
	}

	body, contentType, err := sniff(in.Reader)
	if err != nil {
		return nil, err
	}

	genName := uuid.NewString() + strings.ToLower(filepath.Ext(in.Filename))
	key := "uploads/" + genName

	objInfo, err := s.store.Put(ctx, key, body, storage.PutObjectOptions{
		Size:        in.Size,
		ContentType: contentType,
		Metadata: map[string]string{
			"original-filename": in.Filename,
		},
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "storage put failed")
		return nil, fmt.Errorf("upload to storage: %w", err)
	}

	doc := &model.Document{
		ID:              uuid.NewString(),
		Name:            in.Filename,
		Path:            objInfo.Key,
		Type:            contentType,
		Size:            objInfo.Size,
		MajorHead:       in.MajorHead,
		MinorHead:       in.MinorHead,
		DocumentDate:    in.DocumentDate,
		DocumentRemarks: in.DocumentRemarks,
		Tags:            in.Tags,
		UploadedAt:      s.now().UTC(),
	}
	stored, err := s.repo.Create(ctx, doc)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "corpus append failed")
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			s.log.Error("upload_rollback_failed", zap.String("key", key), zap.Error(delErr))
			return nil, fmt.Errorf("db save failed: %v; rollback delete failed: %v", err, delErr)
		}
		return nil, fmt.Errorf("db save failed: %w", err)
	}

	s.tags.Delete(tagsCacheKey)
	span.SetAttributes(
		attribute.String("document.id", stored.ID),
		attribute.String("document.type", stored.Type),
		attribute.Int64("document.size", stored.Size),
	)
	s.log.Info("document_uploaded",
		zap.String("document_id", stored.ID),
		zap.String("major_head", stored.MajorHead),
		zap.String("minor_head", stored.MinorHead),
		zap.Int64("size", stored.Size),
		zap.Int("tags", len(stored.Tags)),
	)
	return stored, nil
}

// List returns paginated documents without exposing repository types.
func (s *documentService) List(ctx context.Context, limit, offset int) (*DocumentListResult, error) {
	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}

	res, err := s.repo.List(ctx, repository.PageQuery{Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}
	return &DocumentListResult{Items: res.Items, Total: res.Total}, nil
}

// Get returns a document by ID.
func (s *documentService) Get(ctx context.Context, id string) (*model.Document, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	doc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return doc, nil
}

// Search filters one snapshot of the corpus.
func (s *documentService) Search(ctx context.Context, q model.Query) ([]model.Document, error) {
	ctx, span := tracer.Start(ctx, "DocumentService.Search")
	defer span.End()

	q.Tags = dropEmpty(q.Tags)
	if err := validateStruct(q); err != nil {
		return nil, err
	}

	corpus, err := s.repo.All(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "load corpus failed")
		return nil, fmt.Errorf("load corpus: %w", err)
	}

	results := search.FilterDocuments(corpus, q)
	span.SetAttributes(
		attribute.Int("search.corpus_size", len(corpus)),
		attribute.Int("search.results", len(results)),
	)
	return results, nil
}

// Tags aggregates the corpus tags, served from cache until the next upload.
func (s *documentService) Tags(ctx context.Context) ([]string, error) {
	if v, ok := s.tags.Get(tagsCacheKey); ok {
		return append([]string(nil), v.([]string)...), nil
	}

	corpus, err := s.repo.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("load corpus: %w", err)
	}
	tags := search.AggregateTags(corpus)
	s.tags.SetDefault(tagsCacheKey, tags)
	return append([]string{}, tags...), nil
}

func (s *documentService) Heads() []model.Head {
	out := make([]model.Head, 0, len(model.Heads))
	for _, h := range model.Heads {
		out = append(out, model.Head{Name: h.Name, MinorHeads: append([]string{}, h.MinorHeads...)})
	}
	return out
}

func (s *documentService) MinorHeads(majorHead string) ([]string, error) {
	h, ok := model.FindHead(majorHead)
	if !ok {
		return nil, ErrUnknownMajorHead
	}
	return append([]string{}, h.MinorHeads...), nil
}

func (s *documentService) Open(ctx context.Context, id string) (*model.Document, io.ReadCloser, error) {
	doc, err := s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	rc, _, err := s.store.Get(ctx, doc.Path)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, nil, ErrContentMissing
		}
		return nil, nil, fmt.Errorf("open content: %w", err)
	}
	return doc, rc, nil
}

func (s *documentService) DownloadURL(ctx context.Context, id string) (string, error) {
	doc, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}
	return s.store.PresignGet(ctx, doc.Path, doc.Name, s.presignTTL)
}

func (s *documentService) Ping(ctx context.Context) error {
	return s.repo.PingContext(ctx)
}

// sniff detects the content type from the first bytes of r and returns a
// reader that still yields the whole content.
func sniff(r io.Reader) (io.Reader, string, error) {
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, "", fmt.Errorf("read content: %w", err)
	}
	head = head[:n]

	detected := mimetype.Detect(head)
	for _, allowed := range AllowedContentTypes {
		if detected.Is(allowed) {
			return io.MultiReader(bytes.NewReader(head), r), allowed, nil
		}
	}
	return nil, "", fmt.Errorf("%w: %s", ErrUnsupportedType, detected.String())
}

func baseName(name string) string {
	name = strings.TrimSpace(strings.ReplaceAll(name, "\\", "/"))
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	if name == "." || name == ".." {
		return ""
	}
	return name
}

// normalizeTags trims tags, drops empty ones and removes duplicates while
// keeping the first occurrence.
func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

func dropEmpty(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}
