package todos

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// ListLimit caps how many records List returns.
const ListLimit = 50

var (
	ErrNotFound    = errors.New("record not found")
	ErrNotModified = errors.New("record not modified")
)

// EventSink receives record change events. aws.Publisher satisfies it.
type EventSink interface {
	SendRecordEvent(ctx context.Context, messageBody string, attributes map[string]string) error
}

// Upload is a file part received with a create request.
type Upload struct {
	Filename string
	Open     func() (io.ReadCloser, error)
}

// Service owns the business rules for todo records.
type Service struct {
	store   Store
	events  EventSink
	logger  *slog.Logger
	newID   func() string
	nowFunc func() time.Time
}

// NewService creates a Service. events may be nil, in which case no change events are sent.
func NewService(store Store, events EventSink, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:   store,
		events:  events,
		logger:  logger,
		newID:   uuid.NewString,
		nowFunc: time.Now,
	}
}

// Create persists a record without attachment and returns it as stored.
func (s *Service) Create(ctx context.Context, in NewRecord) (*Record, error) {
	rec := Record{
		ID:          s.newID(),
		Title:       in.Title,
		Description: in.Description,
		Timestamp:   in.Timestamp,
		Done:        in.Done,
	}

	id, err := s.store.Insert(ctx, rec)
	if err != nil {
		return nil, fmt.Errorf("insert record: %w", err)
	}
	s.emit(ctx, EventCreated, rec)

	stored, err := s.store.FindOne(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("read back record %s: %w", id, err)
	}
	if stored == nil {
		return &rec, nil
	}
	return stored, nil
}

// CreateWithAttachment reads the upload fully, embeds it and persists the record.
// The returned record never carries the file contents.
func (s *Service) CreateWithAttachment(ctx context.Context, in NewRecord, up Upload) Result[*Record] {
	contents, err := readUpload(up)
	if err != nil {
		s.logger.Warn("attachment read failed", "filename", up.Filename, "error", err)
		return softFail[*Record](MsgUploadFailed)
	}

	rec := Record{
		ID:          s.newID(),
		Title:       in.Title,
		Description: in.Description,
		Timestamp:   in.Timestamp,
		Document:    &Attachment{Filename: up.Filename, Contents: contents},
		Done:        in.Done,
	}
	if _, err := s.store.Insert(ctx, rec); err != nil {
		s.logger.Warn("attachment insert failed", "record_id", rec.ID, "error", err)
		return softFail[*Record](MsgUploadFailed)
	}
	s.emit(ctx, EventCreated, rec)

	rec.Document = &Attachment{Filename: up.Filename}
	return succeed(&rec)
}

func readUpload(up Upload) ([]byte, error) {
	if up.Open == nil {
		return nil, errors.New("no file")
	}
	f, err := up.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	b, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	return b, nil
}

// List returns up to ListLimit records in list form.
func (s *Service) List(ctx context.Context) ([]Record, error) {
	recs, err := s.store.FindAll(ctx, ListLimit)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	if len(recs) > ListLimit {
		recs = recs[:ListLimit]
	}
	out := make([]Record, len(recs))
	for i, r := range recs {
		out[i] = listView(r)
	}
	return out, nil
}

// listView copies the attachment filename up and replaces contents with an empty placeholder.
func listView(r Record) Record {
	v := Record{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		Timestamp:   r.Timestamp,
		Done:        r.Done,
	}
	if r.Document != nil {
		name := r.Document.Filename
		v.Filename = &name
		v.Document = &Attachment{Filename: name, Contents: []byte{}}
	}
	return v
}

// FetchAttachment returns the stored attachment of record id.
// Absence at any level is a soft failure, as is any lookup error.
func (s *Service) FetchAttachment(ctx context.Context, id string) Result[*Attachment] {
	rec, err := s.store.FindOne(ctx, id)
	if err != nil {
		s.logger.Warn("attachment lookup failed", "record_id", id, "error", err)
		return softFail[*Attachment](MsgDownloadFailed)
	}
	if rec == nil || rec.Document == nil || len(rec.Document.Contents) == 0 {
		return softFail[*Attachment](MsgFileNotFound)
	}
	return succeed(rec.Document)
}

// Delete removes record id. It returns ErrNotFound if nothing was deleted.
func (s *Service) Delete(ctx context.Context, id string) error {
	n, err := s.store.DeleteOne(ctx, id)
	if err != nil {
		return fmt.Errorf("delete record %s: %w", id, err)
	}
	if n != 1 {
		return fmt.Errorf("item with %s: %w", id, ErrNotFound)
	}
	s.emit(ctx, EventDeleted, Record{ID: id})
	return nil
}

// Update merges p into the stored record id and overwrites it.
// It returns ErrNotFound for an unknown id and ErrNotModified when the write changed nothing.
func (s *Service) Update(ctx context.Context, id string, removeFile bool, p Patch) (*Summary, error) {
	current, err := s.store.FindOne(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find record %s: %w", id, err)
	}
	if current == nil {
		return nil, fmt.Errorf("record %s: %w", id, ErrNotFound)
	}

	next := Merge(*current, p, removeFile)

	n, err := s.store.UpdateOne(ctx, id, next)
	if err != nil {
		return nil, fmt.Errorf("update record %s: %w", id, err)
	}
	if n == 0 {
		return nil, fmt.Errorf("record %s: %w", id, ErrNotModified)
	}
	s.emit(ctx, EventUpdated, next)

	sum := next.summary()
	return &sum, nil
}

// Merge builds the full record that results from applying p to current.
func Merge(current Record, p Patch, removeFile bool) Record {
	next := current

	if v, ok := p.Title.Get(); ok && (current.Title == nil || *current.Title != v) {
		next.Title = &v
	}
	if v, ok := p.Description.Get(); ok && v != current.Description {
		next.Description = v
	}

	// An omitted done is false, so it still resets a done record.
	done, _ := p.Done.Get()
	if done != current.Done {
		next.Done = done
	}

	if doc, ok := p.Document.Get(); ok && len(doc.Contents) > 0 {
		next.Document = &doc
	} else if removeFile {
		next.Document = nil
	}

	if name, ok := p.Filename.Get(); ok {
		next.Filename = &name
	} else if removeFile {
		next.Filename = nil
	}

	return next
}

func (s *Service) emit(ctx context.Context, eventType string, rec Record) {
	if s.events == nil {
		return
	}
	ev := Event{
		Type:          eventType,
		RecordID:      rec.ID,
		HasAttachment: rec.Document != nil,
		OccurredAt:    s.nowFunc().UTC(),
	}
	body, err := json.Marshal(ev)
	if err != nil {
		s.logger.Error("marshal record event", "record_id", rec.ID, "error", err)
		return
	}
	attrs := map[string]string{
		"event_type": eventType,
		"record_id":  rec.ID,
	}
	if err := s.events.SendRecordEvent(ctx, string(body), attrs); err != nil {
		s.logger.Warn("record event not sent", "type", eventType, "record_id", rec.ID, "error", err)
	}
}
