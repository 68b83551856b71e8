package search

import (
	"context"
	"reflect"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"microblog/apperrors"
	"microblog/monitoring"
)

type changeSetKey struct{}

type documentRef struct {
	kind string
	id   uint
}

type pendingChange struct {
	deleted bool
	fields  map[string]interface{}
}

// ChangeSet accumulates the searchable records touched by a single
// transaction. It is filled pre-commit by the synchronizer's hooks,
// while the transaction's bookkeeping is still available, and applied
// to the index only after a successful commit. Each transaction owns
// its change set; there is no shared buffer.
type ChangeSet struct {
	pending map[documentRef]*pendingChange
	order   []documentRef
}

func NewChangeSet() *ChangeSet {
	return &ChangeSet{
		pending: make(map[documentRef]*pendingChange),
	}
}

// WithChangeSet attaches a fresh change set to ctx, scoping it to the
// transaction that runs under that context.
func WithChangeSet(ctx context.Context) (context.Context, *ChangeSet) {
	changeSet := NewChangeSet()
	return context.WithValue(ctx, changeSetKey{}, changeSet), changeSet
}

func ChangeSetFromContext(ctx context.Context) *ChangeSet {
	changeSet, _ := ctx.Value(changeSetKey{}).(*ChangeSet)
	return changeSet
}

func (cs *ChangeSet) AddUpsert(doc Document) {
	change := cs.getPendingChange(documentRef{kind: doc.SearchKind(), id: doc.SearchID()})
	change.deleted = false
	change.fields = doc.SearchFields()
}

func (cs *ChangeSet) AddDelete(doc Document) {
	change := cs.getPendingChange(documentRef{kind: doc.SearchKind(), id: doc.SearchID()})
	change.deleted = true
	change.fields = nil
}

func (cs *ChangeSet) Empty() bool {
	return len(cs.pending) == 0
}

func (cs *ChangeSet) getPendingChange(ref documentRef) *pendingChange {
	change, ok := cs.pending[ref]
	if !ok {
		change = &pendingChange{}
		cs.pending[ref] = change
		cs.order = append(cs.order, ref)
	}
	return change
}

// Synchronizer keeps the external full-text index eventually
// consistent with the searchable record types in the system of record.
// It is wired into the record store as an explicit dependency rather
// than a process-wide listener.
type Synchronizer struct {
	index Index
}

func NewSynchronizer(index Index) *Synchronizer {
	return &Synchronizer{
		index: index,
	}
}

// Instrument registers the transaction hooks on db. The hooks run
// inside the transaction and only record what changed; no index
// mutation happens before Flush.
func (s *Synchronizer) Instrument(db *gorm.DB) error {
	if err := db.Callback().Create().After("gorm:create").Register("search:after_create", s.afterWrite); err != nil {
		return err
	}
	if err := db.Callback().Update().After("gorm:update").Register("search:after_update", s.afterWrite); err != nil {
		return err
	}
	return db.Callback().Delete().After("gorm:delete").Register("search:after_delete", s.afterDelete)
}

// Flush applies a committed change set to the index. The primary
// transaction is already durable at this point, so index failures are
// logged and counted instead of propagated; Reindex is the recovery
// path for missed writes.
func (s *Synchronizer) Flush(ctx context.Context, changeSet *ChangeSet) {
	if changeSet == nil || changeSet.Empty() {
		return
	}
	for _, ref := range changeSet.order {
		change := changeSet.pending[ref]

		var err error
		if change.deleted {
			err = s.index.Delete(ctx, ref.kind, ref.id)
		} else {
			err = s.index.Upsert(ctx, ref.kind, ref.id, change.fields)
		}
		if err != nil {
			monitoring.IndexSyncFailures.WithLabelValues(ref.kind).Inc()
			log.Errorf("Error syncing %s/%d to index: %v", ref.kind, ref.id, err)
			continue
		}
		monitoring.IndexSyncOperations.WithLabelValues(ref.kind).Inc()
	}
}

// Upsert writes a single document directly, bypassing the transaction
// bracket. Used by bulk reindexing.
func (s *Synchronizer) Upsert(ctx context.Context, doc Document) error {
	return s.index.Upsert(ctx, doc.SearchKind(), doc.SearchID(), doc.SearchFields())
}

// Query returns the ranked identities matching text plus the total
// match count, already paginated by the index.
func (s *Synchronizer) Query(
	ctx context.Context,
	kind string,
	text string,
	page int,
	pageSize int,
) ([]uint, int64, error) {
	if strings.TrimSpace(text) == "" {
		return nil, 0, apperrors.New(apperrors.Validation, "empty search query")
	}

	timer := prometheus.NewTimer(monitoring.SearchQueryDuration.WithLabelValues(kind))
	defer timer.ObserveDuration()

	return s.index.Query(ctx, kind, text, page, pageSize)
}

func (s *Synchronizer) afterWrite(db *gorm.DB) {
	s.collect(db, (*ChangeSet).AddUpsert)
}

func (s *Synchronizer) afterDelete(db *gorm.DB) {
	s.collect(db, (*ChangeSet).AddDelete)
}

func (s *Synchronizer) collect(db *gorm.DB, add func(*ChangeSet, Document)) {
	if db.Error != nil || db.Statement == nil {
		return
	}
	changeSet := ChangeSetFromContext(db.Statement.Context)
	if changeSet == nil {
		return
	}

	value := db.Statement.ReflectValue
	switch value.Kind() {
	case reflect.Slice, reflect.Array:
		for i := 0; i < value.Len(); i++ {
			if doc := asDocument(value.Index(i)); doc != nil {
				add(changeSet, doc)
			}
		}
	case reflect.Struct:
		if doc := asDocument(value); doc != nil {
			add(changeSet, doc)
		}
	}
}

func asDocument(value reflect.Value) Document {
	for value.Kind() == reflect.Ptr {
		if value.IsNil() {
			return nil
		}
		value = value.Elem()
	}
	if value.Kind() != reflect.Struct || !value.CanAddr() {
		return nil
	}
	doc, _ := value.Addr().Interface().(Document)
	return doc
}
