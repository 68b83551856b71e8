package search

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubDocument struct {
	kind   string
	id     uint
	fields map[string]interface{}
}

func (d stubDocument) SearchKind() string                   { return d.kind }
func (d stubDocument) SearchID() uint                       { return d.id }
func (d stubDocument) SearchFields() map[string]interface{} { return d.fields }

type indexOp struct {
	op   string
	kind string
	id   uint
}

type recordingIndex struct {
	ops  []indexOp
	fail error
}

func (r *recordingIndex) Upsert(_ context.Context, kind string, id uint, _ map[string]interface{}) error {
	if r.fail != nil {
		return r.fail
	}
	r.ops = append(r.ops, indexOp{"upsert", kind, id})
	return nil
}

func (r *recordingIndex) Delete(_ context.Context, kind string, id uint) error {
	if r.fail != nil {
		return r.fail
	}
	r.ops = append(r.ops, indexOp{"delete", kind, id})
	return nil
}

func (r *recordingIndex) Query(context.Context, string, string, int, int) ([]uint, int64, error) {
	if r.fail != nil {
		return nil, 0, r.fail
	}
	r.ops = append(r.ops, indexOp{op: "query"})
	return nil, 0, nil
}

func TestChangeSetLastWriteWins(t *testing.T) {
	index := &recordingIndex{}
	synchronizer := NewSynchronizer(index)
	doc := stubDocument{kind: "post", id: 1, fields: map[string]interface{}{"body": "hi"}}

	// A record created and deleted in the same transaction yields a
	// single delete.
	changeSet := NewChangeSet()
	changeSet.AddUpsert(doc)
	changeSet.AddDelete(doc)
	synchronizer.Flush(context.Background(), changeSet)
	assert.Equal(t, []indexOp{{"delete", "post", 1}}, index.ops)

	// And the other way around, a single upsert.
	index.ops = nil
	changeSet = NewChangeSet()
	changeSet.AddDelete(doc)
	changeSet.AddUpsert(doc)
	synchronizer.Flush(context.Background(), changeSet)
	assert.Equal(t, []indexOp{{"upsert", "post", 1}}, index.ops)
}

func TestChangeSetKeepsDocumentOrder(t *testing.T) {
	index := &recordingIndex{}
	synchronizer := NewSynchronizer(index)

	changeSet := NewChangeSet()
	changeSet.AddUpsert(stubDocument{kind: "post", id: 3})
	changeSet.AddUpsert(stubDocument{kind: "post", id: 1})
	changeSet.AddDelete(stubDocument{kind: "post", id: 2})
	changeSet.AddUpsert(stubDocument{kind: "post", id: 3}) // re-touched, keeps slot

	synchronizer.Flush(context.Background(), changeSet)
	assert.Equal(t, []indexOp{
		{"upsert", "post", 3},
		{"upsert", "post", 1},
		{"delete", "post", 2},
	}, index.ops)
}

func TestFlushSwallowsIndexFailures(t *testing.T) {
	index := &recordingIndex{fail: errors.New("connection refused")}
	synchronizer := NewSynchronizer(index)

	changeSet := NewChangeSet()
	changeSet.AddUpsert(stubDocument{kind: "post", id: 1})

	// Flush reports nothing to the caller; the transaction is already
	// committed and reindexing is the recovery path.
	synchronizer.Flush(context.Background(), changeSet)
	assert.Empty(t, index.ops)
}

func TestFlushSkipsEmptyChangeSets(t *testing.T) {
	index := &recordingIndex{}
	synchronizer := NewSynchronizer(index)

	synchronizer.Flush(context.Background(), NewChangeSet())
	synchronizer.Flush(context.Background(), nil)
	assert.Empty(t, index.ops)
}

func TestQueryRejectsBlankText(t *testing.T) {
	index := &recordingIndex{}
	synchronizer := NewSynchronizer(index)

	_, _, err := synchronizer.Query(context.Background(), "post", "   ", 1, 10)
	require.Error(t, err)
	assert.Empty(t, index.ops)
}

func TestChangeSetFromContext(t *testing.T) {
	assert.Nil(t, ChangeSetFromContext(context.Background()))

	ctx, changeSet := WithChangeSet(context.Background())
	assert.Same(t, changeSet, ChangeSetFromContext(ctx))
}
