package crawler

import (
	"sync/atomic"
	"time"

	"github.com/maltedev/wholesale-crawler/internal/models"
)

// ResultSet is one search's output. Each slot starts as a candidate and is
// replaced atomically once its enrichment lands; the slice itself never
// changes length.
type ResultSet struct {
	ID        string
	Query     models.SearchQuery
	CreatedAt time.Time

	slots []atomic.Pointer[models.Record]
}

func NewResultSet(id string, q models.SearchQuery, products []models.SearchCandidate) *ResultSet {
	rs := &ResultSet{
		ID:        id,
		Query:     q,
		CreatedAt: time.Now(),
		slots:     make([]atomic.Pointer[models.Record], len(products)),
	}
	for i, p := range products {
		rec := models.CandidateRecord(p)
		rs.slots[i].Store(&rec)
	}
	return rs
}

func (rs *ResultSet) Len() int {
	return len(rs.slots)
}

func (rs *ResultSet) At(i int) models.Record {
	return *rs.slots[i].Load()
}

func (rs *ResultSet) upgrade(i int, p models.EnrichedProduct) {
	rec := models.EnrichedRecord(p)
	rs.slots[i].Store(&rec)
}

// Snapshot copies the current state of every slot.
func (rs *ResultSet) Snapshot() []models.Record {
	out := make([]models.Record, len(rs.slots))
	for i := range rs.slots {
		out[i] = rs.At(i)
	}
	return out
}

func (rs *ResultSet) EnrichedCount() int {
	n := 0
	for i := range rs.slots {
		if rs.slots[i].Load().IsEnriched() {
			n++
		}
	}
	return n
}
