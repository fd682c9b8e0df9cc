package view

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/fluxterm/fluxterm/pkg/delta"
)

var _ = Describe("FilteredListView", func() {
	var v *FilteredListView[uint32, int64]

	BeforeEach(func() {
		v = NewFilteredListView("positives", func(_ uint32, value int64) bool { return value > 0 })
	})

	It("reports its label and domain", func() {
		Expect(v.Label()).To(Equal("positives"))
		Expect(v.Domain()).To(Equal(DomainFilteredList))
		Expect(v.Domain().String()).To(Equal("filtered_list"))
	})

	It("keeps the visible subset equal to the predicate filter", func() {
		batch := delta.NewBatch[uint32, int64](1)
		for i := uint32(0); i < 200; i++ {
			value := int64(i) + 1
			if i%2 == 1 {
				value = -int64(i)
			}
			batch.Insert(i, value, uint64(i))
		}
		out := v.ApplyDelta(batch)

		Expect(v.TotalCount()).To(Equal(200))
		Expect(v.VisibleCount()).To(Equal(100))
		Expect(out.Len()).To(Equal(100)) // only the visible half transitioned
		checkEquivalence[uint32, int64](v)
	})

	It("treats an empty batch as a no-op", func() {
		seed := delta.NewBatch[uint32, int64](1)
		seed.Insert(1, 10, 0)
		v.ApplyDelta(seed)
		before := v.MaterializedSize()

		out := v.ApplyDelta(delta.NewBatch[uint32, int64](2))
		Expect(out.IsEmpty()).To(BeTrue())
		Expect(v.MaterializedSize()).To(Equal(before))
		checkEquivalence[uint32, int64](v)
	})

	It("emits nothing for a duplicate insert of an identical value", func() {
		batch1 := delta.NewBatch[uint32, int64](1)
		batch1.Insert(5, 42, 0)
		Expect(v.ApplyDelta(batch1).Len()).To(Equal(1))

		batch2 := delta.NewBatch[uint32, int64](2)
		batch2.Insert(5, 42, 0)
		Expect(v.ApplyDelta(batch2).IsEmpty()).To(BeTrue())
	})

	It("emits an insert when a visible value changes in place", func() {
		batch1 := delta.NewBatch[uint32, int64](1)
		batch1.Insert(5, 42, 0)
		v.ApplyDelta(batch1)

		batch2 := delta.NewBatch[uint32, int64](2)
		batch2.Insert(5, 43, 0)
		out := v.ApplyDelta(batch2)
		Expect(out.Len()).To(Equal(1))
		Expect(out.Entries()[0].IsInsert()).To(BeTrue())
		Expect(v.VisibleCount()).To(Equal(1))
	})

	It("emits a delete when an insert hides a visible key", func() {
		batch1 := delta.NewBatch[uint32, int64](1)
		batch1.Insert(5, 42, 0)
		v.ApplyDelta(batch1)

		batch2 := delta.NewBatch[uint32, int64](2)
		batch2.Insert(5, -1, 0)
		out := v.ApplyDelta(batch2)
		Expect(out.Len()).To(Equal(1))
		Expect(out.Entries()[0].IsInsert()).To(BeFalse())
		Expect(v.VisibleCount()).To(BeZero())
		Expect(v.TotalCount()).To(Equal(1))
	})

	It("cancels an insert with a delete in the next epoch", func() {
		before := v.MaterializedSize()

		batch1 := delta.NewBatch[uint32, int64](1)
		batch1.Insert(9, 100, 0)
		v.ApplyDelta(batch1)
		Expect(v.MaterializedSize()).To(Equal(before + 1))

		batch2 := delta.NewBatch[uint32, int64](2)
		batch2.Delete(9, 0)
		out := v.ApplyDelta(batch2)
		Expect(out.Len()).To(Equal(1))
		Expect(v.MaterializedSize()).To(Equal(before))
		checkEquivalence[uint32, int64](v)
	})

	It("silently ignores deleting an absent key", func() {
		out := v.ApplyDelta(deleteBatch(1, 9999))
		Expect(out.IsEmpty()).To(BeTrue())
		Expect(v.TotalCount()).To(BeZero())
	})

	It("emits nothing when deleting a tracked but hidden key", func() {
		batch1 := delta.NewBatch[uint32, int64](1)
		batch1.Insert(5, -42, 0)
		Expect(v.ApplyDelta(batch1).IsEmpty()).To(BeTrue())

		out := v.ApplyDelta(deleteBatch(2, 5))
		Expect(out.IsEmpty()).To(BeTrue())
		Expect(v.TotalCount()).To(BeZero())
	})

	It("returns the materialization in first-insertion key order", func() {
		batch := delta.NewBatch[uint32, int64](1)
		batch.Insert(30, 1, 0)
		batch.Insert(10, 2, 1)
		batch.Insert(20, 3, 2)
		v.ApplyDelta(batch)

		full := v.FullRecompute()
		Expect(full).To(HaveLen(3))
		Expect(full[0].Key).To(Equal(uint32(30)))
		Expect(full[1].Key).To(Equal(uint32(10)))
		Expect(full[2].Key).To(Equal(uint32(20)))
	})

	It("holds the subset and equivalence laws over random delta sequences", func() {
		for _, batch := range randomBatches(1337, 50, 20, 64) {
			v.ApplyDelta(batch)
			Expect(v.VisibleCount()).To(BeNumerically("<=", v.TotalCount()))
			checkEquivalence[uint32, int64](v)
		}
	})

	It("matches a naive model over random delta sequences", func() {
		all := make(map[uint32]int64)
		for _, batch := range randomBatches(99, 40, 15, 32) {
			for _, e := range batch.Entries() {
				switch entry := e.(type) {
				case delta.Insert[uint32, int64]:
					all[entry.Key()] = entry.Value()
				case delta.Delete[uint32, int64]:
					delete(all, entry.Key())
				}
			}
			v.ApplyDelta(batch)

			expected := make(map[uint32]int64)
			for k, value := range all {
				if value > 0 {
					expected[k] = value
				}
			}
			got := make(map[uint32]int64)
			for _, pair := range v.FullRecompute() {
				got[pair.Key] = pair.Value
			}
			Expect(got).To(Equal(expected))
			Expect(v.MaterializedSize()).To(Equal(len(expected)))
		}
	})
})

func deleteBatch(epoch uint64, key uint32) *delta.Batch[uint32, int64] {
	batch := delta.NewBatch[uint32, int64](epoch)
	batch.Delete(key, 0)
	return batch
}
