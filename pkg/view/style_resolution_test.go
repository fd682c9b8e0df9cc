package view

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/fluxterm/fluxterm/pkg/delta"
)

var _ = Describe("StyleResolutionView", func() {
	var v *StyleResolutionView

	BeforeEach(func() {
		v = NewStyleResolutionView("theme", 0x0F)
	})

	overrideBatch := func(epoch uint64, key StyleKey, hash uint64) *delta.Batch[StyleKey, ResolvedStyleValue] {
		batch := delta.NewBatch[StyleKey, ResolvedStyleValue](epoch)
		batch.Insert(key, ResolvedStyleValue{StyleHash: hash}, 0)
		return batch
	}

	It("reports its label, domain and base hash", func() {
		Expect(v.Label()).To(Equal("theme"))
		Expect(v.Domain()).To(Equal(DomainStyle))
		Expect(v.Domain().String()).To(Equal("style"))
		Expect(v.BaseHash()).To(Equal(uint64(0x0F)))
	})

	It("resolves an override as base XOR override", func() {
		out := v.ApplyDelta(overrideBatch(1, 1, 0x01))
		Expect(out.Len()).To(Equal(1))

		entry, ok := out.Entries()[0].(delta.Insert[StyleKey, ResolvedStyleValue])
		Expect(ok).To(BeTrue())
		Expect(entry.Key()).To(Equal(StyleKey(1)))
		Expect(entry.Value().StyleHash).To(Equal(uint64(0x0E)))

		full := v.FullRecompute()
		Expect(full).To(HaveLen(1))
		Expect(full[0].Value.StyleHash).To(Equal(uint64(0x0E)))
	})

	It("emits nothing for a repeat insert of the identical override", func() {
		v.ApplyDelta(overrideBatch(1, 1, 0x01))
		out := v.ApplyDelta(overrideBatch(2, 1, 0x01))
		Expect(out.IsEmpty()).To(BeTrue())
		Expect(v.MaterializedSize()).To(Equal(1))
	})

	It("replaces the live override when the hash changes", func() {
		v.ApplyDelta(overrideBatch(1, 1, 0x01))
		out := v.ApplyDelta(overrideBatch(2, 1, 0x03))
		Expect(out.Len()).To(Equal(1))
		Expect(v.FullRecompute()[0].Value.StyleHash).To(Equal(uint64(0x0C)))
		Expect(v.MaterializedSize()).To(Equal(1))
	})

	It("drops the override on delete and empties the materialization", func() {
		v.ApplyDelta(overrideBatch(1, 1, 0x01))

		batch := delta.NewBatch[StyleKey, ResolvedStyleValue](2)
		batch.Delete(1, 0)
		out := v.ApplyDelta(batch)

		Expect(out.Len()).To(Equal(1))
		Expect(out.Entries()[0].IsInsert()).To(BeFalse())
		Expect(v.MaterializedSize()).To(BeZero())
		Expect(v.FullRecompute()).To(BeEmpty())
	})

	It("ignores deleting a key with no live override", func() {
		batch := delta.NewBatch[StyleKey, ResolvedStyleValue](1)
		batch.Delete(42, 0)
		Expect(v.ApplyDelta(batch).IsEmpty()).To(BeTrue())
	})

	It("re-resolves against a new base after SetBase", func() {
		v.ApplyDelta(overrideBatch(1, 1, 0x01))
		Expect(v.FullRecompute()[0].Value.StyleHash).To(Equal(uint64(0x0E)))

		v.SetBase(0xF0)
		Expect(v.BaseHash()).To(Equal(uint64(0xF0)))
		Expect(v.FullRecompute()[0].Value.StyleHash).To(Equal(uint64(0xF1)))
		Expect(v.MaterializedSize()).To(Equal(1))
	})

	It("returns resolutions in first-insertion key order", func() {
		batch := delta.NewBatch[StyleKey, ResolvedStyleValue](1)
		batch.Insert(7, ResolvedStyleValue{StyleHash: 0x10}, 0)
		batch.Insert(2, ResolvedStyleValue{StyleHash: 0x20}, 1)
		batch.Insert(5, ResolvedStyleValue{StyleHash: 0x30}, 2)
		v.ApplyDelta(batch)

		full := v.FullRecompute()
		Expect(full).To(HaveLen(3))
		Expect(full[0].Key).To(Equal(StyleKey(7)))
		Expect(full[1].Key).To(Equal(StyleKey(2)))
		Expect(full[2].Key).To(Equal(StyleKey(5)))
	})

	It("holds the equivalence law over random override sequences", func() {
		for _, src := range randomBatches(7, 40, 12, 24) {
			batch := delta.NewBatch[StyleKey, ResolvedStyleValue](src.Epoch())
			for _, e := range src.Entries() {
				switch entry := e.(type) {
				case delta.Insert[uint32, int64]:
					batch.Insert(StyleKey(entry.Key()),
						ResolvedStyleValue{StyleHash: uint64(entry.Value())}, entry.LogicalTime())
				case delta.Delete[uint32, int64]:
					batch.Delete(StyleKey(entry.Key()), entry.LogicalTime())
				}
			}
			v.ApplyDelta(batch)
			checkEquivalence[StyleKey, ResolvedStyleValue](v)
		}
	})
})
