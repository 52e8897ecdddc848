package catalog_test

import (
	"fmt"
	"sync/atomic"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	liberr "github.com/sabouaram/p2ptracker/errors"
	"github.com/sabouaram/p2ptracker/internal/catalog"
)

var dsnCounter int64

func newStore() *catalog.Store {
	n := atomic.AddInt64(&dsnCounter, 1)
	dsn := fmt.Sprintf("file:catalog_test_%d?mode=memory&cache=shared", n)

	s, err := catalog.Open(dsn)
	Expect(err).To(BeNil())

	return s
}

var _ = Describe("Store", func() {
	var store *catalog.Store

	BeforeEach(func() {
		store = newStore()
	})

	AfterEach(func() {
		_ = store.Close()
	})

	It("starts empty (invariant I3)", func() {
		n, err := store.Count()
		Expect(err).To(BeNil())
		Expect(n).To(BeZero())
	})

	It("inserts a new announcement successfully", func() {
		err := store.Insert("song.mp3", "abc123", 4096, "10.0.0.1:9000")
		Expect(err).To(BeNil())

		n, _ := store.Count()
		Expect(n).To(Equal(int64(1)))
	})

	It("rejects a duplicate (file, hash, peer) with ErrorDuplicateKey (invariant I1)", func() {
		Expect(store.Insert("song.mp3", "abc123", 4096, "10.0.0.1:9000")).To(BeNil())

		err := store.Insert("song.mp3", "abc123", 4096, "10.0.0.1:9000")
		Expect(err).ToNot(BeNil())
		Expect(err.IsCode(catalog.ErrorDuplicateKey)).To(BeTrue())

		n, _ := store.Count()
		Expect(n).To(Equal(int64(1)))
	})

	It("allows the same (file, hash) from two different peers", func() {
		Expect(store.Insert("song.mp3", "abc123", 4096, "10.0.0.1:9000")).To(BeNil())
		Expect(store.Insert("song.mp3", "abc123", 4096, "10.0.0.2:9000")).To(BeNil())

		n, _ := store.Count()
		Expect(n).To(Equal(int64(2)))
	})

	It("DeleteOne on a non-existent row is not an error", func() {
		err := store.DeleteOne("missing.bin", "nope", "10.0.0.1:9000")
		Expect(err).To(BeNil())
	})

	It("DeleteOne removes exactly the matching row", func() {
		Expect(store.Insert("a.bin", "h1", 1, "p1")).To(BeNil())
		Expect(store.Insert("a.bin", "h2", 1, "p1")).To(BeNil())

		Expect(store.DeleteOne("a.bin", "h1", "p1")).To(BeNil())

		files, err := store.ListPeersFor("a.bin")
		Expect(err).To(BeNil())
		Expect(files).To(HaveLen(1))
	})

	It("DeleteForPeer removes every row for that peer and none other (invariant I2)", func() {
		Expect(store.Insert("a.bin", "h1", 1, "p1")).To(BeNil())
		Expect(store.Insert("b.bin", "h2", 2, "p1")).To(BeNil())
		Expect(store.Insert("a.bin", "h3", 1, "p2")).To(BeNil())

		Expect(store.DeleteForPeer("p1")).To(BeNil())

		peers, err := store.ListPeersFor("a.bin")
		Expect(err).To(BeNil())
		Expect(peers).To(Equal([]catalog.PeerEntry{{Peer: "p2", Size: 1}}))

		n, _ := store.Count()
		Expect(n).To(Equal(int64(1)))
	})

	It("round-trips: ADD then DELETE returns to the pre-ADD state", func() {
		n0, _ := store.Count()

		Expect(store.Insert("r.bin", "h", 1, "p1")).To(BeNil())
		Expect(store.DeleteOne("r.bin", "h", "p1")).To(BeNil())

		n1, _ := store.Count()
		Expect(n1).To(Equal(n0))
	})

	It("ListFiles returns distinct files sorted ascending", func() {
		Expect(store.Insert("z.bin", "h1", 1, "p1")).To(BeNil())
		Expect(store.Insert("a.bin", "h2", 2, "p1")).To(BeNil())
		Expect(store.Insert("a.bin", "h3", 2, "p2")).To(BeNil())

		files, err := store.ListFiles()
		Expect(err).To(BeNil())
		Expect(files).To(HaveLen(2))
		Expect(files[0].File).To(Equal("a.bin"))
		Expect(files[1].File).To(Equal("z.bin"))
	})

	It("ListPeersFor is sorted ascending by peer and aggregates across peers", func() {
		Expect(store.Insert("report.pdf", "deadbeef", 1000, "peer2")).To(BeNil())
		Expect(store.Insert("report.pdf", "cafef00d", 1000, "peer1")).To(BeNil())

		peers, err := store.ListPeersFor("report.pdf")
		Expect(err).To(BeNil())
		Expect(peers).To(Equal([]catalog.PeerEntry{
			{Peer: "peer1", Size: 1000},
			{Peer: "peer2", Size: 1000},
		}))
	})

	It("ListPeersFor on an unknown file returns zero rows, not an error", func() {
		peers, err := store.ListPeersFor("nope.bin")
		Expect(err).To(BeNil())
		Expect(peers).To(BeEmpty())
	})

	It("Truncate clears every announcement", func() {
		Expect(store.Insert("a.bin", "h", 1, "p1")).To(BeNil())
		Expect(store.Truncate()).To(BeNil())

		n, _ := store.Count()
		Expect(n).To(BeZero())
	})

	It("reports errors through the liberr.Error CodeError taxonomy", func() {
		var e liberr.Error = catalog.ErrorDuplicateKey.Error(nil)
		Expect(e.IsCode(catalog.ErrorDuplicateKey)).To(BeTrue())
		Expect(e.IsCode(catalog.ErrorInsert)).To(BeFalse())
	})
})
