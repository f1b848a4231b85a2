package bill

import (
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type stubIDGenerator struct {
	ids  []string
	next int
}

func (g *stubIDGenerator) Generate() string {
	id := g.ids[g.next]
	g.next++
	return id
}

type stubTimeSource struct {
	now time.Time
}

func (t *stubTimeSource) Now() time.Time {
	return t.now
}

var _ = Describe("BoltDB", func() {
	var (
		tmpDir  string
		dbPath  string
		db      *BoltDB
		idGen   *stubIDGenerator
		timeSrc *stubTimeSource
	)

	BeforeEach(func() {
		tmpDir = GinkgoT().TempDir()
		dbPath = filepath.Join(tmpDir, "test.db")
		idGen = &stubIDGenerator{ids: []string{"id-1", "id-2"}}
		timeSrc = &stubTimeSource{now: time.Date(2025, 9, 1, 12, 0, 0, 0, time.UTC)}
		var err error
		db, err = NewBoltDBWithDeps(dbPath, idGen, timeSrc)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		if db != nil {
			db.Close()
		}
	})

	newBill := func() *Bill {
		return &Bill{
			ClientName:         "JOSE SILVA",
			ClientDocument:     "123.456.789-00",
			ClientEmail:        "jose.silva@example.com",
			InstallationNumber: "3001658",
			TotalAmount:        325.00,
			ReferenceMonth:     "AGOSTO / 2025",
			DueDate:            "15/09/2025",
			PDFPath:            "/blobs/abc.pdf",
		}
	}

	Describe("Insert", func() {
		var (
			inserted *Bill
			err      error
		)

		JustBeforeEach(func() {
			inserted, err = db.Insert(newBill())
		})

		It("should not return an error", func() {
			Expect(err).NotTo(HaveOccurred())
		})

		It("should assign an ID", func() {
			Expect(inserted.ID).To(Equal("id-1"))
		})

		It("should set both timestamps", func() {
			Expect(inserted.CreatedAt).To(Equal(timeSrc.now))
			Expect(inserted.UpdatedAt).To(Equal(timeSrc.now))
		})

		It("should be retrievable by installation number", func() {
			found, findErr := db.FindByInstallation("3001658")
			Expect(findErr).NotTo(HaveOccurred())
			Expect(found.ID).To(Equal("id-1"))
			Expect(found.ClientName).To(Equal("JOSE SILVA"))
			Expect(found.TotalAmount).To(Equal(325.00))
		})
	})

	Describe("FindByInstallation", func() {
		When("no bill exists for the installation", func() {
			It("should return ErrNotFound", func() {
				_, err := db.FindByInstallation("9999999")
				Expect(err).To(MatchError(ErrNotFound))
			})
		})
	})

	Describe("Update", func() {
		var (
			existing *Bill
			fields   *Bill
			updated  *Bill
			err      error
		)

		BeforeEach(func() {
			var insertErr error
			existing, insertErr = db.Insert(newBill())
			Expect(insertErr).NotTo(HaveOccurred())

			_, markErr := db.MarkPaid("3001658")
			Expect(markErr).NotTo(HaveOccurred())
			existing, markErr = db.FindByInstallation("3001658")
			Expect(markErr).NotTo(HaveOccurred())

			timeSrc.now = timeSrc.now.Add(24 * time.Hour)
			fields = newBill()
			fields.TotalAmount = 412.80
			fields.ReferenceMonth = "SETEMBRO / 2025"
		})

		JustBeforeEach(func() {
			updated, err = db.Update(existing, fields)
		})

		It("should not return an error", func() {
			Expect(err).NotTo(HaveOccurred())
		})

		It("should keep the identity and creation timestamp", func() {
			Expect(updated.ID).To(Equal("id-1"))
			Expect(updated.CreatedAt).To(Equal(existing.CreatedAt))
		})

		It("should keep the paid status", func() {
			Expect(updated.Paid).To(BeTrue())
		})

		It("should overwrite the extracted values", func() {
			Expect(updated.TotalAmount).To(Equal(412.80))
			Expect(updated.ReferenceMonth).To(Equal("SETEMBRO / 2025"))
		})

		It("should bump the last-modified timestamp", func() {
			Expect(updated.UpdatedAt).To(Equal(timeSrc.now))
		})

		It("should persist the merged record", func() {
			found, findErr := db.FindByInstallation("3001658")
			Expect(findErr).NotTo(HaveOccurred())
			Expect(found.TotalAmount).To(Equal(412.80))
			Expect(found.Paid).To(BeTrue())
		})

		When("the new extraction is missing optional fields", func() {
			BeforeEach(func() {
				fields.ClientDocument = SentinelUnknown
				fields.ReferenceMonth = SentinelUnknown
				fields.DueDate = ""
				fields.ClientEmail = ""
			})

			It("should keep the previously known values", func() {
				Expect(updated.ClientDocument).To(Equal("123.456.789-00"))
				Expect(updated.ReferenceMonth).To(Equal("AGOSTO / 2025"))
				Expect(updated.DueDate).To(Equal("15/09/2025"))
				Expect(updated.ClientEmail).To(Equal("jose.silva@example.com"))
			})
		})
	})

	Describe("ListBills", func() {
		When("the store is empty", func() {
			It("should return an empty slice", func() {
				bills, err := db.ListBills()
				Expect(err).NotTo(HaveOccurred())
				Expect(bills).To(BeEmpty())
			})
		})

		When("bills exist", func() {
			BeforeEach(func() {
				_, err := db.Insert(newBill())
				Expect(err).NotTo(HaveOccurred())

				other := newBill()
				other.InstallationNumber = "3001659"
				other.ClientName = "MARIA SOUZA"
				_, err = db.Insert(other)
				Expect(err).NotTo(HaveOccurred())
			})

			It("should return all of them", func() {
				bills, err := db.ListBills()
				Expect(err).NotTo(HaveOccurred())
				Expect(bills).To(HaveLen(2))
			})
		})
	})

	Describe("MarkPaid", func() {
		When("the bill exists", func() {
			BeforeEach(func() {
				_, err := db.Insert(newBill())
				Expect(err).NotTo(HaveOccurred())
			})

			It("should flag it as paid", func() {
				bl, err := db.MarkPaid("3001658")
				Expect(err).NotTo(HaveOccurred())
				Expect(bl.Paid).To(BeTrue())

				found, findErr := db.FindByInstallation("3001658")
				Expect(findErr).NotTo(HaveOccurred())
				Expect(found.Paid).To(BeTrue())
			})
		})

		When("the bill does not exist", func() {
			It("should return ErrNotFound", func() {
				_, err := db.MarkPaid("9999999")
				Expect(err).To(MatchError(ErrNotFound))
			})
		})
	})
})
