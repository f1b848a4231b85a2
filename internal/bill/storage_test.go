package bill

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Fingerprint", func() {
	It("is deterministic for identical bytes", func() {
		Expect(Fingerprint([]byte("%PDF-1.4 conteudo"))).To(Equal(Fingerprint([]byte("%PDF-1.4 conteudo"))))
	})

	It("differs for different bytes", func() {
		Expect(Fingerprint([]byte("fatura agosto"))).NotTo(Equal(Fingerprint([]byte("fatura setembro"))))
	})

	It("produces a 32 character hex digest", func() {
		Expect(Fingerprint([]byte("x"))).To(HaveLen(32))
		Expect(Fingerprint([]byte("x"))).To(MatchRegexp(`^[0-9a-f]+$`))
	})
})

var _ = Describe("BlobName", func() {
	It("joins the fingerprint and extension", func() {
		Expect(BlobName("d41d8cd98f00b204e9800998ecf8427e", "pdf")).To(Equal("d41d8cd98f00b204e9800998ecf8427e.pdf"))
	})
})

var _ = Describe("LocalStorage", func() {
	var (
		tmpDir  string
		storage *LocalStorage
	)

	BeforeEach(func() {
		tmpDir = GinkgoT().TempDir()
		var err error
		storage, err = NewLocalStorage(filepath.Join(tmpDir, "blobs"))
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("Save", func() {
		It("writes the blob and returns its path", func() {
			path, err := storage.Save("abc.pdf", []byte("%PDF-data"))
			Expect(err).NotTo(HaveOccurred())
			Expect(path).To(Equal(filepath.Join(tmpDir, "blobs", "abc.pdf")))

			data, readErr := os.ReadFile(path)
			Expect(readErr).NotTo(HaveOccurred())
			Expect(data).To(Equal([]byte("%PDF-data")))
		})
	})

	Describe("Exists", func() {
		It("reports false before a save and true after", func() {
			Expect(storage.Exists("abc.pdf")).To(BeFalse())

			_, err := storage.Save("abc.pdf", []byte("%PDF-data"))
			Expect(err).NotTo(HaveOccurred())

			Expect(storage.Exists("abc.pdf")).To(BeTrue())
		})
	})

	Describe("Get", func() {
		When("the blob exists", func() {
			BeforeEach(func() {
				_, err := storage.Save("abc.pdf", []byte("%PDF-data"))
				Expect(err).NotTo(HaveOccurred())
			})

			It("returns the stored bytes", func() {
				data, err := storage.Get("abc.pdf")
				Expect(err).NotTo(HaveOccurred())
				Expect(data).To(Equal([]byte("%PDF-data")))
			})
		})

		When("the blob does not exist", func() {
			It("returns an error", func() {
				_, err := storage.Get("missing.pdf")
				Expect(err).To(HaveOccurred())
			})
		})
	})
})
