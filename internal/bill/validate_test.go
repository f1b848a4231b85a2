package bill

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("ValidateRequired", func() {
	var b *Bill

	BeforeEach(func() {
		b = &Bill{
			ClientName:         "JOSE SILVA",
			InstallationNumber: "3001658",
		}
	})

	It("accepts a bill with both required fields", func() {
		Expect(ValidateRequired(b)).To(Succeed())
	})

	It("rejects a missing client name", func() {
		b.ClientName = ""
		Expect(ValidateRequired(b)).To(MatchError(ContainSubstring("client_name")))
	})

	It("rejects a missing installation number", func() {
		b.InstallationNumber = ""
		Expect(ValidateRequired(b)).To(MatchError(ContainSubstring("installation_number")))
	})

	It("does not inspect optional fields", func() {
		b.ClientDocument = ""
		b.ReferenceMonth = ""
		b.DueDate = ""
		b.TotalAmount = 0
		Expect(ValidateRequired(b)).To(Succeed())
	})
})

var _ = Describe("ValidateStrict", func() {
	var b *Bill

	BeforeEach(func() {
		b = &Bill{
			ClientName:         "JOSE SILVA",
			ClientDocument:     "123.456.789-00",
			InstallationNumber: "3001658",
			TotalAmount:        325.00,
			ReferenceMonth:     "AGOSTO / 2025",
			DueDate:            "15/09/2025",
		}
	})

	It("accepts a fully populated bill", func() {
		Expect(ValidateStrict(b)).To(Succeed())
	})

	It("rejects a missing reference month", func() {
		b.ReferenceMonth = ""
		Expect(ValidateStrict(b)).To(MatchError(ContainSubstring("reference_month")))
	})

	It("rejects a missing due date", func() {
		b.DueDate = ""
		Expect(ValidateStrict(b)).To(MatchError(ContainSubstring("due_date")))
	})

	It("rejects a zero total", func() {
		b.TotalAmount = 0
		Expect(ValidateStrict(b)).To(MatchError(ContainSubstring("total_amount")))
	})

	It("rejects a short client document", func() {
		b.ClientDocument = "1234567890"
		Expect(ValidateStrict(b)).To(MatchError(ContainSubstring("client_document")))
	})

	It("rejects the unknown-document sentinel by length", func() {
		b.ClientDocument = SentinelUnknown
		Expect(ValidateStrict(b)).To(MatchError(ContainSubstring("client_document")))
	})

	It("rejects a short installation number", func() {
		b.InstallationNumber = "30016"
		Expect(ValidateStrict(b)).To(MatchError(ContainSubstring("installation_number")))
	})

	It("accepts the shortest valid installation number", func() {
		b.InstallationNumber = "300165"
		Expect(ValidateStrict(b)).To(Succeed())
	})
})
