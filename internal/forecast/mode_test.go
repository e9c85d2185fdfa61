package forecast

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("ParseMode", func() {
	DescribeTable("accepted spellings",
		func(value string, want Mode) {
			got, err := ParseMode(value)
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(Equal(want))
		},
		Entry("empty defaults to auto", "", ModeAuto),
		Entry("auto", "auto", ModeAuto),
		Entry("auto pilot label", "Auto-Pilot", ModeAuto),
		Entry("autopilot", "AUTOPILOT", ModeAuto),
		Entry("historical", " historical ", ModeAuto),
		Entry("manual", "manual", ModeManual),
		Entry("simulation label", "Simulation", ModeManual),
		Entry("simulate", "simulate", ModeManual),
	)

	It("rejects unknown values", func() {
		_, err := ParseMode("guess")
		Expect(err).To(MatchError(ErrUnknownMode))
	})

	Context("with custom aliases", func() {
		It("uses only the configured spellings", func() {
			aliases := ModeAliases{AutoValues: []string{"otomatis"}, ManualValues: []string{"simulasi"}}

			Expect(aliases.Parse("Simulasi")).To(Equal(ModeManual))
			Expect(aliases.Parse("otomatis")).To(Equal(ModeAuto))
			_, err := aliases.Parse("manual")
			Expect(err).To(MatchError(ErrUnknownMode))
		})
	})
})
