package common_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/atlaswatch/api/internal/api/common"
	"github.com/atlaswatch/api/pkg/config"
)

var _ = Describe("Candidates", func() {
	object := config.DefaultCatalog().Tracked()

	DescribeTable("should expand names of the tracked object",
		func(requested string) {
			Expect(common.Candidates(requested, object, object.MPCDesignations)).To(Equal(object.MPCDesignations))
		},
		Entry("short designation", "3I"),
		Entry("full name", "3I/ATLAS"),
		Entry("comet designation", "C/2025 N1"),
		Entry("different case", "c/2025 n1"),
		Entry("Horizons command form", "DES=3I;"),
	)

	It("should pass other names through unchanged", func() {
		Expect(common.Candidates("99942", object, object.HorizonsCandidates)).To(Equal([]string{"99942"}))
	})
})
