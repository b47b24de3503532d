package server_test

import (
	"os"
	"path/filepath"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/atlaswatch/api/pkg/server"
)

var _ = Describe("GetOrCreateInstanceID", func() {
	It("should create and then reuse a persisted ID", func() {
		path := filepath.Join(GinkgoT().TempDir(), "state", "instance-id")

		first, err := server.GetOrCreateInstanceID(path)
		Expect(err).ToNot(HaveOccurred())
		_, err = uuid.Parse(first)
		Expect(err).ToNot(HaveOccurred())

		second, err := server.GetOrCreateInstanceID(path)
		Expect(err).ToNot(HaveOccurred())
		Expect(second).To(Equal(first))
	})

	It("should replace a malformed ID", func() {
		path := filepath.Join(GinkgoT().TempDir(), "instance-id")
		Expect(os.WriteFile(path, []byte("not-a-uuid"), 0644)).To(Succeed())

		id, err := server.GetOrCreateInstanceID(path)

		Expect(err).ToNot(HaveOccurred())
		Expect(id).ToNot(Equal("not-a-uuid"))
	})

	It("should generate a fresh ID without a path", func() {
		first, err := server.GetOrCreateInstanceID("")
		Expect(err).ToNot(HaveOccurred())
		second, err := server.GetOrCreateInstanceID("")
		Expect(err).ToNot(HaveOccurred())

		Expect(first).ToNot(Equal(second))
	})
})
