package auth

import (
	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
)

var _ = ginkgo.Describe("HasPermission", func() {
	ginkgo.DescribeTable("evaluates grants",
		func(held []string, required []string, expected bool) {
			gomega.Expect(HasPermission(held, required...)).To(gomega.Equal(expected))
		},
		ginkgo.Entry("admin passes any check", []string{PermAdmin}, []string{PermEditCities}, true),
		ginkgo.Entry("admin passes an empty requirement", []string{PermAdmin}, []string{}, true),
		ginkgo.Entry("admin passes an unknown name", []string{PermAdmin}, []string{"NO_SUCH_PERMISSION"}, true),
		ginkgo.Entry("exact match", []string{PermEditCities}, []string{PermEditCities}, true),
		ginkgo.Entry("any of several", []string{PermEditOwnClient}, []string{PermEditAllClients, PermEditOwnClient}, true),
		ginkgo.Entry("none held", []string{}, []string{PermEditCities}, false),
		ginkgo.Entry("nil held", nil, []string{PermEditCities}, false),
		ginkgo.Entry("empty requirement without admin", []string{PermEditCities}, []string{}, false),
		ginkgo.Entry("unknown name never matches", []string{PermEditCities}, []string{"NO_SUCH_PERMISSION"}, false),
		ginkgo.Entry("names are case sensitive", []string{"edit_cities"}, []string{PermEditCities}, false),
	)

	ginkgo.It("is monotone in the held set", func() {
		base := []string{PermSuggestEdits}
		gomega.Expect(HasPermission(base, PermSuggestEdits)).To(gomega.BeTrue())
		gomega.Expect(HasPermission(append(base, PermEditAddons), PermSuggestEdits)).To(gomega.BeTrue())
	})

	ginkgo.It("exposes convenience checks", func() {
		gomega.Expect(IsAdmin([]string{PermAdmin})).To(gomega.BeTrue())
		gomega.Expect(IsAdmin([]string{PermEditAllClients})).To(gomega.BeFalse())
		gomega.Expect(CanSuggest([]string{PermSuggestEdits})).To(gomega.BeTrue())
		gomega.Expect(CanSuggest([]string{PermAdmin})).To(gomega.BeTrue())
		gomega.Expect(CanSuggest([]string{PermEditOwnClient})).To(gomega.BeFalse())
	})
})

var _ = ginkgo.Describe("permission catalogue", func() {
	ginkgo.It("knows every permission constant", func() {
		for _, p := range []string{
			PermAdmin, PermCreateClient, PermEditAllClients, PermEditOwnClient,
			PermDeleteAllClients, PermDeleteOwnClient, PermHideAllClients, PermHideOwnClient,
			PermViewHiddenAllClients, PermViewHiddenOwnClient, PermSuggestEdits,
			PermEditAddons, PermEditCities, PermEditAgreements,
		} {
			gomega.Expect(IsKnownPermission(p)).To(gomega.BeTrue(), p)
		}
		gomega.Expect(Catalogue()).To(gomega.HaveLen(14))
	})

	ginkgo.It("reports unknown names", func() {
		gomega.Expect(UnknownPermissions([]string{PermAdmin, "FLY", "SWIM"})).To(gomega.Equal([]string{"FLY", "SWIM"}))
		gomega.Expect(UnknownPermissions([]string{PermAdmin})).To(gomega.BeEmpty())
	})
})
