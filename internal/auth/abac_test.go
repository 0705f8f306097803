package auth

import (
	"context"
	"errors"

	"github.com/frahmantamala/crm-backoffice/internal"
	"github.com/frahmantamala/crm-backoffice/pkg/logger"
	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
)

func ptr(v int64) *int64 { return &v }

var _ = ginkgo.Describe("ABACPolicy", func() {
	var policy *ABACPolicy

	ginkgo.BeforeEach(func() {
		policy = NewABACPolicy(logger.Discard())
	})

	user := func(id int64, perms ...string) *internal.User {
		return &internal.User{ID: id, Login: "u", Permissions: perms}
	}

	managedBy7 := Ownership{ContractorID: 1, ManagerID: ptr(7)}
	createdBy7 := Ownership{ContractorID: 2, CreatorID: ptr(7)}
	someoneElse := Ownership{ContractorID: 3, ManagerID: ptr(8), CreatorID: ptr(9)}
	orphan := Ownership{ContractorID: 4}

	ginkgo.DescribeTable("Allow",
		func(u *internal.User, action Action, own Ownership, expected bool) {
			gomega.Expect(policy.Allow(u, action, own)).To(gomega.Equal(expected))
		},
		ginkgo.Entry("admin edits anything", user(1, PermAdmin), ActionEdit, someoneElse, true),
		ginkgo.Entry("admin edits an orphan", user(1, PermAdmin), ActionEdit, orphan, true),
		ginkgo.Entry("ALL edits someone else's", user(1, PermEditAllClients), ActionEdit, someoneElse, true),
		ginkgo.Entry("OWN edits as manager", user(7, PermEditOwnClient), ActionEdit, managedBy7, true),
		ginkgo.Entry("OWN edits as creator", user(7, PermEditOwnClient), ActionEdit, createdBy7, true),
		ginkgo.Entry("OWN cannot edit someone else's", user(7, PermEditOwnClient), ActionEdit, someoneElse, false),
		ginkgo.Entry("OWN cannot edit an orphan", user(7, PermEditOwnClient), ActionEdit, orphan, false),
		ginkgo.Entry("ownership alone grants nothing", user(7), ActionEdit, managedBy7, false),
		ginkgo.Entry("wrong family does not leak", user(7, PermEditAllClients), ActionDelete, managedBy7, false),
		ginkgo.Entry("OWN delete as manager", user(7, PermDeleteOwnClient), ActionDelete, managedBy7, true),
		ginkgo.Entry("ALL hide", user(1, PermHideAllClients), ActionHide, someoneElse, true),
		ginkgo.Entry("OWN hide as creator", user(7, PermHideOwnClient), ActionHide, createdBy7, true),
		ginkgo.Entry("OWN view hidden as manager", user(7, PermViewHiddenOwnClient), ActionViewHidden, managedBy7, true),
		ginkgo.Entry("unknown action is denied", user(7, PermEditAllClients), Action("fly"), managedBy7, false),
		ginkgo.Entry("nil user is denied", (*internal.User)(nil), ActionEdit, managedBy7, false),
	)

	ginkgo.Describe("Authorize", func() {
		ginkgo.It("returns a forbidden error on denial", func() {
			err := policy.Authorize(context.Background(), user(7, PermEditOwnClient), ActionEdit, someoneElse)
			gomega.Expect(errors.Is(err, internal.ErrForbidden)).To(gomega.BeTrue())
		})

		ginkgo.It("returns nil when allowed", func() {
			err := policy.Authorize(context.Background(), user(7, PermEditOwnClient), ActionEdit, managedBy7)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
		})

		ginkgo.It("requires an authenticated user", func() {
			err := policy.Authorize(context.Background(), nil, ActionEdit, managedBy7)
			gomega.Expect(errors.Is(err, internal.ErrUnauthenticated)).To(gomega.BeTrue())
		})
	})

	ginkgo.Describe("CanView", func() {
		hidden := Ownership{ContractorID: 5, ManagerID: ptr(7), Hidden: true}

		ginkgo.It("shows visible records to everybody", func() {
			gomega.Expect(policy.CanView(user(42), someoneElse)).To(gomega.BeTrue())
		})

		ginkgo.It("hides hidden records without a view permission", func() {
			gomega.Expect(policy.CanView(user(7, PermEditAllClients), hidden)).To(gomega.BeFalse())
		})

		ginkgo.It("shows hidden records to their manager with the OWN permission", func() {
			gomega.Expect(policy.CanView(user(7, PermViewHiddenOwnClient), hidden)).To(gomega.BeTrue())
			gomega.Expect(policy.CanView(user(8, PermViewHiddenOwnClient), hidden)).To(gomega.BeFalse())
		})
	})

	ginkgo.DescribeTable("HiddenScopeFor",
		func(u *internal.User, expected HiddenScope) {
			gomega.Expect(policy.HiddenScopeFor(u)).To(gomega.Equal(expected))
		},
		ginkgo.Entry("admin", user(1, PermAdmin), HiddenAll),
		ginkgo.Entry("view all", user(1, PermViewHiddenAllClients), HiddenAll),
		ginkgo.Entry("view own", user(1, PermViewHiddenOwnClient), HiddenOwn),
		ginkgo.Entry("nothing", user(1, PermEditAllClients), HiddenNone),
		ginkgo.Entry("nil", (*internal.User)(nil), HiddenNone),
	)
})
