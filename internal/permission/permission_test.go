package permission_test

import (
	"github.com/frahmantamala/account-hub/internal/permission"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Permission List", func() {
	var base permission.List

	BeforeEach(func() {
		base = permission.List{
			{AppID: "A", Roles: []string{"viewer"}},
			{AppID: "B", Roles: []string{"admin", "editor"}},
		}
	})

	Describe("Grant", func() {
		It("appends the role to an existing entry", func() {
			out := base.Grant("A", "editor")
			Expect(out.Roles("A")).To(Equal([]string{"viewer", "editor"}))
		})

		It("creates an entry for an unknown app", func() {
			out := permission.List{}.Grant("A", "admin")
			Expect(out).To(Equal(permission.List{{AppID: "A", Roles: []string{"admin"}}}))
		})

		It("leaves the list unchanged when the role is held", func() {
			out := base.Grant("A", "viewer")
			Expect(out).To(Equal(base))
		})

		It("never mutates its input", func() {
			snapshot := base.Clone()
			_ = base.Grant("A", "editor")
			_ = base.Grant("C", "owner")
			Expect(base).To(Equal(snapshot))
		})
	})

	Describe("Replace", func() {
		It("swaps the old role for the new one", func() {
			out := base.Replace("A", "viewer", "admin")
			Expect(out.Roles("A")).To(Equal([]string{"admin"}))
		})

		It("appends the new role even when the old role is absent", func() {
			out := base.Replace("A", "owner", "admin")
			Expect(out.Roles("A")).To(Equal([]string{"viewer", "admin"}))
		})

		It("appends a duplicate when the new role is already held", func() {
			out := base.Replace("B", "viewer", "admin")
			Expect(out.Roles("B")).To(Equal([]string{"admin", "editor", "admin"}))
		})

		It("creates an entry for an unknown app", func() {
			out := base.Replace("C", "viewer", "owner")
			Expect(out).To(HaveLen(3))
			Expect(out.Roles("C")).To(Equal([]string{"owner"}))
		})

		It("removes only the first occurrence", func() {
			l := permission.List{{AppID: "A", Roles: []string{"x", "y", "x"}}}
			Expect(l.Replace("A", "x", "z").Roles("A")).To(Equal([]string{"y", "x", "z"}))
		})
	})

	Describe("Revoke", func() {
		It("drops the entry once its last role is removed", func() {
			out := base.Revoke("A", "viewer")
			Expect(out).To(Equal(permission.List{{AppID: "B", Roles: []string{"admin", "editor"}}}))
		})

		It("keeps the entry while roles remain", func() {
			out := base.Revoke("B", "admin")
			Expect(out.Roles("B")).To(Equal([]string{"editor"}))
		})

		It("is a no-op for unknown apps or roles", func() {
			Expect(base.Revoke("C", "viewer")).To(Equal(base))
			Expect(base.Revoke("A", "owner")).To(Equal(base))
		})

		It("undoes a grant of a role not previously held", func() {
			Expect(base.Grant("A", "editor").Revoke("A", "editor")).To(Equal(base))
			Expect(base.Grant("C", "owner").Revoke("C", "owner")).To(Equal(base))
		})
	})

	DescribeTable("keeps one entry per app",
		func(mutate func(permission.List) permission.List, wantApps []string) {
			out := mutate(base)

			apps := make([]string, 0, len(out))
			for _, e := range out {
				apps = append(apps, e.AppID)
			}
			Expect(out).To(HaveLen(len(wantApps)))
			Expect(apps).To(ConsistOf(wantApps))
		},
		Entry("grant on an existing app", func(l permission.List) permission.List { return l.Grant("A", "editor") }, []string{"A", "B"}),
		Entry("grant of a held role", func(l permission.List) permission.List { return l.Grant("B", "admin") }, []string{"A", "B"}),
		Entry("grant on a new app", func(l permission.List) permission.List { return l.Grant("C", "owner") }, []string{"A", "B", "C"}),
		Entry("repeated grants on a new app", func(l permission.List) permission.List {
			return l.Grant("C", "owner").Grant("C", "viewer")
		}, []string{"A", "B", "C"}),
		Entry("replace on an existing app", func(l permission.List) permission.List { return l.Replace("A", "viewer", "admin") }, []string{"A", "B"}),
		Entry("replace of an absent role", func(l permission.List) permission.List { return l.Replace("B", "owner", "viewer") }, []string{"A", "B"}),
		Entry("replace on a new app", func(l permission.List) permission.List { return l.Replace("C", "viewer", "owner") }, []string{"A", "B", "C"}),
		Entry("revoke keeping roles", func(l permission.List) permission.List { return l.Revoke("B", "admin") }, []string{"A", "B"}),
		Entry("revoke of the last role", func(l permission.List) permission.List { return l.Revoke("A", "viewer") }, []string{"B"}),
		Entry("revoke on a new app", func(l permission.List) permission.List { return l.Revoke("C", "viewer") }, []string{"A", "B"}),
	)

	It("never leaves an entry without roles", func() {
		l := base.Grant("C", "x").Replace("C", "x", "y").Revoke("C", "y").Revoke("B", "admin").Revoke("B", "editor")
		for _, e := range l {
			Expect(e.Roles).NotTo(BeEmpty())
		}
		Expect(l.Index("B")).To(Equal(-1))
	})

	It("clones a nil list to an empty one", func() {
		var l permission.List
		Expect(l.Clone()).NotTo(BeNil())
		Expect(l.Clone()).To(BeEmpty())
	})
})
