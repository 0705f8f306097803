package contractor_test

import (
	"encoding/json"
	"net/http"

	"github.com/frahmantamala/crm-backoffice/internal"
	"github.com/frahmantamala/crm-backoffice/internal/auth"
	"github.com/frahmantamala/crm-backoffice/internal/contractor"
	cityDatamodel "github.com/frahmantamala/crm-backoffice/internal/core/datamodel/city"
	contractorDatamodel "github.com/frahmantamala/crm-backoffice/internal/core/datamodel/contractor"
	"github.com/frahmantamala/crm-backoffice/internal/core/events"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Contractor Handler", func() {
	var (
		e       *env
		manager *internal.User
		creator *internal.User
		c       *contractorDatamodel.Contractor
	)

	BeforeEach(func() {
		e = newEnv()
		manager = e.user("manager", auth.PermEditOwnClient)
		creator = e.user("creator")
		c = e.contractor("Alpha", manager, creator, false)
	})

	Describe("PUT /contractors/{id}", func() {
		It("denies, applies or files a suggestion depending on who asks", func() {
			outsider := e.user("outsider", auth.PermEditOwnClient)

			By("a non-owner with EDIT_OWN_CLIENT")
			w := e.do(outsider, http.MethodPut, "/contractors/"+itoa(c.ID), `{"name":"Beta"}`)
			Expect(w.Code).To(Equal(http.StatusForbidden))
			Expect(e.reload(c.ID).Name).To(Equal("Alpha"))

			By("the manager with the same permission")
			w = e.do(manager, http.MethodPut, "/contractors/"+itoa(c.ID), `{"name":"Beta"}`)
			Expect(w.Code).To(Equal(http.StatusOK))
			var updated contractor.Contractor
			Expect(json.NewDecoder(w.Body).Decode(&updated)).To(Succeed())
			Expect(updated.Name).To(Equal("Beta"))
			Expect(updated.Version).To(Equal(int64(2)))
			Expect(e.reload(c.ID).Name).To(Equal("Beta"))

			By("the non-owner holding SUGGEST_EDITS instead")
			outsider.Permissions = []string{auth.PermSuggestEdits}
			w = e.do(outsider, http.MethodPut, "/contractors/"+itoa(c.ID), `{"name":"Gamma"}`)
			Expect(w.Code).To(Equal(http.StatusCreated))
			var sug contractor.Suggestion
			Expect(json.NewDecoder(w.Body).Decode(&sug)).To(Succeed())
			Expect(sug.Status).To(Equal(contractor.SuggestionPending))
			Expect(sug.ContractorID).To(Equal(c.ID))
			Expect(sug.Changes).To(HaveLen(1))
			fc, ok := sug.Changes[0].(contractor.FieldChange)
			Expect(ok).To(BeTrue())
			Expect(fc.Field).To(Equal("name"))
			Expect(string(fc.Value)).To(Equal(`"Gamma"`))
			Expect(e.reload(c.ID).Name).To(Equal("Beta"))
		})

		It("lets the creator edit through EDIT_OWN_CLIENT", func() {
			creator.Permissions = []string{auth.PermEditOwnClient}
			w := e.do(creator, http.MethodPut, "/contractors/"+itoa(c.ID), `{"notes":"call on monday"}`)
			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(e.reload(c.ID).Notes).To(Equal("call on monday"))
		})

		It("rejects a stale version with 409", func() {
			w := e.do(manager, http.MethodPut, "/contractors/"+itoa(c.ID), `{"name":"Beta","version":1}`)
			Expect(w.Code).To(Equal(http.StatusOK))

			w = e.do(manager, http.MethodPut, "/contractors/"+itoa(c.ID), `{"name":"Gamma","version":1}`)
			Expect(w.Code).To(Equal(http.StatusConflict))
			Expect(w.Body.String()).To(ContainSubstring("VERSION_CONFLICT"))
			Expect(e.reload(c.ID).Name).To(Equal("Beta"))
		})

		It("clears a reference with an explicit null", func() {
			city := &cityDatamodel.City{Name: "Omsk"}
			Expect(e.db.Create(city).Error).To(Succeed())

			w := e.do(manager, http.MethodPut, "/contractors/"+itoa(c.ID), `{"primary_city_id":`+itoa(city.ID)+`}`)
			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(e.reload(c.ID).PrimaryCityID).To(HaveValue(Equal(city.ID)))

			w = e.do(manager, http.MethodPut, "/contractors/"+itoa(c.ID), `{"primary_city_id":null}`)
			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(e.reload(c.ID).PrimaryCityID).To(BeNil())
		})

		It("rejects unknown references, statuses and fields", func() {
			Expect(e.do(manager, http.MethodPut, "/contractors/"+itoa(c.ID), `{"primary_city_id":999}`).Code).
				To(Equal(http.StatusBadRequest))
			Expect(e.do(manager, http.MethodPut, "/contractors/"+itoa(c.ID), `{"status":"BANKRUPT"}`).Code).
				To(Equal(http.StatusBadRequest))
			Expect(e.do(manager, http.MethodPut, "/contractors/"+itoa(c.ID), `{"is_hidden":true}`).Code).
				To(Equal(http.StatusBadRequest))
			Expect(e.reload(c.ID).Version).To(Equal(int64(1)))
		})

		It("publishes an update event", func() {
			e.do(manager, http.MethodPut, "/contractors/"+itoa(c.ID), `{"name":"Beta"}`)
			Expect(e.publisher.types()).To(ContainElement(events.ContractorUpdatedEvent))
		})
	})

	Describe("visibility", func() {
		It("keeps hide rights separate from edit rights", func() {
			w := e.do(manager, http.MethodPatch, "/contractors/"+itoa(c.ID)+"/visibility", `{"hidden":true}`)
			Expect(w.Code).To(Equal(http.StatusForbidden))

			manager.Permissions = []string{auth.PermHideOwnClient}
			w = e.do(manager, http.MethodPatch, "/contractors/"+itoa(c.ID)+"/visibility", `{"hidden":true}`)
			Expect(w.Code).To(Equal(http.StatusOK))

			row := e.reload(c.ID)
			Expect(row.IsHidden).To(BeTrue())
			Expect(row.Version).To(Equal(int64(1)))
		})

		It("answers 404 for hidden contractors the caller may not see", func() {
			hidden := e.contractor("Secret", manager, nil, true)
			viewer := e.user("viewer")

			Expect(e.do(viewer, http.MethodGet, "/contractors/"+itoa(hidden.ID), "").Code).To(Equal(http.StatusNotFound))

			manager.Permissions = []string{auth.PermViewHiddenOwnClient}
			Expect(e.do(manager, http.MethodGet, "/contractors/"+itoa(hidden.ID), "").Code).To(Equal(http.StatusOK))

			viewer.Permissions = []string{auth.PermViewHiddenAllClients}
			Expect(e.do(viewer, http.MethodGet, "/contractors/"+itoa(hidden.ID), "").Code).To(Equal(http.StatusOK))
		})
	})

	Describe("GET /contractors", func() {
		It("includes hidden contractors per the view-hidden scope", func() {
			e.contractor("Hidden Mine", manager, nil, true)
			e.contractor("Hidden Other", nil, creator, true)
			viewer := e.user("viewer")

			list := func(u *internal.User) []string {
				w := e.do(u, http.MethodGet, "/contractors", "")
				Expect(w.Code).To(Equal(http.StatusOK))
				var resp contractor.ContractorsResponse
				Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
				names := make([]string, 0, len(resp.Contractors))
				for _, item := range resp.Contractors {
					names = append(names, item.Name)
				}
				return names
			}

			Expect(list(viewer)).To(Equal([]string{"Alpha"}))

			manager.Permissions = []string{auth.PermViewHiddenOwnClient}
			Expect(list(manager)).To(Equal([]string{"Alpha", "Hidden Mine"}))

			viewer.Permissions = []string{auth.PermViewHiddenAllClients}
			Expect(list(viewer)).To(Equal([]string{"Alpha", "Hidden Mine", "Hidden Other"}))
		})

		It("filters by status and name", func() {
			e.contractor("Bravo Foods", manager, nil, false)
			w := e.do(creator, http.MethodGet, "/contractors?q=bravo&status=active", "")
			Expect(w.Code).To(Equal(http.StatusOK))

			var resp contractor.ContractorsResponse
			Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
			Expect(resp.Total).To(Equal(int64(1)))
			Expect(resp.Contractors[0].Name).To(Equal("Bravo Foods"))
		})
	})

	Describe("POST /contractors", func() {
		It("needs CREATE_CLIENT and records the creator", func() {
			Expect(e.do(manager, http.MethodPost, "/contractors", `{"name":"New","tax_id":"42"}`).Code).
				To(Equal(http.StatusForbidden))

			author := e.user("author", auth.PermCreateClient)
			w := e.do(author, http.MethodPost, "/contractors", `{"name":"New","tax_id":"42"}`)
			Expect(w.Code).To(Equal(http.StatusCreated))

			var created contractor.Contractor
			Expect(json.NewDecoder(w.Body).Decode(&created)).To(Succeed())
			Expect(created.CreatorID).To(HaveValue(Equal(author.ID)))
			Expect(created.Status).To(Equal(contractor.StatusNoContract))
			Expect(created.Version).To(Equal(int64(1)))
		})

		It("requires a name and a tax id", func() {
			author := e.user("author", auth.PermCreateClient)
			w := e.do(author, http.MethodPost, "/contractors", `{"name":" "}`)
			Expect(w.Code).To(Equal(http.StatusBadRequest))
			Expect(w.Body.String()).To(ContainSubstring("tax_id"))
		})
	})

	Describe("DELETE /contractors/{id}", func() {
		It("follows the delete policy and removes dependent rows", func() {
			Expect(e.do(manager, http.MethodDelete, "/contractors/"+itoa(c.ID), "").Code).To(Equal(http.StatusForbidden))

			Expect(e.db.Create(&contractorDatamodel.ContractorFile{
				ContractorID: c.ID, Name: "a.pdf", StorageKey: "contractors/1/x/a.pdf",
			}).Error).To(Succeed())

			manager.Permissions = []string{auth.PermDeleteOwnClient}
			Expect(e.do(manager, http.MethodDelete, "/contractors/"+itoa(c.ID), "").Code).To(Equal(http.StatusNoContent))

			var n int64
			Expect(e.db.Model(&contractorDatamodel.Contractor{}).Where("id = ?", c.ID).Count(&n).Error).To(Succeed())
			Expect(n).To(BeZero())
			Expect(e.db.Model(&contractorDatamodel.ContractorFile{}).Where("contractor_id = ?", c.ID).Count(&n).Error).To(Succeed())
			Expect(n).To(BeZero())
		})
	})
})
