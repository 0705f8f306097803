package contractor_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"github.com/frahmantamala/crm-backoffice/internal"
	"github.com/frahmantamala/crm-backoffice/internal/auth"
	"github.com/frahmantamala/crm-backoffice/internal/contractor"
	cityDatamodel "github.com/frahmantamala/crm-backoffice/internal/core/datamodel/city"
	contractorDatamodel "github.com/frahmantamala/crm-backoffice/internal/core/datamodel/contractor"
	"github.com/frahmantamala/crm-backoffice/internal/core/events"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Suggestion Workflow", func() {
	var (
		ctx       context.Context
		e         *env
		manager   *internal.User
		suggester *internal.User
		c         *contractorDatamodel.Contractor
	)

	nameChange := func(name string) contractor.CreateSuggestionDTO {
		raw, err := json.Marshal(name)
		Expect(err).NotTo(HaveOccurred())
		return contractor.CreateSuggestionDTO{Changes: contractor.ChangeSet{
			contractor.FieldChange{Field: "name", Value: raw},
		}}
	}

	BeforeEach(func() {
		ctx = context.Background()
		e = newEnv()
		manager = e.user("manager", auth.PermEditOwnClient)
		suggester = e.user("suggester", auth.PermSuggestEdits)
		c = e.contractor("Alpha", manager, nil, false)
	})

	Describe("create", func() {
		It("needs SUGGEST_EDITS or ADMIN", func() {
			plain := e.user("plain")
			_, err := e.service.CreateSuggestion(ctx, plain, c.ID, nameChange("Beta"))
			Expect(errors.Is(err, internal.ErrForbidden)).To(BeTrue())

			admin := e.user("admin", auth.PermAdmin)
			sug, err := e.service.CreateSuggestion(ctx, admin, c.ID, nameChange("Beta"))
			Expect(err).NotTo(HaveOccurred())
			Expect(sug.IsPending()).To(BeTrue())
		})

		It("rejects an empty change set", func() {
			_, err := e.service.CreateSuggestion(ctx, suggester, c.ID, contractor.CreateSuggestionDTO{})
			Expect(errors.Is(err, contractor.ErrEmptyChangeSet)).To(BeTrue())
		})

		It("rejects changes to fields that are not editable", func() {
			_, err := e.service.CreateSuggestion(ctx, suggester, c.ID, contractor.CreateSuggestionDTO{Changes: contractor.ChangeSet{
				contractor.FieldChange{Field: "is_hidden", Value: json.RawMessage("true")},
			}})
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(internal.ErrorTypeValidation))
		})

		It("answers 404 for a missing contractor", func() {
			_, err := e.service.CreateSuggestion(ctx, suggester, 999, nameChange("Beta"))
			Expect(errors.Is(err, contractor.ErrContractorNotFound)).To(BeTrue())
		})

		It("does not apply anything to the contractor", func() {
			_, err := e.service.CreateSuggestion(ctx, suggester, c.ID, nameChange("Beta"))
			Expect(err).NotTo(HaveOccurred())
			Expect(e.reload(c.ID).Name).To(Equal("Alpha"))
			Expect(e.publisher.types()).To(Equal([]string{events.SuggestionCreatedEvent}))
		})
	})

	Describe("approve", func() {
		It("applies the diff once and stays idempotent", func() {
			sug, err := e.service.CreateSuggestion(ctx, suggester, c.ID, nameChange("Beta"))
			Expect(err).NotTo(HaveOccurred())

			approved, err := e.service.Approve(ctx, manager, sug.ID, contractor.ReviewDTO{Comment: "ok"})
			Expect(err).NotTo(HaveOccurred())
			Expect(approved.Status).To(Equal(contractor.SuggestionApproved))
			Expect(approved.ReviewerID).To(HaveValue(Equal(manager.ID)))
			Expect(approved.ReviewedAt).NotTo(BeNil())

			row := e.reload(c.ID)
			Expect(row.Name).To(Equal("Beta"))
			Expect(row.Version).To(Equal(int64(2)))

			By("approving again")
			again, err := e.service.Approve(ctx, manager, sug.ID, contractor.ReviewDTO{Comment: "twice"})
			Expect(err).NotTo(HaveOccurred())
			Expect(again.Status).To(Equal(contractor.SuggestionApproved))
			Expect(again.ReviewComment).To(Equal("ok"))
			Expect(e.reload(c.ID).Version).To(Equal(int64(2)))

			By("rejecting after approval")
			_, err = e.service.Reject(ctx, manager, sug.ID, contractor.ReviewDTO{})
			Expect(errors.Is(err, contractor.ErrAlreadyReviewed)).To(BeTrue())
		})

		It("needs the edit policy on the contractor", func() {
			sug, err := e.service.CreateSuggestion(ctx, suggester, c.ID, nameChange("Beta"))
			Expect(err).NotTo(HaveOccurred())

			stranger := e.user("stranger", auth.PermEditOwnClient)
			_, err = e.service.Approve(ctx, stranger, sug.ID, contractor.ReviewDTO{})
			Expect(errors.Is(err, internal.ErrForbidden)).To(BeTrue())

			stored, err := e.service.GetSuggestion(ctx, suggester, sug.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.IsPending()).To(BeTrue())
		})

		It("publishes staged files and removes the ones marked for removal", func() {
			live, err := e.service.RegisterFile(ctx, manager, c.ID, contractor.RegisterFileDTO{Name: "old.pdf", SizeBytes: 10})
			Expect(err).NotTo(HaveOccurred())
			Expect(live.Staged).To(BeFalse())

			staged, err := e.service.RegisterFile(ctx, suggester, c.ID, contractor.RegisterFileDTO{Name: "new.pdf", SizeBytes: 20})
			Expect(err).NotTo(HaveOccurred())
			Expect(staged.Staged).To(BeTrue())
			Expect(staged.StorageKey).To(HavePrefix("contractors/" + itoa(c.ID) + "/"))
			Expect(staged.StorageKey).To(HaveSuffix("/new.pdf"))

			files, err := e.service.ListFiles(ctx, manager, c.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(files).To(HaveLen(1))

			sug, err := e.service.CreateSuggestion(ctx, suggester, c.ID, contractor.CreateSuggestionDTO{Changes: contractor.ChangeSet{
				contractor.FileAddition{FileIDs: []int64{staged.ID}},
				contractor.FileRemoval{FileIDs: []int64{live.ID}},
			}})
			Expect(err).NotTo(HaveOccurred())

			_, err = e.service.Approve(ctx, manager, sug.ID, contractor.ReviewDTO{})
			Expect(err).NotTo(HaveOccurred())

			files, err = e.service.ListFiles(ctx, manager, c.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(files).To(HaveLen(1))
			Expect(files[0].ID).To(Equal(staged.ID))
			Expect(files[0].Staged).To(BeFalse())
		})

		It("only links the author's own staged files", func() {
			other := e.user("other", auth.PermSuggestEdits)
			staged, err := e.service.RegisterFile(ctx, other, c.ID, contractor.RegisterFileDTO{Name: "x.pdf"})
			Expect(err).NotTo(HaveOccurred())

			_, err = e.service.CreateSuggestion(ctx, suggester, c.ID, contractor.CreateSuggestionDTO{Changes: contractor.ChangeSet{
				contractor.FileAddition{FileIDs: []int64{staged.ID}},
			}})
			Expect(errors.Is(err, contractor.ErrInvalidStagedFiles)).To(BeTrue())

			var n int64
			Expect(e.db.Model(&contractorDatamodel.ContractorSuggestion{}).Count(&n).Error).To(Succeed())
			Expect(n).To(BeZero())
		})

		It("keeps the suggestion pending when the diff no longer applies", func() {
			city := &cityDatamodel.City{Name: "Omsk"}
			Expect(e.db.Create(city).Error).To(Succeed())

			raw, _ := json.Marshal(city.ID)
			sug, err := e.service.CreateSuggestion(ctx, suggester, c.ID, contractor.CreateSuggestionDTO{Changes: contractor.ChangeSet{
				contractor.FieldChange{Field: "primary_city_id", Value: raw},
			}})
			Expect(err).NotTo(HaveOccurred())

			Expect(e.db.Delete(&cityDatamodel.City{}, city.ID).Error).To(Succeed())

			_, err = e.service.Approve(ctx, manager, sug.ID, contractor.ReviewDTO{})
			Expect(errors.Is(err, internal.ErrInvalidReference)).To(BeTrue())

			stored, err := e.service.GetSuggestion(ctx, manager, sug.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.IsPending()).To(BeTrue())
			Expect(e.reload(c.ID).PrimaryCityID).To(BeNil())
			Expect(e.reload(c.ID).Version).To(Equal(int64(1)))
		})
	})

	Describe("reject", func() {
		It("leaves the contractor alone and drops staged files", func() {
			staged, err := e.service.RegisterFile(ctx, suggester, c.ID, contractor.RegisterFileDTO{Name: "new.pdf"})
			Expect(err).NotTo(HaveOccurred())

			raw, _ := json.Marshal("Beta")
			sug, err := e.service.CreateSuggestion(ctx, suggester, c.ID, contractor.CreateSuggestionDTO{Changes: contractor.ChangeSet{
				contractor.FieldChange{Field: "name", Value: raw},
				contractor.FileAddition{FileIDs: []int64{staged.ID}},
			}})
			Expect(err).NotTo(HaveOccurred())

			rejected, err := e.service.Reject(ctx, manager, sug.ID, contractor.ReviewDTO{Comment: "no"})
			Expect(err).NotTo(HaveOccurred())
			Expect(rejected.Status).To(Equal(contractor.SuggestionRejected))
			Expect(e.reload(c.ID).Name).To(Equal("Alpha"))

			var n int64
			Expect(e.db.Model(&contractorDatamodel.ContractorFile{}).Where("id = ?", staged.ID).Count(&n).Error).To(Succeed())
			Expect(n).To(BeZero())

			By("rejecting again is a no-op, approving is a conflict")
			again, err := e.service.Reject(ctx, manager, sug.ID, contractor.ReviewDTO{})
			Expect(err).NotTo(HaveOccurred())
			Expect(again.ReviewComment).To(Equal("no"))

			_, err = e.service.Approve(ctx, manager, sug.ID, contractor.ReviewDTO{})
			Expect(errors.Is(err, contractor.ErrAlreadyReviewed)).To(BeTrue())
			Expect(e.reload(c.ID).Name).To(Equal("Alpha"))
		})
	})

	Describe("concurrent review", func() {
		It("settles on one outcome and applies the diff at most once", func() {
			sug, err := e.service.CreateSuggestion(ctx, suggester, c.ID, nameChange("Beta"))
			Expect(err).NotTo(HaveOccurred())

			const perSide = 8
			results := make([]error, 2*perSide)
			var wg sync.WaitGroup
			for i := 0; i < perSide; i++ {
				wg.Add(2)
				go func(i int) {
					defer wg.Done()
					_, results[i] = e.service.Approve(ctx, manager, sug.ID, contractor.ReviewDTO{})
				}(i)
				go func(i int) {
					defer wg.Done()
					_, results[perSide+i] = e.service.Reject(ctx, manager, sug.ID, contractor.ReviewDTO{})
				}(i)
			}
			wg.Wait()

			var succeeded int
			for _, err := range results {
				if err == nil {
					succeeded++
					continue
				}
				Expect(errors.Is(err, contractor.ErrAlreadyReviewed)).To(BeTrue(), err.Error())
			}
			Expect(succeeded).To(Equal(perSide))

			final, err := e.service.GetSuggestion(ctx, manager, sug.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(final.IsPending()).To(BeFalse())

			row := e.reload(c.ID)
			Expect(row.Version).To(BeNumerically("<=", 2))
			if final.Status == contractor.SuggestionApproved {
				Expect(results[:perSide]).To(HaveEach(BeNil()))
				Expect(row.Name).To(Equal("Beta"))
				Expect(row.Version).To(Equal(int64(2)))
			} else {
				Expect(results[perSide:]).To(HaveEach(BeNil()))
				Expect(row.Name).To(Equal("Alpha"))
				Expect(row.Version).To(Equal(int64(1)))
			}
		})
	})

	Describe("listing", func() {
		It("shows authors their own suggestions and reviewers what they may review", func() {
			_, err := e.service.CreateSuggestion(ctx, suggester, c.ID, nameChange("Beta"))
			Expect(err).NotTo(HaveOccurred())
			other := e.contractor("Other", nil, nil, false)
			_, err = e.service.CreateSuggestion(ctx, suggester, other.ID, nameChange("Zeta"))
			Expect(err).NotTo(HaveOccurred())

			mine, err := e.service.ListSuggestions(ctx, suggester, true, contractor.SuggestionFilter{})
			Expect(err).NotTo(HaveOccurred())
			Expect(mine).To(HaveLen(2))

			queue, err := e.service.ListSuggestions(ctx, manager, false, contractor.SuggestionFilter{Status: contractor.SuggestionPending})
			Expect(err).NotTo(HaveOccurred())
			Expect(queue).To(HaveLen(1))
			Expect(queue[0].ContractorID).To(Equal(c.ID))

			_, err = e.service.ListSuggestions(ctx, manager, false, contractor.SuggestionFilter{Status: "DONE"})
			Expect(err).To(HaveOccurred())
		})

		It("serves the review endpoints over HTTP", func() {
			sug, err := e.service.CreateSuggestion(ctx, suggester, c.ID, nameChange("Beta"))
			Expect(err).NotTo(HaveOccurred())

			w := e.do(manager, http.MethodGet, "/contractors/"+itoa(c.ID)+"/suggestions?status=pending", "")
			Expect(w.Code).To(Equal(http.StatusOK))
			var resp contractor.SuggestionsResponse
			Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
			Expect(resp.Suggestions).To(HaveLen(1))

			Expect(e.do(manager, http.MethodPost, "/suggestions/"+itoa(sug.ID)+"/approve", "").Code).To(Equal(http.StatusOK))
			Expect(e.do(manager, http.MethodPost, "/suggestions/"+itoa(sug.ID)+"/approve", `{"comment":"again"}`).Code).To(Equal(http.StatusOK))
			w = e.do(manager, http.MethodPost, "/suggestions/"+itoa(sug.ID)+"/reject", "")
			Expect(w.Code).To(Equal(http.StatusConflict))
			Expect(w.Body.String()).To(ContainSubstring("SUGGESTION_ALREADY_REVIEWED"))
		})
	})
})
