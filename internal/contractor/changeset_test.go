package contractor_test

import (
	"encoding/json"
	"errors"

	"github.com/frahmantamala/crm-backoffice/internal/contractor"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("ChangeSet", func() {
	It("encodes every change with its kind", func() {
		cs := contractor.ChangeSet{
			contractor.FieldChange{Field: "name", Value: json.RawMessage(`"Beta"`)},
			contractor.FileAddition{FileIDs: []int64{3}},
			contractor.FileRemoval{FileIDs: []int64{1, 2}},
		}
		raw, err := json.Marshal(cs)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(raw)).To(MatchJSON(`[
			{"kind":"field","field":"name","value":"Beta"},
			{"kind":"file_addition","file_ids":[3]},
			{"kind":"file_removal","file_ids":[1,2]}
		]`))

		var decoded contractor.ChangeSet
		Expect(json.Unmarshal(raw, &decoded)).To(Succeed())
		Expect(decoded.FileAdditions()).To(Equal([]int64{3}))
		Expect(decoded.FileRemovals()).To(Equal([]int64{1, 2}))
	})

	It("rejects unknown kinds and mixed shapes", func() {
		var cs contractor.ChangeSet
		Expect(json.Unmarshal([]byte(`[{"kind":"rename","field":"name"}]`), &cs)).NotTo(Succeed())
		Expect(json.Unmarshal([]byte(`[{"kind":"file_addition","field":"name","file_ids":[1]}]`), &cs)).NotTo(Succeed())
		Expect(json.Unmarshal([]byte(`[{"kind":"field"}]`), &cs)).NotTo(Succeed())
	})

	It("keeps an explicit null as a change", func() {
		var cs contractor.ChangeSet
		Expect(json.Unmarshal([]byte(`[{"kind":"field","field":"manager_id","value":null}]`), &cs)).To(Succeed())

		patch, err := cs.Validate()
		Expect(err).NotTo(HaveOccurred())
		Expect(patch.ManagerID.Set).To(BeTrue())
		Expect(patch.ManagerID.Value).To(BeNil())
		Expect(patch.Columns()).To(HaveKey("manager_id"))
	})

	It("validates field values like a direct edit", func() {
		_, err := contractor.ChangeSet{
			contractor.FieldChange{Field: "name", Value: json.RawMessage(`""`)},
		}.Validate()
		Expect(err).To(HaveOccurred())

		_, err = contractor.ChangeSet{
			contractor.FieldChange{Field: "version", Value: json.RawMessage(`7`)},
		}.Validate()
		Expect(err).To(HaveOccurred())

		_, err = contractor.ChangeSet{}.Validate()
		Expect(errors.Is(err, contractor.ErrEmptyChangeSet)).To(BeTrue())

		_, err = contractor.ChangeSet{contractor.FileRemoval{}}.Validate()
		Expect(err).To(HaveOccurred())
	})

	It("round-trips a patch through its change set", func() {
		var patch contractor.ContractorPatch
		Expect(json.Unmarshal([]byte(`{"status":"DEBT","is_chain":false,"agreement_id":4}`), &patch)).To(Succeed())

		cs, err := patch.ChangeSet()
		Expect(err).NotTo(HaveOccurred())
		Expect(cs).To(HaveLen(3))

		back, err := cs.Patch()
		Expect(err).NotTo(HaveOccurred())
		Expect(back.Columns()).To(Equal(map[string]interface{}{
			"status":       "DEBT",
			"is_chain":     false,
			"agreement_id": back.AgreementID.Value,
		}))
		Expect(*back.AgreementID.Value).To(Equal(int64(4)))
		Expect(back.Name.Set).To(BeFalse())
	})
})
