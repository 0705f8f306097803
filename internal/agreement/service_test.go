package agreement_test

import (
	"context"
	"errors"
	"testing"

	"github.com/frahmantamala/crm-backoffice/internal"
	"github.com/frahmantamala/crm-backoffice/internal/agreement"
	agreementPostgres "github.com/frahmantamala/crm-backoffice/internal/agreement/postgres"
	"github.com/frahmantamala/crm-backoffice/internal/core/database/sqlitetest"
	contractorDatamodel "github.com/frahmantamala/crm-backoffice/internal/core/datamodel/contractor"
	"github.com/frahmantamala/crm-backoffice/internal/core/events"
	"github.com/frahmantamala/crm-backoffice/pkg/logger"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"
)

func TestAgreement(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Agreement Suite")
}

type recordingPublisher struct {
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.events = append(p.events, e)
	return nil
}

var _ = Describe("Agreement Service", func() {
	var (
		ctx       context.Context
		db        *gorm.DB
		service   *agreement.Service
		publisher *recordingPublisher
	)

	BeforeEach(func() {
		var err error
		ctx = context.Background()
		db, err = sqlitetest.Open()
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(sqlitetest.Close, db)

		publisher = &recordingPublisher{}
		service = agreement.NewService(agreementPostgres.NewAgreementRepository(db), publisher, logger.Discard())
	})

	It("creates, updates and lists agreements", func() {
		a, err := service.Create(ctx, agreement.AgreementDTO{Name: "Standard", Description: "12 months"})
		Expect(err).NotTo(HaveOccurred())
		Expect(a.ID).To(BeNumerically(">", 0))

		updated, err := service.Update(ctx, a.ID, agreement.AgreementDTO{Name: "Standard v2"})
		Expect(err).NotTo(HaveOccurred())
		Expect(updated.Name).To(Equal("Standard v2"))
		Expect(updated.Description).To(BeEmpty())

		list, err := service.List(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(list).To(HaveLen(1))
	})

	It("reports duplicate names as a conflict", func() {
		_, err := service.Create(ctx, agreement.AgreementDTO{Name: "Standard"})
		Expect(err).NotTo(HaveOccurred())

		_, err = service.Create(ctx, agreement.AgreementDTO{Name: "Standard"})
		Expect(errors.Is(err, internal.ErrDuplicateName)).To(BeTrue())
	})

	It("returns not found for unknown agreements", func() {
		_, err := service.Update(ctx, 404, agreement.AgreementDTO{Name: "X"})
		Expect(errors.Is(err, agreement.ErrAgreementNotFound)).To(BeTrue())

		_, err = service.Delete(ctx, 1, 404, false)
		Expect(errors.Is(err, agreement.ErrAgreementNotFound)).To(BeTrue())
	})

	Context("when contractors reference the agreement", func() {
		var (
			a  *agreement.Agreement
			c1 *contractorDatamodel.Contractor
			c2 *contractorDatamodel.Contractor
		)

		BeforeEach(func() {
			var err error
			a, err = service.Create(ctx, agreement.AgreementDTO{Name: "Standard"})
			Expect(err).NotTo(HaveOccurred())

			c1 = &contractorDatamodel.Contractor{Name: "Alpha", TaxID: "1", Status: "ACTIVE", AgreementID: &a.ID, Version: 1}
			c2 = &contractorDatamodel.Contractor{Name: "Beta", TaxID: "2", Status: "ACTIVE", AgreementID: &a.ID, Version: 1}
			Expect(db.Create(c1).Error).To(Succeed())
			Expect(db.Create(c2).Error).To(Succeed())
		})

		It("refuses a plain delete and keeps the references", func() {
			_, err := service.Delete(ctx, 1, a.ID, false)

			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeReferenceInUse))
			Expect(appErr.StatusCode).To(Equal(400))

			var reloaded contractorDatamodel.Contractor
			Expect(db.First(&reloaded, c1.ID).Error).To(Succeed())
			Expect(reloaded.AgreementID).To(HaveValue(Equal(a.ID)))
			Expect(reloaded.Version).To(Equal(int64(1)))
			Expect(publisher.events).To(BeEmpty())
		})

		It("clears the references on a forced delete", func() {
			resp, err := service.Delete(ctx, 1, a.ID, true)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.ClearedReferences).To(Equal(int64(2)))

			var reloaded contractorDatamodel.Contractor
			Expect(db.First(&reloaded, c2.ID).Error).To(Succeed())
			Expect(reloaded.AgreementID).To(BeNil())
			Expect(reloaded.Version).To(Equal(int64(2)))

			list, err := service.List(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(list).To(BeEmpty())

			Expect(publisher.events).To(HaveLen(1))
			Expect(publisher.events[0].EventType()).To(Equal(events.ReferenceForceDeletedEvent))
		})
	})
})
