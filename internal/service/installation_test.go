package service_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/Aldiwildan77/repo-pulse-sub000/internal/model"
	"github.com/Aldiwildan77/repo-pulse-sub000/internal/service"
)

var _ = Describe("InstallationService", func() {
	var (
		ctx      context.Context
		stores   *mockStores
		txRunner *mockTxRunner
		svc      *service.InstallationService
		src      model.Source
	)

	BeforeEach(func() {
		ctx = context.Background()
		stores = newMockStores()
		txRunner = &mockTxRunner{stores: stores}
		svc = service.NewInstallationService(txRunner)
		src = model.Source{Provider: model.ProviderGitHub, Sender: "alice"}
	})

	It("records created installations inside a transaction", func() {
		err := svc.Handle(ctx, model.InstallationCreated{
			Source:         src,
			InstallationID: "7",
			Account:        "acme",
			Repositories:   []string{"github:acme/web", "github:acme/web", "github:acme/api"},
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(txRunner.calls).To(Equal(1))

		inst := stores.installations.installations["github:7"]
		Expect(inst.Account).To(Equal("acme"))
		Expect(inst.RepoKeys).To(Equal([]string{"github:acme/web", "github:acme/api"}))
		Expect(inst.ID).NotTo(BeZero())
	})

	It("applies repository changes to an existing installation", func() {
		stores.installations.installations["github:7"] = model.Installation{
			Provider:   model.ProviderGitHub,
			ExternalID: "7",
			RepoKeys:   []string{"github:acme/web", "github:acme/api"},
		}

		err := svc.Handle(ctx, model.InstallationReposChanged{
			Source:         src,
			InstallationID: "7",
			Added:          []string{"github:acme/docs"},
			Removed:        []string{"github:acme/api"},
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(stores.installations.installations["github:7"].RepoKeys).To(Equal([]string{"github:acme/web", "github:acme/docs"}))
	})

	It("creates an installation it has not seen when repositories change", func() {
		err := svc.Handle(ctx, model.InstallationReposChanged{
			Source:         src,
			InstallationID: "8",
			Added:          []string{"github:acme/web"},
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(stores.installations.installations["github:8"].RepoKeys).To(Equal([]string{"github:acme/web"}))
	})

	It("removes deleted installations and tolerates unknown ones", func() {
		stores.installations.installations["github:7"] = model.Installation{Provider: model.ProviderGitHub, ExternalID: "7"}

		Expect(svc.Handle(ctx, model.InstallationDeleted{Source: src, InstallationID: "7"})).To(Succeed())
		Expect(stores.installations.installations).NotTo(HaveKey("github:7"))

		Expect(svc.Handle(ctx, model.InstallationDeleted{Source: src, InstallationID: "7"})).To(Succeed())
	})

	It("rejects other events", func() {
		Expect(svc.Handle(ctx, model.IssueOpened{Source: src})).NotTo(Succeed())
	})
})
