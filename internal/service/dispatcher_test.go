package service_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/Aldiwildan77/repo-pulse-sub000/internal/model"
	"github.com/Aldiwildan77/repo-pulse-sub000/internal/push"
)

var _ = Describe("Dispatcher", func() {
	var (
		ctx context.Context
		h   *harness
	)

	BeforeEach(func() {
		ctx = context.Background()
		h = newHarness()
	})

	Describe("end to end for acme/web #42", func() {
		BeforeEach(func() {
			h.stores.targets.targets = []model.NotificationTarget{
				target(1, model.PlatformDiscord, "t0"),
				target(2, model.PlatformDiscord, "t1", "backend"),
			}
		})

		It("sends and tracks the opening notification, then reacts on merge", func() {
			opened := model.PullRequestOpened{
				Source: acmeSource(),
				Entity: pr42(),
				Author: "alice",
				Labels: []string{"notify:backend"},
			}
			Expect(h.dispatcher.Dispatch(ctx, opened, "d-1")).To(Succeed())

			Expect(h.discord.openings).To(ConsistOf("t0", "t1"))
			Expect(h.stores.tracked.messages).To(HaveLen(2))
			for _, msg := range h.stores.tracked.messages {
				Expect(msg.EntityID).To(Equal("42"))
				Expect(msg.Status).To(Equal(model.MessageStatusOpen))
				Expect(msg.TargetID).NotTo(BeNil())
			}
			Expect(h.stores.logs.withStatus(model.LogStatusSent)).To(HaveLen(2))

			sendsBefore := h.discord.sends()
			closed := model.PullRequestClosed{Source: acmeSource(), Entity: pr42(), Merged: true}
			Expect(h.reconciler.Reconcile(ctx, closed, "d-2")).To(Succeed())

			Expect(h.discord.reactions).To(ConsistOf(
				reactionCall{ChannelID: "t0", MessageID: "t0-msg", Reaction: push.ReactionMerged},
				reactionCall{ChannelID: "t1", MessageID: "t1-msg", Reaction: push.ReactionMerged},
			))
			Expect(h.discord.sends()).To(Equal(sendsBefore))
			Expect(h.discord.removed).To(ConsistOf("t0-msg", "t1-msg"))
			for _, msg := range h.stores.tracked.messages {
				Expect(msg.Status).To(Equal(model.MessageStatusMerged))
			}
		})
	})

	It("skips targets with the event disabled", func() {
		h.stores.targets.targets = []model.NotificationTarget{target(1, model.PlatformDiscord, "t0")}
		h.stores.toggles.disable(1, model.EventPullRequestOpened)

		Expect(h.dispatcher.Dispatch(ctx, model.PullRequestOpened{Source: acmeSource(), Entity: pr42()}, "d-1")).To(Succeed())

		Expect(h.discord.openings).To(BeEmpty())
		skipped := h.stores.logs.withStatus(model.LogStatusSkipped)
		Expect(skipped).To(HaveLen(1))
		Expect(*skipped[0].TargetID).To(Equal(int64(1)))
	})

	It("records a failed send and continues with the next target", func() {
		h.stores.targets.targets = []model.NotificationTarget{
			target(1, model.PlatformDiscord, "t0"),
			target(2, model.PlatformSlack, "s0"),
		}
		h.discord.sendErrFor = map[string]error{"t0": errBoom}

		Expect(h.dispatcher.Dispatch(ctx, model.IssueOpened{Source: acmeSource(), Entity: pr42()}, "d-1")).To(Succeed())

		Expect(h.slack.openings).To(ConsistOf("s0"))
		failed := h.stores.logs.withStatus(model.LogStatusFailed)
		Expect(failed).To(HaveLen(1))
		Expect(*failed[0].ErrorMessage).To(Equal("boom"))
		Expect(h.stores.logs.withStatus(model.LogStatusSent)).To(HaveLen(1))
	})

	It("does not track issue openings", func() {
		h.stores.targets.targets = []model.NotificationTarget{target(1, model.PlatformDiscord, "t0")}
		Expect(h.dispatcher.Dispatch(ctx, model.IssueOpened{Source: acmeSource(), Entity: pr42()}, "d-1")).To(Succeed())
		Expect(h.discord.openings).To(HaveLen(1))
		Expect(h.stores.tracked.messages).To(BeEmpty())
	})

	It("logs targets on unregistered platforms as failed", func() {
		h = newHarness(newMockPusher(model.PlatformDiscord))
		h.stores.targets.targets = []model.NotificationTarget{target(1, model.PlatformSlack, "s0")}

		Expect(h.dispatcher.Dispatch(ctx, model.IssueOpened{Source: acmeSource(), Entity: pr42()}, "d-1")).To(Succeed())
		failed := h.stores.logs.withStatus(model.LogStatusFailed)
		Expect(failed).To(HaveLen(1))
		Expect(failed[0].Summary).To(ContainSubstring("not configured"))
	})

	It("sends label and issue status notifications", func() {
		h.stores.targets.targets = []model.NotificationTarget{target(1, model.PlatformSlack, "s0")}

		Expect(h.dispatcher.Dispatch(ctx, model.PullRequestLabelChanged{
			Source: acmeSource(), Entity: pr42(), Label: "bug", Action: model.LabelAdded,
		}, "d-1")).To(Succeed())
		Expect(h.dispatcher.Dispatch(ctx, model.IssueClosed{
			Source: acmeSource(), Entity: pr42(), ClosedBy: "bob",
		}, "d-2")).To(Succeed())

		Expect(h.slack.labels).To(HaveLen(1))
		Expect(h.slack.labels[0].Label).To(Equal("bug"))
		Expect(h.slack.statuses).To(HaveLen(1))
		Expect(h.slack.statuses[0].Actor).To(Equal("bob"))
	})

	Describe("mentions", func() {
		BeforeEach(func() {
			h.stores.targets.targets = []model.NotificationTarget{
				target(1, model.PlatformDiscord, "t0"),
				target(2, model.PlatformDiscord, "t1"),
				target(3, model.PlatformSlack, "s0"),
			}
			h.stores.userLinks.links = []model.UserLink{
				{Provider: model.ProviderGitHub, Username: "bob", Platform: model.PlatformDiscord, PlatformUserID: "d-bob"},
				{Provider: model.ProviderGitHub, Username: "bob", Platform: model.PlatformSlack, PlatformUserID: "U-BOB"},
			}
		})

		It("sends one DM per linked user and platform", func() {
			comment := model.Comment{
				Source:   acmeSource(),
				Entity:   pr42(),
				Author:   "alice",
				Body:     "@bob @carol have a look",
				Mentions: []string{"bob", "carol"},
			}
			Expect(h.dispatcher.Dispatch(ctx, comment, "d-1")).To(Succeed())

			Expect(h.discord.mentions).To(Equal([]string{"d-bob"}))
			Expect(h.slack.mentions).To(Equal([]string{"U-BOB"}))
			Expect(h.stores.logs.withStatus(model.LogStatusSent)).To(HaveLen(2))
			Expect(h.stores.logs.withStatus(model.LogStatusSkipped)).To(HaveLen(1))
		})

		It("skips when nobody mentioned is linked", func() {
			comment := model.Comment{Source: acmeSource(), Entity: pr42(), Mentions: []string{"carol"}}
			Expect(h.dispatcher.Dispatch(ctx, comment, "d-1")).To(Succeed())
			Expect(h.discord.mentions).To(BeEmpty())
			Expect(h.stores.logs.withStatus(model.LogStatusSkipped)).To(HaveLen(3))
		})
	})

	It("returns routing errors", func() {
		h.stores.targets.listErr = errBoom
		err := h.dispatcher.Dispatch(ctx, model.IssueOpened{Source: acmeSource(), Entity: pr42()}, "d-1")
		Expect(err).To(MatchError(ContainSubstring("boom")))
	})
})
