package mapper_test

import (
	"net/http"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/Aldiwildan77/repo-pulse-sub000/internal/mapper"
	"github.com/Aldiwildan77/repo-pulse-sub000/internal/model"
)

func bitbucketHeaders(key string) http.Header {
	h := http.Header{}
	h.Set("X-Event-Key", key)
	return h
}

const bitbucketRepo = `"repository":{"full_name":"acme/web","links":{"html":{"href":"https://bitbucket.org/acme/web"}}},"actor":{"nickname":"alice"}`
const bitbucketPR = `"pullrequest":{"id":11,"title":"Refactor","links":{"html":{"href":"https://bitbucket.org/acme/web/pull-requests/11"}},"author":{"nickname":"alice"}}`

var _ = Describe("BitbucketEventMapper", func() {
	var m *mapper.BitbucketEventMapper

	BeforeEach(func() {
		m = mapper.NewBitbucketEventMapper()
	})

	It("maps pullrequest:created", func() {
		event, err := m.Map(bitbucketHeaders("pullrequest:created"), []byte(`{`+bitbucketRepo+`,`+bitbucketPR+`}`))
		Expect(err).NotTo(HaveOccurred())
		opened := event.(model.PullRequestOpened)
		Expect(opened.RepoKey).To(Equal("bitbucket:acme/web"))
		Expect(opened.EntityID()).To(Equal("11"))
		Expect(opened.Labels).To(BeEmpty())
	})

	It("maps fulfilled and rejected", func() {
		merged, err := m.Map(bitbucketHeaders("pullrequest:fulfilled"), []byte(`{`+bitbucketRepo+`,`+bitbucketPR+`}`))
		Expect(err).NotTo(HaveOccurred())
		Expect(merged.(model.PullRequestClosed).Merged).To(BeTrue())

		rejected, err := m.Map(bitbucketHeaders("pullrequest:rejected"), []byte(`{`+bitbucketRepo+`,`+bitbucketPR+`}`))
		Expect(err).NotTo(HaveOccurred())
		Expect(rejected.(model.PullRequestClosed).Merged).To(BeFalse())
	})

	It("maps approvals and change requests", func() {
		approved, err := m.Map(bitbucketHeaders("pullrequest:approved"), []byte(`{`+bitbucketRepo+`,`+bitbucketPR+`}`))
		Expect(err).NotTo(HaveOccurred())
		Expect(approved.(model.PullRequestReviewed).State).To(Equal(model.ReviewApproved))

		changes, err := m.Map(bitbucketHeaders("pullrequest:changes_request_created"), []byte(`{`+bitbucketRepo+`,`+bitbucketPR+`}`))
		Expect(err).NotTo(HaveOccurred())
		Expect(changes.(model.PullRequestReviewed).State).To(Equal(model.ReviewChangesRequested))
	})

	It("maps pull request comments with mentions", func() {
		body := []byte(`{` + bitbucketRepo + `,` + bitbucketPR + `,"comment":{"content":{"raw":"@{bob} and @carol-d"},"user":{"nickname":"alice"}}}`)
		event, err := m.Map(bitbucketHeaders("pullrequest:comment_created"), body)
		Expect(err).NotTo(HaveOccurred())
		comment := event.(model.Comment)
		Expect(comment.Mentions).To(Equal([]string{"bob", "carol-d"}))
		Expect(comment.OnPullRequest).To(BeTrue())
	})

	It("keeps full account ids in braced mentions", func() {
		raw := `ping @{557058:0a1b2c3d-1111-2222-3333-444455556666} please, cc @dave`
		body := []byte(`{` + bitbucketRepo + `,` + bitbucketPR + `,"comment":{"content":{"raw":"` + raw + `"},"user":{"nickname":"alice"}}}`)
		event, err := m.Map(bitbucketHeaders("pullrequest:comment_created"), body)
		Expect(err).NotTo(HaveOccurred())
		Expect(event.(model.Comment).Mentions).To(Equal([]string{
			"557058:0a1b2c3d-1111-2222-3333-444455556666",
			"dave",
		}))
	})

	It("maps issue:updated to closed states only", func() {
		issue := `"issue":{"id":4,"title":"Bug"}`
		resolved, err := m.Map(bitbucketHeaders("issue:updated"), []byte(`{`+bitbucketRepo+`,`+issue+`,"changes":{"status":{"old":"open","new":"resolved"}}}`))
		Expect(err).NotTo(HaveOccurred())
		Expect(resolved.Kind()).To(Equal(model.EventIssueClosed))

		reopened, err := m.Map(bitbucketHeaders("issue:updated"), []byte(`{`+bitbucketRepo+`,`+issue+`,"changes":{"status":{"old":"resolved","new":"open"}}}`))
		Expect(err).NotTo(HaveOccurred())
		Expect(reopened.Kind()).To(Equal(model.EventIgnored))
	})

	It("ignores unknown event keys", func() {
		event, err := m.Map(bitbucketHeaders("repo:push"), []byte(`{`+bitbucketRepo+`}`))
		Expect(err).NotTo(HaveOccurred())
		Expect(event.Kind()).To(Equal(model.EventIgnored))
	})
})
