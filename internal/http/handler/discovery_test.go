package handler_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/Aldiwildan77/repo-pulse-sub000/internal/http/handler"
	"github.com/Aldiwildan77/repo-pulse-sub000/internal/model"
	"github.com/Aldiwildan77/repo-pulse-sub000/internal/push"
)

var _ = Describe("DiscoveryHandler", func() {
	var (
		router  *gin.Engine
		discord *discoveringPusher
	)

	BeforeEach(func() {
		gin.SetMode(gin.TestMode)
		router = gin.New()
		discord = &discoveringPusher{
			plainPusher: plainPusher{platform: model.PlatformDiscord},
			guilds:      []push.Guild{{ID: "g1", Name: "Acme"}},
			channels: map[string][]push.Channel{
				"g1": {{ID: "c1", Name: "pull-requests"}},
			},
		}
		slackLike := &plainPusher{platform: model.PlatformSlack}

		h := handler.NewDiscoveryHandler(push.NewRegistry(discord, slackLike))
		router.GET("/platforms", h.ListPlatforms)
		router.GET("/platforms/:platform/guilds", h.ListGuilds)
		router.GET("/platforms/:platform/channels", h.ListChannels)
	})

	get := func(path string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		return w
	}

	It("lists registered platforms", func() {
		w := get("/platforms")

		Expect(w.Code).To(Equal(http.StatusOK))
		var body struct {
			Platforms []string `json:"platforms"`
		}
		Expect(json.Unmarshal(w.Body.Bytes(), &body)).To(Succeed())
		Expect(body.Platforms).To(Equal([]string{"discord", "slack"}))
	})

	It("lists guilds", func() {
		w := get("/platforms/discord/guilds")

		Expect(w.Code).To(Equal(http.StatusOK))
		var body struct {
			Guilds []push.Guild `json:"guilds"`
		}
		Expect(json.Unmarshal(w.Body.Bytes(), &body)).To(Succeed())
		Expect(body.Guilds).To(ConsistOf(push.Guild{ID: "g1", Name: "Acme"}))
	})

	It("lists channels for a scope", func() {
		w := get("/platforms/discord/channels?scope_id=g1")

		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(discord.lastScope).To(Equal("g1"))
		var body struct {
			Channels []push.Channel `json:"channels"`
		}
		Expect(json.Unmarshal(w.Body.Bytes(), &body)).To(Succeed())
		Expect(body.Channels).To(ConsistOf(push.Channel{ID: "c1", Name: "pull-requests"}))
	})

	It("requires a scope for channels", func() {
		Expect(get("/platforms/discord/channels").Code).To(Equal(http.StatusBadRequest))
	})

	It("returns 404 for an unregistered platform", func() {
		Expect(get("/platforms/teams/guilds").Code).To(Equal(http.StatusNotFound))
	})

	It("returns 501 when the platform cannot list destinations", func() {
		Expect(get("/platforms/slack/guilds").Code).To(Equal(http.StatusNotImplemented))
	})

	It("returns 502 when the platform call fails", func() {
		discord.err = errors.New("upstream down")

		Expect(get("/platforms/discord/guilds").Code).To(Equal(http.StatusBadGateway))
		Expect(get("/platforms/discord/channels?scope_id=g1").Code).To(Equal(http.StatusBadGateway))
	})
})
