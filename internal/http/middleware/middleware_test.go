package middleware_test

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/Aldiwildan77/repo-pulse-sub000/internal/http/middleware"
)

var _ = Describe("RequireAdminKey", func() {
	newRouter := func(key string) *gin.Engine {
		gin.SetMode(gin.TestMode)
		r := gin.New()
		r.GET("/admin", middleware.RequireAdminKey(key), func(c *gin.Context) {
			c.Status(http.StatusNoContent)
		})
		return r
	}

	call := func(r *gin.Engine, headers map[string]string) int {
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		for k, v := range headers {
			req.Header.Set(k, v)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	It("accepts the key in X-Admin-Key", func() {
		Expect(call(newRouter("k"), map[string]string{middleware.AdminKeyHeader: "k"})).To(Equal(http.StatusNoContent))
	})

	It("accepts the key as a bearer token", func() {
		Expect(call(newRouter("k"), map[string]string{"Authorization": "Bearer k"})).To(Equal(http.StatusNoContent))
	})

	It("rejects a missing or wrong key", func() {
		r := newRouter("k")
		Expect(call(r, nil)).To(Equal(http.StatusUnauthorized))
		Expect(call(r, map[string]string{middleware.AdminKeyHeader: "nope"})).To(Equal(http.StatusUnauthorized))
	})

	It("returns 503 when no key is configured", func() {
		Expect(call(newRouter(""), map[string]string{middleware.AdminKeyHeader: ""})).To(Equal(http.StatusServiceUnavailable))
	})
})

var _ = Describe("Recovery and Logger", func() {
	var (
		buf      *bytes.Buffer
		previous *slog.Logger
		router   *gin.Engine
	)

	BeforeEach(func() {
		previous = slog.Default()
		buf = &bytes.Buffer{}
		slog.SetDefault(slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelInfo})))
		DeferCleanup(func() { slog.SetDefault(previous) })

		gin.SetMode(gin.TestMode)
		router = gin.New()
		router.Use(middleware.Recovery(), middleware.Logger())
		router.GET("/panic", func(*gin.Context) { panic("kaboom") })
		router.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
		router.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	})

	serve := func(path string) int {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		return w.Code
	}

	It("turns a panic into a 500", func() {
		Expect(serve("/panic")).To(Equal(http.StatusInternalServerError))
		Expect(buf.String()).To(ContainSubstring("panic recovered"))
		Expect(buf.String()).To(ContainSubstring("kaboom"))
	})

	It("logs requests at info", func() {
		Expect(serve("/ok")).To(Equal(http.StatusOK))
		Expect(buf.String()).To(ContainSubstring("path=/ok"))
		Expect(buf.String()).To(ContainSubstring("status=200"))
	})

	It("keeps health checks out of the info log", func() {
		Expect(serve("/health")).To(Equal(http.StatusOK))
		Expect(buf.String()).NotTo(ContainSubstring("path=/health"))
	})
})
