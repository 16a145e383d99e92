package middleware

import (
	"fmt"
	"net/http"
	"sort"

	"supplyhub/pkg/config"
	"supplyhub/pkg/response"

	sentinel "github.com/alibaba/sentinel-golang/api"
	"github.com/alibaba/sentinel-golang/core/base"
	"github.com/alibaba/sentinel-golang/core/flow"
	"github.com/gin-gonic/gin"
)

// 限流资源名称
const (
	ResLogin        = "auth_login"
	ResQuoteRequest = "quote_request"
	ResContactForm  = "contact_form"
)

// defaultThresholds apply to resources without a configured rule (QPS).
var defaultThresholds = map[string]float64{
	ResLogin:        5,
	ResQuoteRequest: 5,
	ResContactForm:  5,
}

// RateLimiter guards public write endpoints with sentinel flow rules. A
// disabled limiter passes every request through.
type RateLimiter struct {
	enabled bool
}

// NewRateLimiter 初始化 Sentinel 并加载流控规则
func NewRateLimiter(cfg config.SentinelConfig) (*RateLimiter, error) {
	if !cfg.Enabled {
		return &RateLimiter{}, nil
	}
	if err := sentinel.InitDefault(); err != nil {
		return nil, fmt.Errorf("init sentinel: %w", err)
	}
	if _, err := flow.LoadRules(flowRules(cfg.Rules)); err != nil {
		return nil, fmt.Errorf("load sentinel rules: %w", err)
	}
	return &RateLimiter{enabled: true}, nil
}

// flowRules merges configured thresholds over the defaults.
func flowRules(configured []config.RateRule) []*flow.Rule {
	thresholds := make(map[string]float64, len(defaultThresholds))
	for res, t := range defaultThresholds {
		thresholds[res] = t
	}
	for _, r := range configured {
		thresholds[r.Resource] = r.Threshold
	}
	rules := make([]*flow.Rule, 0, len(thresholds))
	for _, res := range sortedKeys(thresholds) {
		rules = append(rules, &flow.Rule{
			Resource:               res,
			TokenCalculateStrategy: flow.Direct,
			ControlBehavior:        flow.Reject,
			Threshold:              thresholds[res],
			StatIntervalInMs:       1000,
		})
	}
	return rules
}

func (l *RateLimiter) Limit(resource string) gin.HandlerFunc {
	if l == nil || !l.enabled {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		e, b := sentinel.Entry(resource, sentinel.WithTrafficType(base.Inbound))
		if b != nil {
			response.Error(c, http.StatusTooManyRequests, "too many requests, try again later")
			c.Abort()
			return
		}
		defer e.Exit()
		c.Next()
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
