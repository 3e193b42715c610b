package http

import (
	"context"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/ektamehra-ue/uelogic/pkg/engine"
	"github.com/ektamehra-ue/uelogic/pkg/models"
)

//go:generate mockgen -source=restful_server.go -destination=mocks/restful_server.go -package=mocks

type Runner interface {
	Run(ctx context.Context, opts engine.RunOptions) (*engine.RunReport, error)
}

type RunLedger interface {
	Get(ctx context.Context, id string) (*models.Run, error)
	List(ctx context.Context, org string, limit int) ([]models.Run, error)
}

type RestfulServer struct {
	Server           *gin.Engine
	Engine           Runner
	Runs             RunLedger
	RateLimiterStore *RateLimiterStore

	// one run at a time, readings are shared across organizations
	running sync.Mutex
}

func (rs *RestfulServer) GetLimiter(org string) *rate.Limiter {
	if rs.RateLimiterStore == nil {
		return nil
	} else {
		return rs.RateLimiterStore.GetLimiter(org)
	}
}

// CheckOrgLimiter reports whether org may trigger a run now. Without a
// limiter store every request passes.
func (rs *RestfulServer) CheckOrgLimiter(org string) bool {
	if rs.RateLimiterStore == nil {
		return true
	}
	return rs.RateLimiterStore.Allow(org)
}

func (rs *RestfulServer) SetLimiter(org string, orgRate float64, orgBurst int) {
	if rs.RateLimiterStore == nil {
		return
	}
	rs.RateLimiterStore.SetLimiter(org, rate.Limit(orgRate), orgBurst)
}

func (rs *RestfulServer) Setup() {
	rs.Server.GET("/healthz", rs.HealthCheck)
	rs.Server.GET("/metrics", gin.WrapH(promhttp.Handler()))

	rs.Server.POST("/orgs/:org/limiter", rs.PostLimiter)

	runs := rs.Server.Group("/runs")
	{
		runs.POST("", rs.PostRun)
		runs.GET("", rs.ListRuns)
		runs.GET("/:run_id", rs.GetRun)
		runs.GET("/:run_id/export", rs.ExportRun)
	}
}
