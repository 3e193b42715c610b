package http

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	z "github.com/Oudwins/zog"
	"github.com/Oudwins/zog/zhttp"

	"github.com/ektamehra-ue/uelogic/pkg/common"
	"github.com/ektamehra-ue/uelogic/pkg/engine"
	"github.com/ektamehra-ue/uelogic/pkg/metrics"
	"github.com/ektamehra-ue/uelogic/pkg/report"
	"github.com/ektamehra-ue/uelogic/pkg/store"
)

const defaultListLimit = 50

var contentTypes = map[string]string{
	report.FormatXLSX: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	report.FormatPDF:  "application/pdf",
}

// RunResponse is a run report with its window and totals spelled out.
type RunResponse struct {
	*engine.RunReport
	Since  *time.Time    `json:"since,omitempty"`
	Until  *time.Time    `json:"until,omitempty"`
	Totals engine.Totals `json:"totals"`
}

func newRunResponse(r *engine.RunReport) RunResponse {
	return RunResponse{
		RunReport: r,
		Since:     r.Window.Since,
		Until:     r.Window.Until,
		Totals:    r.Totals(),
	}
}

type RunRequest struct {
	Org    string `json:"org"`
	Site   string `json:"site"`
	Since  string `json:"since"`
	Until  string `json:"until"`
	DryRun bool   `json:"dry_run" zog:"dry_run"`
}

var runRequestSchema = z.Struct(z.Shape{
	"Org":    z.String().Min(1).Required(),
	"Site":   z.String(),
	"Since":  z.String(),
	"Until":  z.String(),
	"DryRun": z.Bool(),
})

func parseBound(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil, err
	}
	t = t.UTC()
	return &t, nil
}

func (req *RunRequest) options() (engine.RunOptions, error) {
	opts := engine.RunOptions{
		Scope:  engine.Scope{OrgName: req.Org, SiteName: req.Site},
		DryRun: req.DryRun,
	}
	var err error
	if opts.Since, err = parseBound(req.Since); err != nil {
		return opts, fmt.Errorf("since: %w", err)
	}
	if opts.Until, err = parseBound(req.Until); err != nil {
		return opts, fmt.Errorf("until: %w", err)
	}
	return opts, nil
}

func (rs *RestfulServer) PostRun(c *gin.Context) {
	logger := common.GetLoggerWith(common.LoggerNameRestfulServer)

	status := http.StatusOK
	defer func() { metrics.IncRunTrigger(strconv.Itoa(status)) }()

	var req RunRequest
	if err := runRequestSchema.Parse(zhttp.Request(c.Request), &req); err != nil {
		status = http.StatusBadRequest
		c.JSON(status, gin.H{"error": err})
		return
	}

	if !rs.CheckOrgLimiter(req.Org) {
		status = http.StatusTooManyRequests
		c.Status(status)
		return
	}

	opts, err := req.options()
	if err != nil {
		status = http.StatusBadRequest
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	if !rs.running.TryLock() {
		status = http.StatusConflict
		c.JSON(status, gin.H{"error": "a run is already in progress"})
		return
	}
	defer rs.running.Unlock()

	r, err := rs.Engine.Run(c.Request.Context(), opts)
	if err != nil {
		status = http.StatusInternalServerError
		if errors.Is(err, engine.ErrConfiguration) {
			status = http.StatusUnprocessableEntity
		}
		logger.Warn("Run failed", zap.String("org", req.Org), zap.Int("status", status), zap.Error(err))
		body := gin.H{"error": err.Error()}
		if r != nil {
			body["report"] = newRunResponse(r)
		}
		c.JSON(status, body)
		return
	}

	c.JSON(status, newRunResponse(r))
}

func (rs *RestfulServer) ListRuns(c *gin.Context) {
	limit := defaultListLimit
	if value := c.Query("limit"); value != "" {
		n, err := strconv.Atoi(value)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}

	runs, err := rs.Runs.List(c.Request.Context(), c.Query("org"), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	out := make([]RunResponse, 0, len(runs))
	for i := range runs {
		r, err := store.Report(&runs[i])
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		out = append(out, newRunResponse(r))
	}
	c.JSON(http.StatusOK, out)
}

// loadRun answers the request itself when the run cannot be loaded.
func (rs *RestfulServer) loadRun(c *gin.Context) (*engine.RunReport, bool) {
	run, err := rs.Runs.Get(c.Request.Context(), c.Param("run_id"))
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, store.ErrNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return nil, false
	}

	r, err := store.Report(run)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return nil, false
	}
	return r, true
}

func (rs *RestfulServer) GetRun(c *gin.Context) {
	r, ok := rs.loadRun(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, newRunResponse(r))
}

func (rs *RestfulServer) ExportRun(c *gin.Context) {
	format := c.DefaultQuery("format", report.FormatXLSX)
	contentType, ok := contentTypes[format]
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("unknown format %q", format)})
		return
	}

	r, ok := rs.loadRun(c)
	if !ok {
		return
	}

	data, err := report.Build(r, format)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=run-%s.%s", r.RunID, format))
	c.Data(http.StatusOK, contentType, data)
}

type LimiterRequest struct {
	Rate  float64 `json:"rate"`
	Burst int     `json:"burst"`
}

var limiterRequestSchema = z.Struct(z.Shape{
	"rate":  z.Float64().Required(),
	"burst": z.Int().Required(),
})

func (rs *RestfulServer) PostLimiter(c *gin.Context) {
	org := c.Param("org")

	var req LimiterRequest
	if err := limiterRequestSchema.Parse(zhttp.Request(c.Request), &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err})
		return
	}

	rs.SetLimiter(org, req.Rate, req.Burst)

	c.Status(http.StatusOK)
}

func (rs *RestfulServer) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
