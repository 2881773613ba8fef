package probe

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/stridesec/threatflow/internal/platform/envutil"
	"github.com/stridesec/threatflow/internal/platform/logger"
)

/*
Prober runs black-box diagnostics against the threat-modeling backend. It is
a pure HTTP client: the backend's routes and behavior belong to the backend,
this package only reports what they look like from the outside.

The three checks mirror the recurring "why is the frontend broken" triage
questions: is the backend up at all, does it answer CORS preflights for the
frontend origin, and does it actually enforce its API key.
*/
type Prober struct {
	log  *logger.Logger
	cfg  Config
	http *http.Client
}

type Config struct {
	BaseURL string
	Origin  string
	APIKey  string
	Timeout time.Duration
}

type Result struct {
	Name       string
	OK         bool
	StatusCode int
	Detail     string
	Err        error
}

func ConfigFromEnv() Config {
	secs := envutil.Int("PROBE_TIMEOUT_SECONDS", 10)
	if secs < 1 {
		secs = 1
	}
	return Config{
		BaseURL: strings.TrimRight(envutil.String("BACKEND_URL", "http://localhost:5000"), "/"),
		Origin:  envutil.String("BACKEND_CORS_ORIGIN", "http://localhost:3000"),
		APIKey:  envutil.String("BACKEND_API_KEY", ""),
		Timeout: time.Duration(secs) * time.Second,
	}
}

func New(log *logger.Logger, cfg Config) *Prober {
	if log != nil {
		log = log.With("component", "BackendProbe")
	}
	return &Prober{
		log: log,
		cfg: cfg,
		http: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// RunAll executes every check concurrently and returns results in a stable
// order (health, cors, api_key). A failing check is a Result, never an
// aborted run.
func (p *Prober) RunAll(ctx context.Context) []Result {
	probeID := uuid.NewString()
	if p.log != nil {
		p.log.Info("Probing backend", "probe_id", probeID, "base_url", p.cfg.BaseURL)
	}

	results := make([]Result, 3)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { results[0] = p.CheckHealth(gctx); return nil })
	g.Go(func() error { results[1] = p.CheckCORS(gctx, p.cfg.Origin); return nil })
	g.Go(func() error { results[2] = p.CheckAPIKey(gctx); return nil })
	_ = g.Wait()

	for _, r := range results {
		if p.log == nil {
			break
		}
		if r.OK {
			p.log.Info("Probe check passed", "probe_id", probeID, "check", r.Name, "status", r.StatusCode)
		} else {
			p.log.Warn("Probe check failed", "probe_id", probeID, "check", r.Name, "status", r.StatusCode, "detail", r.Detail, "error", r.Err)
		}
	}
	return results
}

func (p *Prober) CheckHealth(ctx context.Context) Result {
	res := Result{Name: "health"}
	resp, err := p.do(ctx, http.MethodGet, "/api/health", nil)
	if err != nil {
		res.Err = err
		res.Detail = "backend unreachable"
		return res
	}
	defer resp.Body.Close()
	res.StatusCode = resp.StatusCode
	res.OK = resp.StatusCode >= 200 && resp.StatusCode < 300
	if !res.OK {
		res.Detail = fmt.Sprintf("health endpoint returned status=%d", resp.StatusCode)
	}
	return res
}

// CheckCORS sends a preflight for the frontend origin against the step-2
// upload route and verifies the allow-origin answer covers that origin.
func (p *Prober) CheckCORS(ctx context.Context, origin string) Result {
	res := Result{Name: "cors"}
	resp, err := p.do(ctx, http.MethodOptions, "/api/step2", map[string]string{
		"Origin":                        origin,
		"Access-Control-Request-Method": http.MethodPost,
	})
	if err != nil {
		res.Err = err
		res.Detail = "preflight request failed"
		return res
	}
	defer resp.Body.Close()
	res.StatusCode = resp.StatusCode

	allow := strings.TrimSpace(resp.Header.Get("Access-Control-Allow-Origin"))
	switch {
	case allow == "*" || allow == origin:
		res.OK = true
	case allow == "":
		res.Detail = "no Access-Control-Allow-Origin header in preflight response"
	default:
		res.Detail = fmt.Sprintf("allow-origin %q does not cover %q", allow, origin)
	}
	return res
}

/*
CheckAPIKey verifies the backend enforces its API key rather than silently
accepting anonymous requests. Passing requires the status route to reject an
unauthenticated call; when a key is configured, the authenticated call must
additionally get through.
*/
func (p *Prober) CheckAPIKey(ctx context.Context) Result {
	res := Result{Name: "api_key"}

	anon, err := p.do(ctx, http.MethodGet, "/api/status", nil)
	if err != nil {
		res.Err = err
		res.Detail = "unauthenticated request failed"
		return res
	}
	anon.Body.Close()
	res.StatusCode = anon.StatusCode
	if anon.StatusCode != http.StatusUnauthorized && anon.StatusCode != http.StatusForbidden {
		res.Detail = fmt.Sprintf("backend accepted an unauthenticated request (status=%d)", anon.StatusCode)
		return res
	}

	if p.cfg.APIKey == "" {
		res.OK = true
		res.Detail = "enforcement confirmed; no BACKEND_API_KEY configured for the authenticated half"
		return res
	}

	authed, err := p.do(ctx, http.MethodGet, "/api/status", map[string]string{
		"X-API-Key": p.cfg.APIKey,
	})
	if err != nil {
		res.Err = err
		res.Detail = "authenticated request failed"
		return res
	}
	authed.Body.Close()
	res.StatusCode = authed.StatusCode
	if authed.StatusCode == http.StatusUnauthorized || authed.StatusCode == http.StatusForbidden {
		res.Detail = "configured BACKEND_API_KEY was rejected"
		return res
	}
	res.OK = true
	return res
}

func (p *Prober) do(ctx context.Context, method, path string, headers map[string]string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, p.cfg.BaseURL+path, nil)
	if err != nil {
		return nil, err
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return p.http.Do(req)
}
