package eapi

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/st-keller/eapi-client/apierr"
	"github.com/st-keller/eapi-client/endpoint"
	"github.com/st-keller/eapi-client/logging"
	"github.com/st-keller/eapi-client/metrics"
	"github.com/st-keller/eapi-client/registry"
	"github.com/st-keller/eapi-client/resource"
	"github.com/st-keller/eapi-client/response"
	"github.com/st-keller/eapi-client/stats"
	"github.com/st-keller/eapi-client/transport"
)

// Client issues eAPI calls. It is safe for concurrent use; register callbacks
// before issuing the calls that should observe them.
type Client struct {
	config    Config
	target    endpoint.Target
	registry  *registry.Registry
	invoker   *transport.Invoker
	endpoints *endpoint.Table
	stats     *stats.Tracker
	logger    *logging.Logger
	recent    *logging.Recent
	anchors   []transport.AnchorInfo
}

// New creates a client with its own callback registry.
func New(config Config) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	config = config.withDefaults()

	base := config.Logger
	if base == nil {
		base = slog.Default()
	}
	recent := logging.NewRecent(logging.DefaultRecentEntries)
	logger := logging.Wrap(slog.New(recent.Handler(base.Handler(), slog.LevelWarn)))

	client := &Client{
		config: config,
		target: endpoint.Target{
			Server: config.Server,
			Format: config.Format,
			Token:  config.Token,
			Key:    config.Key,
		},
		registry:  registry.New(),
		endpoints: config.Endpoints,
		stats:     stats.NewTracker(),
		logger:    logger,
		recent:    recent,
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		var err error
		httpClient, err = client.buildPinnedClient()
		if err != nil {
			return nil, err
		}
	}
	client.invoker = transport.NewInvoker(httpClient, config.UserAgent)

	logger.Info("eAPI client initialized",
		"server", config.Server,
		"format", config.Format,
		"pinned_anchors", len(client.anchors),
		"strict_endpoints", config.Endpoints != nil,
	)

	return client, nil
}

// buildPinnedClient loads the trust anchors and builds the HTTP/2 client.
func (c *Client) buildPinnedClient() (*http.Client, error) {
	anchors := c.config.TrustAnchor
	switch {
	case len(anchors) > 0:
	case c.config.CAPath != "":
		var err error
		anchors, err = transport.LoadAnchors(c.config.CAPath)
		if err != nil {
			return nil, apierr.E(apierr.KindConfiguration, "eapi.New", err)
		}
	default:
		anchors = transport.BundledAnchors()
	}

	infos, err := transport.InspectAnchors(anchors)
	if err != nil {
		return nil, apierr.E(apierr.KindConfiguration, "eapi.New", err)
	}
	c.anchors = infos

	for _, info := range transport.Expiring(infos, transport.ExpiryWarningDays) {
		c.logger.Warn("Pinned trust anchor expiring",
			"subject", info.Subject,
			"valid_until", info.ValidUntil,
			"days_until_expiry", info.DaysUntilExpiry,
			"expired", info.IsExpired,
		)
	}

	httpClient, err := transport.BuildHTTP2Client(anchors, c.config.Timeout)
	if err != nil {
		return nil, apierr.E(apierr.KindConfiguration, "eapi.New", err)
	}
	return httpClient, nil
}

// Callback registers handler for resources marked MarkPrefix+name
// ("account_credits" observes "_eapi_account_credits"). Handlers for the same
// name accumulate and run in registration order.
func (c *Client) Callback(name string, handler registry.Handler) error {
	if name == "" {
		return fmt.Errorf("name required")
	}
	return c.registry.Register(resource.Mark(name), handler)
}

// Invoke calls the endpoint named "verb_segment1_segment2" (e.g. "get_reports_list").
func (c *Client) Invoke(ctx context.Context, name string, params endpoint.Params) (*response.Aggregate, error) {
	inv, err := endpoint.Parse(name, params)
	if err != nil {
		metrics.RequestsTotal.WithLabelValues("invalid", metrics.OutcomeInvalidInvocation).Inc()
		return nil, err
	}
	return c.Do(ctx, inv)
}

// Get calls GET segment1/segment2.
func (c *Client) Get(ctx context.Context, resourceName, action string, params endpoint.Params) (*response.Aggregate, error) {
	return c.Do(ctx, endpoint.Get(resourceName, action, params))
}

// Post calls POST segment1/segment2 with params as a form body.
func (c *Client) Post(ctx context.Context, resourceName, action string, params endpoint.Params) (*response.Aggregate, error) {
	return c.Do(ctx, endpoint.Post(resourceName, action, params))
}

// Do runs one invocation: resolve, invoke, classify. The returned aggregate
// belongs to the caller; handler failures are on agg.CallbackErrors().
func (c *Client) Do(ctx context.Context, inv endpoint.Invocation) (*response.Aggregate, error) {
	name := inv.String()
	label := metrics.EndpointLabel(inv, c.endpoints)

	if err := c.check(inv); err != nil {
		metrics.RequestsTotal.WithLabelValues(label, metrics.OutcomeInvalidInvocation).Inc()
		return nil, err
	}

	req, err := endpoint.Resolve(c.target, inv)
	if err != nil {
		metrics.RequestsTotal.WithLabelValues(label, metrics.OutcomeInvalidInvocation).Inc()
		return nil, err
	}

	requestID := uuid.NewString()
	ctx = logging.WithRequestID(ctx, requestID)
	c.logger.DebugContext(ctx, "Issuing eAPI call", logging.Endpoint(name))

	start := time.Now()
	resp, err := c.invoker.Invoke(ctx, name, req, requestID)
	if err != nil {
		c.fail(ctx, name, label, start, metrics.OutcomeTransportError, err)
		return nil, err
	}
	metrics.ResponseBytes.Add(float64(len(resp.Body)))

	agg, err := response.Classify(resp.Body, c.registry)
	if !resp.OK() && (err != nil || len(bytes.TrimSpace(resp.Body)) == 0) {
		if err == nil {
			err = errors.New("empty response body")
		}
		statusErr := &apierr.Error{Kind: apierr.KindTransport, Op: name, Status: resp.Status, Err: err}
		c.fail(ctx, name, label, start, metrics.OutcomeTransportError, statusErr)
		return nil, statusErr
	}
	if err != nil {
		outcome := metrics.OutcomeMalformedResponse
		if errors.Is(err, apierr.ErrBind) {
			outcome = metrics.OutcomeBindError
		}
		c.fail(ctx, name, label, start, outcome, err)
		return nil, err
	}

	latency := time.Since(start)

	for _, cbErr := range agg.CallbackErrors() {
		mark := ""
		var apiErr *apierr.Error
		if errors.As(cbErr, &apiErr) {
			mark = apiErr.Mark
		}
		metrics.CallbackFailures.WithLabelValues(mark).Inc()
		c.logger.WarnContext(ctx, "Callback failed, continuing classification",
			logging.Endpoint(name), logging.Mark(mark), logging.Error(cbErr))
	}

	transactions, partials, errs := agg.Get()
	metrics.ResourcesTotal.WithLabelValues(resource.Transaction.String()).Add(float64(len(transactions)))
	metrics.ResourcesTotal.WithLabelValues(resource.Partial.String()).Add(float64(len(partials)))
	metrics.ResourcesTotal.WithLabelValues(resource.Error.String()).Add(float64(len(errs)))
	metrics.RequestsTotal.WithLabelValues(label, metrics.OutcomeOK).Inc()
	metrics.RequestDuration.WithLabelValues(label).Observe(latency.Seconds())
	c.stats.TrackSuccess(name, latency)

	args := []any{logging.Endpoint(name), logging.Status(resp.Status), logging.Duration(latency)}
	args = append(args, logging.Counts(len(transactions), len(partials), len(errs))...)
	c.logger.InfoContext(ctx, "eAPI call completed", args...)

	return agg, nil
}

// check validates inv and, in strict mode, matches it against the endpoint table.
func (c *Client) check(inv endpoint.Invocation) error {
	if err := inv.Validate(); err != nil {
		return err
	}
	if c.endpoints != nil {
		return c.endpoints.Check(inv)
	}
	return nil
}

// fail records a failed call in stats, metrics and logs. label is the
// bounded metrics label for name.
func (c *Client) fail(ctx context.Context, name, label string, start time.Time, outcome string, err error) {
	latency := time.Since(start)
	c.stats.TrackFailure(name, latency, err.Error())
	metrics.RequestsTotal.WithLabelValues(label, outcome).Inc()
	metrics.RequestDuration.WithLabelValues(label).Observe(latency.Seconds())
	c.logger.ErrorContext(ctx, "eAPI call failed",
		logging.Endpoint(name), logging.Duration(latency), logging.Error(err))
}

// Stats returns per-endpoint call statistics over the last hour.
func (c *Client) Stats() []stats.EndpointStats {
	return c.stats.Snapshot()
}

// RecentLogs returns the client's latest warnings and errors, oldest first.
func (c *Client) RecentLogs() []logging.Entry {
	return c.recent.Entries()
}

// Anchors returns the pinned trust anchors, empty when HTTPClient was supplied.
func (c *Client) Anchors() []transport.AnchorInfo {
	return append([]transport.AnchorInfo(nil), c.anchors...)
}

// Endpoints returns the strict endpoint table, nil when not configured.
func (c *Client) Endpoints() *endpoint.Table {
	return c.endpoints
}

// Registry returns the client's callback registry.
func (c *Client) Registry() *registry.Registry {
	return c.registry
}
