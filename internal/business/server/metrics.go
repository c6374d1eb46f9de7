package server

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/oapi-codegen/runtime/strictmiddleware/nethttp"
	"github.com/openkcm/common-sdk/pkg/commoncfg"
	"github.com/openkcm/common-sdk/pkg/otlp"
	"github.com/samber/oops"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	slogctx "github.com/veqryn/slog-context"

	"github.com/openkcm/catalog-client/internal/config"
)

const (
	metricRequests = "catalog_client.local.requests"
	metricDuration = "catalog_client.local.duration"
	metricUpstream = "catalog_client.upstream.failures"

	attrStatusCode = "http.response.status_code"
)

// meters are the instruments of one local server.
type meters struct {
	requests metric.Int64Counter
	duration metric.Float64Histogram
	upstream metric.Int64Counter
}

func newMeters(ctx context.Context, cfg *config.Config, provider metric.MeterProvider) (*meters, error) {
	meter := provider.Meter(
		"catalog-client/"+cfg.Application.Name,
		metric.WithInstrumentationVersion(otel.Version()),
		metric.WithInstrumentationAttributes(otlp.CreateAttributesFrom(cfg.Application)...),
	)

	requests, err := meter.Int64Counter(metricRequests,
		metric.WithDescription("Requests answered by the local server"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, oops.In("HTTP Server").WithContext(ctx).Wrapf(err, "creating the %s counter", metricRequests)
	}

	duration, err := meter.Float64Histogram(metricDuration,
		metric.WithDescription("End to end duration of the local requests"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, oops.In("HTTP Server").WithContext(ctx).Wrapf(err, "creating the %s histogram", metricDuration)
	}

	upstream, err := meter.Int64Counter(metricUpstream,
		metric.WithDescription("Local requests that failed because the catalog API did"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, oops.In("HTTP Server").WithContext(ctx).Wrapf(err, "creating the %s counter", metricUpstream)
	}

	return &meters{requests: requests, duration: duration, upstream: upstream}, nil
}

// statusOf is the status code handle will answer with.
func statusOf(response any, err error) int {
	if err != nil {
		_, status := toErrorModel(err)
		return status
	}

	if resp, ok := response.(jsonResponse); ok {
		return resp.status
	}

	return http.StatusNoContent
}

// newTraceMiddleware gives every operation a request id, a span and the
// request meters.
func newTraceMiddleware(cfg *config.Config, m *meters) nethttp.StrictHTTPMiddlewareFunc {
	return func(f nethttp.StrictHTTPHandlerFunc, operationID string) nethttp.StrictHTTPHandlerFunc {
		traceAttrs := otlp.CreateAttributesFrom(cfg.Application, attribute.String(commoncfg.AttrOperation, operationID))
		tracer := otel.Tracer(operationID, trace.WithInstrumentationAttributes(traceAttrs...))

		return func(ctx context.Context, w http.ResponseWriter, r *http.Request, request any) (any, error) {
			ctx = slogctx.With(ctx,
				commoncfg.AttrRequestID, uuid.NewString(),
				commoncfg.AttrOperation, operationID,
			)

			parentCtx := otel.GetTextMapPropagator().Extract(ctx, propagation.HeaderCarrier(r.Header))

			ctx, span := tracer.Start(parentCtx, operationID, trace.WithAttributes(traceAttrs...))
			defer span.End()

			start := time.Now()
			response, err := f(ctx, w, r, request)
			elapsed := time.Since(start)

			status := statusOf(response, err)
			span.SetAttributes(attribute.Int(attrStatusCode, status))
			if err != nil {
				span.RecordError(err)
				if status >= http.StatusInternalServerError {
					span.SetStatus(codes.Error, err.Error())
				}
			}

			attrs := metric.WithAttributes(
				attribute.String(commoncfg.AttrOperation, operationID),
				attribute.String(attrStatusCode, strconv.Itoa(status)),
			)
			m.requests.Add(ctx, 1, attrs)
			m.duration.Record(ctx, float64(elapsed.Microseconds())/1000, attrs)
			if status == http.StatusBadGateway {
				m.upstream.Add(ctx, 1, metric.WithAttributes(attribute.String(commoncfg.AttrOperation, operationID)))
			}

			slogctx.Debug(ctx, "Request served", "status", status, "duration", elapsed)

			return response, err
		}
	}
}
