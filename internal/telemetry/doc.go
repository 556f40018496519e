// Package telemetry provides OpenTelemetry instrumentation for shelfd.
//
// # Overview
//
// This package implements distributed tracing and metrics collection using
// the OpenTelemetry Go SDK. Telemetry data is exported over OTLP to a
// collector; both gRPC and http/protobuf transports are supported.
//
// # Usage
//
// Create a telemetry instance:
//
//	tel, err := telemetry.New(ctx, &cfg.Telemetry)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer tel.Shutdown(ctx)
//
// Use tracer and meter:
//
//	tracer := tel.Tracer("shelfd.mcp")
//	ctx, span := tracer.Start(ctx, "tools/call")
//	defer span.End()
//
//	meter := tel.Meter("shelfd.mcp")
//	counter, _ := meter.Int64Counter("mcp.tool.invocations")
//	counter.Add(ctx, 1)
//
// # Graceful Degradation
//
// Telemetry failures never crash the service. When a provider cannot be
// initialized the instance marks itself degraded and hands out no-op
// tracers and meters instead.
package telemetry
