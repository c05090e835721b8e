// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

/*
Package tracing provides OpenTelemetry tracing and correlation ID support.

Every tool call gets a correlation ID. It is attached to log entries,
recorded on the tool span, and forwarded to the vendor API as
X-Correlation-ID so a single call can be followed end to end.

# Quick Start

	provider, err := tracing.NewProvider(ctx, tracing.Config{
	    Exporter:       "otlp",
	    Protocol:       "grpc",
	    Endpoint:       "localhost:4317",
	    ServiceName:    "arena-mcp",
	    ServiceVersion: version,
	})
	defer provider.Shutdown(ctx)

	ctx, span := tracing.Tracer("gateway").Start(ctx, "tool.search_items")
	defer span.End()

# Exporters

  - none: spans are not recorded (default)
  - otlp: OTLP over gRPC or HTTP, selected by Protocol
  - console: human-readable spans written to stderr

The console exporter never writes to stdout because the stdio transport
owns it.
*/
package tracing
