package changegate

import (
	"github.com/viant/changegate/model/chain"
	"github.com/viant/changegate/model/request"
	"github.com/viant/changegate/remote"
	"github.com/viant/changegate/remote/shell"
	"github.com/viant/changegate/service/dao"
	"github.com/viant/changegate/service/event"
	"github.com/viant/changegate/tracing"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Option customises Service construction.
type Option func(s *Service)

// WithRequestDAO sets the request store.
func WithRequestDAO(store dao.Service[string, request.Request]) Option {
	return func(s *Service) { s.requests = store }
}

// WithChainDAO sets the department chain store.
func WithChainDAO(store dao.Service[string, chain.Chain]) Option {
	return func(s *Service) { s.chains = store }
}

// WithCompiler sets the remote compiler.
func WithCompiler(compiler remote.Compiler) Option {
	return func(s *Service) { s.compiler = compiler }
}

// WithUploader sets the artifact uploader.
func WithUploader(uploader remote.Uploader) Option {
	return func(s *Service) { s.uploader = uploader }
}

// WithDDLSource sets the database definition source used for backups.
func WithDDLSource(ddl remote.DDLSource) Option {
	return func(s *Service) { s.ddl = ddl }
}

// WithShell sets the remote session service.
func WithShell(service *shell.Service) Option {
	return func(s *Service) { s.shell = service }
}

// WithEventService sets the lifecycle event service.
func WithEventService(service *event.Service) Option {
	return func(s *Service) { s.events = service }
}

// WithTracing configures OpenTelemetry tracing. If outputFile is empty the
// stdout exporter is used; otherwise traces are written to the supplied
// file. Safe to call multiple times, the first successful initialisation
// wins.
func WithTracing(serviceName, serviceVersion, outputFile string) Option {
	return func(s *Service) {
		_ = tracing.Init(serviceName, serviceVersion, outputFile)
	}
}

// WithTracingExporter configures OpenTelemetry tracing with a custom
// SpanExporter, for example OTLP, Jaeger or Zipkin.
func WithTracingExporter(serviceName, serviceVersion string, exporter sdktrace.SpanExporter) Option {
	return func(s *Service) {
		_ = tracing.InitWithExporter(serviceName, serviceVersion, exporter)
	}
}
