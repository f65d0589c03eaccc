package observability

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// spanAttributePolicy is the allow-list applied to exported span attributes.
// Set contents are never exported: they are unbounded and may be sensitive.
var spanAttributePolicy = attributePolicy{
	allowedPrefixes: []string{"ordset.", "script.", "set.", "error"},
	blockedPrefixes: []string{"user.", "set.value"},
	blockedKeys:     map[string]bool{"script.text": true},
}

type attributePolicy struct {
	allowedPrefixes []string
	blockedPrefixes []string
	blockedKeys     map[string]bool
}

func (p attributePolicy) allows(key string) bool {
	if p.blockedKeys[key] {
		return false
	}

	for _, prefix := range p.blockedPrefixes {
		if strings.HasPrefix(key, prefix) {
			return false
		}
	}

	for _, prefix := range p.allowedPrefixes {
		if strings.HasPrefix(key, prefix) {
			return true
		}
	}

	return false
}

// attributeFilter is a SpanProcessor that drops attributes outside the policy
// before the delegate sees the span.
type attributeFilter struct {
	delegate sdktrace.SpanProcessor
	policy   attributePolicy
	logger   *slog.Logger
}

// NewAttributeFilter returns a SpanProcessor that strips span attributes not
// allowed for export. When logger is non-nil, every dropped key is logged at
// debug level.
func NewAttributeFilter(delegate sdktrace.SpanProcessor, logger *slog.Logger) sdktrace.SpanProcessor {
	return &attributeFilter{delegate: delegate, policy: spanAttributePolicy, logger: logger}
}

// OnStart delegates to the wrapped processor.
func (f *attributeFilter) OnStart(parent context.Context, s sdktrace.ReadWriteSpan) {
	f.delegate.OnStart(parent, s)
}

// OnEnd hands a filtered view of the span to the wrapped processor.
func (f *attributeFilter) OnEnd(s sdktrace.ReadOnlySpan) {
	f.delegate.OnEnd(&filteredSpan{ReadOnlySpan: s, filter: f})
}

// Shutdown delegates to the wrapped processor.
func (f *attributeFilter) Shutdown(ctx context.Context) error {
	if err := f.delegate.Shutdown(ctx); err != nil {
		return fmt.Errorf("attribute filter shutdown: %w", err)
	}

	return nil
}

// ForceFlush delegates to the wrapped processor.
func (f *attributeFilter) ForceFlush(ctx context.Context) error {
	if err := f.delegate.ForceFlush(ctx); err != nil {
		return fmt.Errorf("attribute filter flush: %w", err)
	}

	return nil
}

func (f *attributeFilter) keep(key string) bool {
	if f.policy.allows(key) {
		return true
	}

	if f.logger != nil {
		f.logger.Debug("span attribute dropped", "key", key)
	}

	return false
}

// filteredSpan wraps a ReadOnlySpan and returns only allowed attributes.
type filteredSpan struct {
	sdktrace.ReadOnlySpan

	filter *attributeFilter
}

// Attributes returns only the allowed attributes.
func (s *filteredSpan) Attributes() []attribute.KeyValue {
	orig := s.ReadOnlySpan.Attributes()
	filtered := make([]attribute.KeyValue, 0, len(orig))

	for _, kv := range orig {
		if s.filter.keep(string(kv.Key)) {
			filtered = append(filtered, kv)
		}
	}

	return filtered
}
