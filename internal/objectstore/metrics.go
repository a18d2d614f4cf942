package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Instrumented wraps a Gateway and records latency and failures per
// operation.
type Instrumented struct {
	Gateway

	duration *prometheus.HistogramVec
	errors   *prometheus.CounterVec
	bytes    prometheus.Counter
}

func NewInstrumented(inner Gateway, reg prometheus.Registerer) (*Instrumented, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "flipbook",
		Subsystem: "objectstore",
		Name:      "operation_duration_seconds",
		Help:      "Latency of object store operations.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"operation"})
	errs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "flipbook",
		Subsystem: "objectstore",
		Name:      "operation_errors_total",
		Help:      "Count of failed object store operations.",
	}, []string{"operation"})
	uploaded := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "flipbook",
		Subsystem: "objectstore",
		Name:      "uploaded_bytes_total",
		Help:      "Bytes successfully written to the object store.",
	})

	var err error
	if duration, err = register(reg, duration); err != nil {
		return nil, err
	}
	if errs, err = register(reg, errs); err != nil {
		return nil, err
	}
	if uploaded, err = register(reg, uploaded); err != nil {
		return nil, err
	}

	return &Instrumented{Gateway: inner, duration: duration, errors: errs, bytes: uploaded}, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, fmt.Errorf("register object store metric: %w", err)
	}
	return c, nil
}

func (i *Instrumented) observe(op string, start time.Time, err error) {
	i.duration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	if err != nil {
		i.errors.WithLabelValues(op).Inc()
	}
}

func (i *Instrumented) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error) {
	start := time.Now()
	u, err := i.Gateway.Put(ctx, key, body, size, contentType)
	i.observe("put", start, err)
	if err == nil && size > 0 {
		i.bytes.Add(float64(size))
	}
	return u, err
}

func (i *Instrumented) Delete(ctx context.Context, key string) error {
	start := time.Now()
	err := i.Gateway.Delete(ctx, key)
	i.observe("delete", start, err)
	return err
}

func (i *Instrumented) List(ctx context.Context, prefix string) ([]string, error) {
	start := time.Now()
	keys, err := i.Gateway.List(ctx, prefix)
	i.observe("list", start, err)
	return keys, err
}

func (i *Instrumented) PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error) {
	start := time.Now()
	u, err := i.Gateway.PresignGet(ctx, key, ttl)
	i.observe("presign", start, err)
	return u, err
}
