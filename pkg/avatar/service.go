package avatar

import (
	"context"
	"time"

	"github.com/cozy/cozy-avatars/pkg/canvas"
	"github.com/cozy/cozy-avatars/pkg/logger"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/singleflight"
)

// Service handle all the interactions with the initials images. Unlike
// [GenerateAvatar], concurrent requests for the same file are coalesced: only
// one of them renders and writes the image, the others wait for it and get
// the same result.
type Service struct {
	storage Storage
	raster  canvas.Rasterizer
	fonts   FontRegistry
	root    func() string
	strict  bool
	log     logger.Logger
	group   singleflight.Group
	metrics *serviceMetrics
}

// ServiceOption configures a [Service].
type ServiceOption func(*Service)

// WithServiceRoot sets the root directory function, see [WithRoot].
func WithServiceRoot(root func() string) ServiceOption {
	return func(s *Service) { s.root = root }
}

// WithServiceLogger sets the logger of the service and its generators.
func WithServiceLogger(l logger.Logger) ServiceOption {
	return func(s *Service) { s.log = l }
}

// WithServiceStrict makes the service resolve the options with
// [ResolveStrict].
func WithServiceStrict(strict bool) ServiceOption {
	return func(s *Service) { s.strict = strict }
}

// WithRegisterer registers the metrics of the service on reg.
func WithRegisterer(reg prometheus.Registerer) ServiceOption {
	return func(s *Service) { s.metrics.register(reg) }
}

// NewService instantiate a new [Service].
func NewService(storage Storage, raster canvas.Rasterizer, fonts FontRegistry, opts ...ServiceOption) *Service {
	s := &Service{
		storage: storage,
		raster:  raster,
		fonts:   fonts,
		metrics: newServiceMetrics(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = logger.WithNamespace("avatar")
	}
	return s
}

// Avatar registers the fonts and returns the path of the avatar for the
// options, generating it if the file does not exist yet.
func (s *Service) Avatar(ctx context.Context, opts Options, specs ...Font) (string, error) {
	g, err := New(opts, s.generatorOptions()...)
	if err != nil {
		s.metrics.requests.WithLabelValues(resultError).Inc()
		return "", err
	}
	if _, err := g.RegisterFonts(specs...); err != nil {
		s.metrics.requests.WithLabelValues(resultError).Inc()
		return "", err
	}

	path := g.Path()
	res, err, shared := s.group.Do(path, func() (interface{}, error) {
		start := time.Now()
		_, hit, err := g.avatar(ctx)
		if err == nil && !hit {
			s.metrics.generation.Observe(time.Since(start).Seconds())
		}
		return hit, err
	})
	if shared {
		s.metrics.coalesced.Inc()
	}
	switch {
	case err != nil:
		s.metrics.requests.WithLabelValues(resultError).Inc()
		return "", err
	case res.(bool):
		s.metrics.requests.WithLabelValues(resultHit).Inc()
	default:
		s.metrics.requests.WithLabelValues(resultMiss).Inc()
	}
	return path, nil
}

func (s *Service) generatorOptions() []Option {
	opts := []Option{WithLogger(s.log)}
	if s.storage != nil {
		opts = append(opts, WithStorage(s.storage))
	}
	if s.raster != nil {
		opts = append(opts, WithRasterizer(s.raster))
	}
	if s.fonts != nil {
		opts = append(opts, WithFontRegistry(s.fonts))
	}
	if s.root != nil {
		opts = append(opts, WithRoot(s.root))
	}
	if s.strict {
		opts = append(opts, WithStrict())
	}
	return opts
}
