package securepay

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/exp/slog"
	"golang.org/x/sync/singleflight"

	"github.com/alovak/securepay/internal/cardgen"
	"github.com/alovak/securepay/internal/disclosure"
	"github.com/alovak/securepay/internal/expiry"
	"github.com/alovak/securepay/internal/metrics"
	"github.com/alovak/securepay/internal/store"
	"github.com/alovak/securepay/internal/token"
	"github.com/alovak/securepay/securepay/models"
)

var (
	// ErrAccessDenied is the only failure a secure payment page may show.
	// The wrapped cause is for server-side logs.
	ErrAccessDenied = errors.New("access denied")
	// ErrInvalidRequest marks a rejected dev request body.
	ErrInvalidRequest = errors.New("invalid request")
)

// Denial reasons that do not come from the token codec.
const (
	reasonCardNotFound     = "card_not_found"
	reasonCardAmbiguous    = "card_ambiguous"
	reasonStoreUnavailable = "store_unavailable"
)

// Resolution is what the operator sees for one valid secure payment link.
type Resolution struct {
	Payment     models.Payment             `json:"payment"`
	Card        disclosure.DisplayableCard `json:"card"`
	CardExpired bool                       `json:"card_expired"`
}

type Service struct {
	codec   *token.Codec
	store   CardStore
	cfg     *Config
	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer
	now     func() time.Time
	expLoc  *time.Location
	fetches singleflight.Group
}

type Option func(*Service)

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithTracer(t trace.Tracer) Option {
	return func(s *Service) { s.tracer = t }
}

// WithClock sets the clock used for card expiry and dev token issuance. Token
// validation uses the codec's own clock.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(codec *token.Codec, cards CardStore, cfg *Config, opts ...Option) *Service {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	s := &Service{
		codec:  codec,
		store:  cards,
		cfg:    cfg,
		logger: slog.Default(),
		tracer: otel.Tracer("securepay/service"),
		now:    time.Now,
		expLoc: time.UTC,
	}
	for _, opt := range opts {
		opt(s)
	}
	if loc, err := time.LoadLocation(cfg.ExpiryTZ); err == nil {
		s.expLoc = loc
	}
	return s
}

// Resolve validates a secure payment token, fetches the referenced card and
// applies the disclosure policy. Every failure is reported as ErrAccessDenied.
func (s *Service) Resolve(ctx context.Context, raw string) (*Resolution, error) {
	ctx, span := s.tracer.Start(ctx, "securepay.Resolve")
	defer span.End()

	claims, err := s.codec.Decode(raw)
	if err != nil {
		return nil, s.deny(ctx, span, string(token.ReasonOf(err)), err)
	}
	span.SetAttributes(attribute.Bool("securepay.reveal_verification_code", claims.RevealVerificationCode))

	record, err := s.fetchCard(ctx, claims.CardRef)
	if err != nil {
		return nil, s.deny(ctx, span, storeReason(err), err)
	}

	card := disclosure.Redact(claims, *record)
	expired, err := expiry.IsExpired(record.ExpiryYYMM, s.now(), s.expLoc)
	if err != nil {
		s.logger.Warn("card expiry not parseable", slog.String("field", "expiry_yymm"))
	}

	if s.metrics != nil {
		s.metrics.RecordDisclosed(card.HasVerificationCode())
	}
	span.SetAttributes(attribute.String("securepay.outcome", metrics.OutcomeDisclosed))

	return &Resolution{
		Payment: models.Payment{
			ReservationCode: claims.ReservationCode,
			Amount:          claims.Amount,
			Currency:        s.cfg.Currency,
		},
		Card:        card,
		CardExpired: expired,
	}, nil
}

// fetchCard shares one store round-trip between concurrent resolutions of the
// same card. The shared call is detached from any single caller's
// cancellation and bounded by CardFetchTimeout instead.
func (s *Service) fetchCard(ctx context.Context, ref string) (*models.CardRecord, error) {
	ch := s.fetches.DoChan(ref, func() (any, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.CardFetchTimeout)
		defer cancel()

		fctx, span := s.tracer.Start(fctx, "securepay.FindCard")
		defer span.End()

		start := time.Now()
		rec, err := s.store.FindCard(fctx, ref)
		if err == nil && rec == nil {
			err = fmt.Errorf("store returned no record: %w", ErrNotFound)
		}
		if s.metrics != nil {
			result := "ok"
			if err != nil {
				result = storeReason(err)
			}
			s.metrics.ObserveCardFetch(result, time.Since(start).Seconds())
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "find card failed")
			return nil, err
		}
		return rec, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*models.CardRecord), nil
	}
}

func (s *Service) deny(ctx context.Context, span trace.Span, reason string, cause error) error {
	if s.metrics != nil {
		s.metrics.RecordDenied(reason)
	}
	span.SetAttributes(
		attribute.String("securepay.outcome", metrics.OutcomeDenied),
		attribute.String("securepay.reason", reason),
	)
	span.SetStatus(codes.Error, reason)

	level := slog.LevelInfo
	if reason == reasonStoreUnavailable {
		level = slog.LevelError
	}
	s.logger.Log(ctx, level, "secure payment denied",
		slog.String("reason", reason),
		slog.String("err", cause.Error()),
	)
	return fmt.Errorf("%w: %s", ErrAccessDenied, reason)
}

func storeReason(err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return reasonCardNotFound
	case errors.Is(err, ErrAmbiguous):
		return reasonCardAmbiguous
	default:
		return reasonStoreUnavailable
	}
}

// IssueToken mints a secure payment token. It stands in for the upstream
// issuer and is only reachable through the dev routes and tokengen.
func (s *Service) IssueToken(req models.IssueToken) (*models.IssuedToken, error) {
	ttl := s.cfg.TokenTTL
	if req.TTL != "" {
		d, err := time.ParseDuration(req.TTL)
		if err != nil {
			return nil, fmt.Errorf("%w: ttl: %v", ErrInvalidRequest, err)
		}
		ttl = d
	}
	if ttl < time.Second {
		return nil, fmt.Errorf("%w: ttl must be at least 1s", ErrInvalidRequest)
	}

	claims := token.NewClaims(
		strings.TrimSpace(req.ReservationCode),
		req.Amount,
		strings.TrimSpace(req.CardRef),
		req.RevealVerificationCode,
		s.now(),
		ttl,
	)
	raw, err := s.codec.Encode(claims)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	return &models.IssuedToken{Token: raw, ExpiresAt: claims.ExpiresAt}, nil
}

// CreateCard registers a card record. Expiry may be given as YYMM, MM/YY or MMYY;
// four bare digits are read as YYMM, the stored form.
func (s *Service) CreateCard(ctx context.Context, req models.CreateCard) (*models.CreatedCard, error) {
	yymm, err := parseExpiry(req.Expiry)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	ref := strings.TrimSpace(req.Ref)
	if ref == "" {
		ref = uuid.New().String()
	}
	rec, err := store.Normalize(models.CardRecord{
		Ref:              ref,
		IssuingBank:      req.IssuingBank,
		Number:           req.Number,
		ExpiryYYMM:       yymm,
		VerificationCode: req.VerificationCode,
		HolderName:       req.HolderName,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if err := s.store.CreateCard(ctx, rec); err != nil {
		if errors.Is(err, ErrConflict) {
			return nil, err
		}
		return nil, fmt.Errorf("creating card: %w", err)
	}
	return &models.CreatedCard{
		Ref:          ref,
		MaskedNumber: cardgen.MaskPAN(rec.Number),
		ExpiryYYMM:   yymm,
	}, nil
}

func parseExpiry(in string) (string, error) {
	s := strings.TrimSpace(in)
	if strings.Contains(s, "/") {
		return expiry.ParseCardFace(s)
	}
	if err := expiry.ValidateYYMM(s); err != nil {
		return "", err
	}
	return s, nil
}

// Ready reports whether the card store is reachable.
func (s *Service) Ready(ctx context.Context) error {
	return s.store.Ping(ctx)
}
