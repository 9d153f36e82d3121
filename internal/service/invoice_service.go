package service

import (
	"context"
	"errors"
	"io"

	"storefront/internal/domain"
	"storefront/internal/invoice"
	"storefront/internal/repository"
	"storefront/internal/telemetry"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// InvoiceService renders an order's invoice for its owner.
type InvoiceService interface {
	GenerateInvoice(ctx context.Context, orderID uuid.UUID, requester *domain.User, w io.Writer) error
}

type invoiceService struct {
	orderRepo repository.OrderRepository
	generator *invoice.Generator
	store     *invoice.Store
	metrics   *telemetry.ShopMetrics
	logger    *zap.Logger
}

// NewInvoiceService creates a new instance of InvoiceService
func NewInvoiceService(
	orderRepo repository.OrderRepository,
	generator *invoice.Generator,
	store *invoice.Store,
	metrics *telemetry.ShopMetrics,
	logger *zap.Logger,
) InvoiceService {
	return &invoiceService{
		orderRepo: orderRepo,
		generator: generator,
		store:     store,
		metrics:   metrics,
		logger:    logger,
	}
}

// GenerateInvoice streams the invoice PDF to w and rewrites the stored copy.
//
// Lookup and ownership are checked before anything is written, so an
// unauthorized request leaves no file behind. A failing file write never
// interrupts the stream to w; the partial file is removed instead.
func (s *invoiceService) GenerateInvoice(ctx context.Context, orderID uuid.UUID, requester *domain.User, w io.Writer) error {
	ctx, span := tracer.Start(ctx, "invoice.generate")
	defer span.End()
	span.SetAttributes(attribute.String("order.id", orderID.String()))

	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		span.RecordError(err)
		return err
	}

	if !order.OwnedBy(requester.ID) {
		s.logger.Warn("Invoice requested for another user's order",
			zap.String("order_id", orderID.String()),
			zap.String("requester_id", requester.ID.String()),
		)
		return ErrUnauthorizedOrder
	}

	file, err := s.store.Create(orderID)
	if err != nil {
		s.recordSinkFailure(ctx, orderID, err)
	}

	var sink io.Writer
	if file != nil {
		sink = file
	}
	tee := invoice.NewTeeWriter(w, sink)

	renderErr := s.generator.Render(order, tee)

	if file != nil {
		sinkErr := tee.SinkErr()
		if closeErr := file.Close(); closeErr != nil && sinkErr == nil {
			sinkErr = closeErr
		}
		if renderErr != nil && sinkErr == nil {
			sinkErr = errors.New("invoice render did not complete")
		}
		if sinkErr != nil {
			s.recordSinkFailure(ctx, orderID, sinkErr)
			if err := s.store.Delete(orderID); err != nil {
				s.logger.Error("Failed to remove partial invoice file", zap.Error(err), zap.String("order_id", orderID.String()))
			}
		}
	}

	if renderErr != nil {
		span.RecordError(renderErr)
		s.logger.Error("Failed to render invoice", zap.Error(renderErr), zap.String("order_id", orderID.String()))
		return renderErr
	}

	s.metrics.InvoicesGenerated.Add(ctx, 1)
	return nil
}

func (s *invoiceService) recordSinkFailure(ctx context.Context, orderID uuid.UUID, err error) {
	s.metrics.InvoiceSinkErrors.Add(ctx, 1)
	s.logger.Error("Failed to write invoice file",
		zap.Error(err),
		zap.String("order_id", orderID.String()),
	)
}
