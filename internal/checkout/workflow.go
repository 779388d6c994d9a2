package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/errgroup"

	"github.com/joao-fontenele/storefront-checkout/internal/backend"
	"github.com/joao-fontenele/storefront-checkout/internal/domain"
	"github.com/joao-fontenele/storefront-checkout/internal/pipeline"
	"github.com/joao-fontenele/storefront-checkout/internal/pricing"
)

var meter = otel.Meter("checkout")

const defaultCleanupConcurrency = 8

type Orders interface {
	CreateOrder(ctx context.Context, idempotencyKey string, submission domain.OrderSubmission) (domain.PlacedOrder, error)
	CreatePaymentURL(ctx context.Context, orderID string) (string, error)
}

type CartCleaner interface {
	DeleteCartLine(ctx context.Context, id string) error
}

type AddressBook interface {
	Find(ctx context.Context, customerID, id string) (domain.Address, error)
}

type Publisher interface {
	PublishOrderPlaced(ctx context.Context, event domain.OrderPlacedEvent) error
}

type Deps struct {
	Orders    Orders
	Cart      CartCleaner
	Addresses AddressBook
	// Publisher is optional; without it no order_placed event is sent.
	Publisher          Publisher
	Calculator         pricing.Calculator
	CleanupConcurrency int
	Logger             *slog.Logger
	Now                func() time.Time
}

type Workflow struct {
	deps        Deps
	submissions metric.Int64Counter
	cleanupFail metric.Int64Counter
}

func NewWorkflow(deps Deps) (*Workflow, error) {
	if deps.Orders == nil || deps.Cart == nil || deps.Addresses == nil {
		return nil, errors.New("checkout: orders, cart and addresses are required")
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.CleanupConcurrency <= 0 {
		deps.CleanupConcurrency = defaultCleanupConcurrency
	}

	submissions, err := meter.Int64Counter("checkout.submissions",
		metric.WithDescription("Checkout submit attempts by outcome"))
	if err != nil {
		return nil, fmt.Errorf("create submissions counter: %w", err)
	}
	cleanupFail, err := meter.Int64Counter("checkout.cart_cleanup_failures",
		metric.WithDescription("Cart lines that could not be removed after an order was created"))
	if err != nil {
		return nil, fmt.Errorf("create cleanup counter: %w", err)
	}

	return &Workflow{deps: deps, submissions: submissions, cleanupFail: cleanupFail}, nil
}

// attempt is the mutable state of one submit, shared by the stages.
type attempt struct {
	input   Input
	key     string
	trail   []State
	pricing pricing.Snapshot

	submission      domain.OrderSubmission
	placed          domain.PlacedOrder
	cleanupFailures []string
	paymentFailed   bool
	next            Navigation
	warnings        []string
}

func (a *attempt) enter(s State) {
	a.trail = append(a.trail, s)
}

// Submit places the order described by in. Validation and order creation
// errors are returned; cart cleanup, payment link and event failures only
// show up as warnings on the outcome.
func (w *Workflow) Submit(ctx context.Context, in Input) (Outcome, error) {
	a := &attempt{input: in, key: in.IdempotencyKey, trail: []State{StateIdle}}
	if a.key == "" {
		a.key = uuid.NewString()
	}

	_, err := pipeline.Run(ctx, a,
		pipeline.Stage[attempt]{Name: "validate", Policy: pipeline.MustSucceed, Run: w.validate},
		pipeline.Stage[attempt]{Name: "verify_address", Policy: pipeline.MustSucceed, Run: w.verifyAddress},
		pipeline.Stage[attempt]{Name: "create_order", Policy: pipeline.MustSucceed, Run: w.createOrder},
		pipeline.Stage[attempt]{Name: "clean_cart", Policy: pipeline.BestEffort, Run: w.cleanCart},
		pipeline.Stage[attempt]{Name: "branch", Policy: pipeline.MustSucceed, Run: w.branch},
		pipeline.Stage[attempt]{
			Name:   "request_payment_url",
			Policy: pipeline.BestEffort,
			When:   func(a *attempt) bool { return a.input.PaymentMethod == domain.PaymentMethodBanking },
			Run:    w.requestPaymentURL,
		},
		pipeline.Stage[attempt]{
			Name:   "announce",
			Policy: pipeline.BestEffort,
			When:   func(*attempt) bool { return w.deps.Publisher != nil },
			Run:    w.announce,
		},
	)
	if err != nil {
		a.enter(StateIdle)
		w.record(ctx, outcomeLabel(err))
		return Outcome{State: StateIdle, Trail: a.trail, IdempotencyKey: a.key, Pricing: a.pricing}, unwrapStage(err)
	}

	a.enter(StateDone)
	label := "placed"
	if len(a.warnings) > 0 {
		label = "placed_with_warnings"
	}
	w.record(ctx, label)

	return Outcome{
		State:           StateDone,
		Trail:           a.trail,
		IdempotencyKey:  a.key,
		Order:           a.placed,
		Pricing:         pricing.Resolve(a.pricing, a.placed.Order.TotalOrderPrice),
		Next:            a.next,
		Warnings:        a.warnings,
		CleanupFailures: a.cleanupFailures,
	}, nil
}

func (w *Workflow) validate(_ context.Context, a *attempt) error {
	a.enter(StateValidating)
	in := a.input

	if strings.TrimSpace(in.CustomerID) == "" {
		return fmt.Errorf("%w: %w", ErrValidation, ErrNoCustomer)
	}
	if strings.TrimSpace(in.AddressID) == "" {
		return fmt.Errorf("%w: %w", ErrValidation, ErrNoAddress)
	}
	if len(in.Lines) == 0 {
		return fmt.Errorf("%w: %w", ErrValidation, ErrEmptyCart)
	}
	if !in.PaymentMethod.Valid() {
		return fmt.Errorf("%w: %w %q", ErrValidation, ErrInvalidPaymentMethod, in.PaymentMethod)
	}

	items := make([]domain.OrderItem, 0, len(in.Lines))
	for _, line := range in.Lines {
		if strings.TrimSpace(line.ProductDetailID) == "" {
			return fmt.Errorf("%w: %w: line %s", ErrValidation, ErrMissingProductDetail, line.ID)
		}
		if line.Quantity <= 0 {
			return fmt.Errorf("%w: %w: line %s", ErrValidation, ErrInvalidQuantity, line.ID)
		}
		items = append(items, domain.OrderItem{ProductDetailID: line.ProductDetailID, Quantity: line.Quantity})
	}

	now := w.deps.Now()
	if in.Voucher != nil {
		if err := pricing.Eligible(*in.Voucher, pricing.Subtotal(in.Lines), now); err != nil {
			return fmt.Errorf("%w: %w", ErrValidation, err)
		}
	}

	a.pricing = w.deps.Calculator.Calculate(in.Lines, in.Quote, in.Voucher, now)
	a.submission = domain.OrderSubmission{
		CustomerID:        in.CustomerID,
		AddressID:         in.AddressID,
		PaymentMethod:     in.PaymentMethod,
		ShippingFee:       a.pricing.ShippingFee,
		TotalProductPrice: a.pricing.Subtotal,
		TotalOrderPrice:   a.pricing.Total,
		Notes:             strings.TrimSpace(in.Note),
		Items:             items,
	}
	if a.pricing.VoucherApplied {
		a.submission.DiscountID = in.Voucher.ID
	}
	return nil
}

func (w *Workflow) verifyAddress(ctx context.Context, a *attempt) error {
	if _, err := w.deps.Addresses.Find(ctx, a.input.CustomerID, a.input.AddressID); err != nil {
		return fmt.Errorf("verify address: %w", err)
	}
	return nil
}

func (w *Workflow) createOrder(ctx context.Context, a *attempt) error {
	a.enter(StateCreating)

	placed, err := w.deps.Orders.CreateOrder(ctx, a.key, a.submission)
	if err != nil {
		w.deps.Logger.Error("failed to create order", "error", err, "customer_id", a.input.CustomerID, "idempotency_key", a.key)
		return fmt.Errorf("create order: %w", err)
	}
	a.placed = placed

	w.deps.Logger.Info("order created",
		"order_id", placed.Order.ID,
		"order_code", placed.Order.Code,
		"customer_id", a.input.CustomerID,
		"payment_method", string(a.input.PaymentMethod),
	)
	return nil
}

// cleanCart removes the submitted lines concurrently. The order already
// exists, so it keeps going when the caller goes away and only reports what
// could not be removed.
func (w *Workflow) cleanCart(ctx context.Context, a *attempt) error {
	a.enter(StateCleaningCart)
	ctx = context.WithoutCancel(ctx)

	var (
		mu     sync.Mutex
		failed []string
		errs   []error
	)
	var g errgroup.Group
	g.SetLimit(w.deps.CleanupConcurrency)
	for _, line := range a.input.Lines {
		g.Go(func() error {
			if err := w.deps.Cart.DeleteCartLine(ctx, line.ID); err != nil {
				mu.Lock()
				failed = append(failed, line.ID)
				errs = append(errs, fmt.Errorf("delete cart line %s: %w", line.ID, err))
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	if len(failed) == 0 {
		return nil
	}

	a.cleanupFailures = failed
	w.cleanupFail.Add(ctx, int64(len(failed)))
	err := errors.Join(errs...)
	w.deps.Logger.Warn("failed to remove ordered cart lines", "error", err, "order_id", a.placed.Order.ID, "lines", failed)
	return err
}

func (w *Workflow) branch(_ context.Context, a *attempt) error {
	a.enter(StateBranching)
	a.next = Navigation{Kind: NavigateConfirmation, OrderCode: a.placed.Order.Code}
	return nil
}

func (w *Workflow) requestPaymentURL(ctx context.Context, a *attempt) error {
	a.enter(StateRequestingPaymentURL)

	url, err := w.deps.Orders.CreatePaymentURL(context.WithoutCancel(ctx), a.placed.Order.ID)
	if err != nil {
		a.paymentFailed = true
		a.warnings = append(a.warnings, "Order created but the payment link failed: "+backend.Message(err, "please pay from your order page"))
		w.deps.Logger.Error("failed to create payment url", "error", err, "order_id", a.placed.Order.ID)
		return err
	}

	a.next = Navigation{Kind: NavigateRedirect, OrderCode: a.placed.Order.Code, URL: url}
	return nil
}

func (w *Workflow) announce(ctx context.Context, a *attempt) error {
	event := domain.OrderPlacedEvent{
		IdempotencyKey:    a.key,
		OrderID:           a.placed.Order.ID,
		OrderCode:         a.placed.Order.Code,
		CustomerID:        a.input.CustomerID,
		PaymentMethod:     a.input.PaymentMethod,
		ShippingFee:       a.submission.ShippingFee,
		TotalProductPrice: a.submission.TotalProductPrice,
		TotalOrderPrice:   a.submission.TotalOrderPrice,
		CleanupFailures:   a.cleanupFailures,
		PaymentLinkFailed: a.paymentFailed,
		Timestamp:         w.deps.Now().UTC(),
	}
	if a.placed.Order.TotalOrderPrice != nil {
		event.TotalOrderPrice = *a.placed.Order.TotalOrderPrice
	}

	if err := w.deps.Publisher.PublishOrderPlaced(context.WithoutCancel(ctx), event); err != nil {
		w.deps.Logger.Error("failed to publish order placed event", "error", err, "order_id", event.OrderID)
		return err
	}
	return nil
}

func (w *Workflow) record(ctx context.Context, outcome string) {
	w.submissions.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

func outcomeLabel(err error) string {
	var stageErr *pipeline.StageError
	if errors.As(err, &stageErr) && stageErr.Stage == "create_order" {
		return "creation_failed"
	}
	return "rejected"
}

func unwrapStage(err error) error {
	var stageErr *pipeline.StageError
	if errors.As(err, &stageErr) {
		return stageErr.Err
	}
	return err
}
