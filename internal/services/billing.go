package services

import (
  "context"
  "encoding/json"
  "fmt"
  "time"

  "github.com/stripe/stripe-go/v78"
  "gorm.io/gorm"

  "github.com/yungbote/reelforge-backend/internal/logger"
  "github.com/yungbote/reelforge-backend/internal/repos"
  "github.com/yungbote/reelforge-backend/internal/types"
)

// BillingService applies subscription field-sets from Stripe events. Each
// event type is an independent idempotent transition; no ordering between
// events is assumed.
type BillingService interface {
  HandleEvent(ctx context.Context, event stripe.Event) error
}

type billingService struct {
  db               *gorm.DB
  log              *logger.Logger
  userRepo         repos.UserRepo
  billingEventRepo repos.BillingEventRepo
}

func NewBillingService(db *gorm.DB, baseLog *logger.Logger, userRepo repos.UserRepo, billingEventRepo repos.BillingEventRepo) BillingService {
  return &billingService{
    db:               db,
    log:              baseLog.With("service", "BillingService"),
    userRepo:         userRepo,
    billingEventRepo: billingEventRepo,
  }
}

func (bs *billingService) HandleEvent(ctx context.Context, event stripe.Event) error {
  duplicate, err := bs.billingEventRepo.MarkProcessed(ctx, nil, event.ID, string(event.Type))
  if err != nil {
    return fmt.Errorf("record billing event: %w", err)
  }
  if duplicate {
    bs.log.Info("duplicate billing event ignored", "event_id", event.ID, "type", event.Type)
    return nil
  }

  switch event.Type {
  case "checkout.session.completed":
    return bs.handleCheckoutCompleted(ctx, event)
  case "customer.subscription.updated":
    return bs.handleSubscriptionUpdated(ctx, event)
  case "customer.subscription.deleted":
    return bs.handleSubscriptionDeleted(ctx, event)
  case "invoice.paid":
    return bs.handleInvoicePaid(ctx, event)
  case "invoice.payment_failed":
    return bs.handleInvoicePaymentFailed(ctx, event)
  default:
    bs.log.Debug("unhandled billing event type", "type", event.Type)
    return nil
  }
}

func (bs *billingService) handleCheckoutCompleted(ctx context.Context, event stripe.Event) error {
  var session stripe.CheckoutSession
  if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
    return fmt.Errorf("decode checkout session: %w", err)
  }

  email := session.CustomerEmail
  if email == "" && session.CustomerDetails != nil {
    email = session.CustomerDetails.Email
  }
  if email == "" {
    return fmt.Errorf("checkout session %s has no customer email", session.ID)
  }

  users, err := bs.userRepo.GetByEmails(ctx, nil, []string{email})
  if err != nil {
    return fmt.Errorf("load user: %w", err)
  }
  if len(users) == 0 || users[0] == nil {
    return fmt.Errorf("no account for checkout email %s", email)
  }

  updates := map[string]interface{}{
    "is_subscribed":       true,
    "subscription_status": types.SubscriptionStatusActive,
    "updated_at":          time.Now(),
  }
  if session.Customer != nil {
    updates["stripe_customer_id"] = session.Customer.ID
  }
  if session.Subscription != nil {
    updates["stripe_subscription_id"] = session.Subscription.ID
  }
  if plan, ok := session.Metadata["plan"]; ok && plan != "" {
    updates["plan"] = plan
  }

  return bs.userRepo.UpdateFields(ctx, nil, users[0].ID, updates)
}

func (bs *billingService) handleSubscriptionUpdated(ctx context.Context, event stripe.Event) error {
  var sub stripe.Subscription
  if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
    return fmt.Errorf("decode subscription: %w", err)
  }
  if sub.Customer == nil {
    return fmt.Errorf("subscription %s has no customer", sub.ID)
  }

  user, err := bs.userRepo.GetByStripeCustomerID(ctx, nil, sub.Customer.ID)
  if err != nil {
    return fmt.Errorf("load user by customer: %w", err)
  }
  if user == nil {
    return fmt.Errorf("no account for stripe customer %s", sub.Customer.ID)
  }

  updates := map[string]interface{}{
    "stripe_subscription_id": sub.ID,
    "subscription_status":    mapSubscriptionStatus(sub.Status),
    "is_subscribed":          sub.Status == stripe.SubscriptionStatusActive || sub.Status == stripe.SubscriptionStatusTrialing,
    "updated_at":             time.Now(),
  }
  if sub.CurrentPeriodStart > 0 {
    updates["period_start"] = time.Unix(sub.CurrentPeriodStart, 0)
  }
  if sub.CurrentPeriodEnd > 0 {
    updates["period_end"] = time.Unix(sub.CurrentPeriodEnd, 0)
  }
  if len(sub.Items.Data) > 0 && sub.Items.Data[0].Price != nil {
    updates["plan"] = sub.Items.Data[0].Price.ID
  }

  return bs.userRepo.UpdateFields(ctx, nil, user.ID, updates)
}

func (bs *billingService) handleSubscriptionDeleted(ctx context.Context, event stripe.Event) error {
  var sub stripe.Subscription
  if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
    return fmt.Errorf("decode subscription: %w", err)
  }
  if sub.Customer == nil {
    return fmt.Errorf("subscription %s has no customer", sub.ID)
  }

  user, err := bs.userRepo.GetByStripeCustomerID(ctx, nil, sub.Customer.ID)
  if err != nil {
    return fmt.Errorf("load user by customer: %w", err)
  }
  if user == nil {
    return fmt.Errorf("no account for stripe customer %s", sub.Customer.ID)
  }

  return bs.userRepo.UpdateFields(ctx, nil, user.ID, map[string]interface{}{
    "is_subscribed":          false,
    "subscription_status":    types.SubscriptionStatusCanceled,
    "stripe_subscription_id": "",
    "updated_at":             time.Now(),
  })
}

func (bs *billingService) handleInvoicePaid(ctx context.Context, event stripe.Event) error {
  var invoice stripe.Invoice
  if err := json.Unmarshal(event.Data.Raw, &invoice); err != nil {
    return fmt.Errorf("decode invoice: %w", err)
  }
  if invoice.Customer == nil {
    return fmt.Errorf("invoice %s has no customer", invoice.ID)
  }

  user, err := bs.userRepo.GetByStripeCustomerID(ctx, nil, invoice.Customer.ID)
  if err != nil {
    return fmt.Errorf("load user by customer: %w", err)
  }
  if user == nil {
    return fmt.Errorf("no account for stripe customer %s", invoice.Customer.ID)
  }

  updates := map[string]interface{}{
    "is_subscribed":       true,
    "subscription_status": types.SubscriptionStatusActive,
    "videos_this_period":  0,
    "updated_at":          time.Now(),
  }
  if invoice.PeriodStart > 0 {
    updates["period_start"] = time.Unix(invoice.PeriodStart, 0)
  }
  if invoice.PeriodEnd > 0 {
    updates["period_end"] = time.Unix(invoice.PeriodEnd, 0)
  }

  return bs.userRepo.UpdateFields(ctx, nil, user.ID, updates)
}

func (bs *billingService) handleInvoicePaymentFailed(ctx context.Context, event stripe.Event) error {
  var invoice stripe.Invoice
  if err := json.Unmarshal(event.Data.Raw, &invoice); err != nil {
    return fmt.Errorf("decode invoice: %w", err)
  }
  if invoice.Customer == nil {
    return fmt.Errorf("invoice %s has no customer", invoice.ID)
  }

  user, err := bs.userRepo.GetByStripeCustomerID(ctx, nil, invoice.Customer.ID)
  if err != nil {
    return fmt.Errorf("load user by customer: %w", err)
  }
  if user == nil {
    return fmt.Errorf("no account for stripe customer %s", invoice.Customer.ID)
  }

  return bs.userRepo.UpdateFields(ctx, nil, user.ID, map[string]interface{}{
    "subscription_status": types.SubscriptionStatusPastDue,
    "updated_at":          time.Now(),
  })
}

func mapSubscriptionStatus(s stripe.SubscriptionStatus) string {
  switch s {
  case stripe.SubscriptionStatusActive, stripe.SubscriptionStatusTrialing:
    return types.SubscriptionStatusActive
  case stripe.SubscriptionStatusPastDue, stripe.SubscriptionStatusUnpaid:
    return types.SubscriptionStatusPastDue
  default:
    return types.SubscriptionStatusCanceled
  }
}
