package address

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/joao-fontenele/storefront-checkout/internal/backend"
	"github.com/joao-fontenele/storefront-checkout/internal/domain"
	"github.com/joao-fontenele/storefront-checkout/internal/location"
)

type Backend interface {
	ListAddresses(ctx context.Context, customerID string) ([]domain.Address, error)
	CreateAddress(ctx context.Context, payload backend.AddressPayload) (string, error)
	UpdateAddress(ctx context.Context, id string, payload backend.AddressPayload) error
	DeleteAddress(ctx context.Context, id string) error
	SetDefaultAddress(ctx context.Context, customerID, id string) error
}

type NameResolver interface {
	ResolveNames(ctx context.Context, sel location.Selection) (location.Names, error)
}

// Result is the outcome of a mutation: the affected id, the re-fetched list
// and any advisory failures that did not undo the mutation.
type Result struct {
	ID        string           `json:"id,omitempty"`
	Addresses []domain.Address `json:"addresses"`
	Warnings  []string         `json:"warnings,omitempty"`
}

type Store struct {
	backend  Backend
	resolver NameResolver
	logger   *slog.Logger
}

func NewStore(b Backend, resolver NameResolver, logger *slog.Logger) *Store {
	return &Store{backend: b, resolver: resolver, logger: logger}
}

func (s *Store) List(ctx context.Context, customerID string) ([]domain.Address, error) {
	addresses, err := s.backend.ListAddresses(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("list addresses: %w", err)
	}
	return addresses, nil
}

// Create validates input, stores the address and, when asked, marks it as
// default with a second call. A failed default call leaves the address in
// place and is reported as a warning.
func (s *Store) Create(ctx context.Context, customerID string, input domain.AddressInput) (Result, error) {
	if err := Validate(input); err != nil {
		return Result{}, err
	}

	payload, err := s.payload(ctx, customerID, input)
	if err != nil {
		return Result{}, err
	}

	id, err := s.backend.CreateAddress(ctx, payload)
	if err != nil {
		return Result{}, fmt.Errorf("create address: %w", err)
	}

	result := Result{ID: id}
	if input.MakeDefault {
		s.markDefault(ctx, customerID, id, &result)
	}
	s.refresh(ctx, customerID, &result)
	return result, nil
}

func (s *Store) Update(ctx context.Context, customerID string, update domain.AddressUpdate) (Result, error) {
	if strings.TrimSpace(update.ID) == "" {
		return Result{}, &ValidationError{Fields: []string{"id"}}
	}
	if err := Validate(update.AddressInput); err != nil {
		return Result{}, err
	}
	if _, err := s.Find(ctx, customerID, update.ID); err != nil {
		return Result{}, err
	}

	payload, err := s.payload(ctx, customerID, update.AddressInput)
	if err != nil {
		return Result{}, err
	}

	if err := s.backend.UpdateAddress(ctx, update.ID, payload); err != nil {
		return Result{}, s.mutationError("update", update.ID, err)
	}

	result := Result{ID: update.ID}
	if update.MakeDefault {
		s.markDefault(ctx, customerID, update.ID, &result)
	}
	s.refresh(ctx, customerID, &result)
	return result, nil
}

// Delete removes one of the customer's addresses. An id outside the
// customer's set is ErrAddressNotFound and never reaches the backend.
func (s *Store) Delete(ctx context.Context, customerID, id string) (Result, error) {
	if _, err := s.Find(ctx, customerID, id); err != nil {
		return Result{}, err
	}
	if err := s.backend.DeleteAddress(ctx, id); err != nil {
		return Result{}, s.mutationError("delete", id, err)
	}

	result := Result{ID: id}
	s.refresh(ctx, customerID, &result)
	return result, nil
}

func (s *Store) SetDefault(ctx context.Context, customerID, id string) (Result, error) {
	if _, err := s.Find(ctx, customerID, id); err != nil {
		return Result{}, err
	}
	if err := s.backend.SetDefaultAddress(ctx, customerID, id); err != nil {
		return Result{}, s.mutationError("set default", id, err)
	}

	result := Result{ID: id}
	s.refresh(ctx, customerID, &result)
	return result, nil
}

// Find returns the address with id from the customer's current set.
func (s *Store) Find(ctx context.Context, customerID, id string) (domain.Address, error) {
	addresses, err := s.List(ctx, customerID)
	if err != nil {
		return domain.Address{}, err
	}
	for _, a := range addresses {
		if a.ID == id {
			return a, nil
		}
	}
	return domain.Address{}, fmt.Errorf("%w: %s", ErrAddressNotFound, id)
}

func (s *Store) payload(ctx context.Context, customerID string, input domain.AddressInput) (backend.AddressPayload, error) {
	sel := location.Selection{ProvinceID: input.ProvinceID, DistrictID: input.DistrictID, WardCode: input.WardCode}
	names, err := s.resolver.ResolveNames(ctx, sel)
	if err != nil {
		return backend.AddressPayload{}, err
	}

	street := strings.TrimSpace(input.Street)
	return backend.AddressPayload{
		CustomerID:    customerID,
		ReceiverName:  strings.TrimSpace(input.ReceiverName),
		ReceiverPhone: strings.TrimSpace(input.ReceiverPhone),
		Street:        street,
		ProvinceID:    input.ProvinceID,
		ProvinceName:  names.Province,
		DistrictID:    input.DistrictID,
		DistrictName:  names.District,
		WardCode:      input.WardCode,
		WardName:      names.Ward,
		FullAddress:   location.FormatAddress(street, names),
	}, nil
}

func (s *Store) markDefault(ctx context.Context, customerID, id string, result *Result) {
	if err := s.backend.SetDefaultAddress(ctx, customerID, id); err != nil {
		s.logger.Warn("failed to set default address", "error", err, "customer_id", customerID, "address_id", id)
		result.Warnings = append(result.Warnings, "Address saved but could not be set as default: "+backend.Message(err, "please try again"))
	}
}

func (s *Store) refresh(ctx context.Context, customerID string, result *Result) {
	addresses, err := s.backend.ListAddresses(ctx, customerID)
	if err != nil {
		s.logger.Warn("failed to refresh addresses", "error", err, "customer_id", customerID)
		result.Warnings = append(result.Warnings, "Could not refresh the address list")
		result.Addresses = []domain.Address{}
		return
	}
	result.Addresses = addresses
}

func (s *Store) mutationError(op, id string, err error) error {
	if backend.IsNotFound(err) {
		return fmt.Errorf("%w: %s", ErrAddressNotFound, id)
	}
	return fmt.Errorf("%s address: %w", op, err)
}

// Validate checks the required fields of an address form.
func Validate(input domain.AddressInput) error {
	var missing []string
	if strings.TrimSpace(input.ReceiverName) == "" {
		missing = append(missing, "receiverName")
	}
	if strings.TrimSpace(input.ReceiverPhone) == "" {
		missing = append(missing, "receiverPhone")
	}
	if input.ProvinceID == 0 {
		missing = append(missing, "provinceId")
	}
	if input.DistrictID == 0 {
		missing = append(missing, "districtId")
	}
	if strings.TrimSpace(input.WardCode) == "" {
		missing = append(missing, "wardCode")
	}
	if strings.TrimSpace(input.Street) == "" {
		missing = append(missing, "street")
	}
	if len(missing) > 0 {
		return &ValidationError{Fields: missing}
	}
	return nil
}

// Default returns the address flagged as default, if any.
func Default(addresses []domain.Address) (domain.Address, bool) {
	for _, a := range addresses {
		if a.IsDefault {
			return a, true
		}
	}
	return domain.Address{}, false
}
