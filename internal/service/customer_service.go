package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"shoptrack/internal/model"
	"shoptrack/internal/repository"

	"github.com/google/uuid"
)

type CustomerRequest struct {
	Name    string `json:"name" binding:"required"`
	LocText string `json:"loc_text"`
	Note    string `json:"note"`
}

type CustomerService interface {
	ListCustomers(ctx context.Context, page, limit int, search string) ([]model.Customer, int64, error)
	GetCustomer(ctx context.Context, id int64) (*model.Customer, error)
	CreateCustomer(ctx context.Context, userID string, req CustomerRequest) (*model.Customer, error)
	UpdateCustomer(ctx context.Context, userID string, id int64, req CustomerRequest) (*model.Customer, error)
	DeleteCustomer(ctx context.Context, userID string, id int64) error
}

type customerService struct {
	customerRepo repository.CustomerRepository
	auditRepo    repository.AuditRepository
	txManager    repository.TransactionManager
}

func NewCustomerService(
	customerRepo repository.CustomerRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
) CustomerService {
	return &customerService{
		customerRepo: customerRepo,
		auditRepo:    auditRepo,
		txManager:    txManager,
	}
}

func (s *customerService) ListCustomers(ctx context.Context, page, limit int, search string) ([]model.Customer, int64, error) {
	return s.customerRepo.List(ctx, page, limit, search)
}

func (s *customerService) GetCustomer(ctx context.Context, id int64) (*model.Customer, error) {
	return s.customerRepo.FindByID(ctx, id)
}

func (s *customerService) CreateCustomer(ctx context.Context, userID string, req CustomerRequest) (*model.Customer, error) {
	customer := model.Customer{
		Name:    req.Name,
		LocText: req.LocText,
		Note:    req.Note,
	}

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.customerRepo.Create(txCtx, &customer); err != nil {
			return fmt.Errorf("failed to create customer: %w", err)
		}
		return s.audit(txCtx, userID, model.ActionCreateCustomer, customer.ID, customer.Name, req)
	})
	if err != nil {
		return nil, err
	}

	return &customer, nil
}

func (s *customerService) UpdateCustomer(ctx context.Context, userID string, id int64, req CustomerRequest) (*model.Customer, error) {
	var updated *model.Customer
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		customer, err := s.customerRepo.FindByID(txCtx, id)
		if err != nil {
			return err
		}

		customer.Name = req.Name
		customer.LocText = req.LocText
		customer.Note = req.Note
		if err := s.customerRepo.Update(txCtx, customer); err != nil {
			return fmt.Errorf("failed to update customer: %w", err)
		}

		updated = customer
		return s.audit(txCtx, userID, model.ActionUpdateCustomer, customer.ID, customer.Name, req)
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

func (s *customerService) DeleteCustomer(ctx context.Context, userID string, id int64) error {
	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		customer, err := s.customerRepo.FindByID(txCtx, id)
		if err != nil {
			return err
		}
		if err := s.customerRepo.Delete(txCtx, id); err != nil {
			return fmt.Errorf("failed to delete customer: %w", err)
		}
		return s.audit(txCtx, userID, model.ActionDeleteCustomer, id, customer.Name, nil)
	})
}

func (s *customerService) audit(ctx context.Context, userID, action string, customerID int64, name string, payload interface{}) error {
	var uid *uuid.UUID
	if parsed, err := uuid.Parse(userID); err == nil {
		uid = &parsed
	}
	details, _ := json.Marshal(payload)
	entry := &model.AuditLog{
		UserID:     uid,
		Action:     action,
		EntityID:   strconv.FormatInt(customerID, 10),
		EntityName: name,
		Details:    string(details),
	}
	if err := s.auditRepo.Log(ctx, entry); err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}
