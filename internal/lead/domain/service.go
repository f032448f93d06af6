package domain

import (
	"context"
	"errors"

	"github.com/smallbiznis/clubos/pkg/db/pagination"
)

type CreateLeadRequest struct {
	Name         string         `json:"name"`
	Email        string         `json:"email"`
	Phone        string         `json:"phone"`
	FacilityName string         `json:"facility_name"`
	Message      string         `json:"message"`
	Attributes   map[string]any `json:"attributes"`
}

type ListLeadRequest struct {
	PageToken string
	PageSize  int32
}

type ListLeadResponse struct {
	pagination.PageInfo
	Leads []Lead `json:"leads"`
}

type Service interface {
	Create(context.Context, CreateLeadRequest) (Lead, error)
	List(context.Context, ListLeadRequest) (ListLeadResponse, error)
}

var (
	ErrInvalidName      = errors.New("invalid_name")
	ErrInvalidEmail     = errors.New("invalid_email")
	ErrInvalidFacility  = errors.New("invalid_facility_name")
	ErrInvalidPageToken = errors.New("invalid_page_token")
	ErrDuplicate        = errors.New("lead_already_exists")
)
