package repository

import (
	"context"
	"errors"

	"cloud.google.com/go/firestore"
	"github.com/smallbiznis/clubos/internal/lead/domain"
	"google.golang.org/api/iterator"
)

const leadsCollection = "leads"

type firestoreRepo struct {
	client *firestore.Client
}

func NewFirestore(client *firestore.Client) domain.Repository {
	return &firestoreRepo{client: client}
}

// Insert checks for an earlier lead from the same email and facility inside
// the transaction that creates the document.
func (r *firestoreRepo) Insert(ctx context.Context, lead *domain.Lead) error {
	leads := r.client.Collection(leadsCollection)
	ref := leads.Doc(lead.ID.String())

	return r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		existing := leads.
			Where("email", "==", lead.Email).
			Where("facilitySlug", "==", lead.FacilitySlug).
			Limit(1)
		docs, err := tx.Documents(existing).GetAll()
		if err != nil {
			return err
		}
		if len(docs) > 0 {
			return domain.ErrDuplicate
		}
		return tx.Create(ref, lead)
	})
}

func (r *firestoreRepo) List(ctx context.Context, filter domain.ListFilter) ([]*domain.Lead, error) {
	query := r.client.Collection(leadsCollection).
		OrderBy("createdAt", firestore.Desc).
		OrderBy("id", firestore.Desc)
	if filter.BeforeCreatedAt != nil {
		query = query.StartAfter(*filter.BeforeCreatedAt, int64(filter.BeforeID))
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	iter := query.Documents(ctx)
	defer iter.Stop()

	var leads []*domain.Lead
	for {
		doc, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, err
		}
		var lead domain.Lead
		if err := doc.DataTo(&lead); err != nil {
			return nil, err
		}
		leads = append(leads, &lead)
	}
	return leads, nil
}
