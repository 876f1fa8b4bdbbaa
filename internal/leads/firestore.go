package leads

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const defaultCollection = "cvLeads"

// ClientProvider yields the shared Firestore client.
type ClientProvider interface {
	Client(ctx context.Context) (*firestore.Client, error)
}

// FirestoreStore writes one document per lead keyed by its id.
type FirestoreStore struct {
	provider   ClientProvider
	collection string
}

type leadDocument struct {
	Name      string    `firestore:"name"`
	Email     string    `firestore:"email"`
	Company   string    `firestore:"company,omitempty"`
	Locale    string    `firestore:"locale"`
	Source    string    `firestore:"source"`
	UserAgent string    `firestore:"userAgent,omitempty"`
	CreatedAt time.Time `firestore:"createdAt"`
}

// NewFirestoreStore constructs the store. collection defaults to "cvLeads".
func NewFirestoreStore(provider ClientProvider, collection string) (*FirestoreStore, error) {
	if provider == nil {
		return nil, errors.New("leads: firestore provider is required")
	}
	collection = strings.TrimSpace(collection)
	if collection == "" {
		collection = defaultCollection
	}
	return &FirestoreStore{provider: provider, collection: collection}, nil
}

func toDocument(lead Lead) leadDocument {
	return leadDocument{
		Name:      lead.Name,
		Email:     lead.Email,
		Company:   lead.Company,
		Locale:    lead.Locale,
		Source:    lead.Source,
		UserAgent: lead.UserAgent,
		CreatedAt: lead.CreatedAt.UTC(),
	}
}

func fromDocument(id string, doc leadDocument) Lead {
	return Lead{
		ID:        id,
		Name:      doc.Name,
		Email:     doc.Email,
		Company:   doc.Company,
		Locale:    doc.Locale,
		Source:    doc.Source,
		UserAgent: doc.UserAgent,
		CreatedAt: doc.CreatedAt,
	}
}

func (s *FirestoreStore) Create(ctx context.Context, lead Lead) error {
	client, err := s.provider.Client(ctx)
	if err != nil {
		return err
	}
	if _, err := client.Collection(s.collection).Doc(lead.ID).Create(ctx, toDocument(lead)); err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return ErrDuplicate
		}
		return fmt.Errorf("leads: firestore create: %w", err)
	}
	return nil
}

func (s *FirestoreStore) Get(ctx context.Context, id string) (Lead, error) {
	client, err := s.provider.Client(ctx)
	if err != nil {
		return Lead{}, err
	}
	snap, err := client.Collection(s.collection).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return Lead{}, ErrNotFound
		}
		return Lead{}, fmt.Errorf("leads: firestore get: %w", err)
	}
	var doc leadDocument
	if err := snap.DataTo(&doc); err != nil {
		return Lead{}, fmt.Errorf("leads: decode %s: %w", id, err)
	}
	return fromDocument(snap.Ref.ID, doc), nil
}

// Close is a no-op; the provider owns the client.
func (s *FirestoreStore) Close() error { return nil }
