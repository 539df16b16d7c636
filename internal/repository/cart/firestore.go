package cart

import (
	"context"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/go-faster/errors"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"shoppingcart/internal/domain"
)

// FirestoreRepository stores each cart as a document "<id>.<instance>" in one
// collection.
//
// TTL:
// - SetExpireTime writes expiresAt; configure a Firestore TTL policy on it.
// - TTL deletion is lazy, so reads treat a past expiresAt as absent.
type FirestoreRepository struct {
	client     *firestore.Client
	collection string
	logger     *zap.Logger
	now        func() time.Time
}

type cartDoc struct {
	ID        string     `firestore:"id"`
	Instance  string     `firestore:"instance"`
	Content   string     `firestore:"content"`
	UpdatedAt time.Time  `firestore:"updatedAt"`
	ExpiresAt *time.Time `firestore:"expiresAt,omitempty"`
}

var _ Repository = (*FirestoreRepository)(nil)

// NewFirestore builds a document-store backed repository. An empty
// collection selects DefaultTable.
func NewFirestore(client *firestore.Client, collection string, logger *zap.Logger) *FirestoreRepository {
	if strings.TrimSpace(collection) == "" {
		collection = DefaultTable
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FirestoreRepository{client: client, collection: collection, logger: logger, now: time.Now}
}

func (r *FirestoreRepository) doc(id, instance string) (*firestore.DocumentRef, error) {
	if strings.Contains(id, "/") || strings.Contains(instance, "/") {
		return nil, errors.Wrapf(domain.ErrInvalidInput, "cart key %q/%q must not contain '/'", id, instance)
	}
	return r.client.Collection(r.collection).Doc(id + "." + instance), nil
}

func (r *FirestoreRepository) expired(d cartDoc) bool {
	return d.ExpiresAt != nil && !d.ExpiresAt.After(r.now())
}

// CreateOrUpdate overwrites the whole document, clearing any expiry.
func (r *FirestoreRepository) CreateOrUpdate(ctx context.Context, id, instance string, content []byte) error {
	ref, err := r.doc(id, instance)
	if err != nil {
		return err
	}
	_, err = ref.Set(ctx, cartDoc{
		ID:        id,
		Instance:  instance,
		Content:   string(content),
		UpdatedAt: r.now().UTC(),
	})
	if err != nil {
		r.logger.Error("cart repo: set doc", zap.String("doc", ref.ID), zap.Error(err))
		return err
	}
	return nil
}

func (r *FirestoreRepository) FindByIDAndInstanceName(ctx context.Context, id, instance string) (*domain.StoredCart, error) {
	ref, err := r.doc(id, instance)
	if err != nil {
		return nil, err
	}
	snap, err := ref.Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, domain.ErrNotFound
		}
		r.logger.Error("cart repo: get doc", zap.String("doc", ref.ID), zap.Error(err))
		return nil, err
	}
	var d cartDoc
	if err := snap.DataTo(&d); err != nil {
		return nil, errors.Wrapf(err, "decode cart doc %s", ref.ID)
	}
	if r.expired(d) {
		r.logger.Debug("cart repo: doc expired", zap.String("doc", ref.ID))
		return nil, domain.ErrNotFound
	}
	return &domain.StoredCart{ID: id, Instance: instance, Content: []byte(d.Content)}, nil
}

func (r *FirestoreRepository) Remove(ctx context.Context, id, instance string) error {
	ref, err := r.doc(id, instance)
	if err != nil {
		return err
	}
	if _, err := ref.Delete(ctx); err != nil {
		r.logger.Error("cart repo: delete doc", zap.String("doc", ref.ID), zap.Error(err))
		return err
	}
	return nil
}

// SetExpireTime is best effort: a missing document is not an error.
func (r *FirestoreRepository) SetExpireTime(ctx context.Context, id, instance string, ttl time.Duration) error {
	ref, err := r.doc(id, instance)
	if err != nil {
		return err
	}
	_, err = ref.Update(ctx, []firestore.Update{
		{Path: "expiresAt", Value: r.now().UTC().Add(ttl)},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil
		}
		r.logger.Error("cart repo: expire doc", zap.String("doc", ref.ID), zap.Error(err))
		return err
	}
	return nil
}

// RenameCart moves the document in a transaction. Same policy as Redis: a
// missing source is a no-op and a live destination yields
// domain.ErrAlreadyExists.
func (r *FirestoreRepository) RenameCart(ctx context.Context, oldID, newID, instance string) error {
	oldRef, err := r.doc(oldID, instance)
	if err != nil {
		return err
	}
	newRef, err := r.doc(newID, instance)
	if err != nil {
		return err
	}

	return r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		oldSnap, err := tx.Get(oldRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return nil
			}
			return err
		}
		var d cartDoc
		if err := oldSnap.DataTo(&d); err != nil {
			return errors.Wrapf(err, "decode cart doc %s", oldRef.ID)
		}
		if r.expired(d) {
			return nil
		}

		newSnap, err := tx.Get(newRef)
		switch {
		case err == nil:
			var existing cartDoc
			if err := newSnap.DataTo(&existing); err != nil {
				return errors.Wrapf(err, "decode cart doc %s", newRef.ID)
			}
			if !r.expired(existing) {
				return errors.Wrapf(domain.ErrAlreadyExists, "cart %s", newRef.ID)
			}
		case status.Code(err) != codes.NotFound:
			return err
		}

		d.ID = newID
		d.UpdatedAt = r.now().UTC()
		if err := tx.Set(newRef, d); err != nil {
			return err
		}
		return tx.Delete(oldRef)
	})
}
