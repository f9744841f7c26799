package profile

import (
	"context"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/oklog/ulid/v2"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	applog "github.com/janisto/prima-profile-e2e/internal/platform/logging"
)

const (
	accountsCollection = "accounts"
	profilesCollection = "profiles"
)

// firestoreProfile maps to Firestore document structure.
type firestoreProfile struct {
	Name      string    `firestore:"name"`
	AvatarID  string    `firestore:"avatar_id"`
	Gender    string    `firestore:"gender"`
	BirthYear int       `firestore:"birth_year"`
	AgeRating string    `firestore:"age_rating,omitempty"`
	PINSet    bool      `firestore:"pin_set"`
	CreatedAt time.Time `firestore:"created_at"`
}

func (fp firestoreProfile) toProfile(account, id string) Profile {
	return Profile{
		ULID:      id,
		Account:   account,
		Name:      fp.Name,
		AvatarID:  fp.AvatarID,
		Gender:    fp.Gender,
		BirthYear: fp.BirthYear,
		AgeRating: fp.AgeRating,
		PINSet:    fp.PINSet,
		CreatedAt: fp.CreatedAt,
	}
}

// FirestoreStore implements Service using Firestore with transactions.
// Profiles live under accounts/{account}/profiles/{ulid}.
type FirestoreStore struct {
	client *firestore.Client
	max    int
}

// NewFirestoreStore creates a new Firestore-backed store. limit <= 0 uses DefaultMaxProfiles.
func NewFirestoreStore(client *firestore.Client, limit int) *FirestoreStore {
	if limit <= 0 {
		limit = DefaultMaxProfiles
	}
	return &FirestoreStore{client: client, max: limit}
}

func (s *FirestoreStore) profiles(account string) *firestore.CollectionRef {
	return s.client.Collection(accountsCollection).Doc(account).Collection(profilesCollection)
}

// Create stores a new profile. The limit check and the write share one transaction.
func (s *FirestoreStore) Create(ctx context.Context, account string, params CreateParams) (*Profile, error) {
	account = NormalizeAccount(account)
	col := s.profiles(account)
	id := ulid.Make().String()
	docRef := col.Doc(id)

	var result *Profile

	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		existing, err := tx.Documents(col.Select().Limit(s.max)).GetAll()
		if err != nil {
			return err
		}
		if len(existing) >= s.max {
			return ErrLimitReached
		}

		fp := firestoreProfile{
			Name:      strings.TrimSpace(params.Name),
			AvatarID:  params.AvatarID,
			Gender:    params.Gender,
			BirthYear: params.BirthYear,
			AgeRating: params.AgeRating,
			PINSet:    params.PIN != "",
			CreatedAt: time.Now().UTC(),
		}
		if err := tx.Create(docRef, fp); err != nil {
			return err
		}

		p := fp.toProfile(account, id)
		result = &p
		return nil
	})
	if err != nil {
		applog.LogAuditEvent(ctx, "create", account, "profile", id, applog.AuditFailure,
			map[string]any{"error": categorizeError(err)})
		return nil, err
	}

	applog.LogAuditEvent(ctx, "create", account, "profile", id, applog.AuditSuccess, nil)

	return result, nil
}

// List returns the account's profiles ordered by ULID, which is creation order.
func (s *FirestoreStore) List(ctx context.Context, account string) ([]Profile, error) {
	account = NormalizeAccount(account)
	docs, err := s.profiles(account).OrderBy(firestore.DocumentID, firestore.Asc).Documents(ctx).GetAll()
	if err != nil {
		return nil, err
	}

	out := make([]Profile, 0, len(docs))
	for _, doc := range docs {
		var fp firestoreProfile
		if err := doc.DataTo(&fp); err != nil {
			return nil, err
		}
		out = append(out, fp.toProfile(account, doc.Ref.ID))
	}
	return out, nil
}

// Delete removes a profile using a transaction to ensure it exists.
func (s *FirestoreStore) Delete(ctx context.Context, account, id string) error {
	account = NormalizeAccount(account)
	if id == "" || strings.Contains(id, "/") {
		return ErrNotFound
	}
	docRef := s.profiles(account).Doc(id)

	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		_, err := tx.Get(docRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return ErrNotFound
			}
			return err
		}

		return tx.Delete(docRef)
	})
	if err != nil {
		applog.LogAuditEvent(ctx, "delete", account, "profile", id, applog.AuditFailure,
			map[string]any{"error": categorizeError(err)})
		return err
	}

	applog.LogAuditEvent(ctx, "delete", account, "profile", id, applog.AuditSuccess, nil)

	return nil
}

// Compile-time interface check
var _ Service = (*FirestoreStore)(nil)
