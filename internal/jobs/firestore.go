package jobs

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Collection holds one document per snipe job.
const Collection = "reservationJobs"

// FirestoreStore reads jobs straight from the backend's Firestore project.
type FirestoreStore struct {
	client *firestore.Client
}

// FirestoreConfig selects the Firebase project. An empty CredentialsFile uses
// application default credentials.
type FirestoreConfig struct {
	ProjectID       string
	CredentialsFile string
}

func NewFirestoreStore(ctx context.Context, cfg FirestoreConfig) (*FirestoreStore, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.ProjectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("firebase app: %w", err)
	}
	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("firestore client: %w", err)
	}
	return &FirestoreStore{client: client}, nil
}

// jobDoc is the document layout the backend writes.
type jobDoc struct {
	UserID          string    `firestore:"userId"`
	VenueID         any       `firestore:"venueId"`
	Date            string    `firestore:"date"`
	Hour            int       `firestore:"hour"`
	Minute          int       `firestore:"minute"`
	PartySize       int       `firestore:"partySize"`
	Status          string    `firestore:"status"`
	Note            *string   `firestore:"note"`
	Summary         *string   `firestore:"aiSummary"`
	TargetTimestamp int64     `firestore:"targetTimestamp"`
	CreatedAt       time.Time `firestore:"createdAt"`
}

func (d jobDoc) toJob(id string) Job {
	j := Job{
		ID:        id,
		UserID:    d.UserID,
		VenueID:   venueIDString(d.VenueID),
		Date:      d.Date,
		Hour:      d.Hour,
		Minute:    d.Minute,
		PartySize: d.PartySize,
		Status:    d.Status,
		Note:      d.Note,
		Summary:   d.Summary,
		CreatedAt: d.CreatedAt,
	}
	if d.TargetTimestamp > 0 {
		j.TargetTimestamp = time.UnixMilli(d.TargetTimestamp).UTC()
	}
	return j
}

// venueIDString accepts the numeric and string ids both found in the collection.
func venueIDString(v any) string {
	switch id := v.(type) {
	case nil:
		return ""
	case string:
		return id
	case int64:
		return fmt.Sprintf("%d", id)
	case float64:
		return fmt.Sprintf("%.0f", id)
	default:
		return fmt.Sprint(id)
	}
}

func (s *FirestoreStore) ListByUser(ctx context.Context, userID string) ([]Job, error) {
	docs, err := s.client.Collection(Collection).Where("userId", "==", userID).Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("firestore: list jobs: %w", err)
	}
	out := make([]Job, 0, len(docs))
	for _, doc := range docs {
		var d jobDoc
		if err := doc.DataTo(&d); err != nil {
			return nil, fmt.Errorf("firestore: decode job %s: %w", doc.Ref.ID, err)
		}
		out = append(out, d.toJob(doc.Ref.ID))
	}
	return out, nil
}

func (s *FirestoreStore) Get(ctx context.Context, id string) (Job, error) {
	doc, err := s.client.Collection(Collection).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return Job{}, ErrNotFound
		}
		return Job{}, fmt.Errorf("firestore: get job %s: %w", id, err)
	}
	var d jobDoc
	if err := doc.DataTo(&d); err != nil {
		return Job{}, fmt.Errorf("firestore: decode job %s: %w", id, err)
	}
	return d.toJob(doc.Ref.ID), nil
}

func (s *FirestoreStore) Close() error {
	return s.client.Close()
}
