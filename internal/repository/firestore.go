package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/joseph-ayodele/schedorder/constants"
	"github.com/joseph-ayodele/schedorder/internal/common"
	"github.com/joseph-ayodele/schedorder/internal/entity"
)

const deadlinesCollection = "calendar_deadlines"

type fsOrder struct {
	CaseNumber          string     `firestore:"caseNumber"`
	DocumentType        string     `firestore:"documentType"`
	FilingDate          *time.Time `firestore:"filingDate"`
	CourtName           *string    `firestore:"courtName"`
	JudgeName           *string    `firestore:"judgeName"`
	OriginalFilename    string     `firestore:"originalFilename"`
	FileHash            string     `firestore:"fileHash"`
	ExtractionTimestamp time.Time  `firestore:"extractionTimestamp"`
	ArchiveKey          *string    `firestore:"archiveKey"`
}

type fsDeadline struct {
	SchedulingOrderID string    `firestore:"schedulingOrderId"`
	CaseNumber        string    `firestore:"caseNumber"`
	Title             string    `firestore:"title"`
	DueDate           time.Time `firestore:"dueDate"`
	Description       *string   `firestore:"description"`
	Category          string    `firestore:"category"`
	Status            string    `firestore:"status"`
	ConfidenceScore   float64   `firestore:"confidenceScore"`
}

// FirestoreStore keeps orders in one collection keyed by order id and deadlines in
// calendar_deadlines with a back reference.
type FirestoreStore struct {
	client     *firestore.Client
	collection string
	logger     *slog.Logger
}

func OpenFirestore(ctx context.Context, projectID, collection string, logger *slog.Logger) (*FirestoreStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}
	return NewFirestoreStore(client, collection, logger), nil
}

func NewFirestoreStore(client *firestore.Client, collection string, logger *slog.Logger) *FirestoreStore {
	if logger == nil {
		logger = slog.Default()
	}
	if collection == "" {
		collection = "scheduling_orders"
	}
	return &FirestoreStore{client: client, collection: collection, logger: logger}
}

func (s *FirestoreStore) ExistsByHash(ctx context.Context, fileHash string) (bool, error) {
	docs, err := s.client.Collection(s.collection).Where("fileHash", "==", fileHash).Limit(1).Documents(ctx).GetAll()
	if err != nil {
		return false, fmt.Errorf("%w: failed to query for duplicates: %v", common.ErrDatabase, err)
	}
	return len(docs) > 0, nil
}

func (s *FirestoreStore) SaveDocument(ctx context.Context, doc *entity.ExtractedDocument, opts SaveOptions) (uuid.UUID, error) {
	rec, deadlines := newIDs(doc)
	orders := s.client.Collection(s.collection)
	dls := s.client.Collection(deadlinesCollection)

	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		dups, err := tx.Documents(orders.Where("fileHash", "==", rec.FileHash).Limit(1)).GetAll()
		if err != nil {
			return err
		}
		if len(dups) > 0 {
			return common.ErrDuplicate
		}

		var prior []*firestore.DocumentSnapshot
		if opts.SupersedePrior {
			prior, err = tx.Documents(dls.Where("caseNumber", "==", rec.CaseNumber).Where("status", "==", string(constants.DeadlineActive))).GetAll()
			if err != nil {
				return err
			}
		}

		// All reads happen before the first write.
		for _, snap := range prior {
			if err := tx.Update(snap.Ref, []firestore.Update{{Path: "status", Value: string(constants.DeadlineSuperseded)}}); err != nil {
				return err
			}
		}
		if err := tx.Create(orders.Doc(rec.ID.String()), fsOrder{
			CaseNumber:          rec.CaseNumber,
			DocumentType:        string(rec.DocumentType),
			FilingDate:          rec.FilingDate,
			CourtName:           rec.CourtName,
			JudgeName:           rec.JudgeName,
			OriginalFilename:    rec.OriginalFilename,
			FileHash:            rec.FileHash,
			ExtractionTimestamp: rec.ExtractionTimestamp,
			ArchiveKey:          opts.ArchiveKey,
		}); err != nil {
			return err
		}
		for _, d := range deadlines {
			if err := tx.Create(dls.Doc(d.ID.String()), fsDeadline{
				SchedulingOrderID: rec.ID.String(),
				CaseNumber:        rec.CaseNumber,
				Title:             d.Title,
				DueDate:           d.DueDate,
				Description:       d.Description,
				Category:          string(d.Category),
				Status:            string(d.Status),
				ConfidenceScore:   d.ConfidenceScore,
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if errors.Is(err, common.ErrDuplicate) {
		return uuid.Nil, common.ErrDuplicate
	}
	if err != nil {
		s.logger.Error("store.save.failed", "case_number", rec.CaseNumber, "error", err)
		return uuid.Nil, fmt.Errorf("%w: %v", common.ErrDatabase, err)
	}
	s.logger.Info("store.saved", "order_id", rec.ID, "case_number", rec.CaseNumber, "deadlines", len(deadlines))
	return rec.ID, nil
}

func (s *FirestoreStore) GetDocument(ctx context.Context, id uuid.UUID) (*entity.DocumentRecord, []entity.DeadlineRecord, error) {
	snap, err := s.client.Collection(s.collection).Doc(id.String()).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, nil, common.ErrNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", common.ErrDatabase, err)
	}
	var o fsOrder
	if err := snap.DataTo(&o); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", common.ErrDatabase, err)
	}
	rec := &entity.DocumentRecord{
		ID:                  id,
		CaseNumber:          o.CaseNumber,
		DocumentType:        constants.DocumentType(o.DocumentType),
		FilingDate:          o.FilingDate,
		CourtName:           o.CourtName,
		JudgeName:           o.JudgeName,
		OriginalFilename:    o.OriginalFilename,
		FileHash:            o.FileHash,
		ExtractionTimestamp: o.ExtractionTimestamp,
		ArchiveKey:          o.ArchiveKey,
	}
	deadlines, err := s.deadlines(ctx, s.client.Collection(deadlinesCollection).Where("schedulingOrderId", "==", id.String()))
	if err != nil {
		return nil, nil, err
	}
	return rec, deadlines, nil
}

func (s *FirestoreStore) ListDeadlines(ctx context.Context, caseNumber string) ([]entity.DeadlineRecord, error) {
	return s.deadlines(ctx, s.client.Collection(deadlinesCollection).Where("caseNumber", "==", caseNumber))
}

func (s *FirestoreStore) deadlines(ctx context.Context, q firestore.Query) ([]entity.DeadlineRecord, error) {
	iter := q.Documents(ctx)
	defer iter.Stop()

	var out []entity.DeadlineRecord
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", common.ErrDatabase, err)
		}
		var d fsDeadline
		if err := snap.DataTo(&d); err != nil {
			return nil, fmt.Errorf("%w: %v", common.ErrDatabase, err)
		}
		id, _ := uuid.Parse(snap.Ref.ID)
		orderID, _ := uuid.Parse(d.SchedulingOrderID)
		out = append(out, entity.DeadlineRecord{
			ID:                id,
			SchedulingOrderID: orderID,
			Title:             d.Title,
			DueDate:           d.DueDate,
			Description:       d.Description,
			Category:          constants.DeadlineCategory(d.Category),
			Status:            constants.DeadlineStatus(d.Status),
			ConfidenceScore:   d.ConfidenceScore,
		})
	}
	// Ordered client-side; no composite index needed.
	sort.SliceStable(out, func(i, j int) bool { return out[i].DueDate.Before(out[j].DueDate) })
	return out, nil
}

func (s *FirestoreStore) Close() error {
	return s.client.Close()
}
