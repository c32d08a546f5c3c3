package service

import (
	"context"
	"errors"
	"time"

	"fleet/internal/model"
	"fleet/internal/repository"
	"fleet/internal/storage"
	ws "fleet/internal/websocket"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrDocumentNotFound = errors.New("no document found")

// DriverDocInfo is the document metadata exposed on rosters.
type DriverDocInfo struct {
	FilePath   string     `json:"filePath"`
	UploadedAt time.Time  `json:"uploadedAt"`
	VehicleID  *uuid.UUID `json:"vehicleId"`
}

// RegionDriverDoc pairs a driver with their license metadata for the
// regional vendor roster.
type RegionDriverDoc struct {
	UserID    string         `json:"userId"`
	FirstName string         `json:"firstName"`
	LastName  string         `json:"lastName"`
	Email     string         `json:"email"`
	Region    string         `json:"region"`
	Document  *DriverDocInfo `json:"document"`
}

// DocumentService owns the license lifecycle: one document per driver,
// replaced wholesale on re-upload.
type DocumentService interface {
	Get(ctx context.Context, userID uuid.UUID) (*model.DriverDocument, error)
	Replace(ctx context.Context, actor model.Identity, filePath string) (*model.DriverDocument, error)
	RegionRoster(ctx context.Context, region string) ([]RegionDriverDoc, error)
}

type documentService struct {
	docs  repository.DriverDocumentRepository
	users repository.UserRepository
	audit repository.AuditRepository
	txMgr repository.TransactionManager
	store storage.Store
	hub   *ws.Hub
}

// NewDocumentService returns a new instance of DocumentService.
func NewDocumentService(
	docs repository.DriverDocumentRepository,
	users repository.UserRepository,
	audit repository.AuditRepository,
	txMgr repository.TransactionManager,
	store storage.Store,
	hub *ws.Hub,
) DocumentService {
	return &documentService{docs: docs, users: users, audit: audit, txMgr: txMgr, store: store, hub: hub}
}

func (s *documentService) Get(ctx context.Context, userID uuid.UUID) (*model.DriverDocument, error) {
	doc, err := s.docs.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDocumentNotFound
		}
		return nil, err
	}
	return doc, nil
}

// Replace creates the caller's license record, replacing any existing one.
// The old blob is removed best-effort after the record swap commits; a
// failed blob delete never blocks the logical replace. The new record's
// vehicle mirror starts empty; only the assignment engine writes it.
func (s *documentService) Replace(ctx context.Context, actor model.Identity, filePath string) (*model.DriverDocument, error) {
	var oldPath string
	doc := &model.DriverDocument{
		UserID:   actor.UserID,
		DocType:  model.DocTypeLicense,
		FilePath: filePath,
	}

	err := s.txMgr.RunInTx(ctx, func(txCtx context.Context) error {
		existing, err := s.docs.GetByUserID(txCtx, actor.UserID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		if existing != nil {
			oldPath = existing.FilePath
			if err := s.docs.DeleteByUserID(txCtx, actor.UserID); err != nil {
				return err
			}

			actorID := actor.UserID
			if err := s.audit.Log(txCtx, &model.AuditLog{
				UserID:   &actorID,
				Action:   model.ActionReplaceLicense,
				EntityID: actor.UserID.String(),
			}); err != nil {
				return err
			}
		}

		return s.docs.Create(txCtx, doc)
	})
	if err != nil {
		return nil, err
	}

	if oldPath != "" && s.store != nil {
		s.store.Remove(oldPath)
	}

	if s.hub != nil {
		s.hub.BroadcastEvent(ws.Event{
			Type:     ws.EventLicenseReplaced,
			DriverID: actor.UserID.String(),
			Region:   actor.Region,
		})
	}

	return doc, nil
}

// RegionRoster lists the drivers of a region together with their license
// metadata (nil document when none uploaded yet).
func (s *documentService) RegionRoster(ctx context.Context, region string) ([]RegionDriverDoc, error) {
	drivers, err := s.users.ListDriversByRegion(ctx, region)
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(drivers))
	for _, d := range drivers {
		ids = append(ids, d.ID)
	}

	docs, err := s.docs.ListByUserIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byUser := make(map[uuid.UUID]*model.DriverDocument, len(docs))
	for i := range docs {
		byUser[docs[i].UserID] = &docs[i]
	}

	out := make([]RegionDriverDoc, 0, len(drivers))
	for _, d := range drivers {
		row := RegionDriverDoc{
			UserID:    d.ID.String(),
			FirstName: d.FirstName,
			LastName:  d.LastName,
			Email:     d.Email,
			Region:    d.Region,
		}
		if doc, ok := byUser[d.ID]; ok {
			row.Document = &DriverDocInfo{
				FilePath:   doc.FilePath,
				UploadedAt: doc.UploadedAt,
				VehicleID:  doc.VehicleID,
			}
		}
		out = append(out, row)
	}
	return out, nil
}
