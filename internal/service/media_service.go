package service

import (
	"context"

	"github.com/iliyamo/repairhub/internal/apperr"
	"github.com/iliyamo/repairhub/internal/model"
	"github.com/iliyamo/repairhub/internal/storage"
)

// MediaService records pictures uploaded to a task after its creation.
// These live only as TaskImage rows; Task.Images is never touched here.
type MediaService struct {
	tasks  TaskStore
	images TaskImageStore
	files  storage.FileStore
}

func NewMediaService(st Stores, files storage.FileStore) *MediaService {
	return &MediaService{tasks: st.Tasks, images: st.TaskImages, files: files}
}

// AttachImage stores an upload from the requester or the assignee. Anyone
// else is refused before the file reaches storage.
func (s *MediaService) AttachImage(ctx context.Context, id model.Identity, taskID uint64, up storage.Upload, description *string) (*model.TaskImage, error) {
	t, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, apperr.Dependency("load task", err)
	}
	var addedBy string
	switch {
	case id.Is(model.RoleUser, t.Requester):
		addedBy = model.AddedByUser
	case id.Role == model.RoleTechnician && t.AssignedTo(id.Subject):
		addedBy = model.AddedByTechnician
	default:
		return nil, apperr.Forbidden("only the requester or the assigned technician may upload")
	}

	path, err := s.files.Store(ctx, storage.TaskImage, up)
	if err != nil {
		return nil, apperr.Dependency("store task image", err)
	}
	img := &model.TaskImage{TaskID: taskID, Path: path, AddedBy: addedBy, Description: description}
	if err := s.images.Add(ctx, img); err != nil {
		_ = s.files.Delete(ctx, path)
		return nil, apperr.Dependency("record task image", err)
	}
	return img, nil
}

// ListImages returns the uploaded images of a task.
func (s *MediaService) ListImages(ctx context.Context, id model.Identity, taskID uint64) ([]model.TaskImage, error) {
	t, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, apperr.Dependency("load task", err)
	}
	if !id.Is(model.RoleUser, t.Requester) && !(id.Role == model.RoleTechnician && t.AssignedTo(id.Subject)) && id.Role != model.RoleAdmin {
		return nil, apperr.Forbidden("not a participant of this task")
	}
	imgs, err := s.images.ListByTask(ctx, taskID)
	return imgs, apperr.Dependency("list task images", err)
}
